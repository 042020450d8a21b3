package flagx

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	allowed := []string{"-c", "-config"}

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"separate value", []string{"-c", "gallery.json", "-p", "8080"}, []string{"-c", "gallery.json"}},
		{"equals form", []string{"-config=gallery.json", "-migrate"}, []string{"-config=gallery.json"}},
		{"equals value may start with a dash", []string{"-config=-odd.json"}, []string{"-config=-odd.json"}},
		{"dangling flag", []string{"-c"}, []string{"-c"}},
		{"next flag is not a value", []string{"-c", "-migrate"}, []string{"-c"}},
		{"order and repeats kept", []string{"-c", "a.json", "-b", "x", "-config", "b.json"}, []string{"-c", "a.json", "-config", "b.json"}},
		{"nothing allowed", []string{"-b", "127.0.0.1", "-migrate=true", "positional"}, []string{}},
		{"no args", nil, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, allowed))
		})
	}
}

func TestConfigFileFlag(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	t.Run("short -c with value", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", "/path/short.json"}
		assert.Equal(t, "/path/short.json", ConfigFileFlag(""))
	})

	t.Run("long -config with value", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", "/path/long.json"}
		assert.Equal(t, "/path/long.json", ConfigFileFlag(""))
	})

	t.Run("unknown flags are ignored", func(t *testing.T) {
		os.Args = []string{"testbin", "-x", "1", "-y", "2"}
		assert.Empty(t, ConfigFileFlag(""))
	})

	t.Run("multiple flags, last wins", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", "/path/1.json", "-config", "/path/2.json"}
		assert.Equal(t, "/path/2.json", ConfigFileFlag(""))
	})

	t.Run("env fallback", func(t *testing.T) {
		os.Args = []string{"testbin"}
		t.Setenv("GALLERY_TEST_CONFIG", "/path/env.json")
		assert.Equal(t, "/path/env.json", ConfigFileFlag("GALLERY_TEST_CONFIG"))
	})

	t.Run("flag beats env", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", "/path/flag.json"}
		t.Setenv("GALLERY_TEST_CONFIG", "/path/env.json")
		assert.Equal(t, "/path/flag.json", ConfigFileFlag("GALLERY_TEST_CONFIG"))
	})
}
