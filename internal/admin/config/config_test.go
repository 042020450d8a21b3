package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/photogallery/internal/admin/storage"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		EnvDatabaseURL, EnvLogLevel, EnvWorkers, EnvJPEGQuality, EnvJournalPath,
		EnvS3Endpoint, EnvS3Region, EnvS3Bucket, EnvS3AccessKeyID, EnvS3SecretAccessKey,
		EnvS3PathStyle, EnvStaticHost, EnvConfigFile,
	} {
		t.Setenv(name, "")
	}
}

func writeJSON(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cli.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	c, err := Load("")
	require.NoError(t, err)

	var want Config
	want.LoadDefaults()
	if diff := cmp.Diff(want, *c); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "uploads.db", filepath.Base(c.JournalPath))
	assert.Equal(t, 80, c.JPEGQuality)
}

func TestLoad_EnvThenJSON(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvDatabaseURL, "postgres://env/db")
	t.Setenv(EnvWorkers, "3")
	t.Setenv(EnvS3Bucket, "env-bucket")
	t.Setenv(EnvS3SecretAccessKey, "env-secret")
	t.Setenv(EnvS3PathStyle, "true")

	path := writeJSON(t, `{
		"workers": 6,
		"journal_path": "",
		"s3": {"bucket": "json-bucket", "access_key_id": "json-id", "static_host": "https://static.example"}
	}`)

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://env/db", c.DatabaseDSN)
	assert.Equal(t, 6, c.Workers)
	assert.Equal(t, "", c.JournalPath)

	want := storage.S3Config{
		Bucket:          "json-bucket",
		AccessKeyID:     "json-id",
		SecretAccessKey: "env-secret",
		StaticHost:      "https://static.example",
		PathStyle:       true,
	}
	if diff := cmp.Diff(want, c.S3); diff != "" {
		t.Errorf("s3 mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_ConfigFileFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvConfigFile, writeJSON(t, `{"log_level": "debug"}`))

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "debug", c.LogLevel)
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)

	t.Setenv(EnvWorkers, "many")
	_, err := Load("")
	assert.ErrorContains(t, err, EnvWorkers)

	clearEnv(t)
	t.Setenv(EnvS3PathStyle, "sometimes")
	_, err = Load("")
	assert.ErrorContains(t, err, EnvS3PathStyle)

	clearEnv(t)
	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = Load(writeJSON(t, `{"workers": "x"}`))
	assert.Error(t, err)
}
