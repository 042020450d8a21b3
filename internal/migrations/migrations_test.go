package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMigrations_Embedded(t *testing.T) {
	files, err := fs.Glob(Migrations, "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	b, err := fs.ReadFile(Migrations, "00001_create_gallery_schema.sql")
	require.NoError(t, err)

	schema := string(b)
	for _, want := range []string{
		"-- +goose Up",
		"-- +goose Down",
		"CHECK (height_offset >= 0 AND height_offset <= 100)",
		"CHECK (width < 10000)",
		"CHECK (height < 10000)",
		"url VARCHAR NOT NULL UNIQUE",
		"UNIQUE (photo_id, width, height)",
		"ON DELETE CASCADE ON UPDATE CASCADE",
		"USING GIN (tags)",
		"secret_key VARCHAR PRIMARY KEY",
	} {
		require.True(t, strings.Contains(schema, want), "schema is missing %q", want)
	}
}
