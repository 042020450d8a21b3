// Package testutil contains helpers shared by repository and service tests.
package testutil

import (
	"database/sql"
	"database/sql/driver"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

// arrayConverter lets []string arguments through unchanged, the way the pgx
// stdlib driver does, and defers to the database/sql default otherwise.
type arrayConverter struct{}

func (arrayConverter) ConvertValue(v any) (driver.Value, error) {
	if s, ok := v.([]string); ok {
		return s, nil
	}
	return driver.DefaultParameterConverter.ConvertValue(v)
}

// NewMockDB returns a sqlmock-backed *sql.DB using regexp query matching.
// The DB is closed when the test finishes.
func NewMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(
		sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp),
		sqlmock.ValueConverterOption(arrayConverter{}),
	)
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// PhotoColumns are the columns returned by photo SELECTs.
var PhotoColumns = []string{
	"id", "title", "file_stem", "taken_timestamp", "height_offset", "tags", "published", "sources",
}
