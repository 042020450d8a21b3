// Package pgerr maps PostgreSQL constraint violations onto the sentinel
// errors in package common.
package pgerr

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/photogallery/internal/common"
	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes from the integrity constraint violation class.
const (
	NotNullViolation    = "23502"
	ForeignKeyViolation = "23503"
	UniqueViolation     = "23505"
	CheckViolation      = "23514"
)

// Classify wraps err with common.ErrConflict, common.ErrValidation or
// common.ErrReference when it is a constraint violation. Other errors,
// including connectivity failures, are returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case UniqueViolation:
		return fmt.Errorf("%w: %w", common.ErrConflict, err)
	case CheckViolation, NotNullViolation:
		return fmt.Errorf("%w: %w", common.ErrValidation, err)
	case ForeignKeyViolation:
		return fmt.Errorf("%w: %w", common.ErrReference, err)
	default:
		return err
	}
}
