package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/meshit/meshit/internal/repository"
)

func isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// writeError maps constraint failures of an insert or update to repository errors.
func writeError(err error, action string) error {
	switch {
	case isUniqueViolation(err):
		return fmt.Errorf("%s: %w", action, repository.ErrDuplicate)
	case isForeignKeyViolation(err):
		return fmt.Errorf("%s: %w", action, repository.ErrForeignKeyViolation)
	default:
		return fmt.Errorf("failed to %s: %w", action, err)
	}
}

// missingOrStale tells apart a row that does not exist from one whose state
// moved on, after a guarded update touched no rows.
func missingOrStale(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	if err != nil {
		return err
	}
	return repository.ErrConflict
}

func checkAffected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}
