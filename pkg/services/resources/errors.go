// Package resources holds the management services behind the plugin resource API.
package resources

import (
	"errors"
	"fmt"

	"github.com/de-tools/report-scheduler/pkg/store/duckdb"
)

var (
	ErrInvalid  = errors.New("invalid request")
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// Invalid returns an ErrInvalid carrying msg.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Conflict returns an ErrConflict carrying msg.
func Conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// FromStore translates store errors into the errors of this package.
func FromStore(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, duckdb.ErrNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, duckdb.ErrConflict):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	default:
		return err
	}
}
