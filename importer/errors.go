// ABOUTME: Batch-level import errors
// ABOUTME: Format and persistence failures that abort a whole import
package importer

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFormat rejects files whose extension is neither .csv nor .json.
	ErrUnsupportedFormat = errors.New("unsupported file format: only .csv and .json files are accepted")
	// ErrFileTooLarge rejects files over the configured size limit before parsing.
	ErrFileTooLarge = errors.New("file exceeds the maximum upload size")
)

// FormatError means the document itself could not be parsed. Nothing from the
// batch is persisted.
type FormatError struct {
	Format string
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid %s document: %v", e.Format, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// PersistError means storage failed in a way that aborts the batch: a lookup
// failed, or a write failed inside an atomic import.
type PersistError struct {
	Entity string
	ID     string
	Err    error
}

func (e *PersistError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("persist %s: %v", e.Entity, e.Err)
	}
	return fmt.Sprintf("persist %s %s: %v", e.Entity, e.ID, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }
