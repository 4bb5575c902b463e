package entities

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInterpreterNotFound is returned when the configured interpreter is not on PATH
	ErrInterpreterNotFound = errors.New("interpreter not found")

	// ErrExecutableMissing is returned when archive assembly runs before a build
	ErrExecutableMissing = errors.New("built executable not found")

	// ErrPatternNotFound is returned when neither the patch search nor replace text is present
	ErrPatternNotFound = errors.New("patch pattern not found")

	// ErrBackupExists is returned when a patched build finds a backup left by a persistent patch
	ErrBackupExists = errors.New("patch backup already exists")
)

// CommandError describes an external command that exited unsuccessfully
type CommandError struct {
	Description string
	ExitCode    int
	Stderr      string
	Err         error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s failed (exit %d)", e.Description, e.ExitCode)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += "\nStderr: " + stderr
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ArchiveError is returned when compression fails. The uncompressed package
// directory is left in place at Dir.
type ArchiveError struct {
	Dir string
	Err error
}

func (e *ArchiveError) Error() string {
	return fmt.Sprintf("failed to create archive (package directory kept at %s): %v", e.Dir, e.Err)
}

func (e *ArchiveError) Unwrap() error {
	return e.Err
}
