package filemanager

import (
	"errors"
	"fmt"
	"strings"

	"filevault-backend/internal/models"
)

// Validation failures. They are reported before any storage call is made.
var (
	ErrNoFile          = errors.New("please select a file")
	ErrNoOwner         = errors.New("you must be signed in")
	ErrUnknownCategory = errors.New("could not determine the file category")
	ErrAlreadyArchived = errors.New("file is already archived")
)

// Stage names one step of the archive protocol.
type Stage string

const (
	StageDownload Stage = "download"
	StageCopy     Stage = "copy"
	StageRemove   Stage = "remove"
)

// StageError reports the archive step that failed. Steps after it were not
// attempted.
type StageError struct {
	Stage    Stage
	Category models.Category
	Name     string
	Err      error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("archive %s/%s failed at %s: %v", e.Category, e.Name, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// RefreshError lists the categories whose listing failed during a refresh.
// Categories not listed here were populated normally.
type RefreshError struct {
	Failed []models.Category
	Err    error
}

func (e *RefreshError) Error() string {
	names := make([]string, len(e.Failed))
	for i, c := range e.Failed {
		names[i] = string(c)
	}
	return fmt.Sprintf("failed to list %s: %v", strings.Join(names, ", "), e.Err)
}

func (e *RefreshError) Unwrap() error {
	return e.Err
}
