package usecases

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceNotFound is returned when the source table does not exist.
	ErrSourceNotFound = errors.New("source table not found")

	// ErrNoEntries is returned when a source table yields no valid rows.
	ErrNoEntries = errors.New("no valid code entries parsed")

	// ErrEmptyNote is returned for a blank note.
	ErrEmptyNote = errors.New("note is required")

	// ErrInvalidTopK is returned for a non-positive topK.
	ErrInvalidTopK = errors.New("topK must be a positive integer")

	// ErrInvalidModelAnswer is returned when the model output breaks the answer contract.
	ErrInvalidModelAnswer = errors.New("invalid model answer")
)

// AnswerError describes why a model answer was rejected.
type AnswerError struct {
	Reason string
	Raw    string
}

func (e *AnswerError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidModelAnswer, e.Reason)
}

func (e *AnswerError) Unwrap() error {
	return ErrInvalidModelAnswer
}

// IsClientError reports whether err was caused by a malformed request.
func IsClientError(err error) bool {
	return errors.Is(err, ErrEmptyNote) || errors.Is(err, ErrInvalidTopK)
}
