package service

import (
	"errors"
	"fmt"

	"github.com/devTanmayBang2104/scholar-share-platform/internal/repository"
)

// Error taxonomy surfaced to the HTTP boundary. Every failure path in this
// package returns one of these (or a ValidationError); nothing is swallowed.
var (
	ErrNotFound        = errors.New("material not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrAlreadyVoted    = errors.New("user has already voted on this material")
	ErrForbidden       = errors.New("not allowed to modify this resource")
	ErrUnauthenticated = errors.New("invalid credentials")
	ErrEmailTaken      = errors.New("email already registered")
	// ErrUnavailable marks a transient store failure. It is the only error
	// callers may retry; retrying is their decision, nothing here loops.
	ErrUnavailable = errors.New("storage temporarily unavailable")
)

// ValidationError reports malformed or missing input for a single field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// mapStoreErr lifts repository sentinels into the service taxonomy.
func mapStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrDuplicateVote):
		return ErrAlreadyVoted
	case errors.Is(err, repository.ErrDuplicateEmail):
		return ErrEmailTaken
	case errors.Is(err, repository.ErrUnavailable):
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	default:
		return err
	}
}
