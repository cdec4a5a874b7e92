package usecase

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrShowtimeNotFound = fmt.Errorf("showtime %w", ErrNotFound)
	ErrBookingNotFound  = fmt.Errorf("booking %w", ErrNotFound)
	ErrItemNotFound     = fmt.Errorf("inventory item %w", ErrNotFound)
	ErrMovieNotFound    = fmt.Errorf("movie %w", ErrNotFound)
	ErrUserNotFound     = fmt.Errorf("user %w", ErrNotFound)

	ErrBookingWindowClosed = errors.New("booking window closed")
	ErrItemUnavailable     = errors.New("item unavailable")
	ErrGenerationConflict  = errors.New("showtime already generated")
	ErrValidation          = errors.New("validation failed")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidState        = errors.New("invalid state")
)

// ItemUnavailableError names the first item a request could not claim.
type ItemUnavailableError struct {
	Code string
}

func (e *ItemUnavailableError) Error() string {
	return fmt.Sprintf("item %s is no longer available", e.Code)
}

func (e *ItemUnavailableError) Is(target error) bool {
	return target == ErrItemUnavailable
}

// WindowClosedError carries the human readable reason the showtime refuses holds.
type WindowClosedError struct {
	Reason string
}

func (e *WindowClosedError) Error() string {
	return e.Reason
}

func (e *WindowClosedError) Is(target error) bool {
	return target == ErrBookingWindowClosed
}

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
