package admission

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAgeRange      = errors.New("child's age is outside the workshop's age range")
	ErrOverlap       = errors.New("booking overlaps an existing booking for the child")
	ErrConflict      = errors.New("child already holds an active booking for this workshop")
	ErrInvalidStatus = errors.New("invalid booking status")
	ErrTransient     = errors.New("transient store failure")
)

// AgeRangeError carries the computed age and the band it missed.
type AgeRangeError struct {
	Age    int
	MinAge int
	MaxAge int
}

func (e *AgeRangeError) Error() string {
	return fmt.Sprintf("child's age (%d) is not within the workshop's required age range (%d-%d)", e.Age, e.MinAge, e.MaxAge)
}

func (e *AgeRangeError) Is(target error) bool {
	return target == ErrAgeRange
}
