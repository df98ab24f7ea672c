package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTime is matched by every InvalidTimeError.
var ErrInvalidTime = errors.New("invalid time")

// InvalidTimeError reports a malformed or out-of-range reminder time.
type InvalidTimeError struct {
	Input  string
	Reason string
}

func (e *InvalidTimeError) Error() string {
	if e.Input == "" {
		return fmt.Sprintf("invalid time: %s", e.Reason)
	}
	return fmt.Sprintf("invalid time %q: %s", e.Input, e.Reason)
}

func (e *InvalidTimeError) Is(target error) bool { return target == ErrInvalidTime }

// Clock is a wall-clock time of day with minute precision.
type Clock struct {
	Hour   int
	Minute int
}

// NewClock validates hour in [0,23] and minute in [0,59].
func NewClock(hour, minute int) (Clock, error) {
	if hour < 0 || hour > 23 {
		return Clock{}, &InvalidTimeError{
			Input:  fmt.Sprintf("%d:%02d", hour, minute),
			Reason: "hour must be between 0 and 23",
		}
	}
	if minute < 0 || minute > 59 {
		return Clock{}, &InvalidTimeError{
			Input:  fmt.Sprintf("%d:%02d", hour, minute),
			Reason: "minute must be between 0 and 59",
		}
	}
	return Clock{Hour: hour, Minute: minute}, nil
}

// MustClock is NewClock for constants; it panics on invalid input.
func MustClock(hour, minute int) Clock {
	c, err := NewClock(hour, minute)
	if err != nil {
		panic(err)
	}
	return c
}

// ClockAt returns the hour and minute of t in t's own location.
func ClockAt(t time.Time) Clock {
	return Clock{Hour: t.Hour(), Minute: t.Minute()}
}

// Minutes returns minutes since midnight (0..1439).
func (c Clock) Minutes() int { return c.Hour*60 + c.Minute }

func (c Clock) String() string { return FormatMinutes(c.Minutes()) }
