package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var reClock = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)

// ParseClock parses "HH:MM" (or "H:MM") into a validated Clock.
func ParseClock(s string) (Clock, error) {
	raw := s
	s = strings.TrimSpace(s)
	if s == "" {
		return Clock{}, &InvalidTimeError{Input: raw, Reason: "empty"}
	}
	m := reClock.FindStringSubmatch(s)
	if len(m) != 3 {
		return Clock{}, &InvalidTimeError{Input: raw, Reason: "expected HH:MM"}
	}
	h, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	c, err := NewClock(h, mm)
	if err != nil {
		return Clock{}, &InvalidTimeError{Input: raw, Reason: err.(*InvalidTimeError).Reason}
	}
	return c, nil
}

// FormatMinutes returns HH:MM for minutes since midnight (00:00..23:59).
func FormatMinutes(mins int) string {
	if mins < 0 {
		mins = 0
	}
	h := mins / 60
	m := mins % 60
	return fmt.Sprintf("%02d:%02d", h, m)
}

// LocalizeTime formats t in the given location as "Mon 02 Jan 15:04".
func LocalizeTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("Mon 02 Jan 15:04")
}
