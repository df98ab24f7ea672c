package domain

import (
	"errors"
	"math/rand/v2"
	"testing"
)

func TestParseClock_Valid(t *testing.T) {
	cases := map[string]Clock{
		"09:20":   {9, 20},
		"9:20":    {9, 20},
		" 14:05 ": {14, 5},
		"00:00":   {0, 0},
		"23:59":   {23, 59},
	}
	for in, want := range cases {
		got, err := ParseClock(in)
		if err != nil {
			t.Fatalf("ParseClock(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseClock(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParseClock_Invalid(t *testing.T) {
	for _, in := range []string{"", "24:00", "12:60", "9", "9:5", "ab:cd", "12:30:00", "-1:30", "123:00"} {
		_, err := ParseClock(in)
		if err == nil {
			t.Fatalf("ParseClock(%q): expected error", in)
		}
		if !errors.Is(err, ErrInvalidTime) {
			t.Fatalf("ParseClock(%q): want ErrInvalidTime, got %v", in, err)
		}
		var ite *InvalidTimeError
		if !errors.As(err, &ite) {
			t.Fatalf("ParseClock(%q): want *InvalidTimeError, got %T", in, err)
		}
	}
}

func TestNewClock_Bounds(t *testing.T) {
	if _, err := NewClock(24, 0); !errors.Is(err, ErrInvalidTime) {
		t.Fatalf("24:00 should be invalid, got %v", err)
	}
	if _, err := NewClock(0, -1); !errors.Is(err, ErrInvalidTime) {
		t.Fatalf("00:-1 should be invalid, got %v", err)
	}
	if _, err := NewClock(23, 59); err != nil {
		t.Fatalf("23:59 should be valid, got %v", err)
	}
}

func TestClock_String(t *testing.T) {
	if got := MustClock(9, 5).String(); got != "09:05" {
		t.Fatalf("want 09:05, got %s", got)
	}
}

func TestSubscription_Effective(t *testing.T) {
	def := MustClock(10, 40)
	if got := (Subscription{ChatID: 1}).Effective(def); got != def {
		t.Fatalf("want default, got %v", got)
	}
	own := MustClock(6, 0)
	if got := (Subscription{ChatID: 1, Time: &own}).Effective(def); got != own {
		t.Fatalf("want override, got %v", got)
	}
}

func TestPickQuote_Deterministic(t *testing.T) {
	quotes := []string{"a", "b", "c"}
	r1 := rand.New(rand.NewPCG(1, 2))
	r2 := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 20; i++ {
		q1 := PickQuote(r1, quotes)
		q2 := PickQuote(r2, quotes)
		if q1 != q2 {
			t.Fatalf("same seed diverged: %q vs %q", q1, q2)
		}
		if q1 != "a" && q1 != "b" && q1 != "c" {
			t.Fatalf("quote %q not from list", q1)
		}
	}
	if got := PickQuote(r1, nil); got != "" {
		t.Fatalf("empty list should give empty quote, got %q", got)
	}
}
