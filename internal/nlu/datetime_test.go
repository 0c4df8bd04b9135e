package nlu

import (
	"testing"
	"time"
)

func testResolver(t *testing.T) (*Resolver, *time.Location) {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Rome")
	if err != nil {
		t.Fatalf("LoadLocation failed: %v", err)
	}
	return NewResolver(loc), loc
}

func TestResolveRelativeDays(t *testing.T) {
	r, loc := testResolver(t)
	// Wednesday 2025-03-12 11:30
	now := time.Date(2025, 3, 12, 11, 30, 45, 12345, loc)

	tests := []struct {
		name string
		text string
		want time.Time
	}{
		{"oggi defaults to 9", "oggi", time.Date(2025, 3, 12, 9, 0, 0, 0, loc)},
		{"domani with time", "domani alle 15:00", time.Date(2025, 3, 13, 15, 0, 0, 0, loc)},
		{"domani bare hour", "domani alle 15", time.Date(2025, 3, 13, 15, 0, 0, 0, loc)},
		{"dopodomani", "dopodomani", time.Date(2025, 3, 14, 9, 0, 0, 0, loc)},
		{"dopodomani is not domani", "dopodomani alle 10", time.Date(2025, 3, 14, 10, 0, 0, 0, loc)},
		{"hour with ore suffix", "oggi 16 ore", time.Date(2025, 3, 12, 16, 0, 0, 0, loc)},
		{"hour with h suffix", "domani 14 h", time.Date(2025, 3, 13, 14, 0, 0, 0, loc)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.Resolve(tt.text, now)
			if !ok {
				t.Fatalf("Resolve(%q) failed", tt.text)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Resolve(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestResolveWeekdayRollover(t *testing.T) {
	r, loc := testResolver(t)
	// Monday 2025-03-10
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, loc)

	tests := []struct {
		name string
		text string
		want time.Time
	}{
		// Naming today's weekday means next week, never today
		{"same weekday jumps a week", "lunedì alle 10", time.Date(2025, 3, 17, 10, 0, 0, 0, loc)},
		{"later this week", "giovedì alle 14:30", time.Date(2025, 3, 13, 14, 30, 0, 0, loc)},
		{"weekend", "sabato", time.Date(2025, 3, 15, 9, 0, 0, 0, loc)},
		{"earlier weekday rolls forward", "domenica alle 18", time.Date(2025, 3, 16, 18, 0, 0, 0, loc)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.Resolve(tt.text, now)
			if !ok {
				t.Fatalf("Resolve(%q) failed", tt.text)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Resolve(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestResolveExplicitDate(t *testing.T) {
	r, loc := testResolver(t)
	now := time.Date(2025, 3, 12, 11, 0, 0, 0, loc)

	got, ok := r.Resolve("25/12 alle 14:00", now)
	if !ok {
		t.Fatal("Resolve failed")
	}
	want := time.Date(2025, 12, 25, 14, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}

	got, ok = r.Resolve("il 05/01/2026", now)
	if !ok {
		t.Fatal("Resolve failed")
	}
	want = time.Date(2026, 1, 5, 9, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestResolveFailures(t *testing.T) {
	r, loc := testResolver(t)
	now := time.Date(2025, 3, 12, 11, 0, 0, 0, loc)

	for _, text := range []string{
		"ciao come stai",
		"alle 15:00", // time without a date anchor
		"",
		"32/13", // not a real date and no weekday
	} {
		if _, ok := r.Resolve(text, now); ok {
			t.Errorf("Resolve(%q) unexpectedly succeeded", text)
		}
	}
}

func TestResolveOutOfRangeTimeKeepsDefault(t *testing.T) {
	r, loc := testResolver(t)
	now := time.Date(2025, 3, 12, 11, 0, 0, 0, loc)

	got, ok := r.Resolve("domani alle 99:99", now)
	if !ok {
		t.Fatal("Resolve failed")
	}
	want := time.Date(2025, 3, 13, 9, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("got %v, want default anchor %v", got, want)
	}
}

func TestResolveDeterministic(t *testing.T) {
	r, loc := testResolver(t)
	now := time.Date(2025, 3, 12, 11, 0, 0, 0, loc)

	first, ok1 := r.Resolve("venerdì alle 16", now)
	second, ok2 := r.Resolve("venerdì alle 16", now)
	if !ok1 || !ok2 || !first.Equal(second) {
		t.Errorf("same input and now produced different results: %v vs %v", first, second)
	}
}

func TestResolveZeroesSubMinute(t *testing.T) {
	r, loc := testResolver(t)
	now := time.Date(2025, 3, 12, 11, 30, 59, 999999, loc)

	got, ok := r.Resolve("oggi alle 12:15", now)
	if !ok {
		t.Fatal("Resolve failed")
	}
	if got.Second() != 0 || got.Nanosecond() != 0 {
		t.Errorf("expected zeroed seconds, got %v", got)
	}
}
