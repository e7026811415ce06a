package services

import (
	"testing"
	"time"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func TestStreakFromDays(t *testing.T) {
	now := time.Date(2026, 3, 18, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		days []time.Time
		want int
	}{
		{"no completions", nil, 0},
		{"today only", []time.Time{day(2026, 3, 18)}, 1},
		{"yesterday anchors when today is empty", []time.Time{day(2026, 3, 17)}, 1},
		{"three consecutive days ending today", []time.Time{
			day(2026, 3, 18), day(2026, 3, 17), day(2026, 3, 16),
		}, 3},
		{"gap breaks the streak", []time.Time{
			day(2026, 3, 18), day(2026, 3, 16), day(2026, 3, 15),
		}, 1},
		{"streak ended two days ago", []time.Time{
			day(2026, 3, 15), day(2026, 3, 14),
		}, 0},
		{"yesterday-anchored run", []time.Time{
			day(2026, 3, 17), day(2026, 3, 16), day(2026, 3, 15),
		}, 3},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := streakFromDays(tc.days, now)
			if got != tc.want {
				t.Errorf("streakFromDays() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestStreakFromDays_IgnoresTimeOfDay(t *testing.T) {
	now := time.Date(2026, 3, 18, 23, 59, 0, 0, time.UTC)
	days := []time.Time{
		time.Date(2026, 3, 18, 8, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 17, 22, 15, 0, 0, time.UTC),
	}

	if got := streakFromDays(days, now); got != 2 {
		t.Errorf("expected streak 2 regardless of completion times, got %d", got)
	}
}

func TestValidCategoryAndPriority(t *testing.T) {
	for _, c := range []string{"health", "career", "education", "finance", "personal", "other"} {
		if !validCategory(c) {
			t.Errorf("expected %q to be a valid category", c)
		}
	}
	if validCategory("sports") {
		t.Error("expected unknown category to be rejected")
	}

	for _, p := range []string{"low", "medium", "high"} {
		if !validPriority(p) {
			t.Errorf("expected %q to be a valid priority", p)
		}
	}
	if validPriority("urgent") {
		t.Error("expected unknown priority to be rejected")
	}
}

func TestParseDate(t *testing.T) {
	raw := "2026-06-01"
	parsed, err := parseDate(&raw, "target_date")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed == nil || !parsed.Equal(day(2026, 6, 1)) {
		t.Errorf("unexpected parsed date: %v", parsed)
	}

	bad := "June 1st"
	if _, err := parseDate(&bad, "target_date"); err == nil {
		t.Error("expected validation error for malformed date")
	}

	if parsed, err := parseDate(nil, "target_date"); err != nil || parsed != nil {
		t.Errorf("expected nil date to pass through, got %v, %v", parsed, err)
	}
}

func TestCompletionDay(t *testing.T) {
	now := time.Date(2026, 3, 17, 9, 15, 0, 0, time.UTC) // Tuesday

	monday := time.Date(2026, 3, 16, 22, 45, 0, 0, time.UTC)
	if got := completionDay(&monday, now); !got.Equal(day(2026, 3, 16)) {
		t.Errorf("completion recorded Monday must map to Monday, got %v", got)
	}

	sameDay := time.Date(2026, 3, 17, 8, 0, 0, 0, time.UTC)
	if got := completionDay(&sameDay, now); !got.Equal(day(2026, 3, 17)) {
		t.Errorf("same-day completion must map to today, got %v", got)
	}

	if got := completionDay(nil, now); !got.Equal(day(2026, 3, 17)) {
		t.Errorf("missing timestamp must fall back to the current day, got %v", got)
	}
}
