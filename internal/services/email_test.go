package services

import "testing"

func TestGoalsLine(t *testing.T) {
	if got := goalsLine(0); got != "" {
		t.Errorf("expected empty line for zero goals, got %q", got)
	}
	if got := goalsLine(1); got != " and finished 1 goal" {
		t.Errorf("unexpected singular line: %q", got)
	}
	if got := goalsLine(3); got != " and finished 3 goals" {
		t.Errorf("unexpected plural line: %q", got)
	}
}

func TestEmailServiceDevMode(t *testing.T) {
	// No SMTP credentials means dev mode: sends are logged, not attempted.
	svc := NewEmailService("", "", "", "", "noreply@milesync.app", "http://localhost:5173")
	if !svc.devMode {
		t.Fatal("expected dev mode without SMTP credentials")
	}

	if err := svc.SendTaskReminderEmail("user@example.com", "Dana", 3); err != nil {
		t.Errorf("dev-mode send should not fail: %v", err)
	}
	if err := svc.SendWeeklyDigestEmail("user@example.com", "Dana", 5, 1, 4); err != nil {
		t.Errorf("dev-mode send should not fail: %v", err)
	}
}
