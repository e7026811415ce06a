package agents

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"milesync-backend/internal/models"
)

func testCoordinator() *Coordinator {
	// Nil services are fine for routing tests, which never reach Process.
	return NewCoordinator(nil, nil, nil, nil, nil)
}

func TestCoordinatorPick_Keywords(t *testing.T) {
	c := testCoordinator()

	tests := []struct {
		message string
		want    string
	}{
		{"I feel so overwhelmed and want to give up", "psychological"},
		{"Can you recommend a good book on investing?", "support"},
		{"I want to make running a daily habit", "sustainability"},
		{"Help me break down this goal into steps", "planning"},
		{"I want to learn Spanish", "foundation"},
	}

	for _, tc := range tests {
		got := c.pick(&Request{UserID: uuid.New(), Message: tc.message})
		if got.Name() != tc.want {
			t.Errorf("pick(%q) = %s, want %s", tc.message, got.Name(), tc.want)
		}
	}
}

func TestCoordinatorPick_ExplicitTypeWins(t *testing.T) {
	c := testCoordinator()

	got := c.pick(&Request{
		UserID:  uuid.New(),
		Type:    "support",
		Message: "I feel overwhelmed", // would route to psychological by keyword
	})
	if got.Name() != "support" {
		t.Errorf("explicit request type should win, got %s", got.Name())
	}

	// Unknown types fall back to keyword routing.
	got = c.pick(&Request{UserID: uuid.New(), Type: "oracle", Message: "recommend a course"})
	if got.Name() != "support" {
		t.Errorf("unknown type should fall back to keywords, got %s", got.Name())
	}
}

func TestCoordinatorAgents(t *testing.T) {
	c := testCoordinator()

	infos := c.Agents()
	if len(infos) != 6 {
		t.Fatalf("expected 6 registered agents, got %d", len(infos))
	}
	if infos[0].Name != "foundation" {
		t.Errorf("expected foundation first, got %s", infos[0].Name)
	}
	for _, info := range infos {
		if info.Description == "" {
			t.Errorf("agent %s has no description", info.Name)
		}
	}
}

func TestDefaultPrompts(t *testing.T) {
	c := testCoordinator()

	prompts := c.DefaultPrompts()
	for _, key := range []string{
		"foundation_system_prompt",
		"planning_system_prompt",
		"execution_system_prompt",
		"sustainability_system_prompt",
		"support_system_prompt",
		"psychological_system_prompt",
	} {
		if prompts[key] == "" {
			t.Errorf("missing default prompt for %s", key)
		}
	}
}

func TestMergeData(t *testing.T) {
	base := map[string]interface{}{"a": 1, "b": 1}
	extra := map[string]interface{}{"b": 2, "c": 3}

	out := mergeData(base, extra)
	if out["a"] != 1 || out["b"] != 2 || out["c"] != 3 {
		t.Errorf("unexpected merge result: %v", out)
	}
	if base["b"] != 1 {
		t.Error("mergeData must not mutate its inputs")
	}
}

func TestContextData(t *testing.T) {
	due := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
	goals := []models.GoalSummary{
		{
			Goal:               models.Goal{Title: "Learn Spanish", Category: "education", Status: models.GoalStatusActive, Progress: 40},
			TaskCount:          10,
			CompletedTaskCount: 4,
		},
		{
			Goal: models.Goal{Title: "Old goal", Status: models.GoalStatusCompleted},
		},
	}
	stats := &models.DashboardStats{
		CurrentStreak:  3,
		CompletedTasks: 4,
		TotalTasks:     10,
		UpcomingTasks: []models.UpcomingTask{
			{Task: models.Task{Title: "Review flashcards", Priority: "high", DueDate: &due}, GoalTitle: "Learn Spanish"},
		},
	}
	profile := &models.UserProfile{
		LongestStreak: 7,
		TraitsJSON:    json.RawMessage(`{"motivation":"career change"}`),
	}

	data := contextData(goals, stats, profile)

	active, ok := data["active_goals"].([]map[string]interface{})
	if !ok || len(active) != 1 {
		t.Fatalf("expected one active goal in context, got %v", data["active_goals"])
	}
	if active[0]["title"] != "Learn Spanish" || active[0]["open_tasks"] != 6 {
		t.Errorf("unexpected active goal entry: %v", active[0])
	}

	if data["current_streak"] != 3 {
		t.Errorf("expected current_streak 3, got %v", data["current_streak"])
	}

	upcoming, ok := data["upcoming_tasks"].([]map[string]interface{})
	if !ok || len(upcoming) != 1 {
		t.Fatalf("expected one upcoming task, got %v", data["upcoming_tasks"])
	}
	if upcoming[0]["due_date"] != "2026-03-20" {
		t.Errorf("unexpected due date: %v", upcoming[0]["due_date"])
	}

	traits, ok := data["traits"].(map[string]interface{})
	if !ok || traits["motivation"] != "career change" {
		t.Errorf("expected stored traits in context, got %v", data["traits"])
	}
}

func TestContextData_EmptyState(t *testing.T) {
	data := contextData(nil, nil, nil)
	if len(data) != 0 {
		t.Errorf("expected empty context for a new user, got %v", data)
	}
}
