package services

import (
	"testing"

	"github.com/google/uuid"

	"milesync-backend/internal/models"
)

func TestDraftToModels(t *testing.T) {
	svc := &ChatService{}
	userID := uuid.New()
	sessionID := uuid.New()

	draft := &models.RoadmapDraft{
		Title:       "Run a half marathon",
		Description: "Train over four months",
		Category:    "health",
		TargetDate:  "2026-07-01",
		Milestones: []models.MilestoneDraft{
			{
				Title:      "Build a base",
				TargetDate: "2026-04-01",
				Tasks: []models.TaskDraft{
					{Title: "Run 5k three times a week", Priority: "high", DueDate: "2026-03-25"},
					{Title: "", Priority: "low"}, // untitled tasks are dropped
					{Title: "Buy running shoes", Priority: "sometime"},
				},
			},
			{Title: ""}, // untitled milestones are dropped
		},
	}

	goal, milestones, err := svc.draftToModels(userID, sessionID, draft)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if goal.UserID != userID {
		t.Errorf("goal user mismatch")
	}
	if goal.ChatSessionID == nil || *goal.ChatSessionID != sessionID {
		t.Errorf("goal should link back to the session")
	}
	if goal.Category != "health" {
		t.Errorf("expected category health, got %q", goal.Category)
	}
	if goal.TargetDate == nil {
		t.Error("expected target date to be parsed")
	}

	if len(milestones) != 1 {
		t.Fatalf("expected 1 milestone, got %d", len(milestones))
	}
	if len(milestones[0].Tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(milestones[0].Tasks))
	}
	if milestones[0].Tasks[0].Priority != "high" {
		t.Errorf("expected high priority preserved, got %q", milestones[0].Tasks[0].Priority)
	}
	if milestones[0].Tasks[1].Priority != "medium" {
		t.Errorf("expected unknown priority to clamp to medium, got %q", milestones[0].Tasks[1].Priority)
	}
}

func TestDraftToModels_ClampsUnknownCategory(t *testing.T) {
	svc := &ChatService{}

	draft := &models.RoadmapDraft{
		Title:    "Learn woodworking",
		Category: "crafts",
		Milestones: []models.MilestoneDraft{
			{Title: "Build a birdhouse"},
		},
	}

	goal, _, err := svc.draftToModels(uuid.New(), uuid.New(), draft)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if goal.Category != "other" {
		t.Errorf("expected unknown category to clamp to other, got %q", goal.Category)
	}
}

func TestDraftToModels_RejectsUnusableDrafts(t *testing.T) {
	svc := &ChatService{}

	tests := []struct {
		name  string
		draft *models.RoadmapDraft
	}{
		{"no title", &models.RoadmapDraft{Milestones: []models.MilestoneDraft{{Title: "m"}}}},
		{"no milestones", &models.RoadmapDraft{Title: "Goal"}},
		{"only untitled milestones", &models.RoadmapDraft{
			Title:      "Goal",
			Milestones: []models.MilestoneDraft{{Title: ""}},
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.draftToModels(uuid.New(), uuid.New(), tc.draft)
			if _, ok := err.(*ValidationError); !ok {
				t.Errorf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestParseDraftDate(t *testing.T) {
	if parseDraftDate("") != nil {
		t.Error("expected empty date to be nil")
	}
	if parseDraftDate("soon") != nil {
		t.Error("expected malformed date to be dropped, not fail")
	}
	parsed := parseDraftDate("2026-05-10")
	if parsed == nil || parsed.Month() != 5 {
		t.Errorf("unexpected parsed date: %v", parsed)
	}
}

func TestUserMessageCount(t *testing.T) {
	messages := []models.ChatMessage{
		{Role: "assistant"},
		{Role: "user"},
		{Role: "assistant"},
		{Role: "user"},
	}
	if got := userMessageCount(messages); got != 2 {
		t.Errorf("expected 2 user messages, got %d", got)
	}
	if got := userMessageCount(nil); got != 0 {
		t.Errorf("expected 0 for empty history, got %d", got)
	}
}
