package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type UserProfile struct {
	UserID            uuid.UUID       `json:"user_id"`
	LearningStyle     *string         `json:"learning_style"`
	MotivationType    *string         `json:"motivation_type"`
	PersonalityType   *string         `json:"personality_type"`
	BestTimeOfDay     *string         `json:"best_time_of_day"`
	PreferredTaskSize *string         `json:"preferred_task_size"`
	GoalsCompleted    int             `json:"goals_completed"`
	TasksCompleted    int             `json:"tasks_completed"`
	LongestStreak     int             `json:"longest_streak"`
	StressLevel       *string         `json:"stress_level"`
	MotivationLevel   *string         `json:"motivation_level"`
	ConfidenceLevel   *string         `json:"confidence_level"`
	TraitsJSON        json.RawMessage `json:"traits"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

type HabitLoop struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	GoalID    *uuid.UUID `json:"goal_id"`
	Cue       string     `json:"cue"`
	Routine   string     `json:"routine"`
	Reward    string     `json:"reward"`
	CreatedAt time.Time  `json:"created_at"`
}

type UserInsight struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"user_id"`
	GoalID      *uuid.UUID      `json:"goal_id"`
	Kind        string          `json:"kind"` // "pattern" | "habit" | "motivation" | "burnout"
	ContentJSON json.RawMessage `json:"content"`
	CreatedAt   time.Time       `json:"created_at"`
}

// DailyProgress counts completed tasks per calendar day. Streaks are
// computed from consecutive days with a nonzero count.
type DailyProgress struct {
	UserID         uuid.UUID `json:"user_id"`
	Day            time.Time `json:"day"`
	TasksCompleted int       `json:"tasks_completed"`
}

type SystemPrompt struct {
	Key         string    `json:"key"`
	Description string    `json:"description"`
	Content     string    `json:"content"`
	UpdatedAt   time.Time `json:"updated_at"`
}
