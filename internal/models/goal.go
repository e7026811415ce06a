package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	GoalStatusActive    = "active"
	GoalStatusCompleted = "completed"
	GoalStatusPaused    = "paused"
	GoalStatusAbandoned = "abandoned"
)

const (
	TaskStatusPending    = "pending"
	TaskStatusInProgress = "in_progress"
	TaskStatusCompleted  = "completed"
	TaskStatusSkipped    = "skipped"
)

// GoalCategories are the accepted values for Goal.Category.
var GoalCategories = []string{"health", "career", "education", "finance", "personal", "other"}

// TaskPriorities are the accepted values for Task.Priority.
var TaskPriorities = []string{"low", "medium", "high"}

type Goal struct {
	ID            uuid.UUID  `json:"id"`
	UserID        uuid.UUID  `json:"user_id"`
	ChatSessionID *uuid.UUID `json:"chat_session_id"`
	Title         string     `json:"title"`
	Description   *string    `json:"description"`
	Category      string     `json:"category"`
	TargetDate    *time.Time `json:"target_date"`
	Status        string     `json:"status"`
	Progress      int        `json:"progress"` // 0-100
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type Milestone struct {
	ID          uuid.UUID  `json:"id"`
	GoalID      uuid.UUID  `json:"goal_id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	TargetDate  *time.Time `json:"target_date"`
	Position    int        `json:"position"`
	IsCompleted bool       `json:"is_completed"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

type Task struct {
	ID          uuid.UUID  `json:"id"`
	MilestoneID uuid.UUID  `json:"milestone_id"`
	GoalID      uuid.UUID  `json:"goal_id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	DueDate     *time.Time `json:"due_date"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

// GoalSummary is the list-view shape with aggregate counts.
type GoalSummary struct {
	Goal
	MilestoneCount     int `json:"milestone_count"`
	TaskCount          int `json:"task_count"`
	CompletedTaskCount int `json:"completed_task_count"`
}

type MilestoneDetail struct {
	Milestone
	Tasks []Task `json:"tasks"`
}

type GoalDetail struct {
	Goal
	Milestones []MilestoneDetail `json:"milestones"`
}

type CreateGoalRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Category    string  `json:"category"`
	TargetDate  *string `json:"target_date"` // YYYY-MM-DD
}

type UpdateGoalRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	TargetDate  *string `json:"target_date"`
	Status      *string `json:"status"`
}

type CreateMilestoneRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	TargetDate  *string `json:"target_date"`
}

type UpdateMilestoneRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	TargetDate  *string `json:"target_date"`
	IsCompleted *bool   `json:"is_completed"`
}

type CreateTaskRequest struct {
	MilestoneID uuid.UUID `json:"milestone_id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	DueDate     *string   `json:"due_date"`
	Priority    string    `json:"priority"`
}

type UpdateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	DueDate     *string `json:"due_date"`
	Priority    *string `json:"priority"`
	Status      *string `json:"status"`
}

// RoadmapDraft is the structured output of goal extraction before any
// database rows exist.
type RoadmapDraft struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Category    string           `json:"category"`
	TargetDate  string           `json:"target_date"` // YYYY-MM-DD, may be empty
	Milestones  []MilestoneDraft `json:"milestones"`
}

type MilestoneDraft struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	TargetDate  string      `json:"target_date"`
	Tasks       []TaskDraft `json:"tasks"`
}

type TaskDraft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"due_date"`
	Priority    string `json:"priority"`
}

// UpcomingTask is a dashboard row: a pending or in-progress task joined
// with its goal title.
type UpcomingTask struct {
	Task
	GoalTitle string `json:"goal_title"`
}

type DashboardStats struct {
	ActiveGoals    int            `json:"active_goals"`
	CompletedTasks int            `json:"completed_tasks"`
	TotalTasks     int            `json:"total_tasks"`
	CompletionRate float64        `json:"completion_rate"`
	CurrentStreak  int            `json:"current_streak"`
	UpcomingTasks  []UpcomingTask `json:"upcoming_tasks"`
}
