package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"milesync-backend/internal/models"
	"milesync-backend/internal/repository"
)

type GoalService struct {
	goalRepo     *repository.GoalRepo
	progressRepo *repository.ProgressRepo
	profileRepo  *repository.ProfileRepo
	redis        *redis.Client
}

func NewGoalService(goalRepo *repository.GoalRepo, progressRepo *repository.ProgressRepo, profileRepo *repository.ProfileRepo, redisClient *redis.Client) *GoalService {
	return &GoalService{
		goalRepo:     goalRepo,
		progressRepo: progressRepo,
		profileRepo:  profileRepo,
		redis:        redisClient,
	}
}

func (s *GoalService) publishUpdate(ctx context.Context, userID uuid.UUID, msg models.WSMessage) {
	data, _ := json.Marshal(msg)
	s.redis.Publish(ctx, fmt.Sprintf("user_updates:%s", userID.String()), string(data))
}

func validCategory(category string) bool {
	for _, c := range models.GoalCategories {
		if c == category {
			return true
		}
	}
	return false
}

func validPriority(priority string) bool {
	for _, p := range models.TaskPriorities {
		if p == priority {
			return true
		}
	}
	return false
}

func parseDate(raw *string, field string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", *raw)
	if err != nil {
		return nil, &ValidationError{Fields: map[string]string{field: "Date must be in YYYY-MM-DD format"}}
	}
	return &t, nil
}

// ownedGoal loads a goal and enforces ownership.
func (s *GoalService) ownedGoal(ctx context.Context, userID, goalID uuid.UUID) (*models.Goal, error) {
	goal, err := s.goalRepo.GetGoal(ctx, goalID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "Goal not found"}
		}
		return nil, err
	}
	if goal.UserID != userID {
		return nil, &ForbiddenError{Message: "You do not have access to this goal"}
	}
	return goal, nil
}

func (s *GoalService) ListGoals(ctx context.Context, userID uuid.UUID) ([]models.GoalSummary, error) {
	return s.goalRepo.ListGoals(ctx, userID)
}

func (s *GoalService) CreateGoal(ctx context.Context, userID uuid.UUID, req models.CreateGoalRequest) (*models.Goal, error) {
	fieldErrors := make(map[string]string)
	if req.Title == "" {
		fieldErrors["title"] = "Title is required"
	}
	if req.Category != "" && !validCategory(req.Category) {
		fieldErrors["category"] = "Invalid category"
	}
	if len(fieldErrors) > 0 {
		return nil, &ValidationError{Fields: fieldErrors}
	}

	targetDate, err := parseDate(req.TargetDate, "target_date")
	if err != nil {
		return nil, err
	}

	goal := &models.Goal{
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		TargetDate:  targetDate,
	}
	if err := s.goalRepo.CreateGoal(ctx, goal); err != nil {
		return nil, err
	}
	return goal, nil
}

func (s *GoalService) GetGoalDetail(ctx context.Context, userID, goalID uuid.UUID) (*models.GoalDetail, error) {
	goal, err := s.ownedGoal(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}
	return s.assembleDetail(ctx, goal)
}

func (s *GoalService) assembleDetail(ctx context.Context, goal *models.Goal) (*models.GoalDetail, error) {
	milestones, err := s.goalRepo.ListMilestones(ctx, goal.ID)
	if err != nil {
		return nil, err
	}
	tasks, err := s.goalRepo.ListTasksByGoal(ctx, goal.ID)
	if err != nil {
		return nil, err
	}

	byMilestone := make(map[uuid.UUID][]models.Task)
	for _, t := range tasks {
		byMilestone[t.MilestoneID] = append(byMilestone[t.MilestoneID], t)
	}

	detail := &models.GoalDetail{Goal: *goal}
	for _, m := range milestones {
		md := models.MilestoneDetail{Milestone: m, Tasks: byMilestone[m.ID]}
		if md.Tasks == nil {
			md.Tasks = []models.Task{}
		}
		detail.Milestones = append(detail.Milestones, md)
	}
	if detail.Milestones == nil {
		detail.Milestones = []models.MilestoneDetail{}
	}
	return detail, nil
}

func (s *GoalService) UpdateGoal(ctx context.Context, userID, goalID uuid.UUID, req models.UpdateGoalRequest) (*models.Goal, error) {
	goal, err := s.ownedGoal(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		if *req.Title == "" {
			return nil, &ValidationError{Fields: map[string]string{"title": "Title cannot be empty"}}
		}
		goal.Title = *req.Title
	}
	if req.Description != nil {
		goal.Description = req.Description
	}
	if req.Category != nil {
		if !validCategory(*req.Category) {
			return nil, &ValidationError{Fields: map[string]string{"category": "Invalid category"}}
		}
		goal.Category = *req.Category
	}
	if req.TargetDate != nil {
		targetDate, err := parseDate(req.TargetDate, "target_date")
		if err != nil {
			return nil, err
		}
		goal.TargetDate = targetDate
	}
	if req.Status != nil {
		switch *req.Status {
		case models.GoalStatusActive, models.GoalStatusCompleted, models.GoalStatusPaused, models.GoalStatusAbandoned:
			goal.Status = *req.Status
		default:
			return nil, &ValidationError{Fields: map[string]string{"status": "Invalid status"}}
		}
	}

	if err := s.goalRepo.UpdateGoal(ctx, goal); err != nil {
		return nil, err
	}
	return goal, nil
}

func (s *GoalService) DeleteGoal(ctx context.Context, userID, goalID uuid.UUID) error {
	if _, err := s.ownedGoal(ctx, userID, goalID); err != nil {
		return err
	}
	return s.goalRepo.DeleteGoal(ctx, goalID)
}

func (s *GoalService) AddMilestone(ctx context.Context, userID, goalID uuid.UUID, req models.CreateMilestoneRequest) (*models.Milestone, error) {
	if _, err := s.ownedGoal(ctx, userID, goalID); err != nil {
		return nil, err
	}
	if req.Title == "" {
		return nil, &ValidationError{Fields: map[string]string{"title": "Title is required"}}
	}

	targetDate, err := parseDate(req.TargetDate, "target_date")
	if err != nil {
		return nil, err
	}

	m := &models.Milestone{
		GoalID:      goalID,
		Title:       req.Title,
		Description: req.Description,
		TargetDate:  targetDate,
	}
	if err := s.goalRepo.CreateMilestone(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// ownedMilestone enforces that the milestone belongs to the given goal.
func (s *GoalService) ownedMilestone(ctx context.Context, userID, goalID, milestoneID uuid.UUID) (*models.Milestone, error) {
	if _, err := s.ownedGoal(ctx, userID, goalID); err != nil {
		return nil, err
	}
	m, err := s.goalRepo.GetMilestone(ctx, milestoneID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "Milestone not found"}
		}
		return nil, err
	}
	if m.GoalID != goalID {
		return nil, &NotFoundError{Message: "Milestone not found"}
	}
	return m, nil
}

func (s *GoalService) UpdateMilestone(ctx context.Context, userID, goalID, milestoneID uuid.UUID, req models.UpdateMilestoneRequest) (*models.Milestone, error) {
	m, err := s.ownedMilestone(ctx, userID, goalID, milestoneID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		if *req.Title == "" {
			return nil, &ValidationError{Fields: map[string]string{"title": "Title cannot be empty"}}
		}
		m.Title = *req.Title
	}
	if req.Description != nil {
		m.Description = req.Description
	}
	if req.TargetDate != nil {
		targetDate, err := parseDate(req.TargetDate, "target_date")
		if err != nil {
			return nil, err
		}
		m.TargetDate = targetDate
	}
	if req.IsCompleted != nil {
		m.IsCompleted = *req.IsCompleted
		if m.IsCompleted {
			now := time.Now()
			m.CompletedAt = &now
		} else {
			m.CompletedAt = nil
		}
	}

	if err := s.goalRepo.UpdateMilestone(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *GoalService) DeleteMilestone(ctx context.Context, userID, goalID, milestoneID uuid.UUID) error {
	if _, err := s.ownedMilestone(ctx, userID, goalID, milestoneID); err != nil {
		return err
	}
	if err := s.goalRepo.DeleteMilestone(ctx, milestoneID); err != nil {
		return err
	}
	// Deleting a milestone removes its tasks, so the percentage shifts.
	_, err := s.recomputeProgress(ctx, goalID)
	return err
}

func (s *GoalService) AddTask(ctx context.Context, userID, goalID uuid.UUID, req models.CreateTaskRequest) (*models.Task, error) {
	if _, err := s.ownedMilestone(ctx, userID, goalID, req.MilestoneID); err != nil {
		return nil, err
	}

	fieldErrors := make(map[string]string)
	if req.Title == "" {
		fieldErrors["title"] = "Title is required"
	}
	if req.Priority != "" && !validPriority(req.Priority) {
		fieldErrors["priority"] = "Invalid priority"
	}
	if len(fieldErrors) > 0 {
		return nil, &ValidationError{Fields: fieldErrors}
	}

	dueDate, err := parseDate(req.DueDate, "due_date")
	if err != nil {
		return nil, err
	}

	t := &models.Task{
		MilestoneID: req.MilestoneID,
		GoalID:      goalID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     dueDate,
		Priority:    req.Priority,
	}
	if err := s.goalRepo.CreateTask(ctx, t); err != nil {
		return nil, err
	}

	// A new open task can reopen its milestone and dilute progress.
	s.goalRepo.SetMilestoneCompleted(ctx, req.MilestoneID, false)
	if _, err := s.recomputeProgress(ctx, goalID); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *GoalService) ownedTask(ctx context.Context, userID, goalID, taskID uuid.UUID) (*models.Task, error) {
	if _, err := s.ownedGoal(ctx, userID, goalID); err != nil {
		return nil, err
	}
	t, err := s.goalRepo.GetTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "Task not found"}
		}
		return nil, err
	}
	if t.GoalID != goalID {
		return nil, &NotFoundError{Message: "Task not found"}
	}
	return t, nil
}

func (s *GoalService) UpdateTask(ctx context.Context, userID, goalID, taskID uuid.UUID, req models.UpdateTaskRequest) (*models.Task, error) {
	t, err := s.ownedTask(ctx, userID, goalID, taskID)
	if err != nil {
		return nil, err
	}

	if req.Status != nil {
		// Status changes carry side effects, so they go through SetTaskStatus.
		return s.SetTaskStatus(ctx, userID, goalID, taskID, *req.Status)
	}

	if req.Title != nil {
		if *req.Title == "" {
			return nil, &ValidationError{Fields: map[string]string{"title": "Title cannot be empty"}}
		}
		t.Title = *req.Title
	}
	if req.Description != nil {
		t.Description = req.Description
	}
	if req.DueDate != nil {
		dueDate, err := parseDate(req.DueDate, "due_date")
		if err != nil {
			return nil, err
		}
		t.DueDate = dueDate
	}
	if req.Priority != nil {
		if !validPriority(*req.Priority) {
			return nil, &ValidationError{Fields: map[string]string{"priority": "Invalid priority"}}
		}
		t.Priority = *req.Priority
	}

	if err := s.goalRepo.UpdateTask(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *GoalService) DeleteTask(ctx context.Context, userID, goalID, taskID uuid.UUID) error {
	t, err := s.ownedTask(ctx, userID, goalID, taskID)
	if err != nil {
		return err
	}
	if err := s.goalRepo.DeleteTask(ctx, taskID); err != nil {
		return err
	}
	// Removing the last open task can finish the milestone.
	if err := s.refreshMilestone(ctx, t.MilestoneID); err != nil {
		return err
	}
	_, err = s.recomputeProgress(ctx, goalID)
	return err
}

// SetTaskStatus transitions a task and applies the cascade: completion
// timestamps, milestone completion, goal progress, daily progress counters,
// profile stats, and a websocket dashboard event.
func (s *GoalService) SetTaskStatus(ctx context.Context, userID, goalID, taskID uuid.UUID, status string) (*models.Task, error) {
	switch status {
	case models.TaskStatusPending, models.TaskStatusInProgress, models.TaskStatusCompleted, models.TaskStatusSkipped:
	default:
		return nil, &ValidationError{Fields: map[string]string{"status": "Invalid status"}}
	}

	t, err := s.ownedTask(ctx, userID, goalID, taskID)
	if err != nil {
		return nil, err
	}

	wasCompleted := t.Status == models.TaskStatusCompleted
	// Undoing a completion must decrement the day it was recorded on,
	// which may not be today.
	undoDay := completionDay(t.CompletedAt, time.Now())
	t.Status = status

	if status == models.TaskStatusCompleted {
		now := time.Now()
		t.CompletedAt = &now
	} else {
		t.CompletedAt = nil
	}

	if err := s.goalRepo.UpdateTask(ctx, t); err != nil {
		return nil, err
	}

	if err := s.refreshMilestone(ctx, t.MilestoneID); err != nil {
		return nil, err
	}

	progress, err := s.recomputeProgress(ctx, goalID)
	if err != nil {
		return nil, err
	}

	nowCompleted := status == models.TaskStatusCompleted
	if nowCompleted && !wasCompleted {
		s.progressRepo.IncrementDay(ctx, userID, startOfDay(time.Now()))
		s.profileRepo.IncrementTasksCompleted(ctx, userID, 1)
	} else if !nowCompleted && wasCompleted {
		s.progressRepo.DecrementDay(ctx, userID, undoDay)
		s.profileRepo.IncrementTasksCompleted(ctx, userID, -1)
	}

	streak, err := s.CurrentStreak(ctx, userID)
	if err == nil {
		s.profileRepo.RecordStreak(ctx, userID, streak)
	}

	s.publishUpdate(ctx, userID, models.WSMessage{
		Type: "task_status_changed",
		Payload: models.TaskCompletedEvent{
			TaskID:        t.ID,
			GoalID:        goalID,
			GoalProgress:  progress,
			CurrentStreak: streak,
		},
	})

	return t, nil
}

// recomputeProgress recalculates the 0-100 percentage and flips the goal
// to completed when every task is done. Goals with no tasks keep their
// stored progress.
func (s *GoalService) recomputeProgress(ctx context.Context, goalID uuid.UUID) (int, error) {
	total, completed, err := s.goalRepo.CountGoalTasks(ctx, goalID)
	if err != nil {
		return 0, err
	}
	if total == 0 {
		goal, err := s.goalRepo.GetGoal(ctx, goalID)
		if err != nil {
			return 0, err
		}
		return goal.Progress, nil
	}

	progress := completed * 100 / total
	if err := s.goalRepo.UpdateGoalProgress(ctx, goalID, progress); err != nil {
		return 0, err
	}

	goal, err := s.goalRepo.GetGoal(ctx, goalID)
	if err != nil {
		return progress, nil
	}
	if progress == 100 && goal.Status == models.GoalStatusActive {
		if err := s.goalRepo.UpdateGoalStatus(ctx, goalID, models.GoalStatusCompleted); err == nil {
			s.profileRepo.IncrementGoalsCompleted(ctx, goal.UserID)
		}
	} else if progress < 100 && goal.Status == models.GoalStatusCompleted {
		s.goalRepo.UpdateGoalStatus(ctx, goalID, models.GoalStatusActive)
	}

	return progress, nil
}

// refreshMilestone re-derives is_completed from the open task count.
// A milestone is done when nothing in it is still open.
func (s *GoalService) refreshMilestone(ctx context.Context, milestoneID uuid.UUID) error {
	open, err := s.goalRepo.CountOpenMilestoneTasks(ctx, milestoneID)
	if err != nil {
		return err
	}
	return s.goalRepo.SetMilestoneCompleted(ctx, milestoneID, open == 0)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// completionDay resolves which daily_progress row a completion belongs to.
// Tasks completed on an earlier day keep that day; anything without a
// completion timestamp falls back to now.
func completionDay(completedAt *time.Time, now time.Time) time.Time {
	if completedAt != nil {
		return startOfDay(*completedAt)
	}
	return startOfDay(now)
}

// CurrentStreak counts consecutive days with at least one completed task.
// The streak anchors on today when today has completions, otherwise on
// yesterday; anything older means the streak is broken.
func (s *GoalService) CurrentStreak(ctx context.Context, userID uuid.UUID) (int, error) {
	days, err := s.progressRepo.ListCompletionDays(ctx, userID)
	if err != nil {
		return 0, err
	}
	return streakFromDays(days, time.Now()), nil
}

func streakFromDays(days []time.Time, now time.Time) int {
	if len(days) == 0 {
		return 0
	}

	set := make(map[time.Time]bool, len(days))
	for _, d := range days {
		set[startOfDay(d)] = true
	}

	cursor := startOfDay(now)
	if !set[cursor] {
		cursor = cursor.AddDate(0, 0, -1)
		if !set[cursor] {
			return 0
		}
	}

	streak := 0
	for set[cursor] {
		streak++
		cursor = cursor.AddDate(0, 0, -1)
	}
	return streak
}

// DashboardStats assembles the dashboard payload.
func (s *GoalService) DashboardStats(ctx context.Context, userID uuid.UUID) (*models.DashboardStats, error) {
	activeGoals, err := s.progressRepo.CountActiveGoals(ctx, userID)
	if err != nil {
		return nil, err
	}

	total, completed, err := s.progressRepo.GetTaskTotals(ctx, userID)
	if err != nil {
		return nil, err
	}

	completionRate := 0.0
	if total > 0 {
		completionRate = float64(completed) / float64(total) * 100
	}

	streak, err := s.CurrentStreak(ctx, userID)
	if err != nil {
		return nil, err
	}

	upcoming, err := s.progressRepo.ListUpcomingTasks(ctx, userID, 5)
	if err != nil {
		return nil, err
	}

	return &models.DashboardStats{
		ActiveGoals:    activeGoals,
		CompletedTasks: completed,
		TotalTasks:     total,
		CompletionRate: completionRate,
		CurrentStreak:  streak,
		UpcomingTasks:  upcoming,
	}, nil
}
