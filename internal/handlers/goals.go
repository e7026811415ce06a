package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"milesync-backend/internal/middleware"
	"milesync-backend/internal/models"
	"milesync-backend/internal/services"
)

type GoalHandler struct {
	goalService *services.GoalService
}

func NewGoalHandler(goalService *services.GoalService) *GoalHandler {
	return &GoalHandler{goalService: goalService}
}

func pathUUID(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	return id, err == nil
}

func (h *GoalHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	goals, err := h.goalService.ListGoals(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"goals": goals})
}

func (h *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	userID := middleware.GetUserID(r.Context())

	goal, err := h.goalService.CreateGoal(r.Context(), userID, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, goal)
}

func (h *GoalHandler) Get(w http.ResponseWriter, r *http.Request) {
	goalID, ok := pathUUID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid goal ID", r))
		return
	}

	userID := middleware.GetUserID(r.Context())

	detail, err := h.goalService.GetGoalDetail(r.Context(), userID, goalID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

func (h *GoalHandler) Update(w http.ResponseWriter, r *http.Request) {
	goalID, ok := pathUUID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid goal ID", r))
		return
	}

	var req models.UpdateGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	userID := middleware.GetUserID(r.Context())

	goal, err := h.goalService.UpdateGoal(r.Context(), userID, goalID, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, goal)
}

func (h *GoalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	goalID, ok := pathUUID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid goal ID", r))
		return
	}

	userID := middleware.GetUserID(r.Context())

	if err := h.goalService.DeleteGoal(r.Context(), userID, goalID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Goal deleted"})
}

func (h *GoalHandler) AddMilestone(w http.ResponseWriter, r *http.Request) {
	goalID, ok := pathUUID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid goal ID", r))
		return
	}

	var req models.CreateMilestoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	userID := middleware.GetUserID(r.Context())

	milestone, err := h.goalService.AddMilestone(r.Context(), userID, goalID, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, milestone)
}

func (h *GoalHandler) UpdateMilestone(w http.ResponseWriter, r *http.Request) {
	goalID, ok := pathUUID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid goal ID", r))
		return
	}
	milestoneID, ok := pathUUID(r, "milestoneID")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid milestone ID", r))
		return
	}

	var req models.UpdateMilestoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	userID := middleware.GetUserID(r.Context())

	milestone, err := h.goalService.UpdateMilestone(r.Context(), userID, goalID, milestoneID, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, milestone)
}

func (h *GoalHandler) DeleteMilestone(w http.ResponseWriter, r *http.Request) {
	goalID, ok := pathUUID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid goal ID", r))
		return
	}
	milestoneID, ok := pathUUID(r, "milestoneID")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid milestone ID", r))
		return
	}

	userID := middleware.GetUserID(r.Context())

	if err := h.goalService.DeleteMilestone(r.Context(), userID, goalID, milestoneID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Milestone deleted"})
}

func (h *GoalHandler) AddTask(w http.ResponseWriter, r *http.Request) {
	goalID, ok := pathUUID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid goal ID", r))
		return
	}

	var req models.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	userID := middleware.GetUserID(r.Context())

	task, err := h.goalService.AddTask(r.Context(), userID, goalID, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, task)
}

func (h *GoalHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	goalID, ok := pathUUID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid goal ID", r))
		return
	}
	taskID, ok := pathUUID(r, "taskID")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid task ID", r))
		return
	}

	var req models.UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	userID := middleware.GetUserID(r.Context())

	task, err := h.goalService.UpdateTask(r.Context(), userID, goalID, taskID, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

func (h *GoalHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	goalID, ok := pathUUID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid goal ID", r))
		return
	}
	taskID, ok := pathUUID(r, "taskID")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid task ID", r))
		return
	}

	userID := middleware.GetUserID(r.Context())

	if err := h.goalService.DeleteTask(r.Context(), userID, goalID, taskID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Task deleted"})
}

func (h *GoalHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	h.setTaskStatus(w, r, models.TaskStatusCompleted)
}

func (h *GoalHandler) UncompleteTask(w http.ResponseWriter, r *http.Request) {
	h.setTaskStatus(w, r, models.TaskStatusPending)
}

func (h *GoalHandler) setTaskStatus(w http.ResponseWriter, r *http.Request, status string) {
	goalID, ok := pathUUID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid goal ID", r))
		return
	}
	taskID, ok := pathUUID(r, "taskID")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid task ID", r))
		return
	}

	userID := middleware.GetUserID(r.Context())

	task, err := h.goalService.SetTaskStatus(r.Context(), userID, goalID, taskID, status)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}
