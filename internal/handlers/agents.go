package handlers

import (
	"encoding/json"
	"net/http"

	"milesync-backend/internal/agents"
	"milesync-backend/internal/middleware"
)

type AgentHandler struct {
	coordinator *agents.Coordinator
}

func NewAgentHandler(coordinator *agents.Coordinator) *AgentHandler {
	return &AgentHandler{coordinator: coordinator}
}

type agentRequestBody struct {
	RequestType string                 `json:"request_type"`
	Message     string                 `json:"message"`
	Data        map[string]interface{} `json:"data"`
}

func (h *AgentHandler) decode(w http.ResponseWriter, r *http.Request) (*agents.Request, bool) {
	var body agentRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return nil, false
	}
	if body.Message == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Message is required", r))
		return nil, false
	}

	return &agents.Request{
		UserID:  middleware.GetUserID(r.Context()),
		Type:    body.RequestType,
		Message: body.Message,
		Data:    body.Data,
	}, true
}

func (h *AgentHandler) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"agents": h.coordinator.Agents()})
}

func (h *AgentHandler) Route(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	resp, err := h.coordinator.Route(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *AgentHandler) Intake(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	resp, err := h.coordinator.Intake(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *AgentHandler) Plan(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	req.Type = "planning"

	resp, err := h.coordinator.Route(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Daily serves the GET variant of the check-in with no user message.
func (h *AgentHandler) Daily(w http.ResponseWriter, r *http.Request) {
	req := &agents.Request{
		UserID:  middleware.GetUserID(r.Context()),
		Message: "Daily check-in",
	}

	resp, err := h.coordinator.DailyCheckIn(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *AgentHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	resp, err := h.coordinator.DailyCheckIn(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Insights returns the stored insight history. New insights are generated
// in the background after each check-in.
func (h *AgentHandler) Insights(w http.ResponseWriter, r *http.Request) {
	insights, loops, err := h.coordinator.InsightHistory(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"insights":    insights,
		"habit_loops": loops,
	})
}

func (h *AgentHandler) Resources(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	resp, err := h.coordinator.Resources(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *AgentHandler) Motivation(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	resp, err := h.coordinator.Motivation(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
