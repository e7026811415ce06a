package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"milesync-backend/internal/middleware"
	"milesync-backend/internal/models"
	"milesync-backend/internal/services"
)

func TestHandleServiceError_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", &services.ValidationError{Fields: map[string]string{"title": "required"}}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"conflict", &services.ConflictError{Message: "taken"}, http.StatusConflict, "CONFLICT"},
		{"not found", &services.NotFoundError{Message: "missing"}, http.StatusNotFound, "NOT_FOUND"},
		{"unauthorized", &services.UnauthorizedError{Message: "nope"}, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"forbidden", &services.ForbiddenError{Message: "denied"}, http.StatusForbidden, "FORBIDDEN"},
		{"rate limited", &services.RateLimitError{Message: "slow down"}, http.StatusTooManyRequests, "RATE_LIMITED"},
		{"unavailable", &services.UnavailableError{Message: "try later"}, http.StatusServiceUnavailable, "GEMINI_UNAVAILABLE"},
		{"unknown", context.DeadlineExceeded, http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/goals", nil)
			req.Header.Set("X-Request-ID", "req-123")
			rr := httptest.NewRecorder()

			handleServiceError(rr, req, tc.err)

			if rr.Code != tc.wantStatus {
				t.Errorf("expected status %d, got %d", tc.wantStatus, rr.Code)
			}

			var resp models.ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode error response: %v", err)
			}
			if resp.Error.Code != tc.wantCode {
				t.Errorf("expected code %s, got %s", tc.wantCode, resp.Error.Code)
			}
			if resp.Error.RequestID != "req-123" {
				t.Errorf("expected request ID to propagate, got %q", resp.Error.RequestID)
			}
		})
	}
}

func requestWithURLParam(method, target, key, value string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = context.WithValue(ctx, middleware.UserIDKey, uuid.New())
	return req.WithContext(ctx)
}

func TestGoalHandler_InvalidGoalID(t *testing.T) {
	h := NewGoalHandler(nil)

	req := requestWithURLParam(http.MethodGet, "/api/v1/goals/not-a-uuid", "id", "not-a-uuid")
	rr := httptest.NewRecorder()

	h.Get(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed goal ID, got %d", rr.Code)
	}
}

func TestChatHandler_InvalidSessionID(t *testing.T) {
	h := NewChatHandler(nil)

	req := requestWithURLParam(http.MethodGet, "/api/v1/chat/sessions/xyz", "id", "xyz")
	rr := httptest.NewRecorder()

	h.GetSession(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed session ID, got %d", rr.Code)
	}
}

func TestAgentHandler_RequiresMessage(t *testing.T) {
	h := NewAgentHandler(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/agents/route", strings.NewReader(`{"message": ""}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	h.Route(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty message, got %d", rr.Code)
	}

	var resp models.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if resp.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("expected VALIDATION_ERROR, got %s", resp.Error.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/agents/resources", strings.NewReader(`{"message": ""}`))
	req.Header.Set("Content-Type", "application/json")
	rr = httptest.NewRecorder()

	h.Resources(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty resources message, got %d", rr.Code)
	}
}
