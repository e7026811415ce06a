package services

import (
	"context"
	"log"

	"github.com/google/uuid"

	"milesync-backend/internal/models"
	"milesync-backend/internal/repository"
)

// AnalyticsService wraps the LLM-as-judge evaluations and their history.
type AnalyticsService struct {
	analyticsRepo *repository.AnalyticsRepo
	gemini        *GeminiService
}

func NewAnalyticsService(analyticsRepo *repository.AnalyticsRepo, gemini *GeminiService) *AnalyticsService {
	return &AnalyticsService{
		analyticsRepo: analyticsRepo,
		gemini:        gemini,
	}
}

type AnalyticsStatus struct {
	Enabled bool                  `json:"enabled"`
	Recent  []models.AIEvaluation `json:"recent"`
}

func (s *AnalyticsService) Status(ctx context.Context, userID uuid.UUID) (*AnalyticsStatus, error) {
	recent, err := s.analyticsRepo.ListRecent(ctx, userID, 10)
	if err != nil {
		return nil, err
	}
	return &AnalyticsStatus{
		Enabled: s.gemini != nil,
		Recent:  recent,
	}, nil
}

func (s *AnalyticsService) EvaluateCoaching(ctx context.Context, userID uuid.UUID, req models.EvaluateCoachingRequest) (*models.CoachingEvaluation, error) {
	if req.UserInput == "" || req.AIResponse == "" {
		return nil, &ValidationError{Fields: map[string]string{
			"user_input":  "Both user_input and ai_response are required",
			"ai_response": "Both user_input and ai_response are required",
		}}
	}

	eval, err := s.gemini.EvaluateCoaching(ctx, userID, req.UserInput, req.AIResponse)
	if err != nil {
		log.Printf("coaching evaluation failed for user %s: %v", userID, err)
		return nil, &UnavailableError{Message: "Evaluation is temporarily unavailable"}
	}

	s.storeEvaluation(ctx, userID, nil, models.EvaluationKindCoaching, eval.Score, eval.Reason)
	return eval, nil
}

func (s *AnalyticsService) EvaluateFrustration(ctx context.Context, userID uuid.UUID, req models.EvaluateFrustrationRequest) (*models.FrustrationEvaluation, error) {
	if len(req.Messages) == 0 {
		return nil, &ValidationError{Fields: map[string]string{"messages": "At least one message is required"}}
	}

	eval, err := s.gemini.EvaluateFrustration(ctx, userID, req.Messages)
	if err != nil {
		log.Printf("frustration evaluation failed for user %s: %v", userID, err)
		return nil, &UnavailableError{Message: "Evaluation is temporarily unavailable"}
	}

	s.storeEvaluation(ctx, userID, nil, models.EvaluationKindFrustration, eval.Score, eval.Recommendation)
	return eval, nil
}

// RecordEvaluation persists a score produced by the background worker.
func (s *AnalyticsService) RecordEvaluation(ctx context.Context, userID uuid.UUID, sessionID *uuid.UUID, kind string, score float64, reason string) error {
	e := &models.AIEvaluation{
		UserID:    userID,
		SessionID: sessionID,
		Kind:      kind,
		Score:     score,
		Reason:    reason,
	}
	return s.analyticsRepo.CreateEvaluation(ctx, e)
}

func (s *AnalyticsService) storeEvaluation(ctx context.Context, userID uuid.UUID, sessionID *uuid.UUID, kind string, score float64, reason string) {
	if err := s.RecordEvaluation(ctx, userID, sessionID, kind, score, reason); err != nil {
		log.Printf("failed to store %s evaluation for user %s: %v", kind, userID, err)
	}
}

func (s *AnalyticsService) Performance(ctx context.Context, userID uuid.UUID) (*models.PerformanceSummary, error) {
	return s.analyticsRepo.GetPerformanceSummary(ctx, userID)
}
