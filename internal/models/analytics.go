package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	EvaluationKindCoaching    = "coaching_quality"
	EvaluationKindFrustration = "frustration"
)

type AIEvaluation struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	SessionID *uuid.UUID `json:"session_id"`
	Kind      string     `json:"kind"`
	Score     float64    `json:"score"`
	Reason    string     `json:"reason"`
	CreatedAt time.Time  `json:"created_at"`
}

type EvaluateCoachingRequest struct {
	UserInput  string `json:"user_input"`
	AIResponse string `json:"ai_response"`
}

type CoachingEvaluation struct {
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

type EvaluateFrustrationRequest struct {
	Messages []string `json:"messages"`
}

type FrustrationEvaluation struct {
	Score          float64  `json:"score"`
	Indicators     []string `json:"indicators"`
	Recommendation string   `json:"recommendation"`
}

type PerformanceSummary struct {
	TotalEvaluations    int     `json:"total_evaluations"`
	AvgCoachingScore    float64 `json:"avg_coaching_score"`
	AvgFrustrationScore float64 `json:"avg_frustration_score"`
	EvaluationsToday    int     `json:"evaluations_today"`
}

type QuotaStatus struct {
	Limit           int       `json:"limit"`
	Used            int       `json:"used"`
	Remaining       int       `json:"remaining"`
	UsagePercentage float64   `json:"usage_percentage"`
	ResetsAt        time.Time `json:"resets_at"`
}
