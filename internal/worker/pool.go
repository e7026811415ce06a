package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"milesync-backend/internal/agents"
	"milesync-backend/internal/models"
	"milesync-backend/internal/repository"
	"milesync-backend/internal/services"
)

type Pool struct {
	redis       *redis.Client
	gemini      *services.GeminiService
	analytics   *services.AnalyticsService
	coordinator *agents.Coordinator
	jobRepo     *repository.JobRepo
	workerCount int
	stopChan    chan struct{}
}

func NewPool(
	redisClient *redis.Client,
	gemini *services.GeminiService,
	analytics *services.AnalyticsService,
	coordinator *agents.Coordinator,
	jobRepo *repository.JobRepo,
	workerCount int,
) *Pool {
	return &Pool{
		redis:       redisClient,
		gemini:      gemini,
		analytics:   analytics,
		coordinator: coordinator,
		jobRepo:     jobRepo,
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
	}
}

func (p *Pool) Start() {
	queues := []string{
		"queue:coaching-evaluation",
		"queue:insight-generation",
	}

	for i := 0; i < p.workerCount; i++ {
		go p.worker(i, queues)
	}

	log.Printf("Started %d worker goroutines", p.workerCount)
}

func (p *Pool) Stop() {
	close(p.stopChan)
}

func (p *Pool) worker(id int, queues []string) {
	for {
		select {
		case <-p.stopChan:
			log.Printf("Worker %d shutting down", id)
			return
		default:
		}

		ctx := context.Background()

		// BLPOP with 30s timeout
		result, err := p.redis.BLPop(ctx, 30*time.Second, queues...).Result()
		if err != nil {
			continue // Timeout or error, retry
		}

		if len(result) < 2 {
			continue
		}

		var job models.Job
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			log.Printf("Worker %d: failed to parse job: %v", id, err)
			continue
		}

		// Try to acquire lock
		lockKey := fmt.Sprintf("job_lock:%s", job.ID.String())
		locked, err := p.redis.SetNX(ctx, lockKey, "1", 10*time.Minute).Result()
		if err != nil || !locked {
			continue // Another worker has this job
		}

		log.Printf("Worker %d: processing job %s (type: %s)", id, job.ID, job.Type)

		p.jobRepo.UpdateStatus(ctx, job.ID, "processing")

		var processErr error
		switch job.Type {
		case "coaching-evaluation":
			processErr = p.processEvaluation(ctx, &job)
		case "insight-generation":
			processErr = p.processInsights(ctx, &job)
		default:
			processErr = fmt.Errorf("unknown job type: %s", job.Type)
		}

		if processErr != nil {
			p.handleFailure(ctx, &job, processErr)
		} else {
			p.handleSuccess(ctx, &job)
		}

		p.redis.Del(ctx, lockKey)
	}
}

// processEvaluation scores one coach exchange with the LLM judge and stores
// the result. ReferenceID is the chat session the exchange came from.
func (p *Pool) processEvaluation(ctx context.Context, job *models.Job) error {
	var payload struct {
		UserInput  string `json:"user_input"`
		AIResponse string `json:"ai_response"`
	}
	if err := json.Unmarshal(job.PayloadJSON, &payload); err != nil {
		return fmt.Errorf("failed to decode evaluation payload: %w", err)
	}
	if payload.UserInput == "" || payload.AIResponse == "" {
		return fmt.Errorf("evaluation payload is missing the exchange")
	}

	eval, err := p.gemini.EvaluateCoaching(ctx, job.UserID, payload.UserInput, payload.AIResponse)
	if err != nil {
		return fmt.Errorf("coaching evaluation failed: %w", err)
	}

	sessionID := job.ReferenceID
	if err := p.analytics.RecordEvaluation(ctx, job.UserID, &sessionID, models.EvaluationKindCoaching, eval.Score, eval.Reason); err != nil {
		return fmt.Errorf("failed to store evaluation: %w", err)
	}

	p.gemini.PublishUpdate(ctx, job.UserID, models.WSMessage{
		Type: "evaluation_ready",
		Payload: models.EvaluationReadyEvent{
			SessionID: sessionID,
			Kind:      models.EvaluationKindCoaching,
			Score:     eval.Score,
		},
	})

	return nil
}

// processInsights runs the insight pipeline for a user in the background.
func (p *Pool) processInsights(ctx context.Context, job *models.Job) error {
	var payload struct {
		Message string `json:"message"`
	}
	if len(job.PayloadJSON) > 0 {
		json.Unmarshal(job.PayloadJSON, &payload)
	}

	_, err := p.coordinator.GenerateInsights(ctx, &agents.Request{
		UserID:  job.UserID,
		Message: payload.Message,
	})
	if err != nil {
		return fmt.Errorf("insight generation failed: %w", err)
	}
	return nil
}

func (p *Pool) handleSuccess(ctx context.Context, job *models.Job) {
	p.jobRepo.UpdateStatus(ctx, job.ID, "completed")
	log.Printf("Job %s completed successfully", job.ID)
}

func (p *Pool) handleFailure(ctx context.Context, job *models.Job, err error) {
	job.RetryCount++
	errMsg := err.Error()

	if job.RetryCount < job.MaxRetries {
		// Re-queue with backoff
		log.Printf("Job %s failed (attempt %d): %s, retrying", job.ID, job.RetryCount, errMsg)
		p.jobRepo.UpdateStatus(ctx, job.ID, "pending")
		p.jobRepo.UpdateError(ctx, job.ID, errMsg, job.RetryCount)

		jobBytes, _ := json.Marshal(job)
		backoff := time.Duration(1<<uint(job.RetryCount)) * time.Second
		time.AfterFunc(backoff, func() {
			p.redis.LPush(context.Background(), "queue:"+job.Type, string(jobBytes))
		})
	} else {
		// Max retries reached
		log.Printf("Job %s failed permanently: %s", job.ID, errMsg)
		p.jobRepo.UpdateStatus(ctx, job.ID, "failed")
		p.jobRepo.UpdateError(ctx, job.ID, errMsg, job.RetryCount)

		p.gemini.PublishUpdate(ctx, job.UserID, models.WSMessage{
			Type: "error",
			Payload: models.ErrorEvent{
				JobID:        job.ID,
				ErrorCode:    "JOB_FAILED",
				ErrorMessage: errMsg,
			},
		})
	}
}
