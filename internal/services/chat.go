package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"milesync-backend/internal/models"
	"milesync-backend/internal/repository"
)

const sessionGreeting = "Hi! I'm your goal coach. Tell me about something you want to achieve, and we'll turn it into a concrete plan together. What's on your mind?"

type ChatService struct {
	chatRepo *repository.ChatRepo
	goalRepo *repository.GoalRepo
	jobRepo  *repository.JobRepo
	gemini   *GeminiService
	redis    *redis.Client
}

func NewChatService(chatRepo *repository.ChatRepo, goalRepo *repository.GoalRepo, jobRepo *repository.JobRepo, gemini *GeminiService, redisClient *redis.Client) *ChatService {
	return &ChatService{
		chatRepo: chatRepo,
		goalRepo: goalRepo,
		jobRepo:  jobRepo,
		gemini:   gemini,
		redis:    redisClient,
	}
}

// StartSession opens a new coaching conversation seeded with a greeting.
func (s *ChatService) StartSession(ctx context.Context, userID uuid.UUID) (*models.SessionDetail, error) {
	session := &models.ChatSession{UserID: userID}
	if err := s.chatRepo.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	greeting := &models.ChatMessage{
		SessionID: session.ID,
		Role:      "assistant",
		Content:   sessionGreeting,
	}
	if err := s.chatRepo.CreateMessage(ctx, greeting); err != nil {
		return nil, err
	}

	return &models.SessionDetail{
		ChatSession: *session,
		Messages:    []models.ChatMessage{*greeting},
	}, nil
}

func (s *ChatService) ListSessions(ctx context.Context, userID uuid.UUID) ([]models.SessionSummary, error) {
	return s.chatRepo.ListSessions(ctx, userID)
}

// ownedSession loads a session and enforces ownership.
func (s *ChatService) ownedSession(ctx context.Context, userID, sessionID uuid.UUID) (*models.ChatSession, error) {
	session, err := s.chatRepo.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "Chat session not found"}
		}
		return nil, err
	}
	if session.UserID != userID {
		return nil, &ForbiddenError{Message: "You do not have access to this chat session"}
	}
	return session, nil
}

func (s *ChatService) GetSessionDetail(ctx context.Context, userID, sessionID uuid.UUID) (*models.SessionDetail, error) {
	session, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	messages, err := s.chatRepo.ListMessages(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return &models.SessionDetail{ChatSession: *session, Messages: messages}, nil
}

// SendMessage stores the user message, generates the coach reply, and
// queues a background coaching-quality evaluation.
func (s *ChatService) SendMessage(ctx context.Context, userID, sessionID uuid.UUID, content string) (*models.SendMessageResponse, error) {
	if content == "" {
		return nil, &ValidationError{Fields: map[string]string{"content": "Message content is required"}}
	}

	session, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionStatusActive {
		return nil, &ConflictError{Message: "This session is no longer active"}
	}

	history, err := s.chatRepo.ListMessages(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	userMsg := &models.ChatMessage{
		SessionID: sessionID,
		Role:      "user",
		Content:   content,
	}
	if err := s.chatRepo.CreateMessage(ctx, userMsg); err != nil {
		return nil, err
	}

	reply, err := s.gemini.CoachReply(ctx, userID, history, content)
	if err != nil {
		var rateErr *RateLimitError
		if errors.As(err, &rateErr) {
			return nil, err
		}
		log.Printf("coach reply failed for session %s: %v", sessionID, err)
		return nil, &UnavailableError{Message: "The coaching assistant is temporarily unavailable. Please try again."}
	}

	assistantMsg := &models.ChatMessage{
		SessionID: sessionID,
		Role:      "assistant",
		Content:   reply,
	}
	if err := s.chatRepo.CreateMessage(ctx, assistantMsg); err != nil {
		return nil, err
	}
	s.chatRepo.TouchSession(ctx, sessionID)

	if session.Title == nil {
		if title, titleErr := s.gemini.SuggestTitle(ctx, userID, content); titleErr == nil {
			s.chatRepo.UpdateSessionTitle(ctx, sessionID, title)
		}
	}

	// Evaluation runs in the background; losing it never affects the chat.
	s.enqueueEvaluation(ctx, userID, sessionID, content, reply)

	return &models.SendMessageResponse{
		UserMessage:      *userMsg,
		AssistantMessage: *assistantMsg,
	}, nil
}

func (s *ChatService) enqueueEvaluation(ctx context.Context, userID, sessionID uuid.UUID, userInput, aiResponse string) {
	payload, _ := json.Marshal(map[string]string{
		"user_input":  userInput,
		"ai_response": aiResponse,
	})

	job := &models.Job{
		UserID:      userID,
		Type:        "coaching-evaluation",
		ReferenceID: sessionID,
		PayloadJSON: payload,
	}
	if err := s.jobRepo.Create(ctx, job); err != nil {
		log.Printf("failed to create evaluation job for session %s: %v", sessionID, err)
		return
	}

	jobBytes, _ := json.Marshal(job)
	if err := s.redis.LPush(ctx, "queue:coaching-evaluation", string(jobBytes)).Err(); err != nil {
		log.Printf("failed to enqueue evaluation job %s: %v", job.ID, err)
	}
}

// Finalize extracts a structured roadmap from the conversation and creates
// the goal tree. The session must hold a real exchange first.
func (s *ChatService) Finalize(ctx context.Context, userID, sessionID uuid.UUID) (*models.FinalizeResponse, error) {
	session, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == models.SessionStatusFinalized {
		return nil, &ConflictError{Message: "This session has already been finalized"}
	}

	messages, err := s.chatRepo.ListMessages(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if userMessageCount(messages) < 1 || len(messages) < 2 {
		return nil, &ValidationError{Fields: map[string]string{
			"session": "Have a conversation about your goal before finalizing",
		}}
	}

	draft, err := s.gemini.ExtractRoadmap(ctx, userID, messages)
	if err != nil {
		var rateErr *RateLimitError
		if errors.As(err, &rateErr) {
			return nil, err
		}
		log.Printf("roadmap extraction failed for session %s: %v", sessionID, err)
		return nil, &UnavailableError{Message: "Could not generate a roadmap right now. Please try again."}
	}

	goal, milestones, err := s.draftToModels(userID, sessionID, draft)
	if err != nil {
		return nil, err
	}

	if err := s.goalRepo.CreateRoadmap(ctx, goal, milestones, sessionID); err != nil {
		return nil, err
	}

	session.Status = models.SessionStatusFinalized
	session.GoalID = &goal.ID
	session.Title = &goal.Title

	detail := &models.GoalDetail{Goal: *goal, Milestones: milestones}
	return &models.FinalizeResponse{Session: *session, Goal: *detail}, nil
}

func userMessageCount(messages []models.ChatMessage) int {
	count := 0
	for _, m := range messages {
		if m.Role == "user" {
			count++
		}
	}
	return count
}

// draftToModels validates the extraction output and converts it into
// persistable rows. A draft without a title or milestones is unusable.
func (s *ChatService) draftToModels(userID, sessionID uuid.UUID, draft *models.RoadmapDraft) (*models.Goal, []models.MilestoneDetail, error) {
	if draft.Title == "" || len(draft.Milestones) == 0 {
		return nil, nil, &ValidationError{Fields: map[string]string{
			"roadmap": "The conversation did not yield a usable goal roadmap",
		}}
	}

	category := draft.Category
	if !validCategory(category) {
		category = "other"
	}

	goal := &models.Goal{
		UserID:        userID,
		ChatSessionID: &sessionID,
		Title:         draft.Title,
		Category:      category,
		TargetDate:    parseDraftDate(draft.TargetDate),
	}
	if draft.Description != "" {
		goal.Description = &draft.Description
	}

	milestones := make([]models.MilestoneDetail, 0, len(draft.Milestones))
	for _, md := range draft.Milestones {
		if md.Title == "" {
			continue
		}
		m := models.MilestoneDetail{
			Milestone: models.Milestone{
				Title:      md.Title,
				TargetDate: parseDraftDate(md.TargetDate),
			},
		}
		if md.Description != "" {
			desc := md.Description
			m.Description = &desc
		}
		for _, td := range md.Tasks {
			if td.Title == "" {
				continue
			}
			priority := td.Priority
			if !validPriority(priority) {
				priority = "medium"
			}
			task := models.Task{
				Title:    td.Title,
				DueDate:  parseDraftDate(td.DueDate),
				Priority: priority,
			}
			if td.Description != "" {
				desc := td.Description
				task.Description = &desc
			}
			m.Tasks = append(m.Tasks, task)
		}
		milestones = append(milestones, m)
	}

	if len(milestones) == 0 {
		return nil, nil, &ValidationError{Fields: map[string]string{
			"roadmap": "The conversation did not yield a usable goal roadmap",
		}}
	}

	return goal, milestones, nil
}

// parseDraftDate is lenient: model-supplied dates that fail to parse are
// dropped rather than failing the whole roadmap.
func parseDraftDate(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil
	}
	return &t
}

func (s *ChatService) DeleteSession(ctx context.Context, userID, sessionID uuid.UUID) error {
	if _, err := s.ownedSession(ctx, userID, sessionID); err != nil {
		return err
	}
	return s.chatRepo.DeleteSession(ctx, sessionID)
}

// MarkCompleted lets the user close a session without extracting a goal.
func (s *ChatService) MarkCompleted(ctx context.Context, userID, sessionID uuid.UUID) (*models.ChatSession, error) {
	session, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionStatusActive {
		return nil, &ConflictError{Message: "Only active sessions can be completed"}
	}
	if err := s.chatRepo.UpdateSessionStatus(ctx, sessionID, models.SessionStatusCompleted); err != nil {
		return nil, err
	}
	session.Status = models.SessionStatusCompleted
	return session, nil
}
