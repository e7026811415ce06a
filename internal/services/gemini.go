package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"google.golang.org/api/option"

	"milesync-backend/internal/models"
	"milesync-backend/internal/repository"
)

type GeminiService struct {
	client     *genai.Client
	model      *genai.GenerativeModel
	promptRepo *repository.PromptRepo
	redis      *redis.Client
	quotaLimit int
	rateChan   chan struct{} // Token bucket
}

func NewGeminiService(
	apiKey string,
	concurrentReqs int,
	quotaLimit int,
	promptRepo *repository.PromptRepo,
	redisClient *redis.Client,
) (*GeminiService, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel("gemini-3-flash-preview")
	model.SetTemperature(0.7)
	model.SetTopP(0.95)

	// Token bucket for rate limiting
	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	return &GeminiService{
		client:     client,
		model:      model,
		promptRepo: promptRepo,
		redis:      redisClient,
		quotaLimit: quotaLimit,
		rateChan:   rateChan,
	}, nil
}

func (s *GeminiService) Close() {
	s.client.Close()
}

// acquireRate blocks until a rate slot is available
func (s *GeminiService) acquireRate(ctx context.Context) error {
	select {
	case <-s.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Minute):
		return fmt.Errorf("timeout waiting for Gemini rate slot")
	}
}

func (s *GeminiService) releaseRate() {
	s.rateChan <- struct{}{}
}

// PublishUpdate sends a WebSocket update via Redis pub/sub
func (s *GeminiService) PublishUpdate(ctx context.Context, userID uuid.UUID, msg models.WSMessage) {
	data, _ := json.Marshal(msg)
	s.redis.Publish(ctx, fmt.Sprintf("user_updates:%s", userID.String()), string(data))
}

// ResolvePrompt prefers the operator-editable row in system_prompts and
// falls back to the built-in default.
func (s *GeminiService) ResolvePrompt(ctx context.Context, key, fallback string) string {
	if s.promptRepo == nil {
		return fallback
	}
	p, err := s.promptRepo.Get(ctx, key)
	if err != nil || p.Content == "" {
		return fallback
	}
	return p.Content
}

func quotaKey(userID uuid.UUID) string {
	return fmt.Sprintf("quota:%s:%s", userID.String(), time.Now().UTC().Format("2006-01"))
}

// CheckQuota rejects LLM work once the user's monthly token budget is spent.
func (s *GeminiService) CheckQuota(ctx context.Context, userID uuid.UUID) error {
	used, err := s.redis.Get(ctx, quotaKey(userID)).Int()
	if err != nil && err != redis.Nil {
		// Redis being down must not block chat
		log.Printf("quota check failed for %s: %v", userID, err)
		return nil
	}
	if used >= s.quotaLimit {
		return &RateLimitError{Message: "Monthly AI usage quota exhausted. Quota resets at the start of next month."}
	}
	return nil
}

func (s *GeminiService) recordUsage(ctx context.Context, userID uuid.UUID, resp *genai.GenerateContentResponse) {
	if resp == nil || resp.UsageMetadata == nil {
		return
	}
	tokens := int64(resp.UsageMetadata.TotalTokenCount)
	if tokens <= 0 {
		return
	}
	key := quotaKey(userID)
	s.redis.IncrBy(ctx, key, tokens)
	s.redis.Expire(ctx, key, 32*24*time.Hour)
}

// QuotaStatus reports the current month's token usage.
func (s *GeminiService) QuotaStatus(ctx context.Context, userID uuid.UUID) (*models.QuotaStatus, error) {
	used, err := s.redis.Get(ctx, quotaKey(userID)).Int()
	if err != nil && err != redis.Nil {
		return nil, err
	}

	remaining := s.quotaLimit - used
	if remaining < 0 {
		remaining = 0
	}

	now := time.Now().UTC()
	resetsAt := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)

	return &models.QuotaStatus{
		Limit:           s.quotaLimit,
		Used:            used,
		Remaining:       remaining,
		UsagePercentage: float64(used) / float64(s.quotaLimit) * 100,
		ResetsAt:        resetsAt,
	}, nil
}

const defaultCoachPrompt = `You are a supportive, practical goal-achievement coach. You help people turn
vague ambitions into concrete plans they can act on.

Guidelines:
- Ask one focused question at a time to understand what the person wants, why it
  matters to them, and what constraints they have.
- Push gently toward specificity: timelines, measurable outcomes, first steps.
- Keep replies short (2-4 sentences) and conversational. Never lecture.
- When the goal feels well understood, tell the person they can finalize the
  conversation to turn it into a roadmap of milestones and daily tasks.`

// CoachReply generates the assistant's next message in a coaching session.
func (s *GeminiService) CoachReply(ctx context.Context, userID uuid.UUID, history []models.ChatMessage, userMessage string) (string, error) {
	if err := s.CheckQuota(ctx, userID); err != nil {
		return "", err
	}
	if err := s.acquireRate(ctx); err != nil {
		return "", err
	}
	defer s.releaseRate()

	systemPrompt := s.ResolvePrompt(ctx, "coach_system_prompt", defaultCoachPrompt)

	model := s.client.GenerativeModel("gemini-3-flash-preview")
	model.SetTemperature(0.7)
	model.SetTopP(0.95)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}

	cs := model.StartChat()
	cs.History = toGenaiHistory(history)

	resp, err := cs.SendMessage(ctx, genai.Text(userMessage))
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}
	s.recordUsage(ctx, userID, resp)

	reply := strings.TrimSpace(extractText(resp))
	if reply == "" {
		return "", fmt.Errorf("Gemini returned an empty reply")
	}
	return reply, nil
}

// SuggestTitle asks for a short session title. Failures are non-fatal for
// callers, which keep the session untitled.
func (s *GeminiService) SuggestTitle(ctx context.Context, userID uuid.UUID, firstMessage string) (string, error) {
	if err := s.acquireRate(ctx); err != nil {
		return "", err
	}
	defer s.releaseRate()

	prompt := fmt.Sprintf(`Summarize this goal-setting conversation opener as a title of at most 5 words.
Return ONLY the title, no quotes, no punctuation at the end.

Message: %s`, firstMessage)

	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	s.recordUsage(ctx, userID, resp)

	title := trimTitle(extractText(resp))
	if title == "" {
		return "", fmt.Errorf("Gemini returned an empty title")
	}
	return title, nil
}

// trimTitle strips quoting the model tends to add and caps runaway titles.
func trimTitle(raw string) string {
	title := strings.Trim(strings.TrimSpace(raw), `"'`)
	if words := strings.Fields(title); len(words) > 8 {
		title = strings.Join(words[:8], " ")
	}
	return title
}

// roadmapTool is the function declaration the extraction call must invoke.
var roadmapTool = &genai.Tool{
	FunctionDeclarations: []*genai.FunctionDeclaration{{
		Name:        "create_goal_roadmap",
		Description: "Create a structured goal roadmap with milestones and tasks from a coaching conversation",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"title":       {Type: genai.TypeString, Description: "Short, action-oriented goal title"},
				"description": {Type: genai.TypeString, Description: "One-paragraph description of the goal and why it matters"},
				"category": {
					Type:        genai.TypeString,
					Format:      "enum",
					Enum:        []string{"health", "career", "education", "finance", "personal", "other"},
					Description: "Goal category",
				},
				"target_date": {Type: genai.TypeString, Description: "Target completion date in YYYY-MM-DD format, empty if unknown"},
				"milestones": {
					Type:        genai.TypeArray,
					Description: "3 to 7 milestones in chronological order",
					Items: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"title":       {Type: genai.TypeString},
							"description": {Type: genai.TypeString},
							"target_date": {Type: genai.TypeString, Description: "YYYY-MM-DD or empty"},
							"tasks": {
								Type:        genai.TypeArray,
								Description: "2 to 5 concrete tasks for this milestone",
								Items: &genai.Schema{
									Type: genai.TypeObject,
									Properties: map[string]*genai.Schema{
										"title":       {Type: genai.TypeString},
										"description": {Type: genai.TypeString},
										"due_date":    {Type: genai.TypeString, Description: "YYYY-MM-DD or empty"},
										"priority": {
											Type:   genai.TypeString,
											Format: "enum",
											Enum:   []string{"low", "medium", "high"},
										},
									},
									Required: []string{"title", "priority"},
								},
							},
						},
						Required: []string{"title", "tasks"},
					},
				},
			},
			Required: []string{"title", "category", "milestones"},
		},
	}},
}

const defaultExtractionPrompt = `Analyze the coaching conversation below and extract the user's goal as a
structured roadmap. Call create_goal_roadmap exactly once with 3-7 milestones,
each holding 2-5 concrete, completable tasks. Infer realistic dates from the
conversation where possible.`

// ExtractRoadmap turns a finished conversation into a structured goal via
// function calling.
func (s *GeminiService) ExtractRoadmap(ctx context.Context, userID uuid.UUID, messages []models.ChatMessage) (*models.RoadmapDraft, error) {
	if err := s.CheckQuota(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.acquireRate(ctx); err != nil {
		return nil, err
	}
	defer s.releaseRate()

	instruction := s.ResolvePrompt(ctx, "goal_extraction_template", defaultExtractionPrompt)

	var transcript strings.Builder
	for _, m := range messages {
		transcript.WriteString(m.Role)
		transcript.WriteString(": ")
		transcript.WriteString(m.Content)
		transcript.WriteString("\n")
	}

	model := s.client.GenerativeModel("gemini-3-flash-preview")
	model.SetTemperature(0.2)
	model.Tools = []*genai.Tool{roadmapTool}
	model.ToolConfig = &genai.ToolConfig{
		FunctionCallingConfig: &genai.FunctionCallingConfig{
			Mode:                 genai.FunctionCallingAny,
			AllowedFunctionNames: []string{"create_goal_roadmap"},
		},
	}

	prompt := instruction + "\n\n---CONVERSATION---\n" + transcript.String() + "---END---\n"

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("Gemini API error: %w", err)
	}
	s.recordUsage(ctx, userID, resp)

	call := extractFunctionCall(resp, "create_goal_roadmap")
	if call == nil {
		return nil, fmt.Errorf("model did not produce a roadmap")
	}

	argsJSON, err := json.Marshal(call.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal roadmap args: %w", err)
	}

	draft := &models.RoadmapDraft{}
	if err := json.Unmarshal(argsJSON, draft); err != nil {
		return nil, fmt.Errorf("failed to decode roadmap: %w", err)
	}

	return draft, nil
}

const defaultCoachingEvalPrompt = `You are an impartial judge of coaching conversations. Score the coach reply
against the user input on a 0.0 to 1.0 scale considering: SMART goal
alignment, motivational tone, actionability, and clarity.

Return ONLY a valid JSON object: {"score": 0.0, "reason": "one sentence"}`

// EvaluateCoaching scores a single coach exchange with an LLM-as-judge call.
func (s *GeminiService) EvaluateCoaching(ctx context.Context, userID uuid.UUID, userInput, aiResponse string) (*models.CoachingEvaluation, error) {
	if err := s.acquireRate(ctx); err != nil {
		return nil, err
	}
	defer s.releaseRate()

	instruction := s.ResolvePrompt(ctx, "coaching_eval_template", defaultCoachingEvalPrompt)
	prompt := fmt.Sprintf("%s\n\nUser input:\n%s\n\nCoach reply:\n%s\n", instruction, userInput, aiResponse)

	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("Gemini API error: %w", err)
	}
	s.recordUsage(ctx, userID, resp)

	eval := &models.CoachingEvaluation{}
	if err := decodeJSONResponse(extractText(resp), eval); err != nil {
		return nil, err
	}
	eval.Score = clampScore(eval.Score)
	return eval, nil
}

const defaultFrustrationEvalPrompt = `You detect user frustration in coaching conversations. Given recent user
messages, score frustration from 0.0 (content) to 1.0 (very frustrated) and
list short indicator phrases you observed.

Return ONLY a valid JSON object: {"score": 0.0, "indicators": ["..."]}`

// EvaluateFrustration scores recent user messages and attaches a
// recommendation band.
func (s *GeminiService) EvaluateFrustration(ctx context.Context, userID uuid.UUID, messages []string) (*models.FrustrationEvaluation, error) {
	if err := s.acquireRate(ctx); err != nil {
		return nil, err
	}
	defer s.releaseRate()

	instruction := s.ResolvePrompt(ctx, "frustration_eval_template", defaultFrustrationEvalPrompt)
	prompt := instruction + "\n\nUser messages:\n- " + strings.Join(messages, "\n- ") + "\n"

	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("Gemini API error: %w", err)
	}
	s.recordUsage(ctx, userID, resp)

	eval := &models.FrustrationEvaluation{}
	if err := decodeJSONResponse(extractText(resp), eval); err != nil {
		return nil, err
	}
	eval.Score = clampScore(eval.Score)
	eval.Recommendation = FrustrationRecommendation(eval.Score)
	return eval, nil
}

// FrustrationRecommendation maps a frustration score to a coaching action.
func FrustrationRecommendation(score float64) string {
	switch {
	case score < 0.3:
		return "User appears engaged. Continue the current approach."
	case score < 0.6:
		return "Minor friction detected. Monitor tone and simplify next steps."
	default:
		return "High frustration. Simplify coaching language and offer direct help."
	}
}

// GenerateJSON runs a strict-JSON prompt and decodes the reply into out.
// Used by the coaching agents for their structured outputs.
func (s *GeminiService) GenerateJSON(ctx context.Context, userID uuid.UUID, systemPrompt, userPrompt string, out interface{}) error {
	if err := s.CheckQuota(ctx, userID); err != nil {
		return err
	}
	if err := s.acquireRate(ctx); err != nil {
		return err
	}
	defer s.releaseRate()

	model := s.client.GenerativeModel("gemini-3-flash-preview")
	model.SetTemperature(0.4)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}

	resp, err := model.GenerateContent(ctx, genai.Text(userPrompt))
	if err != nil {
		return fmt.Errorf("Gemini API error: %w", err)
	}
	s.recordUsage(ctx, userID, resp)

	return decodeJSONResponse(extractText(resp), out)
}

// Helper functions

func toGenaiHistory(history []models.ChatMessage) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history))
	for _, m := range history {
		role := "user"
		if m.Role == "assistant" {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(m.Content)},
		})
	}
	return contents
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}

func extractFunctionCall(resp *genai.GenerateContentResponse, name string) *genai.FunctionCall {
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if fc, ok := part.(genai.FunctionCall); ok && fc.Name == name {
				return &fc
			}
		}
	}
	return nil
}

// decodeJSONResponse strips markdown fences and falls back to bracket
// extraction when the model wraps the JSON in prose.
func decodeJSONResponse(raw string, out interface{}) error {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	if json.Unmarshal([]byte(raw), out) == nil {
		return nil
	}

	start := strings.IndexAny(raw, "{[")
	if start < 0 {
		return fmt.Errorf("no JSON found in model response")
	}
	var end int
	if raw[start] == '{' {
		end = strings.LastIndex(raw, "}")
	} else {
		end = strings.LastIndex(raw, "]")
	}
	if end <= start {
		return fmt.Errorf("no JSON found in model response")
	}

	if err := json.Unmarshal([]byte(raw[start:end+1]), out); err != nil {
		return fmt.Errorf("failed to decode model JSON: %w", err)
	}
	return nil
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
