package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"milesync-backend/internal/models"
	"milesync-backend/internal/repository"
	"milesync-backend/internal/services"
)

// maxChainDepth caps how many agents a single request can hop through.
const maxChainDepth = 3

// AgentInfo describes one agent for the public listing endpoint.
type AgentInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Coordinator routes requests to the right agent and runs the multi-agent
// pipelines (intake, daily check-in, insight generation).
type Coordinator struct {
	agents      map[string]Agent
	order       []string
	goals       *services.GoalService
	profileRepo *repository.ProfileRepo
	jobRepo     *repository.JobRepo
	redis       *redis.Client
}

func NewCoordinator(
	gemini *services.GeminiService,
	goals *services.GoalService,
	profileRepo *repository.ProfileRepo,
	jobRepo *repository.JobRepo,
	redisClient *redis.Client,
) *Coordinator {
	all := []Agent{
		NewFoundationAgent(gemini),
		NewPlanningAgent(gemini),
		NewExecutionAgent(gemini),
		NewSustainabilityAgent(gemini),
		NewSupportAgent(gemini),
		NewPsychologicalAgent(gemini),
	}

	c := &Coordinator{
		agents:      make(map[string]Agent, len(all)),
		goals:       goals,
		profileRepo: profileRepo,
		jobRepo:     jobRepo,
		redis:       redisClient,
	}
	for _, a := range all {
		c.agents[a.Name()] = a
		c.order = append(c.order, a.Name())
	}
	return c
}

// Agents returns the registered agents in registration order.
func (c *Coordinator) Agents() []AgentInfo {
	infos := make([]AgentInfo, 0, len(c.order))
	for _, name := range c.order {
		a := c.agents[name]
		infos = append(infos, AgentInfo{Name: a.Name(), Description: a.Description()})
	}
	return infos
}

// DefaultPrompts returns the built-in system prompt for each agent, keyed by
// its prompt key, for seeding into the prompt store.
func (c *Coordinator) DefaultPrompts() map[string]string {
	prompts := make(map[string]string, len(c.agents))
	for _, a := range c.agents {
		prompts[a.PromptKey()] = a.DefaultPrompt()
	}
	return prompts
}

var (
	emotionalKeywords = []string{
		"overwhelmed", "anxious", "stressed", "burned out", "burnout",
		"give up", "giving up", "hopeless", "discouraged", "frustrated",
		"unmotivated", "depressed", "tired of",
	}
	resourceKeywords = []string{
		"resource", "book", "course", "tutorial", "article", "community",
		"where can i learn", "recommend",
	}
	habitKeywords = []string{
		"habit", "routine", "consistent", "consistency", "every day",
		"keep it up", "stick to", "streak",
	}
	planKeywords = []string{
		"plan", "milestone", "roadmap", "break down", "steps", "schedule",
		"timeline",
	}
)

func containsAny(message string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(message, kw) {
			return true
		}
	}
	return false
}

// pick chooses the agent for a request. An explicit request type wins over
// keyword matching; everything unmatched lands on foundation.
func (c *Coordinator) pick(req *Request) Agent {
	if req.Type != "" {
		if a, ok := c.agents[req.Type]; ok {
			return a
		}
	}

	msg := strings.ToLower(req.Message)
	switch {
	case containsAny(msg, emotionalKeywords):
		return c.agents["psychological"]
	case containsAny(msg, resourceKeywords):
		return c.agents["support"]
	case containsAny(msg, habitKeywords):
		return c.agents["sustainability"]
	case containsAny(msg, planKeywords):
		return c.agents["planning"]
	default:
		return c.agents["foundation"]
	}
}

// loadContext enriches a request with the user's goals, progress, and
// profile so agents reason over real state instead of the bare message.
// Lookup failures degrade to whatever the caller supplied.
func (c *Coordinator) loadContext(ctx context.Context, req *Request) {
	summaries, _ := c.goals.ListGoals(ctx, req.UserID)
	stats, _ := c.goals.DashboardStats(ctx, req.UserID)
	profile, _ := c.profileRepo.GetProfile(ctx, req.UserID)

	// Caller-supplied keys win over loaded ones.
	req.Data = mergeData(contextData(summaries, stats, profile), req.Data)
}

// contextData flattens goals, dashboard stats, and the profile into the
// data blob agents receive.
func contextData(goals []models.GoalSummary, stats *models.DashboardStats, profile *models.UserProfile) map[string]interface{} {
	data := make(map[string]interface{})

	active := make([]map[string]interface{}, 0, len(goals))
	for _, g := range goals {
		if g.Status != models.GoalStatusActive {
			continue
		}
		active = append(active, map[string]interface{}{
			"title":      g.Title,
			"category":   g.Category,
			"progress":   g.Progress,
			"open_tasks": g.TaskCount - g.CompletedTaskCount,
		})
	}
	if len(active) > 0 {
		data["active_goals"] = active
	}

	if stats != nil {
		data["current_streak"] = stats.CurrentStreak
		data["completed_tasks"] = stats.CompletedTasks
		data["total_tasks"] = stats.TotalTasks

		upcoming := make([]map[string]interface{}, 0, len(stats.UpcomingTasks))
		for _, t := range stats.UpcomingTasks {
			row := map[string]interface{}{
				"title":    t.Title,
				"goal":     t.GoalTitle,
				"priority": t.Priority,
			}
			if t.DueDate != nil {
				row["due_date"] = t.DueDate.Format("2006-01-02")
			}
			upcoming = append(upcoming, row)
		}
		if len(upcoming) > 0 {
			data["upcoming_tasks"] = upcoming
		}
	}

	if profile != nil {
		data["longest_streak"] = profile.LongestStreak
		if len(profile.TraitsJSON) > 0 {
			var traits map[string]interface{}
			if json.Unmarshal(profile.TraitsJSON, &traits) == nil && len(traits) > 0 {
				data["traits"] = traits
			}
		}
	}

	return data
}

// Route dispatches a request to the best-matching agent and follows the
// NextAgent chain, merging each hop's data into a single response.
func (c *Coordinator) Route(ctx context.Context, req *Request) (*Response, error) {
	agent := c.pick(req)
	c.loadContext(ctx, req)

	merged := make(map[string]interface{})
	var chain []string

	for depth := 0; agent != nil && depth < maxChainDepth; depth++ {
		hopReq := &Request{
			UserID:  req.UserID,
			Type:    agent.Name(),
			Message: req.Message,
			Data:    mergeData(req.Data, merged),
		}
		resp, err := agent.Process(ctx, hopReq)
		if err != nil {
			return nil, fmt.Errorf("agent %s: %w", agent.Name(), err)
		}

		chain = append(chain, agent.Name())
		for k, v := range resp.Data {
			merged[k] = v
		}

		agent = nil
		if resp.NextAgent != "" {
			if next, ok := c.agents[resp.NextAgent]; ok && !contains(chain, resp.NextAgent) {
				agent = next
			}
		}
	}

	merged["agent_chain"] = chain
	return &Response{Agent: chain[len(chain)-1], Data: merged}, nil
}

// Intake runs the new-goal pipeline: foundation clarifies, planning turns
// the clarified goal into milestones.
func (c *Coordinator) Intake(ctx context.Context, req *Request) (*Response, error) {
	c.loadContext(ctx, req)

	found, err := c.agents["foundation"].Process(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("foundation: %w", err)
	}
	c.persistTraits(ctx, req.UserID, found.Data)

	merged := make(map[string]interface{}, len(found.Data)+2)
	for k, v := range found.Data {
		merged[k] = v
	}

	goal := req.Message
	if cg, ok := found.Data["clarified_goal"].(string); ok && cg != "" {
		goal = cg
	}

	plan, err := c.agents["planning"].Process(ctx, &Request{
		UserID:  req.UserID,
		Type:    "planning",
		Message: goal,
		Data:    found.Data,
	})
	if err != nil {
		return nil, fmt.Errorf("planning: %w", err)
	}
	for k, v := range plan.Data {
		merged[k] = v
	}

	merged["agent_chain"] = []string{"foundation", "planning"}
	return &Response{Agent: "planning", Data: merged}, nil
}

// DailyCheckIn runs the daily pipeline: execution picks today's work,
// sustainability reviews consistency, and the psychological agent joins in
// when burnout risk is elevated.
func (c *Coordinator) DailyCheckIn(ctx context.Context, req *Request) (*Response, error) {
	c.loadContext(ctx, req)

	exec, err := c.agents["execution"].Process(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execution: %w", err)
	}

	merged := make(map[string]interface{})
	chain := []string{"execution"}
	for k, v := range exec.Data {
		merged[k] = v
	}

	sust, err := c.agents["sustainability"].Process(ctx, &Request{
		UserID:  req.UserID,
		Type:    "sustainability",
		Message: req.Message,
		Data:    mergeData(req.Data, merged),
	})
	if err != nil {
		return nil, fmt.Errorf("sustainability: %w", err)
	}
	chain = append(chain, "sustainability")
	for k, v := range sust.Data {
		merged[k] = v
	}

	if risk, ok := merged["burnout_risk"].(string); ok && (risk == "MEDIUM" || risk == "HIGH") {
		psych, err := c.agents["psychological"].Process(ctx, &Request{
			UserID:  req.UserID,
			Type:    "psychological",
			Message: req.Message,
			Data:    mergeData(req.Data, merged),
		})
		if err != nil {
			return nil, fmt.Errorf("psychological: %w", err)
		}
		chain = append(chain, "psychological")
		for k, v := range psych.Data {
			merged[k] = v
		}
	}

	// Refresh the stored insights in the background off the fresh check-in.
	c.enqueueInsights(ctx, req.UserID, req.Message)

	merged["agent_chain"] = chain
	return &Response{Agent: chain[len(chain)-1], Data: merged}, nil
}

// GenerateInsights runs the sustainability agent over the user's context and
// persists the resulting habit loops and a burnout insight.
func (c *Coordinator) GenerateInsights(ctx context.Context, req *Request) (*Response, error) {
	c.loadContext(ctx, req)

	resp, err := c.agents["sustainability"].Process(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("sustainability: %w", err)
	}

	if loops, ok := resp.Data["habit_loops"].([]map[string]interface{}); ok {
		for _, l := range loops {
			loop := &models.HabitLoop{
				ID:      uuid.New(),
				UserID:  req.UserID,
				Cue:     stringField(l, "cue"),
				Routine: stringField(l, "routine"),
				Reward:  stringField(l, "reward"),
			}
			if loop.Cue == "" || loop.Routine == "" {
				continue
			}
			if err := c.profileRepo.CreateHabitLoop(ctx, loop); err != nil {
				return nil, fmt.Errorf("store habit loop: %w", err)
			}
		}
	}

	content, err := json.Marshal(resp.Data)
	if err != nil {
		return nil, fmt.Errorf("encode insight: %w", err)
	}
	insight := &models.UserInsight{
		ID:          uuid.New(),
		UserID:      req.UserID,
		Kind:        "habit",
		ContentJSON: content,
	}
	if risk, ok := resp.Data["burnout_risk"].(string); ok && risk != "LOW" {
		insight.Kind = "burnout"
	}
	if err := c.profileRepo.CreateInsight(ctx, insight); err != nil {
		return nil, fmt.Errorf("store insight: %w", err)
	}

	return resp, nil
}

// InsightHistory returns the stored insights and habit loops, newest first.
func (c *Coordinator) InsightHistory(ctx context.Context, userID uuid.UUID) ([]models.UserInsight, []models.HabitLoop, error) {
	insights, err := c.profileRepo.ListInsights(ctx, userID, 20)
	if err != nil {
		return nil, nil, err
	}
	loops, err := c.profileRepo.ListHabitLoops(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return insights, loops, nil
}

// Motivation routes straight to the psychological agent.
func (c *Coordinator) Motivation(ctx context.Context, req *Request) (*Response, error) {
	c.loadContext(ctx, req)

	resp, err := c.agents["psychological"].Process(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("psychological: %w", err)
	}
	return resp, nil
}

// Resources routes straight to the support agent.
func (c *Coordinator) Resources(ctx context.Context, req *Request) (*Response, error) {
	c.loadContext(ctx, req)

	resp, err := c.agents["support"].Process(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("support: %w", err)
	}
	return resp, nil
}

// persistTraits folds intake findings into the stored profile so later
// sessions start from what is already known about the user.
func (c *Coordinator) persistTraits(ctx context.Context, userID uuid.UUID, data map[string]interface{}) {
	traits := make(map[string]interface{})
	if m, ok := data["motivation"].(string); ok && m != "" {
		traits["motivation"] = m
	}
	if obstacles, ok := data["obstacles"].([]string); ok && len(obstacles) > 0 {
		traits["obstacles"] = obstacles
	}
	if len(traits) == 0 {
		return
	}

	blob, _ := json.Marshal(traits)
	if err := c.profileRepo.MergeTraits(ctx, userID, blob); err != nil {
		log.Printf("failed to merge intake traits for user %s: %v", userID, err)
	}
}

// enqueueInsights schedules a background insight refresh. Losing it never
// affects the check-in response.
func (c *Coordinator) enqueueInsights(ctx context.Context, userID uuid.UUID, message string) {
	payload, _ := json.Marshal(map[string]string{"message": message})
	job := &models.Job{
		UserID:      userID,
		Type:        "insight-generation",
		PayloadJSON: payload,
	}
	if err := c.jobRepo.Create(ctx, job); err != nil {
		log.Printf("failed to create insight job for user %s: %v", userID, err)
		return
	}

	jobBytes, _ := json.Marshal(job)
	if err := c.redis.LPush(ctx, "queue:insight-generation", string(jobBytes)).Err(); err != nil {
		log.Printf("failed to enqueue insight job %s: %v", job.ID, err)
	}
}

func mergeData(base, extra map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func stringField(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}
