package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"milesync-backend/internal/handlers"
	"milesync-backend/internal/middleware"
	"milesync-backend/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	authHandler *handlers.AuthHandler,
	chatHandler *handlers.ChatHandler,
	goalHandler *handlers.GoalHandler,
	dashboardHandler *handlers.DashboardHandler,
	analyticsHandler *handlers.AnalyticsHandler,
	agentHandler *handlers.AgentHandler,
	wsHub *websocket.Hub,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Auth rate limiter (10 req/min per IP)
	authLimiter := middleware.NewRateLimiter(10, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Auth Routes (public) ────
		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
			r.Get("/oauth/{provider}", authHandler.OAuthStart)
			r.Get("/oauth/{provider}/callback", authHandler.OAuthCallback)

			// Logout and profile require auth
			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)
				r.Post("/logout", authHandler.Logout)
				r.Get("/me", authHandler.Me)
				r.Put("/me", authHandler.UpdateMe)
			})
		})

		// ──── Chat Routes ────
		r.Route("/chat", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/start", chatHandler.StartSession)
			r.Get("/sessions", chatHandler.ListSessions)
			r.Get("/sessions/{id}", chatHandler.GetSession)
			r.Post("/sessions/{id}/message", chatHandler.SendMessage)
			r.Post("/sessions/{id}/finalize", chatHandler.Finalize)
			r.Post("/sessions/{id}/complete", chatHandler.CompleteSession)
			r.Delete("/sessions/{id}", chatHandler.DeleteSession)
		})

		// ──── Goal Routes ────
		r.Route("/goals", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/", goalHandler.List)
			r.Post("/", goalHandler.Create)
			r.Get("/{id}", goalHandler.Get)
			r.Put("/{id}", goalHandler.Update)
			r.Delete("/{id}", goalHandler.Delete)

			r.Post("/{id}/milestones", goalHandler.AddMilestone)
			r.Put("/{id}/milestones/{milestoneID}", goalHandler.UpdateMilestone)
			r.Delete("/{id}/milestones/{milestoneID}", goalHandler.DeleteMilestone)

			r.Post("/{id}/tasks", goalHandler.AddTask)
			r.Put("/{id}/tasks/{taskID}", goalHandler.UpdateTask)
			r.Delete("/{id}/tasks/{taskID}", goalHandler.DeleteTask)
			r.Post("/{id}/tasks/{taskID}/complete", goalHandler.CompleteTask)
			r.Post("/{id}/tasks/{taskID}/uncomplete", goalHandler.UncompleteTask)
		})

		// ──── Dashboard Routes ────
		r.Route("/dashboard", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/stats", dashboardHandler.Stats)
			r.Get("/quota", dashboardHandler.Quota)
		})

		// ──── Analytics Routes ────
		r.Route("/analytics", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/status", analyticsHandler.Status)
			r.Post("/evaluate/coaching", analyticsHandler.EvaluateCoaching)
			r.Post("/evaluate/frustration", analyticsHandler.EvaluateFrustration)
			r.Get("/performance", analyticsHandler.Performance)
		})

		// ──── Agent Routes ────
		r.Route("/agents", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/info", agentHandler.Info)
			r.Post("/route", agentHandler.Route)
			r.Post("/intake", agentHandler.Intake)
			r.Post("/plan", agentHandler.Plan)
			r.Get("/daily", agentHandler.Daily)
			r.Post("/checkin", agentHandler.CheckIn)
			r.Get("/insights", agentHandler.Insights)
			r.Post("/motivation", agentHandler.Motivation)
			r.Post("/resources", agentHandler.Resources)
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
