package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/noteghar/noteghar/internal/app"
	"github.com/noteghar/noteghar/internal/handler"
	"github.com/noteghar/noteghar/internal/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes builds the API handler. Background work owned by the
// middleware stops when ctx is done.
func SetupRoutes(ctx context.Context, app *app.App) http.Handler {
	// Handlers
	auth := handler.NewAuthHandler(app.AuthService)
	catalog := handler.NewCatalogHandler(app.CatalogService)
	notes := handler.NewNoteHandler(app.NoteService, app.ModerationService, app.Cfg.UploadMaxBytes)
	moderation := handler.NewModerationHandler(app.NoteService, app.ModerationService)
	stats := handler.NewStatsHandler(app.StatsService)

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	mux.HandleFunc("GET /healthz", handler.Health)
	if app.Registry != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(app.Registry, promhttp.HandlerOpts{}))
	}

	// Auth (rate limited)
	authLimit := middleware.RateLimit(middleware.NewRateLimiter(ctx, 5, 15*time.Minute))
	mux.HandleFunc("POST /api/auth/register", authLimit(auth.Register))
	mux.HandleFunc("POST /api/auth/login", authLimit(auth.Login))
	mux.HandleFunc("POST /api/auth/logout", auth.Logout)

	// Catalog
	mux.HandleFunc("GET /api/courses", catalog.Courses)
	mux.HandleFunc("GET /api/semesters", catalog.Semesters)
	mux.HandleFunc("GET /api/subjects", catalog.Subjects)

	// Browsing
	mux.HandleFunc("GET /api/notes", notes.Search)
	mux.HandleFunc("GET /api/notes/{id}", notes.Get)
	mux.HandleFunc("GET /api/notes/{id}/ratings", notes.Ratings)
	mux.HandleFunc("GET /api/stats", stats.Public)

	// ============================================================================
	// AUTHENTICATED ROUTES
	// ============================================================================

	writeLimit := middleware.RateLimit(middleware.NewRateLimiter(ctx, 30, time.Hour))

	mux.HandleFunc("GET /api/me", middleware.RequireAuth(auth.Me))
	mux.HandleFunc("GET /api/me/notes", middleware.RequireAuth(notes.MyNotes))
	mux.HandleFunc("GET /api/me/dashboard", middleware.RequireAuth(stats.UserDashboard))

	mux.HandleFunc("POST /api/notes", middleware.RequireAuth(writeLimit(notes.Upload)))
	mux.HandleFunc("DELETE /api/notes/{id}", middleware.RequireAuth(notes.Delete))
	mux.HandleFunc("GET /api/notes/{id}/download", middleware.RequireAuth(notes.Download))
	mux.HandleFunc("POST /api/notes/{id}/ratings", middleware.RequireAuth(notes.Rate))
	mux.HandleFunc("POST /api/notes/{id}/reports", middleware.RequireAuth(writeLimit(notes.Report)))
	mux.HandleFunc("POST /api/ratings/{id}/helpful", middleware.RequireAuth(notes.MarkHelpful))
	mux.HandleFunc("DELETE /api/ratings/{id}/helpful", middleware.RequireAuth(notes.UnmarkHelpful))

	// Moderation (role checks live in the services)
	mux.HandleFunc("GET /api/moderation/dashboard", middleware.RequireAuth(stats.ModeratorDashboard))
	mux.HandleFunc("GET /api/moderation/notes", middleware.RequireAuth(moderation.PendingNotes))
	mux.HandleFunc("POST /api/moderation/notes/{id}/approve", middleware.RequireAuth(moderation.Approve))
	mux.HandleFunc("POST /api/moderation/notes/{id}/reject", middleware.RequireAuth(moderation.Reject))
	mux.HandleFunc("GET /api/moderation/reports", middleware.RequireAuth(moderation.PendingReports))
	mux.HandleFunc("POST /api/moderation/reports/{id}/resolve", middleware.RequireAuth(moderation.Resolve))
	mux.HandleFunc("POST /api/moderation/reports/{id}/dismiss", middleware.RequireAuth(moderation.Dismiss))
	mux.HandleFunc("POST /api/moderation/warnings", middleware.RequireAuth(moderation.Warn))
	mux.HandleFunc("GET /api/moderation/history", middleware.RequireAuth(moderation.History))

	// Catalog administration
	mux.HandleFunc("POST /api/courses", middleware.RequireAuth(catalog.CreateCourse))
	mux.HandleFunc("POST /api/semesters", middleware.RequireAuth(catalog.CreateSemester))
	mux.HandleFunc("POST /api/subjects", middleware.RequireAuth(catalog.CreateSubject))

	// ============================================================================
	// FALLBACK
	// ============================================================================

	mux.HandleFunc("/", handler.NotFound)

	// Global middleware - executed in order (top to bottom)
	return middleware.Chain(
		mux,
		middleware.Config(app.Cfg), // Config must be first (CSRF reads APP_ENV)
		middleware.RealIP(app.Cfg.TrustedProxies),
		middleware.RequestLogging,
		middleware.CSRFProtection,
		middleware.Auth(app.AuthService),
	)
}
