package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/noteghar/noteghar/internal/config"
	"github.com/noteghar/noteghar/internal/db"
	"github.com/noteghar/noteghar/internal/metrics"
	"github.com/noteghar/noteghar/internal/policy"
	"github.com/noteghar/noteghar/internal/repository"
	"github.com/noteghar/noteghar/internal/service"
	"github.com/noteghar/noteghar/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type App struct {
	Cfg               *config.Config
	DB                *sqlx.DB
	Store             *repository.Store
	Registry          *prometheus.Registry // Nil when metrics are disabled
	AuthService       *service.AuthService
	UserService       *service.UserService
	EmailService      *service.EmailService
	FileService       *service.FileService
	CatalogService    *service.CatalogService
	NoteService       *service.NoteService
	ModerationService *service.ModerationService
	StatsService      *service.StatsService
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Run database migrations
	err = db.RunMigrations(ctx, database.DB, cfg.DBDriver)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Storage
	fileStorage, err := storage.New(ctx, cfg)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Metrics
	var registry *prometheus.Registry
	var lifecycle *metrics.Lifecycle
	if cfg.MetricsEnabled {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		lifecycle, err = metrics.NewLifecycle(registry)
		if err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
	}

	store := repository.NewStore(database)
	pol := policy.New()

	// Services
	emailService := service.NewEmailService(
		cfg.ResendAPIKey,
		cfg.EmailFrom,
		cfg.AppURL,
		cfg.AppName,
		cfg.IsDevelopment(),
	)
	fileService := service.NewFileService(fileStorage, cfg.UploadMaxBytes)
	authService := service.NewAuthService(
		store.Users,
		emailService,
		cfg.JWTSecret,
		cfg.IsProduction(),
		cfg.JWTExpiry,
	)

	return &App{
		Cfg:               cfg,
		DB:                database,
		Store:             store,
		Registry:          registry,
		AuthService:       authService,
		UserService:       service.NewUserService(store.Users, authService),
		EmailService:      emailService,
		FileService:       fileService,
		CatalogService:    service.NewCatalogService(store.Catalog, pol),
		NoteService:       service.NewNoteService(store, fileService, pol, emailService, lifecycle),
		ModerationService: service.NewModerationService(store, pol, emailService, lifecycle, cfg.HistoryLimit),
		StatsService:      service.NewStatsService(store, pol, cfg.StalePendingAfter, cfg.TopContributorsLimit),
	}, nil
}

func (a *App) Close() error {
	if a.DB != nil {
		return db.Close(a.DB)
	}
	return nil
}
