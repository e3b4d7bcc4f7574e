package cmd

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/noteghar/noteghar/internal/app"
	"github.com/noteghar/noteghar/internal/config"
	"github.com/noteghar/noteghar/internal/db"
	"github.com/noteghar/noteghar/internal/logger"
	"github.com/noteghar/noteghar/internal/model"
)

// systemActor stands in for the operator running the CLI. Role checks in
// the services still apply; the CLI simply holds every capability.
var systemActor = &model.User{
	ID:          "system",
	Username:    "cli",
	Role:        model.RoleAdmin,
	IsSuperuser: true,
}

func loadConfig() *config.Config {
	cfg := config.Load()
	logger.Init(cfg.IsDevelopment(), cfg.SentryDSN, cfg.LogFile)
	return cfg
}

// withApp builds the full application, migrations included, and closes it
// after fn returns.
func withApp(ctx context.Context, fn func(*app.App) error) error {
	a, err := app.New(ctx, loadConfig())
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close()
	}()
	return fn(a)
}

// withDB opens the database without migrating it.
func withDB(fn func(database *sqlx.DB, driver string) error) error {
	cfg := loadConfig()
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		_ = db.Close(database)
	}()
	return fn(database, cfg.DBDriver)
}
