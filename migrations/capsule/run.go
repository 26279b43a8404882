package main

import (
	"embed"
	"log/slog"
	"os"

	"github.com/ghuser/timecapsule/pkg/config"
	"github.com/ghuser/timecapsule/pkg/migrator"
)

//go:embed *.sql
var MigrationsFS embed.FS

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	version, err := migrator.RunMigrations(cfg.DefinitionDatabaseURL, MigrationsFS)
	if err != nil {
		slog.Error("capsule migrations failed", "error", err)
		os.Exit(1)
	}
	slog.Info("capsule migrations applied", "version", version)
}
