package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/cellar-backend/pkg/config"
	"github.com/angelmondragon/cellar-backend/pkg/db"
	"github.com/angelmondragon/cellar-backend/pkg/logger"
	"github.com/angelmondragon/cellar-backend/pkg/migrate"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "migrate"})

	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "migration command: up|down|status|version|create|validate")
	dir := flag.String("dir", "", "goose migrations directory (defaults to the embedded set)")
	name := flag.String("name", "", "migration name (for create)")
	version := flag.String("version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()

	ctx := logg.WithField(context.Background(), "cmd", *cmd)

	switch *cmd {
	case "create":
		target := *dir
		if target == "" {
			target = migrate.DefaultDir
		}
		path, err := migrate.CreateSQLMigration(target, *name)
		exitOn(ctx, logg, "create migration", err)
		fmt.Println("created migration:", path)
		return

	case "validate":
		var err error
		if *dir == "" {
			err = migrate.ValidateEmbedded()
		} else {
			err = migrate.ValidateDir(*dir)
		}
		exitOn(ctx, logg, "validate migrations", err)
		fmt.Println("migration validation passed")
		return
	}

	cfg, err := config.Load()
	exitOn(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithFields(context.Background(), map[string]any{
		"env": cfg.App.Env,
		"cmd": *cmd,
		"dir": *dir,
	})

	if cfg.FeatureFlags.UseSQLite {
		exitOn(ctx, logg, "driver", fmt.Errorf("goose migrations target postgres; sqlite schemas come from auto-migrate"))
	}

	dbClient, err := db.New(ctx, cfg.DB, false, logg)
	exitOn(ctx, logg, "database", err)
	defer dbClient.Close()

	sqlDB, err := dbClient.DB().DB()
	exitOn(ctx, logg, "sql database", err)

	logg.Info(ctx, "migrate ready")

	switch *cmd {
	case "up", "down", "status":
		exitOn(ctx, logg, "goose "+*cmd, runCommand(ctx, sqlDB, *dir, *cmd))

	case "version":
		if *version == "" {
			exitOn(ctx, logg, "version", fmt.Errorf("missing -version for version command"))
		}
		target := *dir
		if target == "" {
			target = migrate.DefaultDir
		}
		exitOn(ctx, logg, "goose version", migrate.MigrateToVersion(ctx, sqlDB, target, *version))

	default:
		exitOn(ctx, logg, "command", fmt.Errorf("unknown -cmd value: %s", *cmd))
	}
}

func runCommand(ctx context.Context, sqlDB *sql.DB, dir, command string) error {
	if dir == "" {
		return migrate.RunEmbedded(ctx, sqlDB, command)
	}
	return migrate.Run(ctx, sqlDB, dir, command)
}

func exitOn(ctx context.Context, logg *logger.Logger, step string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("migrate failed: %s", step), err)
	os.Exit(1)
}
