package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"restoran-backend/internal/config"
	"restoran-backend/internal/database"
	"restoran-backend/internal/logger"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "migrate"})

	cmd := flag.String("cmd", "up", "migration command: up|down|status|version|redo|reset")
	version := flag.String("version", "", "target version for up-to/down-to")
	flag.Parse()

	cfg, err := config.LoadDB()
	requireResource(ctx, logg, "config", err)

	ctx = logg.WithField(ctx, "cmd", *cmd)

	client, err := database.Open(cfg)
	requireResource(ctx, logg, "database", err)
	defer client.Close()

	sqlDB, err := client.SQL()
	requireResource(ctx, logg, "sql database", err)

	var args []string
	switch *cmd {
	case "up-to", "down-to":
		if *version == "" {
			fmt.Fprintf(os.Stderr, "missing -version for %s\n", *cmd)
			os.Exit(1)
		}
		args = append(args, *version)
	}

	if err := database.Migrate(ctx, sqlDB, *cmd, args...); err != nil {
		logg.Error(ctx, "migrate.failed", err)
		os.Exit(1)
	}
	logg.Info(ctx, "migrate.done")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
