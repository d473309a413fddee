// Command habit-tracker выполняет разовые операции трекера привычек:
// регистрацию, управление привычками, отметки о выполнении и отчёты.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/magabrotheeeer/habit-tracker/internal/config"
	"github.com/magabrotheeeer/habit-tracker/internal/lib/sl"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("habit-tracker"),
		kong.Description("Трекер привычек: серии, процент успеха и отчёты о прогрессе."),
		kong.UsageOnError(),
	)

	cfg, err := config.Load(cli.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger := setupLogger(cfg.Env)
	logger.Debug("starting habit-tracker", slog.String("env", cfg.Env), slog.String("command", kctx.Command()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runCtx := &Context{
		Ctx:    ctx,
		Config: cfg,
		Logger: logger,
		Out:    os.Stdout,
	}
	err = kctx.Run(runCtx)
	if closeErr := runCtx.Close(); closeErr != nil {
		logger.Warn("failed to close app", sl.Err(closeErr))
	}
	if err != nil {
		logger.Error("command failed", sl.Err(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setupLogger пишет в stderr, чтобы вывод команд в stdout оставался чистым.
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envDev:
		log = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		log = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return log
}
