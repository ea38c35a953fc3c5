package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tripmate/internal/app"
	"tripmate/internal/config"
	"tripmate/internal/services"
	"tripmate/internal/tasks"
	"tripmate/pkg/logging"
)

func main() {
	cfg := config.Load()
	logging.Setup()

	// Create context that cancels on interrupt
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		slog.Error("Failed to start worker", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	if a.DB == nil {
		slog.Error("DATABASE_URL not set, the worker needs the task tables")
		os.Exit(1)
	}

	// Initialize Task Registry
	tasks.DefineTasks()
	created, err := tasks.EnsureRecurring(a.DB, tasks.CascadeRepairTask.TaskID(),
		tasks.CascadeRepairArgs{}, tasks.CascadeRepairRule, 1)
	if err != nil {
		slog.Error("Failed to schedule cascade repair", "error", err)
	} else if created {
		slog.Info("Scheduled recurring cascade repair", "rule", tasks.CascadeRepairRule)
	}

	deps := tasks.Deps{
		DB:     a.DB,
		Trips:  a.Trips,
		Mailer: services.NewEmailService(cfg.SMTP),
	}
	executor := tasks.NewExecutor(a.DB, deps, tasks.GlobalRegistry)
	if a.Cache != nil {
		executor.WithLock(a.Cache, cfg.WorkerInterval)
	}

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	slog.Info("Worker started", "interval", cfg.WorkerInterval)
	executor.ProcessDue(ctx)

	for {
		select {
		case <-ticker.C:
			executor.ProcessDue(ctx)
		case <-ctx.Done():
			slog.Info("Shutting down worker...")
			return
		}
	}
}
