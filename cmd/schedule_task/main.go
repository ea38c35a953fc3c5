package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"tripmate/internal/config"
	"tripmate/internal/models"
	"tripmate/internal/services"
	"tripmate/internal/tasks"
	"tripmate/pkg/logging"
)

func fatal(msg string, args ...any) {
	slog.Error(msg, args...)
	os.Exit(1)
}

func main() {
	taskName := flag.String("task_name", "", "Name of the task (mandatory)")
	argsStr := flag.String("arguments", "{}", "JSON arguments for the task")
	dueStr := flag.String("due", "", "Due date (mandatory, format: 2006-01-02 15:04 or RFC3339)")
	taskType := flag.String("tasktype", string(models.ScheduledTaskTypeOneTime), "Task type: onetime or recurring")
	recurring := flag.String("recurring", "", "RRULE for recurring tasks, e.g. FREQ=DAILY;BYHOUR=9")
	maxAttempt := flag.Int("max_attempt", 3, "Max attempts")

	flag.Parse()

	if *taskName == "" || *dueStr == "" {
		fmt.Println("Usage: schedule_task -task_name <name> -due <YYYY-MM-DD HH:MM> [-arguments <json_args>] [options]")
		fmt.Println("Example: schedule_task -task_name settlement_reminder -arguments '{\"trip_id\":\"abc\"}' -due '2026-01-14 09:00'")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg := config.Load()
	logging.Setup()

	tasks.DefineTasks()
	if _, ok := tasks.GetHandler(*taskName); !ok {
		fatal("Unknown task", "task_name", *taskName)
	}

	var args map[string]interface{}
	if err := json.Unmarshal([]byte(*argsStr), &args); err != nil {
		fatal("Invalid JSON arguments", "error", err)
	}

	due, err := time.Parse(time.RFC3339, *dueStr)
	if err != nil {
		due, err = time.ParseInLocation("2006-01-02 15:04", *dueStr, time.Local)
		if err != nil {
			fatal("Invalid due date format. Use '2006-01-02 15:04' (local) or RFC3339", "error", err)
		}
	}

	var recurringPtr *string
	if *recurring != "" {
		recurringPtr = recurring
	}
	kind := models.ScheduledTaskType(*taskType)
	if kind != models.ScheduledTaskTypeOneTime && kind != models.ScheduledTaskTypeRecurring {
		fatal("Invalid task type", "tasktype", *taskType)
	}
	if kind == models.ScheduledTaskTypeRecurring && recurringPtr == nil {
		fatal("Recurring tasks need -recurring")
	}

	if cfg.DatabaseURL == "" {
		fatal("DATABASE_URL is not set")
	}
	db, err := services.InitDB(cfg.DatabaseURL)
	if err != nil {
		fatal("Failed to connect DB", "error", err)
	}

	task, err := tasks.BuildScheduledTask(*taskName, args, due, recurringPtr, kind, *maxAttempt)
	if err != nil {
		fatal("Failed to build task", "error", err)
	}
	if err := db.Create(task).Error; err != nil {
		fatal("Failed to create task", "error", err)
	}

	fmt.Printf("Successfully created task ID: %d\n", task.ID)
	fmt.Printf("Task: %s\nDue: %s\nType: %s\n", task.TaskName, task.Due, task.TaskType)
}
