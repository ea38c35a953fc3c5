package tasks

import (
	"context"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"tripmate/internal/metrics"
	"tripmate/internal/models"
	"tripmate/internal/services"
)

const workerLockKey = "tripmate:worker:lock"

// Executor runs due scheduled tasks and records their history
type Executor struct {
	db       *gorm.DB
	deps     Deps
	registry *Registry

	lock    *services.RedisCache
	lockTTL time.Duration
}

func NewExecutor(db *gorm.DB, deps Deps, registry *Registry) *Executor {
	if deps.DB == nil {
		deps.DB = db
	}
	return &Executor{db: db, deps: deps, registry: registry}
}

// WithLock makes ProcessDue skip a tick while another worker holds the lock
func (x *Executor) WithLock(cache *services.RedisCache, ttl time.Duration) *Executor {
	x.lock = cache
	x.lockTTL = ttl
	return x
}

func (x *Executor) acquire(ctx context.Context) bool {
	if x.lock == nil {
		return true
	}
	ok, err := x.lock.SetNX(ctx, workerLockKey, time.Now().Unix(), x.lockTTL)
	if err != nil {
		slog.Warn("Worker lock unavailable, running anyway", "error", err)
		return true
	}
	return ok
}

// ProcessDue runs every active task whose due time has passed
func (x *Executor) ProcessDue(ctx context.Context) {
	if !x.acquire(ctx) {
		slog.Debug("Another worker holds the lock, skipping tick")
		return
	}

	var pendingTasks []models.ScheduledTask
	now := time.Now()
	if err := x.db.WithContext(ctx).
		Where("status = ? AND due <= ?", models.ScheduledTaskStatusActive, now).
		Order("due").
		Find(&pendingTasks).Error; err != nil {
		slog.Error("Error fetching pending tasks", "error", err)
		return
	}
	if len(pendingTasks) == 0 {
		return
	}

	slog.Info("Found pending tasks", "count", len(pendingTasks))
	for _, task := range pendingTasks {
		if ctx.Err() != nil {
			return
		}
		x.execute(ctx, task, 1)
	}
}

func (x *Executor) execute(ctx context.Context, task models.ScheduledTask, attempt int) {
	log := slog.With("task", task.TaskName, "id", task.ID, "attempt", attempt)

	handler, found := x.registry.Get(task.TaskName)
	if !found {
		log.Warn("Task handler not found, marking as failure")
		now := time.Now()
		x.db.WithContext(ctx).Model(&task).Updates(map[string]interface{}{
			"status":   models.ScheduledTaskStatusFailure,
			"last_run": &now,
		})
		x.db.WithContext(ctx).Create(&models.ScheduledTaskHistory{
			ScheduledTaskID: task.ID,
			TaskName:        task.TaskName,
			RunAt:           now,
			Status:          "handler_not_found",
			AttemptNumber:   attempt,
			Arguments:       task.Arguments,
			Result:          map[string]interface{}{"error": "Handler not found"},
		})
		metrics.TaskRuns.WithLabelValues(task.TaskName, "handler_not_found").Inc()
		return
	}

	startTime := time.Now()
	result, err := handler(ctx, x.deps, task)
	runtimeMs := int(time.Since(startTime).Milliseconds())

	status := "success"
	if err != nil {
		status = "failure"
		if result == nil {
			result = map[string]interface{}{}
		}
		result["error"] = err.Error()
		log.Error("Task failed", "error", err)
	} else {
		log.Info("Task completed", "runtime_ms", runtimeMs)
	}
	metrics.TaskRuns.WithLabelValues(task.TaskName, status).Inc()

	x.db.WithContext(ctx).Create(&models.ScheduledTaskHistory{
		ScheduledTaskID: task.ID,
		TaskName:        task.TaskName,
		RunAt:           startTime,
		Runtime:         runtimeMs,
		Status:          status,
		AttemptNumber:   attempt,
		Arguments:       task.Arguments,
		Result:          result,
	})

	if err != nil && attempt < task.MaxAttempt && ctx.Err() == nil {
		x.execute(ctx, task, attempt+1)
		return
	}
	x.db.WithContext(ctx).Model(&task).Updates(completionUpdates(task, err == nil, startTime))
}

// completionUpdates returns the columns to write once a task is finished with
func completionUpdates(task models.ScheduledTask, succeeded bool, ranAt time.Time) map[string]interface{} {
	updates := map[string]interface{}{
		"last_run": &ranAt,
	}
	if !succeeded && task.TaskType != models.ScheduledTaskTypeRecurring {
		updates["status"] = models.ScheduledTaskStatusFailure
		return updates
	}

	switch task.TaskType {
	case models.ScheduledTaskTypeRecurring:
		// a failed sweep still moves to its next slot
		nextDue := task.NextDue()
		if nextDue.After(task.Due) {
			updates["status"] = models.ScheduledTaskStatusActive
			updates["due"] = nextDue
		} else {
			updates["status"] = models.ScheduledTaskStatusDone
		}
	default:
		updates["status"] = models.ScheduledTaskStatusDone
	}
	return updates
}
