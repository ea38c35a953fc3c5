package tasks

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"tripmate/internal/models"
)

// BuildScheduledTask is a helper to build ScheduledTask records generically
func BuildScheduledTask(taskName string, args interface{}, due time.Time, recurringInterval *string, taskType models.ScheduledTaskType, maxAttempt int) (*models.ScheduledTask, error) {
	mapArgs, err := toArgs(args)
	if err != nil {
		return nil, err
	}

	return &models.ScheduledTask{
		TaskName:          taskName,
		Arguments:         mapArgs,
		Due:               due,
		RecurringInterval: recurringInterval,
		Status:            models.ScheduledTaskStatusActive,
		TaskType:          taskType,
		MaxAttempt:        maxAttempt,
	}, nil
}

func toArgs(args interface{}) (map[string]interface{}, error) {
	argsBytes, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal args: %w", err)
	}

	var mapArgs map[string]interface{}
	if err := json.Unmarshal(argsBytes, &mapArgs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal into map: %w", err)
	}
	if mapArgs == nil {
		mapArgs = map[string]interface{}{}
	}
	return mapArgs, nil
}

// decodeArgs converts a task's stored arguments into a typed struct
func decodeArgs(args map[string]interface{}, dest interface{}) error {
	argsBytes, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("failed to marshal args: %w", err)
	}
	if err := json.Unmarshal(argsBytes, dest); err != nil {
		return fmt.Errorf("failed to unmarshal args: %w", err)
	}
	return nil
}

// EnsureRecurring creates an active recurring task named taskName unless one
// already exists. It returns true when a task was created.
func EnsureRecurring(db *gorm.DB, taskName string, args interface{}, rule string, maxAttempt int) (bool, error) {
	var existing models.ScheduledTask
	err := db.Where("task_name = ? AND status = ? AND task_type = ?",
		taskName, models.ScheduledTaskStatusActive, models.ScheduledTaskTypeRecurring).
		First(&existing).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("failed to look up %s: %w", taskName, err)
	}

	task, err := BuildScheduledTask(taskName, args, time.Now(), &rule, models.ScheduledTaskTypeRecurring, maxAttempt)
	if err != nil {
		return false, err
	}
	if err := db.Create(task).Error; err != nil {
		return false, fmt.Errorf("failed to create %s: %w", taskName, err)
	}
	return true, nil
}
