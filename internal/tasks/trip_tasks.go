package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"tripmate/internal/models"
	"tripmate/internal/services"
)

// CascadeRepairRule runs the repair sweep every five minutes
const CascadeRepairRule = "FREQ=MINUTELY;INTERVAL=5"

const defaultRepairLimit = 100

// CascadeRepairArgs defines the arguments for a cascade repair sweep
type CascadeRepairArgs struct {
	Limit int `json:"limit"`
}

// CascadeRepairTaskDef replays group cascades that were only partially written
type CascadeRepairTaskDef struct{}

func (t *CascadeRepairTaskDef) TaskID() string {
	return "cascade_repair"
}

// CreateTask builds the recurring sweep
func (t *CascadeRepairTaskDef) CreateTask(limit int) (*models.ScheduledTask, error) {
	rule := CascadeRepairRule
	return BuildScheduledTask(t.TaskID(), CascadeRepairArgs{Limit: limit}, time.Now(), &rule, models.ScheduledTaskTypeRecurring, 1)
}

func (t *CascadeRepairTaskDef) HandleExecution(ctx context.Context, deps Deps, task models.ScheduledTask) (map[string]interface{}, error) {
	if deps.Trips == nil {
		return nil, errors.New("trip service not available")
	}
	var args CascadeRepairArgs
	if err := decodeArgs(task.Arguments, &args); err != nil {
		return nil, err
	}
	if args.Limit <= 0 {
		args.Limit = defaultRepairLimit
	}

	repaired, err := deps.Trips.RepairCascades(ctx, args.Limit)
	result := map[string]interface{}{"repaired": repaired}
	if err != nil {
		return result, fmt.Errorf("cascade repair: %w", err)
	}
	if repaired > 0 {
		slog.InfoContext(ctx, "Repaired group cascades", "count", repaired)
	}
	return result, nil
}

// CascadeRepairTask is the singleton instance of CascadeRepairTaskDef
var CascadeRepairTask = &CascadeRepairTaskDef{}

// SettlementReminderArgs defines the arguments for a settlement reminder.
// Recipients narrows a retry to the participants that failed last time.
type SettlementReminderArgs struct {
	TripID       string   `json:"trip_id"`
	Recipients   []string `json:"recipients,omitempty"`
	AttemptCount int      `json:"attempt_count"`
}

// SettlementReminderTaskDef emails every participant who still owes money
type SettlementReminderTaskDef struct{}

func (t *SettlementReminderTaskDef) TaskID() string {
	return "settlement_reminder"
}

// CreateTask builds a reminder for tripID. A non-empty rule makes it recurring.
func (t *SettlementReminderTaskDef) CreateTask(tripID string, due time.Time, rule string) (*models.ScheduledTask, error) {
	if rule == "" {
		return BuildScheduledTask(t.TaskID(), SettlementReminderArgs{TripID: tripID}, due, nil, models.ScheduledTaskTypeOneTime, 3)
	}
	return BuildScheduledTask(t.TaskID(), SettlementReminderArgs{TripID: tripID}, due, &rule, models.ScheduledTaskTypeRecurring, 3)
}

// ReminderBody renders the reminder email for one participant
func ReminderBody(trip models.Trip, r services.Reminder) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s님, '%s' 여행에서 아직 정산하지 않은 금액이 있어요.\n\n", r.Participant.DisplayName, trip.Name)
	total := 0.0
	for _, owed := range r.Owed {
		fmt.Fprintf(&b, "- %s님에게 ₩%s\n", owed.Receiver, formatWon(owed.Amount))
		total += owed.Amount
	}
	fmt.Fprintf(&b, "\n합계: ₩%s\n", formatWon(total))
	return b.String()
}

// formatWon rounds to whole won and groups thousands
func formatWon(amount float64) string {
	n := int64(amount + 0.5)
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	s := fmt.Sprintf("%d", n)
	var out []byte
	for i := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, s[i])
	}
	return sign + string(out)
}

func (t *SettlementReminderTaskDef) HandleExecution(ctx context.Context, deps Deps, task models.ScheduledTask) (map[string]interface{}, error) {
	if deps.Trips == nil || deps.Mailer == nil {
		return nil, errors.New("trip service or mailer not available")
	}
	var args SettlementReminderArgs
	if err := decodeArgs(task.Arguments, &args); err != nil {
		return nil, err
	}
	if args.TripID == "" {
		return nil, errors.New("trip_id not provided")
	}

	trip, reminders, err := deps.Trips.Reminders(ctx, args.TripID)
	if err != nil {
		return nil, fmt.Errorf("failed to build reminders: %w", err)
	}

	only := make(map[string]bool, len(args.Recipients))
	for _, uid := range args.Recipients {
		only[uid] = true
	}

	subject := fmt.Sprintf("[%s] 정산 알림", trip.Name)
	successCount, skippedCount := 0, 0
	var failures []string
	var failedUIDs []string
	for _, r := range reminders {
		if len(only) > 0 && !only[r.Participant.UID] {
			continue
		}
		if r.Email == "" {
			slog.InfoContext(ctx, "Skipping reminder without email", "trip", trip.ID, "uid", r.Participant.UID)
			skippedCount++
			continue
		}
		if err := deps.Mailer.SendEmail([]string{r.Email}, subject, ReminderBody(trip, r)); err != nil {
			slog.WarnContext(ctx, "Failed to send reminder", "trip", trip.ID, "uid", r.Participant.UID, "error", err)
			failures = append(failures, fmt.Sprintf("%s: %v", r.Participant.UID, err))
			failedUIDs = append(failedUIDs, r.Participant.UID)
			continue
		}
		successCount++
	}

	result := map[string]interface{}{
		"total":   len(reminders),
		"success": successCount,
		"skipped": skippedCount,
		"failure": len(failures),
	}
	if len(failures) == 0 {
		return result, nil
	}
	result["errors"] = failures

	if args.AttemptCount+1 >= task.MaxAttempt || deps.DB == nil {
		return result, fmt.Errorf("failed to deliver %d reminders", len(failures))
	}

	retry := args
	retry.Recipients = failedUIDs
	retry.AttemptCount++
	next, err := BuildScheduledTask(t.TaskID(), retry, time.Now().Add(5*time.Minute), nil, models.ScheduledTaskTypeOneTime, task.MaxAttempt)
	if err != nil {
		return result, err
	}
	if err := deps.DB.WithContext(ctx).Create(next).Error; err != nil {
		return result, fmt.Errorf("failed to schedule reminder retry: %w", err)
	}
	slog.InfoContext(ctx, "Rescheduled failed reminders", "trip", trip.ID, "count", len(failedUIDs), "attempt", retry.AttemptCount)
	result["retry_task_id"] = next.ID
	return result, nil
}

// SettlementReminderTask is the singleton instance of SettlementReminderTaskDef
var SettlementReminderTask = &SettlementReminderTaskDef{}
