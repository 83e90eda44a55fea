package tasks

import (
	"encoding/json"
	"fmt"
	"time"

	"sacco_app/internal/models"
)

// NewScheduledTask assembles a task row ready to enqueue. Arguments are
// round-tripped through JSON so callers can pass structs or maps alike; the
// handler sees the map form. MaxAttempt defaults to 3 when unset.
func NewScheduledTask(taskName string, args interface{}, due time.Time, recurringInterval *string, taskType models.ScheduledTaskType, maxAttempt int) (*models.ScheduledTask, error) {
	switch taskType {
	case models.ScheduledTaskTypeOneTime, models.ScheduledTaskTypeRecurring:
	default:
		return nil, fmt.Errorf("unknown task type %q", taskType)
	}
	if maxAttempt <= 0 {
		maxAttempt = 3
	}

	argsBytes, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal arguments: %w", err)
	}
	var mapArgs map[string]interface{}
	if err := json.Unmarshal(argsBytes, &mapArgs); err != nil {
		return nil, fmt.Errorf("arguments must encode to a JSON object: %w", err)
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
