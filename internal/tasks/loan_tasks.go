package tasks

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"sacco_app/internal/models"
	"sacco_app/internal/services"
)

// Task names recognized by the worker
const (
	TaskDefaultSweep  = "loan_default_sweep"
	TaskBackfillBatch = "loan_backfill_batch"
)

// DefaultSweepTaskDef runs the delinquency sweep over all active loans
type DefaultSweepTaskDef struct{}

// TaskID returns the unique identifier for this task
func (t *DefaultSweepTaskDef) TaskID() string {
	return TaskDefaultSweep
}

// HandleExecution marks past-due instalments and maintains LoanDefault
// records. An explicit "as_of" argument (RFC3339) overrides the run time,
// which keeps reruns over historical dates possible.
func (t *DefaultSweepTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	asOf := time.Now()
	if raw, ok := task.Arguments["as_of"].(string); ok && raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			log.Printf("[Task: %s] invalid as_of %q, using current time: %v", t.TaskID(), raw, err)
		} else {
			asOf = parsed
		}
	}

	summary, err := services.NewDefaultService(db).Sweep(asOf)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"status":            "success",
		"loans_checked":     summary.LoansChecked,
		"defaults_created":  summary.DefaultsCreated,
		"defaults_updated":  summary.DefaultsUpdated,
		"defaults_resolved": summary.DefaultsResolved,
	}, nil
}

// DefaultSweepTask is the singleton instance of DefaultSweepTaskDef
var DefaultSweepTask = &DefaultSweepTaskDef{}

// BackfillBatchTaskDef reconstructs schedules for loans that predate
// instalment tracking
type BackfillBatchTaskDef struct{}

// TaskID returns the unique identifier for this task
func (t *BackfillBatchTaskDef) TaskID() string {
	return TaskBackfillBatch
}

// HandleExecution finds disbursed loans without any instalments and runs the
// backfill reconciler once per loan. Loans that already have schedules are
// skipped by the reconciler's own guard, so rerunning the batch is safe.
func (t *BackfillBatchTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	var loans []models.Loan
	err := db.Preload("Product").
		Where("status IN ? AND id NOT IN (?)", models.RepayableStatuses,
			db.Model(&models.Instalment{}).Select("DISTINCT loan_id")).
		Find(&loans).Error
	if err != nil {
		return nil, err
	}

	backfills := services.NewBackfillService(db)
	asOf := time.Now()
	reconciled := 0
	failed := 0
	for i := range loans {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if _, err := backfills.Reconcile(loans[i].ID, &loans[i].Product, asOf); err != nil {
			log.Printf("[Task: %s] loan %d backfill failed: %v", t.TaskID(), loans[i].ID, err)
			failed++
			continue
		}
		reconciled++
	}

	return map[string]interface{}{
		"status":     "success",
		"candidates": len(loans),
		"reconciled": reconciled,
		"failed":     failed,
	}, nil
}

// BackfillBatchTask is the singleton instance of BackfillBatchTaskDef
var BackfillBatchTask = &BackfillBatchTaskDef{}
