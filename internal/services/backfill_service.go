package services

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"sacco_app/internal/models"
)

// ReplayLedger re-runs a loan's historical repayments, which must be ordered
// by payment date ascending, through the payment allocator against a freshly
// generated all-pending schedule. Afterwards every instalment already past due
// at asOf and still pending or partial is marked overdue, leaving the schedule
// in the state it would hold had it been tracked from day one.
func ReplayLedger(instalments []*models.Instalment, history []models.Repayment, asOf time.Time) {
	for _, payment := range history {
		AllocatePayment(instalments, payment.Amount)
	}
	for _, inst := range instalments {
		if !inst.DueDate.Before(asOf) {
			continue
		}
		if inst.Status == models.InstalmentPending || inst.Status == models.InstalmentPartial {
			inst.Status = models.InstalmentOverdue
		}
	}
}

// BackfillService retroactively constructs schedules for loans disbursed
// before instalment tracking existed.
type BackfillService struct {
	db *gorm.DB
}

func NewBackfillService(db *gorm.DB) *BackfillService {
	return &BackfillService{db: db}
}

// Reconcile generates the loan's schedule and replays its repayment ledger in
// original chronological order. Loans that already have instalments are left
// untouched, so repeated invocations are no-ops after the first success.
// Returns the instalments created, or nil when the guard skipped the loan.
func (s *BackfillService) Reconcile(loanID uint, product *models.LoanProduct, asOf time.Time) ([]models.Instalment, error) {
	var created []models.Instalment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.Instalment{}).Where("loan_id = ?", loanID).
			Count(&existing).Error; err != nil {
			return fmt.Errorf("failed to count instalments for loan %d: %w", loanID, err)
		}
		if existing > 0 {
			return nil
		}

		var loan models.Loan
		if err := tx.First(&loan, loanID).Error; err != nil {
			return fmt.Errorf("failed to fetch loan %d: %w", loanID, err)
		}
		if loan.Term <= 0 {
			return fmt.Errorf("loan %d has invalid term %d", loan.ID, loan.Term)
		}
		// without the historical anchor, due dates would start from today and
		// the replayed state could not match the ledger
		if loan.DisbursedAt == nil {
			return fmt.Errorf("loan %d has no disbursement date to anchor its schedule", loan.ID)
		}

		var history []models.Repayment
		if err := tx.Where("loan_id = ?", loan.ID).Order("paid_at asc").
			Find(&history).Error; err != nil {
			return fmt.Errorf("failed to fetch repayment history for loan %d: %w", loan.ID, err)
		}

		terms := ResolveProductTerms(product)
		rows := BuildSchedule(LoanScheduleInput(&loan), terms)
		ptrs := make([]*models.Instalment, len(rows))
		for i := range rows {
			rows[i].LoanID = loan.ID
			ptrs[i] = &rows[i]
		}
		ReplayLedger(ptrs, history, asOf)

		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to store backfilled schedule for loan %d: %w", loan.ID, err)
		}
		created = rows
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
