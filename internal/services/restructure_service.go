package services

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"sacco_app/internal/models"
)

// PlanRestructure splits a loan's current schedule into the settled rows that
// must survive untouched and a freshly generated pending tail covering the
// remaining principal, interest, and term. Settled means paid or partial; the
// unpaid slice of a partial instalment stays owed on that row, so remaining
// amounts are computed from the settled rows' expected figures and the total
// expected across old and new rows keeps summing to the loan amount.
//
// A nil tail with a non-empty settled set means the loan is effectively
// settled and there is nothing to regenerate. Running this twice with the same
// parameters is a no-op on settled data and reproduces the same tail.
func PlanRestructure(loan *models.Loan, terms ProductTerms, instalments []models.Instalment) (settled []models.Instalment, tail []models.Instalment) {
	settledPrincipal := decimal.Zero
	settledInterest := decimal.Zero
	for i := range instalments {
		inst := instalments[i]
		if inst.IsSettled() {
			settled = append(settled, inst)
			settledPrincipal = settledPrincipal.Add(inst.ExpectedPrincipal)
			settledInterest = settledInterest.Add(inst.ExpectedInterest)
		}
	}

	remainingTerm := loan.Term - len(settled)
	if remainingTerm <= 0 {
		return settled, nil
	}

	anchor := time.Time{}
	if loan.DisbursedAt != nil {
		anchor = *loan.DisbursedAt
	}
	for i := range settled {
		if settled[i].DueDate.After(anchor) {
			anchor = settled[i].DueDate
		}
	}

	tail = BuildSchedule(ScheduleInput{
		Principal:       loan.Amount.Sub(settledPrincipal),
		TotalInterest:   loan.TotalInterest.Sub(settledInterest),
		Term:            remainingTerm,
		Payment:         loan.MonthlyInstalment,
		Rate:            loan.InterestRate,
		InterestUpfront: loan.InterestUpfront,
		Anchor:          anchor,
	}, terms)

	for i := range tail {
		tail[i].LoanID = loan.ID
		tail[i].Sequence = len(settled) + i + 1
	}
	return settled, tail
}

// RestructureService regenerates the unsettled portion of a loan's schedule
// after its terms changed mid-life. Validation of the new terms is the
// restructuring workflow's job; this only computes the consequences.
type RestructureService struct {
	db *gorm.DB
}

func NewRestructureService(db *gorm.DB) *RestructureService {
	return &RestructureService{db: db}
}

// Regenerate deletes the loan's pending and overdue instalments and replaces
// them with a schedule over the remaining principal/interest/term, anchored
// after the last settled instalment's due date. Settled instalments are never
// altered. Returns the new pending tail.
func (s *RestructureService) Regenerate(loanID uint, product *models.LoanProduct) ([]models.Instalment, error) {
	var tail []models.Instalment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var loan models.Loan
		if err := tx.First(&loan, loanID).Error; err != nil {
			return fmt.Errorf("failed to fetch loan %d: %w", loanID, err)
		}

		var instalments []models.Instalment
		if err := tx.Where("loan_id = ?", loan.ID).Order("sequence asc").
			Find(&instalments).Error; err != nil {
			return fmt.Errorf("failed to fetch instalments for loan %d: %w", loan.ID, err)
		}

		if err := tx.Where("loan_id = ? AND status IN ?", loan.ID,
			[]models.InstalmentStatus{models.InstalmentPending, models.InstalmentOverdue}).
			Delete(&models.Instalment{}).Error; err != nil {
			return fmt.Errorf("failed to delete pending instalments for loan %d: %w", loan.ID, err)
		}

		terms := ResolveProductTerms(product)
		_, tail = PlanRestructure(&loan, terms, instalments)
		if len(tail) == 0 {
			return nil
		}

		if err := tx.Create(&tail).Error; err != nil {
			return fmt.Errorf("failed to store regenerated schedule for loan %d: %w", loan.ID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tail, nil
}
