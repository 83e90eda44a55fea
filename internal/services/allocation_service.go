package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"sacco_app/internal/models"
)

// AllocationResult is the breakdown of how a payment was distributed.
// Amount always equals Principal+Interest+Penalty+Insurance+Overpaid.
type AllocationResult struct {
	Principal decimal.Decimal `json:"principal"`
	Interest  decimal.Decimal `json:"interest"`
	Penalty   decimal.Decimal `json:"penalty"`
	Insurance decimal.Decimal `json:"insurance"`
	Overpaid  decimal.Decimal `json:"overpaid"`
}

// Total is the amount actually applied to obligations, excluding overpayment
func (r AllocationResult) Total() decimal.Decimal {
	return r.Principal.Add(r.Interest).Add(r.Penalty).Add(r.Insurance)
}

// AllocatePayment distributes amount across the given instalments, which must
// be the loan's unpaid instalments ordered by sequence ascending. Within each
// instalment the waterfall is penalty, then interest, then principal, then
// insurance; each step applies min(remaining, shortfall), so no component is
// ever pushed past its expected amount. Instalment paid fields and statuses
// are mutated in place. Whatever cannot be applied to any obligation comes
// back as Overpaid.
func AllocatePayment(instalments []*models.Instalment, amount decimal.Decimal) AllocationResult {
	res := AllocationResult{
		Principal: decimal.Zero,
		Interest:  decimal.Zero,
		Penalty:   decimal.Zero,
		Insurance: decimal.Zero,
	}

	remaining := amount
	for _, inst := range instalments {
		if !remaining.IsPositive() {
			break
		}

		res.Penalty = res.Penalty.Add(applyShortfall(&inst.PaidPenalty, inst.ExpectedPenalty, &remaining))
		res.Interest = res.Interest.Add(applyShortfall(&inst.PaidInterest, inst.ExpectedInterest, &remaining))
		res.Principal = res.Principal.Add(applyShortfall(&inst.PaidPrincipal, inst.ExpectedPrincipal, &remaining))
		res.Insurance = res.Insurance.Add(applyShortfall(&inst.PaidInsurance, inst.ExpectedInsurance, &remaining))

		if inst.TotalPaid().GreaterThanOrEqual(inst.TotalExpected()) {
			inst.Status = models.InstalmentPaid
		} else if inst.TotalPaid().IsPositive() && inst.Status == models.InstalmentPending {
			inst.Status = models.InstalmentPartial
		}
	}

	res.Overpaid = remaining
	return res
}

// applyShortfall moves min(remaining, expected-paid) into paid and returns it
func applyShortfall(paid *decimal.Decimal, expected decimal.Decimal, remaining *decimal.Decimal) decimal.Decimal {
	shortfall := expected.Sub(*paid)
	if !shortfall.IsPositive() || !remaining.IsPositive() {
		return decimal.Zero
	}
	step := decimal.Min(*remaining, shortfall)
	*paid = paid.Add(step)
	*remaining = remaining.Sub(step)
	return step
}

// AllocationService applies payments to loans inside a transaction
type AllocationService struct {
	db *gorm.DB
}

func NewAllocationService(db *gorm.DB) *AllocationService {
	return &AllocationService{db: db}
}

// Repay validates and applies a single payment against a loan, persisting the
// instalment mutations, a Repayment record, and the loan's running totals in
// one transaction. The caller is responsible for crediting any overpayment
// elsewhere and for posting ledger entries from the returned breakdown.
func (s *AllocationService) Repay(loanID uint, amount decimal.Decimal, method models.RepaymentMethod, reference string, paidAt time.Time) (*models.Repayment, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("payment amount must be positive, got %s", amount)
	}
	if reference == "" {
		reference = uuid.New().String()
	}
	if method == "" {
		method = models.RepaymentMethodCash
	}
	if paidAt.IsZero() {
		paidAt = time.Now()
	}

	var repayment *models.Repayment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var loan models.Loan
		if err := tx.First(&loan, loanID).Error; err != nil {
			return fmt.Errorf("failed to fetch loan %d: %w", loanID, err)
		}
		if !loan.IsRepayable() {
			return fmt.Errorf("loan %d is not repayable in status %s", loan.ID, loan.Status)
		}

		var unpaid []models.Instalment
		if err := tx.Where("loan_id = ? AND status <> ?", loan.ID, models.InstalmentPaid).
			Order("sequence asc").Find(&unpaid).Error; err != nil {
			return fmt.Errorf("failed to fetch instalments for loan %d: %w", loan.ID, err)
		}

		ptrs := make([]*models.Instalment, len(unpaid))
		for i := range unpaid {
			ptrs[i] = &unpaid[i]
		}
		res := AllocatePayment(ptrs, amount)

		for i := range unpaid {
			if err := tx.Save(&unpaid[i]).Error; err != nil {
				return fmt.Errorf("failed to update instalment %d: %w", unpaid[i].ID, err)
			}
		}

		loan.TotalRepaid = loan.TotalRepaid.Add(res.Total())
		loan.Balance = loan.Balance.Sub(res.Total())
		if !loan.Balance.IsPositive() {
			loan.Status = models.LoanStatusCompleted
		}
		if err := tx.Save(&loan).Error; err != nil {
			return fmt.Errorf("failed to update loan %d: %w", loan.ID, err)
		}

		repayment = &models.Repayment{
			LoanID:    loan.ID,
			Amount:    amount,
			Principal: res.Principal,
			Interest:  res.Interest,
			Penalty:   res.Penalty,
			Insurance: res.Insurance,
			Overpaid:  res.Overpaid,
			Method:    method,
			Reference: reference,
			PaidAt:    paidAt,
		}
		if err := tx.Create(repayment).Error; err != nil {
			return fmt.Errorf("failed to record repayment for loan %d: %w", loan.ID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return repayment, nil
}
