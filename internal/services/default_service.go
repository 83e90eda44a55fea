package services

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"sacco_app/internal/models"
)

// LoanExposure is the delinquency assessment of one loan as of a given date
type LoanExposure struct {
	DaysOverdue   int
	AmountOverdue decimal.Decimal
	Penalty       decimal.Decimal
}

// AssessLoan inspects a loan's unpaid instalments as of a date. Pending
// instalments past their due date are marked overdue in place; instalments
// already partial keep that status. Returns nil when nothing qualifying is
// past due. AmountOverdue covers the principal, interest, and penalty
// shortfalls of every past-due unpaid instalment, and Penalty is
// AmountOverdue at the product's late-payment rate.
func AssessLoan(instalments []*models.Instalment, penaltyRate decimal.Decimal, asOf time.Time) *LoanExposure {
	var earliest time.Time
	amount := decimal.Zero
	found := false

	for _, inst := range instalments {
		if inst.Status == models.InstalmentPaid || !inst.DueDate.Before(asOf) {
			continue
		}
		if inst.Status == models.InstalmentPending {
			inst.Status = models.InstalmentOverdue
		}

		shortfall := inst.ExpectedPrincipal.Sub(inst.PaidPrincipal).
			Add(inst.ExpectedInterest.Sub(inst.PaidInterest)).
			Add(inst.ExpectedPenalty.Sub(inst.PaidPenalty))
		amount = amount.Add(shortfall)

		if !found || inst.DueDate.Before(earliest) {
			earliest = inst.DueDate
			found = true
		}
	}

	if !found {
		return nil
	}
	return &LoanExposure{
		DaysOverdue:   int(asOf.Sub(earliest).Hours() / 24),
		AmountOverdue: amount,
		Penalty:       amount.Mul(penaltyRate).Div(hundred).Round(2),
	}
}

// SweepSummary reports what a default sweep did
type SweepSummary struct {
	AsOf             time.Time `json:"as_of"`
	LoansChecked     int       `json:"loans_checked"`
	DefaultsCreated  int       `json:"defaults_created"`
	DefaultsUpdated  int       `json:"defaults_updated"`
	DefaultsResolved int       `json:"defaults_resolved"`
}

// DefaultService runs the batch delinquency sweep. It is a pure function of
// (loans, as-of date): bulk reads, in-memory grouping by loan, then one
// transactional commit. It never coordinates with concurrent repayments; a
// payment landing mid-sweep is corrected on the next run.
type DefaultService struct {
	db *gorm.DB
}

func NewDefaultService(db *gorm.DB) *DefaultService {
	return &DefaultService{db: db}
}

// Sweep marks past-due instalments overdue and maintains at most one active
// LoanDefault record per loan: created on first qualifying exposure, updated
// in place on later sweeps, resolved when the overdue amount reaches zero or
// the loan finishes repaying. Write-offs are never produced here.
func (s *DefaultService) Sweep(asOf time.Time) (*SweepSummary, error) {
	summary := &SweepSummary{AsOf: asOf}

	// Active delinquency records come first: a loan that finished repaying
	// leaves the repayable set, but its record still has to be resolved.
	var active []models.LoanDefault
	if err := s.db.Where("status IN ?", models.ActiveLoanDefaultStatuses).
		Find(&active).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch active defaults: %w", err)
	}
	activeByLoan := make(map[uint]*models.LoanDefault)
	activeLoanIDs := make([]uint, 0, len(active))
	for i := range active {
		activeByLoan[active[i].LoanID] = &active[i]
		activeLoanIDs = append(activeLoanIDs, active[i].LoanID)
	}

	query := s.db.Preload("Product")
	if len(activeLoanIDs) > 0 {
		query = query.Where("(status IN ? AND balance > 0) OR id IN ?",
			models.RepayableStatuses, activeLoanIDs)
	} else {
		query = query.Where("status IN ? AND balance > 0", models.RepayableStatuses)
	}

	var loans []models.Loan
	if err := query.Find(&loans).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch loans under assessment: %w", err)
	}
	summary.LoansChecked = len(loans)
	if len(loans) == 0 {
		return summary, nil
	}

	loanIDs := make([]uint, len(loans))
	for i := range loans {
		loanIDs[i] = loans[i].ID
	}

	var unpaid []models.Instalment
	if err := s.db.Where("loan_id IN ? AND status <> ?", loanIDs, models.InstalmentPaid).
		Order("loan_id asc, sequence asc").Find(&unpaid).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch unpaid instalments: %w", err)
	}

	byLoan := make(map[uint][]*models.Instalment)
	for i := range unpaid {
		byLoan[unpaid[i].LoanID] = append(byLoan[unpaid[i].LoanID], &unpaid[i])
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for i := range loans {
			loan := &loans[i]
			terms := ResolveProductTerms(&loan.Product)
			exposure := AssessLoan(byLoan[loan.ID], terms.PenaltyRate, asOf)

			for _, inst := range byLoan[loan.ID] {
				if err := tx.Save(inst).Error; err != nil {
					return fmt.Errorf("failed to update instalment %d: %w", inst.ID, err)
				}
			}

			record := activeByLoan[loan.ID]
			if exposure == nil || !exposure.AmountOverdue.IsPositive() {
				if record != nil {
					record.Status = models.LoanDefaultResolved
					record.LastCheckedAt = asOf
					if err := tx.Save(record).Error; err != nil {
						return fmt.Errorf("failed to resolve default for loan %d: %w", loan.ID, err)
					}
					summary.DefaultsResolved++
				}
				continue
			}

			if record != nil {
				record.DaysOverdue = exposure.DaysOverdue
				record.AmountOverdue = exposure.AmountOverdue
				record.PenaltyAmount = exposure.Penalty
				record.LastCheckedAt = asOf
				if err := tx.Save(record).Error; err != nil {
					return fmt.Errorf("failed to update default for loan %d: %w", loan.ID, err)
				}
				summary.DefaultsUpdated++
				continue
			}

			// only repayable loans acquire new records; loans kept in the
			// set purely for their active record never reach here
			if !loan.IsRepayable() {
				continue
			}

			created := models.LoanDefault{
				LoanID:        loan.ID,
				DaysOverdue:   exposure.DaysOverdue,
				AmountOverdue: exposure.AmountOverdue,
				PenaltyAmount: exposure.Penalty,
				Status:        models.LoanDefaultOverdue,
				LastCheckedAt: asOf,
			}
			if err := tx.Create(&created).Error; err != nil {
				return fmt.Errorf("failed to create default for loan %d: %w", loan.ID, err)
			}
			summary.DefaultsCreated++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}
