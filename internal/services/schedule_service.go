package services

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"sacco_app/internal/models"
)

var hundred = decimal.NewFromInt(100)

// ProductTerms is the product configuration the engine actually computes with,
// resolved once per call. Legacy products with missing fields fall back to
// monthly declining-balance so they never block disbursement.
type ProductTerms struct {
	Frequency      models.RepaymentFrequency
	InterestMethod models.InterestMethod
	PenaltyRate    decimal.Decimal
	InsuranceRate  decimal.Decimal
}

// ResolveProductTerms builds ProductTerms from a product row, applying defaults
// for anything absent.
func ResolveProductTerms(product *models.LoanProduct) ProductTerms {
	terms := ProductTerms{
		Frequency:      models.FrequencyMonthly,
		InterestMethod: models.InterestDecliningBalance,
		PenaltyRate:    decimal.Zero,
		InsuranceRate:  decimal.Zero,
	}
	if product == nil {
		return terms
	}
	if product.Frequency != "" {
		terms.Frequency = product.Frequency
	}
	if product.InterestMethod != "" {
		terms.InterestMethod = product.InterestMethod
	}
	terms.PenaltyRate = product.PenaltyRate
	terms.InsuranceRate = product.InsuranceRate
	return terms
}

// ScheduleInput carries everything the generation algorithms need. The same
// input shape serves both a fresh disbursement (full principal, full term,
// anchored at the disbursement date) and a restructure's pending tail
// (remaining principal/interest/term, anchored at the last settled due date).
type ScheduleInput struct {
	Principal       decimal.Decimal
	TotalInterest   decimal.Decimal
	Term            int
	Payment         decimal.Decimal // periodic payment target; principal/term when zero
	Rate            decimal.Decimal // nominal annual rate in percent
	InterestUpfront bool
	Anchor          time.Time
}

// LoanScheduleInput derives a full-term ScheduleInput from a loan row
func LoanScheduleInput(loan *models.Loan) ScheduleInput {
	anchor := time.Now()
	if loan.DisbursedAt != nil {
		anchor = *loan.DisbursedAt
	}
	return ScheduleInput{
		Principal:       loan.Amount,
		TotalInterest:   loan.TotalInterest,
		Term:            loan.Term,
		Payment:         loan.MonthlyInstalment,
		Rate:            loan.InterestRate,
		InterestUpfront: loan.InterestUpfront,
		Anchor:          anchor,
	}
}

// BuildSchedule produces the ordered instalment obligations for in.Term
// periods. Three mutually exclusive algorithms apply, in precedence order:
// upfront-deducted interest, then flat, then declining-balance annuity.
// Amounts are rounded half-up to two decimal places only here, at
// materialization; any principal rounding residue is absorbed into the final
// instalment so expected principal sums to in.Principal exactly.
func BuildSchedule(in ScheduleInput, terms ProductTerms) []models.Instalment {
	if in.Term <= 0 {
		return nil
	}

	var rows []models.Instalment
	switch {
	case in.InterestUpfront:
		rows = buildEvenSchedule(in.Principal, decimal.Zero, in.Term)
	case terms.InterestMethod == models.InterestFlat:
		rows = buildEvenSchedule(in.Principal, in.TotalInterest, in.Term)
	default:
		rows = buildAnnuitySchedule(in, terms)
	}

	if terms.InsuranceRate.IsPositive() {
		perPeriod := in.Principal.Mul(terms.InsuranceRate).Div(hundred).
			Div(decimal.NewFromInt(int64(in.Term))).Round(2)
		for i := range rows {
			rows[i].ExpectedInsurance = perPeriod
		}
	}

	periodDays := terms.Frequency.PeriodDays()
	for i := range rows {
		rows[i].Sequence = i + 1
		rows[i].DueDate = in.Anchor.AddDate(0, 0, periodDays*(i+1))
		rows[i].Status = models.InstalmentPending
	}

	reconcileSchedule(rows, in)
	return rows
}

// buildEvenSchedule splits principal and interest evenly across all periods
func buildEvenSchedule(principal, totalInterest decimal.Decimal, term int) []models.Instalment {
	periods := decimal.NewFromInt(int64(term))
	principalPer := principal.Div(periods).Round(2)
	interestPer := totalInterest.Div(periods).Round(2)

	rows := make([]models.Instalment, term)
	for i := range rows {
		rows[i].ExpectedPrincipal = principalPer
		rows[i].ExpectedInterest = interestPer
	}
	return rows
}

// buildAnnuitySchedule amortizes the principal with a level payment per
// period, charging interest on the running balance. The final period forces
// principal to the remaining balance exactly so the loan always fully
// amortizes regardless of accumulated rounding.
func buildAnnuitySchedule(in ScheduleInput, terms ProductTerms) []models.Instalment {
	payment := in.Payment
	if !payment.IsPositive() {
		payment = in.Principal.Div(decimal.NewFromInt(int64(in.Term))).Round(2)
	}
	periodRate := in.Rate.Div(hundred).Div(decimal.NewFromInt(terms.Frequency.PeriodsPerYear()))

	rows := make([]models.Instalment, in.Term)
	balance := in.Principal
	for i := range rows {
		var principal, interest decimal.Decimal
		if i == in.Term-1 {
			principal = balance
			interest = decimal.Max(payment.Sub(balance), decimal.Zero).Round(2)
		} else {
			interest = balance.Mul(periodRate).Round(2)
			principal = payment.Sub(interest).Round(2)
			if principal.GreaterThan(balance) {
				interest = payment.Sub(balance).Round(2)
				principal = balance
			}
		}
		rows[i].ExpectedPrincipal = principal
		rows[i].ExpectedInterest = interest
		balance = balance.Sub(principal)
	}
	return rows
}

// reconcileSchedule absorbs rounding residue into the final instalment.
// Principal is always corrected so the schedule sums to the principal exactly.
// Interest is corrected the same way for schedule-repaid interest, but only
// when the correction is smaller than the final instalment's own interest;
// a larger correction is skipped rather than distorting the final period.
func reconcileSchedule(rows []models.Instalment, in ScheduleInput) {
	if len(rows) == 0 {
		return
	}
	last := &rows[len(rows)-1]

	principalSum := decimal.Zero
	interestSum := decimal.Zero
	for i := range rows {
		principalSum = principalSum.Add(rows[i].ExpectedPrincipal)
		interestSum = interestSum.Add(rows[i].ExpectedInterest)
	}

	if diff := in.Principal.Sub(principalSum); !diff.IsZero() {
		last.ExpectedPrincipal = last.ExpectedPrincipal.Add(diff)
	}

	if in.InterestUpfront {
		return
	}
	if diff := in.TotalInterest.Sub(interestSum); !diff.IsZero() && diff.Abs().LessThan(last.ExpectedInterest) {
		last.ExpectedInterest = last.ExpectedInterest.Add(diff)
	}
}

// ScheduleService generates and persists instalment schedules
type ScheduleService struct {
	db *gorm.DB
}

func NewScheduleService(db *gorm.DB) *ScheduleService {
	return &ScheduleService{db: db}
}

// Generate builds and stores the full schedule for a freshly disbursed loan.
// The created instalments are returned for display to the caller.
func (s *ScheduleService) Generate(loan *models.Loan, product *models.LoanProduct) ([]models.Instalment, error) {
	if loan.Term <= 0 {
		return nil, fmt.Errorf("loan %d has invalid term %d", loan.ID, loan.Term)
	}

	terms := ResolveProductTerms(product)
	rows := BuildSchedule(LoanScheduleInput(loan), terms)
	for i := range rows {
		rows[i].LoanID = loan.ID
	}

	if err := s.db.Create(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to store schedule for loan %d: %w", loan.ID, err)
	}
	return rows, nil
}
