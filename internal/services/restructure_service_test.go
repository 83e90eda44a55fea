package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sacco_app/internal/models"
)

// flatLoan is a 12-period flat loan with a generated schedule and some
// payments already applied through the allocator
func flatLoan(t *testing.T, paid string) (*models.Loan, []models.Instalment) {
	t.Helper()
	disbursed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	loan := &models.Loan{
		Amount:        d("12000"),
		Term:          12,
		InterestRate:  d("10"),
		TotalInterest: d("1200"),
		DisbursedAt:   &disbursed,
		Status:        models.LoanStatusActive,
	}

	rows := BuildSchedule(LoanScheduleInput(loan), monthlyTerms(models.InterestFlat))
	require.Len(t, rows, 12)
	if paid != "" {
		ptrs := make([]*models.Instalment, len(rows))
		for i := range rows {
			ptrs[i] = &rows[i]
		}
		AllocatePayment(ptrs, d(paid))
	}
	return loan, rows
}

func TestPlanRestructurePreservesSettled(t *testing.T) {
	// 3100 clears two instalments (1100 each) and leaves 900 on the third
	loan, rows := flatLoan(t, "3100")
	require.Equal(t, models.InstalmentPaid, rows[0].Status)
	require.Equal(t, models.InstalmentPaid, rows[1].Status)
	require.Equal(t, models.InstalmentPartial, rows[2].Status)

	settled, tail := PlanRestructure(loan, monthlyTerms(models.InterestFlat), rows)

	require.Len(t, settled, 3)
	require.Len(t, tail, 9)

	// settled rows come through byte-identical
	for i := range settled {
		assert.Equal(t, rows[i], settled[i])
	}

	// the tail covers the remaining principal and interest over the
	// remaining term, with sequences and due dates continuing
	assert.True(t, sumPrincipal(tail).Equal(d("9000")))
	assert.True(t, sumInterest(tail).Equal(d("900")))
	for i := range tail {
		assert.Equal(t, 4+i, tail[i].Sequence)
		assert.Equal(t, models.InstalmentPending, tail[i].Status)
		assert.Equal(t, settled[2].DueDate.AddDate(0, 0, 30*(i+1)), tail[i].DueDate)
	}
}

func TestPlanRestructureIdempotent(t *testing.T) {
	loan, rows := flatLoan(t, "3100")

	settled, tail := PlanRestructure(loan, monthlyTerms(models.InterestFlat), rows)

	// run again over the schedule the first pass produced
	current := append(append([]models.Instalment{}, settled...), tail...)
	settledAgain, tailAgain := PlanRestructure(loan, monthlyTerms(models.InterestFlat), current)

	assert.Equal(t, settled, settledAgain)
	assert.Equal(t, tail, tailAgain)
}

func TestPlanRestructureEffectivelySettled(t *testing.T) {
	loan, rows := flatLoan(t, "13200") // pays everything
	for i := range rows {
		require.Equal(t, models.InstalmentPaid, rows[i].Status)
	}

	settled, tail := PlanRestructure(loan, monthlyTerms(models.InterestFlat), rows)
	assert.Len(t, settled, 12)
	assert.Nil(t, tail)
}

func TestPlanRestructureNoSettledAnchorsAtDisbursement(t *testing.T) {
	loan, rows := flatLoan(t, "")

	settled, tail := PlanRestructure(loan, monthlyTerms(models.InterestFlat), rows)
	assert.Empty(t, settled)
	require.Len(t, tail, 12)
	assert.Equal(t, loan.DisbursedAt.AddDate(0, 0, 30), tail[0].DueDate)
	assert.True(t, sumPrincipal(tail).Equal(loan.Amount))
}

func TestPlanRestructureShorterTerm(t *testing.T) {
	loan, rows := flatLoan(t, "3100")

	// terms changed mid-life: remaining balance compressed into 6 periods
	loan.Term = 9
	settled, tail := PlanRestructure(loan, monthlyTerms(models.InterestFlat), rows)

	require.Len(t, settled, 3)
	require.Len(t, tail, 6)
	assert.True(t, sumPrincipal(tail).Equal(d("9000")))
	for i := range tail {
		assert.Equal(t, 4+i, tail[i].Sequence)
	}
}
