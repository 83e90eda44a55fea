package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sacco_app/internal/models"
)

// flatSchedule builds a fresh all-pending flat schedule as allocator input
func flatSchedule(t *testing.T, principal, totalInterest string, term int) []*models.Instalment {
	t.Helper()
	rows := BuildSchedule(ScheduleInput{
		Principal:     d(principal),
		TotalInterest: d(totalInterest),
		Term:          term,
		Anchor:        time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}, monthlyTerms(models.InterestFlat))
	require.Len(t, rows, term)
	ptrs := make([]*models.Instalment, len(rows))
	for i := range rows {
		ptrs[i] = &rows[i]
	}
	return ptrs
}

func TestAllocatePaymentInterestBeforePrincipal(t *testing.T) {
	// each instalment owes 1000 principal + 100 interest
	schedule := flatSchedule(t, "12000", "1200", 12)

	res := AllocatePayment(schedule, d("50"))

	// 50 is less than the first instalment's interest, so nothing reaches
	// principal
	assert.True(t, res.Interest.Equal(d("50")))
	assert.True(t, res.Principal.IsZero())
	assert.True(t, res.Penalty.IsZero())
	assert.True(t, res.Overpaid.IsZero())

	first := schedule[0]
	assert.Equal(t, models.InstalmentPartial, first.Status)
	assert.True(t, first.PaidInterest.Equal(d("50")))
	assert.True(t, first.PaidPrincipal.IsZero())
	assert.Equal(t, models.InstalmentPending, schedule[1].Status)
}

func TestAllocatePaymentClearsAnnuityInstalment(t *testing.T) {
	rows := BuildSchedule(ScheduleInput{
		Principal:     d("100000"),
		TotalInterest: d("5499.08"),
		Term:          12,
		Payment:       d("8791.59"),
		Rate:          d("10"),
		Anchor:        time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
	}, monthlyTerms(models.InterestDecliningBalance))
	ptrs := make([]*models.Instalment, len(rows))
	for i := range rows {
		ptrs[i] = &rows[i]
	}

	res := AllocatePayment(ptrs, d("8791.59"))

	assert.True(t, res.Principal.Equal(d("7958.26")), "got %s", res.Principal)
	assert.True(t, res.Interest.Equal(d("833.33")), "got %s", res.Interest)
	assert.True(t, res.Overpaid.IsZero())

	first := ptrs[0]
	assert.Equal(t, models.InstalmentPaid, first.Status)
	assert.True(t, first.PaidPrincipal.Equal(first.ExpectedPrincipal))
	assert.True(t, first.PaidInterest.Equal(first.ExpectedInterest))
	assert.Equal(t, models.InstalmentPending, ptrs[1].Status)
}

func TestAllocatePaymentWaterfallOrder(t *testing.T) {
	schedule := flatSchedule(t, "12000", "1200", 12)
	schedule[0].ExpectedPenalty = d("25")

	res := AllocatePayment(schedule, d("130"))

	// penalty first, interest second, principal last
	assert.True(t, res.Penalty.Equal(d("25")))
	assert.True(t, res.Interest.Equal(d("100")))
	assert.True(t, res.Principal.Equal(d("5")))

	first := schedule[0]
	assert.True(t, first.PaidPenalty.Equal(d("25")))
	assert.True(t, first.PaidInterest.Equal(d("100")))
	assert.True(t, first.PaidPrincipal.Equal(d("5")))
	assert.Equal(t, models.InstalmentPartial, first.Status)
}

func TestAllocatePaymentSplitEqualsLumpSum(t *testing.T) {
	split := flatSchedule(t, "12000", "1200", 12)
	lump := flatSchedule(t, "12000", "1200", 12)

	first := AllocatePayment(split, d("2000"))
	second := AllocatePayment(split, d("3000"))
	whole := AllocatePayment(lump, d("5000"))

	assert.True(t, first.Principal.Add(second.Principal).Equal(whole.Principal))
	assert.True(t, first.Interest.Add(second.Interest).Equal(whole.Interest))

	for i := range split {
		assert.Equal(t, lump[i].Status, split[i].Status, "instalment %d", i+1)
		assert.True(t, split[i].PaidPrincipal.Equal(lump[i].PaidPrincipal), "instalment %d", i+1)
		assert.True(t, split[i].PaidInterest.Equal(lump[i].PaidInterest), "instalment %d", i+1)
	}
}

func TestAllocatePaymentOverpayment(t *testing.T) {
	schedule := flatSchedule(t, "1000", "100", 2)

	res := AllocatePayment(schedule, d("1500"))

	// total outstanding is 1100; the excess comes back untouched
	assert.True(t, res.Principal.Equal(d("1000")))
	assert.True(t, res.Interest.Equal(d("100")))
	assert.True(t, res.Overpaid.Equal(d("400")))
	for _, inst := range schedule {
		assert.Equal(t, models.InstalmentPaid, inst.Status)
		assert.True(t, inst.PaidPrincipal.Equal(inst.ExpectedPrincipal))
	}
}

func TestAllocatePaymentConservation(t *testing.T) {
	amounts := []string{"0.01", "50", "1100", "1234.56", "5000", "13200", "20000"}
	for _, amount := range amounts {
		t.Run(amount, func(t *testing.T) {
			schedule := flatSchedule(t, "12000", "1200", 12)
			res := AllocatePayment(schedule, d(amount))
			total := res.Principal.Add(res.Interest).Add(res.Penalty).Add(res.Insurance).Add(res.Overpaid)
			assert.True(t, total.Equal(d(amount)), "amount %s leaked to %s", amount, total)
		})
	}
}

func TestAllocatePaymentOldestFirst(t *testing.T) {
	schedule := flatSchedule(t, "12000", "1200", 12)
	// a later instalment somehow already partially paid must not be skipped
	// ahead of older obligations
	schedule[2].PaidInterest = d("40")
	schedule[2].Status = models.InstalmentPartial

	res := AllocatePayment(schedule, d("1100"))

	assert.Equal(t, models.InstalmentPaid, schedule[0].Status)
	assert.Equal(t, models.InstalmentPending, schedule[1].Status)
	assert.True(t, res.Principal.Equal(d("1000")))
	assert.True(t, res.Interest.Equal(d("100")))
}

func TestAllocatePaymentKeepsOverdueStatus(t *testing.T) {
	schedule := flatSchedule(t, "12000", "1200", 12)
	schedule[0].Status = models.InstalmentOverdue

	AllocatePayment(schedule, d("50"))
	// a partial payment does not rename an overdue instalment
	assert.Equal(t, models.InstalmentOverdue, schedule[0].Status)

	AllocatePayment(schedule, d("1050"))
	assert.Equal(t, models.InstalmentPaid, schedule[0].Status)
}
