package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sacco_app/internal/models"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func monthlyTerms(method models.InterestMethod) ProductTerms {
	return ProductTerms{
		Frequency:      models.FrequencyMonthly,
		InterestMethod: method,
		PenaltyRate:    decimal.Zero,
		InsuranceRate:  decimal.Zero,
	}
}

func sumPrincipal(rows []models.Instalment) decimal.Decimal {
	sum := decimal.Zero
	for i := range rows {
		sum = sum.Add(rows[i].ExpectedPrincipal)
	}
	return sum
}

func sumInterest(rows []models.Instalment) decimal.Decimal {
	sum := decimal.Zero
	for i := range rows {
		sum = sum.Add(rows[i].ExpectedInterest)
	}
	return sum
}

func TestBuildScheduleDecliningBalance(t *testing.T) {
	anchor := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	in := ScheduleInput{
		Principal:     d("100000"),
		TotalInterest: d("5499.08"),
		Term:          12,
		Payment:       d("8791.59"),
		Rate:          d("10"),
		Anchor:        anchor,
	}

	rows := BuildSchedule(in, monthlyTerms(models.InterestDecliningBalance))
	require.Len(t, rows, 12)

	// period 1: interest on the full balance at 10%/12, rest to principal
	assert.True(t, rows[0].ExpectedInterest.Equal(d("833.33")), "got %s", rows[0].ExpectedInterest)
	assert.True(t, rows[0].ExpectedPrincipal.Equal(d("7958.26")), "got %s", rows[0].ExpectedPrincipal)

	// final period clears the remaining balance exactly
	last := rows[11]
	assert.True(t, last.ExpectedPrincipal.Equal(d("8718.90")), "got %s", last.ExpectedPrincipal)
	assert.True(t, last.ExpectedInterest.Equal(d("72.69")), "got %s", last.ExpectedInterest)

	// principal amortizes to the loan amount with no residue anywhere
	assert.True(t, sumPrincipal(rows).Equal(d("100000")), "got %s", sumPrincipal(rows))
	assert.True(t, sumInterest(rows).Equal(d("5499.08")), "got %s", sumInterest(rows))

	for i := range rows {
		assert.Equal(t, i+1, rows[i].Sequence)
		assert.Equal(t, models.InstalmentPending, rows[i].Status)
		assert.Equal(t, anchor.AddDate(0, 0, 30*(i+1)), rows[i].DueDate)
		assert.False(t, rows[i].ExpectedPrincipal.IsNegative())
	}
}

func TestBuildScheduleFlat(t *testing.T) {
	in := ScheduleInput{
		Principal:     d("12000"),
		TotalInterest: d("1200"),
		Term:          12,
		Rate:          d("10"),
		Anchor:        time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	rows := BuildSchedule(in, monthlyTerms(models.InterestFlat))
	require.Len(t, rows, 12)

	for i := range rows {
		assert.True(t, rows[i].ExpectedPrincipal.Equal(d("1000")))
		assert.True(t, rows[i].ExpectedInterest.Equal(d("100")))
	}
	assert.True(t, sumPrincipal(rows).Equal(d("12000")))
	assert.True(t, sumInterest(rows).Equal(d("1200")))
}

func TestBuildScheduleUpfrontInterest(t *testing.T) {
	in := ScheduleInput{
		Principal:       d("9000"),
		TotalInterest:   d("900"), // already charged at disbursement
		Term:            6,
		Rate:            d("10"),
		InterestUpfront: true,
		Anchor:          time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}

	// upfront flag wins over the product's interest method
	rows := BuildSchedule(in, monthlyTerms(models.InterestDecliningBalance))
	require.Len(t, rows, 6)

	for i := range rows {
		assert.True(t, rows[i].ExpectedPrincipal.Equal(d("1500")))
		assert.True(t, rows[i].ExpectedInterest.IsZero())
	}
	assert.True(t, sumPrincipal(rows).Equal(d("9000")))
}

func TestBuildScheduleAbsorbsRoundingResidue(t *testing.T) {
	in := ScheduleInput{
		Principal:     d("100"),
		TotalInterest: d("10"),
		Term:          3,
		Rate:          d("10"),
		Anchor:        time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	rows := BuildSchedule(in, monthlyTerms(models.InterestFlat))
	require.Len(t, rows, 3)

	// 100/3 rounds to 33.33; the final instalment absorbs the 0.01
	assert.True(t, rows[0].ExpectedPrincipal.Equal(d("33.33")))
	assert.True(t, rows[1].ExpectedPrincipal.Equal(d("33.33")))
	assert.True(t, rows[2].ExpectedPrincipal.Equal(d("33.34")))
	assert.True(t, sumPrincipal(rows).Equal(d("100")))

	// interest is reconciled the same way: 10/3 -> 3.33 each plus 0.01
	assert.True(t, rows[2].ExpectedInterest.Equal(d("3.34")))
	assert.True(t, sumInterest(rows).Equal(d("10")))
}

func TestBuildScheduleSkipsOversizedInterestCorrection(t *testing.T) {
	in := ScheduleInput{
		Principal:     d("100000"),
		TotalInterest: decimal.Zero, // far off the computed schedule interest
		Term:          12,
		Payment:       d("8791.59"),
		Rate:          d("10"),
		Anchor:        time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
	}

	rows := BuildSchedule(in, monthlyTerms(models.InterestDecliningBalance))
	require.Len(t, rows, 12)

	// correction magnitude exceeds the final instalment's interest, so it is
	// skipped rather than distorting the final period
	assert.True(t, rows[11].ExpectedInterest.Equal(d("72.69")), "got %s", rows[11].ExpectedInterest)
	assert.True(t, sumPrincipal(rows).Equal(d("100000")))
}

func TestBuildScheduleInsurance(t *testing.T) {
	in := ScheduleInput{
		Principal:     d("12000"),
		TotalInterest: d("1200"),
		Term:          12,
		Rate:          d("10"),
		Anchor:        time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	terms := monthlyTerms(models.InterestFlat)
	terms.InsuranceRate = d("1")

	rows := BuildSchedule(in, terms)
	require.Len(t, rows, 12)
	for i := range rows {
		// 12000 x 1% spread over 12 periods
		assert.True(t, rows[i].ExpectedInsurance.Equal(d("10")))
	}
}

func TestBuildScheduleZeroTerm(t *testing.T) {
	rows := BuildSchedule(ScheduleInput{Principal: d("1000"), Term: 0}, monthlyTerms(models.InterestFlat))
	assert.Nil(t, rows)
}

func TestBuildScheduleDueDatesByFrequency(t *testing.T) {
	anchor := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		frequency models.RepaymentFrequency
		days      int
	}{
		{models.FrequencyDaily, 1},
		{models.FrequencyWeekly, 7},
		{models.FrequencyBiweekly, 14},
		{models.FrequencyMonthly, 30},
	}

	for _, tt := range tests {
		t.Run(string(tt.frequency), func(t *testing.T) {
			terms := monthlyTerms(models.InterestFlat)
			terms.Frequency = tt.frequency
			rows := BuildSchedule(ScheduleInput{
				Principal:     d("3000"),
				TotalInterest: d("300"),
				Term:          3,
				Anchor:        anchor,
			}, terms)
			require.Len(t, rows, 3)
			for i := range rows {
				assert.Equal(t, anchor.AddDate(0, 0, tt.days*(i+1)), rows[i].DueDate)
			}
		})
	}
}

func TestResolveProductTermsDefaults(t *testing.T) {
	terms := ResolveProductTerms(nil)
	assert.Equal(t, models.FrequencyMonthly, terms.Frequency)
	assert.Equal(t, models.InterestDecliningBalance, terms.InterestMethod)
	assert.True(t, terms.PenaltyRate.IsZero())

	// partially configured products fall back per field
	terms = ResolveProductTerms(&models.LoanProduct{Frequency: models.FrequencyWeekly})
	assert.Equal(t, models.FrequencyWeekly, terms.Frequency)
	assert.Equal(t, models.InterestDecliningBalance, terms.InterestMethod)

	terms = ResolveProductTerms(&models.LoanProduct{
		InterestMethod: models.InterestFlat,
		PenaltyRate:    d("5"),
	})
	assert.Equal(t, models.FrequencyMonthly, terms.Frequency)
	assert.Equal(t, models.InterestFlat, terms.InterestMethod)
	assert.True(t, terms.PenaltyRate.Equal(d("5")))
}
