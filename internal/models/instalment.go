package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InstalmentStatus represents the payment state of a single instalment.
// "overdue" flags an untouched obligation past its due date; a partially
// paid instalment keeps "partial" even once past due. "paid" is terminal.
type InstalmentStatus string

const (
	InstalmentPending InstalmentStatus = "pending"
	InstalmentPartial InstalmentStatus = "partial"
	InstalmentOverdue InstalmentStatus = "overdue"
	InstalmentPaid    InstalmentStatus = "paid"
)

// Instalment is one scheduled period's obligation on a loan. Expected amounts
// are fixed at generation time (the final instalment absorbs any rounding
// residue); paid amounts only ever grow, through the payment allocator.
type Instalment struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	LoanID   uint      `gorm:"index" json:"loan_id"`
	Sequence int       `gorm:"index" json:"sequence"`
	DueDate  time.Time `gorm:"index" json:"due_date"`

	ExpectedPrincipal decimal.Decimal `gorm:"type:decimal(15,2)" json:"expected_principal"`
	ExpectedInterest  decimal.Decimal `gorm:"type:decimal(15,2)" json:"expected_interest"`
	ExpectedPenalty   decimal.Decimal `gorm:"type:decimal(15,2)" json:"expected_penalty"`
	ExpectedInsurance decimal.Decimal `gorm:"type:decimal(15,2)" json:"expected_insurance"`
	PaidPrincipal     decimal.Decimal `gorm:"type:decimal(15,2)" json:"paid_principal"`
	PaidInterest      decimal.Decimal `gorm:"type:decimal(15,2)" json:"paid_interest"`
	PaidPenalty       decimal.Decimal `gorm:"type:decimal(15,2)" json:"paid_penalty"`
	PaidInsurance     decimal.Decimal `gorm:"type:decimal(15,2)" json:"paid_insurance"`

	Status InstalmentStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`

	// Relationships
	Loan Loan `gorm:"foreignKey:LoanID" json:"loan,omitempty"`
}

// TotalExpected sums all four expected components
func (i *Instalment) TotalExpected() decimal.Decimal {
	return i.ExpectedPrincipal.Add(i.ExpectedInterest).Add(i.ExpectedPenalty).Add(i.ExpectedInsurance)
}

// TotalPaid sums all four paid components
func (i *Instalment) TotalPaid() decimal.Decimal {
	return i.PaidPrincipal.Add(i.PaidInterest).Add(i.PaidPenalty).Add(i.PaidInsurance)
}

// Outstanding is the unpaid remainder across all components
func (i *Instalment) Outstanding() decimal.Decimal {
	return i.TotalExpected().Sub(i.TotalPaid())
}

// IsSettled reports whether the instalment has received any payment.
// Settled instalments survive a restructure untouched.
func (i *Instalment) IsSettled() bool {
	return i.Status == InstalmentPaid || i.Status == InstalmentPartial
}

// IsUnpaid reports whether the instalment can still receive an allocation
func (i *Instalment) IsUnpaid() bool {
	return i.Status != InstalmentPaid
}

// ScheduleSummary aggregates a loan's instalments for reporting
type ScheduleSummary struct {
	TotalInstalments   int             `json:"total_instalments"`
	PaidInstalments    int             `json:"paid_instalments"`
	OverdueInstalments int             `json:"overdue_instalments"`
	TotalPrincipal     decimal.Decimal `json:"total_principal"`
	TotalInterest      decimal.Decimal `json:"total_interest"`
	TotalPenalty       decimal.Decimal `json:"total_penalty"`
	TotalPaid          decimal.Decimal `json:"total_paid"`
	TotalOutstanding   decimal.Decimal `json:"total_outstanding"`
}

// SummarizeSchedule computes aggregate figures over a loan's instalments
func SummarizeSchedule(instalments []Instalment) ScheduleSummary {
	s := ScheduleSummary{
		TotalPrincipal:   decimal.Zero,
		TotalInterest:    decimal.Zero,
		TotalPenalty:     decimal.Zero,
		TotalPaid:        decimal.Zero,
		TotalOutstanding: decimal.Zero,
	}
	for idx := range instalments {
		inst := &instalments[idx]
		s.TotalInstalments++
		switch inst.Status {
		case InstalmentPaid:
			s.PaidInstalments++
		case InstalmentOverdue:
			s.OverdueInstalments++
		}
		s.TotalPrincipal = s.TotalPrincipal.Add(inst.ExpectedPrincipal)
		s.TotalInterest = s.TotalInterest.Add(inst.ExpectedInterest)
		s.TotalPenalty = s.TotalPenalty.Add(inst.ExpectedPenalty)
		s.TotalPaid = s.TotalPaid.Add(inst.TotalPaid())
		s.TotalOutstanding = s.TotalOutstanding.Add(inst.Outstanding())
	}
	return s
}
