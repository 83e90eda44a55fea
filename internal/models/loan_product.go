package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RepaymentFrequency determines the fixed length of one repayment period.
// Periods are fixed day counts, not calendar-month aware.
type RepaymentFrequency string

const (
	FrequencyDaily    RepaymentFrequency = "daily"
	FrequencyWeekly   RepaymentFrequency = "weekly"
	FrequencyBiweekly RepaymentFrequency = "biweekly"
	FrequencyMonthly  RepaymentFrequency = "monthly"
)

// PeriodDays returns the fixed number of days in one repayment period.
func (f RepaymentFrequency) PeriodDays() int {
	switch f {
	case FrequencyDaily:
		return 1
	case FrequencyWeekly:
		return 7
	case FrequencyBiweekly:
		return 14
	default:
		return 30
	}
}

// PeriodsPerYear returns how many repayment periods make up a year,
// used to derive the per-period rate from a nominal annual rate.
func (f RepaymentFrequency) PeriodsPerYear() int64 {
	switch f {
	case FrequencyDaily:
		return 365
	case FrequencyWeekly:
		return 52
	case FrequencyBiweekly:
		return 26
	default:
		return 12
	}
}

// InterestMethod is how interest is computed over the life of a loan
type InterestMethod string

const (
	InterestFlat             InterestMethod = "flat"
	InterestDecliningBalance InterestMethod = "declining_balance"
)

// LoanProduct defines the terms under which loans are issued.
// Products are read-only inputs to the repayment engine.
type LoanProduct struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Name           string             `gorm:"type:varchar(255)" json:"name"`
	Frequency      RepaymentFrequency `gorm:"type:varchar(20);default:'monthly'" json:"frequency"`
	InterestMethod InterestMethod     `gorm:"type:varchar(30);default:'declining_balance'" json:"interest_method"`
	InterestRate   decimal.Decimal    `gorm:"type:decimal(8,4)" json:"interest_rate"`
	PenaltyRate    decimal.Decimal    `gorm:"type:decimal(8,4)" json:"penalty_rate"`
	InsuranceRate  decimal.Decimal    `gorm:"type:decimal(8,4)" json:"insurance_rate"`
	MaxAmount      decimal.Decimal    `gorm:"type:decimal(15,2)" json:"max_amount"`

	// Relationships
	Loans []Loan `gorm:"foreignKey:ProductID" json:"loans,omitempty"`
}
