package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LoanStatus represents the lifecycle state of a loan
type LoanStatus string

const (
	LoanStatusPending    LoanStatus = "pending"
	LoanStatusApproved   LoanStatus = "approved"
	LoanStatusDisbursed  LoanStatus = "disbursed"
	LoanStatusActive     LoanStatus = "active"
	LoanStatusCompleted  LoanStatus = "completed"
	LoanStatusDefaulted  LoanStatus = "defaulted"
	LoanStatusWrittenOff LoanStatus = "written_off"
)

// RepayableStatuses are the states in which a loan can receive payments
// and is picked up by the default sweep.
var RepayableStatuses = []LoanStatus{
	LoanStatusDisbursed,
	LoanStatusActive,
	LoanStatusDefaulted,
}

// Loan represents a disbursed or in-flight member loan.
// Balance carries the running total still owed (principal plus interest for
// schedule-repaid interest; principal only when interest was deducted upfront)
// and is decremented by every allocation.
type Loan struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	MemberID  uint `gorm:"index" json:"member_id"`
	ProductID uint `gorm:"index" json:"product_id"`
	BranchID  uint `gorm:"index" json:"branch_id"`

	Amount            decimal.Decimal `gorm:"type:decimal(15,2)" json:"amount"`
	Term              int             `json:"term"`
	InterestRate      decimal.Decimal `gorm:"type:decimal(8,4)" json:"interest_rate"`
	TotalInterest     decimal.Decimal `gorm:"type:decimal(15,2)" json:"total_interest"`
	MonthlyInstalment decimal.Decimal `gorm:"type:decimal(15,2)" json:"monthly_instalment"`
	TotalRepaid       decimal.Decimal `gorm:"type:decimal(15,2)" json:"total_repaid"`
	Balance           decimal.Decimal `gorm:"type:decimal(15,2)" json:"balance"`
	InterestUpfront   bool            `gorm:"default:false" json:"interest_upfront"`
	DisbursedAt       *time.Time      `json:"disbursed_at"`
	Status            LoanStatus      `gorm:"type:varchar(20);default:'pending';index" json:"status"`

	// Relationships
	Member      Member       `gorm:"foreignKey:MemberID" json:"member,omitempty"`
	Product     LoanProduct  `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Instalments []Instalment `gorm:"foreignKey:LoanID" json:"instalments,omitempty"`
	Repayments  []Repayment  `gorm:"foreignKey:LoanID" json:"repayments,omitempty"`
}

// IsRepayable reports whether the loan can receive payments
func (l *Loan) IsRepayable() bool {
	for _, s := range RepayableStatuses {
		if l.Status == s {
			return true
		}
	}
	return false
}

// OpeningBalance is what the member owes at disbursement time: principal plus
// scheduled interest, or principal alone when interest was deducted upfront.
func (l *Loan) OpeningBalance() decimal.Decimal {
	if l.InterestUpfront {
		return l.Amount
	}
	return l.Amount.Add(l.TotalInterest)
}
