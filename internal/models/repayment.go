package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RepaymentMethod is the channel through which a payment was collected
type RepaymentMethod string

const (
	RepaymentMethodCash         RepaymentMethod = "cash"
	RepaymentMethodMobileMoney  RepaymentMethod = "mobile_money"
	RepaymentMethodBankTransfer RepaymentMethod = "bank_transfer"
	RepaymentMethodCheque       RepaymentMethod = "cheque"
)

// Repayment is the immutable record of a single payment event, carrying the
// allocation breakdown returned by the payment allocator. Overpaid is any
// remainder beyond the loan's outstanding obligations; crediting it elsewhere
// is the caller's job.
type Repayment struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	LoanID    uint            `gorm:"index" json:"loan_id"`
	Amount    decimal.Decimal `gorm:"type:decimal(15,2)" json:"amount"`
	Principal decimal.Decimal `gorm:"type:decimal(15,2)" json:"principal"`
	Interest  decimal.Decimal `gorm:"type:decimal(15,2)" json:"interest"`
	Penalty   decimal.Decimal `gorm:"type:decimal(15,2)" json:"penalty"`
	Insurance decimal.Decimal `gorm:"type:decimal(15,2)" json:"insurance"`
	Overpaid  decimal.Decimal `gorm:"type:decimal(15,2)" json:"overpaid"`
	Method    RepaymentMethod `gorm:"type:varchar(30);default:'cash'" json:"method"`
	Reference string          `gorm:"type:varchar(100);uniqueIndex" json:"reference"`
	PaidAt    time.Time       `gorm:"index" json:"paid_at"`

	// Relationships
	Loan Loan `gorm:"foreignKey:LoanID" json:"loan,omitempty"`
}
