package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LoanDefaultStatus represents the state of a delinquency record.
// The sweep creates "overdue" records and resolves them; "in_collection"
// and "written_off" are set only by explicit actions outside the sweep.
type LoanDefaultStatus string

const (
	LoanDefaultOverdue      LoanDefaultStatus = "overdue"
	LoanDefaultInCollection LoanDefaultStatus = "in_collection"
	LoanDefaultResolved     LoanDefaultStatus = "resolved"
	LoanDefaultWrittenOff   LoanDefaultStatus = "written_off"
)

// ActiveLoanDefaultStatuses are the states counted as a live delinquency.
// A loan has at most one record in these states at any time.
var ActiveLoanDefaultStatuses = []LoanDefaultStatus{
	LoanDefaultOverdue,
	LoanDefaultInCollection,
}

// LoanDefault is the per-loan delinquency record maintained by the
// default sweep.
type LoanDefault struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	LoanID        uint              `gorm:"index" json:"loan_id"`
	DaysOverdue   int               `json:"days_overdue"`
	AmountOverdue decimal.Decimal   `gorm:"type:decimal(15,2)" json:"amount_overdue"`
	PenaltyAmount decimal.Decimal   `gorm:"type:decimal(15,2)" json:"penalty_amount"`
	Status        LoanDefaultStatus `gorm:"type:varchar(20);default:'overdue';index" json:"status"`
	LastCheckedAt time.Time         `json:"last_checked_at"`

	// Relationships
	Loan Loan `gorm:"foreignKey:LoanID" json:"loan,omitempty"`
}

// IsActive reports whether this record counts as a live delinquency
func (d *LoanDefault) IsActive() bool {
	return d.Status == LoanDefaultOverdue || d.Status == LoanDefaultInCollection
}

// AgingBucket classifies the record by how long it has been overdue
func (d *LoanDefault) AgingBucket() string {
	switch {
	case d.DaysOverdue <= 30:
		return "1-30"
	case d.DaysOverdue <= 60:
		return "31-60"
	case d.DaysOverdue <= 90:
		return "61-90"
	default:
		return "90+"
	}
}
