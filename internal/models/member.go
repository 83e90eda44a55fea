package models

import (
	"time"

	"gorm.io/gorm"
)

// MemberStatus represents the standing of a Sacco member
type MemberStatus string

const (
	MemberStatusActive  MemberStatus = "active"
	MemberStatusDormant MemberStatus = "dormant"
	MemberStatusExited  MemberStatus = "exited"
)

// Member represents a registered Sacco member
type Member struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	MemberNumber string       `gorm:"type:varchar(64);uniqueIndex" json:"member_number"`
	Name         string       `gorm:"type:varchar(255)" json:"name"`
	Phone        string       `gorm:"type:varchar(50)" json:"phone"`
	Email        string       `gorm:"type:varchar(255)" json:"email"`
	NationalID   string       `gorm:"type:varchar(50)" json:"national_id"`
	BranchID     uint         `gorm:"index" json:"branch_id"`
	Status       MemberStatus `gorm:"type:varchar(20);default:'active'" json:"status"`

	// Relationships
	Branch Branch `gorm:"foreignKey:BranchID" json:"branch,omitempty"`
	Loans  []Loan `gorm:"foreignKey:MemberID" json:"loans,omitempty"`
}
