package models

import (
	"time"

	"gorm.io/gorm"
)

// Branch represents a Sacco branch office
type Branch struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Name    string `gorm:"type:varchar(255)" json:"name"`
	Code    string `gorm:"type:varchar(20);uniqueIndex" json:"code"`
	Phone   string `gorm:"type:varchar(50)" json:"phone"`
	Address string `gorm:"type:varchar(255)" json:"address"`

	// Relationships
	Members []Member `gorm:"foreignKey:BranchID" json:"members,omitempty"`
}
