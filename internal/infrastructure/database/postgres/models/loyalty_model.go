package models

import (
	"time"
)

// LoyaltyAccountModel represents the database model for XS loyalty accounts.
type LoyaltyAccountModel struct {
	CardNumber         string    `gorm:"type:varchar(255);primary_key"`
	Tier               string    `gorm:"type:varchar(20);not null;default:'bronze'"`
	Points             int       `gorm:"type:integer;not null;default:0"`
	ConsecutiveReturns int       `gorm:"type:integer;not null;default:0"`
	TotalReturns       int       `gorm:"type:integer;not null;default:0"`
	Active             bool      `gorm:"type:boolean;not null;default:true"`
	BlockReason        *string   `gorm:"type:text"`
	CreatedAt          time.Time `gorm:"not null"`
	UpdatedAt          time.Time `gorm:"not null"`
}

func (LoyaltyAccountModel) TableName() string {
	return "loyalty_accounts"
}
