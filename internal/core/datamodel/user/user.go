package user

import (
	"fmt"
	"time"

	"github.com/frahmantamala/campaign-management/internal/core/common/validation"
	"gorm.io/gorm"
)

type User struct {
	ID            int64      `gorm:"primaryKey"`
	FirstName     string     `gorm:"column:first_name;not null"`
	LastName      string     `gorm:"column:last_name"`
	Email         string     `gorm:"column:email;uniqueIndex;not null"`
	PasswordHash  string     `gorm:"column:password_hash;not null"`
	PhoneNumber   string     `gorm:"column:phone_number"`
	PANCardNumber string     `gorm:"column:pan_card_number;uniqueIndex;size:10;not null"`
	Role          string     `gorm:"column:role;not null"`
	IsVerified    bool       `gorm:"column:is_verified"`
	LastLogin     *time.Time `gorm:"column:last_login"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

// BeforeSave keeps pan_card_number normalized and well formed.
func (u *User) BeforeSave(tx *gorm.DB) error {
	u.PANCardNumber = validation.NormalizePAN(u.PANCardNumber)
	if !validation.IsValidPAN(u.PANCardNumber) {
		return fmt.Errorf("invalid pan card number %q", u.PANCardNumber)
	}
	if u.Role == "" {
		u.Role = "citizen"
	}
	return nil
}
