package model

import "time"

type User struct {
	ID           string `gorm:"primaryKey"`
	Email        string `gorm:"unique;not null"`
	PasswordHash string `gorm:"not null"`

	// Plan name is resolved through plan.LimitsFor which falls back to the
	// free tier for anything it doesn't recognize
	Plan          string `gorm:"default:free"`
	PlanExpiresAt *time.Time

	Blocked bool `gorm:"default:false"`
	Admin   bool `gorm:"default:false"`

	CreatedAt time.Time

	Transfers []Transfer `gorm:"foreignKey:OwnerID"`
}
