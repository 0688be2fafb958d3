package entity

import "time"

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// UserToken holds an OAuth access token at rest. The token itself is
// sealed before it reaches the store.
type UserToken struct {
	ID             uint   `gorm:"primaryKey"`
	UserID         string `gorm:"size:64;uniqueIndex;not null"`
	EncryptedToken string `gorm:"type:text;not null"`
	Role           Role   `gorm:"size:16;not null"`
	CreatedAt      time.Time
}
