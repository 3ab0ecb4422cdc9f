// Package domain contains core types for the auth service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// User represents an owner or staff account.
type User struct {
	ID           snowflake.ID  `gorm:"primaryKey"`
	Email        string        `gorm:"column:email;type:text;not null;uniqueIndex"`
	PasswordHash string        `gorm:"column:password_hash;type:text;not null"`
	FullName     string        `gorm:"column:full_name;type:text;not null;default:''"`
	PharmacyName string        `gorm:"column:pharmacy_name;type:text;not null;default:''"`
	Role         Role          `gorm:"column:role;type:text;not null;default:'OWNER'"`
	OwnerID      *snowflake.ID `gorm:"column:owner_id;index"`
	CreatedAt    time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

// TenantOwnerID resolves the tenant boundary for a user. Staff accounts
// belong to their owner's tenant, owners to their own.
func (u *User) TenantOwnerID() snowflake.ID {
	if u.OwnerID != nil {
		return *u.OwnerID
	}
	return u.ID
}

// Session represents a persisted login session.
type Session struct {
	ID               snowflake.ID `gorm:"primaryKey"`
	UserID           snowflake.ID `gorm:"column:user_id;not null;index"`
	SessionTokenHash string       `gorm:"column:token_hash;type:text;not null;uniqueIndex"`
	ExpiresAt        time.Time    `gorm:"column:expires_at;not null;index"`
	CreatedAt        time.Time    `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Session) TableName() string { return "sessions" }
