// Package domain contains branch and staff membership types.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"

	authdomain "github.com/intellpharma/pharmastock/internal/auth/domain"
)

// Branch is a physical pharmacy location owned by a tenant.
type Branch struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	OwnerID   snowflake.ID `gorm:"column:owner_id;not null;index"`
	Name      string       `gorm:"column:name;type:text;not null"`
	Address   string       `gorm:"column:address;type:text;not null;default:''"`
	Phone     string       `gorm:"column:phone;type:text;not null;default:''"`
	GSTIN     string       `gorm:"column:gstin;type:text;not null;default:''"`
	StateCode string       `gorm:"column:state_code;type:text;not null;default:''"`
	Active    bool         `gorm:"column:active;not null;default:true"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Branch) TableName() string { return "branches" }

// StaffMember assigns a user to a branch with a working role.
type StaffMember struct {
	ID        snowflake.ID    `gorm:"primaryKey"`
	BranchID  snowflake.ID    `gorm:"column:branch_id;not null;uniqueIndex:idx_branch_staff_member"`
	UserID    snowflake.ID    `gorm:"column:user_id;not null;uniqueIndex:idx_branch_staff_member"`
	Role      authdomain.Role `gorm:"column:role;type:text;not null"`
	CreatedAt time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (StaffMember) TableName() string { return "branch_staff" }
