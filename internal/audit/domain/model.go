// Package domain contains the append-only audit log types.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// AuditLog is one recorded mutation, scoped to a tenant owner.
type AuditLog struct {
	ID           snowflake.ID `gorm:"primaryKey"`
	OwnerID      snowflake.ID `gorm:"column:owner_id;not null;index:idx_audit_logs_owner_created"`
	ActorID      snowflake.ID `gorm:"column:actor_id;not null"`
	Action       string       `gorm:"column:action;type:text;not null"`
	ResourceType string       `gorm:"column:resource_type;type:text;not null"`
	ResourceID   string       `gorm:"column:resource_id;type:text;not null;default:''"`
	// Detail holds a small JSON object describing the change.
	Detail    datatypes.JSONMap `gorm:"column:detail;type:jsonb;not null;default:'{}'"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;index:idx_audit_logs_owner_created"`
}

// TableName sets the database table name.
func (AuditLog) TableName() string { return "audit_logs" }

// Entry is the write-side input. Metadata becomes the Detail column.
type Entry struct {
	OwnerID      snowflake.ID
	ActorID      snowflake.ID
	Action       string
	ResourceType string
	ResourceID   string
	Metadata     map[string]any
}
