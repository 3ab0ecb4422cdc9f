package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	Insert(ctx context.Context, record *AuditLog) error
	ListByOwner(ctx context.Context, ownerID snowflake.ID, limit int) ([]*AuditLog, error)
}
