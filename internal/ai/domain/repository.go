package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	Record(ctx context.Context, record *PromptRecord) error
	ListByUser(ctx context.Context, userID snowflake.ID, limit int) ([]*PromptRecord, error)
}
