package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Invoice, error)
	ListByBranch(ctx context.Context, db *gorm.DB, branchID snowflake.ID, limit int, before *time.Time) ([]*Invoice, error)
	// NextSequence returns the next per-branch invoice sequence number.
	NextSequence(ctx context.Context, db *gorm.DB, branchID snowflake.ID) (int64, error)
	Summarize(ctx context.Context, db *gorm.DB, branchID snowflake.ID, from, to time.Time) (*GSTSummary, error)
}
