package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	Get(ctx context.Context, ownerID snowflake.ID) (*Entitlement, error)
	Upsert(ctx context.Context, record *Entitlement) error
	ListForPoll(ctx context.Context, before time.Time) ([]*Entitlement, error)
	LapseExpired(ctx context.Context, cutoff time.Time) (int64, error)

	InsertGrant(ctx context.Context, grant *Grant) (inserted bool, err error)
	SumGrants(ctx context.Context, ownerID snowflake.ID) (int, error)
	DeleteGrants(ctx context.Context, ownerID snowflake.ID) error
}
