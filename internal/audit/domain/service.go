package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// Log appends an entry. Failures are logged, never surfaced, so
	// auditing cannot fail the mutation it describes.
	Log(ctx context.Context, entry Entry)
	List(ctx context.Context, ownerID snowflake.ID, limit int) ([]*AuditLog, error)
}
