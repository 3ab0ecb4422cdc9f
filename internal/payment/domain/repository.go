package domain

import "context"

type Repository interface {
	// RecordEvent stores a received webhook event. It returns false when
	// the provider event ID was already recorded.
	RecordEvent(ctx context.Context, event *WebhookEvent) (bool, error)
	ListEvents(ctx context.Context, limit int) ([]*WebhookEvent, error)
	// PurgeOld deletes processed events older than the retention window.
	PurgeOld(ctx context.Context, keepDays int) (int64, error)
}
