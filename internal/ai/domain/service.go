package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"

	authdomain "github.com/intellpharma/pharmastock/internal/auth/domain"
)

type Service interface {
	// Prompt answers an assistant question. Gated by the tenant's ai
	// feature flag and the per-user rate limit.
	Prompt(ctx context.Context, req PromptRequest) (*PromptResult, error)
	// ParseBill extracts structured cart lines from free text.
	ParseBill(ctx context.Context, userID, ownerID snowflake.ID, text string) ([]ParsedLine, error)
	History(ctx context.Context, userID snowflake.ID, limit int) ([]*PromptRecord, error)
	SuggestedPrompts(role authdomain.Role) []SuggestedPrompt
}
