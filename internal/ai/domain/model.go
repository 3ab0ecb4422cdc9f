// Package domain contains the AI assistant types.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"

	authdomain "github.com/intellpharma/pharmastock/internal/auth/domain"
)

// PromptKind distinguishes assistant chat from bill parsing.
type PromptKind string

const (
	KindChat      PromptKind = "CHAT"
	KindParseBill PromptKind = "PARSE_BILL"
)

// PromptRecord is one stored prompt and its response.
type PromptRecord struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	UserID    snowflake.ID `gorm:"column:user_id;not null;index:idx_ai_prompts_user_created"`
	Kind      PromptKind   `gorm:"column:kind;type:text;not null;default:'CHAT'"`
	Prompt    string       `gorm:"column:prompt;type:text;not null"`
	Response  string       `gorm:"column:response;type:text;not null;default:''"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP;index:idx_ai_prompts_user_created"`
}

// TableName sets the database table name.
func (PromptRecord) TableName() string { return "ai_prompts" }

// ParsedLine is one product extracted from free bill text.
type ParsedLine struct {
	Name     string           `json:"name"`
	Quantity int              `json:"quantity"`
	Price    *decimal.Decimal `json:"price"`
	Unit     string           `json:"unit"`
}

// SuggestedPrompt is a canned starter prompt shown in the client.
type SuggestedPrompt struct {
	Prompt      string `json:"prompt"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// PromptRequest carries an assistant question with its tenant context.
type PromptRequest struct {
	UserID  snowflake.ID
	OwnerID snowflake.ID
	Role    authdomain.Role
	// BranchID is zero when the question is not branch scoped.
	BranchID snowflake.ID
	Context  map[string]any
	Prompt   string
}

// PromptResult is the assistant's answer.
type PromptResult struct {
	ResponseText string
	Duration     time.Duration
}

// Generator is the provider-facing text generation interface.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
