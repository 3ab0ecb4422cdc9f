package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/intellpharma/pharmastock/internal/ai/domain"
	authdomain "github.com/intellpharma/pharmastock/internal/auth/domain"
	"github.com/intellpharma/pharmastock/internal/clock"
	entitlementdomain "github.com/intellpharma/pharmastock/internal/entitlement/domain"
	"github.com/intellpharma/pharmastock/internal/observability/metrics"
	"github.com/intellpharma/pharmastock/internal/plan"
	"github.com/intellpharma/pharmastock/internal/ratelimit"
)

const maxPromptLength = 4000

// ServiceParam is the dependency set for Service.
type ServiceParam struct {
	fx.In

	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Repo         domain.Repository
	Generator    domain.Generator
	Entitlements entitlementdomain.Service
	Limiter      ratelimit.PromptLimiter
	Metrics      *metrics.Metrics `optional:"true"`
}

type Service struct {
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	repo         domain.Repository
	generator    domain.Generator
	entitlements entitlementdomain.Service
	limiter      ratelimit.PromptLimiter
	metrics      *metrics.Metrics
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		log:          p.Log.Named("ai.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		repo:         p.Repo,
		generator:    p.Generator,
		entitlements: p.Entitlements,
		limiter:      p.Limiter,
		metrics:      p.Metrics,
	}
}

func (s *Service) Prompt(ctx context.Context, req domain.PromptRequest) (*domain.PromptResult, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" || len(prompt) > maxPromptLength {
		return nil, domain.ErrPromptEmpty
	}
	if err := s.gate(ctx, req.UserID, req.OwnerID); err != nil {
		s.record(domain.KindChat, "denied")
		return nil, err
	}

	started := s.clock.Now()
	responseText, err := s.generator.Generate(ctx, s.assistantPrompt(req, prompt))
	if err != nil {
		s.record(domain.KindChat, "error")
		return nil, err
	}
	duration := s.clock.Now().Sub(started)

	if err := s.repo.Record(ctx, &domain.PromptRecord{
		ID:        s.genID.Generate(),
		UserID:    req.UserID,
		Kind:      domain.KindChat,
		Prompt:    prompt,
		Response:  responseText,
		CreatedAt: s.clock.Now().UTC(),
	}); err != nil {
		s.log.Warn("failed to store prompt history", zap.Error(err))
	}

	s.record(domain.KindChat, "ok")
	return &domain.PromptResult{ResponseText: responseText, Duration: duration}, nil
}

func (s *Service) ParseBill(ctx context.Context, userID, ownerID snowflake.ID, text string) ([]domain.ParsedLine, error) {
	text = strings.TrimSpace(text)
	if text == "" || len(text) > maxPromptLength {
		return nil, domain.ErrPromptEmpty
	}
	if err := s.gate(ctx, userID, ownerID); err != nil {
		s.record(domain.KindParseBill, "denied")
		return nil, err
	}

	raw, err := s.generator.Generate(ctx, parseBillPrompt(text))
	if err != nil {
		s.record(domain.KindParseBill, "error")
		return nil, err
	}

	lines, err := decodeParsedLines(raw)
	if err != nil {
		s.record(domain.KindParseBill, "unparsable")
		return nil, err
	}

	if err := s.repo.Record(ctx, &domain.PromptRecord{
		ID:        s.genID.Generate(),
		UserID:    userID,
		Kind:      domain.KindParseBill,
		Prompt:    text,
		Response:  raw,
		CreatedAt: s.clock.Now().UTC(),
	}); err != nil {
		s.log.Warn("failed to store prompt history", zap.Error(err))
	}

	s.record(domain.KindParseBill, "ok")
	return lines, nil
}

func (s *Service) History(ctx context.Context, userID snowflake.ID, limit int) ([]*domain.PromptRecord, error) {
	return s.repo.ListByUser(ctx, userID, limit)
}

func (s *Service) SuggestedPrompts(role authdomain.Role) []domain.SuggestedPrompt {
	prompts, ok := suggestedPrompts[role]
	if !ok {
		return suggestedPrompts[authdomain.RoleBillingStaff]
	}
	return prompts
}

// gate enforces the tenant feature flag and the per-user rate limit.
func (s *Service) gate(ctx context.Context, userID, ownerID snowflake.ID) error {
	enabled, err := s.entitlements.IsFeatureEnabled(ctx, ownerID, plan.FeatureAI)
	if err != nil {
		return err
	}
	if !enabled {
		return entitlementdomain.ErrFeatureNotAvailable
	}

	result, err := s.limiter.Allow(ctx, userID)
	if err != nil {
		// A broken limiter should not take the assistant down.
		s.log.Warn("prompt rate limiter unavailable", zap.Error(err))
		return nil
	}
	if !result.Allowed {
		if s.metrics != nil {
			s.metrics.RecordRateLimitDenied("ai_prompt", "bucket_empty")
		}
		return domain.ErrRateLimited
	}
	if s.metrics != nil {
		s.metrics.RecordRateLimitAllowed("ai_prompt")
	}
	return nil
}

func (s *Service) record(kind domain.PromptKind, outcome string) {
	if s.metrics != nil {
		s.metrics.RecordAIPrompt(string(kind), outcome)
	}
}

func (s *Service) assistantPrompt(req domain.PromptRequest, prompt string) string {
	branch := "Global"
	if req.BranchID != 0 {
		branch = req.BranchID.String()
	}
	contextJSON := "{}"
	if len(req.Context) > 0 {
		if encoded, err := json.Marshal(req.Context); err == nil {
			contextJSON = string(encoded)
		}
	}

	return fmt.Sprintf(`You are an AI assistant for a pharmacy management system called PharmaStock.
User Role: %s
Current Branch ID: %s
Context Data: %s

Answer the user's question concisely and professionally.
If specific data is needed that isn't provided, explain what you would need.
Format lists using markdown.

User Query: %s`, req.Role, branch, contextJSON, prompt)
}

func parseBillPrompt(text string) string {
	return fmt.Sprintf(`Extract medicines/products, quantities, and prices (if available) from the following text.
Text: %q

Return ONLY a valid JSON array of objects. Each object should have:
- "name": string (product name, capitalized properly)
- "quantity": number (integer)
- "price": number (or null if not mentioned)
- "unit": string (e.g., "strip", "box", "tablet", or null)

If no products are found, return empty array [].
Do not include markdown formatting. Just the raw JSON string.`, text)
}

// decodeParsedLines tolerates models that wrap the array in a markdown
// code fence despite the instructions.
func decodeParsedLines(raw string) ([]domain.ParsedLine, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.ReplaceAll(cleaned, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	var lines []domain.ParsedLine
	if err := json.Unmarshal([]byte(cleaned), &lines); err != nil {
		return nil, domain.ErrUnparsableResponse
	}
	out := lines[:0]
	for _, line := range lines {
		line.Name = strings.TrimSpace(line.Name)
		if line.Name == "" {
			continue
		}
		if line.Quantity < 1 {
			line.Quantity = 1
		}
		out = append(out, line)
	}
	return out, nil
}

var suggestedPrompts = map[authdomain.Role][]domain.SuggestedPrompt{
	authdomain.RoleOwner: {
		{Prompt: "Show monthly P&L summary", Description: "Profit and loss overview for the current month", Category: "Finance"},
		{Prompt: "Compare branch performance", Description: "Side-by-side comparison of all branches", Category: "Analytics"},
		{Prompt: "Top 10 suppliers by purchase volume", Description: "Identify key suppliers", Category: "Inventory"},
		{Prompt: "Show GST liability for this month", Description: "CGST, SGST, and IGST totals", Category: "Tax"},
		{Prompt: "Revenue trend for last 6 months", Description: "Monthly revenue visualization", Category: "Analytics"},
	},
	authdomain.RoleManager: {
		{Prompt: "Show today's sales summary", Description: "Today's billing overview", Category: "Sales"},
		{Prompt: "Low stock items", Description: "Products below minimum stock level", Category: "Inventory"},
		{Prompt: "Pending prescriptions", Description: "Orders awaiting fulfillment", Category: "Operations"},
		{Prompt: "Staff performance today", Description: "Sales by staff member", Category: "HR"},
	},
	authdomain.RoleBillingStaff: {
		{Prompt: "Today's sales", Description: "My billing summary for today", Category: "Sales"},
		{Prompt: "Low stock medicines", Description: "Products that need reordering", Category: "Inventory"},
		{Prompt: "Recent returns", Description: "Returns processed today", Category: "Sales"},
	},
	authdomain.RoleInventoryStaff: {
		{Prompt: "Low stock alerts", Description: "Items below reorder level", Category: "Inventory"},
		{Prompt: "Expiring soon", Description: "Products expiring in 30 days", Category: "Inventory"},
		{Prompt: "Recent stock updates", Description: "Inventory changes today", Category: "Inventory"},
	},
}
