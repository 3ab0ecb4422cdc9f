package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	aidomain "github.com/intellpharma/pharmastock/internal/ai/domain"
)

type AIPromptRequest struct {
	Prompt   string         `json:"prompt"`
	BranchID string         `json:"branch_id"`
	Context  map[string]any `json:"context"`
}

type AIParseBillRequest struct {
	Text string `json:"text"`
}

func (s *Server) AIPrompt(c *gin.Context) {
	user := s.currentUser(c)

	var req AIPromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	prompt := aidomain.PromptRequest{
		UserID:  user.ID,
		OwnerID: user.TenantOwnerID(),
		Role:    user.Role,
		Context: req.Context,
		Prompt:  req.Prompt,
	}
	if req.BranchID != "" {
		branchID, err := parseID(req.BranchID)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		prompt.BranchID = branchID
	}

	result, err := s.aiSvc.Prompt(c.Request.Context(), prompt)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"response":    result.ResponseText,
		"duration_ms": result.Duration.Milliseconds(),
	})
}

func (s *Server) AIParseBill(c *gin.Context) {
	user := s.currentUser(c)

	var req AIParseBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	lines, err := s.aiSvc.ParseBill(c.Request.Context(), user.ID, user.TenantOwnerID(), req.Text)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lines": lines})
}

func (s *Server) AIPromptHistory(c *gin.Context) {
	user := s.currentUser(c)

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		limit = parsed
	}

	records, err := s.aiSvc.History(c.Request.Context(), user.ID, limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	out := make([]gin.H, 0, len(records))
	for _, rec := range records {
		out = append(out, gin.H{
			"id":         rec.ID.String(),
			"kind":       string(rec.Kind),
			"prompt":     rec.Prompt,
			"response":   rec.Response,
			"created_at": rec.CreatedAt.Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, gin.H{"history": out})
}

func (s *Server) AISuggestedPrompts(c *gin.Context) {
	user := s.currentUser(c)
	c.JSON(http.StatusOK, gin.H{"prompts": s.aiSvc.SuggestedPrompts(user.Role)})
}
