package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

func (s *Server) ListAuditLogs(c *gin.Context) {
	user := s.currentUser(c)

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		limit = parsed
	}

	logs, err := s.auditSvc.List(c.Request.Context(), user.TenantOwnerID(), limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	out := make([]gin.H, 0, len(logs))
	for _, entry := range logs {
		row := gin.H{
			"id":            entry.ID.String(),
			"actor_id":      entry.ActorID.String(),
			"action":        entry.Action,
			"resource_type": entry.ResourceType,
			"resource_id":   entry.ResourceID,
			"created_at":    entry.CreatedAt.Format(time.RFC3339),
		}
		if len(entry.Detail) > 0 {
			row["detail"] = map[string]any(entry.Detail)
		}
		out = append(out, row)
	}
	c.JSON(http.StatusOK, gin.H{"logs": out})
}
