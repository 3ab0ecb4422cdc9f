package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	auditdomain "github.com/intellpharma/pharmastock/internal/audit/domain"
	authdomain "github.com/intellpharma/pharmastock/internal/auth/domain"
	branchdomain "github.com/intellpharma/pharmastock/internal/branch/domain"
)

type CreateBranchRequest struct {
	Name      string `json:"name"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
	GSTIN     string `json:"gstin"`
	StateCode string `json:"state_code"`
}

type UpdateBranchRequest struct {
	Name      *string `json:"name"`
	Address   *string `json:"address"`
	Phone     *string `json:"phone"`
	GSTIN     *string `json:"gstin"`
	StateCode *string `json:"state_code"`
}

type AssignStaffRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

type branchResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	GSTIN     string    `json:"gstin,omitempty"`
	StateCode string    `json:"state_code,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

func toBranchResponse(branch *branchdomain.Branch) branchResponse {
	return branchResponse{
		ID:        branch.ID.String(),
		Name:      branch.Name,
		Address:   branch.Address,
		Phone:     branch.Phone,
		GSTIN:     branch.GSTIN,
		StateCode: branch.StateCode,
		Active:    branch.Active,
		CreatedAt: branch.CreatedAt,
	}
}

func (s *Server) CreateBranch(c *gin.Context) {
	user := s.currentUser(c)
	var req CreateBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	branch, err := s.branchSvc.CreateBranch(c.Request.Context(), user.TenantOwnerID(), branchdomain.CreateBranchRequest{
		Name:      req.Name,
		Address:   req.Address,
		Phone:     req.Phone,
		GSTIN:     req.GSTIN,
		StateCode: req.StateCode,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditSvc.Log(c.Request.Context(), auditdomain.Entry{
		OwnerID:      user.TenantOwnerID(),
		ActorID:      user.ID,
		Action:       "branch.created",
		ResourceType: "branch",
		ResourceID:   branch.ID.String(),
		Metadata:     map[string]any{"name": branch.Name},
	})

	c.JSON(http.StatusCreated, toBranchResponse(branch))
}

func (s *Server) ListBranches(c *gin.Context) {
	user := s.currentUser(c)
	branches, err := s.branchSvc.ListBranches(c.Request.Context(), user.TenantOwnerID())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	out := make([]branchResponse, 0, len(branches))
	for _, branch := range branches {
		out = append(out, toBranchResponse(branch))
	}
	c.JSON(http.StatusOK, gin.H{"branches": out})
}

func (s *Server) GetBranch(c *gin.Context) {
	branch := s.currentBranch(c)
	if branch == nil {
		AbortWithError(c, branchdomain.ErrBranchNotFound)
		return
	}
	c.JSON(http.StatusOK, toBranchResponse(branch))
}

func (s *Server) UpdateBranch(c *gin.Context) {
	user := s.currentUser(c)
	branch := s.currentBranch(c)
	var req UpdateBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	updated, err := s.branchSvc.UpdateBranch(c.Request.Context(), user.TenantOwnerID(), branch.ID, branchdomain.UpdateBranchRequest{
		Name:      req.Name,
		Address:   req.Address,
		Phone:     req.Phone,
		GSTIN:     req.GSTIN,
		StateCode: req.StateCode,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditSvc.Log(c.Request.Context(), auditdomain.Entry{
		OwnerID:      user.TenantOwnerID(),
		ActorID:      user.ID,
		Action:       "branch.updated",
		ResourceType: "branch",
		ResourceID:   branch.ID.String(),
	})

	c.JSON(http.StatusOK, toBranchResponse(updated))
}

func (s *Server) DeactivateBranch(c *gin.Context) {
	user := s.currentUser(c)
	branch := s.currentBranch(c)

	if err := s.branchSvc.DeactivateBranch(c.Request.Context(), user.TenantOwnerID(), branch.ID); err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditSvc.Log(c.Request.Context(), auditdomain.Entry{
		OwnerID:      user.TenantOwnerID(),
		ActorID:      user.ID,
		Action:       "branch.deactivated",
		ResourceType: "branch",
		ResourceID:   branch.ID.String(),
	})

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) AssignBranchStaff(c *gin.Context) {
	user := s.currentUser(c)
	branch := s.currentBranch(c)

	var req AssignStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	staffID, err := parseID(req.UserID)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	role, ok := authdomain.ParseRole(req.Role)
	if !ok {
		AbortWithError(c, authdomain.ErrInvalidRole)
		return
	}

	member, err := s.branchSvc.AssignStaff(c.Request.Context(), user.TenantOwnerID(), branch.ID, staffID, role)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditSvc.Log(c.Request.Context(), auditdomain.Entry{
		OwnerID:      user.TenantOwnerID(),
		ActorID:      user.ID,
		Action:       "branch.staff_assigned",
		ResourceType: "branch",
		ResourceID:   branch.ID.String(),
		Metadata:     map[string]any{"user_id": staffID.String(), "role": string(role)},
	})

	c.JSON(http.StatusCreated, gin.H{
		"branch_id": member.BranchID.String(),
		"user_id":   member.UserID.String(),
		"role":      string(member.Role),
	})
}

func (s *Server) ListBranchStaff(c *gin.Context) {
	user := s.currentUser(c)
	branch := s.currentBranch(c)

	members, err := s.branchSvc.ListStaff(c.Request.Context(), user.TenantOwnerID(), branch.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	out := make([]gin.H, 0, len(members))
	for _, member := range members {
		out = append(out, gin.H{
			"user_id": member.UserID.String(),
			"role":    string(member.Role),
		})
	}
	c.JSON(http.StatusOK, gin.H{"staff": out})
}

func (s *Server) RemoveBranchStaff(c *gin.Context) {
	user := s.currentUser(c)
	branch := s.currentBranch(c)
	staffID, err := parseID(c.Param("userId"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if err := s.branchSvc.RemoveStaff(c.Request.Context(), user.TenantOwnerID(), branch.ID, staffID); err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditSvc.Log(c.Request.Context(), auditdomain.Entry{
		OwnerID:      user.TenantOwnerID(),
		ActorID:      user.ID,
		Action:       "branch.staff_removed",
		ResourceType: "branch",
		ResourceID:   branch.ID.String(),
		Metadata:     map[string]any{"user_id": staffID.String()},
	})

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
