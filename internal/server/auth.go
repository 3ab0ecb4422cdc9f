package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	auditdomain "github.com/intellpharma/pharmastock/internal/audit/domain"
	authdomain "github.com/intellpharma/pharmastock/internal/auth/domain"
)

type RegisterRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	FullName     string `json:"full_name"`
	PharmacyName string `json:"pharmacy_name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type CreateStaffRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

type userResponse struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	FullName     string `json:"full_name"`
	PharmacyName string `json:"pharmacy_name,omitempty"`
	Role         string `json:"role"`
}

func toUserResponse(user *authdomain.User) userResponse {
	return userResponse{
		ID:           user.ID.String(),
		Email:        user.Email,
		FullName:     user.FullName,
		PharmacyName: user.PharmacyName,
		Role:         string(user.Role),
	}
}

func (s *Server) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	user, err := s.authSvc.Register(c.Request.Context(), authdomain.RegisterRequest{
		Email:        req.Email,
		Password:     req.Password,
		FullName:     req.FullName,
		PharmacyName: req.PharmacyName,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	// Every tenant starts on the free plan.
	if _, err := s.entitlementSvc.EnsureFree(c.Request.Context(), user.ID); err != nil {
		s.log.Warn("failed to seed free entitlement", zap.Error(err))
	}

	s.auditSvc.Log(c.Request.Context(), auditdomain.Entry{
		OwnerID:      user.ID,
		ActorID:      user.ID,
		Action:       "user.registered",
		ResourceType: "user",
		ResourceID:   user.ID.String(),
	})

	c.JSON(http.StatusCreated, toUserResponse(user))
}

func (s *Server) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	result, err := s.authSvc.Login(c.Request.Context(), authdomain.LoginRequest{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.setSessionCookie(c, result.RawToken, result.ExpiresAt)

	s.auditSvc.Log(c.Request.Context(), auditdomain.Entry{
		OwnerID:      result.User.TenantOwnerID(),
		ActorID:      result.User.ID,
		Action:       "user.login",
		ResourceType: "user",
		ResourceID:   result.User.ID.String(),
	})

	c.JSON(http.StatusOK, toUserResponse(result.User))
}

func (s *Server) Logout(c *gin.Context) {
	token, err := c.Cookie(sessionCookieName)
	if err == nil && token != "" {
		if err := s.authSvc.Logout(c.Request.Context(), token); err != nil {
			s.log.Debug("logout with invalid session", zap.Error(err))
		}
	}
	s.clearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) Me(c *gin.Context) {
	user := s.currentUser(c)
	if user == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

func (s *Server) ChangePassword(c *gin.Context) {
	user := s.currentUser(c)
	if user == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if err := s.authSvc.ChangePassword(c.Request.Context(), user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditSvc.Log(c.Request.Context(), auditdomain.Entry{
		OwnerID:      user.TenantOwnerID(),
		ActorID:      user.ID,
		Action:       "user.password_changed",
		ResourceType: "user",
		ResourceID:   user.ID.String(),
	})

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) CreateStaff(c *gin.Context) {
	user := s.currentUser(c)
	var req CreateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	role, ok := authdomain.ParseRole(req.Role)
	if !ok {
		AbortWithError(c, authdomain.ErrInvalidRole)
		return
	}

	staff, err := s.authSvc.CreateStaff(c.Request.Context(), user.TenantOwnerID(), authdomain.CreateStaffRequest{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Role:     role,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditSvc.Log(c.Request.Context(), auditdomain.Entry{
		OwnerID:      user.TenantOwnerID(),
		ActorID:      user.ID,
		Action:       "staff.created",
		ResourceType: "user",
		ResourceID:   staff.ID.String(),
		Metadata:     map[string]any{"role": string(staff.Role)},
	})

	c.JSON(http.StatusCreated, toUserResponse(staff))
}

func (s *Server) ListStaff(c *gin.Context) {
	user := s.currentUser(c)
	staff, err := s.authSvc.ListStaff(c.Request.Context(), user.TenantOwnerID())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	out := make([]userResponse, 0, len(staff))
	for _, member := range staff {
		out = append(out, toUserResponse(member))
	}
	c.JSON(http.StatusOK, gin.H{"staff": out})
}

func (s *Server) RemoveStaff(c *gin.Context) {
	user := s.currentUser(c)
	staffID, err := parseID(c.Param("staffId"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if err := s.authSvc.RemoveStaff(c.Request.Context(), user.TenantOwnerID(), staffID); err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditSvc.Log(c.Request.Context(), auditdomain.Entry{
		OwnerID:      user.TenantOwnerID(),
		ActorID:      user.ID,
		Action:       "staff.removed",
		ResourceType: "user",
		ResourceID:   staffID.String(),
	})

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) setSessionCookie(c *gin.Context, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookieName, token, maxAge, "/", "", s.cfg.AuthCookieSecure, true)
}

func (s *Server) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookieName, "", -1, "/", "", s.cfg.AuthCookieSecure, true)
}
