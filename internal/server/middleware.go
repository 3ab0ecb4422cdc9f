package server

import (
	"strings"

	"github.com/gin-gonic/gin"

	authdomain "github.com/intellpharma/pharmastock/internal/auth/domain"
	branchdomain "github.com/intellpharma/pharmastock/internal/branch/domain"
	"github.com/intellpharma/pharmastock/internal/plan"
	"github.com/intellpharma/pharmastock/internal/tenantctx"

	"github.com/bwmarrin/snowflake"
)

const (
	sessionCookieName = "ps_session"
	contextUserKey    = "auth_user"
	contextBranchKey  = "branch"
)

// AuthRequired resolves the session cookie to a user and stores the
// user plus tenant identity on the request context.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(sessionCookieName)
		if err != nil || strings.TrimSpace(token) == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		user, err := s.authSvc.Authenticate(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		ctx := tenantctx.WithUser(c.Request.Context(), user.ID)
		ctx = tenantctx.WithRole(ctx, string(user.Role))
		ctx = tenantctx.WithTenant(ctx, user.TenantOwnerID())
		c.Request = c.Request.WithContext(ctx)
		c.Set(contextUserKey, user)
		c.Next()
	}
}

// RequireCapability gates a route on the authenticated user's role.
func (s *Server) RequireCapability(cap authdomain.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := s.currentUser(c)
		if user == nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if !user.Role.Can(cap) {
			AbortWithError(c, ErrForbidden)
			return
		}
		c.Next()
	}
}

// RequireBranchAccess resolves the :branchId parameter and checks the
// user may act on that branch. The branch is stored on the context.
func (s *Server) RequireBranchAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := s.currentUser(c)
		if user == nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		branchID, err := parseID(c.Param("branchId"))
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}

		branch, err := s.branchSvc.Authorize(c.Request.Context(), user, branchID)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.Set(contextBranchKey, branch)
		c.Next()
	}
}

// RequireFeature gates a route on the tenant's subscription features.
func (s *Server) RequireFeature(feature plan.Feature) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := s.currentUser(c)
		if user == nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		enabled, err := s.entitlementSvc.IsFeatureEnabled(c.Request.Context(), user.TenantOwnerID(), feature)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if !enabled {
			AbortWithError(c, ErrForbidden)
			return
		}
		c.Next()
	}
}

func (s *Server) currentUser(c *gin.Context) *authdomain.User {
	value, ok := c.Get(contextUserKey)
	if !ok {
		return nil
	}
	user, ok := value.(*authdomain.User)
	if !ok {
		return nil
	}
	return user
}

func (s *Server) currentBranch(c *gin.Context) *branchdomain.Branch {
	value, ok := c.Get(contextBranchKey)
	if !ok {
		return nil
	}
	branch, ok := value.(*branchdomain.Branch)
	if !ok {
		return nil
	}
	return branch
}

func parseID(raw string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(raw))
}
