package server

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	auditdomain "github.com/intellpharma/pharmastock/internal/audit/domain"
	paymentdomain "github.com/intellpharma/pharmastock/internal/payment/domain"
	"github.com/intellpharma/pharmastock/internal/plan"
)

const webhookBodyLimit = 64 << 10

type StartCheckoutRequest struct {
	Purpose  string `json:"purpose"`
	Tier     string `json:"tier"`
	Quantity int    `json:"quantity"`
}

type VerifyCheckoutRequest struct {
	SessionID string `json:"session_id"`
}

type BillingPortalRequest struct {
	ReturnURL string `json:"return_url"`
}

func (s *Server) ListPlans(c *gin.Context) {
	tiers := s.catalog.Tiers()
	plans := make([]plan.Plan, 0, len(tiers))
	for _, tier := range tiers {
		if p, ok := s.catalog.Get(tier); ok {
			plans = append(plans, p)
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"plans":              plans,
		"extra_branch_price": s.catalog.ExtraBranchPrice(),
	})
}

func (s *Server) GetSubscription(c *gin.Context) {
	user := s.currentUser(c)
	ownerID := user.TenantOwnerID()

	ent, err := s.entitlementSvc.EnsureFree(c.Request.Context(), ownerID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	limit, err := s.entitlementSvc.BranchLimit(c.Request.Context(), ownerID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp := gin.H{
		"tier":           string(ent.Tier),
		"status":         string(ent.Status),
		"extra_branches": ent.ExtraBranches,
		"branch_limit":   limit,
		"auto_renew":     ent.AutoRenew,
	}
	if ent.CurrentPeriodEnd != nil {
		resp["current_period_end"] = ent.CurrentPeriodEnd.Format(time.RFC3339)
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) StartCheckout(c *gin.Context) {
	user := s.currentUser(c)

	var req StartCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	purpose := paymentdomain.CheckoutPurpose(req.Purpose)
	if purpose == "" {
		purpose = paymentdomain.PurposePlan
	}

	checkout := paymentdomain.StartCheckoutRequest{
		OwnerID:    user.TenantOwnerID(),
		Email:      user.Email,
		Purpose:    purpose,
		Quantity:   req.Quantity,
		SuccessURL: s.cfg.ClientURL + "/settings/billing?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  s.cfg.ClientURL + "/settings/billing",
	}
	if purpose == paymentdomain.PurposePlan {
		tier, ok := plan.ParseTier(req.Tier)
		if !ok {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		checkout.Tier = tier
	}

	session, err := s.paymentSvc.StartCheckout(c.Request.Context(), checkout)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditSvc.Log(c.Request.Context(), auditdomain.Entry{
		OwnerID:      user.TenantOwnerID(),
		ActorID:      user.ID,
		Action:       "subscription.checkout_started",
		ResourceType: "checkout_session",
		ResourceID:   session.ID,
		Metadata:     map[string]any{"purpose": string(purpose), "tier": req.Tier},
	})

	c.JSON(http.StatusOK, gin.H{"session_id": session.ID, "url": session.URL})
}

func (s *Server) VerifyCheckout(c *gin.Context) {
	user := s.currentUser(c)

	var req VerifyCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.SessionID == "" {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if err := s.paymentSvc.VerifySession(c.Request.Context(), user.TenantOwnerID(), req.SessionID); err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditSvc.Log(c.Request.Context(), auditdomain.Entry{
		OwnerID:      user.TenantOwnerID(),
		ActorID:      user.ID,
		Action:       "subscription.checkout_verified",
		ResourceType: "checkout_session",
		ResourceID:   req.SessionID,
	})

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) RefreshSubscription(c *gin.Context) {
	user := s.currentUser(c)

	if err := s.paymentSvc.RefreshSubscription(c.Request.Context(), user.TenantOwnerID()); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) BillingPortal(c *gin.Context) {
	user := s.currentUser(c)

	var req BillingPortalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	url, err := s.paymentSvc.PortalURL(c.Request.Context(), user.TenantOwnerID(), req.ReturnURL)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// HandlePaymentWebhook is unauthenticated. The provider signature in
// the request headers is the only credential.
func (s *Server) HandlePaymentWebhook(c *gin.Context) {
	if c.Param("provider") != s.cfg.Payment.Provider {
		AbortWithError(c, ErrNotFound)
		return
	}

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, webhookBodyLimit+1))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if err := s.paymentSvc.HandleWebhook(c.Request.Context(), payload, c.Request.Header); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
