// Package server wires every domain service into the HTTP API.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"

	aidomain "github.com/intellpharma/pharmastock/internal/ai/domain"
	auditdomain "github.com/intellpharma/pharmastock/internal/audit/domain"
	authdomain "github.com/intellpharma/pharmastock/internal/auth/domain"
	billingdomain "github.com/intellpharma/pharmastock/internal/billing/domain"
	branchdomain "github.com/intellpharma/pharmastock/internal/branch/domain"
	"github.com/intellpharma/pharmastock/internal/config"
	entitlementdomain "github.com/intellpharma/pharmastock/internal/entitlement/domain"
	inventorydomain "github.com/intellpharma/pharmastock/internal/inventory/domain"
	"github.com/intellpharma/pharmastock/internal/observability"
	obslogger "github.com/intellpharma/pharmastock/internal/observability/logger"
	obsmetrics "github.com/intellpharma/pharmastock/internal/observability/metrics"
	paymentdomain "github.com/intellpharma/pharmastock/internal/payment/domain"
	"github.com/intellpharma/pharmastock/internal/plan"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, m *obsmetrics.Metrics) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obsmetrics.GinMiddleware(m))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", m.Handler())

	return r
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine         *gin.Engine
	cfg            config.Config
	log            *zap.Logger
	genID          *snowflake.Node
	catalog        *plan.Catalog
	authSvc        authdomain.Service
	branchSvc      branchdomain.Service
	inventorySvc   inventorydomain.Service
	billingSvc     billingdomain.Service
	entitlementSvc entitlementdomain.Service
	paymentSvc     paymentdomain.Service
	aiSvc          aidomain.Service
	auditSvc       auditdomain.Service
}

type ServerParams struct {
	fx.In

	Gin            *gin.Engine
	Cfg            config.Config
	Log            *zap.Logger
	GenID          *snowflake.Node
	Catalog        *plan.Catalog
	AuthSvc        authdomain.Service
	BranchSvc      branchdomain.Service
	InventorySvc   inventorydomain.Service
	BillingSvc     billingdomain.Service
	EntitlementSvc entitlementdomain.Service
	PaymentSvc     paymentdomain.Service
	AISvc          aidomain.Service
	AuditSvc       auditdomain.Service
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:         p.Gin,
		cfg:            p.Cfg,
		log:            p.Log.Named("http.server"),
		genID:          p.GenID,
		catalog:        p.Catalog,
		authSvc:        p.AuthSvc,
		branchSvc:      p.BranchSvc,
		inventorySvc:   p.InventorySvc,
		billingSvc:     p.BillingSvc,
		entitlementSvc: p.EntitlementSvc,
		paymentSvc:     p.PaymentSvc,
		aiSvc:          p.AISvc,
		auditSvc:       p.AuditSvc,
	}

	s.registerRoutes()
	return s
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerRoutes() {
	api := s.engine.Group("/api/v1")

	auth := api.Group("/auth")
	{
		auth.POST("/register", s.Register)
		auth.POST("/login", s.Login)
		auth.POST("/logout", s.Logout)
		auth.GET("/me", s.AuthRequired(), s.Me)
		auth.POST("/change-password", s.AuthRequired(), s.ChangePassword)
	}

	staff := api.Group("/staff", s.AuthRequired(), s.RequireCapability(authdomain.CapManageStaff))
	{
		staff.POST("", s.CreateStaff)
		staff.GET("", s.ListStaff)
		staff.DELETE("/:staffId", s.RemoveStaff)
	}

	branches := api.Group("/branches", s.AuthRequired())
	{
		branches.POST("", s.RequireCapability(authdomain.CapManageBranches), s.CreateBranch)
		branches.GET("", s.ListBranches)
		branches.GET("/:branchId", s.RequireBranchAccess(), s.GetBranch)
		branches.PATCH("/:branchId", s.RequireCapability(authdomain.CapManageBranches), s.RequireBranchAccess(), s.UpdateBranch)
		branches.DELETE("/:branchId", s.RequireCapability(authdomain.CapManageBranches), s.RequireBranchAccess(), s.DeactivateBranch)

		branches.POST("/:branchId/staff", s.RequireCapability(authdomain.CapManageStaff), s.RequireBranchAccess(), s.AssignBranchStaff)
		branches.GET("/:branchId/staff", s.RequireBranchAccess(), s.ListBranchStaff)
		branches.DELETE("/:branchId/staff/:userId", s.RequireCapability(authdomain.CapManageStaff), s.RequireBranchAccess(), s.RemoveBranchStaff)

		products := branches.Group("/:branchId/products", s.RequireBranchAccess())
		{
			products.POST("", s.RequireCapability(authdomain.CapManageInventory), s.CreateProduct)
			products.GET("", s.RequireCapability(authdomain.CapViewInventory), s.ListProducts)
			products.GET("/:productId", s.RequireCapability(authdomain.CapViewInventory), s.GetProduct)
			products.PATCH("/:productId", s.RequireCapability(authdomain.CapManageInventory), s.UpdateProduct)
			products.DELETE("/:productId", s.RequireCapability(authdomain.CapManageInventory), s.DeleteProduct)
			products.POST("/:productId/batches", s.RequireCapability(authdomain.CapManageInventory), s.AddBatch)
			products.GET("/:productId/batches", s.RequireCapability(authdomain.CapViewInventory), s.ListBatches)
		}

		stock := branches.Group("/:branchId/stock", s.RequireBranchAccess())
		{
			stock.POST("/batches/:batchId/adjust", s.RequireCapability(authdomain.CapManageInventory), s.AdjustStock)
			stock.GET("/low", s.RequireCapability(authdomain.CapViewInventory), s.LowStock)
			stock.GET("/expiring", s.RequireCapability(authdomain.CapViewInventory), s.ExpiringStock)
		}

		invoices := branches.Group("/:branchId/invoices", s.RequireBranchAccess())
		{
			invoices.POST("", s.RequireCapability(authdomain.CapCreateInvoices), s.CreateInvoice)
			invoices.GET("", s.RequireCapability(authdomain.CapViewInvoices), s.ListInvoices)
			invoices.GET("/:invoiceId", s.RequireCapability(authdomain.CapViewInvoices), s.GetInvoice)
			invoices.GET("/:invoiceId/receipt", s.RequireCapability(authdomain.CapViewInvoices), s.InvoiceReceipt)
		}

		branches.GET("/:branchId/gst-summary",
			s.RequireCapability(authdomain.CapViewAnalytics),
			s.RequireBranchAccess(),
			s.RequireFeature(plan.FeatureAnalytics),
			s.GSTSummary)
	}

	subscription := api.Group("/subscription", s.AuthRequired())
	{
		subscription.GET("/plans", s.ListPlans)
		subscription.GET("", s.GetSubscription)
		subscription.POST("/checkout", s.RequireCapability(authdomain.CapManageSubscription), s.StartCheckout)
		subscription.POST("/verify", s.RequireCapability(authdomain.CapManageSubscription), s.VerifyCheckout)
		subscription.POST("/refresh", s.RequireCapability(authdomain.CapManageSubscription), s.RefreshSubscription)
		subscription.POST("/portal", s.RequireCapability(authdomain.CapManageSubscription), s.BillingPortal)
	}

	// Webhooks authenticate with the provider signature, not a session.
	api.POST("/payments/webhooks/:provider", s.HandlePaymentWebhook)

	ai := api.Group("/ai", s.AuthRequired(), s.RequireCapability(authdomain.CapUseAI), s.RequireFeature(plan.FeatureAI))
	{
		ai.POST("/prompt", s.AIPrompt)
		ai.POST("/parse-bill", s.AIParseBill)
		ai.GET("/prompt-history", s.AIPromptHistory)
		ai.GET("/suggested-prompts", s.AISuggestedPrompts)
	}

	api.GET("/audit-logs", s.AuthRequired(), s.RequireCapability(authdomain.CapManageStaff), s.ListAuditLogs)
}
