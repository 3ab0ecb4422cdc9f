package migration

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	aidomain "github.com/intellpharma/pharmastock/internal/ai/domain"
	auditdomain "github.com/intellpharma/pharmastock/internal/audit/domain"
	authdomain "github.com/intellpharma/pharmastock/internal/auth/domain"
	billingdomain "github.com/intellpharma/pharmastock/internal/billing/domain"
	branchdomain "github.com/intellpharma/pharmastock/internal/branch/domain"
	"github.com/intellpharma/pharmastock/internal/config"
	entitlementdomain "github.com/intellpharma/pharmastock/internal/entitlement/domain"
	inventorydomain "github.com/intellpharma/pharmastock/internal/inventory/domain"
	paymentdomain "github.com/intellpharma/pharmastock/internal/payment/domain"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType != "postgres" {
			// Local sqlite deployments skip versioned migrations.
			return conn.AutoMigrate(
				&authdomain.User{},
				&authdomain.Session{},
				&branchdomain.Branch{},
				&branchdomain.StaffMember{},
				&inventorydomain.Product{},
				&inventorydomain.StockBatch{},
				&billingdomain.Invoice{},
				&billingdomain.InvoiceItem{},
				&entitlementdomain.Entitlement{},
				&entitlementdomain.Grant{},
				&paymentdomain.WebhookEvent{},
				&aidomain.PromptRecord{},
				&auditdomain.AuditLog{},
			)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
