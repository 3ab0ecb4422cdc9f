package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/intellpharma/pharmastock/internal/ai"
	"github.com/intellpharma/pharmastock/internal/audit"
	"github.com/intellpharma/pharmastock/internal/auth"
	"github.com/intellpharma/pharmastock/internal/billing"
	"github.com/intellpharma/pharmastock/internal/branch"
	"github.com/intellpharma/pharmastock/internal/clock"
	"github.com/intellpharma/pharmastock/internal/config"
	"github.com/intellpharma/pharmastock/internal/entitlement"
	"github.com/intellpharma/pharmastock/internal/inventory"
	"github.com/intellpharma/pharmastock/internal/migration"
	"github.com/intellpharma/pharmastock/internal/observability"
	"github.com/intellpharma/pharmastock/internal/payment"
	"github.com/intellpharma/pharmastock/internal/plan"
	"github.com/intellpharma/pharmastock/internal/providers/pdf"
	"github.com/intellpharma/pharmastock/internal/ratelimit"
	"github.com/intellpharma/pharmastock/internal/scheduler"
	"github.com/intellpharma/pharmastock/internal/server"
	"github.com/intellpharma/pharmastock/pkg/db"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		plan.Module,

		auth.Module,
		branch.Module,
		inventory.Module,
		billing.Module,
		entitlement.Module,
		payment.Module,
		ratelimit.Module,
		ai.Module,
		audit.Module,
		pdf.Module,

		scheduler.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
