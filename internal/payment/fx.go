package payment

import (
	"go.uber.org/fx"

	"github.com/intellpharma/pharmastock/internal/config"
	"github.com/intellpharma/pharmastock/internal/payment/adapters"
	"github.com/intellpharma/pharmastock/internal/payment/adapters/stripe"
	"github.com/intellpharma/pharmastock/internal/payment/domain"
	"github.com/intellpharma/pharmastock/internal/payment/repository"
	"github.com/intellpharma/pharmastock/internal/payment/service"
	"github.com/intellpharma/pharmastock/internal/plan"
)

var Module = fx.Module("payment.service",
	fx.Provide(newRegistry),
	fx.Provide(newWebhookAdapter),
	fx.Provide(newClient),
	fx.Provide(repository.New),
	fx.Provide(service.NewService),
)

func newRegistry() *adapters.Registry {
	return adapters.NewRegistry(stripe.NewFactory())
}

func newWebhookAdapter(registry *adapters.Registry, cfg config.Config) (domain.WebhookAdapter, error) {
	return registry.NewWebhook(cfg.Payment)
}

func newClient(registry *adapters.Registry, cfg config.Config, catalog *plan.Catalog) (domain.Client, error) {
	return registry.NewClient(cfg.Payment, catalog)
}
