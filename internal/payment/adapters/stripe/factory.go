package stripe

import (
	"github.com/intellpharma/pharmastock/internal/config"
	paymentdomain "github.com/intellpharma/pharmastock/internal/payment/domain"
	"github.com/intellpharma/pharmastock/internal/plan"
)

// Factory builds Stripe adapters from payment configuration.
type Factory struct{}

func NewFactory() Factory { return Factory{} }

func (Factory) Provider() string { return ProviderName }

func (Factory) NewWebhook(cfg config.PaymentConfig) (paymentdomain.WebhookAdapter, error) {
	return NewWebhook(cfg.WebhookSecret)
}

func (Factory) NewClient(cfg config.PaymentConfig, catalog *plan.Catalog) (paymentdomain.Client, error) {
	return NewClient(cfg.SecretKey, cfg.APIBaseURL, catalog)
}
