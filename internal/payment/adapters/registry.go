// Package adapters selects a payment provider implementation by name.
package adapters

import (
	"strings"

	"github.com/intellpharma/pharmastock/internal/config"
	"github.com/intellpharma/pharmastock/internal/payment/domain"
	"github.com/intellpharma/pharmastock/internal/plan"
)

// Factory builds the webhook and API adapters for one provider.
type Factory interface {
	Provider() string
	NewWebhook(cfg config.PaymentConfig) (domain.WebhookAdapter, error)
	NewClient(cfg config.PaymentConfig, catalog *plan.Catalog) (domain.Client, error)
}

type Registry struct {
	factories map[string]Factory
}

func NewRegistry(factories ...Factory) *Registry {
	registry := &Registry{factories: map[string]Factory{}}
	for _, factory := range factories {
		if factory == nil {
			continue
		}
		provider := strings.ToLower(strings.TrimSpace(factory.Provider()))
		if provider == "" {
			continue
		}
		registry.factories[provider] = factory
	}
	return registry
}

func (r *Registry) ProviderExists(provider string) bool {
	if r == nil {
		return false
	}
	provider = strings.ToLower(strings.TrimSpace(provider))
	_, ok := r.factories[provider]
	return ok
}

func (r *Registry) NewWebhook(cfg config.PaymentConfig) (domain.WebhookAdapter, error) {
	factory, err := r.lookup(cfg.Provider)
	if err != nil {
		return nil, err
	}
	return factory.NewWebhook(cfg)
}

func (r *Registry) NewClient(cfg config.PaymentConfig, catalog *plan.Catalog) (domain.Client, error) {
	factory, err := r.lookup(cfg.Provider)
	if err != nil {
		return nil, err
	}
	return factory.NewClient(cfg, catalog)
}

func (r *Registry) lookup(provider string) (Factory, error) {
	if r == nil {
		return nil, domain.ErrUnsupportedProvider
	}
	provider = strings.ToLower(strings.TrimSpace(provider))
	factory, ok := r.factories[provider]
	if !ok {
		return nil, domain.ErrUnsupportedProvider
	}
	return factory, nil
}
