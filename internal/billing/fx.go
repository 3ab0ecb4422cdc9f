package billing

import (
	"go.uber.org/fx"

	"github.com/intellpharma/pharmastock/internal/billing/repository"
	"github.com/intellpharma/pharmastock/internal/billing/service"
)

var Module = fx.Module("billing.service",
	fx.Provide(repository.New),
	fx.Provide(service.NewService),
)
