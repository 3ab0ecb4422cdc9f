package inventory

import (
	"go.uber.org/fx"

	"github.com/intellpharma/pharmastock/internal/inventory/repository"
	"github.com/intellpharma/pharmastock/internal/inventory/service"
)

var Module = fx.Module("inventory.service",
	fx.Provide(repository.New),
	fx.Provide(service.NewService),
)
