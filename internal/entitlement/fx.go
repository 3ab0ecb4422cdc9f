package entitlement

import (
	"go.uber.org/fx"

	"github.com/intellpharma/pharmastock/internal/entitlement/repository"
	"github.com/intellpharma/pharmastock/internal/entitlement/service"
)

var Module = fx.Module("entitlement.service",
	fx.Provide(repository.New),
	fx.Provide(service.NewService),
)
