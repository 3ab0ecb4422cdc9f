package audit

import (
	"go.uber.org/fx"

	"github.com/intellpharma/pharmastock/internal/audit/repository"
	"github.com/intellpharma/pharmastock/internal/audit/service"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.New),
	fx.Provide(service.NewService),
)
