package branch

import (
	"go.uber.org/fx"

	"github.com/intellpharma/pharmastock/internal/branch/repository"
	"github.com/intellpharma/pharmastock/internal/branch/service"
)

var Module = fx.Module("branch.service",
	fx.Provide(repository.New),
	fx.Provide(service.NewService),
)
