package auth

import (
	"go.uber.org/fx"

	"github.com/intellpharma/pharmastock/internal/auth/repository"
	"github.com/intellpharma/pharmastock/internal/auth/service"
)

var Module = fx.Module("auth.service",
	fx.Provide(repository.New),
	fx.Provide(service.New),
)
