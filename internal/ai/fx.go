package ai

import (
	"go.uber.org/fx"

	"github.com/intellpharma/pharmastock/internal/ai/domain"
	"github.com/intellpharma/pharmastock/internal/ai/gemini"
	"github.com/intellpharma/pharmastock/internal/ai/repository"
	"github.com/intellpharma/pharmastock/internal/ai/service"
	"github.com/intellpharma/pharmastock/internal/config"
)

var Module = fx.Module("ai.service",
	fx.Provide(newGenerator),
	fx.Provide(repository.New),
	fx.Provide(service.NewService),
)

func newGenerator(cfg config.Config) domain.Generator {
	return gemini.New(cfg.AI)
}
