package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/intellpharma/pharmastock/internal/audit/domain"
	"github.com/intellpharma/pharmastock/internal/clock"
)

type ServiceParam struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Log(ctx context.Context, entry domain.Entry) {
	record := &domain.AuditLog{
		ID:           s.genID.Generate(),
		OwnerID:      entry.OwnerID,
		ActorID:      entry.ActorID,
		Action:       entry.Action,
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		Detail:       normalizeMap(entry.Metadata),
		CreatedAt:    s.clock.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, record); err != nil {
		s.log.Error("failed to write audit log",
			zap.String("action", entry.Action),
			zap.String("owner_id", entry.OwnerID.String()),
			zap.Error(err))
	}
}

func (s *Service) List(ctx context.Context, ownerID snowflake.ID, limit int) ([]*domain.AuditLog, error) {
	return s.repo.ListByOwner(ctx, ownerID, limit)
}

func normalizeMap(input map[string]any) datatypes.JSONMap {
	if input == nil {
		return datatypes.JSONMap{}
	}
	output := datatypes.JSONMap{}
	for key, value := range input {
		if key == "" {
			continue
		}
		output[key] = value
	}
	return output
}
