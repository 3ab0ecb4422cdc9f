package service

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/intellpharma/pharmastock/internal/cache"
	"github.com/intellpharma/pharmastock/internal/clock"
	"github.com/intellpharma/pharmastock/internal/entitlement/domain"
	"github.com/intellpharma/pharmastock/internal/entitlement/reconcile"
	"github.com/intellpharma/pharmastock/internal/plan"
	"github.com/intellpharma/pharmastock/pkg/db"
)

const gateCacheTTL = 30 * time.Second

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    domain.Repository
	catalog *plan.Catalog

	// gateCache keeps feature gate checks off the database on the POS
	// hot path. Keyed by owner ID.
	gateCache cache.Cache[snowflake.ID, domain.Entitlement]
}

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    domain.Repository
	Catalog *plan.Catalog
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("entitlement.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		catalog:   p.Catalog,
		gateCache: cache.NewTTLCache[snowflake.ID, domain.Entitlement](),
	}
}

func (s *Service) EnsureFree(ctx context.Context, ownerID snowflake.ID) (*domain.Entitlement, error) {
	record, err := s.repo.Get(ctx, ownerID)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, domain.ErrEntitlementNotFound) {
		return nil, err
	}

	now := s.clock.Now().UTC()
	record = &domain.Entitlement{
		ID:        s.genID.Generate(),
		OwnerID:   ownerID,
		Tier:      s.catalog.Free().Tier,
		Status:    domain.StatusFree,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Upsert(ctx, record); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return s.repo.Get(ctx, ownerID)
		}
		return nil, err
	}
	return record, nil
}

func (s *Service) Get(ctx context.Context, ownerID snowflake.ID) (*domain.Entitlement, error) {
	return s.repo.Get(ctx, ownerID)
}

func (s *Service) MarkPendingSync(ctx context.Context, ownerID snowflake.ID, providerCustomerID string) error {
	record, err := s.EnsureFree(ctx, ownerID)
	if err != nil {
		return err
	}
	if record.Status.Paid() {
		// An already-active subscription stays active while a plan
		// change checkout is in flight.
		return nil
	}

	now := s.clock.Now().UTC()
	record.Status = domain.StatusPendingSync
	if providerCustomerID != "" {
		record.ProviderCustomerID = providerCustomerID
	}
	record.UpdatedAt = now
	if err := s.repo.Upsert(ctx, record); err != nil {
		return err
	}
	s.gateCache.Delete(ownerID)
	return nil
}

func (s *Service) Reconcile(ctx context.Context, ownerID snowflake.ID, snap domain.Snapshot) (*domain.Entitlement, error) {
	record, err := s.EnsureFree(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	merged := reconcile.Merge(*record, snap, s.catalog, now)

	if merged.Status == domain.StatusFree && record.Status != domain.StatusFree {
		// Grants rode on the canceled subscription; drop them with it.
		if err := s.repo.DeleteGrants(ctx, ownerID); err != nil {
			return nil, err
		}
	} else if merged.Status.Paid() {
		total, err := s.repo.SumGrants(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		merged.ExtraBranches = total
	}

	if err := s.repo.Upsert(ctx, &merged); err != nil {
		return nil, err
	}
	s.gateCache.Delete(ownerID)

	s.log.Info("entitlement reconciled",
		zap.String("owner_id", ownerID.String()),
		zap.String("source", string(snap.Source)),
		zap.String("tier", string(merged.Tier)),
		zap.String("status", string(merged.Status)),
	)
	return &merged, nil
}

func (s *Service) ApplyExtraBranchGrant(ctx context.Context, ownerID snowflake.ID, idempotencyKey string, quantity int) (*domain.Entitlement, error) {
	if quantity < 1 {
		quantity = 1
	}

	record, err := s.EnsureFree(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	inserted, err := s.repo.InsertGrant(ctx, &domain.Grant{
		ID:             s.genID.Generate(),
		OwnerID:        ownerID,
		IdempotencyKey: idempotencyKey,
		Quantity:       quantity,
		CreatedAt:      s.clock.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	if !inserted {
		// Replayed event; the grant is already counted.
		return record, nil
	}

	total, err := s.repo.SumGrants(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	record.ExtraBranches = total
	record.UpdatedAt = s.clock.Now().UTC()
	if err := s.repo.Upsert(ctx, record); err != nil {
		return nil, err
	}
	s.gateCache.Delete(ownerID)
	return record, nil
}

func (s *Service) BranchLimit(ctx context.Context, ownerID snowflake.ID) (int, error) {
	record, err := s.EnsureFree(ctx, ownerID)
	if err != nil {
		return 0, err
	}

	current := s.effectivePlan(record)
	limit := current.MaxBranches
	if record.Status.Paid() {
		limit += record.ExtraBranches
	}
	return limit, nil
}

func (s *Service) IsFeatureEnabled(ctx context.Context, ownerID snowflake.ID, feature plan.Feature) (bool, error) {
	record, ok := s.gateCache.Get(ownerID)
	if !ok {
		fresh, err := s.EnsureFree(ctx, ownerID)
		if err != nil {
			return false, err
		}
		record = *fresh
		s.gateCache.Set(ownerID, record, gateCacheTTL)
	}

	return s.effectivePlan(&record).HasFeature(feature), nil
}

func (s *Service) LapseExpired(ctx context.Context) (int64, error) {
	lapsed, err := s.repo.LapseExpired(ctx, s.clock.Now().UTC())
	if err != nil {
		return 0, err
	}
	if lapsed > 0 {
		s.log.Info("entitlements lapsed", zap.Int64("count", lapsed))
	}
	return lapsed, nil
}

func (s *Service) ListForPoll(ctx context.Context, before time.Time) ([]*domain.Entitlement, error) {
	return s.repo.ListForPoll(ctx, before)
}

// effectivePlan resolves the plan quotas a record is entitled to right
// now. Anything not confirmed paid falls back to the free plan.
func (s *Service) effectivePlan(record *domain.Entitlement) plan.Plan {
	if !record.Status.Paid() {
		return s.catalog.Free()
	}
	current, ok := s.catalog.Get(record.Tier)
	if !ok {
		return s.catalog.Free()
	}
	return current
}
