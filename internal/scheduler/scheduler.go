// Package scheduler runs the periodic maintenance jobs: provider polls,
// entitlement lapses, stock expiry warnings and retention sweeps.
package scheduler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	authdomain "github.com/intellpharma/pharmastock/internal/auth/domain"
	"github.com/intellpharma/pharmastock/internal/clock"
	entitlementdomain "github.com/intellpharma/pharmastock/internal/entitlement/domain"
	paymentdomain "github.com/intellpharma/pharmastock/internal/payment/domain"
)

var ErrInvalidConfig = errors.New("scheduler missing required dependency")

type Params struct {
	fx.In

	DB             *gorm.DB
	Log            *zap.Logger
	Clock          clock.Clock
	EntitlementSvc entitlementdomain.Service
	PaymentSvc     paymentdomain.Service
	PaymentRepo    paymentdomain.Repository
	SessionRepo    authdomain.SessionRepository
	Config         Config `optional:"true"`
}

type Scheduler struct {
	db             *gorm.DB
	log            *zap.Logger
	cfg            Config
	clock          clock.Clock
	entitlementSvc entitlementdomain.Service
	paymentSvc     paymentdomain.Service
	paymentRepo    paymentdomain.Repository
	sessionRepo    authdomain.SessionRepository
}

func New(p Params) (*Scheduler, error) {
	if p.DB == nil || p.Log == nil || p.Clock == nil || p.EntitlementSvc == nil ||
		p.PaymentSvc == nil || p.PaymentRepo == nil || p.SessionRepo == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		db:             p.DB,
		log:            p.Log.Named("scheduler"),
		cfg:            p.Config.withDefaults(),
		clock:          p.Clock,
		entitlementSvc: p.EntitlementSvc,
		paymentSvc:     p.PaymentSvc,
		paymentRepo:    p.PaymentRepo,
		sessionRepo:    p.SessionRepo,
	}, nil
}

func (s *Scheduler) runJob(parent context.Context, name string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, s.cfg.JobTimeout)
	defer cancel()

	start := s.clock.Now()
	err := fn(ctx)
	log := s.log.With(
		zap.String("job", name),
		zap.Duration("duration", s.clock.Now().Sub(start)),
	)
	if err != nil {
		log.Warn("scheduler job failed", zap.Error(err))
		return err
	}
	log.Debug("scheduler job finished")
	return nil
}

func (s *Scheduler) RunOnce(parent context.Context) error {
	jobs := []struct {
		Name string
		Run  func(context.Context) error
	}{
		{"poll_subscriptions", s.PollSubscriptionsJob},
		{"lapse_entitlements", s.LapseEntitlementsJob},
		{"expiry_warnings", s.ExpiryWarningsJob},
		{"purge_sessions", s.PurgeSessionsJob},
		{"purge_payment_events", s.PurgePaymentEventsJob},
	}

	var err error
	for _, job := range jobs {
		err = errors.Join(err, s.runJob(parent, job.Name, job.Run))
	}
	return err
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// PollSubscriptionsJob refreshes provider state for tenants whose paid
// period is near or past its end. Provider outages leave the local
// records untouched.
func (s *Scheduler) PollSubscriptionsJob(ctx context.Context) error {
	due, err := s.entitlementSvc.ListForPoll(ctx, s.clock.Now().UTC().Add(s.cfg.PollLeadTime))
	if err != nil {
		return err
	}

	var jobErr error
	for _, record := range due {
		if err := s.paymentSvc.RefreshSubscription(ctx, record.OwnerID); err != nil {
			if errors.Is(err, paymentdomain.ErrProviderUnavailable) {
				s.log.Warn("provider poll skipped, provider unavailable",
					zap.String("owner_id", record.OwnerID.String()))
				continue
			}
			jobErr = errors.Join(jobErr, err)
		}
	}
	return jobErr
}

func (s *Scheduler) LapseEntitlementsJob(ctx context.Context) error {
	lapsed, err := s.entitlementSvc.LapseExpired(ctx)
	if err != nil {
		return err
	}
	if lapsed > 0 {
		s.log.Info("entitlements lapsed", zap.Int64("count", lapsed))
	}
	return nil
}

type expiringBatchRow struct {
	BranchID    int64
	ProductName string
	BatchNumber string
	Quantity    int
	ExpiryDate  time.Time
}

// ExpiryWarningsJob logs stock batches approaching their expiry date so
// operators can pull them from shelves.
func (s *Scheduler) ExpiryWarningsJob(ctx context.Context) error {
	now := s.clock.Now().UTC()
	var rows []expiringBatchRow
	err := s.db.WithContext(ctx).
		Table("stock_batches").
		Select("products.branch_id AS branch_id, products.name AS product_name, stock_batches.batch_number, stock_batches.quantity, stock_batches.expiry_date").
		Joins("JOIN products ON products.id = stock_batches.product_id").
		Where("stock_batches.quantity > 0").
		Where("stock_batches.expiry_date IS NOT NULL").
		Where("stock_batches.expiry_date BETWEEN ? AND ?", now, now.Add(s.cfg.ExpiryWarningWindow)).
		Order("stock_batches.expiry_date ASC").
		Scan(&rows).Error
	if err != nil {
		return err
	}

	for _, row := range rows {
		s.log.Warn("stock batch expiring soon",
			zap.Int64("branch_id", row.BranchID),
			zap.String("product", row.ProductName),
			zap.String("batch_number", row.BatchNumber),
			zap.Int("quantity", row.Quantity),
			zap.Time("expiry_date", row.ExpiryDate))
	}
	return nil
}

func (s *Scheduler) PurgeSessionsJob(ctx context.Context) error {
	purged, err := s.sessionRepo.DeleteExpired(ctx, s.clock.Now().UTC())
	if err != nil {
		return err
	}
	if purged > 0 {
		s.log.Debug("expired sessions purged", zap.Int64("count", purged))
	}
	return nil
}

func (s *Scheduler) PurgePaymentEventsJob(ctx context.Context) error {
	purged, err := s.paymentRepo.PurgeOld(ctx, s.cfg.EventRetentionDays)
	if err != nil {
		return err
	}
	if purged > 0 {
		s.log.Debug("old payment events purged", zap.Int64("count", purged))
	}
	return nil
}
