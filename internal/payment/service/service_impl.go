package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/intellpharma/pharmastock/internal/clock"
	"github.com/intellpharma/pharmastock/internal/config"
	entitlementdomain "github.com/intellpharma/pharmastock/internal/entitlement/domain"
	"github.com/intellpharma/pharmastock/internal/observability/metrics"
	"github.com/intellpharma/pharmastock/internal/payment/domain"
	"github.com/intellpharma/pharmastock/internal/plan"

	"github.com/bwmarrin/snowflake"
)

const webhookPayloadLimit = 64 << 10

// ServiceParam is the dependency set for Service.
type ServiceParam struct {
	fx.In

	Log          *zap.Logger
	Config       config.Config
	Repo         domain.Repository
	Webhook      domain.WebhookAdapter
	Client       domain.Client
	Entitlements entitlementdomain.Service
	Catalog      *plan.Catalog
	Clock        clock.Clock
	Metrics      *metrics.Metrics `optional:"true"`
}

type Service struct {
	log          *zap.Logger
	cfg          config.Config
	repo         domain.Repository
	webhook      domain.WebhookAdapter
	client       domain.Client
	entitlements entitlementdomain.Service
	catalog      *plan.Catalog
	clock        clock.Clock
	metrics      *metrics.Metrics
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		log:          p.Log.Named("payment.service"),
		cfg:          p.Config,
		repo:         p.Repo,
		webhook:      p.Webhook,
		client:       p.Client,
		entitlements: p.Entitlements,
		catalog:      p.Catalog,
		clock:        p.Clock,
		metrics:      p.Metrics,
	}
}

func (s *Service) StartCheckout(ctx context.Context, req domain.StartCheckoutRequest) (*domain.CheckoutSession, error) {
	if req.Purpose == "" {
		req.Purpose = domain.PurposePlan
	}
	if req.Purpose == domain.PurposePlan && !s.catalog.Purchasable(req.Tier) {
		return nil, entitlementdomain.ErrFeatureNotAvailable
	}

	current, err := s.entitlements.EnsureFree(ctx, req.OwnerID)
	if err != nil {
		return nil, err
	}

	session, err := s.client.CreateCheckoutSession(ctx, domain.CreateCheckoutRequest{
		OwnerID:    req.OwnerID,
		CustomerID: current.ProviderCustomerID,
		Email:      req.Email,
		Purpose:    req.Purpose,
		Tier:       req.Tier,
		Quantity:   req.Quantity,
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
	})
	if err != nil {
		return nil, err
	}

	if req.Purpose == domain.PurposePlan {
		if err := s.entitlements.MarkPendingSync(ctx, req.OwnerID, session.CustomerID); err != nil {
			return nil, err
		}
	}

	s.log.Info("checkout session created",
		zap.String("owner_id", req.OwnerID.String()),
		zap.String("purpose", string(req.Purpose)),
		zap.String("session_id", session.ID))
	return session, nil
}

func (s *Service) VerifySession(ctx context.Context, ownerID snowflake.ID, sessionID string) error {
	session, err := s.client.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.OwnerID != ownerID {
		return domain.ErrInvalidEvent
	}
	if !session.Paid {
		return domain.ErrSessionNotPaid
	}

	if session.Purpose == domain.PurposeExtraBranch {
		_, err := s.entitlements.ApplyExtraBranchGrant(ctx, ownerID, session.ID, session.Quantity)
		return err
	}
	return s.applySubscription(ctx, ownerID, session.SubscriptionID, session.CustomerID, session.Tier, entitlementdomain.SourceVerify)
}

func (s *Service) RefreshSubscription(ctx context.Context, ownerID snowflake.ID) error {
	current, err := s.entitlements.Get(ctx, ownerID)
	if err != nil {
		return err
	}
	if current.ProviderSubscriptionID == "" {
		return domain.ErrNoSubscription
	}
	return s.applySubscription(ctx, ownerID, current.ProviderSubscriptionID, current.ProviderCustomerID, current.Tier, entitlementdomain.SourcePoll)
}

// applySubscription fetches the subscription from the provider and
// reconciles the reported state into the tenant's entitlement.
func (s *Service) applySubscription(ctx context.Context, ownerID snowflake.ID, subscriptionID, customerID string, fallbackTier plan.Tier, source entitlementdomain.SnapshotSource) error {
	snap := entitlementdomain.Snapshot{
		Source:                 source,
		ProviderCustomerID:     customerID,
		ProviderSubscriptionID: subscriptionID,
		Tier:                   fallbackTier,
		Active:                 false,
	}

	if subscriptionID != "" {
		sub, err := s.client.GetSubscription(ctx, subscriptionID)
		switch {
		case err == nil:
			snap.ProviderSubscriptionID = sub.ID
			if sub.CustomerID != "" {
				snap.ProviderCustomerID = sub.CustomerID
			}
			if sub.Tier != "" {
				snap.Tier = sub.Tier
			}
			snap.Active = sub.Active
			snap.CancelAtPeriodEnd = sub.CancelAtPeriodEnd
			snap.CurrentPeriodEnd = sub.CurrentPeriodEnd
		case errors.Is(err, domain.ErrProviderUnavailable):
			// Keep the local state rather than downgrading on an outage.
			return err
		default:
			// A definitive provider answer that the subscription is gone.
			snap.Active = false
		}
	}

	_, err := s.entitlements.Reconcile(ctx, ownerID, snap)
	if err == nil && s.metrics != nil {
		s.metrics.RecordReconcile(string(source), "ok")
	}
	return err
}

func (s *Service) HandleWebhook(ctx context.Context, payload []byte, headers http.Header) error {
	if len(payload) == 0 || len(payload) > webhookPayloadLimit {
		return domain.ErrInvalidPayload
	}
	if err := s.webhook.Verify(ctx, payload, headers); err != nil {
		return err
	}

	event, err := s.webhook.Parse(ctx, payload)
	if err != nil {
		if errors.Is(err, domain.ErrEventIgnored) {
			return nil
		}
		return err
	}

	inserted, err := s.repo.RecordEvent(ctx, &domain.WebhookEvent{
		Provider:  event.Provider,
		EventID:   event.ProviderEventID,
		EventType: string(event.Type),
		Payload:   string(payload),
	})
	if err != nil {
		return err
	}
	if !inserted {
		s.log.Debug("duplicate webhook event skipped",
			zap.String("provider", event.Provider),
			zap.String("event_id", event.ProviderEventID))
		return nil
	}

	if s.metrics != nil {
		s.metrics.RecordPaymentEvent(event.Provider, string(event.Type))
	}
	return s.dispatch(ctx, event)
}

func (s *Service) dispatch(ctx context.Context, event *domain.Event) error {
	if event.OwnerID == 0 {
		// Events without tenant metadata cannot be applied. They are
		// already stored for inspection.
		s.log.Warn("webhook event missing owner metadata",
			zap.String("event_id", event.ProviderEventID),
			zap.String("type", string(event.Type)))
		return nil
	}

	switch event.Type {
	case domain.EventCheckoutCompleted:
		if event.Purpose == domain.PurposeExtraBranch {
			_, err := s.entitlements.ApplyExtraBranchGrant(ctx, event.OwnerID, event.SessionID, event.Quantity)
			return err
		}
		return s.applySubscription(ctx, event.OwnerID, event.SubscriptionID, event.CustomerID, event.Tier, entitlementdomain.SourceWebhook)

	case domain.EventSubscriptionUpdated:
		_, err := s.entitlements.Reconcile(ctx, event.OwnerID, entitlementdomain.Snapshot{
			Source:                 entitlementdomain.SourceWebhook,
			ProviderCustomerID:     event.CustomerID,
			ProviderSubscriptionID: event.SubscriptionID,
			Tier:                   event.Tier,
			Active:                 true,
			CancelAtPeriodEnd:      event.CancelAtPeriodEnd,
			CurrentPeriodEnd:       event.CurrentPeriodEnd,
		})
		return err

	case domain.EventSubscriptionDeleted:
		_, err := s.entitlements.Reconcile(ctx, event.OwnerID, entitlementdomain.Snapshot{
			Source:                 entitlementdomain.SourceWebhook,
			ProviderCustomerID:     event.CustomerID,
			ProviderSubscriptionID: event.SubscriptionID,
			Active:                 false,
		})
		return err

	case domain.EventPaymentFailed:
		// The provider retries charges on its own schedule. Record the
		// failure and let the poll or a later event settle the state.
		s.log.Warn("payment failed for subscription",
			zap.String("owner_id", event.OwnerID.String()),
			zap.String("subscription_id", event.SubscriptionID))
		return nil

	default:
		return fmt.Errorf("%w: %s", domain.ErrInvalidEvent, event.Type)
	}
}

func (s *Service) PortalURL(ctx context.Context, ownerID snowflake.ID, returnURL string) (string, error) {
	current, err := s.entitlements.Get(ctx, ownerID)
	if err != nil {
		return "", err
	}
	if current.ProviderCustomerID == "" {
		return "", domain.ErrNoSubscription
	}
	if strings.TrimSpace(returnURL) == "" {
		returnURL = s.cfg.ClientURL + "/settings/billing"
	}
	return s.client.CreatePortalSession(ctx, current.ProviderCustomerID, returnURL)
}
