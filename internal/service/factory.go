package service

import (
	"time"

	"github.com/flexprice/billingcore/internal/cache"
	"github.com/flexprice/billingcore/internal/config"
	"github.com/flexprice/billingcore/internal/domain/dunning"
	"github.com/flexprice/billingcore/internal/domain/invoice"
	"github.com/flexprice/billingcore/internal/domain/paymentrequest"
	"github.com/flexprice/billingcore/internal/domain/plan"
	"github.com/flexprice/billingcore/internal/domain/subscription"
	"github.com/flexprice/billingcore/internal/domain/usage"
	"github.com/flexprice/billingcore/internal/domain/usagethreshold"
	"github.com/flexprice/billingcore/internal/logger"
	"github.com/flexprice/billingcore/internal/postgres"
	"github.com/flexprice/billingcore/internal/publisher"
	"github.com/flexprice/billingcore/internal/pyroscope"
	"github.com/flexprice/billingcore/internal/sentry"
	"go.uber.org/fx"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger    *logger.Logger
	Config    *config.Configuration
	DB        postgres.IClient
	Cache     cache.Cache
	Sentry    *sentry.Service
	Pyroscope *pyroscope.Service

	// Repositories
	PlanRepo           plan.Repository
	SubRepo            subscription.Repository
	UsageThresholdRepo usagethreshold.Repository
	UsageRepo          usage.Repository
	InvoiceRepo        invoice.Repository
	DunningRepo        dunning.Repository
	PaymentRequestRepo paymentrequest.Repository

	// Publishers
	EventPublisher publisher.EventPublisher

	// Now is the clock used for implicit effective dates and attempt times
	Now func() time.Time
}

// Module provides the service layer
func Module() fx.Option {
	return fx.Provide(
		NewServiceParams,
		NewProrationService,
		NewUsageThresholdService,
		NewDunningService,
	)
}

// Common service params
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	db postgres.IClient,
	cache cache.Cache,
	sentryService *sentry.Service,
	pyroscopeService *pyroscope.Service,
	planRepo plan.Repository,
	subRepo subscription.Repository,
	usageThresholdRepo usagethreshold.Repository,
	usageRepo usage.Repository,
	invoiceRepo invoice.Repository,
	dunningRepo dunning.Repository,
	paymentRequestRepo paymentrequest.Repository,
	eventPublisher publisher.EventPublisher,
) ServiceParams {
	return ServiceParams{
		Logger:             logger,
		Config:             config,
		DB:                 db,
		Cache:              cache,
		Sentry:             sentryService,
		Pyroscope:          pyroscopeService,
		PlanRepo:           planRepo,
		SubRepo:            subRepo,
		UsageThresholdRepo: usageThresholdRepo,
		UsageRepo:          usageRepo,
		InvoiceRepo:        invoiceRepo,
		DunningRepo:        dunningRepo,
		PaymentRequestRepo: paymentRequestRepo,
		EventPublisher:     eventPublisher,
		Now:                func() time.Time { return time.Now().UTC() },
	}
}

func (p ServiceParams) now() time.Time {
	if p.Now == nil {
		return time.Now().UTC()
	}
	return p.Now()
}
