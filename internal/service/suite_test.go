package service

import (
	"context"
	"time"

	"github.com/flexprice/billingcore/internal/cache"
	"github.com/flexprice/billingcore/internal/config"
	"github.com/flexprice/billingcore/internal/logger"
	"github.com/flexprice/billingcore/internal/sentry"
	"github.com/flexprice/billingcore/internal/testutil"
	"github.com/flexprice/billingcore/internal/types"
	"github.com/stretchr/testify/suite"
)

// BaseServiceTestSuite wires services against in-memory stores
type BaseServiceTestSuite struct {
	suite.Suite
	ctx    context.Context
	now    time.Time
	config *config.Configuration
	logger *logger.Logger

	planStore           *testutil.InMemoryPlanStore
	subStore            *testutil.InMemorySubscriptionStore
	thresholdStore      *testutil.InMemoryUsageThresholdStore
	usageStore          *testutil.InMemoryUsageStore
	invoiceStore        *testutil.InMemoryInvoiceStore
	dunningStore        *testutil.InMemoryDunningStore
	paymentRequestStore *testutil.InMemoryPaymentRequestStore
	publisher           *testutil.InMemoryEventPublisher
	db                  *testutil.MockPostgresClient
}

func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = testutil.SetupContext()
	s.now = time.Date(2024, 4, 16, 12, 0, 0, 0, time.UTC)
	s.config = config.GetDefaultConfig()
	s.logger = logger.NewNoopLogger()

	s.planStore = testutil.NewInMemoryPlanStore()
	s.thresholdStore = testutil.NewInMemoryUsageThresholdStore()
	s.subStore = testutil.NewInMemorySubscriptionStore(s.thresholdStore)
	s.usageStore = testutil.NewInMemoryUsageStore()
	s.invoiceStore = testutil.NewInMemoryInvoiceStore()
	s.dunningStore = testutil.NewInMemoryDunningStore()
	s.paymentRequestStore = testutil.NewInMemoryPaymentRequestStore()
	s.publisher = testutil.NewInMemoryEventPublisher()
	s.db = testutil.NewMockPostgresClient(s.logger)
}

func (s *BaseServiceTestSuite) params() ServiceParams {
	return ServiceParams{
		Logger:             s.logger,
		Config:             s.config,
		DB:                 s.db,
		Cache:              cache.NewInMemoryCache(s.config),
		Sentry:             sentry.NewSentryService(s.config, s.logger),
		PlanRepo:           s.planStore,
		SubRepo:            s.subStore,
		UsageThresholdRepo: s.thresholdStore,
		UsageRepo:          s.usageStore,
		InvoiceRepo:        s.invoiceStore,
		DunningRepo:        s.dunningStore,
		PaymentRequestRepo: s.paymentRequestStore,
		EventPublisher:     s.publisher,
		Now:                func() time.Time { return s.now },
	}
}

func (s *BaseServiceTestSuite) baseModel() types.BaseModel {
	return types.GetDefaultBaseModel(s.ctx)
}
