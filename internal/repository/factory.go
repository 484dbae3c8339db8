package repository

import (
	"github.com/flexprice/billingcore/internal/clickhouse"
	"github.com/flexprice/billingcore/internal/domain/dunning"
	"github.com/flexprice/billingcore/internal/domain/invoice"
	"github.com/flexprice/billingcore/internal/domain/paymentrequest"
	"github.com/flexprice/billingcore/internal/domain/plan"
	"github.com/flexprice/billingcore/internal/domain/subscription"
	"github.com/flexprice/billingcore/internal/domain/usage"
	"github.com/flexprice/billingcore/internal/domain/usagethreshold"
	"github.com/flexprice/billingcore/internal/logger"
	"github.com/flexprice/billingcore/internal/postgres"
	clickhouseRepo "github.com/flexprice/billingcore/internal/repository/clickhouse"
	postgresRepo "github.com/flexprice/billingcore/internal/repository/postgres"
	"go.uber.org/fx"
)

type RepositoryType string

const (
	PostgresRepo   RepositoryType = "postgres"
	ClickHouseRepo RepositoryType = "clickhouse"
)

// Module provides every repository backed by the configured stores
func Module() fx.Option {
	return fx.Provide(
		NewPlanRepository,
		NewSubscriptionRepository,
		NewUsageThresholdRepository,
		NewUsageRepository,
		NewInvoiceRepository,
		NewDunningRepository,
		NewPaymentRequestRepository,
	)
}

func NewPlanRepository(client postgres.IClient, logger *logger.Logger) plan.Repository {
	return postgresRepo.NewPlanRepository(client, logger)
}

func NewSubscriptionRepository(client postgres.IClient, logger *logger.Logger) subscription.Repository {
	return postgresRepo.NewSubscriptionRepository(client, logger)
}

func NewUsageThresholdRepository(client postgres.IClient, logger *logger.Logger) usagethreshold.Repository {
	return postgresRepo.NewUsageThresholdRepository(client, logger)
}

func NewUsageRepository(store *clickhouse.ClickHouseStore, logger *logger.Logger) usage.Repository {
	return clickhouseRepo.NewUsageRepository(store, logger)
}

func NewInvoiceRepository(client postgres.IClient, logger *logger.Logger) invoice.Repository {
	return postgresRepo.NewInvoiceRepository(client, logger)
}

func NewDunningRepository(client postgres.IClient, logger *logger.Logger) dunning.Repository {
	return postgresRepo.NewDunningRepository(client, logger)
}

func NewPaymentRequestRepository(client postgres.IClient, logger *logger.Logger) paymentrequest.Repository {
	return postgresRepo.NewPaymentRequestRepository(client, logger)
}
