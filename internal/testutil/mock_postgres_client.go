package testutil

import (
	"context"
	"sync"

	"github.com/flexprice/billingcore/internal/logger"
	"github.com/flexprice/billingcore/internal/postgres"
	"github.com/flexprice/billingcore/internal/types"
)

var _ postgres.IClient = (*MockPostgresClient)(nil)

// MockPostgresClient runs WithTx callbacks without a database and counts
// how many outer transactions were opened
type MockPostgresClient struct {
	mu     sync.Mutex
	txs    int
	logger *logger.Logger
}

func NewMockPostgresClient(logger *logger.Logger) *MockPostgresClient {
	return &MockPostgresClient{logger: logger}
}

func (c *MockPostgresClient) WithTx(ctx context.Context, fn func(context.Context) error) error {
	if ctx.Value(types.CtxDBTransaction) != nil {
		return fn(ctx)
	}

	c.mu.Lock()
	c.txs++
	c.mu.Unlock()

	return fn(context.WithValue(ctx, types.CtxDBTransaction, true))
}

// Querier is unused by in-memory stores
func (c *MockPostgresClient) Querier(ctx context.Context) postgres.Querier {
	return nil
}

func (c *MockPostgresClient) Transactions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.txs
}
