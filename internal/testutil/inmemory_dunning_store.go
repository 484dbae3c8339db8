package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/flexprice/billingcore/internal/domain/dunning"
	ierr "github.com/flexprice/billingcore/internal/errors"
	"github.com/flexprice/billingcore/internal/types"
)

// InMemoryDunningStore implements dunning.Repository
type InMemoryDunningStore struct {
	*InMemoryStore[*dunning.Campaign]
	attemptsMu sync.RWMutex
	attempts   map[string]map[string]*dunning.Attempt
}

func NewInMemoryDunningStore() *InMemoryDunningStore {
	return &InMemoryDunningStore{
		InMemoryStore: NewInMemoryStore[*dunning.Campaign](),
		attempts:      make(map[string]map[string]*dunning.Attempt),
	}
}

func (s *InMemoryDunningStore) Create(ctx context.Context, c *dunning.Campaign) error {
	if c.EnvironmentID == "" {
		c.EnvironmentID = types.GetEnvironmentID(ctx)
	}
	return s.InMemoryStore.Create(ctx, c.ID, c)
}

func (s *InMemoryDunningStore) Get(ctx context.Context, id string) (*dunning.Campaign, error) {
	c, err := s.InMemoryStore.Get(ctx, id)
	if err != nil || !CheckTenantFilter(ctx, c.TenantID) || c.Status != types.StatusActive {
		return nil, ierr.NewError("dunning campaign not found").
			WithHintf("Dunning campaign with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return c, nil
}

func (s *InMemoryDunningStore) ListActive(ctx context.Context) ([]*dunning.Campaign, error) {
	return s.List(ctx, func(ctx context.Context, c *dunning.Campaign) bool {
		return CheckTenantFilter(ctx, c.TenantID) &&
			c.Status == types.StatusActive &&
			c.IsActive()
	}, func(i, j *dunning.Campaign) bool {
		return i.ID < j.ID
	}), nil
}

func (s *InMemoryDunningStore) ListAttempts(ctx context.Context, campaignID string) ([]*dunning.Attempt, error) {
	s.attemptsMu.RLock()
	defer s.attemptsMu.RUnlock()

	result := make([]*dunning.Attempt, 0, len(s.attempts[campaignID]))
	for _, a := range s.attempts[campaignID] {
		copied := *a
		result = append(result, &copied)
	}
	return result, nil
}

func (s *InMemoryDunningStore) RecordAttempt(ctx context.Context, campaignID, customerID string, at time.Time) error {
	s.attemptsMu.Lock()
	defer s.attemptsMu.Unlock()

	if s.attempts[campaignID] == nil {
		s.attempts[campaignID] = make(map[string]*dunning.Attempt)
	}
	a, ok := s.attempts[campaignID][customerID]
	if !ok {
		a = &dunning.Attempt{CampaignID: campaignID, CustomerID: customerID}
		s.attempts[campaignID][customerID] = a
	}
	a.AttemptCount++
	last := at
	a.LastAttemptAt = &last
	return nil
}

func (s *InMemoryDunningStore) Clear() {
	s.InMemoryStore.Clear()
	s.attemptsMu.Lock()
	defer s.attemptsMu.Unlock()
	s.attempts = make(map[string]map[string]*dunning.Attempt)
}
