package contract

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Umair-28/logistics-management/internal/shared"
)

type memoryStore struct {
	contracts map[int64]*Contract
	nextID    int64
	seq       int

	partners map[int64]bool
}

type memoryTx struct {
	store *memoryStore
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		contracts: make(map[int64]*Contract),
		partners:  map[int64]bool{1: true},
	}
}

func (s *memoryStore) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{store: s})
}

func (s *memoryStore) Get(ctx context.Context, id int64) (*Contract, error) {
	c, ok := s.contracts[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *c
	copied.IsExpired = ComputeIsExpired(copied.EndDate, time.Now())
	return &copied, nil
}

func (s *memoryStore) List(ctx context.Context, req ListContractsRequest) ([]Contract, int, error) {
	var out []Contract
	for _, c := range s.contracts {
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (tx *memoryTx) NextReference(ctx context.Context) (string, error) {
	tx.store.seq++
	return fmt.Sprintf("CT-%05d", tx.store.seq), nil
}

func (tx *memoryTx) CreateContract(ctx context.Context, c Contract) (int64, error) {
	tx.store.nextID++
	c.ID = tx.store.nextID
	tx.store.contracts[c.ID] = &c
	return c.ID, nil
}

func (tx *memoryTx) GetForUpdate(ctx context.Context, id int64) (*Contract, error) {
	c, ok := tx.store.contracts[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (tx *memoryTx) UpdateContract(ctx context.Context, id int64, updates map[string]interface{}) error {
	c, ok := tx.store.contracts[id]
	if !ok {
		return shared.ErrNotFound
	}
	if v, ok := updates["amount"]; ok {
		c.Amount = v.(float64)
	}
	if v, ok := updates["end_date"]; ok {
		c.EndDate = v.(time.Time)
	}
	return nil
}

func (tx *memoryTx) UpdateStatus(ctx context.Context, id int64, status Status) error {
	c, ok := tx.store.contracts[id]
	if !ok {
		return shared.ErrNotFound
	}
	c.Status = status
	return nil
}

func (tx *memoryTx) DeleteContract(ctx context.Context, id int64) error {
	delete(tx.store.contracts, id)
	return nil
}

func (tx *memoryTx) CheckPartnerExists(ctx context.Context, partnerID int64) (bool, error) {
	return tx.store.partners[partnerID], nil
}

func newContract(t *testing.T, svc *Service) *Contract {
	t.Helper()
	start := time.Now()
	c, err := svc.Create(context.Background(), CreateContractRequest{
		PartnerID: 1,
		Type:      TypeTransporter,
		StartDate: start,
		EndDate:   start.AddDate(1, 0, 0),
		Amount:    500000,
	}, 1)
	require.NoError(t, err)
	return c
}

func TestCreateRequiresPartner(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)

	start := time.Now()
	_, err := svc.Create(context.Background(), CreateContractRequest{
		PartnerID: 9,
		Type:      TypeCustomer,
		StartDate: start,
		EndDate:   start.AddDate(0, 6, 0),
	}, 1)
	require.ErrorIs(t, err, shared.ErrReferenceNotFound)
}

func TestContractLifecycle(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	c := newContract(t, svc)
	require.Equal(t, "CT-00001", c.Reference)
	require.Equal(t, StatusDraft, c.Status)

	active, err := svc.Activate(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, StatusActive, active.Status)

	terminated, err := svc.Terminate(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, StatusTerminated, terminated.Status)

	_, err = svc.Activate(ctx, c.ID)
	require.True(t, shared.IsInvalidTransition(err))
}

func TestExpiryFlagFollowsEndDate(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	c := newContract(t, svc)
	past := time.Now().Add(-24 * time.Hour)
	updated, err := svc.Update(ctx, c.ID, UpdateContractRequest{EndDate: &past})
	require.NoError(t, err)
	require.True(t, updated.IsExpired)
	require.Equal(t, StatusDraft, updated.Status)
}

func TestDeleteContract(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	c := newContract(t, svc)
	require.NoError(t, svc.Delete(ctx, c.ID))
	_, err := svc.Get(ctx, c.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}
