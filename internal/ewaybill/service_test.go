package ewaybill

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Umair-28/logistics-management/internal/shared"
)

type memoryStore struct {
	bills  map[int64]*EwayBill
	nextID int64
	seq    int

	dispatches map[int64]bool
}

type memoryTx struct {
	store *memoryStore
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		bills:      make(map[int64]*EwayBill),
		dispatches: map[int64]bool{1: true},
	}
}

func (s *memoryStore) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{store: s})
}

func (s *memoryStore) Get(ctx context.Context, id int64) (*EwayBill, error) {
	b, ok := s.bills[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *b
	copied.IsExpired = ComputeIsExpired(copied.ValidUpto, time.Now())
	return &copied, nil
}

func (s *memoryStore) List(ctx context.Context, req ListEwayBillsRequest) ([]EwayBill, int, error) {
	var out []EwayBill
	for _, b := range s.bills {
		out = append(out, *b)
	}
	return out, len(out), nil
}

func (tx *memoryTx) NextReference(ctx context.Context) (string, error) {
	tx.store.seq++
	return fmt.Sprintf("EWB-%05d", tx.store.seq), nil
}

func (tx *memoryTx) CreateEwayBill(ctx context.Context, b EwayBill) (int64, error) {
	tx.store.nextID++
	b.ID = tx.store.nextID
	tx.store.bills[b.ID] = &b
	return b.ID, nil
}

func (tx *memoryTx) GetForUpdate(ctx context.Context, id int64) (*EwayBill, error) {
	b, ok := tx.store.bills[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *b
	return &copied, nil
}

func (tx *memoryTx) UpdateEwayBill(ctx context.Context, id int64, updates map[string]interface{}) error {
	b, ok := tx.store.bills[id]
	if !ok {
		return shared.ErrNotFound
	}
	if v, ok := updates["valid_upto"]; ok {
		ts := v.(time.Time)
		b.ValidUpto = &ts
	}
	return nil
}

func (tx *memoryTx) UpdateStatus(ctx context.Context, id int64, status Status) error {
	b, ok := tx.store.bills[id]
	if !ok {
		return shared.ErrNotFound
	}
	b.Status = status
	return nil
}

func (tx *memoryTx) DeleteEwayBill(ctx context.Context, id int64) error {
	delete(tx.store.bills, id)
	return nil
}

func (tx *memoryTx) CheckDispatchExists(ctx context.Context, dispatchID int64) (bool, error) {
	return tx.store.dispatches[dispatchID], nil
}

func newBill(t *testing.T, svc *Service) *EwayBill {
	t.Helper()
	b, err := svc.Create(context.Background(), CreateEwayBillRequest{
		EwayBillNo: "EWB123456789",
		DispatchID: 1,
		DistanceKM: 350,
	}, 1)
	require.NoError(t, err)
	return b
}

func TestCreateRequiresDispatch(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)

	_, err := svc.Create(context.Background(), CreateEwayBillRequest{
		EwayBillNo: "EWB123",
		DispatchID: 77,
	}, 1)
	require.ErrorIs(t, err, shared.ErrReferenceNotFound)
}

func TestActivationLifecycle(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	b := newBill(t, svc)
	require.Equal(t, StatusDraft, b.Status)

	active, err := svc.Activate(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, StatusActive, active.Status)

	_, err = svc.Activate(ctx, b.ID)
	require.True(t, shared.IsInvalidTransition(err))

	expired, err := svc.MarkExpired(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, StatusExpired, expired.Status)

	_, err = svc.Cancel(ctx, b.ID)
	require.True(t, shared.IsInvalidTransition(err))
}

func TestExpireOnlyActive(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)

	b := newBill(t, svc)
	_, err := svc.MarkExpired(context.Background(), b.ID)
	require.True(t, shared.IsInvalidTransition(err))
}

func TestValidityDrivesDerivedFlag(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	b := newBill(t, svc)
	past := time.Now().Add(-time.Hour)
	updated, err := svc.Update(ctx, b.ID, UpdateEwayBillRequest{ValidUpto: &past})
	require.NoError(t, err)
	require.True(t, updated.IsExpired)
	// validity lapse alone does not move the workflow state
	require.Equal(t, StatusDraft, updated.Status)
}

func TestDeleteRemovesBill(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	b := newBill(t, svc)
	require.NoError(t, svc.Delete(ctx, b.ID))

	_, err := svc.Get(ctx, b.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}
