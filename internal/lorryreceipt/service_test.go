package lorryreceipt

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Umair-28/logistics-management/internal/shared"
)

type memoryStore struct {
	receipts map[int64]*LorryReceipt
	nextID   int64
	seq      int

	dispatches map[int64]bool
	lrNumbers  map[string]bool

	recounts  map[int64]int
	podCount  map[int64]int
	detached  map[int64]int
}

type memoryTx struct {
	store *memoryStore
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		receipts:   make(map[int64]*LorryReceipt),
		dispatches: map[int64]bool{1: true},
		lrNumbers:  make(map[string]bool),
		recounts:   make(map[int64]int),
		podCount:   make(map[int64]int),
		detached:   make(map[int64]int),
	}
}

func (s *memoryStore) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{store: s})
}

func (s *memoryStore) Get(ctx context.Context, id int64) (*LorryReceipt, error) {
	lr, ok := s.receipts[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *lr
	copied.StatusColor = copied.Status.Color()
	return &copied, nil
}

func (s *memoryStore) List(ctx context.Context, req ListLorryReceiptsRequest) ([]LorryReceipt, int, error) {
	var out []LorryReceipt
	for _, lr := range s.receipts {
		out = append(out, *lr)
	}
	return out, len(out), nil
}

func (tx *memoryTx) NextReference(ctx context.Context) (string, error) {
	tx.store.seq++
	return fmt.Sprintf("LR-%05d", tx.store.seq), nil
}

func (tx *memoryTx) CreateLorryReceipt(ctx context.Context, lr LorryReceipt) (int64, error) {
	if tx.store.lrNumbers[lr.LRNumber] {
		return 0, ErrDuplicateLRNumber
	}
	tx.store.lrNumbers[lr.LRNumber] = true
	tx.store.nextID++
	lr.ID = tx.store.nextID
	tx.store.receipts[lr.ID] = &lr
	return lr.ID, nil
}

func (tx *memoryTx) GetForUpdate(ctx context.Context, id int64) (*LorryReceipt, error) {
	lr, ok := tx.store.receipts[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *lr
	return &copied, nil
}

func (tx *memoryTx) UpdateLorryReceipt(ctx context.Context, id int64, updates map[string]interface{}) error {
	lr, ok := tx.store.receipts[id]
	if !ok {
		return shared.ErrNotFound
	}
	if v, ok := updates["consignee_name"]; ok {
		lr.ConsigneeName = v.(string)
	}
	if v, ok := updates["freight_amount"]; ok {
		lr.FreightAmount = v.(float64)
	}
	return nil
}

func (tx *memoryTx) UpdateStatus(ctx context.Context, id int64, status Status, updates map[string]interface{}) error {
	lr, ok := tx.store.receipts[id]
	if !ok {
		return shared.ErrNotFound
	}
	lr.Status = status
	if v, ok := updates["delivered_at"]; ok {
		ts := v.(time.Time)
		lr.DeliveredAt = &ts
	}
	return nil
}

func (tx *memoryTx) DetachPODs(ctx context.Context, lrID int64) (int64, error) {
	n := tx.store.podCount[lrID]
	tx.store.podCount[lrID] = 0
	tx.store.detached[lrID] += n
	return int64(n), nil
}

func (tx *memoryTx) DeleteLorryReceipt(ctx context.Context, id int64) error {
	delete(tx.store.receipts, id)
	return nil
}

func (tx *memoryTx) RecountDispatchLRs(ctx context.Context, dispatchID int64) (int, error) {
	count := 0
	for _, lr := range tx.store.receipts {
		if lr.DispatchID == dispatchID {
			count++
		}
	}
	tx.store.recounts[dispatchID] = count
	return count, nil
}

func (tx *memoryTx) CheckDispatchExists(ctx context.Context, dispatchID int64) (bool, error) {
	return tx.store.dispatches[dispatchID], nil
}

func newReceipt(t *testing.T, svc *Service, lrNumber string) *LorryReceipt {
	t.Helper()
	lr, err := svc.Create(context.Background(), CreateLorryReceiptRequest{
		LRNumber:            lrNumber,
		DispatchID:          1,
		ConsignorName:       "Acme Traders",
		ConsigneeName:       "Bharat Mills",
		SourceLocation:      "Mumbai",
		DestinationLocation: "Delhi",
		PackageCount:        10,
		TotalWeightKG:       500,
		FreightAmount:       12000,
		PaymentMode:         PaymentToPay,
	}, 1)
	require.NoError(t, err)
	return lr
}

func TestCreateMaintainsDispatchCount(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)

	first := newReceipt(t, svc, "MH-001")
	require.Equal(t, "LR-00001", first.Reference)
	require.Equal(t, StatusDraft, first.Status)
	require.Equal(t, 1, store.recounts[1])

	newReceipt(t, svc, "MH-002")
	require.Equal(t, 2, store.recounts[1])
}

func TestCreateRejectsDuplicateLRNumber(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)

	newReceipt(t, svc, "MH-001")
	_, err := svc.Create(context.Background(), CreateLorryReceiptRequest{
		LRNumber:            "MH-001",
		DispatchID:          1,
		ConsignorName:       "Acme Traders",
		ConsigneeName:       "Bharat Mills",
		SourceLocation:      "Mumbai",
		DestinationLocation: "Delhi",
		PaymentMode:         PaymentPaid,
	}, 1)
	require.ErrorIs(t, err, ErrDuplicateLRNumber)
}

func TestCreateRejectsUnknownDispatch(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)

	_, err := svc.Create(context.Background(), CreateLorryReceiptRequest{
		LRNumber:            "MH-001",
		DispatchID:          99,
		ConsignorName:       "Acme Traders",
		ConsigneeName:       "Bharat Mills",
		SourceLocation:      "Mumbai",
		DestinationLocation: "Delhi",
		PaymentMode:         PaymentPaid,
	}, 1)
	require.ErrorIs(t, err, shared.ErrReferenceNotFound)
}

func TestDeliveryLifecycle(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	lr := newReceipt(t, svc, "MH-001")

	dispatched, err := svc.Dispatch(ctx, lr.ID)
	require.NoError(t, err)
	require.Equal(t, StatusDispatched, dispatched.Status)

	// delivery requires the in-transit leg first
	_, err = svc.Deliver(ctx, lr.ID)
	require.True(t, shared.IsInvalidTransition(err))

	inTransit, err := svc.MarkInTransit(ctx, lr.ID)
	require.NoError(t, err)
	require.Equal(t, StatusInTransit, inTransit.Status)

	delivered, err := svc.Deliver(ctx, lr.ID)
	require.NoError(t, err)
	require.Equal(t, StatusDelivered, delivered.Status)
	require.NotNil(t, delivered.DeliveredAt)
	require.Equal(t, "green", delivered.StatusColor)
}

func TestCancelOnlyBeforeTransit(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	lr := newReceipt(t, svc, "MH-001")
	_, err := svc.Dispatch(ctx, lr.ID)
	require.NoError(t, err)
	_, err = svc.MarkInTransit(ctx, lr.ID)
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, lr.ID)
	require.True(t, shared.IsInvalidTransition(err))
}

func TestDeleteDetachesPODsAndRecounts(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	lr := newReceipt(t, svc, "MH-001")
	newReceipt(t, svc, "MH-002")
	store.podCount[lr.ID] = 2

	require.NoError(t, svc.Delete(ctx, lr.ID))

	_, err := svc.Get(ctx, lr.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.Equal(t, 2, store.detached[lr.ID])
	require.Equal(t, 1, store.recounts[1])
}

func TestBatchDispatchIndependence(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	a := newReceipt(t, svc, "MH-001")
	b := newReceipt(t, svc, "MH-002")
	_, err := svc.Dispatch(ctx, b.ID)
	require.NoError(t, err)

	results := svc.BatchDispatch(ctx, []int64{a.ID, b.ID})
	require.Len(t, results, 2)
	require.True(t, results[0].OK)
	require.False(t, results[1].OK)
}
