package pod

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Umair-28/logistics-management/internal/shared"
)

type memoryStore struct {
	pods   map[int64]*ProofOfDelivery
	nextID int64
	seq    int

	dispatches map[int64]bool
	receipts   map[int64]bool
}

type memoryTx struct {
	store *memoryStore
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		pods:       make(map[int64]*ProofOfDelivery),
		dispatches: map[int64]bool{1: true},
		receipts:   map[int64]bool{1: true},
	}
}

func (s *memoryStore) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{store: s})
}

func (s *memoryStore) Get(ctx context.Context, id int64) (*ProofOfDelivery, error) {
	p, ok := s.pods[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (s *memoryStore) List(ctx context.Context, req ListPODsRequest) ([]ProofOfDelivery, int, error) {
	var out []ProofOfDelivery
	for _, p := range s.pods {
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (tx *memoryTx) NextReference(ctx context.Context) (string, error) {
	tx.store.seq++
	return fmt.Sprintf("POD-%05d", tx.store.seq), nil
}

func (tx *memoryTx) CreatePOD(ctx context.Context, p ProofOfDelivery) (int64, error) {
	tx.store.nextID++
	p.ID = tx.store.nextID
	tx.store.pods[p.ID] = &p
	return p.ID, nil
}

func (tx *memoryTx) GetForUpdate(ctx context.Context, id int64) (*ProofOfDelivery, error) {
	p, ok := tx.store.pods[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (tx *memoryTx) UpdatePOD(ctx context.Context, id int64, updates map[string]interface{}) error {
	p, ok := tx.store.pods[id]
	if !ok {
		return shared.ErrNotFound
	}
	if v, ok := updates["received_by"]; ok {
		rb := v.(string)
		p.ReceivedBy = &rb
	}
	return nil
}

func (tx *memoryTx) UpdateStatus(ctx context.Context, id int64, status Status, updates map[string]interface{}) error {
	p, ok := tx.store.pods[id]
	if !ok {
		return shared.ErrNotFound
	}
	p.Status = status
	if v, ok := updates["delivery_date"]; ok {
		ts := v.(time.Time)
		p.DeliveryDate = &ts
	}
	if v, ok := updates["verified_by"]; ok {
		actor := v.(int64)
		p.VerifiedBy = &actor
	}
	if v, ok := updates["verified_date"]; ok {
		ts := v.(time.Time)
		p.VerifiedDate = &ts
	}
	return nil
}

func (tx *memoryTx) DeletePOD(ctx context.Context, id int64) error {
	delete(tx.store.pods, id)
	return nil
}

func (tx *memoryTx) CheckDispatchExists(ctx context.Context, dispatchID int64) (bool, error) {
	return tx.store.dispatches[dispatchID], nil
}

func (tx *memoryTx) CheckLorryReceiptExists(ctx context.Context, lrID int64) (bool, error) {
	return tx.store.receipts[lrID], nil
}

func newPOD(t *testing.T, svc *Service) *ProofOfDelivery {
	t.Helper()
	dispatchID := int64(1)
	p, err := svc.Create(context.Background(), CreatePODRequest{DispatchID: &dispatchID}, 1)
	require.NoError(t, err)
	return p
}

func TestCreateWithoutParents(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)

	// both parent references are optional
	p, err := svc.Create(context.Background(), CreatePODRequest{}, 1)
	require.NoError(t, err)
	require.Equal(t, "POD-00001", p.Reference)
	require.Equal(t, StatusDraft, p.Status)
	require.Nil(t, p.DispatchID)
	require.Nil(t, p.LorryReceiptID)
}

func TestCreateRejectsUnknownLorryReceipt(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)

	lrID := int64(9)
	_, err := svc.Create(context.Background(), CreatePODRequest{LorryReceiptID: &lrID}, 1)
	require.ErrorIs(t, err, shared.ErrReferenceNotFound)
}

func TestVerifyStampsActor(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)

	sess := &shared.Session{ID: "test-session"}
	sess.SetUser("42")
	ctx := shared.ContextWithSession(context.Background(), sess)

	p := newPOD(t, svc)
	delivered, err := svc.MarkDelivered(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, StatusDelivered, delivered.Status)
	require.NotNil(t, delivered.DeliveryDate)

	verified, err := svc.Verify(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, StatusVerified, verified.Status)
	require.NotNil(t, verified.VerifiedBy)
	require.Equal(t, int64(42), *verified.VerifiedBy)
	require.NotNil(t, verified.VerifiedDate)
}

func TestVerifyRequiresDelivered(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)

	p := newPOD(t, svc)
	_, err := svc.Verify(context.Background(), p.ID)
	require.True(t, shared.IsInvalidTransition(err))
}

func TestCancelBlockedAfterVerification(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	p := newPOD(t, svc)
	_, err := svc.MarkDelivered(ctx, p.ID)
	require.NoError(t, err)
	_, err = svc.Verify(ctx, p.ID)
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, p.ID)
	require.True(t, shared.IsInvalidTransition(err))
}

func TestDeleteHasNoCascade(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	p := newPOD(t, svc)
	require.NoError(t, svc.Delete(ctx, p.ID))

	_, err := svc.Get(ctx, p.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}
