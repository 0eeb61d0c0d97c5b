package dispatch

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Umair-28/logistics-management/internal/docgraph"
	"github.com/Umair-28/logistics-management/internal/shared"
)

type memoryStore struct {
	dispatches map[int64]*RouteDispatch
	nextID     int64
	seq        int

	vehicles   map[int64]bool
	drivers    map[int64]bool
	tripSheets map[int64]bool

	lrCount  map[int64]int
	ewbCount map[int64]int
	podCount map[int64]int
	detached map[int64]int

	lockErr      error
	ewbDeleteErr error
}

type memoryTx struct {
	store *memoryStore
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		dispatches: make(map[int64]*RouteDispatch),
		vehicles:   make(map[int64]bool),
		drivers:    make(map[int64]bool),
		tripSheets: make(map[int64]bool),
		lrCount:    make(map[int64]int),
		ewbCount:   make(map[int64]int),
		podCount:   make(map[int64]int),
		detached:   make(map[int64]int),
	}
}

func (s *memoryStore) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{store: s})
}

func (s *memoryStore) Get(ctx context.Context, id int64) (*RouteDispatch, error) {
	d, ok := s.dispatches[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *d
	return &copied, nil
}

func (s *memoryStore) GetByReference(ctx context.Context, reference string) (*RouteDispatch, error) {
	for _, d := range s.dispatches {
		if d.Reference == reference {
			copied := *d
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (s *memoryStore) List(ctx context.Context, req ListDispatchesRequest) ([]RouteDispatch, int, error) {
	var out []RouteDispatch
	for _, d := range s.dispatches {
		if req.Status != nil && d.Status != *req.Status {
			continue
		}
		out = append(out, *d)
	}
	return out, len(out), nil
}

func (tx *memoryTx) NextReference(ctx context.Context) (string, error) {
	tx.store.seq++
	return fmt.Sprintf("RD-%05d", tx.store.seq), nil
}

func (tx *memoryTx) CreateDispatch(ctx context.Context, d RouteDispatch) (int64, error) {
	tx.store.nextID++
	d.ID = tx.store.nextID
	d.CreatedAt = time.Now()
	d.UpdatedAt = d.CreatedAt
	tx.store.dispatches[d.ID] = &d
	return d.ID, nil
}

func (tx *memoryTx) GetForUpdate(ctx context.Context, id int64) (*RouteDispatch, error) {
	if tx.store.lockErr != nil {
		return nil, tx.store.lockErr
	}
	d, ok := tx.store.dispatches[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *d
	return &copied, nil
}

func (tx *memoryTx) UpdateDispatch(ctx context.Context, id int64, updates map[string]interface{}) error {
	d, ok := tx.store.dispatches[id]
	if !ok {
		return shared.ErrNotFound
	}
	if v, ok := updates["source_location"]; ok {
		d.SourceLocation = v.(string)
	}
	if v, ok := updates["destination_location"]; ok {
		d.DestinationLocation = v.(string)
	}
	if v, ok := updates["distance_km"]; ok {
		d.DistanceKM = v.(float64)
	}
	if v, ok := updates["total_fuel"]; ok {
		d.TotalFuel = v.(float64)
	}
	d.UpdatedAt = time.Now()
	return nil
}

func (tx *memoryTx) UpdateStatus(ctx context.Context, id int64, status Status, updates map[string]interface{}) error {
	d, ok := tx.store.dispatches[id]
	if !ok {
		return shared.ErrNotFound
	}
	d.Status = status
	if v, ok := updates["started_at"]; ok {
		ts := v.(time.Time)
		d.StartedAt = &ts
	}
	if v, ok := updates["completed_at"]; ok {
		ts := v.(time.Time)
		d.CompletedAt = &ts
	}
	if v, ok := updates["cancelled_at"]; ok {
		ts := v.(time.Time)
		d.CancelledAt = &ts
	}
	d.UpdatedAt = time.Now()
	return nil
}

func (tx *memoryTx) DeleteLorryReceipts(ctx context.Context, dispatchID int64) (int64, error) {
	n := tx.store.lrCount[dispatchID]
	tx.store.lrCount[dispatchID] = 0
	return int64(n), nil
}

func (tx *memoryTx) DeleteEwayBills(ctx context.Context, dispatchID int64) (int64, error) {
	if tx.store.ewbDeleteErr != nil {
		return 0, tx.store.ewbDeleteErr
	}
	n := tx.store.ewbCount[dispatchID]
	tx.store.ewbCount[dispatchID] = 0
	return int64(n), nil
}

func (tx *memoryTx) DetachPODs(ctx context.Context, dispatchID int64) (int64, error) {
	n := tx.store.podCount[dispatchID]
	tx.store.podCount[dispatchID] = 0
	tx.store.detached[dispatchID] += n
	return int64(n), nil
}

func (tx *memoryTx) DeleteDispatch(ctx context.Context, id int64) error {
	delete(tx.store.dispatches, id)
	return nil
}

func (tx *memoryTx) CheckVehicleExists(ctx context.Context, vehicleID int64) (bool, error) {
	return tx.store.vehicles[vehicleID], nil
}

func (tx *memoryTx) CheckDriverExists(ctx context.Context, driverID int64) (bool, error) {
	return tx.store.drivers[driverID], nil
}

func (tx *memoryTx) CheckTripSheetExists(ctx context.Context, tripSheetID int64) (bool, error) {
	return tx.store.tripSheets[tripSheetID], nil
}

func newDraft(t *testing.T, svc *Service) *RouteDispatch {
	t.Helper()
	d, err := svc.Create(context.Background(), CreateDispatchRequest{
		SourceLocation:      "Mumbai",
		DestinationLocation: "Delhi",
		DistanceKM:          1400,
		EstimatedHours:      24,
	}, 1)
	require.NoError(t, err)
	return d
}

func TestCreateAssignsReferenceAndDraft(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)

	first := newDraft(t, svc)
	second := newDraft(t, svc)

	require.Equal(t, "RD-00001", first.Reference)
	require.Equal(t, "RD-00002", second.Reference)
	require.Equal(t, StatusDraft, first.Status)
	require.False(t, first.DispatchDate.IsZero())
}

func TestCreateRejectsUnknownVehicle(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)

	vehicleID := int64(42)
	_, err := svc.Create(context.Background(), CreateDispatchRequest{
		SourceLocation:      "Pune",
		DestinationLocation: "Nashik",
		VehicleID:           &vehicleID,
	}, 1)
	require.ErrorIs(t, err, shared.ErrReferenceNotFound)
}

func TestCreateRejectsUnknownDriver(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)

	driverID := int64(7)
	_, err := svc.Create(context.Background(), CreateDispatchRequest{
		SourceLocation:      "Pune",
		DestinationLocation: "Nashik",
		DriverID:            &driverID,
	}, 1)
	require.ErrorIs(t, err, shared.ErrReferenceNotFound)

	store.drivers[driverID] = true
	d, err := svc.Create(context.Background(), CreateDispatchRequest{
		SourceLocation:      "Pune",
		DestinationLocation: "Nashik",
		DriverID:            &driverID,
	}, 1)
	require.NoError(t, err)
	require.Equal(t, driverID, *d.DriverID)
}

func TestLifecycleTransitions(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	d := newDraft(t, svc)

	started, err := svc.Start(ctx, d.ID)
	require.NoError(t, err)
	require.Equal(t, StatusInTransit, started.Status)
	require.NotNil(t, started.StartedAt)

	// starting twice is not allowed
	_, err = svc.Start(ctx, d.ID)
	require.True(t, shared.IsInvalidTransition(err))

	completed, err := svc.Complete(ctx, d.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, completed.Status)
	require.NotNil(t, completed.CompletedAt)

	_, err = svc.Cancel(ctx, d.ID)
	require.True(t, shared.IsInvalidTransition(err))
}

func TestCompleteRequiresInTransit(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)

	d := newDraft(t, svc)
	_, err := svc.Complete(context.Background(), d.ID)
	require.True(t, shared.IsInvalidTransition(err))

	var ite *shared.InvalidTransitionError
	require.ErrorAs(t, err, &ite)
	require.Equal(t, "draft", ite.Current)
	require.Equal(t, "completed", ite.Target)
}

func TestUpdateOnlyDraft(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	d := newDraft(t, svc)
	src := "Surat"
	updated, err := svc.Update(ctx, d.ID, UpdateDispatchRequest{SourceLocation: &src})
	require.NoError(t, err)
	require.Equal(t, "Surat", updated.SourceLocation)

	_, err = svc.Start(ctx, d.ID)
	require.NoError(t, err)

	_, err = svc.Update(ctx, d.ID, UpdateDispatchRequest{SourceLocation: &src})
	require.ErrorIs(t, err, ErrCannotEdit)
}

func TestUpdateRejectsUnknownReferences(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	d := newDraft(t, svc)

	vehicleID := int64(5)
	_, err := svc.Update(ctx, d.ID, UpdateDispatchRequest{VehicleID: &vehicleID})
	require.ErrorIs(t, err, shared.ErrReferenceNotFound)

	driverID := int64(9)
	_, err = svc.Update(ctx, d.ID, UpdateDispatchRequest{DriverID: &driverID})
	require.ErrorIs(t, err, shared.ErrReferenceNotFound)
}

func TestDeleteCascadesChildrenAndDetachesPODs(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	d := newDraft(t, svc)
	store.lrCount[d.ID] = 3
	store.ewbCount[d.ID] = 2
	store.podCount[d.ID] = 1

	require.NoError(t, svc.Delete(ctx, d.ID))

	_, err := svc.Get(ctx, d.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.Zero(t, store.lrCount[d.ID])
	require.Zero(t, store.ewbCount[d.ID])
	require.Zero(t, store.podCount[d.ID])
	require.Equal(t, 1, store.detached[d.ID])
}

func TestDeleteKeepsParentWhenChildDeleteFails(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	d := newDraft(t, svc)
	store.ewbDeleteErr = errors.New("ewb rows locked")

	err := svc.Delete(ctx, d.ID)
	var ce *shared.CascadeError
	require.ErrorAs(t, err, &ce)
	require.Equal(t, docgraph.EntityDispatch, ce.Parent)
	require.Equal(t, docgraph.EntityEwayBill, ce.Child)

	// The parent row must survive the failed cascade.
	survived, err := svc.Get(ctx, d.ID)
	require.NoError(t, err)
	require.Equal(t, d.Reference, survived.Reference)
}

func TestLockConflictSurfacesFromTransition(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	d := newDraft(t, svc)
	store.lockErr = shared.ErrConcurrentModification

	_, err := svc.Start(ctx, d.ID)
	require.ErrorIs(t, err, shared.ErrConcurrentModification)
}

func TestBatchMembersFailIndependently(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	ok := newDraft(t, svc)
	blocked := newDraft(t, svc)
	_, err := svc.Start(ctx, blocked.ID)
	require.NoError(t, err)
	_, err = svc.Complete(ctx, blocked.ID)
	require.NoError(t, err)

	results := svc.BatchStart(ctx, []int64{ok.ID, blocked.ID, 999})
	require.Len(t, results, 3)
	require.True(t, results[0].OK)
	require.False(t, results[1].OK)
	require.NotEmpty(t, results[1].Error)
	require.False(t, results[2].OK)

	refreshed, err := svc.Get(ctx, ok.ID)
	require.NoError(t, err)
	require.Equal(t, StatusInTransit, refreshed.Status)
}

func TestGetUnknownDispatch(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)

	_, err := svc.Get(context.Background(), 7)
	require.True(t, errors.Is(err, shared.ErrNotFound))
}
