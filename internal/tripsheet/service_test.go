package tripsheet

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Umair-28/logistics-management/internal/shared"
)

type memoryStore struct {
	sheets  map[int64]*TripSheet
	nextID  int64
	seq     int
	deleted []int64

	vehicles map[int64]bool
	drivers  map[int64]bool
}

type memoryTx struct {
	store *memoryStore
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		sheets:   make(map[int64]*TripSheet),
		vehicles: map[int64]bool{1: true},
		drivers:  map[int64]bool{1: true},
	}
}

func (s *memoryStore) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{store: s})
}

func (s *memoryStore) Get(ctx context.Context, id int64) (*TripSheet, error) {
	ts, ok := s.sheets[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *ts
	copied.DurationHours = ComputeDurationHours(copied.DateStart, copied.DateEnd)
	return &copied, nil
}

func (s *memoryStore) List(ctx context.Context, req ListTripSheetsRequest) ([]TripSheet, int, error) {
	var out []TripSheet
	for _, ts := range s.sheets {
		out = append(out, *ts)
	}
	return out, len(out), nil
}

func (tx *memoryTx) NextReference(ctx context.Context) (string, error) {
	tx.store.seq++
	return fmt.Sprintf("TS-%05d", tx.store.seq), nil
}

func (tx *memoryTx) CreateTripSheet(ctx context.Context, ts TripSheet) (int64, error) {
	tx.store.nextID++
	ts.ID = tx.store.nextID
	tx.store.sheets[ts.ID] = &ts
	return ts.ID, nil
}

func (tx *memoryTx) GetForUpdate(ctx context.Context, id int64) (*TripSheet, error) {
	ts, ok := tx.store.sheets[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *ts
	return &copied, nil
}

func (tx *memoryTx) UpdateTripSheet(ctx context.Context, id int64, updates map[string]interface{}) error {
	ts, ok := tx.store.sheets[id]
	if !ok {
		return shared.ErrNotFound
	}
	if v, ok := updates["total_distance_km"]; ok {
		ts.TotalDistanceKM = v.(float64)
	}
	return nil
}

func (tx *memoryTx) UpdateStatus(ctx context.Context, id int64, status Status, updates map[string]interface{}) error {
	ts, ok := tx.store.sheets[id]
	if !ok {
		return shared.ErrNotFound
	}
	ts.Status = status
	if v, ok := updates["date_end"]; ok {
		end := v.(time.Time)
		ts.DateEnd = &end
	}
	return nil
}

func (tx *memoryTx) DeleteTripSheet(ctx context.Context, id int64) error {
	delete(tx.store.sheets, id)
	tx.store.deleted = append(tx.store.deleted, id)
	return nil
}

func (tx *memoryTx) CheckVehicleExists(ctx context.Context, vehicleID int64) (bool, error) {
	return tx.store.vehicles[vehicleID], nil
}

func (tx *memoryTx) CheckDriverExists(ctx context.Context, driverID int64) (bool, error) {
	return tx.store.drivers[driverID], nil
}

func newSheet(t *testing.T, svc *Service) *TripSheet {
	t.Helper()
	ts, err := svc.Create(context.Background(), CreateTripSheetRequest{VehicleID: 1, DriverID: 1}, 1)
	require.NoError(t, err)
	return ts
}

func TestCreateDefaultsStartDate(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)

	ts := newSheet(t, svc)
	require.Equal(t, "TS-00001", ts.Reference)
	require.Equal(t, StatusDraft, ts.Status)
	require.NotNil(t, ts.DateStart)
}

func TestCreateRejectsUnknownDriver(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)

	_, err := svc.Create(context.Background(), CreateTripSheetRequest{VehicleID: 1, DriverID: 9}, 1)
	require.ErrorIs(t, err, shared.ErrReferenceNotFound)
}

func TestCompleteStampsEndBound(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	ts := newSheet(t, svc)
	_, err := svc.Start(ctx, ts.ID)
	require.NoError(t, err)

	completed, err := svc.Complete(ctx, ts.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, completed.Status)
	require.NotNil(t, completed.DateEnd)
	require.GreaterOrEqual(t, completed.DurationHours, 0.0)
}

func TestCompleteRequiresInProgress(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)

	ts := newSheet(t, svc)
	_, err := svc.Complete(context.Background(), ts.ID)
	require.True(t, shared.IsInvalidTransition(err))
}

func TestCancelFromAnyNonTerminal(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	ts := newSheet(t, svc)
	_, err := svc.Start(ctx, ts.ID)
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, ts.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, cancelled.Status)

	_, err = svc.Cancel(ctx, ts.ID)
	require.True(t, shared.IsInvalidTransition(err))
}

func TestUpdateBlockedAfterCompletion(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	ts := newSheet(t, svc)
	_, err := svc.Start(ctx, ts.ID)
	require.NoError(t, err)
	_, err = svc.Complete(ctx, ts.ID)
	require.NoError(t, err)

	km := 250.0
	_, err = svc.Update(ctx, ts.ID, UpdateTripSheetRequest{TotalDistanceKM: &km})
	require.ErrorIs(t, err, ErrCannotEdit)
}

func TestDeleteRemovesSheet(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	ts := newSheet(t, svc)
	require.NoError(t, svc.Delete(ctx, ts.ID))

	_, err := svc.Get(ctx, ts.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.Equal(t, []int64{ts.ID}, store.deleted)
}
