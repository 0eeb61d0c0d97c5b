package tripsheet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Umair-28/logistics-management/internal/docgraph"
	"github.com/Umair-28/logistics-management/internal/shared"
)

// ErrCannotEdit is returned when a completed or cancelled trip sheet is edited.
var ErrCannotEdit = errors.New("completed or cancelled trip sheets cannot be edited")

// Store is the persistence surface the service depends on.
type Store interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (*TripSheet, error)
	List(ctx context.Context, req ListTripSheetsRequest) ([]TripSheet, int, error)
}

// Service provides business logic for trip sheets.
type Service struct {
	store    Store
	activity *shared.ActivityLogger
	now      func() time.Time
}

// NewService constructs a trip sheet service.
func NewService(store Store, activity *shared.ActivityLogger) *Service {
	return &Service{store: store, activity: activity, now: time.Now}
}

// Create opens a new trip sheet in draft status, assigning its reference.
// Both vehicle and driver must exist; the start bound defaults to now.
func (s *Service) Create(ctx context.Context, req CreateTripSheetRequest, createdBy int64) (*TripSheet, error) {
	dateStart := s.now()
	if req.DateStart != nil {
		dateStart = *req.DateStart
	}

	var id int64
	err := s.store.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		ok, err := tx.CheckVehicleExists(ctx, req.VehicleID)
		if err != nil {
			return fmt.Errorf("check vehicle: %w", err)
		}
		if !ok {
			return fmt.Errorf("vehicle %d: %w", req.VehicleID, shared.ErrReferenceNotFound)
		}
		ok, err = tx.CheckDriverExists(ctx, req.DriverID)
		if err != nil {
			return fmt.Errorf("check driver: %w", err)
		}
		if !ok {
			return fmt.Errorf("driver %d: %w", req.DriverID, shared.ErrReferenceNotFound)
		}

		reference, err := tx.NextReference(ctx)
		if err != nil {
			return err
		}

		created, err := tx.CreateTripSheet(ctx, TripSheet{
			Reference:       reference,
			VehicleID:       req.VehicleID,
			DriverID:        req.DriverID,
			DateStart:       &dateStart,
			TotalDistanceKM: req.TotalDistanceKM,
			Remarks:         req.Remarks,
			Status:          StatusDraft,
			CreatedBy:       createdBy,
		})
		if err != nil {
			return fmt.Errorf("create trip sheet: %w", err)
		}
		id = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	created, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.activity.Log(ctx, docgraph.EntityTripSheet, id, fmt.Sprintf("Trip Sheet %s created", created.Reference))
	return created, nil
}

// Update edits a non-terminal trip sheet. Duration follows the bounds
// automatically since it is derived on read.
func (s *Service) Update(ctx context.Context, id int64, req UpdateTripSheetRequest) (*TripSheet, error) {
	err := s.store.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		existing, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("get trip sheet: %w", err)
		}
		if !existing.Status.CanEdit() {
			return fmt.Errorf("%w (status %s)", ErrCannotEdit, existing.Status)
		}
		if req.VehicleID != nil {
			ok, err := tx.CheckVehicleExists(ctx, *req.VehicleID)
			if err != nil {
				return fmt.Errorf("check vehicle: %w", err)
			}
			if !ok {
				return fmt.Errorf("vehicle %d: %w", *req.VehicleID, shared.ErrReferenceNotFound)
			}
		}
		if req.DriverID != nil {
			ok, err := tx.CheckDriverExists(ctx, *req.DriverID)
			if err != nil {
				return fmt.Errorf("check driver: %w", err)
			}
			if !ok {
				return fmt.Errorf("driver %d: %w", *req.DriverID, shared.ErrReferenceNotFound)
			}
		}

		updates := make(map[string]interface{})
		if req.VehicleID != nil {
			updates["vehicle_id"] = *req.VehicleID
		}
		if req.DriverID != nil {
			updates["driver_id"] = *req.DriverID
		}
		if req.DateStart != nil {
			updates["date_start"] = *req.DateStart
		}
		if req.DateEnd != nil {
			updates["date_end"] = *req.DateEnd
		}
		if req.TotalDistanceKM != nil {
			updates["total_distance_km"] = *req.TotalDistanceKM
		}
		if req.Remarks != nil {
			updates["remarks"] = *req.Remarks
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.UpdateTripSheet(ctx, id, updates)
	})
	if err != nil {
		return nil, err
	}
	return s.store.Get(ctx, id)
}

// Start moves a draft trip sheet into progress.
func (s *Service) Start(ctx context.Context, id int64) (*TripSheet, error) {
	return s.transition(ctx, id, StatusInProgress, Status.CanStart, nil,
		"Trip Sheet %s started")
}

// Complete finishes an in-progress trip sheet, stamping the end bound.
func (s *Service) Complete(ctx context.Context, id int64) (*TripSheet, error) {
	end := s.now()
	return s.transition(ctx, id, StatusCompleted, Status.CanComplete,
		map[string]interface{}{"date_end": end},
		"Trip Sheet %s completed")
}

// Cancel abandons a trip sheet from any non-terminal state.
func (s *Service) Cancel(ctx context.Context, id int64) (*TripSheet, error) {
	return s.transition(ctx, id, StatusCancelled, Status.CanCancel, nil,
		"Trip Sheet %s cancelled")
}

func (s *Service) transition(ctx context.Context, id int64, target Status, allowed func(Status) bool, updates map[string]interface{}, message string) (*TripSheet, error) {
	var reference string
	err := s.store.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		existing, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("get trip sheet: %w", err)
		}
		if !allowed(existing.Status) {
			return shared.NewInvalidTransition(docgraph.EntityTripSheet, string(existing.Status), string(target))
		}
		reference = existing.Reference
		if updates == nil {
			updates = map[string]interface{}{}
		}
		return tx.UpdateStatus(ctx, id, target, updates)
	})
	if err != nil {
		return nil, err
	}

	s.activity.Log(ctx, docgraph.EntityTripSheet, id, fmt.Sprintf(message, reference))
	return s.store.Get(ctx, id)
}

// Delete removes a trip sheet. Dispatches linked to it are detached, never
// deleted; a trip sheet is a record of a run, not an owner of documents.
func (s *Service) Delete(ctx context.Context, id int64) error {
	var reference string
	err := s.store.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		existing, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("get trip sheet: %w", err)
		}
		reference = existing.Reference
		return tx.DeleteTripSheet(ctx, id)
	})
	if err != nil {
		return err
	}

	s.activity.Log(ctx, docgraph.EntityTripSheet, id, fmt.Sprintf("Trip Sheet %s deleted", reference))
	return nil
}

// Get retrieves a trip sheet by ID.
func (s *Service) Get(ctx context.Context, id int64) (*TripSheet, error) {
	return s.store.Get(ctx, id)
}

// List returns trip sheets matching the filters.
func (s *Service) List(ctx context.Context, req ListTripSheetsRequest) ([]TripSheet, int, error) {
	return s.store.List(ctx, req)
}
