package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Umair-28/logistics-management/internal/docgraph"
	"github.com/Umair-28/logistics-management/internal/shared"
)

// ErrCannotEdit is returned when a non-draft dispatch is edited.
var ErrCannotEdit = errors.New("only draft dispatches can be edited")

// Store is the persistence surface the service depends on.
type Store interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (*RouteDispatch, error)
	GetByReference(ctx context.Context, reference string) (*RouteDispatch, error)
	List(ctx context.Context, req ListDispatchesRequest) ([]RouteDispatch, int, error)
}

// Service provides business logic for route dispatches.
type Service struct {
	store    Store
	activity *shared.ActivityLogger
	now      func() time.Time
}

// NewService constructs a dispatch service.
func NewService(store Store, activity *shared.ActivityLogger) *Service {
	return &Service{store: store, activity: activity, now: time.Now}
}

// Create plans a new dispatch in draft status, assigning its reference.
func (s *Service) Create(ctx context.Context, req CreateDispatchRequest, createdBy int64) (*RouteDispatch, error) {
	dispatchDate := s.now()
	if req.DispatchDate != nil {
		dispatchDate = *req.DispatchDate
	}

	var id int64
	err := s.store.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := checkReferences(ctx, tx, req.VehicleID, req.DriverID, req.TripSheetID); err != nil {
			return err
		}

		reference, err := tx.NextReference(ctx)
		if err != nil {
			return err
		}

		created, err := tx.CreateDispatch(ctx, RouteDispatch{
			Reference:           reference,
			DispatchDate:        dispatchDate,
			VehicleID:           req.VehicleID,
			DriverID:            req.DriverID,
			RouteName:           req.RouteName,
			SourceLocation:      req.SourceLocation,
			DestinationLocation: req.DestinationLocation,
			DistanceKM:          req.DistanceKM,
			EstimatedHours:      req.EstimatedHours,
			Status:              StatusDraft,
			TripSheetID:         req.TripSheetID,
			Remarks:             req.Remarks,
			CreatedBy:           createdBy,
		})
		if err != nil {
			return fmt.Errorf("create dispatch: %w", err)
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
	s.activity.Log(ctx, docgraph.EntityDispatch, id, fmt.Sprintf("Dispatch %s created", created.Reference))
	return created, nil
}

// Update edits a draft dispatch.
func (s *Service) Update(ctx context.Context, id int64, req UpdateDispatchRequest) (*RouteDispatch, error) {
	err := s.store.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		existing, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("get dispatch: %w", err)
		}
		if !existing.Status.CanEdit() {
			return fmt.Errorf("%w (status %s)", ErrCannotEdit, existing.Status)
		}
		if err := checkReferences(ctx, tx, req.VehicleID, req.DriverID, req.TripSheetID); err != nil {
			return err
		}

		updates := make(map[string]interface{})
		if req.DispatchDate != nil {
			updates["dispatch_date"] = *req.DispatchDate
		}
		if req.VehicleID != nil {
			updates["vehicle_id"] = *req.VehicleID
		}
		if req.DriverID != nil {
			updates["driver_id"] = *req.DriverID
		}
		if req.RouteName != nil {
			updates["route_name"] = *req.RouteName
		}
		if req.SourceLocation != nil {
			updates["source_location"] = *req.SourceLocation
		}
		if req.DestinationLocation != nil {
			updates["destination_location"] = *req.DestinationLocation
		}
		if req.DistanceKM != nil {
			updates["distance_km"] = *req.DistanceKM
		}
		if req.EstimatedHours != nil {
			updates["estimated_hours"] = *req.EstimatedHours
		}
		if req.TotalFuel != nil {
			updates["total_fuel"] = *req.TotalFuel
		}
		if req.MileageKMPL != nil {
			updates["mileage_kmpl"] = *req.MileageKMPL
		}
		if req.TripSheetID != nil {
			updates["trip_sheet_id"] = *req.TripSheetID
		}
		if req.Remarks != nil {
			updates["remarks"] = *req.Remarks
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.UpdateDispatch(ctx, id, updates)
	})
	if err != nil {
		return nil, err
	}
	return s.store.Get(ctx, id)
}

// checkReferences validates whichever cross-document references are present.
func checkReferences(ctx context.Context, tx TxRepository, vehicleID, driverID, tripSheetID *int64) error {
	if vehicleID != nil {
		ok, err := tx.CheckVehicleExists(ctx, *vehicleID)
		if err != nil {
			return fmt.Errorf("check vehicle: %w", err)
		}
		if !ok {
			return fmt.Errorf("vehicle %d: %w", *vehicleID, shared.ErrReferenceNotFound)
		}
	}
	if driverID != nil {
		ok, err := tx.CheckDriverExists(ctx, *driverID)
		if err != nil {
			return fmt.Errorf("check driver: %w", err)
		}
		if !ok {
			return fmt.Errorf("driver %d: %w", *driverID, shared.ErrReferenceNotFound)
		}
	}
	if tripSheetID != nil {
		ok, err := tx.CheckTripSheetExists(ctx, *tripSheetID)
		if err != nil {
			return fmt.Errorf("check trip sheet: %w", err)
		}
		if !ok {
			return fmt.Errorf("trip sheet %d: %w", *tripSheetID, shared.ErrReferenceNotFound)
		}
	}
	return nil
}

// Start moves a draft dispatch into transit.
func (s *Service) Start(ctx context.Context, id int64) (*RouteDispatch, error) {
	return s.transition(ctx, id, StatusInTransit, Status.CanStart, "started_at",
		"Trip started for Dispatch %s")
}

// Complete finishes an in-transit dispatch. Lorry receipt delivery state is
// not gated here; a dispatch may complete with undelivered receipts.
func (s *Service) Complete(ctx context.Context, id int64) (*RouteDispatch, error) {
	return s.transition(ctx, id, StatusCompleted, Status.CanComplete, "completed_at",
		"Trip completed for Dispatch %s")
}

// Cancel abandons a dispatch that has not reached a terminal state.
func (s *Service) Cancel(ctx context.Context, id int64) (*RouteDispatch, error) {
	return s.transition(ctx, id, StatusCancelled, Status.CanCancel, "cancelled_at",
		"Dispatch %s cancelled")
}

func (s *Service) transition(ctx context.Context, id int64, target Status, allowed func(Status) bool, stampColumn, message string) (*RouteDispatch, error) {
	var reference string
	err := s.store.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		existing, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("get dispatch: %w", err)
		}
		if !allowed(existing.Status) {
			return shared.NewInvalidTransition(docgraph.EntityDispatch, string(existing.Status), string(target))
		}
		reference = existing.Reference
		updates := map[string]interface{}{stampColumn: s.now()}
		return tx.UpdateStatus(ctx, id, target, updates)
	})
	if err != nil {
		return nil, err
	}

	s.activity.Log(ctx, docgraph.EntityDispatch, id, fmt.Sprintf(message, reference))
	return s.store.Get(ctx, id)
}

// BatchStart applies Start to each id independently.
func (s *Service) BatchStart(ctx context.Context, ids []int64) []BatchTransitionResult {
	return s.batch(ctx, ids, func(ctx context.Context, id int64) error {
		_, err := s.Start(ctx, id)
		return err
	})
}

// BatchComplete applies Complete to each id independently.
func (s *Service) BatchComplete(ctx context.Context, ids []int64) []BatchTransitionResult {
	return s.batch(ctx, ids, func(ctx context.Context, id int64) error {
		_, err := s.Complete(ctx, id)
		return err
	})
}

// BatchCancel applies Cancel to each id independently.
func (s *Service) BatchCancel(ctx context.Context, ids []int64) []BatchTransitionResult {
	return s.batch(ctx, ids, func(ctx context.Context, id int64) error {
		_, err := s.Cancel(ctx, id)
		return err
	})
}

// batch evaluates every member even when siblings fail; one member's error
// never aborts effects already applied to the others.
func (s *Service) batch(ctx context.Context, ids []int64, op func(context.Context, int64) error) []BatchTransitionResult {
	results := make([]BatchTransitionResult, 0, len(ids))
	for _, id := range ids {
		res := BatchTransitionResult{ID: id, OK: true}
		if err := op(ctx, id); err != nil {
			res.OK = false
			res.Error = err.Error()
		}
		results = append(results, res)
	}
	return results
}

// Delete removes a dispatch and applies the referential policy to its
// children in one atomic unit: lorry receipts and e-way bills are removed,
// PODs are detached and survive. Any child failure rolls everything back.
func (s *Service) Delete(ctx context.Context, id int64) error {
	var reference string
	err := s.store.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		existing, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("get dispatch: %w", err)
		}
		reference = existing.Reference

		for _, rule := range docgraph.RulesFor(docgraph.EntityDispatch) {
			if err := s.applyRule(ctx, tx, rule, id); err != nil {
				return &shared.CascadeError{Parent: docgraph.EntityDispatch, Child: rule.Child, Err: err}
			}
		}
		return tx.DeleteDispatch(ctx, id)
	})
	if err != nil {
		return err
	}

	s.activity.Log(ctx, docgraph.EntityDispatch, id, fmt.Sprintf("Dispatch %s deleted", reference))
	return nil
}

func (s *Service) applyRule(ctx context.Context, tx TxRepository, rule docgraph.Rule, dispatchID int64) error {
	switch {
	case rule.Child == docgraph.EntityLorryReceipt && rule.Action == docgraph.Cascade:
		// PODs must be detached from child receipts before those rows go.
		if docgraph.ActionFor(docgraph.EntityLorryReceipt, docgraph.EntityPOD) == docgraph.Nullify {
			if _, err := tx.DetachPODs(ctx, dispatchID); err != nil {
				return err
			}
		}
		_, err := tx.DeleteLorryReceipts(ctx, dispatchID)
		return err
	case rule.Child == docgraph.EntityEwayBill && rule.Action == docgraph.Cascade:
		_, err := tx.DeleteEwayBills(ctx, dispatchID)
		return err
	case rule.Child == docgraph.EntityPOD && rule.Action == docgraph.Nullify:
		_, err := tx.DetachPODs(ctx, dispatchID)
		return err
	default:
		return fmt.Errorf("docgraph: no executor for %s -> %s (%s)", rule.Parent, rule.Child, rule.Action)
	}
}

// Get retrieves a dispatch by ID.
func (s *Service) Get(ctx context.Context, id int64) (*RouteDispatch, error) {
	return s.store.Get(ctx, id)
}

// GetByReference retrieves a dispatch by reference code.
func (s *Service) GetByReference(ctx context.Context, reference string) (*RouteDispatch, error) {
	return s.store.GetByReference(ctx, reference)
}

// List returns dispatches matching the filters.
func (s *Service) List(ctx context.Context, req ListDispatchesRequest) ([]RouteDispatch, int, error) {
	return s.store.List(ctx, req)
}
