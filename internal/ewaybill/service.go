package ewaybill

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Umair-28/logistics-management/internal/docgraph"
	"github.com/Umair-28/logistics-management/internal/shared"
)

// ErrCannotEdit is returned when a non-draft e-way bill is edited.
var ErrCannotEdit = errors.New("only draft e-way bills can be edited")

// Store is the persistence surface the service depends on.
type Store interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (*EwayBill, error)
	List(ctx context.Context, req ListEwayBillsRequest) ([]EwayBill, int, error)
}

// Service provides business logic for e-way bills.
type Service struct {
	store    Store
	activity *shared.ActivityLogger
	now      func() time.Time
}

// NewService constructs an e-way bill service.
func NewService(store Store, activity *shared.ActivityLogger) *Service {
	return &Service{store: store, activity: activity, now: time.Now}
}

// Create registers a new e-way bill in draft status under an existing
// dispatch.
func (s *Service) Create(ctx context.Context, req CreateEwayBillRequest, createdBy int64) (*EwayBill, error) {
	var id int64
	err := s.store.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		ok, err := tx.CheckDispatchExists(ctx, req.DispatchID)
		if err != nil {
			return fmt.Errorf("check dispatch: %w", err)
		}
		if !ok {
			return fmt.Errorf("dispatch %d: %w", req.DispatchID, shared.ErrReferenceNotFound)
		}

		reference, err := tx.NextReference(ctx)
		if err != nil {
			return err
		}

		created, err := tx.CreateEwayBill(ctx, EwayBill{
			Reference:     reference,
			EwayBillNo:    req.EwayBillNo,
			DispatchID:    req.DispatchID,
			VehicleNumber: req.VehicleNumber,
			Transporter:   req.Transporter,
			DistanceKM:    req.DistanceKM,
			ValidUpto:     req.ValidUpto,
			Remarks:       req.Remarks,
			Status:        StatusDraft,
			CreatedBy:     createdBy,
		})
		if err != nil {
			return fmt.Errorf("create eway bill: %w", err)
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
	s.activity.Log(ctx, docgraph.EntityEwayBill, id, fmt.Sprintf("E-Way Bill %s created", created.Reference))
	return created, nil
}

// Update edits a draft e-way bill.
func (s *Service) Update(ctx context.Context, id int64, req UpdateEwayBillRequest) (*EwayBill, error) {
	err := s.store.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		existing, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("get eway bill: %w", err)
		}
		if !existing.Status.CanEdit() {
			return fmt.Errorf("%w (status %s)", ErrCannotEdit, existing.Status)
		}

		updates := make(map[string]interface{})
		if req.EwayBillNo != nil {
			updates["ewaybill_no"] = *req.EwayBillNo
		}
		if req.VehicleNumber != nil {
			updates["vehicle_number"] = *req.VehicleNumber
		}
		if req.Transporter != nil {
			updates["transporter"] = *req.Transporter
		}
		if req.DistanceKM != nil {
			updates["distance_km"] = *req.DistanceKM
		}
		if req.ValidUpto != nil {
			updates["valid_upto"] = *req.ValidUpto
		}
		if req.Remarks != nil {
			updates["remarks"] = *req.Remarks
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.UpdateEwayBill(ctx, id, updates)
	})
	if err != nil {
		return nil, err
	}
	return s.store.Get(ctx, id)
}

// Activate puts a draft e-way bill into force.
func (s *Service) Activate(ctx context.Context, id int64) (*EwayBill, error) {
	return s.transition(ctx, id, StatusActive, Status.CanActivate,
		"E-Way Bill %s activated")
}

// MarkExpired closes out an active e-way bill whose window has passed.
func (s *Service) MarkExpired(ctx context.Context, id int64) (*EwayBill, error) {
	return s.transition(ctx, id, StatusExpired, Status.CanExpire,
		"E-Way Bill %s expired")
}

// Cancel voids an e-way bill before it expires.
func (s *Service) Cancel(ctx context.Context, id int64) (*EwayBill, error) {
	return s.transition(ctx, id, StatusCancelled, Status.CanCancel,
		"E-Way Bill %s cancelled")
}

func (s *Service) transition(ctx context.Context, id int64, target Status, allowed func(Status) bool, message string) (*EwayBill, error) {
	var reference string
	err := s.store.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		existing, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("get eway bill: %w", err)
		}
		if !allowed(existing.Status) {
			return shared.NewInvalidTransition(docgraph.EntityEwayBill, string(existing.Status), string(target))
		}
		reference = existing.Reference
		return tx.UpdateStatus(ctx, id, target)
	})
	if err != nil {
		return nil, err
	}

	s.activity.Log(ctx, docgraph.EntityEwayBill, id, fmt.Sprintf(message, reference))
	return s.store.Get(ctx, id)
}

// Delete removes an e-way bill.
func (s *Service) Delete(ctx context.Context, id int64) error {
	var reference string
	err := s.store.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		existing, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("get eway bill: %w", err)
		}
		reference = existing.Reference
		return tx.DeleteEwayBill(ctx, id)
	})
	if err != nil {
		return err
	}

	s.activity.Log(ctx, docgraph.EntityEwayBill, id, fmt.Sprintf("E-Way Bill %s deleted", reference))
	return nil
}

// Get retrieves an e-way bill by ID.
func (s *Service) Get(ctx context.Context, id int64) (*EwayBill, error) {
	return s.store.Get(ctx, id)
}

// List returns e-way bills matching the filters.
func (s *Service) List(ctx context.Context, req ListEwayBillsRequest) ([]EwayBill, int, error) {
	return s.store.List(ctx, req)
}
