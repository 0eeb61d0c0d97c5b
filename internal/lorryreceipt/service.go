package lorryreceipt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Umair-28/logistics-management/internal/docgraph"
	"github.com/Umair-28/logistics-management/internal/shared"
)

// ErrCannotEdit is returned when a non-draft receipt is edited.
var ErrCannotEdit = errors.New("only draft lorry receipts can be edited")

// Store is the persistence surface the service depends on.
type Store interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (*LorryReceipt, error)
	List(ctx context.Context, req ListLorryReceiptsRequest) ([]LorryReceipt, int, error)
}

// Service provides business logic for lorry receipts.
type Service struct {
	store    Store
	activity *shared.ActivityLogger
	now      func() time.Time
}

// NewService constructs a lorry receipt service.
func NewService(store Store, activity *shared.ActivityLogger) *Service {
	return &Service{store: store, activity: activity, now: time.Now}
}

// Create books a consignment under an existing dispatch. The parent's
// total_lr is recounted in the same transaction as the insert.
func (s *Service) Create(ctx context.Context, req CreateLorryReceiptRequest, createdBy int64) (*LorryReceipt, error) {
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

		created, err := tx.CreateLorryReceipt(ctx, LorryReceipt{
			Reference:           reference,
			LRNumber:            req.LRNumber,
			DispatchID:          req.DispatchID,
			VehicleID:           req.VehicleID,
			DriverID:            req.DriverID,
			ConsignorName:       req.ConsignorName,
			ConsigneeName:       req.ConsigneeName,
			SourceLocation:      req.SourceLocation,
			DestinationLocation: req.DestinationLocation,
			PackageCount:        req.PackageCount,
			TotalWeightKG:       req.TotalWeightKG,
			FreightAmount:       req.FreightAmount,
			PaymentMode:         req.PaymentMode,
			Remarks:             req.Remarks,
			Status:              StatusDraft,
			CreatedBy:           createdBy,
		})
		if err != nil {
			return fmt.Errorf("create lorry receipt: %w", err)
		}
		id = created

		if _, err := tx.RecountDispatchLRs(ctx, req.DispatchID); err != nil {
			return fmt.Errorf("recount dispatch receipts: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	created, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.activity.Log(ctx, docgraph.EntityLorryReceipt, id, fmt.Sprintf("Lorry Receipt %s created", created.Reference))
	return created, nil
}

// Update edits a draft receipt.
func (s *Service) Update(ctx context.Context, id int64, req UpdateLorryReceiptRequest) (*LorryReceipt, error) {
	err := s.store.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		existing, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("get lorry receipt: %w", err)
		}
		if !existing.Status.CanEdit() {
			return fmt.Errorf("%w (status %s)", ErrCannotEdit, existing.Status)
		}

		updates := make(map[string]interface{})
		if req.VehicleID != nil {
			updates["vehicle_id"] = *req.VehicleID
		}
		if req.DriverID != nil {
			updates["driver_id"] = *req.DriverID
		}
		if req.ConsignorName != nil {
			updates["consignor_name"] = *req.ConsignorName
		}
		if req.ConsigneeName != nil {
			updates["consignee_name"] = *req.ConsigneeName
		}
		if req.SourceLocation != nil {
			updates["source_location"] = *req.SourceLocation
		}
		if req.DestinationLocation != nil {
			updates["destination_location"] = *req.DestinationLocation
		}
		if req.PackageCount != nil {
			updates["package_count"] = *req.PackageCount
		}
		if req.TotalWeightKG != nil {
			updates["total_weight_kg"] = *req.TotalWeightKG
		}
		if req.FreightAmount != nil {
			updates["freight_amount"] = *req.FreightAmount
		}
		if req.PaymentMode != nil {
			updates["payment_mode"] = *req.PaymentMode
		}
		if req.Remarks != nil {
			updates["remarks"] = *req.Remarks
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.UpdateLorryReceipt(ctx, id, updates)
	})
	if err != nil {
		return nil, err
	}
	return s.store.Get(ctx, id)
}

// Dispatch hands the consignment to the carrier.
func (s *Service) Dispatch(ctx context.Context, id int64) (*LorryReceipt, error) {
	return s.transition(ctx, id, StatusDispatched, Status.CanDispatch, nil,
		"Lorry Receipt %s dispatched")
}

// MarkInTransit moves a dispatched consignment onto the road.
func (s *Service) MarkInTransit(ctx context.Context, id int64) (*LorryReceipt, error) {
	return s.transition(ctx, id, StatusInTransit, Status.CanMarkInTransit, nil,
		"Lorry Receipt %s in transit")
}

// Deliver marks the consignment delivered, stamping the delivery time.
func (s *Service) Deliver(ctx context.Context, id int64) (*LorryReceipt, error) {
	return s.transition(ctx, id, StatusDelivered, Status.CanDeliver,
		map[string]interface{}{"delivered_at": s.now()},
		"Lorry Receipt %s delivered")
}

// Cancel voids a receipt before its goods start moving.
func (s *Service) Cancel(ctx context.Context, id int64) (*LorryReceipt, error) {
	return s.transition(ctx, id, StatusCancelled, Status.CanCancel, nil,
		"Lorry Receipt %s cancelled")
}

func (s *Service) transition(ctx context.Context, id int64, target Status, allowed func(Status) bool, updates map[string]interface{}, message string) (*LorryReceipt, error) {
	var reference string
	err := s.store.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		existing, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("get lorry receipt: %w", err)
		}
		if !allowed(existing.Status) {
			return shared.NewInvalidTransition(docgraph.EntityLorryReceipt, string(existing.Status), string(target))
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

	s.activity.Log(ctx, docgraph.EntityLorryReceipt, id, fmt.Sprintf(message, reference))
	return s.store.Get(ctx, id)
}

// BatchDispatch applies Dispatch to each id independently.
func (s *Service) BatchDispatch(ctx context.Context, ids []int64) []BatchTransitionResult {
	return s.batch(ctx, ids, func(ctx context.Context, id int64) error {
		_, err := s.Dispatch(ctx, id)
		return err
	})
}

// BatchDeliver applies Deliver to each id independently.
func (s *Service) BatchDeliver(ctx context.Context, ids []int64) []BatchTransitionResult {
	return s.batch(ctx, ids, func(ctx context.Context, id int64) error {
		_, err := s.Deliver(ctx, id)
		return err
	})
}

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

// Delete removes a receipt. PODs pointing at it are detached and survive;
// the parent dispatch's total_lr is recounted inside the same transaction.
func (s *Service) Delete(ctx context.Context, id int64) error {
	var reference string
	err := s.store.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		existing, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("get lorry receipt: %w", err)
		}
		reference = existing.Reference

		if docgraph.ActionFor(docgraph.EntityLorryReceipt, docgraph.EntityPOD) == docgraph.Nullify {
			if _, err := tx.DetachPODs(ctx, id); err != nil {
				return &shared.CascadeError{Parent: docgraph.EntityLorryReceipt, Child: docgraph.EntityPOD, Err: err}
			}
		}
		if err := tx.DeleteLorryReceipt(ctx, id); err != nil {
			return err
		}
		if _, err := tx.RecountDispatchLRs(ctx, existing.DispatchID); err != nil {
			return fmt.Errorf("recount dispatch receipts: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.activity.Log(ctx, docgraph.EntityLorryReceipt, id, fmt.Sprintf("Lorry Receipt %s deleted", reference))
	return nil
}

// Get retrieves a receipt by ID.
func (s *Service) Get(ctx context.Context, id int64) (*LorryReceipt, error) {
	return s.store.Get(ctx, id)
}

// List returns receipts matching the filters.
func (s *Service) List(ctx context.Context, req ListLorryReceiptsRequest) ([]LorryReceipt, int, error) {
	return s.store.List(ctx, req)
}
