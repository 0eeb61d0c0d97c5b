package pod

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Umair-28/logistics-management/internal/docgraph"
	"github.com/Umair-28/logistics-management/internal/shared"
)

// ErrCannotEdit is returned when a non-draft POD is edited.
var ErrCannotEdit = errors.New("only draft proofs of delivery can be edited")

// Store is the persistence surface the service depends on.
type Store interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (*ProofOfDelivery, error)
	List(ctx context.Context, req ListPODsRequest) ([]ProofOfDelivery, int, error)
}

// Service provides business logic for proofs of delivery.
type Service struct {
	store    Store
	activity *shared.ActivityLogger
	now      func() time.Time
}

// NewService constructs a POD service.
func NewService(store Store, activity *shared.ActivityLogger) *Service {
	return &Service{store: store, activity: activity, now: time.Now}
}

// Create records new delivery evidence in draft status. Referenced parents
// must exist at link time, though both links are optional.
func (s *Service) Create(ctx context.Context, req CreatePODRequest, createdBy int64) (*ProofOfDelivery, error) {
	var id int64
	err := s.store.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if req.DispatchID != nil {
			ok, err := tx.CheckDispatchExists(ctx, *req.DispatchID)
			if err != nil {
				return fmt.Errorf("check dispatch: %w", err)
			}
			if !ok {
				return fmt.Errorf("dispatch %d: %w", *req.DispatchID, shared.ErrReferenceNotFound)
			}
		}
		if req.LorryReceiptID != nil {
			ok, err := tx.CheckLorryReceiptExists(ctx, *req.LorryReceiptID)
			if err != nil {
				return fmt.Errorf("check lorry receipt: %w", err)
			}
			if !ok {
				return fmt.Errorf("lorry receipt %d: %w", *req.LorryReceiptID, shared.ErrReferenceNotFound)
			}
		}

		reference, err := tx.NextReference(ctx)
		if err != nil {
			return err
		}

		created, err := tx.CreatePOD(ctx, ProofOfDelivery{
			Reference:      reference,
			DispatchID:     req.DispatchID,
			LorryReceiptID: req.LorryReceiptID,
			ReceivedBy:     req.ReceivedBy,
			Remarks:        req.Remarks,
			SignedDocument: req.SignedDocument,
			Signature:      req.Signature,
			Status:         StatusDraft,
			CreatedBy:      createdBy,
		})
		if err != nil {
			return fmt.Errorf("create pod: %w", err)
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
	s.activity.Log(ctx, docgraph.EntityPOD, id, fmt.Sprintf("POD %s created", created.Reference))
	return created, nil
}

// Update edits a draft POD.
func (s *Service) Update(ctx context.Context, id int64, req UpdatePODRequest) (*ProofOfDelivery, error) {
	err := s.store.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		existing, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("get pod: %w", err)
		}
		if !existing.Status.CanEdit() {
			return fmt.Errorf("%w (status %s)", ErrCannotEdit, existing.Status)
		}

		updates := make(map[string]interface{})
		if req.ReceivedBy != nil {
			updates["received_by"] = *req.ReceivedBy
		}
		if req.Remarks != nil {
			updates["remarks"] = *req.Remarks
		}
		if req.SignedDocument != nil {
			updates["signed_document"] = req.SignedDocument
		}
		if req.Signature != nil {
			updates["signature"] = req.Signature
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.UpdatePOD(ctx, id, updates)
	})
	if err != nil {
		return nil, err
	}
	return s.store.Get(ctx, id)
}

// MarkDelivered records the handover, stamping the delivery date.
func (s *Service) MarkDelivered(ctx context.Context, id int64) (*ProofOfDelivery, error) {
	return s.transition(ctx, id, StatusDelivered, Status.CanDeliver,
		map[string]interface{}{"delivery_date": s.now()},
		"POD %s marked delivered")
}

// Verify confirms the delivery evidence, stamping who verified and when.
// The verifier is the acting identity from the request context.
func (s *Service) Verify(ctx context.Context, id int64) (*ProofOfDelivery, error) {
	actor := shared.ActorFromContext(ctx)
	return s.transition(ctx, id, StatusVerified, Status.CanVerify,
		map[string]interface{}{"verified_by": actor, "verified_date": s.now()},
		"POD %s verified")
}

// Cancel voids a POD that has not been verified.
func (s *Service) Cancel(ctx context.Context, id int64) (*ProofOfDelivery, error) {
	return s.transition(ctx, id, StatusCancelled, Status.CanCancel, nil,
		"POD %s cancelled")
}

func (s *Service) transition(ctx context.Context, id int64, target Status, allowed func(Status) bool, updates map[string]interface{}, message string) (*ProofOfDelivery, error) {
	var reference string
	err := s.store.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		existing, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("get pod: %w", err)
		}
		if !allowed(existing.Status) {
			return shared.NewInvalidTransition(docgraph.EntityPOD, string(existing.Status), string(target))
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

	s.activity.Log(ctx, docgraph.EntityPOD, id, fmt.Sprintf(message, reference))
	return s.store.Get(ctx, id)
}

// Delete removes a POD. It has no owned children, so no cascade applies.
func (s *Service) Delete(ctx context.Context, id int64) error {
	var reference string
	err := s.store.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		existing, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("get pod: %w", err)
		}
		reference = existing.Reference
		return tx.DeletePOD(ctx, id)
	})
	if err != nil {
		return err
	}

	s.activity.Log(ctx, docgraph.EntityPOD, id, fmt.Sprintf("POD %s deleted", reference))
	return nil
}

// Get retrieves a POD by ID.
func (s *Service) Get(ctx context.Context, id int64) (*ProofOfDelivery, error) {
	return s.store.Get(ctx, id)
}

// List returns PODs matching the filters.
func (s *Service) List(ctx context.Context, req ListPODsRequest) ([]ProofOfDelivery, int, error) {
	return s.store.List(ctx, req)
}
