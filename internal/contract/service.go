package contract

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Umair-28/logistics-management/internal/shared"
)

// ErrCannotEdit is returned when a non-draft contract is edited.
var ErrCannotEdit = errors.New("only draft contracts can be edited")

// Store is the persistence surface the service depends on.
type Store interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (*Contract, error)
	List(ctx context.Context, req ListContractsRequest) ([]Contract, int, error)
}

// Service provides business logic for logistics contracts.
type Service struct {
	store    Store
	activity *shared.ActivityLogger
	now      func() time.Time
}

// NewService constructs a contract service.
func NewService(store Store, activity *shared.ActivityLogger) *Service {
	return &Service{store: store, activity: activity, now: time.Now}
}

// Create drafts a new contract with an existing party.
func (s *Service) Create(ctx context.Context, req CreateContractRequest, createdBy int64) (*Contract, error) {
	var id int64
	err := s.store.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		ok, err := tx.CheckPartnerExists(ctx, req.PartnerID)
		if err != nil {
			return fmt.Errorf("check partner: %w", err)
		}
		if !ok {
			return fmt.Errorf("partner %d: %w", req.PartnerID, shared.ErrReferenceNotFound)
		}

		reference, err := tx.NextReference(ctx)
		if err != nil {
			return err
		}

		created, err := tx.CreateContract(ctx, Contract{
			Reference: reference,
			PartnerID: req.PartnerID,
			Type:      req.Type,
			StartDate: req.StartDate,
			EndDate:   req.EndDate,
			Amount:    req.Amount,
			Remarks:   req.Remarks,
			Status:    StatusDraft,
			CreatedBy: createdBy,
		})
		if err != nil {
			return fmt.Errorf("create contract: %w", err)
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
	s.activity.Log(ctx, shared.DocTypeContract, id, fmt.Sprintf("Contract %s created", created.Reference))
	return created, nil
}

// Update edits a draft contract.
func (s *Service) Update(ctx context.Context, id int64, req UpdateContractRequest) (*Contract, error) {
	err := s.store.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		existing, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("get contract: %w", err)
		}
		if !existing.Status.CanEdit() {
			return fmt.Errorf("%w (status %s)", ErrCannotEdit, existing.Status)
		}
		if req.PartnerID != nil {
			ok, err := tx.CheckPartnerExists(ctx, *req.PartnerID)
			if err != nil {
				return fmt.Errorf("check partner: %w", err)
			}
			if !ok {
				return fmt.Errorf("partner %d: %w", *req.PartnerID, shared.ErrReferenceNotFound)
			}
		}

		updates := make(map[string]interface{})
		if req.PartnerID != nil {
			updates["partner_id"] = *req.PartnerID
		}
		if req.Type != nil {
			updates["contract_type"] = *req.Type
		}
		if req.StartDate != nil {
			updates["start_date"] = *req.StartDate
		}
		if req.EndDate != nil {
			updates["end_date"] = *req.EndDate
		}
		if req.Amount != nil {
			updates["amount"] = *req.Amount
		}
		if req.Remarks != nil {
			updates["remarks"] = *req.Remarks
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.UpdateContract(ctx, id, updates)
	})
	if err != nil {
		return nil, err
	}
	return s.store.Get(ctx, id)
}

// Activate puts a draft contract into force.
func (s *Service) Activate(ctx context.Context, id int64) (*Contract, error) {
	return s.transition(ctx, id, StatusActive, Status.CanActivate,
		"Contract %s activated")
}

// MarkExpired closes out an active contract past its end date.
func (s *Service) MarkExpired(ctx context.Context, id int64) (*Contract, error) {
	return s.transition(ctx, id, StatusExpired, Status.CanExpire,
		"Contract %s expired")
}

// Terminate ends a contract early.
func (s *Service) Terminate(ctx context.Context, id int64) (*Contract, error) {
	return s.transition(ctx, id, StatusTerminated, Status.CanTerminate,
		"Contract %s terminated")
}

func (s *Service) transition(ctx context.Context, id int64, target Status, allowed func(Status) bool, message string) (*Contract, error) {
	var reference string
	err := s.store.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		existing, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("get contract: %w", err)
		}
		if !allowed(existing.Status) {
			return shared.NewInvalidTransition(shared.DocTypeContract, string(existing.Status), string(target))
		}
		reference = existing.Reference
		return tx.UpdateStatus(ctx, id, target)
	})
	if err != nil {
		return nil, err
	}

	s.activity.Log(ctx, shared.DocTypeContract, id, fmt.Sprintf(message, reference))
	return s.store.Get(ctx, id)
}

// Delete removes a contract.
func (s *Service) Delete(ctx context.Context, id int64) error {
	var reference string
	err := s.store.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		existing, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("get contract: %w", err)
		}
		reference = existing.Reference
		return tx.DeleteContract(ctx, id)
	})
	if err != nil {
		return err
	}

	s.activity.Log(ctx, shared.DocTypeContract, id, fmt.Sprintf("Contract %s deleted", reference))
	return nil
}

// Get retrieves a contract by ID.
func (s *Service) Get(ctx context.Context, id int64) (*Contract, error) {
	return s.store.Get(ctx, id)
}

// List returns contracts matching the filters.
func (s *Service) List(ctx context.Context, req ListContractsRequest) ([]Contract, int, error) {
	return s.store.List(ctx, req)
}
