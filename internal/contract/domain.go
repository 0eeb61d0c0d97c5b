package contract

import "time"

// Status represents the lifecycle of a logistics contract.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusActive     Status = "active"
	StatusExpired    Status = "expired"
	StatusTerminated Status = "terminated"
)

// IsValid checks if the status is a known value.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusExpired, StatusTerminated:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is allowed.
func (s Status) IsTerminal() bool {
	return s == StatusExpired || s == StatusTerminated
}

// CanEdit checks if the contract can still be edited.
func (s Status) CanEdit() bool {
	return s == StatusDraft
}

// CanActivate checks if the contract can be put into force.
func (s Status) CanActivate() bool {
	return s == StatusDraft
}

// CanExpire checks if the contract can be closed as expired.
func (s Status) CanExpire() bool {
	return s == StatusActive
}

// CanTerminate checks if the contract can be terminated early.
func (s Status) CanTerminate() bool {
	return s == StatusDraft || s == StatusActive
}

// Type enumerates the kinds of agreement a contract covers.
type Type string

const (
	TypeCustomer    Type = "customer"
	TypeVendor      Type = "vendor"
	TypeTransporter Type = "transporter"
	TypeLease       Type = "lease"
	TypeFuel        Type = "fuel"
)

// IsValid checks if the contract type is a known value.
func (t Type) IsValid() bool {
	switch t {
	case TypeCustomer, TypeVendor, TypeTransporter, TypeLease, TypeFuel:
		return true
	default:
		return false
	}
}

// Contract is a commercial agreement with a party: a customer, vendor,
// transporter, vehicle lease or fuel supply deal.
type Contract struct {
	ID        int64     `json:"id" db:"id"`
	Reference string    `json:"reference" db:"reference"`
	PartnerID int64     `json:"partner_id" db:"partner_id"`
	Type      Type      `json:"contract_type" db:"contract_type"`
	StartDate time.Time `json:"start_date" db:"start_date"`
	EndDate   time.Time `json:"end_date" db:"end_date"`
	Amount    float64   `json:"amount" db:"amount"`
	Remarks   *string   `json:"remarks,omitempty" db:"remarks"`
	Status    Status    `json:"status" db:"status"`
	IsExpired bool      `json:"is_expired"`
	CreatedBy int64     `json:"created_by" db:"created_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ComputeIsExpired reports whether the contract's end date has passed at
// the given instant.
func ComputeIsExpired(endDate time.Time, at time.Time) bool {
	return !endDate.IsZero() && endDate.Before(at)
}

// CreateContractRequest represents request to draft a new contract.
type CreateContractRequest struct {
	PartnerID int64     `json:"partner_id" validate:"required,gt=0"`
	Type      Type      `json:"contract_type" validate:"required,oneof=customer vendor transporter lease fuel"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required,gtfield=StartDate"`
	Amount    float64   `json:"amount" validate:"gte=0"`
	Remarks   *string   `json:"remarks,omitempty"`
}

// UpdateContractRequest represents a partial edit of a draft contract.
type UpdateContractRequest struct {
	PartnerID *int64     `json:"partner_id,omitempty" validate:"omitempty,gt=0"`
	Type      *Type      `json:"contract_type,omitempty" validate:"omitempty,oneof=customer vendor transporter lease fuel"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	Amount    *float64   `json:"amount,omitempty" validate:"omitempty,gte=0"`
	Remarks   *string    `json:"remarks,omitempty"`
}

// ListContractsRequest represents filters for listing contracts.
type ListContractsRequest struct {
	Status    *Status `json:"status,omitempty"`
	PartnerID *int64  `json:"partner_id,omitempty"`
	Type      *Type   `json:"contract_type,omitempty"`
	Limit     int     `json:"limit" validate:"gte=0,lte=1000"`
	Offset    int     `json:"offset" validate:"gte=0"`
}
