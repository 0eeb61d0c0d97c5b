package ewaybill

import "time"

// Status represents the lifecycle of an e-way bill.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusActive    Status = "active"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

// IsValid checks if the status is a known value.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusExpired, StatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is allowed.
func (s Status) IsTerminal() bool {
	return s == StatusExpired || s == StatusCancelled
}

// CanEdit checks if the bill can still be edited.
func (s Status) CanEdit() bool {
	return s == StatusDraft
}

// CanActivate checks if the bill can be put into force.
func (s Status) CanActivate() bool {
	return s == StatusDraft
}

// CanExpire checks if the bill can be marked expired. Expiry is an
// externally triggered transition; is_expired is a separate read-time
// predicate and no timer drives this.
func (s Status) CanExpire() bool {
	return s == StatusActive
}

// CanCancel checks if the bill can be cancelled.
func (s Status) CanCancel() bool {
	return s == StatusDraft || s == StatusActive
}

// EwayBill is a regulatory transport document with a validity window. It
// belongs to its dispatch and is removed with it.
type EwayBill struct {
	ID            int64      `json:"id" db:"id"`
	Reference     string     `json:"reference" db:"reference"`
	EwayBillNo    string     `json:"ewaybill_no" db:"ewaybill_no"`
	DispatchID    int64      `json:"dispatch_id" db:"dispatch_id"`
	VehicleNumber *string    `json:"vehicle_number,omitempty" db:"vehicle_number"`
	Transporter   *string    `json:"transporter,omitempty" db:"transporter"`
	DistanceKM    float64    `json:"distance_km" db:"distance_km"`
	ValidUpto     *time.Time `json:"valid_upto,omitempty" db:"valid_upto"`
	Remarks       *string    `json:"remarks,omitempty" db:"remarks"`
	Status        Status     `json:"status" db:"status"`
	IsExpired     bool       `json:"is_expired"`
	CreatedBy     int64      `json:"created_by" db:"created_by"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// ComputeIsExpired reports whether the validity window has passed at the
// given instant. Unset validity means not expired.
func ComputeIsExpired(validUpto *time.Time, at time.Time) bool {
	return validUpto != nil && validUpto.Before(at)
}

// CreateEwayBillRequest represents request to register a new e-way bill.
type CreateEwayBillRequest struct {
	EwayBillNo    string     `json:"ewaybill_no" validate:"required,max=50"`
	DispatchID    int64      `json:"dispatch_id" validate:"required,gt=0"`
	VehicleNumber *string    `json:"vehicle_number,omitempty" validate:"omitempty,max=50"`
	Transporter   *string    `json:"transporter,omitempty" validate:"omitempty,max=200"`
	DistanceKM    float64    `json:"distance_km" validate:"gte=0"`
	ValidUpto     *time.Time `json:"valid_upto,omitempty"`
	Remarks       *string    `json:"remarks,omitempty"`
}

// UpdateEwayBillRequest represents a partial edit of a draft bill.
type UpdateEwayBillRequest struct {
	EwayBillNo    *string    `json:"ewaybill_no,omitempty" validate:"omitempty,max=50"`
	VehicleNumber *string    `json:"vehicle_number,omitempty" validate:"omitempty,max=50"`
	Transporter   *string    `json:"transporter,omitempty" validate:"omitempty,max=200"`
	DistanceKM    *float64   `json:"distance_km,omitempty" validate:"omitempty,gte=0"`
	ValidUpto     *time.Time `json:"valid_upto,omitempty"`
	Remarks       *string    `json:"remarks,omitempty"`
}

// ListEwayBillsRequest represents filters for listing e-way bills.
type ListEwayBillsRequest struct {
	Status     *Status `json:"status,omitempty"`
	DispatchID *int64  `json:"dispatch_id,omitempty"`
	Limit      int     `json:"limit" validate:"gte=0,lte=1000"`
	Offset     int     `json:"offset" validate:"gte=0"`
}
