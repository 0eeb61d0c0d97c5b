package pod

import "time"

// Status represents the lifecycle of a proof of delivery.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusDelivered Status = "delivered"
	StatusVerified  Status = "verified"
	StatusCancelled Status = "cancelled"
)

// IsValid checks if the status is a known value.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusDelivered, StatusVerified, StatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is allowed.
func (s Status) IsTerminal() bool {
	return s == StatusVerified || s == StatusCancelled
}

// CanEdit checks if the POD can still be edited.
func (s Status) CanEdit() bool {
	return s == StatusDraft
}

// CanDeliver checks if the POD can be marked delivered.
func (s Status) CanDeliver() bool {
	return s == StatusDraft
}

// CanVerify checks if the delivered evidence can be verified.
func (s Status) CanVerify() bool {
	return s == StatusDelivered
}

// CanCancel checks if the POD can be cancelled.
func (s Status) CanCancel() bool {
	return s == StatusDraft || s == StatusDelivered
}

// ProofOfDelivery is evidence that goods were received. It references its
// dispatch and lorry receipt weakly: either parent may be deleted and the
// POD survives with the link cleared.
type ProofOfDelivery struct {
	ID             int64      `json:"id" db:"id"`
	Reference      string     `json:"reference" db:"reference"`
	DispatchID     *int64     `json:"dispatch_id,omitempty" db:"dispatch_id"`
	LorryReceiptID *int64     `json:"lorry_receipt_id,omitempty" db:"lorry_receipt_id"`
	ReceivedBy     *string    `json:"received_by,omitempty" db:"received_by"`
	DeliveryDate   *time.Time `json:"delivery_date,omitempty" db:"delivery_date"`
	Remarks        *string    `json:"remarks,omitempty" db:"remarks"`
	SignedDocument []byte     `json:"signed_document,omitempty" db:"signed_document"`
	Signature      []byte     `json:"signature,omitempty" db:"signature"`
	Status         Status     `json:"status" db:"status"`
	VerifiedBy     *int64     `json:"verified_by,omitempty" db:"verified_by"`
	VerifiedDate   *time.Time `json:"verified_date,omitempty" db:"verified_date"`
	CreatedBy      int64      `json:"created_by" db:"created_by"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// CreatePODRequest represents request to record new delivery evidence.
type CreatePODRequest struct {
	DispatchID     *int64  `json:"dispatch_id,omitempty" validate:"omitempty,gt=0"`
	LorryReceiptID *int64  `json:"lorry_receipt_id,omitempty" validate:"omitempty,gt=0"`
	ReceivedBy     *string `json:"received_by,omitempty" validate:"omitempty,max=200"`
	Remarks        *string `json:"remarks,omitempty"`
	SignedDocument []byte  `json:"signed_document,omitempty"`
	Signature      []byte  `json:"signature,omitempty"`
}

// UpdatePODRequest represents a partial edit of a draft POD.
type UpdatePODRequest struct {
	ReceivedBy     *string `json:"received_by,omitempty" validate:"omitempty,max=200"`
	Remarks        *string `json:"remarks,omitempty"`
	SignedDocument []byte  `json:"signed_document,omitempty"`
	Signature      []byte  `json:"signature,omitempty"`
}

// ListPODsRequest represents filters for listing PODs.
type ListPODsRequest struct {
	Status         *Status `json:"status,omitempty"`
	DispatchID     *int64  `json:"dispatch_id,omitempty"`
	LorryReceiptID *int64  `json:"lorry_receipt_id,omitempty"`
	Limit          int     `json:"limit" validate:"gte=0,lte=1000"`
	Offset         int     `json:"offset" validate:"gte=0"`
}
