package lorryreceipt

import "time"

// Status represents the lifecycle of a lorry receipt.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusDispatched Status = "dispatched"
	StatusInTransit  Status = "in_transit"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// IsValid checks if the status is a known value.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusDispatched, StatusInTransit, StatusDelivered, StatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is allowed.
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanEdit checks if the receipt can still be edited.
func (s Status) CanEdit() bool {
	return s == StatusDraft
}

// CanDispatch checks if the consignment can be handed to the carrier.
func (s Status) CanDispatch() bool {
	return s == StatusDraft
}

// CanMarkInTransit checks if the consignment can move into transit.
func (s Status) CanMarkInTransit() bool {
	return s == StatusDispatched
}

// CanDeliver checks if the consignment can be marked delivered.
func (s Status) CanDeliver() bool {
	return s == StatusInTransit
}

// CanCancel checks if the receipt can be cancelled. Once goods are moving
// the receipt can no longer be voided.
func (s Status) CanCancel() bool {
	return s == StatusDraft || s == StatusDispatched
}

// Color maps a status to its display colour. Total over all inputs;
// unknown values fall back to gray.
func (s Status) Color() string {
	switch s {
	case StatusDraft:
		return "gray"
	case StatusDispatched:
		return "blue"
	case StatusInTransit:
		return "orange"
	case StatusDelivered:
		return "green"
	case StatusCancelled:
		return "red"
	default:
		return "gray"
	}
}

// PaymentMode enumerates how freight is settled.
type PaymentMode string

const (
	PaymentPaid       PaymentMode = "paid"
	PaymentToPay      PaymentMode = "to_pay"
	PaymentToBeBilled PaymentMode = "to_be_billed"
)

// IsValid checks if the payment mode is a known value.
func (m PaymentMode) IsValid() bool {
	switch m {
	case PaymentPaid, PaymentToPay, PaymentToBeBilled:
		return true
	default:
		return false
	}
}

// LorryReceipt is a consignment note evidencing goods accepted for carriage
// under a dispatch. It lives and dies with its parent dispatch.
type LorryReceipt struct {
	ID                  int64       `json:"id" db:"id"`
	Reference           string      `json:"reference" db:"reference"`
	LRNumber            string      `json:"lr_number" db:"lr_number"`
	DispatchID          int64       `json:"dispatch_id" db:"dispatch_id"`
	VehicleID           *int64      `json:"vehicle_id,omitempty" db:"vehicle_id"`
	DriverID            *int64      `json:"driver_id,omitempty" db:"driver_id"`
	ConsignorName       string      `json:"consignor_name" db:"consignor_name"`
	ConsigneeName       string      `json:"consignee_name" db:"consignee_name"`
	SourceLocation      string      `json:"source_location" db:"source_location"`
	DestinationLocation string      `json:"destination_location" db:"destination_location"`
	PackageCount        int         `json:"package_count" db:"package_count"`
	TotalWeightKG       float64     `json:"total_weight_kg" db:"total_weight_kg"`
	FreightAmount       float64     `json:"freight_amount" db:"freight_amount"`
	PaymentMode         PaymentMode `json:"payment_mode" db:"payment_mode"`
	Remarks             *string     `json:"remarks,omitempty" db:"remarks"`
	Status              Status      `json:"status" db:"status"`
	StatusColor         string      `json:"status_color"`
	DeliveredAt         *time.Time  `json:"delivered_at,omitempty" db:"delivered_at"`
	CreatedBy           int64       `json:"created_by" db:"created_by"`
	CreatedAt           time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at" db:"updated_at"`
}

// CreateLorryReceiptRequest represents request to book a new consignment.
type CreateLorryReceiptRequest struct {
	LRNumber            string      `json:"lr_number" validate:"required,max=50"`
	DispatchID          int64       `json:"dispatch_id" validate:"required,gt=0"`
	VehicleID           *int64      `json:"vehicle_id,omitempty" validate:"omitempty,gt=0"`
	DriverID            *int64      `json:"driver_id,omitempty" validate:"omitempty,gt=0"`
	ConsignorName       string      `json:"consignor_name" validate:"required,max=200"`
	ConsigneeName       string      `json:"consignee_name" validate:"required,max=200"`
	SourceLocation      string      `json:"source_location" validate:"required,max=200"`
	DestinationLocation string      `json:"destination_location" validate:"required,max=200"`
	PackageCount        int         `json:"package_count" validate:"gte=0"`
	TotalWeightKG       float64     `json:"total_weight_kg" validate:"gte=0"`
	FreightAmount       float64     `json:"freight_amount" validate:"gte=0"`
	PaymentMode         PaymentMode `json:"payment_mode" validate:"required,oneof=paid to_pay to_be_billed"`
	Remarks             *string     `json:"remarks,omitempty"`
}

// UpdateLorryReceiptRequest represents a partial edit of a draft receipt.
type UpdateLorryReceiptRequest struct {
	VehicleID           *int64       `json:"vehicle_id,omitempty" validate:"omitempty,gt=0"`
	DriverID            *int64       `json:"driver_id,omitempty" validate:"omitempty,gt=0"`
	ConsignorName       *string      `json:"consignor_name,omitempty" validate:"omitempty,max=200"`
	ConsigneeName       *string      `json:"consignee_name,omitempty" validate:"omitempty,max=200"`
	SourceLocation      *string      `json:"source_location,omitempty" validate:"omitempty,max=200"`
	DestinationLocation *string      `json:"destination_location,omitempty" validate:"omitempty,max=200"`
	PackageCount        *int         `json:"package_count,omitempty" validate:"omitempty,gte=0"`
	TotalWeightKG       *float64     `json:"total_weight_kg,omitempty" validate:"omitempty,gte=0"`
	FreightAmount       *float64     `json:"freight_amount,omitempty" validate:"omitempty,gte=0"`
	PaymentMode         *PaymentMode `json:"payment_mode,omitempty" validate:"omitempty,oneof=paid to_pay to_be_billed"`
	Remarks             *string      `json:"remarks,omitempty"`
}

// ListLorryReceiptsRequest represents filters for listing receipts.
type ListLorryReceiptsRequest struct {
	Status     *Status `json:"status,omitempty"`
	DispatchID *int64  `json:"dispatch_id,omitempty"`
	Limit      int     `json:"limit" validate:"gte=0,lte=1000"`
	Offset     int     `json:"offset" validate:"gte=0"`
}

// BatchTransitionRequest carries the ids for a batch transition call.
type BatchTransitionRequest struct {
	IDs []int64 `json:"ids" validate:"required,min=1,dive,gt=0"`
}

// BatchTransitionResult reports one receipt's outcome inside a batch call.
type BatchTransitionResult struct {
	ID    int64  `json:"id"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}
