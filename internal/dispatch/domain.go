package dispatch

import "time"

// Status represents the lifecycle of a route dispatch.
type Status string

const (
	StatusDraft     Status = "draft"     // planned, editable
	StatusInTransit Status = "in_transit" // trip underway
	StatusCompleted Status = "completed"  // trip finished
	StatusCancelled Status = "cancelled"  // abandoned before completion
)

// IsValid checks if the status is a known value.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusInTransit, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is allowed.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanEdit checks if the dispatch can still be edited.
func (s Status) CanEdit() bool {
	return s == StatusDraft
}

// CanStart checks if the trip can be started.
func (s Status) CanStart() bool {
	return s == StatusDraft
}

// CanComplete checks if the trip can be completed.
func (s Status) CanComplete() bool {
	return s == StatusInTransit
}

// CanCancel checks if the dispatch can be cancelled.
func (s Status) CanCancel() bool {
	return s == StatusDraft || s == StatusInTransit
}

// RouteDispatch is a single planned or executed truck trip, the root of the
// document graph for lorry receipts, PODs and e-way bills on that trip.
type RouteDispatch struct {
	ID                  int64      `json:"id" db:"id"`
	Reference           string     `json:"reference" db:"reference"`
	DispatchDate        time.Time  `json:"dispatch_date" db:"dispatch_date"`
	VehicleID           *int64     `json:"vehicle_id,omitempty" db:"vehicle_id"`
	DriverID            *int64     `json:"driver_id,omitempty" db:"driver_id"`
	RouteName           *string    `json:"route_name,omitempty" db:"route_name"`
	SourceLocation      string     `json:"source_location" db:"source_location"`
	DestinationLocation string     `json:"destination_location" db:"destination_location"`
	DistanceKM          float64    `json:"distance_km" db:"distance_km"`
	EstimatedHours      float64    `json:"estimated_hours" db:"estimated_hours"`
	Status              Status     `json:"status" db:"status"`
	TripSheetID         *int64     `json:"trip_sheet_id,omitempty" db:"trip_sheet_id"`
	TotalFuel           float64    `json:"total_fuel" db:"total_fuel"`
	MileageKMPL         float64    `json:"mileage_kmpl" db:"mileage_kmpl"`
	Remarks             *string    `json:"remarks,omitempty" db:"remarks"`
	TotalLR             int        `json:"total_lr" db:"total_lr"`
	StartedAt           *time.Time `json:"started_at,omitempty" db:"started_at"`
	CompletedAt         *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	CancelledAt         *time.Time `json:"cancelled_at,omitempty" db:"cancelled_at"`
	CreatedBy           int64      `json:"created_by" db:"created_by"`
	CreatedAt           time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at" db:"updated_at"`
}

// CreateDispatchRequest represents request to plan a new dispatch.
type CreateDispatchRequest struct {
	DispatchDate        *time.Time `json:"dispatch_date,omitempty"`
	VehicleID           *int64     `json:"vehicle_id,omitempty" validate:"omitempty,gt=0"`
	DriverID            *int64     `json:"driver_id,omitempty" validate:"omitempty,gt=0"`
	RouteName           *string    `json:"route_name,omitempty" validate:"omitempty,max=200"`
	SourceLocation      string     `json:"source_location" validate:"required,max=200"`
	DestinationLocation string     `json:"destination_location" validate:"required,max=200"`
	DistanceKM          float64    `json:"distance_km" validate:"gte=0"`
	EstimatedHours      float64    `json:"estimated_hours" validate:"gte=0"`
	TripSheetID         *int64     `json:"trip_sheet_id,omitempty" validate:"omitempty,gt=0"`
	Remarks             *string    `json:"remarks,omitempty"`
}

// UpdateDispatchRequest represents request to update a draft dispatch.
type UpdateDispatchRequest struct {
	DispatchDate        *time.Time `json:"dispatch_date,omitempty"`
	VehicleID           *int64     `json:"vehicle_id,omitempty" validate:"omitempty,gt=0"`
	DriverID            *int64     `json:"driver_id,omitempty" validate:"omitempty,gt=0"`
	RouteName           *string    `json:"route_name,omitempty" validate:"omitempty,max=200"`
	SourceLocation      *string    `json:"source_location,omitempty" validate:"omitempty,max=200"`
	DestinationLocation *string    `json:"destination_location,omitempty" validate:"omitempty,max=200"`
	DistanceKM          *float64   `json:"distance_km,omitempty" validate:"omitempty,gte=0"`
	EstimatedHours      *float64   `json:"estimated_hours,omitempty" validate:"omitempty,gte=0"`
	TotalFuel           *float64   `json:"total_fuel,omitempty" validate:"omitempty,gte=0"`
	MileageKMPL         *float64   `json:"mileage_kmpl,omitempty" validate:"omitempty,gte=0"`
	TripSheetID         *int64     `json:"trip_sheet_id,omitempty" validate:"omitempty,gt=0"`
	Remarks             *string    `json:"remarks,omitempty"`
}

// ListDispatchesRequest represents filters for listing dispatches.
type ListDispatchesRequest struct {
	Status    *Status    `json:"status,omitempty"`
	VehicleID *int64     `json:"vehicle_id,omitempty"`
	DriverID  *int64     `json:"driver_id,omitempty"`
	DateFrom  *time.Time `json:"date_from,omitempty"`
	DateTo    *time.Time `json:"date_to,omitempty"`
	Limit     int        `json:"limit" validate:"gte=0,lte=1000"`
	Offset    int        `json:"offset" validate:"gte=0"`
}

// BatchTransitionRequest carries the ids for a batch transition call.
type BatchTransitionRequest struct {
	IDs []int64 `json:"ids" validate:"required,min=1,dive,gt=0"`
}

// BatchTransitionResult reports one entity's outcome inside a batch
// transition. Members succeed or fail independently.
type BatchTransitionResult struct {
	ID    int64  `json:"id"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}
