package tripsheet

import (
	"math"
	"time"
)

// Status represents the lifecycle of a trip sheet.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// IsValid checks if the status is a known value.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is allowed.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanEdit checks if the trip sheet can still be edited.
func (s Status) CanEdit() bool {
	return !s.IsTerminal()
}

// CanStart checks if the trip can begin.
func (s Status) CanStart() bool {
	return s == StatusDraft
}

// CanComplete checks if the trip can be finished.
func (s Status) CanComplete() bool {
	return s == StatusInProgress
}

// CanCancel checks if the trip sheet can be cancelled. Unlike dispatches,
// a trip sheet may be cancelled from any non-terminal state.
func (s Status) CanCancel() bool {
	return !s.IsTerminal()
}

// TripSheet records one vehicle's run: who drove, when it started and ended,
// and the distance covered. Drivers are partner records, not employees.
type TripSheet struct {
	ID              int64      `json:"id" db:"id"`
	Reference       string     `json:"reference" db:"reference"`
	VehicleID       int64      `json:"vehicle_id" db:"vehicle_id"`
	DriverID        int64      `json:"driver_id" db:"driver_id"`
	DateStart       *time.Time `json:"date_start,omitempty" db:"date_start"`
	DateEnd         *time.Time `json:"date_end,omitempty" db:"date_end"`
	TotalDistanceKM float64    `json:"total_distance_km" db:"total_distance_km"`
	Remarks         *string    `json:"remarks,omitempty" db:"remarks"`
	Status          Status     `json:"status" db:"status"`
	DurationHours   float64    `json:"duration_hours"`
	CreatedBy       int64      `json:"created_by" db:"created_by"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// ComputeDurationHours derives the trip duration from its bounds, in hours
// rounded to two decimals. Zero when either bound is absent.
func ComputeDurationHours(start, end *time.Time) float64 {
	if start == nil || end == nil {
		return 0.0
	}
	hours := end.Sub(*start).Seconds() / 3600
	return math.Round(hours*100) / 100
}

// CreateTripSheetRequest represents request to open a new trip sheet.
type CreateTripSheetRequest struct {
	VehicleID       int64      `json:"vehicle_id" validate:"required,gt=0"`
	DriverID        int64      `json:"driver_id" validate:"required,gt=0"`
	DateStart       *time.Time `json:"date_start,omitempty"`
	TotalDistanceKM float64    `json:"total_distance_km" validate:"gte=0"`
	Remarks         *string    `json:"remarks,omitempty"`
}

// UpdateTripSheetRequest represents a partial edit of a trip sheet.
type UpdateTripSheetRequest struct {
	VehicleID       *int64     `json:"vehicle_id,omitempty" validate:"omitempty,gt=0"`
	DriverID        *int64     `json:"driver_id,omitempty" validate:"omitempty,gt=0"`
	DateStart       *time.Time `json:"date_start,omitempty"`
	DateEnd         *time.Time `json:"date_end,omitempty"`
	TotalDistanceKM *float64   `json:"total_distance_km,omitempty" validate:"omitempty,gte=0"`
	Remarks         *string    `json:"remarks,omitempty"`
}

// ListTripSheetsRequest represents filters for listing trip sheets.
type ListTripSheetsRequest struct {
	Status    *Status `json:"status,omitempty"`
	VehicleID *int64  `json:"vehicle_id,omitempty"`
	DriverID  *int64  `json:"driver_id,omitempty"`
	Limit     int     `json:"limit" validate:"gte=0,lte=1000"`
	Offset    int     `json:"offset" validate:"gte=0"`
}
