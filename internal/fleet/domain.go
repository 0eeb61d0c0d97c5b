package fleet

import "time"

// VehicleStatus enumerates the operational state of a fleet vehicle.
type VehicleStatus string

const (
	VehicleActive      VehicleStatus = "active"
	VehicleMaintenance VehicleStatus = "maintenance"
	VehicleIdle        VehicleStatus = "idle"
)

// IsValid checks if the vehicle status is a known value.
func (s VehicleStatus) IsValid() bool {
	switch s {
	case VehicleActive, VehicleMaintenance, VehicleIdle:
		return true
	default:
		return false
	}
}

// Vehicle is a truck in the fleet master.
type Vehicle struct {
	ID                 int64         `json:"id" db:"id"`
	Name               string        `json:"name" db:"name"`
	RegistrationNumber string        `json:"registration_number" db:"registration_number"`
	Status             VehicleStatus `json:"status" db:"status"`
	CapacityKG         float64       `json:"capacity_kg" db:"capacity_kg"`
	MaintenanceDue     *time.Time    `json:"maintenance_due,omitempty" db:"maintenance_due"`
	CreatedAt          time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at" db:"updated_at"`
}

// CreateVehicleRequest represents request to register a vehicle.
type CreateVehicleRequest struct {
	Name               string     `json:"name" validate:"required,max=200"`
	RegistrationNumber string     `json:"registration_number" validate:"required,max=50"`
	CapacityKG         float64    `json:"capacity_kg" validate:"gte=0"`
	MaintenanceDue     *time.Time `json:"maintenance_due,omitempty"`
}

// UpdateVehicleRequest represents a partial edit of a vehicle.
type UpdateVehicleRequest struct {
	Name               *string        `json:"name,omitempty" validate:"omitempty,max=200"`
	RegistrationNumber *string        `json:"registration_number,omitempty" validate:"omitempty,max=50"`
	Status             *VehicleStatus `json:"status,omitempty" validate:"omitempty,oneof=active maintenance idle"`
	CapacityKG         *float64       `json:"capacity_kg,omitempty" validate:"omitempty,gte=0"`
	MaintenanceDue     *time.Time     `json:"maintenance_due,omitempty"`
}

// ListVehiclesRequest represents filters for listing vehicles.
type ListVehiclesRequest struct {
	Status *VehicleStatus `json:"status,omitempty"`
	Limit  int            `json:"limit" validate:"gte=0,lte=1000"`
	Offset int            `json:"offset" validate:"gte=0"`
}
