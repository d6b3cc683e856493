package domain

import "github.com/google/uuid"

// Availability is a contractor's dispatch status.
type Availability string

const (
	AvailabilityAvailable  Availability = "Available"
	AvailabilityBusy       Availability = "Busy"
	AvailabilityOffboarded Availability = "Offboarded"
)

// Contractor is a dispatchable service provider. The active-job count is
// deliberately not a field here: it is derived from the active work-item
// snapshot at run start, never stored on the entity.
type Contractor struct {
	ID           uuid.UUID
	Name         string
	Specialties  []string
	Rating       float64 // 0.0 - 5.0
	Availability Availability
	Phone        string
	Email        string
}
