package store

import (
	"context"

	"agecare/appointments/internal/domain"
)

// AppointmentRepository is the durable record of appointments keyed by id.
// FindByID and DeleteByID return ErrNotFound for unknown ids; Save returns
// ErrConflict when another appointment already holds the slot.
type AppointmentRepository interface {
	ExistsByID(ctx context.Context, id int64) (bool, error)
	ExistsBySlot(ctx context.Context, slot domain.Slot) (bool, error)
	FindByID(ctx context.Context, id int64) (domain.Appointment, error)
	Save(ctx context.Context, appt domain.Appointment) (domain.Appointment, error)
	DeleteByID(ctx context.Context, id int64) error
	List(ctx context.Context, filter ListFilter) ([]domain.Appointment, error)
}

// ListFilter narrows List results. Zero values mean "any".
type ListFilter struct {
	ResidentID int64
	DoctorID   int64
	Date       domain.Date
}
