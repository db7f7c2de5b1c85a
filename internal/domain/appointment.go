package domain

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// StatusScheduled is the label clients use for a freshly booked appointment.
// Status is otherwise a free-form label and is not validated.
const StatusScheduled = "SCHEDULED"

// Booking hours are the half-open window [BookingOpens, BookingCloses).
var (
	BookingOpens  = ClockTime{Hour: 8}
	BookingCloses = ClockTime{Hour: 19}
)

type Appointment struct {
	bun.BaseModel `bun:"table:appointments"`

	ID         int64     `bun:"id,pk,autoincrement"`
	ResidentID int64     `bun:"resident_id,notnull"`
	DoctorID   int64     `bun:"doctor_id,notnull"`
	Date       Date      `bun:"appointment_date,type:date,notnull"`
	Time       ClockTime `bun:"appointment_time,type:time,notnull"`
	Status     string    `bun:"status,notnull"`
	CreatedAt  time.Time `bun:"created_at,notnull"`
	UpdatedAt  time.Time `bun:"updated_at,notnull"`
}

// Slot identifies the (date, time, doctor) triple that must be unique across appointments.
type Slot struct {
	Date     Date
	Time     ClockTime
	DoctorID int64
}

func (a Appointment) Slot() Slot {
	return Slot{Date: a.Date, Time: a.Time, DoctorID: a.DoctorID}
}

// WithinBookingHours reports whether t falls inside [08:00, 19:00).
func WithinBookingHours(t ClockTime) bool {
	return !t.Before(BookingOpens) && t.Before(BookingCloses)
}

func (a *Appointment) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		if a.UpdatedAt.IsZero() {
			a.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		a.UpdatedAt = now
	}
	return nil
}
