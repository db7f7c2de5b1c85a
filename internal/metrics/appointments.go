package metrics

import (
	"context"
	"errors"
	"time"

	"agecare/appointments/internal/domain"
	"agecare/appointments/internal/service/appointments"
	"agecare/appointments/internal/store"
)

// Service is the appointment command surface the transports call.
type Service interface {
	Create(ctx context.Context, in appointments.CreateInput) (int64, error)
	Update(ctx context.Context, in appointments.UpdateInput) (domain.Appointment, error)
	Delete(ctx context.Context, appointmentID int64) error
	Get(ctx context.Context, appointmentID int64) (domain.Appointment, error)
	List(ctx context.Context, filter store.ListFilter) ([]domain.Appointment, error)
}

// InstrumentedService counts appointment commands by outcome.
type InstrumentedService struct {
	next Service
	c    *Collector
}

func InstrumentService(next Service, c *Collector) *InstrumentedService {
	return &InstrumentedService{next: next, c: c}
}

func (s *InstrumentedService) Create(ctx context.Context, in appointments.CreateInput) (int64, error) {
	start := time.Now()
	id, err := s.next.Create(ctx, in)
	s.c.observeCommand("create", start, err)
	return id, err
}

func (s *InstrumentedService) Update(ctx context.Context, in appointments.UpdateInput) (domain.Appointment, error) {
	start := time.Now()
	appt, err := s.next.Update(ctx, in)
	s.c.observeCommand("update", start, err)
	return appt, err
}

func (s *InstrumentedService) Delete(ctx context.Context, appointmentID int64) error {
	start := time.Now()
	err := s.next.Delete(ctx, appointmentID)
	s.c.observeCommand("delete", start, err)
	return err
}

func (s *InstrumentedService) Get(ctx context.Context, appointmentID int64) (domain.Appointment, error) {
	return s.next.Get(ctx, appointmentID)
}

func (s *InstrumentedService) List(ctx context.Context, filter store.ListFilter) ([]domain.Appointment, error) {
	return s.next.List(ctx, filter)
}

func (c *Collector) observeCommand(op string, start time.Time, err error) {
	c.CommandsTotal.WithLabelValues(op, Outcome(err)).Inc()
	c.CommandDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// Outcome buckets a command error into a low-cardinality label.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var (
		validationErr  *appointments.ValidationError
		notFoundErr    *appointments.NotFoundError
		conflictErr    *appointments.ConflictError
		persistenceErr *appointments.PersistenceError
	)
	switch {
	case errors.As(err, &validationErr):
		return "invalid"
	case errors.As(err, &notFoundErr):
		return "not_found"
	case errors.As(err, &conflictErr):
		return "conflict"
	case errors.As(err, &persistenceErr):
		return "persistence_error"
	default:
		return "error"
	}
}

// Notifier counts delivery attempts and passes the outcome through unchanged.
type Notifier struct {
	next appointments.Notifier
	c    *Collector
}

func InstrumentNotifier(next appointments.Notifier, c *Collector) *Notifier {
	return &Notifier{next: next, c: c}
}

func (n *Notifier) Send(ctx context.Context, residentID int64, message string) error {
	err := n.next.Send(ctx, residentID, message)
	outcome := "sent"
	if err != nil {
		outcome = "failed"
	}
	n.c.NotificationsTotal.WithLabelValues(outcome).Inc()
	return err
}
