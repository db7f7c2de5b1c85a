package appointments

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"agecare/appointments/internal/domain"
	"agecare/appointments/internal/store"
)

// ResidentDirectory answers whether a resident exists. Lookup failures count as absent.
type ResidentDirectory interface {
	ResidentExists(ctx context.Context, residentID int64) bool
}

// DoctorDirectory answers whether a doctor exists. Lookup failures count as absent.
type DoctorDirectory interface {
	DoctorExists(ctx context.Context, doctorID int64) bool
}

// Notifier delivers a text message to a resident. Its error is only logged.
type Notifier interface {
	Send(ctx context.Context, residentID int64, message string) error
}

// DefaultNotifyTimeout bounds a single notification attempt.
const DefaultNotifyTimeout = 5 * time.Second

type Service struct {
	repo          store.AppointmentRepository
	residents     ResidentDirectory
	doctors       DoctorDirectory
	notifier      Notifier
	notifyTimeout time.Duration
	log           *slog.Logger
}

type Option func(*Service)

// WithNotifyTimeout sets the budget for a notification attempt. Non-positive values are ignored.
func WithNotifyTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.notifyTimeout = d
		}
	}
}

func NewService(repo store.AppointmentRepository, residents ResidentDirectory, doctors DoctorDirectory, notifier Notifier, log *slog.Logger, opts ...Option) *Service {
	if log == nil {
		log = slog.Default()
	}
	s := &Service{
		repo:          repo,
		residents:     residents,
		doctors:       doctors,
		notifier:      notifier,
		notifyTimeout: DefaultNotifyTimeout,
		log:           log.With(slog.String("component", "service.appointments")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type CreateInput struct {
	ResidentID int64
	DoctorID   int64
	Date       domain.Date
	Time       domain.ClockTime
	Status     string
}

type UpdateInput struct {
	AppointmentID int64
	ResidentID    int64
	DoctorID      int64
	Date          domain.Date
	Time          domain.ClockTime
	Status        string
}

func (s *Service) Create(ctx context.Context, in CreateInput) (int64, error) {
	status, err := s.validate(ctx, in.ResidentID, in.DoctorID, in.Date, in.Time, in.Status)
	if err != nil {
		return 0, err
	}

	appt := domain.Appointment{
		ResidentID: in.ResidentID,
		DoctorID:   in.DoctorID,
		Date:       in.Date,
		Time:       in.Time,
		Status:     status,
	}
	taken, err := s.repo.ExistsBySlot(ctx, appt.Slot())
	if err != nil {
		return 0, persistenceError("slot lookup", err)
	}
	if taken {
		return 0, conflictError()
	}

	saved, err := s.repo.Save(ctx, appt)
	if err != nil {
		return 0, persistenceError("save", err)
	}

	s.notify(ctx, "created", saved.ID, saved.ResidentID, scheduledMessage(saved))
	return saved.ID, nil
}

// Update replaces every mutable field of an existing appointment.
//
// The slot check does not exclude the appointment being updated, so resubmitting
// an appointment with its current slot is reported as a conflict.
func (s *Service) Update(ctx context.Context, in UpdateInput) (domain.Appointment, error) {
	exists, err := s.repo.ExistsByID(ctx, in.AppointmentID)
	if err != nil {
		return domain.Appointment{}, persistenceError("appointment lookup", err)
	}
	if !exists {
		return domain.Appointment{}, notFoundError(EntityAppointment)
	}

	status, err := s.validate(ctx, in.ResidentID, in.DoctorID, in.Date, in.Time, in.Status)
	if err != nil {
		return domain.Appointment{}, err
	}

	taken, err := s.repo.ExistsBySlot(ctx, domain.Slot{Date: in.Date, Time: in.Time, DoctorID: in.DoctorID})
	if err != nil {
		return domain.Appointment{}, persistenceError("slot lookup", err)
	}
	if taken {
		return domain.Appointment{}, conflictError()
	}

	appt, err := s.repo.FindByID(ctx, in.AppointmentID)
	if err != nil {
		return domain.Appointment{}, persistenceError("find", err)
	}
	appt.ResidentID = in.ResidentID
	appt.DoctorID = in.DoctorID
	appt.Date = in.Date
	appt.Time = in.Time
	appt.Status = status

	updated, err := s.repo.Save(ctx, appt)
	if err != nil {
		return domain.Appointment{}, persistenceError("save", err)
	}

	s.notify(ctx, "updated", updated.ID, updated.ResidentID, rescheduledMessage(updated))
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, appointmentID int64) error {
	exists, err := s.repo.ExistsByID(ctx, appointmentID)
	if err != nil {
		return persistenceError("appointment lookup", err)
	}
	if !exists {
		return notFoundError(EntityAppointment)
	}

	appt, err := s.repo.FindByID(ctx, appointmentID)
	if err != nil {
		return persistenceError("find", err)
	}
	if err := s.repo.DeleteByID(ctx, appointmentID); err != nil {
		return persistenceError("delete", err)
	}

	s.notify(ctx, "cancelled", appt.ID, appt.ResidentID, cancelledMessage(appt))
	return nil
}

func (s *Service) Get(ctx context.Context, appointmentID int64) (domain.Appointment, error) {
	appt, err := s.repo.FindByID(ctx, appointmentID)
	if err != nil {
		return domain.Appointment{}, persistenceError("find", err)
	}
	return appt, nil
}

func (s *Service) List(ctx context.Context, filter store.ListFilter) ([]domain.Appointment, error) {
	appts, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, persistenceError("list", err)
	}
	return appts, nil
}

// validate runs the checks shared by Create and Update in their fail-fast order and
// returns the normalized status label.
func (s *Service) validate(ctx context.Context, residentID, doctorID int64, date domain.Date, t domain.ClockTime, status string) (string, error) {
	if !domain.WithinBookingHours(t) {
		return "", validationError("time out of allowed window")
	}
	if date.IsZero() {
		return "", validationError("date is required")
	}
	if !s.residents.ResidentExists(ctx, residentID) {
		return "", notFoundError(EntityResident)
	}
	if !s.doctors.DoctorExists(ctx, doctorID) {
		return "", notFoundError(EntityDoctor)
	}

	status = strings.TrimSpace(status)
	if status == "" {
		status = domain.StatusScheduled
	}
	return status, nil
}

// notify runs after the write has committed. It keeps the request's values but not
// its deadline or cancellation, so the command result never depends on delivery.
func (s *Service) notify(ctx context.Context, event string, appointmentID, residentID int64, message string) {
	if s.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
	defer cancel()

	if err := s.notifier.Send(ctx, residentID, message); err != nil {
		s.log.Warn(
			"notification failed",
			slog.Any("err", err),
			slog.String("event", event),
			slog.Int64("appointment_id", appointmentID),
			slog.Int64("resident_id", residentID),
		)
		return
	}
	s.log.Debug(
		"notification sent",
		slog.String("event", event),
		slog.Int64("appointment_id", appointmentID),
		slog.Int64("resident_id", residentID),
	)
}

func scheduledMessage(a domain.Appointment) string {
	return fmt.Sprintf("Your medical appointment has been scheduled for %s at %s. Status: %s", a.Date, a.Time, a.Status)
}

func rescheduledMessage(a domain.Appointment) string {
	return fmt.Sprintf("Your medical appointment has been updated. New date: %s at %s. Status: %s", a.Date, a.Time, a.Status)
}

func cancelledMessage(a domain.Appointment) string {
	return fmt.Sprintf("Your medical appointment on %s at %s has been cancelled.", a.Date, a.Time)
}
