package grpc

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"agecare/appointments/internal/domain"
	"agecare/appointments/internal/service/appointments"
)

type AppointmentsServer struct {
	svc appointmentsService
	log *slog.Logger
}

var _ AppointmentsServiceServer = (*AppointmentsServer)(nil)

type appointmentsService interface {
	Create(ctx context.Context, in appointments.CreateInput) (int64, error)
	Update(ctx context.Context, in appointments.UpdateInput) (domain.Appointment, error)
	Delete(ctx context.Context, appointmentID int64) error
	Get(ctx context.Context, appointmentID int64) (domain.Appointment, error)
}

func NewAppointmentsServer(svc appointmentsService, log *slog.Logger) *AppointmentsServer {
	if log == nil {
		log = slog.Default()
	}
	return &AppointmentsServer{
		svc: svc,
		log: log.With(slog.String("component", "grpc.appointments")),
	}
}

func (s *AppointmentsServer) CreateAppointment(ctx context.Context, req *structpb.Struct) (*wrapperspb.Int64Value, error) {
	log := s.log.With(slog.String("rpc", "CreateAppointment"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	in, err := decodeAppointment(req, false)
	if err != nil {
		log.Warn("invalid request", slog.Any("err", err))
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	id, err := s.svc.Create(ctx, appointments.CreateInput{
		ResidentID: in.ResidentID,
		DoctorID:   in.DoctorID,
		Date:       in.Date,
		Time:       in.Time,
		Status:     in.Status,
	})
	if err != nil {
		return nil, toStatus(log, "appointment create", err, slotAttrs(in)...)
	}

	log.Info(
		"appointment created",
		slog.Int64("appointment_id", id),
		slog.Int64("resident_id", in.ResidentID),
		slog.Int64("doctor_id", in.DoctorID),
		slog.String("date", in.Date.String()),
		slog.String("time", in.Time.String()),
	)
	return wrapperspb.Int64(id), nil
}

func (s *AppointmentsServer) UpdateAppointment(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	log := s.log.With(slog.String("rpc", "UpdateAppointment"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	in, err := decodeAppointment(req, true)
	if err != nil {
		log.Warn("invalid request", slog.Any("err", err))
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	appt, err := s.svc.Update(ctx, appointments.UpdateInput{
		AppointmentID: in.ID,
		ResidentID:    in.ResidentID,
		DoctorID:      in.DoctorID,
		Date:          in.Date,
		Time:          in.Time,
		Status:        in.Status,
	})
	if err != nil {
		attrs := append([]any{slog.Int64("appointment_id", in.ID)}, slotAttrs(in)...)
		return nil, toStatus(log, "appointment update", err, attrs...)
	}

	log.Info(
		"appointment updated",
		slog.Int64("appointment_id", appt.ID),
		slog.Int64("resident_id", appt.ResidentID),
		slog.Int64("doctor_id", appt.DoctorID),
		slog.String("date", appt.Date.String()),
		slog.String("time", appt.Time.String()),
	)
	return toStruct(appt), nil
}

func (s *AppointmentsServer) DeleteAppointment(ctx context.Context, req *wrapperspb.Int64Value) (*emptypb.Empty, error) {
	log := s.log.With(slog.String("rpc", "DeleteAppointment"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	if err := s.svc.Delete(ctx, req.GetValue()); err != nil {
		return nil, toStatus(log, "appointment delete", err, slog.Int64("appointment_id", req.GetValue()))
	}

	log.Info("appointment deleted", slog.Int64("appointment_id", req.GetValue()))
	return &emptypb.Empty{}, nil
}

func (s *AppointmentsServer) GetAppointment(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	log := s.log.With(slog.String("rpc", "GetAppointment"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	appt, err := s.svc.Get(ctx, req.GetValue())
	if err != nil {
		return nil, toStatus(log, "appointment get", err, slog.Int64("appointment_id", req.GetValue()))
	}

	log.Debug("appointment fetched", slog.Int64("appointment_id", appt.ID))
	return toStruct(appt), nil
}

// toStatus logs the failure at a level matching its class and converts it to a gRPC status.
func toStatus(log *slog.Logger, op string, err error, attrs ...any) error {
	var (
		vErr  *appointments.ValidationError
		nfErr *appointments.NotFoundError
		cErr  *appointments.ConflictError
	)
	switch {
	case errors.As(err, &vErr):
		log.Warn("invalid request", append([]any{slog.Any("err", err)}, attrs...)...)
		return status.Error(codes.InvalidArgument, vErr.Error())
	case errors.As(err, &nfErr):
		log.Info(nfErr.Entity+" not found", attrs...)
		return status.Error(codes.NotFound, nfErr.Error())
	case errors.As(err, &cErr):
		log.Info(op+" conflict", attrs...)
		return status.Error(codes.FailedPrecondition, "The doctor already has an appointment in that slot. Pick a different time.")
	default:
		log.Error(op+" failed", append([]any{slog.Any("err", err)}, attrs...)...)
		return status.Error(codes.Internal, "internal error")
	}
}

func slotAttrs(in appointmentFields) []any {
	return []any{
		slog.Int64("resident_id", in.ResidentID),
		slog.Int64("doctor_id", in.DoctorID),
		slog.String("date", in.Date.String()),
		slog.String("time", in.Time.String()),
	}
}
