package grpc

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"agecare/appointments/internal/domain"
)

// appointmentFields is the decoded form of a create or update request.
type appointmentFields struct {
	ID         int64
	ResidentID int64
	DoctorID   int64
	Date       domain.Date
	Time       domain.ClockTime
	Status     string
}

func decodeAppointment(s *structpb.Struct, withID bool) (appointmentFields, error) {
	var (
		out appointmentFields
		err error
	)
	if withID {
		if out.ID, err = int64Field(s, "id"); err != nil {
			return appointmentFields{}, err
		}
	}
	if out.ResidentID, err = int64Field(s, "residentId"); err != nil {
		return appointmentFields{}, err
	}
	if out.DoctorID, err = int64Field(s, "doctorId"); err != nil {
		return appointmentFields{}, err
	}

	date, err := stringField(s, "date")
	if err != nil {
		return appointmentFields{}, err
	}
	if out.Date, err = domain.ParseDate(date); err != nil {
		return appointmentFields{}, fmt.Errorf("date must be YYYY-MM-DD")
	}

	clock, err := stringField(s, "time")
	if err != nil {
		return appointmentFields{}, err
	}
	if out.Time, err = domain.ParseClockTime(clock); err != nil {
		return appointmentFields{}, fmt.Errorf("time must be HH:MM:SS")
	}

	if v, ok := s.GetFields()["status"]; ok {
		out.Status = strings.TrimSpace(v.GetStringValue())
	}
	return out, nil
}

func int64Field(s *structpb.Struct, name string) (int64, error) {
	v, ok := s.GetFields()[name]
	if !ok || v == nil {
		return 0, fmt.Errorf("%s is required", name)
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		f := k.NumberValue
		if f != math.Trunc(f) || math.IsInf(f, 0) || math.Abs(f) > 1<<53 {
			return 0, fmt.Errorf("%s must be an integer", name)
		}
		return int64(f), nil
	case *structpb.Value_StringValue:
		n, err := strconv.ParseInt(strings.TrimSpace(k.StringValue), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%s must be an integer", name)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%s must be an integer", name)
	}
}

func stringField(s *structpb.Struct, name string) (string, error) {
	v, ok := s.GetFields()[name]
	if !ok || v == nil {
		return "", fmt.Errorf("%s is required", name)
	}
	str, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok || strings.TrimSpace(str.StringValue) == "" {
		return "", fmt.Errorf("%s is required", name)
	}
	return strings.TrimSpace(str.StringValue), nil
}

func toStruct(a domain.Appointment) *structpb.Struct {
	fields := map[string]*structpb.Value{
		"id":         structpb.NewNumberValue(float64(a.ID)),
		"residentId": structpb.NewNumberValue(float64(a.ResidentID)),
		"doctorId":   structpb.NewNumberValue(float64(a.DoctorID)),
		"date":       structpb.NewStringValue(a.Date.String()),
		"time":       structpb.NewStringValue(a.Time.String()),
		"status":     structpb.NewStringValue(a.Status),
	}
	if !a.CreatedAt.IsZero() {
		fields["createdAt"] = structpb.NewStringValue(a.CreatedAt.UTC().Format(time.RFC3339))
	}
	if !a.UpdatedAt.IsZero() {
		fields["updatedAt"] = structpb.NewStringValue(a.UpdatedAt.UTC().Format(time.RFC3339))
	}
	return &structpb.Struct{Fields: fields}
}
