package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"agecare/appointments/internal/domain"
	"agecare/appointments/internal/httpx"
	"agecare/appointments/internal/service/appointments"
	"agecare/appointments/internal/store"
)

type fakeAppointmentsService struct {
	createFn func(ctx context.Context, in appointments.CreateInput) (int64, error)
	updateFn func(ctx context.Context, in appointments.UpdateInput) (domain.Appointment, error)
	deleteFn func(ctx context.Context, appointmentID int64) error
	getFn    func(ctx context.Context, appointmentID int64) (domain.Appointment, error)
	listFn   func(ctx context.Context, filter store.ListFilter) ([]domain.Appointment, error)
}

func (f *fakeAppointmentsService) Create(ctx context.Context, in appointments.CreateInput) (int64, error) {
	if f.createFn == nil {
		panic("Create not configured")
	}
	return f.createFn(ctx, in)
}

func (f *fakeAppointmentsService) Update(ctx context.Context, in appointments.UpdateInput) (domain.Appointment, error) {
	if f.updateFn == nil {
		panic("Update not configured")
	}
	return f.updateFn(ctx, in)
}

func (f *fakeAppointmentsService) Delete(ctx context.Context, appointmentID int64) error {
	if f.deleteFn == nil {
		panic("Delete not configured")
	}
	return f.deleteFn(ctx, appointmentID)
}

func (f *fakeAppointmentsService) Get(ctx context.Context, appointmentID int64) (domain.Appointment, error) {
	if f.getFn == nil {
		panic("Get not configured")
	}
	return f.getFn(ctx, appointmentID)
}

func (f *fakeAppointmentsService) List(ctx context.Context, filter store.ListFilter) ([]domain.Appointment, error) {
	if f.listFn == nil {
		panic("List not configured")
	}
	return f.listFn(ctx, filter)
}

func newTestMux(svc *fakeAppointmentsService) http.Handler {
	mux := http.NewServeMux()
	NewHandler(svc, slog.New(slog.NewJSONHandler(io.Discard, nil))).Register(mux)
	return httpx.Chain(mux, httpx.WithRequestID, httpx.WithBodyLimit(1<<10))
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	return rw
}

func errorBody(t *testing.T, rw *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorResponse
	if err := json.Unmarshal(rw.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", rw.Body.String(), err)
	}
	return body.Error
}

func TestCreate(t *testing.T) {
	var got appointments.CreateInput
	h := newTestMux(&fakeAppointmentsService{
		createFn: func(ctx context.Context, in appointments.CreateInput) (int64, error) {
			got = in
			return 12, nil
		},
	})

	rw := do(t, h, http.MethodPost, "/api/v1/appointments",
		`{"residentId":1,"doctorId":2,"date":"2025-03-01","time":"09:00:00","status":"SCHEDULED"}`)
	if rw.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rw.Code, rw.Body.String())
	}
	if rw.Header().Get("Location") != "/api/v1/appointments/12" {
		t.Fatalf("Location = %q", rw.Header().Get("Location"))
	}
	var body createdResponse
	if err := json.Unmarshal(rw.Body.Bytes(), &body); err != nil || body.ID != 12 {
		t.Fatalf("body = %s, err %v", rw.Body.String(), err)
	}
	want := appointments.CreateInput{
		ResidentID: 1,
		DoctorID:   2,
		Date:       domain.NewDate(2025, time.March, 1),
		Time:       domain.ClockTime{Hour: 9},
		Status:     "SCHEDULED",
	}
	if got != want {
		t.Fatalf("input = %+v, want %+v", got, want)
	}
}

func TestCreate_BadInput(t *testing.T) {
	h := newTestMux(&fakeAppointmentsService{})

	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed json", `{"residentId":`, http.StatusBadRequest},
		{"missing date", `{"residentId":1,"doctorId":2,"time":"09:00:00"}`, http.StatusBadRequest},
		{"bad time", `{"residentId":1,"doctorId":2,"date":"2025-03-01","time":"9am"}`, http.StatusBadRequest},
		{"too large", `{"status":"` + strings.Repeat("x", 2048) + `"}`, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rw := do(t, h, http.MethodPost, "/api/v1/appointments", tt.body)
			if rw.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, rw.Code, rw.Body.String())
			}
		})
	}
}

func TestCreate_MapsServiceErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		want    int
		message string
	}{
		{"validation", &appointments.ValidationError{}, http.StatusBadRequest, ""},
		{"doctor missing", &appointments.NotFoundError{Entity: appointments.EntityDoctor}, http.StatusNotFound, "doctor not found"},
		{"conflict", &appointments.ConflictError{}, http.StatusConflict, ""},
		{"persistence", &appointments.PersistenceError{Op: "save", Err: errors.New("db down")}, http.StatusInternalServerError, "internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestMux(&fakeAppointmentsService{
				createFn: func(ctx context.Context, in appointments.CreateInput) (int64, error) {
					return 0, tt.err
				},
			})
			rw := do(t, h, http.MethodPost, "/api/v1/appointments",
				`{"residentId":1,"doctorId":2,"date":"2025-03-01","time":"09:00:00"}`)
			if rw.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rw.Code)
			}
			if msg := errorBody(t, rw); tt.message != "" && msg != tt.message {
				t.Fatalf("error = %q, want %q", msg, tt.message)
			}
		})
	}
}

func TestUpdate(t *testing.T) {
	var got appointments.UpdateInput
	h := newTestMux(&fakeAppointmentsService{
		updateFn: func(ctx context.Context, in appointments.UpdateInput) (domain.Appointment, error) {
			got = in
			return domain.Appointment{
				ID:         in.AppointmentID,
				ResidentID: in.ResidentID,
				DoctorID:   in.DoctorID,
				Date:       in.Date,
				Time:       in.Time,
				Status:     in.Status,
				UpdatedAt:  time.Date(2025, time.February, 1, 12, 0, 0, 0, time.UTC),
			}, nil
		},
	})

	rw := do(t, h, http.MethodPut, "/api/v1/appointments/5",
		`{"residentId":1,"doctorId":2,"date":"2025-03-02","time":"10:30:00","status":"CONFIRMED"}`)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rw.Code, rw.Body.String())
	}
	if got.AppointmentID != 5 {
		t.Fatalf("appointment id = %d, want 5", got.AppointmentID)
	}
	var body appointmentResponse
	if err := json.Unmarshal(rw.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := appointmentResponse{
		ID: 5, ResidentID: 1, DoctorID: 2, Date: "2025-03-02", Time: "10:30:00", Status: "CONFIRMED",
		UpdatedAt: "2025-02-01T12:00:00Z",
	}
	if body != want {
		t.Fatalf("body = %+v, want %+v", body, want)
	}
}

func TestUpdate_UnknownAppointment(t *testing.T) {
	h := newTestMux(&fakeAppointmentsService{
		updateFn: func(ctx context.Context, in appointments.UpdateInput) (domain.Appointment, error) {
			return domain.Appointment{}, &appointments.NotFoundError{Entity: appointments.EntityAppointment}
		},
	})
	rw := do(t, h, http.MethodPut, "/api/v1/appointments/5",
		`{"residentId":1,"doctorId":2,"date":"2025-03-02","time":"10:30:00"}`)
	if rw.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rw.Code)
	}
}

func TestDelete(t *testing.T) {
	var deleted int64
	h := newTestMux(&fakeAppointmentsService{
		deleteFn: func(ctx context.Context, appointmentID int64) error {
			deleted = appointmentID
			return nil
		},
	})

	rw := do(t, h, http.MethodDelete, "/api/v1/appointments/5", "")
	if rw.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rw.Code)
	}
	if deleted != 5 {
		t.Fatalf("deleted = %d, want 5", deleted)
	}

	rw = do(t, h, http.MethodDelete, "/api/v1/appointments/abc", "")
	if rw.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-numeric id, got %d", rw.Code)
	}
}

func TestGet(t *testing.T) {
	h := newTestMux(&fakeAppointmentsService{
		getFn: func(ctx context.Context, appointmentID int64) (domain.Appointment, error) {
			return domain.Appointment{
				ID: appointmentID, ResidentID: 1, DoctorID: 2,
				Date: domain.NewDate(2025, time.March, 1), Time: domain.ClockTime{Hour: 9},
				Status: domain.StatusScheduled,
			}, nil
		},
	})

	rw := do(t, h, http.MethodGet, "/api/v1/appointments/3", "")
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}
	var body appointmentResponse
	if err := json.Unmarshal(rw.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.ID != 3 || body.Date != "2025-03-01" || body.Time != "09:00:00" {
		t.Fatalf("body = %+v", body)
	}
	if strings.Contains(rw.Body.String(), "createdAt") {
		t.Fatalf("zero timestamps should be omitted: %s", rw.Body.String())
	}
}

func TestList(t *testing.T) {
	var got store.ListFilter
	h := newTestMux(&fakeAppointmentsService{
		listFn: func(ctx context.Context, filter store.ListFilter) ([]domain.Appointment, error) {
			got = filter
			return nil, nil
		},
	})

	rw := do(t, h, http.MethodGet, "/api/v1/appointments?doctorId=2&date=2025-03-01", "")
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}
	if strings.TrimSpace(rw.Body.String()) != "[]" {
		t.Fatalf("body = %q, want []", rw.Body.String())
	}
	want := store.ListFilter{DoctorID: 2, Date: domain.NewDate(2025, time.March, 1)}
	if got != want {
		t.Fatalf("filter = %+v, want %+v", got, want)
	}

	rw = do(t, h, http.MethodGet, "/api/v1/appointments?residentId=x", "")
	if rw.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rw.Code)
	}
}
