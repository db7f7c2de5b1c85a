// Package rest exposes the appointment commands as a JSON API.
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"agecare/appointments/internal/domain"
	"agecare/appointments/internal/httpx"
	"agecare/appointments/internal/service/appointments"
	"agecare/appointments/internal/store"
)

type appointmentsService interface {
	Create(ctx context.Context, in appointments.CreateInput) (int64, error)
	Update(ctx context.Context, in appointments.UpdateInput) (domain.Appointment, error)
	Delete(ctx context.Context, appointmentID int64) error
	Get(ctx context.Context, appointmentID int64) (domain.Appointment, error)
	List(ctx context.Context, filter store.ListFilter) ([]domain.Appointment, error)
}

type Handler struct {
	svc appointmentsService
	log *slog.Logger
}

func NewHandler(svc appointmentsService, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		svc: svc,
		log: log.With(slog.String("component", "rest.appointments")),
	}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/appointments", h.create)
	mux.HandleFunc("GET /api/v1/appointments", h.list)
	mux.HandleFunc("GET /api/v1/appointments/{id}", h.get)
	mux.HandleFunc("PUT /api/v1/appointments/{id}", h.update)
	mux.HandleFunc("DELETE /api/v1/appointments/{id}", h.delete)
}

type appointmentRequest struct {
	ResidentID int64  `json:"residentId"`
	DoctorID   int64  `json:"doctorId"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	Status     string `json:"status"`
}

type appointmentResponse struct {
	ID         int64  `json:"id"`
	ResidentID int64  `json:"residentId"`
	DoctorID   int64  `json:"doctorId"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	Status     string `json:"status"`
	CreatedAt  string `json:"createdAt,omitempty"`
	UpdatedAt  string `json:"updatedAt,omitempty"`
}

type createdResponse struct {
	ID int64 `json:"id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	req, date, clock, ok := h.decodeBody(w, r)
	if !ok {
		return
	}

	id, err := h.svc.Create(r.Context(), appointments.CreateInput{
		ResidentID: req.ResidentID,
		DoctorID:   req.DoctorID,
		Date:       date,
		Time:       clock,
		Status:     req.Status,
	})
	if err != nil {
		h.writeServiceError(w, r, "appointment create", err)
		return
	}

	h.log.Info("appointment created",
		slog.String("request_id", httpx.RequestIDFromContext(r.Context())),
		slog.Int64("appointment_id", id),
		slog.Int64("resident_id", req.ResidentID),
		slog.Int64("doctor_id", req.DoctorID),
	)
	w.Header().Set("Location", fmt.Sprintf("/api/v1/appointments/%d", id))
	writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	req, date, clock, ok := h.decodeBody(w, r)
	if !ok {
		return
	}

	appt, err := h.svc.Update(r.Context(), appointments.UpdateInput{
		AppointmentID: id,
		ResidentID:    req.ResidentID,
		DoctorID:      req.DoctorID,
		Date:          date,
		Time:          clock,
		Status:        req.Status,
	})
	if err != nil {
		h.writeServiceError(w, r, "appointment update", err)
		return
	}

	h.log.Info("appointment updated",
		slog.String("request_id", httpx.RequestIDFromContext(r.Context())),
		slog.Int64("appointment_id", appt.ID),
	)
	writeJSON(w, http.StatusOK, toResponse(appt))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, r, "appointment delete", err)
		return
	}

	h.log.Info("appointment deleted",
		slog.String("request_id", httpx.RequestIDFromContext(r.Context())),
		slog.Int64("appointment_id", id),
	)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	appt, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, "appointment get", err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(appt))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter, err := parseListFilter(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	appts, err := h.svc.List(r.Context(), filter)
	if err != nil {
		h.writeServiceError(w, r, "appointment list", err)
		return
	}

	out := make([]appointmentResponse, 0, len(appts))
	for _, a := range appts {
		out = append(out, toResponse(a))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request) (appointmentRequest, domain.Date, domain.ClockTime, bool) {
	var req appointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large"})
			return appointmentRequest{}, domain.Date{}, domain.ClockTime{}, false
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return appointmentRequest{}, domain.Date{}, domain.ClockTime{}, false
	}

	if strings.TrimSpace(req.Date) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "date is required"})
		return appointmentRequest{}, domain.Date{}, domain.ClockTime{}, false
	}
	date, err := domain.ParseDate(req.Date)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "date must be YYYY-MM-DD"})
		return appointmentRequest{}, domain.Date{}, domain.ClockTime{}, false
	}
	clock, err := domain.ParseClockTime(req.Time)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "time must be HH:MM:SS"})
		return appointmentRequest{}, domain.Date{}, domain.ClockTime{}, false
	}
	return req, date, clock, true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "id must be a positive integer"})
		return 0, false
	}
	return id, true
}

func parseListFilter(r *http.Request) (store.ListFilter, error) {
	q := r.URL.Query()
	var (
		filter store.ListFilter
		err    error
	)
	if v := strings.TrimSpace(q.Get("residentId")); v != "" {
		if filter.ResidentID, err = strconv.ParseInt(v, 10, 64); err != nil {
			return store.ListFilter{}, errors.New("residentId must be an integer")
		}
	}
	if v := strings.TrimSpace(q.Get("doctorId")); v != "" {
		if filter.DoctorID, err = strconv.ParseInt(v, 10, 64); err != nil {
			return store.ListFilter{}, errors.New("doctorId must be an integer")
		}
	}
	if v := strings.TrimSpace(q.Get("date")); v != "" {
		if filter.Date, err = domain.ParseDate(v); err != nil {
			return store.ListFilter{}, errors.New("date must be YYYY-MM-DD")
		}
	}
	return filter, nil
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	log := h.log.With(slog.String("request_id", httpx.RequestIDFromContext(r.Context())))

	var (
		vErr  *appointments.ValidationError
		nfErr *appointments.NotFoundError
		cErr  *appointments.ConflictError
	)
	switch {
	case errors.As(err, &vErr):
		log.Warn("invalid request", slog.String("op", op), slog.Any("err", err))
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: vErr.Error()})
	case errors.As(err, &nfErr):
		log.Info(nfErr.Entity+" not found", slog.String("op", op))
		writeJSON(w, http.StatusNotFound, errorResponse{Error: nfErr.Error()})
	case errors.As(err, &cErr):
		log.Info(op+" conflict")
		writeJSON(w, http.StatusConflict, errorResponse{Error: cErr.Error()})
	default:
		log.Error(op+" failed", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func toResponse(a domain.Appointment) appointmentResponse {
	resp := appointmentResponse{
		ID:         a.ID,
		ResidentID: a.ResidentID,
		DoctorID:   a.DoctorID,
		Date:       a.Date.String(),
		Time:       a.Time.String(),
		Status:     a.Status,
	}
	if !a.CreatedAt.IsZero() {
		resp.CreatedAt = a.CreatedAt.UTC().Format(time.RFC3339)
	}
	if !a.UpdatedAt.IsZero() {
		resp.UpdatedAt = a.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
