package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"agecare/appointments/internal/domain"
	"agecare/appointments/internal/store"
)

// slotConstraint is the unique constraint on (appointment_date, appointment_time, doctor_id).
const slotConstraint = "appointments_slot_key"

type AppointmentRepo struct {
	db *bun.DB
}

func NewAppointmentRepo(db *bun.DB) *AppointmentRepo {
	return &AppointmentRepo{db: db}
}

var _ store.AppointmentRepository = (*AppointmentRepo)(nil)

func (r *AppointmentRepo) ExistsByID(ctx context.Context, id int64) (bool, error) {
	return r.db.NewSelect().
		Model((*domain.Appointment)(nil)).
		Where("id = ?", id).
		Exists(ctx)
}

func (r *AppointmentRepo) ExistsBySlot(ctx context.Context, slot domain.Slot) (bool, error) {
	return r.db.NewSelect().
		Model((*domain.Appointment)(nil)).
		Where("appointment_date = ?", slot.Date).
		Where("appointment_time = ?", slot.Time).
		Where("doctor_id = ?", slot.DoctorID).
		Exists(ctx)
}

func (r *AppointmentRepo) FindByID(ctx context.Context, id int64) (domain.Appointment, error) {
	var appt domain.Appointment
	err := r.db.NewSelect().
		Model(&appt).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Appointment{}, store.ErrNotFound
		}
		return domain.Appointment{}, err
	}
	return appt, nil
}

// Save inserts appointments without an id and updates the row otherwise.
func (r *AppointmentRepo) Save(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	if appt.ID == 0 {
		return r.insert(ctx, appt)
	}
	return r.update(ctx, appt)
}

func (r *AppointmentRepo) insert(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	m := domain.Appointment{
		ResidentID: appt.ResidentID,
		DoctorID:   appt.DoctorID,
		Date:       appt.Date,
		Time:       appt.Time,
		Status:     appt.Status,
	}

	_, err := r.db.NewInsert().
		Model(&m).
		ExcludeColumn("id").
		Returning("id, created_at, updated_at").
		Exec(ctx)
	if err != nil {
		return domain.Appointment{}, translateWriteError(err)
	}
	return m, nil
}

func (r *AppointmentRepo) update(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	m := appt

	res, err := r.db.NewUpdate().
		Model(&m).
		Column("resident_id", "doctor_id", "appointment_date", "appointment_time", "status", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return domain.Appointment{}, translateWriteError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Appointment{}, err
	}
	if affected == 0 {
		return domain.Appointment{}, store.ErrNotFound
	}
	return m, nil
}

func (r *AppointmentRepo) DeleteByID(ctx context.Context, id int64) error {
	res, err := r.db.NewDelete().
		Model((*domain.Appointment)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *AppointmentRepo) List(ctx context.Context, filter store.ListFilter) ([]domain.Appointment, error) {
	rows := []domain.Appointment{}
	q := r.db.NewSelect().Model(&rows)
	q = applyListFilter(q, filter)
	err := q.OrderExpr("appointment_date ASC, appointment_time ASC, id ASC").Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func applyListFilter(q *bun.SelectQuery, filter store.ListFilter) *bun.SelectQuery {
	if filter.ResidentID != 0 {
		q = q.Where("resident_id = ?", filter.ResidentID)
	}
	if filter.DoctorID != 0 {
		q = q.Where("doctor_id = ?", filter.DoctorID)
	}
	if !filter.Date.IsZero() {
		q = q.Where("appointment_date = ?", filter.Date)
	}
	return q
}

func translateWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" && pgErr.ConstraintName == slotConstraint {
			return store.ErrConflict
		}
	}
	return err
}
