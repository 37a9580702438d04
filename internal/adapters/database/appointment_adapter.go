package database

import (
	"context"
	"database/sql"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/careconnect/backend/internal/domain/entities"
	"github.com/careconnect/backend/internal/domain/repositories"
	"github.com/careconnect/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/careconnect/backend/pkg/errors"
)

var appointmentColumns = []any{
	"id", "patient_id", "doctor_id", "appointment_date", "start_time", "end_time",
	"status", "reason", "notes", "appointment_type", "created_at", "updated_at",
}

// AppointmentAdapter implements the AppointmentStore interface
type AppointmentAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

var _ repositories.AppointmentStore = (*AppointmentAdapter)(nil)

// NewAppointmentAdapter creates a new appointment adapter
func NewAppointmentAdapter(client *postgres.Client) *AppointmentAdapter {
	return &AppointmentAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// ListForUser retrieves one user's appointments as a single query
func (a *AppointmentAdapter) ListForUser(ctx context.Context, q repositories.AppointmentListQuery) ([]*entities.Appointment, error) {
	if q.Role != repositories.AppointmentRolePatient && q.Role != repositories.AppointmentRoleDoctor {
		return nil, apperrors.NewInternalError("unsupported appointment role "+string(q.Role), nil)
	}

	ds := a.db.Select(appointmentColumns...).
		From("appointments").
		Where(goqu.Ex{string(q.Role): q.UserID})

	if q.Status != "" {
		ds = ds.Where(goqu.Ex{"status": q.Status})
	}

	switch q.Window {
	case repositories.DateWindowUpcoming:
		ds = ds.Where(goqu.C("appointment_date").Gte(q.Now)).Order(goqu.I("appointment_date").Asc())
	case repositories.DateWindowPast:
		ds = ds.Where(goqu.C("appointment_date").Lt(q.Now)).Order(goqu.I("appointment_date").Desc())
	default:
		ds = ds.Order(goqu.I("appointment_date").Desc())
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list appointments", err)
	}
	defer rows.Close()

	appointments := make([]*entities.Appointment, 0)
	for rows.Next() {
		appointment := &entities.Appointment{}
		var reason, notes, appointmentType sql.NullString

		err := rows.Scan(
			&appointment.ID,
			&appointment.PatientID,
			&appointment.DoctorID,
			&appointment.AppointmentDate,
			&appointment.StartTime,
			&appointment.EndTime,
			&appointment.Status,
			&reason,
			&notes,
			&appointmentType,
			&appointment.CreatedAt,
			&appointment.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan appointment", err)
		}

		appointment.Reason = reason.String
		appointment.Notes = notes.String
		appointment.AppointmentType = entities.AppointmentType(appointmentType.String)
		appointments = append(appointments, appointment)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to read appointments", err)
	}

	return appointments, nil
}

// InsertBatch writes all appointments with one multi-row insert
func (a *AppointmentAdapter) InsertBatch(ctx context.Context, appointments []*entities.Appointment) error {
	if len(appointments) == 0 {
		return nil
	}

	rows := make([]any, 0, len(appointments))
	for _, appointment := range appointments {
		rows = append(rows, goqu.Record{
			"id":               appointment.ID,
			"patient_id":       appointment.PatientID,
			"doctor_id":        appointment.DoctorID,
			"appointment_date": appointment.AppointmentDate,
			"start_time":       appointment.StartTime,
			"end_time":         appointment.EndTime,
			"status":           appointment.Status,
			"reason":           appointment.Reason,
			"notes":            appointment.Notes,
			"appointment_type": appointment.AppointmentType,
			"created_at":       appointment.CreatedAt,
			"updated_at":       appointment.UpdatedAt,
		})
	}

	query, args, err := a.db.Insert("appointments").Rows(rows...).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to insert appointments", err)
	}
	return nil
}
