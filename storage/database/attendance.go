package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/shulehub/shule/core/attendance"
)

const attendanceColumns = `id, student_id, offering_id, section_id, date, status, recorded_by, created_at, updated_at`

type attendanceRepository struct {
	db *sqlx.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *sqlx.DB) *attendanceRepository {
	return &attendanceRepository{db: db}
}

// UpsertAttendance keys on (student, offering, date); a clash overwrites the
// section, status and recorder of the existing row.
func (repo attendanceRepository) UpsertAttendance(ctx context.Context, att attendance.Attendance) (attendance.Attendance, error) {
	att.ID = uuid.New().String()
	err := repo.db.GetContext(ctx, &att, `
		INSERT INTO attendance (id, student_id, offering_id, section_id, date, status, recorded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (student_id, offering_id, date) DO UPDATE
		SET section_id  = EXCLUDED.section_id,
		    status      = EXCLUDED.status,
		    recorded_by = EXCLUDED.recorded_by,
		    updated_at  = now()
		RETURNING `+attendanceColumns,
		att.ID, att.StudentID, att.OfferingID, att.SectionID, att.Date, att.Status, att.RecordedBy)
	if err != nil {
		return attendance.Attendance{}, errors.Wrap(err, "upserting attendance")
	}
	return att, nil
}

func (repo attendanceRepository) QueryAttendanceByTeacher(ctx context.Context, teacherID string) ([]attendance.Attendance, error) {
	var atts []attendance.Attendance
	err := repo.db.SelectContext(ctx, &atts, `
		SELECT DISTINCT a.id, a.student_id, a.offering_id, a.section_id, a.date, a.status,
		       a.recorded_by, a.created_at, a.updated_at
		FROM attendance a
		JOIN offerings o ON o.id = a.offering_id
		WHERE o.teacher_id = $1
		ORDER BY a.date DESC, a.created_at DESC
	`, teacherID)
	if err != nil {
		return nil, errors.Wrap(err, "querying attendance by teacher")
	}
	return atts, nil
}
