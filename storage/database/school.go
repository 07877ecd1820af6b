package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/shulehub/shule/core/school"
)

type schoolRepository struct {
	db *sqlx.DB
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *sqlx.DB) *schoolRepository {
	return &schoolRepository{db: db}
}

func (repo schoolRepository) QuerySections(ctx context.Context) ([]school.Section, error) {
	var secs []school.Section
	if err := repo.db.SelectContext(ctx, &secs, `SELECT id, name FROM sections ORDER BY name`); err != nil {
		return nil, errors.Wrap(err, "querying sections")
	}
	return secs, nil
}

func (repo schoolRepository) GetSectionByID(ctx context.Context, id string) (school.Section, error) {
	var sec school.Section
	if err := repo.db.GetContext(ctx, &sec, `SELECT id, name FROM sections WHERE id = $1`, id); err != nil {
		return school.Section{}, trapNoRowsErr(err, school.ErrSectionNotFound, "getting section")
	}
	return sec, nil
}

func (repo schoolRepository) CreateSection(ctx context.Context, sec school.Section) (school.Section, error) {
	sec.ID = uuid.New().String()
	if _, err := repo.db.ExecContext(ctx, `INSERT INTO sections (id, name) VALUES ($1, $2)`, sec.ID, sec.Name); err != nil {
		if isUniqueViolation(err) {
			return school.Section{}, school.ErrSectionExists
		}
		return school.Section{}, errors.Wrap(err, "inserting section")
	}
	return sec, nil
}

func (repo schoolRepository) DeleteSectionByID(ctx context.Context, id string) error {
	return repo.deleteByID(ctx, "sections", id, school.ErrSectionNotFound)
}

func (repo schoolRepository) QuerySubjects(ctx context.Context) ([]school.Subject, error) {
	var subs []school.Subject
	if err := repo.db.SelectContext(ctx, &subs, `SELECT id, name FROM subjects ORDER BY name`); err != nil {
		return nil, errors.Wrap(err, "querying subjects")
	}
	return subs, nil
}

func (repo schoolRepository) GetSubjectByID(ctx context.Context, id string) (school.Subject, error) {
	var sub school.Subject
	if err := repo.db.GetContext(ctx, &sub, `SELECT id, name FROM subjects WHERE id = $1`, id); err != nil {
		return school.Subject{}, trapNoRowsErr(err, school.ErrSubjectNotFound, "getting subject")
	}
	return sub, nil
}

func (repo schoolRepository) CreateSubject(ctx context.Context, sub school.Subject) (school.Subject, error) {
	sub.ID = uuid.New().String()
	if _, err := repo.db.ExecContext(ctx, `INSERT INTO subjects (id, name) VALUES ($1, $2)`, sub.ID, sub.Name); err != nil {
		if isUniqueViolation(err) {
			return school.Subject{}, school.ErrSubjectExists
		}
		return school.Subject{}, errors.Wrap(err, "inserting subject")
	}
	return sub, nil
}

func (repo schoolRepository) DeleteSubjectByID(ctx context.Context, id string) error {
	return repo.deleteByID(ctx, "subjects", id, school.ErrSubjectNotFound)
}

func (repo schoolRepository) QueryOfferings(ctx context.Context) ([]school.OfferingDetail, error) {
	var offs []school.OfferingDetail
	err := repo.db.SelectContext(ctx, &offs, `
		SELECT o.id, o.subject_id, o.section_id, o.teacher_id, o.time_of_day, o.created_at,
		       sub.name AS subject_name, sec.name AS section_name, t.username AS teacher_name
		FROM offerings o
		JOIN subjects sub ON sub.id = o.subject_id
		JOIN sections sec ON sec.id = o.section_id
		JOIN users t ON t.id = o.teacher_id
		ORDER BY sub.name, sec.name
	`)
	if err != nil {
		return nil, errors.Wrap(err, "querying offerings")
	}
	return offs, nil
}

func (repo schoolRepository) GetOfferingByID(ctx context.Context, id string) (school.Offering, error) {
	var off school.Offering
	err := repo.db.GetContext(ctx, &off, `
		SELECT id, subject_id, section_id, teacher_id, time_of_day, created_at
		FROM offerings WHERE id = $1
	`, id)
	if err != nil {
		return school.Offering{}, trapNoRowsErr(err, school.ErrOfferingNotFound, "getting offering")
	}
	return off, nil
}

func (repo schoolRepository) CreateOffering(ctx context.Context, off school.Offering) (school.Offering, error) {
	off.ID = uuid.New().String()
	err := repo.db.GetContext(ctx, &off, `
		INSERT INTO offerings (id, subject_id, section_id, teacher_id, time_of_day)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, subject_id, section_id, teacher_id, time_of_day, created_at
	`, off.ID, off.SubjectID, off.SectionID, off.TeacherID, off.TimeOfDay)
	if err != nil {
		return school.Offering{}, errors.Wrap(err, "inserting offering")
	}
	return off, nil
}

func (repo schoolRepository) DeleteOfferingByID(ctx context.Context, id string) error {
	return repo.deleteByID(ctx, "offerings", id, school.ErrOfferingNotFound)
}

func (repo schoolRepository) QueryEnrollments(ctx context.Context, studentID string) ([]school.Enrollment, error) {
	query := `SELECT id, student_id, subject_id, display_name FROM enrollments`
	args := []interface{}{}
	if studentID != "" {
		query += ` WHERE student_id = $1`
		args = append(args, studentID)
	}
	var enrs []school.Enrollment
	if err := repo.db.SelectContext(ctx, &enrs, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}
	return enrs, nil
}

func (repo schoolRepository) GetEnrollmentByID(ctx context.Context, id string) (school.Enrollment, error) {
	var enr school.Enrollment
	err := repo.db.GetContext(ctx, &enr, `SELECT id, student_id, subject_id, display_name FROM enrollments WHERE id = $1`, id)
	if err != nil {
		return school.Enrollment{}, trapNoRowsErr(err, school.ErrEnrollmentNotFound, "getting enrollment")
	}
	return enr, nil
}

func (repo schoolRepository) CheckEnrollmentUniqueness(ctx context.Context, studentID, subjectID string, excluded ...school.Enrollment) error {
	query := `SELECT EXISTS (SELECT 1 FROM enrollments WHERE student_id = $1 AND subject_id = $2)`
	args := []interface{}{studentID, subjectID}
	if len(excluded) > 0 {
		ids := make([]string, 0, len(excluded))
		for _, e := range excluded {
			ids = append(ids, e.ID)
		}
		q, inArgs, err := sqlx.In(`SELECT EXISTS (SELECT 1 FROM enrollments WHERE student_id = ? AND subject_id = ? AND id NOT IN (?))`, studentID, subjectID, ids)
		if err != nil {
			return errors.Wrap(err, "building uniqueness query")
		}
		query = repo.db.Rebind(q)
		args = inArgs
	}
	var exists bool
	if err := repo.db.GetContext(ctx, &exists, query, args...); err != nil {
		return errors.Wrap(err, "checking enrollment uniqueness")
	}
	if exists {
		return school.ErrEnrollmentExists
	}
	return nil
}

func (repo schoolRepository) CreateEnrollment(ctx context.Context, enr school.Enrollment) (school.Enrollment, error) {
	enr.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO enrollments (id, student_id, subject_id, display_name)
		VALUES ($1, $2, $3, $4)
	`, enr.ID, enr.StudentID, enr.SubjectID, enr.DisplayName)
	if err != nil {
		if isUniqueViolation(err) {
			return school.Enrollment{}, school.ErrEnrollmentExists
		}
		return school.Enrollment{}, errors.Wrap(err, "inserting enrollment")
	}
	return enr, nil
}

func (repo schoolRepository) UpdateEnrollment(ctx context.Context, enr school.Enrollment) (school.Enrollment, error) {
	res, err := repo.db.ExecContext(ctx, `UPDATE enrollments SET display_name = $2 WHERE id = $1`, enr.ID, enr.DisplayName)
	if err != nil {
		return school.Enrollment{}, errors.Wrap(err, "updating enrollment")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return school.Enrollment{}, school.ErrEnrollmentNotFound
	}
	return enr, nil
}

func (repo schoolRepository) DeleteEnrollmentByID(ctx context.Context, id string) error {
	return repo.deleteByID(ctx, "enrollments", id, school.ErrEnrollmentNotFound)
}

func (repo schoolRepository) deleteByID(ctx context.Context, table, id string, notFound error) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return errors.Wrapf(err, "deleting from %s", table)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return notFound
	}
	return nil
}
