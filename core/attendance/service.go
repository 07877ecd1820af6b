package attendance

import (
	"context"

	"github.com/pkg/errors"

	"github.com/shulehub/shule/core"
	"github.com/shulehub/shule/core/school"
	"github.com/shulehub/shule/core/user"
)

var (
	// errors
	ErrNotFound     = errors.New("attendance not found")
	ErrOnlyTeachers = errors.New("only teachers are allowed")
	ErrEmptyBatch   = errors.New("attendance list must not be empty")
	ErrInvalidBatch = errors.New("invalid attendance items")

	// per-item rule violations
	errNotAssigned     = "not assigned to this subject"
	errSectionMismatch = "subject does not belong to the specified section"
	errStudentNotFound = "student not found"
	errNotAStudent     = "referenced user is not a student"
)

type (
	Repository interface {
		// UpsertAttendance inserts or, when a row with the same
		// (student, offering, date) key exists, overwrites its section,
		// status and recorder.
		UpsertAttendance(ctx context.Context, att Attendance) (Attendance, error)
		// QueryAttendanceByTeacher returns every row belonging to an offering
		// taught by the teacher, each row exactly once.
		QueryAttendanceByTeacher(ctx context.Context, teacherID string) ([]Attendance, error)
	}

	Service interface {
		Record(ctx context.Context, principal user.User, items []Record) ([]Attendance, error)
		QueryForTeacher(ctx context.Context, principal user.User) ([]Attendance, error)
	}

	service struct {
		repo      Repository
		schoolSvc school.Service
		usrSvc    user.Service
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, schoolSvc school.Service, usrSvc user.Service) Service {
	return &service{repo: repo, schoolSvc: schoolSvc, usrSvc: usrSvc}
}

// Record validates the whole batch against the authenticated principal, then
// upserts every item. The batch is atomic: any invalid item rejects the whole
// submission with per-item errors and nothing is written.
func (svc *service) Record(ctx context.Context, principal user.User, items []Record) ([]Attendance, error) {
	if !principal.IsTeacher() {
		return nil, ErrOnlyTeachers
	}
	if len(items) == 0 {
		return nil, core.NewValidationError(ErrEmptyBatch)
	}

	// validate all, then (if all pass) write all
	itemErrs := make(map[int][]core.FieldError)
	for i, item := range items {
		for _, fldErr := range svc.validateItem(ctx, principal, item) {
			itemErrs[i] = append(itemErrs[i], fldErr)
		}
	}
	if len(itemErrs) > 0 {
		return nil, core.NewBatchError(ErrInvalidBatch, itemErrs)
	}

	res := make([]Attendance, 0, len(items))
	for _, item := range items {
		recordedBy := principal.ID
		att, err := svc.repo.UpsertAttendance(ctx, Attendance{
			StudentID:  item.StudentID,
			OfferingID: item.OfferingID,
			SectionID:  item.SectionID,
			Date:       item.Date,
			Status:     item.Status,
			RecordedBy: &recordedBy,
		})
		if err != nil {
			return nil, errors.Wrap(err, "upserting attendance")
		}
		res = append(res, att)
	}
	return res, nil
}

// validateItem applies the per-record rules: every reference must resolve,
// the offering must be taught by the principal and the offering's section
// must match the supplied section.
func (svc *service) validateItem(ctx context.Context, principal user.User, item Record) []core.FieldError {
	var fldErrs []core.FieldError

	student, err := svc.usrSvc.GetByID(ctx, item.StudentID)
	switch {
	case errors.Cause(err) == user.ErrNotFound:
		fldErrs = append(fldErrs, core.FieldError{Field: "student", Error: errStudentNotFound})
	case err != nil:
		fldErrs = append(fldErrs, core.FieldError{Field: "student", Error: err.Error()})
	case !student.IsStudent():
		fldErrs = append(fldErrs, core.FieldError{Field: "student", Error: errNotAStudent})
	}

	if _, err := svc.schoolSvc.GetSection(ctx, item.SectionID); err != nil {
		fldErrs = append(fldErrs, core.FieldError{Field: "section", Error: school.ErrSectionNotFound.Error()})
	}

	off, err := svc.schoolSvc.GetOffering(ctx, item.OfferingID)
	if err != nil {
		fldErrs = append(fldErrs, core.FieldError{Field: "subject", Error: school.ErrOfferingNotFound.Error()})
		return fldErrs
	}
	if off.TeacherID != principal.ID {
		fldErrs = append(fldErrs, core.FieldError{Field: "subject", Error: errNotAssigned})
	}
	if off.SectionID != item.SectionID {
		fldErrs = append(fldErrs, core.FieldError{Field: "section", Error: errSectionMismatch})
	}
	return fldErrs
}

func (svc *service) QueryForTeacher(ctx context.Context, principal user.User) ([]Attendance, error) {
	if !principal.IsTeacher() {
		return nil, ErrOnlyTeachers
	}
	return svc.repo.QueryAttendanceByTeacher(ctx, principal.ID)
}
