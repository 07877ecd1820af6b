package school

import (
	"context"

	"github.com/pkg/errors"

	"github.com/shulehub/shule/core"
	"github.com/shulehub/shule/core/user"
)

var (
	// errors
	ErrSectionNotFound    = errors.New("section not found")
	ErrSubjectNotFound    = errors.New("subject not found")
	ErrOfferingNotFound   = errors.New("teacher subject not found")
	ErrEnrollmentNotFound = errors.New("student subject not found")
	ErrSectionExists      = errors.New("a section with this name already exists")
	ErrSubjectExists      = errors.New("a subject with this name already exists")
	ErrEnrollmentExists   = errors.New("this student is already assigned to this subject")
	ErrNotATeacher        = errors.New("referenced user is not a teacher")
	ErrNotAStudent        = errors.New("referenced user is not a student")
)

type (
	Repository interface {
		QuerySections(ctx context.Context) ([]Section, error)
		GetSectionByID(ctx context.Context, id string) (Section, error)
		CreateSection(ctx context.Context, sec Section) (Section, error)
		DeleteSectionByID(ctx context.Context, id string) error

		QuerySubjects(ctx context.Context) ([]Subject, error)
		GetSubjectByID(ctx context.Context, id string) (Subject, error)
		CreateSubject(ctx context.Context, sub Subject) (Subject, error)
		DeleteSubjectByID(ctx context.Context, id string) error

		QueryOfferings(ctx context.Context) ([]OfferingDetail, error)
		GetOfferingByID(ctx context.Context, id string) (Offering, error)
		CreateOffering(ctx context.Context, off Offering) (Offering, error)
		DeleteOfferingByID(ctx context.Context, id string) error

		QueryEnrollments(ctx context.Context, studentID string) ([]Enrollment, error)
		GetEnrollmentByID(ctx context.Context, id string) (Enrollment, error)
		CheckEnrollmentUniqueness(ctx context.Context, studentID, subjectID string, excluded ...Enrollment) error
		CreateEnrollment(ctx context.Context, enr Enrollment) (Enrollment, error)
		UpdateEnrollment(ctx context.Context, enr Enrollment) (Enrollment, error)
		DeleteEnrollmentByID(ctx context.Context, id string) error
	}

	Service interface {
		QuerySections(ctx context.Context) ([]Section, error)
		GetSection(ctx context.Context, id string) (Section, error)
		CreateSection(ctx context.Context, ns NewSection) (Section, error)
		DeleteSection(ctx context.Context, id string) error

		QuerySubjects(ctx context.Context) ([]Subject, error)
		GetSubject(ctx context.Context, id string) (Subject, error)
		CreateSubject(ctx context.Context, ns NewSubject) (Subject, error)
		DeleteSubject(ctx context.Context, id string) error

		QueryOfferings(ctx context.Context) ([]OfferingDetail, error)
		GetOffering(ctx context.Context, id string) (Offering, error)
		CreateOffering(ctx context.Context, no NewOffering) (Offering, error)
		DeleteOffering(ctx context.Context, id string) error

		QueryEnrollments(ctx context.Context, studentID string) ([]Enrollment, error)
		GetEnrollment(ctx context.Context, id string) (Enrollment, error)
		CreateEnrollment(ctx context.Context, ne NewEnrollment) (Enrollment, error)
		UpdateEnrollment(ctx context.Context, id string, ue UpdateEnrollment) (Enrollment, error)
		DeleteEnrollment(ctx context.Context, id string) error
	}

	service struct {
		repo   Repository
		usrSvc user.Service
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, usrSvc user.Service) Service {
	return &service{repo: repo, usrSvc: usrSvc}
}

func (svc *service) QuerySections(ctx context.Context) ([]Section, error) {
	return svc.repo.QuerySections(ctx)
}

func (svc *service) GetSection(ctx context.Context, id string) (Section, error) {
	return svc.repo.GetSectionByID(ctx, id)
}

func (svc *service) CreateSection(ctx context.Context, ns NewSection) (Section, error) {
	return svc.repo.CreateSection(ctx, Section{Name: ns.Name})
}

func (svc *service) DeleteSection(ctx context.Context, id string) error {
	return svc.repo.DeleteSectionByID(ctx, id)
}

func (svc *service) QuerySubjects(ctx context.Context) ([]Subject, error) {
	return svc.repo.QuerySubjects(ctx)
}

func (svc *service) GetSubject(ctx context.Context, id string) (Subject, error) {
	return svc.repo.GetSubjectByID(ctx, id)
}

func (svc *service) CreateSubject(ctx context.Context, ns NewSubject) (Subject, error) {
	return svc.repo.CreateSubject(ctx, Subject{Name: ns.Name})
}

func (svc *service) DeleteSubject(ctx context.Context, id string) error {
	return svc.repo.DeleteSubjectByID(ctx, id)
}

func (svc *service) QueryOfferings(ctx context.Context) ([]OfferingDetail, error) {
	return svc.repo.QueryOfferings(ctx)
}

func (svc *service) GetOffering(ctx context.Context, id string) (Offering, error) {
	return svc.repo.GetOfferingByID(ctx, id)
}

// CreateOffering checks the referenced rows exist and that the teacher
// reference actually has the teacher role.
func (svc *service) CreateOffering(ctx context.Context, no NewOffering) (Offering, error) {
	if _, err := svc.repo.GetSubjectByID(ctx, no.SubjectID); err != nil {
		return Offering{}, err
	}
	if _, err := svc.repo.GetSectionByID(ctx, no.SectionID); err != nil {
		return Offering{}, err
	}
	teacher, err := svc.usrSvc.GetByID(ctx, no.TeacherID)
	if err != nil {
		return Offering{}, err
	}
	if !teacher.IsTeacher() {
		return Offering{}, core.NewValidationError(ErrNotATeacher, core.FieldError{Field: "teacher", Error: ErrNotATeacher.Error()})
	}
	return svc.repo.CreateOffering(ctx, Offering{
		SubjectID: no.SubjectID,
		SectionID: no.SectionID,
		TeacherID: no.TeacherID,
		TimeOfDay: no.TimeOfDay,
	})
}

func (svc *service) DeleteOffering(ctx context.Context, id string) error {
	return svc.repo.DeleteOfferingByID(ctx, id)
}

func (svc *service) QueryEnrollments(ctx context.Context, studentID string) ([]Enrollment, error) {
	return svc.repo.QueryEnrollments(ctx, studentID)
}

func (svc *service) GetEnrollment(ctx context.Context, id string) (Enrollment, error) {
	return svc.repo.GetEnrollmentByID(ctx, id)
}

// CreateEnrollment enforces the student role and the (student, subject)
// uniqueness invariant.
func (svc *service) CreateEnrollment(ctx context.Context, ne NewEnrollment) (Enrollment, error) {
	student, err := svc.usrSvc.GetByID(ctx, ne.StudentID)
	if err != nil {
		return Enrollment{}, err
	}
	if !student.IsStudent() {
		return Enrollment{}, core.NewValidationError(ErrNotAStudent, core.FieldError{Field: "student", Error: ErrNotAStudent.Error()})
	}
	if _, err := svc.repo.GetSubjectByID(ctx, ne.SubjectID); err != nil {
		return Enrollment{}, err
	}
	if err := svc.repo.CheckEnrollmentUniqueness(ctx, ne.StudentID, ne.SubjectID); err != nil {
		if errors.Cause(err) == ErrEnrollmentExists {
			return Enrollment{}, core.NewValidationError(err, core.FieldError{Field: "subject", Error: err.Error()})
		}
		return Enrollment{}, err
	}
	return svc.repo.CreateEnrollment(ctx, Enrollment{
		StudentID:   ne.StudentID,
		SubjectID:   ne.SubjectID,
		DisplayName: ne.DisplayName,
	})
}

func (svc *service) UpdateEnrollment(ctx context.Context, id string, ue UpdateEnrollment) (Enrollment, error) {
	enr, err := svc.repo.GetEnrollmentByID(ctx, id)
	if err != nil {
		return Enrollment{}, err
	}
	if ue.DisplayName != "" {
		enr.DisplayName = ue.DisplayName
	}
	return svc.repo.UpdateEnrollment(ctx, enr)
}

func (svc *service) DeleteEnrollment(ctx context.Context, id string) error {
	return svc.repo.DeleteEnrollmentByID(ctx, id)
}
