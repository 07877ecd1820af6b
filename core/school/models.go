package school

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/shulehub/shule/core"
)

// Section is a named group of students (a class).
type Section struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// Subject is a taught discipline.
type Subject struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"subject_name" db:"name"`
}

// Offering binds a subject to a section and the teacher teaching it at a
// given time of day. It is the unit attendance is recorded against.
type Offering struct {
	ID        string    `json:"id" db:"id"`
	SubjectID string    `json:"subject" db:"subject_id"`
	SectionID string    `json:"section" db:"section_id"`
	TeacherID string    `json:"teacher" db:"teacher_id"`
	TimeOfDay string    `json:"time_of_day" db:"time_of_day"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// OfferingDetail is an Offering joined with its display names.
type OfferingDetail struct {
	Offering
	SubjectName string `json:"subject_name" db:"subject_name"`
	SectionName string `json:"section_name" db:"section_name"`
	TeacherName string `json:"teacher_name" db:"teacher_name"`
}

// Enrollment binds a student to a subject, optionally under a custom display name.
type Enrollment struct {
	ID          string `json:"id" db:"id"`
	StudentID   string `json:"student" db:"student_id"`
	SubjectID   string `json:"subject" db:"subject_id"`
	DisplayName string `json:"display_name" db:"display_name"`
}

type NewSection struct {
	Name string `json:"name" validate:"required,max=255"`
}

func (ns *NewSection) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	return validate.Struct(ns)
}

type NewSubject struct {
	Name string `json:"subject_name" validate:"required,max=255"`
}

func (ns *NewSubject) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	return validate.Struct(ns)
}

type NewOffering struct {
	SubjectID string `json:"subject" validate:"required,uuid4"`
	SectionID string `json:"section" validate:"required,uuid4"`
	TeacherID string `json:"teacher" validate:"required,uuid4"`
	TimeOfDay string `json:"time_of_day" validate:"omitempty,max=50"`
}

func (no *NewOffering) Validate(validate *validator.Validate) error {
	no.TimeOfDay = core.CleanString(no.TimeOfDay)
	return validate.Struct(no)
}

type NewEnrollment struct {
	StudentID   string `json:"student" validate:"required,uuid4"`
	SubjectID   string `json:"subject" validate:"required,uuid4"`
	DisplayName string `json:"display_name" validate:"omitempty,max=255"`
}

func (ne *NewEnrollment) Validate(validate *validator.Validate) error {
	ne.DisplayName = core.CleanString(ne.DisplayName)
	return validate.Struct(ne)
}

type UpdateEnrollment struct {
	DisplayName string `json:"display_name" validate:"omitempty,max=255"`
}

func (ue *UpdateEnrollment) Validate(validate *validator.Validate) error {
	ue.DisplayName = core.CleanString(ue.DisplayName)
	return validate.Struct(ue)
}
