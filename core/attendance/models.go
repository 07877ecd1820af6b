package attendance

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/shulehub/shule/core"
)

// Status is the closed set of attendance statuses.
type Status string

const (
	StatusPresent Status = "Present"
	StatusAbsent  Status = "Absent"
)

func (s Status) Valid() bool {
	return s == StatusPresent || s == StatusAbsent
}

// Attendance is one student's status for one offering on one calendar day.
// At most one row may exist per (student, offering, date).
type Attendance struct {
	ID         string    `json:"id" db:"id"`
	StudentID  string    `json:"student" db:"student_id"`
	OfferingID string    `json:"subject" db:"offering_id"`
	SectionID  string    `json:"section" db:"section_id"`
	Date       core.Date `json:"date" db:"date"`
	Status     Status    `json:"status" db:"status"`
	RecordedBy *string   `json:"recorded_by" db:"recorded_by"` // nil when the recorder was deleted
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// Record is one item of a submitted attendance batch. The "subject" field
// references an Offering, not a bare Subject: the subject as taught, by a
// specific teacher, in a specific section.
type Record struct {
	StudentID  string    `json:"student" validate:"required,uuid4"`
	OfferingID string    `json:"subject" validate:"required,uuid4"`
	SectionID  string    `json:"section" validate:"required,uuid4"`
	Date       core.Date `json:"date" validate:"required"`
	Status     Status    `json:"status" validate:"required,status"`
}

var (
	statusTag  = "status"
	statusText = "status must be one of Present, Absent"
)

// InitValidators registers attendance-specific validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(statusTag, statusValidation)
	core.RegisterCustomTranslation(validate, translator, statusTag, statusText)
}

func statusValidation(fl validator.FieldLevel) bool {
	return Status(fl.Field().String()).Valid()
}
