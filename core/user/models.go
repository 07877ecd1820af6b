package user

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/shulehub/shule/core"
)

// Role is the closed set of account roles. It is fixed at creation and
// drives every authorization decision in the system.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

var AllRoles = []Role{RoleAdmin, RoleTeacher, RoleStudent}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	}
	return false
}

func (r Role) IsAdmin() bool   { return r == RoleAdmin }
func (r Role) IsTeacher() bool { return r == RoleTeacher }
func (r Role) IsStudent() bool { return r == RoleStudent }

type User struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	Username     string    `json:"username" db:"username"`
	Role         Role      `json:"role" db:"role"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	PasswordHash []byte    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login" db:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u User) IsAdmin() bool   { return u.Role.IsAdmin() }
func (u User) IsTeacher() bool { return u.Role.IsTeacher() }
func (u User) IsStudent() bool { return u.Role.IsStudent() }

// PublicUser is the representation returned by the accounts endpoints.
type PublicUser struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Email: u.Email, Username: u.Username, Role: u.Role}
}

// NewUser contains information needed to register a new User.
type NewUser struct {
	Email     string `json:"email" validate:"required,email"`
	Username  string `json:"username" validate:"required,alphanum_"`
	Password1 string `json:"password1" validate:"required"`
	Password2 string `json:"password2" validate:"required,eqfield=Password1"`
	Role      Role   `json:"role" validate:"omitempty,role"`
}

func (nu *NewUser) Validate(validate *validator.Validate, svc Service) error {
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	if nu.Role == "" {
		nu.Role = RoleStudent
	}

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(nu.Username, nu.Email)
}

// UpdateUser defines what information may be provided to modify an existing User.
type UpdateUser struct {
	Email    string `json:"email" validate:"omitempty,email"`
	Username string `json:"username" validate:"omitempty,alphanum_"`
	Password string `json:"password" validate:"omitempty"`
}

func (uu *UpdateUser) Validate(origUsr User, validate *validator.Validate, svc Service) error {
	email := core.CleanString(uu.Email, true /* lower */)
	if email != "" {
		uu.Email = email
	} else {
		uu.Email = origUsr.Email
	}

	uname := core.CleanString(uu.Username, true /* lower */)
	if uname != "" {
		uu.Username = uname
	} else {
		uu.Username = origUsr.Username
	}

	if err := validate.Struct(uu); err != nil {
		return err
	}
	return svc.CheckUniqueness(uu.Username, uu.Email, origUsr)
}

// Profile holds optional per-user metadata. At most one per user.
type Profile struct {
	ID          string    `json:"-" db:"id"`
	UserID      string    `json:"-" db:"user_id"`
	Bio         string    `json:"bio" db:"bio"`
	BirthDate   core.Date `json:"birth_date" db:"birth_date"`
	Location    string    `json:"location" db:"location"`
	PhoneNumber string    `json:"phone_number" db:"phone_number"`
	ImagePath   string    `json:"-" db:"image_path"` // media-relative; URL is built per request
	SectionID   string    `json:"section,omitempty" db:"section_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// ProfileInput is the create/update payload for a Profile.
// The image itself arrives as a multipart part and is handled at the API layer.
type ProfileInput struct {
	Bio         string    `json:"bio" form:"bio"`
	BirthDate   core.Date `json:"birth_date" form:"birth_date"`
	Location    string    `json:"location" form:"location" validate:"omitempty,max=255"`
	PhoneNumber string    `json:"phone_number" form:"phone_number" validate:"omitempty,max=20"`
	SectionID   string    `json:"section" form:"section" validate:"omitempty,uuid4"`
}

func (pi *ProfileInput) Validate(validate *validator.Validate) error {
	pi.Location = core.CleanString(pi.Location)
	pi.PhoneNumber = core.CleanString(pi.PhoneNumber)
	return validate.Struct(pi)
}

// InitValidators registers user-specific validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	registerValidators(validate, translator)
}
