package user

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/shulehub/shule/core"
)

var (
	// errors
	ErrNotFound        = errors.New("user not found")
	ErrEmailExists     = errors.New("a user with this email already exists")
	ErrUsernameExists  = errors.New("a user with this username already exists")
	ErrProfileNotFound = errors.New("profile not found")
	ErrProfileExists   = errors.New("profile already exists")
)

type (
	Repository interface {
		CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...User) error
		CreateUser(ctx context.Context, usr User) (User, error)
		QueryAllUsers(ctx context.Context) ([]User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		GetUserByUsernameOrEmail(ctx context.Context, uname string) (User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		SetUserLastLogin(ctx context.Context, id string, t time.Time) error
		DeleteUsersByID(ctx context.Context, ids ...string) error

		GetProfileByUserID(ctx context.Context, userID string) (Profile, error)
		CreateProfile(ctx context.Context, prof Profile) (Profile, error)
		UpdateProfile(ctx context.Context, prof Profile) (Profile, error)
	}

	Service interface {
		CheckUniqueness(uname, email string, exclUsers ...User) error
		Register(ctx context.Context, nu NewUser) (User, error)
		QueryAll(ctx context.Context) ([]User, error)
		GetByID(ctx context.Context, id string) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		GetByUsernameOrEmail(ctx context.Context, uname string) (User, error)
		Update(ctx context.Context, id string, uu UpdateUser) (User, error)
		SetLastLogin(ctx context.Context, usr User) (User, error)
		Delete(ctx context.Context, ids ...string) error

		GetProfile(ctx context.Context, userID string) (Profile, error)
		CreateProfile(ctx context.Context, userID string, in ProfileInput, imagePath string) (Profile, error)
		UpdateProfile(ctx context.Context, userID string, in ProfileInput, imagePath string) (Profile, error)
	}

	service struct {
		repo    Repository
		mailSvc core.EmailService
		conf    *core.Config
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config) Service {
	return &service{
		repo:    repo,
		mailSvc: mailSvc,
		conf:    conf,
	}
}

func (svc *service) CheckUniqueness(uname, email string, exclUsers ...User) error {
	if err := svc.repo.CheckUsernameUniqueness(context.Background(), uname, email, exclUsers...); err != nil {
		var field string
		switch errors.Cause(err) {
		case ErrUsernameExists:
			field = "username"
		case ErrEmailExists:
			field = "email"
		default:
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

// Register creates a new active account and sends a welcome email (best-effort).
func (svc *service) Register(ctx context.Context, nu NewUser) (User, error) {
	now := time.Now().UTC()
	usr := User{
		Email:     nu.Email,
		Username:  nu.Username,
		Role:      nu.Role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password1); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		return User{}, err
	}
	svc.sendWelcomeMail(usr)
	return usr, nil
}

func (svc *service) sendWelcomeMail(usr User) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: usr.Username, Address: usr.Email}},
		Subject: "Welcome to " + svc.conf.AppName,
		BodyStr: fmt.Sprintf(
			"Hi %s,\n\nYour %s account has been created. Log in at %s to get started.",
			usr.Username, svc.conf.AppName, svc.conf.FrontendBaseURL,
		),
	})
}

func (svc *service) QueryAll(ctx context.Context) ([]User, error) {
	return svc.repo.QueryAllUsers(ctx)
}

func (svc *service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *service) GetByUsernameOrEmail(ctx context.Context, uname string) (User, error) {
	return svc.repo.GetUserByUsernameOrEmail(ctx, core.CleanString(uname, true /* lower */))
}

func (svc *service) Update(ctx context.Context, id string, uu UpdateUser) (User, error) {
	usr := User{
		ID:        id,
		Email:     uu.Email,
		Username:  uu.Username,
		UpdatedAt: time.Now().UTC(),
	}
	if uu.Password != "" {
		if err := usr.SetPassword(uu.Password); err != nil {
			return User{}, errors.Wrap(err, "hashing password")
		}
	}
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	now := time.Now().UTC()
	if err := svc.repo.SetUserLastLogin(ctx, usr.ID, now); err != nil {
		return User{}, err
	}
	usr.LastLogin = now
	return usr, nil
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteUsersByID(ctx, ids...)
}

func (svc *service) GetProfile(ctx context.Context, userID string) (Profile, error) {
	return svc.repo.GetProfileByUserID(ctx, userID)
}

func (svc *service) CreateProfile(ctx context.Context, userID string, in ProfileInput, imagePath string) (Profile, error) {
	if _, err := svc.repo.GetProfileByUserID(ctx, userID); err == nil {
		return Profile{}, ErrProfileExists
	} else if errors.Cause(err) != ErrProfileNotFound {
		return Profile{}, err
	}

	now := time.Now().UTC()
	prof := Profile{
		UserID:      userID,
		Bio:         in.Bio,
		BirthDate:   in.BirthDate,
		Location:    in.Location,
		PhoneNumber: in.PhoneNumber,
		ImagePath:   imagePath,
		SectionID:   in.SectionID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateProfile(ctx, prof)
}

// UpdateProfile partially updates the user's profile; zero-valued inputs keep
// the stored values.
func (svc *service) UpdateProfile(ctx context.Context, userID string, in ProfileInput, imagePath string) (Profile, error) {
	prof, err := svc.repo.GetProfileByUserID(ctx, userID)
	if err != nil {
		return Profile{}, err
	}

	if in.Bio != "" {
		prof.Bio = in.Bio
	}
	if !in.BirthDate.IsZero() {
		prof.BirthDate = in.BirthDate
	}
	if in.Location != "" {
		prof.Location = in.Location
	}
	if in.PhoneNumber != "" {
		prof.PhoneNumber = in.PhoneNumber
	}
	if in.SectionID != "" {
		prof.SectionID = in.SectionID
	}
	if imagePath != "" {
		prof.ImagePath = imagePath
	}
	prof.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateProfile(ctx, prof)
}
