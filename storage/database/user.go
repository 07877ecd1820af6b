package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/shulehub/shule/core/user"
)

const userColumns = `id, email, username, role, is_active, password_hash, created_at, updated_at, last_login`

const profileColumns = `id, user_id, bio, birth_date, location, phone_number, image_path,
	COALESCE(section_id::text, '') AS section_id, created_at, updated_at`

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

// trapNoRowsErr maps psql "no rows" err to the given domain error.
func trapNoRowsErr(err, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	query := `SELECT username, email FROM users WHERE (username = $1 OR email = $2)`
	args := []interface{}{username, email}
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		q, inArgs, err := sqlx.In(`SELECT username, email FROM users WHERE (username = ? OR email = ?) AND id NOT IN (?)`, username, email, ids)
		if err != nil {
			return errors.Wrap(err, "building uniqueness query")
		}
		query = repo.db.Rebind(q)
		args = inArgs
	}

	var matches []struct {
		Username string `db:"username"`
		Email    string `db:"email"`
	}
	if err := repo.db.SelectContext(ctx, &matches, query, args...); err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}
	for _, m := range matches {
		if m.Username == username {
			return user.ErrUsernameExists
		}
		if m.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO users (id, email, username, role, is_active, password_hash, created_at, updated_at)
		VALUES (:id, :email, :username, :role, :is_active, :password_hash, :created_at, :updated_at)
	`, usr)
	if err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) QueryAllUsers(ctx context.Context) ([]user.User, error) {
	var users []user.User
	if err := repo.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users ORDER BY created_at`); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return users, nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	var usr user.User
	if err := repo.db.GetContext(ctx, &usr, `SELECT `+userColumns+` FROM users WHERE id = $1`, id); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "getting user by id")
	}
	return usr, nil
}

func (repo userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	var usr user.User
	if err := repo.db.GetContext(ctx, &usr, `SELECT `+userColumns+` FROM users WHERE email = $1`, email); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "getting user by email")
	}
	return usr, nil
}

func (repo userRepository) GetUserByUsernameOrEmail(ctx context.Context, uname string) (user.User, error) {
	var usr user.User
	err := repo.db.GetContext(ctx, &usr, `SELECT `+userColumns+` FROM users WHERE username = $1 OR email = $1`, uname)
	if err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "getting user by username or email")
	}
	return usr, nil
}

// UpdateUser updates the user's email, username and (when set) password hash;
// empty fields keep the stored values.
func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	var updated user.User
	err := repo.db.GetContext(ctx, &updated, `
		UPDATE users
		SET email         = COALESCE(NULLIF($2, ''), email),
		    username      = COALESCE(NULLIF($3, ''), username),
		    password_hash = CASE WHEN length($4) > 0 THEN $4 ELSE password_hash END,
		    updated_at    = $5
		WHERE id = $1
		RETURNING `+userColumns, usr.ID, usr.Email, usr.Username, usr.PasswordHash, usr.UpdatedAt)
	if err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "updating user")
	}
	return updated, nil
}

func (repo userRepository) SetUserLastLogin(ctx context.Context, id string, t time.Time) error {
	res, err := repo.db.ExecContext(ctx, `UPDATE users SET last_login = $2 WHERE id = $1`, id, t)
	if err != nil {
		return errors.Wrap(err, "setting last login")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (repo userRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM users WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "building delete query")
	}
	if _, err := repo.db.ExecContext(ctx, repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return nil
}

func (repo userRepository) GetProfileByUserID(ctx context.Context, userID string) (user.Profile, error) {
	var prof user.Profile
	err := repo.db.GetContext(ctx, &prof, `SELECT `+profileColumns+` FROM profiles WHERE user_id = $1`, userID)
	if err != nil {
		return user.Profile{}, trapNoRowsErr(err, user.ErrProfileNotFound, "getting profile")
	}
	return prof, nil
}

func (repo userRepository) CreateProfile(ctx context.Context, prof user.Profile) (user.Profile, error) {
	prof.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO profiles (id, user_id, bio, birth_date, location, phone_number, image_path, section_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, '')::uuid, $9, $10)
	`, prof.ID, prof.UserID, prof.Bio, prof.BirthDate, prof.Location, prof.PhoneNumber, prof.ImagePath, prof.SectionID, prof.CreatedAt, prof.UpdatedAt)
	if err != nil {
		return user.Profile{}, errors.Wrap(err, "inserting profile")
	}
	return prof, nil
}

func (repo userRepository) UpdateProfile(ctx context.Context, prof user.Profile) (user.Profile, error) {
	res, err := repo.db.ExecContext(ctx, `
		UPDATE profiles
		SET bio = $2, birth_date = $3, location = $4, phone_number = $5, image_path = $6,
		    section_id = NULLIF($7, '')::uuid, updated_at = $8
		WHERE user_id = $1
	`, prof.UserID, prof.Bio, prof.BirthDate, prof.Location, prof.PhoneNumber, prof.ImagePath, prof.SectionID, prof.UpdatedAt)
	if err != nil {
		return user.Profile{}, errors.Wrap(err, "updating profile")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.Profile{}, user.ErrProfileNotFound
	}
	return prof, nil
}
