package dummydb

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/shulehub/shule/core/user"
)

type userRepository struct {
	users    *userTable
	profiles *profileTable
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{users: db.user, profiles: db.profile}
}

func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.users.table))
	for _, u := range repo.users.table {
		users = append(users, *u)
	}
	return users
}

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	repo.users.RLock()
	defer repo.users.RUnlock()

	excluded := make(map[string]bool, len(excludedUsers))
	for _, u := range excludedUsers {
		excluded[u.ID] = true
	}

	for _, usr := range repo.query() {
		if excluded[usr.ID] {
			continue
		}
		if usr.Username == username {
			return user.ErrUsernameExists
		}
		if usr.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	repo.users.Lock()
	defer repo.users.Unlock()

	usr.ID = uuid.New().String()
	repo.users.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) QueryAllUsers(ctx context.Context) ([]user.User, error) {
	repo.users.RLock()
	defer repo.users.RUnlock()
	return repo.query(), nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	repo.users.RLock()
	defer repo.users.RUnlock()

	if usr, ok := repo.users.table[id]; ok {
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	repo.users.RLock()
	defer repo.users.RUnlock()

	for _, usr := range repo.query() {
		if usr.Email == email {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByUsernameOrEmail(ctx context.Context, uname string) (user.User, error) {
	repo.users.RLock()
	defer repo.users.RUnlock()

	for _, usr := range repo.query() {
		if (usr.Username == uname) || (usr.Email == uname) {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	repo.users.Lock()
	defer repo.users.Unlock()

	// only save set fields
	origUsr, ok := repo.users.table[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	if usr.Email != "" {
		origUsr.Email = usr.Email
	}
	if usr.Username != "" {
		origUsr.Username = usr.Username
	}
	if usr.PasswordHash != nil {
		origUsr.PasswordHash = usr.PasswordHash
	}
	origUsr.UpdatedAt = usr.UpdatedAt
	return *origUsr, nil
}

func (repo *userRepository) SetUserLastLogin(ctx context.Context, id string, t time.Time) error {
	repo.users.Lock()
	defer repo.users.Unlock()

	usr, ok := repo.users.table[id]
	if !ok {
		return user.ErrNotFound
	}
	usr.LastLogin = t
	return nil
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	repo.users.Lock()
	defer repo.users.Unlock()
	for _, id := range ids {
		delete(repo.users.table, id)
	}
	return nil
}

func (repo *userRepository) GetProfileByUserID(ctx context.Context, userID string) (user.Profile, error) {
	repo.profiles.RLock()
	defer repo.profiles.RUnlock()

	if prof, ok := repo.profiles.table[userID]; ok {
		return *prof, nil
	}
	return user.Profile{}, user.ErrProfileNotFound
}

func (repo *userRepository) CreateProfile(ctx context.Context, prof user.Profile) (user.Profile, error) {
	repo.profiles.Lock()
	defer repo.profiles.Unlock()

	if _, ok := repo.profiles.table[prof.UserID]; ok {
		return user.Profile{}, user.ErrProfileExists
	}
	prof.ID = uuid.New().String()
	repo.profiles.table[prof.UserID] = &prof
	return prof, nil
}

func (repo *userRepository) UpdateProfile(ctx context.Context, prof user.Profile) (user.Profile, error) {
	repo.profiles.Lock()
	defer repo.profiles.Unlock()

	orig, ok := repo.profiles.table[prof.UserID]
	if !ok {
		return user.Profile{}, user.ErrProfileNotFound
	}
	prof.ID = orig.ID
	prof.CreatedAt = orig.CreatedAt
	repo.profiles.table[prof.UserID] = &prof
	return prof, nil
}
