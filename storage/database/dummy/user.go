package dummydb

import (
	"sort"

	"github.com/kazadi/darasa/core/user"
)

type userRepository struct {
	db *userTable
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db.user}
}

func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.db.table))
	for _, u := range repo.db.table {
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}

func (repo *userRepository) CheckEmailUniqueness(email string, excludedUsers ...user.User) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, usr := range repo.query() {
		if usr.Email == email && !isExcluded(usr, excludedUsers) {
			return user.ErrEmailExists
		}
	}
	return nil
}

func isExcluded(usr user.User, excluded []user.User) bool {
	for _, ex := range excluded {
		if usr.ID == ex.ID {
			return true
		}
	}
	return false
}

func (repo *userRepository) CreateUser(usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.seq++
	usr.ID = repo.db.seq
	repo.db.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) QueryAllUsers() ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.query(), nil
}

func (repo *userRepository) GetUserByID(id int64) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if usr, ok := repo.db.table[id]; ok {
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByEmail(email string) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, usr := range repo.query() {
		if usr.Email == email {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	orig.Name = usr.Name
	orig.Email = usr.Email
	orig.IsTeacher = usr.IsTeacher
	orig.IsActive = usr.IsActive
	if usr.PasswordHash != nil {
		orig.PasswordHash = usr.PasswordHash
	}
	orig.UpdatedAt = usr.UpdatedAt
	return *orig, nil
}

func (repo *userRepository) DeleteUsersByID(ids ...int64) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}
