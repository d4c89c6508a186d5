package sqlxrepos

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/kazadi/darasa/core/user"
)

type userRow struct {
	ID           int64     `db:"id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	IsTeacher    bool      `db:"is_teacher"`
	IsActive     bool      `db:"is_active"`
	PasswordHash []byte    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r userRow) toDomain() user.User {
	return user.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		IsTeacher:    r.IsTeacher,
		IsActive:     r.IsActive,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func usersToDomain(rows []userRow) []user.User {
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.toDomain())
	}
	return users
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckEmailUniqueness(email string, excludedUsers ...user.User) error {
	exclIDs := make([]int64, 0, len(excludedUsers))
	for _, usr := range excludedUsers {
		exclIDs = append(exclIDs, usr.ID)
	}
	if len(exclIDs) == 0 {
		exclIDs = append(exclIDs, 0)
	}

	query, args, err := sqlx.In("SELECT EXISTS(SELECT 1 FROM users WHERE email = ? AND id NOT IN (?))", email, exclIDs)
	if err != nil {
		return errors.Wrap(err, "building uniqueness query")
	}

	var exists bool
	if err := repo.db.Get(&exists, repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if exists {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(usr user.User) (user.User, error) {
	const q = `
		INSERT INTO users (name, email, is_teacher, is_active, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	err := repo.db.Get(
		&usr.ID, q,
		usr.Name, usr.Email, usr.IsTeacher, usr.IsActive, usr.PasswordHash, usr.CreatedAt, usr.UpdatedAt,
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "creating user")
	}
	return usr, nil
}

func (repo *userRepository) QueryAllUsers() ([]user.User, error) {
	var rows []userRow
	if err := repo.db.Select(&rows, "SELECT * FROM users ORDER BY id"); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return usersToDomain(rows), nil
}

func (repo *userRepository) GetUserByID(id int64) (user.User, error) {
	var row userRow
	if err := repo.db.Get(&row, "SELECT * FROM users WHERE id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "getting user by id")
	}
	return row.toDomain(), nil
}

func (repo *userRepository) GetUserByEmail(email string) (user.User, error) {
	var row userRow
	if err := repo.db.Get(&row, "SELECT * FROM users WHERE email = $1", email); err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "getting user by email")
	}
	return row.toDomain(), nil
}

func (repo *userRepository) UpdateUser(usr user.User) (user.User, error) {
	const q = `
		UPDATE users
		SET name = $2, email = $3, is_teacher = $4, is_active = $5,
		    password_hash = COALESCE($6, password_hash), updated_at = $7
		WHERE id = $1`
	res, err := repo.db.Exec(q, usr.ID, usr.Name, usr.Email, usr.IsTeacher, usr.IsActive, usr.PasswordHash, usr.UpdatedAt)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.GetUserByID(usr.ID)
}

func (repo *userRepository) DeleteUsersByID(ids ...int64) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In("DELETE FROM users WHERE id IN (?)", ids)
	if err != nil {
		return errors.Wrap(err, "building delete query")
	}
	if _, err := repo.db.Exec(repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return nil
}
