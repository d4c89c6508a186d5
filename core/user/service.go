package user

import (
	"time"

	"github.com/pkg/errors"

	"github.com/kazadi/darasa/core"
)

var (
	ErrNotFound    = errors.New("user not found")
	ErrEmailExists = errors.New("a user with this email already exists")
)

type (
	Repository interface {
		CheckEmailUniqueness(email string, excludedUsers ...User) error
		CreateUser(usr User) (User, error)
		QueryAllUsers() ([]User, error)
		GetUserByID(id int64) (User, error)
		GetUserByEmail(email string) (User, error)
		UpdateUser(usr User) (User, error)
		DeleteUsersByID(ids ...int64) error
	}

	ServiceInterface interface {
		CheckEmailUniqueness(email string, excludedUsers ...User) error
		Create(nu NewUser) (User, error)
		QueryAll() ([]User, error)
		GetByID(id int64) (User, error)
		GetByEmail(email string) (User, error)
		GetOrCreateStudent(email string) (User, error)
		Delete(ids ...int64) error
	}

	Service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) CheckEmailUniqueness(email string, exclUsers ...User) error {
	if err := svc.repo.CheckEmailUniqueness(email, exclUsers...); err != nil {
		if errors.Cause(err) == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) Create(nu NewUser) (User, error) {
	now := time.Now().UTC()
	usr := User{
		Name:      nu.Name,
		Email:     nu.Email,
		IsTeacher: nu.IsTeacher,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if nu.Password != "" {
		if err := usr.SetPassword(nu.Password); err != nil {
			return User{}, err
		}
	}
	return svc.repo.CreateUser(usr)
}

func (svc *Service) QueryAll() ([]User, error) {
	return svc.repo.QueryAllUsers()
}

func (svc *Service) GetByID(id int64) (User, error) {
	return svc.repo.GetUserByID(id)
}

func (svc *Service) GetByEmail(email string) (User, error) {
	return svc.repo.GetUserByEmail(core.CleanString(email, true /* lower */))
}

// GetOrCreateStudent returns the user with the given email, creating a
// student account named after the email's local part when none exists.
func (svc *Service) GetOrCreateStudent(email string) (User, error) {
	email = core.CleanString(email, true /* lower */)
	usr, err := svc.repo.GetUserByEmail(email)
	if err == nil {
		return usr, nil
	}
	if errors.Cause(err) != ErrNotFound {
		return User{}, err
	}
	return svc.Create(NewUser{Name: NameFromEmail(email), Email: email})
}

func (svc *Service) Delete(ids ...int64) error {
	return svc.repo.DeleteUsersByID(ids...)
}
