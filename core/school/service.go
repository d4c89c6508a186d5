package school

import (
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/kazadi/darasa/core"
	"github.com/kazadi/darasa/core/user"
)

var (
	ErrNotFound        = errors.New("class not found")
	ErrNotATeacher     = errors.New("referenced user is not a teacher")
	ErrEmailNotAllowed = errors.New("not an acceptable email address")
)

type (
	Repository interface {
		CreateClass(cls Class) (Class, error)
		GetClassByID(id int64) (Class, error)
		QueryClassesByTeacherID(teacherID int64) ([]Class, error)
		QueryClassesByStudentID(studentID int64) ([]Class, error)
		QueryRoster(classID int64) ([]user.User, error)
		// AddStudents enrolls users; enrolling an already-enrolled user is a no-op.
		AddStudents(classID int64, userIDs ...int64) error
		RemoveStudent(classID, userID int64) error
		IsEnrolled(classID, userID int64) (bool, error)
	}

	Service struct {
		repo   Repository
		usrSvc user.ServiceInterface
		conf   *core.Config
	}
)

func NewService(repo Repository, usrSvc user.ServiceInterface, conf *core.Config) *Service {
	return &Service{repo: repo, usrSvc: usrSvc, conf: conf}
}

func (svc *Service) Create(nc NewClass) (Class, error) {
	teacher, err := svc.usrSvc.GetByID(nc.TeacherID)
	if err != nil {
		return Class{}, err
	}
	if !teacher.IsTeacher {
		return Class{}, core.NewValidationError(ErrNotATeacher, core.FieldError{
			Field: "teacher_id", Error: ErrNotATeacher.Error(),
		})
	}

	now := time.Now().UTC()
	return svc.repo.CreateClass(Class{
		Code:      nc.Code,
		Name:      nc.Name,
		Term:      nc.Term,
		Year:      nc.Year,
		StartDate: nc.StartDate,
		EndDate:   nc.EndDate,
		TeacherID: teacher.ID,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (svc *Service) GetByID(id int64) (Class, error) {
	return svc.repo.GetClassByID(id)
}

func (svc *Service) QueryByTeacher(teacherID int64) ([]Class, error) {
	return svc.repo.QueryClassesByTeacherID(teacherID)
}

func (svc *Service) QueryByStudent(studentID int64) ([]Class, error) {
	return svc.repo.QueryClassesByStudentID(studentID)
}

func (svc *Service) Roster(classID int64) ([]user.User, error) {
	return svc.repo.QueryRoster(classID)
}

func (svc *Service) IsEnrolled(classID, userID int64) (bool, error) {
	return svc.repo.IsEnrolled(classID, userID)
}

// resolveStudent finds the user for an email, auto-registering a student
// account when the email is on the configured auto-create domain.
func (svc *Service) resolveStudent(email string) (user.User, error) {
	email = core.CleanString(email, true /* lower */)
	usr, err := svc.usrSvc.GetByEmail(email)
	if err == nil {
		return usr, nil
	}
	if errors.Cause(err) != user.ErrNotFound {
		return user.User{}, err
	}
	if domain := svc.conf.Roster.AutoCreateEmailDomain; domain != "" && strings.HasSuffix(email, "@"+domain) {
		return svc.usrSvc.GetOrCreateStudent(email)
	}
	return user.User{}, ErrEmailNotAllowed
}

// AddStudent enrolls a single student by email.
func (svc *Service) AddStudent(cls Class, email string) (user.User, error) {
	usr, err := svc.resolveStudent(email)
	if err != nil {
		return user.User{}, err
	}
	if err := svc.repo.AddStudents(cls.ID, usr.ID); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

// AddStudents enrolls students in bulk. Emails that cannot be resolved are
// reported in RosterResult.NotFound; successfully resolved students stay
// enrolled regardless of later failures in the batch.
func (svc *Service) AddStudents(cls Class, emails []string) (RosterResult, error) {
	var notFound []string
	for _, email := range emails {
		usr, err := svc.resolveStudent(email)
		if err != nil {
			if errors.Cause(err) == ErrEmailNotAllowed || errors.Cause(err) == user.ErrNotFound {
				notFound = append(notFound, email)
				continue
			}
			return RosterResult{}, err
		}
		if err := svc.repo.AddStudents(cls.ID, usr.ID); err != nil {
			return RosterResult{}, err
		}
	}

	roster, err := svc.repo.QueryRoster(cls.ID)
	if err != nil {
		return RosterResult{}, err
	}
	return RosterResult{Students: roster, NotFound: notFound}, nil
}

// RemoveStudent removes a student from the roster by email.
func (svc *Service) RemoveStudent(cls Class, email string) error {
	usr, err := svc.usrSvc.GetByEmail(email)
	if err != nil {
		return err
	}
	return svc.repo.RemoveStudent(cls.ID, usr.ID)
}
