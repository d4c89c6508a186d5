package school

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kazadi/darasa/core"
	"github.com/kazadi/darasa/core/user"
)

type Class struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Term      string    `json:"term"`
	Year      int       `json:"year"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	TeacherID int64     `json:"teacher_id"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// NewClass contains information needed to create a new Class.
type NewClass struct {
	Code      string    `json:"code" validate:"required,max=16"`
	Name      string    `json:"name" validate:"required"`
	Term      string    `json:"term" validate:"required,max=16"`
	Year      int       `json:"year" validate:"required,min=2000"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required,gtfield=StartDate"`
	TeacherID int64     `json:"teacher_id" validate:"required"`
}

func (nc *NewClass) Validate(validate *validator.Validate) error {
	nc.Code = core.CleanString(nc.Code)
	nc.Name = core.CleanString(nc.Name)
	nc.Term = core.CleanString(nc.Term)
	return validate.Struct(nc)
}

// RosterResult reports a bulk roster addition: the full roster after the
// applied subset, plus the emails that could not be resolved. Applied
// additions are never rolled back on partial failure.
type RosterResult struct {
	Students []user.User `json:"students"`
	NotFound []string    `json:"not_found,omitempty"`
}

func (r RosterResult) Partial() bool { return len(r.NotFound) > 0 }
