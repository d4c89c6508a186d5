package assignment

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/kazadi/darasa/core"
)

type Assignment struct {
	ID                 int64     `json:"id"`
	ClassID            int64     `json:"class_id"`
	Name               string    `json:"name"`
	Description        string    `json:"description"`
	ReleaseDate        time.Time `json:"release_date"`
	SubmissionDeadline time.Time `json:"submission_deadline"`
	CommentingDeadline time.Time `json:"commenting_deadline"`
	CreatedAt          time.Time `json:"created_at"` // UTC
	UpdatedAt          time.Time `json:"updated_at"` // UTC
}

// Extension overrides an assignment's submission deadline. A null UserID
// makes it class-wide; at most one record exists per (assignment, user)
// and per (assignment, class-wide) — a second grant replaces the first.
type Extension struct {
	ID                         int64      `json:"id"`
	AssignmentID               int64      `json:"assignment_id"`
	UserID                     null.Int64 `json:"user_id"`
	ExtendedSubmissionDeadline time.Time  `json:"extended_submission_deadline"`
	CreatedAt                  time.Time  `json:"created_at"` // UTC
	UpdatedAt                  time.Time  `json:"updated_at"` // UTC
}

func (e Extension) IsClassWide() bool { return !e.UserID.Valid }

// Group is a set of enrolled students working together on an assignment.
type Group struct {
	ID           int64   `json:"id"`
	AssignmentID int64   `json:"assignment_id"`
	UserIDs      []int64 `json:"user_ids"`
}

// NewAssignment contains information needed to create a new Assignment.
type NewAssignment struct {
	ClassID            int64     `json:"class_id" validate:"required"`
	Name               string    `json:"name" validate:"required"`
	Description        string    `json:"description"`
	ReleaseDate        time.Time `json:"release_date" validate:"required"`
	SubmissionDeadline time.Time `json:"submission_deadline" validate:"required"`
	CommentingDeadline time.Time `json:"commenting_deadline" validate:"required"`
}

func (na *NewAssignment) Validate(validate *validator.Validate) error {
	na.Name = core.CleanString(na.Name)
	return validate.Struct(na)
}

// Grant requests deadline extensions for the whole class and/or a list of
// students. Both targets may be set at once.
type Grant struct {
	ExtendedDeadline time.Time
	All              bool
	StudentIDs       []int64
}

// GrantResult reports a bulk grant: the extensions applied plus the student
// ids that could not be resolved. Applied grants are never rolled back on
// partial failure.
type GrantResult struct {
	Granted         []Extension `json:"granted"`
	UnknownStudents []int64     `json:"unknown_students,omitempty"`
}

func (r GrantResult) Partial() bool { return len(r.UnknownStudents) > 0 }

// Revocation requests deletion of the class-wide extension and/or the
// personal extensions of the listed students.
type Revocation struct {
	All        bool
	StudentIDs []int64
}
