package submission

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/kazadi/darasa/core"
)

// Comment types
const (
	CommentTypeLinter  = "linter"
	CommentTypeFile    = "file"
	CommentTypeGeneral = "general"
)

type Submission struct {
	ID           int64     `json:"id"`
	AssignmentID int64     `json:"assignment_id"`
	UserID       int64     `json:"user_id"`
	SubmittedAt  time.Time `json:"submitted_at"` // UTC
	// IsCurrent marks the latest version per (assignment, user); at most one
	// submission per pair carries it.
	IsCurrent                    bool   `json:"is_current"`
	SubmitterHasReviewedComments bool   `json:"submitter_has_reviewed_comments"`
	Files                        []File `json:"files,omitempty"`
}

type File struct {
	ID           int64  `json:"id"`
	SubmissionID int64  `json:"submission_id"`
	Name         string `json:"name"`
	// StorageKey is the opaque blob-store key the content is filed under.
	StorageKey string `json:"storage_key"`
	Content    string `json:"content"`
}

type Comment struct {
	ID           int64      `json:"id"`
	SubmissionID int64      `json:"submission_id"`
	CommentType  string     `json:"comment_type"`
	FileID       null.Int64 `json:"file_id"`
	StartLine    int        `json:"start_line"`
	EndLine      int        `json:"end_line"`
	StartOffset  int        `json:"start_offset"`
	EndOffset    int        `json:"end_offset"`
	ParentID     null.Int64 `json:"parent_id"`
	UserID       int64      `json:"user_id"`
	Comment      string     `json:"comment"`
	CreatedAt    time.Time  `json:"created_at"` // UTC
}

// NewFile is a file attached to a new submission.
type NewFile struct {
	Name    string `json:"name" validate:"required,max=255"`
	Content string `json:"content"`
}

// NewSubmission contains information needed to create a new Submission.
type NewSubmission struct {
	AssignmentID int64     `json:"assignment_id" validate:"required"`
	UserID       int64     `json:"user_id" validate:"required"`
	Files        []NewFile `json:"files" validate:"dive"`
}

func (ns *NewSubmission) Validate(validate *validator.Validate) error {
	for i := range ns.Files {
		ns.Files[i].Name = core.CleanString(ns.Files[i].Name)
	}
	return validate.Struct(ns)
}

// NewComment contains information needed to create a new Comment.
type NewComment struct {
	SubmissionID int64      `json:"submission_id" validate:"required"`
	CommentType  string     `json:"comment_type" validate:"required,oneof=linter file general"`
	FileID       null.Int64 `json:"file_id"`
	StartLine    int        `json:"start_line"`
	EndLine      int        `json:"end_line"`
	StartOffset  int        `json:"start_offset"`
	EndOffset    int        `json:"end_offset"`
	ParentID     null.Int64 `json:"parent_id"`
	UserID       int64      `json:"user_id" validate:"required"`
	Comment      string     `json:"comment" validate:"required"`
}

func (nc *NewComment) Validate(validate *validator.Validate) error {
	nc.Comment = core.CleanString(nc.Comment)
	return validate.Struct(nc)
}

// ListOptions narrows a submission listing. Zero RequesterID skips gating
// (trusted internal callers); zero StudentID lists the whole roster.
type ListOptions struct {
	RequesterID int64
	StudentID   int64
	CurrentOnly bool
}
