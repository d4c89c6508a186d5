package submission

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/kazadi/darasa/core"
	"github.com/kazadi/darasa/core/assignment"
)

var (
	ErrNotFound = errors.New("submission not found")
	// ErrAccessRestricted is distinct from ErrNotFound so callers can tell
	// "no such data" from "data exists but you may not see it".
	ErrAccessRestricted = errors.New("access restricted due to active extension")

	errCommentingClosed = errors.New("commenting deadline has passed")
	errParentMismatch   = errors.New("parent comment belongs to another submission")
)

type (
	Repository interface {
		CreateSubmission(sub Submission) (Submission, error)
		GetSubmissionByID(id int64) (Submission, error)
		QuerySubmissionsByAssignmentID(assignmentID int64) ([]Submission, error)
		QuerySubmissionsByAssignmentAndUser(assignmentID, userID int64) ([]Submission, error)
		GetCurrentSubmission(assignmentID, userID int64) (Submission, error)
		// ClearCurrentSubmission unmarks the current submission for the pair;
		// no-op when none exists.
		ClearCurrentSubmission(assignmentID, userID int64) error

		CreateComment(c Comment) (Comment, error)
		GetCommentByID(id int64) (Comment, error)
		QueryCommentsBySubmissionID(submissionID int64) ([]Comment, error)
	}

	// AccessGate decides whether a requester's submission listing must be
	// narrowed to their own records; satisfied by assignment.Service.
	AccessGate interface {
		ShouldRestrictSubmissionAccess(a assignment.Assignment, requesterID, targetID int64) bool
	}

	Service struct {
		repo  Repository
		gate  AccessGate
		clock core.Clock
	}
)

func NewService(repo Repository, gate AccessGate, clock core.Clock) *Service {
	return &Service{repo: repo, gate: gate, clock: clock}
}

// Create stores a new submission as the current one for its (assignment,
// user) pair, unmarking the previous current submission.
func (svc *Service) Create(ns NewSubmission) (Submission, error) {
	if err := svc.repo.ClearCurrentSubmission(ns.AssignmentID, ns.UserID); err != nil {
		return Submission{}, errors.Wrap(err, "clearing current submission")
	}

	sub := Submission{
		AssignmentID: ns.AssignmentID,
		UserID:       ns.UserID,
		SubmittedAt:  svc.clock.Now(),
		IsCurrent:    true,
	}
	for _, nf := range ns.Files {
		sub.Files = append(sub.Files, File{
			Name:       nf.Name,
			StorageKey: uuid.New().String(),
			Content:    nf.Content,
		})
	}
	return svc.repo.CreateSubmission(sub)
}

func (svc *Service) GetByID(id int64) (Submission, error) {
	return svc.repo.GetSubmissionByID(id)
}

// List returns the assignment's submissions shaped by the access gate:
//   - roster-wide listing: a restricted requester only sees their own;
//   - student-scoped listing: a restricted requester gets ErrAccessRestricted;
//   - CurrentOnly further narrows to the submission flagged current.
func (svc *Service) List(a assignment.Assignment, opts ListOptions) ([]Submission, error) {
	if opts.StudentID == 0 {
		if opts.RequesterID != 0 && svc.gate.ShouldRestrictSubmissionAccess(a, opts.RequesterID, 0) {
			return svc.repo.QuerySubmissionsByAssignmentAndUser(a.ID, opts.RequesterID)
		}
		return svc.repo.QuerySubmissionsByAssignmentID(a.ID)
	}

	if opts.RequesterID != 0 && opts.RequesterID != opts.StudentID {
		if svc.gate.ShouldRestrictSubmissionAccess(a, opts.RequesterID, opts.StudentID) {
			return nil, ErrAccessRestricted
		}
	}

	if opts.CurrentOnly {
		sub, err := svc.repo.GetCurrentSubmission(a.ID, opts.StudentID)
		if err != nil {
			if errors.Cause(err) == ErrNotFound {
				return []Submission{}, nil
			}
			return nil, err
		}
		return []Submission{sub}, nil
	}
	return svc.repo.QuerySubmissionsByAssignmentAndUser(a.ID, opts.StudentID)
}

// AddComment attaches a comment to a submission of the given assignment.
// Commenting closes at the assignment's commenting deadline; threaded
// replies must stay on the same submission as their parent.
func (svc *Service) AddComment(a assignment.Assignment, nc NewComment) (Comment, error) {
	if svc.clock.Now().After(a.CommentingDeadline) {
		return Comment{}, core.NewValidationError(errCommentingClosed, core.FieldError{
			Field: "comment", Error: errCommentingClosed.Error(),
		})
	}

	sub, err := svc.repo.GetSubmissionByID(nc.SubmissionID)
	if err != nil {
		return Comment{}, err
	}
	if nc.ParentID.Valid {
		parent, err := svc.repo.GetCommentByID(nc.ParentID.Int64)
		if err != nil {
			return Comment{}, err
		}
		if parent.SubmissionID != sub.ID {
			return Comment{}, core.NewValidationError(errParentMismatch, core.FieldError{
				Field: "parent_id", Error: errParentMismatch.Error(),
			})
		}
	}

	return svc.repo.CreateComment(Comment{
		SubmissionID: sub.ID,
		CommentType:  nc.CommentType,
		FileID:       nc.FileID,
		StartLine:    nc.StartLine,
		EndLine:      nc.EndLine,
		StartOffset:  nc.StartOffset,
		EndOffset:    nc.EndOffset,
		ParentID:     nc.ParentID,
		UserID:       nc.UserID,
		Comment:      nc.Comment,
		CreatedAt:    svc.clock.Now(),
	})
}

func (svc *Service) QueryComments(submissionID int64) ([]Comment, error) {
	return svc.repo.QueryCommentsBySubmissionID(submissionID)
}
