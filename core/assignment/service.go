package assignment

import (
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/kazadi/darasa/core"
	"github.com/kazadi/darasa/core/user"
)

var (
	ErrNotFound          = errors.New("assignment not found")
	ErrExtensionNotFound = errors.New("extension not found")

	errDeadlineNotLater = errors.New("extended deadline must be after the original submission deadline")
)

type (
	Repository interface {
		CreateAssignment(a Assignment) (Assignment, error)
		GetAssignmentByID(id int64) (Assignment, error)
		QueryAssignmentsByClassID(classID int64) ([]Assignment, error)

		// UpsertExtension replaces any existing extension for the same
		// (assignment, user-or-classwide) target; the write must be atomic
		// with respect to concurrent reads.
		UpsertExtension(ext Extension) (Extension, error)
		GetPersonalExtension(assignmentID, userID int64) (Extension, error)
		GetClassWideExtension(assignmentID int64) (Extension, error)
		QueryExtensionsByAssignmentID(assignmentID int64) ([]Extension, error)
		// Delete*Extension(s) are no-ops when no matching record exists.
		DeleteClassWideExtension(assignmentID int64) error
		DeletePersonalExtensions(assignmentID int64, userIDs ...int64) error

		CreateGroup(g Group) (Group, error)
		QueryGroupsByAssignmentID(assignmentID int64) ([]Group, error)
	}

	// Directory resolves user ids and emails; satisfied by user.ServiceInterface.
	Directory interface {
		GetByID(id int64) (user.User, error)
		GetByEmail(email string) (user.User, error)
	}

	// Enrollment answers roster membership; satisfied by school.Service.
	Enrollment interface {
		IsEnrolled(classID, userID int64) (bool, error)
	}

	Service struct {
		repo       Repository
		users      Directory
		enrollment Enrollment
		clock      core.Clock
		mailSvc    core.EmailService
		conf       *core.Config
	}
)

func NewService(
	repo Repository,
	users Directory,
	enrollment Enrollment,
	clock core.Clock,
	mailSvc core.EmailService,
	conf *core.Config,
) *Service {
	return &Service{
		repo:       repo,
		users:      users,
		enrollment: enrollment,
		clock:      clock,
		mailSvc:    mailSvc,
		conf:       conf,
	}
}

func (svc *Service) Create(na NewAssignment) (Assignment, error) {
	now := time.Now().UTC()
	return svc.repo.CreateAssignment(Assignment{
		ClassID:            na.ClassID,
		Name:               na.Name,
		Description:        na.Description,
		ReleaseDate:        na.ReleaseDate,
		SubmissionDeadline: na.SubmissionDeadline,
		CommentingDeadline: na.CommentingDeadline,
		CreatedAt:          now,
		UpdatedAt:          now,
	})
}

func (svc *Service) GetByID(id int64) (Assignment, error) {
	return svc.repo.GetAssignmentByID(id)
}

func (svc *Service) QueryByClass(classID int64) ([]Assignment, error) {
	return svc.repo.QueryAssignmentsByClassID(classID)
}

// EffectiveDeadline resolves the submission deadline that applies to userID,
// by priority: personal extension > class-wide extension > original deadline.
// A zero userID resolves without a personal override.
func (svc *Service) EffectiveDeadline(a Assignment, userID int64) time.Time {
	if userID != 0 {
		if ext, err := svc.repo.GetPersonalExtension(a.ID, userID); err == nil {
			return ext.ExtendedSubmissionDeadline
		}
	}
	if ext, err := svc.repo.GetClassWideExtension(a.ID); err == nil {
		return ext.ExtendedSubmissionDeadline
	}
	return a.SubmissionDeadline
}

// IsPastDeadline reports whether the effective deadline for userID has
// elapsed. Strict: exactly at the deadline instant is not past it.
func (svc *Service) IsPastDeadline(a Assignment, userID int64) bool {
	return svc.clock.Now().After(svc.EffectiveDeadline(a, userID))
}

// HasActiveExtension reports whether userID is covered by a personal or
// class-wide extension whose deadline is still in the future.
func (svc *Service) HasActiveExtension(a Assignment, userID int64) bool {
	now := svc.clock.Now()
	if ext, err := svc.repo.GetPersonalExtension(a.ID, userID); err == nil {
		if ext.ExtendedSubmissionDeadline.After(now) {
			return true
		}
	}
	if ext, err := svc.repo.GetClassWideExtension(a.ID); err == nil {
		if ext.ExtendedSubmissionDeadline.After(now) {
			return true
		}
	}
	return false
}

// ShouldRestrictSubmissionAccess decides whether requesterID's view of the
// assignment's submissions must be narrowed to their own. A student holding
// an active personal extension may not see peers' submissions once both the
// original deadline and any class-wide extension have elapsed; while the
// class-wide window is still open for everyone, no restriction applies.
// A zero targetID means a roster-wide listing.
func (svc *Service) ShouldRestrictSubmissionAccess(a Assignment, requesterID, targetID int64) bool {
	requester, err := svc.users.GetByID(requesterID)
	if err != nil {
		// Unknown requesters historically pass unrestricted; the FailClosed
		// flag flips that to restrict.
		return svc.conf.Access.FailClosed
	}
	if requester.IsTeacher {
		return false
	}

	if targetID != 0 && targetID == requesterID {
		return false
	}

	// sample once; both windows below must agree on "now"
	now := svc.clock.Now()

	pext, err := svc.repo.GetPersonalExtension(a.ID, requesterID)
	if err != nil || !pext.ExtendedSubmissionDeadline.After(now) {
		return false
	}

	if a.SubmissionDeadline.After(now) {
		return false
	}
	if cwext, err := svc.repo.GetClassWideExtension(a.ID); err == nil {
		if cwext.ExtendedSubmissionDeadline.After(now) {
			return false
		}
	}
	return true
}

// GrantExtensions creates or replaces extensions for the requested targets.
// Unknown student ids are reported in GrantResult.UnknownStudents; grants
// already applied are kept.
func (svc *Service) GrantExtensions(a Assignment, grant Grant) (GrantResult, error) {
	if !grant.ExtendedDeadline.After(a.SubmissionDeadline) {
		return GrantResult{}, core.NewValidationError(errDeadlineNotLater, core.FieldError{
			Field: "extended_deadline", Error: errDeadlineNotLater.Error(),
		})
	}

	var res GrantResult
	now := time.Now().UTC()

	if grant.All {
		ext, err := svc.repo.UpsertExtension(Extension{
			AssignmentID:               a.ID,
			ExtendedSubmissionDeadline: grant.ExtendedDeadline,
			CreatedAt:                  now,
			UpdatedAt:                  now,
		})
		if err != nil {
			return res, errors.Wrap(err, "upserting class-wide extension")
		}
		res.Granted = append(res.Granted, ext)
	}

	var notified []mail.Address
	for _, uid := range grant.StudentIDs {
		usr, err := svc.users.GetByID(uid)
		if err != nil {
			if errors.Cause(err) == user.ErrNotFound {
				res.UnknownStudents = append(res.UnknownStudents, uid)
				continue
			}
			return res, errors.Wrap(err, "resolving student")
		}
		ext, err := svc.repo.UpsertExtension(Extension{
			AssignmentID:               a.ID,
			UserID:                     null.Int64From(usr.ID),
			ExtendedSubmissionDeadline: grant.ExtendedDeadline,
			CreatedAt:                  now,
			UpdatedAt:                  now,
		})
		if err != nil {
			return res, errors.Wrap(err, "upserting personal extension")
		}
		res.Granted = append(res.Granted, ext)
		notified = append(notified, mail.Address{Name: usr.Name, Address: usr.Email})
	}

	if len(notified) > 0 {
		svc.mailSvc.SendMessages(&core.EmailMessage{
			To:      notified,
			Subject: fmt.Sprintf("Deadline extended: %s", a.Name),
			Body: fmt.Sprintf(
				"Your submission deadline for %q has been extended to %s.",
				a.Name, grant.ExtendedDeadline.Format(time.RFC1123),
			),
		})
	}
	return res, nil
}

// RevokeExtensions deletes the requested extensions, reverting affected
// students to the next-lower-priority deadline. Missing records are no-ops.
func (svc *Service) RevokeExtensions(a Assignment, rev Revocation) error {
	if rev.All {
		if err := svc.repo.DeleteClassWideExtension(a.ID); err != nil {
			return errors.Wrap(err, "deleting class-wide extension")
		}
	}
	if len(rev.StudentIDs) > 0 {
		if err := svc.repo.DeletePersonalExtensions(a.ID, rev.StudentIDs...); err != nil {
			return errors.Wrap(err, "deleting personal extensions")
		}
	}
	return nil
}

func (svc *Service) QueryExtensions(assignmentID int64) ([]Extension, error) {
	return svc.repo.QueryExtensionsByAssignmentID(assignmentID)
}

// CreateGroup builds a group from member emails. Emails that do not resolve
// to users, or resolve to users not enrolled in the assignment's class, are
// skipped silently.
func (svc *Service) CreateGroup(a Assignment, memberEmails []string) (Group, error) {
	var ids []int64
	for _, email := range memberEmails {
		usr, err := svc.users.GetByEmail(core.CleanString(email, true /* lower */))
		if err != nil {
			if errors.Cause(err) == user.ErrNotFound {
				continue
			}
			return Group{}, errors.Wrap(err, "resolving member")
		}
		enrolled, err := svc.enrollment.IsEnrolled(a.ClassID, usr.ID)
		if err != nil {
			return Group{}, errors.Wrap(err, "checking enrollment")
		}
		if enrolled {
			ids = append(ids, usr.ID)
		}
	}
	return svc.repo.CreateGroup(Group{AssignmentID: a.ID, UserIDs: ids})
}

// QueryGroups lists an assignment's groups, optionally only those containing
// the given student.
func (svc *Service) QueryGroups(assignmentID, studentID int64) ([]Group, error) {
	groups, err := svc.repo.QueryGroupsByAssignmentID(assignmentID)
	if err != nil {
		return nil, err
	}
	if studentID == 0 {
		return groups, nil
	}
	filtered := make([]Group, 0, len(groups))
	for _, g := range groups {
		for _, uid := range g.UserIDs {
			if uid == studentID {
				filtered = append(filtered, g)
				break
			}
		}
	}
	return filtered, nil
}
