package submission_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/volatiletech/null/v8"

	"github.com/kazadi/darasa/core"
	"github.com/kazadi/darasa/core/assignment"
	"github.com/kazadi/darasa/core/school"
	"github.com/kazadi/darasa/core/submission"
	"github.com/kazadi/darasa/core/user"
	dummymail "github.com/kazadi/darasa/services/email/dummy"
	dummydb "github.com/kazadi/darasa/storage/database/dummy"
)

var (
	deadline = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	day      = 24 * time.Hour
)

type testEnv struct {
	svc      *submission.Service
	assigSvc *assignment.Service
	clock    *core.FixedClock

	teacher user.User
	alice   user.User
	bob     user.User
	assig   assignment.Assignment
}

func setup(t *testing.T) *testEnv {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}

	conf := &core.Config{Debug: true, TestMode: true}
	conf.Roster.AutoCreateEmailDomain = "union.edu"

	env := &testEnv{clock: &core.FixedClock{Time: deadline.Add(-10 * day)}}
	usrSvc := user.NewService(dummydb.NewUserRepository(db))
	schoolSvc := school.NewService(dummydb.NewSchoolRepository(db), usrSvc, conf)
	env.assigSvc = assignment.NewService(
		dummydb.NewAssignmentRepository(db), usrSvc, schoolSvc, env.clock, dummymail.NewService(), conf)
	env.svc = submission.NewService(dummydb.NewSubmissionRepository(db), env.assigSvc, env.clock)

	newUsr := func(name, email string, isTeacher bool) user.User {
		usr, err := usrSvc.Create(user.NewUser{Name: name, Email: email, IsTeacher: isTeacher})
		if err != nil {
			t.Fatalf("creating user %s failed: %v", email, err)
		}
		return usr
	}
	env.teacher = newUsr("Prof", "prof@union.edu", true)
	env.alice = newUsr("Alice", "alice@union.edu", false)
	env.bob = newUsr("Bob", "bob@union.edu", false)

	cls, err := schoolSvc.Create(school.NewClass{
		Code: "CS101", Name: "Intro", Term: "Spring", Year: 2026,
		StartDate: deadline.Add(-60 * day), EndDate: deadline.Add(60 * day),
		TeacherID: env.teacher.ID,
	})
	if err != nil {
		t.Fatalf("creating class failed: %v", err)
	}
	for _, usr := range []user.User{env.alice, env.bob} {
		if _, err := schoolSvc.AddStudent(cls, usr.Email); err != nil {
			t.Fatalf("enrolling %s failed: %v", usr.Email, err)
		}
	}

	env.assig, err = env.assigSvc.Create(assignment.NewAssignment{
		ClassID: cls.ID, Name: "Homework 1",
		ReleaseDate:        deadline.Add(-30 * day),
		SubmissionDeadline: deadline,
		CommentingDeadline: deadline.Add(14 * day),
	})
	if err != nil {
		t.Fatalf("creating assignment failed: %v", err)
	}
	return env
}

func (env *testEnv) submit(t *testing.T, userID int64, files ...submission.NewFile) submission.Submission {
	t.Helper()
	sub, err := env.svc.Create(submission.NewSubmission{
		AssignmentID: env.assig.ID, UserID: userID, Files: files,
	})
	if err != nil {
		t.Fatalf("creating submission failed: %v", err)
	}
	return sub
}

func TestService_Create(t *testing.T) {
	env := setup(t)

	first := env.submit(t, env.alice.ID, submission.NewFile{Name: "main.go", Content: "package main"})
	assert.True(t, first.IsCurrent)
	assert.Equal(t, env.clock.Time, first.SubmittedAt)
	if assert.Len(t, first.Files, 1) {
		assert.NotEmpty(t, first.Files[0].StorageKey)
	}

	// a new submission becomes current; the previous one is unmarked
	second := env.submit(t, env.alice.ID, submission.NewFile{Name: "main.go", Content: "package main // v2"})
	assert.True(t, second.IsCurrent)

	subs, err := env.svc.List(env.assig, submission.ListOptions{StudentID: env.alice.ID})
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	assert.Len(t, subs, 2)

	current, err := env.svc.List(env.assig, submission.ListOptions{StudentID: env.alice.ID, CurrentOnly: true})
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if assert.Len(t, current, 1) {
		assert.Equal(t, second.ID, current[0].ID)
	}
}

func TestService_List(t *testing.T) {
	env := setup(t)

	aliceSub := env.submit(t, env.alice.ID)
	bobSub := env.submit(t, env.bob.ID)

	// alice holds a personal extension; past the deadline her view narrows
	if _, err := env.assigSvc.GrantExtensions(env.assig, assignment.Grant{
		ExtendedDeadline: deadline.Add(2 * day), StudentIDs: []int64{env.alice.ID},
	}); err != nil {
		t.Fatalf("GrantExtensions() failed: %v", err)
	}
	env.clock.Time = deadline.Add(day)

	// roster-wide: restricted requester only sees their own
	subs, err := env.svc.List(env.assig, submission.ListOptions{RequesterID: env.alice.ID})
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if assert.Len(t, subs, 1) {
		assert.Equal(t, aliceSub.ID, subs[0].ID)
	}

	// the teacher sees everything
	subs, err = env.svc.List(env.assig, submission.ListOptions{RequesterID: env.teacher.ID})
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if assert.Len(t, subs, 2) {
		assert.ElementsMatch(t, []int64{aliceSub.ID, bobSub.ID}, []int64{subs[0].ID, subs[1].ID})
	}

	// student-scoped listing of a peer is denied outright
	_, err = env.svc.List(env.assig, submission.ListOptions{RequesterID: env.alice.ID, StudentID: env.bob.ID})
	assert.Equal(t, submission.ErrAccessRestricted, err)

	// bob has no extension; he may still view alice's submissions
	subs, err = env.svc.List(env.assig, submission.ListOptions{RequesterID: env.bob.ID, StudentID: env.alice.ID})
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if assert.Len(t, subs, 1) {
		assert.Equal(t, aliceSub.ID, subs[0].ID)
	}

	// restricted requesters always keep their own submissions
	subs, err = env.svc.List(env.assig, submission.ListOptions{RequesterID: env.alice.ID, StudentID: env.alice.ID})
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if assert.Len(t, subs, 1) {
		assert.Equal(t, aliceSub.ID, subs[0].ID)
	}

	// current-only with no current submission is an empty list, not an error
	subs, err = env.svc.List(env.assig, submission.ListOptions{StudentID: 999, CurrentOnly: true})
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	assert.Empty(t, subs)
}

func TestService_AddComment(t *testing.T) {
	env := setup(t)
	sub := env.submit(t, env.alice.ID, submission.NewFile{Name: "main.go", Content: "package main"})

	comment, err := env.svc.AddComment(env.assig, submission.NewComment{
		SubmissionID: sub.ID,
		CommentType:  submission.CommentTypeFile,
		FileID:       null.Int64From(sub.Files[0].ID),
		StartLine:    1, EndLine: 1,
		UserID:  env.teacher.ID,
		Comment: "missing error handling",
	})
	if err != nil {
		t.Fatalf("AddComment() failed: %v", err)
	}

	// threaded reply on the same submission
	reply, err := env.svc.AddComment(env.assig, submission.NewComment{
		SubmissionID: sub.ID,
		CommentType:  submission.CommentTypeGeneral,
		ParentID:     null.Int64From(comment.ID),
		UserID:       env.alice.ID,
		Comment:      "fixed, thanks",
	})
	if err != nil {
		t.Fatalf("AddComment() failed: %v", err)
	}
	assert.Equal(t, comment.ID, reply.ParentID.Int64)

	// replies may not cross submissions
	otherSub := env.submit(t, env.bob.ID)
	_, err = env.svc.AddComment(env.assig, submission.NewComment{
		SubmissionID: otherSub.ID,
		CommentType:  submission.CommentTypeGeneral,
		ParentID:     null.Int64From(comment.ID),
		UserID:       env.bob.ID,
		Comment:      "me too",
	})
	var vErr *core.ValidationError
	assert.ErrorAs(t, err, &vErr)

	comments, err := env.svc.QueryComments(sub.ID)
	if err != nil {
		t.Fatalf("QueryComments() failed: %v", err)
	}
	assert.Len(t, comments, 2)

	// commenting closes at the commenting deadline
	env.clock.Time = env.assig.CommentingDeadline.Add(time.Second)
	_, err = env.svc.AddComment(env.assig, submission.NewComment{
		SubmissionID: sub.ID,
		CommentType:  submission.CommentTypeGeneral,
		UserID:       env.teacher.ID,
		Comment:      "too late",
	})
	assert.ErrorAs(t, err, &vErr)
}
