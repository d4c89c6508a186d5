package assignment_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kazadi/darasa/core"
	"github.com/kazadi/darasa/core/assignment"
	"github.com/kazadi/darasa/core/school"
	"github.com/kazadi/darasa/core/user"
	dummymail "github.com/kazadi/darasa/services/email/dummy"
	dummydb "github.com/kazadi/darasa/storage/database/dummy"
)

var (
	releaseDate = time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	deadline    = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	day         = 24 * time.Hour
)

type testEnv struct {
	svc       *assignment.Service
	usrSvc    *user.Service
	schoolSvc *school.Service
	clock     *core.FixedClock
	mail      *dummymail.Service
	conf      *core.Config

	teacher user.User
	alice   user.User
	bob     user.User
	cls     school.Class
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

	env := &testEnv{
		clock: &core.FixedClock{Time: releaseDate},
		mail:  dummymail.NewService(),
		conf:  conf,
	}
	env.usrSvc = user.NewService(dummydb.NewUserRepository(db))
	env.schoolSvc = school.NewService(dummydb.NewSchoolRepository(db), env.usrSvc, conf)
	env.svc = assignment.NewService(
		dummydb.NewAssignmentRepository(db), env.usrSvc, env.schoolSvc, env.clock, env.mail, conf)

	env.teacher = env.createUser(t, "Prof", "prof@union.edu", true)
	env.alice = env.createUser(t, "Alice", "alice@union.edu", false)
	env.bob = env.createUser(t, "Bob", "bob@union.edu", false)

	cls, err := env.schoolSvc.Create(school.NewClass{
		Code: "CS101", Name: "Intro", Term: "Spring", Year: 2026,
		StartDate: releaseDate.Add(-30 * day), EndDate: deadline.Add(60 * day),
		TeacherID: env.teacher.ID,
	})
	if err != nil {
		t.Fatalf("creating class failed: %v", err)
	}
	env.cls = cls
	for _, usr := range []user.User{env.alice, env.bob} {
		if _, err := env.schoolSvc.AddStudent(cls, usr.Email); err != nil {
			t.Fatalf("enrolling %s failed: %v", usr.Email, err)
		}
	}

	assig, err := env.svc.Create(assignment.NewAssignment{
		ClassID: cls.ID, Name: "Homework 1",
		ReleaseDate:        releaseDate,
		SubmissionDeadline: deadline,
		CommentingDeadline: deadline.Add(14 * day),
	})
	if err != nil {
		t.Fatalf("creating assignment failed: %v", err)
	}
	env.assig = assig
	return env
}

func (env *testEnv) createUser(t *testing.T, name, email string, isTeacher bool) user.User {
	t.Helper()
	usr, err := env.usrSvc.Create(user.NewUser{Name: name, Email: email, IsTeacher: isTeacher})
	if err != nil {
		t.Fatalf("creating user %s failed: %v", email, err)
	}
	return usr
}

func (env *testEnv) grant(t *testing.T, g assignment.Grant) assignment.GrantResult {
	t.Helper()
	res, err := env.svc.GrantExtensions(env.assig, g)
	if err != nil {
		t.Fatalf("GrantExtensions() failed: %v", err)
	}
	return res
}

func TestService_EffectiveDeadline(t *testing.T) {
	env := setup(t)

	// no extensions: the original deadline applies to everyone
	assert.Equal(t, deadline, env.svc.EffectiveDeadline(env.assig, env.alice.ID))
	assert.Equal(t, deadline, env.svc.EffectiveDeadline(env.assig, 0))

	// class-wide extension applies to all students
	env.grant(t, assignment.Grant{ExtendedDeadline: deadline.Add(3 * day), All: true})
	assert.Equal(t, deadline.Add(3*day), env.svc.EffectiveDeadline(env.assig, env.alice.ID))
	assert.Equal(t, deadline.Add(3*day), env.svc.EffectiveDeadline(env.assig, env.bob.ID))

	// a personal extension wins over the class-wide one, even when earlier
	env.grant(t, assignment.Grant{ExtendedDeadline: deadline.Add(2 * day), StudentIDs: []int64{env.alice.ID}})
	assert.Equal(t, deadline.Add(2*day), env.svc.EffectiveDeadline(env.assig, env.alice.ID))
	assert.Equal(t, deadline.Add(3*day), env.svc.EffectiveDeadline(env.assig, env.bob.ID))

	// revoking the personal extension falls back to the class-wide one
	if err := env.svc.RevokeExtensions(env.assig, assignment.Revocation{StudentIDs: []int64{env.alice.ID}}); err != nil {
		t.Fatalf("RevokeExtensions() failed: %v", err)
	}
	assert.Equal(t, deadline.Add(3*day), env.svc.EffectiveDeadline(env.assig, env.alice.ID))

	// revoking the class-wide one falls back to the original deadline
	if err := env.svc.RevokeExtensions(env.assig, assignment.Revocation{All: true}); err != nil {
		t.Fatalf("RevokeExtensions() failed: %v", err)
	}
	assert.Equal(t, deadline, env.svc.EffectiveDeadline(env.assig, env.alice.ID))
}

func TestService_IsPastDeadline(t *testing.T) {
	env := setup(t)

	env.clock.Time = deadline.Add(-time.Second)
	assert.False(t, env.svc.IsPastDeadline(env.assig, env.alice.ID))

	// exactly at the deadline instant is not late
	env.clock.Time = deadline
	assert.False(t, env.svc.IsPastDeadline(env.assig, env.alice.ID))

	env.clock.Time = deadline.Add(time.Second)
	assert.True(t, env.svc.IsPastDeadline(env.assig, env.alice.ID))

	// an extension moves the cutoff
	env.grant(t, assignment.Grant{ExtendedDeadline: deadline.Add(2 * day), StudentIDs: []int64{env.alice.ID}})
	assert.False(t, env.svc.IsPastDeadline(env.assig, env.alice.ID))
	assert.True(t, env.svc.IsPastDeadline(env.assig, env.bob.ID))
}

func TestService_HasActiveExtension(t *testing.T) {
	env := setup(t)

	env.clock.Time = deadline.Add(day)
	assert.False(t, env.svc.HasActiveExtension(env.assig, env.alice.ID))

	env.grant(t, assignment.Grant{ExtendedDeadline: deadline.Add(2 * day), StudentIDs: []int64{env.alice.ID}})
	assert.True(t, env.svc.HasActiveExtension(env.assig, env.alice.ID))
	assert.False(t, env.svc.HasActiveExtension(env.assig, env.bob.ID))

	// expired extensions are not active
	env.clock.Time = deadline.Add(3 * day)
	assert.False(t, env.svc.HasActiveExtension(env.assig, env.alice.ID))

	env.grant(t, assignment.Grant{ExtendedDeadline: deadline.Add(5 * day), All: true})
	assert.True(t, env.svc.HasActiveExtension(env.assig, env.bob.ID))
}

func TestService_GrantExtensions(t *testing.T) {
	env := setup(t)

	// a deadline at or before the original is rejected and stores nothing
	for _, bad := range []time.Time{deadline, deadline.Add(-day)} {
		_, err := env.svc.GrantExtensions(env.assig, assignment.Grant{ExtendedDeadline: bad, All: true})
		var vErr *core.ValidationError
		assert.ErrorAs(t, err, &vErr)
	}
	exts, err := env.svc.QueryExtensions(env.assig.ID)
	if err != nil {
		t.Fatalf("QueryExtensions() failed: %v", err)
	}
	assert.Empty(t, exts)

	// granting to a student stores one record and notifies them
	res := env.grant(t, assignment.Grant{ExtendedDeadline: deadline.Add(2 * day), StudentIDs: []int64{env.alice.ID}})
	assert.Len(t, res.Granted, 1)
	assert.False(t, res.Partial())
	if sent := env.mail.Sent(); assert.Len(t, sent, 1) {
		assert.Equal(t, env.alice.Email, sent[0].To[0].Address)
	}

	// re-granting replaces rather than duplicates
	res = env.grant(t, assignment.Grant{ExtendedDeadline: deadline.Add(4 * day), StudentIDs: []int64{env.alice.ID}})
	assert.Len(t, res.Granted, 1)
	exts, _ = env.svc.QueryExtensions(env.assig.ID)
	if assert.Len(t, exts, 1) {
		assert.Equal(t, deadline.Add(4*day), exts[0].ExtendedSubmissionDeadline)
	}

	// unknown students are reported; valid grants in the same batch stick
	res = env.grant(t, assignment.Grant{ExtendedDeadline: deadline.Add(5 * day), StudentIDs: []int64{env.bob.ID, 999}})
	assert.Len(t, res.Granted, 1)
	assert.True(t, res.Partial())
	assert.Equal(t, []int64{999}, res.UnknownStudents)
	assert.Equal(t, deadline.Add(5*day), env.svc.EffectiveDeadline(env.assig, env.bob.ID))

	// class-wide and personal targets may be granted together
	res = env.grant(t, assignment.Grant{ExtendedDeadline: deadline.Add(6 * day), All: true, StudentIDs: []int64{env.alice.ID}})
	assert.Len(t, res.Granted, 2)
	assert.True(t, res.Granted[0].IsClassWide())
	assert.False(t, res.Granted[1].IsClassWide())
}

func TestService_RevokeExtensions(t *testing.T) {
	env := setup(t)

	// revoking extensions that never existed is a no-op
	err := env.svc.RevokeExtensions(env.assig, assignment.Revocation{All: true, StudentIDs: []int64{env.alice.ID, 999}})
	assert.NoError(t, err)

	env.grant(t, assignment.Grant{ExtendedDeadline: deadline.Add(2 * day), All: true, StudentIDs: []int64{env.alice.ID}})
	err = env.svc.RevokeExtensions(env.assig, assignment.Revocation{All: true, StudentIDs: []int64{env.alice.ID}})
	assert.NoError(t, err)

	exts, err := env.svc.QueryExtensions(env.assig.ID)
	if err != nil {
		t.Fatalf("QueryExtensions() failed: %v", err)
	}
	assert.Empty(t, exts)
}

func TestService_ShouldRestrictSubmissionAccess(t *testing.T) {
	env := setup(t)

	// alice holds a personal extension to D+2d
	env.grant(t, assignment.Grant{ExtendedDeadline: deadline.Add(2 * day), StudentIDs: []int64{env.alice.ID}})

	tests := []struct {
		name        string
		now         time.Time
		requesterID int64
		targetID    int64
		classWideTo time.Time
		failClosed  bool
		want        bool
	}{
		{
			name: "teachers are never restricted",
			now:  deadline.Add(day), requesterID: env.teacher.ID, want: false,
		},
		{
			name: "unknown requester passes by default",
			now:  deadline.Add(day), requesterID: 999, want: false,
		},
		{
			name: "unknown requester is restricted when failing closed",
			now:  deadline.Add(day), requesterID: 999, failClosed: true, want: true,
		},
		{
			name: "own submissions stay visible",
			now:  deadline.Add(day), requesterID: env.alice.ID, targetID: env.alice.ID, want: false,
		},
		{
			name: "students without an extension are not restricted",
			now:  deadline.Add(day), requesterID: env.bob.ID, targetID: env.alice.ID, want: false,
		},
		{
			name: "no restriction while the original deadline is open",
			now:  deadline.Add(-day), requesterID: env.alice.ID, targetID: env.bob.ID, want: false,
		},
		{
			name: "restricted after the deadline with no class-wide extension",
			now:  deadline.Add(day), requesterID: env.alice.ID, targetID: env.bob.ID, want: true,
		},
		{
			name: "restricted on roster-wide listings too",
			now:  deadline.Add(day), requesterID: env.alice.ID, want: true,
		},
		{
			name: "not restricted while a class-wide extension is open for everyone",
			now:  deadline.Add(day), requesterID: env.alice.ID, targetID: env.bob.ID,
			classWideTo: deadline.Add(3 * day), want: false,
		},
		{
			name: "restricted again once the class-wide extension closes",
			now:  deadline.Add(day), requesterID: env.alice.ID, targetID: env.bob.ID,
			classWideTo: deadline.Add(time.Hour), want: true,
		},
		{
			name: "expired personal extension lifts the restriction",
			now:  deadline.Add(3 * day), requesterID: env.alice.ID, targetID: env.bob.ID, want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.classWideTo.IsZero() {
				env.grant(t, assignment.Grant{ExtendedDeadline: tt.classWideTo, All: true})
				defer func() {
					_ = env.svc.RevokeExtensions(env.assig, assignment.Revocation{All: true})
				}()
			}
			env.clock.Time = tt.now
			env.conf.Access.FailClosed = tt.failClosed

			got := env.svc.ShouldRestrictSubmissionAccess(env.assig, tt.requesterID, tt.targetID)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestService_Groups(t *testing.T) {
	env := setup(t)
	outsider := env.createUser(t, "Eve", "eve@union.edu", false) // not enrolled

	// unknown and unenrolled emails are skipped silently
	group, err := env.svc.CreateGroup(env.assig, []string{
		env.alice.Email, env.bob.Email, outsider.Email, "ghost@union.edu",
	})
	if err != nil {
		t.Fatalf("CreateGroup() failed: %v", err)
	}
	assert.ElementsMatch(t, []int64{env.alice.ID, env.bob.ID}, group.UserIDs)

	if _, err := env.svc.CreateGroup(env.assig, []string{env.bob.Email}); err != nil {
		t.Fatalf("CreateGroup() failed: %v", err)
	}

	groups, err := env.svc.QueryGroups(env.assig.ID, 0)
	if err != nil {
		t.Fatalf("QueryGroups() failed: %v", err)
	}
	assert.Len(t, groups, 2)

	groups, err = env.svc.QueryGroups(env.assig.ID, env.alice.ID)
	if err != nil {
		t.Fatalf("QueryGroups() failed: %v", err)
	}
	if assert.Len(t, groups, 1) {
		assert.Equal(t, group.ID, groups[0].ID)
	}
}
