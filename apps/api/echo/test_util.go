package echoapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/kazadi/darasa/core"
	"github.com/kazadi/darasa/core/assignment"
	"github.com/kazadi/darasa/core/school"
	"github.com/kazadi/darasa/core/submission"
	"github.com/kazadi/darasa/core/user"
	dummymail "github.com/kazadi/darasa/services/email/dummy"
	dummydb "github.com/kazadi/darasa/storage/database/dummy"
)

// testLogger routes service logs to the test output.
type testLogger struct {
	t *testing.T
}

var _ core.Logger = (*testLogger)(nil)

func (l testLogger) Debug(msg string, args ...interface{}) { l.t.Log(msg, args) }
func (l testLogger) Info(msg string, args ...interface{})  { l.t.Log(msg, args) }
func (l testLogger) Warn(msg string, args ...interface{})  { l.t.Log(msg, args) }
func (l testLogger) Error(msg string, args ...interface{}) { l.t.Log(msg, args) }
func (l testLogger) Fatal(msg string, args ...interface{}) { l.t.Fatal(msg, args) }

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	wantCode int
	wantData []byte
	extra    interface{}
}

type testApp struct {
	server Server

	usrSvc    *user.Service
	schoolSvc *school.Service
	assigSvc  *assignment.Service
	subSvc    *submission.Service
	clock     *core.FixedClock
	mail      *dummymail.Service
	conf      *core.Config
}

func initApp(t *testing.T) *testApp {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}

	conf := &core.Config{TestMode: true, AppName: "Darasa", DefaultFromEmail: "noreply@localhost"}
	conf.Roster.AutoCreateEmailDomain = "union.edu"

	app := &testApp{
		clock: &core.FixedClock{Time: time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)},
		mail:  dummymail.NewService(),
		conf:  conf,
	}
	app.usrSvc = user.NewService(dummydb.NewUserRepository(db))
	app.schoolSvc = school.NewService(dummydb.NewSchoolRepository(db), app.usrSvc, conf)
	app.assigSvc = assignment.NewService(
		dummydb.NewAssignmentRepository(db), app.usrSvc, app.schoolSvc, app.clock, app.mail, conf)
	app.subSvc = submission.NewService(dummydb.NewSubmissionRepository(db), app.assigSvc, app.clock)

	validate := validator.New()
	translator := newTestTranslator()
	core.InitValidators(validate, translator)

	app.server = NewServer(&Options{
		Conf:           conf,
		Logger:         testLogger{t: t},
		DisableReqLogs: true,
		Validate:       validate,
		Translator:     translator,
		UserSvc:        app.usrSvc,
		SchoolSvc:      app.schoolSvc,
		AssignmentSvc:  app.assigSvc,
		SubmissionSvc:  app.subSvc,
	})
	return app
}

func newTestTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	return req, rec
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	return assert.ObjectsAreEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

// Fixtures

func (app *testApp) createUser(t *testing.T, name, email string, isTeacher bool) user.User {
	t.Helper()
	usr, err := app.usrSvc.Create(user.NewUser{Name: name, Email: email, IsTeacher: isTeacher})
	if err != nil {
		t.Fatalf("creating user %s failed: %v", email, err)
	}
	return usr
}

func (app *testApp) createClass(t *testing.T, teacherID int64, studentEmails ...string) school.Class {
	t.Helper()
	start := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	cls, err := app.schoolSvc.Create(school.NewClass{
		Code: "CS101", Name: "Intro", Term: "Spring", Year: 2026,
		StartDate: start, EndDate: start.AddDate(0, 4, 0),
		TeacherID: teacherID,
	})
	if err != nil {
		t.Fatalf("creating class failed: %v", err)
	}
	for _, email := range studentEmails {
		if _, err := app.schoolSvc.AddStudent(cls, email); err != nil {
			t.Fatalf("enrolling %s failed: %v", email, err)
		}
	}
	return cls
}

func (app *testApp) createAssignment(t *testing.T, classID int64, submissionDeadline time.Time) assignment.Assignment {
	t.Helper()
	a, err := app.assigSvc.Create(assignment.NewAssignment{
		ClassID: classID, Name: "Homework 1",
		ReleaseDate:        submissionDeadline.AddDate(0, -1, 0),
		SubmissionDeadline: submissionDeadline,
		CommentingDeadline: submissionDeadline.AddDate(0, 0, 14),
	})
	if err != nil {
		t.Fatalf("creating assignment failed: %v", err)
	}
	return a
}
