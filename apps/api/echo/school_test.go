package echoapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kazadi/darasa/core/school"
)

func TestSchoolAPI_Create(t *testing.T) {
	app := initApp(t)
	teacher := app.createUser(t, "Prof", "prof@union.edu", true)
	student := app.createUser(t, "Alice", "alice@union.edu", false)

	newClassBody := func(teacherID int64) []byte {
		return marchallObj(t, map[string]interface{}{
			"code": "CS101", "name": "Intro", "term": "Spring", "year": 2026,
			"start_date": "2026-01-15T00:00:00Z", "end_date": "2026-05-15T00:00:00Z",
			"teacher_id": teacherID,
		})
	}

	tests := []httpTest{
		{
			name: "ok", body: newClassBody(teacher.ID), wantCode: http.StatusCreated,
		},
		{
			name: "student cannot own a class", body: newClassBody(student.ID),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"teacher_id": "referenced user is not a teacher"}),
		},
		{
			name: "unknown teacher", body: newClassBody(999),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"teacher_id": "no such user"}),
		},
		{
			name: "missing fields", body: []byte(`{"code": "CS101"}`), wantCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/classes", tt.body)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func TestSchoolAPI_Query(t *testing.T) {
	app := initApp(t)
	teacher := app.createUser(t, "Prof", "prof@union.edu", true)
	alice := app.createUser(t, "Alice", "alice@union.edu", false)
	cls := app.createClass(t, teacher.ID, alice.Email)

	t.Run("by teacher", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, fmt.Sprintf("/v1/classes?teacher=%d", teacher.ID))
		app.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)

		var classes []school.Class
		if err := json.Unmarshal(rec.Body.Bytes(), &classes); err != nil {
			t.Fatalf("unmarshalling classes failed: %v", err)
		}
		if assert.Len(t, classes, 1) {
			assert.Equal(t, cls.ID, classes[0].ID)
		}
	})

	t.Run("by student", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, fmt.Sprintf("/v1/classes?student=%d", alice.ID))
		app.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("no scope", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/classes")
		app.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("retrieve unknown", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/classes/999")
		app.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestSchoolAPI_Roster(t *testing.T) {
	app := initApp(t)
	teacher := app.createUser(t, "Prof", "prof@union.edu", true)
	alice := app.createUser(t, "Alice", "alice@union.edu", false)
	cls := app.createClass(t, teacher.ID)
	path := fmt.Sprintf("/v1/classes/%d/students", cls.ID)

	patchRoster := func(t *testing.T, body []byte) (school.RosterResult, int) {
		t.Helper()
		req, rec := newRequest(http.MethodPatch, path, body)
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			return school.RosterResult{}, rec.Code
		}
		var res school.RosterResult
		if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
			t.Fatalf("unmarshalling RosterResult failed: %v", err)
		}
		return res, rec.Code
	}

	t.Run("add one", func(t *testing.T) {
		res, code := patchRoster(t, marchallObj(t, map[string]interface{}{"add": []string{alice.Email}}))
		assert.Equal(t, http.StatusOK, code)
		if assert.Len(t, res.Students, 1) {
			assert.Equal(t, alice.ID, res.Students[0].ID)
		}
	})

	t.Run("add one unknown on a foreign domain fails loudly", func(t *testing.T) {
		req, rec := newRequest(http.MethodPatch, path, marchallObj(t, map[string]interface{}{
			"add": []string{"kasa@elsewhere.org"},
		}))
		app.server.ServeHTTP(rec, req)

		tt := httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"add": "not an acceptable email address"}),
		}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("bulk add reports partial results", func(t *testing.T) {
		res, code := patchRoster(t, marchallObj(t, map[string]interface{}{
			"add": []string{"newkid@union.edu", "kasa@elsewhere.org"},
		}))
		assert.Equal(t, http.StatusOK, code)
		assert.True(t, res.Partial())
		assert.Equal(t, []string{"kasa@elsewhere.org"}, res.NotFound)
		assert.Len(t, res.Students, 2) // alice + the auto-created account
	})

	t.Run("remove", func(t *testing.T) {
		res, code := patchRoster(t, marchallObj(t, map[string]interface{}{"remove": alice.Email}))
		assert.Equal(t, http.StatusOK, code)
		assert.Len(t, res.Students, 1)
	})

	t.Run("invalid email", func(t *testing.T) {
		req, rec := newRequest(http.MethodPatch, path, []byte(`{"add": ["lol"]}`))
		app.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("roster listing", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, path)
		app.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
