package echoapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kazadi/darasa/core/user"
)

func TestUserAPI(t *testing.T) {
	app := initApp(t)

	var created user.User

	t.Run("create", func(t *testing.T) {
		body := []byte(`{"name": "Alice", "email": "alice@union.edu"}`)
		req, rec := newRequest(http.MethodPost, "/v1/users", body)
		app.server.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
			t.Fatalf("unmarshalling user failed: %v", err)
		}
		assert.NotZero(t, created.ID)
		assert.True(t, created.IsActive)
		assert.False(t, created.IsTeacher)
	})

	t.Run("duplicate email", func(t *testing.T) {
		body := []byte(`{"name": "Alice Again", "email": "alice@union.edu"}`)
		req, rec := newRequest(http.MethodPost, "/v1/users", body)
		app.server.ServeHTTP(rec, req)

		tt := httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": "a user with this email already exists"}),
		}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("invalid payload", func(t *testing.T) {
		body := []byte(`{"name": "", "email": "not-an-email"}`)
		req, rec := newRequest(http.MethodPost, "/v1/users", body)
		app.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("query by email", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/users?email=alice@union.edu")
		app.server.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var users []user.User
		if err := json.Unmarshal(rec.Body.Bytes(), &users); err != nil {
			t.Fatalf("unmarshalling users failed: %v", err)
		}
		if assert.Len(t, users, 1) {
			assert.Equal(t, created.ID, users[0].ID)
		}

		req, rec = newRequest(http.MethodGet, "/v1/users?email=ghost@union.edu")
		app.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		if ok, err := jsonBytesEqual(t, rec.Body.Bytes(), []byte(`[]`)); err != nil || !ok {
			t.Errorf("expected empty list, got %s", rec.Body.String())
		}
	})

	t.Run("retrieve", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, fmt.Sprintf("/v1/users/%d", created.ID))
		app.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)

		req, rec = newRequest(http.MethodGet, "/v1/users/999")
		app.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("destroy", func(t *testing.T) {
		req, rec := newRequest(http.MethodDelete, fmt.Sprintf("/v1/users/%d", created.ID))
		app.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		req, rec = newRequest(http.MethodDelete, fmt.Sprintf("/v1/users/%d", created.ID))
		app.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
