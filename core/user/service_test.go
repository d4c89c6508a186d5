package user_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kazadi/darasa/core"
	"github.com/kazadi/darasa/core/user"
	dummydb "github.com/kazadi/darasa/storage/database/dummy"
)

func setup(t *testing.T) *user.Service {
	t.Helper()
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	return user.NewService(dummydb.NewUserRepository(db))
}

func TestService_Create(t *testing.T) {
	svc := setup(t)

	usr, err := svc.Create(user.NewUser{Name: "Alice", Email: "alice@union.edu", Password: "s3cr3t-pwd"})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	assert.NotZero(t, usr.ID)
	assert.True(t, usr.IsActive)
	assert.NoError(t, usr.CheckPassword("s3cr3t-pwd"))
	assert.Error(t, usr.CheckPassword("wrong"))

	err = svc.CheckEmailUniqueness("alice@union.edu")
	var vErr *core.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestService_GetOrCreateStudent(t *testing.T) {
	svc := setup(t)

	existing, err := svc.Create(user.NewUser{Name: "Alice", Email: "alice@union.edu"})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	// an existing account is returned untouched
	usr, err := svc.GetOrCreateStudent("Alice@Union.edu")
	if err != nil {
		t.Fatalf("GetOrCreateStudent() failed: %v", err)
	}
	assert.Equal(t, existing.ID, usr.ID)

	// an unknown email gets a student account named after its local part
	usr, err = svc.GetOrCreateStudent("mobutu@union.edu")
	if err != nil {
		t.Fatalf("GetOrCreateStudent() failed: %v", err)
	}
	assert.Equal(t, "Mobutu", usr.Name)
	assert.False(t, usr.IsTeacher)
	assert.True(t, usr.IsActive)
}

func TestNameFromEmail(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"mobutu@union.edu", "Mobutu"},
		{"a@union.edu", "A"},
		{"@union.edu", "@union.edu"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, user.NameFromEmail(tt.email))
	}
}
