// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"inkpress/internal/docid"
	"inkpress/internal/models"
)

var userRowColumns = []string{"id", "name", "email", "password_hash", "role", "created_at", "updated_at"}

func TestUserStoreFindByEmail_NotFound(t *testing.T) {
	db, mock := mockDB(t)
	s := NewUserStore(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE email = $1`)).
		WithArgs("nobody@x.com").
		WillReturnRows(sqlmock.NewRows(userRowColumns))

	u, err := s.FindByEmail(context.Background(), "nobody@x.com")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if u != nil {
		t.Errorf("expected nil user, got %+v", u)
	}
}

func TestUserStoreFindByID_Scan(t *testing.T) {
	db, mock := mockDB(t)
	s := NewUserStore(db)

	id := "65a1b2c3d4e5f60718293a4b"
	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE id = $1`)).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow(id, "Ada", "ada@x.com", "$2a$10$hash", "admin", fixedTime, fixedTime))

	u, err := s.FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if u == nil {
		t.Fatal("expected user, got nil")
	}
	if u.Name != "Ada" || u.Email != "ada@x.com" {
		t.Errorf("user: got %+v", u)
	}
	if u.Role != models.RoleAdmin {
		t.Errorf("role: got %q, want admin", u.Role)
	}
}

func TestUserStoreFindByID_Error(t *testing.T) {
	db, mock := mockDB(t)
	s := NewUserStore(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE id = $1`)).
		WillReturnError(errors.New("connection reset"))

	if _, err := s.FindByID(context.Background(), "65a1b2c3d4e5f60718293a4b"); err == nil {
		t.Fatal("expected error")
	}
}

func TestUserStoreCreate_Duplicate(t *testing.T) {
	db, mock := mockDB(t)
	s := NewUserStore(db)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
		WithArgs(sqlmock.AnyArg(), "Ada", "ada@x.com", sqlmock.AnyArg(), "member").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	_, err := s.Create(context.Background(), "Ada", "ada@x.com", "secret1", models.RoleMember)
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("Create: got %v, want ErrDuplicate", err)
	}
}

func TestUserStoreIntegration(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)
	ctx := context.Background()

	email := "test-create@store-test.local"
	t.Cleanup(func() { cleanUsers(t, db, email) })

	// Not found case.
	if u, err := s.FindByEmail(ctx, email); err != nil || u != nil {
		t.Fatalf("FindByEmail (not found): got %v, %v", u, err)
	}

	user, err := s.Create(ctx, "Test User", email, "testpass123", models.RoleMember)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !docid.Valid(user.ID) {
		t.Errorf("expected 24-hex id, got %q", user.ID)
	}
	if user.Role != models.RoleMember {
		t.Errorf("role: got %q, want member", user.Role)
	}
	if user.PasswordHash == "" || user.PasswordHash == "testpass123" {
		t.Error("password hash must be set and not plaintext")
	}

	found, err := s.FindByID(ctx, user.ID)
	if err != nil || found == nil {
		t.Fatalf("FindByID: got %v, %v", found, err)
	}
	if found.Email != email {
		t.Errorf("email: got %q, want %q", found.Email, email)
	}

	if !s.CheckPassword(found, "testpass123") {
		t.Error("expected CheckPassword to return true for correct password")
	}
	if s.CheckPassword(found, "wrong-password") {
		t.Error("expected CheckPassword to return false for wrong password")
	}

	if _, err := s.Create(ctx, "Second", email, "pass", models.RoleMember); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate Create: got %v, want ErrDuplicate", err)
	}
}
