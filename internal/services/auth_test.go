package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yungbote/sheetgrader-backend/internal/requestdata"
)

func newAuthFixture(t *testing.T) (AuthService, *fakeTeacherRepo) {
	t.Helper()
	repo := &fakeTeacherRepo{}
	svc := NewAuthService(nil, newTestLogger(t), repo, "test-secret", time.Hour)
	return svc, repo
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	teacher, err := svc.Register(ctx, "t1", "T1@School.Test", "hunter22")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if teacher.Email != "t1@school.test" {
		t.Fatalf("email = %q, want lowercased", teacher.Email)
	}
	if teacher.PasswordHash == "" || teacher.PasswordHash == "hunter22" {
		t.Fatal("password stored unhashed")
	}

	token, got, err := svc.Login(ctx, "t1@school.test", "hunter22")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token == "" || got.NaturalID != "t1" {
		t.Fatalf("login result = %q / %+v", token, got)
	}

	if _, _, err := svc.Login(ctx, "t1@school.test", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: err = %v, want ErrInvalidCredentials", err)
	}
	if _, _, err := svc.Login(ctx, "nobody@school.test", "hunter22"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email: err = %v, want ErrInvalidCredentials", err)
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "t1", "t1@school.test", "hunter22"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.Register(ctx, "t2", "t1@school.test", "hunter22"); err == nil {
		t.Fatal("want error for duplicate email")
	}
	if _, err := svc.Register(ctx, "t1", "t9@school.test", "hunter22"); err == nil {
		t.Fatal("want error for duplicate teacher id")
	}
}

func TestLoginExternalAttachOnce(t *testing.T) {
	svc, repo := newAuthFixture(t)
	ctx := context.Background()
	repo.seed("t1", "t1@school.test")

	// First external login attaches the reference.
	token, teacher, err := svc.LoginExternal(ctx, "t1@school.test", "ext-abc")
	if err != nil {
		t.Fatalf("LoginExternal: %v", err)
	}
	if token == "" || teacher.ExternalIDRef != "ext-abc" {
		t.Fatalf("attach failed: %+v", teacher)
	}

	// Same reference keeps working.
	if _, _, err := svc.LoginExternal(ctx, "t1@school.test", "ext-abc"); err != nil {
		t.Fatalf("repeat LoginExternal: %v", err)
	}

	// A different reference is rejected, never re-attached.
	if _, _, err := svc.LoginExternal(ctx, "t1@school.test", "ext-other"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("mismatched ref: err = %v, want ErrInvalidCredentials", err)
	}
}

func TestSetContextFromToken(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	teacher, err := svc.Register(ctx, "t1", "t1@school.test", "hunter22")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	token, _, err := svc.Login(ctx, "t1@school.test", "hunter22")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	withRD, err := svc.SetContextFromToken(ctx, token)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	rd := requestdata.GetRequestData(withRD)
	if rd == nil || rd.TeacherID != teacher.ID || rd.TeacherNaturalID != "t1" {
		t.Fatalf("request data = %+v", rd)
	}

	if _, err := svc.SetContextFromToken(ctx, "garbage.token.here"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("garbage token: err = %v, want ErrInvalidCredentials", err)
	}
}
