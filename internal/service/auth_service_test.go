package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"alumniportal/internal/config"
	"alumniportal/internal/dto"
	"alumniportal/internal/model"
	"alumniportal/pkg/apperror"
)

func newAuthFixture() (*requestFixture, AuthService) {
	f := newRequestFixture()
	cfg := &config.Config{
		JWTSecret:                "test-secret",
		NotificationPollInterval: 30 * time.Second,
		RateLimitSubmit:          time.Second,
	}
	return f, NewAuthService(f.users, f.svc, passTxManager{}, cfg)
}

func TestRegisterCreatesPendingUserAndRequest(t *testing.T) {
	f, auth := newAuthFixture()

	user, err := auth.Register(context.Background(), dto.RegisterInput{
		Email:    "new@example.com",
		Password: "correct-horse",
		FullName: "Newcomer",
		Message:  "class of 2019",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Status != model.UserPending {
		t.Errorf("status = %s, want pending", user.Status)
	}
	if user.PasswordHash == "correct-horse" {
		t.Error("password stored in the clear")
	}

	pending, total, err := f.svc.ListRegistrations(context.Background(), dto.RequestFilter{
		Status: string(model.RequestPending),
	})
	if err != nil {
		t.Fatalf("ListRegistrations: %v", err)
	}
	if total != 1 || pending[0].RequesterID != user.ID {
		t.Fatalf("registration queue = %+v (total %d), want the new applicant", pending, total)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	_, auth := newAuthFixture()

	input := dto.RegisterInput{
		Email:    "dup@example.com",
		Password: "correct-horse",
		FullName: "First",
	}
	if _, err := auth.Register(context.Background(), input); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := auth.Register(context.Background(), input); !errors.Is(err, apperror.ErrBadRequest) {
		t.Fatalf("duplicate register err = %v, want bad request", err)
	}
}

func TestLoginGatesOnAccountStatus(t *testing.T) {
	f, auth := newAuthFixture()
	admin := f.admin()

	if _, err := auth.Register(context.Background(), dto.RegisterInput{
		Email:    "new@example.com",
		Password: "correct-horse",
		FullName: "Newcomer",
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	// Pending accounts cannot log in.
	_, err := auth.Login(context.Background(), dto.LoginInput{
		Email: "new@example.com", Password: "correct-horse",
	})
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("pending login err = %v, want forbidden", err)
	}

	// Approve the registration; login starts working.
	pending, _, err := f.svc.ListRegistrations(context.Background(), dto.RequestFilter{})
	if err != nil || len(pending) != 1 {
		t.Fatalf("ListRegistrations: %v (%d entries)", err, len(pending))
	}
	if _, err := f.svc.Decide(context.Background(), pending[0].ID, admin, "approved", ""); err != nil {
		t.Fatalf("Decide: %v", err)
	}

	result, err := auth.Login(context.Background(), dto.LoginInput{
		Email: "new@example.com", Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("active login: %v", err)
	}
	if result.Token == "" {
		t.Error("empty token")
	}

	// Wrong password and unknown accounts fail identically.
	_, err = auth.Login(context.Background(), dto.LoginInput{
		Email: "new@example.com", Password: "wrong",
	})
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("wrong password err = %v, want unauthorized", err)
	}
	_, err = auth.Login(context.Background(), dto.LoginInput{
		Email: "ghost@example.com", Password: "whatever",
	})
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("unknown account err = %v, want unauthorized", err)
	}
}
