package domain_test

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/domain"
	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/memstore"
)

func newUserService() *domain.UserService {
	return domain.NewUserService(memstore.NewUserRepository(memstore.New()), bcrypt.MinCost)
}

func TestRegister_Validation(t *testing.T) {
	valid := domain.Registration{Name: "Asha", Email: "asha@example.com", Phone: "9876543210", Password: "secret1"}

	tests := []struct {
		name  string
		edit  func(r *domain.Registration)
		field string
	}{
		{"missing name", func(r *domain.Registration) { r.Name = "  " }, ""},
		{"missing email", func(r *domain.Registration) { r.Email = "" }, ""},
		{"short password", func(r *domain.Registration) { r.Password = "12345" }, "password"},
		{"short multibyte password", func(r *domain.Registration) { r.Password = "пар" }, "password"},
		{"short phone", func(r *domain.Registration) { r.Phone = "12345" }, "phone"},
		{"non-digit phone", func(r *domain.Registration) { r.Phone = "98765abcde" }, "phone"},
	}

	service := newUserService()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := valid
			tt.edit(&reg)

			_, err := service.Register(context.Background(), reg)
			var validationErr *domain.ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if validationErr.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, validationErr.Field)
			}
		})
	}
}

func TestRegister_PasswordLengthCountsCharacters(t *testing.T) {
	service := newUserService()

	_, err := service.Register(context.Background(), domain.Registration{
		Name: "Asha", Email: "asha@example.com", Phone: "9876543210", Password: "пароль",
	})
	if err != nil {
		t.Fatalf("expected a six character password to be accepted, got %v", err)
	}
}

func TestRegisterAndAuthenticate(t *testing.T) {
	service := newUserService()
	ctx := context.Background()

	user, err := service.Register(ctx, domain.Registration{
		Name: " Asha ", Email: " Asha@Example.COM ", Phone: "9876543210", Password: "secret1",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.Email != "asha@example.com" || user.Name != "Asha" {
		t.Errorf("expected normalized user, got %q / %q", user.Name, user.Email)
	}
	if user.PasswordHash == "secret1" {
		t.Error("password stored in plain text")
	}

	_, err = service.Register(ctx, domain.Registration{
		Name: "Other", Email: "ASHA@example.com", Phone: "9876543211", Password: "secret2",
	})
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}

	got, err := service.Authenticate(ctx, "asha@EXAMPLE.com", "secret1")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("expected user %s, got %s", user.ID, got.ID)
	}

	if _, err := service.Authenticate(ctx, "asha@example.com", "wrong-password"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, err := service.Authenticate(ctx, "nobody@example.com", "secret1"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
	if _, err := service.Authenticate(ctx, "", ""); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error for empty credentials, got %v", err)
	}
}
