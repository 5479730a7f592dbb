package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Dan9191/bank-ledger/internal/integrations/score"
	"github.com/Dan9191/bank-ledger/internal/models"
)

func TestRegisterAndLogin(t *testing.T) {
	s, _ := newTestService(t, score.FixedGate{Score: 7})
	ctx := context.Background()

	customer, err := s.Register(ctx, models.RegisterRequest{ID: 10, Name: " Ana ", Email: "ana@example.com", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if customer.Name != "Ana" || customer.PasswordHash == "correct-horse" {
		t.Errorf("unexpected customer %+v", customer)
	}

	token, err := s.Login(ctx, models.LoginRequest{ID: 10, Password: "correct-horse"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	id, err := s.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if id != 10 {
		t.Errorf("token subject = %d, want 10", id)
	}

	if _, err := s.Login(ctx, models.LoginRequest{ID: 10, Password: "wrong-password"}); !errors.Is(err, models.ErrInvalidCredentials) {
		t.Errorf("wrong password: got %v", err)
	}
	if _, err := s.Login(ctx, models.LoginRequest{ID: 11, Password: "correct-horse"}); !errors.Is(err, models.ErrInvalidCredentials) {
		t.Errorf("unknown customer: got %v", err)
	}
	if _, err := s.ParseToken(token + "x"); !errors.Is(err, models.ErrInvalidCredentials) {
		t.Errorf("tampered token: got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	s, store := newTestService(t, score.FixedGate{Score: 7})
	seedCustomer(t, store, 1)

	tests := []struct {
		name    string
		req     models.RegisterRequest
		wantErr error
	}{
		{"duplicate id", models.RegisterRequest{ID: 1, Name: "Bo", Email: "bo@example.com", Password: "long-enough"}, models.ErrCustomerExists},
		{"zero id", models.RegisterRequest{ID: 0, Name: "Bo", Email: "bo@example.com", Password: "long-enough"}, models.ErrInvalidInput},
		{"blank name", models.RegisterRequest{ID: 2, Name: "  ", Email: "bo@example.com", Password: "long-enough"}, models.ErrInvalidInput},
		{"bad email", models.RegisterRequest{ID: 2, Name: "Bo", Email: "nope", Password: "long-enough"}, models.ErrInvalidInput},
		{"short password", models.RegisterRequest{ID: 2, Name: "Bo", Email: "bo@example.com", Password: "short"}, models.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Register(context.Background(), tt.req); !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}
