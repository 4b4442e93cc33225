package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pennypet/server/internal/db/dbtest"
	"github.com/pennypet/server/internal/repository"
)

func TestAuthService(t *testing.T) {
	ctx := context.Background()
	database := dbtest.Open(t)
	users := repository.NewUserRepository(database)
	profiles := repository.NewProfileRepository(database)
	auth := NewAuthService(users, profiles, NewEmailService("", "test@example.com", "http://localhost", "PennyPet", true), "test-secret", false, time.Hour)

	const password = "correct-horse-battery"

	user, err := auth.Register(ctx, " Saver@Example.com ", password, "Sam")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Email != "saver@example.com" {
		t.Errorf("expected normalized email, got %s", user.Email)
	}

	profile, err := profiles.ByUserID(ctx, user.ID)
	if err != nil {
		t.Fatalf("expected profile to be created, got %v", err)
	}
	if profile.Coins != 0 || profile.Name != "Sam" {
		t.Errorf("expected fresh profile for Sam, got %q with %d coins", profile.Name, profile.Coins)
	}

	t.Run("duplicate email", func(t *testing.T) {
		_, err := auth.Register(ctx, "saver@example.com", password, "Sam")
		if !errors.Is(err, ErrEmailAlreadyExists) {
			t.Errorf("expected ErrEmailAlreadyExists, got %v", err)
		}
	})

	t.Run("login", func(t *testing.T) {
		_, err := auth.Login(ctx, "saver@example.com", "wrong-password-entirely")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}

		got, err := auth.Login(ctx, "SAVER@example.com", password)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.ID != user.ID {
			t.Errorf("expected user %s, got %s", user.ID, got.ID)
		}
	})

	t.Run("token round trip", func(t *testing.T) {
		token, err := auth.GenerateJWT(user)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		userID, err := auth.UserID(token)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if userID != user.ID {
			t.Errorf("expected %s, got %s", user.ID, userID)
		}

		other := NewAuthService(users, profiles, nil, "other-secret", false, time.Hour)
		if _, err := other.UserID(token); err == nil {
			t.Error("expected token signed with another secret to be rejected")
		}
	})
}
