package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/pennypet/server/internal/db/dbtest"
)

func TestProfileRepository_Coins(t *testing.T) {
	ctx := context.Background()
	database := dbtest.Open(t)
	repo := NewProfileRepository(database)
	userID := dbtest.CreateUser(t, database)

	if err := repo.AddCoins(ctx, userID, 120); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("purchase rejected when balance is short", func(t *testing.T) {
		err := repo.PurchaseCostume(ctx, userID, "pirate", 200)
		if !errors.Is(err, ErrInsufficientCoins) {
			t.Fatalf("expected ErrInsufficientCoins, got %v", err)
		}

		p, _ := repo.ByUserID(ctx, userID)
		if p.Coins != 120 {
			t.Errorf("expected balance 120, got %d", p.Coins)
		}
		if len(p.UnlockedCostumes) != 0 {
			t.Errorf("expected nothing unlocked, got %v", p.UnlockedCostumes)
		}
	})

	t.Run("purchase deducts and unlocks", func(t *testing.T) {
		if err := repo.PurchaseCostume(ctx, userID, "cowboy", 50); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		p, _ := repo.ByUserID(ctx, userID)
		if p.Coins != 70 {
			t.Errorf("expected balance 70, got %d", p.Coins)
		}
		if !p.HasCostume("cowboy") {
			t.Errorf("expected cowboy unlocked, got %v", p.UnlockedCostumes)
		}
	})

	t.Run("purchase of an owned costume", func(t *testing.T) {
		err := repo.PurchaseCostume(ctx, userID, "cowboy", 50)
		if !errors.Is(err, ErrCostumeOwned) {
			t.Fatalf("expected ErrCostumeOwned, got %v", err)
		}

		p, _ := repo.ByUserID(ctx, userID)
		if p.Coins != 70 {
			t.Errorf("expected balance 70, got %d", p.Coins)
		}
	})

	t.Run("exact balance is enough", func(t *testing.T) {
		if err := repo.AddCoins(ctx, userID, 130); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := repo.PurchaseCostume(ctx, userID, "pirate", 200); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		p, _ := repo.ByUserID(ctx, userID)
		if p.Coins != 0 {
			t.Errorf("expected balance 0, got %d", p.Coins)
		}
	})

	t.Run("unknown profile", func(t *testing.T) {
		if err := repo.AddCoins(ctx, "nobody", 10); !errors.Is(err, ErrProfileNotFound) {
			t.Errorf("expected ErrProfileNotFound, got %v", err)
		}
		if err := repo.PurchaseCostume(ctx, "nobody", "robot", 500); !errors.Is(err, ErrProfileNotFound) {
			t.Errorf("expected ErrProfileNotFound, got %v", err)
		}
	})
}

func TestProfileRepository_UpdatePet(t *testing.T) {
	ctx := context.Background()
	database := dbtest.Open(t)
	repo := NewProfileRepository(database)
	userID := dbtest.CreateUser(t, database)

	costume := "robot"
	if err := repo.UpdatePet(ctx, userID, "dog", &costume); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p, err := repo.ByUserID(ctx, userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.CurrentPet != "dog" {
		t.Errorf("expected dog, got %s", p.CurrentPet)
	}
	if p.CurrentCostumeID == nil || *p.CurrentCostumeID != "robot" {
		t.Errorf("expected robot costume, got %v", p.CurrentCostumeID)
	}
}
