package handler

import (
	"net/http"
	"testing"

	"github.com/pennypet/server/internal/model"
)

func TestProfileHandler(t *testing.T) {
	env := newTestEnv(t)

	t.Run("costumes start locked", func(t *testing.T) {
		rec := do(t, env.profiles.Costumes, http.MethodGet, "/api/costumes", env.userID, nil)
		expectStatus(t, rec, http.StatusOK)

		costumes := decode[[]costumeResponse](t, rec)
		if len(costumes) != len(model.Costumes) {
			t.Fatalf("expected %d costumes, got %d", len(model.Costumes), len(costumes))
		}
		for _, c := range costumes {
			if c.Unlocked {
				t.Errorf("expected %s to be locked", c.ID)
			}
		}
	})

	t.Run("purchase without coins", func(t *testing.T) {
		rec := do(t, env.profiles.PurchaseCostume, http.MethodPost, "/", env.userID, nil, "id", "cowboy")
		expectStatus(t, rec, http.StatusConflict)

		body := decode[errorResponse](t, rec)
		if body.Code != "insufficient_coins" {
			t.Errorf("expected insufficient_coins, got %s", body.Code)
		}
	})

	t.Run("unknown costume", func(t *testing.T) {
		rec := do(t, env.profiles.PurchaseCostume, http.MethodPost, "/", env.userID, nil, "id", "wizard")
		expectStatus(t, rec, http.StatusNotFound)
	})

	t.Run("select locked costume", func(t *testing.T) {
		rec := do(t, env.profiles.SelectPet, http.MethodPut, "/api/profile/pet", env.userID, map[string]any{"pet": "dog", "costume_id": "pirate"})
		expectStatus(t, rec, http.StatusConflict)
	})

	t.Run("select pet", func(t *testing.T) {
		rec := do(t, env.profiles.SelectPet, http.MethodPut, "/api/profile/pet", env.userID, map[string]any{"pet": "dog"})
		expectStatus(t, rec, http.StatusOK)

		profile := decode[*model.Profile](t, rec)
		if profile.CurrentPet != model.PetDog || profile.CurrentCostumeID != nil {
			t.Errorf("expected dog without costume, got %s/%v", profile.CurrentPet, profile.CurrentCostumeID)
		}
	})

	t.Run("invalid pet", func(t *testing.T) {
		rec := do(t, env.profiles.SelectPet, http.MethodPut, "/api/profile/pet", env.userID, map[string]any{"pet": "parrot"})
		expectStatus(t, rec, http.StatusUnprocessableEntity)
	})

	t.Run("rename", func(t *testing.T) {
		rec := do(t, env.profiles.UpdateName, http.MethodPatch, "/api/profile/name", env.userID, map[string]any{"name": "Penny"})
		expectStatus(t, rec, http.StatusOK)

		profile := decode[*model.Profile](t, rec)
		if profile.Name != "Penny" {
			t.Errorf("expected Penny, got %s", profile.Name)
		}
	})
}
