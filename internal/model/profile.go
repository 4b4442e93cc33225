package model

import "time"

const (
	PetCat = "cat"
	PetDog = "dog"
)

type Profile struct {
	ID               string    `db:"id" json:"id"`
	UserID           string    `db:"user_id" json:"-"`
	Name             string    `db:"name" json:"name"`
	Coins            int64     `db:"coins" json:"coins"`
	CurrentPet       string    `db:"current_pet" json:"current_pet"`
	CurrentCostumeID *string   `db:"current_costume_id" json:"current_costume_id"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`

	// Loaded from unlocked_costumes
	UnlockedCostumes []string `db:"-" json:"unlocked_costumes"`
}

func (p *Profile) HasCostume(costumeID string) bool {
	for _, id := range p.UnlockedCostumes {
		if id == costumeID {
			return true
		}
	}
	return false
}

func ValidPet(pet string) bool {
	return pet == PetCat || pet == PetDog
}
