package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pennypet/server/internal/model"
)

var (
	ErrInsufficientCoins = errors.New("not enough coins")
	ErrCostumeOwned      = errors.New("costume already unlocked")
)

type ProfileRepository interface {
	ByUserID(ctx context.Context, userID string) (*model.Profile, error)
	Create(ctx context.Context, profile *model.Profile) error
	UpdateName(ctx context.Context, userID, name string) error
	UpdatePet(ctx context.Context, userID, pet string, costumeID *string) error
	AddCoins(ctx context.Context, userID string, coins int64) error
	PurchaseCostume(ctx context.Context, userID, costumeID string, price int64) error
}

type profileRepository struct {
	db *sqlx.DB
}

func NewProfileRepository(db *sqlx.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) ByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	var profile model.Profile
	err := r.db.GetContext(ctx, &profile, `SELECT * FROM profiles WHERE user_id = $1`, userID)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}

	profile.UnlockedCostumes = []string{}
	err = r.db.SelectContext(ctx, &profile.UnlockedCostumes,
		`SELECT costume_id FROM unlocked_costumes WHERE user_id = $1 ORDER BY unlocked_at ASC`, userID)
	if err != nil {
		return nil, err
	}

	return &profile, nil
}

func (r *profileRepository) Create(ctx context.Context, profile *model.Profile) error {
	if profile.ID == "" {
		profile.ID = uuid.New().String()
	}
	if profile.CurrentPet == "" {
		profile.CurrentPet = model.PetCat
	}
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = time.Now().UTC()
	}
	if profile.UpdatedAt.IsZero() {
		profile.UpdatedAt = profile.CreatedAt
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profiles (id, user_id, name, coins, current_pet, current_costume_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, profile.ID, profile.UserID, profile.Name, profile.Coins, profile.CurrentPet, profile.CurrentCostumeID,
		profile.CreatedAt, profile.UpdatedAt)

	return err
}

func (r *profileRepository) UpdateName(ctx context.Context, userID, name string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE profiles
		SET name = $1, updated_at = $2
		WHERE user_id = $3
	`, name, time.Now().UTC(), userID)

	return expectProfileRow(result, err)
}

func (r *profileRepository) UpdatePet(ctx context.Context, userID, pet string, costumeID *string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE profiles
		SET current_pet = $1, current_costume_id = $2, updated_at = $3
		WHERE user_id = $4
	`, pet, costumeID, time.Now().UTC(), userID)

	return expectProfileRow(result, err)
}

// AddCoins increments the balance in place.
func (r *profileRepository) AddCoins(ctx context.Context, userID string, coins int64) error {
	if coins < 0 {
		return fmt.Errorf("cannot add negative coins: %d", coins)
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE profiles
		SET coins = coins + $1, updated_at = $2
		WHERE user_id = $3
	`, coins, time.Now().UTC(), userID)

	return expectProfileRow(result, err)
}

// PurchaseCostume deducts price and unlocks the costume together, or not at all.
// The balance guard lives in the UPDATE so concurrent purchases cannot overdraw.
func (r *profileRepository) PurchaseCostume(ctx context.Context, userID, costumeID string, price int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var owned int
	err = tx.GetContext(ctx, &owned,
		`SELECT COUNT(*) FROM unlocked_costumes WHERE user_id = $1 AND costume_id = $2`, userID, costumeID)
	if err != nil {
		return err
	}
	if owned > 0 {
		return ErrCostumeOwned
	}

	now := time.Now().UTC()
	err = deductCoins(ctx, tx, userID, price, now)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO unlocked_costumes (user_id, costume_id, unlocked_at)
		VALUES ($1, $2, $3)
	`, userID, costumeID, now)
	if err != nil {
		return fmt.Errorf("failed to unlock costume: %w", err)
	}

	return tx.Commit()
}

func deductCoins(ctx context.Context, tx *sqlx.Tx, userID string, coins int64, now time.Time) error {
	result, err := tx.ExecContext(ctx, `
		UPDATE profiles
		SET coins = coins - $1, updated_at = $2
		WHERE user_id = $3 AND coins >= $1
	`, coins, now, userID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows > 0 {
		return nil
	}

	var exists int
	err = tx.GetContext(ctx, &exists, `SELECT COUNT(*) FROM profiles WHERE user_id = $1`, userID)
	if err != nil {
		return err
	}
	if exists == 0 {
		return ErrProfileNotFound
	}

	return ErrInsufficientCoins
}

func expectProfileRow(result sql.Result, err error) error {
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrProfileNotFound
	}

	return nil
}
