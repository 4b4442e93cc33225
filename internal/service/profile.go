package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pennypet/server/internal/model"
	"github.com/pennypet/server/internal/realtime"
	"github.com/pennypet/server/internal/repository"
	"github.com/pennypet/server/internal/validation"
)

var (
	ErrCostumeNotFound = errors.New("costume not found")
	ErrCostumeLocked   = errors.New("costume is not unlocked")
	ErrInvalidPet      = errors.New("invalid pet")
)

// ProfileService owns the coin balance. It is the only place coins are
// awarded or spent.
type ProfileService struct {
	profileRepo repository.ProfileRepository
	broker      realtime.Broker
}

func NewProfileService(profileRepo repository.ProfileRepository, broker realtime.Broker) *ProfileService {
	return &ProfileService{
		profileRepo: profileRepo,
		broker:      broker,
	}
}

func (s *ProfileService) ByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	return s.profileRepo.ByUserID(ctx, userID)
}

func (s *ProfileService) Create(ctx context.Context, profile *model.Profile) error {
	return s.profileRepo.Create(ctx, profile)
}

func (s *ProfileService) UpdateName(ctx context.Context, userID, name string) error {
	name = strings.TrimSpace(name)

	err := validation.ValidateName(name)
	if err != nil {
		return err
	}

	err = s.profileRepo.UpdateName(ctx, userID, name)
	if err != nil {
		return err
	}

	s.changed(ctx, userID)
	return nil
}

func (s *ProfileService) AwardCoins(ctx context.Context, userID string, coins int64) error {
	if coins < 0 {
		return fmt.Errorf("cannot award negative coins: %d", coins)
	}
	if coins == 0 {
		return nil
	}

	err := s.profileRepo.AddCoins(ctx, userID, coins)
	if err != nil {
		return err
	}

	slog.Info("coins awarded", "user_id", userID, "coins", coins)
	s.changed(ctx, userID)
	return nil
}

// PurchaseCostume pays the catalog price and unlocks the costume in one step.
func (s *ProfileService) PurchaseCostume(ctx context.Context, userID, costumeID string) (*model.Profile, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	costume, ok := model.CostumeByID(costumeID)
	if !ok {
		return nil, ErrCostumeNotFound
	}

	err := s.profileRepo.PurchaseCostume(ctx, userID, costume.ID, costume.Price)
	if err != nil {
		return nil, err
	}

	slog.Info("costume purchased", "user_id", userID, "costume_id", costume.ID, "price", costume.Price)
	s.changed(ctx, userID)

	return s.profileRepo.ByUserID(ctx, userID)
}

// SelectPet switches pet and costume. A nil or empty costume removes it;
// otherwise the costume has to be unlocked.
func (s *ProfileService) SelectPet(ctx context.Context, userID, pet string, costumeID *string) (*model.Profile, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	pet = strings.ToLower(strings.TrimSpace(pet))
	if !model.ValidPet(pet) {
		return nil, ErrInvalidPet
	}

	profile, err := s.profileRepo.ByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if costumeID != nil && *costumeID == "" {
		costumeID = nil
	}
	if costumeID != nil {
		if _, ok := model.CostumeByID(*costumeID); !ok {
			return nil, ErrCostumeNotFound
		}
		if !profile.HasCostume(*costumeID) {
			return nil, ErrCostumeLocked
		}
	}

	err = s.profileRepo.UpdatePet(ctx, userID, pet, costumeID)
	if err != nil {
		return nil, err
	}

	s.changed(ctx, userID)

	profile.CurrentPet = pet
	profile.CurrentCostumeID = costumeID
	return profile, nil
}

func (s *ProfileService) WatchProfile(ctx context.Context, userID string) (<-chan *model.Profile, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	return watch(ctx, s.broker, realtime.ProfileTopic(userID), func(ctx context.Context) (*model.Profile, error) {
		return s.profileRepo.ByUserID(ctx, userID)
	})
}

func (s *ProfileService) changed(ctx context.Context, userID string) {
	publish(ctx, s.broker, realtime.ProfileTopic(userID), realtime.EventProfileChanged)
}
