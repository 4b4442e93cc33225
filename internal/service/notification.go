package service

import (
	"context"
	"fmt"

	"github.com/pennypet/server/internal/model"
	"github.com/pennypet/server/internal/repository"
)

// NotificationService tells users about milestones by email.
type NotificationService struct {
	userRepository    repository.UserRepository
	profileRepository repository.ProfileRepository
	emailService      *EmailService
}

func NewNotificationService(
	userRepository repository.UserRepository,
	profileRepository repository.ProfileRepository,
	emailService *EmailService,
) *NotificationService {
	return &NotificationService{
		userRepository:    userRepository,
		profileRepository: profileRepository,
		emailService:      emailService,
	}
}

func (s *NotificationService) GoalCompleted(ctx context.Context, userID string, goal *model.Goal) error {
	user, err := s.userRepository.ByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	name := "there"
	profile, err := s.profileRepository.ByUserID(ctx, userID)
	if err == nil && profile.Name != "" {
		name = profile.Name
	}

	return s.emailService.SendGoalCompletedEmail(ctx, user.Email, name, goal.Name, goal.CurrentAmount.StringFixed(2))
}
