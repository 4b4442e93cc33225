package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pennypet/server/internal/config"
	"github.com/pennypet/server/internal/db"
	"github.com/pennypet/server/internal/realtime"
	"github.com/pennypet/server/internal/repository"
	"github.com/pennypet/server/internal/schedule"
	"github.com/pennypet/server/internal/service"
)

type App struct {
	Cfg            *config.Config
	DB             *sqlx.DB
	Broker         realtime.Broker
	AuthService    *service.AuthService
	ProfileService *service.ProfileService
	EmailService   *service.EmailService
	GoalService    *service.GoalService
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(ctx, cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	broker, err := newBroker(ctx, cfg)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to initialize broker: %w", err)
	}

	// Repositories
	userRepository := repository.NewUserRepository(database)
	profileRepository := repository.NewProfileRepository(database)
	goalRepository := repository.NewGoalRepository(database)
	contributionRepository := repository.NewContributionRepository(database)

	// Services
	emailService := service.NewEmailService(
		cfg.ResendAPIKey,
		cfg.EmailFrom,
		cfg.AppURL,
		cfg.AppName,
		cfg.IsDevelopment(),
	)
	profileService := service.NewProfileService(profileRepository, broker)
	notificationService := service.NewNotificationService(userRepository, profileRepository, emailService)
	goalService := service.NewGoalService(
		goalRepository,
		contributionRepository,
		profileService,
		notificationService,
		broker,
		schedule.SystemClock{},
		cfg.CoinMultiplier,
	)
	authService := service.NewAuthService(
		userRepository,
		profileRepository,
		emailService,
		cfg.JWTSecret,
		cfg.IsProduction(),
		cfg.JWTExpiry,
	)

	return &App{
		Cfg:            cfg,
		DB:             database,
		Broker:         broker,
		AuthService:    authService,
		ProfileService: profileService,
		EmailService:   emailService,
		GoalService:    goalService,
	}, nil
}

// newBroker uses Redis when several instances share the database. A single
// instance keeps change notifications in process.
func newBroker(ctx context.Context, cfg *config.Config) (realtime.Broker, error) {
	if cfg.RedisURL == "" {
		return realtime.NewMemoryBroker(), nil
	}

	broker, err := realtime.NewRedisBroker(ctx, cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	return broker, nil
}

func (a *App) Close() error {
	var errs []error
	if a.Broker != nil {
		errs = append(errs, a.Broker.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}
