package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pennypet/server/internal/model"
	"github.com/pennypet/server/internal/realtime"
	"github.com/pennypet/server/internal/repository"
	"github.com/pennypet/server/internal/schedule"
	"github.com/pennypet/server/internal/validation"
)

// RewardLedger receives coin awards for accepted contributions.
type RewardLedger interface {
	AwardCoins(ctx context.Context, userID string, coins int64) error
}

type GoalNotifier interface {
	GoalCompleted(ctx context.Context, userID string, goal *model.Goal) error
}

type GoalInput struct {
	Name         string
	TargetAmount decimal.Decimal
	Interval     string
	Duration     int
	// Zero spreads the target evenly over the duration.
	MaxContribution decimal.Decimal
	Category        string
}

// GoalUpdate holds the editable fields. Nil fields are left as they are.
type GoalUpdate struct {
	Name         *string
	TargetAmount *decimal.Decimal
	Category     *string
	Paused       *bool
}

type GoalDetail struct {
	Goal           *model.Goal
	Window         schedule.Window
	Schedule       *schedule.Position
	IntervalStatus string
	Completed      bool
}

type ContributionResult struct {
	Contribution *model.Contribution
	// Goal is nil if the goal could not be re-read after the write.
	Goal         *model.Goal
	Shortfall    schedule.Shortfall
	CoinsAwarded int64
	// RewardErr is set when the contribution stands but the coin award failed.
	RewardErr error
}

type GoalService struct {
	repo             repository.GoalRepository
	contributionRepo repository.ContributionRepository
	ledger           RewardLedger
	notifier         GoalNotifier
	broker           realtime.Broker
	clock            schedule.Clock
	coinMultiplier   int64
}

func NewGoalService(
	repo repository.GoalRepository,
	contributionRepo repository.ContributionRepository,
	ledger RewardLedger,
	notifier GoalNotifier,
	broker realtime.Broker,
	clock schedule.Clock,
	coinMultiplier int64,
) *GoalService {
	if clock == nil {
		clock = schedule.SystemClock{}
	}
	return &GoalService{
		repo:             repo,
		contributionRepo: contributionRepo,
		ledger:           ledger,
		notifier:         notifier,
		broker:           broker,
		clock:            clock,
		coinMultiplier:   coinMultiplier,
	}
}

func (s *GoalService) Create(ctx context.Context, userID string, in GoalInput) (*model.Goal, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	name := strings.TrimSpace(in.Name)
	err := validation.ValidateName(name)
	if err != nil {
		return nil, invalidGoal("%v", err)
	}

	target := schedule.RoundMoney(in.TargetAmount)
	if !target.IsPositive() {
		return nil, invalidGoal("target amount must be greater than zero")
	}
	if target.GreaterThan(schedule.MaxMoney) {
		return nil, invalidGoal("target amount must be at most %s", schedule.MaxMoney.StringFixed(2))
	}

	interval, err := schedule.ParseInterval(in.Interval)
	if err != nil {
		return nil, invalidGoal("%v", err)
	}

	if in.Duration <= 0 {
		return nil, invalidGoal("duration must be at least one interval")
	}

	maxContribution := schedule.RoundMoney(in.MaxContribution)
	switch {
	case maxContribution.IsNegative():
		return nil, invalidGoal("max contribution must be greater than zero")
	case maxContribution.GreaterThan(schedule.MaxMoney):
		return nil, invalidGoal("max contribution must be at most %s", schedule.MaxMoney.StringFixed(2))
	case maxContribution.IsZero():
		maxContribution = schedule.DefaultMaxContribution(target, in.Duration)
	}

	goal := model.NewGoal(
		uuid.New().String(),
		userID,
		name,
		target,
		interval,
		in.Duration,
		maxContribution,
		strings.TrimSpace(in.Category),
		s.clock.Now().UTC(),
	)

	err = s.repo.Create(ctx, goal)
	if err != nil {
		return nil, storeFailure("failed to create goal", err)
	}

	slog.Info("goal created", "user_id", userID, "goal_id", goal.ID, "interval", goal.Interval, "duration", goal.Duration)
	publish(ctx, s.broker, realtime.GoalsTopic(userID), realtime.EventGoalsChanged)

	return goal, nil
}

func (s *GoalService) ByID(ctx context.Context, userID, goalID string) (*model.Goal, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	goal, err := s.repo.ByID(ctx, userID, goalID)
	if err != nil {
		if errors.Is(err, repository.ErrGoalNotFound) {
			return nil, err
		}
		return nil, storeFailure("failed to get goal", err)
	}

	return goal, nil
}

func (s *GoalService) Goals(ctx context.Context, userID, sortBy string) ([]*model.Goal, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	goals, err := s.repo.Goals(ctx, userID, sortBy)
	if err != nil {
		return nil, storeFailure("failed to list goals", err)
	}

	return goals, nil
}

// Detail evaluates the goal's window and schedule position at the current time.
func (s *GoalService) Detail(ctx context.Context, userID, goalID string) (*GoalDetail, error) {
	goal, err := s.ByID(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}

	return s.detail(goal), nil
}

func (s *GoalService) detail(goal *model.Goal) *GoalDetail {
	now := s.clock.Now()
	plan := goal.Plan()

	d := &GoalDetail{
		Goal:           goal,
		Window:         schedule.EvaluateWindow(plan, now),
		IntervalStatus: goal.EffectiveIntervalStatus(now),
		Completed:      goal.IsCompleted(),
	}
	if pos, ok := schedule.ScheduleInfo(plan, now); ok {
		d.Schedule = &pos
	}

	return d
}

func (s *GoalService) Update(ctx context.Context, userID, goalID string, upd GoalUpdate) (*model.Goal, error) {
	goal, err := s.ByID(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		err = validation.ValidateName(name)
		if err != nil {
			return nil, invalidGoal("%v", err)
		}
		goal.Name = name
	}

	if upd.TargetAmount != nil {
		target := schedule.RoundMoney(*upd.TargetAmount)
		if !target.IsPositive() {
			return nil, invalidGoal("target amount must be greater than zero")
		}
		if target.GreaterThan(schedule.MaxMoney) {
			return nil, invalidGoal("target amount must be at most %s", schedule.MaxMoney.StringFixed(2))
		}
		goal.TargetAmount = target
	}

	if upd.Category != nil {
		goal.Category = strings.TrimSpace(*upd.Category)
		if goal.Category == "" {
			goal.Category = model.GoalCategoryNone
		}
	}

	// The store keeps completed goals completed and completes any goal whose
	// saved amount reaches the new target; this only picks active or paused.
	if upd.Paused != nil {
		goal.GoalStatus = model.GoalStatusActive
		if *upd.Paused {
			goal.GoalStatus = model.GoalStatusPaused
		}
	}
	if goal.GoalStatus == model.GoalStatusCompleted {
		goal.GoalStatus = model.GoalStatusActive
	}

	err = s.repo.Update(ctx, goal)
	if err != nil {
		if errors.Is(err, repository.ErrGoalNotFound) {
			return nil, err
		}
		return nil, storeFailure("failed to update goal", err)
	}

	publish(ctx, s.broker, realtime.GoalsTopic(userID), realtime.EventGoalsChanged)

	updated, err := s.repo.ByID(ctx, userID, goal.ID)
	if err != nil {
		if errors.Is(err, repository.ErrGoalNotFound) {
			return nil, err
		}
		return nil, storeFailure("failed to reload goal", err)
	}
	return updated, nil
}

// Delete removes the goal and all of its contributions.
func (s *GoalService) Delete(ctx context.Context, userID, goalID string) error {
	if userID == "" {
		return ErrUnauthenticated
	}

	err := s.repo.Delete(ctx, userID, goalID)
	if err != nil {
		if errors.Is(err, repository.ErrGoalNotFound) {
			return err
		}
		return storeFailure("failed to delete goal", err)
	}

	slog.Info("goal deleted", "user_id", userID, "goal_id", goalID)
	publish(ctx, s.broker, realtime.GoalsTopic(userID), realtime.EventGoalsChanged)

	return nil
}

// RecordContribution validates and appends a ledger entry, updating the goal's
// totals in the same transaction. Every rejection happens before the write.
// Contributions then earn coins; a failed award is reported in the result and
// does not undo the contribution.
func (s *GoalService) RecordContribution(ctx context.Context, userID, goalID string, amount decimal.Decimal, kind model.ContributionType) (*ContributionResult, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidContributionType, kind)
	}

	amount = schedule.RoundMoney(amount)
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: must be greater than zero", ErrInvalidAmount)
	}
	if amount.GreaterThan(schedule.MaxMoney) {
		return nil, fmt.Errorf("%w: at most %s", ErrInvalidAmount, schedule.MaxMoney.StringFixed(2))
	}

	goal, err := s.ByID(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	result := &ContributionResult{}
	var delta repository.GoalDelta

	switch kind {
	case model.ContributionTypeContribution:
		window := schedule.EvaluateWindow(goal.Plan(), now)
		if !window.CanContribute {
			return nil, &TooEarlyError{NextEligibleAt: window.NextEligibleAt}
		}

		result.Shortfall = schedule.ComputeShortfall(goal.Plan(), amount, now)
		delta = repository.GoalDelta{
			CurrentAmount:          amount,
			MissingAmount:          result.Shortfall.Delta,
			PreviousContributionAt: goal.LastContributionAt,
		}

	case model.ContributionTypeAmendment:
		_, ok := schedule.ApplyAmendment(goal.MissingAmount, amount)
		if !ok {
			return nil, &OverAmendmentError{Requested: amount, Missing: goal.MissingAmount}
		}

		delta = repository.GoalDelta{
			MissingAmount: amount.Neg(),
		}
	}

	contribution := &model.Contribution{
		ID:        uuid.New().String(),
		GoalID:    goal.ID,
		UserID:    userID,
		Amount:    amount,
		Type:      kind,
		Message:   kind.DefaultMessage(),
		CreatedAt: now,
	}

	err = s.contributionRepo.Record(ctx, contribution, delta)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrMissingAmountExceeded):
			// Another amendment paid down the shortfall since it was read
			missing := goal.MissingAmount
			if fresh, err := s.repo.ByID(ctx, userID, goal.ID); err == nil {
				missing = fresh.MissingAmount
			}
			return nil, &OverAmendmentError{Requested: amount, Missing: missing}
		case errors.Is(err, repository.ErrWindowTaken):
			// A contribution from another device won the window since it was read
			return nil, s.windowTaken(ctx, userID, goal.ID, now)
		case errors.Is(err, repository.ErrGoalNotFound):
			return nil, err
		}
		return nil, storeFailure("failed to record contribution", err)
	}
	result.Contribution = contribution

	slog.Info("contribution recorded",
		"user_id", userID,
		"goal_id", goal.ID,
		"type", kind,
		"amount", amount.StringFixed(2),
		"missed_intervals", result.Shortfall.MissedIntervals,
		"shortfall", result.Shortfall.Delta.StringFixed(2),
	)
	publish(ctx, s.broker, realtime.GoalsTopic(userID), realtime.EventGoalsChanged)

	updated, err := s.repo.ByID(ctx, userID, goal.ID)
	if err != nil {
		slog.Warn("failed to reload goal after contribution", "error", err, "goal_id", goal.ID)
	}
	result.Goal = updated

	if kind != model.ContributionTypeContribution {
		return result, nil
	}

	result.CoinsAwarded, result.RewardErr = s.award(ctx, userID, goal.ID, amount)

	if updated != nil && !goal.IsCompleted() && updated.IsCompleted() {
		s.goalCompleted(ctx, userID, updated)
	}

	return result, nil
}

func (s *GoalService) windowTaken(ctx context.Context, userID, goalID string, now time.Time) error {
	fresh, err := s.repo.ByID(ctx, userID, goalID)
	if err != nil {
		if errors.Is(err, repository.ErrGoalNotFound) {
			return err
		}
		return storeFailure("failed to reload goal", err)
	}

	return &TooEarlyError{NextEligibleAt: schedule.EvaluateWindow(fresh.Plan(), now).NextEligibleAt}
}

func (s *GoalService) award(ctx context.Context, userID, goalID string, amount decimal.Decimal) (int64, error) {
	coins := schedule.CoinsForContribution(amount, s.coinMultiplier)
	if coins == 0 || s.ledger == nil {
		return 0, nil
	}

	err := s.ledger.AwardCoins(ctx, userID, coins)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrRewardFailure, err)
		slog.Error("failed to award coins", "error", err, "user_id", userID, "goal_id", goalID, "coins", coins)
		return 0, err
	}

	return coins, nil
}

func (s *GoalService) goalCompleted(ctx context.Context, userID string, goal *model.Goal) {
	slog.Info("goal completed", "user_id", userID, "goal_id", goal.ID)

	if s.notifier == nil {
		return
	}

	err := s.notifier.GoalCompleted(ctx, userID, goal)
	if err != nil {
		slog.Error("failed to send goal completed notification", "error", err, "user_id", userID, "goal_id", goal.ID)
	}
}

// Contributions lists the goal's ledger, newest first.
func (s *GoalService) Contributions(ctx context.Context, userID, goalID string) ([]*model.Contribution, error) {
	_, err := s.ByID(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}

	contributions, err := s.contributionRepo.Contributions(ctx, userID, goalID)
	if err != nil {
		return nil, storeFailure("failed to list contributions", err)
	}

	return contributions, nil
}

// WatchGoals streams the user's goal list whenever any of their goals changes.
func (s *GoalService) WatchGoals(ctx context.Context, userID, sortBy string) (<-chan []*model.Goal, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	return watch(ctx, s.broker, realtime.GoalsTopic(userID), func(ctx context.Context) ([]*model.Goal, error) {
		return s.Goals(ctx, userID, sortBy)
	})
}

// WatchGoal streams one goal's detail. The stream ends once the goal is deleted.
func (s *GoalService) WatchGoal(ctx context.Context, userID, goalID string) (<-chan *GoalDetail, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	return watch(ctx, s.broker, realtime.GoalsTopic(userID), func(ctx context.Context) (*GoalDetail, error) {
		return s.Detail(ctx, userID, goalID)
	})
}

func (s *GoalService) WatchContributions(ctx context.Context, userID, goalID string) (<-chan []*model.Contribution, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	return watch(ctx, s.broker, realtime.GoalsTopic(userID), func(ctx context.Context) ([]*model.Contribution, error) {
		return s.Contributions(ctx, userID, goalID)
	})
}
