package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"

	"github.com/pennypet/server/internal/model"
	"github.com/pennypet/server/internal/repository"
)

type contributionFeature struct {
	env    *testEnv
	goal   *model.Goal
	result *ContributionResult
	err    error
}

func (f *contributionFeature) aDailyGoal(target, max string, duration int) error {
	goal, err := f.env.goals.Create(context.Background(), f.env.userID, GoalInput{
		Name:            "Feature goal",
		TargetAmount:    decimal.RequireFromString(target),
		Interval:        "daily",
		Duration:        duration,
		MaxContribution: decimal.RequireFromString(max),
	})
	if err != nil {
		return err
	}
	f.goal = goal
	return nil
}

func (f *contributionFeature) timePassed(n int, unit string) error {
	switch unit {
	case "day", "days":
		f.env.clock.Advance(time.Duration(n) * 24 * time.Hour)
	case "hour", "hours":
		f.env.clock.Advance(time.Duration(n) * time.Hour)
	default:
		return fmt.Errorf("unknown unit %q", unit)
	}
	return nil
}

func (f *contributionFeature) record(amount string, kind model.ContributionType) error {
	value, err := decimal.NewFromString(amount)
	if err != nil {
		return err
	}
	f.result, f.err = f.env.goals.RecordContribution(context.Background(), f.env.userID, f.goal.ID, value, kind)
	return nil
}

func (f *contributionFeature) iContribute(amount string) error {
	return f.record(amount, model.ContributionTypeContribution)
}

func (f *contributionFeature) iAmend(amount string) error {
	return f.record(amount, model.ContributionTypeAmendment)
}

func (f *contributionFeature) entryAccepted() error {
	if f.err != nil {
		return fmt.Errorf("expected entry to be accepted, got %v", f.err)
	}
	return nil
}

func (f *contributionFeature) rejectedOverAmendment() error {
	var over *OverAmendmentError
	if !errors.As(f.err, &over) {
		return fmt.Errorf("expected OverAmendmentError, got %v", f.err)
	}
	return nil
}

func (f *contributionFeature) rejectedInvalidAmount() error {
	if !errors.Is(f.err, ErrInvalidAmount) {
		return fmt.Errorf("expected ErrInvalidAmount, got %v", f.err)
	}
	return nil
}

func (f *contributionFeature) rejectedTooEarly(hours int) error {
	var tooEarly *TooEarlyError
	if !errors.As(f.err, &tooEarly) {
		return fmt.Errorf("expected TooEarlyError, got %v", f.err)
	}

	want := f.env.clock.Now().Add(time.Duration(hours) * time.Hour)
	if !tooEarly.NextEligibleAt.Equal(want) {
		return fmt.Errorf("expected next eligible at %v, got %v", want, tooEarly.NextEligibleAt)
	}
	return nil
}

func (f *contributionFeature) intervalsMissed(n int) error {
	if f.result == nil {
		return fmt.Errorf("expected a recorded contribution, got error %v", f.err)
	}
	if f.result.Shortfall.MissedIntervals != n {
		return fmt.Errorf("expected %d missed intervals, got %d", n, f.result.Shortfall.MissedIntervals)
	}
	return nil
}

func (f *contributionFeature) reload() (*model.Goal, error) {
	return f.env.goals.ByID(context.Background(), f.env.userID, f.goal.ID)
}

func (f *contributionFeature) goalHasSaved(saved string) error {
	goal, err := f.reload()
	if err != nil {
		return err
	}
	if !goal.CurrentAmount.Equal(decimal.RequireFromString(saved)) {
		return fmt.Errorf("expected %s saved, got %s", saved, goal.CurrentAmount)
	}
	return nil
}

func (f *contributionFeature) goalHasSavedAndMissing(saved, missing string) error {
	err := f.goalHasSaved(saved)
	if err != nil {
		return err
	}

	goal, err := f.reload()
	if err != nil {
		return err
	}
	if !goal.MissingAmount.Equal(decimal.RequireFromString(missing)) {
		return fmt.Errorf("expected %s missing, got %s", missing, goal.MissingAmount)
	}
	return nil
}

func (f *contributionFeature) goalHasEntries(n int) error {
	goal, err := f.reload()
	if err != nil {
		return err
	}
	if goal.ContributionsCount != n {
		return fmt.Errorf("expected %d entries on the goal, got %d", n, goal.ContributionsCount)
	}

	list, err := f.env.goals.Contributions(context.Background(), f.env.userID, f.goal.ID)
	if err != nil {
		return err
	}
	if len(list) != n {
		return fmt.Errorf("expected %d ledger entries, got %d", n, len(list))
	}
	return nil
}

func (f *contributionFeature) intervalFulfilled() error {
	goal, err := f.reload()
	if err != nil {
		return err
	}
	if goal.IntervalStatus != model.IntervalStatusFulfilled {
		return fmt.Errorf("expected fulfilled, got %s", goal.IntervalStatus)
	}
	return nil
}

func (f *contributionFeature) goalCompleted() error {
	goal, err := f.reload()
	if err != nil {
		return err
	}
	if goal.GoalStatus != model.GoalStatusCompleted {
		return fmt.Errorf("expected completed, got %s", goal.GoalStatus)
	}
	return nil
}

func (f *contributionFeature) iHaveCoins(n int64) error {
	profile, err := f.env.profiles.ByUserID(context.Background(), f.env.userID)
	if err != nil {
		return err
	}
	if profile.Coins != n {
		return fmt.Errorf("expected %d coins, got %d", n, profile.Coins)
	}
	return nil
}

func (f *contributionFeature) iDeleteTheGoal() error {
	return f.env.goals.Delete(context.Background(), f.env.userID, f.goal.ID)
}

func (f *contributionFeature) goalGone() error {
	_, err := f.reload()
	if !errors.Is(err, repository.ErrGoalNotFound) {
		return fmt.Errorf("expected ErrGoalNotFound, got %v", err)
	}
	return nil
}

func (f *contributionFeature) noContributionsRemain() error {
	var n int
	err := f.env.db.Get(&n, `SELECT COUNT(*) FROM contributions WHERE goal_id = $1`, f.goal.ID)
	if err != nil {
		return err
	}
	if n != 0 {
		return fmt.Errorf("expected no contributions, got %d", n)
	}
	return nil
}

func TestContributionFeatures(t *testing.T) {
	suite := godog.TestSuite{
		Name: "contributions",
		ScenarioInitializer: func(sc *godog.ScenarioContext) {
			f := &contributionFeature{}

			sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
				*f = contributionFeature{env: newTestEnv(t, nil)}
				return ctx, nil
			})

			sc.Step(`^a daily goal with target (\d+(?:\.\d+)?), max contribution (\d+(?:\.\d+)?) and duration (\d+)$`, f.aDailyGoal)
			sc.Step(`^(\d+) (days?|hours?) (?:has|have) passed$`, f.timePassed)
			sc.Step(`^I contribute (-?\d+(?:\.\d+)?)$`, f.iContribute)
			sc.Step(`^I amend (-?\d+(?:\.\d+)?)$`, f.iAmend)
			sc.Step(`^the entry is accepted$`, f.entryAccepted)
			sc.Step(`^the entry is rejected as an over-amendment$`, f.rejectedOverAmendment)
			sc.Step(`^the entry is rejected as an invalid amount$`, f.rejectedInvalidAmount)
			sc.Step(`^the entry is rejected as too early, eligible again in (\d+) hours?$`, f.rejectedTooEarly)
			sc.Step(`^(\d+) intervals? (?:was|were) missed$`, f.intervalsMissed)
			sc.Step(`^the goal has (\d+(?:\.\d+)?) saved and (\d+(?:\.\d+)?) missing$`, f.goalHasSavedAndMissing)
			sc.Step(`^the goal has (\d+(?:\.\d+)?) saved$`, f.goalHasSaved)
			sc.Step(`^the goal has (\d+) entries$`, f.goalHasEntries)
			sc.Step(`^the current interval is fulfilled$`, f.intervalFulfilled)
			sc.Step(`^the goal is completed$`, f.goalCompleted)
			sc.Step(`^I have (\d+) coins$`, f.iHaveCoins)
			sc.Step(`^I delete the goal$`, f.iDeleteTheGoal)
			sc.Step(`^the goal no longer exists$`, f.goalGone)
			sc.Step(`^no contributions remain for the goal$`, f.noContributionsRemain)
		},
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			Strict:   true,
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
