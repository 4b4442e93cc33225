package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/pennypet/server/internal/db/dbtest"
	"github.com/pennypet/server/internal/model"
	"github.com/pennypet/server/internal/realtime"
	"github.com/pennypet/server/internal/repository"
)

var errLedgerDown = errors.New("ledger unavailable")

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type failingLedger struct {
	calls int
}

func (l *failingLedger) AwardCoins(ctx context.Context, userID string, coins int64) error {
	l.calls++
	return errLedgerDown
}

type recordingNotifier struct {
	mu        sync.Mutex
	completed []string
}

func (n *recordingNotifier) GoalCompleted(ctx context.Context, userID string, goal *model.Goal) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.completed = append(n.completed, goal.ID)
	return nil
}

type testEnv struct {
	db       *sqlx.DB
	clock    *testClock
	broker   *realtime.MemoryBroker
	profiles *ProfileService
	notifier *recordingNotifier
	goals    *GoalService
	userID   string
}

// newTestEnv wires a GoalService against a fresh database. A nil ledger uses
// the real ProfileService.
func newTestEnv(t *testing.T, ledger RewardLedger) *testEnv {
	t.Helper()

	database := dbtest.Open(t)
	env := &testEnv{
		db:       database,
		clock:    &testClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)},
		broker:   realtime.NewMemoryBroker(),
		notifier: &recordingNotifier{},
		userID:   dbtest.CreateUser(t, database),
	}
	t.Cleanup(func() {
		_ = env.broker.Close()
	})

	env.profiles = NewProfileService(repository.NewProfileRepository(database), env.broker)
	if ledger == nil {
		ledger = env.profiles
	}

	env.goals = NewGoalService(
		repository.NewGoalRepository(database),
		repository.NewContributionRepository(database),
		ledger,
		env.notifier,
		env.broker,
		env.clock,
		10,
	)

	return env
}

func (e *testEnv) createGoal(t *testing.T, target, max string, interval string, duration int) *model.Goal {
	t.Helper()

	goal, err := e.goals.Create(context.Background(), e.userID, GoalInput{
		Name:            "Bike",
		TargetAmount:    decimal.RequireFromString(target),
		Interval:        interval,
		Duration:        duration,
		MaxContribution: decimal.RequireFromString(max),
	})
	if err != nil {
		t.Fatalf("failed to create goal: %v", err)
	}

	return goal
}

func (e *testEnv) goal(t *testing.T, goalID string) *model.Goal {
	t.Helper()

	goal, err := e.goals.ByID(context.Background(), e.userID, goalID)
	if err != nil {
		t.Fatalf("failed to get goal: %v", err)
	}

	return goal
}

func (e *testEnv) coins(t *testing.T) int64 {
	t.Helper()

	profile, err := e.profiles.ByUserID(context.Background(), e.userID)
	if err != nil {
		t.Fatalf("failed to get profile: %v", err)
	}

	return profile.Coins
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// snapshot captures everything a rejected contribution must leave untouched.
type snapshot struct {
	current       string
	missing       string
	count         int
	contributions int
}

func (e *testEnv) snapshot(t *testing.T, goalID string) snapshot {
	t.Helper()

	goal := e.goal(t, goalID)
	list, err := e.goals.Contributions(context.Background(), e.userID, goalID)
	if err != nil {
		t.Fatalf("failed to list contributions: %v", err)
	}

	return snapshot{
		current:       goal.CurrentAmount.StringFixed(2),
		missing:       goal.MissingAmount.StringFixed(2),
		count:         goal.ContributionsCount,
		contributions: len(list),
	}
}
