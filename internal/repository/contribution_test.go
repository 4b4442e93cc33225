package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pennypet/server/internal/db/dbtest"
	"github.com/pennypet/server/internal/model"
)

func newEntry(goal *model.Goal, amount int64, kind model.ContributionType, at time.Time) *model.Contribution {
	return &model.Contribution{
		ID:        uuid.New().String(),
		GoalID:    goal.ID,
		UserID:    goal.UserID,
		Amount:    decimal.NewFromInt(amount),
		Type:      kind,
		Message:   kind.DefaultMessage(),
		CreatedAt: at,
	}
}

func TestContributionRepository_Record(t *testing.T) {
	ctx := context.Background()
	database := dbtest.Open(t)
	goals := NewGoalRepository(database)
	repo := NewContributionRepository(database)
	userID := dbtest.CreateUser(t, database)

	created := time.Date(2025, time.July, 1, 9, 0, 0, 0, time.UTC)
	goal := newTestGoal(userID, "Laptop", created)
	if err := goals.Create(ctx, goal); err != nil {
		t.Fatalf("failed to create goal: %v", err)
	}

	t.Run("contribution updates totals and summary", func(t *testing.T) {
		at := created.Add(2 * time.Hour)
		c := newEntry(goal, 15, model.ContributionTypeContribution, at)
		err := repo.Record(ctx, c, GoalDelta{CurrentAmount: c.Amount, MissingAmount: decimal.NewFromInt(5)})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		got, err := goals.ByID(ctx, userID, goal.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !got.CurrentAmount.Equal(decimal.NewFromInt(15)) {
			t.Errorf("expected current 15, got %s", got.CurrentAmount)
		}
		if !got.MissingAmount.Equal(decimal.NewFromInt(5)) {
			t.Errorf("expected missing 5, got %s", got.MissingAmount)
		}
		if got.ContributionsCount != 1 {
			t.Errorf("expected 1 contribution, got %d", got.ContributionsCount)
		}
		if got.IntervalStatus != model.IntervalStatusFulfilled {
			t.Errorf("expected fulfilled, got %s", got.IntervalStatus)
		}
		if got.LastContributionAt == nil || !got.LastContributionAt.Equal(at) {
			t.Errorf("expected last contribution at %v, got %v", at, got.LastContributionAt)
		}
		if !got.LastContributionAmount.Valid || !got.LastContributionAmount.Decimal.Equal(decimal.NewFromInt(15)) {
			t.Errorf("expected last amount 15, got %v", got.LastContributionAmount)
		}
		if got.GoalStatus != model.GoalStatusActive {
			t.Errorf("expected active, got %s", got.GoalStatus)
		}
	})

	t.Run("amendment only pays down missing", func(t *testing.T) {
		before, _ := goals.ByID(ctx, userID, goal.ID)

		a := newEntry(goal, 3, model.ContributionTypeAmendment, created.Add(3*time.Hour))
		if err := repo.Record(ctx, a, GoalDelta{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		got, _ := goals.ByID(ctx, userID, goal.ID)
		if !got.MissingAmount.Equal(decimal.NewFromInt(2)) {
			t.Errorf("expected missing 2, got %s", got.MissingAmount)
		}
		if !got.CurrentAmount.Equal(before.CurrentAmount) {
			t.Errorf("expected current unchanged at %s, got %s", before.CurrentAmount, got.CurrentAmount)
		}
		if !got.LastContributionAt.Equal(*before.LastContributionAt) {
			t.Errorf("expected last contribution unchanged, got %v", got.LastContributionAt)
		}
		if got.ContributionsCount != 2 {
			t.Errorf("expected 2 entries, got %d", got.ContributionsCount)
		}
	})

	t.Run("amendment above missing writes nothing", func(t *testing.T) {
		a := newEntry(goal, 50, model.ContributionTypeAmendment, created.Add(4*time.Hour))
		err := repo.Record(ctx, a, GoalDelta{})
		if !errors.Is(err, ErrMissingAmountExceeded) {
			t.Fatalf("expected ErrMissingAmountExceeded, got %v", err)
		}

		rows, _ := repo.Contributions(ctx, userID, goal.ID)
		if len(rows) != 2 {
			t.Errorf("expected 2 ledger entries, got %d", len(rows))
		}
		got, _ := goals.ByID(ctx, userID, goal.ID)
		if !got.MissingAmount.Equal(decimal.NewFromInt(2)) {
			t.Errorf("expected missing 2, got %s", got.MissingAmount)
		}
	})

	t.Run("contribution from a stale read writes nothing", func(t *testing.T) {
		c := newEntry(goal, 10, model.ContributionTypeContribution, created.Add(30*time.Hour))
		err := repo.Record(ctx, c, GoalDelta{CurrentAmount: c.Amount})
		if !errors.Is(err, ErrWindowTaken) {
			t.Fatalf("expected ErrWindowTaken, got %v", err)
		}

		got, _ := goals.ByID(ctx, userID, goal.ID)
		if !got.CurrentAmount.Equal(decimal.NewFromInt(15)) || got.ContributionsCount != 2 {
			t.Errorf("expected goal untouched, got current %s count %d", got.CurrentAmount, got.ContributionsCount)
		}
		rows, _ := repo.Contributions(ctx, userID, goal.ID)
		if len(rows) != 2 {
			t.Errorf("expected 2 ledger entries, got %d", len(rows))
		}
	})

	t.Run("reaching the target completes the goal", func(t *testing.T) {
		before, _ := goals.ByID(ctx, userID, goal.ID)

		c := newEntry(goal, 85, model.ContributionTypeContribution, created.Add(48*time.Hour))
		if err := repo.Record(ctx, c, GoalDelta{CurrentAmount: c.Amount, PreviousContributionAt: before.LastContributionAt}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		got, _ := goals.ByID(ctx, userID, goal.ID)
		if got.GoalStatus != model.GoalStatusCompleted {
			t.Errorf("expected completed, got %s", got.GoalStatus)
		}
	})

	t.Run("unknown goal writes nothing", func(t *testing.T) {
		ghost := newTestGoal(userID, "Ghost", created)
		c := newEntry(ghost, 10, model.ContributionTypeContribution, created)
		err := repo.Record(ctx, c, GoalDelta{CurrentAmount: c.Amount})
		if !errors.Is(err, ErrGoalNotFound) {
			t.Fatalf("expected ErrGoalNotFound, got %v", err)
		}
	})

	t.Run("history is newest first", func(t *testing.T) {
		rows, err := repo.Contributions(ctx, userID, goal.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(rows) != 3 {
			t.Fatalf("expected 3 entries, got %d", len(rows))
		}
		if !rows[0].Amount.Equal(decimal.NewFromInt(85)) {
			t.Errorf("expected newest entry 85, got %s", rows[0].Amount)
		}
		if rows[len(rows)-1].Type != model.ContributionTypeContribution {
			t.Errorf("expected oldest entry to be a contribution, got %s", rows[len(rows)-1].Type)
		}
	})
}
