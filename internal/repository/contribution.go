package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/pennypet/server/internal/model"
)

var (
	ErrMissingAmountExceeded = errors.New("amendment exceeds missing amount")
	ErrWindowTaken           = errors.New("another contribution was recorded for this window")
)

// GoalDelta is what a ledger entry does to its goal's running totals.
type GoalDelta struct {
	CurrentAmount decimal.Decimal
	MissingAmount decimal.Decimal
	// PreviousContributionAt is the goal's last_contribution_at the delta was
	// computed from. A contribution only applies while it is still current.
	PreviousContributionAt *time.Time
}

type ContributionRepository interface {
	Record(ctx context.Context, c *model.Contribution, delta GoalDelta) error
	Contributions(ctx context.Context, userID, goalID string) ([]*model.Contribution, error)
}

type contributionRepository struct {
	db *sqlx.DB
}

func NewContributionRepository(db *sqlx.DB) ContributionRepository {
	return &contributionRepository{db: db}
}

// Record appends c and applies delta to the goal in one transaction. All goal
// totals are updated with in-place increments so concurrent writers never lose
// each other's updates. A contribution whose window was taken by a concurrent
// one fails with ErrWindowTaken and writes nothing.
func (r *contributionRepository) Record(ctx context.Context, c *model.Contribution, delta GoalDelta) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	switch c.Type {
	case model.ContributionTypeContribution:
		err = applyContribution(ctx, tx, c, delta)
	case model.ContributionTypeAmendment:
		err = applyAmendment(ctx, tx, c)
	default:
		err = fmt.Errorf("unknown contribution type: %q", c.Type)
	}
	if err != nil {
		return err
	}

	query := `INSERT INTO contributions (id, goal_id, user_id, amount, type, message, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = tx.ExecContext(ctx, query, c.ID, c.GoalID, c.UserID, c.Amount, c.Type, c.Message, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert contribution: %w", err)
	}

	return tx.Commit()
}

func applyContribution(ctx context.Context, tx *sqlx.Tx, c *model.Contribution, delta GoalDelta) error {
	query := `UPDATE goals
	          SET current_amount = ROUND(current_amount + $1, 2),
	              missing_amount = ROUND(missing_amount + $2, 2),
	              goal_status = CASE WHEN current_amount + $1 >= target_amount THEN $3 ELSE goal_status END,
	              interval_status = $4,
	              last_contribution_at = $5,
	              last_contribution_amount = $6,
	              last_contribution_message = $7,
	              contributions_count = contributions_count + 1,
	              updated_at = $5
	          WHERE id = $8 AND user_id = $9 AND last_contribution_at IS NOT DISTINCT FROM $10`

	result, err := tx.ExecContext(ctx, query,
		delta.CurrentAmount,
		delta.MissingAmount,
		model.GoalStatusCompleted,
		model.IntervalStatusFulfilled,
		c.CreatedAt,
		c.Amount,
		c.Message,
		c.GoalID,
		c.UserID,
		nullableTime(delta.PreviousContributionAt),
	)
	if err != nil {
		return fmt.Errorf("failed to update goal: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows > 0 {
		return nil
	}

	return notApplied(ctx, tx, c, ErrWindowTaken)
}

// applyAmendment pays down missing_amount only. The guard in the WHERE clause
// keeps missing_amount from going negative under concurrent amendments.
func applyAmendment(ctx context.Context, tx *sqlx.Tx, c *model.Contribution) error {
	query := `UPDATE goals
	          SET missing_amount = ROUND(missing_amount - $1, 2),
	              contributions_count = contributions_count + 1,
	              updated_at = $2
	          WHERE id = $3 AND user_id = $4 AND missing_amount >= $1`

	result, err := tx.ExecContext(ctx, query, c.Amount, c.CreatedAt, c.GoalID, c.UserID)
	if err != nil {
		return fmt.Errorf("failed to update goal: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows > 0 {
		return nil
	}

	return notApplied(ctx, tx, c, ErrMissingAmountExceeded)
}

// notApplied explains a guarded UPDATE that matched no row: either the goal is
// gone or the guard rejected it.
func notApplied(ctx context.Context, tx *sqlx.Tx, c *model.Contribution, guardErr error) error {
	var owned int
	err := tx.GetContext(ctx, &owned, `SELECT COUNT(*) FROM goals WHERE id = $1 AND user_id = $2`, c.GoalID, c.UserID)
	if err != nil {
		return err
	}
	if owned == 0 {
		return ErrGoalNotFound
	}

	return guardErr
}

func (r *contributionRepository) Contributions(ctx context.Context, userID, goalID string) ([]*model.Contribution, error) {
	var contributions []*model.Contribution
	query := `SELECT * FROM contributions WHERE goal_id = $1 AND user_id = $2 ORDER BY created_at DESC`

	err := r.db.SelectContext(ctx, &contributions, query, goalID, userID)
	if err != nil {
		return nil, err
	}

	return contributions, nil
}

// nullableTime binds t in UTC, the zone every timestamp is written in, so the
// guard compares equal values.
func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
