package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pennypet/server/internal/model"
)

const (
	GoalSortRecent   = "recent"
	GoalSortProgress = "progress"
	GoalSortName     = "name"
)

var (
	ErrGoalNotFound = errors.New("goal not found")
)

type GoalRepository interface {
	Create(ctx context.Context, goal *model.Goal) error
	ByID(ctx context.Context, userID, goalID string) (*model.Goal, error)
	Goals(ctx context.Context, userID, sortBy string) ([]*model.Goal, error)
	Update(ctx context.Context, goal *model.Goal) error
	Delete(ctx context.Context, userID, goalID string) error
}

type goalRepository struct {
	db *sqlx.DB
}

func NewGoalRepository(db *sqlx.DB) GoalRepository {
	return &goalRepository{db: db}
}

func (r *goalRepository) Create(ctx context.Context, goal *model.Goal) error {
	query := `INSERT INTO goals (id, user_id, name, target_amount, current_amount, interval_unit, duration,
	              max_contribution, category, missing_amount, goal_status, interval_status,
	              last_contribution_message, contributions_count, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	_, err := r.db.ExecContext(ctx, query,
		goal.ID,
		goal.UserID,
		goal.Name,
		goal.TargetAmount,
		goal.CurrentAmount,
		goal.Interval,
		goal.Duration,
		goal.MaxContribution,
		goal.Category,
		goal.MissingAmount,
		goal.GoalStatus,
		goal.IntervalStatus,
		goal.LastContributionMsg,
		goal.ContributionsCount,
		goal.CreatedAt,
		goal.UpdatedAt,
	)

	return err
}

func (r *goalRepository) ByID(ctx context.Context, userID, goalID string) (*model.Goal, error) {
	goal := &model.Goal{}
	query := `SELECT * FROM goals WHERE id = $1 AND user_id = $2`

	err := r.db.GetContext(ctx, goal, query, goalID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGoalNotFound
	}
	if err != nil {
		return nil, err
	}

	return goal, nil
}

func (r *goalRepository) Goals(ctx context.Context, userID, sortBy string) ([]*model.Goal, error) {
	var goals []*model.Goal

	// Validate and build ORDER BY clause
	var orderBy string
	switch sortBy {
	case GoalSortProgress:
		orderBy = "ORDER BY current_amount / target_amount DESC, created_at DESC"
	case GoalSortName:
		orderBy = "ORDER BY LOWER(name) ASC"
	default: // GoalSortRecent or empty
		orderBy = "ORDER BY created_at DESC"
	}

	query := `SELECT * FROM goals WHERE user_id = $1 ` + orderBy

	err := r.db.SelectContext(ctx, &goals, query, userID)
	if err != nil {
		return nil, err
	}

	return goals, nil
}

// Update writes the editable fields only. Amounts, schedule and ledger summary
// fields change through ContributionRepository.Record.
//
// goal.GoalStatus is the status asked for (active or paused). Completion is
// decided against the stored amounts and, once reached, is never undone.
func (r *goalRepository) Update(ctx context.Context, goal *model.Goal) error {
	query := `UPDATE goals
	          SET name = $1,
	              target_amount = $2,
	              category = $3,
	              goal_status = CASE WHEN goal_status = $4 OR current_amount >= $2 THEN $4 ELSE $5 END,
	              updated_at = $6
	          WHERE id = $7 AND user_id = $8`

	result, err := r.db.ExecContext(ctx, query,
		goal.Name,
		goal.TargetAmount,
		goal.Category,
		model.GoalStatusCompleted,
		goal.GoalStatus,
		time.Now().UTC(),
		goal.ID,
		goal.UserID,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrGoalNotFound
	}

	return nil
}

// Delete removes the goal's contributions before the goal itself, in one transaction.
func (r *goalRepository) Delete(ctx context.Context, userID, goalID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var owned int
	err = tx.GetContext(ctx, &owned, `SELECT COUNT(*) FROM goals WHERE id = $1 AND user_id = $2`, goalID, userID)
	if err != nil {
		return err
	}
	if owned == 0 {
		return ErrGoalNotFound
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM contributions WHERE goal_id = $1`, goalID)
	if err != nil {
		return fmt.Errorf("failed to delete contributions: %w", err)
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM goals WHERE id = $1 AND user_id = $2`, goalID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}

	return tx.Commit()
}
