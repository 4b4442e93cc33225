package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type ContributionType string

const (
	ContributionTypeContribution ContributionType = "contribution"
	ContributionTypeAmendment    ContributionType = "amendment"
)

func (t ContributionType) Valid() bool {
	return t == ContributionTypeContribution || t == ContributionTypeAmendment
}

// DefaultMessage is the display label stored with a ledger entry.
func (t ContributionType) DefaultMessage() string {
	if t == ContributionTypeAmendment {
		return "Amendment"
	}
	return "Contribution"
}

// Contribution is an append-only ledger entry. It is never updated; it is only
// deleted together with its goal.
type Contribution struct {
	ID        string           `db:"id" json:"id"`
	GoalID    string           `db:"goal_id" json:"goal_id"`
	UserID    string           `db:"user_id" json:"-"`
	Amount    decimal.Decimal  `db:"amount" json:"amount"`
	Type      ContributionType `db:"type" json:"type"`
	Message   string           `db:"message" json:"message"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}
