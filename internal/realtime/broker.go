// Package realtime carries change notifications between the services that write
// goals and profiles and the clients listening for snapshots.
//
// Notifications are signals, not state: a subscriber that sees an event re-reads
// what it is interested in. Slow subscribers may miss events while one is still
// pending; they never miss the fact that something changed.
package realtime

import (
	"context"
	"errors"
)

const (
	EventGoalsChanged   = "goals.changed"
	EventProfileChanged = "profile.changed"
)

const subscriberBuffer = 16

var ErrBrokerClosed = errors.New("broker closed")

type Broker interface {
	Publish(ctx context.Context, topic, event string) error
	// Subscribe delivers events published to topic until ctx is done, then closes the channel.
	Subscribe(ctx context.Context, topic string) (<-chan string, error)
	Close() error
}

func GoalsTopic(userID string) string {
	return "user:" + userID + ":goals"
}

func ProfileTopic(userID string) string {
	return "user:" + userID + ":profile"
}
