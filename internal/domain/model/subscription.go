package model

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// SubscriptionKind is the record discriminator kept in storage.
const SubscriptionKind = "channel_id"

type Subscription struct {
	ID        string    `json:"id"`
	Kind      string    `json:"type"`
	UserID    string    `json:"user"`
	ChannelID string    `json:"channel_id"`
	CreatedAt time.Time `json:"created_at"`
}

// NewSubscription creates a Subscription with a fresh ULID.
func NewSubscription(userID, channelID string) Subscription {
	return Subscription{
		ID:        ulid.Make().String(),
		Kind:      SubscriptionKind,
		UserID:    userID,
		ChannelID: channelID,
		CreatedAt: time.Now().UTC(),
	}
}

// ChannelIDs returns the channel IDs of subs, dropping repeats while keeping order.
func ChannelIDs(subs []Subscription) []string {
	seen := make(map[string]struct{}, len(subs))
	out := make([]string, 0, len(subs))
	for _, s := range subs {
		if _, ok := seen[s.ChannelID]; ok {
			continue
		}
		seen[s.ChannelID] = struct{}{}
		out = append(out, s.ChannelID)
	}
	return out
}
