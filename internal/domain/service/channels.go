package service

import (
	"context"
	"fmt"

	"github.com/jonny/times-relay/internal/domain/model"
	"github.com/jonny/times-relay/internal/domain/port/outbound"
)

// SubscriptionChannels resolves a user's channels from their stored subscriptions.
type SubscriptionChannels struct {
	repo outbound.SubscriptionRepository
}

func NewSubscriptionChannels(repo outbound.SubscriptionRepository) *SubscriptionChannels {
	return &SubscriptionChannels{repo: repo}
}

func (s *SubscriptionChannels) ChannelsFor(ctx context.Context, userID string) ([]string, error) {
	subs, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find subscriptions for %s: %w", userID, err)
	}
	return model.ChannelIDs(subs), nil
}

// StaticChannels relays every user's posts to the same fixed channel list.
// A single hardcoded channel is a list of one.
type StaticChannels struct {
	ids []string
}

func NewStaticChannels(ids []string) *StaticChannels {
	out := make([]string, len(ids))
	copy(out, ids)
	return &StaticChannels{ids: out}
}

func (s *StaticChannels) ChannelsFor(_ context.Context, _ string) ([]string, error) {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out, nil
}

var (
	_ outbound.ChannelResolver = (*SubscriptionChannels)(nil)
	_ outbound.ChannelResolver = (*StaticChannels)(nil)
)
