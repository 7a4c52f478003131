package outbound

import (
	"context"

	"github.com/jonny/times-relay/internal/domain/model"
)

// ChannelPublisher posts content to chat channels. Every channel is attempted;
// per-channel failures are reported in the result rather than returned as errors.
type ChannelPublisher interface {
	Publish(ctx context.Context, channelIDs []string, content string) model.PublishReport
}

// ChannelResolver decides which channels a user's posts are relayed to.
type ChannelResolver interface {
	ChannelsFor(ctx context.Context, userID string) ([]string, error)
}
