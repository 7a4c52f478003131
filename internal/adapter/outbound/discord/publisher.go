package discord

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/sync/errgroup"

	"github.com/jonny/times-relay/internal/domain/model"
	"github.com/jonny/times-relay/internal/domain/port/outbound"
	"github.com/jonny/times-relay/internal/metrics"
)

const defaultRequestTimeout = 10 * time.Second

// Config configures the channel publisher.
type Config struct {
	BotToken       string
	RequestTimeout time.Duration
	// MaxConcurrent caps simultaneous posts. Zero means unbounded.
	MaxConcurrent int
	HTTPClient    *http.Client
}

// Publisher posts a message to every requested channel via the Discord REST API.
type Publisher struct {
	session       *discordgo.Session
	timeout       time.Duration
	maxConcurrent int
	logger        *slog.Logger
}

var _ outbound.ChannelPublisher = (*Publisher)(nil)

func NewPublisher(cfg Config, logger *slog.Logger) (*Publisher, error) {
	session, err := NewSession(cfg.BotToken, cfg.HTTPClient)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Publisher{
		session:       session,
		timeout:       timeout,
		maxConcurrent: cfg.MaxConcurrent,
		logger:        logger,
	}, nil
}

// Publish attempts every channel and reports each result in input order.
// One channel failing never stops the others.
func (p *Publisher) Publish(ctx context.Context, channelIDs []string, content string) model.PublishReport {
	results := make([]model.PublishResult, len(channelIDs))
	if len(channelIDs) == 0 {
		return model.PublishReport{Results: results}
	}

	// The group context is not used: a failed post must not cancel its siblings.
	var g errgroup.Group
	if p.maxConcurrent > 0 {
		g.SetLimit(p.maxConcurrent)
	}
	for i, channelID := range channelIDs {
		g.Go(func() error {
			results[i] = p.post(ctx, channelID, content)
			return nil
		})
	}
	_ = g.Wait()

	return model.PublishReport{Results: results}
}

func (p *Publisher) post(ctx context.Context, channelID, content string) model.PublishResult {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	msg, err := p.session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	metrics.ChannelPostDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.ChannelPostsTotal.WithLabelValues(metrics.ResultFailure).Inc()
		detail := describeError(err)
		p.logger.DebugContext(ctx, "channel post failed", "channel_id", channelID, "detail", detail)
		return model.PublishResult{ChannelID: channelID, StatusDetail: detail}
	}

	metrics.ChannelPostsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	detail := "ok"
	if msg != nil && msg.ID != "" {
		detail = "message " + msg.ID
	}
	p.logger.DebugContext(ctx, "channel post sent", "channel_id", channelID)
	return model.PublishResult{ChannelID: channelID, Succeeded: true, StatusDetail: detail}
}
