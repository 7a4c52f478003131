package slack

import (
	"context"
	"errors"
	"fmt"
	"strings"

	slackapi "github.com/slack-go/slack"

	"github.com/jonny/times-relay/internal/domain/model"
	"github.com/jonny/times-relay/internal/domain/port/outbound"
)

// Config holds Slack reporter configuration.
type Config struct {
	BotToken string
	Channel  string
	// APIURL overrides the Slack API base URL. Empty uses the public API.
	APIURL string
}

// Reporter posts command failures to a Slack channel.
type Reporter struct {
	client  *slackapi.Client
	channel string
}

var _ outbound.FailureReporter = (*Reporter)(nil)

func NewReporter(cfg Config) (*Reporter, error) {
	if cfg.BotToken == "" || cfg.Channel == "" {
		return nil, errors.New("slack reporter needs a bot token and a channel")
	}
	var opts []slackapi.Option
	if cfg.APIURL != "" {
		opts = append(opts, slackapi.OptionAPIURL(strings.TrimSuffix(cfg.APIURL, "/")+"/"))
	}
	return &Reporter{
		client:  slackapi.New(cfg.BotToken, opts...),
		channel: cfg.Channel,
	}, nil
}

// ReportFailure posts a Block Kit summary of cerr.
func (r *Reporter) ReportFailure(ctx context.Context, cerr *model.CommandError) error {
	_, _, err := r.client.PostMessageContext(ctx, r.channel,
		slackapi.MsgOptionBlocks(BuildFailureBlocks(cerr)...),
		slackapi.MsgOptionText(fmt.Sprintf("[%s] /%s failed", cerr.Kind, cerr.Command), false),
	)
	if err != nil {
		return fmt.Errorf("slack ReportFailure: %w", err)
	}
	return nil
}

// BuildFailureBlocks renders a header, a field section and the error detail.
func BuildFailureBlocks(cerr *model.CommandError) []slackapi.Block {
	header := slackapi.NewHeaderBlock(
		slackapi.NewTextBlockObject(slackapi.PlainTextType, fmt.Sprintf("Relay command failed: %s", cerr.Kind), false, false),
	)

	fields := []*slackapi.TextBlockObject{
		slackapi.NewTextBlockObject(slackapi.MarkdownType, fmt.Sprintf("*Command:*\n/%s", orDash(cerr.Command)), false, false),
		slackapi.NewTextBlockObject(slackapi.MarkdownType, fmt.Sprintf("*User:*\n%s", orDash(cerr.UserID)), false, false),
	}
	if cerr.ChannelID != "" {
		fields = append(fields, slackapi.NewTextBlockObject(slackapi.MarkdownType, fmt.Sprintf("*Channel:*\n%s", cerr.ChannelID), false, false))
	}
	blocks := []slackapi.Block{header, slackapi.NewSectionBlock(nil, fields, nil)}

	if cerr.Err != nil {
		detail := slackapi.NewTextBlockObject(slackapi.MarkdownType, fmt.Sprintf("```%s```", cerr.Err.Error()), false, false)
		blocks = append(blocks, slackapi.NewSectionBlock(detail, nil, nil))
	}
	return blocks
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
