package notification

import (
	"context"
	"log/slog"

	"github.com/jonny/times-relay/internal/domain/model"
	"github.com/jonny/times-relay/internal/domain/port/outbound"
)

// LogReporter logs failures instead of sending them anywhere.
// Used when Slack reporting is not configured.
type LogReporter struct {
	logger *slog.Logger
}

var _ outbound.FailureReporter = (*LogReporter)(nil)

func NewLogReporter(logger *slog.Logger) *LogReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogReporter{logger: logger}
}

func (r *LogReporter) ReportFailure(ctx context.Context, cerr *model.CommandError) error {
	r.logger.WarnContext(ctx, "noop: failure report",
		"kind", cerr.Kind,
		"command", cerr.Command,
		"user", cerr.UserID,
		"channel", cerr.ChannelID,
		"error", cerr.Err,
	)
	return nil
}
