package outbound

import (
	"context"

	"github.com/jonny/times-relay/internal/domain/model"
)

// FailureReporter forwards command failures to an operator-facing channel.
type FailureReporter interface {
	ReportFailure(ctx context.Context, err *model.CommandError) error
}
