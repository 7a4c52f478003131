package inbound

import (
	"context"

	"github.com/jonny/times-relay/internal/domain/model"
)

// InteractionDispatcher turns a verified interaction into an outcome.
// It never returns an error: failures are part of the outcome.
type InteractionDispatcher interface {
	Dispatch(ctx context.Context, interaction model.Interaction) model.CommandOutcome
}
