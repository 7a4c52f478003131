package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jonny/times-relay/internal/domain/model"
	"github.com/jonny/times-relay/internal/domain/port/inbound"
	"github.com/jonny/times-relay/internal/domain/port/outbound"
)

const (
	CommandPost          = "post"
	CommandTimes         = "times"
	CommandAddChannel    = "add_channel_id"
	CommandRemoveChannel = "remove_channel_id"
	CommandShowChannels  = "show_channel_id"

	OptionContent   = "content"
	OptionChannelID = "channel_id"
)

const reportTimeout = 10 * time.Second

type commandHandler func(ctx context.Context, ix model.Interaction) model.CommandOutcome

// DispatcherDeps groups the collaborators of a Dispatcher.
// Subscriptions may be nil when posts go to a static channel list; the
// channel management commands then answer that management is disabled.
type DispatcherDeps struct {
	Subscriptions outbound.SubscriptionRepository
	Channels      outbound.ChannelResolver
	Publisher     outbound.ChannelPublisher
	Reporter      outbound.FailureReporter
	Authorizer    *Authorizer
	Logger        *slog.Logger
}

// Dispatcher routes interactions to command handlers.
type Dispatcher struct {
	subscriptions outbound.SubscriptionRepository
	channels      outbound.ChannelResolver
	publisher     outbound.ChannelPublisher
	reporter      outbound.FailureReporter
	authorizer    *Authorizer
	logger        *slog.Logger

	// handlers is built once in NewDispatcher and only read afterwards.
	handlers map[string]commandHandler
}

var _ inbound.InteractionDispatcher = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher with its command registry.
func NewDispatcher(deps DispatcherDeps) *Dispatcher {
	d := &Dispatcher{
		subscriptions: deps.Subscriptions,
		channels:      deps.Channels,
		publisher:     deps.Publisher,
		reporter:      deps.Reporter,
		authorizer:    deps.Authorizer,
		logger:        deps.Logger,
	}
	if d.authorizer == nil {
		d.authorizer = NewAuthorizer(AuthorizationPolicy{})
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	if d.channels == nil && d.subscriptions != nil {
		d.channels = NewSubscriptionChannels(d.subscriptions)
	}

	d.handlers = map[string]commandHandler{
		CommandPost:          d.handlePost,
		CommandTimes:         d.handlePost,
		CommandAddChannel:    d.handleAddChannel,
		CommandRemoveChannel: d.handleRemoveChannel,
		CommandShowChannels:  d.handleShowChannels,
	}
	return d
}

// Commands returns the registered command names.
func (d *Dispatcher) Commands() []string {
	names := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		names = append(names, name)
	}
	return names
}

// Dispatch implements inbound.InteractionDispatcher.
func (d *Dispatcher) Dispatch(ctx context.Context, ix model.Interaction) model.CommandOutcome {
	switch ix.Kind {
	case model.KindPing:
		d.logger.DebugContext(ctx, "handling ping", "interaction", ix.ID)
		return model.Pong()
	case model.KindApplicationCommand:
		return d.dispatchCommand(ctx, ix)
	default:
		return d.fail(ctx, "Unknown interaction type.", &model.CommandError{
			Kind:   model.ErrKindUnknownType,
			UserID: ix.UserID,
		})
	}
}

func (d *Dispatcher) dispatchCommand(ctx context.Context, ix model.Interaction) model.CommandOutcome {
	handler, ok := d.handlers[ix.CommandName]
	if !ok {
		return d.fail(ctx, fmt.Sprintf("Unknown command: %s", ix.CommandName), &model.CommandError{
			Kind:    model.ErrKindUnknownCommand,
			Command: ix.CommandName,
			UserID:  ix.UserID,
		})
	}

	if decision := d.authorizer.Evaluate(ix.CommandName, ix.UserID); !decision.Allowed {
		return d.fail(ctx, fmt.Sprintf("You are not allowed to use /%s.", ix.CommandName), &model.CommandError{
			Kind:    model.ErrKindForbidden,
			Command: ix.CommandName,
			UserID:  ix.UserID,
			Err:     errors.New(decision.Reason),
		})
	}

	d.logger.InfoContext(ctx, "handling command", "command", ix.CommandName, "user", ix.UserID, "interaction", ix.ID)
	return handler(ctx, ix)
}

func (d *Dispatcher) handlePost(ctx context.Context, ix model.Interaction) model.CommandOutcome {
	content, ok := ix.Option(OptionContent).Get()
	if !ok {
		return d.fail(ctx, "Content is empty.", &model.CommandError{
			Kind:    model.ErrKindValidation,
			Command: ix.CommandName,
			UserID:  ix.UserID,
			Err:     fmt.Errorf("missing %q option", OptionContent),
		})
	}

	channelIDs, err := d.channels.ChannelsFor(ctx, ix.UserID)
	if err != nil {
		return d.fail(ctx, "Failed to load registered channels.", &model.CommandError{
			Kind:    model.ErrKindStore,
			Command: ix.CommandName,
			UserID:  ix.UserID,
			Err:     err,
		})
	}

	if len(channelIDs) == 0 {
		return model.Message(fmt.Sprintf("Posted to 0 channels: %s", content))
	}

	report := d.publisher.Publish(ctx, channelIDs, content)
	if !report.OK() {
		failed := report.Failed()
		for _, f := range failed {
			d.logger.WarnContext(ctx, "channel post failed",
				"command", ix.CommandName,
				"user", ix.UserID,
				"channel", f.ChannelID,
				"status", f.StatusDetail,
			)
		}
		return d.fail(ctx,
			fmt.Sprintf("Failed to post to %d of %d channel(s): %s", len(failed), report.Attempted(), content),
			&model.CommandError{
				Kind:    model.ErrKindPublish,
				Command: ix.CommandName,
				UserID:  ix.UserID,
				Err:     &model.PublishError{Failed: failed},
			})
	}
	return model.Message(fmt.Sprintf("Posted to %d channel(s): %s", report.Attempted(), content))
}

func (d *Dispatcher) handleAddChannel(ctx context.Context, ix model.Interaction) model.CommandOutcome {
	channelID, outcome, ok := d.requireManagement(ctx, ix)
	if !ok {
		return outcome
	}

	sub, err := d.subscriptions.Add(ctx, ix.UserID, channelID)
	switch {
	case errors.Is(err, model.ErrDuplicateSubscription):
		return model.Message(fmt.Sprintf("Channel %s is already registered.", channelID))
	case err != nil:
		return d.fail(ctx, fmt.Sprintf("Failed to add channel %s.", channelID), &model.CommandError{
			Kind:      model.ErrKindStore,
			Command:   ix.CommandName,
			UserID:    ix.UserID,
			ChannelID: channelID,
			Err:       err,
		})
	}

	d.logger.InfoContext(ctx, "subscription added", "subscription", sub.ID, "user", sub.UserID, "channel", sub.ChannelID)
	return model.Message(fmt.Sprintf("Added channel %s.", channelID))
}

func (d *Dispatcher) handleRemoveChannel(ctx context.Context, ix model.Interaction) model.CommandOutcome {
	channelID, outcome, ok := d.requireManagement(ctx, ix)
	if !ok {
		return outcome
	}

	storeFailure := func(err error) model.CommandOutcome {
		return d.fail(ctx, fmt.Sprintf("Failed to remove channel %s.", channelID), &model.CommandError{
			Kind:      model.ErrKindStore,
			Command:   ix.CommandName,
			UserID:    ix.UserID,
			ChannelID: channelID,
			Err:       err,
		})
	}
	notFound := func(err error) model.CommandOutcome {
		return d.fail(ctx, fmt.Sprintf("No matching entry for channel %s.", channelID), &model.CommandError{
			Kind:      model.ErrKindNotFound,
			Command:   ix.CommandName,
			UserID:    ix.UserID,
			ChannelID: channelID,
			Err:       err,
		})
	}

	found, err := d.subscriptions.FindExact(ctx, ix.UserID, channelID)
	if err != nil {
		return storeFailure(err)
	}
	sub, ok := found.Get()
	if !ok {
		return notFound(model.ErrSubscriptionNotFound)
	}

	// A concurrent remove may win between the lookup and the delete.
	if err := d.subscriptions.Remove(ctx, sub.ID); err != nil {
		if errors.Is(err, model.ErrSubscriptionNotFound) {
			return notFound(err)
		}
		return storeFailure(err)
	}

	d.logger.InfoContext(ctx, "subscription removed", "subscription", sub.ID, "user", sub.UserID, "channel", sub.ChannelID)
	return model.Message(fmt.Sprintf("Removed channel %s.", channelID))
}

func (d *Dispatcher) handleShowChannels(ctx context.Context, ix model.Interaction) model.CommandOutcome {
	if d.subscriptions == nil {
		return d.managementDisabled(ctx, ix)
	}

	subs, err := d.subscriptions.FindByUser(ctx, ix.UserID)
	if err != nil {
		return d.fail(ctx, "Failed to load registered channels.", &model.CommandError{
			Kind:    model.ErrKindStore,
			Command: ix.CommandName,
			UserID:  ix.UserID,
			Err:     err,
		})
	}

	ids := model.ChannelIDs(subs)
	if len(ids) == 0 {
		return model.Message("No channels registered.")
	}
	var b strings.Builder
	b.WriteString("Registered channels:")
	for _, id := range ids {
		fmt.Fprintf(&b, "\n- <#%s> (%s)", id, id)
	}
	return model.Message(b.String())
}

// requireManagement checks the preconditions shared by add and remove.
func (d *Dispatcher) requireManagement(ctx context.Context, ix model.Interaction) (string, model.CommandOutcome, bool) {
	if d.subscriptions == nil {
		return "", d.managementDisabled(ctx, ix), false
	}
	channelID, ok := ix.Option(OptionChannelID).Get()
	if !ok {
		return "", d.fail(ctx, "channel_id is required.", &model.CommandError{
			Kind:    model.ErrKindValidation,
			Command: ix.CommandName,
			UserID:  ix.UserID,
			Err:     fmt.Errorf("missing %q option", OptionChannelID),
		}), false
	}
	if ix.UserID == "" {
		return "", d.fail(ctx, "Could not identify the invoking user.", &model.CommandError{
			Kind:      model.ErrKindValidation,
			Command:   ix.CommandName,
			ChannelID: channelID,
			Err:       errors.New("interaction has no user"),
		}), false
	}
	return channelID, model.CommandOutcome{}, true
}

func (d *Dispatcher) managementDisabled(ctx context.Context, ix model.Interaction) model.CommandOutcome {
	return d.fail(ctx, "Channel management is disabled: posts go to a fixed channel list.", &model.CommandError{
		Kind:    model.ErrKindValidation,
		Command: ix.CommandName,
		UserID:  ix.UserID,
		Err:     errors.New("subscriptions are not configured"),
	})
}

// fail logs cerr, hands reportable failures to the reporter, and wraps both
// into an outcome.
func (d *Dispatcher) fail(ctx context.Context, content string, cerr *model.CommandError) model.CommandOutcome {
	attrs := []any{"kind", cerr.Kind, "command", cerr.Command, "user", cerr.UserID}
	if cerr.ChannelID != "" {
		attrs = append(attrs, "channel", cerr.ChannelID)
	}
	if cerr.Err != nil {
		attrs = append(attrs, "error", cerr.Err)
	}

	if cerr.Reportable() {
		d.logger.ErrorContext(ctx, "command failed", attrs...)
		d.report(ctx, cerr)
	} else {
		d.logger.InfoContext(ctx, "command rejected", attrs...)
	}
	return model.Failure(content, cerr)
}

func (d *Dispatcher) report(ctx context.Context, cerr *model.CommandError) {
	if d.reporter == nil {
		return
	}
	// The interaction response must not wait on the reporter.
	go func() {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reportTimeout)
		defer cancel()
		if err := d.reporter.ReportFailure(rctx, cerr); err != nil {
			d.logger.WarnContext(rctx, "failure report not delivered", "error", err, "command", cerr.Command)
		}
	}()
}
