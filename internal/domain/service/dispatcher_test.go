package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonny/times-relay/internal/domain/model"
	"github.com/jonny/times-relay/internal/domain/port/outbound"
	"github.com/jonny/times-relay/internal/domain/service"
)

// --- fakes ---

type fakeSubscriptionRepo struct {
	mu    sync.Mutex
	subs  []model.Subscription
	calls int

	addErr    error
	findErr   error
	removeErr error
}

func (r *fakeSubscriptionRepo) Add(_ context.Context, userID, channelID string) (model.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.addErr != nil {
		return model.Subscription{}, r.addErr
	}
	for _, s := range r.subs {
		if s.UserID == userID && s.ChannelID == channelID {
			return model.Subscription{}, model.ErrDuplicateSubscription
		}
	}
	s := model.NewSubscription(userID, channelID)
	r.subs = append(r.subs, s)
	return s, nil
}

func (r *fakeSubscriptionRepo) FindByUser(_ context.Context, userID string) ([]model.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.findErr != nil {
		return nil, r.findErr
	}
	var out []model.Subscription
	for _, s := range r.subs {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSubscriptionRepo) FindExact(_ context.Context, userID, channelID string) (mo.Option[model.Subscription], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.findErr != nil {
		return mo.None[model.Subscription](), r.findErr
	}
	for _, s := range r.subs {
		if s.UserID == userID && s.ChannelID == channelID {
			return mo.Some(s), nil
		}
	}
	return mo.None[model.Subscription](), nil
}

func (r *fakeSubscriptionRepo) Remove(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.removeErr != nil {
		return r.removeErr
	}
	for i, s := range r.subs {
		if s.ID == id {
			r.subs = append(r.subs[:i], r.subs[i+1:]...)
			return nil
		}
	}
	return model.ErrSubscriptionNotFound
}

func (r *fakeSubscriptionRepo) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

var _ outbound.SubscriptionRepository = (*fakeSubscriptionRepo)(nil)

type publishCall struct {
	channels []string
	content  string
}

type fakePublisher struct {
	mu      sync.Mutex
	calls   []publishCall
	failing map[string]bool
}

func (p *fakePublisher) Publish(_ context.Context, channelIDs []string, content string) model.PublishReport {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, publishCall{channels: channelIDs, content: content})
	report := model.PublishReport{}
	for _, id := range channelIDs {
		if p.failing[id] {
			report.Results = append(report.Results, model.PublishResult{ChannelID: id, StatusDetail: "403 Forbidden"})
			continue
		}
		report.Results = append(report.Results, model.PublishResult{ChannelID: id, Succeeded: true, StatusDetail: "200 OK"})
	}
	return report
}

func (p *fakePublisher) recorded() []publishCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]publishCall, len(p.calls))
	copy(out, p.calls)
	return out
}

type fakeReporter struct {
	mu     sync.Mutex
	errors []*model.CommandError
}

func (r *fakeReporter) ReportFailure(_ context.Context, err *model.CommandError) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, err)
	return nil
}

func (r *fakeReporter) reported() []*model.CommandError {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.CommandError, len(r.errors))
	copy(out, r.errors)
	return out
}

type fixture struct {
	repo       *fakeSubscriptionRepo
	publisher  *fakePublisher
	reporter   *fakeReporter
	dispatcher *service.Dispatcher
}

func newFixture(t *testing.T, policy service.AuthorizationPolicy) *fixture {
	t.Helper()
	f := &fixture{
		repo:      &fakeSubscriptionRepo{},
		publisher: &fakePublisher{failing: map[string]bool{}},
		reporter:  &fakeReporter{},
	}
	f.dispatcher = service.NewDispatcher(service.DispatcherDeps{
		Subscriptions: f.repo,
		Publisher:     f.publisher,
		Reporter:      f.reporter,
		Authorizer:    service.NewAuthorizer(policy),
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return f
}

func command(name, user string, opts ...model.Option) model.Interaction {
	return model.NewCommand("ix-"+name, user, name, opts...)
}

func opt(name, value string) model.Option {
	return model.Option{Name: name, Value: value}
}

// --- tests ---

func TestDispatch_PingReturnsPong(t *testing.T) {
	f := newFixture(t, service.AuthorizationPolicy{})

	out := f.dispatcher.Dispatch(context.Background(), model.NewPing("p1"))

	assert.Equal(t, model.ResponsePong, out.Response)
	assert.Equal(t, 200, out.HTTPStatus)
	assert.Zero(t, f.repo.callCount())
	assert.Empty(t, f.publisher.recorded())
}

func TestDispatch_UnknownType(t *testing.T) {
	f := newFixture(t, service.AuthorizationPolicy{})

	out := f.dispatcher.Dispatch(context.Background(), model.NewUnknown("x"))

	require.NotNil(t, out.Err)
	assert.Equal(t, model.ErrKindUnknownType, out.Err.Kind)
	assert.Equal(t, model.ResponseMessage, out.Response)
	assert.Equal(t, 200, out.HTTPStatus)
}

func TestDispatch_UnknownCommand(t *testing.T) {
	f := newFixture(t, service.AuthorizationPolicy{})

	out := f.dispatcher.Dispatch(context.Background(), command("dance", "u1"))

	require.NotNil(t, out.Err)
	assert.Equal(t, model.ErrKindUnknownCommand, out.Err.Kind)
	assert.Contains(t, out.Content, "dance")
	assert.Equal(t, 200, out.HTTPStatus)
}

func TestDispatch_AddThenFindByUser(t *testing.T) {
	f := newFixture(t, service.AuthorizationPolicy{})
	ctx := context.Background()

	out := f.dispatcher.Dispatch(ctx, command(service.CommandAddChannel, "u1", opt("channel_id", "123")))

	assert.True(t, out.Succeeded())
	assert.Contains(t, out.Content, "123")

	subs, err := f.repo.FindByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "u1", subs[0].UserID)
	assert.Equal(t, "123", subs[0].ChannelID)
}

func TestDispatch_AddDuplicateIsAcknowledged(t *testing.T) {
	f := newFixture(t, service.AuthorizationPolicy{})
	ctx := context.Background()
	add := command(service.CommandAddChannel, "u1", opt("channel_id", "123"))

	f.dispatcher.Dispatch(ctx, add)
	out := f.dispatcher.Dispatch(ctx, add)

	assert.True(t, out.Succeeded())
	assert.Contains(t, out.Content, "already registered")
	subs, _ := f.repo.FindByUser(ctx, "u1")
	assert.Len(t, subs, 1)
}

func TestDispatch_AddMissingChannelID(t *testing.T) {
	f := newFixture(t, service.AuthorizationPolicy{})

	out := f.dispatcher.Dispatch(context.Background(), command(service.CommandAddChannel, "u1"))

	require.NotNil(t, out.Err)
	assert.Equal(t, model.ErrKindValidation, out.Err.Kind)
	assert.Zero(t, f.repo.callCount())
}

func TestDispatch_AddStoreFailureNamesChannel(t *testing.T) {
	f := newFixture(t, service.AuthorizationPolicy{})
	f.repo.addErr = errors.New("database is locked")

	out := f.dispatcher.Dispatch(context.Background(), command(service.CommandAddChannel, "u1", opt("channel_id", "777")))

	require.NotNil(t, out.Err)
	assert.Equal(t, model.ErrKindStore, out.Err.Kind)
	assert.Equal(t, "777", out.Err.ChannelID)
	assert.Contains(t, out.Content, "777")
	assert.Equal(t, 200, out.HTTPStatus)

	assert.Eventually(t, func() bool { return len(f.reporter.reported()) == 1 }, time.Second, 10*time.Millisecond)
}

func TestDispatch_RemoveNeverAddedIsNotFound(t *testing.T) {
	f := newFixture(t, service.AuthorizationPolicy{})
	ctx := context.Background()
	_, err := f.repo.Add(ctx, "u2", "999")
	require.NoError(t, err)

	out := f.dispatcher.Dispatch(ctx, command(service.CommandRemoveChannel, "u1", opt("channel_id", "123")))

	require.NotNil(t, out.Err)
	assert.Equal(t, model.ErrKindNotFound, out.Err.Kind)
	assert.Contains(t, out.Content, "No matching entry")
	assert.Len(t, f.repo.subs, 1, "store must be unchanged")
	assert.Empty(t, f.reporter.reported())
}

func TestDispatch_RemoveStoreFailureIsDistinctFromNotFound(t *testing.T) {
	f := newFixture(t, service.AuthorizationPolicy{})
	f.repo.findErr = errors.New("connection reset")

	out := f.dispatcher.Dispatch(context.Background(), command(service.CommandRemoveChannel, "u1", opt("channel_id", "123")))

	require.NotNil(t, out.Err)
	assert.Equal(t, model.ErrKindStore, out.Err.Kind)
	assert.Contains(t, out.Content, "Failed to remove channel 123")
}

func TestDispatch_PostWithoutContentNeverPublishes(t *testing.T) {
	f := newFixture(t, service.AuthorizationPolicy{})
	ctx := context.Background()
	_, _ = f.repo.Add(ctx, "u1", "123")

	out := f.dispatcher.Dispatch(ctx, command(service.CommandPost, "u1"))

	require.NotNil(t, out.Err)
	assert.Equal(t, model.ErrKindValidation, out.Err.Kind)
	assert.Equal(t, "Content is empty.", out.Content)
	assert.Empty(t, f.publisher.recorded())
}

func TestDispatch_PostWithZeroChannelsIsVacuousSuccess(t *testing.T) {
	f := newFixture(t, service.AuthorizationPolicy{})

	out := f.dispatcher.Dispatch(context.Background(), command(service.CommandPost, "u1", opt("content", "hello")))

	assert.True(t, out.Succeeded())
	assert.Contains(t, out.Content, "hello")
	assert.Empty(t, f.publisher.recorded())
}

func TestDispatch_PostPublishesToSubscribedChannels(t *testing.T) {
	f := newFixture(t, service.AuthorizationPolicy{})
	ctx := context.Background()
	_, _ = f.repo.Add(ctx, "u1", "123")
	_, _ = f.repo.Add(ctx, "u1", "456")
	_, _ = f.repo.Add(ctx, "u2", "789")

	out := f.dispatcher.Dispatch(ctx, command(service.CommandTimes, "u1", opt("content", "hello")))

	assert.True(t, out.Succeeded())
	assert.Contains(t, out.Content, "hello")
	calls := f.publisher.recorded()
	require.Len(t, calls, 1)
	assert.ElementsMatch(t, []string{"123", "456"}, calls[0].channels)
	assert.Equal(t, "hello", calls[0].content)
}

func TestDispatch_PostPartialFailure(t *testing.T) {
	f := newFixture(t, service.AuthorizationPolicy{})
	ctx := context.Background()
	_, _ = f.repo.Add(ctx, "u1", "A")
	_, _ = f.repo.Add(ctx, "u1", "B")
	f.publisher.failing["B"] = true

	out := f.dispatcher.Dispatch(ctx, command(service.CommandPost, "u1", opt("content", "hello")))

	require.NotNil(t, out.Err)
	assert.Equal(t, model.ErrKindPublish, out.Err.Kind)
	assert.Contains(t, out.Content, "1 of 2")
	assert.Contains(t, out.Content, "hello")

	var pubErr *model.PublishError
	require.ErrorAs(t, out.Err, &pubErr)
	require.Len(t, pubErr.Failed, 1)
	assert.Equal(t, "B", pubErr.Failed[0].ChannelID)

	assert.Eventually(t, func() bool { return len(f.reporter.reported()) == 1 }, time.Second, 10*time.Millisecond)
}

func TestDispatch_ShowChannels(t *testing.T) {
	f := newFixture(t, service.AuthorizationPolicy{})
	ctx := context.Background()

	empty := f.dispatcher.Dispatch(ctx, command(service.CommandShowChannels, "u1"))
	assert.Equal(t, "No channels registered.", empty.Content)

	_, _ = f.repo.Add(ctx, "u1", "123")
	_, _ = f.repo.Add(ctx, "u1", "456")
	out := f.dispatcher.Dispatch(ctx, command(service.CommandShowChannels, "u1"))

	assert.True(t, out.Succeeded())
	assert.Contains(t, out.Content, "123")
	assert.Contains(t, out.Content, "456")
}

func TestDispatch_AddPostRemoveScenario(t *testing.T) {
	f := newFixture(t, service.AuthorizationPolicy{})
	ctx := context.Background()

	f.dispatcher.Dispatch(ctx, command(service.CommandAddChannel, "u1", opt("channel_id", "123")))
	f.dispatcher.Dispatch(ctx, command(service.CommandPost, "u1", opt("content", "hello")))
	removed := f.dispatcher.Dispatch(ctx, command(service.CommandRemoveChannel, "u1", opt("channel_id", "123")))
	f.dispatcher.Dispatch(ctx, command(service.CommandPost, "u1", opt("content", "again")))

	assert.True(t, removed.Succeeded())
	calls := f.publisher.recorded()
	require.Len(t, calls, 1, "post after remove must not publish")
	assert.Equal(t, []string{"123"}, calls[0].channels)
}

func TestDispatch_AuthorizationGate(t *testing.T) {
	policy := service.AuthorizationPolicy{
		Enforce:          true,
		AuthorizedUserID: mo.Some("admin"),
		Commands:         []string{service.CommandAddChannel},
	}
	f := newFixture(t, policy)
	ctx := context.Background()

	denied := f.dispatcher.Dispatch(ctx, command(service.CommandAddChannel, "u1", opt("channel_id", "123")))
	require.NotNil(t, denied.Err)
	assert.Equal(t, model.ErrKindForbidden, denied.Err.Kind)
	assert.Zero(t, f.repo.callCount())

	allowed := f.dispatcher.Dispatch(ctx, command(service.CommandAddChannel, "admin", opt("channel_id", "123")))
	assert.True(t, allowed.Succeeded())

	ungated := f.dispatcher.Dispatch(ctx, command(service.CommandShowChannels, "u1"))
	assert.True(t, ungated.Succeeded())
}

func TestDispatch_StaticChannelsDisableManagement(t *testing.T) {
	publisher := &fakePublisher{failing: map[string]bool{}}
	d := service.NewDispatcher(service.DispatcherDeps{
		Channels:  service.NewStaticChannels([]string{"fixed"}),
		Publisher: publisher,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	ctx := context.Background()

	out := d.Dispatch(ctx, command(service.CommandPost, "anyone", opt("content", "hi")))
	assert.True(t, out.Succeeded())
	require.Len(t, publisher.recorded(), 1)
	assert.Equal(t, []string{"fixed"}, publisher.recorded()[0].channels)

	add := d.Dispatch(ctx, command(service.CommandAddChannel, "anyone", opt("channel_id", "1")))
	require.NotNil(t, add.Err)
	assert.Contains(t, add.Content, "disabled")
}

func TestDispatcher_Commands(t *testing.T) {
	f := newFixture(t, service.AuthorizationPolicy{})
	assert.ElementsMatch(t, []string{"post", "times", "add_channel_id", "remove_channel_id", "show_channel_id"}, f.dispatcher.Commands())
}
