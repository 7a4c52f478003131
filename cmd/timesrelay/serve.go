package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/mo"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/jonny/times-relay/internal/adapter/inbound/webhook"
	"github.com/jonny/times-relay/internal/adapter/inbound/webhook/middleware"
	"github.com/jonny/times-relay/internal/adapter/outbound/discord"
	"github.com/jonny/times-relay/internal/adapter/outbound/notification"
	slackreporter "github.com/jonny/times-relay/internal/adapter/outbound/notification/slack"
	"github.com/jonny/times-relay/internal/adapter/outbound/persistence"
	"github.com/jonny/times-relay/internal/adapter/outbound/persistence/memory"
	"github.com/jonny/times-relay/internal/adapter/outbound/persistence/postgres"
	"github.com/jonny/times-relay/internal/adapter/outbound/persistence/sqlite"
	"github.com/jonny/times-relay/internal/config"
	"github.com/jonny/times-relay/internal/domain/port/outbound"
	"github.com/jonny/times-relay/internal/domain/service"
	"github.com/jonny/times-relay/pkg/health"
	"github.com/jonny/times-relay/pkg/logging"
	"github.com/jonny/times-relay/pkg/version"
)

const readinessTimeout = 3 * time.Second

func serve(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	logger := buildLogger(cfg.Logging)
	slog.SetDefault(logger)

	publicKey, err := middleware.ParsePublicKey(cfg.Discord.PublicKey)
	if err != nil {
		return fmt.Errorf("discord.publicKey: %w", err)
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
	checker := health.NewChecker().WithTimeout(readinessTimeout)
	var subscriptions outbound.SubscriptionRepository
	if cfg.Relay.Mode == config.ModeSubscriptions {
		st, err := openStorage(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer st.close()
		subscriptions = persistence.Instrument(st.repo)
		checker.Register("database", st.ping)
		logger.Info("subscription store ready", "driver", cfg.Database.Driver)
	} else {
		logger.Info("static relay mode, channel management disabled", "channels", len(cfg.Relay.Channels))
	}

	// --- Outbound adapters ---
	publisher, err := discord.NewPublisher(discord.Config{
		BotToken:       cfg.Discord.BotToken,
		RequestTimeout: cfg.Discord.RequestTimeout,
		MaxConcurrent:  cfg.Discord.MaxConcurrentPosts,
	}, logger.With("component", "publisher"))
	if err != nil {
		return err
	}

	reporter, err := buildReporter(cfg.Reporting, logger)
	if err != nil {
		return err
	}

	// --- Domain ---
	dispatcher := service.NewDispatcher(service.DispatcherDeps{
		Subscriptions: subscriptions,
		Channels:      buildChannels(cfg.Relay, subscriptions),
		Publisher:     publisher,
		Reporter:      reporter,
		Authorizer:    service.NewAuthorizer(buildPolicy(cfg.Authorization)),
		Logger:        logger.With("component", "dispatcher"),
	})

	// --- Inbound ---
	webhookServer := webhook.NewServer(webhook.ServerConfig{
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, webhook.NewHandler(dispatcher, logger.With("component", "webhook")), publicKey, logger)

	// --- Metrics server ---
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler: newOpsMux(checker),
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return webhookServer.Start(gCtx)
	})

	if cfg.Server.MetricsPort > 0 {
		g.Go(func() error {
			logger.Info("starting metrics server", "port", cfg.Server.MetricsPort)
			errCh := make(chan error, 1)
			go func() {
				if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()
			select {
			case <-gCtx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
				defer cancel()
				return metricsServer.Shutdown(shutdownCtx)
			case err := <-errCh:
				return err
			}
		})
	}

	logger.Info("timesrelay started", "version", version.String(), "mode", cfg.Relay.Mode)

	if err := g.Wait(); err != nil {
		logger.Error("server exited with error", "error", err)
		return err
	}
	logger.Info("timesrelay stopped")
	return nil
}

// newOpsMux serves health, build info and Prometheus metrics on the side port.
func newOpsMux(checker *health.Checker) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", checker.LivenessHandler())
	mux.HandleFunc("/readyz", checker.ReadinessHandler())
	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(version.Get())
	})
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

type storage struct {
	repo  outbound.SubscriptionRepository
	ping  health.CheckFunc
	close func() error
}

// openStorage opens the configured subscription store and applies migrations.
func openStorage(ctx context.Context, cfg config.DatabaseConfig) (*storage, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		store, err := sqlite.NewStore(sqlite.Config{
			Path:              cfg.SQLite.Path,
			MaxOpenConns:      cfg.SQLite.MaxOpenConns,
			PragmaJournalMode: cfg.SQLite.PragmaJournalMode,
			PragmaBusyTimeout: cfg.SQLite.PragmaBusyTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		return &storage{repo: sqlite.NewSubscriptionRepo(store), ping: store.Ping, close: store.Close}, nil

	case config.DriverPostgres:
		pg := cfg.Postgres
		dsn := pg.URL
		if !pg.HasURL() {
			dsn = postgres.Config{
				Host:     pg.Host,
				Port:     pg.Port,
				User:     pg.User,
				Password: pg.Password,
				Database: pg.Database,
				SSLMode:  pg.SSLMode,
			}.DSN()
		}
		store, err := postgres.Open(ctx, dsn, pg.MaxConns, pg.ConnMaxLifetime)
		if err != nil {
			return nil, fmt.Errorf("opening postgres store: %w", err)
		}
		return &storage{repo: postgres.NewSubscriptionRepo(store), ping: store.Ping, close: store.Close}, nil

	case config.DriverMemory:
		return &storage{
			repo:  memory.NewSubscriptionRepo(),
			ping:  func(context.Context) error { return nil },
			close: func() error { return nil },
		}, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// buildChannels picks the channel resolution strategy for the relay mode.
func buildChannels(cfg config.RelayConfig, subscriptions outbound.SubscriptionRepository) outbound.ChannelResolver {
	if cfg.Mode == config.ModeStatic || subscriptions == nil {
		return service.NewStaticChannels(cfg.Channels)
	}
	return service.NewSubscriptionChannels(subscriptions)
}

func buildReporter(cfg config.ReportingConfig, logger *slog.Logger) (outbound.FailureReporter, error) {
	if !cfg.Slack.Enabled {
		return notification.NewLogReporter(logger.With("component", "reporter")), nil
	}
	return slackreporter.NewReporter(slackreporter.Config{
		BotToken: cfg.Slack.BotToken,
		Channel:  cfg.Slack.Channel,
		APIURL:   cfg.Slack.APIURL,
	})
}

func buildPolicy(cfg config.AuthorizationConfig) service.AuthorizationPolicy {
	return service.AuthorizationPolicy{
		Enforce:          cfg.Enforce,
		AuthorizedUserID: mo.EmptyableToOption(cfg.AuthorizedUserID),
		Commands:         cfg.Commands,
	}
}

// buildLogger constructs a slog.Logger based on config.
func buildLogger(cfg config.LoggingConfig) *slog.Logger {
	var out io.Writer = os.Stdout
	if cfg.Output == "stderr" {
		out = os.Stderr
	}
	return logging.New(cfg.Level, cfg.Format, out)
}
