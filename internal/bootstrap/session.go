package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/two-shoulder/authsession/config"
	"github.com/two-shoulder/authsession/internal/adapters/httpauth"
	redisadapter "github.com/two-shoulder/authsession/internal/adapters/redis"
	"github.com/two-shoulder/authsession/internal/observability/statsd"
	"github.com/two-shoulder/authsession/internal/ports"
	"github.com/two-shoulder/authsession/internal/service"
)

// SessionDeps contains the inputs for wiring a session.
type SessionDeps struct {
	Config config.AppConfig
	Logger *slog.Logger
	// Clients overrides the configured identity client factory.
	Clients ports.IdentityClientFactory
}

// SessionContainer holds the wired session and its collaborators.
type SessionContainer struct {
	Manager *service.SessionManager
	// HTTP authorizes outgoing requests with the session token.
	HTTP    *httpauth.Client
	Metrics *statsd.Client
}

// Close releases resources held by the container.
func (c *SessionContainer) Close() error {
	if c == nil {
		return nil
	}
	return c.Metrics.Close()
}

// BuildSessionManager wires the identity client factory, claim parser, permission
// resolver, metrics, and request layer into a SessionManager.
func BuildSessionManager(deps SessionDeps) (*SessionContainer, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config

	parser, err := BuildClaimsParser(cfg.Claims)
	if err != nil {
		return nil, fmt.Errorf("claims parser: %w", err)
	}

	clients := deps.Clients
	if clients == nil {
		clients, err = BuildIdentityClientFactory(IdentityConfig{
			Auth:     cfg.Auth,
			Claims:   parser,
			AllowDev: cfg.IsDev,
			Logger:   logger,
		})
		if err != nil {
			return nil, err
		}
	}

	metricsClient := BuildMetrics(logger, cfg.Observability.Metrics, cfg.Auth.Mode)
	sessionCfg := service.SessionConfig{
		RefreshInterval: cfg.Session.RefreshInterval,
		MinValidity:     cfg.Session.MinValidity,
		SkipProfile:     !cfg.Session.LoadProfile,
		Logger:          logger,
	}
	if metricsClient != nil {
		sessionCfg.Metrics = metricsClient
	}

	manager := service.NewSessionManager(service.SessionManagerOptions{
		Clients:  clients,
		Resolver: BuildResolver(cfg.Roles),
		Config:   sessionCfg,
	})

	httpClient := httpauth.NewClient(httpauth.ClientOptions{Logger: logger})
	manager.RegisterRequestAuth(httpClient)

	return &SessionContainer{Manager: manager, HTTP: httpClient, Metrics: metricsClient}, nil
}

// BuildMetrics returns a StatsD client tagged with the auth mode, or nil when
// metrics are disabled or the sink cannot be reached.
func BuildMetrics(logger *slog.Logger, cfg config.ObservabilityMetricsConfig, mode config.AuthMode) *statsd.Client {
	if !cfg.IsEnabled() {
		return nil
	}
	client, err := statsd.NewClient(statsd.Config{
		Enabled: true,
		Address: cfg.StatsdAddress,
		Prefix:  cfg.Prefix,
		Tags:    map[string]string{"auth_mode": string(mode)},
		Logger:  logger,
	})
	if err != nil {
		logger.Error("failed to initialise statsd client", "error", err)
		return nil
	}
	return client
}

// RunLogoutListener connects to Redis and ends the session whenever a logout
// notice for its subject arrives. It blocks until ctx is done.
func RunLogoutListener(ctx context.Context, cfg config.AppConfig, manager *service.SessionManager, logger *slog.Logger) error {
	client, err := ConnectRedis(ctx, cfg.Redis, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := client.Close(); cerr != nil {
			logger.Warn("close redis client", "error", cerr)
		}
	}()

	listener, err := redisadapter.NewLogoutListener(redisadapter.LogoutListenerOptions{
		Client:  client,
		Channel: cfg.LogoutChannel,
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	return listener.Run(ctx, func(n ports.LogoutNotice) {
		if manager.HandleRemoteLogout(n.Subject) {
			logger.Info("session ended by back-channel logout", "subject", n.Subject)
		}
	})
}
