// Package redis carries back-channel logout notices over Redis pub/sub.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/two-shoulder/authsession/internal/ports"
)

// DefaultLogoutChannel is the pub/sub channel the backend publishes logouts on.
const DefaultLogoutChannel = "authsession:logout"

// LogoutListenerOptions configures a LogoutListener.
type LogoutListenerOptions struct {
	Client  redis.UniversalClient
	Channel string
	Logger  *slog.Logger
}

// LogoutListener subscribes to back-channel logout notices.
type LogoutListener struct {
	client  redis.UniversalClient
	channel string
	logger  *slog.Logger
}

// NewLogoutListener creates a LogoutListener. An empty channel uses DefaultLogoutChannel.
func NewLogoutListener(opts LogoutListenerOptions) (*LogoutListener, error) {
	if opts.Client == nil {
		return nil, errors.New("redis client is required")
	}
	channel := opts.Channel
	if channel == "" {
		channel = DefaultLogoutChannel
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &LogoutListener{
		client:  opts.Client,
		channel: channel,
		logger:  logger.With("component", "logout_listener", "channel", channel),
	}, nil
}

// Channel returns the subscribed channel name.
func (l *LogoutListener) Channel() string { return l.channel }

// Publish sends a logout notice. It returns the number of receivers.
func (l *LogoutListener) Publish(ctx context.Context, notice ports.LogoutNotice) (int64, error) {
	data, err := json.Marshal(notice)
	if err != nil {
		return 0, fmt.Errorf("marshal logout notice: %w", err)
	}
	n, err := l.client.Publish(ctx, l.channel, data).Result()
	if err != nil {
		return 0, fmt.Errorf("publish logout notice: %w", err)
	}
	return n, nil
}

// Listen subscribes and waits for the server to confirm the subscription, so
// notices published after Listen returns are not missed.
func (l *LogoutListener) Listen(ctx context.Context) (*LogoutStream, error) {
	ps := l.client.Subscribe(ctx, l.channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", l.channel, err)
	}
	l.logger.Info("listening for back-channel logouts")
	return &LogoutStream{ps: ps, logger: l.logger}, nil
}

// Run subscribes and serves notices to handle until ctx is done.
func (l *LogoutListener) Run(ctx context.Context, handle func(ports.LogoutNotice)) error {
	stream, err := l.Listen(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := stream.Close(); cerr != nil {
			l.logger.Warn("close logout subscription", "error", cerr)
		}
	}()
	return stream.Serve(ctx, handle)
}

// LogoutStream is an open subscription.
type LogoutStream struct {
	ps     *redis.PubSub
	logger *slog.Logger
}

// Serve decodes notices and passes them to handle until ctx is done or the stream
// is closed. Malformed payloads are logged and skipped.
func (s *LogoutStream) Serve(ctx context.Context, handle func(ports.LogoutNotice)) error {
	ch := s.ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var notice ports.LogoutNotice
			if err := json.Unmarshal([]byte(msg.Payload), &notice); err != nil {
				s.logger.Warn("discarding malformed logout notice", "error", err)
				continue
			}
			handle(notice)
		}
	}
}

// Close ends the subscription.
func (s *LogoutStream) Close() error {
	return s.ps.Close()
}
