package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/cardflow/internal/logging"
	"github.com/aretw0/cardflow/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// Feed implements ports.ChangeFeed over Redis pub/sub.
type Feed struct {
	client  *backend.Client
	channel string
	logger  *slog.Logger
}

// FeedOption configures the Feed.
type FeedOption func(*Feed)

// WithFeedPrefix selects the channel of a Store created with the same prefix.
func WithFeedPrefix(prefix string) FeedOption {
	return func(f *Feed) {
		f.channel = channelName(prefix)
	}
}

// WithFeedLogger sets the logger used for malformed messages.
func WithFeedLogger(logger *slog.Logger) FeedOption {
	return func(f *Feed) {
		f.logger = logger
	}
}

// NewFeed creates a change feed on client.
func NewFeed(client *backend.Client, opts ...FeedOption) *Feed {
	f := &Feed{
		client:  client,
		channel: channelName(defaultPrefix),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Subscribe delivers events until the returned function is called or ctx is done.
// It returns once the subscription is confirmed by the server.
func (f *Feed) Subscribe(ctx context.Context, handler func(domain.ChangeEvent)) (func(), error) {
	pubsub := f.client.Subscribe(ctx, f.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", f.channel, err)
	}

	done := make(chan struct{})
	var once sync.Once
	stop := func() {
		once.Do(func() {
			close(done)
			_ = pubsub.Close()
		})
	}

	go func() {
		ch := pubsub.Channel()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				stop()
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev domain.ChangeEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					f.logger.Warn("dropping malformed change event", "channel", f.channel, "error", err)
					continue
				}
				select {
				case <-done:
					return
				default:
				}
				handler(ev)
			}
		}
	}()
	return stop, nil
}
