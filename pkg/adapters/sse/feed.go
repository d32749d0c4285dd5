// Package sse implements ports.ChangeFeed as a client of a server-sent event stream.
//
// Each event's data is a JSON encoded domain.ChangeEvent. Ping events and
// payloads that do not decode are skipped.
package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/aretw0/cardflow/internal/logging"
	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/ports"
	stream "github.com/r3labs/sse/v2"
	"gopkg.in/cenkalti/backoff.v1"
)

const (
	// DefaultRetry is the delay before reconnecting after the stream ends or fails.
	DefaultRetry = time.Second
	// DefaultMaxEventSize bounds a single event, data lines included.
	DefaultMaxEventSize = 1 << 20
)

// Feed subscribes to change events published at a URL.
type Feed struct {
	url          string
	client       *http.Client
	retry        time.Duration
	maxEventSize int
	logger       *slog.Logger
}

var _ ports.ChangeFeed = (*Feed)(nil)

// Option configures the Feed.
type Option func(*Feed)

// WithHTTPClient sets the client used for the stream request.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Feed) {
		f.client = c
	}
}

// WithRetry sets the reconnect delay. Zero disables reconnection.
func WithRetry(d time.Duration) Option {
	return func(f *Feed) {
		f.retry = d
	}
}

// WithMaxEventSize sets the largest event the reader accepts.
func WithMaxEventSize(n int) Option {
	return func(f *Feed) {
		f.maxEventSize = n
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Feed) {
		f.logger = logger
	}
}

// NewFeed creates a feed reading from url.
func NewFeed(url string, opts ...Option) *Feed {
	f := &Feed{
		url:          url,
		client:       http.DefaultClient,
		retry:        DefaultRetry,
		maxEventSize: DefaultMaxEventSize,
		logger:       logging.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Subscribe connects to the stream and delivers events to handler until unsubscribe is called
// or ctx is cancelled. Subscribe returns once the first connection is accepted, so a
// refused or failing stream surfaces here rather than in the background.
func (f *Feed) Subscribe(ctx context.Context, handler func(domain.ChangeEvent)) (func(), error) {
	ctx, cancel := context.WithCancel(ctx)

	first := make(chan error, 1)
	var settled sync.Once
	settle := func(err error) {
		settled.Do(func() { first <- err })
	}

	c := f.newClient(ctx, settle)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			// A stream closed cleanly by the server returns nil; failures are retried
			// by the client's backoff until ctx ends.
			err := c.SubscribeRawWithContext(ctx, func(msg *stream.Event) {
				f.dispatch(msg, handler)
			})
			settle(err)
			if ctx.Err() != nil || f.retry <= 0 {
				return
			}
			if err != nil {
				f.logger.WarnContext(ctx, "sse: stream failed", "url", f.url, "error", err)
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(f.retry):
			}
			f.logger.InfoContext(ctx, "sse: reconnecting", "url", f.url)
		}
	}()

	select {
	case err := <-first:
		if err != nil {
			cancel()
			<-done
			return nil, fmt.Errorf("sse: connect %s: %w", f.url, err)
		}
	case <-ctx.Done():
		cancel()
		<-done
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}, nil
}

// newClient builds the stream client. settle receives the outcome of the first attempt.
func (f *Feed) newClient(ctx context.Context, settle func(error)) *stream.Client {
	c := stream.NewClient(f.url, stream.ClientMaxBufferSize(f.maxEventSize))
	c.Connection = f.client
	c.Headers = map[string]string{"Cache-Control": "no-cache"}

	if f.retry > 0 {
		c.ReconnectStrategy = backoff.WithContext(backoff.NewConstantBackOff(f.retry), ctx)
	} else {
		c.ReconnectStrategy = &backoff.StopBackOff{}
	}
	c.ReconnectNotify = func(err error, next time.Duration) {
		settle(err)
		f.logger.WarnContext(ctx, "sse: reconnect scheduled", "url", f.url, "error", err, "in", next)
	}
	c.ResponseValidator = func(_ *stream.Client, resp *http.Response) error {
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			err := fmt.Errorf("unexpected status %s", resp.Status)
			settle(err)
			return err
		}
		settle(nil)
		return nil
	}
	return c
}

// dispatch decodes one event and hands it to handler.
func (f *Feed) dispatch(msg *stream.Event, handler func(domain.ChangeEvent)) {
	if len(msg.Data) == 0 || string(msg.Event) == "ping" {
		return
	}
	var ev domain.ChangeEvent
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		f.logger.Warn("sse: skipping malformed event", "error", err)
		return
	}
	if ev.VariableID == "" && ev.CanonicalID == "" {
		return
	}
	handler(ev)
}
