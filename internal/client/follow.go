package client

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/raphaelgruber/recipebox/internal/service"
)

// FollowOptions tunes how Follow reconnects.
type FollowOptions struct {
	// MaxElapsed bounds the time spent reconnecting without receiving an
	// event. Zero means retry until ctx is cancelled.
	MaxElapsed time.Duration
	// InitialInterval is the first reconnect delay. Defaults to 500ms.
	InitialInterval time.Duration
	// OnReconnect is called before each reconnect attempt.
	OnReconnect func(err error, wait time.Duration)
}

var errFeedClosed = errors.New("event feed closed by server")

// Follow is Watch that reconnects with exponential backoff when the server
// is unreachable or drops the feed. Client errors such as an unknown recipe
// and errors returned from onEvent end it immediately.
func (c *Client) Follow(ctx context.Context, recipeID string, opts FollowOptions, onEvent func(service.Event) error) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = opts.MaxElapsed
	if opts.InitialInterval > 0 {
		bo.InitialInterval = opts.InitialInterval
	}

	var stopped bool
	var handlerErr error
	handle := func(evt service.Event) error {
		// A delivered event means the connection is healthy again.
		bo.Reset()
		err := onEvent(evt)
		switch {
		case errors.Is(err, ErrStopWatching):
			stopped = true
		case err != nil:
			handlerErr = err
		}
		return err
	}

	op := func() error {
		err := c.Watch(ctx, recipeID, handle)
		switch {
		case stopped:
			return nil
		case handlerErr != nil:
			return backoff.Permanent(handlerErr)
		case ctx.Err() != nil:
			return backoff.Permanent(ctx.Err())
		case err == nil:
			return errFeedClosed
		case isClientError(err):
			return backoff.Permanent(err)
		default:
			return err
		}
	}

	notify := func(err error, wait time.Duration) {
		if opts.OnReconnect != nil {
			opts.OnReconnect(err, wait)
		}
	}
	return backoff.RetryNotify(op, backoff.WithContext(bo, ctx), notify)
}

// isClientError reports whether the server rejected the request itself.
func isClientError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode < 500
}
