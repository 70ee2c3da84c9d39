package fetch

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/samvad-hq/samvad-comment-ingestor/internal/auth"
	"github.com/samvad-hq/samvad-comment-ingestor/internal/domain"
	"github.com/samvad-hq/samvad-comment-ingestor/internal/events"
	"github.com/samvad-hq/samvad-comment-ingestor/pkg/httpclient"
)

// maxReauths bounds automatic re-authentication to one retry per cycle, so a
// pathological upstream that answers 401 with a fresh token cannot loop.
const maxReauths = 1

// Fetcher issues one authenticated upstream request per cycle and turns the
// response into a batch of raw comments. It never returns an error: every
// failure is emitted on the event bus and degrades to an empty batch, keeping
// the polling loop alive.
type Fetcher struct {
	client     httpclient.Client
	auth       *auth.Manager
	bus        *events.Bus
	limiter    *rate.Limiter
	commentURL string
}

// afterFilter is the request body when a watermark exists, limiting the
// response to content newer than the previous cycle.
type afterFilter struct {
	After int64 `json:"after"`
}

// NewFetcher wires a fetcher for the given comments endpoint.
func NewFetcher(client httpclient.Client, mgr *auth.Manager, bus *events.Bus, commentURL string, rps float64) *Fetcher {
	if rps <= 0 {
		rps = 1
	}
	return &Fetcher{
		client:     client,
		auth:       mgr,
		bus:        bus,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		commentURL: commentURL,
	}
}

// FetchBatch retrieves all comments authored after since. A zero since means
// no watermark yet and requests the full window. The returned slice is never
// nil on the success path; on any failure it is empty.
func (f *Fetcher) FetchBatch(ctx context.Context, since time.Time) []domain.RawComment {
	var body any
	if !since.IsZero() {
		body = afterFilter{After: since.UnixMilli()}
	}

	for reauths := 0; ; reauths++ {
		token, ok := f.auth.Current()
		if !ok {
			if err := f.auth.Login(ctx); err != nil {
				f.bus.Emit(events.NameAuthError, fmt.Errorf("login: %w", err))
				return nil
			}
			token, _ = f.auth.Current()
		}

		if err := f.limiter.Wait(ctx); err != nil {
			f.bus.Emit(events.NameTransportError, fmt.Errorf("rate limit wait: %w", err))
			return nil
		}

		headers := map[string]string{"Authorization": "Bearer " + token}
		resp, err := f.client.Post(ctx, f.commentURL, headers, body)
		if err != nil {
			f.bus.Emit(events.NameTransportError, fmt.Errorf("fetch comments: %w", err))
			return nil
		}

		switch code := resp.StatusCode(); {
		case code == http.StatusUnauthorized:
			f.auth.Invalidate()
			if reauths >= maxReauths {
				f.bus.Emit(events.NameAuthError, fmt.Errorf("token rejected after re-authentication"))
				return nil
			}
			continue
		case code != http.StatusOK:
			f.bus.Emit(events.NameProtocolError, &StatusError{Code: code})
			return nil
		}

		items, err := parseBatch(resp.Body())
		if err != nil {
			f.bus.Emit(events.NameProtocolError, err)
			return nil
		}
		return items
	}
}
