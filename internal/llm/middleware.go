package llm

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Middleware decorates a Client.
type Middleware func(Client) Client

// Wrap applies middlewares in left-to-right order: Wrap(c, A, B) is A(B(c)).
func Wrap(inner Client, mws ...Middleware) Client {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

const defaultRetryDelay = 500 * time.Millisecond

// Retry makes up to maxAttempts calls with exponential backoff starting at
// baseDelay. Permanent errors and context cancellation stop it immediately.
func Retry(maxAttempts int, baseDelay time.Duration) Middleware {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = defaultRetryDelay
	}
	return func(next Client) Client {
		return &retrying{next: next, max: maxAttempts, base: baseDelay}
	}
}

type retrying struct {
	next Client
	max  int
	base time.Duration
}

func (r *retrying) Name() string { return r.next.Name() }

func (r *retrying) Generate(ctx context.Context, req Request) (Response, error) {
	var last error
	for i := 0; i < r.max; i++ {
		resp, err := r.next.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		if IsPermanent(err) {
			return Response{}, err
		}
		last = err
		if i == r.max-1 {
			break
		}
		delay := r.base * time.Duration(1<<i)
		log.Warn().Err(err).Str("client", r.next.Name()).Int("attempt", i+1).Dur("backoff", delay).Msg("llm: call failed, retrying")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return Response{}, ctx.Err()
		case <-timer.C:
		}
	}
	return Response{}, last
}

// Timeout bounds each call made through the client.
func Timeout(d time.Duration) Middleware {
	return func(next Client) Client {
		if d <= 0 {
			return next
		}
		return &timed{next: next, d: d}
	}
}

type timed struct {
	next Client
	d    time.Duration
}

func (t *timed) Name() string { return t.next.Name() }

func (t *timed) Generate(ctx context.Context, req Request) (Response, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.next.Generate(ctx, req)
}

// Logging records request sizes, durations and failures at debug level.
func Logging() Middleware {
	return func(next Client) Client {
		return &logging{next: next}
	}
}

type logging struct {
	next Client
}

func (l *logging) Name() string { return l.next.Name() }

func (l *logging) Generate(ctx context.Context, req Request) (Response, error) {
	start := time.Now()
	log.Debug().Str("client", l.next.Name()).Int("prompt_bytes", len(req.System)+len(req.Prompt)).Bool("json", req.JSON).Msg("llm: request")
	resp, err := l.next.Generate(ctx, req)
	ev := log.Debug()
	if err != nil {
		ev = log.Warn().Err(err)
	}
	ev.Str("client", l.next.Name()).Dur("elapsed", time.Since(start)).Int("response_bytes", len(resp.Text)).Msg("llm: response")
	return resp, err
}
