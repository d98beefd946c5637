// Package livescore fetches raw live-score payloads from upstream scoring
// endpoints.
package livescore

import (
	"context"
	"fmt"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/courtsync/internal/platform/logging"
	"github.com/valyala/fasthttp"
)

var (
	// ErrTransient marks failures worth retrying: timeouts, connection
	// errors, 5xx, 408 and 429.
	ErrTransient = crerr.New("transient upstream failure")
	// ErrClientStatus marks terminal 4xx responses.
	ErrClientStatus = crerr.New("upstream rejected request")
)

const maxBodySize = 4 << 20

type Config struct {
	Timeout     time.Duration
	MaxAttempts int
	RetryDelay  time.Duration
	UserAgent   string
	Logger      *logging.Logger
	// OnFetch observes each Fetch call including its retries.
	OnFetch func(elapsed time.Duration, err error)
}

type Client struct {
	http        *fasthttp.Client
	timeout     time.Duration
	maxAttempts int
	retryDelay  time.Duration
	logger      *logging.Logger
	onFetch     func(time.Duration, error)
}

func NewClient(cfg Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryDelay < 0 {
		cfg.RetryDelay = 0
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "courtsync/1.0"
	}

	return &Client{
		http: &fasthttp.Client{
			Name:                cfg.UserAgent,
			MaxResponseBodySize: maxBodySize,
			ReadTimeout:         cfg.Timeout,
			WriteTimeout:        cfg.Timeout,
		},
		timeout:     cfg.Timeout,
		maxAttempts: cfg.MaxAttempts,
		retryDelay:  cfg.RetryDelay,
		logger:      logger.Named("livescore"),
		onFetch:     cfg.OnFetch,
	}
}

// Fetch performs an uncached GET with bounded retries. 4xx responses other
// than 408 and 429 are returned immediately.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	started := time.Now()
	body, err := c.fetch(ctx, url)
	if c.onFetch != nil {
		c.onFetch(time.Since(started), err)
	}
	return body, err
}

func (c *Client) fetch(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		body, err := c.do(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if crerr.Is(err, ErrClientStatus) {
			return nil, err
		}
		c.logger.DebugContext(ctx, "upstream fetch attempt failed", "url", url, "attempt", attempt, "error", err)

		if attempt == c.maxAttempts || c.retryDelay == 0 {
			continue
		}
		timer := time.NewTimer(c.retryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, crerr.Wrapf(lastErr, "fetch %s after %d attempts", url, c.maxAttempts)
}

func (c *Client) do(ctx context.Context, url string) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")
	req.Header.Set(fasthttp.HeaderCacheControl, "no-cache, no-store")
	req.Header.Set(fasthttp.HeaderPragma, "no-cache")

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return nil, context.DeadlineExceeded
	}

	if err := c.http.DoTimeout(req, resp, timeout); err != nil {
		return nil, crerr.Mark(crerr.Wrap(err, "send request"), ErrTransient)
	}

	status := resp.StatusCode()
	switch {
	case status >= 200 && status < 300:
		return append([]byte(nil), resp.Body()...), nil
	case status == fasthttp.StatusRequestTimeout, status == fasthttp.StatusTooManyRequests, status >= 500:
		return nil, crerr.Mark(statusError(status, resp.Body()), ErrTransient)
	default:
		return nil, crerr.Mark(statusError(status, resp.Body()), ErrClientStatus)
	}
}

func statusError(status int, body []byte) error {
	return crerr.Newf("upstream status=%d body=%s", status, abbreviate(body))
}

func abbreviate(body []byte) string {
	const limit = 256
	if len(body) <= limit {
		return string(body)
	}
	return fmt.Sprintf("%s...(%d bytes)", body[:limit], len(body))
}
