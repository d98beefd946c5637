package observability

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/riskibarqy/courtsync/internal/config"
	"github.com/riskibarqy/courtsync/internal/platform/logging"
	"github.com/riskibarqy/courtsync/internal/platform/resilience"
	"go.uber.org/zap/zapcore"
)

const defaultLogDrainTimeout = 5 * time.Second

// InitLogShipping tees the logger into an HTTP log intake such as Better
// Stack. Entries at or above LOG_SHIP_MIN_LEVEL are queued and posted one
// JSON object per request; when the queue is full entries are dropped, never
// blocking the caller. The returned func drains the queue.
func InitLogShipping(cfg config.Config, logger *logging.Logger) (*logging.Logger, func(context.Context) error, error) {
	if logger == nil {
		logger = logging.Default()
	}

	if !cfg.LogShipEnabled {
		logger.Info("log shipping disabled", "reason", "LOG_SHIP_ENABLED=false")
		return logger, func(context.Context) error { return nil }, nil
	}

	endpoint := normalizeLogEndpoint(cfg.LogShipEndpoint)
	if endpoint == "" {
		return nil, nil, fmt.Errorf("log shipping endpoint cannot be empty")
	}
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, nil, fmt.Errorf("parse LOG_SHIP_ENDPOINT: %w", err)
	}

	sink := newLogSink(logSinkConfig{
		Endpoint:  endpoint,
		Token:     cfg.LogShipToken,
		Timeout:   cfg.LogShipTimeout,
		QueueSize: cfg.LogShipQueueSize,
	})
	shipped := logger.Tee(zapcore.NewCore(logging.JSONEncoder(), sink, cfg.LogShipMinLevel))
	shipped.Info("log shipping enabled",
		"endpoint", endpoint,
		"min_level", cfg.LogShipMinLevel.String(),
	)

	return shipped, func(ctx context.Context) error {
		if ctx == nil {
			ctx = context.Background()
		}
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, defaultLogDrainTimeout)
			defer cancel()
		}
		if err := sink.Close(ctx); err != nil {
			return fmt.Errorf("drain log shipping queue: %w", err)
		}
		return nil
	}, nil
}

func normalizeLogEndpoint(raw string) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return ""
	}
	if strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") {
		return value
	}
	return "https://" + value
}

type logSinkConfig struct {
	Endpoint  string
	Token     string
	Timeout   time.Duration
	QueueSize int
	Stderr    io.Writer
}

// logSink is a zapcore.WriteSyncer that hands encoded entries to one
// background sender. Its own failures go to stderr since logging them would
// feed back into the queue.
type logSink struct {
	endpoint string
	token    string
	client   *http.Client
	breaker  *resilience.Breaker
	stderr   io.Writer

	queue     chan []byte
	queueMu   sync.RWMutex
	closed    atomic.Bool
	closeOnce sync.Once
	wg        sync.WaitGroup
	dropped   atomic.Uint64
}

func newLogSink(cfg logSinkConfig) *logSink {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 1024
	}
	if cfg.Stderr == nil {
		cfg.Stderr = os.Stderr
	}

	s := &logSink{
		endpoint: cfg.Endpoint,
		token:    strings.TrimSpace(cfg.Token),
		client:   &http.Client{Timeout: cfg.Timeout},
		breaker:  resilience.NewBreaker(resilience.DefaultCircuitBreakerConfig()),
		stderr:   cfg.Stderr,
		queue:    make(chan []byte, cfg.QueueSize),
	}
	s.wg.Add(1)
	go s.run()
	return s
}

func (s *logSink) Write(p []byte) (int, error) {
	payload := bytes.TrimSpace(p)
	if len(payload) == 0 {
		return len(p), nil
	}

	s.queueMu.RLock()
	defer s.queueMu.RUnlock()
	if s.closed.Load() {
		return len(p), nil
	}

	// zap reuses its buffer once Write returns.
	copied := make([]byte, len(payload))
	copy(copied, payload)

	select {
	case s.queue <- copied:
	default:
		s.drop("queue full")
	}
	return len(p), nil
}

func (s *logSink) Sync() error {
	return nil
}

func (s *logSink) Dropped() uint64 {
	return s.dropped.Load()
}

func (s *logSink) run() {
	defer s.wg.Done()
	for payload := range s.queue {
		s.send(payload)
	}
}

func (s *logSink) send(payload []byte) {
	err := s.breaker.Do(context.Background(), func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		if s.token != "" {
			req.Header.Set("Authorization", "Bearer "+s.token)
		}

		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)

		if resp.StatusCode >= http.StatusMultipleChoices {
			return fmt.Errorf("log intake status=%d", resp.StatusCode)
		}
		return nil
	})
	switch {
	case err == nil:
	case errors.Is(err, resilience.ErrCircuitOpen):
		s.drop("intake circuit open")
	default:
		s.drop(err.Error())
	}
}

// drop reports the first loss and then every hundredth.
func (s *logSink) drop(reason string) {
	dropped := s.dropped.Add(1)
	if dropped == 1 || dropped%100 == 0 {
		fmt.Fprintf(s.stderr, "log shipping dropped entries=%d reason=%s\n", dropped, reason)
	}
}

// Close stops accepting entries and waits for queued ones to be sent.
func (s *logSink) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.queueMu.Lock()
		s.closed.Store(true)
		close(s.queue)
		s.queueMu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
