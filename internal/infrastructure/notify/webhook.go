package notify

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/courtsync/internal/domain/court"
	"github.com/riskibarqy/courtsync/internal/platform/id"
	"github.com/riskibarqy/courtsync/internal/platform/logging"
	"github.com/riskibarqy/courtsync/internal/platform/resilience"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	SignatureHeader = "X-Courtsync-Signature"
	EventHeader     = "X-Courtsync-Event"
	DeliveryHeader  = "X-Courtsync-Delivery"
)

var (
	ErrWebhookRejected  = crerr.New("webhook rejected event")
	ErrWebhookTransient = crerr.New("webhook transient failure")
)

type WebhookConfig struct {
	URL            string
	Secret         string
	Timeout        time.Duration
	CircuitBreaker resilience.CircuitBreakerConfig
	// DeliveryIDs stamps each POST so receivers can drop duplicates.
	DeliveryIDs id.Generator
}

// WebhookNotifier POSTs each event as JSON. Deliveries go through a circuit
// breaker so a dead endpoint does not hold up the dispatcher.
type WebhookNotifier struct {
	client  *http.Client
	url     string
	secret  []byte
	breaker *resilience.Breaker
	ids     id.Generator
	logger  *logging.Logger
}

func NewWebhookNotifier(cfg WebhookConfig, logger *logging.Logger) (*WebhookNotifier, error) {
	target, err := validateWebhookURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	ids := cfg.DeliveryIDs
	if ids == nil {
		ids = id.NewRandomGenerator("dlv_")
	}

	return &WebhookNotifier{
		client:  &http.Client{Timeout: timeout},
		url:     target,
		secret:  []byte(strings.TrimSpace(cfg.Secret)),
		breaker: resilience.NewBreaker(cfg.CircuitBreaker),
		ids:     ids,
		logger:  logger,
	}, nil
}

func (n *WebhookNotifier) Notify(ctx context.Context, event court.Event) error {
	err := n.breaker.Do(ctx, func(ctx context.Context) error {
		return n.deliver(ctx, event)
	})
	if crerr.Is(err, resilience.ErrCircuitOpen) {
		n.logger.WarnContext(ctx, "webhook circuit open, event not delivered",
			"type", event.Type, "court_id", event.CourtID, "state", n.breaker.State())
	}
	return err
}

func (n *WebhookNotifier) deliver(ctx context.Context, event court.Event) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if err := sonic.ConfigDefault.NewEncoder(buf).Encode(event); err != nil {
		return crerr.Wrap(err, "encode webhook event")
	}

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("webhook.url", n.url),
			attribute.String("webhook.event_type", string(event.Type)),
			attribute.Int("webhook.court_id", event.CourtID),
		)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, strings.NewReader(buf.String()))
	if err != nil {
		return crerr.Wrap(err, "create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(EventHeader, string(event.Type))
	if deliveryID, err := n.ids.NewID(); err == nil {
		req.Header.Set(DeliveryHeader, deliveryID)
	}
	if len(n.secret) > 0 {
		req.Header.Set(SignatureHeader, Sign(n.secret, buf.B))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return crerr.Mark(crerr.Wrapf(err, "post webhook url=%s", n.url), ErrWebhookTransient)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode/100 == 2 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	err = crerr.Newf("webhook status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(raw)))
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return crerr.Mark(err, ErrWebhookTransient)
	}
	return crerr.Mark(err, ErrWebhookRejected)
}

// Sign returns the hex HMAC-SHA256 of body, prefixed the way receivers
// compare it.
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	_, _ = mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func validateWebhookURL(raw string) (string, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", crerr.New("webhook url is required")
	}
	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", crerr.Wrapf(err, "parse webhook url %q", candidate)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", crerr.Newf("webhook url %q uses unsupported scheme=%q", candidate, parsed.Scheme)
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return "", crerr.Newf("webhook url %q has empty host", candidate)
	}
	return candidate, nil
}
