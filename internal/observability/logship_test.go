package observability

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/courtsync/internal/config"
	"github.com/riskibarqy/courtsync/internal/platform/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type logIntake struct {
	mu     sync.Mutex
	bodies []string
	auth   string
	status int
}

func newLogIntake(t *testing.T, status int) (*logIntake, *httptest.Server) {
	t.Helper()

	intake := &logIntake{status: status}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		intake.mu.Lock()
		intake.bodies = append(intake.bodies, string(body))
		intake.auth = r.Header.Get("Authorization")
		intake.mu.Unlock()
		w.WriteHeader(intake.status)
	}))
	t.Cleanup(server.Close)
	return intake, server
}

func (i *logIntake) snapshot() ([]string, string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]string(nil), i.bodies...), i.auth
}

func TestInitLogShipping_Disabled(t *testing.T) {
	base := logging.NewNop()

	logger, shutdown, err := InitLogShipping(config.Config{}, base)
	require.NoError(t, err)
	assert.Same(t, base, logger)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitLogShipping_ShipsEntriesAtMinLevel(t *testing.T) {
	intake, server := newLogIntake(t, http.StatusAccepted)

	cfg := config.Config{
		LogShipEnabled:   true,
		LogShipEndpoint:  server.URL,
		LogShipToken:     "ship-token",
		LogShipTimeout:   2 * time.Second,
		LogShipMinLevel:  logging.LevelWarn,
		LogShipQueueSize: 16,
	}
	logger, shutdown, err := InitLogShipping(cfg, logging.New(logging.LevelDebug, io.Discard))
	require.NoError(t, err)

	logger.Info("court started", "court_id", 1)
	logger.Warn("poll failed", "court_id", 2)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, shutdown(ctx))

	bodies, auth := intake.snapshot()
	require.Len(t, bodies, 1)
	assert.Contains(t, bodies[0], `"msg":"poll failed"`)
	assert.Contains(t, bodies[0], `"court_id":2`)
	assert.Equal(t, "Bearer ship-token", auth)

	logger.Error("after shutdown")
	bodies, _ = intake.snapshot()
	assert.Len(t, bodies, 1)
}

func TestInitLogShipping_RejectsBadEndpoint(t *testing.T) {
	cfg := config.Config{LogShipEnabled: true, LogShipEndpoint: "http://%zz"}

	_, _, err := InitLogShipping(cfg, logging.NewNop())
	assert.ErrorContains(t, err, "LOG_SHIP_ENDPOINT")
}

func TestLogSink_CountsFailedDeliveries(t *testing.T) {
	intake, server := newLogIntake(t, http.StatusInternalServerError)

	var stderr bytes.Buffer
	sink := newLogSink(logSinkConfig{Endpoint: server.URL, QueueSize: 16, Stderr: &stderr})
	for range 8 {
		_, err := sink.Write([]byte(`{"msg":"persist courts failed"}` + "\n"))
		require.NoError(t, err)
	}
	require.NoError(t, sink.Close(context.Background()))

	bodies, _ := intake.snapshot()
	assert.Len(t, bodies, 5, "the breaker stops posting after five failures")
	assert.Equal(t, uint64(8), sink.Dropped())
	assert.Contains(t, stderr.String(), "log shipping dropped entries=1")
}

func TestNormalizeLogEndpoint(t *testing.T) {
	tests := map[string]string{
		"":                            "",
		"  in.logs.example.com ":      "https://in.logs.example.com",
		"http://localhost:9000/logs":  "http://localhost:9000/logs",
		"https://in.logs.example.com": "https://in.logs.example.com",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizeLogEndpoint(in), in)
	}
}
