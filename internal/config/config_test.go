package config

import (
	"testing"
	"time"

	"github.com/riskibarqy/courtsync/internal/domain/court"
	"github.com/riskibarqy/courtsync/internal/platform/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// baseEnv pins every toggle so the host environment cannot leak into a case.
func baseEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV", "APP_LOG_LEVEL", "CORS_ALLOWED_ORIGINS", "APP_CONTROL_TOKEN",
		"COURT_COUNT", "COURT_MAP", "POLL_INTERVAL", "POLL_STAGGER", "STORAGE_DRIVER", "DB_URL",
		"WEBHOOK_ENABLED", "WEBHOOK_URL", "REDIS_ENABLED", "REDIS_ADDR",
		"UPTRACE_ENABLED", "UPTRACE_DSN", "UPTRACE_LOGS_ENABLED", "OTEL_EXPORTER_OTLP_HEADERS",
		"PYROSCOPE_ENABLED", "PYROSCOPE_SERVER_ADDRESS", "PYROSCOPE_APP_NAME",
		"PPROF_ENABLED", "PPROF_ADDR", "CACHE_TTL", "FETCH_MAX_ATTEMPTS",
		"LOG_SHIP_ENABLED", "LOG_SHIP_ENDPOINT", "LOG_SHIP_MIN_LEVEL", "LOG_SHIP_QUEUE_SIZE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	baseEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDev, cfg.AppEnv)
	assert.Equal(t, "courtsync", cfg.ServiceName)
	assert.Equal(t, logging.LevelInfo, cfg.LogLevel)
	assert.Equal(t, 10, cfg.CourtCount)
	assert.Equal(t, 2500*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 250*time.Millisecond, cfg.PollStagger)
	assert.Equal(t, 15*time.Minute, cfg.StaleTimeout)
	assert.Equal(t, 3*time.Minute, cfg.PostMatchHold)
	assert.Equal(t, 50, cfg.ChangeLogSize)
	assert.Equal(t, time.Second, cfg.CacheTTL)
	assert.Equal(t, 3, cfg.FetchMaxAttempts)
	assert.Equal(t, StorageMemory, cfg.StorageDriver)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Empty(t, cfg.CourtMap)
	assert.Empty(t, cfg.ControlToken)
	assert.True(t, cfg.DBDisablePreparedBinary)
	assert.False(t, cfg.WebhookEnabled)
	assert.Equal(t, "courtsync", cfg.PyroscopeAppName)
}

func TestLoad_AppEnvValidation(t *testing.T) {
	baseEnv(t)
	t.Setenv("APP_ENV", "invalid")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_LogLevelValidation(t *testing.T) {
	baseEnv(t)
	t.Setenv("APP_LOG_LEVEL", "loud")

	_, err := Load()
	assert.ErrorContains(t, err, "APP_LOG_LEVEL")
}

func TestLoad_EngineTimings(t *testing.T) {
	baseEnv(t)
	t.Setenv("COURT_COUNT", "4")
	t.Setenv("POLL_INTERVAL", "1s")
	t.Setenv("POLL_STAGGER", "0s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.CourtCount)
	assert.Equal(t, time.Second, cfg.PollInterval)
	assert.Zero(t, cfg.PollStagger)
}

func TestLoad_RejectsBadNumbers(t *testing.T) {
	cases := map[string]struct {
		key   string
		value string
		want  string
	}{
		"zero courts":        {key: "COURT_COUNT", value: "0", want: "COURT_COUNT must be >= 1"},
		"non numeric courts": {key: "COURT_COUNT", value: "ten", want: "parse COURT_COUNT"},
		"zero poll interval": {key: "POLL_INTERVAL", value: "0s", want: "POLL_INTERVAL must be > 0"},
		"bad duration":       {key: "CACHE_TTL", value: "soon", want: "parse CACHE_TTL"},
		"negative stagger":   {key: "POLL_STAGGER", value: "-1s", want: "POLL_STAGGER must be >= 0"},
		"zero attempts":      {key: "FETCH_MAX_ATTEMPTS", value: "0", want: "FETCH_MAX_ATTEMPTS must be >= 1"},
		"bad bool":           {key: "WEBHOOK_ENABLED", value: "maybe", want: "parse WEBHOOK_ENABLED"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			baseEnv(t)
			t.Setenv(tc.key, tc.value)

			_, err := Load()
			assert.ErrorContains(t, err, tc.want)
		})
	}
}

func TestLoad_CourtMapParsing(t *testing.T) {
	baseEnv(t)
	t.Setenv("COURT_COUNT", "3")
	t.Setenv("COURT_MAP", "Court  One:1, center court:3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []court.Mapping{
		{Label: "court one", CourtID: 1},
		{Label: "center court", CourtID: 3},
	}, cfg.CourtMap)
}

func TestLoad_CourtMapRejectsOutOfRangeCourt(t *testing.T) {
	baseEnv(t)
	t.Setenv("COURT_COUNT", "2")
	t.Setenv("COURT_MAP", "court one:5")

	_, err := Load()
	assert.ErrorContains(t, err, "COURT_COUNT=2")
}

func TestLoad_CourtMapRejectsMalformedEntry(t *testing.T) {
	baseEnv(t)
	t.Setenv("COURT_MAP", "court one")

	_, err := Load()
	assert.ErrorContains(t, err, "parse COURT_MAP")
}

func TestLoad_StorageDriver(t *testing.T) {
	baseEnv(t)
	t.Setenv("STORAGE_DRIVER", "Postgres")
	t.Setenv("DB_URL", "postgres://u:p@db:5432/courtsync")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoragePostgres, cfg.StorageDriver)
	assert.Equal(t, "postgres://u:p@db:5432/courtsync", cfg.DBURL)

	t.Setenv("STORAGE_DRIVER", "sqlite")
	_, err = Load()
	assert.ErrorContains(t, err, "invalid STORAGE_DRIVER")
}

func TestLoad_WebhookRequiresURLWhenEnabled(t *testing.T) {
	baseEnv(t)
	t.Setenv("WEBHOOK_ENABLED", "true")

	_, err := Load()
	assert.ErrorContains(t, err, "WEBHOOK_URL")

	t.Setenv("WEBHOOK_URL", "https://hooks.example.com/court")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.WebhookEnabled)
	assert.Equal(t, 5*time.Second, cfg.WebhookTimeout)
	assert.True(t, cfg.WebhookCircuitEnabled)
}

func TestLoad_LogShipping(t *testing.T) {
	baseEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.LogShipEnabled)
	assert.Equal(t, logging.LevelWarn, cfg.LogShipMinLevel)
	assert.Equal(t, 3*time.Second, cfg.LogShipTimeout)
	assert.Equal(t, 1024, cfg.LogShipQueueSize)

	t.Setenv("LOG_SHIP_ENABLED", "true")
	_, err = Load()
	assert.ErrorContains(t, err, "LOG_SHIP_ENDPOINT")

	t.Setenv("LOG_SHIP_ENDPOINT", "in.logs.betterstack.com")
	t.Setenv("LOG_SHIP_MIN_LEVEL", "error")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, logging.LevelError, cfg.LogShipMinLevel)

	t.Setenv("LOG_SHIP_MIN_LEVEL", "chatty")
	_, err = Load()
	assert.ErrorContains(t, err, "LOG_SHIP_MIN_LEVEL")
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	baseEnv(t)
	t.Setenv("UPTRACE_ENABLED", "true")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_UptraceDSNFromOTLPHeaders(t *testing.T) {
	baseEnv(t)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "x-other=1, uptrace-dsn='https://token@api.uptrace.dev/1'")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://token@api.uptrace.dev/1", cfg.UptraceDSN)
	assert.False(t, cfg.UptraceLogsEnabled)

	t.Setenv("UPTRACE_LOGS_ENABLED", "true")
	cfg, err = Load()
	require.NoError(t, err)
	assert.True(t, cfg.UptraceLogsEnabled)
}

func TestLoad_PyroscopeRequiresServerAddressWhenEnabled(t *testing.T) {
	baseEnv(t)
	t.Setenv("PYROSCOPE_ENABLED", "true")

	_, err := Load()
	assert.ErrorContains(t, err, "PYROSCOPE_SERVER_ADDRESS")
}

func TestLoad_PprofDefaultsAddrWhenEnabled(t *testing.T) {
	baseEnv(t)
	t.Setenv("PPROF_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":6060", cfg.PprofAddr)
}

func TestLoad_CORSOriginsParsing(t *testing.T) {
	baseEnv(t)
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example.com, ,https://b.example.com ")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSAllowedOrigins)

	t.Setenv("CORS_ALLOWED_ORIGINS", " , ")
	_, err = Load()
	assert.ErrorContains(t, err, "CORS_ALLOWED_ORIGINS")
}
