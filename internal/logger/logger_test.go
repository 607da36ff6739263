package logger

import (
	"testing"

	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/Niiaks/Ledgerly/internal/config"
)

func TestGetPgxTraceLogLevel(t *testing.T) {
	tests := []struct {
		level zerolog.Level
		want  tracelog.LogLevel
	}{
		{zerolog.DebugLevel, tracelog.LogLevelDebug},
		{zerolog.InfoLevel, tracelog.LogLevelInfo},
		{zerolog.WarnLevel, tracelog.LogLevelWarn},
		{zerolog.ErrorLevel, tracelog.LogLevelError},
		{zerolog.Disabled, tracelog.LogLevelNone},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GetPgxTraceLogLevel(tt.level), tt.level.String())
	}
}

func TestNewLoggerWithServiceLevel(t *testing.T) {
	cfg := &config.ObservabilityConfig{
		ServiceName: "Ledgerly",
		Environment: "production",
		Logging:     config.LoggingConfig{Level: "warn", Format: "json"},
	}
	assert.Equal(t, zerolog.WarnLevel, NewLoggerWithService(cfg, nil).GetLevel())

	cfg.Logging.Level = "loud"
	assert.Equal(t, zerolog.InfoLevel, NewLoggerWithService(cfg, nil).GetLevel())
}

func TestNewWithoutLicenseSkipsNewRelic(t *testing.T) {
	ls := New(&config.ObservabilityConfig{ServiceName: "Ledgerly"})
	assert.Nil(t, ls.GetApplication())
	ls.Shutdown()
}
