package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"

	"github.com/Niiaks/Ledgerly/internal/config"
	loggerPkg "github.com/Niiaks/Ledgerly/internal/logger"
)

type Database struct {
	Pool *pgxpool.Pool
	log  *zerolog.Logger
}

const pingTimeout = 10 * time.Second

func New(cfg *config.Config, logger *zerolog.Logger, ls *loggerPkg.LoggerService) (*Database, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.Database.URL())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolCfg.MaxConns = int32(cfg.Database.MaxOpenConns)
	poolCfg.MinConns = int32(cfg.Database.MaxIdleConns)
	poolCfg.MaxConnLifetime = time.Duration(cfg.Database.ConnMaxLifetime) * time.Second
	poolCfg.MaxConnIdleTime = time.Duration(cfg.Database.ConnMaxIdleTime) * time.Second

	level := zerolog.InfoLevel
	if !cfg.Observability.IsProduction() {
		level = zerolog.DebugLevel
	}
	pgxLogger := loggerPkg.NewPgxLogger(level)
	poolCfg.ConnConfig.Tracer = &tracelog.TraceLog{
		Logger:   &queryLogger{log: pgxLogger, slow: cfg.Observability.Logging.SlowQueryThreshold},
		LogLevel: loggerPkg.GetPgxTraceLogLevel(level),
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info().
		Str("host", cfg.Database.Host).
		Str("database", cfg.Database.Name).
		Msg("Connected to Postgres successfully")

	return &Database{Pool: pool, log: logger}, nil
}

func (db *Database) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

func (db *Database) Close() {
	db.log.Info().Msg("Closing database connection pool")
	db.Pool.Close()
}

// queryLogger adapts pgx trace output to zerolog and raises slow queries to warn.
type queryLogger struct {
	log  zerolog.Logger
	slow time.Duration
}

func (l *queryLogger) Log(ctx context.Context, level tracelog.LogLevel, msg string, data map[string]any) {
	event := l.log.Debug()
	switch level {
	case tracelog.LogLevelError:
		event = l.log.Error()
	case tracelog.LogLevelWarn:
		event = l.log.Warn()
	case tracelog.LogLevelInfo:
		event = l.log.Info()
	}

	if d, ok := data["time"].(time.Duration); ok && l.slow > 0 && d >= l.slow {
		event = l.log.Warn().Bool("slow", true)
	}
	event.Fields(data).Msg(msg)
}
