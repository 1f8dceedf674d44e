package db

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quads-bot/internal/config"
)

func TestApplyPoolSettings(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Host: "localhost", Port: 5432, User: "u", Password: "p", Name: "quadsbot",
		PoolSize: 8,
	}
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	require.NoError(t, err)

	applyPoolSettings(poolConfig, cfg)

	assert.Equal(t, int32(8), poolConfig.MaxConns)
	assert.Equal(t, int32(2), poolConfig.MinConns)
	assert.Equal(t, 10*time.Second, poolConfig.ConnConfig.ConnectTimeout)
	assert.Equal(t, time.Hour, poolConfig.MaxConnLifetime)
	assert.Equal(t, 30*time.Minute, poolConfig.MaxConnIdleTime)

	cfg.PoolSize = 0
	cfg.MaxConnLifetime = 5 * time.Minute
	applyPoolSettings(poolConfig, cfg)

	assert.Equal(t, int32(1), poolConfig.MaxConns)
	assert.Equal(t, int32(1), poolConfig.MinConns)
	assert.Equal(t, 5*time.Minute, poolConfig.MaxConnLifetime)
}

type recordingExecer struct {
	statements []string
	failAt     int
}

func (r *recordingExecer) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	r.statements = append(r.statements, sql)
	if r.failAt > 0 && len(r.statements) == r.failAt {
		return pgconn.CommandTag{}, assert.AnError
	}
	return pgconn.CommandTag{}, nil
}

func TestMigrate(t *testing.T) {
	rec := &recordingExecer{}
	require.NoError(t, Migrate(context.Background(), rec))

	require.Len(t, rec.statements, len(migrations))
	assert.Contains(t, rec.statements[0], "CREATE TABLE IF NOT EXISTS users")
	assert.Contains(t, rec.statements[0], "check_id_cache TEXT[]")
	assert.Contains(t, rec.statements[1], "CREATE TABLE IF NOT EXISTS bot_settings")
}

func TestMigrate_StopsOnError(t *testing.T) {
	rec := &recordingExecer{failAt: 1}
	err := Migrate(context.Background(), rec)

	require.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "users table")
	assert.Len(t, rec.statements, 1)
}
