package postgres

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elevate-hub/elevate/pkg/retry"
)

func TestConfig_DSN(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Password = "secret"

	assert.Equal(t,
		"host=localhost port=5432 dbname=elevate user=postgres password=secret sslmode=disable connect_timeout=10",
		cfg.DSN(),
	)

	cfg.URL = "postgres://u:p@db:5432/elevate"
	assert.Equal(t, cfg.URL, cfg.DSN())
}

func TestConfig_PoolConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxConns = 7
	cfg.MaxConnIdleTime = time.Minute

	pc, err := cfg.PoolConfig()
	require.NoError(t, err)
	assert.Equal(t, int32(7), pc.MaxConns)
	assert.Equal(t, time.Minute, pc.MaxConnIdleTime)

	cfg.URL = "::not a url::"
	_, err = cfg.PoolConfig()
	assert.Error(t, err)
}

func TestMigrations_AreOrdered(t *testing.T) {
	migs := Migrations()
	require.NotEmpty(t, migs)
	for i, m := range migs {
		assert.Equal(t, i+1, m.Version)
		assert.NotEmpty(t, m.UpSQL, m.Name)
		assert.NotEmpty(t, m.DownSQL, m.Name)
	}
}

func TestErrorHelpers(t *testing.T) {
	assert.True(t, IsUniqueViolation(fmt.Errorf("wrap: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("other")))
	assert.True(t, IsNoRows(fmt.Errorf("wrap: %w", pgx.ErrNoRows)))
}

func TestClassifyConnectError(t *testing.T) {
	badPassword := fmt.Errorf("postgres: ping: %w", &pgconn.PgError{Code: "28P01"})
	assert.True(t, retry.IsPermanent(classifyConnectError(badPassword)))
	assert.ErrorIs(t, classifyConnectError(badPassword), badPassword)

	noDatabase := &pgconn.PgError{Code: "3D000"}
	assert.True(t, retry.IsPermanent(classifyConnectError(noDatabase)))

	tooMany := &pgconn.PgError{Code: "53300"}
	assert.False(t, retry.IsPermanent(classifyConnectError(tooMany)))

	refused := errors.New("dial tcp: connection refused")
	assert.Equal(t, refused, classifyConnectError(refused))
}
