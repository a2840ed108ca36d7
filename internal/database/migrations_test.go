package database

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations(t *testing.T) {
	src, err := iofs.New(migrationsFS, "migrations")
	require.NoError(t, err)
	defer func() { _ = src.Close() }()

	latest, err := LatestVersion(src)
	require.NoError(t, err)
	assert.Equal(t, uint(3), latest)

	// every version ships both directions
	for v := uint(1); v <= latest; v++ {
		up, _, err := src.ReadUp(v)
		require.NoError(t, err, "up %d", v)
		body, err := io.ReadAll(up)
		_ = up.Close()
		require.NoError(t, err)
		assert.NotEmpty(t, strings.TrimSpace(string(body)))

		down, _, err := src.ReadDown(v)
		require.NoError(t, err, "down %d", v)
		_ = down.Close()
	}
}

func TestStatus_Pending(t *testing.T) {
	assert.True(t, Status{Version: 1, Latest: 3}.Pending())
	assert.False(t, Status{Version: 3, Latest: 3}.Pending())
}

func TestMigrateLogger(t *testing.T) {
	var buf bytes.Buffer
	l := migrateLogger{logger: slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))}

	l.Printf("1/u create_analyses (%s)\n", "12ms")
	assert.Contains(t, buf.String(), "1/u create_analyses (12ms)")
	assert.False(t, l.Verbose())

	verbose := migrateLogger{logger: slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))}
	assert.True(t, verbose.Verbose())
}
