package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/config"
	"storefront/internal/repos"
)

func TestRunReturnsStartupErrors(t *testing.T) {
	err := run(context.Background(), config.Config{DBDriver: "nope"})
	assert.Error(t, err, "unknown driver")

	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	cfg := config.Config{
		DBDriver:    repos.DriverSQLite,
		DBDSN:       filepath.Join(dir, "shop.db"),
		MediaDir:    filepath.Join(blocker, "uploads"),
		MaxFileSize: 1 << 20,
		JWTSecret:   "test-secret",
	}
	err = run(context.Background(), cfg)
	assert.Error(t, err, "media dir under a regular file")
}
