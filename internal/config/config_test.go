//go:build unit

package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		chdir(t, t.TempDir())

		cfg, err := LoadConfig()
		require.NoError(t, err)

		assert.Equal(t, "8080", cfg.Server.Port)
		assert.Equal(t, "mysql", cfg.DB.Driver)
		assert.Equal(t, 3, cfg.RateLimit.MaxPerWindow)
		assert.Equal(t, time.Hour, cfg.RateLimit.Window)
		assert.Equal(t, "local", cfg.RateLimit.Backend)
		assert.Equal(t, "./pages", cfg.Pages.Root)
		assert.Equal(t, "listings", cfg.CMS.Collection)
	})

	t.Run("environment overrides", func(t *testing.T) {
		chdir(t, t.TempDir())
		t.Setenv("DIRECTORY_SERVER_PORT", "9090")
		t.Setenv("DIRECTORY_DB_DRIVER", "sqlite3")
		t.Setenv("DIRECTORY_RATELIMIT_WINDOW", "30m")
		t.Setenv("DIRECTORY_LOG_FORMAT", "json")

		cfg, err := LoadConfig()
		require.NoError(t, err)

		assert.Equal(t, "9090", cfg.Server.Port)
		assert.Equal(t, "sqlite3", cfg.DB.Driver)
		assert.Equal(t, 30*time.Minute, cfg.RateLimit.Window)
		assert.Equal(t, "json", cfg.Log.Format)
	})
}
