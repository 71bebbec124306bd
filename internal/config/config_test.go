package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("should use defaults when config file is missing", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

		require.NoError(t, err)
		assert.Equal(t, 8181, cfg.Port)
		assert.Equal(t, "finance", cfg.Database.Schema)
		assert.True(t, cfg.Scheduler.Enabled)
		assert.Equal(t, time.Hour, cfg.Scheduler.Interval)
		assert.False(t, cfg.Nats.Enabled)
	})

	t.Run("should override defaults with yaml and environment", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "application.yaml")
		content := []byte("db:\n  host: db.internal\n  port: 6543\nscheduler:\n  interval: 15m\nnats:\n  enabled: true\n")
		require.NoError(t, os.WriteFile(path, content, 0o600))
		t.Setenv("FINANCE_DB_USER", "from_env")

		cfg, err := Load(path)

		require.NoError(t, err)
		assert.Equal(t, "db.internal", cfg.Database.Host)
		assert.Equal(t, 6543, cfg.Database.Port)
		assert.Equal(t, "from_env", cfg.Database.User)
		assert.Equal(t, 15*time.Minute, cfg.Scheduler.Interval)
		assert.True(t, cfg.Nats.Enabled)
		assert.Equal(t, "finance", cfg.Nats.SubjectPrefix)
	})
}
