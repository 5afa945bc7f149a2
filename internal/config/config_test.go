package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ecodeclub/ewatch/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
log_level: debug
sweep_interval: 30s
storage:
  driver: sqlite
  sqlite: /tmp/ewatch.db
tasks:
  - name: release
    url: https://example.com/releases.json
    callback: https://hooks.example.com/release
    timeout: 10
    cron: "*/5 * * * *"
    patches: [follow, stop]
  - name: once
    url: https://example.com/once
    cron: 30
    expireAt: 3600
`

func TestParse(t *testing.T) {
	c, err := Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, c.SweepInterval)
	assert.Equal(t, DriverSQLite, c.Storage.Driver)
	assert.Equal(t, "/tmp/ewatch.db", c.Storage.SQLite)
	assert.Equal(t, 5*time.Second, c.Storage.SaveTimeout)
	level, err := c.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	require.Len(t, c.Tasks, 2)
	assert.Equal(t, task.Config{
		Name:     "release",
		URL:      "https://example.com/releases.json",
		Callback: "https://hooks.example.com/release",
		Timeout:  10,
		Cron:     task.Cron{Expr: "*/5 * * * *"},
		Patches:  []string{"follow", "stop"},
	}, c.Tasks[0])
	assert.Equal(t, task.Cron{At: 30}, c.Tasks[1].Cron)
	assert.Equal(t, int64(3600), c.Tasks[1].ExpireAt)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{
			name: "bad driver",
			data: "storage:\n  driver: redis\n",
		},
		{
			name: "bad level",
			data: "log_level: loud\n",
		},
		{
			name: "duplicate task",
			data: "tasks:\n  - name: a\n    url: x\n  - name: a\n    url: y\n",
		},
		{
			name: "bad yaml",
			data: "tasks: [",
		},
		{
			name: "cron mapping",
			data: "tasks:\n  - name: a\n    url: x\n    cron: {a: 1}\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ewatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: warn\n"), 0o600))
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DriverMySQL, c.Storage.Driver)
	assert.Equal(t, time.Minute, c.SweepInterval)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
