package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "reject", cfg.Missions.DeletePolicy)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 30, cfg.Calendar.SyncDays)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromLayersFiles(t *testing.T) {
	dir := t.TempDir()
	global := filepath.Join(dir, "global.yaml")
	project := filepath.Join(dir, "project.yaml")

	require.NoError(t, os.WriteFile(global, []byte("db_path: /tmp/global.db\nmissions:\n  delete_policy: cascade\n"), 0o600))
	require.NoError(t, os.WriteFile(project, []byte("db_path: /tmp/project.db\n"), 0o600))

	cfg, err := LoadFrom(global, project, filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/project.db", cfg.DBPath)
	assert.Equal(t, "cascade", cfg.Missions.DeletePolicy)
	assert.Equal(t, "127.0.0.1:8420", cfg.Server.Addr)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("COMPASS_DB_PATH", "/tmp/env.db")
	t.Setenv("COMPASS_MISSIONS_DELETE_POLICY", "orphan")

	cfg, err := LoadFrom()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/env.db", cfg.DBPath)
	assert.Equal(t, "orphan", cfg.Missions.DeletePolicy)
}

func TestLoadFromRejectsUnknownPolicy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("missions:\n  delete_policy: shred\n"), 0o600))

	_, err := LoadFrom(path)
	assert.ErrorContains(t, err, "delete_policy")
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg := DefaultConfig()
	cfg.Calendar.Name = "Tasks"

	require.NoError(t, Save(path, cfg))
	got, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "Tasks", got.Calendar.Name)
}

func TestCalendarSyncDays(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("calendar:\n  sync_days: 14\n"), 0o600))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, 14, cfg.Calendar.SyncDays)

	t.Setenv("COMPASS_CALENDAR_SYNC_DAYS", "3")
	cfg, err = LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Calendar.SyncDays)

	require.NoError(t, os.WriteFile(path, []byte("calendar:\n  sync_days: 0\n"), 0o600))
	t.Setenv("COMPASS_CALENDAR_SYNC_DAYS", "")
	_, err = LoadFrom(path)
	assert.ErrorContains(t, err, "sync_days")
}
