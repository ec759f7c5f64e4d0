package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ".mindgraph", filepath.Base(cfg.Store.DataDir))
	assert.Equal(t, filepath.Join(cfg.Store.DataDir, "graph.db"), cfg.DBPath())
}

func TestDBPath_Absolute(t *testing.T) {
	cfg := Default()
	cfg.Store.DBFile = "/var/lib/mindgraph.db"
	assert.Equal(t, "/var/lib/mindgraph.db", cfg.DBPath())
}

func TestLoad_MissingDefaultFileIsFine(t *testing.T) {
	t.Setenv("MINDGRAPH_DATA_DIR", t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Graph.ResolverConcurrency)
}

func TestLoad_MissingExplicitFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	yml := `
store:
  data_dir: ` + dir + `
  busy_timeout: 2s
graph:
  resolver_concurrency: 2
http:
  addr: ":9000"
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))
	t.Setenv("MINDGRAPH_HTTP_ADDR", ":9100")
	t.Setenv("MINDGRAPH_RESOLVER_CONCURRENCY", "8")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.Store.DataDir)
	assert.Equal(t, 2*time.Second, cfg.Store.BusyTimeout)
	assert.Equal(t, 8, cfg.Graph.ResolverConcurrency)
	assert.Equal(t, ":9100", cfg.HTTP.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_DataDirFileIsPickedUp(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("log:\n  format: console\n"), 0o600))
	t.Setenv("MINDGRAPH_DATA_DIR", dir)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, dir, cfg.Store.DataDir)
}

func TestApplyEnv_BadValues(t *testing.T) {
	env := map[string]string{"MINDGRAPH_BUSY_TIMEOUT": "soon"}
	lookup := func(k string) (string, bool) { v, ok := env[k]; return v, ok }
	cfg := Default()
	assert.Error(t, applyEnv(&cfg, lookup))

	env = map[string]string{"MINDGRAPH_RESOLVER_CONCURRENCY": "many"}
	cfg = Default()
	assert.Error(t, applyEnv(&cfg, lookup))
}

func TestValidate_RejectsBadSettings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero concurrency", func(c *Config) { c.Graph.ResolverConcurrency = 0 }},
		{"unknown level", func(c *Config) { c.Log.Level = "loud" }},
		{"unknown format", func(c *Config) { c.Log.Format = "xml" }},
		{"empty addr", func(c *Config) { c.HTTP.Addr = "" }},
		{"empty data dir", func(c *Config) { c.Store.DataDir = "" }},
		{"zero busy timeout", func(c *Config) { c.Store.BusyTimeout = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoad_AllowedOriginsFromEnv(t *testing.T) {
	t.Setenv("MINDGRAPH_DATA_DIR", t.TempDir())
	t.Setenv("MINDGRAPH_HTTP_ALLOWED_ORIGINS", "http://localhost:3000, https://notes.example.com ,")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"http://localhost:3000", "https://notes.example.com"}, cfg.HTTP.AllowedOrigins)
}

func TestResolvePath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MINDGRAPH_DATA_DIR", dir)
	assert.Equal(t, filepath.Join(dir, FileName), ResolvePath(""))
	assert.Equal(t, "/etc/mindgraph.yaml", ResolvePath("/etc/mindgraph.yaml"))
}
