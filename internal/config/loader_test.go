package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpattn/restquery/internal/query"
)

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadReadsYAML(t *testing.T) {
	dir := t.TempDir()
	yaml := `
database:
  host: db.internal
  port: 6543
  dbname: listings
server:
  addr: ":9090"
  resources: [events, rentals]
query:
  default_limit: 20
  max_limit: 100
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, "listings", cfg.Database.DBName)
	assert.Equal(t, "postgres", cfg.Database.User)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, []string{"events", "rentals"}, cfg.Server.Resources)
	assert.Equal(t, 20, cfg.Query.DefaultLimit)
	assert.Equal(t, 100, cfg.Query.MaxLimit)
	assert.Equal(t, query.DefaultSortField, cfg.Query.DefaultSort)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("database:\n  host: from-file\n"), 0o600))
	t.Setenv("RESTQUERY_DATABASE_HOST", "from-env")
	t.Setenv("RESTQUERY_QUERY_MAX_LIMIT", "40")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Database.Host)
	assert.Equal(t, 40, cfg.Query.MaxLimit)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("database: [unclosed"), 0o600))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestCompilerOptionsApply(t *testing.T) {
	cfg := DefaultConfig().Query
	cfg.MaxLimit = 7
	cfg.DefaultLimit = 50

	c := query.New(cfg.CompilerOptions()...)
	res := c.Compile(nil)

	assert.Equal(t, 7, c.MaxLimit())
	assert.Equal(t, 7, res.Options.Limit)
}
