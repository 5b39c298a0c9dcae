package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("MONGO_URI", "")
	t.Setenv("MONGO_DB", "")
	t.Setenv("PORT", "")
	path := writeConfig(t, "server:\n  port: 9000\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, DefaultMongoURI, cfg.Database.URI)
	assert.Equal(t, DefaultDBName, cfg.Database.Name)
	assert.EqualValues(t, DefaultFetchLimit, cfg.Database.FetchLimit)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Zero(t, cfg.RateLimit.ReportsPerMinute)
	assert.Zero(t, cfg.RateLimit.Burst)
}

func TestBurstFollowsReportLimit(t *testing.T) {
	t.Setenv("MONGO_URI", "")
	path := writeConfig(t, "rateLimit:\n  reportsPerMinute: 5\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.RateLimit.Burst)
}

func TestValidateServerMode(t *testing.T) {
	t.Setenv("MONGO_URI", "")
	for _, mode := range []string{"", "debug", "release", "test"} {
		path := writeConfig(t, "server:\n  mode: \""+mode+"\"\n")
		_, err := LoadConfig(path)
		assert.NoError(t, err, mode)
	}

	path := writeConfig(t, "server:\n  mode: production\n")
	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "server.mode")
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "database:\n  uri: mongodb://file:27017\n  name: filedb\n")
	t.Setenv("MONGO_URI", "mongodb://env:27017")
	t.Setenv("MONGO_DB", "envdb")
	t.Setenv("PORT", "8123")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "mongodb://env:27017", cfg.Database.URI)
	assert.Equal(t, "envdb", cfg.Database.Name)
	assert.Equal(t, 8123, cfg.Server.Port)
}

func TestLoadConfigMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yml")

	t.Setenv("MONGO_URI", "")
	_, err := LoadConfig(missing)
	assert.Error(t, err)

	t.Setenv("MONGO_URI", "mongodb://env:27017")
	cfg, err := LoadConfig(missing)
	require.NoError(t, err)
	assert.Equal(t, "mongodb://env:27017", cfg.Database.URI)
}

func TestValidateRejectsBadURI(t *testing.T) {
	t.Setenv("MONGO_URI", "")
	path := writeConfig(t, "database:\n  uri: postgres://localhost\n")
	_, err := LoadConfig(path)
	assert.Error(t, err)
}
