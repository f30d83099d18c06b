package main

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestConfigDefaults(t *testing.T) {
	cfg, err := configFromEnv(envMap(nil))
	require.NoError(t, err)

	assert.Equal(t, nhlURL, cfg.APIURL)
	assert.Equal(t, 20*time.Second, cfg.Timeout)
	assert.Equal(t, regularSeason, cfg.GameType)
	assert.Equal(t, "team_data", cfg.TeamDataDir)
	assert.Equal(t, "all_data", cfg.OutputDir)
	assert.Equal(t, 0, cfg.Window)
	assert.Equal(t, "", cfg.Season)
	assert.Equal(t, logrus.InfoLevel, cfg.LogLevel)
}

func TestConfigFromEnv(t *testing.T) {
	cfg, err := configFromEnv(envMap(map[string]string{
		"NHL_API_URL":     "http://localhost:8080/v1",
		"NHL_API_TIMEOUT": "5s",
		"NHL_API_RPS":     "2.5",
		"NHL_SEASON":      "20222023",
		"GAME_WINDOW":     "10",
		"WORKERS":         "0",
		"TEAM_DATA_DIR":   "/data/teams",
		"OUTPUT_DIR":      "/data/out",
		"LOG_LEVEL":       "debug",
	}))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080/v1", cfg.APIURL)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 2.5, cfg.RPS)
	assert.Equal(t, "20222023", cfg.Season)
	assert.Equal(t, 10, cfg.Window)
	assert.Equal(t, 1, cfg.Workers)
	assert.Equal(t, "/data/teams", cfg.TeamDataDir)
	assert.Equal(t, "/data/out", cfg.OutputDir)
	assert.Equal(t, logrus.DebugLevel, cfg.LogLevel)
}

func TestConfigRejectsBadValues(t *testing.T) {
	for key, val := range map[string]string{
		"NHL_API_TIMEOUT": "soon",
		"NHL_API_RPS":     "fast",
		"NHL_SEASON":      "2023",
		"GAME_WINDOW":     "-1",
		"WORKERS":         "many",
		"LOG_LEVEL":       "loud",
	} {
		_, err := configFromEnv(envMap(map[string]string{key: val}))
		assert.Error(t, err, key)
	}
}
