package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  host: 0.0.0.0
  port: 8080
  mode: debug

database:
  host: localhost
  port: 5432
  user: postgres
  dbname: trade_journal
  sslmode: disable

jwt:
  secret: test
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 100_000.0, cfg.Simulation.InitialBalance)
	assert.Equal(t, "USDT", cfg.Simulation.QuoteAsset)
	assert.Equal(t, "https://api.binance.com", cfg.Simulation.PriceURL)
	assert.Equal(t, 24, cfg.JWT.ExpireHours)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8080
jwt:
  secret: from-file
simulation:
  initial_balance: 5000
`)

	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("SIM_INITIAL_BALANCE", "25000")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, 25_000.0, cfg.Simulation.InitialBalance)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDatabaseDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db",
		Port:     5432,
		User:     "app",
		Password: "pw",
		DBName:   "journal",
		SSLMode:  "disable",
	}
	assert.Equal(t, "host=db port=5432 user=app password=pw dbname=journal sslmode=disable", cfg.DSN())
}
