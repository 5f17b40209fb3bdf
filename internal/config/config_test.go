package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, "file", cfg.CatalogSource)
	assert.True(t, cfg.CatalogWatch)
	assert.Equal(t, "pgx", cfg.Orders.Driver)
	assert.Equal(t, "ZO", cfg.Orders.Table)
	assert.Equal(t, "RECEPTURA_1", cfg.Orders.ColStructure)
	assert.Equal(t, "NUMER_KONTRAHENTA", cfg.Clients.ColNumber)
	assert.Equal(t, "MARPOL Sp. z o.o.", cfg.Producer.Name)
	assert.Equal(t, 2, cfg.MinLayers)
	assert.Equal(t, 3, cfg.MaxLayers)
	assert.False(t, cfg.OrdersEnabled())
}

func TestLoadOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("MAX_LAYERS", "4")
	t.Setenv("ORDERS_DSN", "postgres://localhost/erp")
	t.Setenv("CATALOG_SOURCE", "sqlite")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.MaxLayers)
	assert.Equal(t, "sqlite", cfg.CatalogSource)
	assert.True(t, cfg.OrdersEnabled())
}

func TestLoadRejectsBadLayerBounds(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("MIN_LAYERS", "3")
	t.Setenv("MAX_LAYERS", "2")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsUnknownCatalogSource(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("CATALOG_SOURCE", "ftp")

	_, err := Load()
	assert.Error(t, err)
}

func TestRequire(t *testing.T) {
	var c Config
	assert.Error(t, c.Require("ORDERS_DSN", "  "))
	assert.NoError(t, c.Require("ORDERS_DSN", "dsn"))
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
