package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "retainer.db", cfg.Store.Path)
	assert.Equal(t, "0.10", cfg.Invoice.TaxRate)
	assert.Equal(t, 30, cfg.Invoice.TimeoutSeconds)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Minio.Endpoint)
}

func TestLoadAppliesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
invoice:
  tax_rate: "0.20"
business:
  name: Warp Studio
  address_lines:
    - 1 Example Way
minio:
  endpoint: localhost:9000
  bucket: artifacts
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.2", cfg.TaxRate().String())
	assert.Equal(t, "Warp Studio", cfg.Business.Name)
	assert.Equal(t, "localhost:9000", cfg.Minio.Endpoint)
	// Unset values still default.
	assert.Equal(t, "retainer.db", cfg.Store.Path)
}

func TestLoadRejectsBadTaxRate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("invoice:\n  tax_rate: ten percent\n"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}
