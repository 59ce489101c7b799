// Package config loads the yaml configuration with sensible defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
	Minio    MinioConfig    `yaml:"minio"`
	Business BusinessConfig `yaml:"business"`
	Invoice  InvoiceConfig  `yaml:"invoice"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type StoreConfig struct {
	Path string `yaml:"path"`
}

// MinioConfig configures the artifact store. An empty endpoint selects the
// in-memory artifact store (dev mode, uploads are not durable).
type MinioConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// BusinessConfig is the issuer identity rendered into the invoice "From"
// block.
type BusinessConfig struct {
	Name         string   `yaml:"name"`
	AddressLines []string `yaml:"address_lines"`
}

type InvoiceConfig struct {
	// TaxRate is a decimal string, e.g. "0.10" for 10%.
	TaxRate string `yaml:"tax_rate"`
	// TimeoutSeconds bounds each upload/persist call during issuance.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// Load reads the file at path. A missing file yields pure defaults; a
// present but malformed file is an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = "retainer.db"
	}
	if cfg.Business.Name == "" {
		cfg.Business.Name = "Your Business Name"
		cfg.Business.AddressLines = []string{"123 Business Rd", "City, State ZIP"}
	}
	if cfg.Invoice.TaxRate == "" {
		cfg.Invoice.TaxRate = "0.10"
	}
	if cfg.Invoice.TimeoutSeconds == 0 {
		cfg.Invoice.TimeoutSeconds = 30
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}

	if _, err := decimal.NewFromString(cfg.Invoice.TaxRate); err != nil {
		return nil, fmt.Errorf("invalid tax_rate %q: %w", cfg.Invoice.TaxRate, err)
	}

	return cfg, nil
}

// TaxRate returns the parsed tax rate. Load has already validated it.
func (c *Config) TaxRate() decimal.Decimal {
	d, err := decimal.NewFromString(c.Invoice.TaxRate)
	if err != nil {
		return decimal.NewFromFloat(0.10)
	}
	return d
}
