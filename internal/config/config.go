package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"gopkg.in/yaml.v2"

	"github.com/alinski29/stonks/internal/model"
	"github.com/alinski29/stonks/internal/provider"
	"github.com/alinski29/stonks/internal/store"
)

// Config is the full application configuration: the stores kept on disk,
// the providers allowed to serve them, and the read API listener.
type Config struct {
	Stores    []StoreConfig `yaml:"stores"`
	Providers Providers     `yaml:"providers"`
	Server    ServerConfig  `yaml:"server"`
	LogLevel  string        `yaml:"log_level"`
}

// StoreConfig declares one store. Layout fields left empty fall back to
// the default layout for the record type.
type StoreConfig struct {
	Path             string   `yaml:"path"`
	RecordType       string   `yaml:"record_type"`
	Format           string   `yaml:"format"`
	IDColumns        []string `yaml:"id_columns"`
	PartitionColumns []string `yaml:"partition_columns"`
	TimeColumn       string   `yaml:"time_column"`
}

// ProviderConfig tunes one provider. Priorities start at 1 and lower wins;
// MaxRetries 0 means two retries, the retrying transport default.
type ProviderConfig struct {
	Token        string `yaml:"token"`
	Priority     int    `yaml:"priority"`
	MaxBatchSize int    `yaml:"max_batch_size"`
	MaxRetries   int    `yaml:"max_retries"`
}

type Providers struct {
	Yahoo        *ProviderConfig `yaml:"yahoo"`
	AlphaVantage *ProviderConfig `yaml:"alphavantage"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

// Load reads the YAML file at path, falling back to $STONKS_CONFIG when
// path is empty. With no file from either source the configuration is
// assembled from environment variables and defaults alone.
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		path = envStr("STONKS_CONFIG", "")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Port = envInt("STONKS_PORT", c.Server.Port)
	c.LogLevel = envStr("LOG_LEVEL", c.LogLevel)
	if tok := envStr("YAHOO_TOKEN", ""); tok != "" {
		if c.Providers.Yahoo == nil {
			c.Providers.Yahoo = &ProviderConfig{}
		}
		c.Providers.Yahoo.Token = tok
	}
	if tok := envStr("ALPHAVANTAGE_TOKEN", ""); tok != "" {
		if c.Providers.AlphaVantage == nil {
			c.Providers.AlphaVantage = &ProviderConfig{}
		}
		c.Providers.AlphaVantage.Token = tok
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8900
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	// Yahoo serves quotes without credentials, so it is the provider of
	// last resort when nothing else is configured.
	if c.Providers.Yahoo == nil && c.Providers.AlphaVantage == nil {
		c.Providers.Yahoo = &ProviderConfig{}
	}
	if p := c.Providers.Yahoo; p != nil {
		if p.Priority == 0 {
			p.Priority = 1
		}
		if p.MaxRetries == 0 {
			p.MaxRetries = 2
		}
	}
	if p := c.Providers.AlphaVantage; p != nil {
		if p.Priority == 0 {
			p.Priority = 2
		}
		if p.MaxRetries == 0 {
			p.MaxRetries = 2
		}
	}
}

// defaultLayouts carries the per-record-type store layout used when a
// store entry leaves id, partition, or time columns unset.
var defaultLayouts = map[string]store.Config{
	model.AssetPrice.Name:   {IDColumns: []string{"symbol"}, PartitionColumns: []string{"symbol"}, TimeColumn: "date"},
	model.AssetInfo.Name:    {IDColumns: []string{"symbol"}},
	model.ExchangeRate.Name: {IDColumns: []string{"base", "target"}, PartitionColumns: []string{"base", "target"}, TimeColumn: "date"},
}

// Descriptors builds one validated store handle per configured store,
// keyed by record type name. At most one store per record type.
func (c Config) Descriptors() (map[string]*store.Descriptor, error) {
	out := make(map[string]*store.Descriptor, len(c.Stores))
	for _, sc := range c.Stores {
		rt, ok := model.RecordTypeByName(sc.RecordType)
		if !ok {
			return nil, fmt.Errorf("config: store %s: unknown record type %q", sc.Path, sc.RecordType)
		}
		if _, dup := out[rt.Name]; dup {
			return nil, fmt.Errorf("config: duplicate store for record type %q", rt.Name)
		}
		layout := defaultLayouts[rt.Name]
		if len(sc.IDColumns) > 0 {
			layout.IDColumns = sc.IDColumns
		}
		if len(sc.PartitionColumns) > 0 {
			layout.PartitionColumns = sc.PartitionColumns
		}
		if sc.TimeColumn != "" {
			layout.TimeColumn = sc.TimeColumn
		}
		d, err := store.NewDescriptor(store.Config{
			Path:             sc.Path,
			RecordType:       rt,
			IDColumns:        layout.IDColumns,
			PartitionColumns: layout.PartitionColumns,
			TimeColumn:       layout.TimeColumn,
			Format:           sc.Format,
		})
		if err != nil {
			return nil, fmt.Errorf("config: store %s: %w", sc.Path, err)
		}
		out[rt.Name] = d
	}
	return out, nil
}

// Registry assembles the provider resources this configuration enables.
func (c Config) Registry() *provider.Registry {
	reg := provider.NewRegistry()
	if p := c.Providers.Yahoo; p != nil {
		reg.Register(provider.Yahoo(p.settings())...)
	}
	if p := c.Providers.AlphaVantage; p != nil {
		if p.Token == "" {
			slog.Warn("alphavantage configured without a token, skipping")
		} else {
			reg.Register(provider.AlphaVantage(p.settings())...)
		}
	}
	return reg
}

func (p *ProviderConfig) settings() provider.Settings {
	return provider.Settings{
		Token:        p.Token,
		Priority:     p.Priority,
		MaxBatchSize: p.MaxBatchSize,
		MaxRetries:   p.MaxRetries,
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
