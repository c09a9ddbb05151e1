// Package config loads the array-schema and fragment-manifest
// fixtures a read query runs against. The real ArraySchema and
// Fragment metadata providers are out of scope for this module
// (schema.Schema and fragment.Fragment are plain in-memory
// collaborators); Config is how a test, the CLI, or the demo server
// stands one up from a YAML file instead of building it by hand.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config describes one array fixture: its schema and the fragments
// that make it up, oldest first.
type Config struct {
	Server   ServerConfig    `yaml:"server"`
	Schema   SchemaConfig    `yaml:"schema"`
	Catalog  CatalogConfig   `yaml:"catalog"`
	Cache    CacheConfig     `yaml:"cache"`
	Render   RenderConfig    `yaml:"render"`
}

// ServerConfig contains the demo HTTP server's settings.
type ServerConfig struct {
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// SchemaConfig describes the array schema and where its fragment
// manifest lives.
type SchemaConfig struct {
	CoordType    string   `yaml:"coord_type"` // "int32" | "int64"
	CellOrder    string   `yaml:"cell_order"`  // "row_major" | "column_major"
	Domain       [][2]int64 `yaml:"domain"`
	TileExtent   []int64  `yaml:"tile_extent"`
	Attributes   []AttributeConfig `yaml:"attributes"`
	ManifestPath string   `yaml:"manifest_path"`
}

// AttributeConfig describes one fixed-size attribute.
type AttributeConfig struct {
	Name      string `yaml:"name"`
	CellSize  int    `yaml:"cell_size"`
	FillValue []byte `yaml:"fill_value"`
}

// CatalogConfig points at the SQLite fragment catalog database.
type CatalogConfig struct {
	DBPath string `yaml:"db_path"`
}

// CacheConfig contains plan/tile caching settings.
type CacheConfig struct {
	PlanCacheEntries int `yaml:"plan_cache_entries"`
	TileCacheSizeMB  int `yaml:"tile_cache_size_mb"`
}

// RenderConfig contains demo-renderer settings.
type RenderConfig struct {
	TileSize        int    `yaml:"tile_size"`
	DefaultColormap string `yaml:"default_colormap"`
}

// Load reads configuration from a YAML file, falling back to
// DefaultConfig if the file does not exist.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// DefaultConfig returns a small single-attribute, row-major int64
// fixture's defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8080,
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Schema: SchemaConfig{
			CoordType:    "int64",
			CellOrder:    "row_major",
			Domain:       [][2]int64{{0, 9}, {0, 9}},
			TileExtent:   []int64{5, 5},
			Attributes:   []AttributeConfig{{Name: "a", CellSize: 4, FillValue: []byte{0, 0, 0, 0}}},
			ManifestPath: "./fixtures/fragments.json",
		},
		Catalog: CatalogConfig{DBPath: "./arrayread-catalog.db"},
		Cache: CacheConfig{
			PlanCacheEntries: 256,
			TileCacheSizeMB:  64,
		},
		Render: RenderConfig{
			TileSize:        256,
			DefaultColormap: "viridis",
		},
	}
}

func applyDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaults.Server.Port
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = defaults.Server.CORSOrigins
	}
	if cfg.Schema.CoordType == "" {
		cfg.Schema.CoordType = defaults.Schema.CoordType
	}
	if cfg.Schema.CellOrder == "" {
		cfg.Schema.CellOrder = defaults.Schema.CellOrder
	}
	if cfg.Catalog.DBPath == "" {
		cfg.Catalog.DBPath = defaults.Catalog.DBPath
	}
	if cfg.Cache.PlanCacheEntries == 0 {
		cfg.Cache.PlanCacheEntries = defaults.Cache.PlanCacheEntries
	}
	if cfg.Cache.TileCacheSizeMB == 0 {
		cfg.Cache.TileCacheSizeMB = defaults.Cache.TileCacheSizeMB
	}
	if cfg.Render.TileSize == 0 {
		cfg.Render.TileSize = defaults.Render.TileSize
	}
	if cfg.Render.DefaultColormap == "" {
		cfg.Render.DefaultColormap = defaults.Render.DefaultColormap
	}
}
