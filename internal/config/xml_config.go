// Package config provides XML-based configuration management.
package config

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/intake-tracker/backend/internal/storage"
)

// DefaultFileName is the config file looked up next to the executable.
const DefaultFileName = "intake-dashboard.config"

// AppConfig represents the root XML configuration structure
type AppConfig struct {
	XMLName xml.Name `xml:"IntakeDashboard"`

	// Server configuration
	Server ServerConfig `xml:"Server"`

	// Sheet backend configuration
	Sheet SheetConfig `xml:"Sheet"`

	// Read cache configuration
	Cache CacheConfig `xml:"Cache"`

	// Time and column parsing
	Parsing ParsingConfig `xml:"Parsing"`

	// Chart canvas
	Chart ChartConfig `xml:"Chart"`

	// Advanced options
	Advanced AdvancedConfig `xml:"Advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int    `xml:"Port"`
	BindAddress  string `xml:"BindAddress"`
	Title        string `xml:"Title"`
	EnableCORS   bool   `xml:"EnableCORS"`
	AllowOrigins string `xml:"AllowOrigins"`
	ReadTimeout  int    `xml:"ReadTimeoutSeconds"`
	WriteTimeout int    `xml:"WriteTimeoutSeconds"`
	IdleTimeout  int    `xml:"IdleTimeoutSeconds"`
	BodyLimit    string `xml:"BodyLimit"`
}

// SheetConfig selects the sheet store and how to reach it
type SheetConfig struct {
	Backend           string `xml:"Backend"`
	SheetID           string `xml:"SheetID"`
	Worksheet         string `xml:"Worksheet"`
	CredentialsFile   string `xml:"CredentialsFile"`
	CredentialsJSON   string `xml:"-"`
	RequestsPerMinute int    `xml:"RequestsPerMinute"`
	WorkbookPath      string `xml:"WorkbookPath"`
	DuckDBPath        string `xml:"DuckDBPath"`
}

// CacheConfig contains read cache settings
type CacheConfig struct {
	TTLSeconds int `xml:"TTLSeconds"`
}

// ParsingConfig contains timestamp and column detection settings
type ParsingConfig struct {
	DayFirst  bool   `xml:"DayFirst"`
	TimeZone  string `xml:"TimeZone"`
	RulesFile string `xml:"RulesFile"`
}

// ChartConfig contains chart canvas settings
type ChartConfig struct {
	Width  int `xml:"Width"`
	Height int `xml:"Height"`
}

// AdvancedConfig contains advanced/tuning options
type AdvancedConfig struct {
	EnableRequestLogging bool `xml:"EnableRequestLogging"`
	EnableCompression    bool `xml:"EnableCompression"`
	CompressionLevel     int  `xml:"CompressionLevel"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:         8090,
			BindAddress:  "0.0.0.0",
			Title:        "Intake Dashboard",
			EnableCORS:   false,
			AllowOrigins: "*",
			ReadTimeout:  30,
			WriteTimeout: 30,
			IdleTimeout:  120,
			BodyLimit:    "1M",
		},
		Sheet: SheetConfig{
			Backend:           storage.BackendGoogle,
			Worksheet:         "Sheet1",
			RequestsPerMinute: 60,
			WorkbookPath:      "./data/intake.xlsx",
			DuckDBPath:        "./data/intake.duckdb",
		},
		Cache: CacheConfig{
			TTLSeconds: 60,
		},
		Parsing: ParsingConfig{
			DayFirst:  true,
			RulesFile: "./rules.yaml",
		},
		Chart: ChartConfig{
			Width:  960,
			Height: 420,
		},
		Advanced: AdvancedConfig{
			EnableRequestLogging: true,
			EnableCompression:    true,
			CompressionLevel:     5,
		},
	}
}

// LoadConfig loads configuration from XML file. A missing file is created
// with the defaults.
func LoadConfig(configPath string) (*AppConfig, error) {
	config := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := xml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Apply environment variable overrides
	config.applyEnvironmentOverrides()

	// Resolve relative paths
	config.resolvePaths(filepath.Dir(configPath))

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Save saves the configuration to XML file
func (c *AppConfig) Save(configPath string) error {
	output, err := xml.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(xml.Header + "\n<!-- Intake Dashboard Configuration -->\n<!-- This file is auto-generated on first run -->\n\n")
	content := append(header, output...)

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks settings that would otherwise fail later at request time
func (c *AppConfig) Validate() error {
	switch strings.ToLower(c.Sheet.Backend) {
	case storage.BackendGoogle, storage.BackendWorkbook, storage.BackendDuckDB:
	default:
		return fmt.Errorf("unknown sheet backend %q", c.Sheet.Backend)
	}
	if c.Cache.TTLSeconds < 0 {
		return fmt.Errorf("cache TTL must not be negative")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	// PORT override
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	if backend := os.Getenv("SHEET_BACKEND"); backend != "" {
		c.Sheet.Backend = backend
	}
	if id := os.Getenv("SHEET_ID"); id != "" {
		c.Sheet.SheetID = id
	}
	if ws := os.Getenv("WORKSHEET_NAME"); ws != "" {
		c.Sheet.Worksheet = ws
	}
	if creds := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); creds != "" {
		c.Sheet.CredentialsFile = creds
	}
	// Inline service-account JSON wins over the credentials file
	if creds := os.Getenv("SHEET_CREDENTIALS_JSON"); creds != "" {
		c.Sheet.CredentialsJSON = creds
	}

	if ttl := os.Getenv("CACHE_TTL_SECONDS"); ttl != "" {
		if v, err := strconv.Atoi(ttl); err == nil {
			c.Cache.TTLSeconds = v
		}
	}
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	for _, p := range []*string{
		&c.Sheet.CredentialsFile,
		&c.Sheet.WorkbookPath,
		&c.Sheet.DuckDBPath,
		&c.Parsing.RulesFile,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(configDir, *p)
		}
	}
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// CacheTTL returns the read cache lifetime
func (c *AppConfig) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// Location returns the configured time zone; empty means local time
func (c *AppConfig) Location() (*time.Location, error) {
	if c.Parsing.TimeZone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Parsing.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid time zone %q: %w", c.Parsing.TimeZone, err)
	}
	return loc, nil
}

// StorageOptions maps the sheet settings onto storage.Options
func (c *AppConfig) StorageOptions() storage.Options {
	opts := storage.Options{
		Backend:           strings.ToLower(c.Sheet.Backend),
		SheetID:           c.Sheet.SheetID,
		Worksheet:         c.Sheet.Worksheet,
		CredentialsFile:   c.Sheet.CredentialsFile,
		RequestsPerMinute: c.Sheet.RequestsPerMinute,
		WorkbookPath:      c.Sheet.WorkbookPath,
		DuckDBPath:        c.Sheet.DuckDBPath,
	}
	if c.Sheet.CredentialsJSON != "" {
		opts.CredentialsJSON = []byte(c.Sheet.CredentialsJSON)
	}
	return opts
}

// EnsureDirectories creates the parent directories of local sheet files
func (c *AppConfig) EnsureDirectories() error {
	var dirs []string
	switch strings.ToLower(c.Sheet.Backend) {
	case storage.BackendWorkbook:
		dirs = append(dirs, filepath.Dir(c.Sheet.WorkbookPath))
	case storage.BackendDuckDB:
		dirs = append(dirs, filepath.Dir(c.Sheet.DuckDBPath))
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
