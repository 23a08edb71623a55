package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig holds infrastructure config from standard env vars
type AppConfig struct {
	DBPath     string
	ConfigPath string // Path to the YAML config file
	ImageDir   string // Where re-hosted images are stored
	ListenAddr string // Web UI bind address
}

// SiteConfig holds all target-site specific settings (from YAML)
type SiteConfig struct {
	Marketplace Marketplace `yaml:"marketplace"`
	Render      Render      `yaml:"render"`
}

// Marketplace identifies the target shop. DomainToken is the substring a
// product URL's host must contain; MediaMarker filters gallery image URLs
// down to the shop's own media host.
type Marketplace struct {
	DomainToken string `yaml:"domain_token"`
	MediaMarker string `yaml:"media_marker"`
}

// Render configures the headless browser session. Headed flips the browser
// to a visible window for debugging; the default is headless.
type Render struct {
	Headed        bool     `yaml:"headed"`
	PageTimeout   Duration `yaml:"page_timeout"`
	WaitSelector  string   `yaml:"wait_selector"`
	CookieButton  string   `yaml:"cookie_button"`
	ElementWindow Duration `yaml:"element_window"` // per optional element, e.g. cookie banner
}

// Duration lets "90s" style values be used in the YAML file.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped standard duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// GetAppConfig reads basic infrastructure settings from environment variables.
func GetAppConfig() (AppConfig, error) {
	cfg := AppConfig{
		DBPath:     os.Getenv("DB_PATH"),
		ConfigPath: os.Getenv("CONFIG_PATH"),
		ImageDir:   os.Getenv("IMAGE_DIR"),
		ListenAddr: os.Getenv("LISTEN_ADDR"),
	}

	// Set defaults if not provided
	if cfg.DBPath == "" {
		cfg.DBPath = "./local-data/listings.db"
	}
	if cfg.ConfigPath == "" {
		cfg.ConfigPath = "config.yaml"
	}
	if cfg.ImageDir == "" {
		cfg.ImageDir = "./local-data/images"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}

	return cfg, nil
}

// LoadSiteConfig reads the YAML file that configures the target site and
// the render session.
func LoadSiteConfig(path string) (*SiteConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file at '%s': %w", path, err)
	}
	var cfg SiteConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a SiteConfig usable without a config file on disk.
func Default() *SiteConfig {
	cfg := &SiteConfig{}
	cfg.applyDefaults()
	return cfg
}

func (c *SiteConfig) applyDefaults() {
	if c.Marketplace.DomainToken == "" {
		c.Marketplace.DomainToken = "bol.com"
	}
	if c.Marketplace.MediaMarker == "" {
		c.Marketplace.MediaMarker = "media"
	}
	if c.Render.PageTimeout == 0 {
		c.Render.PageTimeout = Duration(90 * time.Second)
	}
	if c.Render.ElementWindow == 0 {
		c.Render.ElementWindow = Duration(5 * time.Second)
	}
}
