package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/folio/internal/content"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app" toml:"app"`
	Content ContentConfig     `yaml:"content" toml:"content"`
	SQLite  SQLiteConfig      `yaml:"sqlite" toml:"sqlite"`
	Events  EventsConfig      `yaml:"events" toml:"events"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Content.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	return c.Events.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level" toml:"log_level"`
	HTTP     HTTPConfig `yaml:"http" toml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port" toml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// ContentConfig locates the category roots. Dirs maps a category name to
// its directory; relative directories are joined to Root. Categories left
// out of Dirs use their default directory.
type ContentConfig struct {
	Root string            `yaml:"root" toml:"root"`
	Dirs map[string]string `yaml:"dirs" toml:"dirs"`
}

// Validate validates the content configuration.
func (c *ContentConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required),
		validation.Field(&c.Dirs, validation.By(func(any) error {
			for name := range c.Dirs {
				if _, err := content.ParseCategory(name); err != nil {
					return err
				}
			}
			return nil
		})),
	)
}

// Roots builds the category table from the configuration.
func (c *ContentConfig) Roots() (content.Roots, error) {
	dirs := content.DefaultDirs()
	for name, dir := range c.Dirs {
		cat, err := content.ParseCategory(name)
		if err != nil {
			return content.Roots{}, err
		}
		dirs[cat] = dir
	}
	return content.NewRoots(c.Root, dirs)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// EventsConfig tunes the change-event stream.
type EventsConfig struct {
	// IndexThrottleMS is the minimum gap between index.updated events.
	IndexThrottleMS int `yaml:"index_throttle_ms" toml:"index_throttle_ms"`
}

// Validate validates the events configuration.
func (c *EventsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.IndexThrottleMS, validation.Min(0)),
	)
}

// IndexThrottle returns the throttle as a duration.
func (c *EventsConfig) IndexThrottle() time.Duration {
	return time.Duration(c.IndexThrottleMS) * time.Millisecond
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Content: ContentConfig{
			Root: "./content",
		},
		SQLite: SQLiteConfig{
			Path: "./folio.db",
		},
		Events: EventsConfig{
			IndexThrottleMS: 2000,
		},
	}
}
