package internal

import (
	"fmt"
	"log/slog"
	"path/filepath"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/docsite/internal/catalog"
	"github.com/starford/docsite/internal/manifest"
	"github.com/starford/docsite/internal/render"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Content ContentConfig     `yaml:"content"`
	SQLite  SQLiteConfig      `yaml:"sqlite"`
	Auth    AuthConfig        `yaml:"auth"`
	Theme   ThemeConfig       `yaml:"theme"`
	Search  SearchConfig      `yaml:"search"`
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
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Theme.Validate(); err != nil {
		return err
	}
	return c.Search.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
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

// ContentConfig locates the markdown tree and the manifest written into it.
type ContentConfig struct {
	Root         string `yaml:"root"`
	ManifestFile string `yaml:"manifest_file"`
}

// ManifestPath returns where the manifest is written.
func (c *ContentConfig) ManifestPath() string {
	return filepath.Join(c.Root, c.ManifestFile)
}

// Validate validates the content configuration.
func (c *ContentConfig) Validate() error {
	if c.ManifestFile == "" {
		c.ManifestFile = manifest.DefaultFile
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required),
		validation.Field(&c.ManifestFile, validation.By(baseName)),
	)
}

func baseName(value any) error {
	name, _ := value.(string)
	if filepath.Base(name) != name {
		return fmt.Errorf("must be a file name, not a path")
	}
	if filepath.Ext(name) == ".md" {
		return fmt.Errorf("must not end in .md")
	}
	return nil
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// ThemeConfig holds the initial presentation preferences and where user
// changes to them are kept. An empty PrefsPath keeps changes in memory.
type ThemeConfig struct {
	Markdown  string `yaml:"markdown"`
	Highlight string `yaml:"highlight"`
	PrefsPath string `yaml:"prefs_path"`
}

// Validate validates the theme configuration.
func (c *ThemeConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Markdown, validation.In(themeNames(render.MarkdownThemes)...)),
		validation.Field(&c.Highlight, validation.In(themeNames(render.HighlightThemes)...)),
	)
}

// Theme returns the configured themes with defaults filled in.
func (c *ThemeConfig) Theme() render.Theme {
	return render.Theme{Markdown: c.Markdown, Highlight: c.Highlight}.WithDefaults()
}

func themeNames(opts []render.ThemeOption) []any {
	out := make([]any, len(opts))
	for i, o := range opts {
		out[i] = o.Name
	}
	return out
}

// SearchConfig holds metadata search limits.
type SearchConfig struct {
	Limit int `yaml:"limit"`
}

// Validate validates the search configuration.
func (c *SearchConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Limit, validation.Min(0), validation.Max(100)),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	theme := render.DefaultTheme()
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Content: ContentConfig{
			Root:         "./content",
			ManifestFile: manifest.DefaultFile,
		},
		SQLite: SQLiteConfig{
			Path: "./docsite.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Theme: ThemeConfig{
			Markdown:  theme.Markdown,
			Highlight: theme.Highlight,
			PrefsPath: "./preferences.json",
		},
		Search: SearchConfig{
			Limit: catalog.DefaultSearchLimit,
		},
	}
}
