package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string `json:"host" env:"SERVER_HOST"`
	Port int    `json:"port" env:"SERVER_PORT"`
}

// DatabaseConfig controls persistence.
type DatabaseConfig struct {
	Driver          string `json:"driver" env:"DATABASE_DRIVER"`
	DSN             string `json:"dsn" env:"DATABASE_DSN"`
	Host            string `json:"host" env:"DATABASE_HOST"`
	Port            int    `json:"port" env:"DATABASE_PORT"`
	User            string `json:"user" env:"DATABASE_USER"`
	Password        string `json:"password" env:"DATABASE_PASSWORD"`
	Name            string `json:"name" env:"DATABASE_NAME"`
	SSLMode         string `json:"sslmode" env:"DATABASE_SSLMODE"`
	MaxOpenConns    int    `json:"max_open_conns" env:"DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns    int    `json:"max_idle_conns" env:"DATABASE_MAX_IDLE_CONNS"`
	ConnMaxLifetime int    `json:"conn_max_lifetime" env:"DATABASE_CONN_MAX_LIFETIME"`
	MigrateOnStart  bool   `json:"migrate_on_start" yaml:"migrate_on_start" env:"DATABASE_MIGRATE_ON_START"`
}

// LoggingConfig controls application logging.
type LoggingConfig struct {
	Level      string `json:"level" env:"LOG_LEVEL"`
	Format     string `json:"format" env:"LOG_FORMAT"`
	Output     string `json:"output" env:"LOG_OUTPUT"`
	FilePrefix string `json:"file_prefix" env:"LOG_FILE_PREFIX"`
}

// AuthConfig controls HTTP API authentication.
type AuthConfig struct {
	Tokens []string `json:"tokens"`
}

// BrowserConfig controls the bounded Browser Pool (§4.5).
type BrowserConfig struct {
	Bin               string `json:"bin" env:"BROWSER_BIN"`
	Headless          bool   `json:"headless" env:"BROWSER_HEADLESS"`
	MaxSessions       int    `json:"max_sessions" env:"BROWSER_MAX_SESSIONS"`
	ViewportWidth     int    `json:"viewport_width" env:"BROWSER_VIEWPORT_WIDTH"`
	ViewportHeight    int    `json:"viewport_height" env:"BROWSER_VIEWPORT_HEIGHT"`
	NavigationTimeout int    `json:"navigation_timeout_seconds" env:"BROWSER_NAVIGATION_TIMEOUT_SECONDS"`
}

// ObjectStoreConfig controls the minio-backed ObjectStore capability.
type ObjectStoreConfig struct {
	Endpoint        string `json:"endpoint" env:"OBJECTSTORE_ENDPOINT"`
	AccessKeyID     string `json:"access_key_id" env:"OBJECTSTORE_ACCESS_KEY_ID"`
	SecretAccessKey string `json:"secret_access_key" env:"OBJECTSTORE_SECRET_ACCESS_KEY"`
	UseSSL          bool   `json:"use_ssl" env:"OBJECTSTORE_USE_SSL"`
}

// MailConfig controls the SMTP-backed Mail capability.
type MailConfig struct {
	Host     string `json:"host" env:"MAIL_HOST"`
	Port     int    `json:"port" env:"MAIL_PORT"`
	Username string `json:"username" env:"MAIL_USERNAME"`
	Password string `json:"password" env:"MAIL_PASSWORD"`
	From     string `json:"from" env:"MAIL_FROM"`
}

// LLMConfig controls the HTTP-backed LLM capability.
type LLMConfig struct {
	BaseURL string `json:"base_url" env:"LLM_BASE_URL"`
	APIKey  string `json:"api_key" env:"LLM_API_KEY"`
	Model   string `json:"model" env:"LLM_MODEL"`
}

// HttpFetchConfig controls the HttpFetch capability GET relies on.
type HttpFetchConfig struct {
	InsecureSkipVerify bool `json:"insecure_skip_verify" env:"HTTPFETCH_INSECURE_SKIP_VERIFY"`
}

// ScriptsConfig controls where the Trigger Loop reads automation scripts
// from. Every Automation's Param is a path relative to Dir (§4.4 Dispatch).
type ScriptsConfig struct {
	Dir string `json:"dir" env:"SCRIPTS_DIR"`
}

// Config is the top-level configuration structure.
type Config struct {
	Server      ServerConfig      `json:"server"`
	Database    DatabaseConfig    `json:"database"`
	Logging     LoggingConfig     `json:"logging"`
	Auth        AuthConfig        `json:"auth"`
	Browser     BrowserConfig     `json:"browser"`
	ObjectStore ObjectStoreConfig `json:"object_store"`
	Mail        MailConfig        `json:"mail"`
	LLM         LLMConfig         `json:"llm"`
	HttpFetch   HttpFetchConfig   `json:"http_fetch"`
	Scripts     ScriptsConfig     `json:"scripts"`
}

// New returns a configuration populated with defaults.
func New() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Database: DatabaseConfig{
			Driver:          "postgres",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
			MigrateOnStart:  true,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     "stdout",
			FilePrefix: "botengine",
		},
		Browser: BrowserConfig{
			Headless:          true,
			MaxSessions:       4,
			ViewportWidth:     1920,
			ViewportHeight:    1080,
			NavigationTimeout: 30,
		},
		Scripts: ScriptsConfig{
			Dir: "scripts",
		},
	}
}

// ConnectionString builds a PostgreSQL connection string using host parameters.
func (c DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// ConnectionStringOrDSN returns DSN verbatim when set (a full connection URI
// takes precedence), otherwise builds one from the discrete host fields.
func (c DatabaseConfig) ConnectionStringOrDSN() string {
	if strings.TrimSpace(c.DSN) != "" {
		return c.DSN
	}
	return c.ConnectionString()
}

// Load loads configuration from file (if present) and environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := New()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, err
		}
	} else {
		_ = loadFromFile("configs/config.yaml", cfg)
	}

	if err := envdecode.Decode(cfg); err != nil {
		// envdecode returns an error when no tagged fields are present in the
		// environment; treat that case as "no overrides" so local runs work
		// without exporting vars.
		if !strings.Contains(err.Error(), "none of the target fields were set") {
			return nil, fmt.Errorf("decode env: %w", err)
		}
	}

	applyDatabaseURLOverride(cfg)
	cfg.normalize()

	return cfg, nil
}

// LoadFile reads configuration from a YAML file.
func LoadFile(path string) (*Config, error) {
	cfg := New()
	if err := loadFromFile(path, cfg); err != nil {
		return nil, err
	}
	applyDatabaseURLOverride(cfg)
	cfg.normalize()
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	expanded, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return err
	}
	return nil
}

// LoadConfig is a helper used by tests to load JSON config snippets.
func LoadConfig(path string) (*Config, error) {
	cfg := New()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	applyDatabaseURLOverride(cfg)
	cfg.normalize()
	return cfg, nil
}

// applyDatabaseURLOverride lets DATABASE_URL override any file-based DSN, so
// a container can be pointed at a database with one env var.
func applyDatabaseURLOverride(cfg *Config) {
	if cfg == nil {
		return
	}
	if dsn := strings.TrimSpace(os.Getenv("DATABASE_URL")); dsn != "" {
		cfg.Database.DSN = dsn
	}
}

// normalize fills in defaults that can't be expressed as zero values once a
// file or environment overlay has been applied.
func (c *Config) normalize() {
	if c == nil {
		return
	}
	if c.Browser.MaxSessions <= 0 {
		c.Browser.MaxSessions = 4
	}
	if strings.TrimSpace(c.Scripts.Dir) == "" {
		c.Scripts.Dir = "scripts"
	}
}
