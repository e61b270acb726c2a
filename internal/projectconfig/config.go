// Package projectconfig provides the ProjectConfig struct and loader for
// .llmeval.yaml project-level configuration files.
package projectconfig

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/mohitsingh538/llm-metrics-evaluation/internal/models"
)

// FileName is the project configuration file looked up by Load.
const FileName = ".llmeval.yaml"

// Environment variables consulted after the file is merged.
const (
	EnvServiceURL = "LLMEVAL_SERVICE_URL"
	EnvLogDir     = "LLMEVAL_LOG_DIR"
)

// Default values for project configuration. New() references them and no
// other code should duplicate them.
const (
	DefaultServiceURL     = "http://localhost:9000"
	DefaultServiceTimeout = 20

	DefaultServerHost = "127.0.0.1"
	DefaultServerPort = 3000

	DefaultLogDir        = "logs/"
	DefaultLogLevel      = "error"
	DefaultLogMaxSizeMB  = 10
	DefaultLogMaxBackups = 5
	DefaultLogMaxAgeDays = 30

	DefaultTranscriptDir = "results/"
)

// ServiceConfig points at the evaluation service.
type ServiceConfig struct {
	URL            string `yaml:"url,omitempty" validate:"omitempty,url"`
	TimeoutSeconds int    `yaml:"timeout_seconds,omitempty" validate:"gte=0,lte=600"`
}

// ServerConfig holds dashboard server settings.
type ServerConfig struct {
	Host string `yaml:"host,omitempty"`
	Port int    `yaml:"port,omitempty" validate:"gte=0,lte=65535"`
}

// LoggingConfig holds diagnostic log settings.
type LoggingConfig struct {
	Dir        string `yaml:"dir,omitempty"`
	Level      string `yaml:"level,omitempty" validate:"omitempty,oneof=debug info warn error"`
	MaxSizeMB  int    `yaml:"max_size_mb,omitempty" validate:"gte=0"`
	MaxBackups int    `yaml:"max_backups,omitempty" validate:"gte=0"`
	MaxAgeDays int    `yaml:"max_age_days,omitempty" validate:"gte=0"`
	EventLog   *bool  `yaml:"event_log,omitempty"`
}

// CatalogConfig overrides the selectable models and metrics.
type CatalogConfig struct {
	Models  []models.Option `yaml:"models,omitempty" validate:"dive"`
	Metrics []models.Option `yaml:"metrics,omitempty" validate:"dive"`
}

// OutputConfig holds artifact output settings.
type OutputConfig struct {
	TranscriptDir   string `yaml:"transcript_dir,omitempty"`
	SaveTranscripts *bool  `yaml:"save_transcripts,omitempty"`
}

// ProjectConfig is the top-level configuration loaded from .llmeval.yaml.
type ProjectConfig struct {
	Service ServiceConfig `yaml:"service,omitempty"`
	Server  ServerConfig  `yaml:"server,omitempty"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
	Catalog CatalogConfig `yaml:"catalog,omitempty"`
	Output  OutputConfig  `yaml:"output,omitempty"`
}

// New returns a ProjectConfig with all hard-coded defaults populated.
func New() *ProjectConfig {
	catalog := models.DefaultCatalog()
	return &ProjectConfig{
		Service: ServiceConfig{
			URL:            DefaultServiceURL,
			TimeoutSeconds: DefaultServiceTimeout,
		},
		Server: ServerConfig{
			Host: DefaultServerHost,
			Port: DefaultServerPort,
		},
		Logging: LoggingConfig{
			Dir:        DefaultLogDir,
			Level:      DefaultLogLevel,
			MaxSizeMB:  DefaultLogMaxSizeMB,
			MaxBackups: DefaultLogMaxBackups,
			MaxAgeDays: DefaultLogMaxAgeDays,
			EventLog:   boolPtr(true),
		},
		Catalog: CatalogConfig{
			Models:  catalog.Models,
			Metrics: catalog.Metrics,
		},
		Output: OutputConfig{
			TranscriptDir:   DefaultTranscriptDir,
			SaveTranscripts: boolPtr(false),
		},
	}
}

// ServiceTimeout returns the request bound as a duration.
func (c *ProjectConfig) ServiceTimeout() time.Duration {
	return time.Duration(c.Service.TimeoutSeconds) * time.Second
}

// ServerAddr returns host:port for the dashboard listener.
func (c *ProjectConfig) ServerAddr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// ModelCatalog returns the configured model and metric catalog.
func (c *ProjectConfig) ModelCatalog() models.Catalog {
	return models.Catalog{Models: c.Catalog.Models, Metrics: c.Catalog.Metrics}
}

// Load finds .llmeval.yaml by walking up from startDir (max 10 levels),
// unmarshals it, and fills in missing fields with defaults. A .env file in
// startDir, if any, is loaded into the environment first; environment
// overrides are applied after the file. If no config file is found the
// defaults are used. Real I/O errors are returned to the caller.
func Load(startDir string) (*ProjectConfig, error) {
	if err := loadDotEnv(startDir); err != nil {
		return nil, err
	}

	cfg := New()

	data, err := findConfigFile(startDir)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("loading %s: %w", FileName, err)
	default:
		var fileCfg ProjectConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", FileName, err)
		}
		mergeConfig(cfg, &fileCfg)
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints.
func (c *ProjectConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid %s: %s fails %q", FileName, fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("invalid %s: %w", FileName, err)
	}
	return nil
}

func loadDotEnv(dir string) error {
	p := filepath.Join(dir, ".env")
	if _, err := os.Stat(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading %q: %w", p, err)
	}
	if err := godotenv.Load(p); err != nil {
		return fmt.Errorf("loading %q: %w", p, err)
	}
	return nil
}

func applyEnv(cfg *ProjectConfig) {
	if v := os.Getenv(EnvServiceURL); v != "" {
		cfg.Service.URL = v
	}
	if v := os.Getenv(EnvLogDir); v != "" {
		cfg.Logging.Dir = v
	}
}

// findConfigFile walks up from dir looking for .llmeval.yaml (max 10
// levels). Returns os.ErrNotExist if no config file is found.
func findConfigFile(dir string) ([]byte, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path %q: %w", dir, err)
	}
	dir = absDir

	for i := 0; i < 10; i++ {
		p := filepath.Join(dir, FileName)
		data, err := os.ReadFile(p)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading %q: %w", p, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return nil, os.ErrNotExist
}

// mergeConfig overlays non-zero values from src onto dst.
func mergeConfig(dst, src *ProjectConfig) {
	// Service
	if src.Service.URL != "" {
		dst.Service.URL = src.Service.URL
	}
	if src.Service.TimeoutSeconds != 0 {
		dst.Service.TimeoutSeconds = src.Service.TimeoutSeconds
	}

	// Server
	if src.Server.Host != "" {
		dst.Server.Host = src.Server.Host
	}
	if src.Server.Port != 0 {
		dst.Server.Port = src.Server.Port
	}

	// Logging
	if src.Logging.Dir != "" {
		dst.Logging.Dir = src.Logging.Dir
	}
	if src.Logging.Level != "" {
		dst.Logging.Level = src.Logging.Level
	}
	if src.Logging.MaxSizeMB != 0 {
		dst.Logging.MaxSizeMB = src.Logging.MaxSizeMB
	}
	if src.Logging.MaxBackups != 0 {
		dst.Logging.MaxBackups = src.Logging.MaxBackups
	}
	if src.Logging.MaxAgeDays != 0 {
		dst.Logging.MaxAgeDays = src.Logging.MaxAgeDays
	}
	if src.Logging.EventLog != nil {
		dst.Logging.EventLog = src.Logging.EventLog
	}

	// Catalog lists replace the defaults wholesale.
	if len(src.Catalog.Models) > 0 {
		dst.Catalog.Models = src.Catalog.Models
	}
	if len(src.Catalog.Metrics) > 0 {
		dst.Catalog.Metrics = src.Catalog.Metrics
	}

	// Output
	if src.Output.TranscriptDir != "" {
		dst.Output.TranscriptDir = src.Output.TranscriptDir
	}
	if src.Output.SaveTranscripts != nil {
		dst.Output.SaveTranscripts = src.Output.SaveTranscripts
	}
}

func boolPtr(b bool) *bool {
	return &b
}
