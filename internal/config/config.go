package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	// RootDir anchors every relative path below.
	RootDir     string          `yaml:"root_dir" envconfig:"ROOT_DIR" validate:"required"`
	ParallelNum int             `yaml:"parallel_num" envconfig:"PARALLEL_NUM" validate:"min=1,max=64"`
	Paths       PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Logging     LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Telemetry   TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	Scraper     ScraperConfig   `yaml:"scraper" envconfig:"SCRAPER"`
	Datasets    DatasetsConfig  `yaml:"datasets" envconfig:"DATASETS"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	TmpDir     string `yaml:"tmp_dir" envconfig:"TMP_DIR" validate:"required"`
	LocksDir   string `yaml:"locks_dir" envconfig:"LOCKS_DIR" validate:"required"`
	SessionDir string `yaml:"session_dir" envconfig:"SESSION_DIR" validate:"required"`
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR" validate:"required"`
	// PublishDir receives a copy of every account directory. Empty
	// disables publishing.
	PublishDir string `yaml:"publish_dir" envconfig:"PUBLISH_DIR"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// TelemetryConfig controls tracing and metrics
type TelemetryConfig struct {
	EnableTracing bool   `yaml:"enable_tracing" envconfig:"ENABLE_TRACING"`
	TraceExporter string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	EnableMetrics bool   `yaml:"enable_metrics" envconfig:"ENABLE_METRICS"`
	// MetricsTextfile, when set, receives the run's metrics in the
	// Prometheus text format for a node exporter textfile collector.
	MetricsTextfile string `yaml:"metrics_textfile" envconfig:"METRICS_TEXTFILE"`
}

// ScraperConfig contains browser automation settings
type ScraperConfig struct {
	BaseURL         string        `yaml:"base_url" envconfig:"BASE_URL" validate:"required,url"`
	Headless        bool          `yaml:"headless" envconfig:"HEADLESS"`
	RememberSession bool          `yaml:"remember_session" envconfig:"REMEMBER_SESSION"`
	Timeout         time.Duration `yaml:"timeout" envconfig:"TIMEOUT" validate:"gt=0"`
	LoginTimeout    time.Duration `yaml:"login_timeout" envconfig:"LOGIN_TIMEOUT" validate:"gt=0"`
	DownloadTimeout time.Duration `yaml:"download_timeout" envconfig:"DOWNLOAD_TIMEOUT" validate:"gt=0"`
	ActionInterval  time.Duration `yaml:"action_interval" envconfig:"ACTION_INTERVAL" validate:"gte=0"`
}

// DatasetsConfig tunes the reconciled datasets
type DatasetsConfig struct {
	// SortOverrides maps a dataset name to the column it is sorted by,
	// e.g. WXDATA_DATASETS_SORT_OVERRIDES=article_gender_distribution:人数
	SortOverrides map[string]string `yaml:"sort_overrides" envconfig:"SORT_OVERRIDES"`
}

var validate = validator.New()

// Load loads configuration with the following precedence, highest first:
// environment variables (and a .env file), the YAML config file, defaults.
// configFile may be empty, in which case the usual locations are searched.
func Load(configFile string) (*Config, error) {
	// A missing .env file is normal.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()

	if path := findConfigFile(configFile); path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	} else if configFile != "" {
		return nil, fmt.Errorf("config file %s not found", configFile)
	}

	// Fields carry no default tags, so envconfig only touches what is set.
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays a YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// findConfigFile returns the path to the config file, or "" when none exists
func findConfigFile(explicit string) string {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit
		}
		return ""
	}

	locations := []string{
		"wxdata.yaml",
		"configs/wxdata.yaml",
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	if path, err := xdg.SearchConfigFile(filepath.Join(AppName, "config.yaml")); err == nil {
		return path
	}

	return ""
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		return fmt.Errorf("logging.file_path is required for output %q", c.Logging.Output)
	}
	return nil
}

// ResolvePaths resolves the configured directories against RootDir
func (c *Config) ResolvePaths() (*Paths, error) {
	root, err := filepath.Abs(c.RootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root dir: %w", err)
	}

	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(root, p)
	}

	return &Paths{
		RootDir:    root,
		DataDir:    resolve(c.Paths.DataDir),
		TmpDir:     resolve(c.Paths.TmpDir),
		LocksDir:   resolve(c.Paths.LocksDir),
		SessionDir: resolve(c.Paths.SessionDir),
		LogsDir:    resolve(c.Paths.LogsDir),
		PublishDir: resolve(c.Paths.PublishDir),
	}, nil
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		RootDir:     ".",
		ParallelNum: DefaultParallelNum,
		Paths: PathsConfig{
			DataDir:    DefaultDataDir,
			TmpDir:     DefaultTmpDir,
			LocksDir:   DefaultLocksDir,
			SessionDir: DefaultSessionDir,
			LogsDir:    DefaultLogsDir,
		},
		Logging: LoggingConfig{
			Level:    DefaultLogLevel,
			Format:   DefaultLogFormat,
			Output:   "both",
			FilePath: DefaultLogFile,
		},
		Telemetry: TelemetryConfig{
			EnableTracing: false,
			TraceExporter: "none",
			EnableMetrics: true,
		},
		Scraper: ScraperConfig{
			BaseURL:         WechatBaseURL,
			Headless:        false,
			RememberSession: true,
			Timeout:         DefaultScraperTimeout,
			LoginTimeout:    DefaultLoginTimeout,
			DownloadTimeout: DefaultDownloadTimeout,
			ActionInterval:  DefaultActionInterval,
		},
	}
}
