package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Output formats for alert records
const (
	FormatPlain = "plain"
	FormatJSON  = "json"
)

// Job source kinds
const (
	SourceCUPS     = "cups"
	SourceSpoolDir = "spooldir"
	SourceKafka    = "kafka"
)

// Configuration errors
var (
	ErrNonPositiveInterval = errors.New("interval must be a positive number of seconds")
	ErrNonPositiveMaxPages = errors.New("max_pages must be a positive integer")
	ErrEmptyLogFile        = errors.New("log_file cannot be empty")
	ErrUnknownFormat       = errors.New("output_format must be plain or json")
	ErrUnknownSource       = errors.New("source must be cups, spooldir or kafka")
	ErrEmptySpoolDir       = errors.New("spool_dir is required for the spooldir source")
	ErrNoKafkaBrokers      = errors.New("kafka_brokers is required for the kafka source")
	ErrEmptyKafkaTopic     = errors.New("kafka_topic is required for the kafka source")
)

// Config holds runtime configuration for the monitor. It is built once at
// startup, validated, and never mutated afterwards.
type Config struct {
	// Poll period for the job source
	Interval time.Duration `yaml:"-"`

	// Poll period in whole seconds as written in config files, mirroring
	// the --interval flag; zero means not set
	IntervalSeconds int `yaml:"interval"`

	// Destination for alert records (opened in append mode)
	LogFile string `yaml:"log_file"`

	// Case-insensitive keywords matched against document names
	SensitiveKeywords []string `yaml:"sensitive_keywords"`

	// Watch-listed account names (case-sensitive exact match)
	SuspiciousUsers []string `yaml:"suspicious_users"`

	// Jobs with more pages than this trigger an oversized alert
	MaxPages int `yaml:"max_pages"`

	// Alert rendering format: plain or json
	OutputFormat string `yaml:"output_format"`

	// Job source kind: cups, spooldir or kafka
	Source string `yaml:"source"`

	// Directory watched for job ticket files (spooldir source)
	SpoolDir string `yaml:"spool_dir"`

	// Kafka brokers and topic (kafka source)
	KafkaBrokers []string `yaml:"kafka_brokers"`
	KafkaTopic   string   `yaml:"kafka_topic"`
	KafkaGroupID string   `yaml:"kafka_group"`

	// Bind address for the /metrics, /health and /stats listener;
	// empty disables it
	MetricsAddr string `yaml:"metrics_addr"`

	// Echo alert records to stdout in addition to the log file
	Echo bool `yaml:"echo"`

	// Minimum diagnostic log level
	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration used when no flag or file overrides it.
// The defaults mirror the historical CLI: 60s interval, printer_monitor.log,
// the confidential/secret keyword pair, and a 100 page ceiling.
func Default() *Config {
	return &Config{
		Interval:          60 * time.Second,
		LogFile:           "printer_monitor.log",
		SensitiveKeywords: []string{"confidential", "secret"},
		SuspiciousUsers:   []string{},
		MaxPages:          100,
		OutputFormat:      FormatPlain,
		Source:            SourceCUPS,
		KafkaGroupID:      "printwatch",
		Echo:              true,
		LogLevel:          "info",
	}
}

// FromFile loads a YAML config file over the defaults.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	if cfg.IntervalSeconds != 0 {
		cfg.Interval = time.Duration(cfg.IntervalSeconds) * time.Second
	}

	return cfg, nil
}

// Validate checks the configuration and returns the first violation found.
// It is called once at startup, before the polling loop is entered.
func (c *Config) Validate() error {
	if c.Interval <= 0 {
		return ErrNonPositiveInterval
	}

	if c.MaxPages <= 0 {
		return ErrNonPositiveMaxPages
	}

	if c.LogFile == "" {
		return ErrEmptyLogFile
	}

	switch normalizeFormat(c.OutputFormat) {
	case FormatPlain, FormatJSON:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, c.OutputFormat)
	}

	switch c.Source {
	case SourceCUPS:
	case SourceSpoolDir:
		if c.SpoolDir == "" {
			return ErrEmptySpoolDir
		}
	case SourceKafka:
		if len(c.KafkaBrokers) == 0 {
			return ErrNoKafkaBrokers
		}
		if c.KafkaTopic == "" {
			return ErrEmptyKafkaTopic
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSource, c.Source)
	}

	return nil
}

// Format returns the canonical output format name.
func (c *Config) Format() string {
	return normalizeFormat(c.OutputFormat)
}

// normalizeFormat maps the legacy format names onto the canonical ones.
// The original utility called the plain format "console"; some deployments
// also say "structured" for JSON lines.
func normalizeFormat(format string) string {
	switch format {
	case "console":
		return FormatPlain
	case "structured":
		return FormatJSON
	default:
		return format
	}
}
