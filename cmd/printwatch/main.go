package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"printwatch/internal/config"
	"printwatch/internal/logger"
	"printwatch/internal/monitor"
	"printwatch/internal/rules"
	"printwatch/internal/sink"
	"printwatch/internal/source"
)

var (
	flagConfig   string
	flagInterval int
	flagLogFile  string
	flagKeywords []string
	flagUsers    []string
	flagMaxPages int
	flagFormat   string
	flagSource   string
	flagSpoolDir string
	flagBrokers  []string
	flagTopic    string
	flagGroup    string
	flagMetrics  string
	flagNoStdout bool
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:          "printwatch",
	Short:        "Monitors print jobs and detects unusual printing patterns",
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&flagConfig, "config", "", "path to a YAML config file; flags override file values")
	f.IntVar(&flagInterval, "interval", 60, "interval in seconds to check for print jobs; must be positive")
	f.StringVar(&flagLogFile, "log_file", "printer_monitor.log", "path to the alert log file (append mode)")
	f.StringSliceVar(&flagKeywords, "sensitive_keywords", []string{"confidential", "secret"}, "keywords that indicate a sensitive document (case-insensitive)")
	f.StringSliceVar(&flagUsers, "suspicious_user", nil, "users to monitor for suspicious activity (case-sensitive)")
	f.IntVar(&flagMaxPages, "max_pages", 100, "maximum number of pages considered normal; must be positive")
	f.StringVar(&flagFormat, "output_format", config.FormatPlain, "alert record format: plain or json")
	f.StringVar(&flagSource, "source", config.SourceCUPS, "job source: cups, spooldir or kafka")
	f.StringVar(&flagSpoolDir, "spool_dir", "", "directory watched for job ticket files (spooldir source)")
	f.StringSliceVar(&flagBrokers, "kafka_brokers", nil, "kafka brokers (kafka source)")
	f.StringVar(&flagTopic, "kafka_topic", "", "kafka topic carrying job records (kafka source)")
	f.StringVar(&flagGroup, "kafka_group", "printwatch", "kafka consumer group id (kafka source)")
	f.StringVar(&flagMetrics, "metrics_addr", "", "bind address for /metrics, /health and /stats; empty disables the listener")
	f.BoolVar(&flagNoStdout, "no_stdout", false, "do not echo alert records to stdout")
	f.StringVar(&flagLogLevel, "log_level", "info", "minimum diagnostic log level")
}

// buildConfig layers defaults, the optional config file, and explicitly
// set flags, then validates the result.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()

	if flagConfig != "" {
		fileCfg, err := config.FromFile(flagConfig)
		if err != nil {
			return nil, err
		}
		cfg = fileCfg
	}

	set := cmd.Flags().Changed
	if set("interval") {
		cfg.Interval = time.Duration(flagInterval) * time.Second
	}
	if set("log_file") {
		cfg.LogFile = flagLogFile
	}
	if set("sensitive_keywords") {
		cfg.SensitiveKeywords = flagKeywords
	}
	if set("suspicious_user") {
		cfg.SuspiciousUsers = flagUsers
	}
	if set("max_pages") {
		cfg.MaxPages = flagMaxPages
	}
	if set("output_format") {
		cfg.OutputFormat = flagFormat
	}
	if set("source") {
		cfg.Source = flagSource
	}
	if set("spool_dir") {
		cfg.SpoolDir = flagSpoolDir
	}
	if set("kafka_brokers") {
		cfg.KafkaBrokers = flagBrokers
	}
	if set("kafka_topic") {
		cfg.KafkaTopic = flagTopic
	}
	if set("kafka_group") {
		cfg.KafkaGroupID = flagGroup
	}
	if set("metrics_addr") {
		cfg.MetricsAddr = flagMetrics
	}
	if set("no_stdout") {
		cfg.Echo = !flagNoStdout
	}
	if set("log_level") {
		cfg.LogLevel = flagLogLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return fmt.Errorf("configuration: %w", err)
	}

	logger.Init(cfg.LogLevel)
	log := logger.WithComponent("main")

	ruleset, err := rules.New(cfg.SensitiveKeywords, cfg.SuspiciousUsers, cfg.MaxPages)
	if err != nil {
		return fmt.Errorf("configuration: %w", err)
	}

	encoder, err := sink.NewEncoder(cfg.Format())
	if err != nil {
		return fmt.Errorf("configuration: %w", err)
	}

	var echo io.Writer
	if cfg.Echo {
		echo = os.Stdout
	}

	alertSink, err := sink.Open(cfg.LogFile, encoder, echo)
	if err != nil {
		return err
	}
	defer alertSink.Close()

	jobSource, err := source.New(cfg)
	if err != nil {
		return err
	}
	defer jobSource.Close()

	mon := monitor.New(monitor.Config{
		Source:      jobSource,
		Rules:       ruleset,
		Sink:        alertSink,
		Interval:    cfg.Interval,
		MetricsAddr: cfg.MetricsAddr,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// run monitor in background
	errCh := make(chan error, 1)
	go func() {
		errCh <- mon.Run(ctx)
	}()

	log.Info().
		Str("source", cfg.Source).
		Str("log_file", cfg.LogFile).
		Str("format", cfg.Format()).
		Dur("interval", cfg.Interval).
		Msg("printwatch started")

	// wait for termination signals
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
		cancel()
		return <-errCh
	case err := <-errCh:
		return err
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
