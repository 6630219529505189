package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"wxdata/internal/analyzer"
	"wxdata/internal/config"
	"wxdata/internal/infrastructure"
	"wxdata/internal/publisher"
	"wxdata/internal/reconcile"
	"wxdata/internal/validation"
	"wxdata/pkg/contracts"
)

// NewRootCmd creates the root command for wxdata.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wxdata",
		Short: "WeChat official account analytics downloader and reconciler",
		Long: `wxdata downloads the analytics exports of a WeChat official account
(traffic, 7-day article rollup and per-article details) and reconciles them
into CSV datasets that only ever grow: rows already stored are replaced by
newer exports of the same day or article, everything else is kept.

Configuration is read from wxdata.yaml (or the XDG config directory),
then overridden by WXDATA_* environment variables and a .env file.`,
		Version:       contracts.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("config", "c", "", "Configuration file path")
	cmd.PersistentFlags().String("root", "", "Root directory (overrides root_dir)")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewProcessCmd())
	cmd.AddCommand(NewPublishCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runtimeEnv is everything a command needs once configuration is loaded.
type runtimeEnv struct {
	cfg       *config.Config
	paths     *config.Paths
	logger    *slog.Logger
	telemetry *infrastructure.Telemetry
	metrics   *infrastructure.PipelineMetrics
	run       *infrastructure.RunMetrics
	started   time.Time
}

// setup loads configuration and starts logging and telemetry. The
// returned context carries a trace ID and is cancelled on SIGINT/SIGTERM.
func setup(cmd *cobra.Command) (context.Context, *runtimeEnv, context.CancelFunc, error) {
	flags := cmd.Flags()
	configFile, _ := flags.GetString("config")
	root, _ := flags.GetString("root")
	verbose, _ := flags.GetBool("verbose")

	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, nil, err
	}
	if root != "" {
		cfg.RootDir = root
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}

	paths, err := cfg.ResolvePaths()
	if err != nil {
		return nil, nil, nil, err
	}
	if cfg.Logging.FilePath != "" && !filepath.IsAbs(cfg.Logging.FilePath) {
		cfg.Logging.FilePath = filepath.Join(paths.RootDir, cfg.Logging.FilePath)
	}
	if cfg.Telemetry.MetricsTextfile != "" && !filepath.IsAbs(cfg.Telemetry.MetricsTextfile) {
		cfg.Telemetry.MetricsTextfile = filepath.Join(paths.RootDir, cfg.Telemetry.MetricsTextfile)
	}

	logger, err := infrastructure.NewLogger(cfg.Logging, consoleWriter(cmd))
	if err != nil {
		return nil, nil, nil, err
	}
	slog.SetDefault(logger)

	if err := paths.EnsureDirectories(); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create directories: %w", err)
	}
	paths.LogPathResolution()

	telemetry, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	metrics, err := infrastructure.NewPipelineMetrics(telemetry.Meter)
	if err != nil {
		return nil, nil, nil, err
	}
	runMetrics, err := infrastructure.NewRunMetrics(telemetry.Meter)
	if err != nil {
		return nil, nil, nil, err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	ctx = infrastructure.EnsureTraceID(ctx)

	env := &runtimeEnv{
		cfg:       cfg,
		paths:     paths,
		logger:    logger,
		telemetry: telemetry,
		metrics:   metrics,
		run:       runMetrics,
		started:   time.Now(),
	}
	logger.InfoContext(ctx, "Starting",
		slog.String("command", cmd.Name()),
		slog.String("version", contracts.Version),
		slog.String("root_dir", paths.RootDir))

	return ctx, env, cancel, nil
}

// finish records run metrics and flushes telemetry. runErr is returned,
// joined with any shutdown failure.
func (e *runtimeEnv) finish(ctx context.Context, runErr error) error {
	stats := e.run.Collect(context.WithoutCancel(ctx), e.started, runErr)

	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	shutdownErr := e.telemetry.Shutdown(sctx)

	if runErr != nil {
		e.logger.ErrorContext(ctx, "Run failed",
			slog.String("error", runErr.Error()),
			slog.Duration("duration", stats.Duration))
	} else {
		e.logger.InfoContext(ctx, "Run complete", slog.Duration("duration", stats.Duration))
	}

	_ = infrastructure.CloseLogFile()
	return errors.Join(runErr, shutdownErr)
}

// newAnalyzer builds the analyzer of account, publishing when a publish
// directory is configured.
func (e *runtimeEnv) newAnalyzer(account string) (*analyzer.Analyzer, error) {
	catalog, err := reconcile.NewCatalog(e.cfg.Datasets.SortOverrides)
	if err != nil {
		return nil, err
	}

	pub := e.newPublisher()
	if err := e.checkPublishDir(pub); err != nil {
		return nil, err
	}

	store := reconcile.NewStore(e.paths.AccountDir(account), e.logger,
		reconcile.WithTracer(e.telemetry.Tracer),
		reconcile.WithMetrics(e.metrics))

	return analyzer.New(account, store, analyzer.Options{
		Catalog:   catalog,
		Publisher: pub,
		Logger:    e.logger,
		Tracer:    e.telemetry.Tracer,
		Metrics:   e.metrics,
	})
}

func (e *runtimeEnv) newPublisher() *publisher.Publisher {
	return publisher.New(e.paths, e.cfg.ParallelNum, e.logger, e.metrics)
}

// checkPublishDir fails early when publishing is enabled but the publish
// directory cannot be written.
func (e *runtimeEnv) checkPublishDir(pub *publisher.Publisher) error {
	if !pub.Enabled() {
		return nil
	}
	return validation.NewFileValidator(e.logger).ValidateOutputDirectory(e.paths.PublishDir)
}

// reportResult logs the outcome of a Process call and turns input
// failures into the command's error.
func (e *runtimeEnv) reportResult(ctx context.Context, report *analyzer.Report, err error) error {
	if report != nil {
		for _, path := range report.Written() {
			e.logger.InfoContext(ctx, "Dataset updated", slog.String("path", path))
		}
		e.logger.InfoContext(ctx, "Processing summary",
			slog.String("account", report.Account),
			slog.Int("datasets_written", len(report.Written())),
			slog.Int("failures", len(report.Failures)),
			slog.Int("files_published", report.Published))
	}
	if err != nil {
		return err
	}
	if report != nil && report.Failed() {
		return fmt.Errorf("%d export(s) failed: %w", len(report.Failures), report.Err())
	}
	return nil
}

func consoleWriter(cmd *cobra.Command) io.Writer {
	return cmd.ErrOrStderr()
}
