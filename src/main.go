package main

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"github.com/eshtab/traffic-delay-2022-analysis/src/config"
	"github.com/eshtab/traffic-delay-2022-analysis/src/metrics"
	"github.com/eshtab/traffic-delay-2022-analysis/src/pipeline"
	"github.com/eshtab/traffic-delay-2022-analysis/src/storage"
)

var (
	configDir      string
	configFile     string
	dataConfigFile string
	verbose        bool
)

var rootCmd = &cobra.Command{
	Use:   "delayreport",
	Short: "Build the 2022 bus delay report",
	Long: `delayreport loads the published bus delay export, cleans it, writes the
cleaned snapshot and renders the report charts with their manifest.

Examples:
  delayreport build
  delayreport clean --config-dir ./config
  delayreport watch -v
  delayreport schedule`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "./config", "folder holding the config files and .env")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "config.json", "config file (.json, .yaml or .yml)")
	rootCmd.PersistentFlags().StringVar(&dataConfigFile, "data-config", "dataconfig.json", "analysis parameters file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log to stderr at debug level")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "delayreport:", err)
		os.Exit(1)
	}
}

// app is what every command shares: configuration, the root logger and the
// metrics of this process.
type app struct {
	cfg     *config.Config
	dcfg    *config.DataConfig
	logger  *storage.Logger
	metrics *metrics.BuildMetrics

	busy sync.Mutex
}

func newApp(stderr io.Writer) (*app, error) {
	cfg, dcfg, err := config.LoadConfig(configDir, configFile, dataConfigFile)
	if err != nil {
		return nil, err
	}

	level := storage.ParseLogLevel(cfg.LogLevel)
	var console io.Writer
	if verbose {
		level = storage.DEBUG
		console = stderr
	}
	logger, err := storage.NewLogger(cfg.LogName, level, console)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	if rotated, err := logger.CheckRotate(cfg.LogMaxSize); err != nil {
		logger.WithError(err).Warning("log rotation skipped")
	} else if rotated {
		logger.Info("log file rotated")
	}

	return &app{cfg: cfg, dcfg: dcfg, logger: logger, metrics: metrics.New()}, nil
}

func (a *app) pipeline() *pipeline.Pipeline {
	return pipeline.New(a.cfg, a.dcfg, a.logger, a.metrics)
}

// rebuild runs one build unless another is still running. Failures are
// logged; the caller keeps going.
func (a *app) rebuild(trigger string) {
	log := a.logger.WithField("trigger", trigger)
	if !a.busy.TryLock() {
		log.Warning("build already running, trigger skipped")
		return
	}
	defer a.busy.Unlock()

	if _, err := a.pipeline().Build(); err != nil {
		log.WithError(err).Error("triggered build failed")
	}
}

func (a *app) close() {
	a.logger.Close()
}
