package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"premigration-validator/internal/app"
	"premigration-validator/internal/config"
	"premigration-validator/internal/session"
)

const Version = "1.0.0"

const (
	exitGo    = 0
	exitFatal = 1
	exitNoGo  = 2
)

type options struct {
	configFile string
	envFile    string
	outputDir  string
	reportFile string
	phase      string
	verbose    bool
	version    bool
}

func parseFlags() *options {
	opts := &options{}
	flag.StringVar(&opts.configFile, "config", config.DefaultFile, "Config file (YAML)")
	flag.StringVar(&opts.envFile, "env", ".env", "Environment file for ${VAR} references in the config")
	flag.StringVar(&opts.outputDir, "output-dir", "", "Output directory (overrides output_dir)")
	flag.StringVar(&opts.reportFile, "report", "", "Report file name (overrides report_file)")
	flag.StringVar(&opts.phase, "phase", string(app.PhaseAll), "Phase (all/baseline)")
	flag.BoolVar(&opts.verbose, "v", false, "Verbose")
	flag.BoolVar(&opts.version, "version", false, "Print version and exit")
	flag.Parse()
	return opts
}

func main() {
	os.Exit(run(parseFlags()))
}

func run(opts *options) int {
	if opts.version {
		fmt.Printf("premigration %s\n", Version)
		return exitGo
	}

	logger, sync, err := newLogger(opts.verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitFatal
	}
	defer sync()

	if err := godotenv.Load(opts.envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Error: loading %s: %v\n", opts.envFile, err)
		return exitFatal
	}

	phase, err := app.ParsePhase(opts.phase)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitFatal
	}

	cfg, err := config.Load(opts.configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitFatal
	}
	if opts.outputDir != "" {
		cfg.OutputDir = opts.outputDir
	}
	if opts.reportFile != "" {
		cfg.ReportFile = opts.reportFile
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	printBanner(len(cfg.Devices), string(cfg.Mode()))

	factory := session.SSHFactory(cfg.SSH, logger.WithName("ssh"))
	res, err := app.New(cfg, factory, phase, os.Stdout, logger).Run(ctx)
	if err != nil {
		logger.Error(err, "run aborted")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitFatal
	}
	if !res.Go {
		return exitNoGo
	}
	return exitGo
}

// newLogger builds a zap backed logr.Logger. Without -v only errors are
// logged, so the console summary stays readable.
func newLogger(verbose bool) (logr.Logger, func(), error) {
	var (
		zapLog *zap.Logger
		err    error
	)
	if verbose {
		zapLog, err = zap.NewDevelopment()
	} else {
		zc := zap.NewProductionConfig()
		zc.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
		zapLog, err = zc.Build()
	}
	if err != nil {
		return logr.Discard(), func() {}, fmt.Errorf("building logger: %w", err)
	}
	return zapr.NewLogger(zapLog), func() { _ = zapLog.Sync() }, nil
}

func printBanner(devices int, mode string) {
	fmt.Println("================================================================================")
	fmt.Printf(" PRE-MIGRATION VALIDATOR v%s\n", Version)
	fmt.Printf(" Devices: %d | Parse mode: %s\n", devices, mode)
	fmt.Println("================================================================================")
}
