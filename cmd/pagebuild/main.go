package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/pagebuild/internal/config"
	"git.home.luguber.info/inful/pagebuild/internal/metrics"
	"git.home.luguber.info/inful/pagebuild/internal/pipeline"
	"git.home.luguber.info/inful/pagebuild/internal/version"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"pagebuild.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Build struct {
		MetricsListen string `help:"Serve Prometheus metrics on this address during the build (e.g. :9090)"`
	} `cmd:"" default:"1" help:"Run the full site build against the current working directory"`

	Version struct{} `cmd:"" help:"Print version information"`
}

func main() {
	ctx := kong.Parse(&CLI)

	// .env values become part of the environment snapshot handed to the
	// renderer as secrets. A missing file is fine.
	_ = godotenv.Load()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(CLI.Verbose),
	})))

	// Panics anywhere in the pipeline are caught at the process boundary,
	// logged, and force exit code 1 rather than a bare crash.
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Unhandled failure", "panic", r)
			os.Exit(1)
		}
	}()

	switch ctx.Command() {
	case "build", "":
		os.Exit(runBuild())
	case "version":
		fmt.Printf("pagebuild %s (commit %s, built %s)\n", version.Version, version.GitCommit, version.BuildTime)
	}
}

func runBuild() int {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	p := pipeline.New(cfg)
	if CLI.Build.MetricsListen != "" {
		recorder := metrics.NewPrometheusRecorder(nil)
		p = p.WithRecorder(recorder)
		go serveMetrics(CLI.Build.MetricsListen, recorder)
	}

	report, err := p.Run(ctx)
	if err != nil {
		slog.Error("Build failed",
			"error", err,
			"pages", report.PagesWritten,
			"page_errors", len(report.PageErrors))
		return 1
	}

	slog.Info("Build succeeded",
		"pages", report.PagesWritten,
		"raw_files", report.RawFilesWritten,
		"duration", report.Duration)
	return 0
}

func serveMetrics(addr string, recorder *metrics.PrometheusRecorder) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", recorder.Handler())
	slog.Info("Serving metrics", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Warn("Metrics endpoint stopped", "error", err)
	}
}

// parseLogLevel resolves the log level from the verbose flag and
// PAGEBUILD_LOG_LEVEL (debug|info|warn|error).
func parseLogLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	switch strings.ToLower(os.Getenv("PAGEBUILD_LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
