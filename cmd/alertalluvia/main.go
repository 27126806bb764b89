package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"

	"github.com/lox/alertalluvia/internal/app"
	"github.com/lox/alertalluvia/internal/httputil"
	"github.com/lox/alertalluvia/internal/metrics"
	"github.com/lox/alertalluvia/internal/models"
)

type CLI struct {
	Station string `arg:"" optional:"" help:"Weather Underground station ID, e.g. ICHIVA39 (see https://www.wunderground.com/wundermap)."`

	Timeout     time.Duration `default:"0s" help:"HTTP timeout per request; 0 means no timeout."`
	Color       string        `enum:"auto,always,never" default:"auto" help:"Colour the report (${enum})."`
	LogLevel    string        `enum:"debug,info,warn,error" default:"info" help:"Log level (${enum})."`
	Timezone    string        `placeholder:"ZONE" help:"IANA zone the station reports in. Defaults to the local zone."`
	MetricsFile string        `type:"path" placeholder:"PATH" help:"Write Prometheus metrics to this file for the node_exporter textfile collector."`
}

// exitCode carries a kong exit request (e.g. after --help) back to run.
type exitCode int

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) (code int) {
	defer func() {
		if r := recover(); r != nil {
			c, ok := r.(exitCode)
			if !ok {
				panic(r)
			}
			code = int(c)
		}
	}()

	var cli CLI
	parser := kong.Must(&cli,
		kong.Name("alertalluvia"),
		kong.Description("Show the last 24 hours of rainfall for a Weather Underground station with a trailing one-hour accumulation and threshold alerts."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(c int) { panic(exitCode(c)) }),
	)
	kctx, err := parser.Parse(args)
	if err != nil {
		fmt.Fprintf(stderr, "alertalluvia: error: %v\n", err)
		return 1
	}

	if cli.Station == "" {
		if err := kctx.PrintUsage(false); err != nil {
			return 1
		}
		return 0
	}

	logger := newLogger(cli.LogLevel, stderr)

	loc := time.Local
	if cli.Timezone != "" {
		l, err := time.LoadLocation(cli.Timezone)
		if err != nil {
			logger.Error("load timezone", "zone", cli.Timezone, "error", err)
			return 1
		}
		loc = l
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	err = app.Run(ctx, app.Options{
		Station:     cli.Station,
		Thresholds:  models.DefaultThresholds,
		Location:    loc,
		Client:      httputil.NewClient(cli.Timeout),
		Stdout:      stdout,
		Color:       useColor(cli.Color, stdout),
		Logger:      logger,
		Metrics:     metrics.New(),
		MetricsFile: cli.MetricsFile,
	})
	if err != nil {
		logger.Error("run failed", "station", cli.Station, "error", err)
		return 1
	}
	return 0
}

func newLogger(level string, w io.Writer) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      lvl,
		TimeFormat: time.Kitchen,
		NoColor:    !isTerminal(w),
	}))
}

func useColor(mode string, w io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	default:
		return isTerminal(w)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
