// Package app wires the fetch, extract, accumulate and render steps into a
// single run for one station.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/lox/alertalluvia/internal/ingest"
	"github.com/lox/alertalluvia/internal/metrics"
	"github.com/lox/alertalluvia/internal/models"
	"github.com/lox/alertalluvia/internal/rain"
	"github.com/lox/alertalluvia/internal/report"
)

const dateLayout = "2006-01-02"

type Options struct {
	Station    string
	Thresholds models.Thresholds

	Location *time.Location // wall-clock zone of the station tables
	Client   *http.Client
	BaseURL  string
	Clock    clockwork.Clock

	Stdout io.Writer
	Color  bool
	Logger *slog.Logger

	Metrics     *metrics.Metrics
	MetricsFile string
}

// Run fetches yesterday's and today's history for the station, derives the
// trailing hourly accumulation and prints the last 24 hours.
func Run(ctx context.Context, opts Options) (err error) {
	if opts.Station == "" {
		return errors.New("station is required")
	}
	opts = withDefaults(opts)
	log := opts.Logger.With("station", opts.Station)
	m := opts.Metrics

	defer func() {
		success := 0.0
		if err == nil {
			success = 1
		}
		m.LastRunSuccess.WithLabelValues(opts.Station).Set(success)
		if opts.MetricsFile == "" {
			return
		}
		if werr := m.WriteTextfile(opts.MetricsFile); werr != nil {
			log.Error("write metrics textfile", "path", opts.MetricsFile, "error", werr)
		}
	}()

	now := opts.Clock.Now().In(opts.Location)
	dates := []string{
		now.AddDate(0, 0, -1).Format(dateLayout),
		now.Format(dateLayout),
	}

	wu := ingest.NewWunderground(opts.Client,
		ingest.WithBaseURL(opts.BaseURL),
		ingest.WithMetrics(m),
		ingest.WithLogger(opts.Logger),
	)

	tables := make([]models.DayTable, 0, len(dates))
	for _, date := range dates {
		table, err := wu.FetchTable(ctx, opts.Station, date)
		if err != nil {
			return err
		}
		if table.NoData {
			log.Warn("page has no history table", "date", date)
		} else {
			log.Info("extracted history table", "date", date, "rows", len(table.Rows))
		}
		tables = append(tables, table)
	}

	readings, err := rain.Process(concat(tables), opts.Location)
	if err != nil {
		return fmt.Errorf("process readings: %w", err)
	}
	checkQuality(log, readings)

	renderer := report.NewRenderer(opts.Stdout, opts.Thresholds,
		report.WithColor(opts.Color),
		report.WithClock(opts.Clock),
	)
	summary, err := renderer.Render(readings)
	if err != nil {
		return err
	}

	m.AlertsTotal.WithLabelValues(opts.Station, "rate").Add(float64(summary.RateAlerts))
	m.AlertsTotal.WithLabelValues(opts.Station, "daily").Add(float64(summary.DailyAlerts))
	m.AlertsTotal.WithLabelValues(opts.Station, "hourly").Add(float64(summary.HourlyAlerts))
	m.PeakHourlyMM.WithLabelValues(opts.Station).Set(summary.PeakHourlyMM)

	if summary.HourlyAlerts > 0 {
		log.Warn("hourly accumulation over threshold",
			"alerts", summary.HourlyAlerts,
			"peak_mm", summary.PeakHourlyMM,
			"threshold_mm", opts.Thresholds.HourlyMM)
	}
	if summary.Shown > 0 {
		log.Info("report rendered",
			"rows", summary.Shown,
			"peak_rate_mm", summary.PeakRateMM,
			"peak_hourly_mm", summary.PeakHourlyMM,
			"peak_hourly_at", summary.PeakHourlyAt.Format(time.DateTime),
			"alerts", summary.Alerts())
	} else {
		log.Info("no readings in the last 24 hours")
	}
	return nil
}

func withDefaults(opts Options) Options {
	if opts.Thresholds == (models.Thresholds{}) {
		opts.Thresholds = models.DefaultThresholds
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.BaseURL == "" {
		opts.BaseURL = ingest.DefaultBaseURL
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	return opts
}

// concat yields the rows of each table in turn, oldest day first.
func concat(tables []models.DayTable) iter.Seq[models.RawRow] {
	return func(yield func(models.RawRow) bool) {
		for _, t := range tables {
			for row := range t.All() {
				if !yield(row) {
					return
				}
			}
		}
	}
}

func checkQuality(log *slog.Logger, readings []models.AccumulatedReading) {
	var prev *models.Reading
	for i := range readings {
		r := &readings[i].Reading
		if flags := rain.Validate(*r, prev); len(flags) > 0 {
			log.Warn("suspect reading", "time", r.Timestamp.Format(time.DateTime), "flags", flags)
		}
		prev = r
	}
}
