// Package report prints accumulated readings as a fixed-width, colour-coded
// terminal table.
package report

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/jonboulle/clockwork"
	"gonum.org/v1/gonum/floats"

	"github.com/lox/alertalluvia/internal/models"
)

const (
	// Lookback is how far back from now rows are shown.
	Lookback = 24 * time.Hour

	timeLayout = "2006-01-02 15:04"
)

var (
	headers = []string{"TIME", "PRECIP. RATE", "P. ACCUM", "P. ACCUM/HOUR"}
	widths  = []int{27, 15, 15, 15}
)

// Summary describes what a Render call printed. It is returned to the
// caller rather than written, so the output stays one line per reading.
type Summary struct {
	Shown        int
	RateAlerts   int
	DailyAlerts  int
	HourlyAlerts int
	PeakRateMM   float64
	PeakHourlyMM float64
	PeakHourlyAt time.Time
}

func (s Summary) Alerts() int {
	return s.RateAlerts + s.DailyAlerts + s.HourlyAlerts
}

type Renderer struct {
	w          io.Writer
	thresholds models.Thresholds
	clock      clockwork.Clock

	bold  *color.Color
	ok    *color.Color
	warn  *color.Color
	alert *color.Color
}

type Option func(*Renderer)

// WithColor forces ANSI escapes on or off regardless of the terminal.
func WithColor(enabled bool) Option {
	return func(r *Renderer) {
		for _, c := range []*color.Color{r.bold, r.ok, r.warn, r.alert} {
			if enabled {
				c.EnableColor()
			} else {
				c.DisableColor()
			}
		}
	}
}

// WithClock sets the time source for the 24 hour cutoff.
func WithClock(clock clockwork.Clock) Option {
	return func(r *Renderer) { r.clock = clock }
}

func NewRenderer(w io.Writer, thresholds models.Thresholds, opts ...Option) *Renderer {
	r := &Renderer{
		w:          w,
		thresholds: thresholds,
		clock:      clockwork.NewRealClock(),
		bold:       color.New(color.Bold),
		ok:         color.New(color.FgGreen),
		warn:       color.New(color.FgRed),
		alert:      color.New(color.FgRed, color.Bold),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render prints the header and every row no older than Lookback. The cutoff
// is taken from the clock when Render is called, not when data was fetched.
func (r *Renderer) Render(rows []models.AccumulatedReading) (Summary, error) {
	cutoff := r.clock.Now().Add(-Lookback)
	out := bufio.NewWriter(r.w)

	var header string
	for i, h := range headers {
		header += pad(h, widths[i])
	}
	fmt.Fprintln(out, r.bold.Sprint(header))

	var (
		summary Summary
		rates   []float64
		hourly  []float64
		stamps  []time.Time
	)

	for _, row := range rows {
		if row.Timestamp.Before(cutoff) {
			continue
		}
		fmt.Fprintln(out, r.formatRow(row, &summary))

		summary.Shown++
		rates = append(rates, row.RateMM)
		hourly = append(hourly, row.HourlyMM)
		stamps = append(stamps, row.Timestamp)
	}

	if summary.Shown > 0 {
		summary.PeakRateMM = floats.Max(rates)
		i := floats.MaxIdx(hourly)
		summary.PeakHourlyMM = hourly[i]
		summary.PeakHourlyAt = stamps[i]
	}

	if err := out.Flush(); err != nil {
		return summary, fmt.Errorf("write report: %w", err)
	}
	return summary, nil
}

func (r *Renderer) formatRow(row models.AccumulatedReading, summary *Summary) string {
	th := r.thresholds
	line := r.bold.Sprint(pad(row.Timestamp.Format(timeLayout), widths[0]))

	c := r.ok
	if row.RateMM >= th.RateMM {
		c = r.warn
		summary.RateAlerts++
	}
	line += c.Sprintf("%-*.2f", widths[1], row.RateMM)

	c = r.ok
	if row.CumulativeMM >= th.DailyMM {
		c = r.warn
		summary.DailyAlerts++
	}
	line += c.Sprintf("%-*.2f", widths[2], row.CumulativeMM)

	if row.HourlyMM < th.HourlyMM {
		line += r.ok.Sprintf("%-*.2f", widths[3], row.HourlyMM)
	} else {
		summary.HourlyAlerts++
		line += r.alert.Sprintf("%-*.2f ALERT > %smm/hour", widths[3], row.HourlyMM,
			strconv.FormatFloat(th.HourlyMM, 'f', -1, 64))
	}
	return line
}

// pad left-aligns s in a field of width runes, truncating longer values.
func pad(s string, width int) string {
	runes := []rune(s)
	if len(runes) > width {
		runes = runes[:width]
	}
	return fmt.Sprintf("%-*s", width, string(runes))
}
