package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/lox/alertalluvia/internal/htmlutil"
	"github.com/lox/alertalluvia/internal/httputil"
	"github.com/lox/alertalluvia/internal/metrics"
	"github.com/lox/alertalluvia/internal/models"
)

const (
	DefaultBaseURL = "https://www.wunderground.com/dashboard/pws"

	snippetLength = 200
)

// FetchError reports a history page that came back with a non-200 status.
type FetchError struct {
	Station    string
	Date       string
	StatusCode int
	Snippet    string
}

func (e *FetchError) Error() string {
	if e.Snippet == "" {
		return fmt.Sprintf("fetch %s %s: status %d", e.Station, e.Date, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s %s: status %d: %s", e.Station, e.Date, e.StatusCode, e.Snippet)
}

// Wunderground fetches a station's daily history table from the public
// dashboard. There is no retry: a failed fetch fails the run.
type Wunderground struct {
	client  *http.Client
	baseURL string
	metrics *metrics.Metrics
	logger  *slog.Logger
}

type Option func(*Wunderground)

func WithBaseURL(baseURL string) Option {
	return func(w *Wunderground) { w.baseURL = baseURL }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Wunderground) { w.metrics = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Wunderground) { w.logger = logger }
}

func NewWunderground(client *http.Client, opts ...Option) *Wunderground {
	if client == nil {
		client = httputil.NewClient(0)
	}
	w := &Wunderground{
		client:  client,
		baseURL: DefaultBaseURL,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// DayURL returns the daily table URL for a station and ISO date.
func (w *Wunderground) DayURL(station, date string) string {
	return fmt.Sprintf("%s/%s/table/%s/%s/daily", w.baseURL, url.PathEscape(station), date, date)
}

// FetchDay returns the raw history page for one calendar day.
func (w *Wunderground) FetchDay(ctx context.Context, station, date string) ([]byte, error) {
	u := w.DayURL(station, date)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", httputil.UserAgent)

	w.logger.Debug("fetching history page", "station", station, "date", date, "url", u)
	start := time.Now()
	resp, err := w.client.Do(req)
	if err != nil {
		w.observe(station, "error", start)
		return nil, fmt.Errorf("fetch %s %s: %w", station, date, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	w.observe(station, strconv.Itoa(resp.StatusCode), start)
	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{
			Station:    station,
			Date:       date,
			StatusCode: resp.StatusCode,
			Snippet:    htmlutil.Snippet(string(body), snippetLength),
		}
	}
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	w.logger.Debug("fetched history page", "station", station, "date", date, "bytes", len(body))
	return body, nil
}

// FetchTable fetches one day and extracts its history table.
func (w *Wunderground) FetchTable(ctx context.Context, station, date string) (models.DayTable, error) {
	body, err := w.FetchDay(ctx, station, date)
	if err != nil {
		return models.DayTable{}, err
	}

	table, err := ExtractTable(bytes.NewReader(body), date)
	if err != nil {
		return models.DayTable{}, fmt.Errorf("extract %s %s: %w", station, date, err)
	}

	if w.metrics != nil {
		if table.NoData {
			w.metrics.NoDataDays.WithLabelValues(station).Inc()
		}
		w.metrics.RowsExtracted.WithLabelValues(station).Add(float64(len(table.Rows)))
	}
	return table, nil
}

func (w *Wunderground) observe(station, status string, start time.Time) {
	if w.metrics == nil {
		return
	}
	w.metrics.FetchesTotal.WithLabelValues(station, status).Inc()
	w.metrics.FetchLatency.WithLabelValues(station).Observe(time.Since(start).Seconds())
}
