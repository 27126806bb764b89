package models

import (
	"iter"
	"slices"
	"strings"
	"time"
)

// Column keys for the Weather Underground daily history table, normalised
// with NormalizeHeader.
const (
	ColumnTime        = "time"
	ColumnPrecipRate  = "preciprate"
	ColumnPrecipAccum = "precipaccum"
)

// RawRow is one data row of a station's history table.
type RawRow struct {
	Date    string         // page date, YYYY-MM-DD
	Cells   []string       // trimmed cell text
	Columns map[string]int // normalised header -> cell index
}

// Cell returns the text of the named column, or false when the row is too
// short or the column is unknown.
func (r RawRow) Cell(column string) (string, bool) {
	idx, ok := r.Columns[column]
	if !ok || idx >= len(r.Cells) {
		return "", false
	}
	return r.Cells[idx], true
}

// Timestamp joins the page date with the time-of-day cell, e.g.
// "2024-11-26 11:30 PM".
func (r RawRow) Timestamp() string {
	t, _ := r.Cell(ColumnTime)
	return r.Date + " " + t
}

// NormalizeHeader lowercases a header and drops everything but letters, so
// "Precip. Rate." becomes "preciprate".
func NormalizeHeader(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// DayTable is the extracted history table for one calendar day. NoData is set
// when the page did not contain the history table at all, which is distinct
// from a table with zero rain.
type DayTable struct {
	Date   string
	Rows   []RawRow
	NoData bool
}

type Reading struct {
	Timestamp    time.Time
	RateMM       float64
	CumulativeMM float64
}

type AccumulatedReading struct {
	Reading
	HourlyMM float64 // sum of RateMM over (Timestamp-1h, Timestamp]
}

// Thresholds are the alert levels in millimetres.
type Thresholds struct {
	HourlyMM float64
	RateMM   float64
	DailyMM  float64
}

var DefaultThresholds = Thresholds{
	HourlyMM: 300,
	RateMM:   60,
	DailyMM:  250,
}

// All yields the table's rows in page order.
func (d DayTable) All() iter.Seq[RawRow] {
	return slices.Values(d.Rows)
}
