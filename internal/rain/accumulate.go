package rain

import (
	"iter"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lox/alertalluvia/internal/models"
)

// Window is the span of the trailing accumulation.
const Window = time.Hour

type sample struct {
	at time.Time
	mm decimal.Decimal
}

// Accumulate computes HourlyMM for each reading in input order. Readings are
// expected in non-decreasing time order and are not re-sorted. A reading
// exactly Window older than the current one is outside the window.
func Accumulate(readings []models.Reading) []models.AccumulatedReading {
	out := make([]models.AccumulatedReading, 0, len(readings))
	var recent []sample

	for _, r := range readings {
		cutoff := r.Timestamp.Add(-Window)
		recent = slices.DeleteFunc(recent, func(s sample) bool {
			return !s.at.After(cutoff)
		})
		recent = append(recent, sample{at: r.Timestamp, mm: decimal.NewFromFloat(r.RateMM)})

		sum := decimal.Zero
		for _, s := range recent {
			sum = sum.Add(s.mm)
		}

		out = append(out, models.AccumulatedReading{
			Reading:  r,
			HourlyMM: sum.Round(2).InexactFloat64(),
		})
	}
	return out
}

// Process parses every row and accumulates the result. The first row that
// fails to parse aborts processing.
func Process(rows iter.Seq[models.RawRow], loc *time.Location) ([]models.AccumulatedReading, error) {
	var readings []models.Reading
	for row := range rows {
		r, err := ParseReading(row, loc)
		if err != nil {
			return nil, err
		}
		readings = append(readings, r)
	}
	return Accumulate(readings), nil
}
