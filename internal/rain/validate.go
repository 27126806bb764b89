package rain

import (
	"time"

	"github.com/lox/alertalluvia/internal/models"
)

const (
	FlagRateNegative       = "rate_negative"
	FlagCumulativeNegative = "cumulative_negative"
	FlagCumulativeDropped  = "cumulative_dropped"
)

// Validate returns quality flags for a reading. prev is the preceding reading
// of the same day, or nil. Flagged readings are still used.
func Validate(r models.Reading, prev *models.Reading) []string {
	var flags []string

	if r.RateMM < 0 {
		flags = append(flags, FlagRateNegative)
	}
	if r.CumulativeMM < 0 {
		flags = append(flags, FlagCumulativeNegative)
	}

	// The daily total resets at midnight, so only compare within a day.
	if prev != nil && sameDay(prev.Timestamp, r.Timestamp) && r.CumulativeMM < prev.CumulativeMM {
		flags = append(flags, FlagCumulativeDropped)
	}

	return flags
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
