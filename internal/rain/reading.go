// Package rain turns history table rows into readings and derives the
// trailing one-hour rainfall accumulation.
package rain

import (
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lox/alertalluvia/internal/models"
)

// TimestampLayout is the page date joined with the table's 12-hour time cell.
const TimestampLayout = "2006-01-02 3:04 PM"

var (
	mmPerInch    = decimal.RequireFromString("25.4")
	numberPrefix = regexp.MustCompile(`^[-+]?(\d+(\.\d*)?|\.\d+)`)
)

// ParseError reports a row whose timestamp or precipitation cell does not
// have the expected shape.
type ParseError struct {
	Row    string
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s %q in row %q: %v", e.Column, e.Value, e.Row, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParseReading converts a raw row into a Reading in millimetres. The
// timestamp is interpreted as wall-clock time in loc.
func ParseReading(row models.RawRow, loc *time.Location) (models.Reading, error) {
	stamp := row.Timestamp()
	ts, err := time.ParseInLocation(TimestampLayout, stamp, loc)
	if err != nil {
		return models.Reading{}, &ParseError{Row: stamp, Column: models.ColumnTime, Value: stamp, Err: err}
	}

	rate, err := cellMM(row, models.ColumnPrecipRate)
	if err != nil {
		return models.Reading{}, err
	}
	accum, err := cellMM(row, models.ColumnPrecipAccum)
	if err != nil {
		return models.Reading{}, err
	}

	return models.Reading{
		Timestamp:    ts,
		RateMM:       rate.InexactFloat64(),
		CumulativeMM: accum.InexactFloat64(),
	}, nil
}

func cellMM(row models.RawRow, column string) (decimal.Decimal, error) {
	value, ok := row.Cell(column)
	if !ok {
		return decimal.Zero, &ParseError{Row: row.Timestamp(), Column: column, Err: fmt.Errorf("cell missing")}
	}
	mm, err := InchesToMM(value)
	if err != nil {
		return decimal.Zero, &ParseError{Row: row.Timestamp(), Column: column, Value: value, Err: err}
	}
	return mm, nil
}

// InchesToMM parses a reading such as `0.12 in` or `1.00"`, dropping the unit
// suffix, and returns millimetres rounded to two decimal places.
func InchesToMM(s string) (decimal.Decimal, error) {
	num := numberPrefix.FindString(s)
	if num == "" {
		return decimal.Zero, fmt.Errorf("no numeric value")
	}
	inches, err := decimal.NewFromString(num)
	if err != nil {
		return decimal.Zero, err
	}
	return inches.Mul(mmPerInch).Round(2), nil
}
