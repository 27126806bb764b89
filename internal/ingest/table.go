package ingest

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/lox/alertalluvia/internal/models"
)

// historyTableSelector matches the dashboard's history tables. The first
// match is a summary; the observations are in the second.
const historyTableSelector = "table.history-table"

var requiredColumns = []string{
	models.ColumnTime,
	models.ColumnPrecipRate,
	models.ColumnPrecipAccum,
}

// MissingColumnError is returned when the history table header lacks a
// column the accumulator needs.
type MissingColumnError struct {
	Column  string
	Headers []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("history table has no %q column (headers: %s)", e.Column, strings.Join(e.Headers, ", "))
}

// ExtractTable parses a history page and returns the rows of its data table,
// each tagged with date. A page without the data table yields NoData.
func ExtractTable(body io.Reader, date string) (models.DayTable, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return models.DayTable{}, fmt.Errorf("parse html: %w", err)
	}

	day := models.DayTable{Date: date}

	tables := doc.Find(historyTableSelector)
	if tables.Length() < 2 {
		day.NoData = true
		return day, nil
	}

	// A data table without rows is an idle day, not a missing one.
	trs := tables.Eq(1).Find("tr")
	if trs.Length() == 0 {
		return day, nil
	}

	var headers []string
	trs.First().Find("th, td").Each(func(_ int, cell *goquery.Selection) {
		headers = append(headers, strings.TrimSpace(cell.Text()))
	})

	columns := make(map[string]int, len(headers))
	for i, h := range headers {
		key := models.NormalizeHeader(h)
		if _, seen := columns[key]; !seen {
			columns[key] = i
		}
	}
	for _, c := range requiredColumns {
		if _, ok := columns[c]; !ok {
			return models.DayTable{}, &MissingColumnError{Column: c, Headers: headers}
		}
	}

	trs.Slice(1, trs.Length()).Each(func(_ int, tr *goquery.Selection) {
		tds := tr.Find("td")
		if tds.Length() == 0 {
			return
		}
		cells := make([]string, 0, tds.Length())
		tds.Each(func(_ int, td *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(td.Text()))
		})
		day.Rows = append(day.Rows, models.RawRow{
			Date:    date,
			Cells:   cells,
			Columns: columns,
		})
	})

	return day, nil
}
