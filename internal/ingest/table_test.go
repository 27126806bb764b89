package ingest

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/alertalluvia/internal/models"
)

var historyHeaders = []string{
	"Time", "Temperature", "Dew Point", "Humidity", "Wind", "Speed",
	"Gust", "Pressure", "Precip. Rate.", "Precip. Accum.", "UV", "Solar",
}

func historyRow(tm, rate, accum string) []string {
	return []string{tm, "52.3 °F", "48.1 °F", "86 °%", "WSW", "1.2 °mph", "2.5 °mph", "29.91 °in", rate, accum, "0", "0 w/m²"}
}

func historyPage(headers []string, rows ...[]string) string {
	var b strings.Builder
	b.WriteString(`<html><body>`)
	b.WriteString(`<table class="history-table summary-table"><tr><th>High</th><th>Low</th></tr><tr><td>55</td><td>40</td></tr></table>`)
	b.WriteString(`<table class="history-table desktop-table"><thead><tr>`)
	for _, h := range headers {
		b.WriteString("<th>" + h + "</th>")
	}
	b.WriteString(`</tr></thead><tbody>`)
	for _, r := range rows {
		b.WriteString("<tr>")
		for _, c := range r {
			b.WriteString("<td>\n  " + c + "  \n</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString(`</tbody></table></body></html>`)
	return b.String()
}

func TestExtractTable(t *testing.T) {
	page := historyPage(historyHeaders,
		historyRow("11:00 PM", "0.39 in", "0.39 in"),
		historyRow("11:30 PM", "0.20 in", "0.59 in"),
	)

	day, err := ExtractTable(strings.NewReader(page), "2024-11-26")
	require.NoError(t, err)

	assert.False(t, day.NoData)
	assert.Equal(t, "2024-11-26", day.Date)
	require.Len(t, day.Rows, 2)

	first := day.Rows[0]
	assert.Equal(t, "2024-11-26 11:00 PM", first.Timestamp())
	assert.Len(t, first.Cells, len(historyHeaders))

	rate, ok := first.Cell(models.ColumnPrecipRate)
	require.True(t, ok)
	assert.Equal(t, "0.39 in", rate)

	accum, ok := day.Rows[1].Cell(models.ColumnPrecipAccum)
	require.True(t, ok)
	assert.Equal(t, "0.59 in", accum)
}

func TestExtractTable_ColumnsByHeader(t *testing.T) {
	headers := []string{"Precip. Accum.", "Time", "Precip. Rate."}
	page := historyPage(headers, []string{"0.10 in", "1:15 AM", "0.05 in"})

	day, err := ExtractTable(strings.NewReader(page), "2024-11-27")
	require.NoError(t, err)
	require.Len(t, day.Rows, 1)

	row := day.Rows[0]
	assert.Equal(t, "2024-11-27 1:15 AM", row.Timestamp())
	rate, _ := row.Cell(models.ColumnPrecipRate)
	assert.Equal(t, "0.05 in", rate)
	accum, _ := row.Cell(models.ColumnPrecipAccum)
	assert.Equal(t, "0.10 in", accum)
}

func TestExtractTable_NoData(t *testing.T) {
	tests := []struct {
		name string
		page string
	}{
		{"no tables", `<html><body><p>Station offline</p></body></html>`},
		{"summary table only", `<html><body><table class="history-table"><tr><td>High</td></tr></table></body></html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			day, err := ExtractTable(strings.NewReader(tt.page), "2024-11-26")
			require.NoError(t, err)
			assert.True(t, day.NoData)
			assert.Empty(t, day.Rows)
			assert.Equal(t, "2024-11-26", day.Date)
		})
	}
}

func TestExtractTable_EmptyDataTableIsIdle(t *testing.T) {
	page := `<html><body><table class="history-table"></table><table class="history-table"></table></body></html>`

	day, err := ExtractTable(strings.NewReader(page), "2024-11-26")
	require.NoError(t, err)
	assert.False(t, day.NoData)
	assert.Empty(t, day.Rows)
	assert.Equal(t, "2024-11-26", day.Date)
}

func TestExtractTable_HeaderOnlyIsIdleNotNoData(t *testing.T) {
	day, err := ExtractTable(strings.NewReader(historyPage(historyHeaders)), "2024-11-26")
	require.NoError(t, err)
	assert.False(t, day.NoData)
	assert.Empty(t, day.Rows)
}

func TestExtractTable_SkipsRowsWithoutCells(t *testing.T) {
	page := strings.Replace(
		historyPage(historyHeaders, historyRow("12:04 AM", "0.00 in", "0.00 in")),
		"<tbody>", "<tbody><tr></tr><tr><th>spacer</th></tr>", 1)

	day, err := ExtractTable(strings.NewReader(page), "2024-11-26")
	require.NoError(t, err)
	require.Len(t, day.Rows, 1)
	assert.Equal(t, "2024-11-26 12:04 AM", day.Rows[0].Timestamp())
}

func TestExtractTable_MissingColumn(t *testing.T) {
	headers := []string{"Time", "Temperature", "Precip. Accum."}
	page := historyPage(headers, []string{"1:00 AM", "50 °F", "0.00 in"})

	_, err := ExtractTable(strings.NewReader(page), "2024-11-26")
	require.Error(t, err)

	var missing *MissingColumnError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, models.ColumnPrecipRate, missing.Column)
	assert.Equal(t, headers, missing.Headers)
}

func TestDayTable_All(t *testing.T) {
	page := historyPage(historyHeaders,
		historyRow("1:00 AM", "0.00 in", "0.00 in"),
		historyRow("1:05 AM", "0.01 in", "0.01 in"),
	)
	day, err := ExtractTable(strings.NewReader(page), "2024-11-26")
	require.NoError(t, err)

	var got []string
	for row := range day.All() {
		got = append(got, row.Timestamp())
	}
	assert.Equal(t, []string{"2024-11-26 1:00 AM", "2024-11-26 1:05 AM"}, got)
}
