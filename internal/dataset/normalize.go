package dataset

import (
	"strconv"
	"strings"
	"time"
)

// Canonical column keys used internally regardless of source header language.
const (
	ColDate        = "date"
	ColLine        = "line"
	ColStation     = "station"
	ColOn          = "on"
	ColOff         = "off"
	ColItem        = "item"
	ColDaypart     = "daypart"
	ColDayType     = "daytype"
	ColTransaction = "transaction"
)

// RenameRule maps a keyword set to a canonical key. A header matches when it
// contains every keyword (case-insensitive).
type RenameRule struct {
	Keywords  []string
	Canonical string
}

// RenameRules is the explicit, priority-ordered header mapping table. The
// first rule fully contained in a header wins; the order resolves
// overlapping keywords deterministically (the bare 승차/하차 rules sit after
// their qualified forms). Unmatched headers pass through unchanged.
var RenameRules = []RenameRule{
	{Keywords: []string{"사용일자"}, Canonical: ColDate},
	{Keywords: []string{"노선명"}, Canonical: ColLine},
	{Keywords: []string{"호선"}, Canonical: ColLine},
	{Keywords: []string{"역사명"}, Canonical: ColStation},
	{Keywords: []string{"역명"}, Canonical: ColStation},
	{Keywords: []string{"승차", "승객"}, Canonical: ColOn},
	{Keywords: []string{"승차"}, Canonical: ColOn},
	{Keywords: []string{"하차", "승객"}, Canonical: ColOff},
	{Keywords: []string{"하차"}, Canonical: ColOff},
	{Keywords: []string{"transactionno"}, Canonical: ColTransaction},
	{Keywords: []string{"transaction"}, Canonical: ColTransaction},
	{Keywords: []string{"items"}, Canonical: ColItem},
	{Keywords: []string{"item"}, Canonical: ColItem},
	{Keywords: []string{"daypart"}, Canonical: ColDaypart},
	{Keywords: []string{"daytype"}, Canonical: ColDayType},
	{Keywords: []string{"datetime"}, Canonical: ColDate},
	{Keywords: []string{"날짜"}, Canonical: ColDate},
	{Keywords: []string{"usage", "date"}, Canonical: ColDate},
	{Keywords: []string{"date"}, Canonical: ColDate},
}

// dateFormats are tried in order; the compact numeric form comes first.
var dateFormats = []string{
	"20060102",
	"2006-01-02",
	"2006/01/02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// numericColumns are coerced to integers, unparseable values becoming zero.
var numericColumns = []string{ColOn, ColOff, ColTransaction}

// textColumns are forced to string representation.
var textColumns = []string{ColStation, ColLine, ColItem, ColDaypart, ColDayType}

// Normalize returns a normalized copy of the raw loaded table. It is
// idempotent: normalizing already-normalized output yields no changes. It
// only acts on columns that are present; missing optional columns never
// cause a failure here.
func Normalize(raw *Table) *Table {
	t := raw.Clone()

	trimColumnNames(t)
	repairTabCollapse(t)
	renameColumns(t)
	parseDateColumn(t, ColDate)
	for _, col := range numericColumns {
		parseNumericColumn(t, col)
	}
	for _, col := range textColumns {
		stringifyColumn(t, col)
	}

	return t
}

// trimColumnNames strips surrounding whitespace from every column name.
func trimColumnNames(t *Table) {
	for i, col := range t.Columns {
		t.Columns[i] = strings.TrimSpace(col)
	}
}

// repairTabCollapse fixes a table that collapsed to a single column because
// the true delimiter was a tab: the lone column name is the original header
// line, so it is tab-split into the real headers and each data row's single
// payload cell is tab-split to match. Short rows are padded with the empty
// sentinel; row count is preserved.
func repairTabCollapse(t *Table) {
	if len(t.Columns) != 1 || !strings.Contains(t.Columns[0], "\t") {
		return
	}

	headers := strings.Split(t.Columns[0], "\t")
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}

	rows := make([][]Cell, len(t.Rows))
	for i, row := range t.Rows {
		var payload string
		if len(row) > 0 {
			payload = row[0].String()
		}
		fields := strings.Split(payload, "\t")

		cells := make([]Cell, len(headers))
		for j := range headers {
			if j < len(fields) {
				cells[j] = StringCell(fields[j])
			} else {
				cells[j] = EmptyCell()
			}
		}
		rows[i] = cells
	}

	t.Columns = headers
	t.Rows = rows
}

// renameColumns applies RenameRules in priority order. Each canonical key is
// assigned at most once; a later column matching an already-assigned key
// passes through unchanged.
func renameColumns(t *Table) {
	assigned := make(map[string]bool, len(t.Columns))
	for _, col := range t.Columns {
		assigned[col] = true
	}

	for i, col := range t.Columns {
		if canonical := matchRename(col); canonical != "" && col != canonical && !assigned[canonical] {
			t.Columns[i] = canonical
			assigned[canonical] = true
		}
	}
}

// matchRename returns the canonical key for a header, or empty when no rule
// matches.
func matchRename(header string) string {
	lower := strings.ToLower(header)
	for _, rule := range RenameRules {
		matched := true
		for _, kw := range rule.Keywords {
			if !strings.Contains(lower, kw) {
				matched = false
				break
			}
		}
		if matched {
			return rule.Canonical
		}
	}
	return ""
}

// parseDateColumn coerces the named column to calendar dates. Unparseable
// values become the explicit empty sentinel rather than failing the run.
func parseDateColumn(t *Table, name string) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return
	}

	for _, row := range t.Rows {
		if idx >= len(row) {
			continue
		}
		cell := row[idx]
		if cell.Kind == KindTime || cell.IsEmpty() {
			continue
		}

		row[idx] = parseDate(strings.TrimSpace(cell.String()))
	}
}

// parseDate tries the fixed compact numeric format first, then best-effort
// fallbacks.
func parseDate(s string) Cell {
	if s == "" {
		return EmptyCell()
	}
	for _, layout := range dateFormats {
		if ts, err := time.Parse(layout, s); err == nil {
			return TimeCell(ts)
		}
	}
	return EmptyCell()
}

// parseNumericColumn coerces the named column to integers, stripping
// thousands separators; unparseable values become zero.
func parseNumericColumn(t *Table, name string) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return
	}

	for _, row := range t.Rows {
		if idx >= len(row) {
			continue
		}
		cell := row[idx]
		if cell.Kind == KindInt {
			continue
		}

		row[idx] = IntCell(parseInt(cell.String()))
	}
}

// parseInt strips thousands separators and truncates float forms.
func parseInt(s string) int64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f)
	}
	return 0
}

// stringifyColumn forces the named column to text representation.
func stringifyColumn(t *Table, name string) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return
	}

	for _, row := range t.Rows {
		if idx >= len(row) {
			continue
		}
		cell := row[idx]
		if cell.Kind == KindString || cell.IsEmpty() {
			continue
		}

		row[idx] = StringCell(cell.String())
	}
}
