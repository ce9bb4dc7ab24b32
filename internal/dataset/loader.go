package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
)

// attempt is one (encoding, separator) combination the loader tries.
type attempt struct {
	label    string
	encoding encoding.Encoding // nil means the payload is already UTF-8
	sep      rune
}

// attempts is the fixed list tried in order: default UTF-8 first, then the
// legacy single-byte Korean encoding, comma before tab.
var attempts = []attempt{
	{label: "utf-8/comma", encoding: nil, sep: ','},
	{label: "utf-8/tab", encoding: nil, sep: '\t'},
	{label: "cp949/comma", encoding: korean.EUCKR, sep: ','},
	{label: "cp949/tab", encoding: korean.EUCKR, sep: '\t'},
}

var utf8BOM = []byte{0xef, 0xbb, 0xbf}

// zipMagic is the signature of xlsx payloads (ZIP local file header).
var zipMagic = []byte{'P', 'K', 0x03, 0x04}

// Load reads the table at path. A missing file yields SourceNotFoundError;
// a file no attempt can parse yields UnreadableError.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &SourceNotFoundError{Path: path}
		}
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	return LoadStream(f, filepath.Base(path))
}

// LoadStream reads a table from an in-memory or uploaded byte stream. The
// stream is rewound between parse attempts and fully consumed by the first
// one that succeeds. name is used only to recognize xlsx uploads.
func LoadStream(r io.ReadSeeker, name string) (*Table, error) {
	isWorkbook, err := sniffWorkbook(r, name)
	if err != nil {
		return nil, err
	}
	if isWorkbook {
		return loadWorkbook(r)
	}

	var last error
	tried := make([]string, 0, len(attempts))

	for _, a := range attempts {
		if _, err := r.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("failed to rewind stream: %w", err)
		}

		tried = append(tried, a.label)
		table, err := parseDelimited(r, a)
		if err != nil {
			last = err
			continue
		}
		return table, nil
	}

	return nil, &UnreadableError{Attempts: tried, Last: last}
}

// sniffWorkbook checks the stream for the xlsx signature without consuming it.
func sniffWorkbook(r io.ReadSeeker, name string) (bool, error) {
	if strings.EqualFold(filepath.Ext(name), ".xlsx") {
		return true, nil
	}

	magic := make([]byte, len(zipMagic))
	n, err := io.ReadFull(r, magic)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return false, fmt.Errorf("failed to sniff stream: %w", err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return false, fmt.Errorf("failed to rewind stream: %w", err)
	}

	return n == len(zipMagic) && bytes.Equal(magic, zipMagic), nil
}

// loadWorkbook reads the first sheet of an xlsx workbook into a table.
func loadWorkbook(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &UnreadableError{Attempts: []string{"xlsx"}, Last: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &UnreadableError{Attempts: []string{"xlsx"}, Last: fmt.Errorf("workbook has no sheets")}
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &UnreadableError{Attempts: []string{"xlsx"}, Last: err}
	}
	if len(rows) == 0 {
		return nil, &UnreadableError{Attempts: []string{"xlsx"}, Last: fmt.Errorf("sheet %q is empty", sheets[0])}
	}

	return tableFromRecords(rows), nil
}

// parseDelimited attempts one (encoding, separator) parse of the stream.
func parseDelimited(r io.Reader, a attempt) (*Table, error) {
	if a.encoding != nil {
		r = transform.NewReader(r, a.encoding.NewDecoder())
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%s: read failed: %w", a.label, err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%s: payload is empty", a.label)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%s: payload is not valid UTF-8 after decoding", a.label)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = a.sep
	// Field count consistency against the header row is part of the
	// success criteria; csv.Reader enforces it from the first record.
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.label, err)
	}
	if len(records) == 0 || len(records[0]) == 0 {
		return nil, fmt.Errorf("%s: no header row", a.label)
	}

	return tableFromRecords(records), nil
}

// tableFromRecords promotes the first record to headers and wraps the rest
// as string cells, padding ragged rows (xlsx sheets trim trailing empties).
func tableFromRecords(records [][]string) *Table {
	headers := records[0]

	table := &Table{
		Columns: make([]string, len(headers)),
		Rows:    make([][]Cell, 0, len(records)-1),
	}
	copy(table.Columns, headers)

	for _, record := range records[1:] {
		row := make([]Cell, len(headers))
		for i := range headers {
			if i < len(record) {
				row[i] = StringCell(record[i])
			} else {
				row[i] = EmptyCell()
			}
		}
		table.Rows = append(table.Rows, row)
	}

	return table
}
