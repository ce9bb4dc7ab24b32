// Package exporter writes board artifacts for the report CLI: the aggregate
// table as CSV and the chart specification as JSON.
package exporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"databoard/pkg/contracts/domain"
)

// File names written into the output directory.
const (
	TopStationsFile = "top_stations.csv"
	BoardFile       = "board.json"
)

// Writer writes report artifacts into one output directory.
type Writer struct {
	outDir string
	logger *slog.Logger
}

// NewWriter creates a writer rooted at outDir. The directory is created on
// first write.
func NewWriter(outDir string, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{outDir: outDir, logger: logger}
}

// WriteTopStationsCSV writes the aggregate as rank,station,total. The file
// carries a UTF-8 BOM so Excel renders the Korean station names.
func (w *Writer) WriteTopStationsCSV(rows []domain.AggregateRow) (string, error) {
	path := filepath.Join(w.outDir, TopStationsFile)
	if err := os.MkdirAll(w.outDir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", TopStationsFile, err)
	}
	defer file.Close()

	if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return "", fmt.Errorf("write BOM: %w", err)
	}

	cw := csv.NewWriter(file)
	if err := cw.Write([]string{"rank", "station", "total"}); err != nil {
		return "", fmt.Errorf("write header: %w", err)
	}
	for i, row := range rows {
		record := []string{
			strconv.Itoa(i + 1),
			row.Key,
			strconv.FormatInt(row.Total, 10),
		}
		if err := cw.Write(record); err != nil {
			return "", fmt.Errorf("write record %d: %w", i+1, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}

	w.logger.Info("report written",
		slog.String("path", path),
		slog.Int("rows", len(rows)))
	return path, nil
}

// WriteBoardJSON writes the full board envelope, indented for human
// inspection.
func (w *Writer) WriteBoardJSON(board domain.Board) (string, error) {
	path := filepath.Join(w.outDir, BoardFile)
	if err := os.MkdirAll(w.outDir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	data, err := json.MarshalIndent(board, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal board: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", BoardFile, err)
	}

	w.logger.Info("report written", slog.String("path", path))
	return path, nil
}
