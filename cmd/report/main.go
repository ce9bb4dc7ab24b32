package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"databoard/internal/analytics"
	"databoard/internal/config"
	"databoard/internal/dataset"
	"databoard/internal/exporter"
	"databoard/internal/infrastructure"
	"databoard/internal/pipeline"
)

func main() {
	source := flag.String("source", "", "ridership CSV path (defaults to the configured dataset)")
	date := flag.String("date", "", "usage date to report, YYYY-MM-DD (required)")
	line := flag.String("line", "", "subway line to report, e.g. 2호선 (required)")
	top := flag.Int("top", 0, "number of stations to include (defaults to the configured top-n)")
	out := flag.String("out", "reports", "output directory for top_stations.csv and board.json")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("failed to load config, using defaults", "error", err)
		cfg = config.Default()
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	if *date == "" || *line == "" {
		fmt.Fprintln(os.Stderr, "both -date and -line are required")
		flag.Usage()
		os.Exit(1)
	}

	day, err := time.Parse("2006-01-02", *date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -date %q: expected YYYY-MM-DD\n", *date)
		os.Exit(1)
	}

	if *source == "" {
		*source = cfg.Datasets.RidershipPath
	}
	if *top < 1 {
		*top = cfg.Datasets.DefaultTopN
	}

	state := pipeline.NewState("")
	state.SourcePath = *source
	state.Query = analytics.TopQuery{Date: day, Line: *line, TopN: *top}

	runner := pipeline.NewRunner(pipeline.DefaultStages(), logger, nil)
	if err := runner.Run(context.Background(), state); err != nil {
		fmt.Fprintln(os.Stderr, reportMessage(err))
		os.Exit(1)
	}

	writer := exporter.NewWriter(*out, logger)

	csvPath, err := writer.WriteTopStationsCSV(state.Rows)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to write report: %v\n", err)
		os.Exit(1)
	}
	jsonPath, err := writer.WriteBoardJSON(state.Board)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to write report: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("wrote %s and %s (%d stations)\n", csvPath, jsonPath, len(state.Rows))
}

// reportMessage turns pipeline errors into operator-facing messages.
func reportMessage(err error) string {
	var notFound *dataset.SourceNotFoundError
	if errors.As(err, &notFound) {
		return fmt.Sprintf("dataset not found: %s", notFound.Path)
	}

	var unreadable *dataset.UnreadableError
	if errors.As(err, &unreadable) {
		return fmt.Sprintf("dataset could not be parsed: %v", unreadable)
	}

	var missing *analytics.MissingColumnError
	if errors.As(err, &missing) {
		return fmt.Sprintf("dataset is missing a required column: %s", missing.Column)
	}

	if errors.Is(err, analytics.ErrEmptySelection) {
		return "no rows match the requested date and line"
	}

	return fmt.Sprintf("report failed: %v", err)
}
