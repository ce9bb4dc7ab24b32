package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"databoard/internal/infrastructure"
)

const tracerName = "databoard.pipeline"

// Runner executes the stage sequence for one run at a time. It is safe for
// concurrent use: every Run call operates on its own State.
type Runner struct {
	stages  []Stage
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *infrastructure.BusinessMetrics
}

// NewRunner creates a runner over the given stages. metrics may be nil when
// observability is disabled.
func NewRunner(stages []Stage, logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		stages:  stages,
		logger:  logger,
		tracer:  otel.Tracer(tracerName),
		metrics: metrics,
	}
}

// Run executes the stages in order against state, stopping at the first
// failure. The returned error is the failing stage's error; state records
// which stage failed.
func (r *Runner) Run(ctx context.Context, state *State) error {
	if state.ID == "" {
		state.ID = uuid.New().String()
	}
	ctx = infrastructure.WithTraceID(ctx, state.ID)
	logger := r.logger.With(slog.String("run_id", state.ID))

	ctx, span := r.tracer.Start(ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", state.ID),
			attribute.Int("run.stages", len(r.stages)),
		),
	)
	defer span.End()

	state.Start()
	if r.metrics != nil {
		r.metrics.PipelineRunsTotal.Add(ctx, 1)
	}
	logger.InfoContext(ctx, "pipeline run started",
		slog.String("source", state.SourcePath),
		slog.String("line", state.Query.Line),
		slog.Int("top_n", state.Query.TopN))

	for _, stage := range r.stages {
		if err := r.runStage(ctx, logger, stage, state); err != nil {
			state.Fail(stage.ID(), err)
			span.RecordError(err)
			span.SetStatus(codes.Error, fmt.Sprintf("stage %s failed", stage.ID()))
			if r.metrics != nil {
				r.metrics.PipelineFailuresTotal.Add(ctx, 1,
					metric.WithAttributes(attribute.String("stage", stage.ID())))
			}
			logger.ErrorContext(ctx, "pipeline run failed",
				slog.String("stage", stage.ID()),
				slog.String("error", err.Error()))
			return err
		}
	}

	state.Complete()
	span.SetStatus(codes.Ok, "completed")
	logger.InfoContext(ctx, "pipeline run completed",
		slog.Duration("duration", state.Duration()),
		slog.Int("groups", len(state.Rows)))
	return nil
}

// runStage executes one stage with its own span, stage state, and duration
// metric.
func (r *Runner) runStage(ctx context.Context, logger *slog.Logger, stage Stage, state *State) error {
	stageState := NewStageState(stage.ID(), stage.Name())
	state.SetStage(stage.ID(), stageState)

	if skipper, ok := stage.(Skipper); ok {
		if reason, skip := skipper.SkipReason(state); skip {
			stageState.Skip(reason)
			logger.DebugContext(ctx, "stage skipped",
				slog.String("stage", stage.ID()),
				slog.String("reason", reason))
			return nil
		}
	}

	ctx, span := r.tracer.Start(ctx, fmt.Sprintf("pipeline.stage.%s", stage.ID()),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", state.ID),
			attribute.String("stage.id", stage.ID()),
		),
	)
	defer span.End()

	if err := ctx.Err(); err != nil {
		stageState.Fail(err)
		return err
	}

	stageState.Start()
	err := stage.Execute(ctx, state)
	if err != nil {
		stageState.Fail(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		stageState.Complete()
		span.SetStatus(codes.Ok, "completed")
	}

	if r.metrics != nil {
		status := "completed"
		if err != nil {
			status = "failed"
		}
		r.metrics.StageDuration.Record(ctx, stageState.Duration().Seconds(),
			metric.WithAttributes(
				attribute.String("stage", stage.ID()),
				attribute.String("status", status),
			))
	}
	return err
}
