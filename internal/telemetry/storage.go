package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/canvasai/canvas-ai/internal/storage"
	"github.com/canvasai/canvas-ai/internal/types"
)

const storageScopeName = "github.com/canvasai/canvas-ai/storage"

// InstrumentedStore wraps storage.Store with OTel tracing and metrics.
// Every method gets a span and is counted in canvas_ai.storage.* metrics.
// Use WrapStore to create one; it returns the original store unchanged when
// telemetry is disabled.
type InstrumentedStore struct {
	inner    storage.Store
	tracer   trace.Tracer
	ops      metric.Int64Counter
	dur      metric.Float64Histogram
	errs     metric.Int64Counter
	runGauge metric.Int64Gauge
}

// WrapStore returns s decorated with OTel instrumentation.
// When telemetry is disabled, s is returned as-is with zero overhead.
func WrapStore(s storage.Store) storage.Store {
	if !Enabled() {
		return s
	}
	m := Meter(storageScopeName)
	ops, _ := m.Int64Counter("canvas_ai.storage.operations",
		metric.WithDescription("Total storage operations executed"),
	)
	dur, _ := m.Float64Histogram("canvas_ai.storage.operation.duration",
		metric.WithDescription("Storage operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	errs, _ := m.Int64Counter("canvas_ai.storage.errors",
		metric.WithDescription("Total storage operation errors"),
	)
	runGauge, _ := m.Int64Gauge("canvas_ai.run.count",
		metric.WithDescription("Run counts by outcome (snapshot from MetricsSummary)"),
	)
	return &InstrumentedStore{
		inner:    s,
		tracer:   Tracer(storageScopeName),
		ops:      ops,
		dur:      dur,
		errs:     errs,
		runGauge: runGauge,
	}
}

// op starts a span and records a metric for the named storage operation.
func (s *InstrumentedStore) op(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span, time.Time) {
	all := append([]attribute.KeyValue{attribute.String("db.operation", name)}, attrs...)
	ctx, span := s.tracer.Start(ctx, "storage."+name,
		trace.WithAttributes(all...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
	s.ops.Add(ctx, 1, metric.WithAttributes(all...))
	return ctx, span, time.Now()
}

// done ends the span, records duration and optional error.
func (s *InstrumentedStore) done(ctx context.Context, span trace.Span, start time.Time, err error, attrs ...attribute.KeyValue) {
	ms := float64(time.Since(start).Milliseconds())
	s.dur.Record(ctx, ms, metric.WithAttributes(attrs...))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.errs.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	span.End()
}

// ── Runs ────────────────────────────────────────────────────────────────────

func (s *InstrumentedStore) CreateRun(ctx context.Context, run *types.Run) error {
	attrs := []attribute.KeyValue{
		attribute.String("canvas_ai.run.id", run.ID),
		attribute.String("canvas_ai.command", run.Command),
	}
	ctx, span, t := s.op(ctx, "CreateRun", attrs...)
	err := s.inner.CreateRun(ctx, run)
	s.done(ctx, span, t, err, attrs...)
	return err
}

func (s *InstrumentedStore) UpdateRun(ctx context.Context, run *types.Run) error {
	attrs := []attribute.KeyValue{
		attribute.String("canvas_ai.run.id", run.ID),
		attribute.String("canvas_ai.run.status", string(run.Status)),
	}
	ctx, span, t := s.op(ctx, "UpdateRun", attrs...)
	err := s.inner.UpdateRun(ctx, run)
	s.done(ctx, span, t, err, attrs...)
	return err
}

func (s *InstrumentedStore) GetRun(ctx context.Context, id string) (*types.Run, error) {
	attrs := []attribute.KeyValue{attribute.String("canvas_ai.run.id", id)}
	ctx, span, t := s.op(ctx, "GetRun", attrs...)
	v, err := s.inner.GetRun(ctx, id)
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

func (s *InstrumentedStore) ListRuns(ctx context.Context, limit int) ([]*types.Run, error) {
	attrs := []attribute.KeyValue{attribute.Int("canvas_ai.limit", limit)}
	ctx, span, t := s.op(ctx, "ListRuns", attrs...)
	v, err := s.inner.ListRuns(ctx, limit)
	if err == nil {
		span.SetAttributes(attribute.Int("canvas_ai.result.count", len(v)))
	}
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

func (s *InstrumentedStore) LatestWorkflowRun(ctx context.Context, assignmentID int64) (*types.Run, error) {
	attrs := []attribute.KeyValue{attribute.Int64("canvas_ai.assignment.id", assignmentID)}
	ctx, span, t := s.op(ctx, "LatestWorkflowRun", attrs...)
	v, err := s.inner.LatestWorkflowRun(ctx, assignmentID)
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

// ── Review tokens ───────────────────────────────────────────────────────────
// Token hashes are never attached as span attributes.

func (s *InstrumentedStore) CreateReviewToken(ctx context.Context, token *types.ReviewToken) error {
	attrs := []attribute.KeyValue{attribute.Int64("canvas_ai.assignment.id", token.AssignmentID)}
	ctx, span, t := s.op(ctx, "CreateReviewToken", attrs...)
	err := s.inner.CreateReviewToken(ctx, token)
	s.done(ctx, span, t, err, attrs...)
	return err
}

func (s *InstrumentedStore) GetReviewToken(ctx context.Context, tokenHash string) (*types.ReviewToken, error) {
	ctx, span, t := s.op(ctx, "GetReviewToken")
	v, err := s.inner.GetReviewToken(ctx, tokenHash)
	s.done(ctx, span, t, err)
	return v, err
}

func (s *InstrumentedStore) ConsumeReviewToken(ctx context.Context, tokenHash string, assignmentID int64, now time.Time) (*types.ReviewToken, error) {
	attrs := []attribute.KeyValue{attribute.Int64("canvas_ai.assignment.id", assignmentID)}
	ctx, span, t := s.op(ctx, "ConsumeReviewToken", attrs...)
	v, err := s.inner.ConsumeReviewToken(ctx, tokenHash, assignmentID, now)
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

// ── Submission ledger ───────────────────────────────────────────────────────

func (s *InstrumentedStore) GetSubmission(ctx context.Context, idempotencyKey string) (*types.SubmissionRecord, error) {
	ctx, span, t := s.op(ctx, "GetSubmission")
	v, err := s.inner.GetSubmission(ctx, idempotencyKey)
	s.done(ctx, span, t, err)
	return v, err
}

func (s *InstrumentedStore) RecordSubmission(ctx context.Context, rec *types.SubmissionRecord) (*types.SubmissionRecord, bool, error) {
	attrs := []attribute.KeyValue{attribute.Int64("canvas_ai.assignment.id", rec.AssignmentID)}
	ctx, span, t := s.op(ctx, "RecordSubmission", attrs...)
	stored, created, err := s.inner.RecordSubmission(ctx, rec)
	if err == nil {
		span.SetAttributes(attribute.Bool("canvas_ai.submission.created", created))
	}
	s.done(ctx, span, t, err, attrs...)
	return stored, created, err
}

// ── Plans ───────────────────────────────────────────────────────────────────

func (s *InstrumentedStore) CreatePlan(ctx context.Context, plan *types.PlanRecord) error {
	attrs := []attribute.KeyValue{attribute.String("canvas_ai.plan.id", plan.ID)}
	ctx, span, t := s.op(ctx, "CreatePlan", attrs...)
	err := s.inner.CreatePlan(ctx, plan)
	s.done(ctx, span, t, err, attrs...)
	return err
}

func (s *InstrumentedStore) GetPlan(ctx context.Context, id string) (*types.PlanRecord, error) {
	attrs := []attribute.KeyValue{attribute.String("canvas_ai.plan.id", id)}
	ctx, span, t := s.op(ctx, "GetPlan", attrs...)
	v, err := s.inner.GetPlan(ctx, id)
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

// ── Feedback memory ─────────────────────────────────────────────────────────

func (s *InstrumentedStore) AddFeedback(ctx context.Context, entry *types.FeedbackEntry) error {
	attrs := []attribute.KeyValue{
		attribute.Int64("canvas_ai.course.id", entry.CourseID),
		attribute.Int64("canvas_ai.assignment.id", entry.AssignmentID),
	}
	ctx, span, t := s.op(ctx, "AddFeedback", attrs...)
	err := s.inner.AddFeedback(ctx, entry)
	s.done(ctx, span, t, err, attrs...)
	return err
}

func (s *InstrumentedStore) ListFeedback(ctx context.Context, courseID, assignmentID int64, limit int) ([]*types.FeedbackEntry, error) {
	attrs := []attribute.KeyValue{
		attribute.Int64("canvas_ai.course.id", courseID),
		attribute.Int64("canvas_ai.assignment.id", assignmentID),
	}
	ctx, span, t := s.op(ctx, "ListFeedback", attrs...)
	v, err := s.inner.ListFeedback(ctx, courseID, assignmentID, limit)
	if err == nil {
		span.SetAttributes(attribute.Int("canvas_ai.result.count", len(v)))
	}
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

func (s *InstrumentedStore) FeedbackHints(ctx context.Context, courseID, assignmentID int64, limit int) ([]string, error) {
	attrs := []attribute.KeyValue{
		attribute.Int64("canvas_ai.course.id", courseID),
		attribute.Int64("canvas_ai.assignment.id", assignmentID),
	}
	ctx, span, t := s.op(ctx, "FeedbackHints", attrs...)
	v, err := s.inner.FeedbackHints(ctx, courseID, assignmentID, limit)
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

// ── Events and metrics ──────────────────────────────────────────────────────

func (s *InstrumentedStore) AppendEvent(ctx context.Context, command, payload string) error {
	attrs := []attribute.KeyValue{attribute.String("canvas_ai.command", command)}
	ctx, span, t := s.op(ctx, "AppendEvent", attrs...)
	err := s.inner.AppendEvent(ctx, command, payload)
	s.done(ctx, span, t, err, attrs...)
	return err
}

func (s *InstrumentedStore) ListEvents(ctx context.Context, limit int) ([]*types.Event, error) {
	attrs := []attribute.KeyValue{attribute.Int("canvas_ai.limit", limit)}
	ctx, span, t := s.op(ctx, "ListEvents", attrs...)
	v, err := s.inner.ListEvents(ctx, limit)
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

func (s *InstrumentedStore) MetricsSummary(ctx context.Context) (*types.MetricsSummary, error) {
	ctx, span, t := s.op(ctx, "MetricsSummary")
	v, err := s.inner.MetricsSummary(ctx)
	s.done(ctx, span, t, err)
	if err == nil && v != nil {
		// Record run counts as gauge snapshots, broken down by outcome.
		outcomeAttr := func(outcome string) metric.MeasurementOption {
			return metric.WithAttributes(attribute.String("outcome", outcome))
		}
		s.runGauge.Record(ctx, int64(v.TotalRuns), outcomeAttr("total"))
		s.runGauge.Record(ctx, int64(v.SuccessRuns), outcomeAttr("succeeded"))
		s.runGauge.Record(ctx, int64(v.FailedRuns), outcomeAttr("failed"))
	}
	return v, err
}

// ── Lifecycle ───────────────────────────────────────────────────────────────

func (s *InstrumentedStore) Close() error {
	return s.inner.Close()
}
