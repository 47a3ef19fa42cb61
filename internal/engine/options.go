package engine

import (
	"context"
	"time"

	"latticecore/pkg/record"
)

// Logger receives structured log events from the service. Implementations
// must be safe for concurrent use.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Clock supplies the current time for cursor claims and audit timestamps.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a plain function to the Clock interface. A nil function
// falls back to the system clock. Times are normalized to UTC.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time {
	if f == nil {
		return time.Now().UTC()
	}
	return f().UTC()
}

// MetricsRecorder observes service operation outcomes.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

type noopMetricsRecorder struct{}

func (noopMetricsRecorder) Observe(context.Context, string, bool, time.Duration) {}

// Tracer starts spans around service operations.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

// TraceSpan finishes a span started by a Tracer.
type TraceSpan interface {
	End(err error)
}

type noopTracer struct{}

func (noopTracer) Start(ctx context.Context, _ string) (context.Context, TraceSpan) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error) {}

// AuditStatus classifies an audit entry outcome.
type AuditStatus string

// Audit entry outcomes.
const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusError   AuditStatus = "error"
)

// AuditEntry describes one completed service operation.
type AuditEntry struct {
	Operation string        `json:"operation"`
	Kind      record.Kind   `json:"kind,omitempty"`
	Count     int           `json:"count"`
	Status    AuditStatus   `json:"status"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
	Timestamp time.Time     `json:"timestamp"`
}

// AuditRecorder receives audit entries. Implementations must be safe for
// concurrent use.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry)
}

type noopAuditRecorder struct{}

func (noopAuditRecorder) Record(context.Context, AuditEntry) {}

type serviceOptions struct {
	logger  Logger
	clock   Clock
	metrics MetricsRecorder
	tracer  Tracer
	audit   AuditRecorder
	owner   string
}

func defaultServiceOptions() serviceOptions {
	return serviceOptions{
		logger:  noopLogger{},
		clock:   ClockFunc(nil),
		metrics: noopMetricsRecorder{},
		tracer:  noopTracer{},
		audit:   noopAuditRecorder{},
	}
}

// Option customizes service construction.
type Option func(*serviceOptions)

// WithLogger injects a logger. Nil restores the no-op default.
func WithLogger(logger Logger) Option {
	return func(o *serviceOptions) {
		if logger == nil {
			logger = noopLogger{}
		}
		o.logger = logger
	}
}

// WithClock injects a clock for deterministic tests.
func WithClock(clock Clock) Option {
	return func(o *serviceOptions) {
		if clock == nil {
			clock = ClockFunc(nil)
		}
		o.clock = clock
	}
}

// WithMetricsRecorder injects a metrics recorder.
func WithMetricsRecorder(metrics MetricsRecorder) Option {
	return func(o *serviceOptions) {
		if metrics == nil {
			metrics = noopMetricsRecorder{}
		}
		o.metrics = metrics
	}
}

// WithTracer injects a tracer.
func WithTracer(tracer Tracer) Option {
	return func(o *serviceOptions) {
		if tracer == nil {
			tracer = noopTracer{}
		}
		o.tracer = tracer
	}
}

// WithAuditRecorder injects an audit recorder.
func WithAuditRecorder(audit AuditRecorder) Option {
	return func(o *serviceOptions) {
		if audit == nil {
			audit = noopAuditRecorder{}
		}
		o.audit = audit
	}
}

// WithOwner overrides the writer identity stamped on cursor claims. The
// default is user@host derived from the environment.
func WithOwner(owner string) Option {
	return func(o *serviceOptions) {
		o.owner = owner
	}
}
