package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"latticecore/internal/infra/persistence/memory"
	"latticecore/pkg/record"
)

// stepClock hands out strictly increasing instants a fixed step apart, so
// durations computed from consecutive reads are deterministic.
type stepClock struct {
	mu    sync.Mutex
	base  time.Time
	step  time.Duration
	calls int
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.base.Add(time.Duration(c.calls) * c.step)
	c.calls++
	return now
}

type logEntry struct {
	level string
	msg   string
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) log(level, msg string) {
	l.mu.Lock()
	l.entries = append(l.entries, logEntry{level, msg})
	l.mu.Unlock()
}

func (l *recordingLogger) Debug(msg string, _ ...any) { l.log("debug", msg) }
func (l *recordingLogger) Info(msg string, _ ...any)  { l.log("info", msg) }
func (l *recordingLogger) Warn(msg string, _ ...any)  { l.log("warn", msg) }
func (l *recordingLogger) Error(msg string, _ ...any) { l.log("error", msg) }

func (l *recordingLogger) count(level, msg string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.entries {
		if e.level == level && e.msg == msg {
			n++
		}
	}
	return n
}

type observation struct {
	operation string
	success   bool
	duration  time.Duration
}

type recordingMetrics struct {
	mu           sync.Mutex
	observations []observation
}

func (m *recordingMetrics) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	m.mu.Lock()
	m.observations = append(m.observations, observation{operation, success, duration})
	m.mu.Unlock()
}

type recordedSpan struct {
	operation string
	err       error
}

type recordingTracer struct {
	mu    sync.Mutex
	spans []recordedSpan
}

func (t *recordingTracer) Start(ctx context.Context, operation string) (context.Context, TraceSpan) {
	return ctx, &recordingSpan{tracer: t, operation: operation}
}

type recordingSpan struct {
	tracer    *recordingTracer
	operation string
}

func (s *recordingSpan) End(err error) {
	s.tracer.mu.Lock()
	s.tracer.spans = append(s.tracer.spans, recordedSpan{s.operation, err})
	s.tracer.mu.Unlock()
}

func TestServiceObservability(t *testing.T) {
	clock := &stepClock{base: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC), step: 10 * time.Millisecond}
	logger := &recordingLogger{}
	metrics := &recordingMetrics{}
	tracer := &recordingTracer{}
	audit := NewMemoryAuditLog()

	svc, err := NewService(memory.NewStore(),
		WithOwner("observed"),
		WithClock(clock),
		WithLogger(logger),
		WithMetricsRecorder(metrics),
		WithTracer(tracer),
		WithAuditRecorder(audit),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	defer svc.Close()
	ctx := context.Background()

	if _, _, err := svc.Insert(ctx, record.KindObjectClass, []record.Row{record.ObjectClass{Name: "tank"}}, true); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, _, err := svc.Insert(ctx, record.KindObjectClass, []record.Row{record.ObjectClass{Name: "tank"}}, true); err == nil {
		t.Fatalf("duplicate insert should fail")
	}
	if _, errLog, err := svc.Insert(ctx, record.KindObjectClass, []record.Row{record.ObjectClass{Name: "tank"}}, false); err != nil || len(errLog) != 1 {
		t.Fatalf("non-strict insert: %v %v", err, errLog)
	}

	// Metrics: one observation per operation with the operation outcome. The
	// first insert reads the clock once more for its cursor claim, so its
	// measured duration spans two steps.
	wantObs := []observation{
		{"insert", true, 20 * time.Millisecond},
		{"insert", false, 10 * time.Millisecond},
		{"insert", true, 10 * time.Millisecond},
	}
	metrics.mu.Lock()
	gotObs := append([]observation(nil), metrics.observations...)
	metrics.mu.Unlock()
	if len(gotObs) != len(wantObs) {
		t.Fatalf("observations: %+v", gotObs)
	}
	for i, want := range wantObs {
		if gotObs[i] != want {
			t.Fatalf("observation %d: %+v, want %+v", i, gotObs[i], want)
		}
	}

	// Traces: every operation opened and closed exactly one span, carrying
	// the failure where there was one.
	tracer.mu.Lock()
	spans := append([]recordedSpan(nil), tracer.spans...)
	tracer.mu.Unlock()
	if len(spans) != 3 {
		t.Fatalf("spans: %+v", spans)
	}
	if spans[0].operation != "insert" || spans[0].err != nil {
		t.Fatalf("first span: %+v", spans[0])
	}
	if spans[1].err == nil {
		t.Fatalf("failed operation ended its span without the error")
	}

	// Audit: entries in call order with status, row counts, and timestamps
	// from the injected clock.
	entries := audit.Entries()
	if len(entries) != 3 {
		t.Fatalf("audit entries: %+v", entries)
	}
	first := entries[0]
	if first.Operation != "insert" || first.Kind != record.KindObjectClass || first.Count != 1 {
		t.Fatalf("first audit entry: %+v", first)
	}
	if first.Status != AuditStatusSuccess || first.Duration != 20*time.Millisecond {
		t.Fatalf("first audit entry: %+v", first)
	}
	if !first.Timestamp.Equal(clock.base.Add(30 * time.Millisecond)) {
		t.Fatalf("first audit timestamp %v", first.Timestamp)
	}
	second := entries[1]
	if second.Status != AuditStatusError || second.Error == "" || second.Count != 0 {
		t.Fatalf("second audit entry: %+v", second)
	}
	third := entries[2]
	if third.Status != AuditStatusSuccess || third.Count != 0 {
		t.Fatalf("third audit entry: %+v", third)
	}

	// Logs: the failure logged as an error, the non-strict rejection as a
	// warning.
	if got := logger.count("error", "operation failed"); got != 1 {
		t.Fatalf("error log count %d", got)
	}
	if got := logger.count("warn", "insert candidates rejected"); got != 1 {
		t.Fatalf("warn log count %d", got)
	}
	if got := logger.count("debug", "operation complete"); got != 2 {
		t.Fatalf("debug log count %d", got)
	}
}

func TestClockFuncDefaults(t *testing.T) {
	if loc := ClockFunc(nil).Now().Location(); loc != time.UTC {
		t.Fatalf("nil clock location %v", loc)
	}
	fixed := time.Date(2025, 6, 1, 9, 0, 0, 0, time.FixedZone("X", 3600))
	got := ClockFunc(func() time.Time { return fixed }).Now()
	if got.Location() != time.UTC || !got.Equal(fixed) {
		t.Fatalf("clock func did not normalize: %v", got)
	}
}

func TestOptionsNilRestoreDefaults(t *testing.T) {
	svc, err := NewService(memory.NewStore(),
		WithLogger(nil),
		WithClock(nil),
		WithMetricsRecorder(nil),
		WithTracer(nil),
		WithAuditRecorder(nil),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	defer svc.Close()
	if _, _, err := svc.Insert(context.Background(), record.KindTool, []record.Row{record.Tool{Name: "sim"}}, true); err != nil {
		t.Fatalf("insert with defaults: %v", err)
	}
}
