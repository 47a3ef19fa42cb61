// Package engine implements the mutation coordinator: a session-scoped
// service that sequences constraint checking, id allocation, and atomic
// application of staged mutations over a storage backend, and resolves
// removal cascades against its session view.
package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"latticecore/internal/cascade"
	"latticecore/internal/check"
	"latticecore/internal/idalloc"
	"latticecore/pkg/record"
)

// Service coordinates staged mutations against a single store. A Service is
// a single-writer session: methods are safe for concurrent use, but calls
// serialize on an internal mutex. Cross-process coordination happens only
// through the id cursor's claim protocol and the store's atomic Apply.
type Service struct {
	mu       sync.Mutex
	store    record.Store
	alloc    *idalloc.Allocator
	resolver *cascade.Resolver
	sess     *session

	logger  Logger
	clock   Clock
	metrics MetricsRecorder
	tracer  Tracer
	audit   AuditRecorder
	owner   string
}

// NewService builds a service over store and loads the session view from it.
func NewService(store record.Store, opts ...Option) (*Service, error) {
	o := defaultServiceOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.owner == "" {
		o.owner = defaultOwner()
	}
	snap, err := record.BuildSnapshot(context.Background(), store)
	if err != nil {
		return nil, fmt.Errorf("load session snapshot: %w", err)
	}
	return &Service{
		store:    store,
		alloc:    idalloc.New(store, o.owner, o.clock.Now),
		resolver: cascade.New(),
		sess:     newSession(snap),
		logger:   o.logger,
		clock:    o.clock,
		metrics:  o.metrics,
		tracer:   o.tracer,
		audit:    o.audit,
		owner:    o.owner,
	}, nil
}

// Owner reports the writer identity stamped on cursor claims.
func (s *Service) Owner() string {
	return s.owner
}

// Close releases the underlying store.
func (s *Service) Close() error {
	return s.store.Close()
}

// Insert checks the candidate rows for kind, allocates ids for the accepted
// ones, applies them in a single atomic batch, and returns them with ids
// set. In strict mode the first rejected candidate fails the whole call and
// nothing is applied; otherwise rejections land in the returned log and the
// remaining candidates still go through. Accepted ids join the session's
// added-id bookkeeping.
func (s *Service) Insert(ctx context.Context, kind record.Kind, rows []record.Row, strict bool) ([]record.Row, record.ErrorLog, error) {
	var (
		accepted []record.Row
		errLog   record.ErrorLog
	)
	err := s.run(ctx, "insert", kind, func(ctx context.Context) (int, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		var err error
		accepted, errLog, err = s.insertLocked(ctx, kind, rows, strict)
		return len(accepted), err
	})
	if err != nil {
		return nil, nil, err
	}
	return accepted, errLog, nil
}

func (s *Service) insertLocked(ctx context.Context, kind record.Kind, rows []record.Row, strict bool) ([]record.Row, record.ErrorLog, error) {
	checker := check.New(s.sess.snap)
	accepted, errLog, err := checker.CheckInsert(kind, rows, strict)
	if err != nil {
		return nil, nil, err
	}
	if len(errLog) > 0 {
		s.logger.Warn("insert candidates rejected", "kind", string(kind), "rejected", len(errLog))
	}
	if len(accepted) == 0 {
		return nil, errLog, nil
	}
	reserved, err := s.alloc.Allocate(ctx, kind, len(accepted))
	if err != nil {
		return nil, nil, err
	}
	ids := reserved.IDs()
	for i := range accepted {
		accepted[i] = record.WithID(accepted[i], ids[i])
	}
	var batch record.Batch
	batch.Insert(kind, accepted...)
	if err := s.store.Apply(ctx, batch); err != nil {
		return nil, nil, err
	}
	s.sess.recordInsert(kind, accepted)
	return accepted, errLog, nil
}

// Update checks partial updates for kind (simulated removal, merge onto the
// current row, full revalidation), applies the merged rows atomically, and
// returns them in full. Zero and nil fields in a partial mean unchanged; the
// id field locates the target and is immutable itself.
func (s *Service) Update(ctx context.Context, kind record.Kind, rows []record.Row, strict bool) ([]record.Row, record.ErrorLog, error) {
	var (
		updated []record.Row
		errLog  record.ErrorLog
	)
	err := s.run(ctx, "update", kind, func(ctx context.Context) (int, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		checker := check.New(s.sess.snap)
		var err error
		updated, errLog, err = checker.CheckUpdate(kind, rows, strict)
		if err != nil {
			return 0, err
		}
		if len(errLog) > 0 {
			s.logger.Warn("update candidates rejected", "kind", string(kind), "rejected", len(errLog))
		}
		if len(updated) == 0 {
			return 0, nil
		}
		var batch record.Batch
		batch.Update(kind, updated...)
		if err := s.store.Apply(ctx, batch); err != nil {
			return 0, err
		}
		s.sess.recordUpdate(updated)
		return len(updated), nil
	})
	if err != nil {
		return nil, nil, err
	}
	return updated, errLog, nil
}

// Remove resolves the removal cascade for the given roots over the session
// view, deletes the whole closure in one atomic batch, and returns the
// per-kind removed id sets. Roots that do not exist pass through unchanged,
// so removing an already-removed id is not an error. Removed ids leave the
// session's added-id bookkeeping.
func (s *Service) Remove(ctx context.Context, roots map[record.Kind][]int64) (map[record.Kind]record.IDSet, error) {
	var removed map[record.Kind]record.IDSet
	err := s.run(ctx, "remove", "", func(ctx context.Context) (int, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		rootSets, err := toIDSets(roots)
		if err != nil {
			return 0, err
		}
		removed = s.resolver.CascadingIDs(s.sess.snap, rootSets)
		var batch record.Batch
		total := 0
		for kind, ids := range removed {
			batch.Delete(kind, ids.Sorted()...)
			total += len(ids)
		}
		if batch.Empty() {
			return 0, nil
		}
		if err := s.store.Apply(ctx, batch); err != nil {
			removed = nil
			return 0, err
		}
		s.sess.recordRemove(removed)
		return total, nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// CascadingIDs resolves the removal cascade for the given roots over the
// session view without applying anything.
func (s *Service) CascadingIDs(ctx context.Context, roots map[record.Kind][]int64) (map[record.Kind]record.IDSet, error) {
	var resolved map[record.Kind]record.IDSet
	err := s.run(ctx, "cascading_ids", "", func(context.Context) (int, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		rootSets, err := toIDSets(roots)
		if err != nil {
			return 0, err
		}
		resolved = s.resolver.CascadingIDs(s.sess.snap, rootSets)
		total := 0
		for _, ids := range resolved {
			total += len(ids)
		}
		return total, nil
	})
	if err != nil {
		return nil, err
	}
	return resolved, nil
}

// Get returns the row with the given kind and id from the session view.
func (s *Service) Get(ctx context.Context, kind record.Kind, id int64) (record.Row, error) {
	var out record.Row
	err := s.run(ctx, "get", kind, func(context.Context) (int, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if !kind.Valid() {
			return 0, record.Validationf(kind, "unknown record kind")
		}
		row, ok := s.sess.snap.Get(kind, id)
		if !ok {
			return 0, record.NotFound(kind, id)
		}
		out = record.Clone(row)
		return 1, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// List returns all rows of the given kind from the session view, ordered by
// id.
func (s *Service) List(ctx context.Context, kind record.Kind) ([]record.Row, error) {
	var out []record.Row
	err := s.run(ctx, "list", kind, func(context.Context) (int, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if !kind.Valid() {
			return 0, record.Validationf(kind, "unknown record kind")
		}
		rows := s.sess.snap.Rows(kind)
		out = make([]record.Row, len(rows))
		for i, row := range rows {
			out[i] = record.Clone(row)
		}
		return len(out), nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetOrAdd inserts row unless an equal-keyed one already exists, in which
// case the existing row is returned. The boolean reports whether an insert
// happened.
func (s *Service) GetOrAdd(ctx context.Context, kind record.Kind, row record.Row) (record.Row, bool, error) {
	var (
		out   record.Row
		added bool
	)
	err := s.run(ctx, "get_or_add", kind, func(ctx context.Context) (int, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		inserted, _, err := s.insertLocked(ctx, kind, []record.Row{row}, true)
		if err == nil {
			out = inserted[0]
			added = true
			return 1, nil
		}
		var verr *record.ValidationError
		if errors.As(err, &verr) && verr.ExistingID != 0 {
			existing, ok := s.sess.snap.Get(kind, verr.ExistingID)
			if ok {
				out = record.Clone(existing)
				return 0, nil
			}
		}
		return 0, err
	})
	if err != nil {
		return nil, false, err
	}
	return out, added, nil
}

// MetadataUsage reports how many entity and parameter-value joins reference
// each metadata record, keyed by metadata id. Metadata with no joins is
// absent from the result.
func (s *Service) MetadataUsage(ctx context.Context) (map[int64]int, error) {
	var usage map[int64]int
	err := s.run(ctx, "metadata_usage", record.KindMetadata, func(context.Context) (int, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		usage = cascade.UsageCounts(s.sess.snap)
		return len(usage), nil
	})
	if err != nil {
		return nil, err
	}
	return usage, nil
}

// Session reports the per-kind sets of ids inserted through this service
// since construction or the last refresh, net of removals.
func (s *Service) Session() map[record.Kind]record.IDSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sess.addedIDs()
}

// RefreshSession reloads the session view from the store, picking up writes
// made by other sessions. Added-id bookkeeping survives minus ids that no
// longer exist.
func (s *Service) RefreshSession(ctx context.Context) error {
	return s.run(ctx, "refresh_session", "", func(ctx context.Context) (int, error) {
		snap, err := record.BuildSnapshot(ctx, s.store)
		if err != nil {
			return 0, err
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		s.sess.reset(snap)
		return 0, nil
	})
}

// run wraps an operation with tracing, metrics, logging, and auditing. fn
// reports the number of rows it touched.
func (s *Service) run(ctx context.Context, op string, kind record.Kind, fn func(context.Context) (int, error)) error {
	start := s.clock.Now()
	ctx, span := s.tracer.Start(ctx, op)
	count, err := fn(ctx)
	duration := s.clock.Now().Sub(start)
	s.metrics.Observe(ctx, op, err == nil, duration)
	span.End(err)
	entry := AuditEntry{
		Operation: op,
		Kind:      kind,
		Count:     count,
		Status:    AuditStatusSuccess,
		Duration:  duration,
		Timestamp: s.clock.Now(),
	}
	if err != nil {
		entry.Status = AuditStatusError
		entry.Error = err.Error()
		s.logger.Error("operation failed", "operation", op, "kind", string(kind), "error", err)
	} else {
		s.logger.Debug("operation complete", "operation", op, "kind", string(kind), "rows", count, "duration_ms", float64(duration)/float64(time.Millisecond))
	}
	s.audit.Record(ctx, entry)
	return err
}

func toIDSets(roots map[record.Kind][]int64) (map[record.Kind]record.IDSet, error) {
	out := make(map[record.Kind]record.IDSet, len(roots))
	for kind, ids := range roots {
		if !kind.Valid() {
			return nil, record.Validationf(kind, "unknown record kind")
		}
		set := record.NewIDSet()
		for _, id := range ids {
			set.Add(id)
		}
		out[kind] = set
	}
	return out, nil
}

func defaultOwner() string {
	user := os.Getenv("USER")
	if user == "" {
		user = "unknown"
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "localhost"
	}
	return user + "@" + host
}
