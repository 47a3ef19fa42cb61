package engine

import "latticecore/pkg/record"

// session is the service's working view of the dataset: a snapshot kept
// current as batches apply, plus the per-kind sets of ids this session
// inserted. The snapshot lets a cascade computed right after an insert see
// the just-added rows without a store round trip.
type session struct {
	snap  *record.Snapshot
	added map[record.Kind]record.IDSet
}

func newSession(snap *record.Snapshot) *session {
	return &session{snap: snap, added: make(map[record.Kind]record.IDSet)}
}

func (s *session) recordInsert(kind record.Kind, rows []record.Row) {
	set, ok := s.added[kind]
	if !ok {
		set = record.NewIDSet()
		s.added[kind] = set
	}
	for _, row := range rows {
		s.snap.Insert(row)
		set.Add(row.RecordID())
	}
}

func (s *session) recordUpdate(rows []record.Row) {
	for _, row := range rows {
		s.snap.Insert(row)
	}
}

func (s *session) recordRemove(removed map[record.Kind]record.IDSet) {
	for kind, ids := range removed {
		set := s.added[kind]
		for id := range ids {
			s.snap.Delete(kind, id)
			if set != nil {
				delete(set, id)
			}
		}
		if set != nil && len(set) == 0 {
			delete(s.added, kind)
		}
	}
}

// addedIDs reports the ids inserted by this session, as fresh sets.
func (s *session) addedIDs() map[record.Kind]record.IDSet {
	out := make(map[record.Kind]record.IDSet, len(s.added))
	for kind, ids := range s.added {
		out[kind] = ids.Clone()
	}
	return out
}

// reset swaps in a freshly loaded snapshot. Added-id bookkeeping survives,
// minus ids that no longer exist in the reloaded data.
func (s *session) reset(snap *record.Snapshot) {
	s.snap = snap
	for kind, ids := range s.added {
		for id := range ids {
			if _, ok := snap.Get(kind, id); !ok {
				delete(ids, id)
			}
		}
		if len(ids) == 0 {
			delete(s.added, kind)
		}
	}
}
