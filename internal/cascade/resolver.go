// Package cascade implements the cascade resolver: given removal roots, it
// computes the transitive closure of dependent record ids across every
// record kind by scanning a preloaded snapshot.
package cascade

import "latticecore/pkg/record"

// handlerFunc finds the direct dependents of ids and feeds them back through
// run.visit. Emitting the ids themselves is the runner's job, so handlers
// stay idempotent and safe to invoke twice with overlapping inputs.
type handlerFunc func(*run, record.IDSet)

// Resolver walks the fixed dependency graph between record kinds. The
// dispatch table is keyed by kind; there is exactly one handler per kind.
type Resolver struct {
	handlers map[record.Kind]handlerFunc
}

// New builds a resolver with the full dispatch table.
func New() *Resolver {
	return &Resolver{handlers: map[record.Kind]handlerFunc{
		record.KindObjectClass:            cascadeObjectClass,
		record.KindRelationshipClass:      cascadeRelationshipClass,
		record.KindObject:                 cascadeObject,
		record.KindRelationship:           cascadeRelationship,
		record.KindEntityGroup:            cascadeNothing,
		record.KindParameterDefinition:    cascadeParameterDefinition,
		record.KindParameterValue:         cascadeParameterValue,
		record.KindParameterTag:           cascadeParameterTag,
		record.KindParameterDefinitionTag: cascadeNothing,
		record.KindParameterValueList:     cascadeParameterValueList,
		record.KindAlternative:            cascadeAlternative,
		record.KindScenario:               cascadeScenario,
		record.KindScenarioAlternative:    cascadeNothing,
		record.KindFeature:                cascadeFeature,
		record.KindTool:                   cascadeTool,
		record.KindToolFeature:            cascadeToolFeature,
		record.KindToolFeatureMethod:      cascadeNothing,
		record.KindMetadata:               cascadeMetadata,
		record.KindEntityMetadata:         cascadeNothing,
		record.KindParameterValueMetadata: cascadeNothing,
	}}
}

// run accumulates one resolution. Results only ever grow, and an id is
// expanded at most once, so the closure is independent of root order and of
// the path by which an id was reached.
type run struct {
	snap *record.Snapshot
	res  *Resolver
	out  map[record.Kind]record.IDSet
}

// CascadingIDs returns, per kind, the ids that removing the roots would
// remove: the roots themselves plus every dependent record, merged by id-set
// union. Root ids missing from the snapshot pass through untouched (their
// removal is a no-op downstream). Kinds with no ids are pruned from the
// result.
func (r *Resolver) CascadingIDs(snap *record.Snapshot, roots map[record.Kind]record.IDSet) map[record.Kind]record.IDSet {
	rn := &run{snap: snap, res: r, out: map[record.Kind]record.IDSet{}}
	for _, kind := range record.Kinds() {
		if ids, ok := roots[kind]; ok && len(ids) > 0 {
			rn.visit(kind, ids)
		}
	}
	rn.collectOrphanedMetadata()
	for kind, ids := range rn.out {
		if len(ids) == 0 {
			delete(rn.out, kind)
		}
	}
	return rn.out
}

// visit records the ids not seen before for kind and expands their
// dependents through the kind's handler.
func (rn *run) visit(kind record.Kind, ids record.IDSet) {
	fresh := record.IDSet{}
	for id := range ids {
		if !rn.out[kind].Has(id) {
			fresh.Add(id)
		}
	}
	if len(fresh) == 0 {
		return
	}
	if rn.out[kind] == nil {
		rn.out[kind] = record.IDSet{}
	}
	rn.out[kind].Union(fresh)
	if handler := rn.res.handlers[kind]; handler != nil {
		handler(rn, fresh)
	}
}

// add records a single id without expanding dependents.
func (rn *run) add(kind record.Kind, id int64) {
	if rn.out[kind] == nil {
		rn.out[kind] = record.IDSet{}
	}
	rn.out[kind].Add(id)
}

func cascadeNothing(*run, record.IDSet) {}
