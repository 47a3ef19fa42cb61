package cascade

import "latticecore/pkg/record"

// UsageCounts returns, per metadata id, the number of entity and parameter
// value joins referencing it.
func UsageCounts(snap *record.Snapshot) map[int64]int {
	counts := map[int64]int{}
	for _, em := range snap.EntityMetadata {
		counts[em.MetadataID]++
	}
	for _, pm := range snap.ParameterValueMetadata {
		counts[pm.MetadataID]++
	}
	return counts
}

// collectOrphanedMetadata is the decrement-then-check pass: after every
// handler has run, a metadata record joins the removal only if its reference
// count over joins outside the final removal set reaches zero. Counting over
// the final set (rather than per handler) keeps the result right when one
// removal takes a metadata record's last entity join and another takes its
// last value join.
func (rn *run) collectOrphanedMetadata() {
	removedEntityJoins := rn.out[record.KindEntityMetadata]
	removedValueJoins := rn.out[record.KindParameterValueMetadata]
	if len(removedEntityJoins) == 0 && len(removedValueJoins) == 0 {
		return
	}
	counts := UsageCounts(rn.snap)
	touched := record.IDSet{}
	for id := range removedEntityJoins {
		if em, ok := rn.snap.EntityMetadata[id]; ok {
			counts[em.MetadataID]--
			touched.Add(em.MetadataID)
		}
	}
	for id := range removedValueJoins {
		if pm, ok := rn.snap.ParameterValueMetadata[id]; ok {
			counts[pm.MetadataID]--
			touched.Add(pm.MetadataID)
		}
	}
	for metadataID := range touched {
		if counts[metadataID] <= 0 && !rn.out[record.KindMetadata].Has(metadataID) {
			rn.add(record.KindMetadata, metadataID)
		}
	}
}
