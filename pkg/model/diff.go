package model

// ChangedIDs returns the identifiers present in both trees whose
// occurrences differ, in the pre-order of old. Two occurrence lists differ
// when their lengths differ or a pair at the same position is not Equal.
func ChangedIDs(old, updated Node) IDSet {
	var changed IDSet
	if old == nil {
		return changed
	}
	before := Occurrences(old)
	after := Occurrences(updated)
	for _, id := range IDs(old).order {
		now, ok := after[id]
		if ok && !SameOccurrences(before[id], now) {
			changed.Add(id)
		}
	}
	return changed
}

// SameOccurrences reports whether two occurrence lists hold the same data.
func SameOccurrences(a, b []Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Identical(a[i], b[i]) && !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}
