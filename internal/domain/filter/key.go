package filter

import (
	"sort"
	"strings"
)

// BuildKey deterministically serializes the fields-restricted view of a
// snapshot into a normalized key for cache lookup and duplicate-request
// suppression.
//
// Properties:
//   - order independence: set fields are sorted before joining, so any
//     permutation of a selection yields an identical key;
//   - field subsetting: fields outside the set contribute nothing, so two
//     snapshots differing only on an excluded field share a key;
//   - stability: an empty set serializes to an empty-but-present segment,
//     keeping key shape fixed as selections come and go.
//
// BuildKey never fails; an all-zero snapshot is the valid "no filter" key.
func BuildKey(s Snapshot, fields FieldSet) string {
	segments := make([]string, 0, 6)

	if fields.Has(FieldTimeRange) {
		if s.Start.IsZero() && s.End.IsZero() {
			segments = append(segments, "t=")
		} else {
			segments = append(segments, "t="+s.Start.String()+".."+s.End.String())
		}
	}
	if fields.Has(FieldCountries) {
		segments = append(segments, "c="+sortedJoin(s.Countries))
	}
	if fields.Has(FieldCategories) {
		segments = append(segments, "p="+sortedJoin(s.Categories))
	}
	if fields.Has(FieldSubCategories) {
		segments = append(segments, "s="+sortedJoin(s.SubCategories))
	}
	if fields.Has(FieldCompanies) {
		segments = append(segments, "co="+sortedJoin(s.Companies))
	}
	if fields.Has(FieldDirection) {
		d := s.Direction
		if d == "" {
			d = "both"
		}
		segments = append(segments, "d="+string(d))
	}

	return strings.Join(segments, "|")
}

// sortedJoin joins a sorted copy of vals with commas.  The input slice is
// never mutated; snapshots are passed by value but share backing arrays.
func sortedJoin(vals []string) string {
	if len(vals) == 0 {
		return ""
	}
	cp := make([]string, len(vals))
	copy(cp, vals)
	sort.Strings(cp)
	return strings.Join(cp, ",")
}
