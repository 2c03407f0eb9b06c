package compound

import (
	"sort"
	"strings"
)

// FamilyMap resolves a compound prefix to its pooling family.  Families group
// structurally related prefixes ("GD_family" = GD1, GD1a, GD1b, GD3, ...) so
// that a prefix with too few anchors can borrow statistical strength from its
// siblings.
//
// A FamilyMap is immutable after construction; one run never mutates it.
type FamilyMap struct {
	overrides map[string]string
}

// curatedFamilies is the built-in ganglioside family table, keyed by the
// two-letter class code (family letter + sialic-acid letter).
var curatedFamilies = map[string]string{
	"GA": "GA_family",
	"GM": "GM_family",
	"GD": "GD_family",
	"GT": "GT_family",
	"GQ": "GQ_family",
	"GP": "GP_family",
}

// NewFamilyMap constructs a FamilyMap with the curated ganglioside table plus
// the supplied overrides.  An override maps a full prefix to a family name; an
// empty family name removes the prefix from pooling entirely.
func NewFamilyMap(overrides map[string]string) *FamilyMap {
	copied := make(map[string]string, len(overrides))
	for k, v := range overrides {
		copied[k] = v
	}
	return &FamilyMap{overrides: copied}
}

// FamilyFor returns the pooling family for a prefix and whether one exists.
// Overrides take precedence over the curated table; prefixes outside the
// ganglioside classes (or explicitly overridden to "") have no family and
// must fall through to the global model.
func (f *FamilyMap) FamilyFor(prefix string) (string, bool) {
	base := basePrefix(prefix)

	if f != nil && f.overrides != nil {
		if fam, ok := f.overrides[prefix]; ok {
			return fam, fam != ""
		}
		if fam, ok := f.overrides[base]; ok {
			return fam, fam != ""
		}
	}

	if len(base) < 2 || !strings.HasPrefix(base, "G") {
		return "", false
	}
	fam, ok := curatedFamilies[base[:2]]
	return fam, ok
}

// GroupByPrefix partitions record indices by full prefix (modifier tokens
// included, so "GD1" and "GD1+dHex" form separate groups).  Group member
// order follows the input order; group iteration order is made deterministic
// by SortedPrefixes.
func GroupByPrefix(records []Record) map[string][]int {
	groups := make(map[string][]int)
	for i := range records {
		groups[records[i].Prefix] = append(groups[records[i].Prefix], i)
	}
	return groups
}

// SortedPrefixes returns the group keys in lexical order for deterministic
// iteration.
func SortedPrefixes(groups map[string][]int) []string {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
