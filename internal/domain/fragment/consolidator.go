// Package fragment detects in-source fragmentation: compounds sharing one
// lipid composition that co-elute are folded into the intact parent, summing
// their volumes.
package fragment

import (
	"math"
	"sort"

	"github.com/glycotrace/glycotrace/internal/domain/compound"
)

// Member is one compound folded into a consolidation cluster.
type Member struct {
	// Index is the compound's position in the run's record arena.
	Index       int     `json:"index"`
	Name        string  `json:"name"`
	RT          float64 `json:"rt"`
	Volume      float64 `json:"volume"`
	LogP        float64 `json:"log_p"`
	TotalSugars int     `json:"total_sugars"`
	// RTDifference is this member's retention time minus the parent's.
	RTDifference float64 `json:"rt_difference"`
	// SugarDifference is how many sugars this member lost relative to the
	// parent; zero for the parent itself.
	SugarDifference int `json:"sugar_difference"`
	// IsParent marks the member chosen as the intact compound.
	IsParent bool `json:"is_parent"`
}

// Consolidation is one cluster of co-eluting compounds with a shared lipid
// suffix, merged into a single parent.
type Consolidation struct {
	Suffix      string   `json:"suffix"`
	ParentIndex int      `json:"parent_index"`
	ParentName  string   `json:"parent_name"`
	ParentRT    float64  `json:"parent_rt"`
	TotalVolume float64  `json:"total_volume"`
	Members     []Member `json:"members"`
}

// FragmentIndices returns the arena indices of the non-parent members.
func (c *Consolidation) FragmentIndices() []int {
	out := make([]int, 0, len(c.Members)-1)
	for _, m := range c.Members {
		if !m.IsParent {
			out = append(out, m.Index)
		}
	}
	return out
}

// Consolidate clusters the indexed records by lipid suffix and co-elution.
//
// Within each suffix group, records are ordered by retention time, then by
// descending sugar count, then by name, and clustered greedily: the first
// unclaimed record anchors a cluster and every later record within the
// retention-time tolerance of that anchor joins it.  Only clusters with two
// or more members are reported; the parent is the member with the most
// sugars, ties broken by the lowest log P, and it absorbs the summed volume
// of the whole cluster.
//
// The ordering rules make the result independent of input order.
func Consolidate(records []compound.Record, idx []int, tolerance float64) []Consolidation {
	bySuffix := make(map[string][]int)
	for _, ri := range idx {
		s := records[ri].Suffix
		bySuffix[s] = append(bySuffix[s], ri)
	}

	suffixes := make([]string, 0, len(bySuffix))
	for s := range bySuffix {
		suffixes = append(suffixes, s)
	}
	sort.Strings(suffixes)

	var out []Consolidation
	for _, s := range suffixes {
		group := bySuffix[s]
		if len(group) < 2 {
			continue
		}
		sort.Slice(group, func(a, b int) bool {
			ra, rb := &records[group[a]], &records[group[b]]
			if ra.RT != rb.RT {
				return ra.RT < rb.RT
			}
			if sa, sb := ra.TotalSugars(), rb.TotalSugars(); sa != sb {
				return sa > sb
			}
			return ra.Name < rb.Name
		})

		claimed := make([]bool, len(group))
		for i := range group {
			if claimed[i] {
				continue
			}
			cluster := []int{group[i]}
			claimed[i] = true
			anchorRT := records[group[i]].RT
			for j := i + 1; j < len(group); j++ {
				if claimed[j] {
					continue
				}
				if math.Abs(records[group[j]].RT-anchorRT) <= tolerance {
					cluster = append(cluster, group[j])
					claimed[j] = true
				}
			}
			if len(cluster) < 2 {
				continue
			}
			out = append(out, buildConsolidation(records, s, cluster))
		}
	}
	return out
}

func buildConsolidation(records []compound.Record, suffix string, cluster []int) Consolidation {
	parent := cluster[0]
	for _, ri := range cluster[1:] {
		p, c := &records[parent], &records[ri]
		if c.TotalSugars() > p.TotalSugars() ||
			(c.TotalSugars() == p.TotalSugars() && c.LogP < p.LogP) {
			parent = ri
		}
	}

	pr := &records[parent]
	cons := Consolidation{
		Suffix:      suffix,
		ParentIndex: parent,
		ParentName:  pr.Name,
		ParentRT:    pr.RT,
		Members:     make([]Member, 0, len(cluster)),
	}
	for _, ri := range cluster {
		r := &records[ri]
		cons.TotalVolume += r.Volume
		cons.Members = append(cons.Members, Member{
			Index:           ri,
			Name:            r.Name,
			RT:              r.RT,
			Volume:          r.Volume,
			LogP:            r.LogP,
			TotalSugars:     r.TotalSugars(),
			RTDifference:    r.RT - pr.RT,
			SugarDifference: pr.TotalSugars() - r.TotalSugars(),
			IsParent:        ri == parent,
		})
	}
	return cons
}
