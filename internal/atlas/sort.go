package atlas

import "sort"

// SortByPriority orders items so that items whose source name appears in
// priorities come first, in priority order. Items absent from priorities sort
// after all prioritized items and keep their relative order.
//
// The priority list only affects the order in which a batch of loads is
// issued; per-file dedup in the cache makes the order irrelevant for
// correctness.
func SortByPriority(items []SoundItem, priorities []string) []SoundItem {
	if len(priorities) == 0 {
		return items
	}

	rank := make(map[string]int, len(priorities))
	for i, name := range priorities {
		if _, ok := rank[name]; !ok {
			rank[name] = i
		}
	}

	sorted := make([]SoundItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, iOK := rank[sorted[i].SourceName]
		rj, jOK := rank[sorted[j].SourceName]
		switch {
		case iOK && jOK:
			return ri < rj
		case iOK:
			return true
		default:
			return false
		}
	})
	return sorted
}
