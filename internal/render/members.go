package render

import (
	"sort"
	"strings"

	"verge-groups/internal/domain"
)

// Members returns the group's eligible members in display order: those
// matching the head's filter text, ordered by its sort type. The group's own
// slice is left untouched.
func Members(g domain.Group, head domain.HeadState) []domain.Proxy {
	filter := strings.ToLower(strings.TrimSpace(head.FilterText))

	out := make([]domain.Proxy, 0, len(g.All))
	for _, p := range g.All {
		if filter != "" && !matches(p, filter) {
			continue
		}
		out = append(out, p)
	}

	switch head.SortType {
	case domain.SortDelay:
		sort.SliceStable(out, func(i, j int) bool {
			a, b := out[i], out[j]
			if a.HasDelay() != b.HasDelay() {
				return a.HasDelay()
			}
			return a.HasDelay() && a.Delay < b.Delay
		})
	case domain.SortName:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Name < out[j].Name
		})
	}
	return out
}

func matches(p domain.Proxy, filter string) bool {
	return strings.Contains(strings.ToLower(p.Name), filter) ||
		strings.Contains(strings.ToLower(p.Type), filter)
}
