package render

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"verge-groups/internal/domain"
	"verge-groups/internal/headstate"
	"verge-groups/internal/metrics"
)

type countingMetrics struct {
	metrics.Nop
	duplicates int
}

func (m *countingMetrics) RecordDuplicateRow(domain.GroupName) { m.duplicates++ }

func proxies(names ...string) []domain.Proxy {
	out := make([]domain.Proxy, len(names))
	for i, n := range names {
		out[i] = domain.Proxy{Name: n, Type: "Shadowsocks"}
	}
	return out
}

func heads(states map[domain.GroupName]domain.HeadState) headstate.Snapshot {
	return headstate.Snapshot(states)
}

func grid(columns int) *Builder {
	return NewBuilder(Options{Layout: LayoutGrid, Columns: columns}, metrics.Nop{}, zap.NewNop())
}

func list() *Builder {
	return NewBuilder(Options{Layout: LayoutList}, metrics.Nop{}, zap.NewNop())
}

func keys(rows []domain.Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Key()
	}
	return out
}

func TestCompactScenario(t *testing.T) {
	groups := []domain.Group{{Name: "Proxy", Type: domain.GroupSelector, All: proxies("A", "B", "C")}}
	h := heads(map[domain.GroupName]domain.HeadState{"Proxy": {Open: true}})

	rows := grid(2).Build(groups, h)

	require.Len(t, rows, 3)
	assert.IsType(t, domain.GroupHeader{}, rows[0])

	first, ok := rows[1].(domain.ProxyGrid)
	require.True(t, ok)
	assert.Equal(t, proxies("A", "B"), first.Proxies)

	second, ok := rows[2].(domain.ProxyGrid)
	require.True(t, ok)
	assert.Equal(t, proxies("C"), second.Proxies)

	assert.Equal(t, []string{"Proxy", "Proxy#grid-0", "Proxy#grid-1"}, keys(rows))
}

func TestGridRowCount(t *testing.T) {
	for _, n := range []int{1, 2, 3, 4, 5, 9, 10} {
		for _, c := range []int{1, 2, 3, 4} {
			t.Run(fmt.Sprintf("n=%d c=%d", n, c), func(t *testing.T) {
				names := make([]string, n)
				for i := range names {
					names[i] = fmt.Sprintf("p%d", i)
				}
				groups := []domain.Group{{Name: "G", All: proxies(names...)}}
				h := heads(map[domain.GroupName]domain.HeadState{"G": {Open: true}})

				rows := grid(c).Build(groups, h)

				want := (n + c - 1) / c
				assert.Len(t, rows, 1+want)
				total := 0
				for _, r := range rows[1:] {
					g := r.(domain.ProxyGrid)
					assert.LessOrEqual(t, len(g.Proxies), c)
					total += len(g.Proxies)
				}
				assert.Equal(t, n, total)
			})
		}
	}
}

func TestHeadStateShapesRows(t *testing.T) {
	tests := []struct {
		name  string
		group domain.Group
		head  domain.HeadState
		kinds []domain.RowKind
	}{
		{
			name:  "hidden group contributes nothing even when open",
			group: domain.Group{Name: "G", Hidden: true, All: proxies("A")},
			head:  domain.HeadState{Open: true},
			kinds: []domain.RowKind{},
		},
		{
			name:  "closed group contributes only its header",
			group: domain.Group{Name: "G", All: proxies("A", "B", "C", "D")},
			head:  domain.HeadState{},
			kinds: []domain.RowKind{domain.KindGroupHeader},
		},
		{
			name:  "open empty group gets a placeholder",
			group: domain.Group{Name: "G"},
			head:  domain.HeadState{Open: true},
			kinds: []domain.RowKind{domain.KindGroupHeader, domain.KindEmptyPlaceholder},
		},
		{
			name:  "filter removing every member gets a placeholder",
			group: domain.Group{Name: "G", All: proxies("A", "B")},
			head:  domain.HeadState{Open: true, FilterText: "zzz"},
			kinds: []domain.RowKind{domain.KindGroupHeader, domain.KindEmptyPlaceholder},
		},
		{
			name:  "open group in list mode gets one entry per member",
			group: domain.Group{Name: "G", All: proxies("A", "B")},
			head:  domain.HeadState{Open: true},
			kinds: []domain.RowKind{domain.KindGroupHeader, domain.KindProxyEntry, domain.KindProxyEntry},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := list().Build([]domain.Group{tt.group},
				heads(map[domain.GroupName]domain.HeadState{tt.group.Name: tt.head}))

			kinds := make([]domain.RowKind, len(rows))
			for i, r := range rows {
				kinds[i] = r.Kind()
			}
			assert.Equal(t, tt.kinds, kinds)
		})
	}
}

func TestDetailedHeaderStyle(t *testing.T) {
	b := NewBuilder(Options{Header: HeaderDetailed, Indent: true}, metrics.Nop{}, zap.NewNop())
	rows := b.Build([]domain.Group{{Name: "G"}}, nil)

	require.Len(t, rows, 1)
	body, ok := rows[0].(domain.GroupBody)
	require.True(t, ok)
	assert.True(t, body.Indent)
}

func TestListEntriesMarkSelection(t *testing.T) {
	groups := []domain.Group{{Name: "G", Now: "B", All: proxies("A", "B")}}
	rows := list().Build(groups, heads(map[domain.GroupName]domain.HeadState{"G": {Open: true, ShowType: true}}))

	require.Len(t, rows, 3)
	a := rows[1].(domain.ProxyEntry)
	b := rows[2].(domain.ProxyEntry)
	assert.False(t, a.Selected)
	assert.True(t, b.Selected)
	assert.True(t, b.Head.ShowType)
	assert.Equal(t, "G/B", b.Key())
}

func TestBuildIsDeterministic(t *testing.T) {
	groups := []domain.Group{
		{Name: "Proxy", All: proxies("A", "B", "C")},
		{Name: "Auto", All: proxies("C", "D")},
		{Name: "Hidden", Hidden: true, All: proxies("X")},
		{Name: "Empty"},
	}
	h := heads(map[domain.GroupName]domain.HeadState{
		"Proxy": {Open: true, SortType: domain.SortName},
		"Auto":  {Open: true},
		"Empty": {Open: true},
	})

	for _, b := range []*Builder{grid(2), list()} {
		first := b.Build(groups, h)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, b.Build(groups, h))
		}
	}
}

func TestKeysUnique(t *testing.T) {
	groups := []domain.Group{
		{Name: "Proxy", All: proxies("A", "B", "C")},
		{Name: "Auto", All: proxies("A", "B", "C")},
		{Name: "Empty"},
	}
	h := heads(map[domain.GroupName]domain.HeadState{
		"Proxy": {Open: true}, "Auto": {Open: true}, "Empty": {Open: true},
	})

	for _, b := range []*Builder{grid(2), list()} {
		seen := map[string]bool{}
		for _, k := range keys(b.Build(groups, h)) {
			assert.False(t, seen[k], "duplicate key %q", k)
			seen[k] = true
		}
	}
}

func TestDuplicateGroupFirstOccurrenceWins(t *testing.T) {
	m := &countingMetrics{}
	b := NewBuilder(Options{Layout: LayoutList}, m, zap.NewNop())

	groups := []domain.Group{
		{Name: "Proxy", Now: "A", All: proxies("A")},
		{Name: "Proxy", Now: "B", All: proxies("B", "C")},
	}
	rows := b.Build(groups, heads(map[domain.GroupName]domain.HeadState{"Proxy": {Open: true}}))

	assert.Equal(t, []string{"Proxy", "Proxy/A"}, keys(rows))
	assert.Equal(t, "A", rows[0].(domain.GroupHeader).Group.Now)
	assert.Equal(t, 1, m.duplicates)
}

func TestDuplicateMemberDropped(t *testing.T) {
	m := &countingMetrics{}
	b := NewBuilder(Options{Layout: LayoutList}, m, zap.NewNop())

	groups := []domain.Group{{Name: "G", All: proxies("A", "A", "B")}}
	rows := b.Build(groups, heads(map[domain.GroupName]domain.HeadState{"G": {Open: true}}))

	assert.Equal(t, []string{"G", "G/A", "G/B"}, keys(rows))
	assert.Equal(t, 1, m.duplicates)
}

func TestWithColumns(t *testing.T) {
	b := grid(2)
	wide := b.WithColumns(3)

	assert.Equal(t, 2, b.Options().Columns)
	assert.Equal(t, 3, wide.Options().Columns)
	assert.Same(t, b, b.WithColumns(0))
}

func TestZeroColumnsFallsBackToDefault(t *testing.T) {
	b := NewBuilder(Options{Layout: LayoutGrid}, metrics.Nop{}, zap.NewNop())
	assert.Equal(t, defaultColumns, b.Options().Columns)
}

func TestKeysDisjointAcrossGroupNames(t *testing.T) {
	groups := []domain.Group{
		{Name: "HK", All: proxies("01")},
		{Name: "HK/01", All: proxies("x", "y")},
		{Name: "HK#grid-0", All: proxies("z")},
	}

	tests := []struct {
		name  string
		b     *Builder
		heads headstate.Snapshot
		want  []string
	}{
		{
			name:  "list open",
			b:     list(),
			heads: heads(map[domain.GroupName]domain.HeadState{"HK": {Open: true}, "HK/01": {Open: true}, "HK#grid-0": {Open: true}}),
			want:  []string{"HK", "HK/01", "HK%2F01", "HK%2F01/x", "HK%2F01/y", "HK%23grid-0", "HK%23grid-0/z"},
		},
		{
			name:  "grid open",
			b:     grid(2),
			heads: heads(map[domain.GroupName]domain.HeadState{"HK": {Open: true}, "HK/01": {Open: true}, "HK#grid-0": {Open: true}}),
			want:  []string{"HK", "HK#grid-0", "HK%2F01", "HK%2F01#grid-0", "HK%23grid-0", "HK%23grid-0#grid-0"},
		},
		{
			name:  "closed",
			b:     list(),
			heads: heads(map[domain.GroupName]domain.HeadState{"HK": {Open: true}}),
			want:  []string{"HK", "HK/01", "HK%2F01", "HK%23grid-0"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &countingMetrics{}
			b := NewBuilder(tt.b.Options(), m, zap.NewNop())

			rows := b.Build(groups, tt.heads)

			assert.Equal(t, tt.want, keys(rows))
			assert.Zero(t, m.duplicates)
			for _, g := range groups {
				var headers int
				for _, r := range rows {
					if r.GroupName() == g.Name && (r.Kind() == domain.KindGroupHeader) {
						headers++
					}
				}
				assert.Equal(t, 1, headers, "group %q", g.Name)
			}
		})
	}
}

func TestDroppedHeaderSkipsGroupBody(t *testing.T) {
	m := &countingMetrics{}
	l := rowList{keys: map[string]struct{}{}, metrics: m, logger: zap.NewNop()}
	g := domain.Group{Name: "G", All: proxies("A")}

	require.True(t, l.emit(domain.GroupHeader{Group: g}))
	assert.False(t, l.emit(domain.GroupBody{Group: g}))
	assert.Len(t, l.rows, 1)
	assert.Equal(t, 1, m.duplicates)
}
