package api

import "verge-groups/internal/domain"

type groupResponse struct {
	Name    domain.GroupName `json:"name"`
	Type    string           `json:"type"`
	Now     string           `json:"now"`
	Icon    string           `json:"icon,omitempty"`
	TestURL string           `json:"testUrl,omitempty"`
	Size    int              `json:"size"`
}

// rowResponse is the wire form of every row kind. Kind tells which of the
// optional fields are set.
type rowResponse struct {
	Key      string            `json:"key"`
	Kind     domain.RowKind    `json:"kind"`
	Group    groupResponse     `json:"group"`
	Head     *domain.HeadState `json:"head,omitempty"`
	Indent   bool              `json:"indent,omitempty"`
	Proxy    *domain.Proxy     `json:"proxy,omitempty"`
	Selected bool              `json:"selected,omitempty"`
	Proxies  []proxyCell       `json:"proxies,omitempty"`
	Index    int               `json:"index,omitempty"`
	Columns  int               `json:"columns,omitempty"`
}

type proxyCell struct {
	domain.Proxy
	Selected bool `json:"selected"`
}

func newRowResponse(row domain.Row, icon func(domain.Group) string) rowResponse {
	out := rowResponse{Key: row.Key(), Kind: row.Kind()}

	switch r := row.(type) {
	case domain.GroupHeader:
		out.Group = newGroupResponse(r.Group, icon)
		out.Head = &r.Head
		out.Indent = r.Indent
	case domain.GroupBody:
		out.Group = newGroupResponse(r.Group, icon)
		out.Head = &r.Head
		out.Indent = r.Indent
	case domain.ProxyEntry:
		out.Group = newGroupResponse(r.Group, nil)
		out.Head = &r.Head
		out.Proxy = &r.Proxy
		out.Selected = r.Selected
	case domain.EmptyPlaceholder:
		out.Group = newGroupResponse(r.Group, nil)
	case domain.ProxyGrid:
		out.Group = newGroupResponse(r.Group, nil)
		out.Head = &r.Head
		out.Index = r.Index
		out.Columns = r.Columns
		out.Proxies = make([]proxyCell, 0, len(r.Proxies))
		for _, p := range r.Proxies {
			out.Proxies = append(out.Proxies, proxyCell{Proxy: p, Selected: p.Name == r.Group.Now})
		}
	}
	return out
}

// newGroupResponse resolves the icon only for header rows; other rows
// leave it empty.
func newGroupResponse(g domain.Group, icon func(domain.Group) string) groupResponse {
	out := groupResponse{
		Name:    g.Name,
		Type:    g.Type,
		Now:     g.Now,
		TestURL: g.TestURL,
		Size:    len(g.All),
	}
	if icon != nil {
		out.Icon = icon(g)
	}
	return out
}
