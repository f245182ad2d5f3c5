package domain

type GroupName string

// Group types reported by the controller. Only selectors take a manual pick;
// every other type is passed through as reported.
const (
	GroupSelector = "Selector"
	GroupURLTest  = "URLTest"
)

type Group struct {
	Name    GroupName `json:"name"`
	Type    string    `json:"type"`
	All     []Proxy   `json:"all"`
	Hidden  bool      `json:"hidden"`
	Icon    string    `json:"icon,omitempty"`
	TestURL string    `json:"testUrl,omitempty"`
	Now     string    `json:"now"`
}

// Selectable reports whether the backend accepts manual selection for the group.
func (g Group) Selectable() bool {
	return g.Type == GroupSelector
}

// Member returns the member proxy with the given name.
func (g Group) Member(name string) (Proxy, bool) {
	for _, p := range g.All {
		if p.Name == name {
			return p, true
		}
	}
	return Proxy{}, false
}

// Proxy is a single member of a group. Delay is in milliseconds; zero means
// it has not been measured yet.
type Proxy struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Delay int    `json:"delay"`
	Alive bool   `json:"alive"`
}

// HasDelay reports whether the proxy carries a usable latency measurement.
func (p Proxy) HasDelay() bool {
	return p.Delay > 0
}

// CloneGroups copies groups deep enough that mutating Now or a member's
// Delay on the copy leaves the source untouched.
func CloneGroups(groups []Group) []Group {
	if groups == nil {
		return nil
	}
	out := make([]Group, len(groups))
	for i, g := range groups {
		out[i] = g
		out[i].All = append([]Proxy(nil), g.All...)
	}
	return out
}
