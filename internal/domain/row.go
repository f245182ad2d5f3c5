package domain

import (
	"fmt"
	"strings"
)

type RowKind string

const (
	KindGroupHeader      RowKind = "group-header"
	KindGroupBody        RowKind = "group-body"
	KindProxyEntry       RowKind = "proxy-entry"
	KindEmptyPlaceholder RowKind = "empty"
	KindProxyGrid        RowKind = "proxy-grid"
)

// Row is one displayable unit of the group list. The set of implementations
// is closed: only the types in this file satisfy it.
type Row interface {
	Key() string
	Kind() RowKind
	GroupName() GroupName
	isRow()
}

// GroupHeader is the compact one-line header of a group.
type GroupHeader struct {
	Group  Group
	Head   HeadState
	Indent bool
}

// GroupBody is the detailed header of a group, with sort/filter controls.
type GroupBody struct {
	Group  Group
	Head   HeadState
	Indent bool
}

type ProxyEntry struct {
	Group    Group
	Proxy    Proxy
	Head     HeadState
	Selected bool
}

type EmptyPlaceholder struct {
	Group Group
}

// ProxyGrid is one line of a compact multi-column block. Index is the
// chunk position inside the group, Columns the configured width.
type ProxyGrid struct {
	Group   Group
	Proxies []Proxy
	Head    HeadState
	Index   int
	Columns int
}

func (r GroupHeader) Key() string          { return keyPart(string(r.Group.Name)) }
func (r GroupHeader) Kind() RowKind        { return KindGroupHeader }
func (r GroupHeader) GroupName() GroupName { return r.Group.Name }
func (GroupHeader) isRow()                 {}

func (r GroupBody) Key() string          { return keyPart(string(r.Group.Name)) }
func (r GroupBody) Kind() RowKind        { return KindGroupBody }
func (r GroupBody) GroupName() GroupName { return r.Group.Name }
func (GroupBody) isRow()                 {}

func (r ProxyEntry) Key() string          { return EntryKey(r.Group.Name, r.Proxy.Name) }
func (r ProxyEntry) Kind() RowKind        { return KindProxyEntry }
func (r ProxyEntry) GroupName() GroupName { return r.Group.Name }
func (ProxyEntry) isRow()                 {}

func (r EmptyPlaceholder) Key() string          { return keyPart(string(r.Group.Name)) + "#empty" }
func (r EmptyPlaceholder) Kind() RowKind        { return KindEmptyPlaceholder }
func (r EmptyPlaceholder) GroupName() GroupName { return r.Group.Name }
func (EmptyPlaceholder) isRow()                 {}

func (r ProxyGrid) Key() string          { return fmt.Sprintf("%s#grid-%d", keyPart(string(r.Group.Name)), r.Index) }
func (r ProxyGrid) Kind() RowKind        { return KindProxyGrid }
func (r ProxyGrid) GroupName() GroupName { return r.Group.Name }
func (ProxyGrid) isRow()                 {}

// Contains reports whether the grid line holds the named proxy.
func (r ProxyGrid) Contains(proxy string) bool {
	for _, p := range r.Proxies {
		if p.Name == proxy {
			return true
		}
	}
	return false
}

// Row keys use '/' and '#' as separators. Names are escaped so that a header
// key never contains either, an entry key holds exactly one '/' and the
// placeholder and grid keys exactly one '#'.
var keyEscaper = strings.NewReplacer("%", "%25", "/", "%2F", "#", "%23")

func keyPart(name string) string {
	return keyEscaper.Replace(name)
}

func EntryKey(group GroupName, proxy string) string {
	return keyPart(string(group)) + "/" + keyPart(proxy)
}
