package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGroupSelectable(t *testing.T) {
	tests := []struct {
		typ  string
		want bool
	}{
		{GroupSelector, true},
		{GroupURLTest, false},
		{"Fallback", false},
		{"LoadBalance", false},
		{"Relay", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Group{Type: tt.typ}.Selectable(), tt.typ)
	}
}

func TestRowKeysEscapeSeparators(t *testing.T) {
	g := Group{Name: "a/b#c%d"}
	tests := []struct {
		row  Row
		want string
	}{
		{GroupHeader{Group: g}, "a%2Fb%23c%25d"},
		{GroupBody{Group: g}, "a%2Fb%23c%25d"},
		{ProxyEntry{Group: g, Proxy: Proxy{Name: "x/y"}}, "a%2Fb%23c%25d/x%2Fy"},
		{EmptyPlaceholder{Group: g}, "a%2Fb%23c%25d#empty"},
		{ProxyGrid{Group: g, Index: 3}, "a%2Fb%23c%25d#grid-3"},
		{GroupHeader{Group: Group{Name: "Proxy"}}, "Proxy"},
		{ProxyEntry{Group: Group{Name: "Proxy"}, Proxy: Proxy{Name: "hk-01"}}, "Proxy/hk-01"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.row.Key())
	}
}
