package clash

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"verge-groups/internal/domain"
)

const proxiesFixture = `{
	"proxies": {
		"GLOBAL": {"name": "GLOBAL", "type": "Selector", "all": ["Auto", "DIRECT", "Proxy", "hk-01"], "now": "Proxy"},
		"Proxy": {"name": "Proxy", "type": "Selector", "all": ["hk-01", "jp-01", "Auto"], "now": "jp-01",
			"icon": "https://cdn.test/proxy.png"},
		"Auto": {"name": "Auto", "type": "URLTest", "all": ["hk-01", "jp-01"], "now": "hk-01",
			"testUrl": "http://cp.cloudflare.com"},
		"Streaming": {"name": "Streaming", "type": "Selector", "all": [], "hidden": true},
		"DIRECT": {"name": "DIRECT", "type": "Direct"},
		"hk-01": {"name": "hk-01", "type": "Shadowsocks", "alive": true,
			"history": [{"time": "2026-10-01T00:00:00Z", "delay": 300}, {"time": "2026-10-01T00:01:00Z", "delay": 120}]},
		"jp-01": {"name": "jp-01", "type": "Trojan", "alive": false, "history": []}
	}
}`

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL+"/", "s3cr3t", 2*time.Second, zap.NewNop())
}

func TestGroups(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/proxies", r.URL.Path)
		assert.Equal(t, "Bearer s3cr3t", r.Header.Get("Authorization"))
		w.Write([]byte(proxiesFixture))
	})

	groups, err := c.Groups(context.Background())
	require.NoError(t, err)

	names := make([]domain.GroupName, len(groups))
	for i, g := range groups {
		names[i] = g.Name
	}
	assert.Equal(t, []domain.GroupName{"Auto", "Proxy", "Streaming"}, names)

	proxy := groups[1]
	assert.Equal(t, "jp-01", proxy.Now)
	assert.Equal(t, "https://cdn.test/proxy.png", proxy.Icon)
	require.Len(t, proxy.All, 3)
	assert.Equal(t, domain.Proxy{Name: "hk-01", Type: "Shadowsocks", Delay: 120, Alive: true}, proxy.All[0])
	assert.Equal(t, domain.Proxy{Name: "jp-01", Type: "Trojan", Alive: false}, proxy.All[1])
	assert.Equal(t, "URLTest", proxy.All[2].Type)

	assert.Equal(t, "http://cp.cloudflare.com", groups[0].TestURL)
	assert.True(t, groups[2].Hidden)
	assert.Empty(t, groups[2].All)
}

func TestSelectProxy(t *testing.T) {
	var got map[string]string
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/proxies/My Group", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.SelectProxy(context.Background(), "My Group", "hk-01"))
	assert.Equal(t, map[string]string{"name": "hk-01"}, got)
}

func TestSelectProxyRejected(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"Selector update error: proxy not exist"}`))
	})

	err := c.SelectProxy(context.Background(), "Proxy", "nope")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.Status)
	assert.Contains(t, statusErr.Body, "proxy not exist")
}

func TestGroupDelay(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/group/Proxy/delay", r.URL.Path)
		assert.Equal(t, "http://cp.cloudflare.com", r.URL.Query().Get("url"))
		assert.Equal(t, "5000", r.URL.Query().Get("timeout"))
		w.Write([]byte(`{"hk-01": 88, "jp-01": 140}`))
	})

	delays, err := c.GroupDelay(context.Background(), "Proxy", "http://cp.cloudflare.com", 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"hk-01": 88, "jp-01": 140}, delays)
}
