package clash

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"verge-groups/internal/domain"
)

const globalGroup = "GLOBAL"

// Client talks to a Clash-compatible external controller.
type Client struct {
	baseURL string
	secret  string
	timeout time.Duration
	client  *http.Client
	logger  *zap.Logger
}

func NewClient(baseURL, secret string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  secret,
		timeout: timeout,
		client:  &http.Client{},
		logger:  logger.With(zap.String("component", "clash")),
	}
}

// StatusError is returned when the controller answers with a non-2xx status.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Body)
}

type proxyInfo struct {
	Name    string         `json:"name"`
	Type    string         `json:"type"`
	All     []string       `json:"all"`
	Now     string         `json:"now"`
	Hidden  bool           `json:"hidden"`
	Icon    string         `json:"icon"`
	TestURL string         `json:"testUrl"`
	Alive   *bool          `json:"alive"`
	History []delayHistory `json:"history"`
}

type delayHistory struct {
	Time  time.Time `json:"time"`
	Delay int       `json:"delay"`
}

type proxiesResponse struct {
	Proxies map[string]proxyInfo `json:"proxies"`
}

// Groups returns every proxy group in display order: the order of GLOBAL's
// members first, then any group GLOBAL does not list, by name.
func (c *Client) Groups(ctx context.Context) ([]domain.Group, error) {
	var resp proxiesResponse
	if err := c.do(ctx, http.MethodGet, "/proxies", nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to list proxies: %w", err)
	}
	return assembleGroups(resp.Proxies), nil
}

func assembleGroups(all map[string]proxyInfo) []domain.Group {
	isGroup := func(p proxyInfo) bool { return p.All != nil && p.Name != globalGroup }

	order := make([]string, 0, len(all))
	placed := make(map[string]struct{}, len(all))
	if global, ok := all[globalGroup]; ok {
		for _, name := range global.All {
			if p, ok := all[name]; ok && isGroup(p) {
				if _, dup := placed[name]; !dup {
					order = append(order, name)
					placed[name] = struct{}{}
				}
			}
		}
	}
	var rest []string
	for name, p := range all {
		if _, ok := placed[name]; !ok && isGroup(p) {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	order = append(order, rest...)

	groups := make([]domain.Group, 0, len(order))
	for _, name := range order {
		info := all[name]
		g := domain.Group{
			Name:    domain.GroupName(info.Name),
			Type:    info.Type,
			Hidden:  info.Hidden,
			Icon:    info.Icon,
			TestURL: info.TestURL,
			Now:     info.Now,
			All:     make([]domain.Proxy, 0, len(info.All)),
		}
		for _, member := range info.All {
			g.All = append(g.All, toProxy(member, all[member]))
		}
		groups = append(groups, g)
	}
	return groups
}

func toProxy(name string, info proxyInfo) domain.Proxy {
	p := domain.Proxy{Name: name, Type: info.Type, Alive: true}
	if info.Alive != nil {
		p.Alive = *info.Alive
	}
	if n := len(info.History); n > 0 {
		p.Delay = info.History[n-1].Delay
	}
	return p
}

// SelectProxy makes proxy the active member of group.
func (c *Client) SelectProxy(ctx context.Context, group domain.GroupName, proxy string) error {
	body := map[string]string{"name": proxy}
	path := "/proxies/" + url.PathEscape(string(group))
	if err := c.do(ctx, http.MethodPut, path, nil, body, nil); err != nil {
		return fmt.Errorf("failed to select %s in %s: %w", proxy, group, err)
	}
	return nil
}

// GroupDelay probes every member of group and returns the measured delays in ms.
func (c *Client) GroupDelay(ctx context.Context, group domain.GroupName, testURL string, timeout time.Duration) (map[string]int, error) {
	query := url.Values{}
	query.Set("url", testURL)
	query.Set("timeout", strconv.FormatInt(timeout.Milliseconds(), 10))

	delays := make(map[string]int)
	path := "/group/" + url.PathEscape(string(group)) + "/delay"
	if err := c.do(ctx, http.MethodGet, path, query, nil, &delays); err != nil {
		return nil, fmt.Errorf("failed to probe group %s: %w", group, err)
	}
	return delays, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out interface{}) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	// Callers with their own deadline (delay probes) may outlast the default timeout.
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.secret != "" {
		req.Header.Set("Authorization", "Bearer "+c.secret)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Method: method, Path: path, Status: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	c.logger.Debug("controller request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode))

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
