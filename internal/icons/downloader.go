package icons

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

const maxIconBytes = 2 << 20

// Downloader stores remote icons under dir. A file that is already on disk
// is reused without touching the network.
type Downloader struct {
	dir    string
	client *http.Client
	logger *zap.Logger
}

func NewDownloader(dir string, logger *zap.Logger) (*Downloader, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create icon directory: %w", err)
	}
	return &Downloader{
		dir:    dir,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger.With(zap.String("component", "icons")),
	}, nil
}

func (d *Downloader) FetchIcon(ctx context.Context, iconURL, fileName string) (string, error) {
	name := sanitize(fileName)
	if name == "" {
		return "", fmt.Errorf("invalid icon file name %q", fileName)
	}
	path := filepath.Join(d.dir, name)

	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		return path, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, iconURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download icon: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download icon: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxIconBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read icon: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("empty icon body")
	}
	if len(data) > maxIconBytes {
		return "", fmt.Errorf("icon exceeds %d bytes", maxIconBytes)
	}

	// Atomic write: write to temp file, then rename
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return "", fmt.Errorf("atomic rename: %w", err)
	}

	d.logger.Debug("icon downloaded",
		zap.String("url", iconURL),
		zap.String("path", path),
		zap.Int("bytes", len(data)))
	return path, nil
}

// sanitize turns a cache key into a safe single-segment file name. Unsafe
// characters are percent-encoded so distinct keys stay distinct on disk.
func sanitize(name string) string {
	if name == "." || name == ".." {
		return ""
	}
	var b strings.Builder
	for _, r := range name {
		switch r {
		case '%', '/', '\\', ':', '*', '"', '<', '>', '|', '?', '#':
			fmt.Fprintf(&b, "%%%02X", r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// AssetLocator maps cached files to asset protocol URLs served by the webview.
type AssetLocator struct {
	Scheme string
	Host   string
}

func NewAssetLocator() AssetLocator {
	return AssetLocator{Scheme: "asset", Host: "localhost"}
}

func (l AssetLocator) Locate(path string) string {
	return l.Scheme + "://" + l.Host + "/" + url.PathEscape(path)
}
