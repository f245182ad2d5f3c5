package verge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"verge-groups/internal/domain"
)

// FileStore keeps the verge settings in a YAML document. Keys it does not
// model are preserved across patches.
type FileStore struct {
	path   string
	mu     sync.Mutex
	logger *zap.Logger
}

func NewFileStore(path string, logger *zap.Logger) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}
	return &FileStore{
		path:   path,
		logger: logger.With(zap.String("component", "verge")),
	}, nil
}

// Verge reads the current settings. A missing file yields the defaults.
func (s *FileStore) Verge(ctx context.Context) (domain.VergeConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cfg domain.VergeConfig
	doc, err := s.readLocked()
	if err != nil {
		return cfg, err
	}
	if err := doc.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("decode verge config: %w", err)
	}
	return cfg, nil
}

// PatchVerge merges patch into the file.
func (s *FileStore) PatchVerge(ctx context.Context, patch domain.VergePatch) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.readLocked()
	if err != nil {
		return err
	}

	var raw map[string]interface{}
	if err := doc.Decode(&raw); err != nil {
		return fmt.Errorf("decode verge config: %w", err)
	}
	if raw == nil {
		raw = make(map[string]interface{})
	}

	var current domain.VergeConfig
	if err := doc.Decode(&current); err != nil {
		return fmt.Errorf("decode verge config: %w", err)
	}
	next := patch.Apply(current)

	// Re-encode the typed fields over the raw document.
	var typed map[string]interface{}
	data, err := yaml.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode verge config: %w", err)
	}
	if err := yaml.Unmarshal(data, &typed); err != nil {
		return fmt.Errorf("encode verge config: %w", err)
	}
	for k, v := range typed {
		raw[k] = v
	}

	out, err := yaml.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encode verge config: %w", err)
	}

	// Atomic write: write to temp file, then rename
	tempPath := s.path + ".tmp"
	if err := os.WriteFile(tempPath, out, 0644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tempPath, s.path); err != nil {
		return fmt.Errorf("atomic rename: %w", err)
	}

	s.logger.Debug("verge config patched", zap.String("path", s.path))
	return nil
}

func (s *FileStore) readLocked() (*yaml.Node, error) {
	doc := &yaml.Node{}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return emptyDocument(), nil
		}
		return nil, fmt.Errorf("read verge config: %w", err)
	}
	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("parse verge config: %w", err)
	}
	if doc.Kind == 0 {
		return emptyDocument(), nil
	}
	return doc, nil
}

func emptyDocument() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}
