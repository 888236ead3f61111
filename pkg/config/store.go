package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"
)

// Store is the in-memory view of the config file. It is read wholesale by
// Open and written wholesale after every mutation. Concurrent invocations
// against the same file are not coordinated.
type Store struct {
	path     string
	projects map[string]ProjectConfig
	logger   *zap.Logger
}

// Open loads the store at path. A missing file yields an empty store.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		path:     path,
		projects: make(map[string]ProjectConfig),
		logger:   logger,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Debug("Config file not found, starting empty", zap.String("path", path))
			return s, nil
		}
		return nil, &ReadError{Path: path, Err: err}
	}

	md, err := toml.Decode(string(data), &s.projects)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		logger.Warn("Ignoring unknown config keys", zap.String("path", path), zap.Strings("keys", keys))
	}

	logger.Debug("Loaded config", zap.String("path", path), zap.Int("projects", len(s.projects)))
	return s, nil
}

// Path returns the file backing the store.
func (s *Store) Path() string {
	return s.path
}

// Projects returns the stored project paths in sorted order.
func (s *Store) Projects() []string {
	keys := make([]string, 0, len(s.projects))
	for k := range s.projects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns a copy of the entry for projectPath.
func (s *Store) Get(projectPath string) (ProjectConfig, bool, error) {
	key, err := Key(projectPath)
	if err != nil {
		return ProjectConfig{}, false, fmt.Errorf("failed to resolve project path: %w", err)
	}
	cfg, ok := s.projects[key]
	if !ok {
		return ProjectConfig{}, false, nil
	}
	return cfg.Normalize().clone(), true, nil
}

// LoadOrCreate returns the entry for projectPath. When there is none, the
// provider supplies one, which is stored with an empty history and persisted
// before returning. The bool reports whether the entry was created.
func (s *Store) LoadOrCreate(projectPath string, provider Provider) (ProjectConfig, bool, error) {
	key, err := Key(projectPath)
	if err != nil {
		return ProjectConfig{}, false, fmt.Errorf("failed to resolve project path: %w", err)
	}
	if cfg, ok := s.projects[key]; ok {
		s.logger.Debug("Using stored project config", zap.String("project", key))
		return cfg.Normalize().clone(), false, nil
	}
	if provider == nil {
		return ProjectConfig{}, false, fmt.Errorf("%w: %s", ErrNotFound, key)
	}

	cfg, err := provider.ProjectConfig(key)
	if err != nil {
		return ProjectConfig{}, false, fmt.Errorf("failed to collect project config: %w", err)
	}
	cfg = cfg.withDefaults(key).Normalize()
	cfg.History = []string{}

	s.projects[key] = cfg
	if err := s.Save(); err != nil {
		delete(s.projects, key)
		return ProjectConfig{}, false, err
	}
	s.logger.Info("Created project config",
		zap.String("project", key),
		zap.String("projectName", cfg.ProjectName),
		zap.String("config", s.path))
	return cfg.clone(), true, nil
}

// AppendHistory records goal as the newest history entry of projectPath and
// persists the store.
func (s *Store) AppendHistory(projectPath, goal string) error {
	key, err := Key(projectPath)
	if err != nil {
		return fmt.Errorf("failed to resolve project path: %w", err)
	}
	cfg, ok := s.projects[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}

	previous := cfg.History
	cfg.History = append(append([]string(nil), previous...), goal)
	s.projects[key] = cfg
	if err := s.Save(); err != nil {
		cfg.History = previous
		s.projects[key] = cfg
		return err
	}
	s.logger.Debug("Appended goal to history", zap.String("project", key), zap.Int("historyLen", len(cfg.History)))
	return nil
}

// Save encodes every project and replaces the file through a rename, so a
// failed write leaves the previous contents in place.
func (s *Store) Save() error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(s.projects); err != nil {
		return &WriteError{Path: s.path, Err: err}
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &WriteError{Path: s.path, Err: err}
	}
	tmp, err := os.CreateTemp(dir, ".prompt-gen-*.toml")
	if err != nil {
		return &WriteError{Path: s.path, Err: err}
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &WriteError{Path: s.path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &WriteError{Path: s.path, Err: err}
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return &WriteError{Path: s.path, Err: err}
	}

	s.logger.Debug("Saved config", zap.String("path", s.path), zap.Int("projects", len(s.projects)))
	return nil
}
