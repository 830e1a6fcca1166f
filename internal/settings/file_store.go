// Package settings persists the flat settings record as JSON.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"ambientctx/internal/domain"
	"ambientctx/internal/logging"
)

// FileStore implements ports.SettingsStore on a single JSON file.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	if path == "" {
		path = "./settings.json"
	}
	return &FileStore{path: path}
}

func (s *FileStore) Path() string { return s.path }

// Load returns the stored settings. A missing file is created with the
// defaults; keys absent from the file keep their default values.
func (s *FileStore) Load() (domain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		defaults := domain.DefaultSettings()
		if err := s.write(defaults); err != nil {
			return domain.Settings{}, fmt.Errorf("failed to write default settings file: %w", err)
		}
		logging.Infow("settings file created", "path", s.path)
		return defaults, nil
	}
	if err != nil {
		return domain.Settings{}, fmt.Errorf("failed to read settings file: %w", err)
	}

	settings := domain.DefaultSettings()
	if err := json.Unmarshal(data, &settings); err != nil {
		return domain.Settings{}, fmt.Errorf("failed to deserialize settings: %w", err)
	}
	return settings, nil
}

func (s *FileStore) Save(settings domain.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.write(settings); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	return nil
}

func (s *FileStore) write(settings domain.Settings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	return saveFileAtomic(s.path, data, 0o600)
}

// saveFileAtomic writes to a sibling temp file, syncs it and renames it over
// path so readers never see a partial file.
func saveFileAtomic(path string, data []byte, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
