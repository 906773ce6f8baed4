package wizard

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// DraftKey is the fixed key the draft is stored under.
const DraftKey = "mortgageApplication"

var ErrNoDraft = errors.New("no saved draft")

type DraftStore interface {
	Load(key string) ([]byte, error)
	Save(key string, data []byte) error
	Delete(key string) error
}

// FileDraftStore keeps one JSON file per key in Dir.
type FileDraftStore struct {
	Dir string
}

func NewFileDraftStore(dir string) *FileDraftStore {
	return &FileDraftStore{Dir: dir}
}

// DefaultDraftDir is <user config dir>/mortgage-app.
func DefaultDraftDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(base, "mortgage-app"), nil
}

func (s *FileDraftStore) path(key string) string {
	return filepath.Join(s.Dir, key+".json")
}

func (s *FileDraftStore) Load(key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoDraft
	}
	return data, err
}

// Save writes through a temp file so a crash never leaves a half-written draft.
func (s *FileDraftStore) Save(key string, data []byte) error {
	if err := os.MkdirAll(s.Dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.Dir, key+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path(key))
}

func (s *FileDraftStore) Delete(key string) error {
	err := os.Remove(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

type MemoryDraftStore struct {
	mu    sync.Mutex
	items map[string][]byte
}

func NewMemoryDraftStore() *MemoryDraftStore {
	return &MemoryDraftStore{items: make(map[string][]byte)}
}

func (s *MemoryDraftStore) Load(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.items[key]
	if !ok {
		return nil, ErrNoDraft
	}
	return append([]byte(nil), data...), nil
}

func (s *MemoryDraftStore) Save(key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = append([]byte(nil), data...)
	return nil
}

func (s *MemoryDraftStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}
