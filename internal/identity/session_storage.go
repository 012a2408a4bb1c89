package identity

import (
	"encoding/json"
	"errors"
	"os"
	"sync"

	"deepwork-api/internal/domain"
)

// SessionStorage persiste la sesion actual entre reinicios del proceso.
// El contenido es opaco para el resto del sistema.
type SessionStorage interface {
	Save(session *domain.Session) error
	Load() (*domain.Session, error)
	Clear() error
}

type memorySessionStorage struct {
	mu      sync.Mutex
	session *domain.Session
}

func NewMemorySessionStorage() SessionStorage {
	return &memorySessionStorage{}
}

func (s *memorySessionStorage) Save(session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session == nil {
		s.session = nil
		return nil
	}
	copied := *session
	s.session = &copied
	return nil
}

func (s *memorySessionStorage) Load() (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil, nil
	}
	copied := *s.session
	return &copied, nil
}

func (s *memorySessionStorage) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = nil
	return nil
}

type fileSessionStorage struct {
	mu   sync.Mutex
	path string
}

// NewFileSessionStorage persiste la sesion como JSON en path.
func NewFileSessionStorage(path string) SessionStorage {
	return &fileSessionStorage{path: path}
}

func (s *fileSessionStorage) Save(session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session == nil {
		return s.clearLocked()
	}
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

func (s *fileSessionStorage) Load() (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		// Archivo corrupto: se descarta en lugar de propagar.
		_ = s.clearLocked()
		return nil, nil
	}
	return &session, nil
}

func (s *fileSessionStorage) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearLocked()
}

func (s *fileSessionStorage) clearLocked() error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
