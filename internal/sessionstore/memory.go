package sessionstore

import (
	"sync"

	"linkvault/internal/domain/models"
)

// Memory is a Storage kept in process, for tests and tools.
type Memory struct {
	mu      sync.Mutex
	session *models.Session
}

func (m *Memory) Load() (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil, nil
	}
	s := *m.session
	return &s, nil
}

func (m *Memory) Save(s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *s
	m.session = &c
	return nil
}

func (m *Memory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = nil
	return nil
}
