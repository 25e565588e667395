package config

import "sync"

// Store is an in-memory option store keyed by namespace and key.
type Store struct {
	mu      sync.RWMutex
	options map[string]map[string]string
}

func NewStore() *Store {
	return &Store{options: make(map[string]map[string]string)}
}

// Option returns "" for unknown keys.
func (s *Store) Option(key, namespace string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.options[namespace][key]
}

func (s *Store) SetOption(key, namespace, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ns, ok := s.options[namespace]
	if !ok {
		ns = make(map[string]string)
		s.options[namespace] = ns
	}
	ns[key] = value
}
