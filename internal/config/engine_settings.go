package config

import (
	"strings"
	"sync"
)

// EngineSettings holds the remote engine connection settings. Admins can
// change the engine URL/key at runtime from the settings page, so reads and
// reloads are guarded by a mutex instead of relying on process-global state.
type EngineSettings struct {
	mu      sync.RWMutex
	baseURL string
	apiKey  string
}

func NewEngineSettings(baseURL, apiKey string) *EngineSettings {
	return &EngineSettings{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

func (s *EngineSettings) BaseURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.baseURL
}

func (s *EngineSettings) APIKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.apiKey
}

// Reload swaps the connection settings. In-flight requests keep the values
// they already read; subsequent requests pick up the new ones.
func (s *EngineSettings) Reload(baseURL, apiKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.baseURL = strings.TrimRight(baseURL, "/")
	s.apiKey = apiKey
}
