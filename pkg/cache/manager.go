package cache

import (
	"net/http"
	"time"
)

// Config sizes the reference-data caches.
type Config struct {
	Enabled     bool
	FormsTTL    time.Duration
	CriteriaTTL time.Duration
	MaxSize     int
}

// DefaultConfig returns the settings used when none are configured.
func DefaultConfig() Config {
	return Config{
		Enabled:     true,
		FormsTTL:    10 * time.Minute,
		CriteriaTTL: time.Minute,
		MaxSize:     256,
	}
}

// Manager owns one cache per reference endpoint family. A nil Manager
// disables caching: its middlewares pass through and invalidation is a
// no-op.
type Manager struct {
	forms    *LRU
	criteria *LRU
}

// NewManager returns nil when cfg is disabled.
func NewManager(cfg Config) *Manager {
	if !cfg.Enabled {
		return nil
	}
	return &Manager{
		forms:    NewLRU(cfg.MaxSize, cfg.FormsTTL),
		criteria: NewLRU(cfg.MaxSize, cfg.CriteriaTTL),
	}
}

// FormsMiddleware caches /api/forms responses.
func (m *Manager) FormsMiddleware() func(http.Handler) http.Handler {
	if m == nil {
		return Middleware(nil)
	}
	return Middleware(m.forms)
}

// CriteriaMiddleware caches /api/visual-error-criteria responses.
func (m *Manager) CriteriaMiddleware() func(http.Handler) http.Handler {
	if m == nil {
		return Middleware(nil)
	}
	return Middleware(m.criteria)
}

// InvalidateCriteria drops cached criteria lists. The API calls it after
// recording a detection.
func (m *Manager) InvalidateCriteria() {
	if m == nil {
		return
	}
	m.criteria.InvalidateAll()
}

// InvalidateAll drops every cached response.
func (m *Manager) InvalidateAll() {
	if m == nil {
		return
	}
	m.forms.InvalidateAll()
	m.criteria.InvalidateAll()
}
