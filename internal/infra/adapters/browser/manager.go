package browser

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"job-autopilot/internal/domain/ports/adapter"
	"job-autopilot/internal/infra/metrics"
)

var _ adapter.SessionManager = (*Manager)(nil)

// Manager owns form-session lifecycle and enforces the concurrent-session
// cap. NewSession blocks until a slot frees or the caller's context ends.
type Manager struct {
	slots chan struct{}
	log   *zerolog.Logger

	mu     sync.Mutex
	active int
}

func NewManager(maxSessions int, logger *zerolog.Logger) *Manager {
	if maxSessions <= 0 {
		maxSessions = 3
	}
	l := logger.With().Str("component", "BrowserManager").Logger()
	return &Manager{
		slots: make(chan struct{}, maxSessions),
		log:   &l,
	}
}

func (m *Manager) NewSession(ctx context.Context) (adapter.Session, error) {
	select {
	case m.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for session slot: %w", ctx.Err())
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		<-m.slots
		return nil, err
	}

	m.mu.Lock()
	m.active++
	m.mu.Unlock()
	metrics.IncActiveSessions()

	s := &FormSession{
		client: &http.Client{Jar: jar, Timeout: 30 * time.Second},
		onClose: func() {
			<-m.slots
			m.mu.Lock()
			m.active--
			m.mu.Unlock()
			metrics.DecActiveSessions()
		},
		log: m.log,
	}
	return s, nil
}

func (m *Manager) ActiveSessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}
