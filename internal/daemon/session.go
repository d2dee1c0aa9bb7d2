package daemon

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"winnow/internal/logging"
	"winnow/internal/page"
	"winnow/internal/reactor"
	"winnow/internal/scanner"
)

// session is one client page under management: a parsed document, its
// scanner, and the reactor goroutine driving scans. The mutex serializes
// document swaps against running scan cycles.
type session struct {
	id      string
	created time.Time

	mu  sync.Mutex
	doc *page.Document

	scanner *scanner.Scanner
	reactor *reactor.Reactor
	cancel  context.CancelFunc
	done    chan struct{}
}

// Scan implements reactor.Driver. Holding the session mutex for the whole
// cycle is what keeps snapshot swaps out of a running scan.
func (s *session) Scan(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scanner.Scan(ctx)
}

// Invalidate implements reactor.Driver.
func (s *session) Invalidate() {
	s.scanner.Invalidate()
}

// replaceSnapshot swaps in a fresh document parse. Tile identity survives the
// swap because clients echo back the stamped HTML they were served.
func (s *session) replaceSnapshot(source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := page.Parse(s.doc.URL(), source)
	if err != nil {
		return err
	}
	s.doc = doc
	return nil
}

func (s *session) navigate(rawURL string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.SetURL(rawURL)
}

func (s *session) render() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Render()
}

func (s *session) pageInfo() (url string, mode page.Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.URL(), s.doc.Mode()
}

func (s *session) decisions() map[string]scanner.Decision {
	return s.scanner.Decisions()
}

func (s *session) close() {
	s.cancel()
	<-s.done
}

type sessionManager struct {
	daemon *Daemon

	mu       sync.Mutex
	sessions map[string]*session
}

func newSessionManager(d *Daemon) *sessionManager {
	return &sessionManager{daemon: d, sessions: make(map[string]*session)}
}

// create parses the snapshot, wires a scanner and reactor for it, and starts
// the reactor loop. The initial scan runs as soon as the loop is up.
func (m *sessionManager) create(rawURL, source string) (*session, error) {
	doc, err := page.Parse(rawURL, source)
	if err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}

	d := m.daemon
	sess := &session{
		id:      uuid.NewString(),
		created: time.Now(),
		doc:     doc,
		done:    make(chan struct{}),
	}
	logger := d.logger.With(logging.String("session", sess.id))
	sess.scanner = scanner.New(
		func() *page.Document { return sess.doc },
		d.store.Snapshot,
		d.gateway,
		logger,
	)
	sess.reactor = reactor.New(sess, d.store, reactor.ConfigFrom(d.cfg), logger)

	ctx, cancel := context.WithCancel(d.ctx)
	sess.cancel = cancel
	go func() {
		defer close(sess.done)
		_ = sess.reactor.Run(ctx)
	}()

	m.mu.Lock()
	m.sessions[sess.id] = sess
	m.mu.Unlock()

	logger.Info("session created",
		logging.String("url", rawURL),
		logging.String("mode", string(doc.Mode())))
	return sess, nil
}

func (m *sessionManager) get(id string) *session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[id]
}

func (m *sessionManager) remove(id string) bool {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return false
	}
	sess.close()
	return true
}

func (m *sessionManager) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *sessionManager) closeAll() {
	m.mu.Lock()
	sessions := make([]*session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		sessions = append(sessions, sess)
	}
	m.sessions = make(map[string]*session)
	m.mu.Unlock()
	for _, sess := range sessions {
		sess.close()
	}
}
