package console

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/a2a-routing/console/internal/logger"
)

// Store keeps the page state of every live console session. Sessions idle
// for longer than the TTL are dropped by a janitor goroutine.
type Store struct {
	opts PageOptions
	ttl  time.Duration
	now  func() time.Time
	log  *logrus.Entry

	mu    sync.Mutex
	pages map[string]*Page

	done chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// NewStore creates a store and starts its janitor. A zero ttl keeps
// sessions until they are dropped explicitly.
func NewStore(ttl time.Duration, opts PageOptions) *Store {
	s := &Store{
		opts:  opts,
		ttl:   ttl,
		now:   time.Now,
		log:   logger.Component("console"),
		pages: make(map[string]*Page),
		done:  make(chan struct{}),
	}
	if ttl > 0 {
		s.wg.Add(1)
		go s.janitor(sweepInterval(ttl))
	}
	return s
}

func sweepInterval(ttl time.Duration) time.Duration {
	interval := ttl / 4
	if interval < time.Second {
		interval = time.Second
	}
	return interval
}

// Get returns the page of sid, creating it on first use
func (s *Store) Get(sid string) *Page {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pages[sid]
	if !ok {
		p = NewPage(s.opts)
		s.pages[sid] = p
		s.log.WithField("sessions", len(s.pages)).Debug("Console session created")
	}
	p.touch(s.now())
	return p
}

// Drop discards the page of sid
func (s *Store) Drop(sid string) {
	s.mu.Lock()
	p, ok := s.pages[sid]
	delete(s.pages, sid)
	s.mu.Unlock()

	if ok {
		p.close()
	}
}

// Len reports the number of live sessions
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pages)
}

// Sweep drops the sessions idle for longer than the TTL
func (s *Store) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	var expired []*Page
	for sid, p := range s.pages {
		if p.idleSince().Before(cutoff) {
			expired = append(expired, p)
			delete(s.pages, sid)
		}
	}
	s.mu.Unlock()

	for _, p := range expired {
		p.close()
	}
	if len(expired) > 0 {
		s.log.WithField("expired", len(expired)).Info("Dropped idle console sessions")
	}
	return len(expired)
}

func (s *Store) janitor(interval time.Duration) {
	defer s.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-s.done:
			s.log.Debug("Janitor exiting: stop signal received")
			return
		}
	}
}

// Close stops the janitor and drops every session
func (s *Store) Close() {
	s.once.Do(func() {
		close(s.done)
		s.wg.Wait()

		s.mu.Lock()
		pages := s.pages
		s.pages = make(map[string]*Page)
		s.mu.Unlock()

		for _, p := range pages {
			p.close()
		}
	})
}
