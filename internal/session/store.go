// Package session owns the active document of each tenant: its chunks, the
// embedder its vectors live in, and the index built over them.
package session

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"docrag/internal/assembler"
	"docrag/internal/domain"
	"docrag/internal/embedding"
	"docrag/internal/index"
)

// DefaultTopK is the number of neighbors retrieved per question.
const DefaultTopK = 3

// Session is one activated document. It is never mutated after activation;
// replacing a document installs a new Session.
type Session struct {
	DocumentName string
	Chunks       []domain.Chunk
	Index        index.Index
	// Embedder embeds questions into the same space as the chunks.
	Embedder    domain.Embedder
	ActivatedAt time.Time
}

// Options tunes a Store. Zero values select defaults.
type Options struct {
	TopK      int
	MaxChunks int
	// MaxDistance drops hits farther than this squared distance. Zero disables it.
	MaxDistance      float64
	EmbedConcurrency int
	ActivateTimeout  time.Duration
	QueryTimeout     time.Duration
	BuildIndex       index.Builder
	// IdleTTL expires sessions not used for this long. Zero keeps them until cleared.
	IdleTTL time.Duration
	// MaxSessions evicts the least recently used session once exceeded. Zero means no cap.
	MaxSessions int
}

type entry struct {
	sess     *Session
	lastUsed atomic.Int64 // unix nanoseconds
}

// tenantLock serializes activations of one tenant. refs counts holders and
// waiters so the lock can be dropped once nobody needs it.
type tenantLock struct {
	mu   sync.Mutex
	refs int
}

// Store holds at most one active Session per tenant. Sessions are built in
// isolation and swapped in under the lock only once complete, so readers see
// either the old session or the new one, never a mix.
type Store struct {
	chunker  domain.Chunker
	embedder domain.Embedder
	opts     Options
	now      func() time.Time

	mu         sync.RWMutex
	sessions   map[string]*entry
	activating map[string]*tenantLock
}

// NewStore returns an empty store.
func NewStore(chunker domain.Chunker, embedder domain.Embedder, opts Options) *Store {
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.MaxChunks <= 0 {
		opts.MaxChunks = assembler.DefaultMaxChunks
	}
	if opts.EmbedConcurrency <= 0 {
		opts.EmbedConcurrency = embedding.DefaultConcurrency
	}
	if opts.BuildIndex == nil {
		opts.BuildIndex = index.Build
	}
	return &Store{
		chunker:    chunker,
		embedder:   embedder,
		opts:       opts,
		now:        time.Now,
		sessions:   make(map[string]*entry),
		activating: make(map[string]*tenantLock),
	}
}

// Activate chunks, embeds and indexes text, then replaces the tenant's
// active session. On any failure the previous session stays in place.
func (s *Store) Activate(ctx context.Context, tenant, documentName, text string) (*Session, error) {
	lock := s.acquire(tenant)
	defer s.release(tenant, lock)

	sess, err := s.build(ctx, documentName, text)
	if err != nil {
		return nil, fmt.Errorf("activate %q: %w", documentName, err)
	}

	e := &entry{sess: sess}
	e.lastUsed.Store(s.now().UnixNano())
	s.mu.Lock()
	s.sessions[tenant] = e
	evicted := s.evictOverflow(tenant)
	s.mu.Unlock()
	if evicted != "" {
		log.Printf("session %s: evicted, limit of %d sessions reached", evicted, s.opts.MaxSessions)
	}

	log.Printf("session %s: activated %q (%d chunks, dim %d, embedder %s)",
		tenant, documentName, len(sess.Chunks), sess.Index.Dimension(), sess.Embedder.Name())
	return sess, nil
}

func (s *Store) build(ctx context.Context, documentName, text string) (*Session, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.InvalidInputf("empty document text")
	}
	chunks, err := s.chunker.Chunk(text)
	if err != nil {
		return nil, fmt.Errorf("chunk: %w", err)
	}
	if len(chunks) == 0 {
		return nil, domain.InvalidInputf("document produced no chunks")
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	emb := s.embedder
	if f, ok := emb.(domain.CorpusFitter); ok {
		if emb, err = f.Fit(texts); err != nil {
			return nil, fmt.Errorf("fit embedder: %w", err)
		}
	}

	if s.opts.ActivateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.ActivateTimeout)
		defer cancel()
	}
	vectors, err := embedding.EmbedAll(ctx, emb, texts, s.opts.EmbedConcurrency)
	if err != nil {
		return nil, err
	}
	idx, err := s.opts.BuildIndex(vectors)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	if idx.Len() != len(chunks) {
		return nil, fmt.Errorf("build index: %d vectors for %d chunks", idx.Len(), len(chunks))
	}
	if d := emb.Dimension(); d > 0 && d != idx.Dimension() {
		return nil, &domain.ProviderError{
			Op:  "embed",
			Err: fmt.Errorf("%s reports dimension %d, vectors have %d", emb.Name(), d, idx.Dimension()),
		}
	}
	return &Session{
		DocumentName: documentName,
		Chunks:       chunks,
		Index:        idx,
		Embedder:     emb,
		ActivatedAt:  s.now(),
	}, nil
}

func (s *Store) acquire(tenant string) *tenantLock {
	s.mu.Lock()
	l, ok := s.activating[tenant]
	if !ok {
		l = &tenantLock{}
		s.activating[tenant] = l
	}
	l.refs++
	s.mu.Unlock()
	l.mu.Lock()
	return l
}

func (s *Store) release(tenant string, l *tenantLock) {
	l.mu.Unlock()
	s.mu.Lock()
	if l.refs--; l.refs == 0 {
		delete(s.activating, tenant)
	}
	s.mu.Unlock()
}

// evictOverflow drops the least recently used session other than keep once
// the store holds more than MaxSessions. Callers hold s.mu.
func (s *Store) evictOverflow(keep string) string {
	if s.opts.MaxSessions <= 0 || len(s.sessions) <= s.opts.MaxSessions {
		return ""
	}
	var oldest string
	var oldestAt int64
	for tenant, e := range s.sessions {
		if tenant == keep {
			continue
		}
		if at := e.lastUsed.Load(); oldest == "" || at < oldestAt {
			oldest, oldestAt = tenant, at
		}
	}
	delete(s.sessions, oldest)
	return oldest
}

func (s *Store) expired(e *entry, now time.Time) bool {
	return s.opts.IdleTTL > 0 && now.Sub(time.Unix(0, e.lastUsed.Load())) > s.opts.IdleTTL
}

// Clear discards the tenant's active session, if any.
func (s *Store) Clear(tenant string) {
	s.mu.Lock()
	_, ok := s.sessions[tenant]
	delete(s.sessions, tenant)
	s.mu.Unlock()
	if ok {
		log.Printf("session %s: cleared", tenant)
	}
}

// Sweep removes sessions idle for longer than IdleTTL and reports how many
// were removed.
func (s *Store) Sweep() int {
	if s.opts.IdleTTL <= 0 {
		return 0
	}
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for tenant, e := range s.sessions {
		if s.expired(e, now) {
			delete(s.sessions, tenant)
			n++
		}
	}
	if n > 0 {
		log.Printf("session sweep: expired %d idle sessions, %d remain", n, len(s.sessions))
	}
	return n
}

// Run sweeps idle sessions every interval until ctx is done. It returns at
// once when no IdleTTL is configured.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	if s.opts.IdleTTL <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Len returns the number of active sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// IsActive reports whether the tenant has an active session.
func (s *Store) IsActive(tenant string) bool {
	_, ok := s.Current(tenant)
	return ok
}

// Current returns the tenant's active session and marks it used. A session
// idle past IdleTTL is reported absent even before the next sweep.
func (s *Store) Current(tenant string) (*Session, bool) {
	now := s.now()
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[tenant]
	if !ok || s.expired(e, now) {
		return nil, false
	}
	e.lastUsed.Store(now.UnixNano())
	return e.sess, true
}

// Query embeds question and returns the nearest chunks of the tenant's active
// document. It fails with domain.ErrNoActiveDocument when nothing is active.
func (s *Store) Query(ctx context.Context, tenant, question string) ([]domain.Hit, error) {
	sess, ok := s.Current(tenant)
	if !ok {
		return nil, domain.ErrNoActiveDocument
	}
	return s.search(ctx, sess, question)
}

func (s *Store) search(ctx context.Context, sess *Session, question string) ([]domain.Hit, error) {
	if strings.TrimSpace(question) == "" {
		return nil, domain.InvalidInputf("empty question")
	}
	if s.opts.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.QueryTimeout)
		defer cancel()
	}
	q, err := embedding.EmbedOne(ctx, sess.Embedder, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	return sess.Index.Search(q, s.opts.TopK)
}
