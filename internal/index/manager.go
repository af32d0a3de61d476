package index

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/replify/kbengine/internal/corpus"
)

// SemanticHit is a single vector-similarity match.
type SemanticHit struct {
	Doc        *corpus.Document
	Similarity float64
}

// SemanticSearcher is the per-tenant vector search surface attached to a
// snapshot. Nil when the semantic path is disabled.
type SemanticSearcher interface {
	Search(ctx context.Context, query []float32, limit int, minSimilarity float64) ([]SemanticHit, error)
}

// Snapshot is an immutable per-tenant index generation. Readers hold the
// pointer they loaded; rebuilds never mutate a published snapshot.
type Snapshot struct {
	TenantID string
	Docs     []*corpus.Document
	Keyword  *KeywordIndex
	Semantic SemanticSearcher
	BuiltAt  time.Time
}

// BuildFunc builds a fresh snapshot for a tenant, loading the corpus and
// constructing the keyword and semantic indices.
type BuildFunc func(ctx context.Context, tenantID string) (*Snapshot, error)

type entry struct {
	mu         sync.Mutex // serializes builds for one tenant
	snap       atomic.Pointer[Snapshot]
	lastAccess atomic.Int64 // unix nanos
}

// Manager caches one index snapshot per tenant and evicts idle tenants in
// the background. Lookups are lock-free once a snapshot exists; rebuilds
// swap the snapshot pointer atomically so in-flight queries keep serving
// the previous generation.
type Manager struct {
	build         BuildFunc
	sweepInterval time.Duration
	idleTTL       time.Duration
	logger        *slog.Logger

	mu      sync.Mutex
	entries map[string]*entry

	startOnce sync.Once
	stopOnce  sync.Once
	stopCh    chan struct{}
	done      chan struct{}
}

// NewManager creates an index manager. Call Start to enable the idle sweep;
// Stop is safe even if Start was never called.
func NewManager(build BuildFunc, sweepInterval, idleTTL time.Duration, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		build:         build,
		sweepInterval: sweepInterval,
		idleTTL:       idleTTL,
		logger:        logger,
		entries:       make(map[string]*entry),
		stopCh:        make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// Start launches the background sweep. Calling it more than once is a no-op.
func (m *Manager) Start() {
	m.startOnce.Do(func() {
		go m.sweepLoop()
	})
}

// Stop halts the sweep. Idempotent, and safe when Start was never called.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

// Get returns the tenant's snapshot, building it on first access.
func (m *Manager) Get(ctx context.Context, tenantID string) (*Snapshot, error) {
	e := m.entry(tenantID)
	e.lastAccess.Store(time.Now().UnixNano())

	if snap := e.snap.Load(); snap != nil {
		return snap, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if snap := e.snap.Load(); snap != nil {
		return snap, nil
	}

	snap, err := m.build(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	e.snap.Store(snap)
	m.logger.Info("index_built",
		slog.String("tenant_id", tenantID),
		slog.Int("documents", len(snap.Docs)))
	return snap, nil
}

// ForceReload rebuilds the tenant's snapshot and swaps it in atomically.
// If the rebuild fails the previous snapshot stays in place and the error
// is returned.
func (m *Manager) ForceReload(ctx context.Context, tenantID string) (*Snapshot, error) {
	e := m.entry(tenantID)
	e.lastAccess.Store(time.Now().UnixNano())

	e.mu.Lock()
	defer e.mu.Unlock()

	snap, err := m.build(ctx, tenantID)
	if err != nil {
		m.logger.Warn("index_reload_failed",
			slog.String("tenant_id", tenantID),
			slog.String("error", err.Error()))
		return nil, err
	}
	e.snap.Store(snap)
	m.logger.Info("index_reloaded",
		slog.String("tenant_id", tenantID),
		slog.Int("documents", len(snap.Docs)))
	return snap, nil
}

// Clear drops the tenant's cached snapshot.
func (m *Manager) Clear(tenantID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, tenantID)
}

// ClearAll drops every cached snapshot.
func (m *Manager) ClearAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]*entry)
}

// Peek returns the snapshot without building or touching last access.
// Nil when the tenant has no cached index.
func (m *Manager) Peek(tenantID string) *Snapshot {
	m.mu.Lock()
	e := m.entries[tenantID]
	m.mu.Unlock()
	if e == nil {
		return nil
	}
	return e.snap.Load()
}

// TenantStats describes one cached tenant index.
type TenantStats struct {
	TenantID   string    `json:"tenant_id"`
	Documents  int       `json:"documents"`
	BuiltAt    time.Time `json:"built_at"`
	LastAccess time.Time `json:"last_access"`
}

// Stats returns stats for every cached tenant, keyed by tenant ID.
func (m *Manager) Stats() map[string]TenantStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]TenantStats, len(m.entries))
	for id, e := range m.entries {
		snap := e.snap.Load()
		if snap == nil {
			continue
		}
		out[id] = TenantStats{
			TenantID:   id,
			Documents:  len(snap.Docs),
			BuiltAt:    snap.BuiltAt,
			LastAccess: time.Unix(0, e.lastAccess.Load()),
		}
	}
	return out
}

func (m *Manager) entry(tenantID string) *entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[tenantID]
	if !ok {
		e = &entry{}
		m.entries[tenantID] = e
	}
	return e
}

func (m *Manager) sweepLoop() {
	defer close(m.done)

	ticker := time.NewTicker(m.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.sweep(time.Now())
		}
	}
}

// sweep evicts tenants idle longer than the TTL.
func (m *Manager) sweep(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, e := range m.entries {
		idle := now.Sub(time.Unix(0, e.lastAccess.Load()))
		if idle > m.idleTTL {
			delete(m.entries, id)
			m.logger.Info("index_evicted",
				slog.String("tenant_id", id),
				slog.Duration("idle", idle))
		}
	}
}
