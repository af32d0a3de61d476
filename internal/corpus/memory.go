package corpus

import (
	"context"
	"sync"
)

// MemoryProvider serves documents from an in-memory map, keyed by tenant.
// It is used in tests and for statically configured corpora.
type MemoryProvider struct {
	mu   sync.RWMutex
	docs map[string][]*Document
}

var _ Provider = (*MemoryProvider)(nil)

// NewMemoryProvider creates an empty in-memory provider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{docs: make(map[string][]*Document)}
}

// Put replaces the document set for a tenant.
func (p *MemoryProvider) Put(tenantID string, docs []*Document) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cp := make([]*Document, len(docs))
	copy(cp, docs)
	p.docs[tenantID] = cp
}

// Add appends documents to a tenant's corpus.
func (p *MemoryProvider) Add(tenantID string, docs ...*Document) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.docs[tenantID] = append(p.docs[tenantID], docs...)
}

// LoadDocuments implements Provider.
func (p *MemoryProvider) LoadDocuments(_ context.Context, tenantID string) ([]*Document, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	docs := p.docs[tenantID]
	out := make([]*Document, len(docs))
	copy(out, docs)
	return out, nil
}

// Close implements Provider.
func (p *MemoryProvider) Close() error { return nil }
