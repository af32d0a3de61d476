// Package corpus defines the knowledge-base document model and the
// providers that load documents for a tenant.
package corpus

import (
	"context"
	"time"
)

// SourceType classifies where a document originated.
type SourceType string

const (
	SourceArticle SourceType = "article"
	SourceFAQ     SourceType = "faq"
	SourcePolicy  SourceType = "policy"
	SourceService SourceType = "service"
)

// ValidSourceType reports whether s is a known source type.
func ValidSourceType(s SourceType) bool {
	switch s {
	case SourceArticle, SourceFAQ, SourcePolicy, SourceService:
		return true
	}
	return false
}

// Document is a single knowledge-base entry for a tenant.
type Document struct {
	ID         string     `json:"id"`
	TenantID   string     `json:"tenant_id"`
	SourceType SourceType `json:"source_type"`
	SourceID   string     `json:"source_id"`
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	Category   string     `json:"category,omitempty"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Text returns the searchable text of the document (title plus content).
func (d *Document) Text() string {
	if d.Title == "" {
		return d.Content
	}
	return d.Title + "\n" + d.Content
}

// Provider loads the documents of a tenant's knowledge base.
type Provider interface {
	// LoadDocuments returns every document for the tenant. Order is the
	// corpus insertion order and must be stable across calls.
	LoadDocuments(ctx context.Context, tenantID string) ([]*Document, error)

	// Close releases provider resources.
	Close() error
}
