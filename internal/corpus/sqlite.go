package corpus

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/replify/kbengine/internal/kberrors"
)

// SQLiteProvider persists knowledge-base documents in a SQLite database.
// Documents are returned in insertion (rowid) order so downstream index
// builds are deterministic.
type SQLiteProvider struct {
	db *sql.DB
}

var _ Provider = (*SQLiteProvider)(nil)

const corpusSchema = `
CREATE TABLE IF NOT EXISTS documents (
	rowid       INTEGER PRIMARY KEY AUTOINCREMENT,
	id          TEXT NOT NULL,
	tenant_id   TEXT NOT NULL,
	source_type TEXT NOT NULL,
	source_id   TEXT NOT NULL DEFAULT '',
	title       TEXT NOT NULL DEFAULT '',
	content     TEXT NOT NULL,
	category    TEXT NOT NULL DEFAULT '',
	updated_at  INTEGER NOT NULL,
	UNIQUE(tenant_id, id)
);
CREATE INDEX IF NOT EXISTS idx_documents_tenant ON documents(tenant_id);
`

// NewSQLiteProvider opens (or creates) the corpus database at path.
func NewSQLiteProvider(path string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, kberrors.CorpusLoad("open corpus database", err)
	}

	// Single writer; WAL lets readers proceed during index refreshes.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, kberrors.CorpusLoad(fmt.Sprintf("apply %s", pragma), err)
		}
	}

	if _, err := db.Exec(corpusSchema); err != nil {
		_ = db.Close()
		return nil, kberrors.CorpusLoad("create corpus schema", err)
	}

	return &SQLiteProvider{db: db}, nil
}

// SaveDocuments upserts documents for their tenants in a single transaction.
func (p *SQLiteProvider) SaveDocuments(ctx context.Context, docs []*Document) error {
	if len(docs) == 0 {
		return nil
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return kberrors.CorpusLoad("begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO documents (id, tenant_id, source_type, source_id, title, content, category, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(tenant_id, id) DO UPDATE SET
			source_type = excluded.source_type,
			source_id   = excluded.source_id,
			title       = excluded.title,
			content     = excluded.content,
			category    = excluded.category,
			updated_at  = excluded.updated_at`)
	if err != nil {
		return kberrors.CorpusLoad("prepare upsert", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, d := range docs {
		if d.ID == "" || d.TenantID == "" {
			return kberrors.New(kberrors.CodeCorpusLoad, "document missing id or tenant_id", nil)
		}
		if !ValidSourceType(d.SourceType) {
			return kberrors.New(kberrors.CodeCorpusLoad,
				fmt.Sprintf("unknown source type %q for document %s", d.SourceType, d.ID), nil)
		}
		_, err := stmt.ExecContext(ctx,
			d.ID, d.TenantID, string(d.SourceType), d.SourceID,
			d.Title, d.Content, d.Category, d.UpdatedAt.Unix())
		if err != nil {
			return kberrors.CorpusLoad(fmt.Sprintf("save document %s", d.ID), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return kberrors.CorpusLoad("commit documents", err)
	}
	return nil
}

// DeleteTenant removes every document belonging to a tenant.
func (p *SQLiteProvider) DeleteTenant(ctx context.Context, tenantID string) error {
	if _, err := p.db.ExecContext(ctx, "DELETE FROM documents WHERE tenant_id = ?", tenantID); err != nil {
		return kberrors.CorpusLoad(fmt.Sprintf("delete tenant %s", tenantID), err)
	}
	return nil
}

// LoadDocuments implements Provider.
func (p *SQLiteProvider) LoadDocuments(ctx context.Context, tenantID string) ([]*Document, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, source_type, source_id, title, content, category, updated_at
		FROM documents
		WHERE tenant_id = ?
		ORDER BY rowid`, tenantID)
	if err != nil {
		return nil, kberrors.CorpusLoad(fmt.Sprintf("load tenant %s", tenantID), err)
	}
	defer func() { _ = rows.Close() }()

	var docs []*Document
	for rows.Next() {
		d := &Document{TenantID: tenantID}
		var srcType string
		var updatedAt int64
		if err := rows.Scan(&d.ID, &srcType, &d.SourceID, &d.Title, &d.Content, &d.Category, &updatedAt); err != nil {
			return nil, kberrors.CorpusLoad("scan document", err)
		}
		d.SourceType = SourceType(srcType)
		d.UpdatedAt = time.Unix(updatedAt, 0).UTC()
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, kberrors.CorpusLoad("iterate documents", err)
	}
	return docs, nil
}

// Close implements Provider.
func (p *SQLiteProvider) Close() error {
	return p.db.Close()
}
