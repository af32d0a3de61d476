package corpus

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replify/kbengine/internal/kberrors"
)

func newTestProvider(t *testing.T) *SQLiteProvider {
	t.Helper()
	p, err := NewSQLiteProvider(filepath.Join(t.TempDir(), "corpus.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestSQLiteProvider_SaveAndLoad(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	docs := []*Document{
		{ID: "d1", TenantID: "t1", SourceType: SourceArticle, Title: "Horarios", Content: "Abrimos a las 9", UpdatedAt: now},
		{ID: "d2", TenantID: "t1", SourceType: SourceFAQ, Title: "Precios", Content: "Lista de precios", Category: "ventas", UpdatedAt: now},
		{ID: "d3", TenantID: "t2", SourceType: SourcePolicy, Title: "Devoluciones", Content: "30 dias", UpdatedAt: now},
	}
	require.NoError(t, p.SaveDocuments(ctx, docs))

	got, err := p.LoadDocuments(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "d1", got[0].ID)
	assert.Equal(t, "d2", got[1].ID)
	assert.Equal(t, SourceFAQ, got[1].SourceType)
	assert.Equal(t, "ventas", got[1].Category)
	assert.Equal(t, now, got[1].UpdatedAt)
}

func TestSQLiteProvider_TenantIsolation(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	require.NoError(t, p.SaveDocuments(ctx, []*Document{
		{ID: "d1", TenantID: "t1", SourceType: SourceArticle, Content: "a", UpdatedAt: time.Now()},
		{ID: "d1", TenantID: "t2", SourceType: SourceArticle, Content: "b", UpdatedAt: time.Now()},
	}))

	got, err := p.LoadDocuments(ctx, "t2")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].Content)
}

func TestSQLiteProvider_UpsertReplacesContent(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	doc := &Document{ID: "d1", TenantID: "t1", SourceType: SourceArticle, Content: "old", UpdatedAt: time.Now()}
	require.NoError(t, p.SaveDocuments(ctx, []*Document{doc}))

	doc.Content = "new"
	require.NoError(t, p.SaveDocuments(ctx, []*Document{doc}))

	got, err := p.LoadDocuments(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].Content)
}

func TestSQLiteProvider_RejectsInvalidSourceType(t *testing.T) {
	p := newTestProvider(t)

	err := p.SaveDocuments(context.Background(), []*Document{
		{ID: "d1", TenantID: "t1", SourceType: "tweet", Content: "x", UpdatedAt: time.Now()},
	})
	require.Error(t, err)
	assert.Equal(t, kberrors.CodeCorpusLoad, kberrors.GetCode(err))
}

func TestSQLiteProvider_DeleteTenant(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	require.NoError(t, p.SaveDocuments(ctx, []*Document{
		{ID: "d1", TenantID: "t1", SourceType: SourceArticle, Content: "a", UpdatedAt: time.Now()},
	}))
	require.NoError(t, p.DeleteTenant(ctx, "t1"))

	got, err := p.LoadDocuments(ctx, "t1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemoryProvider_LoadReturnsCopy(t *testing.T) {
	p := NewMemoryProvider()
	p.Put("t1", []*Document{
		{ID: "d1", TenantID: "t1", SourceType: SourceArticle, Content: "a"},
		{ID: "d2", TenantID: "t1", SourceType: SourceFAQ, Content: "b"},
	})

	got, err := p.LoadDocuments(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, got, 2)

	got[0] = nil
	again, err := p.LoadDocuments(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "d1", again[0].ID)
}

func TestDocument_Text(t *testing.T) {
	d := &Document{Title: "Horarios", Content: "Abrimos a las 9"}
	assert.Equal(t, "Horarios\nAbrimos a las 9", d.Text())

	d.Title = ""
	assert.Equal(t, "Abrimos a las 9", d.Text())
}
