package index

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replify/kbengine/internal/corpus"
)

func countingBuilder(builds *atomic.Int32) BuildFunc {
	return func(_ context.Context, tenantID string) (*Snapshot, error) {
		builds.Add(1)
		docs := []*corpus.Document{
			{ID: "d1", TenantID: tenantID, SourceType: corpus.SourceArticle, Content: "contenido " + tenantID},
		}
		return &Snapshot{
			TenantID: tenantID,
			Docs:     docs,
			Keyword:  BuildKeywordIndex(docs, DefaultK1, DefaultB),
			BuiltAt:  time.Now(),
		}, nil
	}
}

func TestManager_GetBuildsOnce(t *testing.T) {
	var builds atomic.Int32
	m := NewManager(countingBuilder(&builds), time.Minute, time.Hour, nil)
	defer m.Stop()

	ctx := context.Background()
	first, err := m.Get(ctx, "t1")
	require.NoError(t, err)

	second, err := m.Get(ctx, "t1")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), builds.Load())
}

func TestManager_TenantIsolation(t *testing.T) {
	var builds atomic.Int32
	m := NewManager(countingBuilder(&builds), time.Minute, time.Hour, nil)
	defer m.Stop()

	ctx := context.Background()
	a, err := m.Get(ctx, "t1")
	require.NoError(t, err)
	b, err := m.Get(ctx, "t2")
	require.NoError(t, err)

	assert.Equal(t, int32(2), builds.Load())
	assert.NotSame(t, a, b)
	assert.Equal(t, "t1", a.Docs[0].TenantID)
	assert.Equal(t, "t2", b.Docs[0].TenantID)
}

func TestManager_ForceReloadSwapsSnapshot(t *testing.T) {
	var builds atomic.Int32
	m := NewManager(countingBuilder(&builds), time.Minute, time.Hour, nil)
	defer m.Stop()

	ctx := context.Background()
	old, err := m.Get(ctx, "t1")
	require.NoError(t, err)

	fresh, err := m.ForceReload(ctx, "t1")
	require.NoError(t, err)
	assert.NotSame(t, old, fresh)

	got, err := m.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Same(t, fresh, got)
}

func TestManager_ReloadFailureKeepsPreviousSnapshot(t *testing.T) {
	var fail atomic.Bool
	build := func(_ context.Context, tenantID string) (*Snapshot, error) {
		if fail.Load() {
			return nil, errors.New("corpus unavailable")
		}
		return &Snapshot{TenantID: tenantID, BuiltAt: time.Now()}, nil
	}

	m := NewManager(build, time.Minute, time.Hour, nil)
	defer m.Stop()

	ctx := context.Background()
	old, err := m.Get(ctx, "t1")
	require.NoError(t, err)

	fail.Store(true)
	_, err = m.ForceReload(ctx, "t1")
	require.Error(t, err)

	got, err := m.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Same(t, old, got)
}

func TestManager_ClearForcesRebuild(t *testing.T) {
	var builds atomic.Int32
	m := NewManager(countingBuilder(&builds), time.Minute, time.Hour, nil)
	defer m.Stop()

	ctx := context.Background()
	_, err := m.Get(ctx, "t1")
	require.NoError(t, err)

	m.Clear("t1")

	_, err = m.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, int32(2), builds.Load())
}

func TestManager_SweepEvictsIdleTenants(t *testing.T) {
	var builds atomic.Int32
	m := NewManager(countingBuilder(&builds), time.Minute, 10*time.Millisecond, nil)
	defer m.Stop()

	_, err := m.Get(context.Background(), "t1")
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	m.sweep(time.Now())

	assert.Nil(t, m.Peek("t1"))
	assert.Empty(t, m.Stats())
}

func TestManager_SweepKeepsActiveTenants(t *testing.T) {
	var builds atomic.Int32
	m := NewManager(countingBuilder(&builds), time.Minute, time.Hour, nil)
	defer m.Stop()

	_, err := m.Get(context.Background(), "t1")
	require.NoError(t, err)

	m.sweep(time.Now())
	assert.NotNil(t, m.Peek("t1"))
}

func TestManager_StopWithoutStart(t *testing.T) {
	m := NewManager(countingBuilder(new(atomic.Int32)), time.Minute, time.Hour, nil)
	m.Stop()
	m.Stop() // idempotent
}

func TestManager_ConcurrentSearchDuringReload(t *testing.T) {
	// Builds alternate between a 2-doc and a 4-doc corpus, so a torn
	// snapshot would show up as an intermediate document count.
	var builds atomic.Int32
	build := func(_ context.Context, tenantID string) (*Snapshot, error) {
		n := 2
		if builds.Add(1)%2 == 0 {
			n = 4
		}
		docs := make([]*corpus.Document, n)
		for i := range docs {
			docs[i] = &corpus.Document{
				ID:         fmt.Sprintf("d%d", i),
				TenantID:   tenantID,
				SourceType: corpus.SourceArticle,
				Content:    "contenido " + tenantID,
			}
		}
		return &Snapshot{
			TenantID: tenantID,
			Docs:     docs,
			Keyword:  BuildKeywordIndex(docs, DefaultK1, DefaultB),
			BuiltAt:  time.Now(),
		}, nil
	}

	m := NewManager(build, time.Minute, time.Hour, nil)
	defer m.Stop()

	ctx := context.Background()
	_, err := m.Get(ctx, "t1")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			_, _ = m.ForceReload(ctx, "t1")
		}
	}()

	// Readers must always see a complete snapshot, old or new, never nil
	// and never partially built.
	for i := 0; i < 200; i++ {
		snap, err := m.Get(ctx, "t1")
		require.NoError(t, err)
		require.NotNil(t, snap)
		require.NotNil(t, snap.Keyword)
		require.Contains(t, []int{2, 4}, len(snap.Docs))
		require.Equal(t, len(snap.Docs), snap.Keyword.Len())
	}
	<-done
}

func TestManager_Stats(t *testing.T) {
	var builds atomic.Int32
	m := NewManager(countingBuilder(&builds), time.Minute, time.Hour, nil)
	defer m.Stop()

	_, err := m.Get(context.Background(), "t1")
	require.NoError(t, err)

	stats := m.Stats()
	require.Contains(t, stats, "t1")
	assert.Equal(t, 1, stats["t1"].Documents)
	assert.False(t, stats["t1"].BuiltAt.IsZero())
}
