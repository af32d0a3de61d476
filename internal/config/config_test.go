package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replify/kbengine/internal/kberrors"
)

func TestDefault_IsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.Search.RRFConstant)
	assert.Equal(t, 0.7, cfg.Search.SemanticWeight)
	assert.Equal(t, 1.2, cfg.BM25.K1)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kbengine.yaml")
	data := `
search:
  default_limit: 5
  max_limit: 20
  rrf_constant: 90
  semantic_weight: 0.5
  similarity_threshold: 0.4
  semantic_timeout: 2s
bm25:
  k1: 1.5
  b: 0.6
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 90, cfg.Search.RRFConstant)
	assert.Equal(t, 0.5, cfg.Search.SemanticWeight)
	assert.Equal(t, 2*time.Second, cfg.Search.SemanticTimeout)
	assert.Equal(t, 1.5, cfg.BM25.K1)
	// Untouched sections keep defaults.
	assert.Equal(t, 0.5, cfg.Rerank.SemanticWeight)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("KBENGINE_RRF_CONSTANT", "42")
	t.Setenv("KBENGINE_SEMANTIC_WEIGHT", "0.9")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.Search.RRFConstant)
	assert.Equal(t, 0.9, cfg.Search.SemanticWeight)
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"non-positive rrf constant", func(c *Config) { c.Search.RRFConstant = 0 }},
		{"semantic weight above one", func(c *Config) { c.Search.SemanticWeight = 1.5 }},
		{"negative similarity threshold", func(c *Config) { c.Search.SimilarityThreshold = -0.1 }},
		{"default limit above max", func(c *Config) { c.Search.DefaultLimit = 100 }},
		{"negative k1", func(c *Config) { c.BM25.K1 = -1 }},
		{"b above one", func(c *Config) { c.BM25.B = 1.1 }},
		{"rerank weights not summing to one", func(c *Config) { c.Rerank.KeywordWeight = 0.5 }},
		{"rerank weight out of range", func(c *Config) {
			c.Rerank.SemanticWeight = 1.2
			c.Rerank.KeywordWeight = -0.45
		}},
		{"zero cache size", func(c *Config) { c.Cache.LocalSize = 0 }},
		{"zero idle ttl", func(c *Config) { c.Index.IdleTTL = 0 }},
		{"zero dimensions", func(c *Config) { c.Embeddings.Dimensions = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Equal(t, kberrors.CodeConfigInvalid, kberrors.GetCode(err))
			assert.True(t, kberrors.IsFatal(err))
		})
	}
}

func TestLoad_InvalidConfigFailsImmediately(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kbengine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("search:\n  rrf_constant: -5\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Equal(t, kberrors.CodeConfigInvalid, kberrors.GetCode(err))
}
