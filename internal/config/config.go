// Package config loads and validates the kbengine configuration.
//
// Configuration is resolved in order of precedence:
//  1. Environment variables (KBENGINE_*) - highest priority
//  2. Config file (kbengine.yaml)
//  3. Built-in defaults
//
// Validation is strict: invalid weights or non-positive constants fail at
// load time, never at query time.
package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/replify/kbengine/internal/kberrors"
)

// Config is the complete kbengine configuration.
type Config struct {
	Version    int              `yaml:"version"`
	Search     SearchConfig     `yaml:"search"`
	BM25       BM25Config       `yaml:"bm25"`
	Rerank     RerankConfig     `yaml:"rerank"`
	Cache      CacheConfig      `yaml:"cache"`
	Index      IndexConfig      `yaml:"index"`
	Embeddings EmbeddingsConfig `yaml:"embeddings"`
	Server     ServerConfig     `yaml:"server"`
}

// SearchConfig configures hybrid retrieval behavior.
type SearchConfig struct {
	// DefaultLimit is the default number of results per query.
	DefaultLimit int `yaml:"default_limit"`

	// MaxLimit is the maximum allowed results per query.
	MaxLimit int `yaml:"max_limit"`

	// RRFConstant is the RRF smoothing parameter k (default: 60).
	RRFConstant int `yaml:"rrf_constant"`

	// SemanticWeight is the fusion weight for the semantic list (0.0-1.0).
	// The keyword list gets 1 - SemanticWeight. Both are clamped into
	// [0.1, 1.0] before fusion so neither path can be silently dropped.
	SemanticWeight float64 `yaml:"semantic_weight"`

	// SimilarityThreshold is the minimum similarity for semantic hits.
	SimilarityThreshold float64 `yaml:"similarity_threshold"`

	// SemanticTimeout bounds the semantic path (embedding + similarity
	// lookup). On expiry the engine degrades to keyword-only results.
	SemanticTimeout time.Duration `yaml:"semantic_timeout"`
}

// BM25Config configures keyword scoring.
type BM25Config struct {
	// K1 is the term-frequency saturation parameter (default: 1.2).
	K1 float64 `yaml:"k1"`

	// B is the document-length normalization parameter (default: 0.75).
	B float64 `yaml:"b"`
}

// RerankConfig configures the weighted re-ranking signals.
// The four weights must sum to 1.0.
type RerankConfig struct {
	SemanticWeight float64 `yaml:"semantic_weight"`
	KeywordWeight  float64 `yaml:"keyword_weight"`
	RecencyWeight  float64 `yaml:"recency_weight"`
	CategoryWeight float64 `yaml:"category_weight"`

	// SufficientScore is the final-score threshold above which a single
	// result is considered sufficient context (default: 0.6).
	SufficientScore float64 `yaml:"sufficient_score"`
}

// CacheConfig configures the embedding cache tiers.
type CacheConfig struct {
	// LocalSize is the in-process LRU capacity (default: 10000 entries).
	LocalSize int `yaml:"local_size"`

	// SharedTTL is the shared-tier entry TTL (default: 1h).
	SharedTTL time.Duration `yaml:"shared_ttl"`

	// SharedPath is the Badger directory for the shared tier.
	// Empty disables the shared tier (local-only caching).
	SharedPath string `yaml:"shared_path"`
}

// IndexConfig configures per-tenant index lifecycle.
type IndexConfig struct {
	// SweepInterval is how often idle indices are checked (default: 5m).
	SweepInterval time.Duration `yaml:"sweep_interval"`

	// IdleTTL is how long an unused index stays cached (default: 30m).
	IdleTTL time.Duration `yaml:"idle_ttl"`
}

// EmbeddingsConfig configures the embedding generator.
type EmbeddingsConfig struct {
	// Provider selects the generator: "http" or "static".
	Provider string `yaml:"provider"`

	// Model is the embedding model identifier.
	Model string `yaml:"model"`

	// Dimensions is the embedding vector length.
	Dimensions int `yaml:"dimensions"`

	// Host is the HTTP embedding endpoint (default: http://localhost:11434).
	Host string `yaml:"host"`

	// Timeout bounds a single embedding request.
	Timeout time.Duration `yaml:"timeout"`
}

// ServerConfig configures the MCP server and logging.
type ServerConfig struct {
	Transport string `yaml:"transport"`
	LogLevel  string `yaml:"log_level"`
}

// Default returns the built-in configuration defaults.
func Default() *Config {
	return &Config{
		Version: 1,
		Search: SearchConfig{
			DefaultLimit:        10,
			MaxLimit:            50,
			RRFConstant:         60,
			SemanticWeight:      0.7,
			SimilarityThreshold: 0.5,
			SemanticTimeout:     3 * time.Second,
		},
		BM25: BM25Config{
			K1: 1.2,
			B:  0.75,
		},
		Rerank: RerankConfig{
			SemanticWeight:  0.5,
			KeywordWeight:   0.25,
			RecencyWeight:   0.10,
			CategoryWeight:  0.15,
			SufficientScore: 0.6,
		},
		Cache: CacheConfig{
			LocalSize: 10000,
			SharedTTL: time.Hour,
		},
		Index: IndexConfig{
			SweepInterval: 5 * time.Minute,
			IdleTTL:       30 * time.Minute,
		},
		Embeddings: EmbeddingsConfig{
			Provider:   "static",
			Model:      "kb-static-256",
			Dimensions: 256,
			Host:       "http://localhost:11434",
			Timeout:    30 * time.Second,
		},
		Server: ServerConfig{
			Transport: "stdio",
			LogLevel:  "info",
		},
	}
}

// Load reads configuration from path (optional), applies env overrides,
// and validates. A missing file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies KBENGINE_* environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("KBENGINE_SEMANTIC_WEIGHT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Search.SemanticWeight = f
		}
	}
	if v := os.Getenv("KBENGINE_RRF_CONSTANT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Search.RRFConstant = n
		}
	}
	if v := os.Getenv("KBENGINE_LOG_LEVEL"); v != "" {
		cfg.Server.LogLevel = v
	}
	if v := os.Getenv("KBENGINE_EMBEDDINGS_HOST"); v != "" {
		cfg.Embeddings.Host = v
	}
	if v := os.Getenv("KBENGINE_SHARED_CACHE_PATH"); v != "" {
		cfg.Cache.SharedPath = v
	}
}

// Validate checks the configuration. Violations are fatal at load time.
func (c *Config) Validate() error {
	if c.Search.RRFConstant <= 0 {
		return kberrors.ConfigInvalid(fmt.Sprintf("rrf_constant must be positive, got %d", c.Search.RRFConstant))
	}
	if c.Search.SemanticWeight < 0 || c.Search.SemanticWeight > 1 {
		return kberrors.ConfigInvalid(fmt.Sprintf("semantic_weight must be in [0,1], got %g", c.Search.SemanticWeight))
	}
	if c.Search.SimilarityThreshold < 0 || c.Search.SimilarityThreshold > 1 {
		return kberrors.ConfigInvalid(fmt.Sprintf("similarity_threshold must be in [0,1], got %g", c.Search.SimilarityThreshold))
	}
	if c.Search.DefaultLimit <= 0 || c.Search.MaxLimit <= 0 {
		return kberrors.ConfigInvalid("result limits must be positive")
	}
	if c.Search.DefaultLimit > c.Search.MaxLimit {
		return kberrors.ConfigInvalid(fmt.Sprintf("default_limit %d exceeds max_limit %d", c.Search.DefaultLimit, c.Search.MaxLimit))
	}

	if c.BM25.K1 < 0 {
		return kberrors.ConfigInvalid(fmt.Sprintf("bm25 k1 must be non-negative, got %g", c.BM25.K1))
	}
	if c.BM25.B < 0 || c.BM25.B > 1 {
		return kberrors.ConfigInvalid(fmt.Sprintf("bm25 b must be in [0,1], got %g", c.BM25.B))
	}

	weights := []struct {
		name  string
		value float64
	}{
		{"rerank semantic_weight", c.Rerank.SemanticWeight},
		{"rerank keyword_weight", c.Rerank.KeywordWeight},
		{"rerank recency_weight", c.Rerank.RecencyWeight},
		{"rerank category_weight", c.Rerank.CategoryWeight},
		{"rerank sufficient_score", c.Rerank.SufficientScore},
	}
	for _, w := range weights {
		if w.value < 0 || w.value > 1 {
			return kberrors.ConfigInvalid(fmt.Sprintf("%s must be in [0,1], got %g", w.name, w.value))
		}
	}
	sum := c.Rerank.SemanticWeight + c.Rerank.KeywordWeight + c.Rerank.RecencyWeight + c.Rerank.CategoryWeight
	if math.Abs(sum-1.0) > 1e-9 {
		return kberrors.ConfigInvalid(fmt.Sprintf("rerank weights must sum to 1.0, got %g", sum))
	}

	if c.Cache.LocalSize <= 0 {
		return kberrors.ConfigInvalid(fmt.Sprintf("cache local_size must be positive, got %d", c.Cache.LocalSize))
	}
	if c.Cache.SharedTTL <= 0 {
		return kberrors.ConfigInvalid("cache shared_ttl must be positive")
	}
	if c.Index.SweepInterval <= 0 || c.Index.IdleTTL <= 0 {
		return kberrors.ConfigInvalid("index sweep_interval and idle_ttl must be positive")
	}
	if c.Embeddings.Dimensions <= 0 {
		return kberrors.ConfigInvalid(fmt.Sprintf("embeddings dimensions must be positive, got %d", c.Embeddings.Dimensions))
	}

	return nil
}
