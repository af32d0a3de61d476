// Package mcp exposes the retrieval engine over the Model Context Protocol.
// Three tools are served: kb_search, refresh_index, and index_stats.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/replify/kbengine/internal/search"
	"github.com/replify/kbengine/pkg/version"
)

// Server wraps an MCP server around the search engine.
type Server struct {
	engine *search.Engine
	mcp    *mcp.Server
	logger *slog.Logger
}

// NewServer creates the MCP server and registers the tools.
func NewServer(engine *search.Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		engine: engine,
		logger: logger,
	}
	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    "kbengine",
			Version: version.Version,
		},
		nil,
	)
	s.registerTools()
	return s
}

// MCPServer returns the underlying SDK server, used by tests to connect an
// in-memory transport.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// SearchInput defines the input schema for the kb_search tool.
type SearchInput struct {
	TenantID            string   `json:"tenant_id" jsonschema:"tenant whose knowledge base to search"`
	Query               string   `json:"query" jsonschema:"the user question or search query"`
	Limit               int      `json:"limit,omitempty" jsonschema:"maximum number of results, default 10"`
	Vertical            string   `json:"vertical,omitempty" jsonschema:"business vertical for synonym expansion: dental, restaurant"`
	PreferredCategories []string `json:"preferred_categories,omitempty" jsonschema:"categories to boost in ranking"`
	KeywordOnly         bool     `json:"keyword_only,omitempty" jsonschema:"skip the semantic path and use keyword search only"`
}

// SearchResultOutput is one result in the kb_search output.
type SearchResultOutput struct {
	ID                string  `json:"id"`
	SourceType        string  `json:"source_type"`
	Title             string  `json:"title"`
	Content           string  `json:"content"`
	Category          string  `json:"category,omitempty"`
	FinalScore        float64 `json:"final_score"`
	ContextSufficient bool    `json:"context_sufficient"`
}

// SearchOutput defines the output schema for the kb_search tool.
type SearchOutput struct {
	Results             []SearchResultOutput `json:"results" jsonschema:"ranked search results"`
	SufficiencyScore    float64              `json:"sufficiency_score" jsonschema:"confidence that the evidence answers the query"`
	IsContextSufficient bool                 `json:"is_context_sufficient" jsonschema:"whether the caller can answer without escalating"`
	Degraded            bool                 `json:"degraded" jsonschema:"true when the semantic path was unavailable"`
}

// RefreshInput defines the input schema for the refresh_index tool.
type RefreshInput struct {
	TenantID string `json:"tenant_id" jsonschema:"tenant whose index to rebuild"`
}

// RefreshOutput defines the output schema for the refresh_index tool.
type RefreshOutput struct {
	TenantID  string `json:"tenant_id"`
	Documents int    `json:"documents" jsonschema:"number of documents in the rebuilt index"`
}

// StatsInput defines the input schema for the index_stats tool.
type StatsInput struct {
	TenantID string `json:"tenant_id,omitempty" jsonschema:"tenant to report on; empty reports all cached tenants"`
}

// TenantStatsOutput describes one cached tenant index.
type TenantStatsOutput struct {
	TenantID     string `json:"tenant_id"`
	Documents    int    `json:"documents"`
	BuiltAt      string `json:"built_at"`
	LastAccess   string `json:"last_access"`
	TotalQueries int64  `json:"total_queries"`
}

// StatsOutput defines the output schema for the index_stats tool.
type StatsOutput struct {
	Tenants []TenantStatsOutput `json:"tenants" jsonschema:"stats per cached tenant index"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "kb_search",
		Description: "Search a tenant's knowledge base with hybrid retrieval (semantic + keyword). Returns ranked results and a sufficiency verdict indicating whether the evidence is strong enough to answer directly.",
	}, s.handleSearch)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "refresh_index",
		Description: "Rebuild a tenant's search index from the document corpus. Use after the knowledge base changes.",
	}, s.handleRefresh)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "index_stats",
		Description: "Report cached index and query stats, for one tenant or all.",
	}, s.handleStats)

	s.logger.Debug("mcp_tools_registered", slog.Int("count", 3))
}

func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (
	*mcp.CallToolResult,
	SearchOutput,
	error,
) {
	if input.TenantID == "" {
		return nil, SearchOutput{}, errors.New("tenant_id parameter is required")
	}
	if input.Query == "" {
		return nil, SearchOutput{}, errors.New("query parameter is required")
	}

	resp := s.engine.Search(ctx, input.TenantID, input.Query, search.Options{
		Limit:               input.Limit,
		Vertical:            input.Vertical,
		PreferredCategories: input.PreferredCategories,
		DisableHybrid:       input.KeywordOnly,
	})

	output := SearchOutput{
		Results:             make([]SearchResultOutput, 0, len(resp.Results)),
		SufficiencyScore:    resp.Metrics.SufficiencyScore,
		IsContextSufficient: search.IsContextSufficient(resp),
		Degraded:            resp.Metrics.Degraded,
	}
	for _, r := range resp.Results {
		output.Results = append(output.Results, SearchResultOutput{
			ID:                r.Document.ID,
			SourceType:        string(r.Document.SourceType),
			Title:             r.Document.Title,
			Content:           r.Document.Content,
			Category:          r.Document.Category,
			FinalScore:        r.FinalScore,
			ContextSufficient: r.ContextSufficient,
		})
	}
	return nil, output, nil
}

func (s *Server) handleRefresh(ctx context.Context, _ *mcp.CallToolRequest, input RefreshInput) (
	*mcp.CallToolResult,
	RefreshOutput,
	error,
) {
	if input.TenantID == "" {
		return nil, RefreshOutput{}, errors.New("tenant_id parameter is required")
	}

	if err := s.engine.RefreshIndex(ctx, input.TenantID); err != nil {
		return nil, RefreshOutput{}, fmt.Errorf("refresh index: %w", err)
	}

	out := RefreshOutput{TenantID: input.TenantID}
	if stats, ok := s.engine.IndexStats(input.TenantID); ok {
		out.Documents = stats.Documents
	}
	return nil, out, nil
}

func (s *Server) handleStats(_ context.Context, _ *mcp.CallToolRequest, input StatsInput) (
	*mcp.CallToolResult,
	StatsOutput,
	error,
) {
	all := s.engine.AllIndexStats()

	out := StatsOutput{Tenants: make([]TenantStatsOutput, 0, len(all))}
	for id, stats := range all {
		if input.TenantID != "" && id != input.TenantID {
			continue
		}
		out.Tenants = append(out.Tenants, TenantStatsOutput{
			TenantID:     id,
			Documents:    stats.Documents,
			BuiltAt:      stats.BuiltAt.Format("2006-01-02T15:04:05Z07:00"),
			LastAccess:   stats.LastAccess.Format("2006-01-02T15:04:05Z07:00"),
			TotalQueries: s.engine.TenantQueryStats(id).TotalQueries,
		})
	}
	return nil, out, nil
}

// Serve runs the server until ctx is cancelled. Only the stdio transport is
// supported.
func (s *Server) Serve(ctx context.Context, transport string) error {
	s.logger.Info("mcp_server_starting", slog.String("transport", transport))

	switch transport {
	case "stdio":
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("mcp_server_stopped", slog.String("error", err.Error()))
			return err
		}
		s.logger.Info("mcp_server_stopped")
		return nil
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio)", transport)
	}
}
