package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/server"

	"github.com/lunaryorn/gnome-search-providers-jetbrains/pkg/types"
)

// ServerName is the MCP server name
const ServerName = "gnome-search-providers-jetbrains"

// Searcher answers the queries of one search provider
type Searcher interface {
	GetInitialResultSet(ctx context.Context, terms []string) ([]string, error)
	GetSubsetResultSet(ctx context.Context, previous, terms []string) ([]string, error)
	GetResultMetas(ids []string) []types.ResultMeta
	ActivateResult(ctx context.Context, id string, terms []string, timestamp uint32) error
	LaunchSearch(ctx context.Context, terms []string, timestamp uint32) error
}

// Provider is a search provider offered through the MCP tools
type Provider struct {
	DesktopID  string
	Label      string
	ObjectPath string
	Searcher   Searcher
}

// Server wraps the MCP server with the registered providers
type Server struct {
	mcp       *server.MCPServer
	providers map[string]Provider
	order     []string
}

// NewServer creates a new MCP server instance for providers
func NewServer(version string, providers []Provider) (*Server, error) {
	s := &Server{
		mcp:       server.NewMCPServer(ServerName, version),
		providers: make(map[string]Provider, len(providers)),
	}
	for _, p := range providers {
		if p.Searcher == nil {
			return nil, fmt.Errorf("provider %s has no searcher", p.DesktopID)
		}
		if _, exists := s.providers[p.DesktopID]; exists {
			return nil, fmt.Errorf("duplicate provider %s", p.DesktopID)
		}
		s.providers[p.DesktopID] = p
		s.order = append(s.order, p.DesktopID)
	}

	if err := s.registerTools(); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}
	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() error {
	s.mcp.AddTool(listProvidersTool(), s.handleListProviders)
	s.mcp.AddTool(initialResultSetTool(), s.handleInitialResultSet)
	s.mcp.AddTool(subsearchResultSetTool(), s.handleSubsearchResultSet)
	s.mcp.AddTool(resultMetasTool(), s.handleResultMetas)
	s.mcp.AddTool(activateResultTool(), s.handleActivateResult)
	s.mcp.AddTool(launchSearchTool(), s.handleLaunchSearch)
	return nil
}
