package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/lunaryorn/gnome-search-providers-jetbrains/internal/logging"
	"github.com/lunaryorn/gnome-search-providers-jetbrains/pkg/types"
)

var mcpLog = logging.ForComponent(logging.CompMCP)

// MCP error codes
const (
	ErrorCodeInvalidParams    = -32602 // Invalid method parameters
	ErrorCodeInternalError    = -32603 // Internal JSON-RPC error
	ErrorCodeProviderNotFound = -32001 // No provider with the given desktop ID
	ErrorCodeActivationFailed = -32002 // The IDE could not be started
)

// handleListProviders handles the list_providers tool invocation
func (s *Server) handleListProviders(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	providers := make([]map[string]interface{}, 0, len(s.order))
	for _, id := range s.order {
		p := s.providers[id]
		providers = append(providers, map[string]interface{}{
			"desktop_id":  p.DesktopID,
			"label":       p.Label,
			"object_path": p.ObjectPath,
		})
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"providers": providers,
	})), nil
}

// handleInitialResultSet handles the initial_result_set tool invocation
func (s *Server) handleInitialResultSet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, p, err := s.providerArgs(request)
	if err != nil {
		return nil, err
	}
	terms, err := getStringSlice(args, "terms", true)
	if err != nil {
		return nil, err
	}

	ids, err := p.Searcher.GetInitialResultSet(ctx, terms)
	return resultSet(p, ids, err)
}

// handleSubsearchResultSet handles the subsearch_result_set tool invocation
func (s *Server) handleSubsearchResultSet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, p, err := s.providerArgs(request)
	if err != nil {
		return nil, err
	}
	previous, err := getStringSlice(args, "previous_results", true)
	if err != nil {
		return nil, err
	}
	terms, err := getStringSlice(args, "terms", true)
	if err != nil {
		return nil, err
	}

	ids, err := p.Searcher.GetSubsetResultSet(ctx, previous, terms)
	return resultSet(p, ids, err)
}

// resultSet formats result IDs; a superseded query yields no results
func resultSet(p Provider, ids []string, err error) (*mcp.CallToolResult, error) {
	stale := errors.Is(err, types.ErrStaleResult)
	if err != nil && !stale {
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
	if ids == nil {
		ids = []string{}
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"provider": p.DesktopID,
		"results":  ids,
		"stale":    stale,
	})), nil
}

// handleResultMetas handles the result_metas tool invocation
func (s *Server) handleResultMetas(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, p, err := s.providerArgs(request)
	if err != nil {
		return nil, err
	}
	ids, err := getStringSlice(args, "ids", true)
	if err != nil {
		return nil, err
	}

	metas := p.Searcher.GetResultMetas(ids)
	out := make([]map[string]interface{}, 0, len(metas))
	for _, m := range metas {
		out = append(out, map[string]interface{}{
			"id":          m.ID,
			"name":        m.Name,
			"description": m.Description,
			"gicon":       m.Icon,
		})
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"provider": p.DesktopID,
		"metas":    out,
	})), nil
}

// handleActivateResult handles the activate_result tool invocation
func (s *Server) handleActivateResult(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, p, err := s.providerArgs(request)
	if err != nil {
		return nil, err
	}
	id, ok := args["id"].(string)
	if !ok || id == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "id parameter is required", map[string]interface{}{
			"param":  "id",
			"reason": "missing or empty",
		})
	}
	terms, err := getStringSlice(args, "terms", false)
	if err != nil {
		return nil, err
	}
	timestamp, err := getTimestamp(args)
	if err != nil {
		return nil, err
	}

	if err := p.Searcher.ActivateResult(ctx, id, terms, timestamp); err != nil {
		return nil, newMCPError(ErrorCodeActivationFailed, "activation failed", map[string]interface{}{
			"id":    id,
			"error": err.Error(),
		})
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"provider":  p.DesktopID,
		"activated": id,
	})), nil
}

// handleLaunchSearch handles the launch_search tool invocation
func (s *Server) handleLaunchSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, p, err := s.providerArgs(request)
	if err != nil {
		return nil, err
	}
	terms, err := getStringSlice(args, "terms", false)
	if err != nil {
		return nil, err
	}
	timestamp, err := getTimestamp(args)
	if err != nil {
		return nil, err
	}

	if err := p.Searcher.LaunchSearch(ctx, terms, timestamp); err != nil {
		return nil, newMCPError(ErrorCodeActivationFailed, "launch failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"provider": p.DesktopID,
		"launched": true,
	})), nil
}

// Helper functions

// providerArgs extracts the arguments and resolves the provider parameter
func (s *Server) providerArgs(request mcp.CallToolRequest) (map[string]interface{}, Provider, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, Provider{}, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	id, ok := args["provider"].(string)
	if !ok || id == "" {
		return nil, Provider{}, newMCPError(ErrorCodeInvalidParams, "provider parameter is required", map[string]interface{}{
			"param":  "provider",
			"reason": "missing or empty",
		})
	}

	p, ok := s.providers[id]
	if !ok {
		mcpLog.Debug("provider_not_found", slog.String("provider", id))
		return nil, Provider{}, newMCPError(ErrorCodeProviderNotFound, "provider not found", map[string]interface{}{
			"provider":  id,
			"available": s.order,
		})
	}
	return args, p, nil
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getStringSlice extracts an array of strings
func getStringSlice(args map[string]interface{}, key string, required bool) ([]string, error) {
	raw, present := args[key]
	if !present || raw == nil {
		if required {
			return nil, newMCPError(ErrorCodeInvalidParams, key+" parameter is required", map[string]interface{}{
				"param":  key,
				"reason": "missing",
			})
		}
		return nil, nil
	}

	switch v := raw.(type) {
	case []string:
		return v, nil
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, newMCPError(ErrorCodeInvalidParams, key+" must be an array of strings", map[string]interface{}{
					"param": key,
					"value": item,
				})
			}
			out = append(out, str)
		}
		return out, nil
	default:
		return nil, newMCPError(ErrorCodeInvalidParams, key+" must be an array of strings", map[string]interface{}{
			"param": key,
		})
	}
}

// getTimestamp extracts the optional timestamp parameter
func getTimestamp(args map[string]interface{}) (uint32, error) {
	var value float64
	switch v := args["timestamp"].(type) {
	case nil:
		return 0, nil
	case float64:
		value = v
	case int:
		value = float64(v)
	default:
		return 0, newMCPError(ErrorCodeInvalidParams, "timestamp must be an integer", nil)
	}
	if value < 0 || value > math.MaxUint32 || value != math.Trunc(value) {
		return 0, newMCPError(ErrorCodeInvalidParams, "timestamp out of range", map[string]interface{}{
			"param": "timestamp",
			"value": value,
		})
	}
	return uint32(value), nil
}
