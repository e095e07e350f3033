package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

func providerProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Desktop ID of the IDE, e.g. jetbrains-idea.desktop (see list_providers)",
	}
}

func termsProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"description": "Search terms; a project matches if it contains all of them in its name or path",
		"items": map[string]interface{}{
			"type": "string",
		},
	}
}

func timestampProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": "Event timestamp passed on to the launched application",
		"default":     0,
		"minimum":     0,
	}
}

// listProvidersTool returns the tool definition for list_providers
func listProvidersTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_providers",
		Description: "List the search providers of installed IDEs",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// initialResultSetTool returns the tool definition for initial_result_set
func initialResultSetTool() mcp.Tool {
	return mcp.Tool{
		Name:        "initial_result_set",
		Description: "Search the recent projects of an IDE, most recently opened first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"provider": providerProperty(),
				"terms":    termsProperty(),
			},
			Required: []string{"provider", "terms"},
		},
	}
}

// subsearchResultSetTool returns the tool definition for subsearch_result_set
func subsearchResultSetTool() mcp.Tool {
	return mcp.Tool{
		Name:        "subsearch_result_set",
		Description: "Narrow previous results of an IDE to those matching refined terms",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"provider": providerProperty(),
				"previous_results": map[string]interface{}{
					"type":        "array",
					"description": "Result IDs returned by an earlier search",
					"items": map[string]interface{}{
						"type": "string",
					},
				},
				"terms": termsProperty(),
			},
			Required: []string{"provider", "previous_results", "terms"},
		},
	}
}

// resultMetasTool returns the tool definition for result_metas
func resultMetasTool() mcp.Tool {
	return mcp.Tool{
		Name:        "result_metas",
		Description: "Get name, path and icon of result IDs; unknown IDs are omitted",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"provider": providerProperty(),
				"ids": map[string]interface{}{
					"type":        "array",
					"description": "Result IDs",
					"items": map[string]interface{}{
						"type": "string",
					},
				},
			},
			Required: []string{"provider", "ids"},
		},
	}
}

// activateResultTool returns the tool definition for activate_result
func activateResultTool() mcp.Tool {
	return mcp.Tool{
		Name:        "activate_result",
		Description: "Open a project in its IDE",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"provider": providerProperty(),
				"id": map[string]interface{}{
					"type":        "string",
					"description": "Result ID to open",
				},
				"terms":     termsProperty(),
				"timestamp": timestampProperty(),
			},
			Required: []string{"provider", "id"},
		},
	}
}

// launchSearchTool returns the tool definition for launch_search
func launchSearchTool() mcp.Tool {
	return mcp.Tool{
		Name:        "launch_search",
		Description: "Start the IDE itself",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"provider":  providerProperty(),
				"terms":     termsProperty(),
				"timestamp": timestampProperty(),
			},
			Required: []string{"provider"},
		},
	}
}
