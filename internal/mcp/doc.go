// Package mcp implements a Model Context Protocol (MCP) server exposing the
// search providers to headless clients and scripts.
//
// The server offers the search provider operations as tools:
//   - list_providers: List the registered providers
//   - initial_result_set: Search the recent projects of one IDE
//   - subsearch_result_set: Narrow earlier results with refined terms
//   - result_metas: Get names, paths and icons of result IDs
//   - activate_result: Open a project in its IDE
//   - launch_search: Start the IDE itself
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// The server is started instead of the D-Bus endpoint with:
//
//	gnome-search-providers-jetbrains --transport mcp
//
// # Tool: initial_result_set
//
//	Request:
//	{
//	  "name": "initial_result_set",
//	  "arguments": {
//	    "provider": "jetbrains-idea.desktop",
//	    "terms": ["gnome", "search"]
//	  }
//	}
//
//	Response:
//	{
//	  "provider": "jetbrains-idea.desktop",
//	  "results": ["jetbrains-idea.desktop:/home/u/code/gnome-search-providers"],
//	  "stale": false
//	}
//
// A query superseded by a newer one on the same provider answers with an
// empty result list and "stale": true.
//
// # Error Handling
//
// Errors are returned as MCPError with JSON-RPC style codes:
//   - -32602: Invalid parameters
//   - -32603: Internal error
//   - -32001: Provider not found
//   - -32002: Activation failed
package mcp
