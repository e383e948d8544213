// Package mcp exposes a session to AI agents as Model Context Protocol tools.
//
// The ToolServer keeps its own tool registry so tools can be called directly
// (CallTool) or served over any MCP transport (Run). Tool calls are
// serialized: the protocol allows one outstanding command per session.
package mcp
