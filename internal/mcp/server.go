package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagiedev/claudemol-go/internal/config"
)

// ToolServer holds the tool registry and serializes calls.
type ToolServer struct {
	log     *slog.Logger
	name    string
	version string

	// callMu serializes tool handlers.
	callMu sync.Mutex

	mu    sync.RWMutex
	tools map[string]*tool
}

type tool struct {
	tool    *mcp.Tool
	handler mcp.ToolHandler
}

// NewToolServer creates an empty ToolServer.
func NewToolServer(log *slog.Logger, name, version string) *ToolServer {
	if log == nil {
		log = config.NopLogger()
	}

	return &ToolServer{
		log:     log.With("component", "mcp"),
		name:    name,
		version: version,
		tools:   make(map[string]*tool, 4),
	}
}

// Name returns the server name.
func (s *ToolServer) Name() string {
	return s.name
}

// Version returns the server version.
func (s *ToolServer) Version() string {
	return s.version
}

// AddTool registers a tool, replacing any tool with the same name.
func (s *ToolServer) AddTool(t *mcp.Tool, handler mcp.ToolHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tools[t.Name] = &tool{tool: t, handler: s.serialize(t.Name, handler)}
}

// Tools returns the registered tools sorted by name.
func (s *ToolServer) Tools() []*mcp.Tool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*mcp.Tool, 0, len(s.tools))
	for _, t := range s.tools {
		out = append(out, t.tool)
	}

	slices.SortFunc(out, func(a, b *mcp.Tool) int {
		return strings.Compare(a.Name, b.Name)
	})

	return out
}

// CallTool executes a tool by name. Unknown tools, bad input and handler
// errors are reported in the result rather than as an error.
func (s *ToolServer) CallTool(ctx context.Context, name string, input map[string]any) *mcp.CallToolResult {
	s.mu.RLock()
	t, exists := s.tools[name]
	s.mu.RUnlock()

	if !exists {
		return ErrorResult("Tool not found: " + name)
	}

	raw, err := json.Marshal(input)
	if err != nil {
		return ErrorResult("Failed to marshal input: " + err.Error())
	}

	result, err := t.handler(ctx, &mcp.CallToolRequest{
		Params: &mcp.CallToolParamsRaw{Name: name, Arguments: raw},
	})
	if err != nil {
		return ErrorResult("Tool execution failed: " + err.Error())
	}

	return result
}

// NewServer builds an MCP server exposing every registered tool.
func (s *ToolServer) NewServer() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: s.name, Version: s.version}, nil)

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.tools {
		server.AddTool(t.tool, t.handler)
	}

	return server
}

// Run serves the tools over transport until ctx is done or the client
// disconnects.
func (s *ToolServer) Run(ctx context.Context, transport mcp.Transport) error {
	s.log.Info("Serving MCP tools", "tools", len(s.Tools()))

	if err := s.NewServer().Run(ctx, transport); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}

	return nil
}

func (s *ToolServer) serialize(name string, handler mcp.ToolHandler) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		s.callMu.Lock()
		defer s.callMu.Unlock()

		s.log.Debug("Tool call", "tool", name)

		return handler(ctx, req)
	}
}
