package mcp

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Schema creates an object schema from a property type map. Only the named
// properties are required.
//
// Input format: {"code": "string", "auto_recover": "bool"}
func Schema(props map[string]string, required ...string) *jsonschema.Schema {
	properties := make(map[string]*jsonschema.Schema, len(props))
	for name, goType := range props {
		properties[name] = goTypeToJSONSchema(goType)
	}

	req := slices.Clone(required)
	slices.Sort(req)

	return &jsonschema.Schema{
		Type:       "object",
		Properties: properties,
		Required:   req,
	}
}

// schemaTypes maps Go type names to JSON Schema types. Unknown names map
// to "string".
var schemaTypes = map[string]string{
	"string":  "string",
	"int":     "integer",
	"int64":   "integer",
	"float64": "number",
	"number":  "number",
	"bool":    "boolean",
	"boolean": "boolean",
}

func goTypeToJSONSchema(goType string) *jsonschema.Schema {
	typ, ok := schemaTypes[goType]
	if !ok {
		typ = "string"
	}

	return &jsonschema.Schema{Type: typ}
}

// TextResult wraps text as a successful tool result.
func TextResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}
}

// ErrorResult wraps message as a tool-level failure the agent can read.
func ErrorResult(message string) *mcp.CallToolResult {
	res := TextResult(message)
	res.IsError = true

	return res
}

// ResultText joins the text content of a result.
func ResultText(result *mcp.CallToolResult) string {
	if result == nil {
		return ""
	}

	var b strings.Builder

	for _, c := range result.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			b.WriteString(tc.Text)
		}
	}

	return b.String()
}

// Arguments is a decoded tool argument object.
type Arguments map[string]any

// String returns the string argument name, or "" when absent or mistyped.
func (a Arguments) String(name string) string {
	s, _ := a[name].(string)

	return s
}

// Bool returns the boolean argument name, or def when absent or mistyped.
func (a Arguments) Bool(name string, def bool) bool {
	if b, ok := a[name].(bool); ok {
		return b
	}

	return def
}

// Number returns the numeric argument name, or def when absent or mistyped.
func (a Arguments) Number(name string, def float64) float64 {
	if n, ok := a[name].(float64); ok {
		return n
	}

	return def
}

// ParseArguments unmarshals CallToolRequest arguments.
func ParseArguments(req *mcp.CallToolRequest) (Arguments, error) {
	if req == nil || req.Params == nil || len(req.Params.Arguments) == 0 {
		return Arguments{}, nil
	}

	var args Arguments
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return nil, fmt.Errorf("failed to unmarshal arguments: %w", err)
	}

	if args == nil {
		args = Arguments{}
	}

	return args, nil
}
