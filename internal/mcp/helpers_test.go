package mcp

import (
	"testing"

	mcpgo "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

func TestSchema(t *testing.T) {
	schema := Schema(map[string]string{
		"code":         "string",
		"auto_recover": "bool",
		"timeout":      "number",
		"count":        "int",
	}, "code")

	require.Equal(t, "object", schema.Type)
	require.Equal(t, []string{"code"}, schema.Required)
	require.Equal(t, "string", schema.Properties["code"].Type)
	require.Equal(t, "boolean", schema.Properties["auto_recover"].Type)
	require.Equal(t, "number", schema.Properties["timeout"].Type)
	require.Equal(t, "integer", schema.Properties["count"].Type)
}

func TestSchema_Empty(t *testing.T) {
	schema := Schema(nil)

	require.Equal(t, "object", schema.Type)
	require.Empty(t, schema.Properties)
	require.Empty(t, schema.Required)
}

func TestParseArguments(t *testing.T) {
	t.Run("nil request and empty args return empty arguments", func(t *testing.T) {
		args, err := ParseArguments(nil)
		require.NoError(t, err)
		require.Empty(t, args)

		args, err = ParseArguments(&mcpgo.CallToolRequest{Params: &mcpgo.CallToolParamsRaw{}})
		require.NoError(t, err)
		require.Empty(t, args)
	})

	t.Run("typed accessors", func(t *testing.T) {
		args, err := ParseArguments(&mcpgo.CallToolRequest{
			Params: &mcpgo.CallToolParamsRaw{
				Arguments: []byte(`{"code":"print(1)","auto_recover":false,"timeout_seconds":3}`),
			},
		})
		require.NoError(t, err)
		require.Equal(t, "print(1)", args.String("code"))
		require.False(t, args.Bool("auto_recover", true))
		require.True(t, args.Bool("missing", true))
		require.InDelta(t, 3.0, args.Number("timeout_seconds", 0), 1e-9)
		require.Empty(t, args.String("auto_recover"))
	})

	t.Run("invalid json returns wrapped error", func(t *testing.T) {
		args, err := ParseArguments(&mcpgo.CallToolRequest{
			Params: &mcpgo.CallToolParamsRaw{Arguments: []byte(`{"code":`)},
		})
		require.Error(t, err)
		require.Nil(t, args)
		require.Contains(t, err.Error(), "failed to unmarshal arguments")
	})
}

func TestResultHelpers(t *testing.T) {
	text := TextResult("ok")
	require.False(t, text.IsError)
	require.Equal(t, "ok", ResultText(text))

	failed := ErrorResult("failed")
	require.True(t, failed.IsError)
	require.Equal(t, "failed", ResultText(failed))

	require.Empty(t, ResultText(nil))
}
