package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagiedev/claudemol-go/internal/config"
	"github.com/wagiedev/claudemol-go/internal/session"
)

// Tool names.
const (
	ToolExecute = "execute"
	ToolStatus  = "status"
	ToolRecover = "recover"
	ToolStop    = "stop"
)

// Supervisor is the session surface the tools drive.
type Supervisor interface {
	Endpoint() config.Endpoint
	State() session.State
	Owned() bool
	IsRunning() bool
	IsConnected() bool
	PID() int
	IsHealthy(ctx context.Context) bool
	Execute(ctx context.Context, code string, autoRecover bool) (string, error)
	Recover(ctx context.Context, timeout time.Duration) error
	Stop(gracefulTimeout time.Duration)
}

// Compile-time verification that *session.Session implements Supervisor.
var _ Supervisor = (*session.Session)(nil)

// Status is the status tool payload.
type Status struct {
	Endpoint  string `json:"endpoint"`
	State     string `json:"state"`
	Connected bool   `json:"connected"`
	Healthy   bool   `json:"healthy"`
	Owned     bool   `json:"owned"`
	Running   bool   `json:"running"`
	PID       int    `json:"pid,omitempty"`
}

// RegisterSessionTools adds the execute, status, recover and stop tools
// driving sup.
func RegisterSessionTools(s *ToolServer, sup Supervisor) {
	s.AddTool(&mcp.Tool{
		Name: ToolExecute,
		Description: "Execute Python code in the running application and return its printed output. " +
			"With auto_recover (default true) a crashed or unreachable application is restarted once.",
		InputSchema: Schema(map[string]string{"code": "string", "auto_recover": "bool"}, "code"),
	}, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := ParseArguments(req)
		if err != nil {
			return ErrorResult(err.Error()), nil
		}

		code := args.String("code")
		if code == "" {
			return ErrorResult("code is required"), nil
		}

		out, err := sup.Execute(ctx, code, args.Bool("auto_recover", true))
		if err != nil {
			return ErrorResult(err.Error()), nil
		}

		return TextResult(out), nil
	})

	s.AddTool(&mcp.Tool{
		Name:        ToolStatus,
		Description: "Report the session state, connection health and process ownership.",
		InputSchema: Schema(nil),
	}, func(ctx context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		status := Status{
			Endpoint:  sup.Endpoint().String(),
			Connected: sup.IsConnected(),
			Owned:     sup.Owned(),
			Running:   sup.IsRunning(),
			PID:       sup.PID(),
		}

		if status.Connected {
			status.Healthy = sup.IsHealthy(ctx)
		}

		status.State = string(sup.State())

		data, err := json.Marshal(status)
		if err != nil {
			return ErrorResult("failed to marshal status: " + err.Error()), nil
		}

		return TextResult(string(data)), nil
	})

	s.AddTool(&mcp.Tool{
		Name:        ToolRecover,
		Description: "Kill the application if it is stuck and start a fresh instance.",
		InputSchema: Schema(map[string]string{"timeout_seconds": "number"}),
	}, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := ParseArguments(req)
		if err != nil {
			return ErrorResult(err.Error()), nil
		}

		timeout := time.Duration(args.Number("timeout_seconds", 0) * float64(time.Second))

		if err := sup.Recover(ctx, timeout); err != nil {
			return ErrorResult(err.Error()), nil
		}

		return TextResult("recovered"), nil
	})

	s.AddTool(&mcp.Tool{
		Name:        ToolStop,
		Description: "Disconnect and stop the application if this session launched it.",
		InputSchema: Schema(nil),
	}, func(context.Context, *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sup.Stop(0)

		return TextResult("stopped"), nil
	})
}
