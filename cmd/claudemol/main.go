// Command claudemol inspects and drives the visualization application
// through its listener plugin.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/urfave/cli/v2"

	"github.com/wagiedev/claudemol-go"
	"github.com/wagiedev/claudemol-go/internal/config"
	"github.com/wagiedev/claudemol-go/internal/launcher"
	"github.com/wagiedev/claudemol-go/internal/listener"
	internalmcp "github.com/wagiedev/claudemol-go/internal/mcp"
)

// version is set at build time.
var version = "dev"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "claudemol",
		Usage:   "drive a molecular visualization application over its socket plugin",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "host",
				Usage:   "Listener host.",
				Value:   config.DefaultHost,
				EnvVars: []string{config.EnvHost},
			},
			&cli.IntFlag{
				Name:    "port",
				Usage:   "Listener port.",
				Value:   config.DefaultPort,
				EnvVars: []string{config.EnvPort},
			},
			&cli.StringFlag{
				Name:    "plugin",
				Usage:   "Path to the listener plugin script.",
				EnvVars: []string{config.EnvPlugin},
			},
			&cli.StringSliceFlag{
				Name:  "command",
				Usage: "Explicit application command line prefix; skips discovery. Repeat for each token.",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "One of [debug,info,warn,error,off].",
				Value: "off",
			},
		},
		Commands: []*cli.Command{
			statusCommand(),
			testCommand(),
			infoCommand(),
			execCommand(),
			mcpCommand(),
			serveCommand(),
		},
	}
}

func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level

	switch strings.ToLower(level) {
	case "off", "":
		return claudemol.NopLogger(), nil
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return nil, fmt.Errorf("unsupported log-level %q", level)
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}

// sessionOptions builds the library options from the global flags and
// returns the logger they carry.
func sessionOptions(c *cli.Context) ([]claudemol.Option, *slog.Logger, error) {
	logger, err := newLogger(c.String("log-level"))
	if err != nil {
		return nil, nil, err
	}

	opts := []claudemol.Option{
		claudemol.WithLogger(logger),
		claudemol.WithEndpoint(c.String("host"), c.Int("port")),
	}

	if plugin := c.String("plugin"); plugin != "" {
		opts = append(opts, claudemol.WithPluginPath(plugin))
	}

	if prefix := c.StringSlice("command"); len(prefix) > 0 {
		opts = append(opts, claudemol.WithCommand(prefix...))
	}

	return opts, logger, nil
}

func signalContext(c *cli.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
}

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Report where the application was found and whether its listener is reachable.",
		Action: func(c *cli.Context) error {
			opts, _, err := sessionOptions(c)
			if err != nil {
				return err
			}

			res, ok := claudemol.Discover(c.Context, opts...)
			if ok {
				fmt.Fprintf(c.App.Writer, "application: %s (%s)\n", strings.Join(res.Prefix, " "), res.Source)
			} else {
				fmt.Fprintf(c.App.Writer, "application: not found (searched %s)\n", strings.Join(res.Searched, ", "))
			}

			conn := claudemol.NewConnection(opts...)
			defer conn.Disconnect()

			if err := conn.Connect(c.Context, config.DefaultAttachTimeout); err != nil {
				fmt.Fprintf(c.App.Writer, "listener: not reachable at %s\n", conn.Endpoint())

				return nil
			}

			fmt.Fprintf(c.App.Writer, "listener: reachable at %s\n", conn.Endpoint())

			return nil
		},
	}
}

func testCommand() *cli.Command {
	return &cli.Command{
		Name:  "test",
		Usage: "Start or attach to the application and run the canary command.",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "How long to wait for a launched application.",
				Value: config.DefaultStartTimeout,
			},
			&cli.BoolFlag{
				Name:  "keep",
				Usage: "Leave a launched application running.",
			},
		},
		Action: func(c *cli.Context) error {
			opts, _, err := sessionOptions(c)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext(c)
			defer cancel()

			s := claudemol.NewSession(opts...)

			start := time.Now()
			if err := s.Start(ctx, c.Duration("timeout")); err != nil {
				return fmt.Errorf("start: %w", err)
			}

			if !c.Bool("keep") {
				defer s.Stop(0)
			}

			out, err := s.Execute(ctx, config.DefaultCanaryCode, false)
			if err != nil {
				return fmt.Errorf("canary: %w", err)
			}

			if !strings.Contains(out, config.DefaultCanaryMarker) {
				return fmt.Errorf("canary: unexpected output %q", out)
			}

			fmt.Fprintf(c.App.Writer, "ok: %s answered in %s (owned=%t, pid=%d)\n",
				s.Endpoint(), time.Since(start).Round(time.Millisecond), s.Owned(), s.PID())

			return nil
		},
	}
}

func infoCommand() *cli.Command {
	return &cli.Command{
		Name:  "info",
		Usage: "Print discovery, plugin and configuration paths.",
		Action: func(c *cli.Context) error {
			opts, _, err := sessionOptions(c)
			if err != nil {
				return err
			}

			resolved := &config.Options{}
			for _, o := range opts {
				o(resolved)
			}

			resolved = resolved.Resolve()

			fmt.Fprintf(c.App.Writer, "endpoint:       %s\n", resolved.Endpoint)
			fmt.Fprintf(c.App.Writer, "config file:    %s\n", resolved.ConfigPath)

			if python := config.ConfiguredPython(resolved.ConfigPath); python != "" {
				fmt.Fprintf(c.App.Writer, "configured python: %s\n", python)
			}

			fmt.Fprintf(c.App.Writer, "startup file:   %s (loads plugin: %t)\n",
				resolved.StartupRCPath, launcher.StartupRCLoadsPlugin(resolved.StartupRCPath))

			if path, err := launcher.LocatePlugin(resolved.PluginPath); err == nil {
				fmt.Fprintf(c.App.Writer, "plugin:         %s\n", path)
			} else {
				fmt.Fprintf(c.App.Writer, "plugin:         %v\n", err)
			}

			res, ok := claudemol.Discover(c.Context, opts...)
			if ok {
				fmt.Fprintf(c.App.Writer, "application:    %s (%s)\n", strings.Join(res.Prefix, " "), res.Source)
			} else {
				fmt.Fprintf(c.App.Writer, "application:    not found\n")
			}

			for _, p := range res.Searched {
				fmt.Fprintf(c.App.Writer, "  searched: %s\n", p)
			}

			return nil
		},
	}
}

func execCommand() *cli.Command {
	return &cli.Command{
		Name:      "exec",
		Usage:     "Run Python code in the application and print its output.",
		ArgsUsage: "CODE...",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-recover",
				Usage: "Fail instead of restarting an unreachable application.",
			},
			&cli.BoolFlag{
				Name:  "stop",
				Usage: "Stop a launched application afterwards.",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return cli.Exit("exec: no code given", 2)
			}

			opts, _, err := sessionOptions(c)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext(c)
			defer cancel()

			s := claudemol.NewSession(opts...)
			if err := s.Start(ctx, 0); err != nil {
				return fmt.Errorf("start: %w", err)
			}

			if c.Bool("stop") {
				defer s.Stop(0)
			}

			out, err := s.Execute(ctx, strings.Join(c.Args().Slice(), " "), !c.Bool("no-recover"))
			if err != nil {
				return err
			}

			fmt.Fprint(c.App.Writer, out)

			if !strings.HasSuffix(out, "\n") {
				fmt.Fprintln(c.App.Writer)
			}

			return nil
		},
	}
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve the session as MCP tools over stdio.",
		Action: func(c *cli.Context) error {
			opts, logger, err := sessionOptions(c)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext(c)
			defer cancel()

			s := claudemol.NewSession(opts...)
			defer s.Stop(0)

			tools := internalmcp.NewToolServer(logger, "claudemol", version)
			internalmcp.RegisterSessionTools(tools, s)

			return tools.Run(ctx, &mcp.StdioTransport{})
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run a stand-in listener that understands print, sleep and raise.",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "shared",
				Usage: "Keep earlier clients connected instead of superseding them.",
			},
		},
		Action: func(c *cli.Context) error {
			logger, err := newLogger(c.String("log-level"))
			if err != nil {
				return err
			}

			policy := listener.PolicySupersede
			if c.Bool("shared") {
				policy = listener.PolicyShared
			}

			ctx, cancel := signalContext(c)
			defer cancel()

			addr := net.JoinHostPort(c.String("host"), strconv.Itoa(c.Int("port")))
			srv := listener.New(addr, listener.EchoExecutor{},
				listener.WithLogger(logger),
				listener.WithPolicy(policy),
			)

			fmt.Fprintf(c.App.ErrWriter, "listening on %s\n", addr)

			return srv.Serve(ctx)
		},
	}
}
