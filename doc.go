// Package claudemol drives a molecular visualization application from Go.
//
// The application runs a small listener plugin on a loopback TCP port. A
// Session attaches to a running instance or launches one, sends Python
// command text as one JSON document per request and returns the printed
// output.
//
// # Basic Usage
//
// Use WithSession for automatic lifecycle management:
//
//	err := claudemol.WithSession(ctx, func(s claudemol.Session) error {
//	    out, err := s.Execute(ctx, "cmd.fetch('1ubq'); print(cmd.count_atoms())", true)
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Print(out)
//	    return nil
//	},
//	    claudemol.WithLogger(slog.Default()),
//	)
//
// Or manage a Session directly:
//
//	s := claudemol.NewSession(claudemol.WithEndpoint("localhost", 9880))
//	if err := s.Start(ctx, 0); err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Stop(0)
//
// # Ownership
//
// A Session that attaches to an instance it did not launch never terminates
// it. Stop and Recover only kill processes the Session owns; Recover also
// kills whatever else is listening on the endpoint's port.
//
// # Error Handling
//
// Failures are typed:
//
//	if cmdErr, ok := errors.AsType[*claudemol.CommandError](err); ok {
//	    // the command ran and raised; not retried
//	    fmt.Println(cmdErr.Message)
//	}
//
// ConnectionError is retried by the connection up to the retry budget.
// CommandError and TimeoutError are never retried there. NotInstalledError,
// PluginMissingError and StartupCrashError are configuration or startup
// failures that retrying cannot fix.
//
// # Process-wide Registry
//
// The Registry replaces an implicit global session with an explicit one:
//
//	s, err := claudemol.DefaultRegistry().EnsureRunning(ctx)
//	...
//	defer claudemol.DefaultRegistry().ShutdownAndClear(ctx)
package claudemol
