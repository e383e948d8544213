// Package launcher locates the visualization application and brings it up
// with the listener plugin loaded.
//
// # Discovery
//
// The Discoverer returns a command line prefix for the application:
//
//	d := launcher.NewDiscoverer(&launcher.DiscoveryConfig{Logger: log})
//	result, ok := d.Discover(ctx)
//
// Discovery searches in the following order, first match wins:
//  1. An explicit command prefix in DiscoveryConfig.Command (if provided)
//  2. The executable name on the system PATH
//  3. Interpreters known to have the application module installed, each
//     validated with a short-lived import probe
//  4. Known installation locations that exist and are executable
//
// Absence is an ordinary outcome and is reported with ok=false and the list
// of places searched, never as an error.
//
// # Launching
//
// Launcher.Spawn starts the application detached in its own process group
// with its standard output and error captured. Launcher.Launch additionally
// waits for the listener to accept connections:
//
//	l := launcher.New(opts)
//	proc, err := l.Launch(ctx, launcher.LaunchOptions{WaitForSocket: true, Timeout: 15 * time.Second})
package launcher
