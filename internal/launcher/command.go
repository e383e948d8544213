package launcher

// PluginFlag instructs the application to run a command at startup.
const PluginFlag = "-d"

// BuildArgs constructs the full command line: prefix, then the optional
// target file, then the startup flag running the plugin. An empty
// pluginPath omits the flag.
func BuildArgs(prefix []string, targetFile, pluginPath string) []string {
	args := make([]string, 0, len(prefix)+3)
	args = append(args, prefix...)

	if targetFile != "" {
		args = append(args, targetFile)
	}

	if pluginPath != "" {
		args = append(args, PluginFlag, "run "+pluginPath)
	}

	return args
}

// BuildEnvironment returns the parent environment with extra appended.
// Later entries win when the application reads duplicate keys.
func BuildEnvironment(base []string, extra map[string]string) []string {
	env := make([]string, 0, len(base)+len(extra))
	env = append(env, base...)

	for k, v := range extra {
		env = append(env, k+"="+v)
	}

	return env
}
