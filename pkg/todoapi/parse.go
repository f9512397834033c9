package todoapi

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

const usage = `subcommand required

Usage: todoapi [flags] <command>

Commands:
  run       Start the todo API server
  config    Print the effective configuration as TOML

Examples:
  todoapi run                                 # Listen on :8000 under /api
  todoapi -port 9000 -prefix /v1 run
  todoapi -read-only run                      # Reject every write with 503
  todoapi -config todoapi.toml config         # Show file + env + flags merged

Every flag can also be set with a TODOAPI_* environment variable
(e.g. TODOAPI_PORT, TODOAPI_LOG_LEVEL) or in the TOML file.`

// Parse turns command-line arguments into a Command and its Config.
//
// Settings are applied in order of increasing precedence: defaults, the
// TOML file, environment variables, flags.
func Parse(args []string) (Command, *Config, error) {
	config := DefaultConfig()

	path, explicit := configFlag(args)
	if !explicit {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			path = DefaultConfigFile
		}
	}
	if path != "" {
		if err := loadConfigFile(config, path); err != nil {
			return nil, nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := loadFromEnv(config); err != nil {
		return nil, nil, fmt.Errorf("loading environment: %w", err)
	}

	// Flags default to the values loaded so far, so only flags actually
	// given on the command line override them.
	flagSet := flag.NewFlagSet("todoapi", flag.ContinueOnError)
	flagSet.String("config", path, "Path to a TOML config file")
	flagSet.StringVar(&config.ServerPort, "port", config.ServerPort, "Server port")
	flagSet.StringVar(&config.PathPrefix, "prefix", config.PathPrefix, "Path prefix for every route")
	flagSet.IntVar(&config.DefaultLimit, "default-limit", config.DefaultLimit, "Page size when a list request has no limit")
	flagSet.BoolVar(&config.ReadOnly, "read-only", config.ReadOnly, "Enable read-only mode")
	flagSet.StringVar(&config.LogLevel, "log-level", config.LogLevel, "Log level: trace, debug, info, warn, error")
	flagSet.StringVar(&config.LogFile, "log-file", config.LogFile, "Append logs to this file instead of stdout")
	flagSet.BoolVar(&config.LogPretty, "log-pretty", config.LogPretty, "Human-readable console logs")
	flagSet.IntVar(&config.FeedBuffer, "feed-buffer", config.FeedBuffer, "Notifications queued per live subscriber")
	flagSet.DurationVar(&config.ShutdownTimeout.Duration, "shutdown-timeout", config.ShutdownTimeout.Duration, "Graceful shutdown timeout")

	if err := flagSet.Parse(args); err != nil {
		return nil, nil, err
	}

	remainingArgs := flagSet.Args()
	if len(remainingArgs) == 0 {
		return nil, nil, fmt.Errorf(usage)
	}

	var cmd Command
	switch remainingArgs[0] {
	case "run":
		cmd = &RunCommand{}
	case "config":
		cmd = &ConfigCommand{}
	default:
		return nil, nil, fmt.Errorf("unknown command: %s\n\nValid commands: run, config", remainingArgs[0])
	}

	if err := config.Validate(); err != nil {
		return nil, nil, err
	}

	return cmd, config, nil
}

// boolFlags take no separate value argument.
var boolFlags = map[string]bool{
	"read-only":  true,
	"log-pretty": true,
	"h":          true,
	"help":       true,
}

// configFlag finds the -config flag ahead of full parsing, since the file
// it names has to be loaded before the other flags are applied. It scans
// the way flag.Parse does and stops at the first non-flag argument.
func configFlag(args []string) (path string, ok bool) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" || len(arg) < 2 || arg[0] != '-' {
			return "", false
		}

		name := strings.TrimPrefix(strings.TrimPrefix(arg, "-"), "-")
		name, value, hasValue := strings.Cut(name, "=")
		switch {
		case name == "config" && hasValue:
			return value, true
		case name == "config":
			if i+1 < len(args) {
				return args[i+1], true
			}
			return "", false
		case !hasValue && !boolFlags[name]:
			i++ // skip the flag's value
		}
	}
	return "", false
}
