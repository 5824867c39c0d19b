// Assistant is a voice-driven personal assistant.
//
// It listens for one utterance at a time, classifies it into an intent
// (time, date, weather, reminder, email, device control, open an app or
// website, encyclopedia or language model fallback) and answers out
// loud. Configuration is loaded from a single YAML file discovered
// automatically (see [config.DefaultSearchPaths]); without one, the
// environment variables of earlier releases are honored.
//
// Usage:
//
//	assistant listen            Start the listening loop (default)
//	assistant ask <utterance>   Handle a single utterance and exit
//	assistant reminders         List stored reminders
//	assistant init [dir]        Write an example config
//	assistant version           Print version and build information
//	assistant -o json version   Output version information as JSON
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Nayanankulkarni/OIBSIP-PYTHONPROGRAMMING--TASK1/internal/buildinfo"
	"github.com/Nayanankulkarni/OIBSIP-PYTHONPROGRAMMING--TASK1/internal/config"
)

// main constructs the OS-level environment and delegates to [run], so
// the whole lifecycle can be driven from tests.
func main() {
	ctx := context.Background()

	env := environment{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		lookup: os.LookupEnv,
	}
	if err := run(ctx, env, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

// environment carries the process-level dependencies of run. The
// conversation goes to stdout; logs go to stderr.
type environment struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	lookup func(string) (string, bool)
}

// options are the parsed global flags.
type options struct {
	configPath string
	outputFmt  string
	typed      bool
}

// run parses args by hand, keeping the flag package's global state out
// of tests, and dispatches to the subcommand.
func run(ctx context.Context, env environment, args []string) error {
	var opts options
	var command string
	var cmdArgs []string

	for i := 0; i < len(args); i++ {
		switch {
		case command != "":
			cmdArgs = append(cmdArgs, args[i])
		case args[i] == "-config" && i+1 < len(args):
			opts.configPath = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-config="):
			opts.configPath = strings.TrimPrefix(args[i], "-config=")
		case (args[i] == "-o" || args[i] == "--output") && i+1 < len(args):
			opts.outputFmt = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-o="):
			opts.outputFmt = strings.TrimPrefix(args[i], "-o=")
		case strings.HasPrefix(args[i], "--output="):
			opts.outputFmt = strings.TrimPrefix(args[i], "--output=")
		case args[i] == "-typed" || args[i] == "--typed":
			opts.typed = true
		case args[i] == "-h" || args[i] == "-help" || args[i] == "--help":
			return printUsage(env.stdout)
		case !strings.HasPrefix(args[i], "-"):
			command = args[i]
		default:
			return fmt.Errorf("unknown flag: %s", args[i])
		}
	}

	if opts.outputFmt == "" {
		opts.outputFmt = "text"
	}
	if opts.outputFmt != "text" && opts.outputFmt != "json" {
		return fmt.Errorf("unknown output format: %q (expected text or json)", opts.outputFmt)
	}

	switch command {
	case "listen", "":
		return runListen(ctx, env, opts)
	case "ask":
		if len(cmdArgs) == 0 {
			return fmt.Errorf("usage: assistant ask <utterance>")
		}
		return runAsk(ctx, env, opts, strings.Join(cmdArgs, " "))
	case "reminders":
		return runReminders(ctx, env, opts)
	case "init":
		dir := "."
		if len(cmdArgs) > 0 {
			dir = cmdArgs[0]
		}
		return runInit(env.stdout, dir)
	case "version":
		return runVersion(env.stdout, opts.outputFmt)
	case "help":
		return printUsage(env.stdout)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

// runVersion prints build metadata in the requested output format.
func runVersion(w io.Writer, outputFmt string) error {
	info := buildinfo.Read()
	if outputFmt == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}
	fmt.Fprintln(w, info)
	for _, f := range info.Fields() {
		fmt.Fprintf(w, "  %-12s %s\n", f[0]+":", f[1])
	}
	return nil
}

// printUsage writes the top-level help text to w.
func printUsage(w io.Writer) error {
	fmt.Fprintln(w, "Assistant - voice-driven personal assistant")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: assistant [flags] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  listen            Start the listening loop (default)")
	fmt.Fprintln(w, "  ask <utterance>   Handle one utterance and exit")
	fmt.Fprintln(w, "  reminders         List stored reminders")
	fmt.Fprintln(w, "  init [dir]        Write an example config.yaml (default: .)")
	fmt.Fprintln(w, "  version           Show version information")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -config <path>    Path to config file (default: auto-discover)")
	fmt.Fprintln(w, "  -o, --output fmt  Output format: text (default) or json")
	fmt.Fprintln(w, "  -typed            Read utterances from stdin instead of the microphone")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Config search order:")
	fmt.Fprintln(w, "  ./config.yaml, ~/.config/assistant/config.yaml, /etc/assistant/config.yaml")
	return nil
}

// loadConfig locates and parses the configuration. An explicit path
// must exist. When no file is found in the search path, the defaults
// overlaid with the environment are used. Returns the config and the
// path loaded ("" for the environment).
func loadConfig(explicit string, lookup func(string) (string, bool)) (*config.Config, string, error) {
	var (
		cfg *config.Config
		err error
	)

	cfgPath, findErr := config.FindConfig(explicit)
	switch {
	case findErr == nil:
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return nil, cfgPath, fmt.Errorf("load config %s: %w", cfgPath, err)
		}
	case explicit != "":
		return nil, "", findErr
	default:
		cfgPath = ""
		cfg, err = config.FromEnv(lookup)
		if err != nil {
			return nil, "", fmt.Errorf("config from environment: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, cfgPath, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, cfgPath, nil
}
