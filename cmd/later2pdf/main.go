package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"

	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	// maxprocs.Set only fails on an invalid GOMAXPROCS value, in which case
	// the runtime default applies.
	if slices.Contains(os.Args[1:], "--verbose") || slices.Contains(os.Args[1:], "-v") {
		_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		}))
	} else {
		_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...any) {}))
	}

	os.Exit(runMain(context.Background(), os.Args[1:], DefaultEnv()))
}

// runMain dispatches to a command and returns the process exit code.
func runMain(ctx context.Context, args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stderr)
		return ExitUsage
	}

	ctx, stop := notifyContext(ctx)
	defer stop()

	cmd, rest := args[0], args[1:]
	var err error
	switch cmd {
	case "convert":
		err = runConvert(ctx, rest, env)
	case "list":
		err = runList(ctx, rest, env)
	case "serve":
		err = runServe(ctx, rest, env)
	case "doctor":
		return runDoctorCmd(rest, env)
	case "version", "--version":
		fmt.Fprintf(env.Stdout, "later2pdf %s\n", Version)
		return ExitSuccess
	case "help", "--help", "-h":
		return runHelp(rest, env)
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", cmd)
		printUsage(env.Stderr)
		return ExitUsage
	}

	if errors.Is(err, flag.ErrHelp) {
		return ExitSuccess
	}
	if err != nil {
		fmt.Fprintf(env.Stderr, "error: %v%s\n", err, hintFor(err))
		return exitCodeFor(err)
	}
	return ExitSuccess
}
