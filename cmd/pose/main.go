// Command pose decodes pose-network output tensors into body skeletons.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/banshee-data/pose.report/internal/monitoring"
	"github.com/banshee-data/pose.report/internal/version"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "pose: failed to load .env: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "pose: %v\n", err)
		os.Exit(1)
	}
}

// env holds the streams a command reads and writes.
type env struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	global := flag.NewFlagSet("pose", flag.ContinueOnError)
	global.SetOutput(stderr)
	global.Usage = func() { printUsage(stderr) }
	logLevel := global.String("log-level", envOr("POSE_LOG_LEVEL", "info"), "Log level: debug, info, warn or error")
	logFile := global.String("log-file", os.Getenv("POSE_LOG_FILE"), "Also write logs to this rotated file")
	if err := global.Parse(args); err != nil {
		return err
	}
	if global.NArg() < 1 {
		printUsage(stderr)
		return errors.New("missing command")
	}

	closer, err := monitoring.Configure(monitoring.Options{Level: *logLevel, File: *logFile})
	if err != nil {
		return err
	}
	defer closer.Close()

	e := env{stdin: stdin, stdout: stdout, stderr: stderr}
	command, rest := global.Arg(0), global.Args()[1:]
	switch command {
	case "decode":
		return runDecode(ctx, e, rest)
	case "match":
		return runMatch(ctx, e, rest)
	case "serve":
		return runServe(ctx, e, rest)
	case "migrate":
		return runMigrate(e, rest)
	case "version":
		fmt.Fprintln(stdout, version.String())
		return nil
	case "help":
		printUsage(stdout)
		return nil
	default:
		printUsage(stderr)
		return fmt.Errorf("unknown command %q", command)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `pose - bottom-up pose decoder

Usage: pose [-log-level L] [-log-file F] <command> [options]

Commands:
  decode    Decode a tensor envelope into bodies JSON
  match     Match the bodies of two frames
  serve     Run the HTTP decode API and debug charts
  migrate   Apply or inspect pose database migrations (up, down, version)
  version   Show build information
  help      Show this help message

Environment (also read from .env):
  POSE_DB         pose database path
  POSE_CONFIG     tuning config JSON
  POSE_LISTEN     serve listen address
  POSE_LOG_FILE   rotated log file
  POSE_LOG_LEVEL  log level
`)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func newFlagSet(name string, e env) *flag.FlagSet {
	fset := flag.NewFlagSet(name, flag.ContinueOnError)
	fset.SetOutput(e.stderr)
	return fset
}
