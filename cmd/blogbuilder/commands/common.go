package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
)

// LogLevelEnv overrides the log level unless --verbose is given.
const LogLevelEnv = "BLOGBUILDER_LOG_LEVEL"

// Global carries state shared by every command.
type Global struct {
	Logger *slog.Logger
}

// CLI is the root command line.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"blog.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	LogFile string           `name:"log-file" help:"Also append logs to this file"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" default:"withargs" help:"Build the site once (default command)"`
	Serve   ServeCmd   `cmd:"" help:"Build, serve with live reload and rebuild on changes"`
	Publish PublishCmd `cmd:"" help:"Build and push the site to the pages branch"`
	Init    InitCmd    `cmd:"" help:"Create an example blog in the config file's directory"`
	New     NewCmd     `cmd:"" help:"Scaffold a new post"`

	logFile *os.File  `kong:"-"`
	out     io.Writer `kong:"-"`
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply() error {
	var w io.Writer = os.Stderr
	if c.LogFile != "" {
		f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "open log file").
				WithContext("path", c.LogFile).
				Build()
		}
		c.logFile = f
		w = io.MultiWriter(os.Stderr, f)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: parseLogLevel(c.Verbose)})))
	return nil
}

// Close releases the log file, if any.
func (c *CLI) Close() error {
	if c.logFile == nil {
		return nil
	}
	return c.logFile.Close()
}

// Stdout is where commands print user-facing output.
func (c *CLI) Stdout() io.Writer {
	if c.out == nil {
		return os.Stdout
	}
	return c.out
}

// SetStdout redirects user-facing output.
func (c *CLI) SetStdout(w io.Writer) { c.out = w }

// parseLogLevel maps --verbose and BLOGBUILDER_LOG_LEVEL to a slog level.
func parseLogLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	switch strings.ToLower(strings.TrimSpace(os.Getenv(LogLevelEnv))) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// loadConfig loads the configuration named by --config.
func loadConfig(root *CLI) (*config.Config, error) {
	return config.Load(root.Config)
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// absFlag makes a path given on the command line absolute so it is not
// re-resolved against the config directory.
func absFlag(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
