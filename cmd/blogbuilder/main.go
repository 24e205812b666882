package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/blogbuilder/cmd/blogbuilder/commands"
	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("blogbuilder"),
		kong.Description("Build, preview and publish a static blog."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)
	err := parser.Run(&commands.Global{Logger: slog.Default()}, cli)
	// Report before Close so the error line reaches the log file.
	code := errors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).Report(err)
	_ = cli.Close()
	os.Exit(code)
}
