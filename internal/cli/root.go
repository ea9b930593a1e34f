package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	charmlog "github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/docbake/docbaked/internal"
	"github.com/docbake/docbaked/internal/variant"
)

// Represents the root command for the docbaked daemon.
var RootCmd struct {
	Quiet    bool        `short:"q" help:"Suppress informational output."`
	Verbose  bool        `short:"v" help:"Enable verbose output."`
	Debug    bool        `short:"d" help:"Enable debug output."`
	Socket   string      `short:"s" help:"Override the default Unix socket path." placeholder:"PATH"`
	Start    StartCmd    `cmd:"" help:"Start the daemon."`
	Stop     StopCmd     `cmd:"" help:"Stop a running daemon."`
	Build    BuildCmd    `cmd:"" help:"Build a site image from a manifest."`
	Publish  PublishCmd  `cmd:"" help:"Build and push a site image to a registry."`
	Variants VariantsCmd `cmd:"" help:"List the available image variants."`
	Status   StatusCmd   `cmd:"" help:"Show daemon status."`
	Version  VersionCmd  `cmd:"" help:"Show version information."`
}

// Parses arguments, configures logging, and runs the selected subcommand.
func Execute() error {

	// Registry credentials and theme tokens may live in a local .env file.
	// Absence is not an error.
	godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	parser, err := newParser(ctx)
	if err != nil {
		return err
	}

	kongCtx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	configureLogger()

	return kongCtx.Run()
}

// Builds the argument parser.
//
// The variant enum is interpolated from the variant registry so a newly
// added variant is accepted by the CLI without touching the command tags.
func newParser(ctx context.Context) (*kong.Kong, error) {
	return kong.New(&RootCmd,
		kong.Name(internal.Name),
		kong.Description("The docbake image daemon.\n\nAssembles documentation site container images and publishes them to a registry."),
		kong.UsageOnError(),
		kong.Vars{
			"version":  internal.VersionString(),
			"variants": strings.Join(variant.Names(), ","),
		},
		kong.BindTo(ctx, (*context.Context)(nil)),
	)
}

// Configures the global logger based on CLI flags.
func configureLogger() {
	handler, ok := slog.Default().Handler().(*charmlog.Logger)
	if !ok {
		return // Not a charm handler, nothing to configure
	}

	debug := RootCmd.Debug || internal.IsDebug()
	quiet := RootCmd.Quiet || internal.IsQuiet()
	verbose := RootCmd.Verbose || internal.IsVerbose()

	// Store the effective modes back so code outside the CLI sees the
	// flag-adjusted values.
	internal.SetDebug(debug)
	internal.SetQuiet(quiet)
	internal.SetVerbose(verbose)

	if debug {
		handler.SetLevel(charmlog.DebugLevel)
	} else if quiet {
		handler.SetLevel(charmlog.WarnLevel)
	} else {
		handler.SetLevel(charmlog.InfoLevel)
	}

	handler.SetReportCaller(debug)
	handler.SetReportTimestamp(verbose || debug)
	handler.SetOutput(os.Stderr)
}
