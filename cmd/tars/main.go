package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/OldUser101/tars/cmd/tars/commands"
	ferrors "github.com/OldUser101/tars/internal/foundation/errors"
	"github.com/OldUser101/tars/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("tars"),
		kong.Description("A small static site generator with plugins and live reload."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.BindTo(ctx, (*context.Context)(nil)),
	)

	if err := parser.Run(&commands.Global{Logger: slog.Default()}); err != nil {
		stop()
		ferrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
	}
}
