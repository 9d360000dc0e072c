package commands

import (
	"fmt"
	"log/slog"

	"github.com/OldUser101/tars/internal/config"
	"github.com/OldUser101/tars/internal/logfields"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool   `short:"f" help:"Initialize even if the directory is not empty"`
	Path  string `short:"p" help:"Directory to initialize" default:"."`
}

func (i *InitCmd) Run(g *Global, _ *CLI) error {
	cfgPath, err := config.Init(i.Path, i.Force)
	if err != nil {
		return err
	}
	slog.Debug("Wrote starter configuration", logfields.Path(cfgPath))
	_, _ = fmt.Fprintf(g.out(), "Initialized empty tars project in %s\n", i.Path)
	return nil
}
