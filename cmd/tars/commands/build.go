package commands

import (
	"context"
	"fmt"

	"github.com/OldUser101/tars/internal/build"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	ConfigFlag
	NoVerify bool `name:"no-verify" help:"Run plugins without checking their hashes"`
}

func (b *BuildCmd) Run(ctx context.Context, g *Global, _ *CLI) error {
	cfg, err := b.load()
	if err != nil {
		return err
	}
	report, err := build.New(cfg, build.Options{NoVerify: b.NoVerify}).Build(ctx)
	if report != nil {
		_, _ = fmt.Fprintln(g.out(), report.Summary())
	}
	return err
}

// CleanCmd implements the 'clean' command.
type CleanCmd struct {
	ConfigFlag
}

func (c *CleanCmd) Run(g *Global, _ *CLI) error {
	cfg, err := c.load()
	if err != nil {
		return err
	}
	if err := build.New(cfg, build.Options{}).Clean(); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.out(), "Removed %s\n", cfg.Build.OutputDir)
	return nil
}
