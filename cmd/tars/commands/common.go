package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/OldUser101/tars/internal/config"
)

// Global carries state shared by every command.
type Global struct {
	Logger *slog.Logger
	// Out receives command output. Nil means stdout.
	Out io.Writer
}

func (g *Global) out() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

// CLI definition & global flags.
type CLI struct {
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Init   InitCmd   `cmd:"" help:"Initialize a new site in a directory"`
	Build  BuildCmd  `cmd:"" help:"Build the site into the output directory"`
	Clean  CleanCmd  `cmd:"" help:"Remove the output directory"`
	Serve  ServeCmd  `cmd:"" help:"Serve the site with rebuild on change and live reload"`
	Plugin PluginCmd `cmd:"" help:"Inspect and verify plugins"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// ConfigFlag is the --config option shared by commands that read tars.yaml.
type ConfigFlag struct {
	Config string `short:"c" help:"Configuration file path" default:"tars.yaml" type:"path"`
}

func (f ConfigFlag) load() (*config.Config, error) {
	return config.Load(f.Config)
}
