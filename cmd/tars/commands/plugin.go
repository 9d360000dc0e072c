package commands

import (
	"fmt"

	"github.com/OldUser101/tars/internal/plugin"
)

// PluginCmd groups the plugin subcommands.
type PluginCmd struct {
	List   PluginListCmd   `cmd:"" help:"List plugins declared in the configuration"`
	Verify PluginVerifyCmd `cmd:"" help:"Check every plugin against its recorded hash"`
	Hash   PluginHashCmd   `cmd:"" help:"Print the hash of a plugin executable"`
}

// PluginListCmd implements 'plugin list'.
type PluginListCmd struct {
	ConfigFlag
}

func (l *PluginListCmd) Run(g *Global, _ *CLI) error {
	cfg, err := l.load()
	if err != nil {
		return err
	}
	for _, p := range cfg.Plugins {
		_, _ = fmt.Fprintf(g.out(), "Name: %s, Hook: %s\n", p.Name, p.Hook)
	}
	return nil
}

// PluginVerifyCmd implements 'plugin verify'. It stops at the first plugin
// that fails.
type PluginVerifyCmd struct {
	ConfigFlag
}

func (v *PluginVerifyCmd) Run(g *Global, _ *CLI) error {
	cfg, err := v.load()
	if err != nil {
		return err
	}
	for _, p := range cfg.Plugins {
		if _, err := plugin.Resolve(p, cfg.Build.PluginDir, false); err != nil {
			_, _ = fmt.Fprintf(g.out(), "Verification failed for %s\n", p.Name)
			return err
		}
		_, _ = fmt.Fprintf(g.out(), "Verification success for %s\n", p.Name)
	}
	return nil
}

// PluginHashCmd implements 'plugin hash'.
type PluginHashCmd struct {
	Name string `arg:"" help:"Plugin file name"`
	Dir  string `short:"d" help:"Plugin directory" default:"plugin" type:"path"`
}

func (h *PluginHashCmd) Run(g *Global, _ *CLI) error {
	sum, err := plugin.Hash(h.Name, h.Dir)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(g.out(), sum)
	return nil
}
