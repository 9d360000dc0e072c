package commands

import (
	"context"

	"github.com/OldUser101/tars/internal/build"
	"github.com/OldUser101/tars/internal/livereload"
	"github.com/OldUser101/tars/internal/metrics"
	"github.com/OldUser101/tars/internal/server"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	ConfigFlag
	NoVerify bool `name:"no-verify" help:"Run plugins without checking their hashes"`
}

func (s *ServeCmd) Run(ctx context.Context, g *Global, _ *CLI) error {
	cfg, err := s.load()
	if err != nil {
		return err
	}

	reg := metrics.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(reg)
	builder := build.New(cfg, build.Options{
		NoVerify:   s.NoVerify,
		PageSuffix: livereload.Script,
		Recorder:   recorder,
	})

	srv := server.New(builder, livereload.NewHub(recorder), server.Options{
		Addr:      cfg.Serve.Addr(),
		OutputDir: cfg.Build.OutputDir,
		WatchDirs: []string{cfg.Build.ContentDir, cfg.Build.TemplateDir, cfg.Build.StaticDir},
		Debounce:  cfg.Serve.Debounce,
		Registry:  reg,
		Logger:    g.Logger,
	})
	return srv.Run(ctx)
}
