package build

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	ferrors "github.com/OldUser101/tars/internal/foundation/errors"
	"github.com/OldUser101/tars/internal/logfields"
	"github.com/OldUser101/tars/internal/page"
	"github.com/OldUser101/tars/internal/templates"
)

// stageRenderPages writes every publishable page into the staging output.
// Drafts are not written unless the site includes them, but every loaded page
// stays in the page list templates see.
func stageRenderPages(ctx context.Context, s *session) error {
	list := templates.NewPageList(s.pages)
	for i, p := range s.pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		if p.IsDraft() && !s.cfg.Build.IncludeDrafts {
			s.report.DraftsSkipped++
			slog.Debug("Skipping draft", logfields.BuildID(s.id), logfields.Page(p.Path))
			continue
		}
		out, err := s.renderPage(p, templates.Context{Pages: list, Page: list[i]})
		if err != nil {
			return err
		}
		dst := filepath.Join(s.outputDir, filepath.FromSlash(p.Path))
		if err := writePage(dst, out+s.opts.PageSuffix); err != nil {
			return ferrors.FileSystemError("failed to write page").WithCause(err).
				WithContext("page", p.Path).WithContext("path", dst).Build()
		}
		s.report.PagesRendered++
		slog.Debug("Generated page",
			logfields.BuildID(s.id),
			logfields.Page(p.Path),
			logfields.Template(p.Template),
			slog.String("fingerprint", p.Fingerprint))
	}
	return nil
}

// renderPage renders p through its template. A template named in frontmatter
// must exist; a missing site default falls back to the raw converted body.
func (s *session) renderPage(p *page.Page, data templates.Context) (string, error) {
	if !p.ExplicitTemplate && (p.Template == "" || !s.templates.Has(p.Template)) {
		return p.Content, nil
	}
	out, err := s.templates.Render(data, p.Template)
	if err != nil {
		if ce, ok := ferrors.AsClassified(err); ok {
			return "", ce.WithContext("page", p.Path)
		}
		return "", err
	}
	return out, nil
}

func writePage(dst, content string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return err
	}
	return os.WriteFile(dst, []byte(content), 0o644) //nolint:gosec // public HTML output, non-sensitive
}
