package page

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/inful/mdfp"

	ferrors "github.com/OldUser101/tars/internal/foundation/errors"
	"github.com/OldUser101/tars/internal/frontmatter"
	"github.com/OldUser101/tars/internal/logfields"
	"github.com/OldUser101/tars/internal/markdown"
)

// Loader walks a content tree and converts each file into a Page.
type Loader struct {
	converter       *markdown.Converter
	defaultTemplate string
}

// NewLoader returns a Loader that converts with c and assigns pages without a
// template override to defaultTemplate.
func NewLoader(c *markdown.Converter, defaultTemplate string) *Loader {
	if c == nil {
		c = markdown.New()
	}
	return &Loader{converter: c, defaultTemplate: defaultTemplate}
}

// Load walks contentRoot in lexical order. Every directory is mirrored under
// destRoot and every regular file, or link to one, becomes a Page. Drafts are
// included. A missing contentRoot yields no pages.
func (l *Loader) Load(ctx context.Context, contentRoot, destRoot string) ([]*Page, error) {
	if _, err := os.Stat(contentRoot); errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Content directory does not exist", logfields.Path(contentRoot))
		return nil, nil
	}

	var pages []*Page
	err := filepath.WalkDir(contentRoot, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(contentRoot, p)
		if err != nil {
			return err
		}
		switch {
		case d.IsDir():
			return os.MkdirAll(filepath.Join(destRoot, rel), 0o750)
		case d.Type()&fs.ModeSymlink != 0:
			if fi, err := os.Stat(p); err != nil || !fi.Mode().IsRegular() {
				slog.Warn("Skipping content symlink that is not a regular file", logfields.Path(p))
				return nil
			}
		case !d.Type().IsRegular():
			slog.Debug("Skipping non-regular content entry", logfields.Path(p))
			return nil
		}
		pg, err := l.LoadFile(p, filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		pages = append(pages, pg)
		return nil
	})
	if err != nil {
		if ferrors.IsClassified(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, ferrors.FileSystemError("failed to walk content directory").WithCause(err).
			WithContext("path", contentRoot).Build()
	}
	return pages, nil
}

// LoadFile reads and converts a single content file. rel is the
// slash-separated path of the file relative to the content root.
func (l *Loader) LoadFile(src, rel string) (*Page, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return nil, ferrors.FileSystemError("failed to read content file").WithCause(err).
			WithContext("path", src).Build()
	}

	fm, body, _, err := frontmatter.Split(data)
	if err != nil {
		return nil, ferrors.ConversionError("malformed content file").WithCause(err).
			WithContext("path", rel).Build()
	}

	pg := &Page{
		SourcePath: src,
		SourceRel:  rel,
		Path:       OutputPath(rel),
	}
	pg.Content, err = l.converter.Convert(body, fm, &pg.Meta)
	if err != nil {
		return nil, ferrors.ConversionError("malformed content file").WithCause(err).
			WithContext("path", rel).Build()
	}
	pg.Fingerprint = fingerprint(fm, body)

	if pg.Meta.Template != "" {
		pg.Template = pg.Meta.Template
		pg.ExplicitTemplate = true
	} else {
		pg.Template = l.defaultTemplate
	}

	slog.Debug("Loaded page", logfields.Page(pg.Path), logfields.Template(pg.Template))
	return pg, nil
}

func fingerprint(fm, body []byte) string {
	meta := strings.ReplaceAll(string(fm), "\r\n", "\n")
	meta = strings.TrimSuffix(meta, "\n")
	return mdfp.CalculateFingerprintFromParts(meta, string(body))
}
