// Package templates loads the site's template tree into a named registry and
// renders pages through it.
package templates

import (
	"bytes"
	"errors"
	"html/template"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/OldUser101/tars/internal/config"
	ferrors "github.com/OldUser101/tars/internal/foundation/errors"
	"github.com/OldUser101/tars/internal/logfields"
)

// Registry holds every template of a site in one set, keyed by the
// slash-separated path relative to the template root, so templates can
// include each other by that name.
type Registry struct {
	set   *template.Template
	names []string
}

// Load registers every file under root. A missing root yields an empty
// registry. The globals site and extra are available to every template.
func Load(root string, site config.SiteConfig, extra map[string]any) (*Registry, error) {
	if extra == nil {
		extra = map[string]any{}
	}
	set := template.New("").Option("missingkey=error").Funcs(template.FuncMap{
		"site":  func() config.SiteConfig { return site },
		"extra": func() map[string]any { return extra },
	})
	reg := &Registry{set: set}

	if st, err := os.Stat(root); err != nil || !st.IsDir() {
		slog.Debug("No template directory, templating disabled", logfields.Path(root))
		return reg, nil
	}

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		src, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		if _, err := set.New(name).Parse(string(src)); err != nil {
			return ferrors.TemplateError("failed to parse template").WithCause(err).
				WithContext("template", name).Build()
		}
		reg.names = append(reg.names, name)
		slog.Debug("Loaded template", logfields.Template(name))
		return nil
	})
	if err != nil {
		if ferrors.IsClassified(err) {
			return nil, err
		}
		return nil, ferrors.FileSystemError("failed to load templates").WithCause(err).
			WithContext("path", root).Build()
	}
	return reg, nil
}

// Names returns the registered template names in load order.
func (r *Registry) Names() []string {
	return slices.Clone(r.names)
}

// Has reports whether name is a registered template file.
func (r *Registry) Has(name string) bool {
	return slices.Contains(r.names, name)
}

// ErrTemplateNotFound is wrapped by Render when name is not registered.
var ErrTemplateNotFound = errors.New("template not found")

// Render executes the template called name with data.
func (r *Registry) Render(data any, name string) (string, error) {
	if !r.Has(name) {
		return "", ferrors.TemplateError("template not found").WithCause(ErrTemplateNotFound).
			WithContext("template", name).Build()
	}
	var buf bytes.Buffer
	if err := r.set.ExecuteTemplate(&buf, name, data); err != nil {
		return "", ferrors.TemplateError("failed to render template").WithCause(err).
			WithContext("template", name).Build()
	}
	return buf.String(), nil
}
