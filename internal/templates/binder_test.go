package templates

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/OldUser101/tars/internal/config"
	ferrors "github.com/OldUser101/tars/internal/foundation/errors"
	"github.com/OldUser101/tars/internal/page"
)

func writeTemplate(t *testing.T, root, name, body string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

func TestLoad_MissingDirectory(t *testing.T) {
	reg, err := Load(filepath.Join(t.TempDir(), "template"), config.SiteConfig{}, nil)
	require.NoError(t, err)
	require.Empty(t, reg.Names())
	require.False(t, reg.Has("default.html"))
}

func TestRender(t *testing.T) {
	root := t.TempDir()
	writeTemplate(t, root, "default.html", `<title>{{ .Page.Meta.Title }} | {{ site.Title }}</title>{{ template "partials/nav.html" . }}<main>{{ .Page.Content }}</main><footer>{{ extra.footer }}</footer>`)
	writeTemplate(t, root, "partials/nav.html", `<nav>{{ range .Pages }}<a href="/{{ .Path }}">{{ .Meta.Title }}</a>{{ end }}</nav>`)

	reg, err := Load(root, config.SiteConfig{Title: "Site"}, map[string]any{"footer": "bye"})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"default.html", "partials/nav.html"}, reg.Names())

	a := &page.Page{Path: "a.html", Meta: page.FrontMatter{Title: "Hello"}, Content: "<h1 id=\"hi\">Hi</h1>\n"}
	b := &page.Page{Path: "blog/b.html", Meta: page.FrontMatter{Title: "B"}}
	list := NewPageList([]*page.Page{a, b})

	out, err := reg.Render(Context{Pages: list, Page: list[0]}, "default.html")
	require.NoError(t, err)
	require.Equal(t,
		`<title>Hello | Site</title><nav><a href="/a.html">Hello</a><a href="/blog/b.html">B</a></nav><main><h1 id="hi">Hi</h1>`+"\n"+`</main><footer>bye</footer>`,
		out)
}

func TestRender_EscapesMetadata(t *testing.T) {
	root := t.TempDir()
	writeTemplate(t, root, "default.html", `<h1>{{ .Page.Meta.Title }}</h1>`)
	reg, err := Load(root, config.SiteConfig{}, nil)
	require.NoError(t, err)

	data := NewPageData(&page.Page{Meta: page.FrontMatter{Title: "<b>x</b>"}})
	out, err := reg.Render(Context{Page: data}, "default.html")
	require.NoError(t, err)
	require.Equal(t, "<h1>&lt;b&gt;x&lt;/b&gt;</h1>", out)
}

func TestRender_Errors(t *testing.T) {
	root := t.TempDir()
	writeTemplate(t, root, "default.html", `{{ extra.missing }}`)
	reg, err := Load(root, config.SiteConfig{}, nil)
	require.NoError(t, err)

	_, err = reg.Render(Context{}, "nope.html")
	require.ErrorIs(t, err, ErrTemplateNotFound)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryTemplate))

	_, err = reg.Render(Context{}, "default.html")
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryTemplate))
}

func TestLoad_SyntaxError(t *testing.T) {
	root := t.TempDir()
	writeTemplate(t, root, "broken.html", `{{ if }}`)

	_, err := Load(root, config.SiteConfig{}, nil)
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryTemplate))
	ce, ok := ferrors.AsClassified(err)
	require.True(t, ok)
	name, _ := ce.Context().GetString("template")
	require.Equal(t, "broken.html", name)
}
