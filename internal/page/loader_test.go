package page

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	ferrors "github.com/OldUser101/tars/internal/foundation/errors"
	"github.com/OldUser101/tars/internal/markdown"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoader_Load(t *testing.T) {
	content := t.TempDir()
	dest := t.TempDir()
	writeFile(t, filepath.Join(content, "a.md"), "---\ntitle: Hello\ndate: 2024-03-01\ntags: [go, web]\n---\n# Hi\n")
	writeFile(t, filepath.Join(content, "blog", "post.markdown"), "---\ntemplate: post.html\ndraft: true\n---\nBody\n")
	writeFile(t, filepath.Join(content, "plain.md"), "No frontmatter here.\n")
	require.NoError(t, os.MkdirAll(filepath.Join(content, "empty", "nested"), 0o750))

	pages, err := NewLoader(markdown.New(), "default.html").Load(t.Context(), content, dest)
	require.NoError(t, err)
	require.Len(t, pages, 3)

	a := pages[0]
	require.Equal(t, "a.md", a.SourceRel)
	require.Equal(t, "a.html", a.Path)
	require.Equal(t, "Hello", a.Meta.Title)
	require.Equal(t, []string{"go", "web"}, a.Meta.Tags)
	require.NotNil(t, a.Meta.Date)
	require.Equal(t, "2024-03-01", a.Meta.Date.String())
	require.Equal(t, "<h1 id=\"hi\">Hi</h1>\n", a.Content)
	require.Equal(t, "default.html", a.Template)
	require.False(t, a.ExplicitTemplate)
	require.False(t, a.IsDraft())
	require.NotEmpty(t, a.Fingerprint)

	post := pages[1]
	require.Equal(t, "blog/post.html", post.Path)
	require.Equal(t, "post.html", post.Template)
	require.True(t, post.ExplicitTemplate)
	require.True(t, post.IsDraft())

	require.Equal(t, "plain.html", pages[2].Path)
	require.Equal(t, FrontMatter{}, pages[2].Meta)

	require.DirExists(t, filepath.Join(dest, "blog"))
	require.DirExists(t, filepath.Join(dest, "empty", "nested"))
}

func TestLoader_Load_SymlinkedFile(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need elevated privileges on windows")
	}
	root := t.TempDir()
	content := filepath.Join(root, "content")
	writeFile(t, filepath.Join(root, "shared", "post.md"), "---\ntitle: Shared\n---\n")
	require.NoError(t, os.MkdirAll(content, 0o750))
	require.NoError(t, os.Symlink("../shared/post.md", filepath.Join(content, "post.md")))
	require.NoError(t, os.Symlink("missing.md", filepath.Join(content, "broken.md")))

	pages, err := NewLoader(markdown.New(), "").Load(t.Context(), content, t.TempDir())
	require.NoError(t, err)
	require.Len(t, pages, 1)
	require.Equal(t, "post.html", pages[0].Path)
	require.Equal(t, "Shared", pages[0].Meta.Title)
}

func TestLoader_Load_MissingContentDir(t *testing.T) {
	pages, err := NewLoader(nil, "default.html").Load(t.Context(), filepath.Join(t.TempDir(), "nope"), t.TempDir())
	require.NoError(t, err)
	require.Empty(t, pages)
}

func TestLoader_Load_Malformed(t *testing.T) {
	tests := map[string]string{
		"unterminated": "---\ntitle: Hello\n# Hi\n",
		"bad yaml":     "---\ntitle: [Hello\n---\n# Hi\n",
		"bad date":     "---\ndate: yesterday\n---\n# Hi\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			content := t.TempDir()
			writeFile(t, filepath.Join(content, "bad.md"), doc)

			_, err := NewLoader(nil, "").Load(t.Context(), content, t.TempDir())
			require.Error(t, err)
			require.True(t, ferrors.HasCategory(err, ferrors.CategoryConversion))
			ce, ok := ferrors.AsClassified(err)
			require.True(t, ok)
			path, _ := ce.Context().GetString("path")
			require.Equal(t, "bad.md", path)
		})
	}
}

func TestLoader_Load_Canceled(t *testing.T) {
	content := t.TempDir()
	writeFile(t, filepath.Join(content, "a.md"), "# Hi\n")
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := NewLoader(nil, "").Load(ctx, content, t.TempDir())
	require.ErrorIs(t, err, context.Canceled)
}

func TestFingerprint_StableAcrossLineEndings(t *testing.T) {
	require.Equal(t, fingerprint([]byte("title: x\n"), []byte("body")), fingerprint([]byte("title: x\r\n"), []byte("body")))
	require.NotEqual(t, fingerprint([]byte("title: x\n"), []byte("body")), fingerprint([]byte("title: y\n"), []byte("body")))
}

func TestOutputPath(t *testing.T) {
	require.Equal(t, "a.html", OutputPath("a.md"))
	require.Equal(t, "blog/post.html", OutputPath("blog/post.markdown"))
	require.Equal(t, "README.html", OutputPath("README"))
	require.Equal(t, "v1.2/notes.html", OutputPath("v1.2/notes.md"))
}

func TestDate_RFC3339(t *testing.T) {
	content := t.TempDir()
	writeFile(t, filepath.Join(content, "a.md"), "---\ndate: 2024-03-01T10:30:00Z\n---\n")

	pages, err := NewLoader(nil, "").Load(t.Context(), content, t.TempDir())
	require.NoError(t, err)
	require.Len(t, pages, 1)
	require.True(t, pages[0].Meta.Date.Equal(time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)))
}
