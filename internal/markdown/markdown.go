// Package markdown converts Markdown content and its frontmatter block into
// HTML and typed metadata.
package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/OldUser101/tars/internal/frontmatter"
)

// Converter renders GitHub Flavored Markdown with stable heading IDs.
// It is safe for concurrent use.
type Converter struct {
	md goldmark.Markdown
}

// Option configures a Converter.
type Option func(*options)

type options struct {
	unsafeHTML bool
	hardWraps  bool
}

// WithUnsafeHTML passes raw HTML blocks in the source through to the output.
func WithUnsafeHTML() Option {
	return func(o *options) { o.unsafeHTML = true }
}

// WithHardWraps renders soft line breaks as <br>.
func WithHardWraps() Option {
	return func(o *options) { o.hardWraps = true }
}

// New returns a Converter.
func New(opts ...Option) *Converter {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var ro []renderer.Option
	if o.unsafeHTML {
		ro = append(ro, gmhtml.WithUnsafe())
	}
	if o.hardWraps {
		ro = append(ro, gmhtml.WithHardWraps())
	}

	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(ro...),
	)
	return &Converter{md: md}
}

// Convert decodes the raw frontmatter block fm into meta and returns the HTML
// rendering of body. meta may be nil when only the HTML is wanted.
func (c *Converter) Convert(body, fm []byte, meta any) (string, error) {
	if meta != nil {
		if err := frontmatter.Decode(fm, meta); err != nil {
			return "", fmt.Errorf("decode frontmatter: %w", err)
		}
	}
	var buf bytes.Buffer
	if err := c.md.Convert(body, &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}
