// Package page holds the Page model and the loader that builds pages from a
// content tree.
package page

import (
	"path"
	"strings"
)

// OutputExt is the extension given to every generated page.
const OutputExt = ".html"

// Page is one converted content file. Pages live for a single build.
type Page struct {
	// SourcePath is the absolute path of the content file.
	SourcePath string
	// SourceRel is the slash-separated path relative to the content root.
	SourceRel string
	// Path is the slash-separated output path relative to the output root.
	Path string
	Meta FrontMatter
	// Content is the converted HTML body.
	Content string
	// Fingerprint identifies the frontmatter and body the page was built from.
	Fingerprint string
	// Template is the template the page renders through: the frontmatter
	// override, or the site default.
	Template string
	// ExplicitTemplate is set when Template came from frontmatter.
	ExplicitTemplate bool
}

// IsDraft reports whether the page is marked as a draft.
func (p *Page) IsDraft() bool {
	return p.Meta.Draft
}

// OutputPath swaps the extension of a slash-separated source path for
// OutputExt.
func OutputPath(rel string) string {
	return strings.TrimSuffix(rel, path.Ext(rel)) + OutputExt
}
