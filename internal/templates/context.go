package templates

import (
	"html/template"

	"github.com/OldUser101/tars/internal/page"
)

// PageData is the view of a page exposed to templates.
type PageData struct {
	Path        string
	Meta        page.FrontMatter
	Content     template.HTML
	Fingerprint string
}

// Context is the data a page is rendered with: every loaded page plus the
// page being rendered.
type Context struct {
	Pages []PageData
	Page  PageData
}

// NewPageData converts p into its template view. The converted body is
// trusted HTML.
func NewPageData(p *page.Page) PageData {
	return PageData{
		Path:        p.Path,
		Meta:        p.Meta,
		Content:     template.HTML(p.Content), //nolint:gosec // body is produced by the markdown converter
		Fingerprint: p.Fingerprint,
	}
}

// NewPageList converts every page once so the list can be shared by every
// render of a build.
func NewPageList(pages []*page.Page) []PageData {
	out := make([]PageData, 0, len(pages))
	for _, p := range pages {
		out = append(out, NewPageData(p))
	}
	return out
}
