package page

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// FrontMatter is the metadata block of a content file. Every field is
// optional; Draft defaults to false.
type FrontMatter struct {
	Title      string   `yaml:"title,omitempty"`
	Date       *Date    `yaml:"date,omitempty"`
	Author     string   `yaml:"author,omitempty"`
	Type       string   `yaml:"type,omitempty"`
	Draft      bool     `yaml:"draft"`
	Template   string   `yaml:"template,omitempty"`
	Tags       []string `yaml:"tags,omitempty"`
	Slug       string   `yaml:"slug,omitempty"`
	Summary    string   `yaml:"summary,omitempty"`
	CoverImage string   `yaml:"cover_image,omitempty"`
}

// DateLayout is the calendar date form accepted in frontmatter and used when
// a Date is printed.
const DateLayout = "2006-01-02"

// Date is a frontmatter date. It accepts a calendar date or an RFC 3339
// timestamp.
type Date struct {
	time.Time
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Date) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: date must be a scalar", node.Line)
	}
	for _, layout := range []string{DateLayout, time.RFC3339} {
		if t, err := time.Parse(layout, node.Value); err == nil {
			d.Time = t
			return nil
		}
	}
	return fmt.Errorf("line %d: invalid date %q (want YYYY-MM-DD or RFC 3339)", node.Line, node.Value)
}

// MarshalYAML implements yaml.Marshaler.
func (d Date) MarshalYAML() (any, error) {
	return d.String(), nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(DateLayout)
}
