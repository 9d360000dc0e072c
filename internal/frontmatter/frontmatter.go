// Package frontmatter separates a leading YAML metadata block from the body
// of a content file.
package frontmatter

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document opened a frontmatter
// block but never closed it.
var ErrMissingClosingDelimiter = errors.New("frontmatter start delimiter found but closing delimiter is missing")

const delimiter = "---"

var bom = []byte("\xEF\xBB\xBF")

// Split separates `---` delimited frontmatter from the body. Both LF and CRLF
// line endings are accepted, and a UTF-8 byte order mark or whitespace before
// the opening delimiter is skipped. had is false when content does not open
// with a delimiter line, in which case body is the full input. A closing
// delimiter at end of file without a trailing newline is accepted.
func Split(content []byte) (fm []byte, body []byte, had bool, err error) {
	start := bytes.TrimLeft(bytes.TrimPrefix(content, bom), " \t\r\n")
	nl := newline(start)
	open := []byte(delimiter + nl)
	if !bytes.HasPrefix(start, open) {
		return nil, content, false, nil
	}
	rest := start[len(open):]

	// Empty block: the closing delimiter follows immediately.
	if after, ok := closingLine(rest, nl); ok {
		return []byte{}, after, true, nil
	}

	for offset := 0; offset < len(rest); {
		idx := bytes.Index(rest[offset:], []byte(nl+delimiter))
		if idx < 0 {
			break
		}
		lineStart := offset + idx + len(nl)
		if after, ok := closingLine(rest[lineStart:], nl); ok {
			return rest[:lineStart], after, true, nil
		}
		offset = lineStart
	}
	return nil, nil, false, ErrMissingClosingDelimiter
}

// closingLine reports whether b starts with a delimiter line and returns
// what follows it.
func closingLine(b []byte, nl string) ([]byte, bool) {
	if !bytes.HasPrefix(b, []byte(delimiter)) {
		return nil, false
	}
	tail := b[len(delimiter):]
	switch {
	case len(tail) == 0:
		return tail, true
	case bytes.HasPrefix(tail, []byte(nl)):
		return tail[len(nl):], true
	default:
		return nil, false
	}
}

// Decode unmarshals raw frontmatter (without delimiters) into v. An empty or
// comment-only block leaves v untouched.
func Decode(fm []byte, v any) error {
	if len(bytes.TrimSpace(fm)) == 0 {
		return nil
	}
	var node yaml.Node
	if err := yaml.Unmarshal(fm, &node); err != nil {
		return err
	}
	if len(node.Content) == 0 {
		return nil
	}
	return node.Decode(v)
}

func newline(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
