// Package parser reads the title and frontmatter of Markdown files being
// imported as notes.
package parser

import (
	"bytes"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is a Markdown file split into frontmatter and body.
type Document struct {
	Frontmatter map[string]any
	Body        string
	Title       string
}

// Parse splits data and derives its title. fallback is used when neither the
// frontmatter nor the body names one.
func Parse(data []byte, fallback string) Document {
	fm, body := splitFrontmatter(data)
	title := frontmatterString(fm, "title")
	if title == "" {
		title = firstHeading(body)
	}
	if title == "" {
		title = fallback
	}
	return Document{Frontmatter: fm, Body: body, Title: title}
}

// splitFrontmatter separates YAML frontmatter between leading --- lines from
// the body. Missing or invalid frontmatter leaves the whole input as body.
func splitFrontmatter(data []byte) (map[string]any, string) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data)
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data)
	}

	var fm map[string]any
	if err := yaml.Unmarshal(rest[:idx], &fm); err != nil {
		return nil, string(data)
	}
	body := strings.TrimLeft(string(rest[idx+1+len(delim):]), "\n\r")
	return fm, body
}

func frontmatterString(fm map[string]any, key string) string {
	s, _ := fm[key].(string)
	return strings.TrimSpace(s)
}

// firstHeading returns the text of the first level-one ATX heading.
func firstHeading(body string) string {
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
