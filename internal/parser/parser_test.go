package parser

import (
	"testing"
)

func TestParse_FrontmatterTitle(t *testing.T) {
	input := []byte("---\ntitle: Hello\nowner: alice\n---\n# Heading\nBody text.\n")
	d := Parse(input, "stem")
	if d.Title != "Hello" {
		t.Errorf("title = %q, want %q", d.Title, "Hello")
	}
	if d.Body != "# Heading\nBody text.\n" {
		t.Errorf("body = %q", d.Body)
	}
	if d.Frontmatter["owner"] != "alice" {
		t.Errorf("frontmatter = %v", d.Frontmatter)
	}
}

func TestParse_HeadingFallback(t *testing.T) {
	d := Parse([]byte("some text\n# My Heading\nmore"), "stem")
	if d.Frontmatter != nil {
		t.Errorf("expected nil frontmatter, got %v", d.Frontmatter)
	}
	if d.Title != "My Heading" {
		t.Errorf("title = %q, want %q", d.Title, "My Heading")
	}
}

func TestParse_StemFallback(t *testing.T) {
	d := Parse([]byte("## not a title\nplain"), "meeting-notes")
	if d.Title != "meeting-notes" {
		t.Errorf("title = %q", d.Title)
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	input := "---\n: invalid: yaml: {{{\n---\nBody\n"
	d := Parse([]byte(input), "stem")
	if d.Frontmatter != nil {
		t.Errorf("expected nil frontmatter on invalid YAML")
	}
	if d.Body != input {
		t.Errorf("body = %q", d.Body)
	}
}

func TestParse_UnclosedFrontmatter(t *testing.T) {
	d := Parse([]byte("---\ntitle: x\n# Real\n"), "stem")
	if d.Title != "Real" {
		t.Errorf("title = %q, want Real", d.Title)
	}
}

func TestParse_NonStringTitle(t *testing.T) {
	d := Parse([]byte("---\ntitle: 42\n---\n# Heading\n"), "stem")
	if d.Title != "Heading" {
		t.Errorf("title = %q, want Heading", d.Title)
	}
}
