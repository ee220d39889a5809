package content

import (
	"reflect"
	"strings"
	"testing"

	"github.com/folio/folio/internal/model"
)

func TestReadTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		words int
		want  int
	}{
		{"empty", 0, 1},
		{"short", 10, 1},
		{"exactly one minute", 200, 1},
		{"just over", 201, 2},
		{"long", 1000, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := strings.Repeat("word ", tt.words)
			if got := ReadTime(s); got != tt.want {
				t.Errorf("ReadTime(%d words) = %d, want %d", tt.words, got, tt.want)
			}
		})
	}
}

func TestTableOfContents(t *testing.T) {
	t.Parallel()

	src := `# Getting Started

Intro text.

## Install *the* CLI

### Options

#### Too deep

## Install the CLI

Setext Heading
--------------
`

	got := TableOfContents(src)
	want := []model.TOCEntry{
		{ID: "getting-started", Text: "Getting Started", Level: 1},
		{ID: "install-the-cli", Text: "Install the CLI", Level: 2},
		{ID: "options", Text: "Options", Level: 3},
		{ID: "install-the-cli-1", Text: "Install the CLI", Level: 2},
		{ID: "setext-heading", Text: "Setext Heading", Level: 2},
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("TableOfContents() =\n%+v\nwant\n%+v", got, want)
	}
}

func TestTableOfContents_NoHeadings(t *testing.T) {
	t.Parallel()

	got := TableOfContents("just a paragraph")
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}

func TestSlugify(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"Hello, World!":          "hello-world",
		"  Go 1.24 release  ":    "go-1-24-release",
		"already-a-slug":         "already-a-slug",
		"Ünïcode Títle":          "ünïcode-títle",
		"---":                    "",
		"Multiple   spaces here": "multiple-spaces-here",
	}

	for in, want := range tests {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPlainText(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"plain text":                         "plain text",
		"<b>bold</b> move":                   "bold move",
		`<script>alert("x")</script>hi`:      "hi",
		"Tom & Jerry's":                      "Tom & Jerry's",
		`<a href="http://spam">click</a> me`: "click me",
	}

	for in, want := range tests {
		if got := PlainText(in); got != want {
			t.Errorf("PlainText(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeTags(t *testing.T) {
	t.Parallel()

	got := NormalizeTags([]string{" Go ", "go", "", "Databases", "GO"})
	want := []string{"go", "databases"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NormalizeTags() = %v, want %v", got, want)
	}
}
