package sources

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaultsWhenPathEmpty(t *testing.T) {
	srcs, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(srcs) == 0 {
		t.Fatal("expected built-in sources, got none")
	}

	for i, s := range srcs {
		if s.Name == "" || s.Endpoint == "" || s.Category == "" {
			t.Errorf("built-in source %d has empty fields: %+v", i, s)
		}
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sources.yml")

	content := `
- name: Example Feed
  endpoint: https://example.com/rss.xml
  category: technology
- name: No Category Feed
  endpoint: https://example.org/feed
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	srcs, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(srcs) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(srcs))
	}
	if srcs[0].Name != "Example Feed" || srcs[0].Category != "technology" {
		t.Errorf("unexpected first source: %+v", srcs[0])
	}
	if srcs[1].Category != "general" {
		t.Errorf("expected missing category to default to general, got %q", srcs[1].Category)
	}
}

func TestLoadRejectsInvalidEntries(t *testing.T) {
	dir := t.TempDir()

	cases := []struct {
		name    string
		content string
	}{
		{"missing endpoint", "- name: Broken\n  category: world\n"},
		{"missing name", "- endpoint: https://example.com/rss\n"},
		{"empty file", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(dir, "bad.yml")
			if err := os.WriteFile(path, []byte(tc.content), 0644); err != nil {
				t.Fatal(err)
			}

			if _, err := Load(path); err == nil {
				t.Errorf("expected error for %s", tc.name)
			}
		})
	}
}
