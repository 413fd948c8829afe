package sources

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Source describes one external news feed. The set of sources is fixed for
// the lifetime of the process.
type Source struct {
	Name     string `yaml:"name"`
	Endpoint string `yaml:"endpoint"`
	Category string `yaml:"category"`
}

// Defaults returns the built-in source set.
func Defaults() []Source {
	return []Source{
		{Name: "BBC News", Endpoint: "https://feeds.bbci.co.uk/news/rss.xml", Category: "world"},
		{Name: "Reuters", Endpoint: "https://feeds.reuters.com/reuters/topNews", Category: "world"},
		{Name: "TechCrunch", Endpoint: "https://techcrunch.com/feed/", Category: "technology"},
		{Name: "CNN", Endpoint: "http://rss.cnn.com/rss/edition.rss", Category: "world"},
		{Name: "Ars Technica", Endpoint: "https://feeds.arstechnica.com/arstechnica/index", Category: "technology"},
		{Name: "Wired", Endpoint: "https://www.wired.com/feed/rss", Category: "technology"},
		{Name: "The Verge", Endpoint: "https://www.theverge.com/rss/index.xml", Category: "technology"},
		{Name: "Hacker News", Endpoint: "https://hnrss.org/frontpage", Category: "technology"},
	}
}

// Load reads source descriptors from a YAML file, or returns the built-in
// set when path is empty.
func Load(path string) ([]Source, error) {
	if path == "" {
		return Defaults(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file: %w", err)
	}

	var srcs []Source
	if err := yaml.Unmarshal(data, &srcs); err != nil {
		return nil, fmt.Errorf("failed to parse sources file: %w", err)
	}

	if len(srcs) == 0 {
		return nil, fmt.Errorf("sources file %s contains no sources", path)
	}

	for i, s := range srcs {
		if err := validate(s); err != nil {
			return nil, fmt.Errorf("invalid source at index %d: %w", i, err)
		}
		if srcs[i].Category == "" {
			srcs[i].Category = "general"
		}
	}

	return srcs, nil
}

func validate(s Source) error {
	requiredFields := map[string]string{
		"source name":     s.Name,
		"source endpoint": s.Endpoint,
	}

	for fieldName, fieldValue := range requiredFields {
		if fieldValue == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
	}

	return nil
}
