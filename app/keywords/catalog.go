package keywords

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"
)

// Catalog is the immutable weighted keyword configuration driving scoring.
// It is loaded once at startup and passed explicitly to the components that
// need it.
type Catalog struct {
	subreddits []string
	entries    []Entry
	categories int
}

func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keywords file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse keywords file: %w", err)
	}

	return NewCatalog(config)
}

func NewCatalog(config Config) (*Catalog, error) {
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid keywords configuration: %w", err)
	}

	folder := cases.Fold()

	catalog := &Catalog{
		subreddits: config.Subreddits,
		categories: len(config.Groups),
	}

	for _, group := range config.Groups {
		for _, keyword := range group.Keywords {
			catalog.entries = append(catalog.entries, Entry{
				Keyword:  folder.String(keyword),
				Category: group.Category,
				Weight:   group.Weight,
			})
		}
	}

	return catalog, nil
}

func validateConfig(config Config) error {
	if len(config.Subreddits) == 0 {
		return fmt.Errorf("no subreddits configured")
	}
	for _, subreddit := range config.Subreddits {
		if strings.TrimSpace(subreddit) == "" {
			return fmt.Errorf("empty subreddit name")
		}
	}

	if len(config.Groups) == 0 {
		return fmt.Errorf("no keyword groups configured")
	}

	for _, group := range config.Groups {
		if strings.TrimSpace(group.Category) == "" {
			return fmt.Errorf("keyword group with empty category")
		}
		if group.Weight < 1 {
			return fmt.Errorf("category '%s': weight must be at least 1, got %d", group.Category, group.Weight)
		}
		if len(group.Keywords) == 0 {
			return fmt.Errorf("category '%s': no keywords", group.Category)
		}
		for _, keyword := range group.Keywords {
			if strings.TrimSpace(keyword) == "" {
				return fmt.Errorf("category '%s': empty keyword", group.Category)
			}
		}
	}

	return nil
}

// Subreddits returns the monitored channels in configured order.
func (c *Catalog) Subreddits() []string {
	return c.subreddits
}

// Entries returns the flattened keyword list in file order.
func (c *Catalog) Entries() []Entry {
	return c.entries
}

func (c *Catalog) KeywordCount() int {
	return len(c.entries)
}

func (c *Catalog) CategoryCount() int {
	return c.categories
}
