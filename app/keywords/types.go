package keywords

// Config is the on-disk shape of the keywords file. Groups are a list rather
// than a map so catalog iteration order follows the file.
type Config struct {
	Subreddits []string `yaml:"subreddits"`
	Groups     []Group  `yaml:"groups"`
}

type Group struct {
	Category string   `yaml:"category"`
	Weight   int      `yaml:"weight"`
	Keywords []string `yaml:"keywords"`
}

// Entry is a single flattened catalog keyword. Keyword is stored case-folded.
type Entry struct {
	Keyword  string
	Category string
	Weight   int
}

// Result holds the outcome of scoring one post against the catalog.
// MatchedKeywords preserves catalog order; Categories are deduplicated in
// first-match order.
type Result struct {
	Score           int
	MatchedKeywords []string
	Categories      []string
}
