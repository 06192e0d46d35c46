package reddit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

const (
	// Reddit's feed content is capped before storage
	maxBodyLength = 5000
	// Wait applied once per strategy after a 429 before retrying
	defaultRateLimitBackoff = 5 * time.Second
)

// Fetcher retrieves recent posts for a subreddit from Reddit's public
// endpoints. Unauthenticated JSON access is blocked aggressively, so the
// Atom feed is tried first; the feed is served from different infrastructure
// and survives where the JSON listing returns 403.
type Fetcher struct {
	httpClient       *http.Client
	feedParser       *gofeed.Parser
	userAgent        string
	feedHost         string
	oldHost          string
	wwwHost          string
	rateLimitBackoff time.Duration
}

func NewFetcher(httpClient *http.Client, userAgent string) *Fetcher {
	return &Fetcher{
		httpClient:       httpClient,
		feedParser:       gofeed.NewParser(),
		userAgent:        userAgent,
		feedHost:         "https://www.reddit.com",
		oldHost:          "https://old.reddit.com",
		wwwHost:          "https://www.reddit.com",
		rateLimitBackoff: defaultRateLimitBackoff,
	}
}

type strategy struct {
	name string
	run  func(ctx context.Context, subreddit string, limit int) ([]Post, error)
}

// FetchRecent tries each access strategy in order and returns the first
// non-empty result. It fails only when every strategy is exhausted.
func (f *Fetcher) FetchRecent(ctx context.Context, subreddit string, limit int) ([]Post, error) {
	strategies := []strategy{
		{name: "atom feed", run: f.fetchViaFeed},
		{name: "old.reddit.com json", run: func(ctx context.Context, subreddit string, limit int) ([]Post, error) {
			return f.fetchViaJSON(ctx, f.oldHost, subreddit, limit)
		}},
		{name: "www.reddit.com json", run: func(ctx context.Context, subreddit string, limit int) ([]Post, error) {
			return f.fetchViaJSON(ctx, f.wwwHost, subreddit, limit)
		}},
	}

	var failures []string
	for _, s := range strategies {
		posts, err := s.run(ctx, subreddit, limit)
		if err != nil {
			slog.Debug("Fetch strategy failed", "subreddit", subreddit, "strategy", s.name, "error", err)
			failures = append(failures, fmt.Sprintf("%s: %v", s.name, err))
			continue
		}
		if len(posts) == 0 {
			slog.Debug("Fetch strategy returned no posts", "subreddit", subreddit, "strategy", s.name)
			failures = append(failures, fmt.Sprintf("%s: no posts", s.name))
			continue
		}
		return posts, nil
	}

	return nil, fmt.Errorf("all fetch strategies failed for r/%s: %s", subreddit, strings.Join(failures, "; "))
}

func (f *Fetcher) fetchViaFeed(ctx context.Context, subreddit string, limit int) ([]Post, error) {
	url := fmt.Sprintf("%s/r/%s/new/.rss?limit=%d", f.feedHost, subreddit, limit)

	data, err := f.get(ctx, url)
	if err != nil {
		return nil, err
	}

	feed, err := f.feedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	posts := make([]Post, 0, len(feed.Items))
	for _, item := range feed.Items {
		post, ok := f.normalizeFeedItem(item, subreddit)
		if !ok {
			continue
		}
		posts = append(posts, post)
	}

	return posts, nil
}

func (f *Fetcher) normalizeFeedItem(item *gofeed.Item, subreddit string) (Post, bool) {
	id := sanitizePostID(item.GUID)
	if id == "" {
		return Post{}, false
	}

	permalink := fmt.Sprintf("/r/%s/comments/%s/", subreddit, id)

	url := item.Link
	if url == "" {
		url = f.wwwHost + permalink
	}

	var author string
	if len(item.Authors) > 0 && item.Authors[0] != nil {
		author = strings.TrimPrefix(strings.TrimSpace(item.Authors[0].Name), "/u/")
	}

	createdAt := time.Now().UTC()
	if item.UpdatedParsed != nil {
		createdAt = item.UpdatedParsed.UTC()
	}

	body := htmlToText(item.Content)
	if len(body) > maxBodyLength {
		body = body[:maxBodyLength]
	}

	return Post{
		RedditPostID:    id,
		Subreddit:       subreddit,
		Title:           item.Title,
		Selftext:        body,
		URL:             url,
		Permalink:       permalink,
		Author:          author,
		// Vote score and comment count are not exposed via the feed
		Score:           0,
		NumComments:     0,
		RedditCreatedAt: createdAt,
	}, true
}

type jsonListing struct {
	Data struct {
		Children []struct {
			Kind string `json:"kind"`
			Data struct {
				ID          string  `json:"id"`
				Subreddit   string  `json:"subreddit"`
				Title       string  `json:"title"`
				Selftext    string  `json:"selftext"`
				Permalink   string  `json:"permalink"`
				Author      string  `json:"author"`
				Score       int     `json:"score"`
				NumComments int     `json:"num_comments"`
				CreatedUTC  float64 `json:"created_utc"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

func (f *Fetcher) fetchViaJSON(ctx context.Context, host, subreddit string, limit int) ([]Post, error) {
	url := fmt.Sprintf("%s/r/%s/new.json?limit=%d&raw_json=1", host, subreddit, limit)

	data, err := f.get(ctx, url)
	if err != nil {
		return nil, err
	}

	var listing jsonListing
	if err := json.Unmarshal(data, &listing); err != nil {
		return nil, fmt.Errorf("failed to parse listing: %w", err)
	}

	posts := make([]Post, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		// t3 = link/self post; skip comments and other kinds
		if child.Kind != "t3" {
			continue
		}
		if child.Data.ID == "" {
			continue
		}

		subredditName := child.Data.Subreddit
		if subredditName == "" {
			subredditName = subreddit
		}

		body := child.Data.Selftext
		if len(body) > maxBodyLength {
			body = body[:maxBodyLength]
		}

		posts = append(posts, Post{
			RedditPostID:    child.Data.ID,
			Subreddit:       subredditName,
			Title:           child.Data.Title,
			Selftext:        body,
			URL:             f.wwwHost + child.Data.Permalink,
			Permalink:       child.Data.Permalink,
			Author:          child.Data.Author,
			Score:           child.Data.Score,
			NumComments:     child.Data.NumComments,
			RedditCreatedAt: time.Unix(int64(child.Data.CreatedUTC), 0).UTC(),
		})
	}

	return posts, nil
}

// get performs one identified GET. A 429 is retried exactly once after a
// fixed backoff; any other non-200 status fails the strategy immediately.
func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	data, status, err := f.doRequest(ctx, url)
	if err != nil {
		return nil, err
	}

	if status == http.StatusTooManyRequests {
		slog.Warn("Rate limited, backing off", "url", url, "backoff", f.rateLimitBackoff.String())
		timer := time.NewTimer(f.rateLimitBackoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		data, status, err = f.doRequest(ctx, url)
		if err != nil {
			return nil, err
		}
	}

	if status != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", status)
	}

	return data, nil
}

func (f *Fetcher) doRequest(ctx context.Context, url string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	// Reddit rejects unidentified or suspicious traffic, so present a
	// realistic browser identity
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("DNT", "1")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, resp.StatusCode, nil
}

var (
	htmlCommentRe    = regexp.MustCompile(`(?s)<!--.*?-->`)
	htmlTagRe        = regexp.MustCompile(`<[^>]+>`)
	whitespaceRunsRe = regexp.MustCompile(`\s+`)
)

// htmlToText reduces the HTML fragment inside a feed entry's content element
// to plain text: comments and tags removed, entities decoded, whitespace
// collapsed.
func htmlToText(content string) string {
	text := htmlCommentRe.ReplaceAllString(content, " ")
	text = htmlTagRe.ReplaceAllString(text, " ")
	text = html.UnescapeString(text)
	text = whitespaceRunsRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

var postIDSanitizeRe = regexp.MustCompile(`[^a-zA-Z0-9]`)

// sanitizePostID extracts the bare post id from an Atom entry id, which
// looks like "t3_1abcde".
func sanitizePostID(guid string) string {
	id := guid
	if idx := strings.LastIndex(id, "t3_"); idx >= 0 {
		id = id[idx+len("t3_"):]
	}
	return postIDSanitizeRe.ReplaceAllString(id, "")
}
