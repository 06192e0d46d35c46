package scan

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/akarpov/redscout/app/database"
	"github.com/akarpov/redscout/app/keywords"
	"github.com/akarpov/redscout/app/reddit"
)

type fakeFetcher struct {
	posts  map[string][]reddit.Post
	errors map[string]error
	calls  []string
}

func (f *fakeFetcher) FetchRecent(_ context.Context, subreddit string, _ int) ([]reddit.Post, error) {
	f.calls = append(f.calls, subreddit)
	if err := f.errors[subreddit]; err != nil {
		return nil, err
	}
	return f.posts[subreddit], nil
}

type fakeNotifier struct {
	delivered bool
	received  []database.Match
	calls     int
}

func (n *fakeNotifier) Notify(matches []database.Match) bool {
	n.calls++
	n.received = matches
	return n.delivered
}

func newTestScanner(t *testing.T, catalog *keywords.Catalog, fetcher Fetcher,
	notifier Notifier) (*Scanner, *database.MatchRepo, *database.ScanLogRepo) {
	t.Helper()

	db := newTestDB(t)
	matchRepo := database.NewMatchRepository(db)
	scanLogRepo := database.NewScanLogRepository(db)

	scanner := NewScanner(catalog, keywords.NewScorer(catalog), fetcher,
		NewGate(matchRepo), notifier, matchRepo, scanLogRepo, 25)
	scanner.pause = 0

	return scanner, matchRepo, scanLogRepo
}

func TestScanner_Run_IsolatesSubredditFailures(t *testing.T) {
	catalog := testKeywordCatalog(t, "broken", "freelance")
	fetcher := &fakeFetcher{
		posts: map[string][]reddit.Post{
			"freelance": {testPost("ok1")},
		},
		errors: map[string]error{
			"broken": errors.New("HTTP 403"),
		},
	}

	scanner, _, scanLogRepo := newTestScanner(t, catalog, fetcher, nil)

	summary := scanner.Run(context.Background())

	if !reflect.DeepEqual(summary.SubredditsScanned, []string{"freelance"}) {
		t.Errorf("Expected only the healthy subreddit recorded, got %v", summary.SubredditsScanned)
	}
	if len(summary.Errors) != 1 {
		t.Fatalf("Expected 1 error, got %v", summary.Errors)
	}
	if !strings.Contains(summary.Errors[0], "error scanning r/broken") {
		t.Errorf("Unexpected error message: '%s'", summary.Errors[0])
	}
	if summary.MatchesFound != 1 {
		t.Errorf("Expected 1 match from the healthy subreddit, got %d", summary.MatchesFound)
	}

	last, err := scanLogRepo.GetLast()
	if err != nil {
		t.Fatalf("scan log lookup failed: %v", err)
	}
	if last == nil {
		t.Fatal("Expected scan log row despite the failure")
	}
	if !strings.Contains(last.Errors, "r/broken") {
		t.Errorf("Expected failure recorded in scan log, got '%s'", last.Errors)
	}
}

func TestScanner_Run_SkipsOldPosts(t *testing.T) {
	catalog := testKeywordCatalog(t)
	old := testPost("old1")
	old.RedditCreatedAt = time.Now().UTC().Add(-72 * time.Hour)

	fetcher := &fakeFetcher{posts: map[string][]reddit.Post{
		"freelance": {old, testPost("fresh1")},
	}}

	scanner, matchRepo, _ := newTestScanner(t, catalog, fetcher, nil)

	summary := scanner.Run(context.Background())

	if summary.PostsChecked != 2 {
		t.Errorf("Expected 2 posts checked, got %d", summary.PostsChecked)
	}
	if summary.MatchesFound != 1 {
		t.Errorf("Expected only fresh post admitted, got %d", summary.MatchesFound)
	}

	stale, err := matchRepo.GetByPostID("old1")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if stale != nil {
		t.Error("Expected stale post to be ignored")
	}
}

func TestScanner_Run_NotifierSuccessStampsMatches(t *testing.T) {
	catalog := testKeywordCatalog(t)
	fetcher := &fakeFetcher{posts: map[string][]reddit.Post{
		"freelance": {testPost("abc123")},
	}}
	notifier := &fakeNotifier{delivered: true}

	scanner, matchRepo, scanLogRepo := newTestScanner(t, catalog, fetcher, notifier)

	summary := scanner.Run(context.Background())

	if notifier.calls != 1 {
		t.Fatalf("Expected 1 notification, got %d", notifier.calls)
	}
	if len(notifier.received) != 1 {
		t.Fatalf("Expected 1 match delivered, got %d", len(notifier.received))
	}

	stored, err := matchRepo.GetByID(summary.NewMatches[0].ID)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if stored.NotifiedAt == nil {
		t.Error("Expected notified_at stamped after delivery")
	}

	last, err := scanLogRepo.GetLast()
	if err != nil {
		t.Fatalf("scan log lookup failed: %v", err)
	}
	if last.MatchesFound != 1 {
		t.Errorf("Expected scan log matches_found=1, got %d", last.MatchesFound)
	}
	if last.Errors != "" {
		t.Errorf("Expected clean scan log, got errors '%s'", last.Errors)
	}
}

func TestScanner_Run_NotifierFailureLeavesMatchesUnstamped(t *testing.T) {
	catalog := testKeywordCatalog(t)
	fetcher := &fakeFetcher{posts: map[string][]reddit.Post{
		"freelance": {testPost("abc123")},
	}}
	notifier := &fakeNotifier{delivered: false}

	scanner, matchRepo, scanLogRepo := newTestScanner(t, catalog, fetcher, notifier)

	summary := scanner.Run(context.Background())

	if summary.MatchesFound != 1 {
		t.Fatalf("Expected match found regardless of delivery, got %d", summary.MatchesFound)
	}

	stored, err := matchRepo.GetByID(summary.NewMatches[0].ID)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if stored.NotifiedAt != nil {
		t.Error("Expected notified_at unset after failed delivery")
	}

	last, err := scanLogRepo.GetLast()
	if err != nil {
		t.Fatalf("scan log lookup failed: %v", err)
	}
	if last == nil {
		t.Fatal("Expected scan log written despite failed delivery")
	}
}

func TestScanner_Run_NoNotificationWithoutNewMatches(t *testing.T) {
	catalog := testKeywordCatalog(t)
	boring := testPost("dull1")
	boring.Title = "Weekly gig thread"
	boring.Selftext = "Post your availability here."

	fetcher := &fakeFetcher{posts: map[string][]reddit.Post{
		"freelance": {boring},
	}}
	notifier := &fakeNotifier{delivered: true}

	scanner, _, _ := newTestScanner(t, catalog, fetcher, notifier)

	scanner.Run(context.Background())

	if notifier.calls != 0 {
		t.Errorf("Expected no notification for a matchless run, got %d calls", notifier.calls)
	}
}

func TestScanner_Run_SecondRunIsIdempotent(t *testing.T) {
	catalog := testKeywordCatalog(t)
	fetcher := &fakeFetcher{posts: map[string][]reddit.Post{
		"freelance": {testPost("abc123")},
	}}

	scanner, matchRepo, _ := newTestScanner(t, catalog, fetcher, nil)

	first := scanner.Run(context.Background())
	second := scanner.Run(context.Background())

	if first.MatchesFound != 1 {
		t.Errorf("Expected first run to find the match, got %d", first.MatchesFound)
	}
	if second.MatchesFound != 0 {
		t.Errorf("Expected repeat run to find nothing new, got %d", second.MatchesFound)
	}

	matches, err := matchRepo.List(database.MatchFilter{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(matches) != 1 {
		t.Errorf("Expected exactly 1 stored match, got %d", len(matches))
	}
}

func TestScanner_Run_CancelledContextStopsPacing(t *testing.T) {
	catalog := testKeywordCatalog(t, "first", "second")
	fetcher := &fakeFetcher{posts: map[string][]reddit.Post{}}

	scanner, _, _ := newTestScanner(t, catalog, fetcher, nil)
	scanner.pause = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary := scanner.Run(ctx)

	if !reflect.DeepEqual(fetcher.calls, []string{"first"}) {
		t.Errorf("Expected run truncated after first subreddit, got calls %v", fetcher.calls)
	}
	if len(summary.SubredditsScanned) != 1 {
		t.Errorf("Expected 1 subreddit recorded, got %v", summary.SubredditsScanned)
	}
}
