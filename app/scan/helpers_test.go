package scan

import (
	"testing"

	"github.com/akarpov/redscout/app/database"
	"github.com/akarpov/redscout/app/keywords"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.NewConnection(":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := database.RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return db
}

func newTestMatchRepo(t *testing.T) *database.MatchRepo {
	t.Helper()
	return database.NewMatchRepository(newTestDB(t))
}

func testKeywordCatalog(t *testing.T, subreddits ...string) *keywords.Catalog {
	t.Helper()

	if len(subreddits) == 0 {
		subreddits = []string{"freelance"}
	}

	catalog, err := keywords.NewCatalog(keywords.Config{
		Subreddits: subreddits,
		Groups: []keywords.Group{
			{Category: "workflow_pain", Weight: 3, Keywords: []string{"too many tools", "juggling apps"}},
			{Category: "invoicing", Weight: 2, Keywords: []string{"invoice clients"}},
		},
	})
	if err != nil {
		t.Fatalf("Failed to build catalog: %v", err)
	}

	return catalog
}
