// A shared test server setup utility, which simplifies all API tests.

package testutil

import (
	"database/sql"
	"testing"

	"github.com/soramanga/sora-go/internal/api"
	"github.com/soramanga/sora-go/internal/catalog"
	"github.com/soramanga/sora-go/internal/config"
	"github.com/soramanga/sora-go/internal/core"
	"github.com/soramanga/sora-go/internal/library"
	"github.com/soramanga/sora-go/internal/recommend"
)

// SetupTestApp initializes a core.App over an in-memory database and a
// catalog client pointed at the given mock upstream URLs. No AI advisor is
// wired, so recommendation tests exercise the fallback paths.
func SetupTestApp(t *testing.T, apiURL, imageURL string) *core.App {
	t.Helper()
	database := SetupTestDB(t)

	catalogClient := catalog.New(apiURL, imageURL)
	libraryStore, err := library.New(database, catalogClient.CoverThumbURL)
	if err != nil {
		t.Fatalf("Failed to set up library store: %v", err)
	}

	return &core.App{
		Config:      &config.Config{},
		DB:          database,
		Catalog:     catalogClient,
		Library:     libraryStore,
		Recommender: recommend.NewEngine(catalogClient, nil),
		Version:     "test",
	}
}

// SetupTestServer initializes a full core.App and api.Server for integration
// testing.
func SetupTestServer(t *testing.T, apiURL, imageURL string) (*api.Server, *sql.DB) {
	t.Helper()
	app := SetupTestApp(t, apiURL, imageURL)
	return api.NewServer(app), app.DB
}
