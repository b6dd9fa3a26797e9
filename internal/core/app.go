package core

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/soramanga/sora-go/internal/catalog"
	"github.com/soramanga/sora-go/internal/config"
	"github.com/soramanga/sora-go/internal/db"
	"github.com/soramanga/sora-go/internal/library"
	"github.com/soramanga/sora-go/internal/recommend"
)

// Version is set at build time.
var Version = "dev"

// App holds the core components of the application shared by the server.
type App struct {
	Config      *config.Config
	DB          *sql.DB
	Catalog     *catalog.Client
	Library     *library.Store
	Recommender *recommend.Engine
	Version     string
}

// New sets up and returns a new App instance. It handles loading the
// configuration, initializing the database connection, running migrations
// and wiring the catalog client, library store and recommendation engine.
func New() (*App, error) {
	// Load configuration from config.yml
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize the database connection
	database, err := db.InitDB(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Run database migrations
	if err := db.RunMigrations(database); err != nil {
		// We can't proceed without a valid database schema.
		// Close the DB connection before failing.
		database.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	catalogClient := catalog.New(cfg.Catalog.APIURL, cfg.Catalog.ImageURL)

	libraryStore, err := library.New(database, catalogClient.CoverThumbURL)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to load library: %w", err)
	}

	// Without an AI credential the profiling and reason calls are disabled;
	// the popular-titles fallback still works.
	var advisor recommend.Advisor
	if cfg.AI.APIKey != "" {
		advisor = recommend.NewOpenAIAdvisor(cfg.AI.APIKey, cfg.AI.BaseURL, cfg.AI.Model, cfg.AI.Temperature)
	} else {
		log.Println("No AI API key configured; recommendation profiling disabled.")
	}

	log.Println("Core application setup complete.")
	return &App{
		Config:      cfg,
		DB:          database,
		Catalog:     catalogClient,
		Library:     libraryStore,
		Recommender: recommend.NewEngine(catalogClient, advisor),
		Version:     Version,
	}, nil
}

// Close gracefully closes the application's resources, like the DB connection.
func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}
