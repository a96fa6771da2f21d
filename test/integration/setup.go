package integration

import (
	"context"
	"testing"
	"time"

	"sweet-heaven/internal/apiclient"
	"sweet-heaven/internal/apiclient/apitest"
	"sweet-heaven/internal/config"
	"sweet-heaven/internal/database"
	"sweet-heaven/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Now is the fixed instant every integration test runs at.
var Now = time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)

// Clock returns Now.
func Clock() time.Time { return Now }

// Catalogue is the bakery the fake backend serves.
var Catalogue = []model.Product{
	{ID: 1, Name: "Croissant", Price: 100, Category: "pastry", Detail: "Butter croissant", Images: []string{"croissant.jpg"}, Stock: 20},
	{ID: 2, Name: "Eclair", Price: 50, Category: "pastry", Stock: 10},
	{ID: 3, Name: "Baguette", Price: 35.5, Category: "bread", Stock: 5},
}

// EclairPromotion is 10% off eclairs through January 2025.
var EclairPromotion = model.Promotion{
	ProductID:   2,
	Name:        "Eclair week",
	Description: "10% off eclairs",
	Discount:    10,
	StartDate:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	EndDate:     time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
	IsActive:    true,
}

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	Config    config.DatabaseConfig
}

// SetupTestDB creates a PostgreSQL test container with the local cart
// schema and a pool built the way the storefront builds it.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	host, err := postgresContainer.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get container host: %v", err)
	}
	port, err := postgresContainer.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("failed to get container port: %v", err)
	}

	dbConfig := config.DatabaseConfig{
		Host:            host,
		Port:            port.Int(),
		User:            "testuser",
		Password:        "testpass",
		Database:        "testdb",
		MaxConnections:  10,
		MinConnections:  2,
		MaxConnLifetime: 300,
	}

	pool, err := database.NewPool(ctx, dbConfig, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := database.EnsureSchema(ctx, pool); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		Config:    dbConfig,
	}
}

// CleanupDB cleans all data from test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	if _, err := pool.Exec(context.Background(), "TRUNCATE cart_items, products"); err != nil {
		t.Logf("failed to clean tables: %v", err)
	}
}

// SetupBackend starts a fake storefront API with the sample catalogue and
// the eclair promotion, and returns it with a client pointed at it.
func SetupBackend(t *testing.T) (*apitest.Server, *apiclient.Client) {
	t.Helper()

	server := apitest.NewServer(Catalogue...)
	server.Now = Clock
	server.APIKey = "test-api-key"
	server.AddPromotion(EclairPromotion)
	t.Cleanup(server.Close)

	client, err := apiclient.New(apiclient.Options{
		BaseURL: server.BaseURL(),
		APIKey:  server.APIKey,
		Timeout: 5 * time.Second,
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to create API client: %v", err)
	}

	return server, client
}
