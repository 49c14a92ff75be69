//go:build integration

package status

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Sternrassler/listing-crawler/internal/testutil"
	"github.com/Sternrassler/listing-crawler/pkg/config"
	"github.com/Sternrassler/listing-crawler/pkg/listing"
	"github.com/Sternrassler/listing-crawler/pkg/pagination"
	"github.com/Sternrassler/listing-crawler/pkg/record"
)

// setupRedis starts a Redis container and returns a client
func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("Failed to get Redis endpoint: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("Failed to connect to Redis: %v", err)
	}

	t.Cleanup(func() {
		client.Close()
		container.Terminate(context.Background())
	})

	return client
}

func TestStore_Integration_CrawlReportsFinalState(t *testing.T) {
	client := setupRedis(t)
	store := NewStore(client, zerolog.Nop(), time.Hour)

	site := testutil.NewMockSite(t)
	site.SetListing(1, testutil.Listing{ID: 1, Status: "buy", Type: "apartment", Price: 1000, Area: 90, YearBuilt: 1399})
	site.SetListing(2, testutil.Listing{ID: 2, Status: "buy", Type: "apartment", Price: 2000, Area: 80, YearBuilt: 1400})

	cfg, err := config.New("https://www.ariamarz.com/buy-apartment/tehran", config.WithConcurrencyLimit(2))
	if err != nil {
		t.Fatalf("config.New() error = %v", err)
	}

	src := listing.NewSource(cfg, listing.WithBaseURL(site.URL()), listing.WithLogger(zerolog.Nop()))
	scheduler := pagination.NewScheduler[record.Record](src, cfg,
		pagination.WithReporter(store),
		pagination.WithLogger(zerolog.Nop()),
	)

	records := 0
	if err := scheduler.Run(context.Background(), func(batch []record.Record) error {
		records += len(batch)
		return nil
	}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	latest, err := store.Latest(context.Background(), "tehran")
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if latest.State != pagination.StateDone {
		t.Errorf("State = %v, want %v", latest.State, pagination.StateDone)
	}
	if latest.Records != records || records != 2 {
		t.Errorf("Records = %d (consumer saw %d), want 2", latest.Records, records)
	}
}
