//go:build integration

package mongo

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Abdurahmanit/GroupProject/rental-service/internal/app/config"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/repository"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

var testClient *mongo.Client

// TestMain starts a single-node replica set so transactions are available.
func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("Could not construct pool: %s", err)
	}
	if err = pool.Client.Ping(); err != nil {
		log.Fatalf("Could not connect to Docker: %s", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mongo",
		Tag:        "7.0",
		Cmd:        []string{"--replSet", "rs0", "--bind_ip_all"},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		log.Fatalf("Could not start mongo: %s", err)
	}
	_ = resource.Expire(180)

	uri := fmt.Sprintf("mongodb://localhost:%s/?directConnection=true", resource.GetPort("27017/tcp"))
	pool.MaxWait = 2 * time.Minute
	if err := pool.Retry(func() error {
		ctx := context.Background()
		client, err := NewClient(ctx, config.MongoDBConfig{URI: uri})
		if err != nil {
			return err
		}
		initiate := bson.D{{Key: "replSetInitiate", Value: bson.D{
			{Key: "_id", Value: "rs0"},
			{Key: "members", Value: bson.A{bson.D{{Key: "_id", Value: 0}, {Key: "host", Value: "localhost:27017"}}}},
		}}}
		// Fails with AlreadyInitialized on retries, which is fine.
		_ = client.Database("admin").RunCommand(ctx, initiate).Err()

		var hello bson.M
		if err := client.Database("admin").RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&hello); err != nil {
			return err
		}
		if primary, _ := hello["isWritablePrimary"].(bool); !primary {
			_ = client.Disconnect(ctx)
			return errors.New("replica set has no primary yet")
		}
		testClient = client
		return nil
	}); err != nil {
		log.Fatalf("Could not connect to mongo: %s", err)
	}

	code := m.Run()

	_ = testClient.Disconnect(context.Background())
	if err := pool.Purge(resource); err != nil {
		log.Printf("Could not purge mongo: %s", err)
	}
	os.Exit(code)
}

func freshDB(t *testing.T) *mongo.Database {
	t.Helper()
	db := testClient.Database(fmt.Sprintf("rental_test_%d", time.Now().UnixNano()))
	require.NoError(t, EnsureIndexes(context.Background(), db))
	// Collections must exist before they are written inside a transaction on older servers.
	for _, name := range []string{listingsCollectionName, applicationsCollectionName, secureStringsCollectionName} {
		_ = db.CreateCollection(context.Background(), name)
	}
	t.Cleanup(func() { _ = db.Drop(context.Background()) })
	return db
}

func createTestListing(t *testing.T, repo repository.ListingRepository) string {
	t.Helper()
	id, err := repo.Create(context.Background(), repository.CreateListingParams{
		OwnerUUID:   "owner",
		Title:       "Canoe",
		Description: "fits two",
		Price:       entity.Price{Amount: 4000, Unit: entity.PriceUnitDay},
	})
	require.NoError(t, err)
	return id
}

func TestListingRepository_Integration(t *testing.T) {
	ctx := context.Background()
	repo := NewListingRepository(freshDB(t))
	id := createTestListing(t, repo)

	l, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, entity.ListingStatusAvailable, l.Status)

	require.NoError(t, repo.MarkPending(ctx, id, "alice", "app-1"))
	require.NoError(t, repo.MarkPending(ctx, id, "alice", "app-1"))
	assert.ErrorIs(t, repo.MarkPending(ctx, id, "alice", "app-2"), repository.ErrOptimisticLock)
	assert.ErrorIs(t, repo.MarkPending(ctx, id, "bob", "app-3"), repository.ErrOptimisticLock)
	assert.ErrorIs(t, repo.MarkPending(ctx, "missing", "bob", "app-3"), repository.ErrNotFound)

	require.NoError(t, repo.AddImage(ctx, id, "http://minio.test/a.png"))
	require.NoError(t, repo.MarkRented(ctx, id, "alice"))
	l, err = repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, entity.ListingStatusRented, l.Status)
	assert.False(t, l.Active)
	assert.True(t, l.TenantIs("alice"))
	assert.True(t, l.IsHeldFor("app-1"))
	assert.Equal(t, []string{"http://minio.test/a.png"}, l.ImageURIs)

	active, err := repo.List(ctx, repository.ListListingsParams{ActiveOnly: true})
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestApplicationRepository_Integration(t *testing.T) {
	ctx := context.Background()
	repo := NewApplicationRepository(freshDB(t))
	create := func(listing, user string) string {
		id, err := repo.Create(ctx, repository.CreateApplicationParams{ListingID: listing, UserUUID: user, Description: "x", DaysRenting: 2})
		require.NoError(t, err)
		return id
	}
	keep := create("l1", "alice")
	other := create("l1", "bob")
	foreign := create("l2", "carol")

	err := repo.UpdateStatus(ctx, repository.UpdateApplicationStatusParams{
		ApplicationID: keep,
		From:          []entity.ApplicationStatus{entity.ApplicationStatusApproved},
		To:            entity.ApplicationStatusConfirmed,
	})
	assert.ErrorIs(t, err, repository.ErrOptimisticLock)

	require.NoError(t, repo.UpdateStatus(ctx, repository.UpdateApplicationStatusParams{
		ApplicationID: keep,
		From:          []entity.ApplicationStatus{entity.ApplicationStatusPending},
		To:            entity.ApplicationStatusApproved,
	}))
	rejected, err := repo.RejectOthers(ctx, "l1", keep)
	require.NoError(t, err)
	require.Len(t, rejected, 1)
	assert.Equal(t, other, rejected[0].ID)

	f, err := repo.GetByID(ctx, foreign)
	require.NoError(t, err)
	assert.Equal(t, entity.ApplicationStatusPending, f.Status)

	byListings, err := repo.ListByListings(ctx, []string{"l1", "l2"})
	require.NoError(t, err)
	assert.Len(t, byListings, 3)
}

func TestSecureTokenRepository_ClaimOnce_Integration(t *testing.T) {
	ctx := context.Background()
	repo := NewSecureTokenRepository(freshDB(t))
	tok, err := entity.NewSecureToken("alice", "l1", "a1")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, tok))
	assert.ErrorIs(t, repo.Create(ctx, tok), repository.ErrAlreadyExists)

	_, err = repo.Claim(ctx, tok.ID, entity.TokenMatch{ListingID: "l1", ApplicationID: "a1", ApplicantUUID: "bob"})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	var wg sync.WaitGroup
	var won atomic.Int32
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.Claim(ctx, tok.ID, entity.TokenMatch{ListingID: "l1", ApplicationID: "a1"}); err == nil {
				won.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), won.Load())
}

func TestTransactor_RollsBack_Integration(t *testing.T) {
	ctx := context.Background()
	db := freshDB(t)
	listings := NewListingRepository(db)
	tokens := NewSecureTokenRepository(db)
	tx := NewTransactor(testClient, true)
	require.True(t, tx.Atomic())

	id := createTestListing(t, listings)
	tok, err := entity.NewSecureToken("alice", id, "a1")
	require.NoError(t, err)
	require.NoError(t, tokens.Create(ctx, tok))

	boom := errors.New("boom")
	err = tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if _, err := tokens.Claim(txCtx, tok.ID, entity.TokenMatch{ListingID: id, ApplicationID: "a1"}); err != nil {
			return err
		}
		if err := listings.MarkRented(txCtx, id, "alice"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	l, err := listings.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, entity.ListingStatusAvailable, l.Status)

	claimed, err := tokens.Claim(ctx, tok.ID, entity.TokenMatch{ListingID: id, ApplicationID: "a1"})
	require.NoError(t, err)
	assert.Equal(t, "alice", claimed.ApplicantUUID)
}

func TestNotificationRepository_Integration(t *testing.T) {
	ctx := context.Background()
	repo := NewNotificationRepository(freshDB(t))

	first, err := repo.Create(ctx, entity.NewNotification("alice", entity.NotificationApplicationApproved, "l1", "a1", entity.NotificationContext{}))
	require.NoError(t, err)
	// created_at is stored with millisecond precision.
	time.Sleep(5 * time.Millisecond)
	_, err = repo.Create(ctx, entity.NewNotification("alice", entity.NotificationReceiptConfirmed, "l1", "a1", entity.NotificationContext{}))
	require.NoError(t, err)

	list, err := repo.ListByUser(ctx, "alice", 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, entity.NotificationReceiptConfirmed, list[0].Type)

	matched, err := repo.MarkRead(ctx, "bob", []string{first})
	require.NoError(t, err)
	assert.Zero(t, matched)
	matched, err = repo.MarkRead(ctx, "alice", []string{first})
	require.NoError(t, err)
	assert.Equal(t, int64(1), matched)
}
