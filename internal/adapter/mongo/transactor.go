package mongo

import (
	"context"
	"fmt"

	"github.com/Abdurahmanit/GroupProject/rental-service/internal/repository"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

type transactor struct {
	client  *mongo.Client
	enabled bool
}

// NewTransactor returns a Transactor backed by client sessions. With enabled
// false (standalone servers) fn runs directly against ctx and nothing is
// rolled back.
func NewTransactor(client *mongo.Client, enabled bool) repository.Transactor {
	return &transactor{client: client, enabled: enabled}
}

func (t *transactor) Atomic() bool {
	return t.enabled
}

func (t *transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !t.enabled {
		return fn(ctx)
	}

	session, err := t.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start mongo session: %w", err)
	}
	defer session.EndSession(ctx)

	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	}, txnOpts)
	return err
}
