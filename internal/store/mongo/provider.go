// Package mongo implements the log store on MongoDB: validated
// append-only writes, the index-backed query surface, run-once
// provisioning, and the background retention reaper.
package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Provider owns the client connection and the target database.
type Provider struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewProvider connects to MongoDB and verifies the connection with a
// ping before handing out the provider.
func NewProvider(ctx context.Context, uri string, dbName string) (*Provider, error) {
	clientOpts := options.Client().ApplyURI(uri)
	if clientOpts.ConnectTimeout == nil {
		timeout := 10 * time.Second
		clientOpts.SetConnectTimeout(timeout)
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, err
	}

	return &Provider{
		client: client,
		db:     client.Database(dbName),
	}, nil
}

// Client returns the underlying MongoDB client.
func (p *Provider) Client() *mongo.Client {
	return p.client
}

// Database returns the target database handle.
func (p *Provider) Database() *mongo.Database {
	return p.db
}

// Close disconnects the client.
func (p *Provider) Close(ctx context.Context) error {
	return p.client.Disconnect(ctx)
}
