// db holds the process-wide MongoDB handle. Connection is lazy: nothing is
// dialed until the first caller needs a collection, at most one connect
// attempt is in flight at a time, and a failed attempt is forgotten so the
// next call retries.
package db

import (
	"context"
	"log"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/singleflight"
)

const connectTimeout = 10 * time.Second

// DB is a lazily-connected handle to one MongoDB database.
type DB struct {
	uri  string
	name string

	group  singleflight.Group
	mu     sync.RWMutex
	client *mongo.Client
}

// New prepares a handle without connecting.
func New(uri, name string) *DB {
	return &DB{uri: uri, name: name}
}

// Client returns the connected client, dialing on first use. Concurrent
// callers during a dial share the same attempt.
func (d *DB) Client(ctx context.Context) (*mongo.Client, error) {
	d.mu.RLock()
	client := d.client
	d.mu.RUnlock()
	if client != nil {
		return client, nil
	}

	v, err, _ := d.group.Do("connect", func() (interface{}, error) {
		// Re-check under the group: a previous flight may have connected.
		d.mu.RLock()
		existing := d.client
		d.mu.RUnlock()
		if existing != nil {
			return existing, nil
		}

		// The dial gets its own timeout rather than the caller's deadline:
		// the attempt is shared, so one short-lived request must not abort
		// it for everyone.
		dialCtx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		client, err := mongo.Connect(dialCtx, options.Client().ApplyURI(d.uri))
		if err != nil {
			return nil, err
		}
		if err := client.Ping(dialCtx, nil); err != nil {
			_ = client.Disconnect(dialCtx)
			return nil, err
		}
		log.Println("connected to MongoDB")

		d.mu.Lock()
		d.client = client
		d.mu.Unlock()
		return client, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*mongo.Client), nil
}

// Collection resolves a collection in the configured database, connecting
// if necessary.
func (d *DB) Collection(ctx context.Context, name string) (*mongo.Collection, error) {
	client, err := d.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client.Database(d.name).Collection(name), nil
}

// Disconnect tears down the connection if one was established.
func (d *DB) Disconnect(ctx context.Context) error {
	d.mu.Lock()
	client := d.client
	d.client = nil
	d.mu.Unlock()
	if client == nil {
		return nil
	}
	return client.Disconnect(ctx)
}
