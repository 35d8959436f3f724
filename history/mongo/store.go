// Package mongo stores the history trail in MongoDB through the grove ORM.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/vesting/history"
	"github.com/xraph/vesting/id"
)

const colHistory = "vesting_history"

// compile-time interface check
var _ history.Store = (*Store)(nil)

// Store implements history.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB history store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the history collection indexes.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.mdb.Collection(colHistory).Indexes().CreateMany(ctx, migrationIndexes())
	if err != nil {
		return fmt.Errorf("history/mongo: migrate %s indexes: %w", colHistory, err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Append(ctx context.Context, e *history.Event) error {
	_, err := s.mdb.NewInsert(toEventModel(e)).Exec(ctx)
	if err != nil {
		return fmt.Errorf("history/mongo: append: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, eventID id.EventID) (*history.Event, error) {
	var m eventModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": eventID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, history.ErrNotFound
		}
		return nil, fmt.Errorf("history/mongo: get: %w", err)
	}
	return fromEventModel(&m)
}

func (s *Store) List(ctx context.Context, opts history.ListOpts) ([]*history.Event, error) {
	var models []eventModel

	filter := bson.M{}
	if opts.Resource != "" {
		filter["resource"] = opts.Resource
	}
	if opts.ResourceID != "" {
		filter["resource_id"] = opts.ResourceID
	}
	if opts.Action != "" {
		filter["action"] = opts.Action
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("history/mongo: list: %w", err)
	}

	result := make([]*history.Event, len(models))
	for i := range models {
		e, err := fromEventModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = e
	}
	return result, nil
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for the history collection.
func migrationIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "resource", Value: 1}, {Key: "resource_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "action", Value: 1}, {Key: "created_at", Value: -1}}},
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}},
			Options: options.Index().SetName("idx_history_order"),
		},
	}
}
