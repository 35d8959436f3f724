// Package mongo implements store.Store on MongoDB through the grove driver.
//
// Records live in one collection keyed by store key; a counter document
// hands out insertion sequence numbers. Commit runs inside a multi-document
// transaction, so the server must be a replica set or sharded cluster.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/vesting/store"
)

// Collection name constants.
const (
	colRecords  = "vesting_kv"
	colCounters = "vesting_kv_counters"

	seqCounterID = "seq"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the scan index.
func (s *Store) Migrate(ctx context.Context) error {
	for col, models := range migrationIndexes() {
		if _, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("vesting/mongo: migrate %s indexes: %w", col, err)
		}
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

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var m recordModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": key}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("vesting/mongo: get %s: %w", key, err)
	}
	return m.Value, nil
}

func (s *Store) Scan(ctx context.Context, prefix string, offset, limit int) ([]store.Entry, error) {
	var models []recordModel

	filter := bson.M{"collection": store.Collection(prefix)}
	if prefix != store.Collection(prefix) {
		filter["_id"] = bson.M{"$regex": "^" + regexp.QuoteMeta(prefix)}
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "seq", Value: 1}})

	if limit > 0 {
		q = q.Limit(int64(limit))
	}
	if offset > 0 {
		q = q.Skip(int64(offset))
	}

	if err := q.Scan(ctx); err != nil {
		if isNoDocuments(err) {
			return []store.Entry{}, nil
		}
		return nil, fmt.Errorf("vesting/mongo: scan %s: %w", prefix, err)
	}

	result := make([]store.Entry, len(models))
	for i := range models {
		result[i] = models[i].entry()
	}
	return result, nil
}

// Commit applies the batch in a transaction.
func (s *Store) Commit(ctx context.Context, b *store.Batch) error {
	ops := b.Ops()
	if len(ops) == 0 {
		return nil
	}

	records := s.mdb.Collection(colRecords)
	counters := s.mdb.Collection(colCounters)

	sess, err := records.Database().Client().StartSession()
	if err != nil {
		return fmt.Errorf("vesting/mongo: start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		for _, op := range ops {
			if err := apply(ctx, records, counters, op); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		var se mongo.ServerError
		if errors.As(err, &se) && se.HasErrorLabel("TransientTransactionError") {
			return fmt.Errorf("vesting/mongo: commit %d ops: %w: %w", len(ops), store.ErrConflict, err)
		}
		return fmt.Errorf("vesting/mongo: commit %d ops: %w", len(ops), err)
	}
	return nil
}

func apply(ctx context.Context, records, counters *mongo.Collection, op store.Op) error {
	if op.Delete {
		if _, err := records.DeleteOne(ctx, bson.M{"_id": op.Key}); err != nil {
			return fmt.Errorf("delete %s: %w", op.Key, err)
		}
		return nil
	}

	res, err := records.UpdateOne(ctx,
		bson.M{"_id": op.Key},
		bson.M{"$set": bson.M{"value": op.Value}},
	)
	if err != nil {
		return fmt.Errorf("put %s: %w", op.Key, err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	seq, err := nextSeq(ctx, counters)
	if err != nil {
		return err
	}
	m := &recordModel{
		Key:        op.Key,
		Collection: store.Collection(op.Key),
		Seq:        seq,
		Value:      op.Value,
	}
	if _, err := records.InsertOne(ctx, m); err != nil {
		return fmt.Errorf("insert %s: %w", op.Key, err)
	}
	return nil
}

func nextSeq(ctx context.Context, counters *mongo.Collection) (int64, error) {
	var c counterModel
	err := counters.FindOneAndUpdate(ctx,
		bson.M{"_id": seqCounterID},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&c)
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return c.Seq, nil
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for the store collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colRecords: {
			{
				Keys:    bson.D{{Key: "collection", Value: 1}, {Key: "seq", Value: 1}},
				Options: options.Index().SetName("idx_kv_scan"),
			},
		},
	}
}
