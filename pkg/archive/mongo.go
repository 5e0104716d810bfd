package archive

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/labelbench/pkg/observability"
)

// MongoCollection is the collection runs are stored in.
const MongoCollection = "runs"

// DefaultMongoDatabase is used when no database name is configured.
const DefaultMongoDatabase = "labelbench"

// MongoStore keeps each run as a document keyed by its id.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to the MongoDB deployment at url and pings it.
func NewMongoStore(ctx context.Context, url, database string) (*MongoStore, error) {
	if database == "" {
		database = DefaultMongoDatabase
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(url))
	if err != nil {
		return nil, wrap(err, "connect to mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, wrap(err, "ping mongo")
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(MongoCollection),
	}, nil
}

// Put upserts rec.
func (s *MongoStore) Put(ctx context.Context, rec Record) error {
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": rec.ID}, rec, options.Replace().SetUpsert(true))
	if err != nil {
		return wrap(err, "store run %s", rec.ID)
	}
	observability.Archive().OnArchivePut(ctx, BackendMongo, len(rec.Data))
	return nil
}

// Get reads the run with the given id.
func (s *MongoStore) Get(ctx context.Context, id string) (Record, error) {
	var rec Record
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		observability.Archive().OnArchiveMiss(ctx, BackendMongo)
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, wrap(err, "read run %s", id)
	}
	observability.Archive().OnArchiveHit(ctx, BackendMongo)
	return rec, nil
}

// List returns runs sorted by creation time, newest first.
func (s *MongoStore) List(ctx context.Context, limit int) ([]Record, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, wrap(err, "list runs")
	}
	var recs []Record
	if err := cur.All(ctx, &recs); err != nil {
		return nil, wrap(err, "decode runs")
	}
	return recs, nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}

// Ensure MongoStore implements Store.
var _ Store = (*MongoStore)(nil)
