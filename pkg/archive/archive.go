// Package archive stores completed benchmark runs so they can be listed and
// compared later.
//
// Four backends implement [Store]:
//
//   - [FileStore] keeps one JSON file per run under a directory (CLI default)
//   - [NullStore] discards everything (archiving disabled)
//   - [RedisStore] keeps runs as keys plus a sorted index by creation time
//   - [MongoStore] keeps runs as documents in a "runs" collection
//
// Use [Open] to build the backend named in configuration.
package archive

import (
	"context"
	"time"

	lberrors "github.com/matzehuels/labelbench/pkg/errors"
)

// Backend names accepted by Open.
const (
	BackendFile  = "file"
	BackendNull  = "null"
	BackendRedis = "redis"
	BackendMongo = "mongo"
)

// Backends lists the accepted backend names.
var Backends = []string{BackendFile, BackendNull, BackendRedis, BackendMongo}

// ErrNotFound is returned by Get when no run has the requested id.
var ErrNotFound = lberrors.New(lberrors.ErrCodeNotFound, "run not found")

// Record is one archived run. Data holds the JSON-encoded run result.
type Record struct {
	ID        string    `json:"id" bson:"_id"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	Version   string    `json:"version" bson:"version"`
	Summary   string    `json:"summary" bson:"summary"`
	Data      []byte    `json:"data" bson:"data"`
}

// Store persists run records.
type Store interface {
	// Put stores rec, replacing any record with the same id.
	Put(ctx context.Context, rec Record) error

	// Get returns the record with the given id, or ErrNotFound.
	Get(ctx context.Context, id string) (Record, error)

	// List returns up to limit records, newest first. limit <= 0 means all.
	List(ctx context.Context, limit int) ([]Record, error)

	// Close releases backend resources.
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Backend  string
	Dir      string // file backend
	URL      string // redis or mongo connection URL
	Database string // mongo database name
}

// Open connects to the backend named in opts.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case BackendFile, "":
		return NewFileStore(opts.Dir)
	case BackendNull:
		return NewNullStore(), nil
	case BackendRedis:
		return NewRedisStore(ctx, opts.URL)
	case BackendMongo:
		return NewMongoStore(ctx, opts.URL, opts.Database)
	default:
		return nil, lberrors.New(lberrors.ErrCodeUnsupported, "unknown archive backend %q", opts.Backend)
	}
}

func wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return lberrors.Wrap(lberrors.ErrCodeArchive, err, format, args...)
}
