// Package resultstore remembers the last outcome of every test, so that a client connecting later
// can show results from earlier runs. The backend is chosen by a DSN:
//
//	memory:
//	redis://localhost:6379/0
//	consul://localhost:8500/psl-test-adapter
//	dynamodb://table-name?region=us-east-1&endpoint=http://localhost:8000
package resultstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	o "github.com/pslkit/psl-test-adapter/framework/opt"
)

// ErrUnknownScheme is returned by Open for a DSN whose scheme names no backend.
var ErrUnknownScheme = errors.New("unknown result store scheme")

// Record is the last known outcome of one test.
type Record struct {
	ID      string    `json:"id"`
	State   string    `json:"state"`
	Message string    `json:"message,omitempty"`
	RunID   string    `json:"runId,omitempty"`
	Time    time.Time `json:"time"`
}

type Store interface {
	Put(ctx context.Context, record Record) error
	Get(ctx context.Context, id string) (o.Maybe[Record], error)
	Close() error
}

// Open creates the store described by dsn. Remote backends connect lazily.
func Open(ctx context.Context, dsn string) (Store, error) {
	if dsn == "" || dsn == "memory:" || dsn == "memory" {
		return NewMemoryStore(), nil
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid result store DSN: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "memory":
		return NewMemoryStore(), nil
	case "redis", "rediss":
		return newRedisStore(dsn)
	case "consul":
		return newConsulStore(u)
	case "dynamodb":
		return newDynamoDBStore(ctx, u)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, u.Scheme)
	}
}

func marshalRecord(r Record) ([]byte, error) {
	return json.Marshal(r)
}

func unmarshalRecord(data []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return Record{}, fmt.Errorf("malformed stored result: %w", err)
	}
	return r, nil
}
