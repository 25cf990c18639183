package resultstore

import (
	"context"
	"net/url"
	"strings"

	o "github.com/pslkit/psl-test-adapter/framework/opt"

	consul "github.com/hashicorp/consul/api"
)

const defaultConsulPrefix = "psl-test-adapter"

type consulStore struct {
	consul *consul.Client
	prefix string
}

func newConsulStore(u *url.URL) (*consulStore, error) {
	config := consul.DefaultConfig()
	if u.Host != "" {
		config.Address = u.Host
	}
	if u.Query().Get("scheme") != "" {
		config.Scheme = u.Query().Get("scheme")
	}
	client, err := consul.NewClient(config)
	if err != nil {
		return nil, err
	}
	prefix := strings.Trim(u.Path, "/")
	if prefix == "" {
		prefix = defaultConsulPrefix
	}
	return &consulStore{consul: client, prefix: prefix}, nil
}

func (c *consulStore) key(id string) string {
	return c.prefix + "/results/" + url.PathEscape(id)
}

func (c *consulStore) Put(ctx context.Context, record Record) error {
	data, err := marshalRecord(record)
	if err != nil {
		return err
	}
	_, err = c.consul.KV().Put(&consul.KVPair{Key: c.key(record.ID), Value: data},
		(&consul.WriteOptions{}).WithContext(ctx))
	return err
}

func (c *consulStore) Get(ctx context.Context, id string) (o.Maybe[Record], error) {
	pair, _, err := c.consul.KV().Get(c.key(id), (&consul.QueryOptions{}).WithContext(ctx))
	if err != nil || pair == nil {
		return o.None[Record](), err
	}
	record, err := unmarshalRecord(pair.Value)
	if err != nil {
		return o.None[Record](), err
	}
	return o.Some(record), nil
}

func (c *consulStore) Close() error { return nil }
