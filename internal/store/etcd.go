package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// EtcdBackend keeps each document under one key. A Put replaces the value
// in a single revision.
type EtcdBackend struct {
	client *clientv3.Client
	prefix string
}

// NewEtcdBackend connects to the given endpoints and checks the cluster is
// reachable
func NewEtcdBackend(ctx context.Context, endpoints []string, prefix string) (*EtcdBackend, error) {
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("etcd: no endpoints")
	}
	client, err := clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client: %w", err)
	}

	statusCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := client.Status(statusCtx, endpoints[0]); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to reach etcd: %w", err)
	}

	return NewEtcdBackendFromClient(client, prefix), nil
}

// NewEtcdBackendFromClient wraps an existing client
func NewEtcdBackendFromClient(client *clientv3.Client, prefix string) *EtcdBackend {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &EtcdBackend{client: client, prefix: prefix}
}

func (b *EtcdBackend) Kind() string { return "etcd" }

func (b *EtcdBackend) key(name string) string {
	return b.prefix + name
}

func (b *EtcdBackend) Read(ctx context.Context, name string) ([]byte, error) {
	resp, err := b.client.Get(ctx, b.key(name))
	if err != nil {
		return nil, fmt.Errorf("failed to read key: %w", err)
	}
	if len(resp.Kvs) == 0 {
		return nil, ErrNotFound
	}
	return resp.Kvs[0].Value, nil
}

func (b *EtcdBackend) Write(ctx context.Context, name string, data []byte) error {
	if _, err := b.client.Put(ctx, b.key(name), string(data)); err != nil {
		return fmt.Errorf("failed to write key: %w", err)
	}
	return nil
}

// Stat reports the key's mod revision. etcd keeps no wall-clock time for
// keys, so Modified is left zero.
func (b *EtcdBackend) Stat(ctx context.Context, name string) (Info, error) {
	resp, err := b.client.Get(ctx, b.key(name), clientv3.WithKeysOnly())
	if err != nil {
		return Info{}, fmt.Errorf("failed to stat key: %w", err)
	}
	if len(resp.Kvs) == 0 {
		return Info{}, ErrNotFound
	}
	return Info{
		Name:     name,
		Location: fmt.Sprintf("etcd:%s@%d", b.key(name), resp.Kvs[0].ModRevision),
	}, nil
}

func (b *EtcdBackend) Close() error {
	return b.client.Close()
}
