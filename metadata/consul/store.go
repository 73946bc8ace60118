package consul

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/hashicorp/consul/api"
	"github.com/mwantia/assetdb/data"
	"github.com/mwantia/assetdb/metadata"
)

// ConsulStore keeps one JSON document per asset in the Consul KV store.
//
// Keys are the folded asset path below a configurable prefix. Consul KV has a
// 512KB limit per value, far above the size of a record.
type ConsulStore struct {
	mu     sync.RWMutex
	client *api.Client
	kv     *api.KV

	config *ConsulStoreConfig
}

// ConsulStoreConfig contains configuration options for the Consul store
type ConsulStoreConfig struct {
	// Address of the Consul server (default: "127.0.0.1:8500")
	Address string

	// Token for Consul ACL authentication (optional)
	Token string

	// Datacenter to use (optional)
	Datacenter string

	// Namespace for Consul Enterprise (optional)
	Namespace string

	// Prefix for all keys in Consul KV (default: "assetdb/")
	Prefix string
}

func NewConsulStore(config *ConsulStoreConfig) (*ConsulStore, error) {
	if config == nil {
		config = &ConsulStoreConfig{}
	}

	if config.Address == "" {
		config.Address = "127.0.0.1:8500"
	}

	if config.Prefix == "" {
		config.Prefix = "assetdb/"
	}
	if !strings.HasSuffix(config.Prefix, "/") {
		config.Prefix += "/"
	}

	clientConfig := api.DefaultConfig()
	clientConfig.Address = config.Address
	if config.Token != "" {
		clientConfig.Token = config.Token
	}
	if config.Datacenter != "" {
		clientConfig.Datacenter = config.Datacenter
	}
	if config.Namespace != "" {
		clientConfig.Namespace = config.Namespace
	}

	client, err := api.NewClient(clientConfig)
	if err != nil {
		return nil, err
	}

	return &ConsulStore{
		client: client,
		kv:     client.KV(),
		config: config,
	}, nil
}

// Name returns the identifier name defined for this store
func (*ConsulStore) Name() string {
	return "consul"
}

// Open verifies the agent is reachable.
func (cs *ConsulStore) Open(ctx context.Context) error {
	if _, err := cs.client.Status().Leader(); err != nil {
		return fmt.Errorf("failed to reach consul at '%s': %w", cs.config.Address, err)
	}
	return nil
}

// Close is a no-op; the Consul client is stateless.
func (cs *ConsulStore) Close(ctx context.Context) error {
	return nil
}

func (cs *ConsulStore) buildKey(assetPath string) string {
	return cs.config.Prefix + data.FoldKey(strings.TrimPrefix(assetPath, "/"))
}

func (cs *ConsulStore) Read(ctx context.Context, assetPath string) (*data.Record, error) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	pair, _, err := cs.kv.Get(cs.buildKey(assetPath), (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to read record for '%s': %w", assetPath, err)
	}
	if pair == nil {
		return nil, data.ErrNotExist
	}

	return metadata.UnmarshalRecord(pair.Value)
}

func (cs *ConsulStore) Write(ctx context.Context, assetPath string, rec *data.Record) error {
	clone := rec.Clone()
	clone.AssetPath = assetPath

	content, err := metadata.MarshalRecord(clone)
	if err != nil {
		return err
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()

	pair := &api.KVPair{
		Key:   cs.buildKey(assetPath),
		Value: content,
	}
	if _, err := cs.kv.Put(pair, (&api.WriteOptions{}).WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to write record for '%s': %w", assetPath, err)
	}
	return nil
}

func (cs *ConsulStore) Delete(ctx context.Context, assetPath string) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	key := cs.buildKey(assetPath)
	pair, _, err := cs.kv.Get(key, (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return err
	}
	if pair == nil {
		return data.ErrNotExist
	}

	if _, err := cs.kv.Delete(key, (&api.WriteOptions{}).WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to delete record for '%s': %w", assetPath, err)
	}
	return nil
}

func (cs *ConsulStore) List(ctx context.Context, prefix string) ([]*data.Record, error) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	folded := data.FoldKey(strings.TrimSuffix(prefix, "/"))
	pairs, _, err := cs.kv.List(cs.buildKey(folded), (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to list records below '%s': %w", prefix, err)
	}

	var records []*data.Record
	var errs data.Errors
	for _, pair := range pairs {
		key := strings.TrimPrefix(pair.Key, cs.config.Prefix)
		if !data.HasPrefix(key, folded) {
			continue
		}

		rec, err := metadata.UnmarshalRecord(pair.Value)
		if err != nil {
			errs.Add(fmt.Errorf("%s: %w", pair.Key, err))
			continue
		}
		records = append(records, rec)
	}

	metadata.SortRecords(records)
	return records, errs.Errors()
}
