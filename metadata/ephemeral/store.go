package ephemeral

import (
	"context"
	"sync"

	"github.com/mwantia/assetdb/data"
	"github.com/mwantia/assetdb/metadata"
	"github.com/tidwall/btree"
)

// EphemeralStore keeps records in memory, keyed by folded asset path.
type EphemeralStore struct {
	mu      sync.RWMutex
	records *btree.Map[string, *data.Record]
}

func NewEphemeralStore() *EphemeralStore {
	return &EphemeralStore{
		records: btree.NewMap[string, *data.Record](0),
	}
}

// Returns the identifier name defined for this store
func (*EphemeralStore) Name() string {
	return "ephemeral"
}

func (*EphemeralStore) Open(ctx context.Context) error {
	return nil
}

func (es *EphemeralStore) Close(ctx context.Context) error {
	es.mu.Lock()
	defer es.mu.Unlock()

	es.records.Clear()
	return nil
}

func (es *EphemeralStore) Read(ctx context.Context, assetPath string) (*data.Record, error) {
	es.mu.RLock()
	defer es.mu.RUnlock()

	rec, ok := es.records.Get(data.FoldKey(assetPath))
	if !ok {
		return nil, data.ErrNotExist
	}
	return rec.Clone(), nil
}

func (es *EphemeralStore) Write(ctx context.Context, assetPath string, rec *data.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	es.mu.Lock()
	defer es.mu.Unlock()

	clone := rec.Clone()
	clone.AssetPath = assetPath
	es.records.Set(data.FoldKey(assetPath), clone)
	return nil
}

func (es *EphemeralStore) Delete(ctx context.Context, assetPath string) error {
	es.mu.Lock()
	defer es.mu.Unlock()

	if _, ok := es.records.Delete(data.FoldKey(assetPath)); !ok {
		return data.ErrNotExist
	}
	return nil
}

func (es *EphemeralStore) List(ctx context.Context, prefix string) ([]*data.Record, error) {
	es.mu.RLock()
	defer es.mu.RUnlock()

	var records []*data.Record
	folded := data.FoldKey(prefix)

	es.records.Ascend(folded, func(key string, rec *data.Record) bool {
		if !data.HasPrefix(key, folded) {
			// keys sharing the prefix bytes but not the folder are skipped, not terminal
			return len(key) >= len(folded) && key[:len(folded)] == folded
		}
		records = append(records, rec.Clone())
		return true
	})

	metadata.SortRecords(records)
	return records, nil
}
