package data

import (
	"time"

	"github.com/jinzhu/copier"
)

// Record is the persisted identity of one asset. The ID never changes
// across re-imports of the same asset path.
type Record struct {
	ID              uint64            `json:"id"`
	Kind            Kind              `json:"kind"`
	Name            string            `json:"name"`
	AssetPath       string            `json:"asset_path"`
	LibraryPath     string            `json:"library_path"`
	LastModified    time.Time         `json:"last_modified"`
	ImporterVersion string            `json:"importer_version,omitempty"`
	Signature       string            `json:"signature,omitempty"`
	Children        []uint64          `json:"children,omitempty"`
	Params          map[string]string `json:"params,omitempty"`

	// Origin is the asset path stored in the metadata itself. It differs from
	// AssetPath when the metadata was moved or copied along with an asset.
	Origin string `json:"-"`
}

func NewRecord(id uint64, kind Kind, assetPath string) *Record {
	return &Record{
		ID:        id,
		Kind:      kind,
		Name:      BaseName(assetPath),
		AssetPath: assetPath,
		Params:    make(map[string]string),
	}
}

// Clone returns a deep copy so callers can mutate it without affecting stores.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}

	clone := &Record{}
	if err := copier.CopyWithOption(clone, r, copier.Option{DeepCopy: true}); err != nil {
		// copier only fails on mismatched types
		panic(err)
	}
	// time.Time has no exported fields for copier to walk
	clone.LastModified = r.LastModified
	return clone
}

// Validate checks the fields every backend relies on.
func (r *Record) Validate() error {
	if r == nil || r.ID == 0 || r.AssetPath == "" || r.Kind == KindUnknown {
		return ErrMalformed
	}
	return nil
}
