package metadata

import (
	"context"
	"errors"

	"github.com/Masterminds/semver/v3"
	"github.com/mwantia/assetdb/data"
	"github.com/mwantia/assetdb/storage"
)

// Store persists one Record per asset path. Lookups ignore ASCII case.
type Store interface {
	// Returns the identifier name defined for this store
	Name() string
	// Open is part of the lifecycle behaviour and gets called before first use.
	Open(ctx context.Context) error
	// Close is part of the lifecycle behaviour and releases held resources.
	Close(ctx context.Context) error

	// Read returns data.ErrNotExist when no record is stored and
	// data.ErrMalformed when the stored record cannot be decoded.
	Read(ctx context.Context, assetPath string) (*data.Record, error)
	// Write replaces the record atomically.
	Write(ctx context.Context, assetPath string, rec *data.Record) error
	Delete(ctx context.Context, assetPath string) error
	// List returns all records whose asset path lies below prefix. Records
	// that cannot be decoded are skipped and reported in the joined error.
	List(ctx context.Context, prefix string) ([]*data.Record, error)
}

// Logger is the subset of log.Logger used here.
type Logger interface {
	Warn(msg string, args ...any)
}

// Artifacts reports whether a compiled library artifact is present.
type Artifacts interface {
	Exists(ctx context.Context, libraryPath string) bool
}

// Lookup reads the record for assetPath. Malformed records are logged and
// reported as absent so the caller regenerates them.
func Lookup(ctx context.Context, store Store, logger Logger, assetPath string) (*data.Record, bool) {
	rec, err := store.Read(ctx, assetPath)
	if err == nil {
		return rec, true
	}

	if !errors.Is(err, data.ErrNotExist) {
		logger.Warn("Ignoring unreadable metadata for '%s': %v", assetPath, err)
	}
	return nil, false
}

// IsStale reports whether the asset must be re-imported: the asset changed
// after the recorded import, its library artifact is missing, or it was
// produced by an older importer than version.
func IsStale(ctx context.Context, fsys storage.FileSystem, artifacts Artifacts, rec *data.Record, version string) bool {
	if rec == nil {
		return true
	}

	info, err := fsys.Stat(rec.AssetPath)
	if err != nil {
		return true
	}
	if info.ModTime().After(rec.LastModified) {
		return true
	}

	if rec.LibraryPath == "" || !artifacts.Exists(ctx, rec.LibraryPath) {
		return true
	}

	return OlderImporter(rec.ImporterVersion, version)
}

// OlderImporter reports whether recorded predates current. An empty recorded
// version is accepted; an unparsable one is treated as outdated.
func OlderImporter(recorded, current string) bool {
	if recorded == "" || current == "" {
		return false
	}

	have, err := semver.NewVersion(recorded)
	if err != nil {
		return true
	}
	want, err := semver.NewVersion(current)
	if err != nil {
		return false
	}
	return have.LessThan(want)
}
