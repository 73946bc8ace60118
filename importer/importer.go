package importer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/mwantia/assetdb/data"
)

// Version is recorded in every record written after a successful import.
const Version = "1.0.0"

// Request carries one asset to import.
type Request struct {
	AssetPath string
	Kind      data.Kind
	Content   []byte
	// Record is the record the result will be stored under. Its ID is final;
	// Params may be read and updated to keep derived identities stable.
	Record *data.Record
	// NewID allocates identities for derived resources.
	NewID func() uint64
}

// Child is a resource derived from an asset, such as a mesh of a model.
type Child struct {
	ID      uint64
	Name    string
	Payload data.Payload
}

type Result struct {
	Payload  data.Payload
	Children []Child
}

// Importer converts asset bytes into engine payloads.
type Importer interface {
	Version() string
	Import(ctx context.Context, req *Request) (*Result, error)
}

// Default dispatches to the built-in importers by kind.
type Default struct {
	ThumbnailSize int
}

func NewDefault() *Default {
	return &Default{ThumbnailSize: 64}
}

func (*Default) Version() string {
	return Version
}

func (d *Default) Import(ctx context.Context, req *Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		result *Result
		err    error
	)

	switch req.Kind {
	case data.KindTexture:
		result, err = importTexture(req, d.ThumbnailSize)
	case data.KindModel:
		result, err = importModel(req)
	case data.KindScene:
		result, err = importScene(req)
	case data.KindPrefab:
		result, err = importPrefab(req)
	case data.KindScript:
		result, err = importScript(req)
	default:
		return nil, fmt.Errorf("%w: %s (%s)", data.ErrUnsupported, req.AssetPath, req.Kind)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", data.ErrImportFailed, req.AssetPath, err)
	}
	return result, nil
}

// Checksum returns the hex SHA-256 of content.
func Checksum(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
