package library

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/mwantia/assetdb/data"
)

// Artifact is the compiled, engine-ready form of a resource.
type Artifact struct {
	ID      uint64          `json:"id"`
	Kind    data.Kind       `json:"kind"`
	Name    string          `json:"name"`
	Version string          `json:"version"`
	// Source is the asset path the artifact was compiled from, if any.
	Source  string          `json:"source,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

var (
	codecOnce sync.Once
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
	codecErr  error
)

func codec() (*zstd.Encoder, *zstd.Decoder, error) {
	codecOnce.Do(func() {
		encoder, codecErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if codecErr != nil {
			return
		}
		decoder, codecErr = zstd.NewReader(nil)
	})
	return encoder, decoder, codecErr
}

// Pack wraps a payload for storage.
func Pack(id uint64, name, version string, payload data.Payload) (*Artifact, error) {
	kind := data.PayloadKind(payload)
	if kind == data.KindUnknown {
		return nil, fmt.Errorf("%w: artifact without payload", data.ErrInvalid)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Artifact{
		ID:      id,
		Kind:    kind,
		Name:    name,
		Version: version,
		Payload: raw,
	}, nil
}

// Unpack decodes the payload into the type selected by the artifact kind.
func (a *Artifact) Unpack() (data.Payload, error) {
	payload := data.NewPayload(a.Kind)
	if payload == nil {
		return nil, fmt.Errorf("%w: unknown artifact kind %s", data.ErrCorrupt, a.Kind)
	}

	if err := json.Unmarshal(a.Payload, payload); err != nil {
		return nil, fmt.Errorf("%w: %v", data.ErrCorrupt, err)
	}
	return payload, nil
}

// Encode serialises an artifact to its compressed on-disk form.
func Encode(a *Artifact) ([]byte, error) {
	enc, _, err := codec()
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return enc.EncodeAll(raw, nil), nil
}

func Decode(content []byte) (*Artifact, error) {
	_, dec, err := codec()
	if err != nil {
		return nil, err
	}

	raw, err := dec.DecodeAll(content, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", data.ErrCorrupt, err)
	}

	var a Artifact
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", data.ErrCorrupt, err)
	}
	if a.ID == 0 {
		return nil, fmt.Errorf("%w: artifact without id", data.ErrCorrupt)
	}
	return &a, nil
}
