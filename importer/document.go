package importer

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/mwantia/assetdb/data"
)

// sceneDocument is the subset of a scene file the importer looks at.
type sceneDocument struct {
	Objects []json.RawMessage `json:"objects"`
}

type prefabDocument struct {
	Root struct {
		Name string `json:"name"`
	} `json:"root"`
	Name string `json:"name"`
}

// scriptDocument is the script asset written next to the headers it
// describes.
type scriptDocument struct {
	Header         string   `json:"header"`
	Signature      string   `json:"signature"`
	DataStructures []string `json:"data_structures"`
}

func importScene(req *Request) (*Result, error) {
	document, err := compactDocument(req.Content)
	if err != nil {
		return nil, err
	}

	var scene sceneDocument
	if err := json.Unmarshal(document, &scene); err != nil {
		return nil, fmt.Errorf("%w: scene: %w", data.ErrMalformed, err)
	}

	return &Result{
		Payload: &data.SceneData{
			Objects:  len(scene.Objects),
			Document: document,
		},
	}, nil
}

func importPrefab(req *Request) (*Result, error) {
	document, err := compactDocument(req.Content)
	if err != nil {
		return nil, err
	}

	var prefab prefabDocument
	if err := json.Unmarshal(document, &prefab); err != nil {
		return nil, fmt.Errorf("%w: prefab: %w", data.ErrMalformed, err)
	}

	root := prefab.Root.Name
	if root == "" {
		root = prefab.Name
	}

	return &Result{
		Payload: &data.PrefabData{
			Root:     root,
			Document: document,
		},
	}, nil
}

// importScript accepts either a C++ header or a script asset document.
func importScript(req *Request) (*Result, error) {
	if data.IsHeader(req.AssetPath) {
		info := ParseHeader(req.Content)
		return &Result{
			Payload: &data.ScriptData{
				HeaderPath:     req.AssetPath,
				Signature:      info.Signature,
				DataStructures: info.DataStructures,
			},
		}, nil
	}

	var script scriptDocument
	if err := json.Unmarshal(req.Content, &script); err != nil {
		return nil, fmt.Errorf("%w: script: %w", data.ErrMalformed, err)
	}
	if script.Header == "" {
		return nil, fmt.Errorf("%w: script without header", data.ErrMalformed)
	}

	return &Result{
		Payload: &data.ScriptData{
			HeaderPath:     script.Header,
			Signature:      script.Signature,
			DataStructures: script.DataStructures,
		},
	}, nil
}

// MarshalScript renders the script asset document for a parsed header.
func MarshalScript(script *data.ScriptData) ([]byte, error) {
	return json.MarshalIndent(scriptDocument{
		Header:         script.HeaderPath,
		Signature:      script.Signature,
		DataStructures: script.DataStructures,
	}, "", "  ")
}

func compactDocument(content []byte) (json.RawMessage, error) {
	if !json.Valid(content) {
		return nil, fmt.Errorf("%w: invalid json document", data.ErrMalformed)
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, content); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
