package metadata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mwantia/assetdb/data"
)

// Document is a JSON object addressed by dotted key paths such as "Meta.ID".
// Identities and timestamps are stored as decimal strings so 64-bit values
// survive JSON number handling.
type Document struct {
	root map[string]any
}

func NewDocument() *Document {
	return &Document{root: make(map[string]any)}
}

func ParseDocument(content []byte) (*Document, error) {
	decoder := json.NewDecoder(bytes.NewReader(content))
	decoder.UseNumber()

	root := make(map[string]any)
	if err := decoder.Decode(&root); err != nil {
		return nil, fmt.Errorf("%w: %v", data.ErrMalformed, err)
	}
	return &Document{root: root}, nil
}

func (d *Document) Bytes() ([]byte, error) {
	return json.MarshalIndent(d.root, "", "  ")
}

func (d *Document) Get(path string) (any, bool) {
	var current any = d.root
	for _, part := range strings.Split(path, ".") {
		object, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		if current, ok = object[part]; !ok {
			return nil, false
		}
	}
	return current, true
}

func (d *Document) Set(path string, value any) {
	parts := strings.Split(path, ".")
	object := d.root

	for _, part := range parts[:len(parts)-1] {
		next, ok := object[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			object[part] = next
		}
		object = next
	}
	object[parts[len(parts)-1]] = value
}

func (d *Document) GetString(path string) (string, bool) {
	value, ok := d.Get(path)
	if !ok {
		return "", false
	}

	switch v := value.(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	}
	return "", false
}

func (d *Document) GetUint64(path string) (uint64, bool) {
	s, ok := d.GetString(path)
	if !ok {
		return 0, false
	}

	v, err := strconv.ParseUint(s, 10, 64)
	return v, err == nil
}

func (d *Document) SetUint64(path string, value uint64) {
	d.Set(path, strconv.FormatUint(value, 10))
}

func (d *Document) GetTime(path string) (time.Time, bool) {
	s, ok := d.GetString(path)
	if !ok {
		return time.Time{}, false
	}

	nanos, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(0, nanos), true
}

func (d *Document) SetTime(path string, value time.Time) {
	if value.IsZero() {
		d.Set(path, "0")
		return
	}
	d.Set(path, strconv.FormatInt(value.UnixNano(), 10))
}

func (d *Document) GetStrings(path string) []string {
	value, ok := d.Get(path)
	if !ok {
		return nil
	}

	list, ok := value.([]any)
	if !ok {
		return nil
	}

	result := make([]string, 0, len(list))
	for _, item := range list {
		switch v := item.(type) {
		case string:
			result = append(result, v)
		case json.Number:
			result = append(result, v.String())
		}
	}
	return result
}

func (d *Document) GetStringMap(path string) map[string]string {
	result := make(map[string]string)

	value, ok := d.Get(path)
	if !ok {
		return result
	}

	object, ok := value.(map[string]any)
	if !ok {
		return result
	}

	for key, item := range object {
		if s, ok := item.(string); ok {
			result[key] = s
		}
	}
	return result
}

// EncodeRecord lays a record out under the "Meta" object.
func EncodeRecord(rec *data.Record) *Document {
	doc := NewDocument()

	doc.SetUint64("Meta.ID", rec.ID)
	doc.Set("Meta.Kind", rec.Kind.String())
	doc.Set("Meta.Name", rec.Name)
	doc.Set("Meta.AssetPath", rec.AssetPath)
	doc.Set("Meta.LibraryPath", rec.LibraryPath)
	doc.SetTime("Meta.LastModified", rec.LastModified)

	if rec.ImporterVersion != "" {
		doc.Set("Meta.ImporterVersion", rec.ImporterVersion)
	}
	if rec.Signature != "" {
		doc.Set("Meta.Signature", rec.Signature)
	}

	if len(rec.Children) > 0 {
		children := make([]any, 0, len(rec.Children))
		for _, child := range rec.Children {
			children = append(children, strconv.FormatUint(child, 10))
		}
		doc.Set("Meta.Children", children)
	}

	if len(rec.Params) > 0 {
		params := make(map[string]any, len(rec.Params))
		for key, value := range rec.Params {
			params[key] = value
		}
		doc.Set("Meta.Params", params)
	}

	return doc
}

// DecodeRecord is the inverse of EncodeRecord and rejects documents
// without a usable identity.
func DecodeRecord(doc *Document) (*data.Record, error) {
	id, ok := doc.GetUint64("Meta.ID")
	if !ok || id == 0 {
		return nil, fmt.Errorf("%w: missing Meta.ID", data.ErrMalformed)
	}

	kindName, _ := doc.GetString("Meta.Kind")
	kind, err := data.ParseKind(kindName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", data.ErrMalformed, err)
	}

	rec := &data.Record{
		ID:     id,
		Kind:   kind,
		Params: doc.GetStringMap("Meta.Params"),
	}
	rec.Name, _ = doc.GetString("Meta.Name")
	rec.AssetPath, _ = doc.GetString("Meta.AssetPath")
	rec.LibraryPath, _ = doc.GetString("Meta.LibraryPath")
	rec.ImporterVersion, _ = doc.GetString("Meta.ImporterVersion")
	rec.Signature, _ = doc.GetString("Meta.Signature")

	if t, ok := doc.GetTime("Meta.LastModified"); ok && t.UnixNano() != 0 {
		rec.LastModified = t
	}

	for _, s := range doc.GetStrings("Meta.Children") {
		child, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid child id '%s'", data.ErrMalformed, s)
		}
		rec.Children = append(rec.Children, child)
	}

	return rec, nil
}

// MarshalRecord encodes a record as document bytes.
func MarshalRecord(rec *data.Record) ([]byte, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return EncodeRecord(rec).Bytes()
}

// UnmarshalRecord decodes document bytes, reporting data.ErrMalformed.
func UnmarshalRecord(content []byte) (*data.Record, error) {
	doc, err := ParseDocument(content)
	if err != nil {
		return nil, err
	}
	return DecodeRecord(doc)
}

// SortRecords orders records by asset path for stable listings.
func SortRecords(records []*data.Record) {
	sort.Slice(records, func(i, j int) bool {
		return records[i].AssetPath < records[j].AssetPath
	})
}
