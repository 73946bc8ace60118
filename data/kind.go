package data

import (
	"fmt"
	"strings"
)

// Kind selects the payload variant of a Resource.
type Kind int

const (
	KindUnknown Kind = iota
	KindMesh
	KindTexture
	KindModel
	KindPrefab
	KindScene
	KindScript
)

var kindNames = map[Kind]string{
	KindUnknown: "unknown",
	KindMesh:    "mesh",
	KindTexture: "texture",
	KindModel:   "model",
	KindPrefab:  "prefab",
	KindScene:   "scene",
	KindScript:  "script",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}

	*k = parsed
	return nil
}

func ParseKind(s string) (Kind, error) {
	lower := strings.ToLower(strings.TrimSpace(s))
	for kind, name := range kindNames {
		if name == lower {
			return kind, nil
		}
	}
	return KindUnknown, fmt.Errorf("%w: unknown resource kind '%s'", ErrInvalid, s)
}

// Kinds lists every concrete kind in declaration order.
func Kinds() []Kind {
	return []Kind{KindMesh, KindTexture, KindModel, KindPrefab, KindScene, KindScript}
}
