package data

import (
	"fmt"
	"strings"
)

type PrimitiveKind int

const (
	PrimitiveNone PrimitiveKind = iota
	PrimitiveCube
	PrimitiveSphere
	PrimitiveRock
	PrimitiveTorus
	PrimitiveDodecahedron
	PrimitiveIcosahedron
	PrimitiveOctahedron
)

var primitiveNames = map[PrimitiveKind]string{
	PrimitiveNone:         "none",
	PrimitiveCube:         "Cube",
	PrimitiveSphere:       "Sphere",
	PrimitiveRock:         "Rock",
	PrimitiveTorus:        "Torus",
	PrimitiveDodecahedron: "Dodecahedron",
	PrimitiveIcosahedron:  "Icosahedron",
	PrimitiveOctahedron:   "Octahedron",
}

func (p PrimitiveKind) String() string {
	if name, ok := primitiveNames[p]; ok {
		return name
	}
	return fmt.Sprintf("primitive(%d)", int(p))
}

func (p PrimitiveKind) Valid() bool {
	return p > PrimitiveNone && p <= PrimitiveOctahedron
}

func ParsePrimitive(s string) (PrimitiveKind, error) {
	for kind, name := range primitiveNames {
		if kind != PrimitiveNone && strings.EqualFold(name, strings.TrimSpace(s)) {
			return kind, nil
		}
	}
	return PrimitiveNone, fmt.Errorf("%w: unknown primitive '%s'", ErrInvalid, s)
}

func Primitives() []PrimitiveKind {
	return []PrimitiveKind{
		PrimitiveCube,
		PrimitiveSphere,
		PrimitiveRock,
		PrimitiveTorus,
		PrimitiveDodecahedron,
		PrimitiveIcosahedron,
		PrimitiveOctahedron,
	}
}
