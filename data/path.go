package data

import (
	"path"
	"strings"
)

// StringCmp compares two paths ignoring ASCII case. Both strings must have
// the same byte length; bytes outside A-Z are compared verbatim.
func StringCmp(a, b string) bool {
	if len(a) != len(b) {
		return false
	}

	for i := 0; i < len(a); i++ {
		if lowerASCII(a[i]) != lowerASCII(b[i]) {
			return false
		}
	}
	return true
}

// FoldKey returns the index key for a path: StringCmp(a, b) holds exactly
// when FoldKey(a) == FoldKey(b).
func FoldKey(p string) string {
	var b strings.Builder
	b.Grow(len(p))

	for i := 0; i < len(p); i++ {
		b.WriteByte(lowerASCII(p[i]))
	}
	return b.String()
}

func lowerASCII(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}

// CleanPath converts p into the slash separated, relative form used as
// asset and library keys. Backslashes are treated as separators.
func CleanPath(p string) (string, error) {
	p = strings.ReplaceAll(strings.TrimSpace(p), "\\", "/")
	if p == "" {
		return "", ErrInvalidPath
	}

	cleaned := path.Clean(strings.TrimPrefix(p, "/"))
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrOutsideRoot
	}
	if cleaned == "." {
		return "", nil
	}
	return cleaned, nil
}

// BaseName returns the file name of p without its extension.
func BaseName(p string) string {
	base := path.Base(strings.ReplaceAll(p, "\\", "/"))
	return strings.TrimSuffix(base, path.Ext(base))
}

// Ext returns the lower-cased extension of p including the dot.
func Ext(p string) string {
	return FoldKey(path.Ext(p))
}

// ToRelativePath removes the prefix from p.
// It additionally removes any leading slashes.
func ToRelativePath(p, prefix string) string {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		return strings.TrimPrefix(p, "/")
	}

	if StringCmp(p, prefix) {
		return ""
	}

	if !HasPrefix(p, prefix) {
		return p
	}
	return strings.TrimPrefix(p[len(prefix):], "/")
}

// HasPrefix reports whether p lies at or below the folder prefix, ignoring
// ASCII case. Both paths should be cleaned before calling.
func HasPrefix(p, prefix string) bool {
	prefix = strings.TrimSuffix(prefix, "/")
	// Root matches everything
	if prefix == "" {
		return true
	}

	if StringCmp(p, prefix) {
		return true
	}

	if len(p) <= len(prefix) || p[len(prefix)] != '/' {
		return false
	}
	return StringCmp(p[:len(prefix)], prefix)
}
