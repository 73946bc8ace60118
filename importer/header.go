package importer

import (
	"regexp"
	"sort"
)

// HeaderInfo is what the script pass learns from a C++ header.
type HeaderInfo struct {
	Signature      string
	DataStructures []string
}

var (
	// class|struct [MACRO_API] Name [final] [: bases] {
	structurePattern = regexp.MustCompile(`(?m)^\s*(?:class|struct)\s+(?:([A-Z][A-Z0-9_]*_API)\s+)?([A-Za-z_][A-Za-z0-9_]*)\s*(?:final\s*)?(?::[^{;]*)?\{`)
	lineComment      = regexp.MustCompile(`//[^\n]*`)
	blockComment     = regexp.MustCompile(`(?s)/\*.*?\*/`)
)

// ParseHeader scans a header for class and struct definitions. When any
// structure is marked with an export macro, only exported structures are
// reported. The signature changes whenever the header content does.
func ParseHeader(content []byte) HeaderInfo {
	source := blockComment.ReplaceAllString(string(content), "")
	source = lineComment.ReplaceAllString(source, "")

	var exported, all []string
	for _, match := range structurePattern.FindAllStringSubmatch(source, -1) {
		all = append(all, match[2])
		if match[1] != "" {
			exported = append(exported, match[2])
		}
	}

	names := all
	if len(exported) > 0 {
		names = exported
	}

	return HeaderInfo{
		Signature:      Checksum(content),
		DataStructures: uniqueSorted(names),
	}
}

func uniqueSorted(names []string) []string {
	if len(names) == 0 {
		return nil
	}

	sort.Strings(names)
	out := names[:1]
	for _, name := range names[1:] {
		if name != out[len(out)-1] {
			out = append(out, name)
		}
	}
	return out
}
