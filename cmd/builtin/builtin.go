package builtin

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/mwantia/assetdb"
	"github.com/mwantia/assetdb/cmd"
)

// Register adds every builtin command to m.
func Register(m *cmd.Manager) error {
	for _, c := range []cmd.Command{
		&ScanCommand{},
		&LsCommand{},
		&ShowCommand{},
		&PrimCommand{},
		&ScriptsCommand{},
		&TreeCommand{},
		&ImportCommand{},
		&LibraryCommand{},
	} {
		if err := m.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

// writeReport prints the summary line of a pass and, when verbose, every
// path it touched.
func writeReport(w io.Writer, report *assetdb.Report, verbose bool) {
	fmt.Fprintln(w, report.String())
	if !verbose {
		return
	}

	sections := []struct {
		name  string
		paths []string
	}{
		{"added", report.Added},
		{"reimported", report.Reimported},
		{"loaded", report.Loaded},
		{"removed", report.Removed},
		{"failed", report.Failed},
	}
	for _, section := range sections {
		for _, p := range section.paths {
			fmt.Fprintf(w, "  %-10s %s\n", section.name, p)
		}
	}
}

func joinOrDash(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	return strings.Join(values, ", ")
}
