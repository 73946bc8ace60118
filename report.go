package assetdb

import (
	"fmt"
	"sort"
	"sync"
)

// Report lists what a reconciliation pass did, by asset path.
type Report struct {
	mu sync.Mutex

	Added      []string
	Reimported []string
	Loaded     []string
	Removed    []string
	Failed     []string
}

func (rp *Report) add(list *[]string, assetPath string) {
	rp.mu.Lock()
	defer rp.mu.Unlock()

	*list = append(*list, assetPath)
}

// Merge appends the entries of other.
func (rp *Report) Merge(other *Report) {
	if other == nil {
		return
	}

	other.mu.Lock()
	defer other.mu.Unlock()
	rp.mu.Lock()
	defer rp.mu.Unlock()

	rp.Added = append(rp.Added, other.Added...)
	rp.Reimported = append(rp.Reimported, other.Reimported...)
	rp.Loaded = append(rp.Loaded, other.Loaded...)
	rp.Removed = append(rp.Removed, other.Removed...)
	rp.Failed = append(rp.Failed, other.Failed...)
}

// sort orders every list so parallel passes report deterministically.
func (rp *Report) sort() {
	rp.mu.Lock()
	defer rp.mu.Unlock()

	for _, list := range [][]string{rp.Added, rp.Reimported, rp.Loaded, rp.Removed, rp.Failed} {
		sort.Strings(list)
	}
}

// Changed reports whether anything was added, re-imported or removed.
func (rp *Report) Changed() bool {
	rp.mu.Lock()
	defer rp.mu.Unlock()

	return len(rp.Added)+len(rp.Reimported)+len(rp.Removed) > 0
}

func (rp *Report) String() string {
	rp.mu.Lock()
	defer rp.mu.Unlock()

	return fmt.Sprintf("added=%d reimported=%d loaded=%d removed=%d failed=%d",
		len(rp.Added), len(rp.Reimported), len(rp.Loaded), len(rp.Removed), len(rp.Failed))
}
