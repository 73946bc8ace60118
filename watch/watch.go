package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/mwantia/assetdb/data"
	"github.com/mwantia/assetdb/log"
)

type EventKind int

const (
	// AssetsChanged asks for a reconcile of the asset root in Event.Path.
	AssetsChanged EventKind = iota
	// ScriptsChanged asks for a script reload.
	ScriptsChanged
)

func (k EventKind) String() string {
	switch k {
	case AssetsChanged:
		return "assets"
	case ScriptsChanged:
		return "scripts"
	default:
		return "unknown"
	}
}

type Event struct {
	Kind EventKind
	// Path is the asset root to reconcile or the script header folder.
	Path string
}

const DefaultDebounce = 250 * time.Millisecond

type Options struct {
	Layout   data.Layout
	Debounce time.Duration
	Logger   *log.Logger
}

type Option func(*Options) error

func WithLayout(layout data.Layout) Option {
	return func(opts *Options) error {
		opts.Layout = layout
		return nil
	}
}

func WithDebounce(d time.Duration) Option {
	return func(opts *Options) error {
		if d <= 0 {
			return fmt.Errorf("%w: debounce must be positive", data.ErrInvalid)
		}
		opts.Debounce = d
		return nil
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(opts *Options) error {
		opts.Logger = logger
		return nil
	}
}

// Watcher reports changes below the asset roots and the script header
// folder of a project on the host filesystem. Bursts of changes to the same
// folder are coalesced into one Event.
//
// The watcher never touches the registry; the consumer decides on which
// goroutine to reconcile.
type Watcher struct {
	mu sync.Mutex

	root    string
	options *Options
	log     *log.Logger
	watcher *fsnotify.Watcher
	events  chan Event
	done    chan struct{}

	pending map[Event]struct{}
	timer   *time.Timer
	closed  bool
}

// New watches the project folder root. Folders of the layout that do not
// exist yet are picked up once they are created.
func New(root string, opts ...Option) (*Watcher, error) {
	options := &Options{
		Layout:   data.DefaultLayout(),
		Debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}
	if options.Logger == nil {
		options.Logger = log.NewDiscard()
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	w := &Watcher{
		root:    abs,
		options: options,
		log:     options.Logger.Named("watch"),
		watcher: watcher,
		events:  make(chan Event, 16),
		done:    make(chan struct{}),
		pending: make(map[Event]struct{}),
	}

	if err := w.add(""); err != nil {
		watcher.Close()
		return nil, err
	}
	for _, folder := range w.folders() {
		if err := w.addTree(folder); err != nil {
			watcher.Close()
			return nil, err
		}
	}
	return w, nil
}

// Events delivers debounced change notifications. The channel stays open
// after Close; consumers select on their own context.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Run forwards filesystem notifications until ctx is done or the watcher
// is closed.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("Watcher error: %v", err)
		}
	}
}

// Close stops the underlying watcher. Pending events are dropped.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	close(w.done)
	if w.timer != nil {
		w.timer.Stop()
	}
	clear(w.pending)
	return w.watcher.Close()
}

func (w *Watcher) handle(event fsnotify.Event) {
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil || strings.HasPrefix(rel, "..") {
		return
	}
	rel = filepath.ToSlash(rel)

	if event.Op&fsnotify.Create == fsnotify.Create {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() && w.tracked(rel) {
			if err := w.addTree(rel); err != nil {
				w.log.Warn("Unable to watch '%s': %v", rel, err)
			}
		}
	}

	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	target, ok := w.classify(rel)
	if !ok {
		return
	}
	w.log.Debug("Change of '%s' queued for %s '%s'", rel, target.Kind, target.Path)
	w.schedule(target)
}

// classify maps a changed path to the event that refreshes it. Sidecars,
// temporary files and generated scripts are written by the registry itself
// and never produce an event.
func (w *Watcher) classify(rel string) (Event, bool) {
	layout := w.options.Layout

	base := path.Base(rel)
	if strings.HasPrefix(base, ".") || layout.IsMeta(rel) {
		return Event{}, false
	}

	if data.HasPrefix(rel, layout.ScriptHeaders) {
		if rel != layout.ScriptHeaders && !data.IsHeader(rel) && path.Ext(rel) != "" {
			return Event{}, false
		}
		return Event{Kind: ScriptsChanged, Path: layout.ScriptHeaders}, true
	}

	for _, root := range layout.AssetRoots() {
		if data.HasPrefix(rel, root) {
			return Event{Kind: AssetsChanged, Path: root}, true
		}
	}
	return Event{}, false
}

func (w *Watcher) schedule(event Event) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	w.pending[event] = struct{}{}

	if w.timer == nil {
		w.timer = time.AfterFunc(w.options.Debounce, w.flush)
		return
	}
	w.timer.Reset(w.options.Debounce)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	events := make([]Event, 0, len(w.pending))
	for event := range w.pending {
		events = append(events, event)
	}
	clear(w.pending)
	w.mu.Unlock()

	slices.SortFunc(events, func(a, b Event) int {
		if a.Kind != b.Kind {
			return int(a.Kind) - int(b.Kind)
		}
		return strings.Compare(a.Path, b.Path)
	})
	for _, event := range events {
		select {
		case w.events <- event:
		case <-w.done:
			return
		}
	}
}

// folders returns the layout folders that are watched recursively.
func (w *Watcher) folders() []string {
	layout := w.options.Layout
	return append([]string{layout.Assets, layout.ScriptHeaders}, layout.AssetRoots()...)
}

// tracked reports whether a new folder lies inside a watched folder or on
// the way to one.
func (w *Watcher) tracked(rel string) bool {
	for _, folder := range w.folders() {
		if data.HasPrefix(rel, folder) || data.HasPrefix(folder, rel) {
			return true
		}
	}
	return false
}

func (w *Watcher) addTree(rel string) error {
	start := filepath.Join(w.root, filepath.FromSlash(rel))
	err := filepath.WalkDir(start, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != start && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.watcher.Add(p)
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (w *Watcher) add(rel string) error {
	return w.watcher.Add(filepath.Join(w.root, filepath.FromSlash(rel)))
}
