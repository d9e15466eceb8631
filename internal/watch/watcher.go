package watch

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/vk/gardenflow/internal/action"
)

// debounceWindow is the 200ms coalescing window §5's "Backpressure" names.
const debounceWindow = 200 * time.Millisecond

// Root is one action's watched source root plus the excludes that apply to
// it: the project-wide excludes, its own per-action excludes, and the
// implicit ".git"/state-directory excludes §4.8 always applies.
type Root struct {
	Ref      action.Ref
	Path     string
	Excludes []string
}

// FileWatcher watches every declared Root with fsnotify and publishes a
// debounced SourcesChanged to bus once no new event has arrived for
// debounceWindow.
type FileWatcher struct {
	bus       *Bus
	stateDir  string
	w         *fsnotify.Watcher
	rootOf    map[string]action.Ref // watched directory -> owning action
	excludes  map[action.Ref][]string

	mu      sync.Mutex
	pending map[action.Ref]bool
	timer   *time.Timer
}

// NewFileWatcher creates a FileWatcher publishing to bus. stateDir is the
// project's own state directory (e.g. ".garden"), always excluded alongside
// ".git" regardless of what roots declare.
func NewFileWatcher(bus *Bus, stateDir string) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &FileWatcher{
		bus:      bus,
		stateDir: stateDir,
		w:        w,
		rootOf:   make(map[string]action.Ref),
		excludes: make(map[action.Ref][]string),
		pending:  make(map[action.Ref]bool),
	}, nil
}

// Watch adds root to the set of watched directories. Calling it again for
// the same Ref replaces its excludes.
func (fw *FileWatcher) Watch(root Root) error {
	if err := filepath.Walk(root.Path, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if fw.isExcludedDir(info.Name()) {
				return filepath.SkipDir
			}
			if err := fw.w.Add(path); err != nil {
				return err
			}
			fw.mu.Lock()
			fw.rootOf[path] = root.Ref
			fw.mu.Unlock()
		}
		return nil
	}); err != nil {
		return err
	}
	fw.excludes[root.Ref] = root.Excludes
	return nil
}

func (fw *FileWatcher) isExcludedDir(name string) bool {
	if name == ".git" || name == fw.stateDir {
		return true
	}
	return false
}

// Run drains fsnotify events until stop is closed.
func (fw *FileWatcher) Run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			fw.w.Close()
			return
		case ev, ok := <-fw.w.Events:
			if !ok {
				return
			}
			fw.handle(ev)
		case <-fw.w.Errors:
			// A watch error is not fatal to the loop; the next tick still
			// observes events from every other root.
		}
	}
}

func (fw *FileWatcher) handle(ev fsnotify.Event) {
	dir := filepath.Dir(ev.Name)
	fw.mu.Lock()
	ref, ok := fw.rootOf[dir]
	fw.mu.Unlock()
	if !ok {
		return
	}
	if fw.matchesExclude(ref, ev.Name) {
		return
	}

	fw.mu.Lock()
	fw.pending[ref] = true
	if fw.timer != nil {
		fw.timer.Stop()
	}
	fw.timer = time.AfterFunc(debounceWindow, fw.flush)
	fw.mu.Unlock()
}

func (fw *FileWatcher) matchesExclude(ref action.Ref, path string) bool {
	for _, pat := range fw.excludes[ref] {
		if ok, _ := filepath.Match(pat, filepath.Base(path)); ok {
			return true
		}
		if strings.Contains(path, pat) {
			return true
		}
	}
	return false
}

func (fw *FileWatcher) flush() {
	fw.mu.Lock()
	refs := make([]action.Ref, 0, len(fw.pending))
	for r := range fw.pending {
		refs = append(refs, r)
	}
	fw.pending = make(map[action.Ref]bool)
	fw.mu.Unlock()

	if len(refs) == 0 {
		return
	}
	fw.bus.Publish(SourcesChanged{Refs: refs})
}
