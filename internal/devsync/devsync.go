package devsync

import (
	"context"
	"io/fs"

	"github.com/vk/gardenflow/internal/action"
	"github.com/vk/gardenflow/internal/watch"
)

// DefaultFileMode and DefaultDirMode are applied to every synced path unless
// Config overrides them.
const (
	DefaultFileMode fs.FileMode = 0600
	DefaultDirMode  fs.FileMode = 0700
)

// Config describes one action's sync target.
type Config struct {
	SourcePath string
	TargetPath string
	Excludes   []string
	FileMode   fs.FileMode
	DirMode    fs.FileMode
}

func (c Config) withDefaults() Config {
	if c.FileMode == 0 {
		c.FileMode = DefaultFileMode
	}
	if c.DirMode == 0 {
		c.DirMode = DefaultDirMode
	}
	return c
}

// Syncer mirrors one action's source root into its target on every
// SourcesChanged event for that ref, until Stop is called.
type Syncer struct {
	ref    action.Ref
	cfg    Config
	bus    *watch.Bus
	cancel func()
	stop   chan struct{}
	done   chan struct{}
}

// NewSyncer builds a Syncer for ref, publishing failures it cannot recover
// from to bus as a Restart event rather than panicking a background
// goroutine.
func NewSyncer(bus *watch.Bus, ref action.Ref, cfg Config) *Syncer {
	return &Syncer{ref: ref, cfg: cfg.withDefaults(), bus: bus}
}

// Start performs an initial full sync, then subscribes to bus and
// re-syncs whenever a SourcesChanged event names ref. ctx cancellation stops
// the sync goroutine the same way Stop does.
func (s *Syncer) Start(ctx context.Context) error {
	if err := copyTree(s.cfg.SourcePath, s.cfg.TargetPath, s.cfg.Excludes, s.cfg.FileMode, s.cfg.DirMode); err != nil {
		return err
	}

	events, cancel := s.bus.Subscribe(8)
	s.cancel = cancel
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			case e, ok := <-events:
				if !ok {
					return
				}
				sc, ok := e.(watch.SourcesChanged)
				if !ok || !containsRef(sc.Refs, s.ref) {
					continue
				}
				if err := copyTree(s.cfg.SourcePath, s.cfg.TargetPath, s.cfg.Excludes, s.cfg.FileMode, s.cfg.DirMode); err != nil {
					s.bus.Publish(watch.Restart{Reason: "sync of " + s.ref.String() + " failed: " + err.Error()})
				}
			}
		}
	}()
	return nil
}

// Stop unsubscribes from the bus and waits for the sync goroutine to exit.
func (s *Syncer) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	close(s.stop)
	<-s.done
}

func containsRef(refs []action.Ref, ref action.Ref) bool {
	for _, r := range refs {
		if r == ref {
			return true
		}
	}
	return false
}
