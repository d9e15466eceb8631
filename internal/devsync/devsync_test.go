package devsync

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/gardenflow/internal/action"
	"github.com/vk/gardenflow/internal/watch"
)

func TestSyncer_StartCopiesExistingFiles(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "app.py"), []byte("print('hi')"), 0644))

	bus := watch.NewBus()
	ref := action.Ref{Kind: action.Deploy, Name: "api"}
	s := NewSyncer(bus, ref, Config{SourcePath: src, TargetPath: dst})

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	got, err := os.ReadFile(filepath.Join(dst, "app.py"))
	require.NoError(t, err)
	assert.Equal(t, "print('hi')", string(got))
}

func TestSyncer_ResyncsOnMatchingSourcesChanged(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	path := filepath.Join(src, "app.py")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0644))

	bus := watch.NewBus()
	ref := action.Ref{Kind: action.Deploy, Name: "api"}
	other := action.Ref{Kind: action.Deploy, Name: "worker"}
	s := NewSyncer(bus, ref, Config{SourcePath: src, TargetPath: dst})

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	require.NoError(t, os.WriteFile(path, []byte("v2"), 0644))
	bus.Publish(watch.SourcesChanged{Refs: []action.Ref{other}})
	bus.Publish(watch.SourcesChanged{Refs: []action.Ref{ref}})

	require.Eventually(t, func() bool {
		got, err := os.ReadFile(filepath.Join(dst, "app.py"))
		return err == nil && string(got) == "v2"
	}, time.Second, 10*time.Millisecond)
}

func TestSyncer_ExcludesMatchingPaths(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "keep.py"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "skip.pyc"), []byte("x"), 0644))

	bus := watch.NewBus()
	ref := action.Ref{Kind: action.Deploy, Name: "api"}
	s := NewSyncer(bus, ref, Config{SourcePath: src, TargetPath: dst, Excludes: []string{"*.pyc"}})

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	_, err := os.Stat(filepath.Join(dst, "keep.py"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dst, "skip.pyc"))
	assert.True(t, os.IsNotExist(err))
}
