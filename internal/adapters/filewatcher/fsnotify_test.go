package filewatcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/icdrag-go/internal/domain/ports"
)

func TestFSNotifyWatcher_DefaultPatterns(t *testing.T) {
	watcher, err := NewFSNotifyWatcher(nil, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	assert.Equal(t, []string{"*.txt"}, watcher.patterns)
}

func TestFSNotifyWatcher_Matches(t *testing.T) {
	watcher, err := NewFSNotifyWatcher([]string{"icd102019syst_codes.txt"}, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	assert.True(t, watcher.matches("/data/icd102019syst_codes.txt"))
	assert.False(t, watcher.matches("/data/icd102019syst_groups.txt"))
}

func TestFSNotifyWatcher_WatchDirectory(t *testing.T) {
	dir := t.TempDir()

	watcher, err := NewFSNotifyWatcher([]string{"codes.txt"}, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	events, err := watcher.Watch(ctx, dir)
	require.NoError(t, err)

	go func() {
		time.Sleep(100 * time.Millisecond)
		os.WriteFile(filepath.Join(dir, "codes.txt"), []byte("4;T;X;01;A00-A09;A00.-;A00;A00;Cholera\n"), 0o644)
	}()

	select {
	case event := <-events:
		assert.Equal(t, ports.FileCreated, event.Operation)
		assert.Equal(t, "codes.txt", filepath.Base(event.Path))
	case <-ctx.Done():
		t.Fatal("timeout waiting for event")
	}
}

func TestFSNotifyWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()

	watcher, err := NewFSNotifyWatcher([]string{"codes.txt"}, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	events, err := watcher.Watch(ctx, dir)
	require.NoError(t, err)

	os.WriteFile(filepath.Join(dir, "icd10_meta.json"), []byte("[]"), 0o644)

	select {
	case <-events:
		t.Error("should not receive event for icd10_meta.json")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestFSNotifyWatcher_Stop(t *testing.T) {
	watcher, err := NewFSNotifyWatcher(nil, nil)
	require.NoError(t, err)
	assert.NoError(t, watcher.Stop())
}
