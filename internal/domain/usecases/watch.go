package usecases

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/0xcro3dile/icdrag-go/internal/domain/ports"
)

// DefaultDebounce collapses the burst of writes an editor or copy produces.
const DefaultDebounce = 500 * time.Millisecond

// Watch rebuilds whenever sourcePath is created or modified, until ctx is done.
// Each rebuild result is passed to onBuild. Build errors do not stop the loop.
func (uc *BuildUseCase) Watch(
	ctx context.Context,
	sourcePath string,
	watcher ports.FileWatcher,
	debounce time.Duration,
	onBuild func(*BuildReport, error),
) error {
	abs, err := filepath.Abs(sourcePath)
	if err != nil {
		return fmt.Errorf("resolving source path: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	events, err := watcher.Watch(ctx, filepath.Dir(abs))
	if err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}
	defer watcher.Stop()

	uc.logger.Info("watching source table", "path", abs)

	// fire is nil while no rebuild is pending.
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Path) != abs || ev.Operation == ports.FileDeleted {
				continue
			}
			fire = time.After(debounce)
		case <-fire:
			fire = nil
			uc.logger.Info("source table changed, rebuilding", "path", abs)
			report, err := uc.Build(ctx, abs)
			if err != nil {
				uc.logger.Error("rebuild failed", "error", err)
			}
			if onBuild != nil {
				onBuild(report, err)
			}
		}
	}
}
