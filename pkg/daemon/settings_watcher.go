package daemon

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/grovetools/wallcycle/config"
	"github.com/grovetools/wallcycle/internal/gateway"
	"github.com/grovetools/wallcycle/logging"
	"github.com/grovetools/wallcycle/util/pathutil"
	"github.com/sirupsen/logrus"
)

// DefaultDebounce is the quiet period after the last write before the
// settings file is reloaded.
const DefaultDebounce = 100 * time.Millisecond

// SettingsWatcher reloads the settings file when it changes and reports
// which rotation fields differ from the previous load.
type SettingsWatcher struct {
	watcher  *fsnotify.Watcher
	path     string
	target   string // resolved symlink target of path, if any
	debounce time.Duration
	logger   *logrus.Entry

	onChange func([]gateway.Change)
	onReload func(file string)

	// due is signalled by the debounce timer; reloads run on the Start
	// goroutine so they are applied in file order.
	due chan struct{}

	mu      sync.Mutex
	current config.Settings
	pending *time.Timer
}

// NewSettingsWatcher watches the directory holding path. fsnotify loses a
// single-file watch when editors replace the file, so the parent directory
// is watched and events are filtered by name. When path is a symlink the
// target's directory is watched too.
//
// onChange receives the changed rotation fields after each successful
// reload; onReload is told the file name. Either may be nil.
func NewSettingsWatcher(path string, initial config.Settings, debounce time.Duration,
	onChange func([]gateway.Change), onReload func(string)) (*SettingsWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	logger := logging.NewLogger("settings-watcher")
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		watcher.Close()
		return nil, err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	var target string
	if info, err := os.Lstat(path); err == nil && info.Mode()&os.ModeSymlink != 0 {
		if resolved, err := filepath.EvalSymlinks(path); err != nil {
			logger.WithError(err).Warnf("Failed to resolve symlink %s", path)
		} else {
			target = resolved
			if targetDir := filepath.Dir(resolved); targetDir != dir {
				if err := watcher.Add(targetDir); err != nil {
					logger.WithError(err).Warnf("Failed to watch symlink target dir %s", targetDir)
				} else {
					logger.Debugf("Watching symlink target directory: %s", targetDir)
				}
			}
		}
	}

	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &SettingsWatcher{
		watcher:  watcher,
		path:     path,
		target:   target,
		debounce: debounce,
		logger:   logger,
		onChange: onChange,
		onReload: onReload,
		current:  *initial.Clone(),
		due:      make(chan struct{}, 1),
	}, nil
}

// Current returns the last successfully loaded settings.
func (w *SettingsWatcher) Current() config.Settings {
	w.mu.Lock()
	defer w.mu.Unlock()
	return *w.current.Clone()
}

// Start processes file events until ctx is cancelled, then closes the watcher.
// Reloads, and therefore onChange and onReload, run on this goroutine one
// at a time. Events arriving while a callback blocks are handled afterwards.
func (w *SettingsWatcher) Start(ctx context.Context) {
	defer w.stop()
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.logger.Debugf("fsnotify event: %s op=%v", event.Name, event.Op)
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if !w.matches(event.Name) {
				continue
			}
			w.schedule()
		case <-w.due:
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Errorf("Watcher error: %v", err)
		case <-ctx.Done():
			return
		}
	}
}

func (w *SettingsWatcher) matches(name string) bool {
	name = filepath.Clean(name)
	if name == filepath.Clean(w.path) || (w.target != "" && name == w.target) {
		return true
	}
	// Catches the same file reached through a different spelling, such as
	// a symlinked temp dir or a case-insensitive filesystem.
	same, err := pathutil.ComparePaths(name, w.path)
	return err == nil && same
}

// schedule (re)starts the debounce timer. When it fires, a reload is
// queued for Start; several firings before Start gets to it coalesce into
// one reload of the latest file.
func (w *SettingsWatcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending != nil {
		w.pending.Stop()
	}
	w.pending = time.AfterFunc(w.debounce, func() {
		select {
		case w.due <- struct{}{}:
		default:
		}
	})
}

func (w *SettingsWatcher) reload() {
	next, err := config.Load(w.path)
	if err != nil {
		w.logger.WithError(err).Warn("Ignoring settings change: keeping previous settings")
		return
	}

	w.mu.Lock()
	prev := w.current
	w.current = *next
	w.mu.Unlock()

	if prev.Picker != next.Picker || prev.PickerTimeout != next.PickerTimeout {
		w.logger.Info("Picker settings changed; restart the daemon to apply them")
	}

	changes := gateway.Diff(prev, *next)
	w.logger.WithField("changes", len(changes)).Infof("Settings reloaded: %s", filepath.Base(w.path))
	if len(changes) > 0 && w.onChange != nil {
		w.onChange(changes)
	}
	if w.onReload != nil {
		w.onReload(filepath.Base(w.path))
	}
}

func (w *SettingsWatcher) stop() {
	w.mu.Lock()
	if w.pending != nil {
		w.pending.Stop()
	}
	w.mu.Unlock()
	w.watcher.Close()
}

// Close stops the watcher and releases resources.
func (w *SettingsWatcher) Close() error {
	w.stop()
	return nil
}
