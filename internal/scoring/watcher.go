package scoring

import (
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"atsscorer/internal/errors"
)

// LexiconWatcher serves a lexicon loaded from a file and reloads it when the
// file changes. Scoring calls that already took a snapshot are unaffected by
// a reload. A reload that fails to parse keeps the previous lexicon.
type LexiconWatcher struct {
	mu sync.Mutex

	path    string
	current atomic.Pointer[Lexicon]
	reloads atomic.Int64

	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	debounceTimer *time.Timer
	stopChan      chan struct{}
	reloadChan    chan struct{}

	logger  *errors.Logger
	running bool
}

// NewLexiconWatcher loads path once. The watcher does not follow changes
// until Start is called.
func NewLexiconWatcher(path string, debounceDelay time.Duration, logger *errors.Logger) (*LexiconWatcher, error) {
	if debounceDelay == 0 {
		debounceDelay = 500 * time.Millisecond
	}
	lw := &LexiconWatcher{
		path:          path,
		debounceDelay: debounceDelay,
		stopChan:      make(chan struct{}),
		reloadChan:    make(chan struct{}, 1),
		logger:        logger,
	}
	if err := lw.Reload(); err != nil {
		return nil, err
	}
	return lw, nil
}

// Lexicon returns the current snapshot.
func (lw *LexiconWatcher) Lexicon() *Lexicon {
	return lw.current.Load()
}

// Reloads returns how many times the lexicon has been (re)loaded.
func (lw *LexiconWatcher) Reloads() int64 {
	return lw.reloads.Load()
}

// Reload reads the file now.
func (lw *LexiconWatcher) Reload() error {
	lex, err := LoadLexicon(lw.path)
	if err != nil {
		return err
	}
	lw.current.Store(lex)
	lw.reloads.Add(1)
	if lw.logger != nil {
		args := []any{"file", lw.path}
		for k, v := range lex.Size() {
			args = append(args, k, v)
		}
		lw.logger.Info("Lexicon loaded", args...)
	}
	return nil
}

// Start begins watching the lexicon file
func (lw *LexiconWatcher) Start() error {
	lw.mu.Lock()
	defer lw.mu.Unlock()

	if lw.running {
		return fmt.Errorf("lexicon watcher is already running")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	// watch the directory so editors that save via rename are seen
	if err := watcher.Add(filepath.Dir(lw.path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(lw.path), err)
	}
	lw.fsWatcher = watcher
	lw.running = true
	go lw.watchLoop()

	if lw.logger != nil {
		lw.logger.Info("Lexicon watcher started", "file", lw.path, "debounce_delay", lw.debounceDelay)
	}
	return nil
}

// Stop stops watching. It is safe to call more than once.
func (lw *LexiconWatcher) Stop() error {
	lw.mu.Lock()
	defer lw.mu.Unlock()

	if !lw.running {
		return nil
	}
	close(lw.stopChan)
	if lw.debounceTimer != nil {
		lw.debounceTimer.Stop()
	}
	lw.running = false

	if err := lw.fsWatcher.Close(); err != nil {
		return fmt.Errorf("failed to close file watcher: %w", err)
	}
	if lw.logger != nil {
		lw.logger.Info("Lexicon watcher stopped")
	}
	return nil
}

func (lw *LexiconWatcher) watchLoop() {
	for {
		select {
		case event, ok := <-lw.fsWatcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) == filepath.Base(lw.path) &&
				event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				lw.scheduleReload()
			}

		case err, ok := <-lw.fsWatcher.Errors:
			if !ok {
				return
			}
			if lw.logger != nil {
				lw.logger.LogError(err, "Lexicon watcher error")
			}

		case <-lw.reloadChan:
			if err := lw.Reload(); err != nil && lw.logger != nil {
				lw.logger.LogError(err, "Lexicon reload failed, keeping previous lexicon", "file", lw.path)
			}

		case <-lw.stopChan:
			return
		}
	}
}

func (lw *LexiconWatcher) scheduleReload() {
	lw.mu.Lock()
	defer lw.mu.Unlock()

	if lw.debounceTimer != nil {
		lw.debounceTimer.Stop()
	}
	lw.debounceTimer = time.AfterFunc(lw.debounceDelay, func() {
		select {
		case lw.reloadChan <- struct{}{}:
		default:
		}
	})
}
