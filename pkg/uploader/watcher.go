package uploader

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/saipavankommuri123/liveKit-backend/pkg/logger"
)

// settleDelay is how long a recording file must be quiet before it is
// considered finished. The egress writes MP4s continuously until it ends,
// so uploading on every write event would ship partial files.
const settleDelay = 10 * time.Second

// FileUploader uploads one finished recording file.
type FileUploader interface {
	UploadFile(path string) error
}

// Watcher watches the recording output tree and uploads each MP4 once the
// egress has finished writing it. Per-room subdirectories created while
// watching are picked up automatically.
type Watcher struct {
	outputDir string
	uploader  FileUploader

	mu      sync.Mutex
	pending map[string]*time.Timer
}

func NewWatcher(outputDir string, uploader FileUploader) (*Watcher, error) {
	if _, err := os.Stat(outputDir); os.IsNotExist(err) {
		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			return nil, err
		}
	}
	return &Watcher{
		outputDir: outputDir,
		uploader:  uploader,
		pending:   make(map[string]*time.Timer),
	}, nil
}

// Start blocks, processing filesystem events until the context is done.
func (w *Watcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(w.outputDir); err != nil {
		return err
	}
	if err := w.addExistingRoomDirs(watcher); err != nil {
		logger.Warn("Failed to scan existing room directories", logger.ErrorField(err))
	}

	logger.Info("Watching recording output", logger.String("dir", w.outputDir))

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(watcher, event)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("Recording watcher error", logger.ErrorField(err))

		case <-ctx.Done():
			w.cancelPending()
			return nil
		}
	}
}

func (w *Watcher) handleEvent(watcher *fsnotify.Watcher, event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		return
	}

	if info.IsDir() {
		// A new room directory: the egress writes files under it next.
		if event.Op&fsnotify.Create != 0 {
			if err := watcher.Add(event.Name); err != nil {
				logger.Error("Failed to watch room directory",
					logger.String("dir", event.Name), logger.ErrorField(err))
			}
		}
		return
	}

	if !strings.EqualFold(filepath.Ext(event.Name), ".mp4") {
		return
	}
	w.scheduleUpload(event.Name)
}

// scheduleUpload (re)arms the settle timer for a file. The upload runs only
// after the file has stopped changing for settleDelay.
func (w *Watcher) scheduleUpload(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[path]; ok {
		timer.Reset(settleDelay)
		return
	}
	w.pending[path] = time.AfterFunc(settleDelay, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		if err := w.uploader.UploadFile(path); err != nil {
			logger.Error("Failed to upload recording",
				logger.String("path", path), logger.ErrorField(err))
		}
	})
}

func (w *Watcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
}

// addExistingRoomDirs registers room directories that predate this process
// so recordings in progress across a restart are still picked up.
func (w *Watcher) addExistingRoomDirs(watcher *fsnotify.Watcher) error {
	entries, err := os.ReadDir(w.outputDir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			if err := watcher.Add(filepath.Join(w.outputDir, entry.Name())); err != nil {
				return err
			}
		}
	}
	return nil
}
