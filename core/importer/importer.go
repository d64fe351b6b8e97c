// Package importer loads tracks from JSON files, once or by watching a
// directory for new files.
package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"musiclib/core/tracks"
	"musiclib/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/goccy/go-json"
)

// Importer feeds track files through the track service.
type Importer struct {
	tracks   *tracks.Service
	debounce time.Duration
}

func New(trackSvc *tracks.Service) *Importer {
	return &Importer{tracks: trackSvc, debounce: 500 * time.Millisecond}
}

// ReadFile decodes a JSON file holding either an array of tracks or a single
// track object.
func ReadFile(path string) ([]tracks.CreateInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		var one tracks.CreateInput
		if err := json.Unmarshal(data, &one); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		return []tracks.CreateInput{one}, nil
	}
	var many []tracks.CreateInput
	if err := json.Unmarshal(data, &many); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return many, nil
}

// ImportFile bulk-creates every track in path.
func (im *Importer) ImportFile(ctx context.Context, path string) (*tracks.BulkResult, error) {
	inputs, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	res, err := im.tracks.CreateMany(ctx, inputs)
	if err != nil {
		return nil, err
	}
	logger.Info("[Importer] file imported",
		logger.String("file", path),
		logger.Int("created", len(res.Created)),
		logger.Int("failed", len(res.Failed)))
	for _, f := range res.Failed {
		logger.Warn("[Importer] record rejected",
			logger.String("file", path),
			logger.Int("index", f.Index),
			logger.String("url", f.URL),
			logger.String("reason", f.Message))
	}
	return res, nil
}

// ImportDir imports every *.json file directly inside dir.
func (im *Importer) ImportDir(ctx context.Context, dir string) error {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return err
	}
	for _, p := range paths {
		if _, err := im.ImportFile(ctx, p); err != nil {
			logger.Error("[Importer] import failed", logger.String("file", p), logger.ErrorField(err))
		}
	}
	return nil
}

// Watch imports JSON files created or rewritten in dir until ctx is done.
// Bursts of writes to one file are collapsed into a single import.
func (im *Importer) Watch(ctx context.Context, dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	logger.Info("[Importer] watching directory", logger.String("dir", dir))

	d := newDebouncer(im.debounce)
	defer d.stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.EqualFold(filepath.Ext(ev.Name), ".json") || !(ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write)) {
				continue
			}
			name := ev.Name
			d.schedule(name, func() {
				if _, err := im.ImportFile(ctx, name); err != nil {
					logger.Error("[Importer] import failed", logger.String("file", name), logger.ErrorField(err))
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("[Importer] watcher error", logger.ErrorField(err))
		}
	}
}

// debouncer runs fn once per key after delay has passed without another
// schedule call for that key.
type debouncer struct {
	delay   time.Duration
	mu      sync.Mutex
	pending map[string]*time.Timer
	wg      sync.WaitGroup
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{delay: delay, pending: map[string]*time.Timer{}}
}

func (d *debouncer) schedule(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scheduleLocked(key, fn)
}

func (d *debouncer) scheduleLocked(key string, fn func()) {
	if t, ok := d.pending[key]; ok && t.Stop() {
		d.wg.Done()
	}
	d.wg.Add(1)
	var t *time.Timer
	t = time.AfterFunc(d.delay, func() {
		defer d.wg.Done()
		d.mu.Lock()
		// 已被新的定时器替换时不能删除
		if d.pending[key] == t {
			delete(d.pending, key)
		}
		d.mu.Unlock()
		fn()
	})
	d.pending[key] = t
}

// stop cancels timers that have not fired and waits for running callbacks.
func (d *debouncer) stop() {
	d.mu.Lock()
	for key, t := range d.pending {
		if t.Stop() {
			d.wg.Done()
		}
		delete(d.pending, key)
	}
	d.mu.Unlock()
	d.wg.Wait()
}
