package assetlib

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"clipcut/logger"
	"clipcut/model"

	"github.com/fsnotify/fsnotify"
)

// 文件事件静默多久后才认为写入方落盘完毕
const watchSettleDelay = 500 * time.Millisecond

// 监听目录里认得的媒体扩展名
var watchableExts = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".webm": true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// Watch 监听本地目录，出现新媒体文件时自动入库。
// 阻塞直到 ctx 取消，通常在独立 goroutine 里跑。
func (l *Library) Watch(ctx context.Context, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return err
	}
	logger.Info("watching folder for media", logger.String("dir", dir))

	// 同一个文件落盘会触发 Create 加若干 Write：
	// 每个路径单独防抖，静默满 settle 周期才入库，
	// 事件循环本身不睡，ctx 取消随时生效。
	// 已入库的文件按修改时间去重。
	var mu sync.Mutex
	timers := make(map[string]*time.Timer)
	ingested := make(map[string]time.Time)

	defer func() {
		mu.Lock()
		for _, t := range timers {
			t.Stop()
		}
		mu.Unlock()
	}()

	schedule := func(path string) {
		mu.Lock()
		defer mu.Unlock()
		if t, ok := timers[path]; ok {
			t.Reset(watchSettleDelay)
			return
		}
		timers[path] = time.AfterFunc(watchSettleDelay, func() {
			mu.Lock()
			delete(timers, path)
			mu.Unlock()
			if ctx.Err() != nil {
				return
			}

			info, err := os.Stat(path)
			if err != nil || info.IsDir() || info.Size() == 0 {
				return
			}

			mu.Lock()
			prev, seen := ingested[path]
			if seen && !info.ModTime().After(prev) {
				mu.Unlock()
				return
			}
			ingested[path] = info.ModTime()
			mu.Unlock()

			l.ingestWatchedFile(ctx, path, info.Size())
		})
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !watchableExts[strings.ToLower(filepath.Ext(event.Name))] {
				continue
			}
			schedule(event.Name)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", logger.ErrorField(err))
		}
	}
}

func (l *Library) ingestWatchedFile(ctx context.Context, path string, size int64) {
	f, err := os.Open(path)
	if err != nil {
		logger.Warn("cannot open watched file", logger.String("path", path), logger.ErrorField(err))
		return
	}
	defer f.Close()

	name := filepath.Base(path)
	asset, err := l.ingest(ctx, name, contentTypeFor(name), f, size, model.AssetSourceWatch)
	if err != nil {
		logger.Warn("failed to ingest watched file", logger.String("path", path), logger.ErrorField(err))
		return
	}

	logger.Info("watched file ingested",
		logger.String("path", path),
		logger.String("assetId", asset.ID))
}
