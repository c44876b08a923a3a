package config

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/xgenio/xgen/lib/id"
	"github.com/xgenio/xgen/lib/infra"
	"github.com/xgenio/xgen/xlog"
)

// Loader keeps the settings file loaded and watches it for rewrites.
// The current snapshot is swapped atomically, readers never observe a
// half-applied document; a rewrite that fails validation is dropped and
// the previous snapshot stays in effect.
type Loader struct {
	dir      string
	filename string
	logger   xlog.XLogger
	current  atomic.Pointer[Config]
	watcher  atomic.Pointer[fsnotify.Watcher]

	mu          sync.Mutex
	subscribers map[string]chan *Config
	token       id.StrGen
}

func NewLoader(ctx context.Context, dir, filename string, logger xlog.XLogger) (*Loader, error) {
	cfg, err := Load(dir, filename)
	if err != nil {
		return nil, err
	}

	token, err := id.ShortToken(8)
	if err != nil {
		return nil, infra.WrapErrorStack(err)
	}
	loader := &Loader{
		dir:         dir,
		filename:    filename,
		logger:      logger.Named("ConfigLoader"),
		subscribers: make(map[string]chan *Config, 4),
		token:       token,
	}
	loader.current.Store(cfg)

	var watcher *fsnotify.Watcher
	if watcher, err = fsnotify.NewWatcher(); err != nil {
		return nil, infra.WrapErrorStackWithMessage(err, "failed to create config watcher")
	}
	loader.watcher.Store(watcher)
	if err = loader.watcher.Load().Add(dir); err != nil {
		_ = watcher.Close()
		return nil, infra.WrapErrorStackWithMessage(err, "failed to add config directory to watcher")
	}

	go loader.watchAndReload(ctx)
	return loader, nil
}

// Current returns the latest validated snapshot.
func (loader *Loader) Current() *Config {
	return loader.current.Load()
}

// Subscribe registers for reload notifications. The cancel closure
// unregisters and closes the channel.
func (loader *Loader) Subscribe() (<-chan *Config, func()) {
	ch := make(chan *Config, 1)
	loader.mu.Lock()
	key := loader.token()
	loader.subscribers[key] = ch
	loader.mu.Unlock()
	return ch, func() {
		loader.mu.Lock()
		if sub, ok := loader.subscribers[key]; ok {
			delete(loader.subscribers, key)
			close(sub)
		}
		loader.mu.Unlock()
	}
}

// Endless until the watch context is cancelled.
func (loader *Loader) watchAndReload(ctx context.Context) {
	target := filepath.Join(loader.dir, loader.filename)
	for {
		select {
		case <-ctx.Done():
			_ = loader.watcher.Load().Close()
			loader.watcher.Store(nil)
			return
		case event, ok := <-loader.watcher.Load().Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			cfg, err := Load(loader.dir, loader.filename)
			if err != nil {
				loader.logger.ErrorStack(err, "config rewrite rejected, keeping previous snapshot")
				continue
			}
			loader.current.Store(cfg)
			loader.logger.Info("config reloaded",
				zap.String("backend", string(cfg.Backend)),
				zap.Int("sequences", len(cfg.Sequences)),
			)
			loader.broadcast(cfg)
		case err, ok := <-loader.watcher.Load().Errors:
			if !ok {
				return
			}
			loader.logger.Error(err, "config watcher error")
		}
	}
}

func (loader *Loader) broadcast(cfg *Config) {
	loader.mu.Lock()
	defer loader.mu.Unlock()
	for _, sub := range loader.subscribers {
		select {
		case sub <- cfg:
		default:
			// Slow subscriber, drop this round.
		}
	}
}
