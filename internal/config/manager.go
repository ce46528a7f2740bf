package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	yaml "go.yaml.in/yaml/v3"
)

// Manager loads the optional options file and republishes it on change.
// With an empty path it simply serves defaults.
type Manager struct {
	path string
	env  Environment

	mu   sync.RWMutex
	opts Options
	subs []chan Options
}

func NewManager(path string, env Environment) *Manager {
	return &Manager{path: path, env: env, opts: Defaults(env)}
}

func (m *Manager) Load() (Options, error) {
	if m.path == "" {
		return m.Get(), nil
	}
	b, err := os.ReadFile(m.path)
	if err != nil {
		return Options{}, err
	}
	var file Options
	if err := yaml.Unmarshal(b, &file); err != nil {
		return Options{}, err
	}
	opts := merge(Defaults(m.env), file)
	m.mu.Lock()
	m.opts = opts
	m.mu.Unlock()
	return opts, nil
}

func (m *Manager) Get() Options {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.opts
}

func (m *Manager) Subscribe(buffer int) <-chan Options {
	ch := make(chan Options, buffer)
	m.mu.Lock()
	m.subs = append(m.subs, ch)
	m.mu.Unlock()
	return ch
}

func (m *Manager) publish(opts Options) {
	m.mu.RLock()
	subs := append([]chan Options{}, m.subs...)
	m.mu.RUnlock()
	for _, ch := range subs {
		select {
		case ch <- opts:
		default:
			// drop if slow subscriber
		}
	}
}

// Watch blocks until ctx is done, republishing the options after each
// debounced file change. It is a no-op when no file path was given.
func (m *Manager) Watch(ctx context.Context) error {
	if m.path == "" {
		<-ctx.Done()
		return nil
	}

	dir := filepath.Dir(m.path)
	file := filepath.Base(m.path)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}

	// debounce to avoid partial writes
	var (
		timerMu sync.Mutex
		timer   *time.Timer
	)
	debounce := func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(250*time.Millisecond, func() {
			opts, err := m.Load()
			if err == nil {
				m.publish(opts)
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-w.Events:
			if ev.Name == filepath.Join(dir, file) {
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					debounce()
				}
			}
		case <-w.Errors:
			// keep watching
		}
	}
}
