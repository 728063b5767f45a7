package memory

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sandevgo/samara/internal/core"
	"github.com/sandevgo/samara/pkg/log"
)

var (
	//go:embed defaults/IDENTITY.md
	DefaultIdentity string
	//go:embed defaults/SYSTEM.md
	DefaultSystem string
)

const reloadDebounce = 300 * time.Millisecond

// Persona holds the bot's identity and standing instructions. The files in the
// runtime directory override the embedded defaults and are re-read when they
// change on disk.
type Persona struct {
	cfg core.PromptConfig

	mu       sync.RWMutex
	identity string
	system   string

	watcher *fsnotify.Watcher
}

func NewPersona(cfg core.PromptConfig) *Persona {
	p := &Persona{cfg: cfg}
	p.Reload()
	return p
}

// Reload re-reads both files, falling back to the defaults.
func (p *Persona) Reload() {
	identity := readOr(p.cfg.GetIdentityPath(), DefaultIdentity)
	system := readOr(p.cfg.GetSystemPath(), DefaultSystem)
	identity = strings.ReplaceAll(identity, "{{name}}", p.cfg.GetBotName())

	p.mu.Lock()
	p.identity = identity
	p.system = system
	p.mu.Unlock()
}

// Text returns the persona block placed at the top of every prompt.
func (p *Persona) Text() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return strings.TrimSpace(p.identity) + "\n\n" + strings.TrimSpace(p.system)
}

// Start watches the runtime directory until ctx is done.
func (p *Persona) Start(ctx context.Context) error {
	ctx = log.WithComponent(ctx, "persona")
	logger := log.FromCtx(ctx)

	dir := filepath.Dir(p.cfg.GetIdentityPath())
	if _, err := os.Stat(dir); err != nil {
		logger.Warn().Err(err).Str("dir", dir).Msg("runtime directory missing, persona reload disabled")
		<-ctx.Done()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create persona watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	p.mu.Lock()
	p.watcher = watcher
	p.mu.Unlock()

	watched := map[string]struct{}{
		filepath.Clean(p.cfg.GetIdentityPath()): {},
		filepath.Clean(p.cfg.GetSystemPath()):   {},
	}

	var debounce *time.Timer
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if _, hit := watched[filepath.Clean(event.Name)]; !hit {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(reloadDebounce, func() {
				p.Reload()
				logger.Info().Str("file", filepath.Base(event.Name)).Msg("persona reloaded")
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error().Err(err).Msg("persona watcher error")
		}
	}
}

func (p *Persona) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.watcher == nil {
		return nil
	}
	err := p.watcher.Close()
	p.watcher = nil
	return err
}

func readOr(path, fallback string) string {
	data, err := os.ReadFile(path)
	if err != nil || len(strings.TrimSpace(string(data))) == 0 {
		return fallback
	}
	return string(data)
}
