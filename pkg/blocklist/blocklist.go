package blocklist

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Blocklist holds the set of hosts the proxy refuses to forward to.
// The backing file is newline-delimited hostnames; blank lines and lines
// starting with '#' are ignored. A leading "*." makes an entry match all
// subdomains as well as the apex.
type Blocklist struct {
	path   string
	logger *slog.Logger

	// mu protects hosts and wildcards
	mu        sync.RWMutex
	hosts     map[string]struct{}
	wildcards []string

	watcher  *fsnotify.Watcher
	debounce *time.Timer
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// debounceInterval is the quiet period after a file event before reloading,
// so editors that write in multiple syscalls trigger one reload.
const debounceInterval = 100 * time.Millisecond

// New loads the blocklist from path and starts watching it for changes.
// An empty path returns a blocklist that blocks nothing and watches
// nothing. A missing file is an error; an unreadable file mid-flight
// keeps the previous set.
func New(path string, logger *slog.Logger) (*Blocklist, error) {
	if logger == nil {
		logger = slog.Default()
	}

	b := &Blocklist{
		path:   path,
		logger: logger,
		hosts:  make(map[string]struct{}),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	if path == "" {
		close(b.doneCh)
		return b, nil
	}

	if err := b.reload(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch blocklist %q: %w", path, err)
	}
	b.watcher = watcher

	go b.watch()

	return b, nil
}

// Blocked reports whether host is on the blocklist. Matching is
// case-insensitive and ignores a trailing dot.
func (b *Blocklist) Blocked(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))

	b.mu.RLock()
	defer b.mu.RUnlock()

	if _, ok := b.hosts[host]; ok {
		return true
	}
	for _, suffix := range b.wildcards {
		if host == suffix || strings.HasSuffix(host, "."+suffix) {
			return true
		}
	}
	return false
}

// Len returns the number of configured entries.
func (b *Blocklist) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.hosts) + len(b.wildcards)
}

// Close stops the file watcher.
func (b *Blocklist) Close() error {
	if b.watcher == nil {
		return nil
	}
	close(b.stopCh)
	<-b.doneCh
	return b.watcher.Close()
}

// reload reads the backing file and swaps in the new set.
func (b *Blocklist) reload() error {
	f, err := os.Open(b.path)
	if err != nil {
		return fmt.Errorf("failed to read blocklist %q: %w", b.path, err)
	}
	defer f.Close()

	hosts := make(map[string]struct{})
	var wildcards []string

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.ToLower(line)
		if suffix, ok := strings.CutPrefix(line, "*."); ok {
			wildcards = append(wildcards, suffix)
			continue
		}
		hosts[line] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to scan blocklist %q: %w", b.path, err)
	}

	b.mu.Lock()
	b.hosts = hosts
	b.wildcards = wildcards
	b.mu.Unlock()

	b.logger.Info("blocklist loaded",
		"path", b.path,
		"hosts", len(hosts),
		"wildcards", len(wildcards),
	)
	return nil
}

// watch processes file events until Close is called. Reloads are
// debounced, and a failed reload keeps the previous set.
func (b *Blocklist) watch() {
	defer close(b.doneCh)

	for {
		select {
		case <-b.stopCh:
			return

		case event, ok := <-b.watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Chmod == fsnotify.Chmod {
				continue
			}

			b.logger.Debug("blocklist file event",
				"path", event.Name,
				"op", event.Op.String(),
			)

			b.mu.Lock()
			if b.debounce != nil {
				b.debounce.Stop()
			}
			b.debounce = time.AfterFunc(debounceInterval, func() {
				// Editors replace files by rename; re-add the path so
				// the new inode keeps being watched.
				if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
					b.watcher.Add(b.path)
				}
				if err := b.reload(); err != nil {
					b.logger.Error("blocklist reload failed, keeping previous set",
						"error", err,
					)
				}
			})
			b.mu.Unlock()

		case err, ok := <-b.watcher.Errors:
			if !ok {
				return
			}
			b.logger.Error("blocklist watcher error", "error", err)
		}
	}
}
