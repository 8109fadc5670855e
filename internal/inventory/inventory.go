// Package inventory maintains the list of media files eligible for spawning.
// The list is rebuilt wholesale on each reload and swapped in as a single
// snapshot, so concurrent readers never observe a partially built list.
package inventory

import (
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// allowedExtensions is the case-insensitive extension allow-list. Files
// without an extension, or with one not listed here, are excluded.
var allowedExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".avi":  true,
	".mov":  true,
	".webm": true,
	".flv":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

// Eligible reports whether path has an allow-listed media extension.
func Eligible(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return allowedExtensions[ext]
}

// Provider scans a root folder for eligible media files. All methods are safe
// for concurrent use; a reload runs its directory scan with no lock held and
// only takes the lock to swap the finished snapshot in.
type Provider struct {
	mu    sync.RWMutex
	root  string
	files []string
}

func NewProvider(root string) *Provider {
	return &Provider{root: root}
}

// Reload rebuilds the file list from the current root and returns the new
// file count. An empty root or an unreadable directory yields an empty
// inventory, never an error: a spawner with nothing to spawn is a valid
// state.
func (p *Provider) Reload() int {
	p.mu.RLock()
	root := p.root
	p.mu.RUnlock()

	files := scan(root)

	p.mu.Lock()
	p.files = files
	p.mu.Unlock()

	return len(files)
}

// SetRoot changes the scanned folder and rebuilds the inventory if the root
// actually changed. Returns the resulting file count.
func (p *Provider) SetRoot(root string) int {
	p.mu.Lock()
	changed := p.root != root
	p.root = root
	if !changed {
		n := len(p.files)
		p.mu.Unlock()
		return n
	}
	p.mu.Unlock()
	return p.Reload()
}

func (p *Provider) Root() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.root
}

// Snapshot returns the current file list. The returned slice is the
// immutable snapshot itself and must not be modified by callers.
func (p *Provider) Snapshot() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.files
}

func (p *Provider) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.files)
}

// scan lists root and returns the sorted eligible file paths. Failures are
// logged and reported as an empty list.
func scan(root string) []string {
	if root == "" {
		return nil
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		log.Printf("inventory: cannot open folder %s: %v", root, err)
		return nil
	}

	var files []string
	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}
		if Eligible(ent.Name()) {
			files = append(files, filepath.Join(root, ent.Name()))
		}
	}
	sort.Strings(files)

	log.Printf("inventory: %d files found in %s", len(files), root)
	return files
}
