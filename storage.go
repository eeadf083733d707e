package refract

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Storage persists the user preset library as one opaque blob under a
// fixed location. Implementations do not interpret snapshot contents.
type Storage interface {
	// Load reads the full library. A missing blob returns an empty map,
	// not an error.
	Load() (map[string]Snapshot, error)

	// Save writes the full library.
	Save(library map[string]Snapshot) error
}

// WatchableStorage is optionally implemented by storages whose backing
// blob can change externally (another window, manual edits).
type WatchableStorage interface {
	Storage

	// Watch emits a tick whenever the backing blob changes outside this
	// process. The channel closes when ctx is canceled.
	Watch(ctx context.Context) (<-chan struct{}, error)
}

// MemoryStorage keeps the library in memory. Used in tests and as the
// fallback when no persistent location is available.
type MemoryStorage struct {
	library map[string]Snapshot
}

// NewMemoryStorage creates an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{library: make(map[string]Snapshot)}
}

// Load returns a copy of the stored library.
func (m *MemoryStorage) Load() (map[string]Snapshot, error) {
	out := make(map[string]Snapshot, len(m.library))
	for id, snap := range m.library {
		out[id] = snap
	}
	return out, nil
}

// Save replaces the stored library.
func (m *MemoryStorage) Save(library map[string]Snapshot) error {
	m.library = make(map[string]Snapshot, len(library))
	for id, snap := range library {
		m.library[id] = snap
	}
	return nil
}

// FileStorage persists the library as a single JSON document at one
// fixed path.
type FileStorage struct {
	path string
}

// NewFileStorage creates a FileStorage at path. The file is created on
// first Save.
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

// Load reads and decodes the library file. A missing file is an empty
// library.
func (f *FileStorage) Load() (map[string]Snapshot, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return make(map[string]Snapshot), nil
	}
	if err != nil {
		return nil, &StorageError{Op: "load", Err: err}
	}

	var library map[string]Snapshot
	if err := json.Unmarshal(data, &library); err != nil {
		return nil, &StorageError{Op: "load", Err: fmt.Errorf("decode library: %w", err)}
	}
	if library == nil {
		library = make(map[string]Snapshot)
	}
	return library, nil
}

// Save encodes and writes the library atomically (temp file + rename).
func (f *FileStorage) Save(library map[string]Snapshot) error {
	data, err := json.MarshalIndent(library, "", "  ")
	if err != nil {
		return &StorageError{Op: "save", Err: err}
	}

	tmp := f.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return &StorageError{Op: "save", Err: err}
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return &StorageError{Op: "save", Err: err}
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return &StorageError{Op: "save", Err: err}
	}
	return nil
}

// Watch emits a tick whenever the library file is written or created.
// External edits (another editor window) trigger a reload in the Manager.
func (f *FileStorage) Watch(ctx context.Context) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	// Watch the directory: the file may not exist yet, and atomic saves
	// replace it by rename.
	dir := filepath.Dir(f.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	out := make(chan struct{}, 1)

	go func() {
		defer close(out)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != f.path {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				select {
				case out <- struct{}{}:
				default:
					// A reload is already pending.
				}

			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
				// Keep watching despite errors.
			}
		}
	}()

	return out, nil
}
