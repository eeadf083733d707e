package refract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
	"gopkg.in/yaml.v3"
)

// validate is the shared validator instance for imported preset documents.
var validate = validator.New()

// Snapshot is a named, persisted capture of the full cross-domain
// parameter set. Created on save, edited only via explicit overwrite,
// deleted explicitly.
type Snapshot struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Description  string           `json:"description,omitempty"`
	Parameters   map[string]Value `json:"parameters"`
	Tags         []string         `json:"tags,omitempty"`
	DateCreated  time.Time        `json:"dateCreated"`
	DateModified time.Time        `json:"dateModified"`
	IsBuiltIn    bool             `json:"isBuiltIn"`
}

// presetDocument is the import/export wire shape. Only name and
// parameters are required of an imported document.
type presetDocument struct {
	Name        string           `json:"name" yaml:"name" validate:"required"`
	Description string           `json:"description,omitempty" yaml:"description,omitempty"`
	Parameters  map[string]Value `json:"parameters" yaml:"parameters" validate:"required,min=1"`
	Tags        []string         `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Manager owns the user preset library: snapshot, apply, persist,
// import/export. Applying is logically atomic at the observable boundary:
// either every registered store reflects the new snapshot, or none does
// when the engine refuses, because nothing is mutated before engine
// confirmation.
type Manager struct {
	facade   Facade
	storage  Storage
	clock    clockz.Clock
	notifier Notifier

	mu      sync.Mutex
	stores  []*Store
	library map[string]Snapshot
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithNotifier routes preset and storage failures to a user-visible
// notifier.
func WithNotifier(n Notifier) ManagerOption {
	return func(m *Manager) {
		m.notifier = n
	}
}

// WithManagerClock sets the clock used for snapshot timestamps.
func WithManagerClock(clock clockz.Clock) ManagerOption {
	return func(m *Manager) {
		m.clock = clock
	}
}

// NewManager creates a Manager over the given facade and storage. Call
// Register to attach the domain stores, then Load to read the persisted
// library.
func NewManager(facade Facade, storage Storage, opts ...ManagerOption) *Manager {
	m := &Manager{
		facade:   facade,
		storage:  storage,
		clock:    clockz.RealClock,
		notifier: NoopNotifier{},
		library:  make(map[string]Snapshot),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register attaches domain stores to the apply fan-out. Every registered
// store is synced after a successful apply, visible panel or not.
func (m *Manager) Register(stores ...*Store) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stores = append(m.stores, stores...)
}

// Load reads the persisted library. On failure the in-memory library is
// kept and stays authoritative for the session.
func (m *Manager) Load() error {
	library, err := m.storage.Load()
	if err != nil {
		m.surfaceStorage("load", err)
		return err
	}
	m.mu.Lock()
	m.library = library
	m.mu.Unlock()
	return nil
}

// Snapshots returns the library sorted by creation time.
func (m *Manager) Snapshots() []Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Snapshot, 0, len(m.library))
	for _, snap := range m.library {
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].DateCreated.Before(out[j].DateCreated)
	})
	return out
}

// Get returns a snapshot by id.
func (m *Manager) Get(id string) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.library[id]
	return snap, ok
}

// Apply resolves a snapshot, asks the engine to apply it, and on success
// syncs every registered store unconditionally before emitting a single
// preset-applied signal. On engine refusal no store is touched; state is
// unchanged.
func (m *Manager) Apply(id string) error {
	m.mu.Lock()
	snap, ok := m.library[id]
	stores := make([]*Store, len(m.stores))
	copy(stores, m.stores)
	m.mu.Unlock()

	if !ok {
		m.notifier.Notify(LevelError, fmt.Sprintf("preset %q not found", id))
		return fmt.Errorf("apply %s: %w", id, ErrPresetNotFound)
	}

	if !m.facade.ApplyPreset(snap.Name) {
		capitan.Emit(context.Background(), PresetApplyFailed,
			KeyPreset.Field(snap.Name),
		)
		m.notifier.Notify(LevelError, fmt.Sprintf("could not apply preset %q", snap.Name))
		return fmt.Errorf("apply %s: %w", snap.Name, ErrPresetApply)
	}

	// Unconditional fan-out: no store may be left stale, including
	// domains whose panel is not visible.
	for _, store := range stores {
		store.SyncWithFacade()
	}

	capitan.Emit(context.Background(), PresetAppliedSignal,
		KeyPreset.Field(snap.Name),
		KeyCount.Field(len(snap.Parameters)),
	)
	return nil
}

// SaveAsNew snapshots the full parameter set and persists it under a new
// id. The snapshot reads from the facade, the source of truth, not from
// the stores, so store/engine drift can never be captured.
func (m *Manager) SaveAsNew(name, description string, tags []string) (Snapshot, error) {
	now := m.clock.Now()
	snap := Snapshot{
		ID:           uuid.NewString(),
		Name:         name,
		Description:  description,
		Parameters:   m.facade.AllParams(),
		Tags:         tags,
		DateCreated:  now,
		DateModified: now,
	}

	m.mu.Lock()
	m.library[snap.ID] = snap
	m.mu.Unlock()

	capitan.Emit(context.Background(), PresetSaved,
		KeyPreset.Field(snap.Name),
		KeyCount.Field(len(snap.Parameters)),
	)

	// Engine-side persistence is best-effort.
	if err := m.facade.SavePreset(PresetDescriptor{Name: snap.Name, Parameters: snap.Parameters}); err != nil {
		capitan.Emit(context.Background(), PushFailed,
			KeyPreset.Field(snap.Name),
			KeyError.Field(err.Error()),
		)
	}

	return snap, m.persist()
}

// Overwrite replaces an existing snapshot's parameters with the current
// facade state, bumping its modification time.
func (m *Manager) Overwrite(id string) error {
	m.mu.Lock()
	snap, ok := m.library[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("overwrite %s: %w", id, ErrPresetNotFound)
	}
	snap.Parameters = m.facade.AllParams()
	snap.DateModified = m.clock.Now()
	m.library[id] = snap
	m.mu.Unlock()

	capitan.Emit(context.Background(), PresetSaved,
		KeyPreset.Field(snap.Name),
	)
	return m.persist()
}

// Delete removes a snapshot from the library and, best-effort, from the
// engine.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	snap, ok := m.library[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("delete %s: %w", id, ErrPresetNotFound)
	}
	delete(m.library, id)
	m.mu.Unlock()

	_ = m.facade.DeletePreset(snap.Name) //nolint:errcheck // Engine-side removal is best-effort

	capitan.Emit(context.Background(), PresetDeleted,
		KeyPreset.Field(snap.Name),
	)
	return m.persist()
}

// Export encodes one snapshot as a standalone JSON document.
func (m *Manager) Export(id string) ([]byte, error) {
	m.mu.Lock()
	snap, ok := m.library[id]
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("export %s: %w", id, ErrPresetNotFound)
	}

	doc := presetDocument{
		Name:        snap.Name,
		Description: snap.Description,
		Parameters:  snap.Parameters,
		Tags:        snap.Tags,
	}
	return json.MarshalIndent(doc, "", "  ")
}

// Import decodes a single preset document (JSON or YAML, auto-detected),
// validates it, and adds it to the library under a fresh id.
func (m *Manager) Import(data []byte) (Snapshot, error) {
	var doc presetDocument
	if err := unmarshalDocument(data, &doc); err != nil {
		return Snapshot{}, fmt.Errorf("import: %w", err)
	}
	if err := validate.Struct(doc); err != nil {
		return Snapshot{}, fmt.Errorf("import: validation failed: %w", err)
	}

	now := m.clock.Now()
	snap := Snapshot{
		ID:           uuid.NewString(),
		Name:         doc.Name,
		Description:  doc.Description,
		Parameters:   doc.Parameters,
		Tags:         doc.Tags,
		DateCreated:  now,
		DateModified: now,
	}

	m.mu.Lock()
	m.library[snap.ID] = snap
	m.mu.Unlock()

	capitan.Emit(context.Background(), PresetSaved,
		KeyPreset.Field(snap.Name),
	)
	return snap, m.persist()
}

// WatchStorage reloads the library when the backing blob changes
// externally. No-op for storages that are not watchable.
func (m *Manager) WatchStorage(ctx context.Context) error {
	ws, ok := m.storage.(WatchableStorage)
	if !ok {
		return nil
	}

	ticks, err := ws.Watch(ctx)
	if err != nil {
		return err
	}

	go func() {
		for range ticks {
			library, err := m.storage.Load()
			if err != nil {
				m.surfaceStorage("load", err)
				continue
			}
			m.mu.Lock()
			m.library = library
			m.mu.Unlock()
			capitan.Emit(ctx, LibraryReloaded,
				KeyCount.Field(len(library)),
			)
		}
	}()
	return nil
}

// persist writes the library through storage. Failures surface as a
// notification; the in-memory library stays authoritative for the
// session.
func (m *Manager) persist() error {
	m.mu.Lock()
	library := make(map[string]Snapshot, len(m.library))
	for id, snap := range m.library {
		library[id] = snap
	}
	m.mu.Unlock()

	if err := m.storage.Save(library); err != nil {
		m.surfaceStorage("save", err)
		return err
	}
	return nil
}

func (m *Manager) surfaceStorage(op string, err error) {
	capitan.Emit(context.Background(), StorageFailed,
		KeyError.Field(err.Error()),
	)
	m.notifier.Notify(LevelError, fmt.Sprintf("preset storage %s failed: %v", op, err))
}

// unmarshalDocument parses a preset document, detecting JSON by leading
// character and falling back to YAML (which also accepts JSON).
func unmarshalDocument(data []byte, v any) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("decode JSON: %w", err)
		}
		return nil
	}
	return yaml.Unmarshal(data, v)
}
