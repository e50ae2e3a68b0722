// Package profile implements named variable-value bundles used to
// pre-fill template placeholders, with default/active selection.
package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/scribemail/scribe/internal/store"
)

const (
	storageKey   = "profiles"
	activeKey    = "active_profile"
	untitledName = "Untitled Profile"
)

var (
	// ErrNotFound indicates the referenced profile id is unknown.
	ErrNotFound = errors.New("profile not found")
	// ErrMalformedImport indicates the import payload is not a JSON
	// array of profile records.
	ErrMalformedImport = errors.New("malformed profile import payload")
)

// Profile is a named bundle of variable values for autofill. At most one
// profile carries IsDefault.
type Profile struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Variables map[string]string `json:"variables"`
	Created   time.Time         `json:"created"`
	Modified  time.Time         `json:"modified"`
	IsDefault bool              `json:"isDefault"`
}

// UpdateFields carries a partial profile update. Nil fields keep their
// current value.
type UpdateFields struct {
	Name      *string
	Variables map[string]string
	IsDefault *bool
}

// ImportStrategy selects how an imported collection is applied.
type ImportStrategy int

const (
	MergeSkipDuplicateByName ImportStrategy = iota
	ReplaceAll
)

// Stats summarizes the collection.
type Stats struct {
	Total             int    `json:"totalProfiles"`
	HasDefault        bool   `json:"hasDefault"`
	HasActive         bool   `json:"hasActive"`
	ActiveProfileName string `json:"activeProfileName,omitempty"`
}

// Manager owns the profile collection and the active-profile pointer.
// Safe for concurrent use.
type Manager struct {
	store    *store.Store
	logger   *slog.Logger
	profiles []*Profile
	activeID string
	mu       sync.RWMutex
}

// NewManager creates a profile manager bound to st. Call Init before
// use.
func NewManager(st *store.Store, logger *slog.Logger) *Manager {
	return &Manager{store: st, logger: logger}
}

// Init loads the collection and the active pointer. A pointer that no
// longer resolves to an existing profile is cleared rather than trusted.
func (m *Manager) Init() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := m.store.Get(store.Local, storageKey)
	if err != nil {
		return fmt.Errorf("failed to load profiles: %w", err)
	}

	m.profiles = nil
	if data != nil {
		if err := json.Unmarshal(data, &m.profiles); err != nil {
			return fmt.Errorf("failed to parse stored profiles: %w", err)
		}
	}
	for _, p := range m.profiles {
		m.normalize(p)
	}

	active, err := m.store.Get(store.Local, activeKey)
	if err != nil {
		return fmt.Errorf("failed to load active profile: %w", err)
	}
	m.activeID = string(active)
	if m.activeID != "" && m.get(m.activeID) == nil {
		m.logger.Warn("active profile pointer is dangling, clearing", "id", m.activeID)
		m.activeID = ""
		if err := m.persistActive(); err != nil {
			return err
		}
	}

	m.logger.Info("profile manager initialized", "profiles", len(m.profiles))
	return nil
}

func (m *Manager) normalize(p *Profile) {
	now := time.Now()
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.Name == "" {
		p.Name = untitledName
	}
	if p.Variables == nil {
		p.Variables = make(map[string]string)
	}
	if p.Created.IsZero() {
		p.Created = now
	}
	if p.Modified.IsZero() {
		p.Modified = now
	}
}

// persist flushes the collection. Callers must hold mu.
func (m *Manager) persist() error {
	data, err := json.Marshal(m.profiles)
	if err != nil {
		return fmt.Errorf("failed to marshal profiles: %w", err)
	}
	return m.store.Put(store.Local, storageKey, data)
}

// persistActive flushes the active pointer. Callers must hold mu.
func (m *Manager) persistActive() error {
	if m.activeID == "" {
		return m.store.Delete(store.Local, activeKey)
	}
	return m.store.Put(store.Local, activeKey, []byte(m.activeID))
}

// get finds a profile by id. Callers must hold mu.
func (m *Manager) get(id string) *Profile {
	for _, p := range m.profiles {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// defaultProfile returns the profile marked default. Callers must hold
// mu.
func (m *Manager) defaultProfile() *Profile {
	for _, p := range m.profiles {
		if p.IsDefault {
			return p
		}
	}
	return nil
}

// active resolves the active pointer with default fallback. Callers must
// hold mu.
func (m *Manager) active() *Profile {
	if m.activeID != "" {
		if p := m.get(m.activeID); p != nil {
			return p
		}
	}
	return m.defaultProfile()
}

// clearDefaults unsets IsDefault everywhere except keep. Callers must
// hold mu.
func (m *Manager) clearDefaults(keep string) {
	for _, p := range m.profiles {
		if p.ID != keep {
			p.IsDefault = false
		}
	}
}

// Create adds a new profile. Setting isDefault clears the flag on every
// other profile in the same persist cycle; two defaults never coexist.
func (m *Manager) Create(name string, variables map[string]string, isDefault bool) (*Profile, error) {
	if name == "" {
		name = untitledName
	}
	if variables == nil {
		variables = make(map[string]string)
	}

	now := time.Now()
	p := &Profile{
		ID:        uuid.New().String(),
		Name:      name,
		Variables: variables,
		Created:   now,
		Modified:  now,
		IsDefault: isDefault,
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if isDefault {
		m.clearDefaults(p.ID)
	}

	m.profiles = append(m.profiles, p)
	if err := m.persist(); err != nil {
		m.profiles = m.profiles[:len(m.profiles)-1]
		return nil, err
	}

	m.logger.Info("profile created", "name", p.Name, "id", p.ID)
	return p, nil
}

// Update merges partial fields onto the profile. The default-exclusivity
// rule applies when the update sets IsDefault.
func (m *Manager) Update(id string, fields UpdateFields) (*Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := m.get(id)
	if p == nil {
		return nil, ErrNotFound
	}

	if fields.Name != nil {
		p.Name = *fields.Name
	}
	if fields.Variables != nil {
		p.Variables = fields.Variables
	}
	if fields.IsDefault != nil {
		p.IsDefault = *fields.IsDefault
		if p.IsDefault {
			m.clearDefaults(p.ID)
		}
	}
	p.Modified = time.Now()

	if err := m.persist(); err != nil {
		return nil, err
	}

	m.logger.Info("profile updated", "name", p.Name, "id", p.ID)
	return p, nil
}

// Delete removes the profile by id; zero profiles is a valid state. If
// the deleted profile was active, the active pointer is cleared.
func (m *Manager) Delete(id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, p := range m.profiles {
		if p.ID == id {
			m.profiles = append(m.profiles[:i], m.profiles[i+1:]...)

			if m.activeID == id {
				m.activeID = ""
				if err := m.persistActive(); err != nil {
					return false, err
				}
			}

			if err := m.persist(); err != nil {
				return false, err
			}
			m.logger.Info("profile deleted", "name", p.Name, "id", id)
			return true, nil
		}
	}
	return false, nil
}

// Get returns the profile by id, or nil when unknown.
func (m *Manager) Get(id string) *Profile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.get(id)
}

// All returns a copy of the collection slice.
func (m *Manager) All() []*Profile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*Profile(nil), m.profiles...)
}

// Default returns the profile marked default, or nil.
func (m *Manager) Default() *Profile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultProfile()
}

// Active returns the profile the active pointer names, falling back to
// the default profile, then nil.
func (m *Manager) Active() *Profile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active()
}

// SetActive points the active pointer at id. Fails when id is unknown.
func (m *Manager) SetActive(id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := m.get(id)
	if p == nil {
		return false, nil
	}

	m.activeID = id
	if err := m.persistActive(); err != nil {
		return false, err
	}
	m.logger.Info("active profile set", "name", p.Name, "id", id)
	return true, nil
}

// ClearActive drops the active pointer; Active then falls back to the
// default profile.
func (m *Manager) ClearActive() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.activeID = ""
	return m.persistActive()
}

// VariableValues returns the subset of the active profile's variables
// whose keys are in names. Empty-string values are treated as absent.
func (m *Manager) VariableValues(names []string) map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	values := make(map[string]string)

	p := m.active()
	if p == nil {
		return values
	}

	for _, name := range names {
		if v := p.Variables[name]; v != "" {
			values[name] = v
		}
	}
	return values
}

// UpdateVariable sets a single variable on a profile.
func (m *Manager) UpdateVariable(id, name, value string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := m.get(id)
	if p == nil {
		return false, nil
	}

	p.Variables[name] = value
	p.Modified = time.Now()
	if err := m.persist(); err != nil {
		return false, err
	}
	return true, nil
}

// UpdateVariables shallow-merges variables into a profile.
func (m *Manager) UpdateVariables(id string, variables map[string]string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := m.get(id)
	if p == nil {
		return false, nil
	}

	for k, v := range variables {
		p.Variables[k] = v
	}
	p.Modified = time.Now()
	if err := m.persist(); err != nil {
		return false, err
	}
	return true, nil
}

// Export serializes the full collection, pretty-printed.
func (m *Manager) Export() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, err := json.MarshalIndent(m.profiles, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to export profiles: %w", err)
	}
	return string(data), nil
}

// Import applies a serialized profile array. Imported records always get
// fresh ids and timestamps, under both strategies. Merge skips records
// whose name already exists. Returns the number of records added (the
// new collection size for ReplaceAll).
func (m *Manager) Import(data []byte, strategy ImportStrategy) (int, error) {
	var imported []*Profile
	if err := json.Unmarshal(data, &imported); err != nil {
		return 0, ErrMalformedImport
	}

	now := time.Now()
	regenerate := func(p *Profile) {
		p.ID = uuid.New().String()
		p.Created = now
		p.Modified = now
		m.normalize(p)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	switch strategy {
	case ReplaceAll:
		for _, p := range imported {
			regenerate(p)
		}
		prev := m.profiles
		m.profiles = imported
		if err := m.persist(); err != nil {
			m.profiles = prev
			return 0, err
		}
		m.logger.Info("profiles replaced by import", "count", len(imported))
		return len(imported), nil

	default:
		existing := make(map[string]bool, len(m.profiles))
		for _, p := range m.profiles {
			existing[p.Name] = true
		}

		added := 0
		for _, p := range imported {
			if existing[p.Name] {
				continue
			}
			regenerate(p)
			m.profiles = append(m.profiles, p)
			existing[p.Name] = true
			added++
		}

		if added > 0 {
			if err := m.persist(); err != nil {
				m.profiles = m.profiles[:len(m.profiles)-added]
				return 0, err
			}
		}
		m.logger.Info("profiles imported", "added", added, "skipped", len(imported)-added)
		return added, nil
	}
}

// Stats summarizes the collection.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := Stats{
		Total:     len(m.profiles),
		HasActive: m.activeID != "",
	}
	if d := m.defaultProfile(); d != nil {
		s.HasDefault = true
	}
	if a := m.active(); a != nil {
		s.ActiveProfileName = a.Name
	}
	return s
}
