package template

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/scribemail/scribe/internal/store"
)

const storageKey = "templates"

// DefaultCategories is the seed category taxonomy. New categories may be
// registered at runtime via AddCategory.
var DefaultCategories = []string{"Work", "Personal", "Support", "Sales", "Follow-up", "Signature", "Other"}

var (
	// ErrNotFound indicates the referenced template id is unknown.
	ErrNotFound = errors.New("template not found")
	// ErrMalformedImport indicates the import payload is not a JSON
	// array of template records. The collection is left untouched.
	ErrMalformedImport = errors.New("malformed template import payload")
)

// Manager owns the template collection. All mutation goes through its
// methods; the collection is flushed to the store on every mutating call.
// Safe for concurrent use.
type Manager struct {
	store      *store.Store
	logger     *slog.Logger
	templates  []*Template
	categories []string
	mu         sync.RWMutex
}

// NewManager creates a template manager bound to st. Call Init before
// use.
func NewManager(st *store.Store, logger *slog.Logger) *Manager {
	return &Manager{
		store:      st,
		logger:     logger,
		categories: append([]string(nil), DefaultCategories...),
	}
}

// Init loads the collection from storage. Records missing fields (from
// older versions or hand-edited imports) are normalized in place.
func (m *Manager) Init() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := m.store.Get(store.Local, storageKey)
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}

	m.templates = nil
	if data != nil {
		if err := json.Unmarshal(data, &m.templates); err != nil {
			return fmt.Errorf("failed to parse stored templates: %w", err)
		}
	}

	for _, t := range m.templates {
		m.normalize(t)
	}

	m.logger.Info("template manager initialized", "templates", len(m.templates))
	return nil
}

// normalize backfills required fields on a loaded or imported record.
func (m *Manager) normalize(t *Template) {
	now := time.Now()
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.Name == "" {
		t.Name = "Untitled"
	}
	if t.Category == "" {
		t.Category = "Other"
	}
	if t.Created.IsZero() {
		t.Created = now
	}
	if t.Modified.IsZero() {
		t.Modified = now
	}
	t.Variables = ExtractVariables(t.Subject + " " + t.Body)
}

// persist flushes the collection. Callers must hold mu.
func (m *Manager) persist() error {
	data, err := json.Marshal(m.templates)
	if err != nil {
		return fmt.Errorf("failed to marshal templates: %w", err)
	}
	return m.store.Put(store.Local, storageKey, data)
}

// get finds a template by id. Callers must hold mu.
func (m *Manager) get(id string) *Template {
	for _, t := range m.templates {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// Create adds a new template. Empty name and category fall back to
// defaults; well-formed input never fails short of a persistence error.
func (m *Manager) Create(name, subject, body, category string) (*Template, error) {
	if name == "" {
		name = "Untitled Template"
	}
	if category == "" {
		category = "Other"
	}

	now := time.Now()
	t := &Template{
		ID:        uuid.New().String(),
		Name:      name,
		Subject:   subject,
		Body:      body,
		Category:  category,
		Variables: ExtractVariables(subject + " " + body),
		Created:   now,
		Modified:  now,
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.templates = append(m.templates, t)
	if err := m.persist(); err != nil {
		m.templates = m.templates[:len(m.templates)-1]
		return nil, err
	}

	m.logger.Info("template created", "name", t.Name, "id", t.ID)
	return t, nil
}

// Update merges partial fields onto the template, recomputes Variables
// from the resulting subject and body, and bumps Modified.
func (m *Manager) Update(id string, fields UpdateFields) (*Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.get(id)
	if t == nil {
		return nil, ErrNotFound
	}

	prev := *t
	if fields.Name != nil {
		t.Name = *fields.Name
	}
	if fields.Subject != nil {
		t.Subject = *fields.Subject
	}
	if fields.Body != nil {
		t.Body = *fields.Body
	}
	if fields.Category != nil {
		t.Category = *fields.Category
	}
	t.Variables = ExtractVariables(t.Subject + " " + t.Body)
	t.Modified = time.Now()

	if err := m.persist(); err != nil {
		*t = prev
		return nil, err
	}

	m.logger.Info("template updated", "name", t.Name, "id", t.ID)
	return t, nil
}

// Delete removes the template by id. Returns false when the id is
// unknown. Templates have no minimum-count floor.
func (m *Manager) Delete(id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, t := range m.templates {
		if t.ID == id {
			m.templates = append(m.templates[:i], m.templates[i+1:]...)
			if err := m.persist(); err != nil {
				return false, err
			}
			m.logger.Info("template deleted", "name", t.Name, "id", id)
			return true, nil
		}
	}
	return false, nil
}

// Get returns the template by id, or nil when unknown.
func (m *Manager) Get(id string) *Template {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.get(id)
}

// All returns a copy of the collection slice.
func (m *Manager) All() []*Template {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*Template(nil), m.templates...)
}

// ByCategory returns templates in the given category.
func (m *Manager) ByCategory(category string) []*Template {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Template
	for _, t := range m.templates {
		if t.Category == category {
			out = append(out, t)
		}
	}
	return out
}

// Search matches query case-insensitively against name, subject, body
// and category; a template matches if any field contains the query.
func (m *Manager) Search(query string) []*Template {
	m.mu.RLock()
	defer m.mu.RUnlock()

	q := strings.ToLower(query)
	var out []*Template
	for _, t := range m.templates {
		if strings.Contains(strings.ToLower(t.Name), q) ||
			strings.Contains(strings.ToLower(t.Subject), q) ||
			strings.Contains(strings.ToLower(t.Body), q) ||
			strings.Contains(strings.ToLower(t.Category), q) {
			out = append(out, t)
		}
	}
	return out
}

// Render returns a copy of the template with placeholders substituted.
func (m *Manager) Render(id string, values map[string]string) (*Template, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t := m.get(id)
	if t == nil {
		return nil, ErrNotFound
	}

	rendered := *t
	rendered.Subject = Substitute(t.Subject, values)
	rendered.Body = Substitute(t.Body, values)
	return &rendered, nil
}

// IncrementUsage bumps the usage counter. Usage increments do not touch
// Modified; only content edits do. Unknown ids are a no-op.
func (m *Manager) IncrementUsage(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.get(id)
	if t == nil {
		return nil
	}
	t.UsageCount++
	return m.persist()
}

// MostUsed returns up to limit templates ordered by descending usage.
func (m *Manager) MostUsed(limit int) []*Template {
	sorted := m.All()
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].UsageCount > sorted[j].UsageCount
	})
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

// Duplicate copies a template under a " (Copy)" name with fresh identity
// and zeroed usage.
func (m *Manager) Duplicate(id string) (*Template, error) {
	m.mu.RLock()
	t := m.get(id)
	if t == nil {
		m.mu.RUnlock()
		return nil, ErrNotFound
	}
	name, subject, body, category := t.Name, t.Subject, t.Body, t.Category
	m.mu.RUnlock()

	return m.Create(name+" (Copy)", subject, body, category)
}

// Categories returns the registered category list.
func (m *Manager) Categories() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.categories...)
}

// AddCategory registers a new category. Returns false if it already
// exists.
func (m *Manager) AddCategory(category string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range m.categories {
		if c == category {
			return false
		}
	}
	m.categories = append(m.categories, category)
	return true
}

// HasTemplates reports whether the collection is non-empty.
func (m *Manager) HasTemplates() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.templates) > 0
}

// Export serializes the full collection, pretty-printed.
func (m *Manager) Export() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, err := json.MarshalIndent(m.templates, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to export templates: %w", err)
	}
	return string(data), nil
}

// Import applies a serialized template array. With
// MergeSkipDuplicateByName, records whose name already exists are
// skipped and newly added records get fresh ids and timestamps; with
// ReplaceAll the whole collection is replaced. Returns the number of
// records added (the new collection size for ReplaceAll). A payload that
// is not a JSON array fails with ErrMalformedImport and leaves the
// collection untouched.
func (m *Manager) Import(data []byte, strategy ImportStrategy) (int, error) {
	var imported []*Template
	if err := json.Unmarshal(data, &imported); err != nil {
		return 0, ErrMalformedImport
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	switch strategy {
	case ReplaceAll:
		for _, t := range imported {
			t.ID = ""
			m.normalize(t)
		}
		prev := m.templates
		m.templates = imported
		if err := m.persist(); err != nil {
			m.templates = prev
			return 0, err
		}
		m.logger.Info("templates replaced by import", "count", len(imported))
		return len(imported), nil

	default:
		existing := make(map[string]bool, len(m.templates))
		for _, t := range m.templates {
			existing[t.Name] = true
		}

		added := 0
		now := time.Now()
		for _, t := range imported {
			if existing[t.Name] {
				continue
			}
			t.ID = uuid.New().String()
			t.Created = now
			t.Modified = now
			t.UsageCount = 0
			m.normalize(t)
			m.templates = append(m.templates, t)
			existing[t.Name] = true
			added++
		}

		if added > 0 {
			if err := m.persist(); err != nil {
				m.templates = m.templates[:len(m.templates)-added]
				return 0, err
			}
		}
		m.logger.Info("templates imported", "added", added, "skipped", len(imported)-added)
		return added, nil
	}
}

// Stats summarizes the collection.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := Stats{ByCategory: make(map[string]int)}
	for _, t := range m.templates {
		s.Total++
		s.ByCategory[t.Category]++
		s.TotalUsage += t.UsageCount
		if len(t.Variables) > 0 {
			s.WithVariables++
			s.TotalVariables += len(t.Variables)
		}
	}
	return s
}

// StorageUsage reports the serialized size of the collection against the
// bulk-storage ceiling.
func (m *Manager) StorageUsage() (StorageUsage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, err := json.Marshal(m.templates)
	if err != nil {
		return StorageUsage{}, err
	}

	used := len(data)
	percent := used * 100 / store.MaxLocalBytes
	return StorageUsage{
		Used:        used,
		Max:         store.MaxLocalBytes,
		PercentUsed: percent,
		NearLimit:   percent > 80,
		AtLimit:     percent > 95,
	}, nil
}
