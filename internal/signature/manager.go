// Package signature manages email signature bodies rendered from a
// fixed schema of user-profile fields, plus the dynamic verse/quote
// placeholders. Unlike templates and profiles, the signature collection
// is never allowed to be empty.
package signature

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/scribemail/scribe/internal/store"
	"github.com/scribemail/scribe/internal/template"
)

const (
	storageKey     = "signatures"
	userProfileKey = "user_profile"
	activeKey      = "active_signature"
)

var (
	// ErrNotFound indicates the referenced signature id is unknown.
	ErrNotFound = errors.New("signature not found")
	// ErrLastSignature is returned when deleting the only remaining
	// signature. At least one signature must always exist.
	ErrLastSignature = errors.New("cannot delete the last signature")
	// ErrMalformedImport indicates the import payload is not a JSON
	// array of signature records.
	ErrMalformedImport = errors.New("malformed signature import payload")
)

// Signature is a named HTML signature body over the fixed user-profile
// schema.
type Signature struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	IsDefault   bool      `json:"isDefault"`
	HTML        string    `json:"html"`
	Variables   []string  `json:"variables"`
	Created     time.Time `json:"created"`
	Modified    time.Time `json:"modified"`
}

// UpdateFields carries a partial signature update.
type UpdateFields struct {
	Name        *string
	Description *string
	Category    *string
	HTML        *string
}

// SocialLinks holds the social-media fields of the user profile.
type SocialLinks struct {
	Facebook  string `json:"facebook"`
	Instagram string `json:"instagram"`
	Twitter   string `json:"twitter"`
	LinkedIn  string `json:"linkedin"`
	YouTube   string `json:"youtube"`
}

// UserProfile is the single shared record holding the canonical values
// for the fixed signature schema. Unknown fields land in CustomFields
// and are preserved, not rejected.
type UserProfile struct {
	FullName     string            `json:"fullName"`
	FirstName    string            `json:"firstName"`
	LastName     string            `json:"lastName"`
	Title        string            `json:"title"`
	Subtitle     string            `json:"subtitle"`
	Company      string            `json:"company"`
	Phone        string            `json:"phone"`
	Mobile       string            `json:"mobile"`
	Email        string            `json:"email"`
	Website      string            `json:"website"`
	Address      string            `json:"address"`
	City         string            `json:"city"`
	State        string            `json:"state"`
	Zip          string            `json:"zip"`
	SocialLinks  SocialLinks       `json:"socialLinks"`
	CustomFields map[string]string `json:"customFields"`
}

// fieldMap flattens the profile into the substitution value table.
// Custom fields are storage-only and do not appear in the table.
func (u *UserProfile) fieldMap() map[string]string {
	return map[string]string{
		"fullName":  u.FullName,
		"firstName": u.FirstName,
		"lastName":  u.LastName,
		"title":     u.Title,
		"subtitle":  u.Subtitle,
		"company":   u.Company,
		"phone":     u.Phone,
		"mobile":    u.Mobile,
		"email":     u.Email,
		"website":   u.Website,
		"address":   u.Address,
		"city":      u.City,
		"state":     u.State,
		"zip":       u.Zip,
		"facebook":  u.SocialLinks.Facebook,
		"instagram": u.SocialLinks.Instagram,
		"twitter":   u.SocialLinks.Twitter,
		"linkedin":  u.SocialLinks.LinkedIn,
		"youtube":   u.SocialLinks.YouTube,
	}
}

// VerseResolver resolves the dynamic verse/quote placeholders in a
// signature body.
type VerseResolver interface {
	ProcessSpecialVariables(ctx context.Context, text string) string
}

// Manager owns the signature collection, the shared user profile and
// the active-signature pointer. Safe for concurrent use.
type Manager struct {
	store       *store.Store
	verses      VerseResolver
	logger      *slog.Logger
	signatures  []*Signature
	userProfile UserProfile
	activeID    string
	mu          sync.RWMutex
}

// NewManager creates a signature manager bound to st. verses may be nil,
// in which case dynamic placeholders are rendered blank. Call Init
// before use.
func NewManager(st *store.Store, verses VerseResolver, logger *slog.Logger) *Manager {
	return &Manager{store: st, verses: verses, logger: logger}
}

// Init loads signatures, the user profile and the active pointer. An
// empty collection is seeded with the default signatures; a dangling
// active pointer is reassigned to the first signature.
func (m *Manager) Init() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := m.store.Get(store.Local, storageKey)
	if err != nil {
		return fmt.Errorf("failed to load signatures: %w", err)
	}
	m.signatures = nil
	if data != nil {
		if err := json.Unmarshal(data, &m.signatures); err != nil {
			return fmt.Errorf("failed to parse stored signatures: %w", err)
		}
	}

	if data, err = m.store.Get(store.Local, userProfileKey); err != nil {
		return fmt.Errorf("failed to load user profile: %w", err)
	}
	m.userProfile = UserProfile{CustomFields: make(map[string]string)}
	if data != nil {
		if err := json.Unmarshal(data, &m.userProfile); err != nil {
			return fmt.Errorf("failed to parse user profile: %w", err)
		}
		if m.userProfile.CustomFields == nil {
			m.userProfile.CustomFields = make(map[string]string)
		}
	}

	active, err := m.store.Get(store.Local, activeKey)
	if err != nil {
		return fmt.Errorf("failed to load active signature: %w", err)
	}
	m.activeID = string(active)

	if len(m.signatures) == 0 {
		if err := m.seedDefaults(); err != nil {
			return err
		}
	}

	if m.get(m.activeID) == nil {
		m.logger.Warn("active signature pointer is dangling, reassigning", "id", m.activeID)
		m.activeID = m.signatures[0].ID
		if err := m.persistActive(); err != nil {
			return err
		}
	}

	m.logger.Info("signature manager initialized", "signatures", len(m.signatures))
	return nil
}

// seedDefaults installs the built-in signature set. The first entry is
// both default and active.
func (m *Manager) seedDefaults() error {
	now := time.Now()
	seeds := []*Signature{
		{
			ID:          uuid.New().String(),
			Name:        "College Professional",
			Description: "Professional signature with address, social links and verse of the day",
			Category:    "professional",
			IsDefault:   true,
			HTML:        collegeProfessionalHTML,
			Created:     now,
			Modified:    now,
		},
		{
			ID:          uuid.New().String(),
			Name:        "Simple Professional",
			Description: "Clean and simple professional signature",
			Category:    "professional",
			HTML:        simpleProfessionalHTML,
			Created:     now,
			Modified:    now,
		},
		{
			ID:          uuid.New().String(),
			Name:        "Minimal",
			Description: "Minimal signature with just the essentials",
			Category:    "minimal",
			HTML:        minimalHTML,
			Created:     now,
			Modified:    now,
		},
	}
	for _, s := range seeds {
		s.Variables = template.ExtractVariables(s.HTML)
	}

	m.signatures = seeds
	m.activeID = seeds[0].ID

	if err := m.persist(); err != nil {
		return err
	}
	if err := m.persistActive(); err != nil {
		return err
	}
	m.logger.Info("default signatures created", "count", len(seeds))
	return nil
}

func (m *Manager) persist() error {
	data, err := json.Marshal(m.signatures)
	if err != nil {
		return fmt.Errorf("failed to marshal signatures: %w", err)
	}
	return m.store.Put(store.Local, storageKey, data)
}

func (m *Manager) persistActive() error {
	return m.store.Put(store.Local, activeKey, []byte(m.activeID))
}

func (m *Manager) persistUserProfile() error {
	data, err := json.Marshal(m.userProfile)
	if err != nil {
		return fmt.Errorf("failed to marshal user profile: %w", err)
	}
	return m.store.Put(store.Local, userProfileKey, data)
}

// get finds a signature by id. Callers must hold mu.
func (m *Manager) get(id string) *Signature {
	for _, s := range m.signatures {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// active resolves the active pointer with first-signature fallback.
// Callers must hold mu.
func (m *Manager) active() *Signature {
	if s := m.get(m.activeID); s != nil {
		return s
	}
	if len(m.signatures) > 0 {
		return m.signatures[0]
	}
	return nil
}

// Get returns the signature by id, or nil when unknown.
func (m *Manager) Get(id string) *Signature {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.get(id)
}

// All returns a copy of the collection slice.
func (m *Manager) All() []*Signature {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*Signature(nil), m.signatures...)
}

// ByCategory returns signatures in the given category.
func (m *Manager) ByCategory(category string) []*Signature {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Signature
	for _, s := range m.signatures {
		if s.Category == category {
			out = append(out, s)
		}
	}
	return out
}

// Active returns the active signature, falling back to the first in the
// collection.
func (m *Manager) Active() *Signature {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active()
}

// SetActive points the active pointer at id. Fails when id is unknown.
func (m *Manager) SetActive(id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.get(id)
	if s == nil {
		return false, nil
	}
	m.activeID = id
	if err := m.persistActive(); err != nil {
		return false, err
	}
	m.logger.Info("active signature set", "name", s.Name, "id", id)
	return true, nil
}

// Add creates a new signature from user-supplied fields. Variables are
// derived from the body.
func (m *Manager) Add(name, description, category, html string) (*Signature, error) {
	if name == "" {
		name = "New Signature"
	}
	if category == "" {
		category = "custom"
	}

	now := time.Now()
	s := &Signature{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
		Category:    category,
		HTML:        html,
		Variables:   template.ExtractVariables(html),
		Created:     now,
		Modified:    now,
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.signatures = append(m.signatures, s)
	if err := m.persist(); err != nil {
		m.signatures = m.signatures[:len(m.signatures)-1]
		return nil, err
	}
	m.logger.Info("signature added", "name", s.Name, "id", s.ID)
	return s, nil
}

// Update merges partial fields onto the signature, rederives Variables
// and bumps Modified.
func (m *Manager) Update(id string, fields UpdateFields) (*Signature, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.get(id)
	if s == nil {
		return nil, ErrNotFound
	}

	if fields.Name != nil {
		s.Name = *fields.Name
	}
	if fields.Description != nil {
		s.Description = *fields.Description
	}
	if fields.Category != nil {
		s.Category = *fields.Category
	}
	if fields.HTML != nil {
		s.HTML = *fields.HTML
	}
	s.Variables = template.ExtractVariables(s.HTML)
	s.Modified = time.Now()

	if err := m.persist(); err != nil {
		return nil, err
	}
	m.logger.Info("signature updated", "name", s.Name, "id", s.ID)
	return s, nil
}

// Delete removes the signature by id. Deleting the last remaining
// signature is refused with ErrLastSignature; deleting the active one
// reassigns active to the first remaining signature.
func (m *Manager) Delete(id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := -1
	for i, s := range m.signatures {
		if s.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return false, nil
	}
	if len(m.signatures) == 1 {
		return false, ErrLastSignature
	}

	if m.activeID == id {
		for _, s := range m.signatures {
			if s.ID != id {
				m.activeID = s.ID
				break
			}
		}
		if err := m.persistActive(); err != nil {
			return false, err
		}
	}

	m.signatures = append(m.signatures[:idx], m.signatures[idx+1:]...)
	if err := m.persist(); err != nil {
		return false, err
	}
	m.logger.Info("signature deleted", "id", id)
	return true, nil
}

// Processed renders a signature: every fixed-schema field is substituted
// from the user profile (missing fields render blank), then the dynamic
// verse/quote placeholders are resolved. With an empty id the active
// signature is used.
func (m *Manager) Processed(ctx context.Context, id string) (string, error) {
	m.mu.RLock()
	var s *Signature
	if id == "" {
		s = m.active()
	} else {
		s = m.get(id)
	}
	if s == nil {
		m.mu.RUnlock()
		return "", ErrNotFound
	}

	html := s.HTML
	for name, value := range m.userProfile.fieldMap() {
		html = strings.ReplaceAll(html, "{{"+name+"}}", value)
	}
	// Released before placeholder resolution, which may hit the network.
	m.mu.RUnlock()

	if m.verses != nil {
		html = m.verses.ProcessSpecialVariables(ctx, html)
	}

	return html, nil
}

// UserProfileRecord returns a copy of the shared user profile.
func (m *Manager) UserProfileRecord() UserProfile {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := m.userProfile
	out.CustomFields = make(map[string]string, len(m.userProfile.CustomFields))
	for k, v := range m.userProfile.CustomFields {
		out.CustomFields[k] = v
	}
	return out
}

// UpdateUserProfile shallow-merges updates into the user profile. Keys
// matching the fixed schema set the corresponding field; anything else
// is preserved in CustomFields.
func (m *Manager) UpdateUserProfile(updates map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, value := range updates {
		switch key {
		case "fullName":
			m.userProfile.FullName = value
		case "firstName":
			m.userProfile.FirstName = value
		case "lastName":
			m.userProfile.LastName = value
		case "title":
			m.userProfile.Title = value
		case "subtitle":
			m.userProfile.Subtitle = value
		case "company":
			m.userProfile.Company = value
		case "phone":
			m.userProfile.Phone = value
		case "mobile":
			m.userProfile.Mobile = value
		case "email":
			m.userProfile.Email = value
		case "website":
			m.userProfile.Website = value
		case "address":
			m.userProfile.Address = value
		case "city":
			m.userProfile.City = value
		case "state":
			m.userProfile.State = value
		case "zip":
			m.userProfile.Zip = value
		case "facebook":
			m.userProfile.SocialLinks.Facebook = value
		case "instagram":
			m.userProfile.SocialLinks.Instagram = value
		case "twitter":
			m.userProfile.SocialLinks.Twitter = value
		case "linkedin":
			m.userProfile.SocialLinks.LinkedIn = value
		case "youtube":
			m.userProfile.SocialLinks.YouTube = value
		default:
			m.userProfile.CustomFields[key] = value
		}
	}

	if err := m.persistUserProfile(); err != nil {
		return err
	}
	m.logger.Info("user profile updated", "fields", len(updates))
	return nil
}

// Export serializes the signatures and the user profile, pretty-printed.
func (m *Manager) Export() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	payload := struct {
		Signatures  []*Signature `json:"signatures"`
		UserProfile UserProfile  `json:"userProfile"`
		ExportedAt  int64        `json:"exportedAt"`
	}{
		Signatures:  m.signatures,
		UserProfile: m.userProfile,
		ExportedAt:  time.Now().UnixMilli(),
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to export signatures: %w", err)
	}
	return string(data), nil
}

// Import merges a serialized signature array by name: records whose name
// already exists are skipped, newly added records get fresh ids and
// timestamps. Returns the number of signatures added.
func (m *Manager) Import(data []byte) (int, error) {
	var imported []*Signature
	if err := json.Unmarshal(data, &imported); err != nil {
		return 0, ErrMalformedImport
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing := make(map[string]bool, len(m.signatures))
	for _, s := range m.signatures {
		existing[s.Name] = true
	}

	added := 0
	now := time.Now()
	for _, s := range imported {
		if existing[s.Name] {
			continue
		}
		s.ID = uuid.New().String()
		s.Created = now
		s.Modified = now
		s.IsDefault = false
		s.Variables = template.ExtractVariables(s.HTML)
		m.signatures = append(m.signatures, s)
		existing[s.Name] = true
		added++
	}

	if added > 0 {
		if err := m.persist(); err != nil {
			m.signatures = m.signatures[:len(m.signatures)-added]
			return 0, err
		}
	}
	m.logger.Info("signatures imported", "added", added, "skipped", len(imported)-added)
	return added, nil
}
