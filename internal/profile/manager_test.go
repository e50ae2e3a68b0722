package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/scribemail/scribe/internal/store"
)

func testManager(t *testing.T) *Manager {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	m := NewManager(st, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := m.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	return m
}

func TestCreate(t *testing.T) {
	m := testManager(t)

	p, err := m.Create("Work", map[string]string{"firstName": "Ada"}, false)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if p.ID == "" || p.Name != "Work" {
		t.Errorf("Create() = %+v", p)
	}
	if p.Variables["firstName"] != "Ada" {
		t.Errorf("Variables = %v", p.Variables)
	}
}

func TestDefaultExclusivity(t *testing.T) {
	m := testManager(t)

	a, _ := m.Create("A", nil, true)
	b, _ := m.Create("B", nil, true)

	if m.Get(a.ID).IsDefault {
		t.Error("profile A still default after B claimed the flag")
	}
	if !m.Get(b.ID).IsDefault {
		t.Error("profile B lost the default flag")
	}
	if d := m.Default(); d == nil || d.ID != b.ID {
		t.Errorf("Default() = %v, want B", d)
	}

	// Promoting via Update clears the flag elsewhere too.
	isDefault := true
	if _, err := m.Update(a.ID, UpdateFields{IsDefault: &isDefault}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if m.Get(b.ID).IsDefault {
		t.Error("profile B still default after A was promoted")
	}
}

func TestActiveFallbackChain(t *testing.T) {
	m := testManager(t)

	if m.Active() != nil {
		t.Error("Active() on empty collection, want nil")
	}

	def, _ := m.Create("Default", nil, true)
	other, _ := m.Create("Other", nil, false)

	// No explicit pointer: fall back to the default profile.
	if a := m.Active(); a == nil || a.ID != def.ID {
		t.Errorf("Active() = %v, want default profile", a)
	}

	ok, err := m.SetActive(other.ID)
	if err != nil || !ok {
		t.Fatalf("SetActive() = (%v, %v)", ok, err)
	}
	if a := m.Active(); a == nil || a.ID != other.ID {
		t.Errorf("Active() = %v, want explicitly activated profile", a)
	}

	if err := m.ClearActive(); err != nil {
		t.Fatalf("ClearActive() error = %v", err)
	}
	if a := m.Active(); a == nil || a.ID != def.ID {
		t.Errorf("Active() after clear = %v, want default", a)
	}
}

func TestSetActiveUnknown(t *testing.T) {
	m := testManager(t)

	ok, err := m.SetActive("nope")
	if err != nil || ok {
		t.Errorf("SetActive(unknown) = (%v, %v), want (false, nil)", ok, err)
	}
}

func TestDeleteClearsActive(t *testing.T) {
	m := testManager(t)

	p, _ := m.Create("P", nil, false)
	m.SetActive(p.ID)

	ok, err := m.Delete(p.ID)
	if err != nil || !ok {
		t.Fatalf("Delete() = (%v, %v)", ok, err)
	}
	if m.Active() != nil {
		t.Error("Active() after deleting active profile, want nil")
	}

	ok, _ = m.Delete(p.ID)
	if ok {
		t.Error("second Delete() = true, want false")
	}
}

func TestVariableValues(t *testing.T) {
	m := testManager(t)

	p, _ := m.Create("P", map[string]string{
		"firstName": "Ada",
		"company":   "",
		"city":      "London",
	}, false)
	m.SetActive(p.ID)

	values := m.VariableValues([]string{"firstName", "company", "city", "missing"})
	if len(values) != 2 {
		t.Errorf("VariableValues() = %v, want firstName and city only", values)
	}
	if values["firstName"] != "Ada" || values["city"] != "London" {
		t.Errorf("VariableValues() = %v", values)
	}
	if _, ok := values["company"]; ok {
		t.Error("empty-string variable leaked into values")
	}
}

func TestVariableValuesNoActive(t *testing.T) {
	m := testManager(t)

	values := m.VariableValues([]string{"anything"})
	if len(values) != 0 {
		t.Errorf("VariableValues() with no active profile = %v, want empty", values)
	}
}

func TestUpdateVariables(t *testing.T) {
	m := testManager(t)

	p, _ := m.Create("P", map[string]string{"a": "1"}, false)

	ok, err := m.UpdateVariables(p.ID, map[string]string{"b": "2", "a": "updated"})
	if err != nil || !ok {
		t.Fatalf("UpdateVariables() = (%v, %v)", ok, err)
	}

	got := m.Get(p.ID).Variables
	if got["a"] != "updated" || got["b"] != "2" {
		t.Errorf("Variables = %v", got)
	}

	ok, _ = m.UpdateVariable(p.ID, "c", "3")
	if !ok || m.Get(p.ID).Variables["c"] != "3" {
		t.Error("UpdateVariable failed to set single value")
	}
}

func TestUpdateUnknownID(t *testing.T) {
	m := testManager(t)

	name := "x"
	if _, err := m.Update("nope", UpdateFields{Name: &name}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
}

func TestImportRegeneratesIDs(t *testing.T) {
	m := testManager(t)

	payload, _ := json.Marshal([]*Profile{
		{ID: "keep-me", Name: "Imported", Variables: map[string]string{"x": "1"}},
	})

	added, err := m.Import(payload, MergeSkipDuplicateByName)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if added != 1 {
		t.Errorf("added = %d, want 1", added)
	}

	p := m.All()[0]
	if p.ID == "keep-me" || p.ID == "" {
		t.Errorf("imported id = %q, want regenerated", p.ID)
	}

	// ReplaceAll also regenerates.
	payload, _ = json.Marshal([]*Profile{{ID: "keep-me", Name: "Replacement"}})
	count, err := m.Import(payload, ReplaceAll)
	if err != nil {
		t.Fatalf("Import(ReplaceAll) error = %v", err)
	}
	if count != 1 || len(m.All()) != 1 {
		t.Errorf("ReplaceAll collection = %v", m.All())
	}
	if m.All()[0].ID == "keep-me" {
		t.Error("ReplaceAll kept the imported id")
	}
}

func TestImportMergeSkipsDuplicateNames(t *testing.T) {
	m := testManager(t)

	m.Create("Existing", map[string]string{"keep": "original"}, false)

	payload, _ := json.Marshal([]*Profile{
		{Name: "Existing", Variables: map[string]string{"keep": "clobber"}},
		{Name: "New"},
	})

	added, err := m.Import(payload, MergeSkipDuplicateByName)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if added != 1 || len(m.All()) != 2 {
		t.Errorf("added = %d, size = %d, want 1 and 2", added, len(m.All()))
	}

	for _, p := range m.All() {
		if p.Name == "Existing" && p.Variables["keep"] != "original" {
			t.Error("merge overwrote an existing profile")
		}
	}
}

func TestImportMalformed(t *testing.T) {
	m := testManager(t)

	if _, err := m.Import([]byte("not json"), MergeSkipDuplicateByName); !errors.Is(err, ErrMalformedImport) {
		t.Errorf("Import() error = %v, want ErrMalformedImport", err)
	}
}

func TestStats(t *testing.T) {
	m := testManager(t)

	s := m.Stats()
	if s.Total != 0 || s.HasDefault || s.HasActive {
		t.Errorf("empty Stats() = %+v", s)
	}

	p, _ := m.Create("Main", nil, true)
	m.SetActive(p.ID)

	s = m.Stats()
	if s.Total != 1 || !s.HasDefault || !s.HasActive || s.ActiveProfileName != "Main" {
		t.Errorf("Stats() = %+v", s)
	}
}

func TestInitClearsDanglingActive(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer st.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	m := NewManager(st, logger)
	if err := m.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	p, _ := m.Create("P", nil, false)
	m.SetActive(p.ID)
	m.Delete(p.ID)

	// Simulate a stale pointer written behind the manager's back.
	if err := st.Put(store.Local, "active_profile", []byte("dangling-id")); err != nil {
		t.Fatal(err)
	}

	m2 := NewManager(st, logger)
	if err := m2.Init(); err != nil {
		t.Fatalf("second Init() error = %v", err)
	}
	if m2.Active() != nil {
		t.Error("dangling active pointer survived Init")
	}
}

func TestConcurrentVariableUpdatesAndReads(t *testing.T) {
	m := testManager(t)

	p, err := m.Create("Work", map[string]string{"name": "Ann"}, true)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.SetActive(p.ID); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := m.UpdateVariable(p.ID, fmt.Sprintf("var%d", i), "value"); err != nil {
				t.Errorf("UpdateVariable() error = %v", err)
			}
		}(i)
	}
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Active()
			m.VariableValues([]string{"name"})
			m.Stats()
		}()
	}
	wg.Wait()

	got := m.Get(p.ID)
	if got == nil {
		t.Fatal("profile lost during concurrent updates")
	}
	if len(got.Variables) != 9 {
		t.Errorf("variable count = %d, want 9", len(got.Variables))
	}
}
