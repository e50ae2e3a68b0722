package template

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"reflect"
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

	tmpl, err := m.Create("Welcome", "Hi {{firstName}}", "Dear {{firstName}} {{lastName}}", "Work")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if tmpl.ID == "" {
		t.Error("Create() left ID empty")
	}
	want := []string{"firstName", "lastName"}
	if !reflect.DeepEqual(tmpl.Variables, want) {
		t.Errorf("Variables = %v, want %v", tmpl.Variables, want)
	}
	if tmpl.Created.IsZero() || tmpl.Modified.IsZero() {
		t.Error("Create() left timestamps zero")
	}
}

func TestCreateDefaults(t *testing.T) {
	m := testManager(t)

	tmpl, err := m.Create("", "subj", "body", "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if tmpl.Name != "Untitled Template" {
		t.Errorf("Name = %q, want fallback", tmpl.Name)
	}
	if tmpl.Category != "Other" {
		t.Errorf("Category = %q, want Other", tmpl.Category)
	}
}

func TestUpdateRecomputesVariables(t *testing.T) {
	m := testManager(t)

	tmpl, _ := m.Create("T", "Hi {{a}}", "Body {{b}}", "Work")

	newBody := "Body {{c}} only"
	updated, err := m.Update(tmpl.ID, UpdateFields{Body: &newBody})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	want := []string{"a", "c"}
	if !reflect.DeepEqual(updated.Variables, want) {
		t.Errorf("Variables after update = %v, want %v", updated.Variables, want)
	}
	if !updated.Modified.After(updated.Created) && !updated.Modified.Equal(updated.Created) {
		t.Error("Modified not bumped by update")
	}
}

func TestUpdateUnknownID(t *testing.T) {
	m := testManager(t)

	name := "x"
	if _, err := m.Update("nope", UpdateFields{Name: &name}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	m := testManager(t)

	tmpl, _ := m.Create("T", "s", "b", "Work")

	ok, err := m.Delete(tmpl.ID)
	if err != nil || !ok {
		t.Fatalf("Delete() = (%v, %v), want (true, nil)", ok, err)
	}
	if m.Get(tmpl.ID) != nil {
		t.Error("template still present after delete")
	}

	ok, err = m.Delete(tmpl.ID)
	if err != nil || ok {
		t.Errorf("Delete() unknown id = (%v, %v), want (false, nil)", ok, err)
	}
}

func TestSearch(t *testing.T) {
	m := testManager(t)

	m.Create("Meeting Request", "Let's sync", "About the quarterly review", "Work")
	m.Create("Birthday Wishes", "Happy birthday!", "Have a great day", "Personal")

	if got := m.Search("MEETING"); len(got) != 1 || got[0].Name != "Meeting Request" {
		t.Errorf("Search(MEETING) = %d results, want the meeting template", len(got))
	}
	if got := m.Search("quarterly"); len(got) != 1 {
		t.Errorf("Search on body = %d results, want 1", len(got))
	}
	if got := m.Search("personal"); len(got) != 1 {
		t.Errorf("Search on category = %d results, want 1", len(got))
	}
	if got := m.Search("nothing-matches"); len(got) != 0 {
		t.Errorf("Search miss = %d results, want 0", len(got))
	}
}

func TestRender(t *testing.T) {
	m := testManager(t)

	tmpl, _ := m.Create("T", "Hi {{name}}", "From {{name}} at {{company}}", "Work")

	rendered, err := m.Render(tmpl.ID, map[string]string{"name": "Ada"})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if rendered.Subject != "Hi Ada" {
		t.Errorf("Subject = %q", rendered.Subject)
	}
	if rendered.Body != "From Ada at " {
		t.Errorf("Body = %q, unresolved placeholder should render blank", rendered.Body)
	}

	// Rendering must not mutate the stored record.
	if m.Get(tmpl.ID).Subject != "Hi {{name}}" {
		t.Error("Render() mutated the stored template")
	}
}

func TestIncrementUsageAndMostUsed(t *testing.T) {
	m := testManager(t)

	a, _ := m.Create("A", "s", "b", "Work")
	b, _ := m.Create("B", "s", "b", "Work")

	created := m.Get(b.ID).Modified
	for i := 0; i < 3; i++ {
		if err := m.IncrementUsage(b.ID); err != nil {
			t.Fatalf("IncrementUsage() error = %v", err)
		}
	}
	m.IncrementUsage(a.ID)

	if got := m.Get(b.ID).UsageCount; got != 3 {
		t.Errorf("UsageCount = %d, want 3", got)
	}
	if !m.Get(b.ID).Modified.Equal(created) {
		t.Error("IncrementUsage touched Modified")
	}

	top := m.MostUsed(1)
	if len(top) != 1 || top[0].ID != b.ID {
		t.Errorf("MostUsed(1) = %v, want template B first", top)
	}

	// Unknown id is a no-op.
	if err := m.IncrementUsage("nope"); err != nil {
		t.Errorf("IncrementUsage(unknown) error = %v", err)
	}
}

func TestDuplicate(t *testing.T) {
	m := testManager(t)

	orig, _ := m.Create("Original", "s {{v}}", "b", "Work")
	m.IncrementUsage(orig.ID)

	dup, err := m.Duplicate(orig.ID)
	if err != nil {
		t.Fatalf("Duplicate() error = %v", err)
	}
	if dup.ID == orig.ID {
		t.Error("duplicate shares the original id")
	}
	if dup.Name != "Original (Copy)" {
		t.Errorf("Name = %q, want Original (Copy)", dup.Name)
	}
	if dup.UsageCount != 0 {
		t.Errorf("UsageCount = %d, want 0", dup.UsageCount)
	}
}

func TestImportMerge(t *testing.T) {
	m := testManager(t)

	m.Create("Existing", "s", "b", "Work")

	payload, _ := json.Marshal([]*Template{
		{ID: "imported-id", Name: "Existing", Subject: "clobber"},
		{Name: "Fresh", Subject: "Hello {{name}}"},
	})

	added, err := m.Import(payload, MergeSkipDuplicateByName)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if added != 1 {
		t.Errorf("Import() added = %d, want 1", added)
	}
	if len(m.All()) != 2 {
		t.Errorf("collection size = %d, want 2", len(m.All()))
	}

	var fresh *Template
	for _, tmpl := range m.All() {
		if tmpl.Name == "Fresh" {
			fresh = tmpl
		}
	}
	if fresh == nil {
		t.Fatal("imported template not found")
	}
	if fresh.ID == "imported-id" || fresh.ID == "" {
		t.Errorf("imported id = %q, want a fresh uuid", fresh.ID)
	}
	if !reflect.DeepEqual(fresh.Variables, []string{"name"}) {
		t.Errorf("imported Variables = %v, want extracted from content", fresh.Variables)
	}
}

func TestImportReplace(t *testing.T) {
	m := testManager(t)

	m.Create("Old", "s", "b", "Work")

	payload, _ := json.Marshal([]*Template{{Name: "Only"}})
	count, err := m.Import(payload, ReplaceAll)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if count != 1 || len(m.All()) != 1 || m.All()[0].Name != "Only" {
		t.Errorf("ReplaceAll left collection = %v", m.All())
	}
}

func TestImportMalformed(t *testing.T) {
	m := testManager(t)

	m.Create("Keep", "s", "b", "Work")

	if _, err := m.Import([]byte(`{"not":"an array"}`), MergeSkipDuplicateByName); !errors.Is(err, ErrMalformedImport) {
		t.Fatalf("Import() error = %v, want ErrMalformedImport", err)
	}
	if len(m.All()) != 1 {
		t.Error("failed import modified the collection")
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	m := testManager(t)

	m.Create("One", "s1", "b1", "Work")
	m.Create("Two", "s2", "b2", "Personal")

	exported, err := m.Export()
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	other := testManager(t)
	added, err := other.Import([]byte(exported), MergeSkipDuplicateByName)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if added != 2 {
		t.Errorf("round trip added = %d, want 2", added)
	}
}

func TestImportPrebuilt(t *testing.T) {
	m := testManager(t)

	count, err := m.ImportPrebuilt("all")
	if err != nil {
		t.Fatalf("ImportPrebuilt(all) error = %v", err)
	}
	if count != PrebuiltCount("all") {
		t.Errorf("added = %d, want %d", count, PrebuiltCount("all"))
	}

	// Re-importing skips everything already present.
	count, err = m.ImportPrebuilt("all")
	if err != nil {
		t.Fatalf("second ImportPrebuilt error = %v", err)
	}
	if count != 0 {
		t.Errorf("second import added = %d, want 0", count)
	}
}

func TestImportPrebuiltUnknownCategory(t *testing.T) {
	m := testManager(t)

	if _, err := m.ImportPrebuilt("nope"); !errors.Is(err, ErrUnknownPrebuiltCategory) {
		t.Errorf("ImportPrebuilt(nope) error = %v, want ErrUnknownPrebuiltCategory", err)
	}
}

func TestStats(t *testing.T) {
	m := testManager(t)

	a, _ := m.Create("A", "Hi {{x}}", "b", "Work")
	m.Create("B", "s", "b", "Work")
	m.Create("C", "s", "b", "Personal")
	m.IncrementUsage(a.ID)
	m.IncrementUsage(a.ID)

	s := m.Stats()
	if s.Total != 3 {
		t.Errorf("Total = %d, want 3", s.Total)
	}
	if s.ByCategory["Work"] != 2 || s.ByCategory["Personal"] != 1 {
		t.Errorf("ByCategory = %v", s.ByCategory)
	}
	if s.WithVariables != 1 || s.TotalVariables != 1 {
		t.Errorf("variable counts = (%d, %d), want (1, 1)", s.WithVariables, s.TotalVariables)
	}
	if s.TotalUsage != 2 {
		t.Errorf("TotalUsage = %d, want 2", s.TotalUsage)
	}
}

func TestStorageUsage(t *testing.T) {
	m := testManager(t)

	m.Create("A", "subject", "body", "Work")

	usage, err := m.StorageUsage()
	if err != nil {
		t.Fatalf("StorageUsage() error = %v", err)
	}
	if usage.Used <= 0 {
		t.Errorf("Used = %d, want > 0", usage.Used)
	}
	if usage.Max != store.MaxLocalBytes {
		t.Errorf("Max = %d, want %d", usage.Max, store.MaxLocalBytes)
	}
	if usage.NearLimit || usage.AtLimit {
		t.Error("tiny collection flagged near/at limit")
	}
}

func TestCategories(t *testing.T) {
	m := testManager(t)

	if !m.AddCategory("Newsletter") {
		t.Error("AddCategory(Newsletter) = false, want true")
	}
	if m.AddCategory("Newsletter") {
		t.Error("duplicate AddCategory = true, want false")
	}
	if m.AddCategory("Work") {
		t.Error("AddCategory of seed category = true, want false")
	}

	found := false
	for _, c := range m.Categories() {
		if c == "Newsletter" {
			found = true
		}
	}
	if !found {
		t.Error("Newsletter missing from Categories()")
	}
}

func TestInitReloads(t *testing.T) {
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
	created, _ := m.Create("Persisted", "s {{v}}", "b", "Work")

	m2 := NewManager(st, logger)
	if err := m2.Init(); err != nil {
		t.Fatalf("second Init() error = %v", err)
	}
	loaded := m2.Get(created.ID)
	if loaded == nil {
		t.Fatal("template not reloaded from storage")
	}
	if !reflect.DeepEqual(loaded.Variables, []string{"v"}) {
		t.Errorf("reloaded Variables = %v", loaded.Variables)
	}
}

func TestConcurrentCreateAndRead(t *testing.T) {
	m := testManager(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := m.Create(fmt.Sprintf("Bulk %d", i), "Subject", "Hi {{name}}", "Work"); err != nil {
				t.Errorf("Create() error = %v", err)
			}
		}(i)
	}
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.All()
			m.Search("bulk")
			m.Stats()
			m.HasTemplates()
		}()
	}
	wg.Wait()

	if got := len(m.All()); got != 8 {
		t.Errorf("collection size = %d, want 8", got)
	}
}
