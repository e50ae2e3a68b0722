package verse

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/scribemail/scribe/internal/metrics"
	"github.com/scribemail/scribe/internal/store"
)

func testStore(t *testing.T) *store.Store {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func testProvider(t *testing.T, opts Options) *Provider {
	t.Helper()

	p := NewProvider(testStore(t), opts, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := p.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	return p
}

func TestDayOfYear(t *testing.T) {
	tests := []struct {
		date string
		want int
	}{
		{"2026-01-01", 1},
		{"2026-02-01", 32},
		{"2026-12-31", 365},
		{"2024-12-31", 366}, // leap year
	}

	for _, tt := range tests {
		d, err := time.Parse("2006-01-02", tt.date)
		if err != nil {
			t.Fatal(err)
		}
		if got := DayOfYear(d); got != tt.want {
			t.Errorf("DayOfYear(%s) = %d, want %d", tt.date, got, tt.want)
		}
	}
}

func TestDailyIndex(t *testing.T) {
	d := time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)

	// Same date, any time of day, same index.
	d2 := time.Date(2026, 3, 15, 23, 59, 59, 0, time.UTC)
	if DailyIndex(d, 18) != DailyIndex(d2, 18) {
		t.Error("DailyIndex differs within the same day")
	}

	// Index always within corpus bounds.
	for day := 0; day < 400; day++ {
		idx := DailyIndex(d.AddDate(0, 0, day), 18)
		if idx < 0 || idx >= 18 {
			t.Fatalf("DailyIndex out of range: %d", idx)
		}
	}

	if DailyIndex(d, 0) != 0 {
		t.Error("DailyIndex with empty corpus should be 0")
	}
}

func TestResolveCustomTakesPrecedence(t *testing.T) {
	p := testProvider(t, Options{Translation: "CSB"})

	custom := Verse{Text: "custom text", Reference: "John 3:16", Version: "CSB"}
	if err := p.AddCustom("john-3:16", custom); err != nil {
		t.Fatalf("AddCustom() error = %v", err)
	}

	v, err := p.Resolve(context.Background(), "john-3:16", "CSB")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if v.Text != "custom text" {
		t.Errorf("Resolve() = %q, want the custom override", v.Text)
	}

	// Custom overrides only apply on an exact translation match.
	v, err = p.Resolve(context.Background(), "john-3:16", "ESV")
	if err != nil {
		t.Fatalf("Resolve(ESV) error = %v", err)
	}
	if v.Text == "custom text" {
		t.Error("custom override leaked across translations")
	}
}

func TestResolvePreset(t *testing.T) {
	p := testProvider(t, Options{Translation: "CSB"})

	v, err := p.Resolve(context.Background(), "ps-23:1", "ESV")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if v.Version != "ESV" {
		t.Errorf("Version = %q, want ESV preset", v.Version)
	}
	if v.Reference != "Psalm 23:1" {
		t.Errorf("Reference = %q", v.Reference)
	}
}

func TestResolveKeyNormalization(t *testing.T) {
	p := testProvider(t, Options{})

	if _, err := p.Resolve(context.Background(), "  PS-23:1  ", "NKJV"); err != nil {
		t.Errorf("Resolve() with padded upper-case key error = %v", err)
	}
}

func TestResolveUnknownKey(t *testing.T) {
	p := testProvider(t, Options{})

	if _, err := p.Resolve(context.Background(), "not-a-key", "NKJV"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("Resolve() error = %v, want ErrUnknownKey", err)
	}
}

func TestResolveRemoteFetchAndCache(t *testing.T) {
	fetches := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches++
		w.Write([]byte(`{"text": "  Remote [1] verse   text [2] "}`))
	}))
	defer srv.Close()

	p := testProvider(t, Options{
		Translation:   "CSB",
		RemoteEnabled: true,
		Endpoint:      srv.URL,
	})

	// NLT is not bundled, so the chain reaches the remote tier.
	v, err := p.Resolve(context.Background(), "ps-23:1", "NLT")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if v.Text != "Remote verse text" {
		t.Errorf("Text = %q, want markers and whitespace cleaned", v.Text)
	}
	if v.Version != "NLT" || v.FetchedAt == 0 {
		t.Errorf("fetched verse = %+v", v)
	}

	// Second resolve hits the cache, not the service.
	if _, err := p.Resolve(context.Background(), "ps-23:1", "NLT"); err != nil {
		t.Fatalf("second Resolve() error = %v", err)
	}
	if fetches != 1 {
		t.Errorf("remote fetched %d times, want 1", fetches)
	}
}

func TestResolveCachePersists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text": "persisted verse"}`))
	}))
	defer srv.Close()

	st := testStore(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts := Options{Translation: "CSB", RemoteEnabled: true, Endpoint: srv.URL}

	p := NewProvider(st, opts, logger)
	if err := p.Init(); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Resolve(context.Background(), "ps-23:1", "NLT"); err != nil {
		t.Fatal(err)
	}
	srv.Close()

	// A fresh provider on the same store serves from the persisted cache.
	p2 := NewProvider(st, opts, logger)
	if err := p2.Init(); err != nil {
		t.Fatal(err)
	}
	v, err := p2.Resolve(context.Background(), "ps-23:1", "NLT")
	if err != nil {
		t.Fatalf("Resolve() from persisted cache error = %v", err)
	}
	if v.Text != "persisted verse" {
		t.Errorf("Text = %q, want cache hit", v.Text)
	}
}

func TestResolveStaleCacheFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text": "cached under NLT"}`))
	}))

	p := testProvider(t, Options{Translation: "CSB", RemoteEnabled: true, Endpoint: srv.URL})

	if _, err := p.Resolve(context.Background(), "ps-23:1", "NLT"); err != nil {
		t.Fatal(err)
	}
	srv.Close()

	// MSG is not bundled and the service is down; any cached translation
	// of the verse wins over the bundled fallback, labeled as cached.
	v, err := p.Resolve(context.Background(), "ps-23:1", "MSG")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if v.Text != "cached under NLT" {
		t.Errorf("Text = %q, want the stale cache entry", v.Text)
	}
	if v.Version != "MSG (cached)" {
		t.Errorf("Version = %q, want MSG (cached)", v.Version)
	}
}

func TestResolveOfflineFallback(t *testing.T) {
	p := testProvider(t, Options{Translation: "CSB", RemoteEnabled: false})

	v, err := p.Resolve(context.Background(), "ps-23:1", "NLT")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if v.Version != "NLT (offline)" {
		t.Errorf("Version = %q, want NLT (offline)", v.Version)
	}
	if v.Text != presets[DefaultTranslation]["ps-23:1"].Text {
		t.Errorf("Text = %q, want the bundled fallback", v.Text)
	}
}

func TestResolveRemoteErrorFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := testProvider(t, Options{Translation: "CSB", RemoteEnabled: true, Endpoint: srv.URL})

	v, err := p.Resolve(context.Background(), "ps-23:1", "NLT")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if v.Version != "NLT (offline)" {
		t.Errorf("Version = %q, want offline fallback after remote failure", v.Version)
	}
}

func TestVerseOfTheDayDeterministic(t *testing.T) {
	p := testProvider(t, Options{Translation: "NKJV"})

	a := p.VerseOfTheDay(context.Background())
	b := p.VerseOfTheDay(context.Background())
	if a != b {
		t.Error("VerseOfTheDay not stable within a day")
	}
	if a.Text == "" || a.Reference == "" {
		t.Errorf("VerseOfTheDay = %+v", a)
	}
}

func TestQuoteOfTheDayDeterministic(t *testing.T) {
	p := testProvider(t, Options{})

	if p.QuoteOfTheDay() != p.QuoteOfTheDay() {
		t.Error("QuoteOfTheDay not stable within a day")
	}
}

func TestSetTranslationPersists(t *testing.T) {
	st := testStore(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	p := NewProvider(st, Options{Translation: "CSB"}, logger)
	if err := p.Init(); err != nil {
		t.Fatal(err)
	}
	if err := p.SetTranslation("ESV"); err != nil {
		t.Fatalf("SetTranslation() error = %v", err)
	}

	p2 := NewProvider(st, Options{Translation: "CSB"}, logger)
	if err := p2.Init(); err != nil {
		t.Fatal(err)
	}
	if p2.Translation() != "ESV" {
		t.Errorf("Translation() after reload = %q, want ESV", p2.Translation())
	}
}

func TestProcessSpecialVariables(t *testing.T) {
	p := testProvider(t, Options{Translation: "NKJV"})
	p.randIntn = func(n int) int { return 0 }

	text := "Verse: {{verseOfTheDay}}\nQuote: {{quoteOfTheDay}}\nRandom: {{randomQuote}}\nRef: {{verse:john-3:16}}\nUnknown: {{verse:bogus}}\nPlain: {{firstName}}"
	out := p.ProcessSpecialVariables(context.Background(), text)

	if strings.Contains(out, "{{verseOfTheDay}}") ||
		strings.Contains(out, "{{quoteOfTheDay}}") ||
		strings.Contains(out, "{{randomQuote}}") {
		t.Errorf("daily placeholders not replaced: %q", out)
	}
	if !strings.Contains(out, "John 3:16") {
		t.Errorf("{{verse:key}} not resolved: %q", out)
	}
	if !strings.Contains(out, "{{verse:bogus}}") {
		t.Errorf("unknown verse reference should stay literal: %q", out)
	}
	if !strings.Contains(out, "{{firstName}}") {
		t.Errorf("ordinary placeholder must not be touched: %q", out)
	}
}

func TestStaticVerse(t *testing.T) {
	if v, ok := StaticVerse("John-3:16"); !ok || v.Version != DefaultTranslation {
		t.Errorf("StaticVerse() = (%+v, %v)", v, ok)
	}
	if _, ok := StaticVerse("bogus"); ok {
		t.Error("StaticVerse(bogus) = true, want false")
	}
}

func TestCustomVersesPersist(t *testing.T) {
	st := testStore(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	p := NewProvider(st, Options{}, logger)
	if err := p.Init(); err != nil {
		t.Fatal(err)
	}
	if err := p.AddCustom("John-3:16", Verse{Text: "mine", Version: "NKJV"}); err != nil {
		t.Fatal(err)
	}

	p2 := NewProvider(st, Options{}, logger)
	if err := p2.Init(); err != nil {
		t.Fatal(err)
	}
	custom := p2.CustomVerses()
	if custom["john-3:16"].Text != "mine" {
		t.Errorf("CustomVerses() after reload = %v", custom)
	}

	if err := p2.DeleteCustom("john-3:16"); err != nil {
		t.Fatal(err)
	}
	if len(p2.CustomVerses()) != 0 {
		t.Error("DeleteCustom left the entry behind")
	}
}

func TestImportCustom(t *testing.T) {
	p := testProvider(t, Options{})

	count, err := p.ImportCustom([]byte(`{"Ps-23:1": {"text": "imported", "version": "NKJV"}}`))
	if err != nil {
		t.Fatalf("ImportCustom() error = %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
	if p.CustomVerses()["ps-23:1"].Text != "imported" {
		t.Error("imported key not normalized to lower case")
	}

	if _, err := p.ImportCustom([]byte("not json")); err == nil {
		t.Error("ImportCustom(malformed) error = nil, want error")
	}
}

func TestCacheStatsAndClear(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text": "cached"}`))
	}))
	defer srv.Close()

	p := testProvider(t, Options{Translation: "CSB", RemoteEnabled: true, Endpoint: srv.URL})

	if _, err := p.Resolve(context.Background(), "ps-23:1", "NLT"); err != nil {
		t.Fatal(err)
	}

	entries := p.CacheStats()
	if len(entries) != 1 || entries[0].Key != "ps-23:1_NLT" {
		t.Errorf("CacheStats() = %v", entries)
	}

	if err := p.ClearCache(); err != nil {
		t.Fatalf("ClearCache() error = %v", err)
	}
	if len(p.CacheStats()) != 0 {
		t.Error("cache not empty after clear")
	}
}

func TestFormatVerse(t *testing.T) {
	got := FormatVerse(Verse{Text: "text", Reference: "Ref 1:1", Version: "NKJV"})
	if !strings.Contains(got, `"text"`) || !strings.Contains(got, "Ref 1:1 (NKJV)") {
		t.Errorf("FormatVerse() = %q", got)
	}

	q := FormatQuote(Quote{Text: "quote", Author: "Someone"})
	if !strings.Contains(q, `"quote"`) || !strings.Contains(q, "Someone") {
		t.Errorf("FormatQuote() = %q", q)
	}
}

func TestFormatVerseKeepsInnerQuotes(t *testing.T) {
	got := FormatVerse(Verse{
		Text:      `Jesus said to him, "I am the way, the truth, and the life."`,
		Reference: "John 14:6",
		Version:   "NKJV",
	})
	if strings.Contains(got, `\"`) {
		t.Errorf("FormatVerse() escaped inner quotes: %q", got)
	}
	if !strings.HasPrefix(got, `"Jesus said to him, "I am`) {
		t.Errorf("FormatVerse() = %q", got)
	}
}

func TestResolveConcurrent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text": "concurrent verse"}`))
	}))
	defer srv.Close()

	p := testProvider(t, Options{Translation: "CSB", RemoteEnabled: true, Endpoint: srv.URL})

	var wg sync.WaitGroup
	errs := make(chan error, 24)
	for i := 0; i < 24; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := p.Resolve(context.Background(), "ps-23:1", "NLT")
			if err != nil {
				errs <- err
				return
			}
			if v.Text != "concurrent verse" {
				errs <- errors.New("unexpected text " + v.Text)
			}
		}()
	}
	// Readers race the cache writers above.
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.CacheStats()
			p.Translation()
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent Resolve: %v", err)
	}

	if len(p.CacheStats()) != 1 {
		t.Errorf("cache entries = %d, want 1", len(p.CacheStats()))
	}
}

func TestResolveRecordsMetrics(t *testing.T) {
	m := metrics.New()
	metrics.SetGlobal(m)
	defer metrics.SetGlobal(nil)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text": "metered verse"}`))
	}))

	p := testProvider(t, Options{Translation: "CSB", RemoteEnabled: true, Endpoint: srv.URL})

	if _, err := p.Resolve(context.Background(), "ps-23:1", "NLT"); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got := testutil.ToFloat64(m.VerseFetchesTotal.WithLabelValues("success")); got != 1 {
		t.Errorf("success fetch counter = %v, want 1", got)
	}

	if _, err := p.Resolve(context.Background(), "ps-23:1", "NLT"); err != nil {
		t.Fatalf("second Resolve() error = %v", err)
	}
	if got := testutil.ToFloat64(m.VerseCacheHitsTotal); got != 1 {
		t.Errorf("cache hit counter = %v, want 1", got)
	}

	// A dead endpoint counts as a failed fetch before the offline tier.
	srv.Close()
	if _, err := p.Resolve(context.Background(), "john-3:16", "NLT"); err != nil {
		t.Fatalf("offline Resolve() error = %v", err)
	}
	if got := testutil.ToFloat64(m.VerseFetchesTotal.WithLabelValues("error")); got != 1 {
		t.Errorf("error fetch counter = %v, want 1", got)
	}
}
