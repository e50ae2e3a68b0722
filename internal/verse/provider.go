// Package verse resolves the dynamic verse and quote placeholders used
// in signatures. Verse lookup runs through an ordered fallback chain:
// user-imported custom entry, bundled preset, fetch cache, live remote
// fetch, stale cache under another translation, and finally the bundled
// default-translation entry labeled offline. The chain never fails for a
// key present in the default corpus.
package verse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/scribemail/scribe/internal/metrics"
	"github.com/scribemail/scribe/internal/store"
)

const (
	customKey   = "custom_verses"
	cacheKey    = "verse_cache"
	settingsKey = "settings"

	// DefaultEndpoint is the public verse lookup service.
	DefaultEndpoint = "https://bible-api.com"
	// DefaultTimeout bounds the remote fetch so a dead network cannot
	// hang signature rendering.
	DefaultTimeout = 5 * time.Second
)

// ErrUnknownKey is returned when a verse key is not in the default
// corpus. Unknown keys are a caller error, not a fallback case.
var ErrUnknownKey = errors.New("unknown verse key")

var (
	verseMarkerPattern = regexp.MustCompile(`\[\d+\]`)
	whitespacePattern  = regexp.MustCompile(`\s+`)
	verseRefPattern    = regexp.MustCompile(`\{\{verse:([^}]+)\}\}`)
)

// Options configures the provider.
type Options struct {
	Translation   string        // preferred translation, default CSB
	RemoteEnabled bool          // allow live fetches
	Endpoint      string        // remote service base URL
	Timeout       time.Duration // remote fetch timeout
}

// settings is the small preferences blob kept in the sync namespace.
type settings struct {
	Translation string `json:"translation"`
}

// CacheEntry describes one cached remote fetch for diagnostics.
type CacheEntry struct {
	Key       string `json:"key"`
	Reference string `json:"reference"`
	Version   string `json:"version"`
	FetchedAt int64  `json:"fetchedAt"`
}

// Provider serves daily verses and quotes. Safe for concurrent use.
type Provider struct {
	store       *store.Store
	logger      *slog.Logger
	opts        Options
	client      *http.Client
	translation string
	custom      map[string]Verse
	cache       map[string]Verse
	randIntn    func(n int) int
	mu          sync.RWMutex
}

// NewProvider creates a verse provider bound to st. Call Init before
// use.
func NewProvider(st *store.Store, opts Options, logger *slog.Logger) *Provider {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Translation == "" {
		opts.Translation = "CSB"
	}

	return &Provider{
		store:    st,
		logger:   logger,
		opts:     opts,
		client:   &http.Client{Timeout: opts.Timeout},
		custom:   make(map[string]Verse),
		cache:    make(map[string]Verse),
		randIntn: rand.Intn,
	}
}

// Init loads the translation preference, custom verses and fetch cache
// from storage.
func (p *Provider) Init() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	data, err := p.store.Get(store.Sync, settingsKey)
	if err != nil {
		return fmt.Errorf("failed to load verse settings: %w", err)
	}
	p.translation = p.opts.Translation
	if data != nil {
		var s settings
		if err := json.Unmarshal(data, &s); err == nil && s.Translation != "" {
			p.translation = s.Translation
		}
	}

	if data, err = p.store.Get(store.Local, customKey); err != nil {
		return fmt.Errorf("failed to load custom verses: %w", err)
	}
	if data != nil {
		if err := json.Unmarshal(data, &p.custom); err != nil {
			return fmt.Errorf("failed to parse custom verses: %w", err)
		}
	}

	if data, err = p.store.Get(store.Local, cacheKey); err != nil {
		return fmt.Errorf("failed to load verse cache: %w", err)
	}
	if data != nil {
		if err := json.Unmarshal(data, &p.cache); err != nil {
			return fmt.Errorf("failed to parse verse cache: %w", err)
		}
	}

	p.logger.Info("verse provider initialized",
		"translation", p.translation,
		"custom", len(p.custom),
		"cached", len(p.cache),
	)
	return nil
}

// Translation returns the active translation preference.
func (p *Provider) Translation() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.translation
}

// SetTranslation persists a new translation preference.
func (p *Provider) SetTranslation(code string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.translation = code
	data, err := json.Marshal(settings{Translation: code})
	if err != nil {
		return err
	}
	return p.store.Put(store.Sync, settingsKey, data)
}

// DayOfYear returns the 1-based ordinal day of t within its calendar
// year, in t's location.
func DayOfYear(t time.Time) int {
	return t.YearDay()
}

// DailyIndex maps a date onto a corpus of size n. The same date always
// yields the same index, and indices wrap with the corpus size.
func DailyIndex(t time.Time, n int) int {
	if n <= 0 {
		return 0
	}
	return DayOfYear(t) % n
}

// Keys returns the verse corpus keys in selection order.
func Keys() []string {
	return append([]string(nil), corpusKeys...)
}

// todayKey picks today's verse key.
func todayKey(t time.Time) string {
	return corpusKeys[DailyIndex(t, len(corpusKeys))]
}

// Resolve looks up key under the given translation through the fallback
// chain. It only fails for keys absent from the default corpus.
func (p *Provider) Resolve(ctx context.Context, key, translation string) (Verse, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	fallback, ok := presets[DefaultTranslation][key]
	if !ok {
		return Verse{}, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}

	// Custom entries take precedence over everything, but only for an
	// exact translation match.
	p.mu.RLock()
	if v, ok := p.custom[key]; ok && v.Version == translation {
		p.mu.RUnlock()
		return v, nil
	}
	p.mu.RUnlock()

	if bundle, ok := presets[translation]; ok {
		if v, ok := bundle[key]; ok {
			return v, nil
		}
	}

	entry := key + "_" + translation
	p.mu.RLock()
	v, hit := p.cache[entry]
	p.mu.RUnlock()
	if hit {
		metrics.IncVerseCacheHits()
		return v, nil
	}

	if p.opts.RemoteEnabled {
		// The fetch runs unlocked; concurrent lookups of the same key may
		// both fetch, and the second write simply overwrites the first.
		v, err := p.fetch(ctx, key, translation)
		if err == nil {
			metrics.IncVerseFetches("success")
			p.mu.Lock()
			p.cache[entry] = v
			perr := p.persistCache()
			p.mu.Unlock()
			if perr != nil {
				p.logger.Warn("failed to persist verse cache", "error", perr)
			}
			return v, nil
		}
		metrics.IncVerseFetches("error")
		p.logger.Warn("remote verse fetch failed", "key", key, "translation", translation, "error", err)
	}

	// Any cached translation of this verse beats the bundled fallback,
	// but is labeled so the caller knows it is not the requested one.
	p.mu.RLock()
	for k, v := range p.cache {
		if strings.HasPrefix(k, key+"_") {
			p.mu.RUnlock()
			v.Version = translation + " (cached)"
			return v, nil
		}
	}
	p.mu.RUnlock()

	fallback.Version = translation + " (offline)"
	return fallback, nil
}

// fetch performs the live remote lookup.
func (p *Provider) fetch(ctx context.Context, key, translation string) (Verse, error) {
	ref := presets[DefaultTranslation][key].Reference
	u := fmt.Sprintf("%s/%s?translation=%s", p.opts.Endpoint, url.PathEscape(ref), apiTranslation(translation))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Verse{}, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return Verse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Verse{}, fmt.Errorf("verse service returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Verse{}, err
	}

	var payload struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return Verse{}, fmt.Errorf("failed to parse verse response: %w", err)
	}

	text := verseMarkerPattern.ReplaceAllString(payload.Text, "")
	text = whitespacePattern.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)
	if text == "" {
		return Verse{}, fmt.Errorf("verse service returned empty text")
	}

	return Verse{
		Text:      text,
		Reference: ref,
		Version:   translation,
		FetchedAt: time.Now().UnixMilli(),
	}, nil
}

// persistCache flushes the fetch cache. Callers must hold mu.
func (p *Provider) persistCache() error {
	data, err := json.Marshal(p.cache)
	if err != nil {
		return err
	}
	return p.store.Put(store.Local, cacheKey, data)
}

// persistCustom flushes the custom override table. Callers must hold mu.
func (p *Provider) persistCustom() error {
	data, err := json.Marshal(p.custom)
	if err != nil {
		return err
	}
	return p.store.Put(store.Local, customKey, data)
}

// VerseOfTheDay resolves today's verse under the active translation.
func (p *Provider) VerseOfTheDay(ctx context.Context) Verse {
	key := todayKey(time.Now())
	v, err := p.Resolve(ctx, key, p.Translation())
	if err != nil {
		// Unreachable for corpus keys; kept as a belt against a
		// corrupted corpus table.
		p.logger.Error("verse of the day resolution failed", "key", key, "error", err)
		return presets[DefaultTranslation][corpusKeys[0]]
	}
	return v
}

// StaticVerse returns the bundled default-translation entry for key, or
// false for unknown keys. Used by the {{verse:key}} placeholder, which
// never consults the remote tier.
func StaticVerse(key string) (Verse, bool) {
	v, ok := presets[DefaultTranslation][strings.ToLower(strings.TrimSpace(key))]
	return v, ok
}

// QuoteOfTheDay returns the daily-deterministic quote.
func (p *Provider) QuoteOfTheDay() Quote {
	return quotes[DailyIndex(time.Now(), len(quotes))]
}

// RandomQuote returns a uniformly random quote.
func (p *Provider) RandomQuote() Quote {
	return quotes[p.randIntn(len(quotes))]
}

// FormatVerse renders a verse in the quoted display form. The text is
// wrapped verbatim, never escaped.
func FormatVerse(v Verse) string {
	return fmt.Sprintf("\"%s\"\n— %s (%s)", v.Text, v.Reference, v.Version)
}

// FormatQuote renders a quote in the quoted display form.
func FormatQuote(q Quote) string {
	return fmt.Sprintf("\"%s\"\n— %s", q.Text, q.Author)
}

// ProcessSpecialVariables substitutes the dynamic placeholders:
// {{verseOfTheDay}}, {{quoteOfTheDay}}, {{randomQuote}} and
// {{verse:key}}. Unknown {{verse:key}} references are left literal.
func (p *Provider) ProcessSpecialVariables(ctx context.Context, text string) string {
	result := text

	if strings.Contains(result, "{{verseOfTheDay}}") {
		v := p.VerseOfTheDay(ctx)
		result = strings.ReplaceAll(result, "{{verseOfTheDay}}", FormatVerse(v))
	}

	if strings.Contains(result, "{{quoteOfTheDay}}") {
		result = strings.ReplaceAll(result, "{{quoteOfTheDay}}", FormatQuote(p.QuoteOfTheDay()))
	}

	if strings.Contains(result, "{{randomQuote}}") {
		result = strings.ReplaceAll(result, "{{randomQuote}}", FormatQuote(p.RandomQuote()))
	}

	result = verseRefPattern.ReplaceAllStringFunc(result, func(match string) string {
		key := verseRefPattern.FindStringSubmatch(match)[1]
		if v, ok := StaticVerse(key); ok {
			return FormatVerse(v)
		}
		return match
	})

	return result
}

// AddCustom stores a user-supplied verse override for key.
func (p *Provider) AddCustom(key string, v Verse) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.custom[strings.ToLower(strings.TrimSpace(key))] = v
	return p.persistCustom()
}

// DeleteCustom removes a custom verse override.
func (p *Provider) DeleteCustom(key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.custom, strings.ToLower(strings.TrimSpace(key)))
	return p.persistCustom()
}

// CustomVerses returns a copy of the custom override table.
func (p *Provider) CustomVerses() map[string]Verse {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make(map[string]Verse, len(p.custom))
	for k, v := range p.custom {
		out[k] = v
	}
	return out
}

// ImportCustom merges a serialized key-to-verse object into the custom
// table. Returns the number of entries imported.
func (p *Provider) ImportCustom(data []byte) (int, error) {
	var imported map[string]Verse
	if err := json.Unmarshal(data, &imported); err != nil {
		return 0, fmt.Errorf("malformed custom verse payload: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for k, v := range imported {
		p.custom[strings.ToLower(strings.TrimSpace(k))] = v
	}
	if err := p.persistCustom(); err != nil {
		return 0, err
	}
	p.logger.Info("custom verses imported", "count", len(imported))
	return len(imported), nil
}

// CacheStats lists cached remote fetches.
func (p *Provider) CacheStats() []CacheEntry {
	p.mu.RLock()
	defer p.mu.RUnlock()

	entries := make([]CacheEntry, 0, len(p.cache))
	for k, v := range p.cache {
		entries = append(entries, CacheEntry{
			Key:       k,
			Reference: v.Reference,
			Version:   v.Version,
			FetchedAt: v.FetchedAt,
		})
	}
	return entries
}

// ClearCache drops all cached remote fetches.
func (p *Provider) ClearCache() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.cache = make(map[string]Verse)
	return p.persistCache()
}
