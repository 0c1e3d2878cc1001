package manager

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jadujoel/smanager/internal/atlas"
	"github.com/jadujoel/smanager/internal/buffer"
	"github.com/jadujoel/smanager/internal/cache"
	"github.com/jadujoel/smanager/internal/codec"
	"github.com/jadujoel/smanager/internal/config"
	"github.com/jadujoel/smanager/internal/http"
	"github.com/jadujoel/smanager/internal/token"
)

// State is the manager run state.
type State int

const (
	// Running accepts loads and mutations.
	Running State = iota

	// Disposed makes every mutating call a silent no-op. There is no
	// intermediate closing state; disposal is synchronous.
	Disposed
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Disposed:
		return "disposed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Fetcher retrieves raw bytes for a URL.
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Options configures a Manager.
type Options struct {
	// Settings supplies defaults for load path, extension, language,
	// sample rate and concurrency. Nil means config.DefaultSettings.
	Settings *config.Settings

	// Fetcher retrieves atlas documents and encoded audio. Nil means an
	// HTTP client with the configured timeout.
	Fetcher Fetcher

	// Codecs maps file extensions to decoders. Nil means the default
	// registry.
	Codecs *codec.Registry
}

// Manager is the façade combining the atlas index, the asset cache and the
// active language/package/priority state.
//
// All name resolution runs against ordered active lists where the front
// entry has the highest priority. Loads are deduplicated per file by the
// cache; the manager only decides which items a call gathers and in what
// order a batch is issued.
type Manager struct {
	mu              sync.RWMutex
	state           State
	atlas           *atlas.Atlas
	activePackages  []string
	activeLanguages []string
	priorityList    []string
	loadPath        string
	extension       string

	settings *config.Settings
	fetcher  Fetcher
	codecs   *codec.Registry
	cache    *cache.Cache
	events   *observers
}

// New creates a running manager with an empty atlas.
func New(opts Options) *Manager {
	settings := opts.Settings
	if settings == nil {
		settings = config.DefaultSettings()
	}
	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = http.NewClient(time.Duration(settings.HTTPTimeoutSeconds) * time.Second)
	}
	codecs := opts.Codecs
	if codecs == nil {
		codecs = codec.DefaultRegistry()
	}

	m := &Manager{
		atlas:           atlas.NewAtlas(),
		activeLanguages: []string{settings.DefaultLanguage},
		priorityList:    append([]string(nil), settings.PriorityList...),
		loadPath:        settings.SourcePath,
		extension:       settings.FileExtension,
		settings:        settings,
		fetcher:         fetcher,
		codecs:          codecs,
		events:          newObservers(),
	}
	m.cache = m.newCache()
	return m
}

func (m *Manager) newCache() *cache.Cache {
	return cache.New(cache.Options{
		Fetch:      m.fetcher.Get,
		Decode:     m.decodeBytes,
		SampleRate: m.settings.SampleRate,
		Notify:     m.notifyFile,
	})
}

// decodeBytes dispatches decoding by the extension of the URL the bytes
// were fetched from, so a load keeps its codec even when the configured
// extension changes while the fetch is in flight.
func (m *Manager) decodeBytes(ctx context.Context, url string, data []byte) (*buffer.Buffer, error) {
	ext := path.Ext(url)
	if ext == "" {
		m.mu.RLock()
		ext = m.extension
		m.mu.RUnlock()
	}

	fn := m.codecs.DecodeFunc(ext)
	if fn == nil {
		return nil, fmt.Errorf("decode %s: %w", ext, codec.ErrUnknownFormat)
	}
	return fn(ctx, data)
}

func (m *Manager) notifyFile(kind cache.EventKind, fileID string) {
	switch kind {
	case cache.EventLoading:
		m.events.emit(Event{Name: EventFileLoading, Detail: fileID})
	case cache.EventLoaded:
		m.events.emit(Event{Name: EventFileLoaded, Detail: fileID})
	case cache.EventLoadError:
		m.events.emit(Event{Name: EventFileLoadError, Detail: fileID})
	}
}

// State returns the current run state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Subscribe registers a listener for a named event and returns an id for
// Unsubscribe.
func (m *Manager) Subscribe(name string, fn Listener) int {
	return m.events.subscribe(name, fn)
}

// Unsubscribe removes a listener registered with Subscribe.
func (m *Manager) Unsubscribe(name string, id int) bool {
	return m.events.unsubscribe(name, id)
}

// LoadAtlas fetches and parses an atlas document, replacing the current
// atlas and resetting the active package and language lists from its
// content. Emits "atlasloaded". No-op when not running.
func (m *Manager) LoadAtlas(ctx context.Context, url string) error {
	if m.State() != Running {
		return nil
	}

	data, err := m.fetcher.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("load atlas %s: %w", url, err)
	}
	a, err := atlas.Parse(data)
	if err != nil {
		return fmt.Errorf("parse atlas %s: %w", url, err)
	}

	m.installAtlas(a)
	m.events.emit(Event{Name: EventAtlasLoaded, Detail: url})
	return nil
}

// SetAtlas installs an already-parsed atlas, resetting the active package
// and language lists from its content. Emits "atlasloaded". No-op when not
// running.
func (m *Manager) SetAtlas(a *atlas.Atlas) {
	if m.State() != Running || a == nil {
		return
	}
	m.installAtlas(a)
	m.events.emit(Event{Name: EventAtlasLoaded})
}

// installAtlas defaults both active lists from the atlas: every package in
// stored order, every language in first-seen order with the configured
// default language moved to the front.
func (m *Manager) installAtlas(a *atlas.Atlas) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.atlas = a
	m.activePackages = a.PackageNames()

	langs := a.Languages(m.activePackages)
	if contains(langs, m.settings.DefaultLanguage) {
		langs = moveToFront(langs, m.settings.DefaultLanguage)
	} else if len(langs) == 0 && m.settings.DefaultLanguage != "" {
		langs = []string{m.settings.DefaultLanguage}
	}
	m.activeLanguages = langs
}

// Atlas returns the installed atlas.
func (m *Manager) Atlas() *atlas.Atlas {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.atlas
}

// SetLanguage moves a language tag to the front of the active list.
//
// Returns false without emitting when not running, when the tag is already
// the highest priority, or when the tag does not appear in the atlas scope.
// On success emits "languagechanged" with the tag as detail.
func (m *Manager) SetLanguage(tag string) bool {
	m.mu.Lock()
	if m.state != Running {
		m.mu.Unlock()
		return false
	}
	if len(m.activeLanguages) > 0 && m.activeLanguages[0] == tag {
		m.mu.Unlock()
		return false
	}
	if !contains(m.atlas.Languages(m.activePackages), tag) {
		m.mu.Unlock()
		return false
	}
	m.activeLanguages = moveToFront(m.activeLanguages, tag)
	m.mu.Unlock()

	m.events.emit(Event{Name: EventLanguageChanged, Detail: tag})
	return true
}

// SetPackageByName moves a package to the front of the active list.
//
// Returns false without emitting when not running, when the package is
// already the highest priority, or when it is absent from the atlas or
// from the active list. Packages not already active are never added here.
// On success emits "packagechanged" with the name as detail.
func (m *Manager) SetPackageByName(name string) bool {
	m.mu.Lock()
	if m.state != Running {
		m.mu.Unlock()
		return false
	}
	if len(m.activePackages) > 0 && m.activePackages[0] == name {
		m.mu.Unlock()
		return false
	}
	if !m.atlas.HasPackage(name) || !contains(m.activePackages, name) {
		m.mu.Unlock()
		return false
	}
	m.activePackages = moveToFront(m.activePackages, name)
	m.mu.Unlock()

	m.events.emit(Event{Name: EventPackageChanged, Detail: name})
	return true
}

// SetLoadPath changes the base path assets are fetched from and emits
// "loadpathchanged". No-op when not running.
func (m *Manager) SetLoadPath(base string) {
	m.mu.Lock()
	if m.state != Running {
		m.mu.Unlock()
		return
	}
	m.loadPath = base
	m.mu.Unlock()

	m.events.emit(Event{Name: EventLoadPathChanged, Detail: base})
}

// SetExtension changes the asset file extension. The set mirrors
// config.Settings.Validate.
func (m *Manager) SetExtension(ext string) error {
	switch ext {
	case ".webm", ".mp4", ".wav", ".mp3", ".ogg":
	default:
		return fmt.Errorf("unsupported file extension %q", ext)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Running {
		return nil
	}
	m.extension = ext
	return nil
}

// SetPriorityList replaces the source-name priority list. The list affects
// only the order a batch of loads is issued in, never which file a source
// resolves to. No-op when not running.
func (m *Manager) SetPriorityList(sources []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Running {
		return
	}
	m.priorityList = append([]string(nil), sources...)
}

// ActiveLanguages returns a copy of the active language list, highest
// priority first.
func (m *Manager) ActiveLanguages() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.activeLanguages...)
}

// ActivePackages returns a copy of the active package list, highest
// priority first.
func (m *Manager) ActivePackages() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.activePackages...)
}

// PriorityList returns a copy of the source-name priority list.
func (m *Manager) PriorityList() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.priorityList...)
}

// LoadPath returns the configured asset base path.
func (m *Manager) LoadPath() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loadPath
}

// Extension returns the configured asset file extension.
func (m *Manager) Extension() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.extension
}

// SourceNames returns the source names resolvable in the current active
// package and language scope.
func (m *Manager) SourceNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.atlas.SourceNames(m.activePackages, m.activeLanguages)
}

// Languages returns the language tags present in the active packages.
func (m *Manager) Languages() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.atlas.Languages(m.activePackages)
}

// Stats returns a snapshot of the cache contents.
func (m *Manager) Stats() cache.Stats {
	m.mu.RLock()
	c := m.cache
	m.mu.RUnlock()
	return c.Stats()
}

// URLFor builds the fetch URL for an item:
// {loadPath}/{fileID}{extension}.
func (m *Manager) URLFor(item atlas.SoundItem) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return strings.TrimSuffix(m.loadPath, "/") + "/" + item.FileID + m.extension
}

// LoadItem starts (or joins) the load for an item's file and returns its
// token. A disposed manager returns a nil-resolved token.
func (m *Manager) LoadItem(ctx context.Context, item atlas.SoundItem) *token.Token {
	m.mu.RLock()
	if m.state != Running {
		m.mu.RUnlock()
		return token.Resolved(nil)
	}
	c := m.cache
	m.mu.RUnlock()

	return c.LoadItem(ctx, item, m.URLFor(item))
}

// LoadFile loads the file with the given id. An unknown file id yields a
// nil-resolved token, never an error.
func (m *Manager) LoadFile(ctx context.Context, fileID string) *token.Token {
	m.mu.RLock()
	item, ok := m.atlas.FindFile(fileID, m.activePackages)
	m.mu.RUnlock()
	if !ok {
		return token.Resolved(nil)
	}
	return m.LoadItem(ctx, item)
}

// LoadSource resolves a source name in the active scope and loads it. An
// unknown source name yields a nil-resolved token, never an error.
func (m *Manager) LoadSource(ctx context.Context, sourceName string) *token.Token {
	m.mu.RLock()
	item, ok := m.atlas.FindSource(sourceName, m.activePackages, m.activeLanguages)
	m.mu.RUnlock()
	if !ok {
		return token.Resolved(nil)
	}
	return m.LoadItem(ctx, item)
}

// LoadSources loads a set of source names concurrently and waits for all of
// them to settle. Unknown names are skipped.
func (m *Manager) LoadSources(ctx context.Context, sourceNames []string) error {
	m.mu.RLock()
	var items []atlas.SoundItem
	for _, name := range sourceNames {
		if item, ok := m.atlas.FindSource(name, m.activePackages, m.activeLanguages); ok {
			items = append(items, item)
		}
	}
	m.mu.RUnlock()

	return m.loadBatch(ctx, items)
}

// LoadPackageName loads every item of one package eligible under the
// active languages.
func (m *Manager) LoadPackageName(ctx context.Context, name string) error {
	return m.LoadPackageNames(ctx, []string{name})
}

// LoadPackageNames loads every item of the given packages eligible under
// the active languages.
func (m *Manager) LoadPackageNames(ctx context.Context, names []string) error {
	m.mu.RLock()
	items := m.atlas.Items(names, m.activeLanguages)
	m.mu.RUnlock()

	return m.loadBatch(ctx, items)
}

// LoadEverything loads every item of every package in every language.
func (m *Manager) LoadEverything(ctx context.Context) error {
	m.mu.RLock()
	names := m.atlas.PackageNames()
	items := m.atlas.Items(names, m.atlas.Languages(names))
	m.mu.RUnlock()

	return m.loadBatch(ctx, items)
}

// LoadLanguage loads every item tagged with exactly the given language in
// the active packages.
func (m *Manager) LoadLanguage(ctx context.Context, language string) error {
	return m.LoadLanguages(ctx, []string{language})
}

// LoadLanguages loads every item tagged with any of the given languages in
// the active packages.
func (m *Manager) LoadLanguages(ctx context.Context, languages []string) error {
	m.mu.RLock()
	var items []atlas.SoundItem
	for _, lang := range languages {
		items = append(items, m.atlas.ItemsForLanguage(m.activePackages, lang)...)
	}
	m.mu.RUnlock()

	return m.loadBatch(ctx, items)
}

// LoadPriorityList loads the sources named in the priority list, issued in
// list order.
func (m *Manager) LoadPriorityList(ctx context.Context) error {
	return m.LoadSources(ctx, m.PriorityList())
}

// loadBatch issues loads for a set of items in priority order and waits for
// every token to settle. A single failing load never stops its siblings;
// failures surface through "fileloaderror" events and the tokens
// themselves. The returned error is only a context cancellation.
func (m *Manager) loadBatch(ctx context.Context, items []atlas.SoundItem) error {
	if m.State() != Running || len(items) == 0 {
		return nil
	}
	items = atlas.SortByPriority(items, m.PriorityList())

	limit := m.settings.MaxConcurrentLoads
	if limit <= 0 {
		limit = config.DefaultSettings().MaxConcurrentLoads
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for _, item := range items {
		item := item // capture
		g.Go(func() error {
			tok := m.LoadItem(ctx, item)
			if _, err := tok.Await(ctx); err != nil && ctx.Err() != nil {
				return ctx.Err()
			}
			return nil
		})
	}

	return g.Wait()
}

// RequestBufferAsync resolves a source name and returns its load token.
// Unknown names yield a nil-resolved token.
func (m *Manager) RequestBufferAsync(ctx context.Context, sourceName string) *token.Token {
	return m.LoadSource(ctx, sourceName)
}

// RequestBufferSync resolves a source name and returns the buffer available
// right now: the decoded data if the load settled, the pre-allocated
// silence if it is still in flight, nil for unknown names or a disposed
// manager. The load is started if it was not already.
func (m *Manager) RequestBufferSync(ctx context.Context, sourceName string) *buffer.Buffer {
	return m.LoadSource(ctx, sourceName).Value()
}

// RequestBufferReversedAsync resolves a source name and returns the token
// for its time-reversed buffer, deriving it from the forward load.
func (m *Manager) RequestBufferReversedAsync(ctx context.Context, sourceName string) *token.Token {
	m.mu.RLock()
	if m.state != Running {
		m.mu.RUnlock()
		return token.Resolved(nil)
	}
	item, ok := m.atlas.FindSource(sourceName, m.activePackages, m.activeLanguages)
	c := m.cache
	m.mu.RUnlock()
	if !ok {
		return token.Resolved(nil)
	}
	return c.LoadReversed(ctx, item, m.URLFor(item))
}

// RequestBufferReversedSync resolves a source name and returns the reversed
// buffer available right now, or nil.
func (m *Manager) RequestBufferReversedSync(ctx context.Context, sourceName string) *buffer.Buffer {
	return m.RequestBufferReversedAsync(ctx, sourceName).Value()
}

// DisposeItem releases the buffers held for an item's file.
func (m *Manager) DisposeItem(item atlas.SoundItem) {
	m.DisposeFile(item.FileID)
}

// DisposeFile releases the forward and reversed buffers held for a file.
// No-op when disposed.
func (m *Manager) DisposeFile(fileID string) {
	m.mu.RLock()
	if m.state != Running {
		m.mu.RUnlock()
		return
	}
	c := m.cache
	m.mu.RUnlock()

	c.DisposeFile(fileID)
}

// DisposeSource releases the buffers for the file a source name currently
// resolves to. Unknown names are a no-op.
func (m *Manager) DisposeSource(sourceName string) {
	m.mu.RLock()
	item, ok := m.atlas.FindSource(sourceName, m.activePackages, m.activeLanguages)
	m.mu.RUnlock()
	if ok {
		m.DisposeFile(item.FileID)
	}
}

// DisposePackage releases the buffers for every item in a package,
// regardless of language.
func (m *Manager) DisposePackage(name string) {
	m.DisposePackages([]string{name})
}

// DisposePackages releases the buffers for every item in the given
// packages.
func (m *Manager) DisposePackages(names []string) {
	m.mu.RLock()
	items := m.atlas.Items(names, m.atlas.Languages(names))
	m.mu.RUnlock()

	for _, item := range items {
		m.DisposeFile(item.FileID)
	}
}

// DisposeLanguage releases the buffers for every item tagged with exactly
// the given language across all packages.
func (m *Manager) DisposeLanguage(language string) {
	m.mu.RLock()
	items := m.atlas.ItemsForLanguage(m.atlas.PackageNames(), language)
	m.mu.RUnlock()

	for _, item := range items {
		m.DisposeFile(item.FileID)
	}
}

// Dispose retires the manager: every cached buffer is disposed and the
// state becomes Disposed. With disposeListeners true, all event
// subscriptions are dropped as well. Idempotent.
func (m *Manager) Dispose(disposeListeners bool) {
	m.mu.Lock()
	if m.state == Disposed {
		m.mu.Unlock()
		return
	}
	m.state = Disposed
	c := m.cache
	m.mu.Unlock()

	c.Dispose()
	if disposeListeners {
		m.events.clear()
	}
}

// Reload disposes the manager and immediately returns it to Running with
// an empty cache. The atlas and active lists survive. Emits "reloaded".
func (m *Manager) Reload(disposeListeners bool) {
	m.Dispose(disposeListeners)

	m.mu.Lock()
	m.state = Running
	m.cache = m.newCache()
	m.mu.Unlock()

	m.events.emit(Event{Name: EventReloaded})
}

// ReloadWithAtlas reloads the manager and installs a new atlas in one step.
func (m *Manager) ReloadWithAtlas(a *atlas.Atlas, disposeListeners bool) {
	m.Reload(disposeListeners)
	m.SetAtlas(a)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// moveToFront returns the list with s at index 0, inserting it when absent
// and preserving the relative order of all other members.
func moveToFront(list []string, s string) []string {
	out := make([]string, 0, len(list)+1)
	out = append(out, s)
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}
