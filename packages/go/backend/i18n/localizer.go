package i18n

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"

	"agrivoice/packages/go/backend/storage"
)

// LanguageStorageKey is the durable storage key holding the chosen language.
const LanguageStorageKey = "user-language"

// Listener is notified with the active language after it changes.
type Listener func(LanguageCode)

// Localizer resolves translation keys against per-language bundles and
// broadcasts language changes.
type Localizer struct {
	mu          sync.RWMutex
	embedded    map[LanguageCode]Bundle
	bundles     map[LanguageCode]Bundle
	current     LanguageCode
	overrideDir string

	listenersMu sync.Mutex
	listeners   []*listenerEntry

	store  storage.Store
	logger *zap.SugaredLogger
}

type listenerEntry struct {
	fn Listener
}

// Option customises a Localizer.
type Option func(*Localizer)

// WithOverrideDir merges bundle files from dir over the embedded bundles.
func WithOverrideDir(dir string) Option {
	return func(l *Localizer) {
		l.overrideDir = dir
	}
}

// WithInitialLanguage selects the starting language without persisting it.
// Unknown codes are ignored.
func WithInitialLanguage(code LanguageCode) Option {
	return func(l *Localizer) {
		l.current = code
	}
}

// NewLocalizer loads the embedded bundles plus any override directory.
// store may be nil, in which case language choices are not persisted.
func NewLocalizer(store storage.Store, logger *zap.SugaredLogger, opts ...Option) (*Localizer, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	embedded, err := loadEmbedded()
	if err != nil {
		return nil, err
	}
	if _, ok := embedded[DefaultLanguage]; !ok {
		return nil, fmt.Errorf("default language %q has no bundle", DefaultLanguage)
	}

	l := &Localizer{
		embedded: embedded,
		current:  DefaultLanguage,
		store:    store,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(l)
	}

	bundles, err := l.buildBundles(l.overrideDir)
	if err != nil {
		return nil, err
	}
	l.bundles = bundles
	if !l.supported(l.current) {
		logger.Warnw("initial language not supported, using default", "language", l.current)
		l.current = DefaultLanguage
	}
	return l, nil
}

// SetLanguage switches the active language, persists it and notifies
// listeners in registration order.
func (l *Localizer) SetLanguage(ctx context.Context, code LanguageCode) error {
	l.mu.Lock()
	if !l.supportedLocked(code) {
		l.mu.Unlock()
		return &UnsupportedLanguageError{Code: string(code)}
	}
	l.current = code
	l.mu.Unlock()

	if l.store != nil {
		if err := l.store.Set(ctx, LanguageStorageKey, string(code)); err != nil {
			l.logger.Errorw("failed to persist language", "language", code, "error", err)
		}
	}

	l.logger.Infow("language changed", "language", code)
	l.notify(code)
	return nil
}

// Restore applies the persisted language, if any. Unknown values keep the
// current language.
func (l *Localizer) Restore(ctx context.Context) error {
	if l.store == nil {
		return nil
	}

	value, err := l.store.Get(ctx, LanguageStorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		l.logger.Errorw("failed to read persisted language", "error", err)
		return nil
	}

	code := LanguageCode(value)
	l.mu.Lock()
	if !l.supportedLocked(code) {
		l.mu.Unlock()
		l.logger.Warnw("ignoring persisted language", "language", value)
		return nil
	}
	changed := l.current != code
	l.current = code
	l.mu.Unlock()

	if changed {
		l.notify(code)
	}
	return nil
}

// CurrentLanguage returns the active language.
func (l *Localizer) CurrentLanguage() LanguageCode {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// IsRTL reports whether the active language is written right to left.
func (l *Localizer) IsRTL() bool {
	d, _ := LookupDescriptor(l.CurrentLanguage())
	return d.RTL
}

// Descriptor returns the descriptor of a supported language.
func (l *Localizer) Descriptor(code LanguageCode) (Descriptor, bool) {
	if !l.supported(code) {
		return Descriptor{}, false
	}
	return LookupDescriptor(code)
}

// CurrentDescriptor returns the descriptor of the active language.
func (l *Localizer) CurrentDescriptor() Descriptor {
	d, _ := LookupDescriptor(l.CurrentLanguage())
	return d
}

// Languages lists the supported languages ordered by code.
func (l *Localizer) Languages() []Descriptor {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Descriptor, 0, len(descriptors))
	for _, code := range registeredCodes() {
		if _, ok := l.bundles[code]; ok {
			out = append(out, descriptors[code])
		}
	}
	return out
}

// T translates key in the active language.
func (l *Localizer) T(key string, params map[string]any) string {
	return l.TranslateIn(l.CurrentLanguage(), key, params)
}

// TranslateIn translates key in the given language, falling back to the
// default bundle and finally to the key itself.
func (l *Localizer) TranslateIn(code LanguageCode, key string, params map[string]any) string {
	value, ok := l.resolve(code, key)
	if !ok {
		return key
	}
	text, isString := value.(string)
	if !isString {
		l.logger.Warnw("translation key does not resolve to a string", "key", key, "language", code)
		return key
	}
	return interpolate(text, params)
}

// List returns the list stored at key in the active language.
func (l *Localizer) List(key string) []string {
	return l.ListIn(l.CurrentLanguage(), key)
}

// ListIn returns the list stored at key in the given language, or nil when
// the key is absent or not a list.
func (l *Localizer) ListIn(code LanguageCode, key string) []string {
	value, ok := l.resolve(code, key)
	if !ok {
		return nil
	}
	list, ok := stringList(value)
	if !ok {
		return nil
	}
	return list
}

// Subscribe registers fn for language changes and returns a function that
// removes it.
func (l *Localizer) Subscribe(fn Listener) func() {
	entry := &listenerEntry{fn: fn}
	l.listenersMu.Lock()
	l.listeners = append(l.listeners, entry)
	l.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.listenersMu.Lock()
			defer l.listenersMu.Unlock()
			for i, existing := range l.listeners {
				if existing == entry {
					l.listeners = append(l.listeners[:i], l.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

// Reload re-reads the override directory. On failure the previous bundles
// stay active.
func (l *Localizer) Reload() error {
	l.mu.RLock()
	dir := l.overrideDir
	l.mu.RUnlock()

	bundles, err := l.buildBundles(dir)
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.bundles = bundles
	if !l.supportedLocked(l.current) {
		l.current = DefaultLanguage
	}
	current := l.current
	l.mu.Unlock()

	l.logger.Infow("translation bundles reloaded", "dir", dir, "languages", len(bundles))
	l.notify(current)
	return nil
}

func (l *Localizer) resolve(code LanguageCode, key string) (any, bool) {
	l.mu.RLock()
	current := l.bundles[code]
	fallback := l.bundles[DefaultLanguage]
	l.mu.RUnlock()

	if current != nil {
		if value, ok := current.Lookup(key); ok {
			return value, true
		}
	}
	if fallback != nil {
		return fallback.Lookup(key)
	}
	return nil, false
}

func (l *Localizer) buildBundles(dir string) (map[LanguageCode]Bundle, error) {
	overrides := map[LanguageCode][]Bundle{}
	if dir != "" {
		loaded, err := LoadDir(dir)
		if err != nil {
			return nil, err
		}
		overrides = loaded
	}

	bundles := make(map[LanguageCode]Bundle, len(l.embedded))
	for code, base := range l.embedded {
		layers := append(layeredBundle{}, overrides[code]...)
		bundles[code] = append(layers, base)
	}
	for code, layers := range overrides {
		if _, ok := bundles[code]; ok {
			continue
		}
		if _, registered := descriptors[code]; !registered {
			l.logger.Warnw("skipping bundle for unregistered language", "language", code, "dir", dir)
			continue
		}
		bundles[code] = layeredBundle(layers)
	}
	return bundles, nil
}

func (l *Localizer) supported(code LanguageCode) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.supportedLocked(code)
}

func (l *Localizer) supportedLocked(code LanguageCode) bool {
	if _, ok := descriptors[code]; !ok {
		return false
	}
	_, ok := l.bundles[code]
	return ok
}

func (l *Localizer) notify(code LanguageCode) {
	l.listenersMu.Lock()
	listeners := make([]*listenerEntry, len(l.listeners))
	copy(listeners, l.listeners)
	l.listenersMu.Unlock()

	for _, entry := range listeners {
		l.invoke(entry.fn, code)
	}
}

func (l *Localizer) invoke(fn Listener, code LanguageCode) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Errorw("language listener panicked", "language", code, "panic", r)
		}
	}()
	fn(code)
}

var placeholderPattern = regexp.MustCompile(`\{\{(\w+)\}\}`)

// interpolate substitutes {{name}} placeholders in a single pass so values
// are never re-expanded. Placeholders without a param are kept verbatim.
func interpolate(text string, params map[string]any) string {
	if len(params) == 0 || !strings.Contains(text, "{{") {
		return text
	}
	return placeholderPattern.ReplaceAllStringFunc(text, func(match string) string {
		if value, ok := params[match[2:len(match)-2]]; ok {
			return fmt.Sprint(value)
		}
		return match
	})
}
