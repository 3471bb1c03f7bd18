package render

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Message keys shared by every front-end.
const (
	KeyHeading           = "form.heading"
	KeyTitlePlaceholder  = "field.title.placeholder"
	KeyAuthorPlaceholder = "field.author.placeholder"
	KeyTextPlaceholder   = "field.text.placeholder"
	KeySubmit            = "action.submit"
	KeyPending           = "action.pending"
	KeyAgain             = "action.again"
	KeySuccess           = "outcome.success"
	KeyFailure           = "outcome.failure"
	KeyErrorHeading      = "outcome.error_heading"
	KeyTextRequired      = "validation.text_required"
	KeyInvalidField      = "validation.invalid_field"
)

// DefaultLocale is used when a requested locale has no catalog entry.
const DefaultLocale = "en"

var (
	// ErrMissingTranslator is reported when no translator was configured.
	ErrMissingTranslator = errors.New("render: translator not configured")
	// ErrMissingTranslation is returned when a key has no entry for a locale.
	ErrMissingTranslation = errors.New("render: missing translation")
)

//go:embed locales/*.yaml
var embeddedLocales embed.FS

// Translator resolves message keys for a locale.
type Translator interface {
	Translate(locale, key string, args ...any) (string, error)
}

// MissingTranslationHandler decides what to show when a key cannot be
// translated.
type MissingTranslationHandler func(locale, key string, args []any, err error) string

func missingTranslationDefault(_ string, key string, _ []any, _ error) string {
	return key
}

// Catalog stores display strings per locale. It is safe for concurrent use.
type Catalog struct {
	mu       sync.RWMutex
	messages map[string]map[string]string
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{messages: make(map[string]map[string]string)}
}

// DefaultCatalog loads the locales shipped with the module.
func DefaultCatalog() (*Catalog, error) {
	catalog := NewCatalog()
	if err := catalog.LoadFS(embeddedLocales, "locales"); err != nil {
		return nil, err
	}
	return catalog, nil
}

// LoadFS reads every *.yaml/*.yml file in dir; the file stem is the locale.
func (c *Catalog) LoadFS(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("render: read locales: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := path.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("render: read %s: %w", entry.Name(), err)
		}
		if err := c.LoadYAML(strings.TrimSuffix(entry.Name(), ext), data); err != nil {
			return err
		}
	}
	return nil
}

// LoadYAML merges a flat key/value YAML document into locale.
func (c *Catalog) LoadYAML(locale string, data []byte) error {
	var messages map[string]string
	if err := yaml.Unmarshal(data, &messages); err != nil {
		return fmt.Errorf("render: parse locale %q: %w", locale, err)
	}
	c.Add(locale, messages)
	return nil
}

// Add merges messages into locale, later values winning.
func (c *Catalog) Add(locale string, messages map[string]string) {
	locale = normalizeLocale(locale)
	if locale == "" || len(messages) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	dest, ok := c.messages[locale]
	if !ok {
		dest = make(map[string]string, len(messages))
		c.messages[locale] = dest
	}
	for key, value := range messages {
		dest[strings.TrimSpace(key)] = value
	}
}

// Locales lists the loaded locales in sorted order.
func (c *Catalog) Locales() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, 0, len(c.messages))
	for locale := range c.messages {
		out = append(out, locale)
	}
	sort.Strings(out)
	return out
}

// Has reports whether locale has any messages.
func (c *Catalog) Has(locale string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.messages[normalizeLocale(locale)]
	return ok
}

// Translate implements Translator. Region suffixes ("ru-RU") fall back to the
// base language. Args are applied with fmt.Sprintf when present.
func (c *Catalog) Translate(locale, key string, args ...any) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, candidate := range localeCandidates(locale) {
		if msg, ok := c.messages[candidate][key]; ok && strings.TrimSpace(msg) != "" {
			if len(args) > 0 {
				return fmt.Sprintf(msg, args...), nil
			}
			return msg, nil
		}
	}
	return "", fmt.Errorf("%w: %s/%s", ErrMissingTranslation, locale, key)
}

// Messages binds a translator to a single locale, the localization map a
// form is built with.
type Messages struct {
	locale     string
	translator Translator
	onMissing  MissingTranslationHandler
}

// MessagesOption configures Messages.
type MessagesOption func(*Messages)

// WithMissingHandler overrides what is shown for untranslated keys.
func WithMissingHandler(fn MissingTranslationHandler) MessagesOption {
	return func(m *Messages) {
		if fn != nil {
			m.onMissing = fn
		}
	}
}

// NewMessages binds t to locale. Lookups fall back to DefaultLocale before
// reaching the missing handler.
func NewMessages(t Translator, locale string, opts ...MessagesOption) Messages {
	m := Messages{
		locale:     normalizeLocale(locale),
		translator: t,
		onMissing:  missingTranslationDefault,
	}
	if m.locale == "" {
		m.locale = DefaultLocale
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	return m
}

// DefaultMessages returns English messages from the embedded catalog.
func DefaultMessages() Messages {
	catalog, err := DefaultCatalog()
	if err != nil {
		return NewMessages(nil, DefaultLocale)
	}
	return NewMessages(catalog, DefaultLocale)
}

// IsZero reports whether m was never bound to a translator or locale.
func (m Messages) IsZero() bool {
	return m.translator == nil && m.locale == ""
}

// Locale reports the bound locale.
func (m Messages) Locale() string {
	if m.locale == "" {
		return DefaultLocale
	}
	return m.locale
}

// T translates key.
func (m Messages) T(key string, args ...any) string {
	onMissing := m.onMissing
	if onMissing == nil {
		onMissing = missingTranslationDefault
	}
	if m.translator == nil {
		return onMissing(m.Locale(), key, args, ErrMissingTranslator)
	}

	msg, err := m.translator.Translate(m.Locale(), key, args...)
	if err == nil && strings.TrimSpace(msg) != "" {
		return msg
	}
	if m.Locale() != DefaultLocale {
		if fallback, ferr := m.translator.Translate(DefaultLocale, key, args...); ferr == nil && strings.TrimSpace(fallback) != "" {
			return fallback
		}
	}
	return onMissing(m.Locale(), key, args, err)
}

// Map returns every shared key translated, for templates.
func (m Messages) Map() map[string]string {
	keys := []string{
		KeyHeading, KeyTitlePlaceholder, KeyAuthorPlaceholder, KeyTextPlaceholder,
		KeySubmit, KeyPending, KeyAgain, KeySuccess, KeyFailure, KeyErrorHeading,
		KeyTextRequired, KeyInvalidField,
	}
	out := make(map[string]string, len(keys))
	for _, key := range keys {
		out[key] = m.T(key)
	}
	return out
}

func normalizeLocale(locale string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(locale), "_", "-"))
}

func localeCandidates(locale string) []string {
	locale = normalizeLocale(locale)
	if locale == "" {
		return nil
	}
	out := []string{locale}
	if base, _, ok := strings.Cut(locale, "-"); ok && base != "" {
		out = append(out, base)
	}
	return out
}
