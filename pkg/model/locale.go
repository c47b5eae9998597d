package model

import (
	"sort"
	"strings"

	"golang.org/x/text/language"
)

const (
	// LocaleEnglish and LocaleArabic are the locales populated by default.
	LocaleEnglish = "en_US"
	LocaleArabic  = "ar_SA"
)

// DefaultLocales lists the locales filled for i18n shadow fields unless the
// host configures more.
var DefaultLocales = []string{LocaleEnglish, LocaleArabic}

// NormalizeLocale accepts BCP 47 ("en-US") or Liferay ("en_US") spellings and
// returns the Liferay spelling. Bare languages gain their region only when it
// is explicit in the input.
func NormalizeLocale(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	tag, err := language.Parse(strings.ReplaceAll(trimmed, "_", "-"))
	if err != nil {
		return trimmed
	}
	base, _ := tag.Base()
	region, confidence := tag.Region()
	if confidence != language.Exact {
		return base.String()
	}
	return base.String() + "_" + region.String()
}

// LocalizedText maps a locale code to a translation.
type LocalizedText map[string]string

// Get returns the translation for locale, matching either the exact code or
// its language when the stored keys carry a region the request lacks (or the
// other way around).
func (t LocalizedText) Get(locale string) string {
	if len(t) == 0 {
		return ""
	}
	locale = NormalizeLocale(locale)
	if value, ok := t[locale]; ok {
		return value
	}
	lang := languageOf(locale)
	for _, key := range t.Locales() {
		if languageOf(NormalizeLocale(key)) == lang {
			return t[key]
		}
	}
	return ""
}

// Key returns the map key a write for locale should land on: the exact code,
// else a stored key of the same language, else the default locale of that
// language when locale is bare.
func (t LocalizedText) Key(locale string) string {
	locale = NormalizeLocale(locale)
	if _, ok := t[locale]; ok {
		return locale
	}
	lang := languageOf(locale)
	for _, key := range t.Locales() {
		if languageOf(NormalizeLocale(key)) == lang {
			return key
		}
	}
	if lang == locale {
		for _, def := range DefaultLocales {
			if languageOf(def) == lang {
				return def
			}
		}
	}
	return locale
}

// First returns the first non-empty translation in locale order.
func (t LocalizedText) First() string {
	for _, key := range t.Locales() {
		if value := strings.TrimSpace(t[key]); value != "" {
			return t[key]
		}
	}
	return ""
}

// Locales returns the stored locale codes in sorted order.
func (t LocalizedText) Locales() []string {
	keys := make([]string, 0, len(t))
	for key := range t {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// IsEmpty reports whether no locale has non-blank text.
func (t LocalizedText) IsEmpty() bool {
	for _, value := range t {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}

// Clone copies the translation map.
func (t LocalizedText) Clone() LocalizedText {
	if t == nil {
		return nil
	}
	out := make(LocalizedText, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// Normalized returns a copy keyed by normalized locale codes with blank keys
// dropped.
func (t LocalizedText) Normalized() LocalizedText {
	if t == nil {
		return nil
	}
	out := make(LocalizedText, len(t))
	for key, value := range t {
		normalized := NormalizeLocale(key)
		if normalized == "" {
			continue
		}
		out[normalized] = value
	}
	return out
}

func languageOf(locale string) string {
	if idx := strings.IndexByte(locale, '_'); idx > 0 {
		return locale[:idx]
	}
	return locale
}
