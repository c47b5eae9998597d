// Package model defines the typed form model shared by the store, validation,
// derivation, payload and renderer packages. A Definition lists the fields a
// form owns together with its ordered steps; Values is the mutable form state
// keyed by field name. Localized fields keep their translations in a shadow
// `<name>_i18n` entry holding a LocalizedText while the plain `<name>` entry
// mirrors the active locale, so renderers and payload builders never have to
// know which locale is being edited. Option-backed fields store the selected
// Option values (or their keys) and carry the option's localized names so the
// derivation engine can fill the i18n shadow independently of the active
// locale.
package model
