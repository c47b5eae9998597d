// Package template defines the template engine contract used to render
// review summaries and entry tables. The gotemplate subpackage provides the
// pongo2-backed implementation.
package template
