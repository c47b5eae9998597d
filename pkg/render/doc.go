// Package render turns form state and entry listings into plain view models
// and renders them through a template engine. The default engine is the
// pongo2 adapter loaded with the embedded templates.
package render
