// Package picklists serves cached picklist and reference-collection options
// over net/http as JSON for form inputs.
//
// The handler answers GET and HEAD on <route>/{list} and filters options by
// their label in the requested locale (the locale parameter, then
// Accept-Language, then the configured default). Options come from a Source,
// usually the shared options.Cache, so repeated lookups do not reach the
// backend.
package picklists
