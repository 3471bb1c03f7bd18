// Package render holds the presentation helpers shared by the terminal and
// web front-ends: locale catalogs, the per-form Messages map, and rendering of
// error payloads returned by the books endpoint.
package render
