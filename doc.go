// Package rubocopast turns Ruby source text into a processed source unit: a
// syntax tree, a token stream, a comment stream, and the diagnostics
// produced along the way, together with stable derived views over the raw
// text (line array, comment-to-line index, content checksum, syntax
// validity).
//
// Parsing itself is delegated to the versioned backend in the parser
// subpackage; this package orchestrates backend selection, captures partial
// results when a parse fails, and memoizes the derived views. A
// ProcessedSource is built once per (source, version) pair and is immutable
// afterwards; reprocessing means constructing a new one.
//
// The processing of many files at once, with bounded parallelism, is
// handled by Processor.
package rubocopast
