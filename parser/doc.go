// Package parser is the dialect-aware engine that turns a source buffer
// into a syntax tree, a token stream, and a comment stream.
//
// The engine is versioned: a registry maps each supported Ruby dialect
// version to a backend factory, and constructing a parser for an unknown
// version is a configuration error. Every diagnostic the engine produces is
// routed through a reporter.Handler rather than returned or panicked, so a
// failed parse still yields whatever partial tokens and comments were
// recognized.
package parser
