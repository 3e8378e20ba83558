// Package source owns raw program text and the positional views derived
// from it: encoding normalization, a line-offset table, and a stable
// content checksum.
package source

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/liijunwei/rubocop-ast/ast"
)

// StringSourceName is the buffer name used for sources that did not come
// from a file.
const StringSourceName = "(string)"

var utf8Bom = []byte{0xEF, 0xBB, 0xBF}

// EncodingError indicates that the raw bytes are not a well-formed sequence
// in the buffer's encoding (UTF-8). The bytes are reinterpreted as UTF-8,
// never transcoded, so a buffer created from e.g. Latin-1 bytes with high
// characters fails this way.
type EncodingError struct {
	Name   string
	Offset int
	Byte   byte
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("%s: invalid byte sequence in UTF-8 at offset %d (0x%02x)", e.Name, e.Offset, e.Byte)
}

// Buffer is an immutable view over one piece of raw source text. It keeps
// the raw pre-normalization bytes (for checksumming) alongside the
// normalized text and its line-offset table.
type Buffer struct {
	name   string
	raw    []byte
	source string
	// Byte offset, into source, at which each line begins. The first line
	// always begins at offset 0.
	lines []int

	checksumOnce sync.Once
	checksum     string
}

// NewBuffer creates a buffer over the given raw bytes. The bytes are
// reinterpreted as UTF-8 (a leading byte order mark is dropped); if they are
// not valid UTF-8 the returned buffer still carries the name and raw bytes,
// alongside a non-nil *EncodingError.
func NewBuffer(name string, raw []byte) (*Buffer, error) {
	if name == "" {
		name = StringSourceName
	}
	b := &Buffer{name: name, raw: raw}

	text := bytes.TrimPrefix(raw, utf8Bom)
	if i := firstInvalidUTF8(text); i >= 0 {
		return b, &EncodingError{Name: name, Offset: i, Byte: text[i]}
	}
	b.source = string(text)
	b.lines = buildLineIndex(b.source)
	return b, nil
}

// FromString creates a buffer over in-memory source text, named with the
// StringSourceName sentinel.
func FromString(src string) (*Buffer, error) {
	return NewBuffer(StringSourceName, []byte(src))
}

func firstInvalidUTF8(data []byte) int {
	for i := 0; i < len(data); {
		r, sz := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && sz == 1 {
			return i
		}
		i += sz
	}
	return -1
}

func buildLineIndex(src string) []int {
	lines := []int{0}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			lines = append(lines, i+1)
		}
	}
	return lines
}

func (b *Buffer) Name() string { return b.name }

// Raw returns the raw pre-normalization bytes the buffer was built from.
func (b *Buffer) Raw() []byte { return b.raw }

// Source returns the normalized source text. Empty if the buffer failed
// encoding validation.
func (b *Buffer) Source() string { return b.source }

// Checksum returns the SHA-1 digest of the raw pre-normalization bytes,
// hex-encoded. It is stable for identical raw bytes regardless of parse
// outcome, which lets callers detect whether repeated rewrite passes are
// converging or looping.
func (b *Buffer) Checksum() string {
	b.checksumOnce.Do(func() {
		sum := sha1.Sum(b.raw)
		b.checksum = hex.EncodeToString(sum[:])
	})
	return b.checksum
}

// SourceLines splits the normalized text into physical lines with line
// terminators stripped (both LF and any preceding CR).
func (b *Buffer) SourceLines() []string {
	if b.source == "" {
		return nil
	}
	lines := strings.Split(b.source, "\n")
	if lines[len(lines)-1] == "" {
		// a trailing newline does not start a new physical line
		lines = lines[:len(lines)-1]
	}
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// LineCount returns the number of physical lines in the buffer.
func (b *Buffer) LineCount() int {
	return len(b.SourceLines())
}

// SourcePos resolves a byte offset into the normalized text to a position.
// Columns are 1-indexed and count characters; a tab is one character.
func (b *Buffer) SourcePos(offset int) ast.SourcePos {
	if b.lines == nil {
		return ast.UnknownPos(b.name)
	}
	if offset < 0 {
		offset = 0
	}
	if offset > len(b.source) {
		offset = len(b.source)
	}
	lineNumber := sort.Search(len(b.lines), func(n int) bool {
		return b.lines[n] > offset
	})
	col := utf8.RuneCountInString(b.source[b.lines[lineNumber-1]:offset])
	return ast.SourcePos{
		Filename: b.name,
		Offset:   offset,
		Line:     lineNumber,
		Col:      col + 1,
	}
}

// SpanRange resolves a half-open byte span into a source range.
func (b *Buffer) SpanRange(start, end int) ast.SourceRange {
	return ast.SourceRange{Start: b.SourcePos(start), End: b.SourcePos(end)}
}
