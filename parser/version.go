package parser

import (
	"fmt"
	"sort"
	"sync"

	"github.com/liijunwei/rubocop-ast/reporter"
)

// Version selects a backend for one Ruby dialect release.
type Version float64

// The supported dialect releases. These form a closed set: asking for
// anything else is a caller configuration error, not a syntax problem.
const (
	Ruby27 Version = 2.7
	Ruby30 Version = 3.0
	Ruby31 Version = 3.1
	Ruby32 Version = 3.2
	Ruby33 Version = 3.3
	Ruby34 Version = 3.4
)

func (v Version) String() string {
	return fmt.Sprintf("%.1f", float64(v))
}

// Options configures backend construction.
type Options struct {
	// AllDiagnosticsFatal escalates every diagnostic, warnings included, to
	// fatal severity so that the first one aborts the parse. It exists as a
	// guard against non-terminating parses of adversarial input on host
	// environments known to be at risk; callers opt in, it is never implied.
	AllDiagnosticsFatal bool
}

// Factory builds a parser backend wired to the given diagnostic handler.
type Factory func(h *reporter.Handler, opts Options) *Parser

// UnknownVersionError is returned when a requested dialect version is not in
// the supported set.
type UnknownVersionError struct {
	Version Version
}

func (e *UnknownVersionError) Error() string {
	return fmt.Sprintf("unknown Ruby version %s; known versions: %s", e.Version, knownVersionsList())
}

var (
	registryMu sync.RWMutex
	registry   = map[Version]Factory{}
)

func init() {
	for _, v := range []Version{Ruby27, Ruby30, Ruby31, Ruby32, Ruby33, Ruby34} {
		version := v
		Register(version, func(h *reporter.Handler, opts Options) *Parser {
			return newParser(version, h, opts)
		})
	}
}

// Register adds (or replaces) the factory for a dialect version. Supporting
// a new release is a registration, not a branch edit somewhere else.
func Register(v Version, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[v] = f
}

// Lookup returns the backend factory for the given version, or an
// UnknownVersionError if the version is not registered.
func Lookup(v Version) (Factory, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[v]
	if !ok {
		return nil, &UnknownVersionError{Version: v}
	}
	return f, nil
}

// KnownVersions returns the registered versions in ascending order.
func KnownVersions() []Version {
	registryMu.RLock()
	defer registryMu.RUnlock()
	vs := make([]Version, 0, len(registry))
	for v := range registry {
		vs = append(vs, v)
	}
	sort.Slice(vs, func(i, j int) bool { return vs[i] < vs[j] })
	return vs
}

func knownVersionsList() string {
	vs := KnownVersions()
	s := ""
	for i, v := range vs {
		if i > 0 {
			s += ", "
		}
		s += v.String()
	}
	return s
}
