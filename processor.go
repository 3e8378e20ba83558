package rubocopast

import (
	"context"
	"errors"
	"io"
	"runtime"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/liijunwei/rubocop-ast/parser"
	"github.com/liijunwei/rubocop-ast/reporter"
)

// Processor turns many Ruby source files into ProcessedSource instances
// with bounded parallelism. Each file is independent; a file's syntax
// problems never fail the run, only configuration and I/O errors do.
type Processor struct {
	// Resolves path names into raw source. Required.
	Resolver Resolver
	// The dialect version every file is parsed with. Required; an
	// unregistered version fails the whole run.
	RubyVersion parser.Version
	// The maximum parallelism to use. If unspecified or non-positive,
	// min(runtime.NumCPU(), runtime.GOMAXPROCS(-1)) is used.
	MaxParallelism int
	// Backend options applied to every parse.
	ParserOptions parser.Options
	// A custom diagnostic reporter shared by all parses. The default
	// accumulates per file and never aborts.
	Reporter reporter.Reporter
}

// Process parses the given files. Results are in the order of the
// arguments; duplicate paths are processed once.
func (p *Processor) Process(ctx context.Context, files ...string) ([]*ProcessedSource, error) {
	if len(files) == 0 {
		return nil, nil
	}

	// fail on a bad version before spawning anything
	if _, err := parser.Lookup(p.RubyVersion); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	par := p.MaxParallelism
	if par <= 0 {
		par = runtime.GOMAXPROCS(-1)
		if cpus := runtime.NumCPU(); par > cpus {
			par = cpus
		}
	}

	e := &executor{
		p:       p,
		s:       semaphore.NewWeighted(int64(par)),
		results: map[string]*result{},
	}

	results := make([]*result, len(files))
	for i, f := range files {
		results[i] = e.process(ctx, f)
	}

	sources := make([]*ProcessedSource, len(files))
	for i, r := range results {
		select {
		case <-r.ready:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if r.err != nil {
			return nil, r.err
		}
		sources[i] = r.res
	}
	return sources, nil
}

type result struct {
	ready chan struct{}
	res   *ProcessedSource
	err   error
}

func (r *result) fail(err error) {
	r.err = err
	close(r.ready)
}

func (r *result) complete(ps *ProcessedSource) {
	r.res = ps
	close(r.ready)
}

type executor struct {
	p *Processor
	s *semaphore.Weighted

	mu      sync.Mutex
	results map[string]*result
}

func (e *executor) process(ctx context.Context, file string) *result {
	e.mu.Lock()
	defer e.mu.Unlock()
	if r := e.results[file]; r != nil {
		return r
	}

	r := &result{ready: make(chan struct{})}
	e.results[file] = r
	go e.doProcess(ctx, file, r)
	return r
}

func (e *executor) doProcess(ctx context.Context, file string, r *result) {
	if err := e.s.Acquire(ctx, 1); err != nil {
		r.fail(err)
		return
	}
	defer e.s.Release(1)

	sr, err := e.p.Resolver.FindSourceByPath(file)
	if err != nil {
		r.fail(err)
		return
	}

	raw, err := rawBytes(sr)
	if err != nil {
		r.fail(err)
		return
	}

	opts := []Option{WithParserOptions(e.p.ParserOptions)}
	if e.p.Reporter != nil {
		opts = append(opts, WithReporter(e.p.Reporter))
	}
	ps, err := NewProcessedSource(raw, e.p.RubyVersion, file, opts...)
	if err != nil {
		r.fail(err)
		return
	}
	r.complete(ps)
}

func rawBytes(sr SearchResult) ([]byte, error) {
	if sr.Buffer != nil {
		return sr.Buffer.Raw(), nil
	}
	if sr.Source == nil {
		return nil, errors.New("resolver returned an empty search result")
	}
	defer func() {
		if c, ok := sr.Source.(io.Closer); ok {
			_ = c.Close()
		}
	}()
	return io.ReadAll(sr.Source)
}
