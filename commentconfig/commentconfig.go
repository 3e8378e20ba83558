// Package commentconfig interprets inline directive comments, such as
//
//	# rubocop:disable Style/StringLiterals, Metrics/AbcSize
//	# rubocop:enable Style/StringLiterals
//	# rubocop:todo Metrics/AbcSize
//
// into per-cop disabled line ranges. It consumes only the comment stream
// and the line array of a processed source; it never looks at the tree.
package commentconfig

import (
	"math"
	"regexp"
	"strings"

	"github.com/liijunwei/rubocop-ast/ast"
	"github.com/liijunwei/rubocop-ast/internal/interval"
)

// AllCops is the directive target that applies to every cop.
const AllCops = "all"

// EndOfFile marks the open end of a disable range that was never re-enabled.
const EndOfFile = math.MaxInt

// LineRange is an inclusive range of 1-based line numbers. End is EndOfFile
// for a disable that stays in effect to the end of the source.
type LineRange struct {
	Start, End int
}

var directiveRe = regexp.MustCompile(`\A#\s*rubocop\s*:\s*((?:disable|enable|todo))\s+(.+?)\s*\z`)

// Config holds the interpreted directives of one processed source.
type Config struct {
	ranges map[string]*interval.Map[int, struct{}]
}

// New interprets the given comments against the given line array. Comments
// must be in source order, as the processed source supplies them.
func New(comments []ast.Comment, lines []string) *Config {
	c := &Config{ranges: map[string]*interval.Map[int, struct{}]{}}

	// cop -> line its currently-open disable started on
	open := map[string]int{}

	for _, comment := range comments {
		action, cops, ok := parseDirective(comment.Text)
		if !ok {
			continue
		}
		line := comment.Line()
		single := !commentOnlyLine(lines, line)

		for _, cop := range cops {
			switch action {
			case "disable", "todo":
				if single {
					c.addRange(cop, line, line)
					continue
				}
				if _, already := open[cop]; !already {
					open[cop] = line
				}
			case "enable":
				if start, ok := open[cop]; ok {
					c.addRange(cop, start, line)
					delete(open, cop)
				}
			}
		}
	}

	for cop, start := range open {
		c.addRange(cop, start, EndOfFile)
	}
	return c
}

func (c *Config) addRange(cop string, start, end int) {
	m := c.ranges[cop]
	if m == nil {
		m = &interval.Map[int, struct{}]{}
		c.ranges[cop] = m
	}
	// redundant directives produce overlapping ranges (e.g. a single-line
	// disable inside an open block); merge instead of dropping coverage
	for {
		overlap := m.Insert(start, end, struct{}{})
		if overlap.Value == nil {
			return
		}
		if overlap.Start < start {
			start = overlap.Start
		}
		if overlap.End > end {
			end = overlap.End
		}
		m.Delete(overlap.End)
	}
}

// CopEnabledAtLine reports whether the named cop is enabled at the given
// line, honoring both cop-specific directives and "all".
func (c *Config) CopEnabledAtLine(cop string, line int) bool {
	for _, key := range []string{cop, AllCops} {
		if m := c.ranges[key]; m != nil && m.Get(line).Value != nil {
			return false
		}
	}
	return true
}

// DisabledLineRanges returns every disabled range, keyed by cop name, in
// ascending line order.
func (c *Config) DisabledLineRanges() map[string][]LineRange {
	out := make(map[string][]LineRange, len(c.ranges))
	for cop, m := range c.ranges {
		var rs []LineRange
		m.Each(func(iv interval.Interval[int, struct{}]) bool {
			rs = append(rs, LineRange{Start: iv.Start, End: iv.End})
			return true
		})
		out[cop] = rs
	}
	return out
}

// parseDirective extracts the action and cop list from a directive comment.
// Non-directive comments return ok == false.
func parseDirective(text string) (action string, cops []string, ok bool) {
	m := directiveRe.FindStringSubmatch(text)
	if m == nil {
		return "", nil, false
	}
	for _, cop := range strings.Split(m[2], ",") {
		cop = strings.TrimSpace(cop)
		if cop != "" {
			cops = append(cops, cop)
		}
	}
	if len(cops) == 0 {
		return "", nil, false
	}
	return m[1], cops, true
}

// commentOnlyLine reports whether the given 1-based line holds nothing but
// the comment: a directive sharing its line with code disables that line
// only, while a directive alone on a line opens a range.
func commentOnlyLine(lines []string, line int) bool {
	if line < 1 || line > len(lines) {
		return false
	}
	return strings.HasPrefix(strings.TrimLeft(lines[line-1], " \t"), "#")
}
