// Copyright 2025 Antenore Gatta
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ignore

import (
	"regexp"
	"strings"
)

// Pattern is one compiled line of an ignore file. Patterns are immutable once
// compiled and safe to share between filters.
type Pattern struct {
	Raw      string    // line as written, whitespace trimmed
	Negate   bool      // line started with !
	DirOnly  bool      // line ended with /
	Anchored bool      // matches relative to the ignore file's directory only
	Segments []Segment // body split on /, floating patterns get a leading **

	doubleStar bool
}

// Segment is one /-separated part of a pattern.
type Segment struct {
	Raw        string
	DoubleStar bool

	literal string
	re      *regexp.Regexp
}

func (s Segment) match(name string) bool {
	if s.DoubleStar {
		return true
	}
	if s.re != nil {
		return s.re.MatchString(name)
	}
	return s.literal == name
}

// Compile turns a single ignore-file line into a Pattern. It returns nil for
// blank lines, comments and lines with no pattern body left once the !, / and
// trailing / markers are removed. Compile never fails: glob fragments that
// cannot be compiled match literally.
//
// Escapes: a leading \! or \# is a literal ! or #. A lone ! and a line
// starting with !! are literal patterns, not negations.
func Compile(line string) *Pattern {
	line = strings.TrimLeft(trimTrailingSpace(line), " \t")
	if line == "" || line[0] == '#' {
		return nil
	}

	p := &Pattern{Raw: line}
	body := line

	switch {
	case body == "!" || strings.HasPrefix(body, "!!"):
	case strings.HasPrefix(body, `\!`), strings.HasPrefix(body, `\#`):
		body = body[1:]
	case body[0] == '!':
		p.Negate = true
		body = body[1:]
		if strings.HasPrefix(body, `\!`) || strings.HasPrefix(body, `\#`) {
			body = body[1:]
		}
	}

	if strings.HasSuffix(body, "/") {
		p.DirOnly = true
		body = strings.TrimRight(body, "/")
	}
	if strings.HasPrefix(body, "/") {
		p.Anchored = true
		body = strings.TrimLeft(body, "/")
	}
	if body == "" {
		return nil
	}
	// A slash in the middle anchors the pattern as well.
	if strings.Contains(body, "/") {
		p.Anchored = true
	}

	p.Segments = compileSegments(body, p.Anchored)
	for _, seg := range p.Segments {
		if seg.DoubleStar {
			p.doubleStar = true
			break
		}
	}
	return p
}

// MustCompile is like Compile but panics when line yields no pattern.
func MustCompile(line string) *Pattern {
	p := Compile(line)
	if p == nil {
		panic("ignore: line " + line + " is not a pattern")
	}
	return p
}

// String returns the pattern as written in its ignore file.
func (p *Pattern) String() string {
	return p.Raw
}

// Match reports whether the pattern applies to the path given as segments.
// A pattern applies when it matches the whole path or any of its parent
// directories. isDir marks the last segment as a directory.
func (p *Pattern) Match(segs []string, isDir bool) bool {
	return p.level(segs, isDir) > 0
}

// level returns the length of the longest prefix of segs the pattern matches,
// len(segs) meaning the whole path, or 0 when it matches none. Proper
// prefixes are always directories.
func (p *Pattern) level(segs []string, isDir bool) int {
	if !p.doubleStar {
		n := len(p.Segments)
		if n == 0 || n > len(segs) {
			return 0
		}
		if p.DirOnly && n == len(segs) && !isDir {
			return 0
		}
		if matchSegments(p.Segments, segs[:n]) {
			return n
		}
		return 0
	}

	for k := len(segs); k >= 1; k-- {
		if p.DirOnly && k == len(segs) && !isDir {
			continue
		}
		if matchSegments(p.Segments, segs[:k]) {
			return k
		}
	}
	return 0
}

// matchSegments matches pattern segments against path segments exactly.
// ** matches zero or more segments, or one or more when it ends the pattern.
func matchSegments(pat []Segment, path []string) bool {
	for len(pat) > 0 {
		seg := pat[0]
		if seg.DoubleStar {
			rest := pat[1:]
			if len(rest) == 0 {
				return len(path) > 0
			}
			for i := 0; i <= len(path); i++ {
				if matchSegments(rest, path[i:]) {
					return true
				}
			}
			return false
		}
		if len(path) == 0 || !seg.match(path[0]) {
			return false
		}
		pat, path = pat[1:], path[1:]
	}
	return len(path) == 0
}

func compileSegments(body string, anchored bool) []Segment {
	parts := strings.Split(body, "/")
	segs := make([]Segment, 0, len(parts)+1)
	if !anchored {
		segs = append(segs, Segment{Raw: "**", DoubleStar: true})
	}
	for _, part := range parts {
		if part == "" {
			continue
		}
		seg := compileSegment(part)
		if seg.DoubleStar && len(segs) > 0 && segs[len(segs)-1].DoubleStar {
			continue
		}
		segs = append(segs, seg)
	}
	return segs
}

func compileSegment(raw string) Segment {
	if raw == "**" {
		return Segment{Raw: raw, DoubleStar: true}
	}
	if !strings.ContainsAny(raw, `*?[\`) {
		return Segment{Raw: raw, literal: raw}
	}
	if re, err := regexp.Compile(globToRegexp(raw)); err == nil {
		return Segment{Raw: raw, re: re}
	}
	return Segment{Raw: raw, literal: unescape(raw)}
}

// globToRegexp converts one segment glob into an anchored regular expression.
// An unterminated class is emitted as a literal [.
func globToRegexp(glob string) string {
	var b strings.Builder
	b.WriteByte('^')

	for i := 0; i < len(glob); i++ {
		c := glob[i]
		switch c {
		case '*':
			for i+1 < len(glob) && glob[i+1] == '*' {
				i++
			}
			b.WriteString(`[^/]*`)
		case '?':
			b.WriteString(`[^/]`)
		case '\\':
			if i+1 < len(glob) {
				i++
				b.WriteString(regexp.QuoteMeta(glob[i : i+1]))
			} else {
				b.WriteString(`\\`)
			}
		case '[':
			end := classEnd(glob, i)
			if end < 0 {
				b.WriteString(`\[`)
				continue
			}
			writeClass(&b, glob[i+1:end])
			i = end
		default:
			b.WriteString(regexp.QuoteMeta(glob[i : i+1]))
		}
	}

	b.WriteByte('$')
	return b.String()
}

// classEnd returns the index of the ] closing the class opened at start, or -1.
func classEnd(glob string, start int) int {
	i := start + 1
	if i < len(glob) && (glob[i] == '!' || glob[i] == '^') {
		i++
	}
	if i < len(glob) && glob[i] == ']' {
		i++
	}
	for ; i < len(glob); i++ {
		switch glob[i] {
		case '\\':
			i++
		case '[':
			if i+1 < len(glob) && glob[i+1] == ':' {
				if j := strings.Index(glob[i+2:], ":]"); j >= 0 {
					i += j + 3
				}
			}
		case ']':
			return i
		}
	}
	return -1
}

func writeClass(b *strings.Builder, class string) {
	b.WriteByte('[')
	i := 0
	if i < len(class) && (class[i] == '!' || class[i] == '^') {
		b.WriteByte('^')
		i++
	}
	if i < len(class) && class[i] == ']' {
		b.WriteString(`\]`)
		i++
	}
	for ; i < len(class); i++ {
		c := class[i]
		if c == '\\' && i+1 < len(class) {
			i++
			c = class[i]
			if !isAlnum(c) {
				b.WriteByte('\\')
			}
		} else if c == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	b.WriteByte(']')
}

func isAlnum(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// trimTrailingSpace drops trailing blanks unless the last one is escaped.
func trimTrailingSpace(s string) string {
	end := len(s)
	for end > 0 && (s[end-1] == ' ' || s[end-1] == '\t' || s[end-1] == '\r') {
		end--
	}
	if end < len(s) && s[end] == ' ' && oddBackslashes(s[:end]) {
		end++
	}
	return s[:end]
}

func oddBackslashes(s string) bool {
	n := 0
	for i := len(s) - 1; i >= 0 && s[i] == '\\'; i-- {
		n++
	}
	return n%2 == 1
}
