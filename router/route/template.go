// Copyright 2025 The Rivaas Authors
//
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

package route

import (
	"errors"
	"fmt"
	"regexp"
	"regexp/syntax"
	"strings"
)

// DefaultParamPattern is the expression used for a placeholder without an
// explicit regex. It never spans a path separator.
const DefaultParamPattern = `[^/]+`

var (
	// ErrInvalidTemplate indicates that a URI template could not be parsed.
	ErrInvalidTemplate = errors.New("invalid uri template")

	// ErrMissingValue indicates that a placeholder had no value during expansion.
	ErrMissingValue = errors.New("missing value for placeholder")
)

// Parameter describes one placeholder of a URI template.
type Parameter struct {
	Name    string // Placeholder name, e.g. "id"
	Index   int    // Byte offset of Token within the raw template
	Token   string // Raw placeholder text, e.g. "{id: [0-9]+}"
	Pattern string // User supplied regex, empty for the default
}

// Template is a compiled URI template such as "/users/{id}" or
// "/assets/{path: .*}". A Template is immutable and safe for concurrent use.
type Template struct {
	raw    string
	params []Parameter
	groups []int // capture group index per parameter
	re     *regexp.Regexp
}

// Parse compiles a URI template.
//
// Literal runs are matched verbatim. Each {name} placeholder matches one or
// more characters other than '/', each {name: regex} placeholder matches regex.
//
// Braces inside a regex must be balanced, e.g. {code: [A-Z]{3}}, unless they
// are escaped or sit inside a character class:
//
//	/tags/{code: [A-Z]{3}}   // repetition, balanced
//	/raw/{c: [{}]}           // braces inside a class are literal
//	/raw/{c: \{}             // escaped
//
// The template is anchored as a whole, so a regex must not contain ^, $, \A
// or \z. Such templates are rejected with ErrInvalidTemplate.
func Parse(raw string) (*Template, error) {
	t := &Template{raw: raw}

	var pattern strings.Builder
	pattern.Grow(len(raw) + 16)
	pattern.WriteByte('^')

	seen := make(map[string]struct{})
	group := 1
	literalStart := 0

	for i := 0; i < len(raw); {
		if raw[i] != '{' {
			i++
			continue
		}

		end, err := closingBrace(raw, i)
		if err != nil {
			return nil, err
		}

		token := raw[i : end+1]
		name, expr := splitToken(token[1 : len(token)-1])
		if name == "" {
			return nil, fmt.Errorf("%w: empty placeholder name at offset %d in %q", ErrInvalidTemplate, i, raw)
		}
		if strings.ContainsAny(name, "/{} \t") {
			return nil, fmt.Errorf("%w: bad placeholder name %q in %q", ErrInvalidTemplate, name, raw)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: duplicate placeholder %q in %q", ErrInvalidTemplate, name, raw)
		}
		seen[name] = struct{}{}

		sub := DefaultParamPattern
		inner := 0
		if expr != "" {
			re, err := regexp.Compile(expr)
			if err != nil {
				return nil, fmt.Errorf("%w: placeholder %q: %w", ErrInvalidTemplate, name, err)
			}
			if hasAnchor(expr) {
				return nil, fmt.Errorf("%w: placeholder %q: anchors are not allowed in %q", ErrInvalidTemplate, name, expr)
			}
			sub = expr
			inner = re.NumSubexp()
		}

		pattern.WriteString(regexp.QuoteMeta(raw[literalStart:i]))
		pattern.WriteByte('(')
		pattern.WriteString(sub)
		pattern.WriteByte(')')

		t.params = append(t.params, Parameter{
			Name:    name,
			Index:   i,
			Token:   token,
			Pattern: expr,
		})
		t.groups = append(t.groups, group)
		group += 1 + inner

		i = end + 1
		literalStart = i
	}

	if len(t.params) == 0 {
		return t, nil
	}

	pattern.WriteString(regexp.QuoteMeta(raw[literalStart:]))
	pattern.WriteByte('$')

	re, err := regexp.Compile(pattern.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidTemplate, raw, err)
	}
	t.re = re

	return t, nil
}

// MustParse is like Parse but panics on error.
func MustParse(raw string) *Template {
	t, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return t
}

// closingBrace returns the index of the brace closing the one at open.
// Escaped braces and braces inside a character class do not count.
func closingBrace(raw string, open int) (int, error) {
	depth := 0
	inClass := false
	for i := open; i < len(raw); i++ {
		switch c := raw[i]; {
		case c == '\\':
			i++
		case inClass:
			if c == ']' {
				inClass = false
			}
		case c == '[':
			inClass = true
			// A ']' right after '[' or '[^' is a literal member.
			if i+1 < len(raw) && raw[i+1] == '^' {
				i++
			}
			if i+1 < len(raw) && raw[i+1] == ']' {
				i++
			}
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: unterminated placeholder at offset %d in %q", ErrInvalidTemplate, open, raw)
}

// hasAnchor reports whether expr contains a line or text anchor.
func hasAnchor(expr string) bool {
	re, err := syntax.Parse(expr, syntax.Perl)
	if err != nil {
		return false
	}

	var walk func(*syntax.Regexp) bool
	walk = func(n *syntax.Regexp) bool {
		switch n.Op {
		case syntax.OpBeginLine, syntax.OpEndLine, syntax.OpBeginText, syntax.OpEndText:
			return true
		}
		for _, sub := range n.Sub {
			if walk(sub) {
				return true
			}
		}
		return false
	}

	return walk(re)
}

// splitToken splits "name: regex" into its parts.
func splitToken(body string) (name, expr string) {
	name, expr, found := strings.Cut(body, ":")
	name = strings.TrimSpace(name)
	if !found {
		return name, ""
	}
	return name, strings.TrimSpace(expr)
}

// String returns the raw template.
func (t *Template) String() string {
	return t.raw
}

// Parameters returns the placeholders in left-to-right order.
// The returned slice must not be modified.
func (t *Template) Parameters() []Parameter {
	return t.params
}

// Lookup returns the placeholder called name.
func (t *Template) Lookup(name string) (Parameter, bool) {
	for _, p := range t.params {
		if p.Name == name {
			return p, true
		}
	}

	return Parameter{}, false
}

// IsStatic reports whether the template has no placeholders.
func (t *Template) IsStatic() bool {
	return t.re == nil
}

// Match reports whether path matches the template and returns the captured
// values in parameter order. Values are returned exactly as they appear in
// path; decoding is left to the caller.
func (t *Template) Match(path string) ([]string, bool) {
	if t.re == nil {
		return nil, path == t.raw
	}

	m := t.re.FindStringSubmatch(path)
	if m == nil {
		return nil, false
	}

	values := make([]string, len(t.params))
	for i, g := range t.groups {
		values[i] = m[g]
	}
	return values, true
}

// Expand substitutes values into the template. Each placeholder token is
// replaced at its recorded offset, so placeholder names that also occur in
// literal segments or in other names are handled correctly.
func (t *Template) Expand(values map[string]string) (string, error) {
	if len(t.params) == 0 {
		return t.raw, nil
	}

	var b strings.Builder
	b.Grow(len(t.raw) + 16)

	last := 0
	for _, p := range t.params {
		v, ok := values[p.Name]
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrMissingValue, p.Name)
		}
		b.WriteString(t.raw[last:p.Index])
		b.WriteString(v)
		last = p.Index + len(p.Token)
	}
	b.WriteString(t.raw[last:])

	return b.String(), nil
}
