package gss

import "strings"

type segment struct {
	text        string
	placeholder bool
}

// Pattern is a template with "{name}" placeholders, parsed once into a list
// of literal and placeholder segments.
type Pattern struct {
	src      string
	segments []segment
}

// ParsePattern splits template into segments. Unbalanced braces and empty
// "{}" are treated as literal text.
func ParsePattern(src string) *Pattern {
	p := &Pattern{src: src}
	var lit strings.Builder
	for rest := src; len(rest) > 0; {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			lit.WriteString(rest)
			break
		}
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			lit.WriteString(rest)
			break
		}
		name := rest[open+1 : open+end]
		if !isIdentifier(name) {
			lit.WriteString(rest[:open+end+1])
			rest = rest[open+end+1:]
			continue
		}
		lit.WriteString(rest[:open])
		if lit.Len() > 0 {
			p.segments = append(p.segments, segment{text: lit.String()})
			lit.Reset()
		}
		p.segments = append(p.segments, segment{text: name, placeholder: true})
		rest = rest[open+end+1:]
	}
	if lit.Len() > 0 {
		p.segments = append(p.segments, segment{text: lit.String()})
	}
	return p
}

// Source returns template text the pattern was parsed from.
func (p *Pattern) Source() string {
	return p.src
}

// Placeholders returns placeholder names in order of appearance.
func (p *Pattern) Placeholders() []string {
	var names []string
	for _, s := range p.segments {
		if s.placeholder {
			names = append(names, s.text)
		}
	}
	return names
}

// Match matches the whole input against pattern. Every placeholder captures
// non-empty run of characters other than '/'. When the same placeholder
// appears twice the last capture wins.
func (p *Pattern) Match(input string) (map[string]string, bool) {
	captures := make(map[string]string)
	if !p.match(p.segments, input, captures) {
		return nil, false
	}
	return captures, true
}

func (p *Pattern) match(segs []segment, input string, captures map[string]string) bool {
	if len(segs) == 0 {
		return input == ""
	}
	s := segs[0]
	if !s.placeholder {
		rest, ok := strings.CutPrefix(input, s.text)
		return ok && p.match(segs[1:], rest, captures)
	}
	limit := strings.IndexByte(input, '/')
	if limit < 0 {
		limit = len(input)
	}
	// greedy: longest capture first
	for n := limit; n >= 1; n-- {
		if p.match(segs[1:], input[n:], captures) {
			captures[s.text] = input[:n]
			return true
		}
	}
	return false
}

// Expand substitutes placeholders with captured values. Placeholders without
// capture are kept as is.
func (p *Pattern) Expand(captures map[string]string) string {
	var b strings.Builder
	for _, s := range p.segments {
		if !s.placeholder {
			b.WriteString(s.text)
			continue
		}
		if v, ok := captures[s.text]; ok {
			b.WriteString(v)
			continue
		}
		b.WriteString("{" + s.text + "}")
	}
	return b.String()
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !(r == '_' || r == '-' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}
