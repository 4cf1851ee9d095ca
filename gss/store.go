package gss

import (
	"maps"
	"slices"
)

// Param is a single function parameter. Default is nil when parameter has no
// default value.
type Param struct {
	Name    string  `json:"name"`
	Default *string `json:"default"`
}

// Function is a parameterized group of properties declared with
// "@var name(params)". Props values keep "$param" placeholders.
type Function struct {
	Params []Param `json:"params"`
	Props  []Prop  `json:"props"`
}

// Container maps container pattern to the at-rule template it produces.
type Container struct {
	Pattern  string `json:"pattern"`
	Template string `json:"template"`

	compiled *Pattern
}

// Store holds directive tables for a compilation run. It is mutated only by
// directive blocks and consulted during block construction, so directives
// have to be seen before blocks which use them.
type Store struct {
	Shorts     map[string]string    `json:"shorts"`
	Colors     map[string]string    `json:"colors"`
	Variables  map[string]string    `json:"variables"`
	Functions  map[string]*Function `json:"functions"`
	Pseudo     map[string]string    `json:"pseudo"`
	Containers []Container          `json:"containers"`
}

// NewStore returns empty store ready to use.
func NewStore() *Store {
	s := &Store{}
	s.init()
	return s
}

// init makes sure all tables are allocated, store may come from JSON with
// some of them missing.
func (s *Store) init() {
	if s.Shorts == nil {
		s.Shorts = make(map[string]string)
	}
	if s.Colors == nil {
		s.Colors = make(map[string]string)
	}
	if s.Variables == nil {
		s.Variables = make(map[string]string)
	}
	if s.Functions == nil {
		s.Functions = make(map[string]*Function)
	}
	if s.Pseudo == nil {
		s.Pseudo = make(map[string]string)
	}
}

// Clone returns deep copy of the store.
func (s *Store) Clone() *Store {
	c := &Store{
		Shorts:     maps.Clone(s.Shorts),
		Colors:     maps.Clone(s.Colors),
		Variables:  maps.Clone(s.Variables),
		Pseudo:     maps.Clone(s.Pseudo),
		Containers: slices.Clone(s.Containers),
		Functions:  make(map[string]*Function, len(s.Functions)),
	}
	for name, fn := range s.Functions {
		params := make([]Param, len(fn.Params))
		for i, p := range fn.Params {
			params[i] = Param{Name: p.Name}
			if p.Default != nil {
				def := *p.Default
				params[i].Default = &def
			}
		}
		c.Functions[name] = &Function{Params: params, Props: slices.Clone(fn.Props)}
	}
	c.init()
	return c
}

// Reset drops all directive tables.
func (s *Store) Reset() {
	*s = Store{}
	s.init()
}

// SetContainer registers container pattern. Patterns keep declaration order,
// re-declared pattern replaces its template in place.
func (s *Store) SetContainer(pattern, template string) {
	for i := range s.Containers {
		if s.Containers[i].Pattern == pattern {
			s.Containers[i].Template = template
			return
		}
	}
	s.Containers = append(s.Containers, Container{Pattern: pattern, Template: template})
}

// MatchContainer tries container patterns in declaration order and returns
// expanded at-rule for the first one matching input.
func (s *Store) MatchContainer(input string) (string, bool) {
	for i := range s.Containers {
		c := &s.Containers[i]
		if c.compiled == nil || c.compiled.Source() != c.Pattern {
			c.compiled = ParsePattern(c.Pattern)
		}
		if captures, ok := c.compiled.Match(input); ok {
			return ParsePattern(c.Template).Expand(captures), true
		}
	}
	return "", false
}
