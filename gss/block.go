// Package gss implements compiler of the indentation based style sheet
// dialect (GSS) into regular CSS.
package gss

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Prop is a single resolved property declaration.
type Prop struct {
	Name  string
	Value string
}

// MarshalJSON encodes property as a two element array to keep JSON output
// compact.
func (p Prop) MarshalJSON() ([]byte, error) {
	return marshal([2]string{p.Name, p.Value})
}

// UnmarshalJSON accepts the two element array form produced by MarshalJSON.
func (p *Prop) UnmarshalJSON(data []byte) error {
	var pair []string
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("property must have exactly 2 elements, got %d", len(pair))
	}
	p.Name, p.Value = pair[0], pair[1]
	return nil
}

// Extra keeps block information which is recorded but not rendered by the
// generator directly.
type Extra struct {
	Extend []string `json:"extend"`
}

// Block is a node of the parsed tree: one selector, its properties and
// nested blocks.
type Block struct {
	Selector string   `json:"selector"`
	Props    []Prop   `json:"props"`
	Children []*Block `json:"children"`
	Extra    Extra    `json:"extra"`
	// Line is 1-based source line of the selector, 0 for synthesized blocks.
	Line int `json:"-"`

	// wrapper synthesized around "&" children, they are joined with the
	// selector enclosing wrapper instead of starting new scope
	keepScope bool
}

// MarshalJSON always emits arrays, never nulls, so forest shape does not
// depend on how block was built.
func (b *Block) MarshalJSON() ([]byte, error) {
	type plain Block
	out := plain(*b)
	if out.Props == nil {
		out.Props = []Prop{}
	}
	if out.Children == nil {
		out.Children = []*Block{}
	}
	if out.Extra.Extend == nil {
		out.Extra.Extend = []string{}
	}
	return marshal(out)
}

// marshal is json.Marshal without HTML escaping, selectors use '&' and '>'
// a lot.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// AddProps appends properties preserving order.
func (b *Block) AddProps(props ...Prop) {
	b.Props = append(b.Props, props...)
}

// AddChildren appends nested blocks preserving order.
func (b *Block) AddChildren(children ...*Block) {
	b.Children = append(b.Children, children...)
}

// AddExtend merges names into the extend set. Order of first appearance is
// preserved, duplicates and empty names are ignored.
func (b *Block) AddExtend(names ...string) {
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || slices.Contains(b.Extra.Extend, name) {
			continue
		}
		b.Extra.Extend = append(b.Extra.Extend, name)
	}
}

// Kind returns classification of the block selector.
func (b *Block) Kind() Kind {
	return KindOf(b.Selector)
}

// Kind classifies selectors: ordinary rules, at-rules and the directives.
type Kind int

const (
	KindRule Kind = iota
	KindAtRule
	KindDef
	KindCol
	KindVar
	KindFunc
	KindUse
	KindContainer
)

// String returns human readable kind name.
func (k Kind) String() string {
	switch k {
	case KindRule:
		return "rule"
	case KindAtRule:
		return "at-rule"
	case KindDef:
		return "@def"
	case KindCol:
		return "@col"
	case KindVar:
		return "@var"
	case KindFunc:
		return "@var()"
	case KindUse:
		return "@use"
	case KindContainer:
		return "@container"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// IsDirective reports whether blocks of this kind mutate the directive store
// instead of producing CSS.
func (k Kind) IsDirective() bool {
	return k >= KindDef
}

// KindOf classifies selector text. Directives are recognized exactly, except
// function declaration which is "@var" followed by a name.
func KindOf(selector string) Kind {
	switch selector {
	case "@def":
		return KindDef
	case "@col":
		return KindCol
	case "@var":
		return KindVar
	case "@use":
		return KindUse
	case "@container":
		return KindContainer
	}
	if rest, ok := strings.CutPrefix(selector, "@var "); ok && strings.TrimSpace(rest) != "" {
		return KindFunc
	}
	if strings.HasPrefix(selector, "@") {
		return KindAtRule
	}
	return KindRule
}
