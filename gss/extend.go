package gss

import "slices"

// MergeExtends copies properties of extended top-level blocks in front of
// the extending block own properties, so own declarations keep winning.
// Chains are followed, cycles are reported and broken.
func (c *Compiler) MergeExtends(blocks []*Block) {
	index := make(map[string]*Block, len(blocks))
	for _, b := range blocks {
		if _, exists := index[b.Selector]; !exists {
			index[b.Selector] = b
		}
	}
	m := &extendMerger{c: c, index: index, state: make(map[*Block]int)}
	for _, b := range blocks {
		m.walk(b)
	}
}

const (
	mergeVisiting = iota + 1
	mergeDone
)

type extendMerger struct {
	c     *Compiler
	index map[string]*Block
	state map[*Block]int
}

func (m *extendMerger) walk(b *Block) {
	m.merge(b)
	for _, ch := range b.Children {
		m.walk(ch)
	}
}

func (m *extendMerger) merge(b *Block) {
	switch m.state[b] {
	case mergeDone:
		return
	case mergeVisiting:
		m.c.warnf(b.Line, "extend cycle through %q", b.Selector)
		return
	}
	m.state[b] = mergeVisiting

	var inherited []Prop
	for _, name := range b.Extra.Extend {
		src, ok := m.index[name]
		if !ok {
			m.c.warnf(b.Line, "%q extends unknown selector %q", b.Selector, name)
			continue
		}
		if src == b {
			continue
		}
		m.merge(src)
		inherited = append(inherited, src.Props...)
	}
	if len(inherited) > 0 {
		b.Props = append(slices.Clip(inherited), b.Props...)
	}
	m.state[b] = mergeDone
}
