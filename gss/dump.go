package gss

import (
	"maps"
	"slices"
	"sort"

	"github.com/maruel/natural"

	"gssc/utils/debug"
)

// Dump renders block forest as indented tree for debugging.
func Dump(blocks []*Block) string {
	tw := debug.NewTreeWriter()
	for _, b := range blocks {
		dumpBlock(tw, b, 0)
	}
	return tw.String()
}

func dumpBlock(tw *debug.TreeWriter, b *Block, depth int) {
	if b.Line > 0 {
		tw.Line(depth, "block %q (%s) line %d", b.Selector, b.Kind(), b.Line)
	} else {
		tw.Line(depth, "block %q (%s) synthesized", b.Selector, b.Kind())
	}
	for _, p := range b.Props {
		tw.Field(depth+1, p.Name, p.Value)
	}
	tw.List(depth+1, "extend", b.Extra.Extend)
	for _, ch := range b.Children {
		dumpBlock(tw, ch, depth+1)
	}
}

// DumpStore renders directive tables with keys in natural order.
func DumpStore(s *Store) string {
	tw := debug.NewTreeWriter()
	table := func(name string, m map[string]string) {
		tw.Line(0, "%s (%d)", name, len(m))
		for _, k := range sortedKeys(m) {
			tw.Field(1, k, m[k])
		}
	}
	table("shorts", s.Shorts)
	table("colors", s.Colors)
	table("variables", s.Variables)
	table("pseudo", s.Pseudo)

	tw.Line(0, "functions (%d)", len(s.Functions))
	for _, name := range sortedKeys(s.Functions) {
		fn := s.Functions[name]
		tw.Line(1, "%s", name)
		for _, p := range fn.Params {
			if p.Default != nil {
				tw.Field(2, "param "+p.Name, *p.Default)
			} else {
				tw.Line(2, "param %s", p.Name)
			}
		}
		for _, p := range fn.Props {
			tw.Field(2, p.Name, p.Value)
		}
	}

	tw.Line(0, "containers (%d)", len(s.Containers))
	for _, c := range s.Containers {
		tw.Field(1, c.Pattern, c.Template)
	}
	return tw.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := slices.Collect(maps.Keys(m))
	sort.Sort(natural.StringSlice(keys))
	return keys
}
