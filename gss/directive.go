package gss

import (
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

var (
	reFuncHeader = regexp.MustCompile(`^@var\s+([\w-]+)\s*\((.*)\)\s*$`)
	reParamName  = regexp.MustCompile(`^[A-Za-z_]\w*$`)
	reDefRef     = regexp.MustCompile(`@(\w+)`)
)

// fold applies directive block to the store.
func (c *Compiler) fold(b *Block) {
	switch b.Kind() {
	case KindDef:
		for _, p := range b.Props {
			c.store.Shorts[p.Name] = p.Value
		}
		c.flattenShorts(b.Line)
	case KindCol:
		for _, p := range b.Props {
			rgb, err := HexToRGB(p.Value)
			if err != nil {
				c.warnf(b.Line, "color %q: %v", p.Name, err)
				continue
			}
			c.store.Colors[p.Name] = rgb
		}
	case KindVar:
		// in order, so value may refer to variable declared above it
		for _, p := range b.Props {
			c.store.Variables[p.Name] = c.resolveValue(p.Value, b.Line)
		}
	case KindFunc:
		name, params, err := parseFuncHeader(b.Selector)
		if err != nil {
			c.warnf(b.Line, "skipping function declaration: %v", err)
			return
		}
		c.store.Functions[name] = &Function{Params: params, Props: slices.Clone(b.Props)}
	case KindUse:
		for _, p := range b.Props {
			c.store.Pseudo[p.Name] = p.Value
		}
	case KindContainer:
		for _, p := range b.Props {
			c.store.SetContainer(p.Name, p.Value)
		}
	default:
		return
	}
	if len(b.Children) > 0 {
		c.warnf(b.Line, "nested blocks of %s directive are ignored", b.Kind())
	}
}

// flattenShorts expands "@ref" inside shorthand values until no reference is
// reachable. Number of passes is bounded by the table size, whatever still
// has references after that is either unknown or cyclic.
func (c *Compiler) flattenShorts(num int) {
	keys := slices.Sorted(maps.Keys(c.store.Shorts))
	for range len(keys) + 1 {
		changed := false
		for _, key := range keys {
			val := c.store.Shorts[key]
			if !strings.Contains(val, "@") {
				continue
			}
			nv := reDefRef.ReplaceAllStringFunc(val, func(ref string) string {
				if v, ok := c.store.Shorts[ref[1:]]; ok && ref[1:] != key {
					return v
				}
				return ref
			})
			if nv != val {
				c.store.Shorts[key], changed = nv, true
			}
		}
		if !changed {
			break
		}
	}
	for _, key := range keys {
		if val := c.store.Shorts[key]; reDefRef.MatchString(val) {
			c.warnf(num, "shorthand %q has unresolved reference: %q", key, val)
		}
	}
}

// parseFuncHeader parses "@var name(p1=d1, p2)".
func parseFuncHeader(selector string) (string, []Param, error) {
	m := reFuncHeader.FindStringSubmatch(selector)
	if m == nil {
		return "", nil, fmt.Errorf("malformed header %q", selector)
	}
	var params []Param
	for _, raw := range splitTopLevel(m[2], ',') {
		name, def, hasDef := strings.Cut(raw, "=")
		name = strings.TrimSpace(name)
		if !reParamName.MatchString(name) {
			return "", nil, fmt.Errorf("malformed parameter %q in %q", raw, selector)
		}
		p := Param{Name: name}
		if hasDef {
			d := strings.TrimSpace(def)
			p.Default = &d
		}
		params = append(params, p)
	}
	return m[1], params, nil
}

// HexToRGB converts "#RRGGBB" or "#RGB" into "R,G,B" decimal triple.
func HexToRGB(hex string) (string, error) {
	h := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return "", fmt.Errorf("invalid hex color %q", hex)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return "", fmt.Errorf("invalid hex color %q: %w", hex, err)
	}
	return fmt.Sprintf("%d,%d,%d", v>>16&0xff, v>>8&0xff, v&0xff), nil
}
