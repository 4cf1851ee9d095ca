package gss

import (
	"regexp"
	"strconv"
	"strings"
)

const funMarker = "@fun"

var (
	reFunCall  = regexp.MustCompile(`^@fun\s+([\w-]+)\s*\((.*)\)\s*$`)
	reShortRef = regexp.MustCompile(`@([\w-]+)`)
	reColorRef = regexp.MustCompile(`@col/([\w-]+)`)
	reVarRef   = regexp.MustCompile(`\$([A-Za-z_]\w*(?:-\w+)*)`)
)

// resolveLine turns single property line into resolved declarations. It may
// also produce synthesized child blocks (pseudo-state and container
// augmentations) which caller is responsible to attach.
func (c *Compiler) resolveLine(b *Block, raw string, num int) ([]Prop, []*Block) {
	raw = strings.TrimSpace(raw)
	kind := b.Kind()

	if isFunCall(raw) {
		if kind == KindFunc {
			// nested invocation is resolved when declared function is invoked
			return []Prop{{Name: funMarker, Value: raw}}, nil
		}
		if kind.IsDirective() {
			c.warnf(num, "function invocation is not allowed in %s block", kind)
			return nil, nil
		}
		m := reFunCall.FindStringSubmatch(raw)
		if m == nil {
			c.warnf(num, "malformed function invocation %q", raw)
			return nil, nil
		}
		return c.invoke(b, m[1], splitTopLevel(m[2], ','), num)
	}

	name, value, ok := splitProp(raw)
	if !ok {
		c.warnf(num, "property %q has no value", raw)
		return nil, nil
	}
	if name == "" {
		c.warnf(num, "property without name in %q", raw)
		return nil, nil
	}
	return c.resolvePair(b, name, value, num)
}

// splitProp splits on the first ':' and falls back to the first '-'.
func splitProp(raw string) (string, string, bool) {
	if name, value, found := strings.Cut(raw, ":"); found {
		return strings.TrimSpace(name), strings.TrimSpace(value), true
	}
	if name, value, found := strings.Cut(raw, "-"); found {
		return strings.TrimSpace(name), strings.TrimSpace(value), true
	}
	return raw, "", false
}

// resolvePair resolves already split declaration according to the kind of
// block it belongs to.
func (c *Compiler) resolvePair(b *Block, name, value string, num int) ([]Prop, []*Block) {
	switch b.Kind() {
	case KindDef, KindCol, KindVar, KindUse, KindContainer:
		// literal captures, variables are resolved when block is folded
		return []Prop{{Name: name, Value: value}}, nil
	case KindFunc:
		return makeProps(c.expandShorthand(name, num), value), nil
	}

	names := c.expandShorthand(name, num)
	value = c.resolveValue(value, num)

	tokens := splitTokens(value)
	if len(tokens) < 2 {
		return makeProps(names, value), nil
	}

	var (
		parts   = []string{tokens[0]}
		macros  []string
		changed bool
	)
	for _, tok := range tokens[1:] {
		// unresolved colors were already diagnosed and stay in value
		if strings.HasPrefix(tok, "@") && !strings.HasPrefix(tok, "@col/") {
			macros, changed = append(macros, tok), true
			continue
		}
		parts = append(parts, tok)
	}
	if changed {
		value = strings.Join(parts, " ")
	}

	props := makeProps(names, value)
	var extra []*Block
	for _, m := range macros {
		if blk := c.augment(b, props, m, num); blk != nil {
			extra = append(extra, blk)
		}
	}
	return props, extra
}

func makeProps(names, value string) []Prop {
	var props []Prop
	for _, n := range strings.Split(names, ",") {
		if n = strings.TrimSpace(n); n != "" {
			props = append(props, Prop{Name: n, Value: value})
		}
	}
	return props
}

// expandShorthand replaces every "@token" in property name with literal CSS
// property name(s). Token is looked up as a whole first, then piece by piece
// split on '-'; pieces without definition are kept literally.
func (c *Compiler) expandShorthand(name string, num int) string {
	if !strings.HasPrefix(name, "@") {
		return name
	}
	return reShortRef.ReplaceAllStringFunc(name, func(ref string) string {
		token := ref[1:]
		if v, ok := c.store.Shorts[token]; ok {
			return v
		}
		pieces := strings.Split(token, "-")
		for i, p := range pieces {
			if v, ok := c.store.Shorts[p]; ok {
				pieces[i] = v
			} else if i == 0 {
				c.warnf(num, "unknown shorthand %q", "@"+p)
			}
		}
		return strings.Join(pieces, "-")
	})
}

// resolveValue substitutes variables and inline color references.
func (c *Compiler) resolveValue(value string, num int) string {
	if strings.Contains(value, "$") {
		value = reVarRef.ReplaceAllStringFunc(value, func(ref string) string {
			if v, ok := c.store.Variables[ref[1:]]; ok {
				return v
			}
			c.warnf(num, "unknown variable %q", ref)
			return ref
		})
	}
	if strings.Contains(value, "@col/") {
		value = reColorRef.ReplaceAllStringFunc(value, func(ref string) string {
			if v, ok := c.resolveColor(ref[len("@col/"):]); ok {
				return v
			}
			c.warnf(num, "unknown color %q", ref)
			return ref
		})
	}
	return value
}

// resolveColor turns "name" or "name-opacity" into rgba() literal.
func (c *Compiler) resolveColor(ref string) (string, bool) {
	name, opacity := ref, 100
	if i := strings.LastIndexByte(ref, '-'); i > 0 {
		if n, err := strconv.Atoi(ref[i+1:]); err == nil && n >= 0 {
			name, opacity = ref[:i], n
		}
	}
	rgb, ok := c.store.Colors[name]
	if !ok {
		return "", false
	}
	alpha := strconv.FormatFloat(float64(opacity)/100, 'f', -1, 64)
	return "rgba(" + rgb + "," + alpha + ")", true
}

// augment interprets "@macro-argument" token following property value. Split
// point is searched left to right, at every point pseudo macros are checked
// before container patterns.
func (c *Compiler) augment(b *Block, props []Prop, token string, num int) *Block {
	body := token[1:]
	for i := 0; i < len(body); i++ {
		if body[i] != '-' || i == 0 || i == len(body)-1 {
			continue
		}
		macro, arg := body[:i], body[i+1:]
		if sel, ok := c.store.Pseudo[macro]; ok {
			return &Block{Selector: sel, Props: withValue(props, arg)}
		}
		if rule, ok := c.store.MatchContainer(macro); ok {
			inner := &Block{Selector: "&", Props: withValue(props, arg)}
			return &Block{Selector: rule, Children: []*Block{inner}, keepScope: true}
		}
	}
	c.warnf(num, "unknown macro %q", token)
	return nil
}

func withValue(props []Prop, value string) []Prop {
	out := make([]Prop, len(props))
	for i, p := range props {
		out[i] = Prop{Name: p.Name, Value: value}
	}
	return out
}

// invoke expands function call: positional arguments are bound to declared
// parameters (falling back to defaults) and every stored property is
// resolved again with "$param" substituted.
func (c *Compiler) invoke(b *Block, name string, args []string, num int) ([]Prop, []*Block) {
	fn, ok := c.store.Functions[name]
	if !ok {
		c.warnf(num, "unknown function %q", name)
		return nil, nil
	}
	if c.callDepth >= maxCallDepth {
		c.warnf(num, "function %q nested too deep", name)
		return nil, nil
	}
	c.callDepth++
	defer func() { c.callDepth-- }()

	if len(args) > len(fn.Params) {
		c.warnf(num, "function %q takes %d argument(s), %d given, ignoring the rest", name, len(fn.Params), len(args))
	}
	bound := make(map[string]string, len(fn.Params))
	for i, p := range fn.Params {
		switch {
		case i < len(args) && args[i] != "":
			bound[p.Name] = args[i]
		case p.Default != nil:
			bound[p.Name] = *p.Default
		default:
			c.warnf(num, "function %q: missing value for parameter %q", name, p.Name)
			bound[p.Name] = ""
		}
	}
	substitute := func(s string) string {
		// same name grammar as variables, "$c-dark" is variable c-dark and not
		// parameter c followed by "-dark"
		return reVarRef.ReplaceAllStringFunc(s, func(ref string) string {
			if v, ok := bound[ref[1:]]; ok {
				return v
			}
			return ref
		})
	}

	var (
		props []Prop
		extra []*Block
	)
	for _, p := range fn.Props {
		var (
			pp []Prop
			ee []*Block
		)
		if p.Name == funMarker {
			pp, ee = c.resolveLine(b, substitute(p.Value), num)
		} else {
			pp, ee = c.resolvePair(b, p.Name, substitute(p.Value), num)
		}
		props, extra = append(props, pp...), append(extra, ee...)
	}
	return props, extra
}

// splitTokens splits value on spaces outside of quotes and parentheses.
func splitTokens(s string) []string {
	var (
		tokens []string
		depth  int
		quote  byte
		start  = -1
	)
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case quote != 0:
			if ch == quote && s[i-1] != '\\' {
				quote = 0
			}
		case ch == '"' || ch == '\'':
			quote = ch
		case ch == '(':
			depth++
		case ch == ')':
			if depth > 0 {
				depth--
			}
		case (ch == ' ' || ch == '\t') && depth == 0:
			if start >= 0 {
				tokens = append(tokens, s[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		tokens = append(tokens, s[start:])
	}
	return tokens
}

// splitTopLevel splits on sep outside of parentheses and brackets, parts are
// trimmed, empty input gives no parts.
func splitTopLevel(s string, sep byte) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var (
		parts []string
		depth int
		start int
	)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[':
			depth++
		case ')', ']':
			if depth > 0 {
				depth--
			}
		case sep:
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	return append(parts, strings.TrimSpace(s[start:]))
}
