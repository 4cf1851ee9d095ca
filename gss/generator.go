package gss

import (
	"strings"
)

// Generate serializes block forest into CSS text.
func Generate(blocks []*Block) string {
	var b strings.Builder
	for _, blk := range blocks {
		b.WriteString(toCSS(blk, ""))
	}
	return strings.TrimSpace(b.String())
}

// toCSS serializes block and its children. Nesting is flattened into
// combined selectors, at-rules start new scope: nothing inside them inherits
// plain selector prefix of the ancestors. Wrappers synthesized by container
// augmentation are the exception, their children still see the prefix.
func toCSS(n *Block, prefix string) string {
	full := joinSelector(prefix, n.Selector)
	if n.keepScope {
		full = n.Selector
	}
	atRule := strings.HasPrefix(full, "@")

	var children strings.Builder
	for _, ch := range n.Children {
		childPrefix := full
		switch {
		case n.keepScope:
			childPrefix = prefix
		case ch.keepScope:
		case strings.HasPrefix(ch.Selector, "@") || strings.HasPrefix(n.Selector, "@"):
			childPrefix = ""
		}
		children.WriteString(toCSS(ch, childPrefix))
	}
	props := formatProps(n.Props)

	if atRule {
		var inner string
		if len(props) > 0 {
			inner = props + " "
		}
		inner += children.String()
		if inner == "" {
			return full + "; "
		}
		return full + " { " + inner + "} "
	}
	if len(props) == 0 {
		return children.String()
	}
	return full + " { " + props + " } " + children.String()
}

func formatProps(props []Prop) string {
	parts := make([]string, 0, len(props))
	for _, p := range props {
		parts = append(parts, p.Name+":"+p.Value+";")
	}
	return strings.Join(parts, " ")
}

// joinSelector combines parent prefix with nested selector: "&x" is spliced
// onto the parent, ":x" is appended directly, anything else becomes
// descendant. Selector lists on both sides are combined pairwise.
func joinSelector(prefix, selector string) string {
	parents := splitTopLevel(prefix, ',')
	if len(parents) == 0 {
		parents = []string{""}
	}
	nested := splitTopLevel(selector, ',')
	if len(nested) <= 1 && len(parents) == 1 {
		return combine(parents[0], strings.TrimSpace(selector))
	}
	out := make([]string, 0, len(parents)*len(nested))
	for _, p := range parents {
		for _, s := range nested {
			out = append(out, combine(p, s))
		}
	}
	return strings.Join(out, ", ")
}

func combine(parent, sel string) string {
	switch {
	case strings.HasPrefix(sel, "&"):
		return parent + sel[1:]
	case strings.HasPrefix(sel, ":"):
		return parent + sel
	case parent == "":
		return sel
	default:
		return parent + " " + sel
	}
}
