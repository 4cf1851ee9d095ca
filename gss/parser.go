package gss

import (
	"context"
	"strings"
)

const indentUnit = "    "

type line struct {
	num  int
	text string
}

func indentOf(text string) int {
	return len(text) - len(strings.TrimLeft(text, " "))
}

func isIndented(text string) bool {
	return strings.HasPrefix(text, indentUnit)
}

// normalize replaces tabs, drops blank and comment lines and strips common
// leading indentation so that the least indented line starts at column 0.
func normalize(lines []line) []line {
	out := make([]line, 0, len(lines))
	minIndent := -1
	for _, l := range lines {
		text := strings.TrimRight(strings.ReplaceAll(l.text, "\t", indentUnit), " \r")
		trimmed := strings.TrimSpace(text)
		if trimmed == "" || strings.HasPrefix(trimmed, "//") {
			continue
		}
		if n := indentOf(text); minIndent < 0 || n < minIndent {
			minIndent = n
		}
		out = append(out, line{num: l.num, text: text})
	}
	for i := range out {
		out[i].text = out[i].text[minIndent:]
	}
	return out
}

// parse turns lines into block forest. Directive blocks are folded into the
// store as soon as they are closed and never returned.
func (c *Compiler) parse(ctx context.Context, lines []line) ([]*Block, error) {
	return c.parseBlocks(ctx, lines, 0)
}

func (c *Compiler) parseBlocks(ctx context.Context, lines []line, depth int) ([]*Block, error) {
	lines = normalize(lines)

	var (
		blocks []*Block
		cur    *Block
	)
	closeBlock := func() {
		if cur == nil {
			return
		}
		if cur.Kind().IsDirective() {
			if depth > 0 {
				c.log.Debug("Nested directive block")
			}
			c.fold(cur)
		} else {
			blocks = append(blocks, cur)
		}
		cur = nil
	}

	for i := 0; i < len(lines); {
		l := lines[i]

		if !isIndented(l.text) {
			if depth == 0 {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
			}
			closeBlock()
			cur = c.newBlock(l.text, l.num)
			i++
			continue
		}

		trimmed := strings.TrimSpace(l.text)
		if cur == nil {
			c.warnf(l.num, "indented line %q does not belong to any block", trimmed)
			i++
			continue
		}

		if Classify(trimmed, cur.Kind()) == ChildBlock {
			// child line owns everything indented deeper than itself
			own, j := indentOf(l.text), i+1
			for j < len(lines) && indentOf(lines[j].text) > own {
				j++
			}
			children, err := c.parseBlocks(ctx, lines[i:j], depth+1)
			if err != nil {
				return nil, err
			}
			cur.AddChildren(children...)
			i = j
			continue
		}

		props, extra := c.resolveLine(cur, trimmed, l.num)
		cur.AddProps(props...)
		attach(cur, extra...)
		i++
	}
	closeBlock()
	return blocks, nil
}

// newBlock constructs block from selector line: "selector @short-arg ++ext1,ext2".
// Inline shorthand segments are resolved into properties, extends recorded.
func (c *Compiler) newBlock(raw string, num int) *Block {
	base, extend, _ := strings.Cut(raw, "++")
	parts := splitInline(base)

	b := &Block{Selector: strings.TrimSpace(parts[0]), Line: num}
	for _, part := range parts[1:] {
		props, extra := c.resolveLine(b, part, num)
		b.AddProps(props...)
		attach(b, extra...)
	}
	b.AddExtend(strings.Split(extend, ",")...)
	return b
}

// splitInline splits selector line before every '@' which starts inline
// shorthand. '@' at the very beginning belongs to the selector and '@'
// right after '-' is part of macro argument.
func splitInline(s string) []string {
	var parts []string
	start := 0
	for i := 1; i < len(s); i++ {
		if s[i] == '@' && s[i-1] != '-' && s[i-1] != '/' {
			parts = append(parts, s[start:i])
			start = i
		}
	}
	return append(parts, s[start:])
}

// attach appends synthesized blocks to parent. Synthesized block with the
// same selector as already synthesized child is merged into it, so several
// augmented properties end up in a single rule.
func attach(parent *Block, extra ...*Block) {
	for _, e := range extra {
		merged := false
		for _, ch := range parent.Children {
			if ch.Line == 0 && ch.Selector == e.Selector {
				ch.AddProps(e.Props...)
				attach(ch, e.Children...)
				merged = true
				break
			}
		}
		if !merged {
			parent.AddChildren(e)
		}
	}
}
