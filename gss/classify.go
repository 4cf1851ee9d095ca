package gss

import (
	"regexp"
	"strings"
)

// LineClass tells parser what to do with an indented line.
type LineClass int

const (
	// Property line is resolved into declarations of the enclosing block.
	Property LineClass = iota
	// ChildBlock line opens nested block.
	ChildBlock
)

func (lc LineClass) String() string {
	if lc == ChildBlock {
		return "child"
	}
	return "property"
}

const selectorMarkers = ".#@:&"

var reShortProp = regexp.MustCompile(`@([^:\s]+)\s*:\s*([^:\s]+)`)

// Classify decides whether trimmed indented line opens a nested block or
// continues properties of the enclosing block of the given kind.
func Classify(trimmed string, parent Kind) LineClass {
	if parent.IsDirective() || isFunCall(trimmed) {
		return Property
	}
	switch {
	case trimmed == "":
		return Property
	case trimmed[0] == '&':
		return ChildBlock
	case !strings.ContainsAny(trimmed, selectorMarkers):
		return ChildBlock
	case strings.IndexByte(selectorMarkers, trimmed[0]) >= 0 && !reShortProp.MatchString(trimmed):
		return ChildBlock
	}
	return Property
}

func isFunCall(line string) bool {
	return strings.HasPrefix(line, funMarker) &&
		(len(line) == len(funMarker) || line[len(funMarker)] == ' ' || line[len(funMarker)] == '\t')
}
