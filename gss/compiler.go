package gss

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
)

// Severity of a diagnostic.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Diagnostic is a problem found while compiling, compilation continues.
type Diagnostic struct {
	File     string
	Line     int
	Severity Severity
	Message  string
}

func (d Diagnostic) String() string {
	if d.Line > 0 {
		return fmt.Sprintf("%s:%d: %s: %s", d.File, d.Line, d.Severity, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s", d.File, d.Severity, d.Message)
}

// Result of compiling single source.
type Result struct {
	Blocks      []*Block
	Diagnostics []Diagnostic
}

// CSS serializes resolved blocks.
func (r *Result) CSS() string {
	return Generate(r.Blocks)
}

// JSON serializes resolved block forest.
func (r *Result) JSON() ([]byte, error) {
	if r.Blocks == nil {
		return []byte("[]"), nil
	}
	return marshal(r.Blocks)
}

// Option configures Compiler.
type Option func(*Compiler)

// WithMergeExtends enables copying of properties from extended selectors.
func WithMergeExtends(enable bool) Option {
	return func(c *Compiler) {
		c.mergeExtends = enable
	}
}

// maximum nesting of function invocations from function bodies
const maxCallDepth = 16

// Compiler compiles GSS sources one at a time. Directive blocks of each
// source update the store and are visible to all following sources, so
// compilation order matters. Not safe for concurrent use.
type Compiler struct {
	store        *Store
	log          *zap.Logger
	mergeExtends bool

	// per source state
	file      string
	diags     []Diagnostic
	callDepth int
}

// NewCompiler creates compiler working on provided directive store.
func NewCompiler(store *Store, log *zap.Logger, opts ...Option) *Compiler {
	if log == nil {
		log = zap.NewNop()
	}
	if store == nil {
		store = NewStore()
	}
	store.init()
	c := &Compiler{store: store, log: log.Named("gss")}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Store returns directive store compiler works with.
func (c *Compiler) Store() *Store {
	return c.store
}

// Compile reads GSS source and resolves it into block tree. Name is used for
// diagnostics only.
func (c *Compiler) Compile(ctx context.Context, name string, r io.Reader) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("unable to read source %s: %w", name, err)
	}
	return c.CompileString(ctx, name, string(data))
}

// CompileString is same as Compile for source already in memory.
func (c *Compiler) CompileString(ctx context.Context, name, src string) (*Result, error) {
	c.file, c.diags, c.callDepth = name, nil, 0
	defer func() { c.file, c.diags = "", nil }()

	c.log.Debug("Compiling", zap.String("file", name), zap.Int("bytes", len(src)))

	blocks, err := c.parse(ctx, splitLines(src))
	if err != nil {
		return nil, err
	}
	if c.mergeExtends {
		c.MergeExtends(blocks)
	}
	return &Result{Blocks: blocks, Diagnostics: c.diags}, nil
}

func (c *Compiler) warnf(line int, format string, args ...any) {
	d := Diagnostic{File: c.file, Line: line, Severity: SeverityWarning, Message: fmt.Sprintf(format, args...)}
	c.diags = append(c.diags, d)
	c.log.Warn(d.Message, zap.String("file", d.File), zap.Int("line", d.Line))
}

func splitLines(src string) []line {
	raw := strings.Split(strings.ReplaceAll(src, "\r\n", "\n"), "\n")
	lines := make([]line, 0, len(raw))
	for i, text := range raw {
		lines = append(lines, line{num: i + 1, text: text})
	}
	return lines
}
