package gss

import (
	"context"
	"encoding/json"
	"slices"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func newTestCompiler(t *testing.T, store *Store, opts ...Option) *Compiler {
	t.Helper()
	log := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
	return NewCompiler(store, log, opts...)
}

func compile(t *testing.T, c *Compiler, src string) *Result {
	t.Helper()
	res, err := c.CompileString(context.Background(), "test.gss", src)
	if err != nil {
		t.Fatalf("CompileString() error = %v", err)
	}
	return res
}

func compileCSS(t *testing.T, src string) string {
	t.Helper()
	return compile(t, newTestCompiler(t, nil), src).CSS()
}

func TestCompile_NestedHover(t *testing.T) {
	src := `
.a
    &:hover
        color: red
`
	got := compileCSS(t, src)
	if want := ".a:hover { color:red; }"; got != want {
		t.Errorf("CSS = %q, want %q", got, want)
	}
}

func TestCompile_PropertiesAndChildren(t *testing.T) {
	src := `
.card
    color: red
    margin: 0 auto
    .title
        font-weight: bold
    :focus
        outline: none
`
	got := compileCSS(t, src)
	want := ".card { color:red; margin:0 auto; } .card .title { font-weight:bold; } .card:focus { outline:none; }"
	if got != want {
		t.Errorf("CSS = %q, want %q", got, want)
	}
}

func TestCompile_PropertyAfterNestedBlockStaysWithParent(t *testing.T) {
	src := `
.a
    &:hover
        color: blue
    margin: 0
`
	got := compileCSS(t, src)
	want := ".a { margin:0; } .a:hover { color:blue; }"
	if got != want {
		t.Errorf("CSS = %q, want %q", got, want)
	}
}

func TestCompile_ContainerAtRule(t *testing.T) {
	src := `
@container (min-width: 400px)
    .card
        color: red
`
	got := compileCSS(t, src)
	if want := "@container (min-width: 400px) { .card { color:red; } }"; got != want {
		t.Errorf("CSS = %q, want %q", got, want)
	}
}

func TestCompile_NestedAtRuleDropsPrefix(t *testing.T) {
	src := `
.page
    padding: 1em
    @media print
        .card
            color: black
`
	got := compileCSS(t, src)
	want := ".page { padding:1em; } @media print { .card { color:black; } }"
	if got != want {
		t.Errorf("CSS = %q, want %q", got, want)
	}
	if strings.Contains(got, ".page .card") {
		t.Error("at-rule content must not inherit ancestor selector")
	}
}

func TestCompile_TabsAndIndentedSource(t *testing.T) {
	src := "\t.a\n\t\tcolor: red\n\n\t.b\n\t\tcolor: blue\n"
	got := compileCSS(t, src)
	if want := ".a { color:red; } .b { color:blue; }"; got != want {
		t.Errorf("CSS = %q, want %q", got, want)
	}
}

func TestCompile_Comments(t *testing.T) {
	src := `
// header comment
.a
    // inner comment
    color: red
`
	if got, want := compileCSS(t, src), ".a { color:red; }"; got != want {
		t.Errorf("CSS = %q, want %q", got, want)
	}
}

func TestCompile_ShorthandTransitive(t *testing.T) {
	c := newTestCompiler(t, nil)
	src := `
@def
    card: @bg
    bg: background-color
    m: margin
    t: top
.x
    @card: red
    @m-t: 4px
`
	res := compile(t, c, src)
	if got := c.Store().Shorts["card"]; got != "background-color" {
		t.Errorf("Shorts[card] = %q, want %q", got, "background-color")
	}
	want := ".x { background-color:red; margin-top:4px; }"
	if got := res.CSS(); got != want {
		t.Errorf("CSS = %q, want %q", got, want)
	}
	if len(res.Diagnostics) != 0 {
		t.Errorf("unexpected diagnostics: %v", res.Diagnostics)
	}
}

func TestCompile_ShorthandList(t *testing.T) {
	store := NewStore()
	store.Shorts["px"] = "padding-left,padding-right"
	got := compile(t, newTestCompiler(t, store), ".a\n    @px: 2px\n").CSS()
	if want := ".a { padding-left:2px; padding-right:2px; }"; got != want {
		t.Errorf("CSS = %q, want %q", got, want)
	}
}

func TestCompile_InlineSelectorShorthandAndExtend(t *testing.T) {
	store := NewStore()
	store.Shorts["bg"] = "background"
	c := newTestCompiler(t, store)
	res := compile(t, c, ".card @bg-red ++base,other\n    color: blue\n")
	if len(res.Blocks) != 1 {
		t.Fatalf("blocks = %d, want 1", len(res.Blocks))
	}
	b := res.Blocks[0]
	if b.Selector != ".card" {
		t.Errorf("Selector = %q, want %q", b.Selector, ".card")
	}
	wantProps := []Prop{{"background", "red"}, {"color", "blue"}}
	if !slices.Equal(b.Props, wantProps) {
		t.Errorf("Props = %v, want %v", b.Props, wantProps)
	}
	if !slices.Equal(b.Extra.Extend, []string{"base", "other"}) {
		t.Errorf("Extend = %v, want [base other]", b.Extra.Extend)
	}
}

func TestCompile_Colors(t *testing.T) {
	c := newTestCompiler(t, nil)
	src := `
@col
    brand: #0a141e
.a
    color: @col/brand-50
    background: @col/brand
`
	res := compile(t, c, src)
	if got := c.Store().Colors["brand"]; got != "10,20,30" {
		t.Errorf("Colors[brand] = %q, want %q", got, "10,20,30")
	}
	want := ".a { color:rgba(10,20,30,0.5); background:rgba(10,20,30,1); }"
	if got := res.CSS(); got != want {
		t.Errorf("CSS = %q, want %q", got, want)
	}
}

func TestResolveColor(t *testing.T) {
	store := NewStore()
	store.Colors["brand"] = "10,20,30"
	store.Colors["dark-blue"] = "0,0,139"
	c := newTestCompiler(t, store)

	tests := []struct {
		ref  string
		want string
		ok   bool
	}{
		{"brand-50", "rgba(10,20,30,0.5)", true},
		{"brand", "rgba(10,20,30,1)", true},
		{"brand-5", "rgba(10,20,30,0.05)", true},
		{"dark-blue", "rgba(0,0,139,1)", true},
		{"dark-blue-25", "rgba(0,0,139,0.25)", true},
		{"unknown", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, ok := c.resolveColor(tt.ref)
			if ok != tt.ok || got != tt.want {
				t.Errorf("resolveColor(%q) = %q, %v, want %q, %v", tt.ref, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestCompile_UnknownReferencesAreDiagnosed(t *testing.T) {
	c := newTestCompiler(t, nil)
	src := `
.a
    color: @col/nope
    @zz: 1px
    gap: $missing
    @fun nothing(1)
    border: 1px @nomacro-2px
`
	res := compile(t, c, src)
	if len(res.Diagnostics) != 5 {
		for _, d := range res.Diagnostics {
			t.Log(d)
		}
		t.Fatalf("diagnostics = %d, want 5", len(res.Diagnostics))
	}
	for _, d := range res.Diagnostics {
		if d.File != "test.gss" || d.Line == 0 || d.Severity != SeverityWarning {
			t.Errorf("unexpected diagnostic %+v", d)
		}
	}
	want := ".a { color:@col/nope; zz:1px; gap:$missing; border:1px; }"
	if got := res.CSS(); got != want {
		t.Errorf("CSS = %q, want %q", got, want)
	}
}

func TestCompile_Variables(t *testing.T) {
	src := `
@var
    gap: 4px
    wide: $gap
.a
    margin: $gap $wide
`
	if got, want := compileCSS(t, src), ".a { margin:4px 4px; }"; got != want {
		t.Errorf("CSS = %q, want %q", got, want)
	}
}

func TestCompile_FunctionInvocation(t *testing.T) {
	c := newTestCompiler(t, nil)
	src := `
@var fade(color, duration=200ms)
    transition: $color $duration
.btn
    @fun fade(blue)
.link
    @fun fade(red, 1s)
`
	res := compile(t, c, src)
	fn, ok := c.Store().Functions["fade"]
	if !ok {
		t.Fatal("function fade was not registered")
	}
	if len(fn.Params) != 2 || fn.Params[0].Default != nil || fn.Params[1].Default == nil || *fn.Params[1].Default != "200ms" {
		t.Errorf("unexpected params %+v", fn.Params)
	}
	if !slices.Equal(fn.Props, []Prop{{"transition", "$color $duration"}}) {
		t.Errorf("function body must stay unsubstituted, got %v", fn.Props)
	}
	want := ".btn { transition:blue 200ms; } .link { transition:red 1s; }"
	if got := res.CSS(); got != want {
		t.Errorf("CSS = %q, want %q", got, want)
	}
}

func TestCompile_FunctionMissingArgument(t *testing.T) {
	c := newTestCompiler(t, nil)
	src := `
@var pad(size)
    padding: $size
.a
    @fun pad()
`
	res := compile(t, c, src)
	if len(res.Diagnostics) != 1 {
		t.Fatalf("diagnostics = %v, want 1 entry", res.Diagnostics)
	}
	if got, want := res.CSS(), ".a { padding:; }"; got != want {
		t.Errorf("CSS = %q, want %q", got, want)
	}
}

func TestCompile_NestedFunctionInvocation(t *testing.T) {
	src := `
@var color(c)
    color: $c
@var theme(fg, bg=white)
    background: $bg
    @fun color($fg)
.a
    @fun theme(black)
`
	if got, want := compileCSS(t, src), ".a { background:white; color:black; }"; got != want {
		t.Errorf("CSS = %q, want %q", got, want)
	}
}

func TestCompile_FunctionDefaultWithParens(t *testing.T) {
	c := newTestCompiler(t, nil)
	src := `
@var shadow(c=rgba(0,0,0,1), s=2px)
    box-shadow: 0 0 $s $c
.a
    @fun shadow()
`
	res := compile(t, c, src)
	if len(res.Diagnostics) != 0 {
		t.Errorf("unexpected diagnostics %v", res.Diagnostics)
	}
	if got, want := res.CSS(), ".a { box-shadow:0 0 2px rgba(0,0,0,1); }"; got != want {
		t.Errorf("CSS = %q, want %q", got, want)
	}
}

func TestCompile_FunctionParamDoesNotShadowHyphenatedVariable(t *testing.T) {
	src := `
@var
    c-dark: navy
@var tone(c)
    color: $c-dark
    background: $c
.a
    @fun tone(blue)
`
	if got, want := compileCSS(t, src), ".a { color:navy; background:blue; }"; got != want {
		t.Errorf("CSS = %q, want %q", got, want)
	}
}

func TestCompile_MalformedFunctionHeaderSkipped(t *testing.T) {
	c := newTestCompiler(t, nil)
	res := compile(t, c, "@var broken(a b)\n    color: $a\n")
	if len(c.Store().Functions) != 0 {
		t.Errorf("malformed function must not be registered: %v", c.Store().Functions)
	}
	if len(res.Blocks) != 0 {
		t.Errorf("directive blocks must not be returned, got %d", len(res.Blocks))
	}
	if len(res.Diagnostics) != 1 {
		t.Errorf("diagnostics = %v, want 1 entry", res.Diagnostics)
	}
}

func TestCompile_PseudoAugmentation(t *testing.T) {
	src := `
@use
    hover: &:hover
    focus: &:focus-visible
.btn
    color: red @hover-blue @focus-green
    background: white @hover-black
`
	want := ".btn { color:red; background:white; } .btn:hover { color:blue; background:black; } .btn:focus-visible { color:green; }"
	if got := compileCSS(t, src); got != want {
		t.Errorf("CSS = %q, want %q", got, want)
	}
}

func TestCompile_ContainerAugmentation(t *testing.T) {
	src := `
@container
    sm-{value}: @container (min-width: {value}px)
.card
    font-size: 16px @sm-400-24px
`
	want := ".card { font-size:16px; } @container (min-width: 400px) { .card { font-size:24px; } }"
	if got := compileCSS(t, src); got != want {
		t.Errorf("CSS = %q, want %q", got, want)
	}
}

func TestCompile_ContainerAugmentationKeepsNesting(t *testing.T) {
	const directives = `
@container
    sm-{value}: @container (min-width: {value}px)
`
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "descendant",
			src:  ".a\n    .b\n        font-size: 16px @sm-400-24px\n",
			want: ".a .b { font-size:16px; } @container (min-width: 400px) { .a .b { font-size:24px; } }",
		},
		{
			name: "pseudo",
			src:  ".a\n    &:hover\n        font-size: 16px @sm-400-24px\n",
			want: ".a:hover { font-size:16px; } @container (min-width: 400px) { .a:hover { font-size:24px; } }",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := compileCSS(t, directives+tt.src); got != tt.want {
				t.Errorf("CSS = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCompile_UnknownColorInTrailingToken(t *testing.T) {
	c := newTestCompiler(t, nil)
	res := compile(t, c, ".a\n    border: 1px solid @col/nope\n")
	if len(res.Diagnostics) != 1 || !strings.Contains(res.Diagnostics[0].Message, "unknown color") {
		t.Fatalf("diagnostics = %v, want single unknown color", res.Diagnostics)
	}
	if got, want := res.CSS(), ".a { border:1px solid @col/nope; }"; got != want {
		t.Errorf("CSS = %q, want %q", got, want)
	}
}

func TestCompile_MultiTokenValueKept(t *testing.T) {
	src := ".a\n    border: 1px solid red\n    content: \"a  b\"\n    width: calc(100% - 2px)\n"
	want := `.a { border:1px solid red; content:"a  b"; width:calc(100% - 2px); }`
	if got := compileCSS(t, src); got != want {
		t.Errorf("CSS = %q, want %q", got, want)
	}
}

func TestCompile_DirectivesVisibleToLaterSources(t *testing.T) {
	c := newTestCompiler(t, nil)
	compile(t, c, "@def\n    bg: background-color\n@col\n    brand: #ff0080\n")
	got := compile(t, c, ".a\n    @bg: @col/brand\n").CSS()
	if want := ".a { background-color:rgba(255,0,128,1); }"; got != want {
		t.Errorf("CSS = %q, want %q", got, want)
	}
}

func TestCompile_DirectiveAfterUseIsNotVisible(t *testing.T) {
	c := newTestCompiler(t, nil)
	res := compile(t, c, ".a\n    @bg: red\n@def\n    bg: background\n")
	if got, want := res.CSS(), ".a { bg:red; }"; got != want {
		t.Errorf("CSS = %q, want %q", got, want)
	}
	if c.Store().Shorts["bg"] != "background" {
		t.Error("directive must still be folded into store")
	}
}

func TestCompile_ResolvingResolvedInputIsStable(t *testing.T) {
	c := newTestCompiler(t, nil)
	src := ".a\n    color: red\n    margin: 0 auto\n    &:hover\n        color: blue\n"
	res := compile(t, c, src)

	var check func(b *Block)
	check = func(b *Block) {
		for _, p := range b.Props {
			props, extra := c.resolvePair(b, p.Name, p.Value, 0)
			if len(extra) != 0 || !slices.Equal(props, []Prop{p}) {
				t.Errorf("re-resolving %v changed it to %v (+%d blocks)", p, props, len(extra))
			}
		}
		for _, ch := range b.Children {
			check(ch)
		}
	}
	for _, b := range res.Blocks {
		check(b)
	}

	if got := compile(t, c, src).CSS(); got != res.CSS() {
		t.Errorf("second compilation differs: %q vs %q", got, res.CSS())
	}
}

func TestCompile_OrphanIndentedLine(t *testing.T) {
	c := newTestCompiler(t, nil)
	res := compile(t, c, "        color: red\n.a\n    color: blue\n")
	if len(res.Blocks) != 1 {
		t.Fatalf("blocks = %d, want 1", len(res.Blocks))
	}
}

func TestCompile_ContextCanceled(t *testing.T) {
	c := newTestCompiler(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.CompileString(ctx, "x.gss", ".a\n    color: red\n"); err == nil {
		t.Error("expected error for canceled context")
	}
}

func TestCompile_MergeExtends(t *testing.T) {
	c := newTestCompiler(t, nil, WithMergeExtends(true))
	src := `
.base
    color: red
    margin: 0
.card++base
    color: blue
.other++missing
    gap: 1px
`
	res := compile(t, c, src)
	want := ".base { color:red; margin:0; } .card { color:red; margin:0; color:blue; } .other { gap:1px; }"
	if got := res.CSS(); got != want {
		t.Errorf("CSS = %q, want %q", got, want)
	}
	if len(res.Diagnostics) != 1 {
		t.Errorf("diagnostics = %v, want 1 entry for unknown extend", res.Diagnostics)
	}
}

func TestCompile_ExtendsRecordedOnly(t *testing.T) {
	res := compile(t, newTestCompiler(t, nil), ".base\n    color: red\n.card++base\n    color: blue\n")
	if got, want := res.CSS(), ".base { color:red; } .card { color:blue; }"; got != want {
		t.Errorf("CSS = %q, want %q", got, want)
	}
}

func TestResult_JSON(t *testing.T) {
	res := compile(t, newTestCompiler(t, nil), ".a++b\n    color: red\n")
	data, err := res.JSON()
	if err != nil {
		t.Fatalf("JSON() error = %v", err)
	}
	want := `[{"selector":".a","props":[["color","red"]],"children":[],"extra":{"extend":["b"]}}]`
	if string(data) != want {
		t.Errorf("JSON() = %s, want %s", data, want)
	}

	var blocks []*Block
	if err := json.Unmarshal(data, &blocks); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(blocks) != 1 || blocks[0].Props[0] != (Prop{"color", "red"}) {
		t.Errorf("unexpected decoded blocks %+v", blocks)
	}
}

func TestDiagnostic_String(t *testing.T) {
	d := Diagnostic{File: "a.gss", Line: 3, Message: "unknown color"}
	if got, want := d.String(), "a.gss:3: warning: unknown color"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
