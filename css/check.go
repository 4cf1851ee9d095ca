// Package css verifies generated style sheets with a real CSS tokenizer.
package css

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// Summary describes what tokenizer found in the style sheet.
type Summary struct {
	Rules        int
	AtRules      int
	Declarations int
	// selectors of top level rulesets in order of appearance
	Selectors []string
	Warnings  []string
}

// Checker runs generated CSS through tdewolff tokenizer.
type Checker struct {
	log *zap.Logger
}

// NewChecker creates a new CSS checker.
func NewChecker(log *zap.Logger) *Checker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Checker{log: log.Named("css-check")}
}

// Check parses CSS text. Source identifies what is being checked for
// logging. Problems are returned as warnings, only tokenizer failure stops
// the check early.
func (c *Checker) Check(data []byte, source string) *Summary {
	sum := &Summary{}
	warnf := func(format string, args ...any) {
		msg := fmt.Sprintf(format, args...)
		sum.Warnings = append(sum.Warnings, msg)
		c.log.Warn("CSS problem", zap.String("source", source), zap.String("problem", msg))
	}

	input := parse.NewInput(bytes.NewReader(data))
	parser := css.NewParser(input, false)

	depth := 0
loop:
	for {
		gt, _, text := parser.Next()

		switch gt {
		case css.ErrorGrammar:
			if err := parser.Err(); err != nil && !errors.Is(err, io.EOF) {
				warnf("parse error at offset %d: %v", input.Offset(), err)
			}
			break loop

		case css.AtRuleGrammar:
			sum.AtRules++

		case css.BeginAtRuleGrammar:
			sum.AtRules++
			depth++

		case css.EndAtRuleGrammar:
			depth--

		case css.BeginRulesetGrammar:
			sum.Rules++
			if depth == 0 {
				sum.Selectors = append(sum.Selectors, tokensString(text, parser.Values()))
			}
			depth++

		case css.EndRulesetGrammar:
			depth--

		case css.DeclarationGrammar, css.CustomPropertyGrammar:
			sum.Declarations++
			if len(trimWhitespace(parser.Values())) == 0 {
				warnf("declaration %q has empty value", text)
			}

		case css.QualifiedRuleGrammar, css.TokenGrammar:
			// stray tokens outside of any rule
			warnf("unexpected content %q", tokensString(text, parser.Values()))

		case css.CommentGrammar:
			// generator never emits comments, nothing to verify
		}
		if depth < 0 {
			warnf("unbalanced closing brace at offset %d", input.Offset())
			depth = 0
		}
	}
	if depth > 0 {
		warnf("%d block(s) left unclosed", depth)
	}

	c.log.Debug("CSS checked", zap.String("source", source),
		zap.Int("rules", sum.Rules), zap.Int("at-rules", sum.AtRules),
		zap.Int("declarations", sum.Declarations), zap.Int("warnings", len(sum.Warnings)))
	return sum
}

func tokensString(data []byte, values []css.Token) string {
	var b bytes.Buffer
	b.Write(data)
	for _, t := range values {
		b.Write(t.Data)
	}
	return string(bytes.TrimSpace(b.Bytes()))
}

func trimWhitespace(tokens []css.Token) []css.Token {
	for len(tokens) > 0 && tokens[0].TokenType == css.WhitespaceToken {
		tokens = tokens[1:]
	}
	for len(tokens) > 0 && tokens[len(tokens)-1].TokenType == css.WhitespaceToken {
		tokens = tokens[:len(tokens)-1]
	}
	return tokens
}
