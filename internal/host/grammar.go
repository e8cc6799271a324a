// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package host

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/samber/oops"

	"github.com/holomush/cmdrelay/pkg/args"
)

// CodeSyntaxError is returned for lines the grammar rejects.
const CodeSyntaxError = "SYNTAX_ERROR"

// lineLexer tokenizes host command lines. Numbers are tried before flags
// so "-5" is an Int, not a flag.
var lineLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Float", Pattern: `[-+]?(\d+\.\d*|\.\d+)([eE][-+]?\d+)?|[-+]?\d+[eE][-+]?\d+`},
	{Name: "Int", Pattern: `[-+]?\d+`},
	{Name: "String", Pattern: `"(\\.|[^"\\])*"`},
	{Name: "Flag", Pattern: `-[a-zA-Z]\w*`},
	{Name: "Punct", Pattern: `;`},
	{Name: "Word", Pattern: `[^\s";]+`},
	{Name: "whitespace", Pattern: `\s+`},
})

// Script is a line of zero or more statements separated by ';'.
type Script struct {
	Statements []*Statement `parser:"( @@ | ';' )*"`
}

// Statement is one command with its arguments.
//
// Grammar: name { float | int | string | flag | word }
type Statement struct {
	Pos  lexer.Position `parser:""`
	Name string         `parser:"@Word"`
	Args []*Arg         `parser:"@@*"`
}

// Arg is one typed literal.
type Arg struct {
	Float  *float64 `parser:"  @Float"`
	Int    *int64   `parser:"| @Int"`
	String *string  `parser:"| @String"`
	Flag   *string  `parser:"| @Flag"`
	Word   *string  `parser:"| @Word"`
}

var lineParser *participle.Parser[Script]

func init() {
	var err error
	lineParser, err = participle.Build[Script](
		participle.Lexer(lineLexer),
		participle.Unquote("String"),
	)
	if err != nil {
		panic(fmt.Sprintf("failed to build line parser: %v", err))
	}
}

// Parse parses a host command line.
func Parse(line string) (*Script, error) {
	script, err := lineParser.ParseString("", line)
	if err != nil {
		return nil, oops.In("host").
			Code(CodeSyntaxError).
			With("line", line).
			Wrapf(err, "parse command line")
	}
	return script, nil
}

// List converts the statement's literals to an argument list. Bare words
// spelling a boolean become bools; every other word stays a string.
func (s *Statement) List() args.List {
	l := make(args.List, 0, len(s.Args))
	for _, a := range s.Args {
		l = append(l, a.Value())
	}
	return l
}

// Value converts a literal to an argument value.
func (a *Arg) Value() args.Value {
	switch {
	case a.Float != nil:
		return args.Float(*a.Float)
	case a.Int != nil:
		return args.Int(*a.Int)
	case a.String != nil:
		return args.String(*a.String)
	case a.Flag != nil:
		return args.String(*a.Flag)
	default:
		if b, ok := boolWord(*a.Word); ok {
			return args.Bool(b)
		}
		return args.String(*a.Word)
	}
}

func boolWord(w string) (value, ok bool) {
	switch strings.ToLower(w) {
	case "true", "on", "yes":
		return true, true
	case "false", "off", "no":
		return false, true
	}
	return false, false
}

// String renders the statement back as a command line.
func (s *Statement) String() string {
	parts := []string{s.Name}
	for _, v := range s.List() {
		if v.Kind() == args.KindString && bare(v.Str()) {
			parts = append(parts, v.Str())
			continue
		}
		parts = append(parts, v.String())
	}
	return strings.Join(parts, " ")
}

// bare reports whether a string argument reads back as the same string
// without quotes.
func bare(s string) bool {
	if s == "" || strings.ContainsAny(s, " \t\";") {
		return false
	}
	if _, ok := boolWord(s); ok {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err != nil
}
