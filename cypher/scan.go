// Package cypher scans Cypher statements without parsing them. Translation
// happens on the server; the client only needs parameter names, result
// columns, EXPLAIN detection and comment directives.
package cypher

import (
	"slices"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// Info is what Scan learns about a statement.
type Info struct {
	// Parameters are the $names referenced, unique, in order of first use.
	Parameters []string
	// Explain is set when the statement starts with EXPLAIN.
	Explain bool
	// Returns are the column names of the last top-level RETURN.
	Returns []string
	// Directives are the `// name: value` line comments.
	Directives []Directive
}

// Directive is a `// name: value` comment.
type Directive struct {
	Name  string
	Value string
	Line  int
}

// DirectiveExpect names the directive holding an expectation expression.
const DirectiveExpect = "expect"

// Values returns the values of all directives with the given name.
func (i *Info) Values(name string) []string {
	var out []string

	for _, d := range i.Directives {
		if d.Name == name {
			out = append(out, d.Value)
		}
	}

	return out
}

// Keywords that end a RETURN projection.
var projectionEnd = []string{"ORDER", "SKIP", "LIMIT", "UNION"}

// Scan lexes query and extracts its Info.
func Scan(query string) (*Info, error) {
	tokens, err := tokenize(query)
	if err != nil {
		return nil, err
	}

	info := &Info{}

	var (
		sig        []lexer.Token
		sigDepth   []int
		depth      int
		seenParams = map[string]bool{}
	)

	for _, tok := range tokens {
		switch tok.Type {
		case tWhitespace:
			continue
		case tComment:
			if d, ok := directive(tok); ok {
				info.Directives = append(info.Directives, d)
			}

			continue
		case tParam:
			name := paramName(tok.Value)
			if name != "" && !seenParams[name] {
				seenParams[name] = true
				info.Parameters = append(info.Parameters, name)
			}
		case tRParen, tRBracket, tRBrace:
			depth = max(depth-1, 0)
		}

		sig = append(sig, tok)
		sigDepth = append(sigDepth, depth)

		switch tok.Type {
		case tLParen, tLBracket, tLBrace:
			depth++
		}
	}

	if len(sig) > 0 && isKeyword(sig[0], "EXPLAIN") {
		info.Explain = true
	}

	info.Returns = returns(query, sig, sigDepth)

	return info, nil
}

// returns extracts the column names of the last top-level RETURN clause.
func returns(query string, sig []lexer.Token, depth []int) []string {
	start := -1

	for i, tok := range sig {
		if depth[i] == 0 && isKeyword(tok, "RETURN") {
			start = i + 1
		}
	}

	if start < 0 {
		return nil
	}

	if start < len(sig) && isKeyword(sig[start], "DISTINCT") {
		start++
	}

	var (
		cols []string
		item []lexer.Token
	)

	flush := func() {
		if len(item) > 0 {
			cols = append(cols, columnName(query, item))
		}

		item = nil
	}

	for i := start; i < len(sig); i++ {
		tok := sig[i]
		if depth[i] == 0 {
			if tok.Type == tSemi || slices.ContainsFunc(projectionEnd, func(kw string) bool { return isKeyword(tok, kw) }) {
				break
			}

			if tok.Type == tComma {
				flush()

				continue
			}
		}

		item = append(item, tok)
	}

	flush()

	return cols
}

// columnName is the alias of a projection item, or its source text.
func columnName(query string, item []lexer.Token) string {
	if n := len(item); n >= 2 && isKeyword(item[n-2], "AS") {
		return unquoteIdent(item[n-1].Value)
	}

	first, last := item[0], item[len(item)-1]

	return query[first.Pos.Offset : last.Pos.Offset+len(last.Value)]
}

func directive(tok lexer.Token) (Directive, bool) {
	body, ok := strings.CutPrefix(tok.Value, "//")
	if !ok {
		return Directive{}, false
	}

	name, value, ok := strings.Cut(strings.TrimSpace(body), ":")
	if !ok || name == "" || strings.IndexFunc(name, func(r rune) bool { return !isIdentContinue(r) && r != '-' }) >= 0 {
		return Directive{}, false
	}

	return Directive{Name: strings.ToLower(name), Value: strings.TrimSpace(value), Line: tok.Pos.Line}, true
}

func paramName(s string) string {
	return unquoteIdent(strings.TrimPrefix(s, "$"))
}

func unquoteIdent(s string) string {
	if len(s) >= 2 && s[0] == '`' && s[len(s)-1] == '`' {
		return strings.ReplaceAll(s[1:len(s)-1], "``", "`")
	}

	return s
}

func isKeyword(tok lexer.Token, kw string) bool {
	return tok.Type == tIdent && strings.EqualFold(tok.Value, kw)
}

// Split breaks a script into statements on top-level semicolons. Comments
// stay with the statement that follows them; blank statements are dropped.
// A script that fails to lex is returned whole so the server reports the error.
func Split(script string) []string {
	tokens, err := tokenize(script)
	if err != nil {
		if s := strings.TrimSpace(script); s != "" {
			return []string{s}
		}

		return nil
	}

	var (
		out   []string
		start int
		code  bool
	)

	add := func(end int) {
		if code {
			out = append(out, strings.TrimSpace(script[start:end]))
		}
	}

	for _, tok := range tokens {
		switch tok.Type {
		case tSemi:
			add(tok.Pos.Offset)
			start = tok.Pos.Offset + len(tok.Value)
			code = false
		case tWhitespace, tComment:
		default:
			code = true
		}
	}

	add(len(script))

	return out
}
