package runner

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/expr-lang/expr"

	cyphergremlin "github.com/rlch/cypher-gremlin"
	"github.com/rlch/cypher-gremlin/cypher"
)

// Directives understood in script comments.
const (
	DirectiveName    = "name"
	DirectiveExpect  = cypher.DirectiveExpect
	DirectiveParam   = "param"
	DirectiveTimeout = "timeout"
	DirectiveGraph   = "graph"
	DirectiveSkip    = "skip"
)

// Script is one statement with the expectations checked against its rows.
type Script struct {
	Name      string
	File      string
	Line      int
	Statement cyphergremlin.Statement
	Expects   []string
	Skip      string
}

// NewScript creates an inline script.
func NewScript(name string, stmt cyphergremlin.Statement, expects ...string) Script {
	return Script{Name: name, Statement: stmt, Expects: expects}
}

// ParseScripts splits a .cypher file into scripts. Comment directives above
// or inside a statement configure it:
//
//	// name: all names
//	// param: name = "marko"
//	// timeout: 5s
//	// expect: count == 6
//	MATCH (n) RETURN n.name;
//
// Param values are expr expressions. Unnamed scripts are named after their line.
func ParseScripts(file, src string) ([]Script, error) {
	var (
		scripts []Script
		cursor  int
	)

	for _, text := range cypher.Split(src) {
		offset := cursor + strings.Index(src[cursor:], text)
		cursor = offset + len(text)
		line := 1 + strings.Count(src[:offset], "\n")

		info, err := cypher.Scan(text)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", file, line, err)
		}

		sc, err := scriptFromInfo(file, line, text, info)
		if err != nil {
			return nil, err
		}

		scripts = append(scripts, sc)
	}

	return scripts, nil
}

func scriptFromInfo(file string, line int, text string, info *cypher.Info) (Script, error) {
	sc := Script{
		Name:      "line " + strconv.Itoa(line),
		File:      file,
		Line:      line,
		Statement: cyphergremlin.NewStatement(text),
	}

	for _, d := range info.Directives {
		at := fmt.Sprintf("%s:%d", file, line+d.Line-1)

		switch d.Name {
		case DirectiveName:
			sc.Name = d.Value
		case DirectiveExpect:
			sc.Expects = append(sc.Expects, d.Value)
		case DirectiveSkip:
			sc.Skip = d.Value
			if sc.Skip == "" {
				sc.Skip = "skipped"
			}
		case DirectiveGraph:
			sc.Statement = sc.Statement.WithGraph(d.Value)
		case DirectiveTimeout:
			timeout, err := time.ParseDuration(d.Value)
			if err != nil {
				return Script{}, fmt.Errorf("%w: %s: timeout: %w", ErrInvalidDirective, at, err)
			}

			sc.Statement = sc.Statement.WithTimeout(timeout)
		case DirectiveParam:
			name, value, err := parseParam(d.Value)
			if err != nil {
				return Script{}, fmt.Errorf("%w: %s: param: %w", ErrInvalidDirective, at, err)
			}

			sc.Statement = sc.Statement.WithParameter(name, value)
		}
	}

	return sc, nil
}

// parseParam reads `name = <expr>`.
func parseParam(s string) (string, any, error) {
	name, src, ok := strings.Cut(s, "=")
	name = strings.TrimPrefix(strings.TrimSpace(name), "$")

	if !ok || name == "" {
		return "", nil, fmt.Errorf("want name = value, got %q", s)
	}

	value, err := ParseValue(src)
	if err != nil {
		return "", nil, err
	}

	return name, value, nil
}

// ParseValue evaluates a literal expression such as `"marko"`, `29` or
// `["a", "b"]`. Names are not resolved. Ints become int64.
func ParseValue(src string) (any, error) {
	env := map[string]any{}

	program, err := expr.Compile(strings.TrimSpace(src), expr.Env(env))
	if err != nil {
		return nil, err
	}

	value, err := expr.Run(program, env)
	if err != nil {
		return nil, err
	}

	if i, ok := value.(int); ok {
		value = int64(i)
	}

	return value, nil
}
