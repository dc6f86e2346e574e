package cypher

import (
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/alecthomas/participle/v2/lexer"
)

// Token type constants - negative values as per participle convention.
const (
	tEOF         lexer.TokenType = lexer.EOF
	tComment     lexer.TokenType = -(iota + 2) //nolint:mnd // participle convention
	tString                                    // 'single' or "double" quoted
	tQuotedIdent                               // `backtick quoted`
	tNumber                                    // all number formats
	tIdent                                     // identifiers and keywords
	tParam                                     // $name, $0, $`name`
	tOp                                        // operators
	tDot                                       // .
	tColon                                     // :
	tComma                                     // ,
	tSemi                                      // ;
	tLParen                                    // (
	tRParen                                    // )
	tLBracket                                  // [
	tRBracket                                  // ]
	tLBrace                                    // {
	tRBrace                                    // }
	tWhitespace                                // spaces, tabs, newlines
)

// Lexer errors.
var (
	ErrUnterminatedString  = &LexerError{msg: "unterminated string"}
	ErrUnterminatedIdent   = &LexerError{msg: "unterminated quoted identifier"}
	ErrUnterminatedComment = &LexerError{msg: "unterminated comment"}
	ErrUnexpectedCharacter = &LexerError{msg: "unexpected character"}
)

// LexerError represents a lexer error with position.
type LexerError struct {
	msg string
	pos lexer.Position
	ch  rune
}

func (e *LexerError) Error() string {
	if e.ch != 0 {
		return "cypher: " + e.pos.String() + ": " + e.msg + ": " + string(e.ch)
	}

	return "cypher: " + e.pos.String() + ": " + e.msg
}

// Is matches the sentinel the error was derived from.
func (e *LexerError) Is(target error) bool {
	t, ok := target.(*LexerError)

	return ok && t.msg == e.msg
}

// Pos returns where the error occurred.
func (e *LexerError) Pos() lexer.Position { return e.pos }

func (e *LexerError) withPos(pos lexer.Position) *LexerError {
	return &LexerError{msg: e.msg, pos: pos, ch: e.ch}
}

func (e *LexerError) withChar(ch rune) *LexerError {
	return &LexerError{msg: e.msg, pos: e.pos, ch: ch}
}

// definition implements lexer.Definition for Cypher.
type definition struct {
	symbols map[string]lexer.TokenType
}

// Lexer is the participle lexer definition for Cypher statements.
var Lexer lexer.Definition = newDefinition()

func newDefinition() *definition {
	return &definition{
		symbols: map[string]lexer.TokenType{
			"EOF":         tEOF,
			"Comment":     tComment,
			"String":      tString,
			"QuotedIdent": tQuotedIdent,
			"Number":      tNumber,
			"Ident":       tIdent,
			"Param":       tParam,
			"Op":          tOp,
			"Dot":         tDot,
			"Colon":       tColon,
			"Comma":       tComma,
			"Semi":        tSemi,
			"Whitespace":  tWhitespace,
			"(":           tLParen,
			")":           tRParen,
			"[":           tLBracket,
			"]":           tRBracket,
			"{":           tLBrace,
			"}":           tRBrace,
		},
	}
}

// Symbols returns the mapping of symbol names to token types.
func (d *definition) Symbols() map[string]lexer.TokenType {
	return d.symbols
}

// Lex creates a new Lexer for the given reader.
//
//nolint:ireturn // Required by participle's lexer.Definition interface.
func (d *definition) Lex(filename string, r io.Reader) (lexer.Lexer, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	return newLexerState(filename, string(data)), nil
}

// LexString implements lexer.StringDefinition.
//
//nolint:ireturn // Required by participle's lexer.StringDefinition interface.
func (d *definition) LexString(filename string, input string) (lexer.Lexer, error) {
	return newLexerState(filename, input), nil
}

// tokenize lexes the whole input through Lexer, whitespace and comments
// included. The trailing EOF token is dropped.
func tokenize(input string) ([]lexer.Token, error) {
	l, err := Lexer.(lexer.StringDefinition).LexString("", input) //nolint:forcetypeassert // definition implements it
	if err != nil {
		return nil, err
	}

	tokens, err := lexer.ConsumeAll(l)
	if err != nil {
		return nil, err
	}

	return tokens[:len(tokens)-1], nil
}

type lexerState struct {
	filename string
	input    string
	offset   int
	line     int
	col      int
}

func newLexerState(filename, input string) *lexerState {
	return &lexerState{
		filename: filename,
		input:    input,
		line:     1,
		col:      1,
	}
}

// Next returns the next token.
func (l *lexerState) Next() (lexer.Token, error) {
	if l.eof() {
		return lexer.EOFToken(l.pos()), nil
	}

	start := l.pos()
	r := l.peek()

	if isSpace(r) {
		for !l.eof() && isSpace(l.peek()) {
			l.advance()
		}

		return l.token(tWhitespace, start), nil
	}

	if r == '/' && l.peekAt(1) == '/' {
		for !l.eof() && l.peek() != '\n' {
			l.advance()
		}

		return l.token(tComment, start), nil
	}

	if r == '/' && l.peekAt(1) == '*' {
		return l.scanBlockComment(start)
	}

	if r == '`' {
		return l.scanQuotedIdent(start, tQuotedIdent)
	}

	if r == '"' || r == '\'' {
		return l.scanString(start, r)
	}

	if isDigit(r) {
		return l.scanNumber(start), nil
	}

	if r == '$' {
		l.advance()

		if l.peek() == '`' {
			return l.scanQuotedIdent(start, tParam)
		}

		for !l.eof() && isIdentContinue(l.peek()) {
			l.advance()
		}

		return l.token(tParam, start), nil
	}

	if isIdentStart(r) {
		l.advance()

		for !l.eof() && isIdentContinue(l.peek()) {
			l.advance()
		}

		return l.token(tIdent, start), nil
	}

	if tok, ok := l.scanMultiCharOp(start); ok {
		return tok, nil
	}

	l.advance()

	switch r {
	case '.':
		return l.token(tDot, start), nil
	case ':':
		return l.token(tColon, start), nil
	case ',':
		return l.token(tComma, start), nil
	case ';':
		return l.token(tSemi, start), nil
	case '(':
		return l.token(tLParen, start), nil
	case ')':
		return l.token(tRParen, start), nil
	case '[':
		return l.token(tLBracket, start), nil
	case ']':
		return l.token(tRBracket, start), nil
	case '{':
		return l.token(tLBrace, start), nil
	case '}':
		return l.token(tRBrace, start), nil
	}

	if strings.ContainsRune("+-*/%^<>=|", r) {
		return l.token(tOp, start), nil
	}

	return lexer.Token{}, ErrUnexpectedCharacter.withPos(start).withChar(r)
}

func (l *lexerState) pos() lexer.Position {
	return lexer.Position{
		Filename: l.filename,
		Offset:   l.offset,
		Line:     l.line,
		Column:   l.col,
	}
}

func (l *lexerState) eof() bool {
	return l.offset >= len(l.input)
}

func (l *lexerState) peek() rune {
	if l.eof() {
		return 0
	}

	r, _ := utf8.DecodeRuneInString(l.input[l.offset:])

	return r
}

func (l *lexerState) peekAt(n int) rune {
	off := l.offset + n
	if off >= len(l.input) {
		return 0
	}

	r, _ := utf8.DecodeRuneInString(l.input[off:])

	return r
}

func (l *lexerState) advance() {
	if l.eof() {
		return
	}

	r, size := utf8.DecodeRuneInString(l.input[l.offset:])
	l.offset += size

	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
}

func (l *lexerState) match(s string) bool {
	return strings.HasPrefix(l.input[l.offset:], s)
}

func (l *lexerState) token(typ lexer.TokenType, start lexer.Position) lexer.Token {
	return lexer.Token{
		Type:  typ,
		Value: l.input[start.Offset:l.offset],
		Pos:   start,
	}
}

func (l *lexerState) scanBlockComment(start lexer.Position) (lexer.Token, error) {
	l.advance() // /
	l.advance() // *

	for !l.eof() {
		if l.match("*/") {
			l.advance()
			l.advance()

			return l.token(tComment, start), nil
		}

		l.advance()
	}

	return lexer.Token{}, ErrUnterminatedComment.withPos(start)
}

// scanQuotedIdent reads a backtick-quoted name. A doubled backtick escapes one.
func (l *lexerState) scanQuotedIdent(start lexer.Position, typ lexer.TokenType) (lexer.Token, error) {
	l.advance() // opening `

	for !l.eof() {
		if l.peek() == '`' {
			l.advance()

			if l.peek() == '`' {
				l.advance()

				continue
			}

			return l.token(typ, start), nil
		}

		l.advance()
	}

	return lexer.Token{}, ErrUnterminatedIdent.withPos(start)
}

func (l *lexerState) scanString(start lexer.Position, quote rune) (lexer.Token, error) {
	l.advance() // opening quote

	for !l.eof() {
		ch := l.peek()
		if ch == '\\' && l.peekAt(1) != 0 {
			l.advance()
			l.advance()

			continue
		}

		if ch == quote {
			l.advance()

			return l.token(tString, start), nil
		}

		l.advance()
	}

	return lexer.Token{}, ErrUnterminatedString.withPos(start)
}

func (l *lexerState) scanMultiCharOp(start lexer.Position) (lexer.Token, bool) {
	multiOps := []string{"<>", "<=", ">=", "=~", "+=", "->", "<-", ".."}

	for _, op := range multiOps {
		if l.match(op) {
			for range len(op) {
				l.advance()
			}

			return l.token(tOp, start), true
		}
	}

	return lexer.Token{}, false
}

func (l *lexerState) scanNumber(start lexer.Position) lexer.Token {
	if l.peek() == '0' {
		switch l.peekAt(1) {
		case 'x', 'X':
			l.advance()
			l.advance()

			for !l.eof() && isHexDigit(l.peek()) {
				l.advance()
			}

			return l.token(tNumber, start)
		case 'o', 'O':
			l.advance()
			l.advance()

			for !l.eof() && isOctalDigit(l.peek()) {
				l.advance()
			}

			return l.token(tNumber, start)
		}
	}

	for !l.eof() && isDigit(l.peek()) {
		l.advance()
	}

	if l.peek() == '.' && isDigit(l.peekAt(1)) {
		l.advance()

		for !l.eof() && isDigit(l.peek()) {
			l.advance()
		}
	}

	if (l.peek() == 'e' || l.peek() == 'E') &&
		(isDigit(l.peekAt(1)) || ((l.peekAt(1) == '+' || l.peekAt(1) == '-') && isDigit(l.peekAt(2)))) {
		l.advance()

		if l.peek() == '+' || l.peek() == '-' {
			l.advance()
		}

		for !l.eof() && isDigit(l.peek()) {
			l.advance()
		}
	}

	return l.token(tNumber, start)
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isHexDigit(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func isOctalDigit(r rune) bool {
	return r >= '0' && r <= '7'
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentContinue(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
