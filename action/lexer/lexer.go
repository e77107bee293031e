// Package lexer tokenizes semantic action bodies. It only needs to be precise
// enough to tell code apart from string, template, comment and regular
// expression literals, so that symbol references ($1, @2, $name, $$, @$) are
// recognized in code context only. All non-reference tokens carry their exact
// source text; concatenating token values reproduces the input.
package lexer

import (
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pattyshack/gt/parseutil"
)

type SymbolId int

const (
	SpacesToken = SymbolId(iota + 256)
	LineCommentToken
	BlockCommentToken
	IdentifierToken
	NumberToken
	StringLiteralToken
	TemplateChunkToken
	RegexpLiteralToken
	PunctuatorToken

	ValueRefToken          // $1, $name
	LocationRefToken       // @1, @name
	ResultRefToken         // $$
	ResultLocationRefToken // @$
	MalformedRefToken
)

func (id SymbolId) String() string {
	switch id {
	case SpacesToken:
		return "SPACES"
	case LineCommentToken:
		return "LINE_COMMENT"
	case BlockCommentToken:
		return "BLOCK_COMMENT"
	case IdentifierToken:
		return "IDENTIFIER"
	case NumberToken:
		return "NUMBER"
	case StringLiteralToken:
		return "STRING_LITERAL"
	case TemplateChunkToken:
		return "TEMPLATE_CHUNK"
	case RegexpLiteralToken:
		return "REGEXP_LITERAL"
	case PunctuatorToken:
		return "PUNCTUATOR"
	case ValueRefToken:
		return "VALUE_REF"
	case LocationRefToken:
		return "LOCATION_REF"
	case ResultRefToken:
		return "RESULT_REF"
	case ResultLocationRefToken:
		return "RESULT_LOCATION_REF"
	case MalformedRefToken:
		return "MALFORMED_REF"
	}
	return fmt.Sprintf("?unknown symbol %d?", int(id))
}

func (id SymbolId) IsReference() bool {
	return ValueRefToken <= id && id <= MalformedRefToken
}

type Token = parseutil.TokenValue[SymbolId]

var (
	// Keywords after which a '/' starts a regular expression literal rather
	// than a division.
	regexpPrefixKeywords = map[string]struct{}{
		"return":     {},
		"typeof":     {},
		"instanceof": {},
		"in":         {},
		"of":         {},
		"new":        {},
		"delete":     {},
		"void":       {},
		"throw":      {},
		"case":       {},
		"do":         {},
		"else":       {},
		"yield":      {},
		"await":      {},
	}
)

type Lexer struct {
	parseutil.BufferedByteLocationReader

	// Brace depth of every open template substitution (`...${ ... }...`),
	// innermost last.
	templateDepths []int

	// Last significant (non-space, non-comment) token.
	prevId    SymbolId
	prevValue string
}

func NewLexer(reader parseutil.BufferedByteLocationReader) *Lexer {
	return &Lexer{
		BufferedByteLocationReader: reader,
	}
}

func NewLexerFromString(name string, code string) *Lexer {
	return NewLexer(
		parseutil.NewBufferedByteLocationReaderFromSlice(name, []byte(code)))
}

func (lexer *Lexer) CurrentLocation() parseutil.Location {
	return lexer.Location
}

func (lexer *Lexer) peekByte(offset int) (byte, bool, error) {
	peeked, err := lexer.Peek(offset + 1)
	if len(peeked) > offset {
		return peeked[offset], true, nil
	}
	if err == io.EOF {
		err = nil
	}
	return 0, false, err
}

func (lexer *Lexer) consume(builder *strings.Builder, size int) error {
	peeked, err := lexer.Peek(size)
	if len(peeked) < size {
		if err == nil || err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return err
	}

	builder.Write(peeked[:size])

	_, err = lexer.Discard(size)
	return err
}

func (lexer *Lexer) token(
	id SymbolId,
	start parseutil.Location,
	value string,
) *Token {
	switch id {
	case SpacesToken, LineCommentToken, BlockCommentToken:
	default:
		lexer.prevId = id
		lexer.prevValue = value
	}

	return &Token{
		SymbolId:    id,
		StartEndPos: parseutil.NewStartEndPos(start, lexer.Location),
		Value:       value,
	}
}

func (lexer *Lexer) regexpAllowed() bool {
	switch lexer.prevId {
	case 0:
		return true
	case PunctuatorToken:
		switch lexer.prevValue {
		// Postfix ++ / -- end an expression. The prefix forms cannot be
		// followed by a regexp literal in valid code.
		case ")", "]", "}", "++", "--":
			return false
		}
		return true
	case TemplateChunkToken:
		return strings.HasSuffix(lexer.prevValue, "${")
	case IdentifierToken:
		_, ok := regexpPrefixKeywords[lexer.prevValue]
		return ok
	}
	return false
}

func (lexer *Lexer) Next() (*Token, error) {
	char, ok, err := lexer.peekByte(0)
	if err != nil {
		return nil, err
	}

	if !ok {
		if len(lexer.templateDepths) > 0 {
			return nil, parseutil.NewLocationError(
				lexer.Location,
				"template literal not terminated")
		}
		return nil, io.EOF
	}

	switch {
	case isSpace(char):
		return lexer.lexSpaces()
	case char == '$' || char == '@':
		return lexer.lexReference(char)
	case isIdentifierStart(char):
		return lexer.lexIdentifier()
	case isDigit(char):
		return lexer.lexNumber()
	}

	switch char {
	case '.':
		next, _, err := lexer.peekByte(1)
		if err != nil {
			return nil, err
		}
		if isDigit(next) {
			return lexer.lexNumber()
		}
	case '"', '\'':
		return lexer.lexStringLiteral(char)
	case '`':
		return lexer.lexTemplateChunk()
	case '/':
		next, _, err := lexer.peekByte(1)
		if err != nil {
			return nil, err
		}
		if next == '/' {
			return lexer.lexLineComment()
		} else if next == '*' {
			return lexer.lexBlockComment()
		} else if lexer.regexpAllowed() {
			return lexer.lexRegexpLiteral()
		}
	case '+', '-':
		next, _, err := lexer.peekByte(1)
		if err != nil {
			return nil, err
		}
		if next == char { // ++ / --
			start := lexer.Location
			builder := &strings.Builder{}
			err = lexer.consume(builder, 2)
			if err != nil {
				return nil, err
			}
			return lexer.token(PunctuatorToken, start, builder.String()), nil
		}
	case '{':
		if len(lexer.templateDepths) > 0 {
			lexer.templateDepths[len(lexer.templateDepths)-1]++
		}
	case '}':
		if len(lexer.templateDepths) > 0 {
			top := len(lexer.templateDepths) - 1
			if lexer.templateDepths[top] == 0 {
				return lexer.lexTemplateChunk()
			}
			lexer.templateDepths[top]--
		}
	}

	if char >= utf8.RuneSelf {
		return lexer.lexNonAscii()
	}

	start := lexer.Location
	builder := &strings.Builder{}
	err = lexer.consume(builder, 1)
	if err != nil {
		return nil, err
	}

	return lexer.token(PunctuatorToken, start, builder.String()), nil
}

func (lexer *Lexer) lexSpaces() (*Token, error) {
	start := lexer.Location
	builder := &strings.Builder{}
	for {
		char, ok, err := lexer.peekByte(0)
		if err != nil {
			return nil, err
		}
		if !ok || !isSpace(char) {
			break
		}

		err = lexer.consume(builder, 1)
		if err != nil {
			return nil, err
		}
	}

	return lexer.token(SpacesToken, start, builder.String()), nil
}

// lexReference lexes $$, @$, $N, @N, $name and @name. A sigil that is not
// followed by any of these is returned as a MalformedRefToken.
func (lexer *Lexer) lexReference(sigil byte) (*Token, error) {
	start := lexer.Location
	builder := &strings.Builder{}
	err := lexer.consume(builder, 1)
	if err != nil {
		return nil, err
	}

	valueId := ValueRefToken
	resultId := ResultRefToken
	if sigil == '@' {
		valueId = LocationRefToken
		resultId = ResultLocationRefToken
	}

	next, ok, err := lexer.peekByte(0)
	if err != nil {
		return nil, err
	}

	if !ok {
		return lexer.token(MalformedRefToken, start, builder.String()), nil
	}

	if next == '$' {
		err = lexer.consume(builder, 1)
		if err != nil {
			return nil, err
		}
		return lexer.token(resultId, start, builder.String()), nil
	}

	if isDigit(next) {
		err = lexer.consumeWhile(builder, isDigit)
		if err != nil {
			return nil, err
		}

		next, ok, err = lexer.peekByte(0)
		if err != nil {
			return nil, err
		}
		if ok && isIdentifierChar(next) { // e.g. $1a
			err = lexer.consumeWhile(builder, isIdentifierChar)
			if err != nil {
				return nil, err
			}
			return lexer.token(MalformedRefToken, start, builder.String()), nil
		}

		return lexer.token(valueId, start, builder.String()), nil
	}

	if isIdentifierStart(next) {
		err = lexer.consumeWhile(builder, isSymbolNameChar)
		if err != nil {
			return nil, err
		}
		return lexer.token(valueId, start, builder.String()), nil
	}

	return lexer.token(MalformedRefToken, start, builder.String()), nil
}

func (lexer *Lexer) consumeWhile(
	builder *strings.Builder,
	accept func(byte) bool,
) error {
	for {
		char, ok, err := lexer.peekByte(0)
		if err != nil {
			return err
		}
		if !ok || !accept(char) {
			return nil
		}

		err = lexer.consume(builder, 1)
		if err != nil {
			return err
		}
	}
}

func (lexer *Lexer) lexIdentifier() (*Token, error) {
	start := lexer.Location
	builder := &strings.Builder{}
	for {
		peeked, err := lexer.Peek(utf8.UTFMax)
		if len(peeked) > 0 && err == io.EOF {
			err = nil
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}

		char := peeked[0]
		if char < utf8.RuneSelf {
			if !isIdentifierChar(char) {
				break
			}
			err = lexer.consume(builder, 1)
		} else {
			value, size := utf8.DecodeRune(peeked)
			if value == utf8.RuneError ||
				!(unicode.IsLetter(value) || unicode.IsDigit(value)) {
				break
			}
			err = lexer.consume(builder, size)
		}
		if err != nil {
			return nil, err
		}
	}

	return lexer.token(IdentifierToken, start, builder.String()), nil
}

func (lexer *Lexer) lexNonAscii() (*Token, error) {
	start := lexer.Location
	peeked, err := lexer.Peek(utf8.UTFMax)
	if len(peeked) > 0 && err == io.EOF {
		err = nil
	}
	if err != nil {
		return nil, err
	}

	value, size := utf8.DecodeRune(peeked)
	if value == utf8.RuneError && size <= 1 {
		return nil, parseutil.NewLocationError(start, "unexpected utf8 rune")
	}

	if unicode.IsLetter(value) {
		return lexer.lexIdentifier()
	}

	builder := &strings.Builder{}
	err = lexer.consume(builder, size)
	if err != nil {
		return nil, err
	}
	return lexer.token(PunctuatorToken, start, builder.String()), nil
}

// lexNumber accepts decimal, hex/octal/binary, fractional, exponent and
// bigint forms loosely; the token only matters for regexp detection.
func (lexer *Lexer) lexNumber() (*Token, error) {
	start := lexer.Location
	builder := &strings.Builder{}
	for {
		char, ok, err := lexer.peekByte(0)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}

		value := builder.String()
		isSign := (char == '+' || char == '-') &&
			(strings.HasSuffix(value, "e") || strings.HasSuffix(value, "E")) &&
			!strings.HasPrefix(value, "0x") &&
			!strings.HasPrefix(value, "0X")

		if !isIdentifierChar(char) && char != '.' && !isSign {
			break
		}

		err = lexer.consume(builder, 1)
		if err != nil {
			return nil, err
		}
	}

	return lexer.token(NumberToken, start, builder.String()), nil
}

func (lexer *Lexer) lexStringLiteral(quote byte) (*Token, error) {
	start := lexer.Location
	builder := &strings.Builder{}
	err := lexer.consume(builder, 1)
	if err != nil {
		return nil, err
	}

	for {
		char, ok, err := lexer.peekByte(0)
		if err != nil {
			return nil, err
		}
		if !ok || char == '\n' {
			return nil, parseutil.NewLocationError(
				start,
				"string literal not terminated")
		}

		size := 1
		if char == '\\' {
			size = 2
		}

		err = lexer.consume(builder, size)
		if err == io.ErrUnexpectedEOF {
			return nil, parseutil.NewLocationError(
				start,
				"string literal not terminated")
		} else if err != nil {
			return nil, err
		}

		if char == quote {
			return lexer.token(StringLiteralToken, start, builder.String()), nil
		}
	}
}

// lexTemplateChunk lexes the literal part of a template string. The chunk
// starts either at the opening backtick or at the '}' closing a substitution,
// and ends either at the closing backtick or right after a '${'.
func (lexer *Lexer) lexTemplateChunk() (*Token, error) {
	start := lexer.Location
	builder := &strings.Builder{}

	opening, _, err := lexer.peekByte(0)
	if err != nil {
		return nil, err
	}

	err = lexer.consume(builder, 1)
	if err != nil {
		return nil, err
	}

	for {
		char, ok, err := lexer.peekByte(0)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, parseutil.NewLocationError(
				start,
				"template literal not terminated")
		}

		switch char {
		case '\\':
			err = lexer.consume(builder, 2)
			if err == io.ErrUnexpectedEOF {
				return nil, parseutil.NewLocationError(
					start,
					"template literal not terminated")
			}
		case '`':
			err = lexer.consume(builder, 1)
			if err == nil && opening == '}' {
				lexer.templateDepths = lexer.templateDepths[
					:len(lexer.templateDepths)-1]
			}
			if err != nil {
				return nil, err
			}
			return lexer.token(TemplateChunkToken, start, builder.String()), nil
		case '$':
			next, _, err := lexer.peekByte(1)
			if err != nil {
				return nil, err
			}
			if next != '{' {
				err = lexer.consume(builder, 1)
				break
			}

			err = lexer.consume(builder, 2)
			if err != nil {
				return nil, err
			}
			if opening == '`' {
				lexer.templateDepths = append(lexer.templateDepths, 0)
			}
			return lexer.token(TemplateChunkToken, start, builder.String()), nil
		default:
			err = lexer.consume(builder, 1)
		}

		if err != nil {
			return nil, err
		}
	}
}

func (lexer *Lexer) lexLineComment() (*Token, error) {
	start := lexer.Location
	builder := &strings.Builder{}
	err := lexer.consumeWhile(
		builder,
		func(char byte) bool { return char != '\n' })
	if err != nil {
		return nil, err
	}

	return lexer.token(LineCommentToken, start, builder.String()), nil
}

func (lexer *Lexer) lexBlockComment() (*Token, error) {
	start := lexer.Location
	builder := &strings.Builder{}
	err := lexer.consume(builder, 2)
	if err != nil {
		return nil, err
	}

	for {
		char, ok, err := lexer.peekByte(0)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, parseutil.NewLocationError(
				start,
				"block comment not terminated")
		}

		if char == '*' {
			next, _, err := lexer.peekByte(1)
			if err != nil {
				return nil, err
			}
			if next == '/' {
				err = lexer.consume(builder, 2)
				if err != nil {
					return nil, err
				}
				return lexer.token(BlockCommentToken, start, builder.String()), nil
			}
		}

		err = lexer.consume(builder, 1)
		if err != nil {
			return nil, err
		}
	}
}

func (lexer *Lexer) lexRegexpLiteral() (*Token, error) {
	start := lexer.Location
	builder := &strings.Builder{}
	err := lexer.consume(builder, 1)
	if err != nil {
		return nil, err
	}

	inClass := false
	for {
		char, ok, err := lexer.peekByte(0)
		if err != nil {
			return nil, err
		}
		if !ok || char == '\n' {
			return nil, parseutil.NewLocationError(
				start,
				"regular expression literal not terminated")
		}

		size := 1
		if char == '\\' {
			size = 2
		}

		err = lexer.consume(builder, size)
		if err == io.ErrUnexpectedEOF {
			return nil, parseutil.NewLocationError(
				start,
				"regular expression literal not terminated")
		} else if err != nil {
			return nil, err
		}

		if char == '[' {
			inClass = true
		} else if char == ']' {
			inClass = false
		} else if char == '/' && !inClass {
			break
		}
	}

	// flags
	err = lexer.consumeWhile(builder, isIdentifierChar)
	if err != nil {
		return nil, err
	}

	return lexer.token(RegexpLiteralToken, start, builder.String()), nil
}

func isSpace(char byte) bool {
	switch char {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

func isDigit(char byte) bool {
	return '0' <= char && char <= '9'
}

func isIdentifierStart(char byte) bool {
	return ('a' <= char && char <= 'z') ||
		('A' <= char && char <= 'Z') ||
		char == '_'
}

// Symbol names in references never contain '$'.
func isSymbolNameChar(char byte) bool {
	return isIdentifierStart(char) || isDigit(char)
}

// '$' and '@' directly following an identifier character belong to the
// identifier, e.g. a$1.
func isIdentifierChar(char byte) bool {
	return isSymbolNameChar(char) || char == '$' || char == '@'
}
