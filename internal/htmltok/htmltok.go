// Package htmltok is a small strict HTML tokenizer. Unlike
// golang.org/x/net/html it never repairs input: a malformed tag, attribute
// or comment stops tokenization with an error.
package htmltok

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	ErrUnexpectedEOF    = errors.New("unexpected end of input")
	ErrInvalidTag       = errors.New("invalid HTML tag")
	ErrInvalidAttribute = errors.New("invalid HTML attribute")
	ErrMalformedComment = errors.New("malformed HTML comment")
)

// SyntaxError records where tokenization failed. It unwraps to one of the
// Err* sentinels.
type SyntaxError struct {
	Offset int // byte offset of the '<' that opened the bad token
	Err    error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("htmltok: %v at offset %d", e.Err, e.Offset)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// Kind identifies the type of a Token.
type Kind int

const (
	Doctype Kind = iota
	StartTag
	EndTag
	Text
	Comment
)

func (k Kind) String() string {
	switch k {
	case Doctype:
		return "Doctype"
	case StartTag:
		return "StartTag"
	case EndTag:
		return "EndTag"
	case Text:
		return "Text"
	case Comment:
		return "Comment"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Attribute is a name="value" pair. A bare attribute has an empty Value.
type Attribute struct {
	Name  string
	Value string
}

// Token is one lexical unit. Name is set for tags; Data holds the content
// of doctype, text and comment tokens.
type Token struct {
	Kind        Kind
	Name        string
	Attributes  []Attribute
	SelfClosing bool
	Data        string
}

// Attr returns the value of the first attribute called name.
func (t Token) Attr(name string) (string, bool) {
	for _, a := range t.Attributes {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

func (t Token) String() string {
	switch t.Kind {
	case StartTag:
		var sb strings.Builder
		sb.WriteByte('<')
		sb.WriteString(t.Name)
		for _, a := range t.Attributes {
			sb.WriteByte(' ')
			sb.WriteString(a.Name)
			if a.Value != "" {
				fmt.Fprintf(&sb, "=%q", a.Value)
			}
		}
		if t.SelfClosing {
			sb.WriteString(" /")
		}
		sb.WriteByte('>')
		return sb.String()
	case EndTag:
		return "</" + t.Name + ">"
	case Doctype:
		return "<!" + t.Data + ">"
	case Comment:
		return "<!--" + t.Data + "-->"
	default:
		return t.Data
	}
}

// Tokenizer reads tokens from a string. Whitespace before every token is
// skipped, so Text tokens never start with whitespace. After an error every
// later call to Next returns the same error.
type Tokenizer struct {
	input string
	pos   int
	err   error
}

// New returns a Tokenizer over input.
func New(input string) *Tokenizer {
	return &Tokenizer{input: input}
}

// Offset returns the byte offset of the next unread input.
func (z *Tokenizer) Offset() int { return z.pos }

// Next returns the next token, or io.EOF when the input is exhausted.
func (z *Tokenizer) Next() (Token, error) {
	if z.err != nil {
		return Token{}, z.err
	}

	z.skipSpace()
	if z.eof() {
		z.err = io.EOF
		return Token{}, io.EOF
	}

	start := z.pos
	var (
		tok Token
		err error
	)
	if z.peek(0) == '<' {
		z.pos++
		tok, err = z.tag()
	} else {
		tok = Token{Kind: Text, Data: z.until(func(c rune) bool { return c == '<' })}
	}
	if err != nil {
		z.err = &SyntaxError{Offset: start, Err: err}
		return Token{}, z.err
	}
	return tok, nil
}

// All tokenizes input completely. On error it returns the tokens read
// before the failure along with the error.
func All(input string) ([]Token, error) {
	z := New(input)
	var tokens []Token
	for {
		tok, err := z.Next()
		if err == io.EOF {
			return tokens, nil
		}
		if err != nil {
			return tokens, err
		}
		tokens = append(tokens, tok)
	}
}

func (z *Tokenizer) tag() (Token, error) {
	switch z.peek(0) {
	case '!':
		z.pos++
		if z.peek(0) == '-' {
			if z.peek(1) != '-' {
				return Token{}, ErrMalformedComment
			}
			z.pos += 2
			return z.comment()
		}
		return z.doctype()
	case '/':
		z.pos++
		return z.endTag()
	default:
		return z.startTag()
	}
}

func (z *Tokenizer) doctype() (Token, error) {
	i := strings.IndexByte(z.input[z.pos:], '>')
	if i < 0 {
		z.pos = len(z.input)
		return Token{}, ErrUnexpectedEOF
	}
	data := z.input[z.pos : z.pos+i]
	z.pos += i + 1
	return Token{Kind: Doctype, Data: data}, nil
}

// comment reads up to the first '>' preceded by at least two dashes and
// drops the closing "--".
func (z *Tokenizer) comment() (Token, error) {
	start := z.pos
	dashes := 0
	for !z.eof() {
		c := z.input[z.pos]
		z.pos++
		if c == '>' && dashes >= 2 {
			return Token{Kind: Comment, Data: z.input[start : z.pos-3]}, nil
		}
		if c == '-' {
			dashes++
		} else {
			dashes = 0
		}
	}
	return Token{}, ErrMalformedComment
}

func (z *Tokenizer) startTag() (Token, error) {
	name := z.until(isNameEnd)
	if name == "" {
		return Token{}, ErrInvalidTag
	}

	attrs, err := z.attributes()
	if err != nil {
		return Token{}, err
	}

	z.skipSpace()
	tok := Token{Kind: StartTag, Name: name, Attributes: attrs}
	switch z.peek(0) {
	case '/':
		z.pos++
		if z.peek(0) != '>' {
			return Token{}, ErrInvalidTag
		}
		z.pos++
		tok.SelfClosing = true
	case '>':
		z.pos++
	default:
		return Token{}, ErrInvalidTag
	}
	return tok, nil
}

func (z *Tokenizer) endTag() (Token, error) {
	name := z.until(isNameEnd)
	if name == "" {
		return Token{}, ErrInvalidTag
	}
	z.skipSpace()
	if z.peek(0) != '>' {
		return Token{}, ErrInvalidTag
	}
	z.pos++
	return Token{Kind: EndTag, Name: name}, nil
}

// attributes reads attributes until '>', '/', or a character that cannot
// start an attribute name. The caller decides whether what follows is valid.
func (z *Tokenizer) attributes() ([]Attribute, error) {
	var attrs []Attribute
	for {
		z.skipSpace()
		if c := z.peek(0); c == '>' || c == '/' {
			return attrs, nil
		}

		name := z.until(func(c rune) bool { return isNameEnd(c) || c == '=' })
		if name == "" {
			return attrs, nil
		}

		z.skipSpace()
		if z.peek(0) != '=' {
			attrs = append(attrs, Attribute{Name: name})
			continue
		}
		z.pos++
		z.skipSpace()

		value, err := z.attributeValue()
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, Attribute{Name: name, Value: value})
	}
}

func (z *Tokenizer) attributeValue() (string, error) {
	q := z.peek(0)
	if q != '"' && q != '\'' {
		return z.until(isNameEnd), nil
	}
	z.pos++
	i := strings.IndexRune(z.input[z.pos:], q)
	if i < 0 {
		z.pos = len(z.input)
		return "", ErrInvalidAttribute
	}
	value := z.input[z.pos : z.pos+i]
	z.pos += i + 1
	return value, nil
}

func (z *Tokenizer) eof() bool { return z.pos >= len(z.input) }

// peek returns the rune at offset runes ahead, or -1 past the end.
func (z *Tokenizer) peek(offset int) rune {
	pos := z.pos
	for {
		if pos >= len(z.input) {
			return -1
		}
		c, size := utf8.DecodeRuneInString(z.input[pos:])
		if offset == 0 {
			return c
		}
		offset--
		pos += size
	}
}

// until consumes runes up to, not including, the first rune matching stop.
func (z *Tokenizer) until(stop func(rune) bool) string {
	start := z.pos
	for z.pos < len(z.input) {
		c, size := utf8.DecodeRuneInString(z.input[z.pos:])
		if stop(c) {
			break
		}
		z.pos += size
	}
	return z.input[start:z.pos]
}

func (z *Tokenizer) skipSpace() {
	z.until(func(c rune) bool { return !unicode.IsSpace(c) })
}

func isNameEnd(c rune) bool {
	return unicode.IsSpace(c) || c == '>' || c == '/'
}
