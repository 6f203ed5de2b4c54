package tok

import (
	"fmt"
	"strconv"
	"strings"
)

// Stream is a tokenizer over an already-preprocessed translation unit. It
// scans the whole input eagerly into a token slice so that Addr/Jump are
// plain cursor operations: replaying a function body (C7's two passes) or
// probing an initializer's length (C6) never re-derives tokens, it only
// rewinds an index.
type Stream struct {
	file   string
	src    []byte
	toks   []Token
	cursor int

	lineStart []int // byte offset where each source line begins
}

// New tokenizes src completely and returns a Stream positioned at the
// first token.
func New(file string, src []byte) (*Stream, error) {
	s := &Stream{file: file, src: src}
	s.buildLineIndex()
	if err := s.scanAll(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Stream) buildLineIndex() {
	s.lineStart = append(s.lineStart, 0)
	for i, b := range s.src {
		if b == '\n' {
			s.lineStart = append(s.lineStart, i+1)
		}
	}
}

// Loc formats a byte offset as "file:line", the cpp_loc contract.
func (s *Stream) Loc(off int) string {
	lo, hi := 0, len(s.lineStart)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if s.lineStart[mid] <= off {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return fmt.Sprintf("%s:%d", s.file, lo+1)
}

// See returns the kind of the current token without consuming it.
func (s *Stream) See() Kind { return s.toks[s.cursor].Kind }

// Cur returns the current token without consuming it.
func (s *Stream) Cur() Token { return s.toks[s.cursor] }

// Get consumes and returns the current token.
func (s *Stream) Get() Token {
	t := s.toks[s.cursor]
	if s.cursor < len(s.toks)-1 {
		s.cursor++
	}
	return t
}

// Jmp consumes the current token if it matches k, returning 0 (matched) or
// non-zero (no match, cursor unchanged), mirroring tok_jmp's C convention.
func (s *Stream) Jmp(k Kind) int {
	if s.See() == k {
		s.Get()
		return 0
	}
	return 1
}

// Expect consumes the current token, requiring it to be of kind k.
func (s *Stream) Expect(k Kind) (Token, error) {
	if s.See() != k {
		return Token{}, fmt.Errorf("%s: syntax error: expected %s, got %s", s.Loc(s.Cur().Pos.Off), k, s.See())
	}
	return s.Get(), nil
}

// Addr returns an opaque cursor value that Jump can later restore to.
func (s *Stream) Addr() int { return s.cursor }

// Jump restores the cursor to a value previously returned by Addr.
func (s *Stream) Jump(addr int) { s.cursor = addr }

// AtEOF reports whether the stream has no more real tokens.
func (s *Stream) AtEOF() bool { return s.See() == EOF }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
func isIdentCont(c byte) bool { return isIdentStart(c) || (c >= '0' && c <= '9') }
func isDigit(c byte) bool     { return c >= '0' && c <= '9' }

func (s *Stream) scanAll() error {
	i := 0
	n := len(s.src)
	for i < n {
		c := s.src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			i++
		case c == '/' && i+1 < n && s.src[i+1] == '/':
			for i < n && s.src[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < n && s.src[i+1] == '*':
			j := i + 2
			for j+1 < n && !(s.src[j] == '*' && s.src[j+1] == '/') {
				j++
			}
			if j+1 >= n {
				return fmt.Errorf("%s: unterminated comment", s.Loc(i))
			}
			i = j + 2
		case isIdentStart(c):
			j := i + 1
			for j < n && isIdentCont(s.src[j]) {
				j++
			}
			text := string(s.src[i:j])
			pos := Pos{File: s.file, Off: i}
			if kw, ok := IsKeyword(text); ok {
				s.toks = append(s.toks, Token{Kind: kw, Text: text, Pos: pos})
			} else {
				s.toks = append(s.toks, Token{Kind: IDENT, Text: text, Pos: pos})
			}
			i = j
		case isDigit(c):
			j, tok, err := s.scanNumber(i)
			if err != nil {
				return err
			}
			s.toks = append(s.toks, tok)
			i = j
		case c == '"':
			j, tok, err := s.scanString(i)
			if err != nil {
				return err
			}
			s.toks = append(s.toks, tok)
			i = j
		case c == '\'':
			j, tok, err := s.scanChar(i)
			if err != nil {
				return err
			}
			s.toks = append(s.toks, tok)
			i = j
		default:
			j, tok, err := s.scanPunct(i)
			if err != nil {
				return err
			}
			s.toks = append(s.toks, tok)
			i = j
		}
	}
	s.toks = append(s.toks, Token{Kind: EOF, Pos: Pos{File: s.file, Off: n}})
	return nil
}

func (s *Stream) scanNumber(i int) (int, Token, error) {
	n := len(s.src)
	j := i
	base := 10
	if s.src[j] == '0' && j+1 < n && (s.src[j+1] == 'x' || s.src[j+1] == 'X') {
		base = 16
		j += 2
		for j < n && isHex(s.src[j]) {
			j++
		}
	} else if s.src[j] == '0' && j+1 < n && isDigit(s.src[j+1]) {
		base = 8
		j++
		for j < n && s.src[j] >= '0' && s.src[j] <= '7' {
			j++
		}
	} else {
		for j < n && isDigit(s.src[j]) {
			j++
		}
	}
	digits := string(s.src[i:j])
	size, signed := 4, true
	for j < n {
		switch s.src[j] {
		case 'u', 'U':
			signed = false
			j++
			continue
		case 'l', 'L':
			size = 8
			j++
			continue
		}
		break
	}
	text := digits
	if base == 16 {
		text = digits[2:]
	}
	v, err := strconv.ParseUint(text, base, 64)
	if err != nil {
		return 0, Token{}, fmt.Errorf("%s: malformed integer literal", s.Loc(i))
	}
	return j, Token{
		Kind: NUMBER, Text: string(s.src[i:j]), Pos: Pos{File: s.file, Off: i},
		IVal: int64(v), Size: size, Signed: signed,
	}, nil
}

func isHex(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func (s *Stream) scanString(i int) (int, Token, error) {
	n := len(s.src)
	j := i + 1
	var b strings.Builder
	for j < n && s.src[j] != '"' {
		if s.src[j] == '\\' && j+1 < n {
			c, adv := unescape(s.src[j:])
			b.WriteByte(c)
			j += adv
			continue
		}
		b.WriteByte(s.src[j])
		j++
	}
	if j >= n {
		return 0, Token{}, fmt.Errorf("%s: unterminated string literal", s.Loc(i))
	}
	j++ // closing quote
	data := append([]byte(b.String()), 0)
	return j, Token{
		Kind: STRING, Text: string(s.src[i:j]), Pos: Pos{File: s.file, Off: i}, Bytes: data,
	}, nil
}

func (s *Stream) scanChar(i int) (int, Token, error) {
	n := len(s.src)
	j := i + 1
	var val byte
	if j < n && s.src[j] == '\\' {
		c, adv := unescape(s.src[j:])
		val = c
		j += adv
	} else if j < n {
		val = s.src[j]
		j++
	}
	if j >= n || s.src[j] != '\'' {
		return 0, Token{}, fmt.Errorf("%s: unterminated character literal", s.Loc(i))
	}
	j++
	return j, Token{
		Kind: NUMBER, Text: string(s.src[i:j]), Pos: Pos{File: s.file, Off: i},
		IVal: int64(int8(val)), Size: 4, Signed: true,
	}, nil
}

// unescape decodes a backslash escape starting at p[0]=='\\' and returns the
// decoded byte and how many input bytes it consumed.
func unescape(p []byte) (byte, int) {
	if len(p) < 2 {
		return '\\', 1
	}
	switch p[1] {
	case 'n':
		return '\n', 2
	case 't':
		return '\t', 2
	case 'r':
		return '\r', 2
	case '0':
		return 0, 2
	case '\\':
		return '\\', 2
	case '\'':
		return '\'', 2
	case '"':
		return '"', 2
	default:
		return p[1], 2
	}
}

type punctRule struct {
	text string
	kind Kind
}

// Longest-match-first punctuation table.
var punctRules = []punctRule{
	{"...", Ellipsis},
	{"<<=", ShlAssign}, {">>=", ShrAssign},
	{"->", Arrow}, {"++", Inc}, {"--", Dec},
	{"<<", Shl}, {">>", Shr}, {"<=", Leq}, {">=", Geq}, {"==", Eq}, {"!=", Neq},
	{"&&", AndAnd}, {"||", OrOr},
	{"+=", AddAssign}, {"-=", SubAssign}, {"*=", MulAssign}, {"/=", DivAssign},
	{"%=", ModAssign}, {"&=", AndAssign}, {"|=", OrAssign}, {"^=", XorAssign},
	{"(", LParen}, {")", RParen}, {"{", LBrace}, {"}", RBrace},
	{"[", LBrack}, {"]", RBrack}, {",", Comma}, {";", Semi}, {":", Colon},
	{"?", Question}, {".", Dot}, {"=", Assign}, {"+", Plus}, {"-", Minus},
	{"*", Star}, {"/", Slash}, {"%", Percent}, {"<", Lt}, {">", Gt},
	{"!", Not}, {"&", Amp}, {"|", Pipe}, {"^", Caret}, {"~", Tilde},
}

func (s *Stream) scanPunct(i int) (int, Token, error) {
	rest := s.src[i:]
	for _, r := range punctRules {
		if strings.HasPrefix(string(rest), r.text) {
			return i + len(r.text), Token{Kind: r.kind, Text: r.text, Pos: Pos{File: s.file, Off: i}}, nil
		}
	}
	return 0, Token{}, fmt.Errorf("%s: syntax error: unexpected character %q", s.Loc(i), rune(s.src[i]))
}
