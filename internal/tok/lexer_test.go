package tok

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScanAllKinds(t *testing.T) {
	s, err := New("t.c", []byte(`int x = 1 + 2; // comment
/* block */ char *p = "hi\n"; '\t'`))
	require.NoError(t, err)

	var kinds []Kind
	for {
		kinds = append(kinds, s.See())
		if s.AtEOF() {
			break
		}
		s.Get()
	}
	require.Contains(t, kinds, KwInt)
	require.Contains(t, kinds, IDENT)
	require.Contains(t, kinds, NUMBER)
	require.Contains(t, kinds, STRING)
	require.Contains(t, kinds, EOF)
}

func TestNumberSuffixesAndBases(t *testing.T) {
	s, err := New("t.c", []byte(`0x1F 010 42UL`))
	require.NoError(t, err)

	tok := s.Get()
	require.Equal(t, int64(0x1F), tok.IVal)

	tok = s.Get()
	require.Equal(t, int64(8), tok.IVal) // octal

	tok = s.Get()
	require.Equal(t, int64(42), tok.IVal)
	require.False(t, tok.Signed)
	require.Equal(t, 8, tok.Size)
}

func TestStringEscapes(t *testing.T) {
	s, err := New("t.c", []byte(`"a\nb\0c"`))
	require.NoError(t, err)
	tok := s.Get()
	require.Equal(t, STRING, tok.Kind)
	require.Equal(t, []byte("a\nb\x00c\x00"), tok.Bytes)
}

func TestAddrJumpReplay(t *testing.T) {
	s, err := New("t.c", []byte(`a b c`))
	require.NoError(t, err)

	mark := s.Addr()
	first := s.Get()
	second := s.Get()
	require.Equal(t, "a", first.Text)
	require.Equal(t, "b", second.Text)

	s.Jump(mark)
	require.Equal(t, "a", s.Get().Text)
	require.Equal(t, "b", s.Get().Text)
}

func TestJmpAndExpect(t *testing.T) {
	s, err := New("t.c", []byte(`; (`))
	require.NoError(t, err)

	require.Equal(t, 0, s.Jmp(Semi))
	require.Equal(t, 1, s.Jmp(Semi))

	_, err = s.Expect(LParen)
	require.NoError(t, err)

	_, err = s.Expect(RParen)
	require.Error(t, err)
}

func TestLocFormatsLineNumbers(t *testing.T) {
	s, err := New("t.c", []byte("int a;\nint b;\n"))
	require.NoError(t, err)
	require.Equal(t, "t.c:1", s.Loc(0))
	require.Equal(t, "t.c:2", s.Loc(7))
}

func TestUnterminatedStringErrors(t *testing.T) {
	_, err := New("t.c", []byte(`"abc`))
	require.Error(t, err)
}

func TestUnknownCharacterErrors(t *testing.T) {
	_, err := New("t.c", []byte(`@`))
	require.Error(t, err)
}
