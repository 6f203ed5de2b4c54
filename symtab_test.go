package cc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalScopeShadowsOuterAndRestoresOnExit(t *testing.T) {
	sym := NewSymTab()
	sym.Locals = append(sym.Locals, Name{Ident: "x", Type: IntType, IsLocal: true, LocalID: 0})

	mark := sym.MarkScope()
	sym.Locals = append(sym.Locals, Name{Ident: "x", Type: CharType, IsLocal: true, LocalID: 1})

	n, ok := sym.FindLocal("x")
	require.True(t, ok)
	require.Equal(t, CharType, n.Type)

	sym.RestoreScope(mark)
	n, ok = sym.FindLocal("x")
	require.True(t, ok)
	require.Equal(t, IntType, n.Type)
}

func TestRestoreScopeTruncatesEnumsTypedefsStructsAndArrays(t *testing.T) {
	sym := NewSymTab()
	sym.Enums = append(sym.Enums, EnumConst{Ident: "OUTER", Value: 0})
	sym.Typedefs = append(sym.Typedefs, Name{Ident: "outer_t", Type: IntType})
	sym.Structs = append(sym.Structs, StructDesc{Tag: "outer"})
	sym.Arrays = append(sym.Arrays, ArrayDesc{Elem: IntType, Len: 1})

	mark := sym.MarkScope()
	sym.Enums = append(sym.Enums, EnumConst{Ident: "INNER", Value: 1})
	sym.Typedefs = append(sym.Typedefs, Name{Ident: "foo", Type: IntType})
	sym.Structs = append(sym.Structs, StructDesc{Tag: "inner"})
	sym.Arrays = append(sym.Arrays, ArrayDesc{Elem: CharType, Len: 2})

	_, ok := sym.FindTypedef("foo")
	require.True(t, ok)
	_, ok = sym.FindStruct("inner")
	require.True(t, ok)

	sym.RestoreScope(mark)

	require.Len(t, sym.Enums, 1)
	require.Len(t, sym.Typedefs, 1)
	require.Len(t, sym.Structs, 1)
	require.Len(t, sym.Arrays, 1)

	_, ok = sym.FindTypedef("foo")
	require.False(t, ok)
	_, ok = sym.FindStruct("inner")
	require.False(t, ok)
	_, ok = sym.FindTypedef("outer_t")
	require.True(t, ok)
}

func TestFindNamePrefersLocalOverGlobal(t *testing.T) {
	sym := NewSymTab()
	sym.Globals = append(sym.Globals, Name{Ident: "x", Type: LongType, EmitName: "x"})
	sym.Locals = append(sym.Locals, Name{Ident: "x", Type: IntType, IsLocal: true, LocalID: 0})

	n, ok := sym.FindName("x")
	require.True(t, ok)
	require.True(t, n.IsLocal)
	require.Equal(t, IntType, n.Type)
}

func TestInternStructFindsOrCreatesByTag(t *testing.T) {
	sym := NewSymTab()
	a := sym.InternStruct("point", false)
	b := sym.InternStruct("point", false)
	require.Equal(t, a, b)

	c := sym.InternStruct("other", false)
	require.NotEqual(t, a, c)
}

func TestFindEnumAndTypedef(t *testing.T) {
	sym := NewSymTab()
	sym.Enums = append(sym.Enums, EnumConst{Ident: "RED", Value: 1})
	sym.Typedefs = append(sym.Typedefs, Name{Ident: "u32", Type: UIntType})

	e, ok := sym.FindEnum("RED")
	require.True(t, ok)
	require.Equal(t, int64(1), e.Value)

	td, ok := sym.FindTypedef("u32")
	require.True(t, ok)
	require.Equal(t, UIntType, td.Type)

	_, ok = sym.FindEnum("BLUE")
	require.False(t, ok)
}

func TestFindFuncSearchesMostRecentFirst(t *testing.T) {
	sym := NewSymTab()
	sym.Funcs = append(sym.Funcs, FuncSig{Name: "f", Argc: 0})
	sym.Funcs = append(sym.Funcs, FuncSig{Name: "f", Argc: 2, ArgNames: []string{"a", "b"}})

	f, ok := sym.FindFunc("f")
	require.True(t, ok)
	require.Equal(t, 2, f.Argc)
}
