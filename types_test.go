package cc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mpvl/ncc/internal/backend"
)

func TestPromoteWidensNarrowInts(t *testing.T) {
	got := Promote(CharType)
	require.Equal(t, 4, got.Base.Size)
	require.True(t, got.Base.Signed)

	got = Promote(IntType)
	require.Equal(t, IntType, got)

	ptr := IntType
	ptr.Ptr = 1
	require.Equal(t, ptr, Promote(ptr))
}

func TestBinopTypeWidestAndSign(t *testing.T) {
	got := BinopType(backend.Add, CharType, LongType)
	require.Equal(t, 8, got.Base.Size)
	require.True(t, got.Base.Signed)

	got = BinopType(backend.Add, IntType, UIntType)
	require.True(t, got.Base.Signed)
}

func TestBinopTypeDivModFollowsRHSSign(t *testing.T) {
	got := BinopType(backend.Div, IntType, UIntType)
	require.False(t, got.Base.Signed)

	got = BinopType(backend.Mod, UIntType, IntType)
	require.True(t, got.Base.Signed)
}

func TestArrayToPtrDecay(t *testing.T) {
	arrays := []ArrayDesc{{Elem: IntType, Len: 10}}
	arr := Type{Flags: FlagArray, ID: 0}

	decayed := ArrayToPtr(arr, arrays)
	require.Equal(t, 1, decayed.Ptr)
	require.Equal(t, IntType.Base, decayed.Base)
}

func TestTypeSizeScalarsArraysStructs(t *testing.T) {
	require.Equal(t, 4, TypeSize(IntType, nil, nil))
	require.Equal(t, WordSize, TypeSize(Type{Ptr: 1}, nil, nil))

	arrays := []ArrayDesc{{Elem: IntType, Len: 5}}
	arr := Type{Flags: FlagArray, ID: 0}
	require.Equal(t, 20, TypeSize(arr, arrays, nil))

	structs := []StructDesc{{Size: 16}}
	st := Type{Flags: FlagStruct, ID: 0}
	require.Equal(t, 16, TypeSize(st, nil, structs))
}

func TestFieldLayoutStructPadsToAlignment(t *testing.T) {
	sd := StructDesc{Fields: []Field{
		{Name: "a", Type: CharType},
		{Name: "b", Type: IntType},
		{Name: "c", Type: CharType},
	}}
	FieldLayout(&sd, nil, nil)

	require.Equal(t, 0, sd.Fields[0].Off)
	require.Equal(t, 4, sd.Fields[1].Off) // aligned up from 1 to 4
	require.Equal(t, 8, sd.Fields[2].Off)
	require.Equal(t, 9, sd.Size)
}

func TestFieldLayoutUnionSharesOffsetZero(t *testing.T) {
	sd := StructDesc{Union: true, Fields: []Field{
		{Name: "a", Type: CharType},
		{Name: "b", Type: LongType},
	}}
	FieldLayout(&sd, nil, nil)

	require.Equal(t, 0, sd.Fields[0].Off)
	require.Equal(t, 0, sd.Fields[1].Off)
	require.Equal(t, 8, sd.Size)
}

func TestDerefSizeScalesByPointeeWidth(t *testing.T) {
	intPtr := IntType
	intPtr.Ptr = 1
	require.Equal(t, 4, DerefSize(intPtr, nil, nil))

	intPtrPtr := IntType
	intPtrPtr.Ptr = 2
	require.Equal(t, WordSize, DerefSize(intPtrPtr, nil, nil))
}
