package vm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mpvl/ncc/internal/backend"
)

func TestConstantFoldingLeavesNoCode(t *testing.T) {
	v := New()
	v.FuncBeg("k", 0, true, false)
	v.Pass1()
	v.Pass2()

	v.Num(2, backend.Word)
	v.Num(3, backend.Word)
	v.Bop(backend.Add, backend.Word)

	got, ok := v.Popnum()
	require.True(t, ok)
	require.Equal(t, int64(5), got)
	require.Empty(t, v.cur.Code)
}

func TestLinkAndRunConstantFunction(t *testing.T) {
	v := New()
	body := func() {
		v.Num(42, backend.Word)
		v.Ret(true)
	}

	v.FuncBeg("answer", 0, true, false)
	v.Pass1()
	body()
	v.Pass2()
	body()
	v.FuncEnd()

	img := Link(v.Module())
	ret, err := img.Run("answer")
	require.NoError(t, err)
	require.Equal(t, int64(42), ret)
}

func TestLocalStoreThenLoad(t *testing.T) {
	v := New()
	body := func() {
		id := v.Mklocal(8)
		v.Local(id)
		v.Num(7, backend.Word)
		v.Assign(backend.Word)
		v.TmpDrop()
		v.Local(id)
		v.Load(backend.Word)
		v.Ret(true)
	}

	v.FuncBeg("f", 0, true, false)
	v.Pass1()
	body()
	v.Pass2()
	body()
	v.FuncEnd()

	img := Link(v.Module())
	ret, err := img.Run("f")
	require.NoError(t, err)
	require.Equal(t, int64(7), ret)
}

func TestArgumentsFlowThroughFrame(t *testing.T) {
	v := New()
	body := func() {
		v.Local(v.Arg2Loc(0))
		v.Load(backend.Word)
		v.Local(v.Arg2Loc(1))
		v.Load(backend.Word)
		v.Bop(backend.Add, backend.Word)
		v.Ret(true)
	}

	v.FuncBeg("add", 2, true, false)
	v.Pass1()
	body()
	v.Pass2()
	body()
	v.FuncEnd()

	img := Link(v.Module())
	ret, err := img.Run("add", 10, 32)
	require.NoError(t, err)
	require.Equal(t, int64(42), ret)
}

func TestForkJoinLeavesOneShadowValue(t *testing.T) {
	v := New()
	v.FuncBeg("f", 1, true, false)
	v.Pass1()
	v.Pass2()

	// a && 1: both merge paths push, the join must reconcile to one.
	v.Local(v.Arg2Loc(0))
	v.Load(backend.Word)
	v.Fork()
	falseLabel := v.Label()
	endLabel := v.Label()
	v.Jz(falseLabel)
	v.Num(1, backend.Word)
	v.Num(0, backend.Word)
	v.Bop(backend.Neq, backend.Word)
	v.Jmp(endLabel)
	v.PlaceLabel(falseLabel)
	v.ForkPush(0)
	v.PlaceLabel(endLabel)
	v.ForkJoin()

	require.Len(t, v.fold, 1)
	// The surviving value depends on the runtime path, so it must never
	// answer a constant-folding query.
	_, ok := v.Popnum()
	require.False(t, ok)
}

func TestPopNogenDiscardsSuppressedShadowValues(t *testing.T) {
	v := New()
	v.FuncBeg("f", 0, true, false)
	v.Pass1()
	v.Pass2()

	v.Num(7, backend.Word)
	v.PushNogen()
	v.Num(1, backend.Word)
	v.Num(2, backend.Word)
	v.Bop(backend.Add, backend.Word)
	v.PopNogen()

	require.Len(t, v.fold, 1)
	got, ok := v.Popnum()
	require.True(t, ok)
	require.Equal(t, int64(7), got)
}

func TestPopsymFoldsAddressConstants(t *testing.T) {
	v := New()
	v.PushNogen()
	v.Sym("tbl")
	v.Num(8, backend.Word)
	v.Bop(backend.Add, backend.Word)

	name, addend, ok := v.Popsym()
	require.True(t, ok)
	require.Equal(t, "tbl", name)
	require.Equal(t, int64(8), addend)
	v.PopNogen()

	v.PushNogen()
	v.Num(3, backend.Word)
	_, _, ok = v.Popsym()
	require.False(t, ok)
	v.PopNogen()
}

func TestLinkResolvesSymbolPokes(t *testing.T) {
	v := New()
	tbl := v.DSNew("tbl", 16)
	v.DSSet(tbl, 4, []byte{42})
	ptr := v.DSNew("ptr", 8)
	v.DSSetSym(ptr, 0, "tbl", 4, 8)

	img := Link(v.Module())
	require.Equal(t, img.symAddr["tbl"]+4, img.load(img.symAddr["ptr"], backend.Word))
	require.Equal(t, int64(42), img.load(img.symAddr["tbl"]+4, backend.BaseType{Size: 1}))
}

func TestRecursiveCallsGetDisjointFrames(t *testing.T) {
	v := New()
	// int fact(n) { if (n == 0) return 1; return n * fact(n - 1); }
	build := func() {
		n := v.Arg2Loc(0)
		baseLabel := v.Label()

		v.Local(n)
		v.Load(backend.Word)
		v.Num(0, backend.Word)
		v.Bop(backend.Eq, backend.Word)
		v.Jz(baseLabel)
		v.Num(1, backend.Word)
		v.Ret(true)
		v.PlaceLabel(baseLabel)

		v.Local(n)
		v.Load(backend.Word)
		v.Sym("fact")
		v.Local(n)
		v.Load(backend.Word)
		v.Num(1, backend.Word)
		v.Bop(backend.Sub, backend.Word)
		v.Call(1, backend.Word)
		v.Bop(backend.Mul, backend.Word)
		v.Ret(true)
	}

	v.FuncBeg("fact", 1, true, false)
	v.Pass1()
	build()
	v.Pass2()
	build()
	v.FuncEnd()

	img := Link(v.Module())
	ret, err := img.Run("fact", 5)
	require.NoError(t, err)
	require.Equal(t, int64(120), ret)
}
