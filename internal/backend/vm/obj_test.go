package vm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mpvl/ncc/internal/backend"
)

func TestWriteProducesDistinctBuildIDs(t *testing.T) {
	build := func() []byte {
		v := New()
		v.FuncBeg("main", 0, true, false)
		v.Pass1()
		v.Num(0, backend.Word)
		v.Ret(true)
		v.Pass2()
		v.Num(0, backend.Word)
		v.Ret(true)
		v.FuncEnd()

		var buf bytes.Buffer
		require.NoError(t, v.Write(&buf))
		return buf.Bytes()
	}

	a := build()
	b := build()

	require.Equal(t, objMagic[:], a[:4])
	require.Equal(t, objMagic[:], b[:4])
	// The 16-byte uuid build id immediately follows the magic; two
	// independent Write calls must not collide.
	require.NotEqual(t, a[4:20], b[4:20])
}
