package symdump_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mpvl/ncc"
	"github.com/mpvl/ncc/internal/backend/vm"
	"github.com/mpvl/ncc/internal/symdump"
)

func TestDumpIsSortedAndDeterministic(t *testing.T) {
	src := `
int zebra;
int apple;
int add(int a, int b) { return a + b; }
enum { RED = 1, BLUE = 2 };
typedef int myint;
`
	be := vm.New()
	sym, err := cc.CompileUnit("t.c", []byte(src), be)
	require.NoError(t, err)

	first := symdump.Dump(sym)
	second := symdump.Dump(sym)
	require.Equal(t, first, second)

	require.Contains(t, first, "globals:")
	require.Contains(t, first, "functions:")
	require.Contains(t, first, "add")

	appleIdx := strings.Index(first, "apple")
	zebraIdx := strings.Index(first, "zebra")
	require.Greater(t, zebraIdx, appleIdx, "globals should be sorted alphabetically")
}

func TestDumpIncludesEnumsAndTypedefs(t *testing.T) {
	src := `
enum { RED = 1, BLUE = 2 };
typedef int myint;
int main() { return 0; }
`
	be := vm.New()
	sym, err := cc.CompileUnit("t.c", []byte(src), be)
	require.NoError(t, err)

	out := symdump.Dump(sym)
	require.Contains(t, out, "RED: 1")
	require.Contains(t, out, "BLUE: 2")
	require.Contains(t, out, "myint:")
}
