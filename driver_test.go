package cc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mpvl/ncc/internal/backend/vm"
)

func compileAndRun(t *testing.T, src, entry string, args ...int64) int64 {
	t.Helper()
	be := vm.New()
	require.NoError(t, Compile("t.c", []byte(src), be))
	img := vm.Link(be.Module())
	ret, err := img.Run(entry, args...)
	require.NoError(t, err)
	return ret
}

func TestEndToEndArithmeticAndReturn(t *testing.T) {
	src := `int main() { return 2 + 3 * 4; }`
	require.Equal(t, int64(14), compileAndRun(t, src, "main"))
}

func TestEndToEndIfElse(t *testing.T) {
	src := `
int abs(int x) {
	if (x < 0) return -x;
	return x;
}`
	require.Equal(t, int64(7), compileAndRun(t, src, "abs", -7))
	require.Equal(t, int64(7), compileAndRun(t, src, "abs", 7))
}

func TestEndToEndWhileLoop(t *testing.T) {
	src := `
int sum(int n) {
	int total = 0;
	int i = 1;
	while (i <= n) {
		total = total + i;
		i = i + 1;
	}
	return total;
}`
	require.Equal(t, int64(55), compileAndRun(t, src, "sum", 10))
}

func TestEndToEndForLoopAndBreakContinue(t *testing.T) {
	src := `
int countEvens(int n) {
	int count = 0;
	int i;
	for (i = 0; i < n; i = i + 1) {
		if (i % 2 != 0) continue;
		if (i > 20) break;
		count = count + 1;
	}
	return count;
}`
	require.Equal(t, int64(6), compileAndRun(t, src, "countEvens", 12))
}

func TestEndToEndSwitchFallthrough(t *testing.T) {
	src := `
int classify(int x) {
	int r;
	switch (x) {
	case 1:
	case 2:
		r = 10;
		break;
	case 3:
		r = 20;
		break;
	default:
		r = 99;
	}
	return r;
}`
	require.Equal(t, int64(10), compileAndRun(t, src, "classify", 1))
	require.Equal(t, int64(10), compileAndRun(t, src, "classify", 2))
	require.Equal(t, int64(20), compileAndRun(t, src, "classify", 3))
	require.Equal(t, int64(99), compileAndRun(t, src, "classify", 5))
}

func TestEndToEndRecursiveFunction(t *testing.T) {
	src := `
int fact(int n) {
	if (n == 0) return 1;
	return n * fact(n - 1);
}`
	require.Equal(t, int64(120), compileAndRun(t, src, "fact", 5))
}

func TestEndToEndFunctionPointerParameterIsCalled(t *testing.T) {
	src := `
int add(int a, int b) { return a + b; }
int sub(int a, int b) { return a - b; }
int apply(int (*fp)(int, int), int a, int b) {
	return fp(a, b);
}
int main() {
	return apply(add, 3, 4) + apply(sub, 10, 3);
}`
	require.Equal(t, int64(14), compileAndRun(t, src, "main"))
}

func TestEndToEndFunctionPointerArrayDispatches(t *testing.T) {
	src := `
int add(int a, int b) { return a + b; }
int sub(int a, int b) { return a - b; }
int (*ops[2])(int, int);
int run(int which, int a, int b) {
	ops[0] = add;
	ops[1] = sub;
	return ops[which](a, b);
}
int main() {
	return run(0, 5, 2) * 100 + run(1, 5, 2);
}`
	require.Equal(t, int64(703), compileAndRun(t, src, "main"))
}

func TestEndToEndStaticLocalPersistsAcrossCalls(t *testing.T) {
	src := `
int counter() {
	static int n = 5;
	n = n + 1;
	return n;
}`
	be := vm.New()
	require.NoError(t, Compile("t.c", []byte(src), be))
	img := vm.Link(be.Module())

	r1, err := img.Run("counter")
	require.NoError(t, err)
	r2, err := img.Run("counter")
	require.NoError(t, err)
	require.Equal(t, int64(6), r1)
	require.Equal(t, int64(7), r2)
}

func TestEndToEndGlobalArrayInitializer(t *testing.T) {
	src := `
int tbl[] = {1, 2, 3, 4};
int fetch(int i) {
	return tbl[i];
}`
	require.Equal(t, int64(3), compileAndRun(t, src, "fetch", 2))
}

func TestEndToEndDesignatedArrayInitializer(t *testing.T) {
	src := `
int tbl[8] = {[2] = 7, 8, [6] = 9};
int fetch(int i) {
	return tbl[i];
}`
	require.Equal(t, int64(0), compileAndRun(t, src, "fetch", 0))
	require.Equal(t, int64(7), compileAndRun(t, src, "fetch", 2))
	require.Equal(t, int64(8), compileAndRun(t, src, "fetch", 3))
	require.Equal(t, int64(9), compileAndRun(t, src, "fetch", 6))
}

func TestEndToEndDesignatedStructInitializer(t *testing.T) {
	src := `
struct P { int x, y, z; };
int sumField() {
	struct P p = {.y = 5, 6};
	return p.x * 100 + p.y * 10 + p.z;
}`
	require.Equal(t, int64(56), compileAndRun(t, src, "sumField"))
}

func TestEndToEndLocalDesignatedArrayInitializer(t *testing.T) {
	src := `
int fetch(int i) {
	int tbl[5] = {[3] = 9};
	return tbl[i];
}`
	require.Equal(t, int64(0), compileAndRun(t, src, "fetch", 0))
	require.Equal(t, int64(9), compileAndRun(t, src, "fetch", 3))
}

func TestEndToEndGotoSkipsStatements(t *testing.T) {
	src := `
int skip() {
	int x = 1;
	goto done;
	x = 99;
done:
	return x;
}`
	require.Equal(t, int64(1), compileAndRun(t, src, "skip"))
}

// Calling a function before any prototype or definition of it is visible
// must recover as an implicit "extern int name()" (spec.md §3/§7) instead
// of failing with an undeclared-identifier error. This test only checks
// that the parser accepts and resolves the call; it does not run it.
func TestEndToEndImplicitFunctionDeclarationCompiles(t *testing.T) {
	src := `
int main() {
	return triple(4);
}
int triple(int x) {
	return x * 3;
}`
	be := vm.New()
	require.NoError(t, Compile("t.c", []byte(src), be))
}

func TestCompileReportsSyntaxErrorWithLocation(t *testing.T) {
	be := vm.New()
	err := Compile("bad.c", []byte("int main() { return 1 }"), be)
	require.Error(t, err)
	ce, ok := err.(*CompileError)
	require.True(t, ok)
	require.Contains(t, ce.Loc, "bad.c")
}

func TestCompileReportsUndeclaredIdentifier(t *testing.T) {
	be := vm.New()
	err := Compile("bad.c", []byte("int main() { return missing; }"), be)
	require.Error(t, err)
	_, ok := err.(*CompileError)
	require.True(t, ok)
}
