package cc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mpvl/ncc/internal/backend/vm"
)

// The scenarios below are the compiler's acceptance suite: small literal
// programs whose observable behavior pins down expression precedence,
// pointer scaling, aggregate layout, and control flow all at once.

func TestScenarioConstantExpression(t *testing.T) {
	src := `int main(){ return 2+3*4; }`
	require.Equal(t, int64(14), compileAndRun(t, src, "main"))
}

func TestScenarioRecursiveFactorialViaTernary(t *testing.T) {
	src := `int f(int n){ return n<=1?1:n*f(n-1);} int main(){return f(5);}`
	require.Equal(t, int64(120), compileAndRun(t, src, "main"))
}

func TestScenarioArrayDecayAndSubscript(t *testing.T) {
	src := `int a[3]={10,20,30}; int main(){ int *p=a; return p[2]-p[0]; }`
	require.Equal(t, int64(20), compileAndRun(t, src, "main"))
}

func TestScenarioStructFieldAccess(t *testing.T) {
	src := `struct P{int x,y;}; int main(){struct P p={3,4}; return p.x*p.x+p.y*p.y;}`
	require.Equal(t, int64(25), compileAndRun(t, src, "main"))
}

func TestScenarioForLoopAccumulates(t *testing.T) {
	src := `int main(){int i,s=0;for(i=0;i<10;i++)s+=i;return s;}`
	require.Equal(t, int64(45), compileAndRun(t, src, "main"))
}

func TestScenarioSwitchFallthrough(t *testing.T) {
	src := `int main(){int x=0;switch(2){case 1:x=1;break;case 2:x=2;case 3:x+=10;break;default:x=99;}return x;}`
	require.Equal(t, int64(12), compileAndRun(t, src, "main"))
}

func TestScenarioGlobalStringPointer(t *testing.T) {
	src := `char*s="hi"; int main(){return s[0]+s[1];}`
	require.Equal(t, int64(209), compileAndRun(t, src, "main"))
}

// --- short-circuit operators ---

func TestLogicalAndOrProduceZeroOrOne(t *testing.T) {
	src := `
int both(int a, int b) { return a && b; }
int either(int a, int b) { return a || b; }`
	require.Equal(t, int64(1), compileAndRun(t, src, "both", 2, 3))
	require.Equal(t, int64(0), compileAndRun(t, src, "both", 2, 0))
	require.Equal(t, int64(0), compileAndRun(t, src, "both", 0, 3))
	require.Equal(t, int64(1), compileAndRun(t, src, "either", 0, 3))
	require.Equal(t, int64(1), compileAndRun(t, src, "either", 2, 0))
	require.Equal(t, int64(0), compileAndRun(t, src, "either", 0, 0))
}

func TestLogicalAndSkipsRHSWhenLHSFalse(t *testing.T) {
	src := `
int g = 0;
int bump() { g = g + 1; return 1; }
int probe(int a) { a && bump(); return g; }`
	require.Equal(t, int64(0), compileAndRun(t, src, "probe", 0))
	require.Equal(t, int64(1), compileAndRun(t, src, "probe", 1))
}

func TestLogicalOrSkipsRHSWhenLHSTrue(t *testing.T) {
	src := `
int g = 0;
int bump() { g = g + 1; return 1; }
int probe(int a) { a || bump(); return g; }`
	require.Equal(t, int64(0), compileAndRun(t, src, "probe", 1))
	require.Equal(t, int64(1), compileAndRun(t, src, "probe", 0))
}

// A short-circuit result feeding a ternary condition must not be mistaken
// for a compile-time constant: the merge's literal 0/1 push is only one of
// two runtime paths.
func TestTernaryOverShortCircuitCondition(t *testing.T) {
	src := `int pick(int a, int b) { return (a || b) ? 10 : 20; }`
	require.Equal(t, int64(10), compileAndRun(t, src, "pick", 1, 0))
	require.Equal(t, int64(10), compileAndRun(t, src, "pick", 0, 1))
	require.Equal(t, int64(20), compileAndRun(t, src, "pick", 0, 0))
}

func TestShortCircuitResultUsedAsOperand(t *testing.T) {
	src := `int f(int a, int b) { return (a && b) + 5; }`
	require.Equal(t, int64(6), compileAndRun(t, src, "f", 1, 2))
	require.Equal(t, int64(5), compileAndRun(t, src, "f", 1, 0))
}

// --- ternary ---

func TestTernaryConstantConditionSuppressesDeadArm(t *testing.T) {
	src := `
int g = 0;
int bump() { g = 1; return 9; }
int main() { int x = 1 ? 2 : bump(); return x * 10 + g; }`
	require.Equal(t, int64(20), compileAndRun(t, src, "main"))
}

func TestTernaryAssignedConditionIsNotFolded(t *testing.T) {
	src := `int main() { int x = 0; int y = (x = 5) ? 30 : 40; return y + x; }`
	require.Equal(t, int64(35), compileAndRun(t, src, "main"))
}

// --- sizeof ---

func TestSizeofTypeAndExpression(t *testing.T) {
	src := `
int a[10];
int main() { return sizeof(int) + sizeof(long) + sizeof(a) + sizeof("hi"); }`
	require.Equal(t, int64(4+8+40+3), compileAndRun(t, src, "main"))
}

func TestSizeofEmitsNoSideEffects(t *testing.T) {
	src := `
int g = 0;
int bump() { g = g + 1; return 4; }
int main() { int n = sizeof(bump()); return n * 100 + g; }`
	require.Equal(t, int64(400), compileAndRun(t, src, "main"))
}

func TestIncompleteCharArrayFromStringLiteral(t *testing.T) {
	src := `int main() { char s[] = "ab"; return sizeof(s) * 100 + s[0]; }`
	require.Equal(t, int64(300+'a'), compileAndRun(t, src, "main"))
}

// --- pointer arithmetic ---

func TestPointerArithmeticScalesByElementWidth(t *testing.T) {
	src := `
long a[10];
long probe() { long *p = a + 3; long *q = 6 + a; return q - p; }`
	require.Equal(t, int64(3), compileAndRun(t, src, "probe"))
}

func TestPointerDifferenceDividesByElementSize(t *testing.T) {
	src := `
int a[10];
int main() { int *p = a + 2; int *q = a + 9; return q - p; }`
	require.Equal(t, int64(7), compileAndRun(t, src, "main"))
}

func TestPointerCompoundAssignment(t *testing.T) {
	src := `
int a[8];
int main() { int *p = a; p += 5; p -= 2; return p - a; }`
	require.Equal(t, int64(3), compileAndRun(t, src, "main"))
}

func TestPointerIncrementWalksString(t *testing.T) {
	src := `
int len(char *s) { int n = 0; while (*s) { s++; n++; } return n; }
char *msg = "hello";
int main() { return len(msg); }`
	require.Equal(t, int64(5), compileAndRun(t, src, "main"))
}

// --- increment/decrement value semantics ---

func TestPostIncrementYieldsOldValue(t *testing.T) {
	src := `int main() { int x = 5; int y = x++; return y * 10 + x; }`
	require.Equal(t, int64(56), compileAndRun(t, src, "main"))
}

func TestPreIncrementYieldsNewValue(t *testing.T) {
	src := `int main() { int x = 5; int y = ++x; return y * 10 + x; }`
	require.Equal(t, int64(66), compileAndRun(t, src, "main"))
}

func TestPostDecrementYieldsOldValue(t *testing.T) {
	src := `int main() { int x = 5; int y = x--; return y * 10 + x; }`
	require.Equal(t, int64(54), compileAndRun(t, src, "main"))
}

// --- operators and conversions ---

func TestCompoundAssignmentOperatorChain(t *testing.T) {
	src := `
int main() {
	int x = 7;
	x += 3; x *= 2; x -= 5; x /= 4; x %= 2;
	x <<= 4; x >>= 2; x |= 3; x &= 6; x ^= 1;
	return x;
}`
	// 7 -> 10 -> 20 -> 15 -> 3 -> 1 -> 16 -> 4 -> 7 -> 6 -> 7
	require.Equal(t, int64(7), compileAndRun(t, src, "main"))
}

func TestUnaryOperators(t *testing.T) {
	src := `int main() { return -5 + +3 + ~0 + !0 + !7; }`
	require.Equal(t, int64(-2), compileAndRun(t, src, "main"))
}

func TestCastTruncatesToTargetWidth(t *testing.T) {
	src := `int main() { return (char)300; }`
	require.Equal(t, int64(44), compileAndRun(t, src, "main"))
}

func TestCommaEvaluatesLeftToRightYieldsLast(t *testing.T) {
	src := `int main() { int x = 0; int y = (x = 3, x + 1, 9); return y * 10 + x; }`
	require.Equal(t, int64(93), compileAndRun(t, src, "main"))
}

func TestCharStoreNarrowsAndLoadSignExtends(t *testing.T) {
	src := `int main() { char c; c = 456; return c; }`
	require.Equal(t, int64(-56), compileAndRun(t, src, "main"))
}

// --- statements ---

func TestDoWhileRunsBodyAtLeastOnce(t *testing.T) {
	src := `
int f(int n) {
	int s = 0;
	do { s = s + n; n = n - 1; } while (n > 0);
	return s;
}`
	require.Equal(t, int64(6), compileAndRun(t, src, "f", 3))
	require.Equal(t, int64(-4), compileAndRun(t, src, "f", -4))
}

func TestForWithEmptyHeaderSections(t *testing.T) {
	src := `int main() { int i = 0; for (;;) { i = i + 1; if (i == 5) break; } return i; }`
	require.Equal(t, int64(5), compileAndRun(t, src, "main"))
}

func TestNestedSwitchDispatchesIndependently(t *testing.T) {
	src := `
int f(int x, int y) {
	int r = 0;
	switch (x) {
	case 1:
		switch (y) {
		case 1: r = 11; break;
		default: r = 19; break;
		}
		break;
	case 2: r = 2; break;
	}
	return r;
}`
	require.Equal(t, int64(11), compileAndRun(t, src, "f", 1, 1))
	require.Equal(t, int64(19), compileAndRun(t, src, "f", 1, 5))
	require.Equal(t, int64(2), compileAndRun(t, src, "f", 2, 9))
	require.Equal(t, int64(0), compileAndRun(t, src, "f", 9, 9))
}

func TestInnerScopeShadowsOuterLocal(t *testing.T) {
	src := `
int main() {
	int x = 1;
	{
		int x = 2;
		x = x + 10;
	}
	return x;
}`
	require.Equal(t, int64(1), compileAndRun(t, src, "main"))
}

// --- aggregates ---

func TestStructAssignmentCopiesAllFields(t *testing.T) {
	src := `
struct P { int x, y; };
int main() {
	struct P a; struct P b;
	a.x = 1; a.y = 2;
	b = a;
	return b.x * 10 + b.y;
}`
	require.Equal(t, int64(12), compileAndRun(t, src, "main"))
}

func TestArrowDereferencesOnce(t *testing.T) {
	src := `
struct Node { int val; struct Node *next; };
int main() {
	struct Node a; struct Node b;
	a.val = 1; a.next = &b;
	b.val = 41; b.next = 0;
	return a.val + a.next->val;
}`
	require.Equal(t, int64(42), compileAndRun(t, src, "main"))
}

func TestUnionMembersShareStorage(t *testing.T) {
	src := `
union U { int i; char c; };
int main() { union U u; u.i = 0x41424344; return sizeof(union U) * 100 + u.c; }`
	require.Equal(t, int64(400+0x44), compileAndRun(t, src, "main"))
}

// An array-typed struct field is its address: subscripting it, passing it
// to a function, and offsetting it must all use the field's address
// directly, never a load of the (width-less) array itself.
func TestStructArrayFieldIsItsAddress(t *testing.T) {
	src := `
struct S { int id; char name[8]; };
int first(char *s) { return s[0]; }
int main() {
	struct S s;
	s.id = 1;
	s.name[0] = 'A';
	s.name[1] = 'B';
	char *p = s.name + 1;
	return first(s.name) * 1000 + p[0] * 10 + s.id;
}`
	require.Equal(t, int64(65*1000+66*10+1), compileAndRun(t, src, "main"))
}

func TestArrayFieldIsNotAssignable(t *testing.T) {
	be := vm.New()
	src := `
struct S { char name[8]; };
int main() { struct S s; s.name = 0; return 0; }`
	err := Compile("t.c", []byte(src), be)
	require.Error(t, err)
	require.Contains(t, err.Error(), "not assignable")
}

func TestSizeofStructArrayField(t *testing.T) {
	src := `
struct S { int id; char name[8]; };
int main() { struct S s; return sizeof(s.name) * 100 + sizeof(s); }`
	require.Equal(t, int64(8*100+12), compileAndRun(t, src, "main"))
}

func TestGlobalStructInitializer(t *testing.T) {
	src := `
struct P { int x, y; } g = {3, 4};
int main() { return g.x * 10 + g.y; }`
	require.Equal(t, int64(34), compileAndRun(t, src, "main"))
}

// --- address-constant global initializers ---

func TestGlobalPointerToGlobal(t *testing.T) {
	src := `
int g = 7;
int *p = &g;
int main() { return *p; }`
	require.Equal(t, int64(7), compileAndRun(t, src, "main"))
}

func TestGlobalPointerIntoArray(t *testing.T) {
	src := `
int arr[4] = {1, 2, 3, 4};
int *p = &arr[2];
int main() { return *p; }`
	require.Equal(t, int64(3), compileAndRun(t, src, "main"))
}

func TestGlobalFunctionPointerInitializer(t *testing.T) {
	src := `
int add(int a, int b) { return a + b; }
int (*fp)(int, int) = add;
int main() { return fp(2, 3); }`
	require.Equal(t, int64(5), compileAndRun(t, src, "main"))
}

// --- declarations ---

func TestEnumConstantsCountUpFromInitializer(t *testing.T) {
	src := `
enum { SMALL = 1, BIG = 10, HUGE };
int main() { return SMALL + BIG + HUGE; }`
	require.Equal(t, int64(22), compileAndRun(t, src, "main"))
}

func TestTypedefNameDeclaresVariables(t *testing.T) {
	src := `
typedef int length;
typedef length *lenptr;
int main() { length n = 40; lenptr p = &n; *p = *p + 2; return n; }`
	require.Equal(t, int64(42), compileAndRun(t, src, "main"))
}

func TestKnRFunctionDefinition(t *testing.T) {
	src := `
int add(a, b) int a; int b; { return a + b; }
int main() { return add(40, 2); }`
	require.Equal(t, int64(42), compileAndRun(t, src, "main"))
}

func TestKnRImplicitIntReturnType(t *testing.T) {
	src := `
add(a, b) int a; int b; { return a + b; }
int main() { return add(20, 1); }`
	require.Equal(t, int64(21), compileAndRun(t, src, "main"))
}

func TestVariadicPrototypeParses(t *testing.T) {
	be := vm.New()
	src := `
int printf(char *fmt, ...);
int main() { return 0; }`
	require.NoError(t, Compile("t.c", []byte(src), be))
}

func TestMultipleDeclaratorsPerStatement(t *testing.T) {
	src := `int main() { int a = 1, b = 2, *p = &b; return a + *p; }`
	require.Equal(t, int64(3), compileAndRun(t, src, "main"))
}
