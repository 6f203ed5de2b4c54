package cpp

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "in.c")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestPredefinedMacros(t *testing.T) {
	p := New()
	path := writeTemp(t, "int a = __STDC__;\nint b = __x86_64__;\n")
	out, err := p.Run(path)
	require.NoError(t, err)
	require.Contains(t, string(out), "int a = 1;")
	require.Contains(t, string(out), "int b = 1;")
}

func TestQualifiersErasedToNothing(t *testing.T) {
	p := New()
	path := writeTemp(t, "const volatile int x;\n")
	out, err := p.Run(path)
	require.NoError(t, err)
	require.Equal(t, "  int x;\n", string(out))
}

func TestDefineFlagWithAndWithoutValue(t *testing.T) {
	p := New()
	p.DefineFlag("FOO=42")
	p.DefineFlag("BAR")
	path := writeTemp(t, "int a = FOO; int b = BAR;\n")
	out, err := p.Run(path)
	require.NoError(t, err)
	require.Contains(t, string(out), "int a = 42;")
	require.Contains(t, string(out), "int b = 1;")
}

func TestAttributeSpanErased(t *testing.T) {
	p := New()
	path := writeTemp(t, `void f() __attribute__((noreturn));`)
	out, err := p.Run(path)
	require.NoError(t, err)
	require.Equal(t, "void f() ;\n", string(out))
}

func TestIncludePathsAccumulateInOrder(t *testing.T) {
	p := New()
	p.AddIncludePath("/usr/include")
	p.AddIncludePath("./vendor")
	require.Equal(t, []string{"/usr/include", "./vendor"}, p.IncludePaths())
}

func TestLiteralsAreNeverExpanded(t *testing.T) {
	p := New()
	p.DefineFlag("FOO=9")
	path := writeTemp(t, `char *s = "FOO const"; char c = 'F'; int x = FOO;`+"\n")
	out, err := p.Run(path)
	require.NoError(t, err)
	require.Contains(t, string(out), `"FOO const"`)
	require.Contains(t, string(out), "int x = 9;")
}

func TestWholeWordSubstitutionDoesNotMatchSubstrings(t *testing.T) {
	p := New()
	p.DefineFlag("X=9")
	path := writeTemp(t, "int XY = 1; int X = 2;\n")
	out, err := p.Run(path)
	require.NoError(t, err)
	require.Contains(t, string(out), "int XY = 1;")
	require.Contains(t, string(out), "int 9 = 2;")
}
