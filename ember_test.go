package ember

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run interprets code with console output captured into a string,
// failing the test on any evaluation error.
func run(t *testing.T, code string) string {
	t.Helper()
	var out strings.Builder
	a := NewAst(context.Background(), nil)
	err := a.Interpret(code, true, false, func(s string) { out.WriteString(s) })
	require.NoError(t, err)
	return out.String()
}

// TestEndToEndScenarios exercises six representative whole-program scenarios.
func TestEndToEndScenarios(t *testing.T) {
	t.Run("arithmetic and interpolation", func(t *testing.T) {
		out := run(t, `int a=10; int b=3; string s=$"{a+b}:{a*b}"; print(s);`)
		assert.Equal(t, "13:30\n", out)
	})

	t.Run("recursion with forward reference", func(t *testing.T) {
		out := run(t, `int f=fact(5); int fact(int n){ return n<=1 ? 1 : n*fact(n-1); } print(f);`)
		assert.Equal(t, "120\n", out)
	})

	t.Run("pointers", func(t *testing.T) {
		out := run(t, `int x=23; int* p=&x; *p = 99; print(x);`)
		assert.Equal(t, "99\n", out)
	})

	t.Run("arrays", func(t *testing.T) {
		out := run(t, `int[] a = new int[4]; for(int i=0;i<a.Length();i++) a[i]=i*i; print(a[3]);`)
		assert.Equal(t, "9\n", out)
	})

	t.Run("pattern switch", func(t *testing.T) {
		out := run(t, `object o=42; string k = o switch { int n when n>0 => "pos", null => "null", _ => "other" }; print(k);`)
		assert.Equal(t, "pos\n", out)
	})

	t.Run("cancellation terminates a runaway loop", func(t *testing.T) {
		a, cancel := NewAstWithTimeout(20*time.Millisecond, nil)
		defer cancel()
		err := a.Interpret(`while(true){}`, false, false, nil)
		require.Error(t, err)
		_, ok := err.(Cancelled)
		assert.True(t, ok, "expected a Cancelled error, got %T: %v", err, err)
	})
}

func TestInterpretSurfacesArithmeticError(t *testing.T) {
	a := NewAst(context.Background(), nil)
	err := a.Interpret(`int a = 1; int b = 0; int c = a / b;`, false, false, nil)
	require.Error(t, err)
	_, ok := err.(ArithmeticError)
	assert.True(t, ok, "expected ArithmeticError, got %T: %v", err, err)
}

func TestInterpretSurfacesIndexOutOfRange(t *testing.T) {
	a := NewAst(context.Background(), nil)
	err := a.Interpret(`int[] a = new int[3]; int x = a[3];`, false, false, nil)
	require.Error(t, err)
	_, ok := err.(IndexOutOfRange)
	assert.True(t, ok, "expected IndexOutOfRange, got %T: %v", err, err)
}

func TestTryCatchBindsThrownMessage(t *testing.T) {
	out := run(t, `
		string msg = "";
		try {
			throw "boom";
		} catch (e) {
			msg = e;
		}
		print(msg);
	`)
	assert.Equal(t, "boom\n", out)
}

func TestStringRoundTripsThroughPointer(t *testing.T) {
	out := run(t, `string s = "hello"; string* p = &s; print(*p);`)
	assert.Equal(t, "hello\n", out)
}

func TestGotoUnresolvedLabel(t *testing.T) {
	a := NewAst(context.Background(), nil)
	err := a.Interpret(`goto nowhere;`, false, false, nil)
	require.Error(t, err)
}

func TestPrintTreeRendersLiterals(t *testing.T) {
	a := NewAst(context.Background(), nil)
	res := a.Parse(`int a = 1 + 2;`)
	require.Empty(t, res.Diagnostics)
	tree := PrintTree(res.Program)
	assert.Contains(t, tree, "IntLit(1)")
	assert.Contains(t, tree, "IntLit(2)")
}
