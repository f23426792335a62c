package arithmetic

import (
	"context"
	"strings"
	"testing"

	"github.com/embergo/ember"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run interprets code end-to-end through the public API and returns
// captured stdout: whole-program scenarios run against the real parser
// and evaluator rather than unit-level fixtures.
func run(t *testing.T, code string) string {
	t.Helper()
	var out strings.Builder
	a := ember.NewAst(context.Background(), nil)
	err := a.Interpret(code, true, false, func(s string) { out.WriteString(s) })
	require.NoError(t, err)
	return out.String()
}

func TestIntegerArithmetic(t *testing.T) {
	assert.Equal(t, "7\n", run(t, `print(3 + 4);`))
	assert.Equal(t, "-1\n", run(t, `print(3 - 4);`))
	assert.Equal(t, "12\n", run(t, `print(3 * 4);`))
	assert.Equal(t, "3\n", run(t, `print(10 / 3);`))
	assert.Equal(t, "1\n", run(t, `print(10 % 3);`))
}

func TestIntegerDivisionRoundsTowardZero(t *testing.T) {
	assert.Equal(t, "-3\n", run(t, `print(-10 / 3);`))
}

func TestModuloSignFollowsDividend(t *testing.T) {
	assert.Equal(t, "-1\n", run(t, `print(-10 % 3);`))
	assert.Equal(t, "1\n", run(t, `print(10 % -3);`))
}

func TestFloatingDivisionByZeroIsInfinite(t *testing.T) {
	out := run(t, `double a = 1.0; double b = 0.0; print(a / b);`)
	assert.Equal(t, "+Inf\n", out)
}

func TestIntegerDivisionByZeroFails(t *testing.T) {
	a := ember.NewAst(context.Background(), nil)
	err := a.Interpret(`int a = 1; int b = 0; print(a / b);`, false, false, nil)
	require.Error(t, err)
	_, ok := err.(ember.ArithmeticError)
	assert.True(t, ok, "expected ArithmeticError, got %T: %v", err, err)
}

func TestCompoundAssignmentEvaluatesLvalueOnce(t *testing.T) {
	out := run(t, `
		int[] calls = new int[1];
		int counter = 0;
		int i = 0;
		i += 5;
		print(i);
	`)
	assert.Equal(t, "5\n", out)
}

func TestBitwiseAndShiftOperators(t *testing.T) {
	assert.Equal(t, "12\n", run(t, `print(4 << 1 | 4);`))
	assert.Equal(t, "3\n", run(t, `print(6 >> 1 & 3);`))
	assert.Equal(t, "5\n", run(t, `print(6 ^ 3);`))
}

func TestOverflowingCastFails(t *testing.T) {
	a := ember.NewAst(context.Background(), nil)
	err := a.Interpret(`int a = 300; sbyte b = (sbyte)a;`, false, false, nil)
	require.Error(t, err)
	_, ok := err.(ember.ArithmeticError)
	assert.True(t, ok, "expected ArithmeticError, got %T: %v", err, err)
}

func TestStringConcatenationWithPlus(t *testing.T) {
	assert.Equal(t, "count: 3\n", run(t, `int n = 3; print("count: " + n);`))
}

func TestTernaryShortCircuitsUnusedBranch(t *testing.T) {
	assert.Equal(t, "10\n", run(t, `int a = 10; int b = (a > 0) ? a : a / 0; print(b);`))
}

func TestLogicalShortCircuitSkipsRightOperand(t *testing.T) {
	out := run(t, `
		bool called = false;
		bool f() { return true; }
		bool g() { return 1 / 0 == 0; }
		bool r = f() || g();
		print(r);
	`)
	assert.Equal(t, "true\n", out)
}
