package basic

import (
	"context"
	"strings"
	"testing"

	"github.com/embergo/ember"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run interprets code end-to-end through the public API and returns
// captured stdout, the same whole-program style tests/arithmetic uses.
func run(t *testing.T, code string) string {
	t.Helper()
	var out strings.Builder
	a := ember.NewAst(context.Background(), nil)
	err := a.Interpret(code, true, false, func(s string) { out.WriteString(s) })
	require.NoError(t, err)
	return out.String()
}

func TestStructFieldsAndMethods(t *testing.T) {
	out := run(t, `
		struct Point {
			int x;
			int y;

			Point(int x, int y) {
				this.x = x;
				this.y = y;
			}

			int Sum() {
				return this.x + this.y;
			}
		}

		Point p = new Point(3, 4);
		print(p.Sum());
	`)
	assert.Equal(t, "7\n", out)
}

func TestForeachOverArray(t *testing.T) {
	out := run(t, `
		int[] xs = new int[3];
		xs[0] = 1;
		xs[1] = 2;
		xs[2] = 3;
		int total = 0;
		foreach (int x in xs) {
			total += x;
		}
		print(total);
	`)
	assert.Equal(t, "6\n", out)
}

func TestForeachOverString(t *testing.T) {
	out := run(t, `
		int count = 0;
		foreach (char c in "abc") {
			count += 1;
		}
		print(count);
	`)
	assert.Equal(t, "3\n", out)
}

func TestWhileBreakAndContinue(t *testing.T) {
	out := run(t, `
		int i = 0;
		int sum = 0;
		while (true) {
			i += 1;
			if (i > 10) {
				break;
			}
			if (i % 2 == 0) {
				continue;
			}
			sum += i;
		}
		print(sum);
	`)
	assert.Equal(t, "25\n", out)
}

func TestDoWhileRunsBodyAtLeastOnce(t *testing.T) {
	out := run(t, `
		int n = 0;
		int count = 0;
		do {
			count += 1;
		} while (n > 0);
		print(count);
	`)
	assert.Equal(t, "1\n", out)
}

func TestForLoopAccumulates(t *testing.T) {
	out := run(t, `
		int total = 0;
		for (int i = 0; i < 5; i += 1) {
			total += i;
		}
		print(total);
	`)
	assert.Equal(t, "10\n", out)
}

func TestSwitchStatementFallsThroughWithoutBreak(t *testing.T) {
	out := run(t, `
		int n = 1;
		switch (n) {
		case 1:
		case 2:
			print("one-or-two");
			break;
		default:
			print("other");
			break;
		}
	`)
	assert.Equal(t, "one-or-two\n", out)
}

func TestSwitchStatementGotoCase(t *testing.T) {
	out := run(t, `
		int n = 1;
		switch (n) {
		case 1:
			print("first");
			goto case 2;
		case 2:
			print("second");
			break;
		}
	`)
	assert.Equal(t, "first\nsecond\n", out)
}

func TestTryCatchBindsErrorMessage(t *testing.T) {
	out := run(t, `
		try {
			throw "boom";
		} catch (e) {
			print(e);
		}
	`)
	assert.Equal(t, "boom\n", out)
}

func TestTryFinallyAlwaysRuns(t *testing.T) {
	out := run(t, `
		try {
			throw "boom";
		} catch (e) {
			print("caught");
		} finally {
			print("cleanup");
		}
	`)
	assert.Equal(t, "caught\ncleanup\n", out)
}

func TestRethrowInsideCatchPropagates(t *testing.T) {
	a := ember.NewAst(context.Background(), nil)
	err := a.Interpret(`
		try {
			try {
				throw "inner";
			} catch (e) {
				throw;
			}
		} catch (e) {
			print(e);
		}
	`, false, false, nil)
	require.NoError(t, err)
}

func TestGotoJumpsWithinStatementList(t *testing.T) {
	out := run(t, `
		int i = 0;
	start:
		i += 1;
		if (i < 3) {
			goto start;
		}
		print(i);
	`)
	assert.Equal(t, "3\n", out)
}

func TestIsPatternBindsDerivedType(t *testing.T) {
	out := run(t, `
		class Animal {
		}
		class Dog : Animal {
			int Bark() {
				return 1;
			}
		}

		Animal a = new Dog();
		if (a is Dog d) {
			print(d.Bark());
		}
	`)
	assert.Equal(t, "1\n", out)
}

func TestLambdaCapturesEnclosingScope(t *testing.T) {
	out := run(t, `
		int offset = 10;
		Func<int, int> add = (x) => x + offset;
		print(add(5));
	`)
	assert.Equal(t, "15\n", out)
}

func TestDictionaryLiteralAndForeach(t *testing.T) {
	out := run(t, `
		var d = [1: "one", 2: "two"];
		int total = 0;
		foreach (var k in d) {
			total += k;
		}
		print(total);
	`)
	assert.Equal(t, "3\n", out)
}
