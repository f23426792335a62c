// Command emberc reads a source file and either runs it through
// ember.Ast.Interpret or prints its parsed tree, consuming only the
// evaluator's public contract (parse → evaluate, register native, cancel).
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/embergo/ember"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "emberc",
		Short: "Run or parse ember source files",
	}
	root.AddCommand(newRunCmd())
	root.AddCommand(newParseCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var printTree bool
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Parse and evaluate a source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}

			var a *ember.Ast
			var cancel context.CancelFunc
			if timeout > 0 {
				a, cancel = ember.NewAstWithTimeout(timeout, nil)
				defer cancel()
			} else {
				a = ember.NewAst(context.Background(), nil)
			}

			stdout := func(s string) { fmt.Fprint(cmd.OutOrStdout(), s) }
			if err := a.Interpret(string(src), true, printTree, stdout); err != nil {
				return err
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&printTree, "print-tree", false, "print the parsed tree before evaluating")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "cancel evaluation after this duration (e.g. 500ms)")
	return cmd
}

func newParseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a source file and print diagnostics and the tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			a := ember.NewAst(context.Background(), nil)
			res := a.Parse(string(src))
			for _, d := range res.Diagnostics {
				fmt.Fprintln(cmd.ErrOrStderr(), d)
			}
			fmt.Fprint(cmd.OutOrStdout(), ember.PrintTree(res.Program))
			if len(res.Diagnostics) > 0 {
				return fmt.Errorf("%d parse diagnostic(s)", len(res.Diagnostics))
			}
			return nil
		},
	}
	return cmd
}
