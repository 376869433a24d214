// Command catjit reads and runs catjit source, JIT-compiling each
// definition to native machine code as it is read. Modeled on goat's cobra
// root-command shape: a single command with no subcommands, positional
// arguments read and run in order, "-" or no arguments at all meaning
// stdin.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"catjit/intrinsics"
	"catjit/lang"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "catjit:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catjit [file...]",
		Short: "Run catjit source files, JIT-compiling definitions to native code",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFiles(args)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	return cmd
}

func runFiles(paths []string) error {
	ip, err := lang.NewInterpreter()
	if err != nil {
		return err
	}
	defer ip.Close()

	if err := intrinsics.Register(ip); err != nil {
		return err
	}

	stack := lang.NewParamStack()
	sp := stack.Top()

	if len(paths) == 0 {
		paths = []string{"-"}
	}

	for _, path := range paths {
		f, closeF, err := openSource(path)
		if err != nil {
			return err
		}
		sp, err = lang.Run(ip, f, sp)
		closeF()
		if err != nil {
			if trace := ip.TraceDump(); trace != "" {
				fmt.Fprintln(os.Stderr, trace)
			}
			var fe *lang.FatalError
			if errors.As(err, &fe) {
				return fe
			}
			return err
		}
	}
	if trace := ip.TraceDump(); trace != "" {
		fmt.Fprintln(os.Stderr, trace)
	}
	return nil
}

func openSource(path string) (f *os.File, closeF func(), err error) {
	if path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err = os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return f, func() { f.Close() }, nil
}
