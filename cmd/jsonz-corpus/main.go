// Command jsonz-corpus generates the JSONZ test corpus and verifies emitted
// corpora against an extended codec.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/lattice-substrate/jsonz-corpus/jzcerr"
)

const exitSuccess = 0

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout io.Writer, stderr io.Writer) int {
	root := newRootCommand(stdin, stdout, stderr)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		return writeClassifiedError(stderr, err)
	}
	return exitSuccess
}

func newRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	gen := &generateOptions{}
	root := &cobra.Command{
		Use:   "jsonz-corpus",
		Short: "Generate the JSONZ test corpus",
		Long: `Generate the JSONZ test corpus and write it to standard output as
LF-delimited JSON records. The final record is the whole corpus as one
object and is not followed by LF.

Without a subcommand, jsonz-corpus behaves as "jsonz-corpus generate".`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return generate(gen, stdout, stderr)
		},
	}
	// Help and usage go to stderr so stdout only ever carries records.
	root.SetOut(stderr)
	root.SetErr(stderr)
	root.SetIn(stdin)
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return jzcerr.Wrap(jzcerr.CLIUsage, cmd.CommandPath(), err)
	})
	gen.register(root)

	root.AddCommand(newGenerateCommand(stdout, stderr))
	root.AddCommand(newVerifyCommand(stdin, stdout, stderr))
	return root
}

// writeClassifiedError prints err as a single line and returns its exit
// code. Errors raised by argument parsing itself carry no class and are
// usage errors.
func writeClassifiedError(stderr io.Writer, err error) int {
	var je *jzcerr.Error
	if !errors.As(err, &je) {
		err = jzcerr.Wrap(jzcerr.CLIUsage, "usage", err)
	}
	if _, werr := fmt.Fprintf(stderr, "error: %v\n", err); werr != nil {
		return jzcerr.InternalIO.ExitCode()
	}
	return jzcerr.ClassOf(err).ExitCode()
}
