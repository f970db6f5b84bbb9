// loom: command-line front end for the IR tools.
//
// Subcommands:
//
//	parse   — parse a file and report what it contains
//	fmt     — parse a file and print it back in canonical form
//	aliases — parse a file and dump the memory-alias relation
//
// Every subcommand takes --profile to select the IR representation
// (plain, soacs, kernels).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	loom "github.com/loom-lang/loom"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// rootOptions holds global flags for all commands.
type rootOptions struct {
	Profile string // "plain" | "soacs" | "kernels"
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "loom",
		Short: "Loom IR tools",
		Long:  "Parse, format, and analyze Loom compiler IR.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := loom.ProfileFromName(opts.Profile); !ok {
				return fmt.Errorf("invalid profile %q: must be plain, soacs, or kernels", opts.Profile)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Profile, "profile", "soacs",
		"IR representation profile (plain|soacs|kernels)")

	cmd.AddCommand(newParseCommand(opts))
	cmd.AddCommand(newFmtCommand(opts))
	cmd.AddCommand(newAliasesCommand(opts))

	return cmd
}

// loadProg reads and parses one IR file under the selected profile.
func loadProg(opts *rootOptions, fname string) (*loom.Prog, error) {
	src, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}
	prof, _ := loom.ProfileFromName(opts.Profile)
	prog, err := loom.ParseProg(fname, string(src), prof)
	if err != nil {
		return nil, loom.WrapErrorWithName(err, fname, string(src))
	}
	return prog, nil
}

func newParseCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "parse <file>",
		Short:         "Parse an IR file and report what it contains",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := loadProg(opts, args[0])
			if err != nil {
				return err
			}
			entries := 0
			for _, f := range prog.Funs {
				if f.Entry {
					entries++
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"%s: %d constant(s), %d function(s), %d entry point(s)\n",
				args[0], len(prog.Consts), len(prog.Funs), entries)
			return nil
		},
	}
}

func newFmtCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "fmt <file>",
		Short:         "Print an IR file back in canonical form",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := loadProg(opts, args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), loom.FormatProg(prog))
			return nil
		},
	}
}

func newAliasesCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "aliases <file>",
		Short:         "Dump the memory-alias relation of an IR file",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := loadProg(opts, args[0])
			if err != nil {
				return err
			}
			handler := loom.PlainOps
			if opts.Profile == "kernels" {
				handler = loom.KernelOps
			}
			fmt.Fprint(cmd.OutOrStdout(), loom.AnalyzeProg(prog, handler).Dump())
			return nil
		},
	}
}
