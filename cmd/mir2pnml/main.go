// Command mir2pnml translates a textual MIR dump into a PNML PT-net. Flags
// bind to locals, the real work happens in RunE, cobra's own error/usage
// printing is silenced so the command controls its own diagnostics, and a
// single captured exit code drives the final os.Exit.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/aledsdavies/mir2pnml/internal/dump"
	"github.com/aledsdavies/mir2pnml/internal/env"
	"github.com/aledsdavies/mir2pnml/internal/mir"
	"github.com/aledsdavies/mir2pnml/internal/pnml"
	"github.com/aledsdavies/mir2pnml/internal/translate"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	var (
		mirPath    string
		outPath    string
		entryFn    string
		maxFns     int
		dumpJSON   string
		rwlockN    int
	)

	rootCmd := &cobra.Command{
		Use:           "mir2pnml",
		Short:         "Translate a MIR text dump into a PNML Petri net",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return translateFile(mirPath, outPath, dumpJSON, entryFn, maxFns, stdout)
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetArgs(args)

	rootCmd.Flags().StringVar(&mirPath, "mir", "", "Input MIR text file (required)")
	rootCmd.Flags().StringVar(&outPath, "out", "", "Output PNML file (required)")
	rootCmd.Flags().StringVar(&entryFn, "entry-fn", "main", "Function whose entry place receives the initial token")
	rootCmd.Flags().IntVar(&maxFns, "max-fns", 0, "Translate only the first N parsed functions (0 = unlimited)")
	rootCmd.Flags().StringVar(&dumpJSON, "dump-json", "", "Also write a JSON rendering of the in-memory net")
	rootCmd.Flags().IntVar(&rwlockN, "rwlock-n", 0, "Reserved: RwLock read-concurrency token limit (no semantic effect yet)")
	_ = rootCmd.MarkFlagRequired("mir")
	_ = rootCmd.MarkFlagRequired("out")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func translateFile(mirPath, outPath, dumpJSONPath, entryFn string, maxFns int, stdout io.Writer) error {
	content, err := os.ReadFile(mirPath)
	if err != nil {
		if os.IsNotExist(err) {
			return env.Wrap(env.ErrInputNotFound, "MIR file not found: "+mirPath, err)
		}
		return env.Wrap(env.ErrInputRead, "cannot read MIR file", err)
	}

	net, err := translate.Run(string(content), translate.Options{EntryFn: entryFn, MaxFns: maxFns})
	if err != nil {
		if pe, ok := err.(*mir.ParseError); ok {
			return fmt.Errorf("parse error: %w", pe)
		}
		return err
	}

	outFile, err := os.Create(outPath)
	if err != nil {
		return env.Wrap(env.ErrOutputWrite, "cannot write PNML file", err)
	}
	defer outFile.Close()

	if err := pnml.Write(outFile, net, "mir2pnml_net"); err != nil {
		return env.Wrap(env.ErrOutputWrite, "cannot serialize PNML", err)
	}

	if dumpJSONPath != "" {
		dumpFile, err := os.Create(dumpJSONPath)
		if err != nil {
			fmt.Fprintf(stdout, "Warning: cannot write dump-json: %v\n", err)
		} else {
			defer dumpFile.Close()
			if err := dump.Write(dumpFile, net); err != nil {
				fmt.Fprintf(stdout, "Warning: cannot write dump-json: %v\n", err)
			}
		}
	}

	return nil
}
