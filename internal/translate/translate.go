// Package translate wires the core stages — mir.Parse and petrinet.Build —
// into the single pipeline the CLI and tests drive, stopping short of
// serialization so callers choose pnml.Write, dump.Write, or both.
package translate

import (
	"github.com/aledsdavies/mir2pnml/internal/env"
	"github.com/aledsdavies/mir2pnml/internal/mir"
	"github.com/aledsdavies/mir2pnml/internal/petrinet"
)

// Options configures a single translation run.
type Options struct {
	EntryFn string // which function's entry place receives the initial token
	MaxFns  int     // 0 means unlimited
}

// Run parses text and builds the resulting PetriNet. It returns an
// *env.Error with code ErrNoFunctions when text contains no functions the
// parser could recover, and the raw *mir.ParseError on structural parse
// failure (which never carries partial results).
func Run(text string, opts Options) (*petrinet.PetriNet, error) {
	functions, err := mir.Parse(text)
	if err != nil {
		return nil, err
	}
	if len(functions) == 0 {
		return nil, env.New(env.ErrNoFunctions, "no functions parsed from MIR")
	}

	entryFn := opts.EntryFn
	if entryFn == "" {
		entryFn = "main"
	}

	net := petrinet.Build(functions, entryFn, opts.MaxFns)
	return net, nil
}
