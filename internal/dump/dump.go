// Package dump renders a petrinet.PetriNet as the JSON document written by
// "--dump-json", kept separate from the petrinet package so one package
// owns the net's shape and another owns this external rendering of it.
package dump

import (
	"encoding/json"
	"io"

	"github.com/aledsdavies/mir2pnml/internal/petrinet"
)

type placeJSON struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	InitTokens int    `json:"init_tokens"`
}

type transitionJSON struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Kind string `json:"kind"`
	Op   string `json:"op,omitempty"`
}

type arcJSON struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Weight int    `json:"weight"`
}

// Document is the full JSON-serializable rendering of a built net.
type Document struct {
	Places         []placeJSON         `json:"places"`
	Transitions    []transitionJSON    `json:"transitions"`
	Arcs           []arcJSON           `json:"arcs"`
	InitialMarking map[string]int      `json:"initial_marking"`
	Warnings       []petrinet.Warning  `json:"warnings"`
	Fingerprint    string              `json:"fingerprint"`
}

// FromNet converts net into its JSON-serializable Document.
func FromNet(net *petrinet.PetriNet) Document {
	doc := Document{
		InitialMarking: net.InitialMarking,
		Warnings:       net.Warnings,
		Fingerprint:    net.Fingerprint(),
	}
	for _, p := range net.Places {
		doc.Places = append(doc.Places, placeJSON{ID: p.ID, Name: p.Name, Kind: string(p.Kind), InitTokens: p.InitTokens})
	}
	for _, t := range net.Transitions {
		doc.Transitions = append(doc.Transitions, transitionJSON{ID: t.ID, Name: t.Name, Kind: string(t.Kind), Op: t.Op})
	}
	for _, a := range net.Arcs {
		doc.Arcs = append(doc.Arcs, arcJSON{ID: a.ID, Source: a.Source, Target: a.Target, Weight: a.Weight})
	}
	return doc
}

// Write encodes net as indented JSON to w.
func Write(w io.Writer, net *petrinet.PetriNet) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(FromNet(net))
}
