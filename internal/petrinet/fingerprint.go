package petrinet

import (
	"fmt"
	"sort"

	"golang.org/x/crypto/blake2b"
)

// Fingerprint returns a stable BLAKE2b-256 content hash of the net's
// structural shape: the ordered (id, kind, endpoints) triples of every
// place, transition and arc, plus the initial marking — execution-relevant
// content only, incidental metadata excluded from the digest. Two builds of
// the same functions in the same order must produce the same fingerprint;
// this is exercised directly by the idempotent-construction test.
func (n *PetriNet) Fingerprint() string {
	h, err := blake2b.New256(nil)
	if err != nil {
		// blake2b.New256 only errors on an oversized key, and we pass none.
		panic(err)
	}

	for _, p := range n.Places {
		fmt.Fprintf(h, "place|%s|%s|%d\n", p.ID, p.Kind, p.InitTokens)
	}
	for _, t := range n.Transitions {
		fmt.Fprintf(h, "transition|%s|%s|%s\n", t.ID, t.Kind, t.Op)
	}
	for _, a := range n.Arcs {
		fmt.Fprintf(h, "arc|%s|%s|%s|%d\n", a.ID, a.Source, a.Target, a.Weight)
	}

	keys := make([]string, 0, len(n.InitialMarking))
	for k := range n.InitialMarking {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(h, "marking|%s|%d\n", k, n.InitialMarking[k])
	}

	return fmt.Sprintf("%x", h.Sum(nil))
}
