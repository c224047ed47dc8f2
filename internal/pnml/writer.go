// Package pnml serializes a petrinet.PetriNet to the PNML 2009 PT-net
// grammar, built directly on the standard library's encoding/xml.
package pnml

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/aledsdavies/mir2pnml/internal/petrinet"
)

// Namespace is the PT-net 2009 grammar URI, placed on the <net> element's
// type attribute (not declared as an XML namespace prefix on descendants —
// strict PNML consumers accept both conventions).
const Namespace = "http://www.pnml.org/version-2009/grammar/ptnet"

type pnmlDoc struct {
	XMLName xml.Name `xml:"pnml"`
	Net     netElem  `xml:"net"`
}

type netElem struct {
	ID   string   `xml:"id,attr"`
	Type string   `xml:"type,attr"`
	Page pageElem `xml:"page"`
}

type pageElem struct {
	ID          string           `xml:"id,attr"`
	Places      []placeElem      `xml:"place"`
	Transitions []transitionElem `xml:"transition"`
	Arcs        []arcElem        `xml:"arc"`
}

type placeElem struct {
	ID             string      `xml:"id,attr"`
	Name           nameElem    `xml:"name"`
	InitialMarking *textWrap   `xml:"initialMarking,omitempty"`
}

type transitionElem struct {
	ID   string   `xml:"id,attr"`
	Name nameElem `xml:"name"`
}

type arcElem struct {
	ID          string    `xml:"id,attr"`
	Source      string    `xml:"source,attr"`
	Target      string    `xml:"target,attr"`
	Inscription *textWrap `xml:"inscription,omitempty"`
}

type nameElem struct {
	Text string `xml:"text"`
}

type textWrap struct {
	Text string `xml:"text"`
}

// Write serializes net as an indented, UTF-8 PNML document to w. Initial
// markings and inscriptions are omitted when they hold the PNML default
// (0 tokens, weight 1), and element order follows the net's insertion
// order.
func Write(w io.Writer, net *petrinet.PetriNet, netID string) error {
	doc := pnmlDoc{
		Net: netElem{
			ID:   netID,
			Type: Namespace,
			Page: pageElem{ID: "page0"},
		},
	}

	for _, p := range net.Places {
		pe := placeElem{ID: p.ID, Name: nameElem{Text: p.Name}}
		if p.InitTokens != 0 {
			pe.InitialMarking = &textWrap{Text: fmt.Sprintf("%d", p.InitTokens)}
		}
		doc.Net.Page.Places = append(doc.Net.Page.Places, pe)
	}

	for _, t := range net.Transitions {
		doc.Net.Page.Transitions = append(doc.Net.Page.Transitions, transitionElem{
			ID:   t.ID,
			Name: nameElem{Text: t.Name},
		})
	}

	for _, a := range net.Arcs {
		ae := arcElem{ID: a.ID, Source: a.Source, Target: a.Target}
		if a.Weight != 1 {
			ae.Inscription = &textWrap{Text: fmt.Sprintf("%d", a.Weight)}
		}
		doc.Net.Page.Arcs = append(doc.Net.Page.Arcs, ae)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}
