package main

import (
	"encoding/json"
	"fmt"

	"github.com/lingodb/lingo"
	"github.com/lingodb/lingo/internal/core"
)

// inputSpec is the build subcommand's JSON input format. It has no analogue
// in the reference implementation (the CLI surface is explicitly "thin
// adaptors; implementers may substitute their own" per spec §6.3), so the
// shape here is a minimal, direct mapping onto Builder's accumulation API.
type inputSpec struct {
	Language     string          `json:"language"`
	ModelVersion string          `json:"model_version"`
	Nodes        []inputNode     `json:"nodes"`
	Connections  []inputConn     `json:"connections"`
	Children     []inputChildren `json:"children"`
}

type inputNode struct {
	Word      string  `json:"word"`
	Layer     string  `json:"layer"`
	X         float32 `json:"x"`
	Y         float32 `json:"y"`
	Z         float32 `json:"z"`
	Etymology string  `json:"etymology"`
	Morpheme  string  `json:"morpheme_type"`
}

type inputConn struct {
	Source   string  `json:"source"`
	Target   string  `json:"target"`
	Type     string  `json:"type"`
	Strength float32 `json:"strength"`
}

type inputChildren struct {
	Parent   string   `json:"parent"`
	Children []string `json:"children"`
}

func parseInputSpec(data []byte) (*inputSpec, error) {
	var spec inputSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	if len(spec.Nodes) == 0 {
		return nil, fmt.Errorf("input spec has no nodes")
	}
	return &spec, nil
}

var layerNames = map[string]core.Layer{
	"letters": core.LayerLetters, "phonemes": core.LayerPhonemes,
	"morphemes": core.LayerMorphemes, "words": core.LayerWords,
	"phrases": core.LayerPhrases, "concepts": core.LayerConcepts,
	"domains": core.LayerDomains,
}

var etymologyNames = map[string]core.EtymologyOrigin{
	"germanic": core.EtymologyGermanic, "latin": core.EtymologyLatin,
	"greek": core.EtymologyGreek, "french": core.EtymologyFrench,
	"arabic": core.EtymologyArabic, "sanskrit": core.EtymologySanskrit,
	"chinese": core.EtymologyChinese, "japanese": core.EtymologyJapanese,
	"modern": core.EtymologyModern, "unknown": core.EtymologyUnknown,
}

var morphemeNames = map[string]core.MorphemeType{
	"root": core.MorphemeRoot, "prefix": core.MorphemePrefix,
	"suffix": core.MorphemeSuffix, "infix": core.MorphemeInfix,
	"circumfix": core.MorphemeCircumfix, "compound": core.MorphemeCompound,
}

var connectionNames = map[string]core.ConnectionType{
	"synonymy": core.ConnSynonymy, "antonymy": core.ConnAntonymy,
	"hypernymy": core.ConnHypernymy, "hyponymy": core.ConnHyponymy,
	"meronymy": core.ConnMeronymy, "derivation": core.ConnDerivation,
	"etymology": core.ConnEtymology, "phonetic": core.ConnPhonetic,
	"analogy": core.ConnAnalogy, "collocation": core.ConnCollocation,
	"causation": core.ConnCausation, "learned": core.ConnLearned,
	"lexical_bridge": core.ConnLexicalBridge,
	"morphological_pattern": core.ConnMorphologicalPattern,
}

func buildFromSpec(spec *inputSpec, outPath string) error {
	b := lingo.NewBuilder()
	if spec.Language != "" {
		b.SetLanguage(spec.Language)
	}
	if spec.ModelVersion != "" {
		b.SetModelVersion(spec.ModelVersion)
	}

	ids := make(map[string]lingo.NodeID, len(spec.Nodes))
	for _, n := range spec.Nodes {
		layer, ok := layerNames[n.Layer]
		if !ok {
			return fmt.Errorf("unknown layer %q for node %q", n.Layer, n.Word)
		}
		id, err := b.AddNode(n.Word, layer, core.Coordinate3D{X: n.X, Y: n.Y, Z: n.Z})
		if err != nil {
			return fmt.Errorf("add node %q: %w", n.Word, err)
		}
		ids[n.Word] = id

		etymology := core.EtymologyUnknown
		if n.Etymology != "" {
			e, ok := etymologyNames[n.Etymology]
			if !ok {
				return fmt.Errorf("unknown etymology %q for node %q", n.Etymology, n.Word)
			}
			etymology = e
		}
		morpheme := core.MorphemeRoot
		if n.Morpheme != "" {
			m, ok := morphemeNames[n.Morpheme]
			if !ok {
				return fmt.Errorf("unknown morpheme type %q for node %q", n.Morpheme, n.Word)
			}
			morpheme = m
		}
		if err := b.SetNodeProperties(id, etymology, morpheme, 0); err != nil {
			return fmt.Errorf("set properties for %q: %w", n.Word, err)
		}
	}

	for _, c := range spec.Connections {
		source, ok := ids[c.Source]
		if !ok {
			return fmt.Errorf("connection source %q not found", c.Source)
		}
		target, ok := ids[c.Target]
		if !ok {
			return fmt.Errorf("connection target %q not found", c.Target)
		}
		connType, ok := connectionNames[c.Type]
		if !ok {
			return fmt.Errorf("unknown connection type %q", c.Type)
		}
		if err := b.AddConnection(source, target, connType, c.Strength, core.DiscoveryPrecomputed); err != nil {
			return fmt.Errorf("add connection %s->%s: %w", c.Source, c.Target, err)
		}
	}

	for _, c := range spec.Children {
		parent, ok := ids[c.Parent]
		if !ok {
			return fmt.Errorf("children parent %q not found", c.Parent)
		}
		childIDs := make([]lingo.NodeID, 0, len(c.Children))
		for _, word := range c.Children {
			id, ok := ids[word]
			if !ok {
				return fmt.Errorf("child %q not found", word)
			}
			childIDs = append(childIDs, id)
		}
		if err := b.SetChildren(parent, childIDs); err != nil {
			return fmt.Errorf("set children of %q: %w", c.Parent, err)
		}
	}

	return b.Build(outPath)
}
