// Package annotate runs the annotation encoding stages over one document, in order:
//
//  1. Tag packing: the tagger's POS codes are packed into the token array (see annotators/pos.Pack).
//  2. Overrides: the POS exception rules patch the tag sequence (see annotators/pos.ApplyOverrides).
//  3. Sentence spans: the boundary markers are turned into sentences (see annotators/sbd.Build).
//
// The input is what the tagger and tokenizer produced for the document, usually read from a JSON file.
package annotate

import (
	"encoding/json"
	"os"

	"github.com/gomlx/go-annotator/annotators/api"
	"github.com/gomlx/go-annotator/annotators/pos"
	"github.com/gomlx/go-annotator/annotators/sbd"
	"github.com/gomlx/go-annotator/lexicon"
	"github.com/gomlx/go-annotator/rdd"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Input holds everything produced upstream for one document.
type Input struct {
	// Layout of the token array. If nil, rdd.DefaultLayout() is used.
	Layout *rdd.Layout `json:"layout,omitempty"`

	NumOfTokens int `json:"num_of_tokens"`

	// Tokens optionally pre-populates the token array, e.g. with multi-token expansions.
	// If empty a zeroed array is used.
	Tokens []uint32 `json:"tokens,omitempty"`

	// POSCodes are the tagger's POS codes, one per token.
	POSCodes []api.POS `json:"pos_codes"`

	// Texts are the tokens' surface forms. Only used to derive Normalized when that is empty.
	Texts []string `json:"texts,omitempty"`

	// Normalized are the normalized token forms used to query the lexical cache.
	Normalized []string `json:"normalized,omitempty"`

	// POSOverrides is the POS exception list ("px").
	POSOverrides []api.OverrideRule `json:"pos_overrides,omitempty"`

	// Boundaries are the sentence-terminal markers of the boundary classifier.
	Boundaries []api.BoundaryMarker `json:"boundaries,omitempty"`
}

// LoadInput reads an Input from a JSON file.
func LoadInput(filePath string) (*Input, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read input file %q", filePath)
	}
	var in Input
	if err := json.Unmarshal(content, &in); err != nil {
		return nil, errors.Wrapf(err, "failed to parse input file %q", filePath)
	}
	return &in, nil
}

// Result of annotating one document.
type Result struct {
	// Document with the packed POS fields and the sentences.
	Document *rdd.Document

	// POSTags is the tagger's sequence after the overrides were applied.
	POSTags []api.POS

	// Overrides counts how the exception rules were applied.
	Overrides pos.Stats
}

// Run annotates the document described by in.
//
// The cache is used for the conditional overrides; it may be nil if there are none.
// The Input is not modified: Tokens and POSCodes are copied.
func Run(in *Input, cache api.LexicalCache) (*Result, error) {
	layout := rdd.DefaultLayout()
	if in.Layout != nil {
		layout = *in.Layout
	}

	var doc *rdd.Document
	var err error
	if len(in.Tokens) > 0 {
		doc, err = rdd.NewFromTokens(layout, append([]uint32(nil), in.Tokens...), in.NumOfTokens)
	} else {
		doc, err = rdd.New(layout, in.NumOfTokens)
	}
	if err != nil {
		return nil, errors.WithMessagef(err, "creating document")
	}

	normalized := in.Normalized
	if len(normalized) == 0 && len(in.Texts) > 0 {
		normalized = make([]string, len(in.Texts))
		for ii, text := range in.Texts {
			normalized[ii] = lexicon.Normalize(text)
		}
	}
	if len(normalized) == 0 && len(in.POSOverrides) > 0 {
		return nil, errors.Wrapf(api.ErrContract, "%d POS overrides given without normalized tokens or texts", len(in.POSOverrides))
	}
	if len(normalized) == 0 {
		// No overrides to gate: any placeholder will do.
		normalized = make([]string, len(in.POSCodes))
	}

	if err := pos.Pack(doc, in.POSCodes); err != nil {
		return nil, errors.WithMessagef(err, "packing POS tags")
	}
	klog.V(1).Infof("packed POS tags of %d tokens", doc.NumOfTokens)

	tags := append([]api.POS(nil), in.POSCodes...)
	stats, err := pos.ApplyOverridesWithStats(in.POSOverrides, cache, tags, normalized)
	if err != nil {
		return nil, errors.WithMessagef(err, "applying POS overrides")
	}
	klog.V(1).Infof("applied %d POS overrides: %d forced, %d accepted, %d rejected",
		len(in.POSOverrides), stats.Forced, stats.Accepted, stats.Rejected)

	if err := sbd.Apply(doc, in.Boundaries); err != nil {
		return nil, errors.WithMessagef(err, "building sentences")
	}
	klog.V(1).Infof("built %d sentences from %d boundary markers", len(doc.Sentences), len(in.Boundaries))

	return &Result{Document: doc, POSTags: tags, Overrides: stats}, nil
}
