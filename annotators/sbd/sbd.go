// Package sbd rebuilds a document's sentence spans from the sparse list of sentence-terminal
// tokens produced by the sentence boundary classifier.
package sbd

import (
	"github.com/gomlx/go-annotator/annotators/api"
	"github.com/gomlx/go-annotator/rdd"
	"github.com/pkg/errors"
)

// Build converts the boundary markers into sentence spans covering [0, numOfTokens-1].
//
// Each marker closes the sentence started right after the previous one (or at token 0).
// Tokens after the last marker form one more sentence, so a document without markers is
// a single sentence. Negation and sentiment are left at 0.
//
// Markers must be strictly ascending and within [0, numOfTokens), otherwise an error wrapping
// api.ErrContract is returned. A document with no tokens has no sentences.
func Build(markers []api.BoundaryMarker, numOfTokens int) ([]api.Sentence, error) {
	if numOfTokens < 0 {
		return nil, errors.Wrapf(api.ErrContract, "negative number of tokens %d", numOfTokens)
	}
	prev := -1
	for ii, m := range markers {
		if m.TokenIndex < 0 || m.TokenIndex >= numOfTokens {
			return nil, errors.Wrapf(api.ErrContract, "boundary marker #%d: token index %d out of range [0, %d)",
				ii, m.TokenIndex, numOfTokens)
		}
		if m.TokenIndex <= prev {
			return nil, errors.Wrapf(api.ErrContract, "boundary marker #%d: token index %d not after previous %d",
				ii, m.TokenIndex, prev)
		}
		prev = m.TokenIndex
	}
	if numOfTokens == 0 {
		return nil, nil
	}

	sentences := make([]api.Sentence, 0, len(markers)+1)
	start := 0
	for _, m := range markers {
		sentences = append(sentences, api.Sentence{Start: start, End: m.TokenIndex})
		start = m.TokenIndex + 1
	}
	// Trailing tokens without a detected terminator.
	if start <= numOfTokens-1 {
		sentences = append(sentences, api.Sentence{Start: start, End: numOfTokens - 1})
	}
	return sentences, nil
}

// Apply builds the sentences for doc and stores them in doc.Sentences.
// On error doc is left unchanged.
func Apply(doc *rdd.Document, markers []api.BoundaryMarker) error {
	sentences, err := Build(markers, doc.NumOfTokens)
	if err != nil {
		return err
	}
	doc.Sentences = sentences
	return nil
}
