// Package rdd holds the raw document data: the flat, fixed-stride token array with its packed
// annotation fields, and the sentence spans over it.
//
// A Document is built once per document by the upstream tokenizer, mutated in place by the
// annotators (see packages annotators/pos and annotators/sbd) and then read by the consumers.
// It's not safe for concurrent use.
package rdd

import (
	"github.com/gomlx/go-annotator/annotators/api"
	"github.com/pkg/errors"
)

// Layout describes how tokens are laid out in Document.Tokens and how the annotation field is packed.
type Layout struct {
	// TokenSize is the number of consecutive slots each token occupies (tkSize).
	TokenSize int `json:"tk_size"`

	// AnnotationSlot is the offset, within a token's slots, of the packed POS/lemma field.
	AnnotationSlot int `json:"annotation_slot"`

	// Bits4Lemma is the number of low bits of the packed field holding the lemma id.
	// The POS code is stored above them.
	Bits4Lemma uint `json:"bits4lemma"`
}

// DefaultLayout is used when no layout is configured.
func DefaultLayout() Layout {
	return Layout{TokenSize: 4, AnnotationSlot: 2, Bits4Lemma: 20}
}

// Validate checks the layout is usable.
func (l Layout) Validate() error {
	if l.TokenSize < 1 {
		return errors.Wrapf(api.ErrContract, "token size must be >= 1, got %d", l.TokenSize)
	}
	if l.AnnotationSlot < 0 || l.AnnotationSlot >= l.TokenSize {
		return errors.Wrapf(api.ErrContract, "annotation slot %d outside token of size %d", l.AnnotationSlot, l.TokenSize)
	}
	if l.Bits4Lemma >= 32 {
		return errors.Wrapf(api.ErrContract, "bits4lemma must be < 32, got %d", l.Bits4Lemma)
	}
	if api.POS(l.MaxPOS()) < api.NumPOS-1 {
		return errors.Wrapf(api.ErrContract, "bits4lemma=%d leaves no room for %d POS codes", l.Bits4Lemma, api.NumPOS)
	}
	return nil
}

// LemmaMask selects the lemma bits of a packed field.
func (l Layout) LemmaMask() uint32 {
	return uint32(1)<<l.Bits4Lemma - 1
}

// MaxPOS is the largest POS code that fits above the lemma bits.
func (l Layout) MaxPOS() uint32 {
	return ^uint32(0) >> l.Bits4Lemma
}

// Pack combines a POS code and a lemma id into one annotation field.
func (l Layout) Pack(pos api.POS, lemma uint32) (uint32, error) {
	if pos < 0 || uint64(pos) > uint64(l.MaxPOS()) {
		return 0, errors.Wrapf(api.ErrContract, "POS code %d doesn't fit in %d bits", pos, 32-l.Bits4Lemma)
	}
	if lemma > l.LemmaMask() {
		return 0, errors.Wrapf(api.ErrContract, "lemma id %d doesn't fit in %d bits", lemma, l.Bits4Lemma)
	}
	return uint32(pos)<<l.Bits4Lemma | lemma, nil
}

// POSOf decodes the POS code of a packed field.
func (l Layout) POSOf(field uint32) api.POS {
	return api.POS(field >> l.Bits4Lemma)
}

// LemmaOf decodes the lemma id of a packed field.
func (l Layout) LemmaOf(field uint32) uint32 {
	return field & l.LemmaMask()
}

// Document is the raw document data (RDD) of one document.
type Document struct {
	Layout

	// Tokens holds NumOfTokens * TokenSize slots.
	Tokens []uint32

	// NumOfTokens is the number of logical tokens, not the number of slots.
	NumOfTokens int

	// Sentences are contiguous spans covering [0, NumOfTokens-1], once set by the sentence span builder.
	Sentences []api.Sentence
}

// New creates a Document with all the token slots zeroed.
func New(layout Layout, numOfTokens int) (*Document, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	if numOfTokens < 0 {
		return nil, errors.Wrapf(api.ErrContract, "negative number of tokens %d", numOfTokens)
	}
	return &Document{
		Layout:      layout,
		Tokens:      make([]uint32, numOfTokens*layout.TokenSize),
		NumOfTokens: numOfTokens,
	}, nil
}

// NewFromTokens wraps an existing token array, e.g. one with multi-token expansions already populated.
// The slice is used as is, not copied.
func NewFromTokens(layout Layout, tokens []uint32, numOfTokens int) (*Document, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	doc := &Document{Layout: layout, Tokens: tokens, NumOfTokens: numOfTokens}
	if err := doc.CheckShape(); err != nil {
		return nil, err
	}
	return doc, nil
}

// CheckShape verifies the token array is exactly NumOfTokens strides long.
func (d *Document) CheckShape() error {
	if d.NumOfTokens < 0 {
		return errors.Wrapf(api.ErrContract, "negative number of tokens %d", d.NumOfTokens)
	}
	if len(d.Tokens)%d.TokenSize != 0 {
		return errors.Wrapf(api.ErrContract, "token array of length %d not divisible by token size %d",
			len(d.Tokens), d.TokenSize)
	}
	if want := d.NumOfTokens * d.TokenSize; len(d.Tokens) != want {
		return errors.Wrapf(api.ErrContract, "token array has %d slots, want %d (%d tokens of size %d)",
			len(d.Tokens), want, d.NumOfTokens, d.TokenSize)
	}
	return nil
}

func (d *Document) slot(i int) int {
	return i*d.TokenSize + d.AnnotationSlot
}

// Annotation returns the packed annotation field of token i.
func (d *Document) Annotation(i int) uint32 {
	return d.Tokens[d.slot(i)]
}

// SetAnnotation overwrites the packed annotation field of token i.
func (d *Document) SetAnnotation(i int, field uint32) {
	d.Tokens[d.slot(i)] = field
}

// POS returns the decoded POS code of token i.
func (d *Document) POS(i int) api.POS {
	return d.POSOf(d.Annotation(i))
}

// Lemma returns the decoded lemma id of token i.
func (d *Document) Lemma(i int) uint32 {
	return d.LemmaOf(d.Annotation(i))
}

// CheckSentences verifies the sentence spans are ordered, contiguous, non-overlapping and
// cover every token exactly once.
func (d *Document) CheckSentences() error {
	if d.NumOfTokens == 0 {
		if len(d.Sentences) != 0 {
			return errors.Errorf("document without tokens has %d sentences", len(d.Sentences))
		}
		return nil
	}
	if len(d.Sentences) == 0 {
		return errors.Errorf("document with %d tokens has no sentences", d.NumOfTokens)
	}
	next := 0
	for ii, s := range d.Sentences {
		if s.Start != next {
			return errors.Errorf("sentence #%d starts at token %d, expected %d", ii, s.Start, next)
		}
		if s.End < s.Start {
			return errors.Errorf("sentence #%d ends at %d before its start %d", ii, s.End, s.Start)
		}
		next = s.End + 1
	}
	if next != d.NumOfTokens {
		return errors.Errorf("sentences end at token %d, expected %d", next-1, d.NumOfTokens-1)
	}
	return nil
}
