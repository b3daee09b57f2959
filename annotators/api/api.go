// Package api defines the types shared by the annotators: POS codes, the lexical cache interface,
// sentence records and the sparse "px" lists produced by the tagger and the sentence boundary classifier.
//
// It's kept separate to break the cyclic dependency between `rdd` and the annotators themselves.
package api

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrContract is wrapped by every error caused by malformed caller input: length mismatches,
// out-of-range token indices, unsorted lists, values that can't be packed.
//
// These are programming errors in the upstream producer, never transient failures.
var ErrContract = errors.New("annotation contract violation")

// POS is a part-of-speech code, as stored in the high bits of a packed annotation field.
//
// The zero value POSUnknown is reserved: a packed field equal to 0 means "unset".
type POS int

const (
	POSUnknown POS = iota
	ADJ
	ADP
	ADV
	AUX
	CCONJ
	DET
	INTJ
	NOUN
	NUM
	PART
	PRON
	PROPN
	PUNCT
	SCONJ
	SYM
	VERB
	X
	SPACE
	NumPOS
)

var posNames = [NumPOS]string{
	"UNK", "ADJ", "ADP", "ADV", "AUX", "CCONJ", "DET", "INTJ", "NOUN", "NUM",
	"PART", "PRON", "PROPN", "PUNCT", "SCONJ", "SYM", "VERB", "X", "SPACE",
}

// String returns the universal tag name, e.g. "NOUN".
func (p POS) String() string {
	if p < 0 || p >= NumPOS {
		return "POS(" + strconv.Itoa(int(p)) + ")"
	}
	return posNames[p]
}

// Valid returns whether p is one of the known tags, POSUnknown included.
func (p POS) Valid() bool {
	return p >= 0 && p < NumPOS
}

// ParsePOS converts a tag name (case-insensitive) to its POS code.
func ParsePOS(name string) (POS, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for ii, n := range posNames {
		if n == upper {
			return POS(ii), nil
		}
	}
	return POSUnknown, errors.Errorf("unknown POS tag %q", name)
}

// LexicalCache answers whether a normalized token may legitimately carry a POS tag.
//
// It's used read-only by the override applier to gate conditional overrides.
type LexicalCache interface {
	IsMemberPOS(normalized string, pos POS) bool
}

// Sentence is a sentence span over token indices, both ends inclusive.
// Negation and Sentiment are placeholders filled in by a later stage.
//
// It is encoded in JSON as the 4-tuple [start, end, negation, sentiment].
type Sentence struct {
	Start, End int
	Negation   int
	Sentiment  float64
}

// Len returns the number of tokens in the span.
func (s Sentence) Len() int {
	return s.End - s.Start + 1
}

// MarshalJSON implements json.Marshaler.
func (s Sentence) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]any{s.Start, s.End, s.Negation, s.Sentiment})
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Sentence) UnmarshalJSON(data []byte) error {
	var tuple []float64
	if err := json.Unmarshal(data, &tuple); err != nil {
		return errors.Wrapf(err, "sentence must be a [start, end, negation, sentiment] array")
	}
	if len(tuple) != 4 {
		return errors.Errorf("sentence must have 4 elements, got %d", len(tuple))
	}
	*s = Sentence{Start: int(tuple[0]), End: int(tuple[1]), Negation: int(tuple[2]), Sentiment: tuple[3]}
	return nil
}

// OverrideRule is one entry of the POS exception list.
//
// A negative Target forces the POS -Target unconditionally. A non-negative Target is only
// applied if the lexical cache accepts the normalized token for it.
// Context is opaque here: it is carried through but not interpreted.
type OverrideRule struct {
	TokenIndex int
	Context    int
	Target     int
}

// Forced returns whether the rule applies unconditionally.
func (r OverrideRule) Forced() bool {
	return r.Target < 0
}

// POS returns the tag the rule assigns.
func (r OverrideRule) POS() POS {
	if r.Target < 0 {
		return POS(-r.Target)
	}
	return POS(r.Target)
}

// MarshalJSON implements json.Marshaler, as the 3-tuple [tokenIndex, context, target].
func (r OverrideRule) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]int{r.TokenIndex, r.Context, r.Target})
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *OverrideRule) UnmarshalJSON(data []byte) error {
	var tuple []int
	if err := json.Unmarshal(data, &tuple); err != nil {
		return errors.Wrapf(err, "override rule must be a [tokenIndex, context, target] array")
	}
	if len(tuple) != 3 {
		return errors.Errorf("override rule must have 3 elements, got %d", len(tuple))
	}
	*r = OverrideRule{TokenIndex: tuple[0], Context: tuple[1], Target: tuple[2]}
	return nil
}

// BoundaryMarker marks the last token of a detected sentence.
// Any further values the classifier attached to the marker are kept in Extra.
type BoundaryMarker struct {
	TokenIndex int
	Extra      []int
}

// MarshalJSON implements json.Marshaler, as the array [tokenIndex, extra...].
func (m BoundaryMarker) MarshalJSON() ([]byte, error) {
	return json.Marshal(append([]int{m.TokenIndex}, m.Extra...))
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *BoundaryMarker) UnmarshalJSON(data []byte) error {
	var tuple []int
	if err := json.Unmarshal(data, &tuple); err != nil {
		return errors.Wrapf(err, "boundary marker must be an array starting with the token index")
	}
	if len(tuple) == 0 {
		return errors.New("boundary marker is empty")
	}
	m.TokenIndex = tuple[0]
	m.Extra = nil
	if len(tuple) > 1 {
		m.Extra = tuple[1:]
	}
	return nil
}

// Markers is a convenience constructor for a marker list from token indices only.
func Markers(indices ...int) []BoundaryMarker {
	markers := make([]BoundaryMarker, len(indices))
	for ii, idx := range indices {
		markers[ii] = BoundaryMarker{TokenIndex: idx}
	}
	return markers
}
