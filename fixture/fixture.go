// Package fixture holds the expected annotation of a document, used to test that the annotation
// encoding of a packaged model still produces the same raw document data.
//
// Fixtures are JSON files, optionally zstd compressed (a ".zst" suffix), see Load and Save.
package fixture

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gomlx/go-annotator/annotate"
	"github.com/gomlx/go-annotator/annotators/api"
	"github.com/gomlx/go-annotator/rdd"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/zeebo/blake3"
)

// Meta describes how a fixture was generated. It's not part of the comparison nor of the Digest.
type Meta struct {
	RunID   string    `json:"run_id"`
	Created time.Time `json:"created"`
	Source  string    `json:"source,omitempty"`
}

// Fixture is the expected annotation of one document.
type Fixture struct {
	Meta        Meta           `json:"meta"`
	Layout      rdd.Layout     `json:"layout"`
	NumOfTokens int            `json:"num_of_tokens"`
	Tokens      []uint32       `json:"tokens"`
	Sentences   []api.Sentence `json:"sentences"`
	POSTags     []api.POS      `json:"pos_tags,omitempty"`
}

// FromResult creates a Fixture from the result of annotate.Run, with a new RunID.
// The slices are copied.
func FromResult(res *annotate.Result, source string) *Fixture {
	doc := res.Document
	return &Fixture{
		Meta: Meta{
			RunID:   uuid.NewString(),
			Created: time.Now().UTC().Truncate(time.Second),
			Source:  source,
		},
		Layout:      doc.Layout,
		NumOfTokens: doc.NumOfTokens,
		Tokens:      append([]uint32(nil), doc.Tokens...),
		Sentences:   append([]api.Sentence(nil), doc.Sentences...),
		POSTags:     append([]api.POS(nil), res.POSTags...),
	}
}

// Document returns the fixture as a Document, sharing the fixture's slices.
func (f *Fixture) Document() (*rdd.Document, error) {
	doc, err := rdd.NewFromTokens(f.Layout, f.Tokens, f.NumOfTokens)
	if err != nil {
		return nil, err
	}
	doc.Sentences = f.Sentences
	return doc, nil
}

// Digest returns the hex BLAKE3 digest of the fixture's annotation content (Meta excluded).
// Two fixtures with the same digest compare equal.
func Digest(f *Fixture) (string, error) {
	content := *f
	content.Meta = Meta{}
	data, err := json.Marshal(&content)
	if err != nil {
		return "", errors.Wrapf(err, "failed to encode fixture")
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Mismatch is one difference between an expected and an actual annotation.
type Mismatch struct {
	// Field is one of "layout", "num_of_tokens", "tokens", "annotation", "sentences" or "pos_tags".
	Field string

	// Index of the token or sentence, or -1 if the mismatch concerns the whole field.
	Index int

	Want, Got string
}

// String implements fmt.Stringer.
func (m Mismatch) String() string {
	if m.Index < 0 {
		return fmt.Sprintf("%s: want %s, got %s", m.Field, m.Want, m.Got)
	}
	return fmt.Sprintf("%s[%d]: want %s, got %s", m.Field, m.Index, m.Want, m.Got)
}

// maxMismatchesPerField bounds the report of badly broken fixtures.
const maxMismatchesPerField = 20

// Compare lists the differences between want and got, at most maxMismatchesPerField per field.
//
// Annotation fields are decoded into POS and lemma for readability; the other token slots are
// reported as raw values.
func Compare(want, got *Fixture) []Mismatch {
	var mismatches []Mismatch
	if want.Layout != got.Layout {
		// Token arrays are not comparable with different layouts.
		return append(mismatches, Mismatch{Field: "layout", Index: -1,
			Want: fmt.Sprintf("%+v", want.Layout), Got: fmt.Sprintf("%+v", got.Layout)})
	}
	if want.NumOfTokens != got.NumOfTokens {
		mismatches = append(mismatches, Mismatch{Field: "num_of_tokens", Index: -1,
			Want: fmt.Sprint(want.NumOfTokens), Got: fmt.Sprint(got.NumOfTokens)})
	}
	mismatches = append(mismatches, compareTokens(want, got)...)
	mismatches = append(mismatches, compareSequence("sentences", want.Sentences, got.Sentences, formatSentence)...)
	mismatches = append(mismatches, compareSequence("pos_tags", want.POSTags, got.POSTags, api.POS.String)...)
	return mismatches
}

func compareTokens(want, got *Fixture) []Mismatch {
	var mismatches []Mismatch
	if len(want.Tokens) != len(got.Tokens) {
		return append(mismatches, Mismatch{Field: "tokens", Index: -1,
			Want: fmt.Sprintf("%d slots", len(want.Tokens)), Got: fmt.Sprintf("%d slots", len(got.Tokens))})
	}
	layout := want.Layout
	for ii := range want.Tokens {
		if want.Tokens[ii] == got.Tokens[ii] {
			continue
		}
		if len(mismatches) >= maxMismatchesPerField {
			break
		}
		token := ii / layout.TokenSize
		if ii%layout.TokenSize == layout.AnnotationSlot {
			mismatches = append(mismatches, Mismatch{Field: "annotation", Index: token,
				Want: formatAnnotation(layout, want.Tokens[ii]), Got: formatAnnotation(layout, got.Tokens[ii])})
			continue
		}
		mismatches = append(mismatches, Mismatch{Field: "tokens", Index: token,
			Want: fmt.Sprintf("slot %d = %d", ii%layout.TokenSize, want.Tokens[ii]),
			Got:  fmt.Sprintf("slot %d = %d", ii%layout.TokenSize, got.Tokens[ii])})
	}
	return mismatches
}

func compareSequence[T comparable](field string, want, got []T, format func(T) string) []Mismatch {
	var mismatches []Mismatch
	if len(want) != len(got) {
		mismatches = append(mismatches, Mismatch{Field: field, Index: -1,
			Want: fmt.Sprintf("%d entries", len(want)), Got: fmt.Sprintf("%d entries", len(got))})
	}
	for ii, n := 0, min(len(want), len(got)); ii < n; ii++ {
		if want[ii] == got[ii] {
			continue
		}
		if len(mismatches) >= maxMismatchesPerField {
			break
		}
		mismatches = append(mismatches, Mismatch{Field: field, Index: ii, Want: format(want[ii]), Got: format(got[ii])})
	}
	return mismatches
}

func formatAnnotation(layout rdd.Layout, field uint32) string {
	if field == 0 {
		return "unset"
	}
	return fmt.Sprintf("%s/lemma=%d", layout.POSOf(field), layout.LemmaOf(field))
}

func formatSentence(s api.Sentence) string {
	return fmt.Sprintf("[%d,%d,%d,%g]", s.Start, s.End, s.Negation, s.Sentiment)
}
