package rdd

import (
	"testing"

	"github.com/gomlx/go-annotator/annotators/api"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayoutValidate(t *testing.T) {
	require.NoError(t, DefaultLayout().Validate())

	for _, layout := range []Layout{
		{TokenSize: 0, AnnotationSlot: 0, Bits4Lemma: 20},
		{TokenSize: 2, AnnotationSlot: 2, Bits4Lemma: 20},
		{TokenSize: 2, AnnotationSlot: -1, Bits4Lemma: 20},
		{TokenSize: 2, AnnotationSlot: 1, Bits4Lemma: 32},
		{TokenSize: 2, AnnotationSlot: 1, Bits4Lemma: 29}, // Only 3 bits left for POS.
	} {
		err := layout.Validate()
		require.Error(t, err, "layout %+v", layout)
		assert.True(t, errors.Is(err, api.ErrContract))
	}
}

func TestPackRoundTrip(t *testing.T) {
	for _, bits := range []uint{0, 8, 20, 27} {
		layout := Layout{TokenSize: 1, Bits4Lemma: bits}
		lemmas := []uint32{0, layout.LemmaMask()}
		if bits > 0 {
			lemmas = append(lemmas, 1)
		}
		for pos := api.POSUnknown; pos < api.NumPOS; pos++ {
			for _, lemma := range lemmas {
				field, err := layout.Pack(pos, lemma)
				require.NoError(t, err)
				assert.Equal(t, pos, layout.POSOf(field), "bits4lemma=%d", bits)
				assert.Equal(t, lemma, layout.LemmaOf(field), "bits4lemma=%d", bits)
			}
		}
	}
}

func TestPackWithoutLemma(t *testing.T) {
	layout := DefaultLayout()
	field, err := layout.Pack(api.NOUN, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(api.NOUN)<<20, field)
}

func TestPackOverflow(t *testing.T) {
	layout := Layout{TokenSize: 1, Bits4Lemma: 27}
	_, err := layout.Pack(api.POS(32), 0)
	assert.True(t, errors.Is(err, api.ErrContract))
	_, err = layout.Pack(api.NOUN, 1<<27)
	assert.True(t, errors.Is(err, api.ErrContract))
	_, err = layout.Pack(api.POS(-1), 0)
	assert.True(t, errors.Is(err, api.ErrContract))
}

func TestDocumentAccessors(t *testing.T) {
	doc, err := New(DefaultLayout(), 3)
	require.NoError(t, err)
	require.Len(t, doc.Tokens, 12)

	field, err := doc.Pack(api.VERB, 77)
	require.NoError(t, err)
	doc.SetAnnotation(1, field)
	assert.Equal(t, field, doc.Tokens[1*4+2])
	assert.Equal(t, api.VERB, doc.POS(1))
	assert.Equal(t, uint32(77), doc.Lemma(1))
	assert.Equal(t, uint32(0), doc.Annotation(0))
	assert.Equal(t, uint32(0), doc.Annotation(2))
}

func TestNewFromTokens(t *testing.T) {
	layout := Layout{TokenSize: 2, AnnotationSlot: 1, Bits4Lemma: 20}
	doc, err := NewFromTokens(layout, []uint32{10, 0, 11, 5}, 2)
	require.NoError(t, err)
	assert.Equal(t, uint32(5), doc.Annotation(1))

	_, err = NewFromTokens(layout, []uint32{10, 0, 11}, 2)
	assert.True(t, errors.Is(err, api.ErrContract))

	_, err = NewFromTokens(layout, []uint32{10, 0, 11, 0}, 3)
	assert.True(t, errors.Is(err, api.ErrContract))
}

func TestCheckSentences(t *testing.T) {
	doc, err := New(DefaultLayout(), 10)
	require.NoError(t, err)

	doc.Sentences = []api.Sentence{{Start: 0, End: 3}, {Start: 4, End: 7}, {Start: 8, End: 9}}
	require.NoError(t, doc.CheckSentences())

	for name, sentences := range map[string][]api.Sentence{
		"empty":    nil,
		"gap":      {{Start: 0, End: 3}, {Start: 5, End: 9}},
		"overlap":  {{Start: 0, End: 4}, {Start: 4, End: 9}},
		"short":    {{Start: 0, End: 8}},
		"too long": {{Start: 0, End: 10}},
		"inverted": {{Start: 0, End: 3}, {Start: 4, End: 2}, {Start: 3, End: 9}},
		"offset":   {{Start: 1, End: 9}},
	} {
		doc.Sentences = sentences
		assert.Error(t, doc.CheckSentences(), name)
	}

	empty, err := New(DefaultLayout(), 0)
	require.NoError(t, err)
	assert.NoError(t, empty.CheckSentences())
}
