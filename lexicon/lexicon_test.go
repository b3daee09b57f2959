package lexicon

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gomlx/go-annotator/annotators/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLexiconJSON = []byte(`{
  "NOUN": ["book", "Run", "café"],
  "VERB": ["book", "run", "open"],
  "ADJ":  ["open"]
}`)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "hello", Normalize("HeLLo"))
	// Decomposed "e" + combining acute becomes the composed form.
	assert.Equal(t, "caf\u00e9", Normalize("cafe\u0301"))
	// Compatibility forms are folded.
	assert.Equal(t, "fi", Normalize("ﬁ"))
	assert.Equal(t, "", Normalize(""))
}

func TestNewFromContent(t *testing.T) {
	lex, err := NewFromContent(testLexiconJSON)
	require.NoError(t, err)

	assert.Equal(t, 4, lex.Len(), "book, run, café and open")
	assert.True(t, lex.IsMemberPOS("book", api.NOUN))
	assert.True(t, lex.IsMemberPOS("book", api.VERB))
	assert.True(t, lex.IsMemberPOS("run", api.NOUN), "\"Run\" is normalized when loading")
	assert.True(t, lex.IsMemberPOS("open", api.ADJ))
	assert.False(t, lex.IsMemberPOS("open", api.NOUN))
	assert.False(t, lex.IsMemberPOS("missing", api.NOUN))
	assert.False(t, lex.IsMemberPOS("book", api.POS(99)))
	assert.True(t, lex.IsMemberPOS(Normalize("CAFÉ"), api.NOUN))

	assert.Equal(t, []api.POS{api.ADJ, api.VERB}, lex.Tags("open"))
	assert.Nil(t, lex.Tags("missing"))
	assert.Equal(t, uint64(3), lex.Cardinality(api.VERB))
	assert.Equal(t, uint64(0), lex.Cardinality(api.PUNCT))
	assert.ElementsMatch(t, []string{"book", "run", "café"}, lex.Lexemes(api.NOUN))
}

func TestNewFromContentErrors(t *testing.T) {
	_, err := NewFromContent([]byte(`{"NOUN": "book"}`))
	assert.Error(t, err)

	_, err = NewFromContent([]byte(`{"NOUNISH": ["book"]}`))
	assert.Error(t, err)
}

func TestNewFromFile(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "lexicon.json")
	require.NoError(t, os.WriteFile(filePath, testLexiconJSON, 0o644))

	lex, err := NewFromFile(filePath)
	require.NoError(t, err)
	assert.True(t, lex.IsMemberPOS("open", api.VERB))

	_, err = NewFromFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestAdd(t *testing.T) {
	lex := New()
	lex.Add("the", api.DET)
	lex.Add("the", api.PRON, api.POS(-3))
	lex.Add("dog")

	assert.Equal(t, 2, lex.Len())
	assert.Equal(t, []api.POS{api.DET, api.PRON}, lex.Tags("the"))
	assert.Empty(t, lex.Tags("dog"))
	assert.False(t, lex.IsMemberPOS("dog", api.NOUN))
}
