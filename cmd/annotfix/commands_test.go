package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gomlx/go-annotator/fixture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// "Shut the door. Now"
const testInput = `{
  "num_of_tokens": 5,
  "pos_codes": [16, 6, 8, 13, 3],
  "texts": ["Shut", "the", "door", ".", "Now"],
  "pos_overrides": [[0, 0, 16], [2, 0, 1]],
  "boundaries": [[3]]
}`

const testLexicon = `{"VERB": ["shut"], "NOUN": ["door"]}`

func writeTestFiles(t *testing.T) (dir, input, lexicon string) {
	dir = t.TempDir()
	input = filepath.Join(dir, "doc.json")
	lexicon = filepath.Join(dir, "lexicon.json")
	require.NoError(t, os.WriteFile(input, []byte(testInput), 0o644))
	require.NoError(t, os.WriteFile(lexicon, []byte(testLexicon), 0o644))
	return
}

func TestBuildVerify(t *testing.T) {
	dir, input, lexicon := writeTestFiles(t)
	out := filepath.Join(dir, "testdata", "doc.expected.json.zst")

	var buf bytes.Buffer
	g := &Globals{Out: &buf}
	require.NoError(t, (&BuildCmd{Input: input, Lexicon: lexicon, Out: out}).Run(g))
	assert.Contains(t, buf.String(), "WROTE")
	assert.Contains(t, buf.String(), "5 tokens, 2 sentences")

	f, err := fixture.Load(out)
	require.NoError(t, err)
	assert.Equal(t, input, f.Meta.Source)

	buf.Reset()
	require.NoError(t, (&VerifyCmd{Input: input, Lexicon: lexicon, Fixture: out}).Run(g))
	assert.Contains(t, buf.String(), "PASS")

	buf.Reset()
	require.NoError(t, (&DigestCmd{Fixture: out}).Run(g))
	digest, err := fixture.Digest(f)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(buf.String(), digest))
}

func TestVerifyMismatch(t *testing.T) {
	dir, input, lexicon := writeTestFiles(t)
	out := filepath.Join(dir, "doc.expected.json")

	var buf bytes.Buffer
	g := &Globals{Out: &buf}
	require.NoError(t, (&BuildCmd{Input: input, Lexicon: lexicon, Out: out}).Run(g))

	// The tagger now says "Now" is a NOUN and doesn't detect the sentence end.
	changed := strings.Replace(testInput, "[16, 6, 8, 13, 3]", "[16, 6, 8, 13, 8]", 1)
	changed = strings.Replace(changed, `"boundaries": [[3]]`, `"boundaries": []`, 1)
	require.NoError(t, os.WriteFile(input, []byte(changed), 0o644))

	buf.Reset()
	err := (&VerifyCmd{Input: input, Lexicon: lexicon, Fixture: out}).Run(g)
	require.Error(t, err)
	report := buf.String()
	assert.Contains(t, report, "FAIL")
	assert.Contains(t, report, "annotation[4]")
	assert.Contains(t, report, "want ADV/lemma=0, got NOUN/lemma=0")
	assert.Contains(t, report, "pos_tags[4]")
	assert.Contains(t, report, "sentences")
}

func TestBuildWithoutLexicon(t *testing.T) {
	dir, input, _ := writeTestFiles(t)
	var buf bytes.Buffer
	err := (&BuildCmd{Input: input, Out: filepath.Join(dir, "out.json")}).Run(&Globals{Out: &buf})
	assert.Error(t, err, "conditional overrides need a lexicon")
}

func TestVersion(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&VersionCmd{}).Run(&Globals{Out: &buf}))
	assert.Equal(t, "annotfix version "+version+"\n", buf.String())
}
