// Package lexicon implements api.LexicalCache: which POS tags each normalized token is attested with.
//
// Tokens are mapped to dense lexeme ids, and for each POS a roaring bitmap holds the ids of the
// lexemes that may carry it.
//
// Example:
//
//	lex, err := lexicon.NewFromFile("lexicon.json")
//	if err != nil {
//		panic(err)
//	}
//	ok := lex.IsMemberPOS(lexicon.Normalize("Open"), api.VERB)
package lexicon

import (
	"encoding/json"
	"os"
	"sort"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/gomlx/go-annotator/annotators/api"
	"github.com/pkg/errors"
	"golang.org/x/text/unicode/norm"
	"k8s.io/klog/v2"
)

// Normalize returns the form of text used as the lexicon key: NFKC normalized and lower-cased.
func Normalize(text string) string {
	return strings.ToLower(norm.NFKC.String(text))
}

// Lexicon maps normalized tokens to the set of POS tags they are attested with.
//
// It's safe for concurrent reads once built, but Add must not be called concurrently with anything else.
type Lexicon struct {
	ids     map[string]uint32
	byPOS   [api.NumPOS]*roaring.Bitmap
	lexemes []string
}

// Compile time assert that Lexicon implements api.LexicalCache.
var _ api.LexicalCache = &Lexicon{}

// New creates an empty Lexicon.
func New() *Lexicon {
	lex := &Lexicon{ids: make(map[string]uint32)}
	for ii := range lex.byPOS {
		lex.byPOS[ii] = roaring.New()
	}
	return lex
}

// NewFromFile creates a Lexicon from a local JSON file, see NewFromContent for the format.
func NewFromFile(filePath string) (*Lexicon, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read lexicon file %q", filePath)
	}
	lex, err := NewFromContent(content)
	if err != nil {
		return nil, errors.WithMessagef(err, "lexicon file %q", filePath)
	}
	klog.V(1).Infof("loaded lexicon %q: %d lexemes", filePath, lex.Len())
	return lex, nil
}

// NewFromContent creates a Lexicon from a JSON object mapping tag names to the tokens attested
// with that tag, e.g.:
//
//	{"NOUN": ["book", "run"], "VERB": ["book", "run", "open"]}
//
// Tokens are normalized with Normalize before being added.
func NewFromContent(content []byte) (*Lexicon, error) {
	var entries map[string][]string
	if err := json.Unmarshal(content, &entries); err != nil {
		return nil, errors.Wrapf(err, "failed to parse lexicon")
	}

	// Sorted, so lexeme ids are deterministic.
	tags := make([]string, 0, len(entries))
	for tag := range entries {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	lex := New()
	for _, tag := range tags {
		pos, err := api.ParsePOS(tag)
		if err != nil {
			return nil, err
		}
		for _, token := range entries[tag] {
			lex.Add(Normalize(token), pos)
		}
	}
	return lex, nil
}

// Add records that the normalized token may carry each of the given tags.
func (l *Lexicon) Add(normalized string, tags ...api.POS) {
	id, found := l.ids[normalized]
	if !found {
		id = uint32(len(l.lexemes))
		l.ids[normalized] = id
		l.lexemes = append(l.lexemes, normalized)
	}
	for _, pos := range tags {
		if !pos.Valid() {
			klog.Warningf("lexicon: ignoring unknown POS code %d for %q", int(pos), normalized)
			continue
		}
		l.byPOS[pos].Add(id)
	}
}

// IsMemberPOS implements api.LexicalCache.
// Unknown tokens and unknown POS codes are never members.
func (l *Lexicon) IsMemberPOS(normalized string, pos api.POS) bool {
	if !pos.Valid() {
		return false
	}
	id, found := l.ids[normalized]
	if !found {
		return false
	}
	return l.byPOS[pos].Contains(id)
}

// Tags returns the POS tags the normalized token is attested with, in code order.
func (l *Lexicon) Tags(normalized string) []api.POS {
	id, found := l.ids[normalized]
	if !found {
		return nil
	}
	var tags []api.POS
	for pos, bitmap := range l.byPOS {
		if bitmap.Contains(id) {
			tags = append(tags, api.POS(pos))
		}
	}
	return tags
}

// Len returns the number of distinct lexemes.
func (l *Lexicon) Len() int {
	return len(l.lexemes)
}

// Cardinality returns the number of lexemes attested with pos.
func (l *Lexicon) Cardinality(pos api.POS) uint64 {
	if !pos.Valid() {
		return 0
	}
	return l.byPOS[pos].GetCardinality()
}

// Lexemes returns the lexemes attested with pos, in insertion order.
func (l *Lexicon) Lexemes(pos api.POS) []string {
	if !pos.Valid() {
		return nil
	}
	bitmap := l.byPOS[pos]
	lexemes := make([]string, 0, bitmap.GetCardinality())
	it := bitmap.Iterator()
	for it.HasNext() {
		lexemes = append(lexemes, l.lexemes[it.Next()])
	}
	return lexemes
}
