// Package pos writes POS tags into a document's packed annotation fields and applies the
// sparse POS exception rules ("px") produced alongside the statistical tagger.
package pos

import (
	"github.com/gomlx/go-annotator/annotators/api"
	"github.com/gomlx/go-annotator/rdd"
	"github.com/pkg/errors"
)

// Pack writes codes[i] << Bits4Lemma into the annotation slot of every token i whose slot is still 0.
//
// Tokens with a nonzero slot were already assigned, typically by a multi-token expansion, and are
// left untouched. The lemma bits are left at 0.
//
// It returns an error wrapping api.ErrContract, without modifying the document, if the token array
// doesn't match the document size, len(codes) != doc.NumOfTokens or a code can't be packed.
func Pack(doc *rdd.Document, codes []api.POS) error {
	if err := doc.CheckShape(); err != nil {
		return err
	}
	if len(codes) != doc.NumOfTokens {
		return errors.Wrapf(api.ErrContract, "got %d POS codes for %d tokens", len(codes), doc.NumOfTokens)
	}
	fields := make([]uint32, len(codes))
	for ii, code := range codes {
		field, err := doc.Pack(code, 0)
		if err != nil {
			return errors.WithMessagef(err, "token #%d", ii)
		}
		fields[ii] = field
	}
	for ii, field := range fields {
		if doc.Annotation(ii) == 0 {
			doc.SetAnnotation(ii, field)
		}
	}
	return nil
}

// Stats counts how the override rules were applied.
type Stats struct {
	Forced   int // Rules applied unconditionally.
	Accepted int // Conditional rules confirmed by the lexical cache.
	Rejected int // Conditional rules the lexical cache refused.
}

// ApplyOverrides applies the rules in order to tags, see ApplyOverridesWithStats.
func ApplyOverrides(rules []api.OverrideRule, cache api.LexicalCache, tags []api.POS, normalized []string) error {
	_, err := ApplyOverridesWithStats(rules, cache, tags, normalized)
	return err
}

// ApplyOverridesWithStats applies each rule, in list order, to tags:
//
//   - A forced rule (negative target) sets tags[rule.TokenIndex] = -target.
//   - A conditional rule sets tags[rule.TokenIndex] = target only if
//     cache.IsMemberPOS(normalized[rule.TokenIndex], target); otherwise the tag is kept.
//
// Later rules on the same token overwrite earlier ones. tags is the only thing mutated.
//
// All rules are checked before any is applied: a token index outside tags, a target that isn't a
// known POS or len(normalized) != len(tags) return an error wrapping api.ErrContract and leave tags
// unchanged. The cache is only consulted for conditional rules, so it may be nil if there are none.
func ApplyOverridesWithStats(rules []api.OverrideRule, cache api.LexicalCache, tags []api.POS, normalized []string) (Stats, error) {
	var stats Stats
	if len(normalized) != len(tags) {
		return stats, errors.Wrapf(api.ErrContract, "got %d normalized tokens for %d POS tags", len(normalized), len(tags))
	}
	for ii, rule := range rules {
		if rule.TokenIndex < 0 || rule.TokenIndex >= len(tags) {
			return stats, errors.Wrapf(api.ErrContract, "override rule #%d: token index %d out of range [0, %d)",
				ii, rule.TokenIndex, len(tags))
		}
		if !rule.POS().Valid() {
			return stats, errors.Wrapf(api.ErrContract, "override rule #%d: unknown POS code %d", ii, rule.Target)
		}
		if !rule.Forced() && cache == nil {
			return stats, errors.Wrapf(api.ErrContract, "override rule #%d is conditional but no lexical cache was given", ii)
		}
	}

	for _, rule := range rules {
		if rule.Forced() {
			tags[rule.TokenIndex] = rule.POS()
			stats.Forced++
			continue
		}
		if cache.IsMemberPOS(normalized[rule.TokenIndex], rule.POS()) {
			tags[rule.TokenIndex] = rule.POS()
			stats.Accepted++
		} else {
			stats.Rejected++
		}
	}
	return stats, nil
}
