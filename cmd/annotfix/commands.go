package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/gomlx/go-annotator/annotate"
	"github.com/gomlx/go-annotator/annotators/api"
	"github.com/gomlx/go-annotator/fixture"
	"github.com/gomlx/go-annotator/lexicon"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

var (
	passStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	failStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	fieldStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	faintStyle = lipgloss.NewStyle().Faint(true)
)

// BuildCmd annotates a document and saves the expected fixture.
type BuildCmd struct {
	Input   string `required:"" type:"existingfile" help:"Document JSON produced by the tagger."`
	Lexicon string `type:"existingfile" help:"Lexicon JSON used to gate conditional POS overrides."`
	Out     string `required:"" help:"Fixture file to write; a .zst suffix compresses it."`
}

// Run implements the command.
func (c *BuildCmd) Run(g *Globals) error {
	res, err := annotateInput(c.Input, c.Lexicon)
	if err != nil {
		return err
	}
	f := fixture.FromResult(res, c.Input)
	if err := fixture.Save(c.Out, f); err != nil {
		return err
	}
	digest, err := fixture.Digest(f)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(g.Out, "%s %s: %d tokens, %d sentences, digest %s\n",
		passStyle.Render("WROTE"), c.Out, f.NumOfTokens, len(f.Sentences), faintStyle.Render(digest))
	return err
}

// VerifyCmd annotates a document and compares it with the expected fixture.
type VerifyCmd struct {
	Input   string `required:"" type:"existingfile" help:"Document JSON produced by the tagger."`
	Lexicon string `type:"existingfile" help:"Lexicon JSON used to gate conditional POS overrides."`
	Fixture string `required:"" type:"existingfile" help:"Expected fixture file."`
}

// Run implements the command. It fails if the annotation doesn't match the fixture.
func (c *VerifyCmd) Run(g *Globals) error {
	want, err := fixture.Load(c.Fixture)
	if err != nil {
		return err
	}
	res, err := annotateInput(c.Input, c.Lexicon)
	if err != nil {
		return err
	}
	got := fixture.FromResult(res, c.Input)
	mismatches := fixture.Compare(want, got)
	if err := report(g.Out, c.Fixture, mismatches); err != nil {
		return err
	}
	if len(mismatches) > 0 {
		return errors.Errorf("%d mismatches against %q", len(mismatches), c.Fixture)
	}
	return nil
}

// DigestCmd prints the digest of a fixture.
type DigestCmd struct {
	Fixture string `arg:"" type:"existingfile" help:"Fixture file."`
}

// Run implements the command.
func (c *DigestCmd) Run(g *Globals) error {
	f, err := fixture.Load(c.Fixture)
	if err != nil {
		return err
	}
	digest, err := fixture.Digest(f)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(g.Out, "%s  %s\n", digest, c.Fixture)
	return err
}

// annotateInput loads the document (and the lexicon, if given) and runs the annotation.
func annotateInput(inputPath, lexiconPath string) (*annotate.Result, error) {
	in, err := annotate.LoadInput(inputPath)
	if err != nil {
		return nil, err
	}
	var cache api.LexicalCache
	if lexiconPath != "" {
		lex, err := lexicon.NewFromFile(lexiconPath)
		if err != nil {
			return nil, err
		}
		cache = lex
	} else {
		klog.V(1).Infof("no lexicon given: conditional POS overrides will fail")
	}
	res, err := annotate.Run(in, cache)
	if err != nil {
		return nil, errors.WithMessagef(err, "annotating %q", inputPath)
	}
	return res, nil
}

func report(w io.Writer, fixturePath string, mismatches []fixture.Mismatch) error {
	if len(mismatches) == 0 {
		_, err := fmt.Fprintf(w, "%s %s\n", passStyle.Render("PASS"), fixturePath)
		return err
	}
	if _, err := fmt.Fprintf(w, "%s %s: %d mismatches\n", failStyle.Render("FAIL"), fixturePath, len(mismatches)); err != nil {
		return err
	}
	for _, m := range mismatches {
		field := m.Field
		if m.Index >= 0 {
			field = fmt.Sprintf("%s[%d]", m.Field, m.Index)
		}
		if _, err := fmt.Fprintf(w, "  %s want %s, got %s\n", fieldStyle.Render(field), m.Want, m.Got); err != nil {
			return err
		}
	}
	return nil
}
