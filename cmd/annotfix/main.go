// Command annotfix builds and verifies expected-annotation fixtures.
//
// It runs the annotation encoding (tag packing, POS overrides and sentence spans) over a document
// produced by the tagger, and either saves the result as a fixture or compares it with one:
//
//	annotfix build --input doc.json --lexicon lexicon.json --out testdata/doc.expected.json.zst
//	annotfix verify --input doc.json --lexicon lexicon.json --fixture testdata/doc.expected.json.zst
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/alecthomas/kong"
	"k8s.io/klog/v2"
)

const version = "0.1.0"

// Globals are bound to every command's Run method.
type Globals struct {
	Out io.Writer
}

// CLI defines the command-line interface of annotfix.
var CLI struct {
	Verbosity int `short:"v" default:"0" help:"Log verbosity (klog -v level)."`

	Build   BuildCmd   `cmd:"" help:"Annotate a document and save the result as an expected fixture."`
	Verify  VerifyCmd  `cmd:"" help:"Annotate a document and compare the result with an expected fixture."`
	Digest  DigestCmd  `cmd:"" help:"Print the BLAKE3 digest of a fixture's annotation content."`
	Version VersionCmd `cmd:"" help:"Print version information."`
}

// VersionCmd prints the version.
type VersionCmd struct{}

// Run implements the command.
func (c *VersionCmd) Run(g *Globals) error {
	_, err := fmt.Fprintf(g.Out, "annotfix version %s\n", version)
	return err
}

// setupLogging sets klog's verbosity. klog only exposes its flags through a flag.FlagSet.
func setupLogging(verbosity int) {
	fs := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(fs)
	if err := fs.Set("v", strconv.Itoa(verbosity)); err != nil {
		klog.Warningf("failed to set log verbosity to %d: %v", verbosity, err)
	}
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("annotfix"),
		kong.Description("Builds and verifies expected-annotation fixtures of the annotation encoding."),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	setupLogging(CLI.Verbosity)
	defer klog.Flush()
	err := ctx.Run(&Globals{Out: os.Stdout})
	ctx.FatalIfErrorf(err)
}
