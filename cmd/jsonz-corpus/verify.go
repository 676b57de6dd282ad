package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/lattice-substrate/jsonz-corpus/cborz"
	"github.com/lattice-substrate/jsonz-corpus/jzcerr"
	"github.com/lattice-substrate/jsonz-corpus/jzcnum"
	"github.com/lattice-substrate/jsonz-corpus/verify"
)

type verifyOptions struct {
	codec            string
	quiet            bool
	color            string
	upperBits        int
	skipCompleteness bool
}

func newVerifyCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	opts := &verifyOptions{}
	cmd := &cobra.Command{
		Use:   "verify [file|-]",
		Short: "Check an emitted corpus round-trips through an extended codec",
		Long: `Read an emitted corpus (plain, gzip or zstd) and check every record:
decode it natively with exact numbers, round-trip the value through the
chosen codec, and compare. The final record must hold every earlier record
plus one snapshot member.`,
		Example: `$ jsonz-corpus generate | jsonz-corpus verify --codec cbor
$ jsonz-corpus verify --quiet corpus.jsonl.zst`,
		Args:              cobra.MaximumNArgs(1),
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(opts, args, stdin, stdout)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.codec, "codec", "identity", "extended codec under test: identity or cbor")
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "only print failing records")
	f.StringVar(&opts.color, "color", "auto", "colorize output: auto, never or always")
	f.IntVar(&opts.upperBits, "upper-bits", jzcnum.DefaultUpperBits, "largest integer magnitude, as 2^N, accepted when decoding")
	f.BoolVar(&opts.skipCompleteness, "skip-completeness", false, "do not check the final record against the others")
	return cmd
}

func (o *verifyOptions) codecFor(lim jzcnum.Limits) (verify.Codec, error) {
	switch o.codec {
	case "identity":
		return verify.JSONCodec{Limits: lim}, nil
	case "cbor":
		return cborz.Codec{}, nil
	}
	return nil, jzcerr.Newf(jzcerr.CLIUsage, "invalid --codec value %q: want identity or cbor", o.codec)
}

// painter colors status words. Colors are decided once per run.
type painter struct {
	ok, fail *color.Color
}

func newPainter(mode string, w io.Writer) (painter, error) {
	colorize := false
	switch mode {
	case "auto":
		_, nocolor := os.LookupEnv("NO_COLOR")
		colorize = !nocolor && isTerminal(w)
	case "always":
		colorize = true
	case "never":
	default:
		return painter{}, jzcerr.Newf(jzcerr.CLIUsage, "invalid --color value %q: want auto, never or always", mode)
	}
	p := painter{ok: color.New(color.FgGreen), fail: color.New(color.FgRed, color.Bold)}
	for _, c := range []*color.Color{p.ok, p.fail} {
		if colorize {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p, nil
}

func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

func runVerify(o *verifyOptions, args []string, stdin io.Reader, stdout io.Writer) error {
	if o.upperBits <= 0 {
		return jzcerr.Newf(jzcerr.CLIUsage, "invalid --upper-bits %d", o.upperBits)
	}
	lim := jzcnum.LimitsFor(o.upperBits)
	codec, err := o.codecFor(lim)
	if err != nil {
		return err
	}
	paint, err := newPainter(o.color, stdout)
	if err != nil {
		return err
	}
	if f, ok := stdout.(*os.File); ok {
		stdout = colorable.NewColorable(f)
	}

	in := stdin
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return jzcerr.Wrap(jzcerr.CLIUsage, "opening input", err)
		}
		defer f.Close()
		in = f
	}
	stream, err := verify.OpenStream(in)
	if err != nil {
		return err
	}
	defer stream.Close()

	var writeErr error
	report := func(r verify.Result) {
		if writeErr != nil || (r.Err == nil && o.quiet) {
			return
		}
		line := paint.ok.Sprint(r.Describe())
		if r.Err != nil {
			line = paint.fail.Sprint(r.Describe())
		}
		_, writeErr = fmt.Fprintln(stdout, line)
	}

	sum, err := verify.Stream(stream, codec, verify.Options{
		Limits:           lim,
		SkipCompleteness: o.skipCompleteness,
		Report:           report,
	})
	if err != nil {
		return err
	}
	if writeErr != nil {
		return jzcerr.Wrap(jzcerr.InternalIO, "writing report", writeErr)
	}
	if !o.quiet {
		if _, err := fmt.Fprintf(stdout, "%s\n", paint.ok.Sprintf("ok: %d records round-trip through %s", sum.Records, codec.Name())); err != nil {
			return jzcerr.Wrap(jzcerr.InternalIO, "writing report", err)
		}
	}
	return nil
}
