package main

import (
	"io"
	"log"
	"strconv"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/lattice-substrate/jsonz-corpus/corpus"
	"github.com/lattice-substrate/jsonz-corpus/emit"
	"github.com/lattice-substrate/jsonz-corpus/jzcerr"
	"github.com/lattice-substrate/jsonz-corpus/jzcjson"
	"github.com/lattice-substrate/jsonz-corpus/jzcnum"
)

type generateOptions struct {
	seed      uint64
	small     bool
	upperBits int
	maxDigits int
	compress  string
	sortKeys  bool
	ascii     bool
	verbose   bool

	seeded bool
}

func (o *generateOptions) register(cmd *cobra.Command) {
	o.addFlags(cmd.Flags())
	cmd.PreRun = func(cmd *cobra.Command, args []string) {
		o.seeded = cmd.Flags().Changed("seed")
	}
}

func (o *generateOptions) addFlags(f *pflag.FlagSet) {
	f.Uint64Var(&o.seed, "seed", 0, "seed the random source for a reproducible corpus")
	f.BoolVar(&o.small, "small", false, "generate a reduced corpus with the same categories")
	f.IntVar(&o.upperBits, "upper-bits", 0, "sample big integers up to 2^N (0 keeps the default)")
	f.IntVar(&o.maxDigits, "max-digits", 0, "number-to-text digit limit (0 derives it from --upper-bits)")
	f.StringVar(&o.compress, "compress", "none", "compress the stream: none, gzip or zstd")
	f.BoolVar(&o.sortKeys, "sort-keys", false, "write object members in UTF-16 key order")
	f.BoolVar(&o.ascii, "ascii", false, `escape every non-ASCII character as \uXXXX`)
	f.BoolVarP(&o.verbose, "verbose", "v", false, "log each record to stderr")
}

func newGenerateCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write the corpus to standard output",
		Example: `$ jsonz-corpus generate > corpus.jsonl
$ jsonz-corpus generate --seed 42 --compress zstd > corpus.jsonl.zst`,
		Args:              cobra.NoArgs,
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return generate(opts, stdout, stderr)
		},
	}
	opts.register(cmd)
	return cmd
}

func (o *generateOptions) config() corpus.Config {
	cfg := corpus.DefaultConfig()
	if o.small {
		cfg = corpus.SmallConfig()
	}
	if o.upperBits != 0 {
		cfg.UpperBits = o.upperBits
	}
	if o.maxDigits != 0 {
		cfg.Limits = jzcnum.Limits{MaxDigits: o.maxDigits}
	}
	return cfg
}

func (o *generateOptions) source() (corpus.Source, error) {
	if o.seeded {
		return corpus.NewSeededSource(o.seed), nil
	}
	return corpus.NewSystemSource()
}

func generate(o *generateOptions, stdout, stderr io.Writer) error {
	out, finish, err := compressor(o.compress, stdout)
	if err != nil {
		return err
	}

	cfg := o.config()
	src, err := o.source()
	if err != nil {
		return err
	}
	c, err := corpus.Build(cfg, src)
	if err != nil {
		return err
	}

	ser := jzcjson.New(jzcjson.Options{
		Limits:         cfg.DigitLimits(),
		SortKeys:       o.sortKeys,
		EscapeNonASCII: o.ascii,
	})
	var emitOpts []emit.Option
	if o.verbose {
		logger := log.New(stderr, "", 0)
		emitOpts = append(emitOpts, emit.WithProgress(func(r emit.Record) {
			label := strconv.Quote(r.Label)
			if r.Final {
				label = "(whole corpus)"
			}
			logger.Printf("record %d %s: %d bytes", r.Index, label, r.Bytes)
		}))
	}
	if err := emit.Emit(out, c, ser, emitOpts...); err != nil {
		return err
	}
	return finish()
}

// compressor wraps w according to the --compress flag. The returned finish
// func flushes the compressed trailer.
func compressor(kind string, w io.Writer) (io.Writer, func() error, error) {
	switch kind {
	case "", "none":
		return w, func() error { return nil }, nil
	case "gzip":
		zw := gzip.NewWriter(w)
		return zw, closer(zw), nil
	case "zstd":
		zw, err := zstd.NewWriter(w, zstd.WithEncoderConcurrency(1))
		if err != nil {
			return nil, nil, jzcerr.Wrap(jzcerr.InternalError, "zstd encoder", err)
		}
		return zw, closer(zw), nil
	}
	return nil, nil, jzcerr.Newf(jzcerr.CLIUsage, "invalid --compress value %q: want none, gzip or zstd", kind)
}

func closer(c io.Closer) func() error {
	return func() error {
		if err := c.Close(); err != nil {
			return jzcerr.Wrap(jzcerr.InternalIO, "finishing compressed stream", err)
		}
		return nil
	}
}
