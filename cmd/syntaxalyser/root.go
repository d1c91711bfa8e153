package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/aledsdavies/syntaxalyser/core/config"
	"github.com/aledsdavies/syntaxalyser/core/logging"
	"github.com/aledsdavies/syntaxalyser/runtime/lexer"
	"github.com/aledsdavies/syntaxalyser/runtime/parser"
	"github.com/aledsdavies/syntaxalyser/runtime/trace"
	"github.com/aledsdavies/syntaxalyser/runtime/tracefmt"
)

// app holds flag values and the settings resolved from them
type app struct {
	stdin io.Reader

	configFile string
	format     string
	prefix     string
	rule       string
	output     string
	noColor    bool
	digest     bool
	debug      bool

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "syntaxalyser [flags] [file...]",
		Short: "Check SCC# programs against the grammar",
		Long: `syntaxalyser parses SCC# programs and prints the parse trace.
It stops at the first syntax error and prints a report naming every rule
that was active. With no files, or with "-", it reads standard input.

Exit status is 0 when every input is accepted, 1 when any input has a
syntax error and 2 when an input or the configuration cannot be read.`,
		// Without this cobra reads the first file name as a subcommand
		Args:              cobra.ArbitraryArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		RunE:              a.check,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "Config file (default: $"+config.EnvVar+" or ./syntaxalyser.toml)")
	flags.BoolVar(&a.debug, "debug", false, "Enable debug logging")

	rootCmd.Flags().StringVar(&a.format, "format", "", "Trace format: text, json, pretty or cbor")
	rootCmd.Flags().StringVar(&a.prefix, "prefix", "", "Prefix for every text trace line")
	rootCmd.Flags().StringVar(&a.rule, "rule", "", "Start rule, e.g. \"procedure statement\"")
	rootCmd.Flags().StringVarP(&a.output, "output", "o", "", "Write the trace to a file (required for cbor)")
	rootCmd.Flags().BoolVar(&a.noColor, "no-color", false, "Disable colored output")
	rootCmd.Flags().BoolVar(&a.digest, "digest", false, "Print the BLAKE2b-256 digest of each trace to stderr")

	rootCmd.AddCommand(newTokensCmd(a))
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// setup loads the configuration, applies flag overrides and builds the
// logger
func (a *app) setup(cmd *cobra.Command, args []string) error {
	var err error
	if a.configFile != "" {
		a.cfg, err = config.Load(a.configFile)
	} else {
		a.cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("format") {
		a.cfg.Trace.Format = a.format
	}
	if flags.Changed("prefix") {
		a.cfg.Trace.Prefix = a.prefix
	}
	if flags.Changed("rule") {
		a.cfg.Parser.StartRule = a.rule
	}
	if flags.Changed("no-color") && a.noColor {
		a.cfg.Trace.Color = "never"
	}
	if flags.Changed("digest") {
		a.cfg.Trace.Digest = a.digest
	}
	if a.debug {
		a.cfg.Log.Level = "debug"
	}

	logger, err := logging.New(a.cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.logger = logger.With(slog.String("run", uuid.NewString()))
	a.logger.Debug("configuration loaded",
		slog.String("path", a.cfg.Path),
		slog.String("format", a.cfg.Trace.Format),
		slog.String("rule", a.cfg.Parser.StartRule))
	return nil
}

// check parses every input and reports the worst outcome
func (a *app) check(cmd *cobra.Command, args []string) error {
	rule, ok := parser.LookupNodeKind(a.cfg.Parser.StartRule)
	if !ok {
		return fmt.Errorf("unknown rule %q", a.cfg.Parser.StartRule)
	}
	color, err := trace.ParseColorMode(a.cfg.Trace.Color)
	if err != nil {
		return err
	}

	inputs := args
	if len(inputs) == 0 {
		if !hasPipedInput(a.stdin) {
			return errors.New("no input: pass files or pipe a program on standard input")
		}
		inputs = []string{stdinName}
	}

	// The cbor trace is one file, so it holds exactly one parse
	if a.cfg.Trace.Format == "cbor" && len(inputs) > 1 {
		return errors.New("cbor traces hold a single input")
	}

	out, closeOut, err := a.traceOutput(cmd)
	if err != nil {
		return err
	}

	reportTo := cmd.OutOrStdout()
	if a.cfg.Trace.Format == "cbor" {
		reportTo = cmd.ErrOrStderr()
	}

	status := exitOK
	for _, name := range inputs {
		if len(inputs) > 1 {
			if err := a.writeHeader(out, name); err != nil {
				closeOut()
				return fmt.Errorf("error writing trace: %w", err)
			}
		}

		code := a.checkOne(cmd, name, rule, color, out, reportTo)
		status = max(status, code)
	}

	if err := closeOut(); err != nil {
		return fmt.Errorf("error writing trace: %w", err)
	}

	if status != exitOK {
		return &exitError{code: status}
	}
	return nil
}

// checkOne parses one input and returns its exit status
func (a *app) checkOne(cmd *cobra.Command, name string, rule parser.NodeKind, color trace.ColorMode, out, reportTo io.Writer) int {
	logger := a.logger.With(slog.String("file", displayName(name)))
	stderr := cmd.ErrOrStderr()

	r, closeIn, err := openInput(name, a.stdin)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFatal
	}
	defer closeIn()

	sink, finish, err := a.newSink(out, color)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFatal
	}

	var digest *trace.Digest
	if a.cfg.Trace.Digest {
		digest = trace.NewDigest()
		sink = trace.Tee(sink, digest)
	}

	res, parseErr := parser.ParseRule(rule, lexer.New(r), sink,
		parser.WithLogger(logger),
		parser.WithHints(a.cfg.Parser.HintsEnabled()),
		parser.WithTelemetryTiming(),
	)

	if err := finish(); err != nil {
		fmt.Fprintf(stderr, "Error: error writing trace: %v\n", err)
		return exitFatal
	}
	if digest != nil {
		fmt.Fprintf(stderr, "blake2b-256 %s  %s\n", digest.Hex(), displayName(name))
	}

	if res != nil && res.Telemetry != nil {
		logger.Info("parsed",
			slog.Bool("accepted", parseErr == nil),
			slog.Int("tokens", res.Telemetry.TokenCount),
			slog.Int("events", res.Telemetry.EventCount),
			slog.Int("depth", res.Telemetry.MaxDepth),
			slog.Duration("elapsed", res.Telemetry.ParseTime))
	}

	if parseErr == nil {
		return exitOK
	}

	wrote, err := trace.WriteReport(reportTo, parseErr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: error writing report: %v\n", err)
		return exitFatal
	}
	if !wrote {
		fmt.Fprintf(stderr, "Error: %s: %v\n", displayName(name), parseErr)
		return exitFatal
	}

	var se *parser.SyntaxError
	if errors.As(parseErr, &se) && se.Hint != "" {
		fmt.Fprintf(stderr, "hint: %s\n", se.Hint)
	}
	return exitSyntax
}

// newSink builds the renderer for the configured format. finish flushes
// it and returns the first write error.
func (a *app) newSink(out io.Writer, color trace.ColorMode) (parser.Sink, func() error, error) {
	switch a.cfg.Trace.Format {
	case "", "text":
		s := trace.NewText(out, a.cfg.Trace.Prefix)
		return s, s.Err, nil
	case "json":
		s := trace.NewJSON(out)
		return s, s.Err, nil
	case "pretty":
		s := trace.NewPretty(out, color)
		return s, s.Err, nil
	case "cbor":
		var flags tracefmt.Flags
		if a.cfg.Trace.Digest {
			flags |= tracefmt.FlagDigest
		}
		w, err := tracefmt.NewWriter(out, flags)
		if err != nil {
			return nil, nil, err
		}
		return w, w.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown trace format %q", a.cfg.Trace.Format)
	}
}

// traceOutput opens the --output file, or falls back to stdout. The
// close function flushes and reports the first failure.
func (a *app) traceOutput(cmd *cobra.Command) (io.Writer, func() error, error) {
	if a.output == "" || a.output == stdinName {
		if a.cfg.Trace.Format == "cbor" {
			return nil, nil, errors.New("cbor traces need --output")
		}
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}

	f, err := os.Create(a.output)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating %s: %w", a.output, err)
	}

	bw := bufio.NewWriter(f)
	closeOut := func() error {
		if err := bw.Flush(); err != nil {
			f.Close()
			return fmt.Errorf("%s: %w", a.output, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("%s: %w", a.output, err)
		}
		return nil
	}
	return bw, closeOut, nil
}

// writeHeader separates traces when several inputs are checked
func (a *app) writeHeader(w io.Writer, name string) error {
	var err error
	switch a.cfg.Trace.Format {
	case "json":
		err = json.NewEncoder(w).Encode(struct {
			File string `json:"file"`
		}{displayName(name)})
	case "cbor":
	default:
		_, err = fmt.Fprintf(w, "==> %s <==\n", displayName(name))
	}
	return err
}
