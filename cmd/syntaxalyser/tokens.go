package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/aledsdavies/syntaxalyser/core/types"
	"github.com/aledsdavies/syntaxalyser/runtime/lexer"
	"github.com/aledsdavies/syntaxalyser/runtime/parser"
	"github.com/aledsdavies/syntaxalyser/runtime/trace"
)

func newTokensCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "tokens [file]",
		Short: "Print the tokens of a program",
		Long:  "Run only the lexer and print one token per line, ending with EOF.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := stdinName
			if len(args) == 1 {
				name = args[0]
			}

			r, closeIn, err := openInput(name, a.stdin)
			if err != nil {
				return err
			}
			defer closeIn()

			l := lexer.New(r, lexer.WithTelemetryBasic())
			if err := dumpTokens(cmd.OutOrStdout(), l, asJSON); err != nil {
				return err
			}

			counts := l.Counts()
			a.logger.Debug("tokenized",
				slog.String("file", displayName(name)),
				slog.Int("identifiers", counts[types.Identifier]),
				slog.Int("illegal", counts[types.Illegal]))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON records instead of text")
	return cmd
}

// dumpTokens writes every token up to and including EOF
func dumpTokens(w io.Writer, l *lexer.Lexer, asJSON bool) error {
	enc := json.NewEncoder(w)
	for {
		tok, err := l.NextToken()
		if err != nil {
			return err
		}

		ev := parser.Event{Kind: parser.EventToken, Token: tok}
		if asJSON {
			if err := enc.Encode(trace.NewRecord(ev)); err != nil {
				return err
			}
		} else {
			for _, line := range trace.Lines(ev) {
				if _, err := fmt.Fprintln(w, line); err != nil {
					return err
				}
			}
		}

		if tok.Symbol == types.EOF {
			return nil
		}
	}
}
