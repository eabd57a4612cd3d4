package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AlexKimmel/prayerlite/internal/tokenlimit"
)

func newEstimateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "estimate [text...]",
		Short: "Print the token estimate of text from args or stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if len(args) == 0 {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				text = string(b)
			}

			e := tokenlimit.Breakdown(text)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "cjk:    %d\n", e.CJKChars)
			fmt.Fprintf(out, "latin:  %d\n", e.LatinChars)
			fmt.Fprintf(out, "other:  %d\n", e.OtherChars)
			fmt.Fprintf(out, "tokens: %d\n", e.Tokens)
			return nil
		},
	}
}
