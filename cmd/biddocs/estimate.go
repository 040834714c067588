package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/bid-docs/internal/app"
	"github.com/joseph-ayodele/bid-docs/internal/textproc"
)

var estimateCmd = &cobra.Command{
	Use:   "estimate FILE...",
	Short: "Estimate the tokens of documents, or of stdin with '-'",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runEstimate,
}

func init() {
	rootCmd.AddCommand(estimateCmd)
}

func runEstimate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	p := app.NewParser(cfg, logger)

	total := 0
	for _, path := range args {
		var text string
		if path == "-" {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return err
			}
			text = string(data)
		} else {
			doc, err := p.Parse(cmd.Context(), path)
			if err != nil {
				return err
			}
			text = doc.Content
		}
		n := textproc.Estimate(text)
		total += n
		fmt.Fprintf(out, "%d\t%s\n", n, path)
	}
	if len(args) > 1 {
		fmt.Fprintf(out, "%d\ttotal\n", total)
	}
	return nil
}
