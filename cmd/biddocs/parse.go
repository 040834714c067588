package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/bid-docs/internal/app"
	"github.com/joseph-ayodele/bid-docs/internal/extract"
	"github.com/joseph-ayodele/bid-docs/internal/pipeline"
)

var (
	parseJSON  bool
	parseNoOCR bool
)

var parseCmd = &cobra.Command{
	Use:   "parse FILE...",
	Short: "Extract the text of one or more documents",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runParse,
}

func init() {
	parseCmd.Flags().BoolVar(&parseJSON, "json", false, "print content and metadata as JSON")
	parseCmd.Flags().BoolVar(&parseNoOCR, "no-ocr", false, "skip OCR of scanned PDF pages")
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	if parseNoOCR {
		cfg.OCR.Enabled = false
	}
	parser := app.NewParser(cfg, logger)
	ctx := cmd.Context()

	docs := make([]extract.ParsedDocument, 0, len(args))
	for _, path := range args {
		doc, err := parser.Parse(ctx, path)
		if err != nil {
			return err
		}
		for _, w := range pipeline.Warnings(doc) {
			fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
		}
		docs = append(docs, doc)
	}

	out := cmd.OutOrStdout()
	if parseJSON {
		return writeJSON(out, docs)
	}
	for i, doc := range docs {
		if len(docs) > 1 {
			if i > 0 {
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "==> %s <==\n", args[i])
		}
		fmt.Fprintln(out, doc.Content)
	}
	return nil
}
