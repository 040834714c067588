package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/bid-docs/internal/app"
	"github.com/joseph-ayodele/bid-docs/internal/manifest"
	"github.com/joseph-ayodele/bid-docs/internal/pipeline"
)

var (
	prepareManifest  string
	prepareMaxTokens int
	prepareRatio     float64
)

var prepareCmd = &cobra.Command{
	Use:   "prepare --manifest FILE",
	Short: "Parse the documents of a manifest and split them into batches",
	Long: `prepare reads a JSON manifest listing labelled documents, parses them,
optionally compresses their text and prints the resulting batches as JSON.`,
	Args: cobra.NoArgs,
	RunE: runPrepare,
}

func init() {
	prepareCmd.Flags().StringVarP(&prepareManifest, "manifest", "m", "", "path to the manifest (required)")
	prepareCmd.Flags().IntVar(&prepareMaxTokens, "max-tokens", 0, "override max tokens per batch")
	prepareCmd.Flags().Float64Var(&prepareRatio, "ratio", 0, "override compression ratio (0,1]")
	_ = prepareCmd.MarkFlagRequired("manifest")
	rootCmd.AddCommand(prepareCmd)
}

func runPrepare(cmd *cobra.Command, _ []string) error {
	m, err := manifest.Load(prepareManifest)
	if err != nil {
		return err
	}
	budget := m.Budget(pipeline.BudgetFromConfig(cfg))
	if prepareMaxTokens > 0 {
		budget.MaxTokensPerBatch = prepareMaxTokens
	}
	if cmd.Flags().Changed("ratio") {
		budget.CompressionRatio = prepareRatio
	}

	proc := app.NewProcessor(cfg, app.NewParser(cfg, logger), logger)
	prepared, err := proc.Prepare(cmd.Context(), m.Inputs(), budget)
	if err != nil {
		return err
	}
	for _, w := range prepared.Warnings {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
	}
	return writeJSON(cmd.OutOrStdout(), struct {
		Batches     any                `json:"batches"`
		Warnings    []pipeline.Warning `json:"warnings,omitempty"`
		TotalTokens int                `json:"total_tokens"`
	}{prepared.Batches, prepared.Warnings, prepared.TotalTokens})
}
