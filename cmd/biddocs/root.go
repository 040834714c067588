package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/bid-docs/internal/common"
)

var (
	cfgFile string
	verbose bool

	cfg    *common.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "biddocs",
	Short:         "Bid document extraction and token budgeting",
	Long:          `biddocs turns PDF, Word and Excel bid documents into plain text (with OCR for scanned pages) and fits the text into batches under a token budget.`,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfgFile != "" {
			if err := os.Setenv("BIDDOCS_CONFIG", cfgFile); err != nil {
				return err
			}
		}
		loaded, err := common.LoadConfig()
		if err != nil {
			return err
		}
		if verbose {
			loaded.Log.Level = "debug"
		}
		if err := loaded.Validate(); err != nil {
			return err
		}
		cfg = loaded
		logger = common.NewLogger(cfg.Log)
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "YAML config file (overrides BIDDOCS_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// Execute runs the root command; SIGINT cancels the running command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
