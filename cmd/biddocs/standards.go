package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/bid-docs/internal/app"
	"github.com/joseph-ayodele/bid-docs/internal/common"
	"github.com/joseph-ayodele/bid-docs/internal/export"
	"github.com/joseph-ayodele/bid-docs/internal/repository"
	"github.com/joseph-ayodele/bid-docs/internal/standards"
)

var (
	stdName          string
	stdCategory      string
	stdKeyword       string
	stdJSON          bool
	stdIncludeHidden bool
	stdOut           string
)

var standardsCmd = &cobra.Command{
	Use:   "standards",
	Short: "Manage the registry of national, industry and local standards",
}

var standardsAddCmd = &cobra.Command{
	Use:   "add FILE",
	Short: "Register a standard file",
	Args:  cobra.ExactArgs(1),
	RunE: withRegistry(func(cmd *cobra.Command, reg *standards.Registry, args []string) error {
		std, err := reg.Add(cmd.Context(), args[0], stdName)
		if err != nil {
			return err
		}
		if stdJSON {
			return writeJSON(cmd.OutOrStdout(), std)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "added %s (%s) %s\n", std.Code, std.Category, std.ID)
		return nil
	}),
}

var standardsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered standards",
	Args:  cobra.NoArgs,
	RunE: withRegistry(func(cmd *cobra.Command, reg *standards.Registry, _ []string) error {
		var (
			list []*repository.Standard
			err  error
		)
		if stdKeyword != "" {
			list, err = reg.Search(cmd.Context(), stdKeyword)
		} else {
			list, err = reg.List(cmd.Context(), stdCategory)
		}
		if err != nil {
			return err
		}
		if stdJSON {
			return writeJSON(cmd.OutOrStdout(), list)
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tCODE\tCATEGORY\tNAME\tADDED")
		for _, s := range list {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", s.ID, s.Code, s.Category, s.Name, s.CreatedAt.Local().Format("2006-01-02 15:04:05"))
		}
		return tw.Flush()
	}),
}

var standardsShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Print the full text of a registered standard",
	Args:  cobra.ExactArgs(1),
	RunE: withRegistry(func(cmd *cobra.Command, reg *standards.Registry, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		content, err := reg.Content(cmd.Context(), id)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), content)
		return nil
	}),
}

var standardsRmCmd = &cobra.Command{
	Use:     "rm ID",
	Aliases: []string{"delete"},
	Short:   "Delete a standard and its stored file",
	Args:    cobra.ExactArgs(1),
	RunE: withRegistry(func(cmd *cobra.Command, reg *standards.Registry, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := reg.Delete(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
		return nil
	}),
}

var standardsImportCmd = &cobra.Command{
	Use:   "import DIR",
	Short: "Register every supported file under a directory",
	Args:  cobra.ExactArgs(1),
	RunE: withRegistry(func(cmd *cobra.Command, reg *standards.Registry, args []string) error {
		results, stats, err := reg.ImportDirectory(cmd.Context(), args[0], !stdIncludeHidden)
		if err != nil {
			return err
		}
		if stdJSON {
			return writeJSON(cmd.OutOrStdout(), struct {
				Results []standards.ImportResult `json:"results"`
				Stats   standards.DirStats       `json:"stats"`
			}{results, stats})
		}
		for _, r := range results {
			switch {
			case r.Standard != nil:
				fmt.Fprintf(cmd.OutOrStdout(), "added\t%s\t%s\n", r.Standard.Code, r.Path)
			case r.Duplicate:
				fmt.Fprintf(cmd.OutOrStdout(), "skipped\t%s\t%s\n", r.Path, r.Err)
			default:
				fmt.Fprintf(cmd.OutOrStdout(), "failed\t%s\t%s\n", r.Path, r.Err)
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "matched %d, added %d, duplicates %d, failed %d\n",
			stats.Matched, stats.Succeeded, stats.Duplicates, stats.Failed)
		return nil
	}),
}

var standardsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the registry to an XLSX workbook",
	Args:  cobra.NoArgs,
	RunE: withRegistry(func(cmd *cobra.Command, reg *standards.Registry, _ []string) error {
		data, err := export.NewService(reg, logger).StandardsXLSX(cmd.Context(), stdCategory)
		if err != nil {
			return err
		}
		if err := os.WriteFile(stdOut, data, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", stdOut)
		return nil
	}),
}

var standardsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count registered standards by category",
	Args:  cobra.NoArgs,
	RunE: withRegistry(func(cmd *cobra.Command, reg *standards.Registry, _ []string) error {
		st, err := reg.Stats(cmd.Context())
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), st)
	}),
}

func init() {
	standardsAddCmd.Flags().StringVar(&stdName, "name", "", "display name (defaults to the file name)")
	standardsListCmd.Flags().StringVar(&stdCategory, "category", "", "国家标准, 行业标准, 地方标准, 其他 or 全部")
	standardsListCmd.Flags().StringVarP(&stdKeyword, "keyword", "k", "", "search code and name")
	standardsExportCmd.Flags().StringVar(&stdCategory, "category", "", "export only this category")
	standardsExportCmd.Flags().StringVarP(&stdOut, "out", "o", "standards.xlsx", "output file")
	standardsImportCmd.Flags().BoolVar(&stdIncludeHidden, "include-hidden", false, "also import hidden files and directories")
	for _, c := range []*cobra.Command{standardsAddCmd, standardsListCmd, standardsImportCmd} {
		c.Flags().BoolVar(&stdJSON, "json", false, "print JSON")
	}
	standardsCmd.AddCommand(standardsAddCmd, standardsListCmd, standardsShowCmd, standardsRmCmd, standardsImportCmd, standardsExportCmd, standardsStatsCmd)
	rootCmd.AddCommand(standardsCmd)
}

func withRegistry(run func(*cobra.Command, *standards.Registry, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		reg, db, err := app.OpenRegistry(cmd.Context(), cfg, app.NewParser(cfg, logger), logger)
		if err != nil {
			return err
		}
		defer db.Close()
		return run(cmd, reg, args)
	}
}

func parseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: id must be a UUID", common.ErrInvalidInput)
	}
	return id, nil
}
