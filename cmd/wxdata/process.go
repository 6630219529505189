package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"wxdata/internal/files"
	"wxdata/internal/validation"
)

// NewProcessCmd creates the process command.
func NewProcessCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Reconcile exports already in the download directory",
		Long: `Process merges the exports found in the temp download directory into
the account's datasets and publishes the account, without opening a browser.

Exports are recognized by file name: traffic_data.xlsx is the traffic
export, article_7d_data.xlsx the 7-day article rollup, and any other
workbook an article detail export named after its article.`,
		Args: cobra.NoArgs,
		RunE: runProcessCmd,
	}

	cmd.Flags().StringP("account", "a", "", "Account name (required)")
	cmd.Flags().StringP("dir", "d", "", "Directory holding the exports (default: tmp_dir)")
	_ = cmd.MarkFlagRequired("account")

	return cmd
}

func runProcessCmd(cmd *cobra.Command, _ []string) error {
	ctx, env, cancel, err := setup(cmd)
	if err != nil {
		return err
	}
	defer cancel()

	account, _ := cmd.Flags().GetString("account")
	dir, _ := cmd.Flags().GetString("dir")
	if dir == "" {
		dir = env.paths.TmpDir
	}

	n, err := validation.NewFileValidator(env.logger).ValidateInputDirectory(dir)
	if err != nil {
		return env.finish(ctx, err)
	}
	var downloads files.Downloads
	if n > 0 {
		found, err := files.FindExcelFiles(dir)
		if err != nil {
			return env.finish(ctx, err)
		}
		downloads = files.ClassifyDownloads(found)
	} else {
		env.logger.WarnContext(ctx, "No exports found", slog.String("dir", dir))
	}

	a, err := env.newAnalyzer(account)
	if err != nil {
		return env.finish(ctx, err)
	}
	report, err := a.Process(ctx, downloads)
	return env.finish(ctx, env.reportResult(ctx, report, err))
}
