package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

// NewPublishCmd creates the publish command.
func NewPublishCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Copy an account's datasets to the publish directory",
		Args:  cobra.NoArgs,
		RunE:  runPublishCmd,
	}

	cmd.Flags().StringP("account", "a", "", "Account name (required)")
	_ = cmd.MarkFlagRequired("account")

	return cmd
}

func runPublishCmd(cmd *cobra.Command, _ []string) error {
	ctx, env, cancel, err := setup(cmd)
	if err != nil {
		return err
	}
	defer cancel()

	account, _ := cmd.Flags().GetString("account")
	pub := env.newPublisher()
	if !pub.Enabled() {
		return env.finish(ctx, errors.New("publish_dir is not configured"))
	}

	if err := env.checkPublishDir(pub); err != nil {
		return env.finish(ctx, err)
	}

	n, err := pub.Publish(ctx, account)
	if err != nil {
		return env.finish(ctx, fmt.Errorf("publish failed: %w", err))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "published %d file(s) for %s\n", n, account)
	env.logger.InfoContext(ctx, "Published", slog.String("account", account), slog.Int("files", n))
	return env.finish(ctx, nil)
}
