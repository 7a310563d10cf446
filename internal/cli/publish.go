package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/quantum-portal/api/internal/di"
)

func (c Commands) newPublishDueCmd() *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "publish-due",
		Short: "Publish scheduled pages whose publish time has passed",
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now().UTC()
			if at != "" {
				parsed, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("--at: %w", err)
				}
				now = parsed
			}
			return c.withContainer(cmd, func(ctx context.Context, container *di.Container) error {
				result, err := container.Services.Publishing.PublishDue(ctx, now)
				if err != nil {
					return err
				}
				fmt.Fprintf(c.Out, "tenants=%d static=%d dynamic=%d failures=%d\n",
					result.Tenants, result.StaticPages, result.DynamicPages, result.Failures)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "Reference time in RFC3339 (defaults to now)")
	return cmd
}
