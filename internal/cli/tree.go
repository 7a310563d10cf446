package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quantum-portal/api/internal/di"
	"github.com/quantum-portal/api/internal/platform/requestctx"
	"github.com/quantum-portal/api/internal/services"
)

func (c Commands) newTreeCmd() *cobra.Command {
	var activeOnly bool
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the category tree of a tenant",
		RunE: func(cmd *cobra.Command, args []string) error {
			tenantID, err := requireTenant(cmd)
			if err != nil {
				return err
			}
			return c.withContainer(cmd, func(ctx context.Context, container *di.Container) error {
				nodes, err := container.Services.Categories.CategoryTree(requestctx.WithTenantID(ctx, tenantID), activeOnly)
				if err != nil {
					return err
				}
				if len(nodes) == 0 {
					fmt.Fprintln(c.Out, "(no categories)")
					return nil
				}
				printTree(c.Out, nodes, 0)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&activeOnly, "active-only", false, "Hide inactive categories and their subtrees")
	return cmd
}

func printTree(w io.Writer, nodes []services.CategoryNode, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, node := range nodes {
		marker := ""
		if !node.Category.IsActive {
			marker = " [inactive]"
		}
		fmt.Fprintf(w, "%s%s (%s)%s\n", indent, node.Category.Name, node.Category.Slug, marker)
		printTree(w, node.Children, depth+1)
	}
}
