// Package cli implements cmsctl, the operator tool for seeding tenants and inspecting content.
package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quantum-portal/api/internal/di"
)

const (
	backendFirestore = "firestore"
	backendMemory    = "memory"
)

// OpenFunc builds a container for the named backend.
type OpenFunc func(ctx context.Context, backend string) (*di.Container, error)

// Commands holds what every subcommand shares.
type Commands struct {
	Open   OpenFunc
	Logger *zap.Logger
	Out    io.Writer
}

// NewRootCmd assembles the cmsctl command tree.
func NewRootCmd(c Commands) *cobra.Command {
	if c.Out == nil {
		c.Out = os.Stdout
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.Open == nil {
		c.Open = func(ctx context.Context, backend string) (*di.Container, error) {
			return OpenContainer(ctx, backend, c.Logger)
		}
	}

	root := &cobra.Command{
		Use:           "cmsctl",
		Short:         "Operate the content API data store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("backend", backendFirestore, "Repository backend (firestore or memory)")
	root.PersistentFlags().StringP("tenant", "t", "", "Tenant ID for tenant scoped commands")

	root.AddCommand(
		c.newSeedCmd(),
		c.newTreeCmd(),
		c.newPublishDueCmd(),
	)
	return root
}

// withContainer opens the backend selected by --backend, runs fn and closes the container.
func (c Commands) withContainer(cmd *cobra.Command, fn func(ctx context.Context, container *di.Container) error) error {
	backend, _ := cmd.Flags().GetString("backend")
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	container, err := c.Open(ctx, strings.ToLower(strings.TrimSpace(backend)))
	if err != nil {
		return err
	}
	defer func() {
		if err := container.Close(context.WithoutCancel(ctx)); err != nil {
			c.Logger.Warn("close container", zap.Error(err))
		}
	}()
	return fn(ctx, container)
}

func requireTenant(cmd *cobra.Command) (string, error) {
	tenantID, _ := cmd.Flags().GetString("tenant")
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return "", errors.New("--tenant is required")
	}
	return tenantID, nil
}
