package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentic-research/populate/internal/populate"
	"github.com/agentic-research/populate/internal/registry"
)

func newValidateCmd(o *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check that every relation, component and media reference resolves",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.withCatalog(cmd.Context(), func(ctx context.Context, c registry.Catalog, p *populate.Populator) error {
				if err := registry.Validate(ctx, c, p.MediaUID()); err != nil {
					return err
				}
				uids, err := c.UIDs(ctx)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d content types, all references resolve\n", len(uids))
				return err
			})
		},
	}
}
