package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentic-research/populate/internal/populate"
	"github.com/agentic-research/populate/internal/registry"
)

func newReachCmd(o *rootOpts) *cobra.Command {
	var rootUID, selector string

	cmd := &cobra.Command{
		Use:   "reach [file|-]",
		Short: "List the content types a populate fragment can pull in",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := readFragment(cmd, args, selector)
			if err != nil {
				return err
			}

			return o.withCatalog(cmd.Context(), func(ctx context.Context, _ registry.Catalog, p *populate.Populator) error {
				uids, err := p.Reach(ctx, rootUID, n)
				if err != nil {
					return err
				}
				for _, uid := range uids {
					if _, err := fmt.Fprintln(cmd.OutOrStdout(), uid); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&rootUID, "root", "", "content type UID the fragment applies to")
	cmd.Flags().StringVar(&selector, "selector", "", "JSONPath selecting the fragment inside the input")
	_ = cmd.MarkFlagRequired("root")
	return cmd
}
