package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentic-research/populate/internal/populate"
	"github.com/agentic-research/populate/internal/query"
	"github.com/agentic-research/populate/internal/registry"
	"github.com/agentic-research/populate/internal/traverse"
)

func newTraverseCmd(o *rootOpts) *cobra.Command {
	var (
		rootUID  string
		selector string
		allow    []string
	)

	cmd := &cobra.Command{
		Use:   "traverse [file|-]",
		Short: "Rewrite a populate fragment, dropping what the schemas cannot resolve",
		Long: `Reads a populate fragment (JSON) from a file or stdin, walks it against the
content type given by --root and prints the rewritten fragment.

Unknown keys, query modifiers (sort, filters, fields) and polymorphic
relations without an "on" fragment are dropped. With --allow, every branch
leading to a content type outside the list is dropped as well.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := readFragment(cmd, args, selector)
			if err != nil {
				return err
			}

			return o.withCatalog(cmd.Context(), func(ctx context.Context, _ registry.Catalog, p *populate.Populator) error {
				var visitor traverse.Visitor
				if len(allow) > 0 {
					visitor = p.Restrict(populate.AllowList(allow...))
				}

				out, err := p.TraverseUID(ctx, visitor, rootUID, n)
				if err != nil {
					return err
				}
				raw, err := query.Encode(out)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(raw))
				return err
			})
		},
	}

	cmd.Flags().StringVar(&rootUID, "root", "", "content type UID the fragment applies to")
	cmd.Flags().StringVar(&selector, "selector", "", "JSONPath selecting the fragment inside the input, e.g. $.populate")
	cmd.Flags().StringSliceVar(&allow, "allow", nil, "content type UIDs the fragment may reach")
	_ = cmd.MarkFlagRequired("root")
	return cmd
}
