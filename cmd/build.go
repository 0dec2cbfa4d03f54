package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/agentic-research/populate/api"
	"github.com/agentic-research/populate/internal/registry"
)

func newBuildCmd(o *rootOpts) *cobra.Command {
	var skipValidate bool

	cmd := &cobra.Command{
		Use:   "build [schema-dir] [output.db]",
		Short: "Build a SQLite schema registry from a directory of schema files",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, output := args[0], args[1]
			ctx := cmd.Context()
			start := time.Now()

			reg := registry.NewMemoryRegistry()
			if _, err := registry.LoadDir(osfs.New(source), ".", reg); err != nil {
				return err
			}
			if !skipValidate {
				if err := registry.Validate(ctx, reg, o.v.GetString("media-uid")); err != nil {
					return fmt.Errorf("schemas in %s are inconsistent: %w", source, err)
				}
			}

			uids, err := reg.UIDs(ctx)
			if err != nil {
				return err
			}
			types := make([]*api.ContentType, 0, len(uids))
			for _, uid := range uids {
				ct, err := reg.Resolve(ctx, uid)
				if err != nil {
					return err
				}
				types = append(types, ct)
			}

			_ = os.Remove(output) // overwrite
			if err := registry.WriteSQLite(ctx, output, types); err != nil {
				return err
			}
			o.log.WithField("elapsed", time.Since(start)).Debug("build done")
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d content types to %s\n", len(types), output)
			return err
		},
	}

	cmd.Flags().BoolVar(&skipValidate, "skip-validate", false, "write the registry even if references do not resolve")
	return cmd
}
