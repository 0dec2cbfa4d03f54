package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/agentic-research/populate/internal/populate"
	"github.com/agentic-research/populate/internal/registry"
	"github.com/agentic-research/populate/internal/traverse"
)

const envPrefix = "POPULATE"

// rootOpts carries the configuration shared by every subcommand. Flags are
// bound to v, so each key can also come from the config file or from a
// POPULATE_* environment variable.
type rootOpts struct {
	cfgFile string
	v       *viper.Viper
	log     *logrus.Logger
}

// NewRootCmd builds the populate command tree.
func NewRootCmd() *cobra.Command {
	o := &rootOpts{v: viper.New(), log: logrus.New()}

	root := &cobra.Command{
		Use:           "populate",
		Short:         "Check and rewrite populate directives against content-type schemas",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return o.init(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&o.cfgFile, "config", "", "config file (json or yaml)")
	flags.BoolP("debug", "d", false, "turn on debug logging")
	flags.String("schemas", "", "directory of content-type schema files (*.json, *.yaml)")
	flags.String("db", "", "SQLite schema registry written by `populate build`")
	flags.Int("max-depth", traverse.DefaultMaxDepth, "maximum number of schema descents")
	flags.Bool("parallel", false, "evaluate sibling keys concurrently")
	flags.String("media-uid", populate.MediaUID, "content type media attributes point at")
	_ = o.v.BindPFlags(flags) // only fails on a nil flag set

	root.AddCommand(
		newTraverseCmd(o),
		newReachCmd(o),
		newBuildCmd(o),
		newValidateCmd(o),
		newServeCmd(o),
	)
	return root
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		logrus.Errorf("populate: %v", err)
		os.Exit(1)
	}
}

func (o *rootOpts) init(cmd *cobra.Command) error {
	o.v.SetEnvPrefix(envPrefix)
	o.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	o.v.AutomaticEnv()

	if o.cfgFile != "" {
		o.v.SetConfigFile(o.cfgFile)
		if err := o.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", o.cfgFile, err)
		}
	}

	o.log.SetOutput(cmd.ErrOrStderr())
	if o.v.GetBool("debug") {
		o.log.SetLevel(logrus.DebugLevel)
	}
	return nil
}

// catalog opens the configured schema registry. The returned func releases it.
func (o *rootOpts) catalog() (registry.Catalog, func(), error) {
	if db := o.v.GetString("db"); db != "" {
		reg, err := registry.OpenSQLite(db)
		if err != nil {
			return nil, nil, err
		}
		o.log.WithField("db", db).Debug("using sqlite schema registry")
		return reg, func() { _ = reg.Close() }, nil
	}

	dir := o.v.GetString("schemas")
	if dir == "" {
		return nil, nil, fmt.Errorf("no schemas configured: set --schemas or --db")
	}
	reg := registry.NewMemoryRegistry()
	n, err := registry.LoadDir(osfs.New(dir), ".", reg)
	if err != nil {
		return nil, nil, err
	}
	o.log.WithFields(logrus.Fields{"dir": dir, "types": n}).Debug("loaded schemas")
	return reg, func() {}, nil
}

func (o *rootOpts) populator(r registry.Resolver) *populate.Populator {
	return populate.New(r,
		populate.WithMediaUID(o.v.GetString("media-uid")),
		populate.WithLogger(o.log),
		populate.WithTraverseOptions(
			traverse.WithMaxDepth(o.v.GetInt("max-depth")),
			traverse.WithParallel(o.v.GetBool("parallel")),
		),
	)
}

// withCatalog opens the registry, runs fn with a populator over it and
// releases the registry.
func (o *rootOpts) withCatalog(ctx context.Context, fn func(context.Context, registry.Catalog, *populate.Populator) error) error {
	c, release, err := o.catalog()
	if err != nil {
		return err
	}
	defer release()
	return fn(ctx, c, o.populator(c))
}
