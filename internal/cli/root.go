package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/BrandonDHaskell/gatelog/internal/config"
	"github.com/BrandonDHaskell/gatelog/internal/logging"
)

// RootOptions holds global flags and the state resolved from them before
// any subcommand runs.
type RootOptions struct {
	ConfigFile string
	Format     string // "json" | "text"

	viper  *viper.Viper
	Config config.Config
	Logger *zap.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the gatelog CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{
		viper: config.NewViper(),
	}

	cmd := &cobra.Command{
		Use:   "gatelog",
		Short: "gatelog - gate access ledger",
		Long: `Records vehicle and collaborator passages at a gate, keeps them in a
durable local ledger, and exports them as a CSV report plus photos.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return opts.resolve(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.Logger != nil {
				_ = opts.Logger.Sync()
			}
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.ConfigFile, "config", "", "config file (yaml, json or toml); GATELOG_* env vars override it")
	pf.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	pf.String("env", "", "environment (dev|prod)")
	pf.String("store", "", "ledger store (sqlite|memory|redis)")
	pf.String("db", "", "path to the SQLite database")
	pf.String("redis-addr", "", "Redis address for --store=redis")
	_ = opts.viper.BindPFlag(config.KeyEnv, pf.Lookup("env"))
	_ = opts.viper.BindPFlag(config.KeyStore, pf.Lookup("store"))
	_ = opts.viper.BindPFlag(config.KeyDBPath, pf.Lookup("db"))
	_ = opts.viper.BindPFlag(config.KeyRedisAddr, pf.Lookup("redis-addr"))

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewRecordsCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))

	return cmd
}

// resolve reads the optional config file, builds the Config and the logger.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	if o.ConfigFile != "" {
		o.viper.SetConfigFile(o.ConfigFile)
		if err := o.viper.ReadInConfig(); err != nil {
			return WrapExitError(ExitCommandError, "failed to read config file", err)
		}
	}
	o.Config = config.Load(o.viper)

	if o.Logger == nil {
		logger, err := logging.New(o.Config.Env)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to build logger", err)
		}
		o.Logger = logger
	}
	for _, w := range o.Config.Warnings {
		o.Logger.Warn("config value ignored", zap.String("detail", w))
	}
	o.Logger.Debug("config resolved",
		zap.String("command", cmd.Name()),
		zap.String("store", o.Config.Store),
		zap.String("export_dir", o.Config.ExportDir))
	return nil
}
