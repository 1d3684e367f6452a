// Package rigup wires the provisioning pipeline into a single-command
// CLI. Behavior is controlled by the configuration file and a handful
// of override flags; there are no provisioning subcommands.
package rigup

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	provisioncmd "github.com/benchrig/rigup/pkg/commands/provision"
	"github.com/benchrig/rigup/pkg/config"
	"github.com/benchrig/rigup/pkg/errors"
	"github.com/benchrig/rigup/pkg/filesystem"
	"github.com/benchrig/rigup/pkg/logging"
	"github.com/benchrig/rigup/pkg/types"
)

// NewRootCmd builds the rigup command tree.
func NewRootCmd() *cobra.Command {
	var (
		verbosity  int
		dryRun     bool
		configFile string
		model      string
	)

	rootCmd := &cobra.Command{
		Use:   "rigup",
		Short: "Provision the measurement rig application as a supervised service",
		Long: `rigup provisions a single-board computer to run the benchrig
measurement application: it lays out the install, log and state
directories, mirrors the payload, installs dependencies, grants
hardware group access, and installs the application as a supervised
systemd service under either the system or the user execution model.

Re-running rigup is always safe: every stage converges to the same end
state.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := filesystem.NewOS()

			cfg, err := config.Load(fs, configFile)
			if err != nil {
				return err
			}
			if model != "" {
				parsed, err := types.ParseExecutionModel(model)
				if err != nil {
					return errors.Wrap(err, errors.ErrConfigValid, "invalid --model")
				}
				cfg.Model = parsed
			}

			result, err := provisioncmd.Run(provisioncmd.Options{
				Config: cfg,
				DryRun: dryRun,
			})
			if result != nil {
				renderReport(cmd.OutOrStdout(), cfg, result)
			}
			return err
		},
	}

	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Check preconditions and preview changes without executing them")
	rootCmd.Flags().StringVar(&configFile, "config", "", "Config file (default: XDG config dir or /etc/rigup/rigup.toml)")
	rootCmd.Flags().StringVar(&model, "model", "", "Override the execution model (system or user)")

	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}
