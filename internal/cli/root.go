// Package cli provides the cobra command tree of scannerctl.
package cli

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"gitlab.apk-group.net/siem/backend/scanner-coordinator/app"
	"gitlab.apk-group.net/siem/backend/scanner-coordinator/config"
	appCtx "gitlab.apk-group.net/siem/backend/scanner-coordinator/pkg/context"
)

// Deps are the seams the commands reach the outside world through.
type Deps struct {
	ReadConfig   func(path string) (config.Config, error)
	NewContainer func(cfg config.Config) (app.AppContainer, error)
}

func DefaultDeps() Deps {
	return Deps{
		ReadConfig: config.ReadConfig,
		NewContainer: func(cfg config.Config) (app.AppContainer, error) {
			return app.NewApp(cfg)
		},
	}
}

type rootOpts struct {
	configPath string
	deps       Deps
}

// NewRootCmd creates the root command for scannerctl.
func NewRootCmd(deps Deps) *cobra.Command {
	opts := &rootOpts{deps: deps}

	rootCmd := &cobra.Command{
		Use:   "scannerctl",
		Short: "Operate the community scanner fleet",
		Long: `scannerctl - operator and agent tool for the community scanner coordinator.

Fleet commands (metrics, rank, list, sweep, blacklist, unblacklist) open the
coordinator storage directly. The agent and register commands talk to a running
coordinator over HTTP.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "config.yaml", "configuration file (CONFIG_PATH overrides)")
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(
		newMetricsCmd(opts),
		newRankCmd(opts),
		newListCmd(opts),
		newSweepCmd(opts),
		newBlacklistCmd(opts),
		newUnblacklistCmd(opts),
		newRegisterCmd(opts),
		newAgentCmd(opts),
	)

	return rootCmd
}

// Execute runs the root command with the given output writers.
func Execute(stdout, stderr io.Writer) error {
	config.LoadEnv()
	rootCmd := NewRootCmd(DefaultDeps())
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	return rootCmd.Execute()
}

// loadConfig reads the selected file. A missing default file falls back to
// defaults so agent flags alone are enough.
func (o *rootOpts) loadConfig(cmd *cobra.Command) (config.Config, error) {
	path := o.configPath
	explicit := cmd.Flags().Changed("config")
	if v := os.Getenv("CONFIG_PATH"); v != "" && !explicit {
		path, explicit = v, true
	}

	cfg, err := o.deps.ReadConfig(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return config.Default(), nil
		}
		return config.Config{}, err
	}
	return cfg, nil
}

func (o *rootOpts) withContainer(cmd *cobra.Command, fn func(ctx context.Context, c app.AppContainer) error) error {
	cfg, err := o.loadConfig(cmd)
	if err != nil {
		return err
	}
	// one-shot commands never run the periodic sweep
	cfg.Liveness.Enabled = false

	container, err := o.deps.NewContainer(cfg)
	if err != nil {
		return err
	}
	defer container.Close()

	ctx := appCtx.NewAppContext(cmd.Context())
	return fn(ctx, container)
}
