// Package cli implements the raton command line.
package cli

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"raton/internal/config"
	logx "raton/pkg/logx"
)

// Options configure the CLI. Zero values use the process defaults.
type Options struct {
	Out    io.Writer
	Err    io.Writer
	Getenv func(string) string
}

type CLI struct {
	opts    Options
	cfgPath string
	envFile string
	rootCmd *cobra.Command
}

func New(opts Options) *CLI {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}
	c := &CLI{opts: opts}
	c.rootCmd = c.newRootCmd()
	return c
}

func (c *CLI) Execute() error { return c.rootCmd.Execute() }

// SetArgs overrides os.Args[1:] (tests).
func (c *CLI) SetArgs(args []string) { c.rootCmd.SetArgs(args) }

func (c *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "raton",
		Short:         "Flight-deal alert bot",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.LoadDotEnv(c.envFile)
		},
	}
	cmd.SetOut(c.opts.Out)
	cmd.SetErr(c.opts.Err)

	cmd.PersistentFlags().StringVarP(&c.cfgPath, "config", "c", "", "path to a JSON or YAML config file (empty: environment only)")
	cmd.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "dotenv file loaded before reading the config")

	cmd.AddCommand(c.newRunCmd())
	cmd.AddCommand(c.newCheckCmd())
	cmd.AddCommand(c.newPrefsCmd())
	cmd.AddCommand(c.newDealsCmd())
	return cmd
}

func (c *CLI) configManager() *config.ConfigManager {
	cfgm := config.NewConfigManager(c.cfgPath)
	if c.opts.Getenv != nil {
		cfgm.SetEnv(c.opts.Getenv)
	}
	return cfgm
}

// loadConfig reads the config without requiring credentials.
func (c *CLI) loadConfig() (*config.Config, logx.Logger, error) {
	cfg, err := c.configManager().Load()
	if err != nil {
		return nil, logx.Logger{}, err
	}
	return cfg, logx.NewConsole("WARN"), nil
}
