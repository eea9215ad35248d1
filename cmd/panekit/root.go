package main

import (
	"fmt"
	"os/exec"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dshills/panekit/internal/config"
	"github.com/dshills/panekit/internal/logging"
)

// globalOptions are the flags shared by every command.
type globalOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	var opts globalOptions

	cmd := &cobra.Command{
		Use:           "panekit",
		Short:         "Run programs in terminal panes",
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", config.DefaultPath(), "Path to configuration file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		newRunCmd(&opts),
		newSearchCmd(&opts),
		newCwdCmd(),
		newVersionCmd(),
	)
	return cmd
}

// load reads the configuration and applies the command line overrides.
func (o *globalOptions) load() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}

	switch o.logLevel {
	case "":
	case "debug", "info", "warn", "error":
		cfg.Log.Level = o.logLevel
	default:
		return nil, fmt.Errorf("invalid log level %q (must be debug, info, warn, or error)", o.logLevel)
	}
	return cfg, nil
}

func (o *globalOptions) logger(cfg *config.Config) *logrus.Entry {
	return logging.New(cfg.Log.Logging())
}

// command builds the program to run in a pane: args when given, the
// configured shell otherwise.
func command(cfg *config.Config, args []string) (*exec.Cmd, error) {
	name, argv := cfg.Shell, cfg.Args
	if len(args) > 0 {
		name, argv = args[0], args[1:]
	}

	env, err := cfg.Environment()
	if err != nil {
		return nil, err
	}
	c := exec.Command(name, argv...)
	c.Env = env
	c.Dir = cfg.WorkDir
	return c, nil
}
