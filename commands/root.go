package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gridmdp/logs"
	"gridmdp/reinforcement"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const (
	// configEnv names the solver config file when --config is not given.
	configEnv = "GRIDMDP_CONFIG"
	// addrEnv is the listen address when serve --addr is not given.
	addrEnv = "GRIDMDP_ADDR"
)

var (
	configPath string
	envFile    string
	noColor    bool
)

// GetRootCommand returns the gridmdp command with every subcommand attached.
func GetRootCommand() *cobra.Command {
	rootCommand := &cobra.Command{
		Use:           "gridmdp",
		Short:         "Solve grid-world MDPs by policy evaluation, value iteration or episode rollout",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logs.SetColor(!noColor)
			return loadEnv(envFile)
		},
	}
	rootCommand.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Solver config yaml, defaults to $"+configEnv)
	rootCommand.PersistentFlags().StringVar(&envFile, "env", ".env", "Environment file loaded at start-up, if present")
	rootCommand.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored log tags")
	// adding the subcommands here
	rootCommand.AddCommand(EvaluateCommand())
	rootCommand.AddCommand(IterateCommand())
	rootCommand.AddCommand(EpisodeCommand())
	rootCommand.AddCommand(PlotCommand())
	rootCommand.AddCommand(ServeCommand())
	return rootCommand
}

// loadEnv loads the env file without overriding variables already set. A missing file is
// not an error.
func loadEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	logs.Info("loaded environment from %s", path)
	return nil
}

// loadConfig reads --config, else $GRIDMDP_CONFIG, else returns the defaults.
func loadConfig() (*reinforcement.SolverConfig, error) {
	path := configPath
	if path == "" {
		path = os.Getenv(configEnv)
	}
	if path == "" {
		return reinforcement.DefaultConfig(), nil
	}
	return reinforcement.FromYaml(path)
}
