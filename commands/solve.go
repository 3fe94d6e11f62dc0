package commands

import (
	"fmt"
	"os"

	"gridmdp/grid_world"
	"gridmdp/logs"
	"gridmdp/problem"

	"github.com/spf13/cobra"
)

// EvaluateCommand prints the policy evaluation document of a problem file.
func EvaluateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate <file>",
		Short: "Evaluate the file's fixed policy and print every value snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return printSolution(cmd, problem.Evaluation, args[0], problem.Options{Config: cfg})
		},
	}
}

// IterateCommand prints the value iteration document of a problem file.
func IterateCommand() *cobra.Command {
	var order string

	cmd := &cobra.Command{
		Use:   "iterate <file>",
		Short: "Run value iteration and print every value and greedy policy snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("order") {
				if _, err = grid_world.ParseActionOrder(order); err != nil {
					return err
				}
				cfg.ActionOrder = order
			}

			sol, err := solveFile(problem.Iteration, args[0], problem.Options{Config: cfg})
			if err != nil {
				return err
			}
			logConvergence(sol, cfg.Tolerance)
			_, err = fmt.Fprintln(cmd.OutOrStdout(), sol.Document)
			return err
		},
	}
	cmd.Flags().StringVar(&order, "order", grid_world.NESW.String(), "Greedy tie-break order, NESW or NSWE")
	return cmd
}

// EpisodeCommand prints a rollout of the file's policy.
func EpisodeCommand() *cobra.Command {
	var seed int64

	cmd := &cobra.Command{
		Use:   "episode <file>",
		Short: "Play one episode of the file's policy and print every step",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			opts := problem.Options{Config: cfg}
			if cmd.Flags().Changed("seed") {
				opts.Seed = &seed
			}
			return printSolution(cmd, problem.Episode, args[0], opts)
		},
	}
	cmd.Flags().Int64Var(&seed, "seed", problem.Unseeded, "Overrides the file's seed; -1 seeds from the clock")
	return cmd
}

func printSolution(cmd *cobra.Command, kind problem.Kind, path string, opts problem.Options) error {
	sol, err := solveFile(kind, path, opts)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), sol.Document)
	return err
}

func logConvergence(sol *problem.Solution, tolerance float64) {
	if sol.ConvergedAt > 0 {
		logs.Info("converged at sweep %d of %d (tolerance %g)", sol.ConvergedAt, len(sol.Sweeps)-1, tolerance)
		return
	}
	logs.Info("not converged after %d sweeps (tolerance %g)", len(sol.Sweeps)-1, tolerance)
}

func solveFile(kind problem.Kind, path string, opts problem.Options) (*problem.Solution, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	sol, err := problem.Solve(kind, file, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sol, nil
}
