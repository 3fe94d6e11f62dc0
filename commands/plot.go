package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gridmdp/cell_views"
	"gridmdp/logs"
	"gridmdp/problem"

	"github.com/spf13/cobra"
)

// ErrNothingToPlot is returned when plot is given neither --heatmap nor --chart.
var ErrNothingToPlot = errors.New("nothing to plot: pass --heatmap and/or --chart")

// PlotCommand solves an evaluation or iteration problem and writes its final values as a
// heatmap and its residuals as a convergence chart.
func PlotCommand() *cobra.Command {
	var (
		kind    string
		heatmap string
		chart   string
	)

	cmd := &cobra.Command{
		Use:   "plot <file>",
		Short: "Plot the final value heatmap (png) and the residual chart (html) of a problem",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if heatmap == "" && chart == "" {
				return ErrNothingToPlot
			}
			k, err := problem.ParseKind(kind)
			if err != nil {
				return err
			}
			if k == problem.Episode {
				return fmt.Errorf("plot: episodes have no value function")
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			sol, err := solveFile(k, args[0], problem.Options{Config: cfg})
			if err != nil {
				return err
			}

			title := filepath.Base(args[0])
			if heatmap != "" {
				err = writeFile(heatmap, func(f *os.File) error {
					return cell_views.WriteHeatmap(f, title, sol.Grid, sol.Values)
				})
				if err != nil {
					return err
				}
			}
			if chart != "" {
				err = writeFile(chart, func(f *os.File) error {
					return cell_views.WriteConvergenceChart(f, title, cell_views.ResidualSeries{
						Name:      string(k),
						Residuals: sol.Residuals(),
					})
				})
			}
			return err
		},
	}
	cmd.Flags().StringVar(&kind, "kind", string(problem.Iteration), "Problem kind, evaluation or iteration")
	cmd.Flags().StringVar(&heatmap, "heatmap", "", "Write the final value heatmap png here")
	cmd.Flags().StringVar(&chart, "chart", "", "Write the residual convergence chart html here")
	return cmd
}

func writeFile(path string, write func(*os.File) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()

	if err = write(f); err != nil {
		return err
	}
	logs.Info("wrote %s", path)
	return nil
}
