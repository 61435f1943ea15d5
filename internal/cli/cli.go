// Package cli declares rainman2's command-line surface:
//
//	rainman2 [OPTIONS] Cellular [--env_type Dev|Prod] COMMAND
//
// with the Q-learning variants as leaf commands. Hyperparameter
// defaults come from the configuration layer, so overrides files and
// RAINMAN2_* env vars show up as flag defaults.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/logrusorgru/aurora"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/att-innovate/rainman2/internal/config"
	"github.com/att-innovate/rainman2/internal/experiment"
	"github.com/att-innovate/rainman2/internal/logging"
	"github.com/att-innovate/rainman2/internal/qlearning"
	"github.com/att-innovate/rainman2/internal/results"
)

// RunFunc executes one experiment. Tests stub it out.
type RunFunc func(ctx context.Context, cfg *config.Config,
	envName, algorithmName, agentName string) (*qlearning.Results, error)

// App holds everything the commands share.
type App struct {
	cfg    *config.Config
	run    RunFunc
	logger *zap.Logger
	out    io.Writer
}

// Option tweaks an App, used by tests.
type Option func(*App)

// WithRunFunc replaces the experiment runner.
func WithRunFunc(run RunFunc) Option {
	return func(a *App) { a.run = run }
}

// WithLogger replaces the logger, skipping global log setup.
func WithLogger(logger *zap.Logger) Option {
	return func(a *App) { a.logger = logger }
}

// WithOutput redirects the result summary.
func WithOutput(out io.Writer) Option {
	return func(a *App) { a.out = out }
}

// New assembles the root command.
func New(cfg *config.Config, opts ...Option) *cobra.Command {
	app := &App{cfg: cfg}
	for _, opt := range opts {
		opt(app)
	}
	if app.run == nil {
		app.run = app.runExperiment
	}

	root := &cobra.Command{
		Use:           "rainman2",
		Short:         "Rainman2's cli",
		Long:          "Reinforcement-learning experiments against network environments.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if app.out == nil {
				app.out = cmd.OutOrStdout()
			}
			if app.logger == nil {
				logger, err := logging.Setup(cfg.Algorithm.Verbose)
				if err != nil {
					return err
				}
				app.logger = logger
			}
			return cfg.Validate()
		},
	}

	flags := root.PersistentFlags()
	flags.BoolVar(&cfg.Algorithm.Verbose, "verbose",
		cfg.Algorithm.Verbose, "show verbose output for debugging")
	flags.Float64Var(&cfg.Algorithm.EpsilonMin, "epsilon_min",
		cfg.Algorithm.EpsilonMin, "min value for epsilon to stop updating")
	flags.Float64Var(&cfg.Algorithm.EpsilonDecay, "epsilon_decay",
		cfg.Algorithm.EpsilonDecay, "rate at which epsilon gets updated")
	flags.Float64Var(&cfg.Algorithm.Epsilon, "epsilon",
		cfg.Algorithm.Epsilon, "epsilon for epsilon-greedy policy")
	flags.Float64Var(&cfg.Algorithm.Gamma, "gamma",
		cfg.Algorithm.Gamma, "discount factor")
	flags.Float64Var(&cfg.Algorithm.Alpha, "alpha",
		cfg.Algorithm.Alpha, "learning rate")
	flags.IntVar(&cfg.Algorithm.Episodes, "episodes",
		cfg.Algorithm.Episodes, "number of episodes/epochs")

	root.AddCommand(app.cellularCommand())
	return root
}

func (a *App) cellularCommand() *cobra.Command {
	cellular := &cobra.Command{
		Use:   "Cellular",
		Short: "Arguments for cellular environment",
	}
	cellular.PersistentFlags().StringVar(&a.cfg.Cellular.Type, "env_type",
		a.cfg.Cellular.Type, "type of cellular network: Dev/Prod")

	cellular.AddCommand(
		&cobra.Command{
			Use:   "qlearning_naive",
			Short: "Qlearning without any function approximator",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.execute(cmd.Context(), qlearning.AgentNaive)
			},
		},
		&cobra.Command{
			Use:   "qlearning_linear_regression",
			Short: "Qlearning with Linear Regressor as Function Approximator",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.execute(cmd.Context(), qlearning.AgentLinearRegression)
			},
		},
		a.nnCommand(),
	)
	return cellular
}

func (a *App) nnCommand() *cobra.Command {
	nn := &cobra.Command{
		Use:   "qlearning_nn",
		Short: "Qlearning with Neural Network as Function Approximator",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.execute(cmd.Context(), qlearning.AgentNN)
		},
	}
	flags := nn.Flags()
	flags.IntVar(&a.cfg.Algorithm.L1HiddenUnits, "l1_hidden_units",
		a.cfg.Algorithm.L1HiddenUnits, "hidden units for layer-1")
	flags.IntVar(&a.cfg.Algorithm.L2HiddenUnits, "l2_hidden_units",
		a.cfg.Algorithm.L2HiddenUnits, "hidden units for layer-2")
	flags.StringVar(&a.cfg.Algorithm.L1Activation, "l1_activation",
		a.cfg.Algorithm.L1Activation, "type of activation for layer-1")
	flags.StringVar(&a.cfg.Algorithm.L2Activation, "l2_activation",
		a.cfg.Algorithm.L2Activation, "type of activation for layer-2")
	flags.StringVar(&a.cfg.Algorithm.LossFunction, "loss_function",
		a.cfg.Algorithm.LossFunction, "loss function")
	flags.StringVar(&a.cfg.Algorithm.Optimizer, "optimizer",
		a.cfg.Algorithm.Optimizer, "optimizer used in the last layer")
	return nn
}

// execute runs one experiment and prints the summary.
func (a *App) execute(ctx context.Context, agentName string) error {
	res, err := a.run(ctx, a.cfg,
		experiment.EnvCellular, experiment.AlgorithmQlearning, agentName)
	if err != nil {
		a.logger.Error("experiment failed", zap.Error(err))
		return err
	}
	a.summarize(res)
	return nil
}

// runExperiment is the production RunFunc: run, then persist results.
func (a *App) runExperiment(ctx context.Context, cfg *config.Config,
	envName, algorithmName, agentName string) (*qlearning.Results, error) {

	runner := experiment.New(cfg, a.logger)
	res, err := runner.Run(ctx, envName, algorithmName, agentName)
	if err != nil {
		return nil, err
	}

	writer, err := results.NewWriter("results", a.logger)
	if err != nil {
		return nil, err
	}
	workbook, chart, err := writer.Save(res)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(a.out, "results written to %s and %s\n", workbook, chart)
	return res, nil
}

func (a *App) summarize(res *qlearning.Results) {
	fmt.Fprintf(a.out, "%s %s\n",
		aurora.Bold("Experiment finished:"), aurora.Cyan(res.Agent))
	fmt.Fprintf(a.out, "  episodes run:        %d\n", len(res.Episodes))
	fmt.Fprintf(a.out, "  states encountered:  %s\n",
		aurora.Green(fmt.Sprintf("%d", res.QStates)))
	fmt.Fprintf(a.out, "  ap states:           %s\n",
		aurora.Green(fmt.Sprintf("%d", res.QAPStates)))
	if n := len(res.Episodes); n > 0 {
		last := res.Episodes[n-1]
		fmt.Fprintf(a.out, "  final reward:        %s\n",
			aurora.Yellow(fmt.Sprintf("%.2f", last.TotalReward)))
		fmt.Fprintf(a.out, "  final handoffs:      %d\n", last.Handoffs)
	}
	fmt.Fprintf(a.out, "  duration:            %s\n", res.Duration)
}
