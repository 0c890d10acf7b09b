package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/okian/tbsim/internal/config"
	"github.com/okian/tbsim/internal/domain/params"
	"github.com/okian/tbsim/internal/scenario"
	"github.com/okian/tbsim/pkg/logger"
)

var version = "0.1.0-dev"

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := &cobra.Command{
		Use:   "tbsim",
		Short: "TB transmission and intervention simulator",
		Long: `tbsim models tuberculosis transmission in a population with a
compartmental SEIR-family model, integrates it with 4th-order Runge-Kutta,
and compares vaccination and policy interventions against a no-vaccination
counterfactual.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file (default: $TBSIM_CONFIG)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(ctx),
		newBatchCmd(ctx),
		newScenariosCmd(),
		newValidateCmd(ctx),
	)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				json.NewEncoder(os.Stdout).Encode(map[string]string{"version": version})
				return
			}
			fmt.Printf("tbsim version %s\n", version)
		},
	}
}

func newScenariosCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scenarios",
		Short: "List the built-in scenario presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			all := scenario.All()
			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				return json.NewEncoder(os.Stdout).Encode(all)
			}
			for _, s := range all {
				fmt.Printf("%-18s %s\n", s.Name, s.Description)
			}
			return nil
		},
	}
}

func newValidateCmd(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load the configuration and validate the derived parameters",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(ctx, cmd)
			if err != nil {
				return err
			}
			ec, err := cfg.EngineConfig(ctx)
			if err != nil {
				return err
			}
			if err := params.MustValidate(ec.Parameters); err != nil {
				return err
			}
			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				return json.NewEncoder(os.Stdout).Encode(map[string]any{
					"valid":  true,
					"config": ec,
				})
			}
			fmt.Printf("configuration valid: scenario %q, population %.0f, %d days\n",
				cfg.Scenario, ec.Population, ec.DurationDays)
			return nil
		},
	}
}

// loadConfig layers defaults, optional file, and env, then applies the
// configured log level (falling back to info on invalid input).
func loadConfig(ctx context.Context, cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return cfg, nil
}
