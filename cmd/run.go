package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/okian/tbsim/internal/engine"
	"github.com/okian/tbsim/internal/runner"
	"github.com/okian/tbsim/internal/scenario"
	"github.com/okian/tbsim/pkg/logger"
	"github.com/okian/tbsim/pkg/metrics"
)

// Metrics server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	readHeaderTimeout = 5 * time.Second
)

func newRunCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a single simulation to completion",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(ctx, cmd)
			if err != nil {
				return err
			}
			if name, _ := cmd.Flags().GetString("scenario"); name != "" {
				cfg.Scenario = name
			}
			if days, _ := cmd.Flags().GetInt("days"); days > 0 {
				cfg.DurationDays = days
			}
			if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
				cfg.Listen = listen
			}

			ec, err := cfg.EngineConfig(ctx)
			if err != nil {
				return err
			}

			if cfg.Listen != "" {
				go serveMetrics(ctx, cfg.Listen)
			}

			eng, err := engine.New(ec,
				engine.WithLogger(logger.Named("engine")),
				engine.WithHistoryLimit(cfg.HistoryLimit),
				engine.WithMaxEvents(cfg.MaxEvents),
			)
			if err != nil {
				return err
			}

			start := time.Now()
			eng.Start()
			for eng.Status() != engine.StatusCompleted {
				if err := ctx.Err(); err != nil {
					logger.Get().Warn(ctx, "run interrupted", logger.Int("day", eng.CurrentDay()))
					break
				}
				eng.Step()
			}
			metrics.RecordRunCompleted(time.Since(start).Seconds())

			summary := eng.Summary()
			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				return json.NewEncoder(os.Stdout).Encode(summary)
			}
			printSummary(cfg.Scenario, summary)
			return nil
		},
	}
	cmd.Flags().String("scenario", "", "Scenario preset to run")
	cmd.Flags().Int("days", 0, "Override the simulated duration in days")
	cmd.Flags().String("listen", "", "Serve Prometheus metrics on this address, e.g. :9090")
	return cmd
}

func newBatchCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch [scenario...]",
		Short: "Run several scenarios concurrently and compare them",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(ctx, cmd)
			if err != nil {
				return err
			}

			var scenarios []scenario.Scenario
			if len(args) == 0 {
				scenarios = scenario.All()
			} else {
				for _, name := range args {
					sc, err := scenario.Get(name)
					if err != nil {
						return fmt.Errorf("%w: %q", err, name)
					}
					scenarios = append(scenarios, sc)
				}
			}

			r := runner.New(
				runner.WithWorkers(cfg.Workers),
				runner.WithLogger(logger.Named("batch")),
			)
			results := r.Run(ctx, scenarios)

			for _, res := range results {
				if res.Err != nil {
					return res.Err
				}
			}
			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				return json.NewEncoder(os.Stdout).Encode(results)
			}
			printComparison(results)
			return nil
		},
	}
	return cmd
}

// serveMetrics exposes the simulator's Prometheus registry until ctx ends.
func serveMetrics(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Get().Error(ctx, "metrics server failed", logger.Error(err))
	}
}

func printSummary(name string, s engine.Summary) {
	fmt.Printf("scenario:              %s\n", name)
	fmt.Printf("days simulated:        %d\n", s.Days)
	fmt.Printf("cumulative infections: %.0f\n", s.CumulativeInfections)
	fmt.Printf("cumulative deaths:     %.0f\n", s.CumulativeDeaths)
	fmt.Printf("vaccinations:          %.0f\n", s.CumulativeVaccinated)
	fmt.Printf("prevented infections:  %.0f\n", s.Prevented.Infections)
	fmt.Printf("prevented deaths:      %.0f\n", s.Prevented.Deaths)
	fmt.Printf("peak infectious:       %.0f (day %d)\n", s.PeakInfectious, s.PeakInfectiousDay)
	fmt.Printf("incidence per 100k:    %.2f\n", s.FinalIncidenceRate)
	fmt.Printf("WHO target progress:   %.1f%%\n", s.WHOTargetProgress)
	fmt.Printf("low-incidence status:  %v\n", s.LowIncidence)
}

func printComparison(results []runner.Result) {
	header := fmt.Sprintf("%-18s %14s %12s %14s %12s %10s",
		"scenario", "infections", "deaths", "prevented", "incidence", "low-inc")
	fmt.Println(header)
	fmt.Println(strings.Repeat("-", len(header)))
	for _, r := range results {
		s := r.Summary
		fmt.Printf("%-18s %14.0f %12.0f %14.0f %12.2f %10v\n",
			r.Scenario, s.CumulativeInfections, s.CumulativeDeaths,
			s.Prevented.Infections, s.FinalIncidenceRate, s.LowIncidence)
	}
}
