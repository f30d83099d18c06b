package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Printf("could not load config: %s\n", err)
		os.Exit(1)
	}

	root := &cobra.Command{
		Use:           "nhl-scoring-features",
		Short:         "Build per-player scoring datasets from the NHL API and explore them with PCA",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfg.OutputDir, "out", cfg.OutputDir, "output directory")

	root.AddCommand(collectCmd(&cfg))
	root.AddCommand(pcaCmd(&cfg))

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Printf("%s\n", err)
		os.Exit(1)
	}
}

func collectCmd(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collect [date...]",
		Short: "Write one labeled feature CSV per date (YYYY-MM-DD)",
		RunE: func(cmd *cobra.Command, args []string) error {
			dates := args
			if len(dates) == 0 {
				dates = defaultDates
			}
			return doCollect(cmd.Context(), *cfg, dates)
		},
	}
	cmd.Flags().StringVar(&cfg.TeamDataDir, "team-data", cfg.TeamDataDir, "directory of <TEAM>.csv files")
	cmd.Flags().StringVar(&cfg.Season, "season", cfg.Season, "season ID such as 20232024 (default: derived from each date)")
	cmd.Flags().IntVar(&cfg.Window, "window", cfg.Window, "average only the last N games before each date (0 for all)")
	cmd.Flags().IntVar(&cfg.Workers, "workers", cfg.Workers, "players fetched concurrently per date")
	cmd.Flags().Float64Var(&cfg.RPS, "rps", cfg.RPS, "max API requests per second (0 for unlimited)")
	cmd.Flags().DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "API request timeout")
	return cmd
}

func pcaCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "pca <dataset.csv>...",
		Short: "Standardize datasets and write PCA scores, loadings, variance and a biplot",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return doPCA(*cfg, args)
		},
	}
}

func doCollect(ctx context.Context, cfg Config, dates []string) error {
	for _, date := range dates {
		if _, err := parseDate(date); err != nil {
			return fmt.Errorf("could not collect: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	log := newLogger(cfg.LogLevel)
	client := NewNHLClient(cfg.APIURL, cfg.Timeout, cfg.RPS, log)
	collector := NewCollector(cfg, client, log)

	summaries, err := collector.Run(ctx, dates)
	if err != nil {
		return fmt.Errorf("could not collect: %w", err)
	}

	rows := 0
	for _, s := range summaries {
		rows += s.Rows
	}
	log.WithField("dates", len(summaries)).WithField("rows", rows).Info("collection finished")
	return nil
}

func doPCA(cfg Config, paths []string) error {
	log := newLogger(cfg.LogLevel)

	table, err := LoadFeatureTable(paths)
	if err != nil {
		return fmt.Errorf("could not load datasets: %w", err)
	}
	log.WithField("rows", len(table.PlayerIDs)).
		WithField("features", len(table.Features)).
		WithField("dropped", table.Dropped).
		Info("loaded feature table")

	res, err := RunPCA(table)
	if err != nil {
		return fmt.Errorf("could not run pca: %w", err)
	}
	if err := WritePCAOutputs(cfg.OutputDir, res); err != nil {
		return fmt.Errorf("could not write pca outputs: %w", err)
	}
	if err := Biplot(res, filepath.Join(cfg.OutputDir, "pca_biplot.png")); err != nil {
		return fmt.Errorf("could not draw biplot: %w", err)
	}

	log.Infof("PC1 explains %.1f%%, PC2 %.1f%%", 100*res.Explained[0], 100*res.Explained[1])
	return nil
}
