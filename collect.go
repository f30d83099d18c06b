package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type DateSummary struct {
	Date       string `csv:"date"`
	Players    int    `csv:"players"`
	Scorers    int    `csv:"scorers"`
	Rows       int    `csv:"rows"`
	Ineligible int    `csv:"ineligible"`
	Skipped    string `csv:"skipped"`
}

// Collector builds the per-date datasets.
type Collector struct {
	Source    NHLSource
	Builder   *FeatureBuilder
	Teams     TeamContext
	OutputDir string
	GameType  int
	Workers   int
	Log       logrus.FieldLogger
}

func NewCollector(cfg Config, src NHLSource, log logrus.FieldLogger) *Collector {
	return &Collector{
		Source: src,
		Builder: &FeatureBuilder{
			Source:   src,
			Season:   cfg.Season,
			GameType: cfg.GameType,
			Window:   cfg.Window,
		},
		Teams:     TeamContext{Dir: cfg.TeamDataDir},
		OutputDir: cfg.OutputDir,
		GameType:  cfg.GameType,
		Workers:   cfg.Workers,
		Log:       log,
	}
}

// BuildRows assembles rows for the roster's players. Players who didn't play
// that date are counted and skipped; any other error fails the date. Rows come
// back in roster order.
func (c *Collector) BuildRows(ctx context.Context, roster Roster) ([]DatasetRow, int, error) {
	slots := make([]*DatasetRow, len(roster.Players))

	workers := c.Workers
	if workers < 1 {
		workers = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, playerID := range roster.Players {
		i, playerID := i, playerID
		g.Go(func() error {
			rec, err := c.Builder.Build(ctx, playerID, roster.Date)
			if errors.Is(err, ErrPlayerIneligible) {
				c.Log.WithFields(logrus.Fields{"date": roster.Date, "player": playerID}).Debug("player not eligible")
				return nil
			}
			if err != nil {
				return err
			}
			row, err := c.Teams.Join(roster.Date, rec)
			if err != nil {
				return err
			}
			slots[i] = &row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	rows := []DatasetRow{}
	for _, row := range slots {
		if row != nil {
			rows = append(rows, *row)
		}
	}
	return rows, len(roster.Players) - len(rows), nil
}

// CollectDate builds, labels and writes one date's dataset.
func (c *Collector) CollectDate(ctx context.Context, date string) (DateSummary, error) {
	log := c.Log.WithField("date", date)
	start := time.Now()

	roster, err := GetRoster(ctx, c.Source, date, c.GameType, log)
	if err != nil {
		return DateSummary{Date: date}, err
	}
	log.WithFields(logrus.Fields{"players": len(roster.Players), "scorers": len(roster.Scorers)}).Info("loaded roster")

	rows, ineligible, err := c.BuildRows(ctx, roster)
	summary := DateSummary{
		Date:       date,
		Players:    len(roster.Players),
		Scorers:    len(roster.Scorers),
		Rows:       len(rows),
		Ineligible: ineligible,
	}
	if err != nil {
		return summary, err
	}

	ApplyLabels(rows, roster.Scorers)
	path := datasetPath(c.OutputDir, date)
	if err := WriteDataset(path, rows); err != nil {
		if errors.Is(err, errNoRows) {
			log.Warn("no eligible players, nothing written")
			return summary, c.dropDataset(date)
		}
		return summary, err
	}

	log.WithFields(logrus.Fields{
		"rows":       len(rows),
		"ineligible": ineligible,
		"path":       path,
		"took":       time.Since(start).Round(time.Millisecond),
	}).Info("wrote dataset")
	return summary, nil
}

// Run collects each date in order. A date whose team files are missing or
// unreadable is skipped, its stale dataset removed, and noted in the summary;
// any other error stops the run.
func (c *Collector) Run(ctx context.Context, dates []string) ([]DateSummary, error) {
	summaries := []DateSummary{}
	for _, date := range dates {
		summary, err := c.CollectDate(ctx, date)
		if err != nil {
			if !dateFailure(err) {
				return summaries, err
			}
			c.Log.WithField("date", date).WithError(err).Error("skipping date")
			summary.Rows = 0
			summary.Skipped = err.Error()
			if err := c.dropDataset(date); err != nil {
				return summaries, err
			}
		}
		summaries = append(summaries, summary)
	}

	if err := c.writeSummary(summaries); err != nil {
		return summaries, err
	}
	return summaries, nil
}

// dropDataset removes a dataset an earlier run wrote for date.
func (c *Collector) dropDataset(date string) error {
	err := os.Remove(datasetPath(c.OutputDir, date))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (c *Collector) writeSummary(summaries []DateSummary) error {
	if err := os.MkdirAll(c.OutputDir, 0755); err != nil {
		return err
	}
	summaryFile, err := os.Create(filepath.Join(c.OutputDir, "collect_summary.csv"))
	if err != nil {
		return err
	}
	defer summaryFile.Close()

	return gocsv.MarshalFile(&summaries, summaryFile)
}
