package main

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"
)

const dateLayout = "2006-01-02"

func parseDate(date string) (time.Time, error) {
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return t, nil
}

// encodeDate turns 2023-12-11 into 20231211, the gameDate encoding of the team
// files.
func encodeDate(date string) (int, error) {
	t, err := parseDate(date)
	if err != nil {
		return 0, err
	}
	return t.Year()*10000 + int(t.Month())*100 + t.Day(), nil
}

// seasonForDate returns the season ID (e.g. 20232024) a date falls in. Seasons
// roll over in July.
func seasonForDate(date string) (string, error) {
	t, err := parseDate(date)
	if err != nil {
		return "", err
	}
	start := t.Year()
	if t.Month() < time.July {
		start--
	}
	return fmt.Sprintf("%d%d", start, start+1), nil
}

// PlaytimeToHour converts a "mm:ss" time on ice into hours.
func PlaytimeToHour(toi string) (float64, error) {
	mins, secs, ok := strings.Cut(toi, ":")
	if !ok {
		return 0, fmt.Errorf("bad time on ice %q", toi)
	}
	m, err := strconv.Atoi(mins)
	if err != nil {
		return 0, fmt.Errorf("bad time on ice %q: %w", toi, err)
	}
	s, err := strconv.Atoi(secs)
	if err != nil {
		return 0, fmt.Errorf("bad time on ice %q: %w", toi, err)
	}
	return float64(m)/60 + float64(s)/3600, nil
}

// PlayerStats holds per-game averages. Every field is NaN when the player has no
// prior games.
type PlayerStats struct {
	Goals             float64
	Assists           float64
	Points            float64
	PlusMinus         float64
	PowerPlayGoals    float64
	PowerPlayPoints   float64
	GameWinningGoals  float64
	OTGoals           float64
	Shots             float64
	Shifts            float64
	ShorthandedGoals  float64
	ShorthandedPoints float64
	PIM               float64
	TOI               float64
}

type statColumn struct {
	name  string
	value func(g NHLGameLogJSON) float64
	field func(s *PlayerStats) *float64
}

var statColumns = []statColumn{
	{"goals", func(g NHLGameLogJSON) float64 { return float64(g.Goals) }, func(s *PlayerStats) *float64 { return &s.Goals }},
	{"assists", func(g NHLGameLogJSON) float64 { return float64(g.Assists) }, func(s *PlayerStats) *float64 { return &s.Assists }},
	{"points", func(g NHLGameLogJSON) float64 { return float64(g.Points) }, func(s *PlayerStats) *float64 { return &s.Points }},
	{"plusMinus", func(g NHLGameLogJSON) float64 { return float64(g.PlusMinus) }, func(s *PlayerStats) *float64 { return &s.PlusMinus }},
	{"powerPlayGoals", func(g NHLGameLogJSON) float64 { return float64(g.PowerPlayGoals) }, func(s *PlayerStats) *float64 { return &s.PowerPlayGoals }},
	{"powerPlayPoints", func(g NHLGameLogJSON) float64 { return float64(g.PowerPlayPoints) }, func(s *PlayerStats) *float64 { return &s.PowerPlayPoints }},
	{"gameWinningGoals", func(g NHLGameLogJSON) float64 { return float64(g.GameWinningGoals) }, func(s *PlayerStats) *float64 { return &s.GameWinningGoals }},
	{"otGoals", func(g NHLGameLogJSON) float64 { return float64(g.OTGoals) }, func(s *PlayerStats) *float64 { return &s.OTGoals }},
	{"shots", func(g NHLGameLogJSON) float64 { return float64(g.Shots) }, func(s *PlayerStats) *float64 { return &s.Shots }},
	{"shifts", func(g NHLGameLogJSON) float64 { return float64(g.Shifts) }, func(s *PlayerStats) *float64 { return &s.Shifts }},
	{"shorthandedGoals", func(g NHLGameLogJSON) float64 { return float64(g.ShorthandedGoals) }, func(s *PlayerStats) *float64 { return &s.ShorthandedGoals }},
	{"shorthandedPoints", func(g NHLGameLogJSON) float64 { return float64(g.ShorthandedPoints) }, func(s *PlayerStats) *float64 { return &s.ShorthandedPoints }},
	{"pim", func(g NHLGameLogJSON) float64 { return float64(g.PIM) }, func(s *PlayerStats) *float64 { return &s.PIM }},
	{"toi", toiHours, func(s *PlayerStats) *float64 { return &s.TOI }},
}

// toiHours ignores parse errors; Build validates every game log entry first.
func toiHours(g NHLGameLogJSON) float64 {
	h, _ := PlaytimeToHour(g.TOI)
	return h
}

// PlayerRecord is a player's form going into a game.
type PlayerRecord struct {
	PlayerID    int64
	FirstName   string
	LastName    string
	Team        string
	Opponent    string
	Date        string
	Scored      int
	GamesPlayed int
	Stats       PlayerStats
}

// FeatureBuilder averages a player's prior games for a target date.
type FeatureBuilder struct {
	Source   NHLSource
	Season   string // derived from the date when empty
	GameType int
	// Window keeps only the most recent N prior games. Zero means all of them.
	Window int
}

func (b *FeatureBuilder) Build(ctx context.Context, playerID int64, date string) (PlayerRecord, error) {
	season, err := seasonForDate(date)
	if err != nil {
		return PlayerRecord{}, err
	}
	if b.Season != "" {
		season = b.Season
	}

	games, err := b.Source.PlayerGameLog(ctx, playerID, season, b.GameType)
	if err != nil {
		return PlayerRecord{}, err
	}

	var current *NHLGameLogJSON
	prior := []NHLGameLogJSON{}
	for i, game := range games {
		if err := game.validate(); err != nil {
			return PlayerRecord{}, fmt.Errorf("%w: player %d game log entry %d: %v", ErrMalformedResponse, playerID, i, err)
		}
		if game.GameDate == date {
			current = &games[i]
		} else if game.GameDate < date {
			prior = append(prior, game)
		}
	}
	if current == nil {
		return PlayerRecord{}, fmt.Errorf("%w: player %d on %s", ErrPlayerIneligible, playerID, date)
	}

	sort.SliceStable(prior, func(i, j int) bool {
		return prior[i].GameDate > prior[j].GameDate
	})
	if b.Window > 0 && len(prior) > b.Window {
		prior = prior[:b.Window]
	}

	landing, err := b.Source.PlayerLanding(ctx, playerID)
	if err != nil {
		return PlayerRecord{}, err
	}

	return PlayerRecord{
		PlayerID:    playerID,
		FirstName:   landing.FirstName.Default,
		LastName:    landing.LastName.Default,
		Team:        current.TeamAbbrev,
		Opponent:    current.OpponentAbbrev,
		Date:        date,
		GamesPlayed: len(prior),
		Stats:       averageStats(prior),
	}, nil
}

func averageStats(games []NHLGameLogJSON) PlayerStats {
	var stats PlayerStats
	values := make([]float64, len(games))
	for _, col := range statColumns {
		mean := math.NaN()
		if len(games) > 0 {
			for i, game := range games {
				values[i] = col.value(game)
			}
			mean = stat.Mean(values, nil)
		}
		*col.field(&stats) = mean
	}
	return stats
}

// Values returns the averages in statColumns order.
func (s PlayerStats) Values() []float64 {
	vals := make([]float64, len(statColumns))
	for i, col := range statColumns {
		vals[i] = *col.field(&s)
	}
	return vals
}
