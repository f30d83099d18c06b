package main

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Team files start with identifier columns (team, season, gameId, gameDate, ...)
// and end with a trailing non-feature column.
const teamIdentifierColumns = 10

const oppPrefix = "Opp"

// TeamAggregate is a team's per-game averages over the games before a date.
type TeamAggregate struct {
	Team        string
	Columns     []string
	Means       []float64
	GamesPlayed int
}

func teamFilePath(dir, team string) string {
	return filepath.Join(dir, team+".csv")
}

// LoadTeamAggregate averages the numeric feature columns of a team file over rows
// with gameDate < before. Column names get prefix prepended. With no prior games
// the columns are still reported, with NaN means.
func LoadTeamAggregate(path string, before int, prefix string) (TeamAggregate, error) {
	teamFile, err := os.OpenFile(path, os.O_RDONLY, os.ModePerm)
	if err != nil {
		if os.IsNotExist(err) {
			return TeamAggregate{}, fmt.Errorf("%w: %s", ErrMissingTeamFile, path)
		}
		return TeamAggregate{}, err
	}
	defer teamFile.Close()

	df := dataframe.ReadCSV(teamFile, dataframe.WithTypes(map[string]series.Type{
		"gameDate": series.Int,
	}))
	if df.Err != nil {
		return TeamAggregate{}, fmt.Errorf("%w: %s: %v", ErrMalformedTeamFile, path, df.Err)
	}

	names := df.Names()
	if len(names) < teamIdentifierColumns+2 {
		return TeamAggregate{}, fmt.Errorf("%w: %s: only %d columns", ErrMalformedTeamFile, path, len(names))
	}
	if !hasColumn(names, "gameDate") {
		return TeamAggregate{}, fmt.Errorf("%w: %s: no gameDate column", ErrMalformedTeamFile, path)
	}
	dates, err := df.Col("gameDate").Int()
	if err != nil {
		return TeamAggregate{}, fmt.Errorf("%w: %s: gameDate: %v", ErrMalformedTeamFile, path, err)
	}

	played := 0
	for _, d := range dates {
		if d < before {
			played++
		}
	}

	featureNames := names[teamIdentifierColumns : len(names)-1]
	if played > 0 {
		df = df.Filter(dataframe.F{Colname: "gameDate", Comparator: series.Less, Comparando: before})
	}
	features := df.Select(featureNames)
	if features.Err != nil {
		return TeamAggregate{}, fmt.Errorf("%w: %s: %v", ErrMalformedTeamFile, path, features.Err)
	}

	agg := TeamAggregate{
		Team:        strings.TrimSuffix(filepath.Base(path), ".csv"),
		GamesPlayed: played,
	}
	for _, name := range featureNames {
		col := features.Col(name)
		if col.Type() != series.Int && col.Type() != series.Float {
			continue
		}
		mean := math.NaN()
		if played > 0 {
			mean = nanMean(col.Float())
		}
		agg.Columns = append(agg.Columns, prefix+name)
		agg.Means = append(agg.Means, mean)
	}
	return agg, nil
}

// TeamContext joins team and opponent averages onto player records.
type TeamContext struct {
	Dir string
}

func (t TeamContext) Join(date string, rec PlayerRecord) (DatasetRow, error) {
	before, err := encodeDate(date)
	if err != nil {
		return DatasetRow{}, err
	}

	team, err := LoadTeamAggregate(teamFilePath(t.Dir, rec.Team), before, "")
	if err != nil {
		return DatasetRow{}, err
	}
	opp, err := LoadTeamAggregate(teamFilePath(t.Dir, rec.Opponent), before, oppPrefix)
	if err != nil {
		return DatasetRow{}, err
	}

	// team columns share the player's namespace
	for i, name := range team.Columns {
		if hasColumn(playerHeader(), name) {
			team.Columns[i] = "Team" + name
		}
	}

	return DatasetRow{Player: rec, Team: team, Opp: opp}, nil
}

func hasColumn(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// nanMean is the mean of the non-NaN values, NaN if there are none.
func nanMean(values []float64) float64 {
	if len(values) > 0 && !floats.HasNaN(values) {
		return stat.Mean(values, nil)
	}
	present := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			present = append(present, v)
		}
	}
	if len(present) == 0 {
		return math.NaN()
	}
	return stat.Mean(present, nil)
}
