package main

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

var errNoRows = errors.New("no rows to write")

// DatasetRow is one player's features for one date, with both teams' context.
type DatasetRow struct {
	Player PlayerRecord
	Team   TeamAggregate
	Opp    TeamAggregate
}

func playerHeader() []string {
	header := []string{"playerID", "first name", "last name", "Team", "Opponent", "Scored?", "games_played"}
	for _, col := range statColumns {
		header = append(header, col.name)
	}
	return header
}

func (r DatasetRow) fields() map[string]string {
	p := r.Player
	fields := map[string]string{
		"playerID":        strconv.FormatInt(p.PlayerID, 10),
		"first name":      p.FirstName,
		"last name":       p.LastName,
		"Team":            p.Team,
		"Opponent":        p.Opponent,
		"Scored?":         strconv.Itoa(p.Scored),
		"games_played":    strconv.Itoa(p.GamesPlayed),
		"teamGamesPlayed": strconv.Itoa(r.Team.GamesPlayed),
		"oppGamesPlayed":  strconv.Itoa(r.Opp.GamesPlayed),
	}
	for i, v := range p.Stats.Values() {
		fields[statColumns[i].name] = formatFloat(v)
	}
	for _, agg := range []TeamAggregate{r.Team, r.Opp} {
		for i, name := range agg.Columns {
			fields[name] = formatFloat(agg.Means[i])
		}
	}
	return fields
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ApplyLabels marks each row scored iff its player is in scorers.
func ApplyLabels(rows []DatasetRow, scorers map[int64]bool) {
	for i := range rows {
		rows[i].Player.Scored = 0
		if scorers[rows[i].Player.PlayerID] {
			rows[i].Player.Scored = 1
		}
	}
}

func datasetPath(dir, date string) string {
	return filepath.Join(dir, fmt.Sprintf("%s_data.csv", date))
}

// DatasetHeader is the union of the rows' columns: player columns, team columns
// and opponent columns in first-seen order, then the games played counts.
func DatasetHeader(rows []DatasetRow) []string {
	header := playerHeader()
	seen := make(map[string]bool)
	for _, name := range header {
		seen[name] = true
	}

	var oppColumns []string
	for _, row := range rows {
		for _, name := range row.Team.Columns {
			if !seen[name] {
				seen[name] = true
				header = append(header, name)
			}
		}
		for _, name := range row.Opp.Columns {
			if !seen[name] {
				seen[name] = true
				oppColumns = append(oppColumns, name)
			}
		}
	}
	header = append(header, oppColumns...)
	return append(header, "teamGamesPlayed", "oppGamesPlayed")
}

// WriteDataset writes rows ordered by player ID to path, creating its directory.
func WriteDataset(path string, rows []DatasetRow) error {
	if len(rows) == 0 {
		return errNoRows
	}

	sorted := make([]DatasetRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Player.PlayerID < sorted[j].Player.PlayerID
	})

	header := DatasetHeader(sorted)
	records := [][]string{header}
	for _, row := range sorted {
		fields := row.fields()
		record := make([]string, len(header))
		for i, name := range header {
			record[i] = fields[name]
		}
		records = append(records, record)
	}

	df := dataframe.LoadRecords(records,
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return df.Err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	dataFile, err := os.Create(path)
	if err != nil {
		return err
	}
	defer dataFile.Close()

	return df.WriteCSV(dataFile)
}
