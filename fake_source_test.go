package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu        sync.Mutex
	schedules map[string]NHLScheduleJSON
	boxscores map[int64]NHLBoxscoreJSON
	plays     map[int64]NHLPlayByPlayJSON
	landings  map[int64]NHLPlayerLandingJSON
	logs      map[int64][]NHLGameLogJSON
	logErr    error
	seasons   []string
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		schedules: map[string]NHLScheduleJSON{},
		boxscores: map[int64]NHLBoxscoreJSON{},
		plays:     map[int64]NHLPlayByPlayJSON{},
		landings:  map[int64]NHLPlayerLandingJSON{},
		logs:      map[int64][]NHLGameLogJSON{},
	}
}

func (f *fakeSource) Schedule(ctx context.Context, date string) (NHLScheduleJSON, error) {
	s, ok := f.schedules[date]
	if !ok {
		return NHLScheduleJSON{}, fmt.Errorf("%w: no schedule for %s", ErrUpstreamUnavailable, date)
	}
	return s, nil
}

func (f *fakeSource) PlayByPlay(ctx context.Context, gameID int64) (NHLPlayByPlayJSON, error) {
	return f.plays[gameID], nil
}

func (f *fakeSource) Boxscore(ctx context.Context, gameID int64) (NHLBoxscoreJSON, error) {
	return f.boxscores[gameID], nil
}

func (f *fakeSource) PlayerLanding(ctx context.Context, playerID int64) (NHLPlayerLandingJSON, error) {
	l, ok := f.landings[playerID]
	if !ok {
		l = NHLPlayerLandingJSON{
			PlayerID:  playerID,
			FirstName: NHLLocalizedJSON{Default: "Player"},
			LastName:  NHLLocalizedJSON{Default: fmt.Sprint(playerID)},
		}
	}
	return l, nil
}

func (f *fakeSource) PlayerGameLog(ctx context.Context, playerID int64, season string, gameType int) ([]NHLGameLogJSON, error) {
	f.mu.Lock()
	f.seasons = append(f.seasons, season)
	f.mu.Unlock()
	if f.logErr != nil {
		return nil, f.logErr
	}
	games := f.logs[playerID]
	// hand out a copy, like a fresh decode would
	out := make([]NHLGameLogJSON, len(games))
	copy(out, games)
	return out, nil
}

// addGame schedules a game on date with the given skaters and goal scorers.
func (f *fakeSource) addGame(date string, gameID int64, away, home []int64, scorers ...int64) {
	s := f.schedules[date]
	if len(s.GameWeek) == 0 {
		s.GameWeek = []NHLScheduleDateJSON{{Date: date}}
	}
	s.GameWeek[0].Games = append(s.GameWeek[0].Games, NHLGameJSON{ID: gameID, GameType: regularSeason})
	f.schedules[date] = s

	skaters := func(ids []int64) NHLBoxscoreTeamJSON {
		team := NHLBoxscoreTeamJSON{}
		for i, id := range ids {
			// alternate forwards and defense
			if i%2 == 0 {
				team.Forwards = append(team.Forwards, NHLBoxscorePlayerJSON{PlayerID: id})
			} else {
				team.Defense = append(team.Defense, NHLBoxscorePlayerJSON{PlayerID: id})
			}
		}
		return team
	}
	f.boxscores[gameID] = NHLBoxscoreJSON{PlayerByGameStats: &NHLPlayerByGameStatsJSON{
		AwayTeam: skaters(away),
		HomeTeam: skaters(home),
	}}

	pbp := NHLPlayByPlayJSON{Plays: []NHLPlayJSON{{TypeDescKey: "faceoff"}}}
	for _, id := range scorers {
		play := NHLPlayJSON{TypeDescKey: "goal"}
		play.Details.ScoringPlayerID = id
		pbp.Plays = append(pbp.Plays, play)
	}
	f.plays[gameID] = pbp
}

func logEntry(date, team, opp string, goals, shots int, toi string) NHLGameLogJSON {
	return NHLGameLogJSON{
		GameDate:       date,
		TeamAbbrev:     team,
		OpponentAbbrev: opp,
		Goals:          goals,
		Points:         goals,
		Shots:          shots,
		TOI:            toi,
	}
}

var teamHeader = []string{
	"team", "season", "name", "gameId", "playerTeam", "opposingTeam", "home_or_away", "gameDate", "position", "situation",
	"goalsFor", "shotsOnGoalFor", "xGoalsFor", "playoffGame",
}

// writeTeamFile writes dir/<team>.csv with one row per (gameDate, goalsFor,
// shotsOnGoalFor, xGoalsFor) tuple.
func writeTeamFile(t *testing.T, dir, team string, rows ...[4]float64) {
	t.Helper()
	lines := []string{strings.Join(teamHeader, ",")}
	for i, r := range rows {
		lines = append(lines, fmt.Sprintf("%s,2023,%s,%d,%s,OPP,HOME,%d,TEAM TOTAL,all,%g,%g,%g,0",
			team, team, 2023020000+i, team, int(r[0]), r[1], r[2], r[3]))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, team+".csv"), []byte(strings.Join(lines, "\n")+"\n"), 0644))
}

func logrusDiscard() *logrus.Logger {
	log, _ := test.NewNullLogger()
	return log
}
