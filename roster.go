package main

import (
	"context"
	"sort"

	"github.com/sirupsen/logrus"
)

// Roster is who skated and who scored on one date.
type Roster struct {
	Date    string
	Players []int64
	Scorers map[int64]bool
}

// GetRoster collects the skaters (forwards and defense, no goalies) from every
// box score on date and the scorers from every play-by-play. Any failure fails
// the date: a partial roster would mislabel players.
func GetRoster(ctx context.Context, src NHLSource, date string, gameType int, log logrus.FieldLogger) (Roster, error) {
	if _, err := parseDate(date); err != nil {
		return Roster{}, err
	}

	schedule, err := src.Schedule(ctx, date)
	if err != nil {
		return Roster{}, err
	}

	players := make(map[int64]bool)
	scorers := make(map[int64]bool)
	for _, game := range schedule.GamesOn(date) {
		if gameType > 0 && game.GameType != gameType {
			log.WithFields(logrus.Fields{"date": date, "game": game.ID, "gameType": game.GameType}).Debug("skipping game")
			continue
		}

		box, err := src.Boxscore(ctx, game.ID)
		if err != nil {
			return Roster{}, err
		}
		if err := box.validate(game.ID); err != nil {
			return Roster{}, err
		}
		for _, team := range []NHLBoxscoreTeamJSON{box.PlayerByGameStats.AwayTeam, box.PlayerByGameStats.HomeTeam} {
			for _, p := range team.Forwards {
				players[p.PlayerID] = true
			}
			for _, p := range team.Defense {
				players[p.PlayerID] = true
			}
		}

		pbp, err := src.PlayByPlay(ctx, game.ID)
		if err != nil {
			return Roster{}, err
		}
		if err := pbp.validate(game.ID); err != nil {
			return Roster{}, err
		}
		for _, play := range pbp.Plays {
			if play.TypeDescKey == "goal" {
				scorers[play.Details.ScoringPlayerID] = true
			}
		}
	}

	roster := Roster{Date: date, Scorers: scorers}
	for id := range players {
		roster.Players = append(roster.Players, id)
	}
	sort.Slice(roster.Players, func(i, j int) bool {
		return roster.Players[i] < roster.Players[j]
	})
	return roster, nil
}
