package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// NHLSource is the subset of the NHL web API the collector reads.
type NHLSource interface {
	Schedule(ctx context.Context, date string) (NHLScheduleJSON, error)
	PlayByPlay(ctx context.Context, gameID int64) (NHLPlayByPlayJSON, error)
	Boxscore(ctx context.Context, gameID int64) (NHLBoxscoreJSON, error)
	PlayerLanding(ctx context.Context, playerID int64) (NHLPlayerLandingJSON, error)
	PlayerGameLog(ctx context.Context, playerID int64, season string, gameType int) ([]NHLGameLogJSON, error)
}

type NHLScheduleJSON struct {
	GameWeek []NHLScheduleDateJSON `json:"gameWeek"`
}

type NHLScheduleDateJSON struct {
	Date  string        `json:"date"`
	Games []NHLGameJSON `json:"games"`
}

type NHLGameJSON struct {
	ID        int64  `json:"id"`
	GameType  int    `json:"gameType"`
	GameState string `json:"gameState"`
	AwayTeam  struct {
		Abbrev string `json:"abbrev"`
	} `json:"awayTeam"`
	HomeTeam struct {
		Abbrev string `json:"abbrev"`
	} `json:"homeTeam"`
}

type NHLPlayByPlayJSON struct {
	Plays []NHLPlayJSON `json:"plays"`
}

type NHLPlayJSON struct {
	EventID     int64  `json:"eventId"`
	TypeDescKey string `json:"typeDescKey"`
	Details     struct {
		ScoringPlayerID int64 `json:"scoringPlayerId"`
	} `json:"details"`
}

type NHLBoxscoreJSON struct {
	PlayerByGameStats *NHLPlayerByGameStatsJSON `json:"playerByGameStats"`
}

type NHLPlayerByGameStatsJSON struct {
	AwayTeam NHLBoxscoreTeamJSON `json:"awayTeam"`
	HomeTeam NHLBoxscoreTeamJSON `json:"homeTeam"`
}

type NHLBoxscoreTeamJSON struct {
	Forwards []NHLBoxscorePlayerJSON `json:"forwards"`
	Defense  []NHLBoxscorePlayerJSON `json:"defense"`
	Goalies  []NHLBoxscorePlayerJSON `json:"goalies"`
}

type NHLBoxscorePlayerJSON struct {
	PlayerID int64 `json:"playerId"`
}

type NHLLocalizedJSON struct {
	Default string `json:"default"`
}

type NHLPlayerLandingJSON struct {
	PlayerID  int64            `json:"playerId"`
	FirstName NHLLocalizedJSON `json:"firstName"`
	LastName  NHLLocalizedJSON `json:"lastName"`
}

type nhlGameLogResponseJSON struct {
	GameLog []NHLGameLogJSON `json:"gameLog"`
}

type NHLGameLogJSON struct {
	GameID            int64  `json:"gameId"`
	TeamAbbrev        string `json:"teamAbbrev"`
	OpponentAbbrev    string `json:"opponentAbbrev"`
	HomeRoadFlag      string `json:"homeRoadFlag"`
	GameDate          string `json:"gameDate"`
	Goals             int    `json:"goals"`
	Assists           int    `json:"assists"`
	Points            int    `json:"points"`
	PlusMinus         int    `json:"plusMinus"`
	PowerPlayGoals    int    `json:"powerPlayGoals"`
	PowerPlayPoints   int    `json:"powerPlayPoints"`
	GameWinningGoals  int    `json:"gameWinningGoals"`
	OTGoals           int    `json:"otGoals"`
	Shots             int    `json:"shots"`
	Shifts            int    `json:"shifts"`
	ShorthandedGoals  int    `json:"shorthandedGoals"`
	ShorthandedPoints int    `json:"shorthandedPoints"`
	PIM               int    `json:"pim"`
	TOI               string `json:"toi"`
}

// NHLClient talks to api-web.nhle.com. Every request shares the client timeout
// and, when configured, a request rate limit.
type NHLClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	log     logrus.FieldLogger
}

func NewNHLClient(baseURL string, timeout time.Duration, rps float64, log logrus.FieldLogger) *NHLClient {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &NHLClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, 1),
		log:     log,
	}
}

func (c *NHLClient) getJSON(ctx context.Context, path string, v interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	c.log.WithField("url", url).Debug("fetching")
	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: GET %s: %v", ErrUpstreamUnavailable, path, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: GET %s: status %d", ErrUpstreamUnavailable, path, res.StatusCode)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("%w: reading %s: %v", ErrUpstreamUnavailable, path, err)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedResponse, path, err)
	}
	return nil
}

func (c *NHLClient) Schedule(ctx context.Context, date string) (NHLScheduleJSON, error) {
	var schedule NHLScheduleJSON
	if err := c.getJSON(ctx, "/schedule/"+date, &schedule); err != nil {
		return NHLScheduleJSON{}, err
	}
	return schedule, schedule.validate()
}

func (c *NHLClient) PlayByPlay(ctx context.Context, gameID int64) (NHLPlayByPlayJSON, error) {
	var pbp NHLPlayByPlayJSON
	if err := c.getJSON(ctx, fmt.Sprintf("/gamecenter/%d/play-by-play", gameID), &pbp); err != nil {
		return NHLPlayByPlayJSON{}, err
	}
	return pbp, pbp.validate(gameID)
}

func (c *NHLClient) Boxscore(ctx context.Context, gameID int64) (NHLBoxscoreJSON, error) {
	var box NHLBoxscoreJSON
	if err := c.getJSON(ctx, fmt.Sprintf("/gamecenter/%d/boxscore", gameID), &box); err != nil {
		return NHLBoxscoreJSON{}, err
	}
	return box, box.validate(gameID)
}

func (c *NHLClient) PlayerLanding(ctx context.Context, playerID int64) (NHLPlayerLandingJSON, error) {
	var landing NHLPlayerLandingJSON
	if err := c.getJSON(ctx, fmt.Sprintf("/player/%d/landing", playerID), &landing); err != nil {
		return NHLPlayerLandingJSON{}, err
	}
	return landing, landing.validate(playerID)
}

func (c *NHLClient) PlayerGameLog(ctx context.Context, playerID int64, season string, gameType int) ([]NHLGameLogJSON, error) {
	var res nhlGameLogResponseJSON
	if err := c.getJSON(ctx, fmt.Sprintf("/player/%d/game-log/%s/%d", playerID, season, gameType), &res); err != nil {
		return nil, err
	}
	if res.GameLog == nil {
		return nil, fmt.Errorf("%w: player %d game log: missing gameLog", ErrMalformedResponse, playerID)
	}
	for i, game := range res.GameLog {
		if err := game.validate(); err != nil {
			return nil, fmt.Errorf("%w: player %d game log entry %d: %v", ErrMalformedResponse, playerID, i, err)
		}
	}
	return res.GameLog, nil
}

func (s NHLScheduleJSON) validate() error {
	if s.GameWeek == nil {
		return fmt.Errorf("%w: schedule: missing gameWeek", ErrMalformedResponse)
	}
	for _, day := range s.GameWeek {
		if _, err := parseDate(day.Date); err != nil {
			return fmt.Errorf("%w: schedule: %v", ErrMalformedResponse, err)
		}
		for _, game := range day.Games {
			if game.ID <= 0 {
				return fmt.Errorf("%w: schedule %s: game without id", ErrMalformedResponse, day.Date)
			}
		}
	}
	return nil
}

// GamesOn returns the games scheduled on date. A week without that date simply
// has no games for it.
func (s NHLScheduleJSON) GamesOn(date string) []NHLGameJSON {
	for _, day := range s.GameWeek {
		if day.Date == date {
			return day.Games
		}
	}
	return nil
}

func (p NHLPlayByPlayJSON) validate(gameID int64) error {
	if p.Plays == nil {
		return fmt.Errorf("%w: game %d play-by-play: missing plays", ErrMalformedResponse, gameID)
	}
	for _, play := range p.Plays {
		if play.TypeDescKey == "goal" && play.Details.ScoringPlayerID <= 0 {
			return fmt.Errorf("%w: game %d: goal event %d without scorer", ErrMalformedResponse, gameID, play.EventID)
		}
	}
	return nil
}

func (b NHLBoxscoreJSON) validate(gameID int64) error {
	if b.PlayerByGameStats == nil {
		return fmt.Errorf("%w: game %d boxscore: missing playerByGameStats", ErrMalformedResponse, gameID)
	}
	return nil
}

func (l NHLPlayerLandingJSON) validate(playerID int64) error {
	if l.FirstName.Default == "" || l.LastName.Default == "" {
		return fmt.Errorf("%w: player %d landing: missing name", ErrMalformedResponse, playerID)
	}
	return nil
}

func (g NHLGameLogJSON) validate() error {
	if _, err := parseDate(g.GameDate); err != nil {
		return err
	}
	if g.TeamAbbrev == "" || g.OpponentAbbrev == "" {
		return fmt.Errorf("game %d missing team abbreviations", g.GameID)
	}
	if _, err := PlaytimeToHour(g.TOI); err != nil {
		return err
	}
	return nil
}
