package main

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaytimeToHour(t *testing.T) {
	h, err := PlaytimeToHour("12:30")
	require.NoError(t, err)
	assert.InDelta(t, 12.0/60+30.0/3600, h, 1e-12)
	assert.InDelta(t, 0.208333, h, 1e-6)

	h, err = PlaytimeToHour("00:00")
	require.NoError(t, err)
	assert.Equal(t, 0.0, h)

	for _, bad := range []string{"", "1230", "12:xx", "ab:10"} {
		_, err := PlaytimeToHour(bad)
		assert.Error(t, err, bad)
	}
}

func TestSeasonForDate(t *testing.T) {
	cases := map[string]string{
		"2023-12-11": "20232024",
		"2024-03-01": "20232024",
		"2023-10-10": "20232024",
		"2023-06-30": "20222023",
		"2023-07-01": "20232024",
	}
	for date, want := range cases {
		got, err := seasonForDate(date)
		require.NoError(t, err)
		assert.Equal(t, want, got, date)
	}

	_, err := seasonForDate("12/11/2023")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestEncodeDate(t *testing.T) {
	n, err := encodeDate("2023-12-01")
	require.NoError(t, err)
	assert.Equal(t, 20231201, n)
}

func matthewsLog() []NHLGameLogJSON {
	// newest first, as the API returns it
	return []NHLGameLogJSON{
		logEntry("2023-12-14", "TOR", "CHI", 5, 10, "25:00"),
		logEntry("2023-12-10", "TOR", "BOS", 1, 6, "20:00"),
		logEntry("2023-12-07", "TOR", "PIT", 2, 5, "21:00"),
		logEntry("2023-12-05", "TOR", "SEA", 0, 3, "18:00"),
		logEntry("2023-12-02", "TOR", "WSH", 1, 4, "19:30"),
	}
}

func TestFeatureBuilderAveragesPriorGames(t *testing.T) {
	src := newFakeSource()
	src.logs[34] = matthewsLog()
	src.landings[34] = NHLPlayerLandingJSON{
		PlayerID:  34,
		FirstName: NHLLocalizedJSON{Default: "Auston"},
		LastName:  NHLLocalizedJSON{Default: "Matthews"},
	}
	b := &FeatureBuilder{Source: src, GameType: regularSeason}

	rec, err := b.Build(context.Background(), 34, "2023-12-10")
	require.NoError(t, err)

	assert.Equal(t, "Auston", rec.FirstName)
	assert.Equal(t, "Matthews", rec.LastName)
	assert.Equal(t, "TOR", rec.Team)
	assert.Equal(t, "BOS", rec.Opponent)
	assert.Equal(t, 0, rec.Scored)
	assert.Equal(t, 3, rec.GamesPlayed)
	// neither the target game nor the later one leak in
	assert.InDelta(t, 1.0, rec.Stats.Goals, 1e-12)
	assert.InDelta(t, 4.0, rec.Stats.Shots, 1e-12)
	assert.InDelta(t, (21.0/60+18.0/60+19.5/60)/3, rec.Stats.TOI, 1e-12)
	assert.Equal(t, []string{"20232024"}, src.seasons)
}

func TestFeatureBuilderWindow(t *testing.T) {
	src := newFakeSource()
	src.logs[34] = matthewsLog()
	b := &FeatureBuilder{Source: src, GameType: regularSeason, Window: 2}

	rec, err := b.Build(context.Background(), 34, "2023-12-10")
	require.NoError(t, err)
	assert.Equal(t, 2, rec.GamesPlayed)
	assert.InDelta(t, 1.0, rec.Stats.Goals, 1e-12)
	assert.InDelta(t, 4.0, rec.Stats.Shots, 1e-12)
}

func TestFeatureBuilderIneligible(t *testing.T) {
	src := newFakeSource()
	src.logs[34] = matthewsLog()
	b := &FeatureBuilder{Source: src, GameType: regularSeason}

	_, err := b.Build(context.Background(), 34, "2023-12-09")
	assert.ErrorIs(t, err, ErrPlayerIneligible)
}

func TestFeatureBuilderFirstGame(t *testing.T) {
	src := newFakeSource()
	src.logs[34] = matthewsLog()
	b := &FeatureBuilder{Source: src, GameType: regularSeason}

	rec, err := b.Build(context.Background(), 34, "2023-12-02")
	require.NoError(t, err)
	assert.Equal(t, 0, rec.GamesPlayed)
	for _, v := range rec.Stats.Values() {
		assert.True(t, math.IsNaN(v))
	}
}

func TestFeatureBuilderIsRepeatable(t *testing.T) {
	src := newFakeSource()
	src.logs[34] = matthewsLog()
	b := &FeatureBuilder{Source: src, GameType: regularSeason, Window: 5}

	first, err := b.Build(context.Background(), 34, "2023-12-10")
	require.NoError(t, err)
	second, err := b.Build(context.Background(), 34, "2023-12-10")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestFeatureBuilderSeasonOverride(t *testing.T) {
	src := newFakeSource()
	src.logs[34] = matthewsLog()
	b := &FeatureBuilder{Source: src, Season: "20222023", GameType: regularSeason}

	_, err := b.Build(context.Background(), 34, "2023-12-10")
	require.NoError(t, err)
	assert.Equal(t, []string{"20222023"}, src.seasons)
}

func TestFeatureBuilderPropagatesUpstreamErrors(t *testing.T) {
	src := newFakeSource()
	src.logErr = ErrUpstreamUnavailable
	b := &FeatureBuilder{Source: src, GameType: regularSeason}

	_, err := b.Build(context.Background(), 34, "2023-12-10")
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestFeatureBuilderRejectsMalformedGameLog(t *testing.T) {
	src := newFakeSource()
	src.logs[34] = matthewsLog()
	src.logs[34][2].TOI = "21m"
	b := &FeatureBuilder{Source: src, GameType: regularSeason}

	_, err := b.Build(context.Background(), 34, "2023-12-10")
	assert.ErrorIs(t, err, ErrMalformedResponse)
}
