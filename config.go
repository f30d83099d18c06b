package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	nhlURL         = "https://api-web.nhle.com/v1"
	regularSeason  = 2
	defaultTimeout = 20 * time.Second
)

// defaultDates is the batch the dataset was originally built from.
var defaultDates = []string{
	"2023-12-11", "2023-12-10", "2023-12-09", "2023-12-08", "2023-12-07",
	"2023-12-06", "2023-12-05", "2023-12-04", "2023-12-03", "2023-12-02",
	"2023-12-01", "2023-11-30", "2023-11-29", "2023-11-28", "2023-11-27",
}

type Config struct {
	APIURL      string
	Timeout     time.Duration
	RPS         float64
	Season      string
	GameType    int
	TeamDataDir string
	OutputDir   string
	Window      int
	Workers     int
	LogLevel    logrus.Level
}

// LoadConfig reads an optional .env file and then the process environment.
// Unset variables keep their defaults.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}
	return configFromEnv(os.Getenv)
}

func configFromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		APIURL:      nhlURL,
		Timeout:     defaultTimeout,
		RPS:         5,
		GameType:    regularSeason,
		TeamDataDir: "team_data",
		OutputDir:   "all_data",
		Workers:     4,
		LogLevel:    logrus.InfoLevel,
	}

	if v := getenv("NHL_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := getenv("NHL_API_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("NHL_API_TIMEOUT: %w", err)
		}
		cfg.Timeout = d
	}
	if v := getenv("NHL_API_RPS"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return cfg, fmt.Errorf("NHL_API_RPS: %w", err)
		}
		cfg.RPS = rps
	}
	if v := getenv("NHL_SEASON"); v != "" {
		if len(v) != 8 {
			return cfg, fmt.Errorf("NHL_SEASON: expected YYYYYYYY, got %q", v)
		}
		cfg.Season = v
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"NHL_GAME_TYPE", &cfg.GameType},
		{"GAME_WINDOW", &cfg.Window},
		{"WORKERS", &cfg.Workers},
	}
	for _, i := range ints {
		v := getenv(i.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", i.key, err)
		}
		*i.dst = n
	}

	if v := getenv("TEAM_DATA_DIR"); v != "" {
		cfg.TeamDataDir = v
	}
	if v := getenv("OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		lvl, err := logrus.ParseLevel(v)
		if err != nil {
			return cfg, fmt.Errorf("LOG_LEVEL: %w", err)
		}
		cfg.LogLevel = lvl
	}

	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Window < 0 {
		return cfg, fmt.Errorf("GAME_WINDOW must not be negative, got %d", cfg.Window)
	}
	return cfg, nil
}

func newLogger(level logrus.Level) *logrus.Logger {
	log := logrus.New()
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return log
}
