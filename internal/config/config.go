package config

import (
	"os"
	"strconv"
	"time"
)

// Config collects every matchmaking tunable. Values come from the
// environment (a .env file is loaded in main) with the defaults below.
type Config struct {
	Port        string
	DatabaseDSN string

	SkillBased bool

	SkillWindow           int
	BaseEloTolerance      int
	EloTolerancePerSecond int

	GroupSize       int // four-player mode cohort size
	TournamentSize  int // players needed to start a tournament
	PlayersPerMatch int // bracket size within a tournament round
	WinnersPerMatch int // survivors per non-final bracket

	MatchmakingTimeout time.Duration // advertised to clients, enforced client-side
	SweepInterval      time.Duration
	MatchTTL           time.Duration // unclaimed allocations are dropped after this

	// CourseTierThresholds are the upper average-skill bounds of the first
	// three difficulty tiers; everything above the last bound is tier four.
	CourseTierThresholds [3]int
}

func Load() Config {
	return Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseDSN: getEnv("DATABASE_DSN", "minigolf.db?_journal_mode=WAL"),

		SkillBased: getEnvBool("SKILL_BASED_MATCHMAKING", true),

		SkillWindow:           getEnvInt("SKILL_WINDOW", 200),
		BaseEloTolerance:      getEnvInt("BASE_ELO_TOLERANCE", 50),
		EloTolerancePerSecond: getEnvInt("ELO_TOLERANCE_PER_SECOND", 10),

		GroupSize:       getEnvInt("GROUP_SIZE", 4),
		TournamentSize:  getEnvInt("TOURNAMENT_SIZE", 8),
		PlayersPerMatch: getEnvInt("PLAYERS_PER_MATCH", 8),
		WinnersPerMatch: getEnvInt("WINNERS_PER_MATCH", 4),

		MatchmakingTimeout: time.Duration(getEnvInt("MATCHMAKING_TIMEOUT_SECONDS", 30)) * time.Second,
		SweepInterval:      time.Duration(getEnvInt("SWEEP_INTERVAL_MS", 500)) * time.Millisecond,
		MatchTTL:           time.Duration(getEnvInt("MATCH_TTL_MINUTES", 30)) * time.Minute,

		CourseTierThresholds: [3]int{
			getEnvInt("COURSE_TIER_1_MAX_SKILL", 1200),
			getEnvInt("COURSE_TIER_2_MAX_SKILL", 1600),
			getEnvInt("COURSE_TIER_3_MAX_SKILL", 2000),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
