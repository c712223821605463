package config

import (
	"fmt"

	"homestead/internal/game"
	"homestead/pkg/layouts"
)

// Server is the environment of cmd/server. Flags override every field.
type Server struct {
	Addr          string `env:"HOMESTEAD_ADDR" envDefault:":30000"`
	DBPath        string `env:"HOMESTEAD_DB_PATH" envDefault:"data/homestead.db"`
	LogLevel      string `env:"HOMESTEAD_LOG_LEVEL" envDefault:"info"`
	FeedingPolicy string `env:"HOMESTEAD_FEEDING_POLICY" envDefault:"harvest"`
	Catalog       string `env:"HOMESTEAD_CATALOG"` // directory with actions.csv and cards.csv; empty uses the built-in tables
	Seed          int64  `env:"HOMESTEAD_SEED"`
	HandSize      int    `env:"HOMESTEAD_HAND_SIZE" envDefault:"7"`
	Layout        string `env:"HOMESTEAD_LAYOUT" envDefault:"classic"`
}

// LoadServer parses the server environment.
func LoadServer() (Server, error) {
	var cfg Server
	if err := ParseEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Rules builds the game rules for this configuration.
func (s Server) Rules() (game.Rules, error) {
	rules := game.DefaultRules()
	policy, err := game.ParseFeedingPolicy(s.FeedingPolicy)
	if err != nil {
		return rules, fmt.Errorf("HOMESTEAD_FEEDING_POLICY: %w", err)
	}
	rules.FeedingPolicy = policy
	rules.Seed = s.Seed
	if s.HandSize > 0 {
		rules.HandSize = s.HandSize
	}

	rules, err = layouts.Rules(s.Layout, rules)
	if err != nil {
		return rules, fmt.Errorf("HOMESTEAD_LAYOUT: %w", err)
	}
	return rules, nil
}

// Bot is the environment of cmd/bot.
type Bot struct {
	URL      string `env:"HOMESTEAD_URL" envDefault:"ws://localhost:30000/ws"`
	Player   string `env:"HOMESTEAD_PLAYER" envDefault:"bot"`
	LogLevel string `env:"HOMESTEAD_LOG_LEVEL" envDefault:"info"`
}

// LoadBot parses the bot environment.
func LoadBot() (Bot, error) {
	var cfg Bot
	if err := ParseEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
